// Package productcard encodes and decodes the product card block that
// specialists append to their answers:
//
//	<<<PRODUCT_CARDS:[{"ps_number":"PS11752778", ...}]>>>
package productcard

import (
	"encoding/json"
	"fmt"
	"strings"

	contractx "github.com/tanpawarit/partselect-assistant/agent/contract"
)

const (
	OpenMarker  = "<<<PRODUCT_CARDS:"
	CloseMarker = ">>>"
)

// Block describes the location of a card block inside a text.
type Block struct {
	Start    int // index of OpenMarker
	End      int // index just past CloseMarker, or len(text) when unterminated
	Payload  string
	Complete bool
}

// Find locates the first card block in text.
func Find(text string) (Block, bool) {
	start := strings.Index(text, OpenMarker)
	if start < 0 {
		return Block{}, false
	}
	payloadStart := start + len(OpenMarker)
	rel := strings.Index(text[payloadStart:], CloseMarker)
	if rel < 0 {
		return Block{Start: start, End: len(text), Payload: text[payloadStart:]}, true
	}
	end := payloadStart + rel
	return Block{
		Start:    start,
		End:      end + len(CloseMarker),
		Payload:  text[payloadStart:end],
		Complete: true,
	}, true
}

// Decode parses a block payload into product records.
func Decode(payload string) ([]contractx.Product, error) {
	var products []contractx.Product
	dec := json.NewDecoder(strings.NewReader(payload))
	if err := dec.Decode(&products); err != nil {
		return nil, fmt.Errorf("%w: decode product cards: %v", contractx.ErrSchemaViolation, err)
	}
	if dec.More() {
		return nil, fmt.Errorf("%w: trailing data after product cards", contractx.ErrSchemaViolation)
	}
	return products, nil
}

// Valid reports whether the block is terminated and decodes cleanly.
func (b Block) Valid() bool {
	if !b.Complete {
		return false
	}
	_, err := Decode(b.Payload)
	return err == nil
}

// Split separates narrative text from the card block. Narrative is everything
// before the block, trimmed. Malformed blocks yield no products.
func Split(text string) (string, []contractx.Product) {
	block, ok := Find(text)
	if !ok {
		return strings.TrimSpace(text), nil
	}
	narrative := strings.TrimSpace(text[:block.Start])
	if !block.Complete {
		return narrative, nil
	}
	products, err := Decode(block.Payload)
	if err != nil {
		return narrative, nil
	}
	return narrative, products
}

// Encode renders products as a card block.
func Encode(products []contractx.Product) (string, error) {
	raw, err := json.Marshal(products)
	if err != nil {
		return "", fmt.Errorf("encode product cards: %w", err)
	}
	return OpenMarker + string(raw) + CloseMarker, nil
}

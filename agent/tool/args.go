package tool

import (
	"fmt"
	"strings"

	"github.com/mitchellh/mapstructure"
)

type searchProductsArgs struct {
	Query    string `mapstructure:"query"`
	Category string `mapstructure:"category"`
}

type compatibilityArgs struct {
	PSNumber    string `mapstructure:"ps_number"`
	ModelNumber string `mapstructure:"model_number"`
}

type modelArgs struct {
	ModelNumber string `mapstructure:"model_number"`
}

type troubleshootingArgs struct {
	Category string `mapstructure:"category"`
	Symptom  string `mapstructure:"symptom"`
}

type partArgs struct {
	PSNumber string `mapstructure:"ps_number"`
}

type orderArgs struct {
	OrderID string `mapstructure:"order_id"`
}

// decodeArgs fills out from the loosely typed mapping a model produced.
// Numbers and booleans are accepted where strings are expected.
func decodeArgs(args map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(args); err != nil {
		return fmt.Errorf("decode arguments: %w", err)
	}
	return nil
}

// normalizeID uppercases identifiers such as PS, model and order numbers.
func normalizeID(id string) string {
	return strings.ToUpper(strings.TrimSpace(id))
}

func normalizeCategory(category string) string {
	return strings.ToLower(strings.TrimSpace(category))
}

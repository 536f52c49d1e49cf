package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog/log"

	"github.com/tanpawarit/partselect-assistant/agent/catalog"
)

// Source lists what the index is built from.
type Source interface {
	AllParts(ctx context.Context) ([]catalog.Part, error)
	AllGuides(ctx context.Context) ([]catalog.TroubleshootingGuide, error)
}

// Build embeds every part and troubleshooting guide from src.
func (ix *Index) Build(ctx context.Context, src Source) error {
	parts, err := src.AllParts(ctx)
	if err != nil {
		return fmt.Errorf("search: load parts: %w", err)
	}
	guides, err := src.AllGuides(ctx)
	if err != nil {
		return fmt.Errorf("search: load guides: %w", err)
	}

	productDocs := make([]*schema.Document, 0, len(parts))
	for _, p := range parts {
		productDocs = append(productDocs, ProductDocument(p))
	}
	guideDocs := make([]*schema.Document, 0, len(guides))
	for _, g := range guides {
		guideDocs = append(guideDocs, GuideDocument(g))
	}

	if err := ix.Upsert(ctx, CollectionProducts, productDocs); err != nil {
		return err
	}
	if err := ix.Upsert(ctx, CollectionGuides, guideDocs); err != nil {
		return err
	}
	log.Info().Int("products", len(productDocs)).Int("guides", len(guideDocs)).Msg("semantic index built")
	return nil
}

func ProductDocument(p catalog.Part) *schema.Document {
	return &schema.Document{
		ID: p.PSNumber,
		Content: joinNonEmpty(
			p.Name, p.Description, p.Category, p.Subcategory, p.Brand,
			strings.Join(p.Symptoms, " "),
		),
		MetaData: map[string]any{
			"ps_number": p.PSNumber,
			"name":      p.Name,
			"price":     p.Price,
			"category":  p.Category,
			"brand":     p.Brand,
			"in_stock":  p.InStock,
			"rating":    p.Rating,
		},
	}
}

func GuideDocument(g catalog.TroubleshootingGuide) *schema.Document {
	return &schema.Document{
		ID: g.ProblemKey,
		Content: joinNonEmpty(
			g.Title,
			strings.Join(g.Symptoms, " "),
			strings.Join(g.DiagnosisSteps, " "),
		),
		MetaData: map[string]any{
			"problem_key": g.ProblemKey,
			"category":    g.Category,
			"title":       g.Title,
		},
	}
}

func joinNonEmpty(parts ...string) string {
	out := parts[:0:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, " | ")
}

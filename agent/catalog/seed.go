package catalog

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/uptrace/bun"
)

//go:embed seed.json
var seedRaw []byte

type SeedModel struct {
	ApplianceModel
	CompatibleParts []string `json:"compatible_parts"`
}

type SeedGuide struct {
	TroubleshootingGuide
	RecommendedParts []string `json:"recommended_parts"`
}

// SeedData is the bundled starter catalog.
type SeedData struct {
	Parts           []Part              `json:"parts"`
	Models          []SeedModel         `json:"models"`
	Troubleshooting []SeedGuide         `json:"troubleshooting"`
	Installation    []InstallationGuide `json:"installation"`
	Orders          []Order             `json:"orders"`
}

func LoadSeed() (SeedData, error) {
	return ParseSeed(seedRaw)
}

func ParseSeed(raw []byte) (SeedData, error) {
	var data SeedData
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&data); err != nil {
		return SeedData{}, fmt.Errorf("decode seed data: %w", err)
	}
	return data, nil
}

// Load writes the seed data in one transaction. Existing rows are updated.
func (s *Store) Load(ctx context.Context, data SeedData) error {
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		for i := range data.Parts {
			if err := upsertPart(ctx, tx, &data.Parts[i]); err != nil {
				return err
			}
		}
		for i := range data.Models {
			if err := upsertModel(ctx, tx, &data.Models[i].ApplianceModel); err != nil {
				return err
			}
			for _, ps := range data.Models[i].CompatibleParts {
				if err := addCompatibility(ctx, tx, ps, data.Models[i].ModelNumber); err != nil {
					return err
				}
			}
		}
		for i := range data.Troubleshooting {
			g := &data.Troubleshooting[i]
			if err := upsertGuide(ctx, tx, &g.TroubleshootingGuide, g.RecommendedParts); err != nil {
				return err
			}
		}
		for i := range data.Installation {
			if err := upsertInstallationGuide(ctx, tx, &data.Installation[i]); err != nil {
				return err
			}
		}
		for i := range data.Orders {
			if err := upsertOrder(ctx, tx, &data.Orders[i]); err != nil {
				return err
			}
		}
		return nil
	})
}

// EnsureSeeded creates the schema and loads the bundled seed when the parts
// table is empty. It reports whether seeding happened.
func (s *Store) EnsureSeeded(ctx context.Context) (bool, error) {
	if err := s.CreateSchema(ctx); err != nil {
		return false, err
	}
	n, err := s.db.NewSelect().Model((*Part)(nil)).Count(ctx)
	if err != nil {
		return false, fmt.Errorf("count parts: %w", err)
	}
	if n > 0 {
		return false, nil
	}

	data, err := LoadSeed()
	if err != nil {
		return false, err
	}
	if err := s.Load(ctx, data); err != nil {
		return false, err
	}
	log.Info().
		Int("parts", len(data.Parts)).
		Int("models", len(data.Models)).
		Int("guides", len(data.Troubleshooting)).
		Int("orders", len(data.Orders)).
		Msg("catalog seeded")
	return true, nil
}

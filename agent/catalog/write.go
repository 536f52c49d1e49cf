package catalog

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

func setExcluded(q *bun.InsertQuery, columns ...string) *bun.InsertQuery {
	for _, col := range columns {
		q = q.Set(col + " = EXCLUDED." + col)
	}
	return q
}

func upsertPart(ctx context.Context, db bun.IDB, part *Part) error {
	q := db.NewInsert().Model(part).On("CONFLICT (ps_number) DO UPDATE")
	q = setExcluded(q, "manufacturer_part", "name", "description", "price", "category",
		"subcategory", "brand", "image_url", "url", "in_stock", "rating", "review_count",
		"installation_difficulty", "symptoms", "installation_steps")
	if _, err := q.Exec(ctx); err != nil {
		return fmt.Errorf("upsert part %s: %w", part.PSNumber, err)
	}
	return nil
}

func upsertModel(ctx context.Context, db bun.IDB, model *ApplianceModel) error {
	q := db.NewInsert().Model(model).On("CONFLICT (model_number) DO UPDATE")
	q = setExcluded(q, "brand", "appliance_type", "name", "url")
	if _, err := q.Exec(ctx); err != nil {
		return fmt.Errorf("upsert model %s: %w", model.ModelNumber, err)
	}
	return nil
}

// addCompatibility links a part and a model. Links to unknown records are
// skipped.
func addCompatibility(ctx context.Context, db bun.IDB, psNumber, modelNumber string) error {
	partExists, err := db.NewSelect().Model((*Part)(nil)).Where("p.ps_number = ?", psNumber).Exists(ctx)
	if err != nil {
		return fmt.Errorf("check part %s: %w", psNumber, err)
	}
	modelExists, err := db.NewSelect().Model((*ApplianceModel)(nil)).Where("m.model_number = ?", modelNumber).Exists(ctx)
	if err != nil {
		return fmt.Errorf("check model %s: %w", modelNumber, err)
	}
	if !partExists || !modelExists {
		return nil
	}

	link := &Compatibility{PSNumber: psNumber, ModelNumber: modelNumber}
	if _, err := db.NewInsert().Model(link).On("CONFLICT DO NOTHING").Exec(ctx); err != nil {
		return fmt.Errorf("link %s to %s: %w", psNumber, modelNumber, err)
	}
	return nil
}

func upsertGuide(ctx context.Context, db bun.IDB, guide *TroubleshootingGuide, recommended []string) error {
	q := db.NewInsert().Model(guide).On("CONFLICT (problem_key) DO UPDATE")
	q = setExcluded(q, "category", "title", "symptoms", "diagnosis_steps")
	if _, err := q.Exec(ctx); err != nil {
		return fmt.Errorf("upsert guide %s: %w", guide.ProblemKey, err)
	}

	for _, ps := range recommended {
		exists, err := db.NewSelect().Model((*Part)(nil)).Where("p.ps_number = ?", ps).Exists(ctx)
		if err != nil {
			return fmt.Errorf("check part %s: %w", ps, err)
		}
		if !exists {
			continue
		}
		link := &GuidePart{ProblemKey: guide.ProblemKey, PSNumber: ps}
		if _, err := db.NewInsert().Model(link).On("CONFLICT DO NOTHING").Exec(ctx); err != nil {
			return fmt.Errorf("link guide %s to %s: %w", guide.ProblemKey, ps, err)
		}
	}
	return nil
}

func upsertInstallationGuide(ctx context.Context, db bun.IDB, guide *InstallationGuide) error {
	q := db.NewInsert().Model(guide).On("CONFLICT (ps_number) DO UPDATE")
	q = setExcluded(q, "difficulty", "time_estimate", "tools_needed", "safety_warnings", "steps")
	if _, err := q.Exec(ctx); err != nil {
		return fmt.Errorf("upsert installation guide %s: %w", guide.PSNumber, err)
	}
	return nil
}

func upsertOrder(ctx context.Context, db bun.IDB, order *Order) error {
	q := db.NewInsert().Model(order).On("CONFLICT (order_id) DO UPDATE")
	q = setExcluded(q, "status", "customer_name", "order_date", "estimated_delivery", "total",
		"tracking_number", "carrier", "items")
	if _, err := q.Exec(ctx); err != nil {
		return fmt.Errorf("upsert order %s: %w", order.OrderID, err)
	}
	return nil
}

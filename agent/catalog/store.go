// Package catalog is the structured store of parts, appliance models,
// compatibility links, guides and orders consumed by the lookup tools.
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/uptrace/bun"

	contractx "github.com/tanpawarit/partselect-assistant/agent/contract"
)

type Store struct {
	db *bun.DB
}

func NewStore(db *bun.DB) *Store {
	return &Store{db: db}
}

func (s *Store) DB() *bun.DB {
	return s.db
}

// CreateSchema creates all tables and secondary indexes when missing.
func (s *Store) CreateSchema(ctx context.Context) error {
	for _, model := range tables {
		if _, err := s.db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("create table %T: %w", model, err)
		}
	}

	indexes := []struct {
		model  any
		name   string
		column string
	}{
		{(*Part)(nil), "idx_parts_category", "category"},
		{(*Part)(nil), "idx_parts_brand", "brand"},
		{(*ApplianceModel)(nil), "idx_models_type", "appliance_type"},
		{(*TroubleshootingGuide)(nil), "idx_guides_category", "category"},
	}
	for _, idx := range indexes {
		if _, err := s.db.NewCreateIndex().Model(idx.model).Index(idx.name).Column(idx.column).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("create index %s: %w", idx.name, err)
		}
	}
	return nil
}

// SearchParts matches the query case-insensitively against name, PS number,
// manufacturer number, description and brand, best rated first.
func (s *Store) SearchParts(ctx context.Context, query, category string, limit int) ([]Part, error) {
	if limit <= 0 {
		limit = 10
	}
	like := "%" + strings.ToLower(strings.TrimSpace(query)) + "%"

	var parts []Part
	q := s.db.NewSelect().Model(&parts).
		WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.
				Where("LOWER(p.name) LIKE ?", like).
				WhereOr("LOWER(p.ps_number) LIKE ?", like).
				WhereOr("LOWER(p.manufacturer_part) LIKE ?", like).
				WhereOr("LOWER(p.description) LIKE ?", like).
				WhereOr("LOWER(p.brand) LIKE ?", like)
		})
	if c := normalizeCategory(category); c != "" {
		q = q.Where("p.category = ?", c)
	}
	if err := q.OrderExpr("p.rating DESC, p.review_count DESC").Limit(limit).Scan(ctx); err != nil {
		return nil, fmt.Errorf("search parts: %w", err)
	}
	return parts, nil
}

func (s *Store) PartByPS(ctx context.Context, psNumber string) (*Part, error) {
	part := new(Part)
	err := s.db.NewSelect().Model(part).Where("p.ps_number = ?", psNumber).Scan(ctx)
	if err != nil {
		return nil, notFound(err, "part %s", psNumber)
	}
	return part, nil
}

// PartsByPS returns the parts that exist, in the requested order.
func (s *Store) PartsByPS(ctx context.Context, psNumbers []string) ([]Part, error) {
	if len(psNumbers) == 0 {
		return nil, nil
	}
	var found []Part
	if err := s.db.NewSelect().Model(&found).Where("p.ps_number IN (?)", bun.In(psNumbers)).Scan(ctx); err != nil {
		return nil, fmt.Errorf("parts by ps: %w", err)
	}
	byPS := make(map[string]Part, len(found))
	for _, p := range found {
		byPS[p.PSNumber] = p
	}
	out := make([]Part, 0, len(found))
	for _, ps := range psNumbers {
		if p, ok := byPS[ps]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *Store) ModelByNumber(ctx context.Context, modelNumber string) (*ApplianceModel, error) {
	m := new(ApplianceModel)
	err := s.db.NewSelect().Model(m).Where("m.model_number = ?", modelNumber).Scan(ctx)
	if err != nil {
		return nil, notFound(err, "model %s", modelNumber)
	}
	return m, nil
}

// CheckCompatibility reports ErrNotFound only for an unknown part. An unknown
// model yields a check with a nil Compatible.
func (s *Store) CheckCompatibility(ctx context.Context, psNumber, modelNumber string) (CompatibilityCheck, error) {
	part, err := s.PartByPS(ctx, psNumber)
	if err != nil {
		return CompatibilityCheck{}, err
	}
	check := CompatibilityCheck{Part: *part, ModelNumber: modelNumber}

	model, err := s.ModelByNumber(ctx, modelNumber)
	if errors.Is(err, contractx.ErrNotFound) {
		return check, nil
	}
	if err != nil {
		return CompatibilityCheck{}, err
	}
	check.Model = model

	exists, err := s.db.NewSelect().Model((*Compatibility)(nil)).
		Where("pmc.ps_number = ?", psNumber).
		Where("pmc.model_number = ?", modelNumber).
		Exists(ctx)
	if err != nil {
		return CompatibilityCheck{}, fmt.Errorf("check compatibility: %w", err)
	}
	check.Compatible = &exists
	return check, nil
}

func (s *Store) ModelInfo(ctx context.Context, modelNumber string) (*ModelDetails, error) {
	model, err := s.ModelByNumber(ctx, modelNumber)
	if err != nil {
		return nil, err
	}

	var parts []Part
	err = s.db.NewSelect().Model(&parts).
		Join("JOIN part_model_compatibility AS pmc ON pmc.ps_number = p.ps_number").
		Where("pmc.model_number = ?", model.ModelNumber).
		OrderExpr("p.category, p.name").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("compatible parts of %s: %w", modelNumber, err)
	}
	return &ModelDetails{Model: *model, CompatibleParts: parts}, nil
}

// FindTroubleshootingGuide picks the best keyword match within a category.
// Each guide symptom with a word found in the text scores 1, a title word
// found in the text scores 2. No positive score means ErrNotFound.
func (s *Store) FindTroubleshootingGuide(ctx context.Context, category, symptom string) (*GuideMatch, error) {
	var guides []TroubleshootingGuide
	err := s.db.NewSelect().Model(&guides).
		Where("tg.category = ?", normalizeCategory(category)).
		OrderExpr("tg.problem_key").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list guides: %w", err)
	}

	text := strings.ToLower(symptom)
	var best *TroubleshootingGuide
	bestScore := 0
	for i := range guides {
		if score := scoreGuide(guides[i], text); score > bestScore {
			best, bestScore = &guides[i], score
		}
	}
	if best == nil {
		return nil, fmt.Errorf("%w: no %s guide for %q", contractx.ErrNotFound, category, symptom)
	}
	return s.withRecommendedParts(ctx, *best)
}

func (s *Store) GuideByKey(ctx context.Context, problemKey string) (*GuideMatch, error) {
	guide := new(TroubleshootingGuide)
	if err := s.db.NewSelect().Model(guide).Where("tg.problem_key = ?", problemKey).Scan(ctx); err != nil {
		return nil, notFound(err, "guide %s", problemKey)
	}
	return s.withRecommendedParts(ctx, *guide)
}

func (s *Store) withRecommendedParts(ctx context.Context, guide TroubleshootingGuide) (*GuideMatch, error) {
	var parts []Part
	err := s.db.NewSelect().Model(&parts).
		Join("JOIN guide_parts AS gp ON gp.ps_number = p.ps_number").
		Where("gp.problem_key = ?", guide.ProblemKey).
		OrderExpr("p.ps_number").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("recommended parts of %s: %w", guide.ProblemKey, err)
	}
	return &GuideMatch{Guide: guide, RecommendedParts: parts}, nil
}

func scoreGuide(g TroubleshootingGuide, text string) int {
	score := 0
	for _, s := range g.Symptoms {
		if anyWordIn(s, text) {
			score++
		}
	}
	if anyWordIn(g.Title, text) {
		score += 2
	}
	return score
}

func anyWordIn(phrase, text string) bool {
	for _, w := range strings.Fields(strings.ToLower(phrase)) {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}

func (s *Store) InstallationGuide(ctx context.Context, psNumber string) (*InstallationDetails, error) {
	guide := new(InstallationGuide)
	if err := s.db.NewSelect().Model(guide).Where("ig.ps_number = ?", psNumber).Scan(ctx); err != nil {
		return nil, notFound(err, "installation guide %s", psNumber)
	}
	details := &InstallationDetails{Guide: *guide}
	if part, err := s.PartByPS(ctx, psNumber); err == nil {
		details.PartName = part.Name
	} else if !errors.Is(err, contractx.ErrNotFound) {
		return nil, err
	}
	return details, nil
}

func (s *Store) LookupOrder(ctx context.Context, orderID string) (*Order, error) {
	order := new(Order)
	if err := s.db.NewSelect().Model(order).Where("o.order_id = ?", orderID).Scan(ctx); err != nil {
		return nil, notFound(err, "order %s", orderID)
	}
	return order, nil
}

func (s *Store) AllParts(ctx context.Context) ([]Part, error) {
	var parts []Part
	if err := s.db.NewSelect().Model(&parts).OrderExpr("p.ps_number").Scan(ctx); err != nil {
		return nil, fmt.Errorf("list parts: %w", err)
	}
	return parts, nil
}

func (s *Store) AllGuides(ctx context.Context) ([]TroubleshootingGuide, error) {
	var guides []TroubleshootingGuide
	if err := s.db.NewSelect().Model(&guides).OrderExpr("tg.problem_key").Scan(ctx); err != nil {
		return nil, fmt.Errorf("list guides: %w", err)
	}
	return guides, nil
}

func (s *Store) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	counts := []struct {
		model any
		dst   *int
	}{
		{(*Part)(nil), &st.Parts},
		{(*ApplianceModel)(nil), &st.Models},
		{(*Compatibility)(nil), &st.CompatibilityLinks},
		{(*TroubleshootingGuide)(nil), &st.TroubleshootingGuides},
		{(*InstallationGuide)(nil), &st.InstallationGuides},
		{(*Order)(nil), &st.Orders},
	}
	for _, c := range counts {
		n, err := s.db.NewSelect().Model(c.model).Count(ctx)
		if err != nil {
			return Stats{}, fmt.Errorf("count %T: %w", c.model, err)
		}
		*c.dst = n
	}
	return st, nil
}

func normalizeCategory(category string) string {
	return strings.ToLower(strings.TrimSpace(category))
}

func notFound(err error, format string, args ...any) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s", contractx.ErrNotFound, fmt.Sprintf(format, args...))
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

package tool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/retriever"
	"github.com/rs/zerolog"

	"github.com/tanpawarit/partselect-assistant/agent/cache"
	"github.com/tanpawarit/partselect-assistant/agent/catalog"
	contractx "github.com/tanpawarit/partselect-assistant/agent/contract"
	"github.com/tanpawarit/partselect-assistant/agent/search"
	"github.com/tanpawarit/partselect-assistant/pkg/metrics"
)

const (
	sqlSearchLimit      = 5
	semanticSearchLimit = 5
	maxSearchResults    = 10
)

// Catalog is the read side of the structured store used by tools.
type Catalog interface {
	SearchParts(ctx context.Context, query, category string, limit int) ([]catalog.Part, error)
	PartByPS(ctx context.Context, psNumber string) (*catalog.Part, error)
	PartsByPS(ctx context.Context, psNumbers []string) ([]catalog.Part, error)
	CheckCompatibility(ctx context.Context, psNumber, modelNumber string) (catalog.CompatibilityCheck, error)
	ModelInfo(ctx context.Context, modelNumber string) (*catalog.ModelDetails, error)
	FindTroubleshootingGuide(ctx context.Context, category, symptom string) (*catalog.GuideMatch, error)
	GuideByKey(ctx context.Context, problemKey string) (*catalog.GuideMatch, error)
	InstallationGuide(ctx context.Context, psNumber string) (*catalog.InstallationDetails, error)
	LookupOrder(ctx context.Context, orderID string) (*catalog.Order, error)
}

// Executor runs tool calls against the catalog, optionally blending in
// semantic results and caching successful documents.
type Executor struct {
	catalog   Catalog
	retriever retriever.Retriever
	cache     cache.Cache
}

var _ contractx.ToolExecutor = (*Executor)(nil)

type Option func(*Executor)

func WithRetriever(r retriever.Retriever) Option {
	return func(e *Executor) { e.retriever = r }
}

func WithCache(c cache.Cache) Option {
	return func(e *Executor) { e.cache = c }
}

func NewExecutor(c Catalog, opts ...Option) (*Executor, error) {
	if c == nil {
		return nil, fmt.Errorf("%w: tool executor requires a catalog", contractx.ErrValidation)
	}
	e := &Executor{catalog: c}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e, nil
}

// Execute never fails: lookups that miss or break come back as an error
// document the model can phrase for the user.
func (e *Executor) Execute(ctx context.Context, name string, args map[string]any) string {
	logger := zerolog.Ctx(ctx).With().Str("tool", name).Logger()
	if args == nil {
		args = map[string]any{}
	}

	useCache := e.cache != nil && cacheable(name)
	var key string
	if useCache {
		key = cache.Key(name, args)
		cached, err := e.cache.Get(ctx, key)
		switch {
		case err == nil:
			metrics.ToolCalls.WithLabelValues(name, "cached").Inc()
			logger.Debug().Msg("tool result served from cache")
			return cached
		case !errors.Is(err, cache.ErrMiss):
			logger.Warn().Err(err).Msg("tool cache read failed")
		}
	}

	doc, err := e.dispatch(ctx, name, args)
	if err != nil {
		metrics.ToolCalls.WithLabelValues(name, "failed").Inc()
		logger.Error().Err(err).Msg("tool lookup failed")
		return encode(errorDoc{
			Error:      fmt.Sprintf("Lookup failed for %s", name),
			Suggestion: "The parts database is temporarily unavailable. Please try again.",
		})
	}

	out := encode(doc)
	if ed, isErr := doc.(errorDoc); isErr {
		metrics.ToolCalls.WithLabelValues(name, "not_found").Inc()
		logger.Debug().Str("error", ed.Error).Msg("tool returned error document")
		return out
	}

	metrics.ToolCalls.WithLabelValues(name, "ok").Inc()
	if useCache {
		if err := e.cache.Set(ctx, key, out); err != nil {
			logger.Warn().Err(err).Msg("tool cache write failed")
		}
	}
	return out
}

// cacheable excludes order lookups: order status changes between turns.
func cacheable(name string) bool {
	return name != LookupOrder
}

func (e *Executor) dispatch(ctx context.Context, name string, args map[string]any) (any, error) {
	switch name {
	case SearchProducts:
		var a searchProductsArgs
		if doc, ok := decodeInto(args, &a); !ok {
			return doc, nil
		}
		if strings.TrimSpace(a.Query) == "" {
			return missingArg("query", "Describe the part, symptom, or PS number to search for."), nil
		}
		return e.searchProducts(ctx, a)

	case CheckCompatibility:
		var a compatibilityArgs
		if doc, ok := decodeInto(args, &a); !ok {
			return doc, nil
		}
		if a.PSNumber = normalizeID(a.PSNumber); a.PSNumber == "" {
			return missingArg("ps_number", "PS numbers look like PS11752778."), nil
		}
		if a.ModelNumber = normalizeID(a.ModelNumber); a.ModelNumber == "" {
			return missingArg("model_number", modelHint), nil
		}
		return e.checkCompatibility(ctx, a)

	case GetModelInfo:
		var a modelArgs
		if doc, ok := decodeInto(args, &a); !ok {
			return doc, nil
		}
		if a.ModelNumber = normalizeID(a.ModelNumber); a.ModelNumber == "" {
			return missingArg("model_number", modelHint), nil
		}
		return e.modelInfo(ctx, a)

	case GetTroubleshootingGuide:
		var a troubleshootingArgs
		if doc, ok := decodeInto(args, &a); !ok {
			return doc, nil
		}
		a.Category = normalizeCategory(a.Category)
		if a.Category == "" {
			return missingArg("category", "Tell me whether this is a refrigerator or a dishwasher."), nil
		}
		if strings.TrimSpace(a.Symptom) == "" {
			return missingArg("symptom", symptomHint), nil
		}
		return e.troubleshootingGuide(ctx, a)

	case GetInstallationGuide:
		var a partArgs
		if doc, ok := decodeInto(args, &a); !ok {
			return doc, nil
		}
		if a.PSNumber = normalizeID(a.PSNumber); a.PSNumber == "" {
			return missingArg("ps_number", "PS numbers look like PS11752778."), nil
		}
		return e.installationGuide(ctx, a)

	case LookupOrder:
		var a orderArgs
		if doc, ok := decodeInto(args, &a); !ok {
			return doc, nil
		}
		if a.OrderID = normalizeID(a.OrderID); a.OrderID == "" {
			return missingArg("order_id", orderHint), nil
		}
		return e.lookupOrder(ctx, a)

	default:
		return errorDoc{Error: "Unknown tool: " + name}, nil
	}
}

const (
	modelHint   = "Check the model number - usually on a sticker inside the appliance door."
	symptomHint = "Try a specific symptom like 'not cooling', 'not draining', or 'leaking'."
	orderHint   = "Check the order ID format: ORD-YYYY-XXXXX"
)

func (e *Executor) searchProducts(ctx context.Context, a searchProductsArgs) (any, error) {
	category := normalizeCategory(a.Category)
	exact, err := e.catalog.SearchParts(ctx, a.Query, category, sqlSearchLimit)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(exact))
	results := make([]partSummary, 0, maxSearchResults)
	for _, p := range exact {
		seen[p.PSNumber] = struct{}{}
		results = append(results, summarize(p))
	}

	var extra []string
	for _, ps := range e.semanticMatches(ctx, a.Query, category) {
		if _, dup := seen[ps]; dup {
			continue
		}
		seen[ps] = struct{}{}
		extra = append(extra, ps)
	}
	if len(extra) > 0 {
		parts, err := e.catalog.PartsByPS(ctx, extra)
		if err != nil {
			return nil, err
		}
		for _, p := range parts {
			results = append(results, summarize(p))
		}
	}

	if len(results) > maxSearchResults {
		results = results[:maxSearchResults]
	}
	return searchDoc{Results: results, Count: len(results)}, nil
}

// semanticMatches returns PS numbers from the product index. Index failures
// degrade to exact matches only.
func (e *Executor) semanticMatches(ctx context.Context, query, category string) []string {
	if e.retriever == nil {
		return nil
	}
	opts := []retriever.Option{
		retriever.WithIndex(search.CollectionProducts),
		retriever.WithTopK(semanticSearchLimit),
	}
	if category != "" {
		opts = append(opts, retriever.WithDSLInfo(map[string]any{"category": category}))
	}
	docs, err := e.retriever.Retrieve(ctx, query, opts...)
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("semantic product search failed")
		return nil
	}
	out := make([]string, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.ID)
	}
	return out
}

func (e *Executor) checkCompatibility(ctx context.Context, a compatibilityArgs) (any, error) {
	check, err := e.catalog.CheckCompatibility(ctx, a.PSNumber, a.ModelNumber)
	if errors.Is(err, contractx.ErrNotFound) {
		found := false
		return errorDoc{Found: &found, Error: fmt.Sprintf("Part %s not found", a.PSNumber)}, nil
	}
	if err != nil {
		return nil, err
	}

	doc := compatibilityDoc{
		Found:       true,
		Compatible:  check.Compatible,
		Part:        summarize(check.Part),
		ModelNumber: check.ModelNumber,
		ModelInfo:   check.Model,
	}
	switch {
	case check.Compatible == nil:
		doc.Message = fmt.Sprintf("Model %s not in our database. Verify on PartSelect.com.", check.ModelNumber)
	case *check.Compatible:
		doc.Message = fmt.Sprintf("%s (%s) IS compatible with %s.", check.Part.Name, check.Part.PSNumber, check.ModelNumber)
	default:
		doc.Message = fmt.Sprintf("%s (%s) is NOT confirmed compatible with %s.", check.Part.Name, check.Part.PSNumber, check.ModelNumber)
	}
	return doc, nil
}

func (e *Executor) modelInfo(ctx context.Context, a modelArgs) (any, error) {
	details, err := e.catalog.ModelInfo(ctx, a.ModelNumber)
	if errors.Is(err, contractx.ErrNotFound) {
		return errorDoc{Error: "Model not found", Suggestion: modelHint}, nil
	}
	if err != nil {
		return nil, err
	}
	return modelDoc{ApplianceModel: details.Model, CompatibleParts: summarizeAll(details.CompatibleParts)}, nil
}

func (e *Executor) troubleshootingGuide(ctx context.Context, a troubleshootingArgs) (any, error) {
	match, err := e.catalog.FindTroubleshootingGuide(ctx, a.Category, a.Symptom)
	if errors.Is(err, contractx.ErrNotFound) {
		match, err = e.semanticGuide(ctx, a)
	}
	if errors.Is(err, contractx.ErrNotFound) {
		return errorDoc{
			Error:      fmt.Sprintf("No guide found for '%s' in %s", a.Symptom, a.Category),
			Suggestion: symptomHint,
		}, nil
	}
	if err != nil {
		return nil, err
	}
	return guideDoc{TroubleshootingGuide: match.Guide, RecommendedParts: summarizeAll(match.RecommendedParts)}, nil
}

// semanticGuide is the fallback when keyword scoring finds nothing.
func (e *Executor) semanticGuide(ctx context.Context, a troubleshootingArgs) (*catalog.GuideMatch, error) {
	if e.retriever == nil {
		return nil, contractx.ErrNotFound
	}
	docs, err := e.retriever.Retrieve(ctx, a.Symptom,
		retriever.WithIndex(search.CollectionGuides),
		retriever.WithTopK(1),
		retriever.WithDSLInfo(map[string]any{"category": a.Category}),
	)
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("semantic guide search failed")
		return nil, contractx.ErrNotFound
	}
	if len(docs) == 0 {
		return nil, contractx.ErrNotFound
	}
	return e.catalog.GuideByKey(ctx, docs[0].ID)
}

func (e *Executor) installationGuide(ctx context.Context, a partArgs) (any, error) {
	details, err := e.catalog.InstallationGuide(ctx, a.PSNumber)
	if err == nil {
		return installationDoc{InstallationGuide: details.Guide, PartName: details.PartName}, nil
	}
	if !errors.Is(err, contractx.ErrNotFound) {
		return nil, err
	}

	part, err := e.catalog.PartByPS(ctx, a.PSNumber)
	if errors.Is(err, contractx.ErrNotFound) {
		return errorDoc{Error: fmt.Sprintf("Part %s not found", a.PSNumber)}, nil
	}
	if err != nil {
		return nil, err
	}
	summary := summarize(*part)
	return errorDoc{
		Error:      fmt.Sprintf("No installation guide for %s", a.PSNumber),
		Part:       &summary,
		Suggestion: fmt.Sprintf("Check the product page: %s", part.URL),
	}, nil
}

func (e *Executor) lookupOrder(ctx context.Context, a orderArgs) (any, error) {
	order, err := e.catalog.LookupOrder(ctx, a.OrderID)
	if errors.Is(err, contractx.ErrNotFound) {
		return errorDoc{Error: "Order not found", Suggestion: orderHint}, nil
	}
	if err != nil {
		return nil, err
	}
	return order, nil
}

func decodeInto(args map[string]any, out any) (errorDoc, bool) {
	if err := decodeArgs(args, out); err != nil {
		return errorDoc{Error: "Invalid arguments", Suggestion: err.Error()}, false
	}
	return errorDoc{}, true
}

func missingArg(field, suggestion string) errorDoc {
	return errorDoc{Error: "Missing required argument: " + field, Suggestion: suggestion}
}

func encode(doc any) string {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Sprintf(`{"error":%q}`, "Could not encode result")
	}
	return string(raw)
}

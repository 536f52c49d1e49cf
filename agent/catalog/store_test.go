package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	contractx "github.com/tanpawarit/partselect-assistant/agent/contract"
	"github.com/tanpawarit/partselect-assistant/agent/testutil"
)

func seededStore(t *testing.T) *Store {
	t.Helper()
	s := NewStore(testutil.SQLiteDB(t))
	seeded, err := s.EnsureSeeded(context.Background())
	require.NoError(t, err)
	require.True(t, seeded)
	return s
}

func TestEnsureSeededOnlyOnce(t *testing.T) {
	t.Parallel()

	s := seededStore(t)
	seeded, err := s.EnsureSeeded(context.Background())
	require.NoError(t, err)
	assert.False(t, seeded)

	data, err := LoadSeed()
	require.NoError(t, err)

	st, err := s.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, len(data.Parts), st.Parts)
	assert.Equal(t, len(data.Models), st.Models)
	assert.Equal(t, len(data.Troubleshooting), st.TroubleshootingGuides)
	assert.Equal(t, len(data.Installation), st.InstallationGuides)
	assert.Equal(t, len(data.Orders), st.Orders)
	assert.Positive(t, st.CompatibilityLinks)
}

func TestSearchParts(t *testing.T) {
	t.Parallel()

	s := seededStore(t)
	ctx := context.Background()

	parts, err := s.SearchParts(ctx, "DRAIN pump", "", 5)
	require.NoError(t, err)
	require.NotEmpty(t, parts)
	assert.Equal(t, "PS11722128", parts[0].PSNumber)

	parts, err = s.SearchParts(ctx, "whirlpool", "Dishwasher", 10)
	require.NoError(t, err)
	require.NotEmpty(t, parts)
	for i, p := range parts {
		assert.Equal(t, "dishwasher", p.Category)
		if i > 0 {
			assert.GreaterOrEqual(t, parts[i-1].Rating, p.Rating)
		}
	}

	parts, err = s.SearchParts(ctx, "ps1175", "", 5)
	require.NoError(t, err)
	require.Len(t, parts, 1)
	assert.Equal(t, []string{"door bin cracked", "door shelf broken", "bin falls off door"}, parts[0].Symptoms)

	parts, err = s.SearchParts(ctx, "flux capacitor", "", 5)
	require.NoError(t, err)
	assert.Empty(t, parts)
}

func TestPartByPSNotFound(t *testing.T) {
	t.Parallel()

	s := seededStore(t)
	_, err := s.PartByPS(context.Background(), "PS0")
	require.Error(t, err)
	assert.True(t, errors.Is(err, contractx.ErrNotFound))
}

func TestPartsByPSKeepsOrder(t *testing.T) {
	t.Parallel()

	s := seededStore(t)
	parts, err := s.PartsByPS(context.Background(), []string{"PS8260087", "PS0", "PS11752778"})
	require.NoError(t, err)
	require.Len(t, parts, 2)
	assert.Equal(t, "PS8260087", parts[0].PSNumber)
	assert.Equal(t, "PS11752778", parts[1].PSNumber)
}

func TestCheckCompatibility(t *testing.T) {
	t.Parallel()

	s := seededStore(t)
	ctx := context.Background()

	check, err := s.CheckCompatibility(ctx, "PS11722128", "WDT780SAEM1")
	require.NoError(t, err)
	require.NotNil(t, check.Compatible)
	assert.True(t, *check.Compatible)
	require.NotNil(t, check.Model)
	assert.Equal(t, "dishwasher", check.Model.ApplianceType)

	check, err = s.CheckCompatibility(ctx, "PS11752778", "WDT780SAEM1")
	require.NoError(t, err)
	require.NotNil(t, check.Compatible)
	assert.False(t, *check.Compatible)

	check, err = s.CheckCompatibility(ctx, "PS11752778", "UNKNOWN123")
	require.NoError(t, err)
	assert.Nil(t, check.Compatible)
	assert.Nil(t, check.Model)
	assert.Equal(t, "Refrigerator Door Shelf Bin", check.Part.Name)

	_, err = s.CheckCompatibility(ctx, "PS0", "WDT780SAEM1")
	assert.True(t, errors.Is(err, contractx.ErrNotFound))
}

func TestModelInfo(t *testing.T) {
	t.Parallel()

	s := seededStore(t)
	info, err := s.ModelInfo(context.Background(), "WRS325SDHZ")
	require.NoError(t, err)
	assert.Equal(t, "refrigerator", info.Model.ApplianceType)
	assert.Len(t, info.CompatibleParts, 4)

	_, err = s.ModelInfo(context.Background(), "NOPE")
	assert.True(t, errors.Is(err, contractx.ErrNotFound))
}

func TestFindTroubleshootingGuide(t *testing.T) {
	t.Parallel()

	s := seededStore(t)
	ctx := context.Background()

	match, err := s.FindTroubleshootingGuide(ctx, "dishwasher", "my dishwasher won't drain, standing water")
	require.NoError(t, err)
	assert.Equal(t, "dishwasher_not_draining", match.Guide.ProblemKey)
	require.Len(t, match.RecommendedParts, 1)
	assert.Equal(t, "PS11722128", match.RecommendedParts[0].PSNumber)
	assert.NotEmpty(t, match.Guide.DiagnosisSteps)

	match, err = s.FindTroubleshootingGuide(ctx, "Refrigerator", "ice maker stopped")
	require.NoError(t, err)
	assert.Equal(t, "ice_maker_not_working", match.Guide.ProblemKey)

	_, err = s.FindTroubleshootingGuide(ctx, "dishwasher", "zzz")
	assert.True(t, errors.Is(err, contractx.ErrNotFound))
}

func TestGuideByKey(t *testing.T) {
	t.Parallel()

	s := seededStore(t)
	match, err := s.GuideByKey(context.Background(), "dishwasher_leaking")
	require.NoError(t, err)
	assert.Len(t, match.RecommendedParts, 2)
}

func TestInstallationGuide(t *testing.T) {
	t.Parallel()

	s := seededStore(t)
	details, err := s.InstallationGuide(context.Background(), "PS11722128")
	require.NoError(t, err)
	assert.Equal(t, "Dishwasher Drain Pump", details.PartName)
	assert.Equal(t, "moderate", details.Guide.Difficulty)
	assert.Len(t, details.Guide.Steps, 6)

	_, err = s.InstallationGuide(context.Background(), "PS8260087")
	assert.True(t, errors.Is(err, contractx.ErrNotFound))
}

func TestLookupOrder(t *testing.T) {
	t.Parallel()

	s := seededStore(t)
	order, err := s.LookupOrder(context.Background(), "ORD-2024-78432")
	require.NoError(t, err)
	assert.Equal(t, "shipped", order.Status)
	require.Len(t, order.Items, 2)
	assert.Equal(t, "PS11722128", order.Items[0].PSNumber)

	_, err = s.LookupOrder(context.Background(), "ORD-2099-00000")
	assert.True(t, errors.Is(err, contractx.ErrNotFound))
}

func TestLoadUpdatesExistingRows(t *testing.T) {
	t.Parallel()

	s := seededStore(t)
	ctx := context.Background()

	err := s.Load(ctx, SeedData{Parts: []Part{{
		PSNumber: "PS11752778",
		Name:     "Door Bin (updated)",
		Price:    30,
		Category: "refrigerator",
		InStock:  false,
	}}})
	require.NoError(t, err)

	part, err := s.PartByPS(ctx, "PS11752778")
	require.NoError(t, err)
	assert.Equal(t, "Door Bin (updated)", part.Name)
	assert.False(t, part.InStock)

	st, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 10, st.Parts)
}

func TestParseSeedRejectsUnknownFields(t *testing.T) {
	t.Parallel()

	_, err := ParseSeed([]byte(`{"parts":[{"ps_number":"PS1","colour":"red"}]}`))
	require.Error(t, err)
}

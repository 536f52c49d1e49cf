package productcard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	contractx "github.com/tanpawarit/partselect-assistant/agent/contract"
)

func TestSplitValidBlock(t *testing.T) {
	t.Parallel()

	text := "Here is the pump you need.\n\n" +
		`<<<PRODUCT_CARDS:[{"ps_number":"PS11752778","name":"Drain Pump","price":45.5,"in_stock":true,"rating":4.5,"review_count":12}]>>>`

	narrative, products := Split(text)
	assert.Equal(t, "Here is the pump you need.", narrative)
	require.Len(t, products, 1)
	assert.Equal(t, "PS11752778", products[0].PSNumber)
	assert.InDelta(t, 45.5, products[0].Price, 0.0001)
	assert.True(t, products[0].InStock)
}

func TestSplitMalformedBlock(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"bad json":     "Narrative.<<<PRODUCT_CARDS:[{not json}]>>>",
		"unterminated": `Narrative.<<<PRODUCT_CARDS:[{"ps_number":"PS1"}]`,
		"wrong shape":  `Narrative.<<<PRODUCT_CARDS:{"ps_number":"PS1"}>>>`,
		"wrong types":  `Narrative.<<<PRODUCT_CARDS:[{"price":"cheap"}]>>>`,
	}
	for name, text := range cases {
		t.Run(name, func(t *testing.T) {
			narrative, products := Split(text)
			assert.Equal(t, "Narrative.", narrative)
			assert.Empty(t, products)
		})
	}
}

func TestSplitWithoutBlock(t *testing.T) {
	t.Parallel()

	narrative, products := Split("  just text  ")
	assert.Equal(t, "just text", narrative)
	assert.Nil(t, products)
}

func TestEncodeRoundTrip(t *testing.T) {
	t.Parallel()

	block, err := Encode([]contractx.Product{{PSNumber: "PS2", Name: "Door Bin"}})
	require.NoError(t, err)

	found, ok := Find("text " + block)
	require.True(t, ok)
	assert.True(t, found.Valid())
}

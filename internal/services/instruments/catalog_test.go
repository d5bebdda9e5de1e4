package instruments

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsOTC(t *testing.T) {
	assert.True(t, IsOTC("EUR/USD (OTC)"))
	assert.True(t, IsOTC("Gold (OTC)"))
	assert.False(t, IsOTC("EUR/USD"))
	assert.False(t, IsOTC("Bitcoin"))
}

func TestDataSymbol(t *testing.T) {
	assert.Equal(t, "EURUSD=X", DataSymbol("EUR/USD (OTC)"))
	assert.Equal(t, "EURUSD=X", DataSymbol("EUR/USD"))
	assert.Equal(t, "BTC-USD", DataSymbol("Bitcoin"))
	assert.Equal(t, "GC=F", DataSymbol("Gold (OTC)"))
	assert.Equal(t, "^GSPC", DataSymbol("US 500 (OTC)"))
	assert.Equal(t, "Cardano (OTC)", DataSymbol("Cardano (OTC)"))
}

func TestCatalogFlattensCategories(t *testing.T) {
	c := Catalog()
	total := 0
	for _, list := range c.Categories {
		total += len(list)
	}
	assert.Len(t, c.Assets, total)
	assert.Equal(t, "EUR/USD (OTC)", c.Assets[0])
	assert.True(t, Known("Japan 225 (OTC)"))
	assert.False(t, Known("Dogecoin"))

	// callers cannot mutate the catalog
	c.Categories["forex_real"][0] = "changed"
	assert.Equal(t, "EUR/USD", Catalog().Categories["forex_real"][0])
}

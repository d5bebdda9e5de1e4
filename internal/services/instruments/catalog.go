// Package instruments holds the tradable asset universe.
package instruments

import (
	"strings"

	"FinSignal/internal/domain/models"
)

const otcMarker = "(OTC)"

// Category names in display order.
var categoryOrder = []string{
	"forex_otc", "forex_real", "crypto_otc", "crypto_real", "commodities_otc", "indices_otc",
}

var categories = map[string][]string{
	"forex_otc": {
		"EUR/USD (OTC)", "GBP/USD (OTC)", "USD/JPY (OTC)", "AUD/USD (OTC)",
		"USD/CAD (OTC)", "EUR/GBP (OTC)", "EUR/JPY (OTC)", "GBP/JPY (OTC)",
		"USD/CHF (OTC)", "NZD/USD (OTC)", "EUR/CHF (OTC)", "AUD/CAD (OTC)",
		"AUD/CHF (OTC)", "AUD/JPY (OTC)", "CAD/JPY (OTC)", "CHF/JPY (OTC)",
		"EUR/AUD (OTC)", "EUR/CAD (OTC)", "GBP/AUD (OTC)", "GBP/CAD (OTC)",
		"GBP/CHF (OTC)", "NZD/CAD (OTC)", "NZD/CHF (OTC)", "NZD/JPY (OTC)",
	},
	"forex_real": {
		"EUR/USD", "GBP/USD", "USD/JPY", "AUD/USD", "USD/CAD",
		"EUR/GBP", "EUR/JPY", "GBP/JPY", "USD/CHF", "NZD/USD",
	},
	"crypto_otc": {
		"Bitcoin (OTC)", "Ethereum (OTC)", "Ripple (OTC)", "Litecoin (OTC)",
		"Bitcoin Cash (OTC)", "Cardano (OTC)", "Polkadot (OTC)", "Chainlink (OTC)",
	},
	"crypto_real": {
		"Bitcoin", "Ethereum", "Ripple", "Litecoin", "Bitcoin Cash",
	},
	"commodities_otc": {
		"Gold (OTC)", "Silver (OTC)", "Oil (OTC)", "Natural Gas (OTC)",
		"Platinum (OTC)", "Palladium (OTC)", "Copper (OTC)",
	},
	"indices_otc": {
		"US 500 (OTC)", "US 30 (OTC)", "US Tech 100 (OTC)", "UK 100 (OTC)",
		"Germany 30 (OTC)", "Japan 225 (OTC)", "Australia 200 (OTC)",
	},
}

// Feed symbols keyed by the asset label with any OTC marker removed.
var dataSymbols = map[string]string{
	"EUR/USD": "EURUSD=X", "GBP/USD": "GBPUSD=X", "USD/JPY": "USDJPY=X",
	"AUD/USD": "AUDUSD=X", "USD/CAD": "USDCAD=X", "EUR/GBP": "EURGBP=X",
	"EUR/JPY": "EURJPY=X", "GBP/JPY": "GBPJPY=X", "USD/CHF": "USDCHF=X",
	"NZD/USD": "NZDUSD=X",

	"Bitcoin": "BTC-USD", "Ethereum": "ETH-USD", "Ripple": "XRP-USD",
	"Litecoin": "LTC-USD", "Bitcoin Cash": "BCH-USD",

	"Gold": "GC=F", "Silver": "SI=F", "Oil": "CL=F", "Natural Gas": "NG=F",

	"US 500": "^GSPC", "US 30": "^DJI", "US Tech 100": "^IXIC",
	"UK 100": "^FTSE", "Germany 30": "^GDAXI", "Japan 225": "^N225",
}

// IsOTC reports whether the asset label carries the OTC marker.
func IsOTC(asset string) bool {
	return strings.Contains(asset, otcMarker)
}

// DataSymbol maps an asset label to the feed symbol its bars are stored under.
// Labels without a mapping are returned unchanged.
func DataSymbol(asset string) string {
	base := strings.TrimSpace(strings.Replace(asset, otcMarker, "", 1))
	if sym, ok := dataSymbols[base]; ok {
		return sym
	}
	return asset
}

// Known reports whether asset is part of the catalog.
func Known(asset string) bool {
	for _, list := range categories {
		for _, a := range list {
			if a == asset {
				return true
			}
		}
	}
	return false
}

// Catalog returns a copy of the asset universe.
func Catalog() models.AssetCatalog {
	out := models.AssetCatalog{Categories: make(map[string][]string, len(categories))}
	for _, name := range categoryOrder {
		list := append([]string(nil), categories[name]...)
		out.Categories[name] = list
		out.Assets = append(out.Assets, list...)
	}
	return out
}

package domain

import "strings"

// Commodity names accepted by the COT backend.
const (
	CommoditySilver   = "SILVER"
	CommodityGold     = "GOLD"
	CommodityCopper   = "COPPER"
	CommodityCrudeOil = "CRUDE OIL"
)

// SupportedCommodities lists the commodities in dashboard order.
var SupportedCommodities = []string{
	CommoditySilver, CommodityGold, CommodityCopper, CommodityCrudeOil,
}

// CommoditySymbol maps commodity names to the futures ticker used for price overlays.
var CommoditySymbol = map[string]string{
	CommoditySilver:   "SI=F",
	CommodityGold:     "GC=F",
	CommodityCopper:   "HG=F",
	CommodityCrudeOil: "CL=F",
}

// NormalizeCommodity upper-cases and trims a commodity name and resolves the
// CRUDE alias. ok is false for names outside SupportedCommodities.
func NormalizeCommodity(name string) (string, bool) {
	upper := strings.ToUpper(strings.TrimSpace(name))
	if upper == "CRUDE" {
		upper = CommodityCrudeOil
	}
	_, ok := CommoditySymbol[upper]
	return upper, ok
}

// SymbolFor returns the futures ticker for a commodity, falling back to silver.
func SymbolFor(name string) string {
	upper, _ := NormalizeCommodity(name)
	if symbol, ok := CommoditySymbol[upper]; ok {
		return symbol
	}
	return CommoditySymbol[CommoditySilver]
}

package domain

import (
	"strings"
	"unicode"
)

// FieldCategory groups COT columns under a label with explanatory text.
type FieldCategory struct {
	Name         string   `json:"name"`
	Fields       []string `json:"fields"`
	Meaning      string   `json:"meaning"`
	WhyItMatters string   `json:"why_it_matters"`
}

// FieldCategories is the fixed taxonomy shown in the field picker.
var FieldCategories = []FieldCategory{
	{
		Name:         "Managed Money",
		Fields:       []string{"m_money_positions_long_all", "m_money_positions_short_all"},
		Meaning:      "Positions held by speculative money managers (hedge funds, CTAs).",
		WhyItMatters: "Often the biggest driver of price swings because these traders are trend-followers.",
	},
	{
		Name:         "Producer / Merchant / Processor",
		Fields:       []string{"prod_merc_positions_long", "prod_merc_positions_short"},
		Meaning:      "Hedgers who use futures to manage physical exposure.",
		WhyItMatters: "Their positions often reflect fundamental supply/demand rather than speculation.",
	},
	{
		Name:         "Swap Dealers",
		Fields:       []string{"swap_positions_long_all", "swap__positions_short_all"},
		Meaning:      "Financial institutions that hedge OTC swap risk.",
		WhyItMatters: "Often take the other side of managed money. Provides liquidity but also shows speculative pressure.",
	},
	{
		Name:         "Other Reportables",
		Fields:       []string{"other_rept_positions_long", "other_rept_positions_short"},
		Meaning:      "Other large reporting traders that don't fit the main categories.",
		WhyItMatters: "Provides additional context on market participation beyond the main trader categories.",
	},
	{
		Name: "Change from Previous Week",
		Fields: []string{
			"change_in_open_interest_all",
			"change_in_m_money_long_all",
			"change_in_m_money_short_all",
			"change_in_prod_merc_long",
			"change_in_prod_merc_short",
			"change_in_swap_long_all",
			"change_in_swap_short_all",
			"change_in_other_rept_long",
			"change_in_other_rept_short",
		},
		Meaning:      "Shows momentum: whether traders are piling into or out of positions.",
		WhyItMatters: "Sudden changes often precede price moves.",
	},
	{
		Name: "Percent of Open Interest",
		Fields: []string{
			"pct_of_open_interest_all",
			"pct_of_oi_m_money_long_all",
			"pct_of_oi_m_money_short_all",
			"pct_of_oi_prod_merc_long",
			"pct_of_oi_prod_merc_short",
			"pct_of_oi_swap_long_all",
			"pct_of_oi_swap_short_all",
			"pct_of_oi_other_rept_long",
			"pct_of_oi_other_rept_short",
		},
		Meaning:      "Normalizes positions across different markets and contract sizes.",
		WhyItMatters: "Easier to compare against price changes and understand relative position sizes.",
	},
	{
		Name: "Number of Traders",
		Fields: []string{
			"traders_tot_all",
			"traders_m_money_long_all",
			"traders_m_money_short_all",
			"traders_prod_merc_long_all",
			"traders_prod_merc_short_all",
			"traders_swap_long_all",
			"traders_swap_short_all",
			"traders_other_rept_long_all",
			"traders_other_rept_short",
		},
		Meaning:      "Indicates breadth of participation in the market.",
		WhyItMatters: "If large positions come from very few traders, the signal may be weaker.",
	},
}

// KeyMetrics are the columns summarized for the latest report.
var KeyMetrics = []struct {
	Field string
	Label string
}{
	{"open_interest_all", "Open Interest"},
	{"prod_merc_positions_long", "Prod/Merc Long"},
	{"prod_merc_positions_short", "Prod/Merc Short"},
	{"swap_positions_long_all", "Swap Long"},
	{"swap__positions_short_all", "Swap Short"},
	{"m_money_positions_long_all", "Managed Money Long"},
	{"m_money_positions_short_all", "Managed Money Short"},
}

// AllFields is the flattened field list in category order.
var AllFields []string

var knownFields map[string]struct{}

func init() {
	knownFields = make(map[string]struct{})
	for _, cat := range FieldCategories {
		AllFields = append(AllFields, cat.Fields...)
		for _, f := range cat.Fields {
			knownFields[f] = struct{}{}
		}
	}
}

// IsKnownField reports whether field belongs to the taxonomy.
func IsKnownField(field string) bool {
	_, ok := knownFields[field]
	return ok
}

// FieldDisplayName turns a column name into a label: underscores become
// spaces and the first character of every word is upper-cased.
func FieldDisplayName(field string) string {
	runes := []rune(strings.ReplaceAll(field, "_", " "))
	for i, r := range runes {
		if i == 0 || !isWordRune(runes[i-1]) {
			runes[i] = unicode.ToUpper(r)
		}
	}
	return string(runes)
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

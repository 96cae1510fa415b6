package kinds

import "github.com/JonMunkholm/logistic/internal/core"

func init() {
	core.Register(Prices())
}

// Prices is the tariff feed.
func Prices() core.ImportKind {
	return core.ImportKind{
		Code:  "prices",
		Label: "Prices",
		ColumnsToRename: map[string]string{
			"Reference":  "sku",
			"PrixHT":     "price",
			"PrixPromo":  "special_price",
			"DebutPromo": "special_price_from_date",
			"FinPromo":   "special_price_to_date",
		},
		FixedValues: map[string]string{"product_websites": "base"},
		Required:    []string{"sku", "price"},
		Format: func(r core.Record) core.Record {
			mapField(&r, "sku", NormalizeSKU)
			mapField(&r, "price", NormalizeDecimal)
			mapField(&r, "special_price", NormalizeDecimal)
			return r
		},
	}
}

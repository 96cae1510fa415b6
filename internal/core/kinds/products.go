package kinds

import (
	"strings"

	"github.com/JonMunkholm/logistic/internal/core"
)

func init() {
	core.Register(Products())
}

// Products is the catalog feed: one row per SKU with descriptive attributes.
func Products() core.ImportKind {
	return core.ImportKind{
		Code:  "products",
		Label: "Products",
		ColumnsToRename: map[string]string{
			"Reference":   "sku",
			"Designation": "name",
			"Description": "description",
			"Poids":       "weight",
			"Prix":        "price",
			"EAN13":       "ean",
			"Actif":       "status",
		},
		ColumnsToIgnore: []string{"Fournisseur", "Commentaire"},
		FixedValues: map[string]string{
			"attribute_set_code": "Default",
			"product_type":       "simple",
			"product_websites":   "base",
			"visibility":         "Catalog, Search",
			"status":             "1",
		},
		Required: []string{"sku", "name"},
		Format:   formatProduct,
	}
}

func formatProduct(r core.Record) core.Record {
	mapField(&r, "sku", NormalizeSKU)
	mapField(&r, "weight", NormalizeDecimal)
	mapField(&r, "price", NormalizeDecimal)
	mapField(&r, "status", NormalizeFlag)
	mapField(&r, "name", func(s string) string { return strings.Join(strings.Fields(s), " ") })
	return r
}

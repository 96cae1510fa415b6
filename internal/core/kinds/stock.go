package kinds

import (
	"strconv"

	"github.com/JonMunkholm/logistic/internal/core"
)

func init() {
	core.Register(Stock())
}

// Stock is the warehouse quantity feed.
func Stock() core.ImportKind {
	return core.ImportKind{
		Code:  "stock",
		Label: "Stock",
		ColumnsToRename: map[string]string{
			"Reference": "sku",
			"Quantite":  "qty",
			"Stock":     "qty",
		},
		ColumnsToIgnore: []string{"Entrepot", "Emplacement"},
		Required:        []string{"sku", "qty"},
		Format:          formatStock,
		BeforeImport:    dedupeBySKU,
	}
}

// formatStock normalizes quantities and derives the in-stock flag.
func formatStock(r core.Record) core.Record {
	mapField(&r, "sku", NormalizeSKU)
	mapField(&r, "qty", NormalizeDecimal)

	qty, ok := r.Get("qty")
	if !ok {
		return r
	}
	inStock := "0"
	if f, err := strconv.ParseFloat(qty, 64); err == nil && f > 0 {
		inStock = "1"
	}
	r.Set("is_in_stock", inStock)
	return r
}

// dedupeBySKU keeps the last row for each SKU, in first-seen order.
func dedupeBySKU(records []core.Record) []core.Record {
	index := make(map[string]int, len(records))
	out := make([]core.Record, 0, len(records))
	for _, r := range records {
		sku, ok := r.Get("sku")
		if !ok {
			out = append(out, r)
			continue
		}
		if i, seen := index[sku]; seen {
			out[i] = r
			continue
		}
		index[sku] = len(out)
		out = append(out, r)
	}
	return out
}

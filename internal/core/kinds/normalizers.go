package kinds

import (
	"strings"

	"github.com/JonMunkholm/logistic/internal/core"
)

// NormalizeSKU uppercases a SKU and strips inner whitespace.
func NormalizeSKU(s string) string {
	return strings.ToUpper(strings.Join(strings.Fields(s), ""))
}

// NormalizeDecimal converts European decimal notation ("1.234,50") to a plain
// decimal ("1234.50"). Values without a comma are returned with thousands
// spaces removed.
func NormalizeDecimal(s string) string {
	s = strings.ReplaceAll(strings.TrimSpace(s), " ", "")
	s = strings.ReplaceAll(s, "\u00a0", "")
	if !strings.Contains(s, ",") {
		return s
	}
	s = strings.ReplaceAll(s, ".", "")
	return strings.Replace(s, ",", ".", 1)
}

// NormalizeFlag maps common yes/no spellings to "1" or "0".
// Unrecognized values are returned as-is.
func NormalizeFlag(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "y", "yes", "true", "oui", "o", "x":
		return "1"
	case "0", "n", "no", "false", "non", "":
		return "0"
	default:
		return s
	}
}

// mapField applies fn to a field when present.
func mapField(r *core.Record, field string, fn func(string) string) {
	if v, ok := r.Get(field); ok {
		r.Set(field, fn(v))
	}
}

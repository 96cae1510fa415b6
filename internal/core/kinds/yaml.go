package kinds

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/JonMunkholm/logistic/internal/core"
)

// File is the on-disk shape of a kinds file:
//
//	kinds:
//	  - code: returns
//	    label: Returns
//	    rename: {Reference: sku, Motif: reason}
//	    ignore: [Commentaire]
//	    fixed: {source: logistic}
//	    required: [sku]
//	    normalize: {sku: sku, qty: decimal}
type File struct {
	Kinds []Definition `yaml:"kinds"`
}

// Definition declares one kind. Normalize maps a field to a named normalizer.
type Definition struct {
	core.ImportKind `yaml:",inline"`
	Normalize       map[string]string `yaml:"normalize"`
}

// normalizers are the transforms a YAML kind can reference by name.
var normalizers = map[string]func(string) string{
	"sku":     NormalizeSKU,
	"decimal": NormalizeDecimal,
	"flag":    NormalizeFlag,
	"upper":   strings.ToUpper,
	"lower":   strings.ToLower,
	"squash":  func(s string) string { return strings.Join(strings.Fields(s), " ") },
}

// Parse decodes a kinds file and builds its ImportKinds.
func Parse(data []byte) ([]core.ImportKind, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode kinds: %w", err)
	}

	out := make([]core.ImportKind, 0, len(f.Kinds))
	seen := make(map[string]bool, len(f.Kinds))
	for i, def := range f.Kinds {
		kind, err := def.build()
		if err != nil {
			return nil, fmt.Errorf("kind %d (%s): %w", i+1, def.Code, err)
		}
		if seen[kind.Code] {
			return nil, fmt.Errorf("kind %d: duplicate code %q", i+1, kind.Code)
		}
		seen[kind.Code] = true
		out = append(out, kind)
	}
	return out, nil
}

func (d Definition) build() (core.ImportKind, error) {
	kind := d.ImportKind
	kind.Code = strings.TrimSpace(kind.Code)
	if kind.Code == "" {
		return kind, fmt.Errorf("code is required")
	}
	if len(d.Normalize) == 0 {
		return kind, nil
	}

	fields := make([]string, 0, len(d.Normalize))
	for field := range d.Normalize {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	fns := make([]func(string) string, len(fields))
	for i, field := range fields {
		fn, ok := normalizers[d.Normalize[field]]
		if !ok {
			return kind, fmt.Errorf("field %s: unknown normalizer %q", field, d.Normalize[field])
		}
		fns[i] = fn
	}

	kind.Format = func(r core.Record) core.Record {
		for i, field := range fields {
			mapField(&r, field, fns[i])
		}
		return r
	}
	return kind, nil
}

// LoadFile reads and parses a kinds file.
func LoadFile(path string) ([]core.ImportKind, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// RegisterFile loads a kinds file and registers every kind it declares.
// It returns the registered codes. Codes already registered are an error.
func RegisterFile(path string) ([]string, error) {
	defs, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	for _, def := range defs {
		if _, exists := core.Get(def.Code); exists {
			return nil, fmt.Errorf("%s: kind %q is already registered", path, def.Code)
		}
	}
	codes := make([]string, 0, len(defs))
	for _, def := range defs {
		core.Register(def)
		codes = append(codes, def.Code)
	}
	return codes, nil
}

package core

import (
	"bytes"
	"fmt"
	"io"
	"testing"
)

// ============================================================================
// Streaming Reader Benchmarks
// ============================================================================

// BenchmarkSanitizer_LargeDataset runs mostly-ASCII input through the
// sanitizer, which takes the fast path.
func BenchmarkSanitizer_LargeDataset(b *testing.B) {
	data := bytes.Repeat([]byte("Valid UTF-8 line with numbers 12345\n"), 300)

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		io.Copy(io.Discard, NewStreamingUTF8Sanitizer(bytes.NewReader(data)))
	}
}

// BenchmarkSanitizer_Invalid forces the slow path on every line.
func BenchmarkSanitizer_Invalid(b *testing.B) {
	data := bytes.Repeat([]byte("caf\xe9 cr\xe8me;12,50\n"), 300)

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		io.Copy(io.Discard, NewStreamingUTF8Sanitizer(bytes.NewReader(data)))
	}
}

// BenchmarkWrapForParsing compares the reader chains per dialect.
func BenchmarkWrapForParsing(b *testing.B) {
	data := append([]byte{0xEF, 0xBB, 0xBF}, generateStockCSV(1000, ';')...)

	dialects := map[string]Dialect{
		"utf8":         {Separator: ';', Enclosure: '"'},
		"latin1":       {Separator: ';', Enclosure: '"', Encoding: "ISO-8859-1"},
		"single_quote": {Separator: ';', Enclosure: '\''},
	}
	for name, d := range dialects {
		b.Run(name, func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				r, _, err := WrapForParsing(bytes.NewReader(data), d)
				if err != nil {
					b.Fatal(err)
				}
				io.Copy(io.Discard, r)
			}
		})
	}
}

// ============================================================================
// Parse + Enrich Benchmarks
// ============================================================================

func generateStockCSV(rows int, sep byte) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "Reference%cQuantite%cEntrepot\n", sep, sep)
	for i := 0; i < rows; i++ {
		fmt.Fprintf(&buf, "SKU-%05d%c%d%cMAIN\n", i, sep, i%50, sep)
	}
	return buf.Bytes()
}

func benchKind() *ImportKind {
	return &ImportKind{
		Code:            "stock",
		ColumnsToRename: map[string]string{"Reference": "sku", "Quantite": "qty"},
		ColumnsToIgnore: []string{"Entrepot"},
		FixedValues:     map[string]string{"source": "ftp"},
		Required:        []string{"sku", "qty"},
	}
}

// BenchmarkParser benchmarks streaming parse of a stock file.
func BenchmarkParser(b *testing.B) {
	for _, rows := range []int{100, 1000} {
		data := generateStockCSV(rows, ';')
		p := Parser{Kind: benchKind(), Dialect: Dialect{Separator: ';', Enclosure: '"'}}

		b.Run(fmt.Sprintf("rows_%d", rows), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				for _, err := range p.Records(bytes.NewReader(data)) {
					if err != nil {
						b.Fatal(err)
					}
				}
			}
		})
	}
}

// BenchmarkPrepareBatch benchmarks enrichment plus required-field validation.
func BenchmarkPrepareBatch(b *testing.B) {
	kind := benchKind()
	records := make([]Record, 1000)
	for i := range records {
		records[i] = NewRecord("sku", fmt.Sprintf("SKU-%05d", i), "qty", "1")
		records[i].Line = i + 2
	}

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		batch := kind.PrepareBatch(records)
		if errs := ValidateRequired(batch, kind.Required); len(errs) != 0 {
			b.Fatal(errs)
		}
	}
}

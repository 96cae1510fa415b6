package core

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"iter"
	"os"
	"strings"
)

// Parser turns a delimited stream into records for one import kind.
type Parser struct {
	Kind    *ImportKind
	Dialect Dialect
}

// header is the renamed header row: column index -> canonical field name.
type header []string

// Records streams records from r. The first row is the header; every following
// row whose first column is blank is skipped. The sequence stops after the
// first read error, which is yielded once.
func (p Parser) Records(r io.Reader) iter.Seq2[Record, error] {
	return func(yield func(Record, error) bool) {
		src, _, err := WrapForParsing(r, p.Dialect)
		if err != nil {
			yield(Record{}, err)
			return
		}

		cr := csv.NewReader(src)
		cr.Comma = p.Dialect.Separator
		cr.FieldsPerRecord = -1
		cr.LazyQuotes = true
		cr.ReuseRecord = true

		unswap := func(s string) string { return s }
		if p.Dialect.Enclosure != '"' {
			swap := swapRune(p.Dialect.Enclosure)
			unswap = func(s string) string { return strings.Map(swap, s) }
		}

		var hdr header
		for {
			row, err := cr.Read()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				yield(Record{}, fmt.Errorf("read row: %w", err))
				return
			}

			if hdr == nil {
				hdr = p.header(row, unswap)
				continue
			}

			if strings.TrimSpace(row[0]) == "" {
				continue
			}

			line, _ := cr.FieldPos(0)
			if !yield(p.record(hdr, row, line, unswap), nil) {
				return
			}
		}
	}
}

// header renames each header cell; the column order is preserved.
func (p Parser) header(row []string, unswap func(string) string) header {
	h := make(header, len(row))
	for i, cell := range row {
		h[i] = strings.TrimSpace(p.Kind.RenameHeader(unswap(cell)))
	}
	return h
}

// record maps a data row through the header. Columns past the header are
// dropped; missing trailing columns are simply absent.
func (p Parser) record(h header, row []string, line int, unswap func(string) string) Record {
	rec := Record{Line: line}
	for i, value := range row {
		if i >= len(h) {
			break
		}
		field := h[i]
		if p.Kind.Ignores(field) {
			continue
		}
		rec.Set(field, strings.TrimSpace(unswap(value)))
	}
	return rec
}

// ParseFile reads every record of a staged file.
func (p Parser) ParseFile(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var records []Record
	for rec, err := range p.Records(f) {
		if err != nil {
			return records, err
		}
		records = append(records, rec)
	}
	return records, nil
}

package core

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseString(t *testing.T, kind *ImportKind, d Dialect, input string) []Record {
	t.Helper()
	var out []Record
	for rec, err := range (Parser{Kind: kind, Dialect: d}).Records(strings.NewReader(input)) {
		require.NoError(t, err)
		out = append(out, rec)
	}
	return out
}

func maps(records []Record) []map[string]string {
	out := make([]map[string]string, len(records))
	for i, r := range records {
		out[i] = r.Map()
	}
	return out
}

func TestParser_RenameAndTrim(t *testing.T) {
	kind := &ImportKind{Code: "products", ColumnsToRename: map[string]string{"Sku": "sku"}}

	got := parseString(t, kind, DefaultDialect, "Sku ,Name\n A1 , Widget \n")

	require.Len(t, got, 1)
	assert.Equal(t, map[string]string{"sku": "A1", "Name": "Widget"}, got[0].Map())
	assert.Equal(t, []string{"sku", "Name"}, got[0].Keys())
}

func TestParser_SkipsBlankFirstColumn(t *testing.T) {
	kind := &ImportKind{Code: "stock"}

	got := parseString(t, kind, DefaultDialect, "sku,qty\nA,1\n,2\n   ,3\n\nB,4\n")

	assert.Equal(t, []map[string]string{
		{"sku": "A", "qty": "1"},
		{"sku": "B", "qty": "4"},
	}, maps(got))
}

func TestParser_IgnoredColumns(t *testing.T) {
	kind := &ImportKind{
		Code:            "stock",
		ColumnsToIgnore: []string{"warehouse", "sku_internal"},
		ColumnsToRename: map[string]string{"Internal": "sku_internal"},
	}

	got := parseString(t, kind, DefaultDialect, "sku,warehouse,Internal,qty\nA,W1,X,1\n")

	require.Len(t, got, 1)
	assert.Equal(t, map[string]string{"sku": "A", "qty": "1"}, got[0].Map())
	assert.False(t, got[0].Has("warehouse"))
	assert.False(t, got[0].Has("sku_internal"), "renamed columns are ignored by their canonical name")
}

func TestParser_RaggedRows(t *testing.T) {
	kind := &ImportKind{Code: "stock"}

	got := parseString(t, kind, DefaultDialect, "sku,qty,name\nA,1,x,extra,more\nB\nC,3\n")

	assert.Equal(t, []map[string]string{
		{"sku": "A", "qty": "1", "name": "x"},
		{"sku": "B"},
		{"sku": "C", "qty": "3"},
	}, maps(got))
}

func TestParser_PositionalRenamePreservesOrder(t *testing.T) {
	kind := &ImportKind{Code: "stock", ColumnsToRename: map[string]string{"B": "first", "A": "second"}}

	got := parseString(t, kind, DefaultDialect, "A,B\n1,2\n")

	require.Len(t, got, 1)
	assert.Equal(t, map[string]string{"second": "1", "first": "2"}, got[0].Map())
}

func TestParser_Dialects(t *testing.T) {
	kind := &ImportKind{Code: "stock"}

	tests := []struct {
		name    string
		dialect Dialect
		input   string
		want    []map[string]string
	}{
		{
			name:    "semicolon",
			dialect: Dialect{Separator: ';', Enclosure: '"'},
			input:   "sku;name\nA;\"x; y\"\n",
			want:    []map[string]string{{"sku": "A", "name": "x; y"}},
		},
		{
			name:    "tab",
			dialect: Dialect{Separator: '\t', Enclosure: '"'},
			input:   "sku\tname\nA\tWidget\n",
			want:    []map[string]string{{"sku": "A", "name": "Widget"}},
		},
		{
			name:    "single quote enclosure keeps double quotes",
			dialect: Dialect{Separator: ',', Enclosure: '\''},
			input:   "sku,name\nA,'12\" pipe, steel'\nB,'it''s'\n",
			want: []map[string]string{
				{"sku": "A", "name": `12" pipe, steel`},
				{"sku": "B", "name": "it's"},
			},
		},
		{
			name:    "windows-1252",
			dialect: Dialect{Separator: ';', Enclosure: '"', Encoding: "windows-1252"},
			input:   "sku;name\nA;Caf\xe9 \x80\n",
			want:    []map[string]string{{"sku": "A", "name": "Café €"}},
		},
		{
			name:    "BOM and CRLF",
			dialect: DefaultDialect,
			input:   "\xef\xbb\xbfsku,qty\r\nA,1\r\n",
			want:    []map[string]string{{"sku": "A", "qty": "1"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, maps(parseString(t, kind, tt.dialect, tt.input)))
		})
	}
}

func TestParser_HeaderOnlyAndEmpty(t *testing.T) {
	kind := &ImportKind{Code: "stock"}

	assert.Empty(t, parseString(t, kind, DefaultDialect, "sku,qty\n"))
	assert.Empty(t, parseString(t, kind, DefaultDialect, ""))
}

func TestParser_LineNumbers(t *testing.T) {
	kind := &ImportKind{Code: "stock"}

	got := parseString(t, kind, DefaultDialect, "sku\nA\n\n,\nB\n")

	require.Len(t, got, 2)
	assert.Equal(t, 2, got[0].Line)
	assert.Equal(t, 5, got[1].Line)
}

func TestParser_StopsEarly(t *testing.T) {
	kind := &ImportKind{Code: "stock"}
	p := Parser{Kind: kind, Dialect: DefaultDialect}

	n := 0
	for range p.Records(strings.NewReader("sku\nA\nB\nC\n")) {
		n++
		if n == 2 {
			break
		}
	}
	assert.Equal(t, 2, n)
}

func TestParser_ReadErrorYieldedOnce(t *testing.T) {
	kind := &ImportKind{Code: "stock"}
	p := Parser{Kind: kind, Dialect: DefaultDialect}
	boom := errors.New("disk gone")

	var errs []error
	for _, err := range p.Records(iotest.ErrReader(boom)) {
		if err != nil {
			errs = append(errs, err)
		}
	}
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], boom)
}

func TestParser_ParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stock.csv")
	require.NoError(t, os.WriteFile(path, []byte("sku,qty\nA,1\nB,2\n"), 0o644))

	got, err := Parser{Kind: &ImportKind{Code: "stock"}, Dialect: DefaultDialect}.ParseFile(path)
	require.NoError(t, err)
	assert.Len(t, got, 2)

	_, err = Parser{Kind: &ImportKind{Code: "stock"}, Dialect: DefaultDialect}.ParseFile(filepath.Join(t.TempDir(), "missing.csv"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

package core

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestEnrich_FixedValuesFillGapsOnly(t *testing.T) {
	kind := &ImportKind{Code: "stock", FixedValues: map[string]string{"status": "1", "website": "base"}}

	got := kind.Enrich(NewRecord("sku", "A1", "status", "0"))

	want := map[string]string{"sku": "A1", "status": "0", "website": "base"}
	for k, v := range want {
		if g, _ := got.Get(k); g != v {
			t.Errorf("%s = %q, want %q", k, g, v)
		}
	}
	if got.Len() != len(want) {
		t.Errorf("Len = %d, want %d", got.Len(), len(want))
	}
}

func TestEnrich_DoesNotMutateInput(t *testing.T) {
	kind := &ImportKind{Code: "stock", FixedValues: map[string]string{"status": "1"}}
	in := NewRecord("sku", "A1")

	_ = kind.Enrich(in)

	if in.Has("status") {
		t.Error("Enrich modified its input record")
	}
}

func TestEnrich_FormatRunsAfterFixedValues(t *testing.T) {
	kind := &ImportKind{
		Code:        "stock",
		FixedValues: map[string]string{"qty": "0"},
		Format: func(r Record) Record {
			qty, _ := r.Get("qty")
			if qty == "0" {
				r.Set("is_in_stock", "0")
			} else {
				r.Set("is_in_stock", "1")
			}
			return r
		},
	}

	got := kind.Enrich(NewRecord("sku", "A1"))
	if v, _ := got.Get("is_in_stock"); v != "0" {
		t.Errorf("is_in_stock = %q, want %q", v, "0")
	}
}

func TestEnrich_IdentityByDefault(t *testing.T) {
	kind := &ImportKind{Code: "stock"}
	in := NewRecord("sku", "A1", "qty", "2")

	got := kind.Enrich(in)

	if strings.Join(got.Keys(), ",") != "sku,qty" {
		t.Errorf("Keys = %v, want [sku qty]", got.Keys())
	}
}

func TestPrepareBatch(t *testing.T) {
	kind := &ImportKind{
		Code:        "stock",
		FixedValues: map[string]string{"source": "ftp"},
		BeforeImport: func(rs []Record) []Record {
			return rs[:1]
		},
	}

	got := kind.PrepareBatch([]Record{NewRecord("sku", "A"), NewRecord("sku", "B")})

	if len(got) != 1 {
		t.Fatalf("len = %d, want 1", len(got))
	}
	if v, _ := got[0].Get("source"); v != "ftp" {
		t.Errorf("source = %q, want %q", v, "ftp")
	}
}

func TestRecord(t *testing.T) {
	r := NewRecord("b", "2", "a", "1")
	r.Set("b", "3")
	r.Set("c", "4")
	r.Delete("a")
	r.Delete("missing")

	if got := strings.Join(r.Keys(), ","); got != "b,c" {
		t.Errorf("Keys = %q, want %q", got, "b,c")
	}
	if v, _ := r.Get("b"); v != "3" {
		t.Errorf("b = %q, want %q", v, "3")
	}

	data, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("Marshal error = %v", err)
	}
	if string(data) != `{"b":"3","c":"4"}` {
		t.Errorf("json = %s", data)
	}

	var zero Record
	if zero.Has("x") || zero.Len() != 0 {
		t.Error("zero record should be empty")
	}
	data, _ = json.Marshal(zero)
	if string(data) != "{}" {
		t.Errorf("zero json = %s, want {}", data)
	}

	c := r.Clone()
	c.Set("b", "changed")
	if v, _ := r.Get("b"); v != "3" {
		t.Error("Clone shares storage with the original")
	}
}

func TestValidateRequired(t *testing.T) {
	records := []Record{
		{Line: 2},
		NewRecord("sku", "A", "qty", "1"),
	}
	records[0].Set("sku", "")
	records[1].Line = 3

	errs := ValidateRequired(records, []string{"sku", "qty"})
	if len(errs) != 2 {
		t.Fatalf("len(errs) = %d, want 2", len(errs))
	}

	want := "line 2: missing required field \"sku\"\nline 2: missing required field \"qty\""
	if got := Trace(errs); got != want {
		t.Errorf("Trace = %q, want %q", got, want)
	}

	if errs := ValidateRequired(records, nil); errs != nil {
		t.Errorf("no required fields should yield nil, got %v", errs)
	}

	noLine := ValidationError{Index: 4, Field: "sku"}
	if noLine.Error() != `record 5: missing required field "sku"` {
		t.Errorf("Error() = %q", noLine.Error())
	}
}

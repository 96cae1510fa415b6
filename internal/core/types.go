package core

import (
	"bytes"
	"encoding/json"
	"slices"
	"strings"
	"time"
)

// Record is one normalized data row: an ordered mapping from canonical field
// name to trimmed value. The zero value is an empty record ready for use.
type Record struct {
	// Line is the 1-based line in the source file the row started on (0 if unknown).
	Line int

	keys   []string
	values map[string]string
}

// NewRecord builds a record from alternating name/value pairs.
func NewRecord(pairs ...string) Record {
	var r Record
	for i := 0; i+1 < len(pairs); i += 2 {
		r.Set(pairs[i], pairs[i+1])
	}
	return r
}

// Set stores a value. Existing fields keep their position.
func (r *Record) Set(name, value string) {
	if r.values == nil {
		r.values = make(map[string]string)
	}
	if _, ok := r.values[name]; !ok {
		r.keys = append(r.keys, name)
	}
	r.values[name] = value
}

// Get returns the value for name and whether it is present.
func (r Record) Get(name string) (string, bool) {
	v, ok := r.values[name]
	return v, ok
}

// Has reports whether name is present.
func (r Record) Has(name string) bool {
	_, ok := r.values[name]
	return ok
}

// Delete removes a field.
func (r *Record) Delete(name string) {
	if _, ok := r.values[name]; !ok {
		return
	}
	delete(r.values, name)
	r.keys = slices.DeleteFunc(r.keys, func(k string) bool { return k == name })
}

// Len returns the number of fields.
func (r Record) Len() int { return len(r.keys) }

// Keys returns field names in insertion order.
func (r Record) Keys() []string { return slices.Clone(r.keys) }

// Map returns a copy of the fields as a plain map.
func (r Record) Map() map[string]string {
	m := make(map[string]string, len(r.keys))
	for _, k := range r.keys {
		m[k] = r.values[k]
	}
	return m
}

// Clone returns a deep copy so hooks can reshape a record without aliasing.
func (r Record) Clone() Record {
	out := Record{Line: r.Line, keys: slices.Clone(r.keys)}
	if r.values != nil {
		out.values = make(map[string]string, len(r.values))
		for k, v := range r.values {
			out.values[k] = v
		}
	}
	return out
}

// MarshalJSON encodes the record as a JSON object in field order.
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range r.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		vb, err := json.Marshal(r.values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// FormatFunc reshapes or normalizes a single record.
type FormatFunc func(Record) Record

// BatchFunc adjusts a whole batch right before it is submitted.
type BatchFunc func([]Record) []Record

// ImportKind describes one import job type. Kinds are defined once, registered
// at init and never mutated at run time.
type ImportKind struct {
	Code            string            `json:"code" yaml:"code"`
	Label           string            `json:"label" yaml:"label"`
	ColumnsToIgnore []string          `json:"columnsToIgnore,omitempty" yaml:"ignore"`
	ColumnsToRename map[string]string `json:"columnsToRename,omitempty" yaml:"rename"`
	FixedValues     map[string]string `json:"fixedValues,omitempty" yaml:"fixed"`
	Required        []string          `json:"required,omitempty" yaml:"required"`

	// Format runs on every record after fixed values are merged. Nil means identity.
	Format FormatFunc `json:"-" yaml:"-"`

	// BeforeImport runs on the full batch of one file before submission. Nil means identity.
	BeforeImport BatchFunc `json:"-" yaml:"-"`
}

// Ignores reports whether a canonical field name is excluded from records.
func (k *ImportKind) Ignores(field string) bool {
	return slices.Contains(k.ColumnsToIgnore, field)
}

// RenameHeader maps an incoming header cell to its canonical name. The raw cell
// is tried first, then its trimmed form; unmatched names pass through.
func (k *ImportKind) RenameHeader(cell string) string {
	if to, ok := k.ColumnsToRename[cell]; ok {
		return to
	}
	if to, ok := k.ColumnsToRename[strings.TrimSpace(cell)]; ok {
		return to
	}
	return cell
}

// StagedFile is a downloaded file owned by the current run. Its bytes persist
// after the run.
type StagedFile struct {
	Name string // original remote name
	Path string // absolute local path
	Size int64
}

// ImportBatch is the ordered set of records from one staged file, submitted atomically.
type ImportBatch struct {
	RunID    string
	Kind     string
	FileName string
	Records  []Record
	Required []string
}

// ImportResult is the importer's verdict on a batch.
type ImportResult struct {
	Valid    bool
	Trace    string // diagnostic trace when !Valid
	Imported int
}

// Status is the outcome of a run.
type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// RunReport is the single persisted log entry of a run.
type RunReport struct {
	ID         string    `json:"id"`
	RunID      string    `json:"runId"`
	Status     Status    `json:"status"`
	Messages   []string  `json:"messages"`
	EntityType string    `json:"entityType"`
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt"`
}

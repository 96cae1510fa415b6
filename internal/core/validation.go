package core

// validation.go checks batches against an import kind's required fields.
//
// A field is missing when it is absent from the record or present with an
// empty value. Every violation is collected so the importer trace lists all
// problems of a file at once.

import (
	"fmt"
	"strings"
)

// ValidationError is one missing required field on one record.
type ValidationError struct {
	Line  int    // source line, 0 if unknown
	Index int    // 0-based position in the batch
	Field string
}

func (e ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: missing required field %q", e.Line, e.Field)
	}
	return fmt.Sprintf("record %d: missing required field %q", e.Index+1, e.Field)
}

// ValidateRequired returns every missing required field in batch order.
func ValidateRequired(records []Record, required []string) []ValidationError {
	if len(required) == 0 {
		return nil
	}
	var errs []ValidationError
	for i, rec := range records {
		for _, field := range required {
			if v, ok := rec.Get(field); !ok || v == "" {
				errs = append(errs, ValidationError{Line: rec.Line, Index: i, Field: field})
			}
		}
	}
	return errs
}

// Trace renders validation errors one per line.
func Trace(errs []ValidationError) string {
	lines := make([]string, len(errs))
	for i, e := range errs {
		lines[i] = e.Error()
	}
	return strings.Join(lines, "\n")
}

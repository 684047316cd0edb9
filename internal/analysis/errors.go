// internal/analysis/errors.go
package analysis

import (
	"errors"
	"strings"
)

var (
	// ErrSectionNotFound reports a header that never appeared. It is never fatal.
	ErrSectionNotFound = errors.New("section not found")
	// ErrFieldNotExtracted reports a labeled value that could not be read. It
	// only matters once the record is built.
	ErrFieldNotExtracted = errors.New("field not extracted")
	// ErrRecordIncomplete is returned when a mandatory numeric field is missing.
	ErrRecordIncomplete = errors.New("nutrition record incomplete")
)

// IncompleteError lists the mandatory fields that were missing when a record
// was built.
type IncompleteError struct {
	Missing []Field
}

func (e *IncompleteError) Error() string {
	names := make([]string, len(e.Missing))
	for i, f := range e.Missing {
		names[i] = f.String()
	}
	return ErrRecordIncomplete.Error() + ": missing " + strings.Join(names, ", ")
}

func (e *IncompleteError) Unwrap() error {
	return ErrRecordIncomplete
}

package converter

import (
	"fmt"
	"strings"
)

// StructuredParseError reports content that could not be read as a structured
// or single-line document. The detector recovers from it by falling back to
// tabular parsing.
type StructuredParseError struct {
	Source string
	Err    error
}

func (e *StructuredParseError) Error() string {
	return fmt.Sprintf("structured parse of %s: %v", e.Source, e.Err)
}

func (e *StructuredParseError) Unwrap() error {
	return e.Err
}

// InvalidEncoding reports a record whose address is not valid UTF-8. Such
// records are dropped instead of being re-encoded with replacement runes.
type InvalidEncoding struct {
	Tag     string
	Address string
}

func (e *InvalidEncoding) Error() string {
	return fmt.Sprintf("record %s,%q dropped: address is not valid UTF-8", e.Tag, e.Address)
}

// RowSkipped reports one malformed tabular row that was dropped.
type RowSkipped struct {
	Row    int // 1-based line number
	Fields []string
	Reason string
}

func (e *RowSkipped) Error() string {
	return fmt.Sprintf("row %d skipped (%s): %s", e.Row, e.Reason, strings.Join(e.Fields, ","))
}

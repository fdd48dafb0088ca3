package extract

import (
	"errors"
	"fmt"
)

// ErrUnsupportedFormat is returned when the payload is none of PDF, DOCX, PPTX, TXT or MD.
var ErrUnsupportedFormat = errors.New("unsupported format")

// ErrEmptyText is the cause of an ExtractionError when parsing succeeded but produced no text.
var ErrEmptyText = errors.New("could not extract text from file")

// ErrTooLarge is returned by FromStore when the stored object exceeds the size limit.
var ErrTooLarge = errors.New("document exceeds size limit")

// ExtractionError reports a payload in a supported format that could not be turned into text.
type ExtractionError struct {
	Format Format
	Err    error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract %s: %v", e.Format, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

func extractionFailed(format Format, err error) error {
	return &ExtractionError{Format: format, Err: err}
}

package domain

import "fmt"

// SourceSpan is a half-open byte range inside a module's source text
type SourceSpan struct {
	// File is the path of the file the span points into
	File string `json:"file,omitempty"`

	// Start is the byte offset of the first character
	Start uint32 `json:"start"`

	// End is the byte offset one past the last character
	End uint32 `json:"end"`
}

// NewSourceSpan creates a span for the given file and byte range
func NewSourceSpan(file string, start, end uint32) SourceSpan {
	return SourceSpan{File: file, Start: start, End: end}
}

// Len returns the span length in bytes
func (s SourceSpan) Len() uint32 {
	if s.End < s.Start {
		return 0
	}
	return s.End - s.Start
}

// IsEmpty reports whether the span covers no bytes
func (s SourceSpan) IsEmpty() bool {
	return s.Len() == 0
}

// Contains reports whether offset lies within the span
func (s SourceSpan) Contains(offset uint32) bool {
	return offset >= s.Start && offset < s.End
}

// String formats the span as file:start-end
func (s SourceSpan) String() string {
	return fmt.Sprintf("%s:%d-%d", s.File, s.Start, s.End)
}

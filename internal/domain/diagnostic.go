package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotRecord is returned for scanner output lines that do not start
	// with the record marker. Those lines are expected noise and are never
	// reported as diagnostics.
	ErrNotRecord = errors.New("not an advertisement record")

	// ErrMalformedLine marks a record with fewer than MinRecordFields fields.
	ErrMalformedLine = errors.New("malformed line")

	// ErrMissingDeviceID marks a record whose device id field is empty.
	ErrMissingDeviceID = errors.New("missing device id")
)

// DiagnosticKind classifies why a record was skipped.
type DiagnosticKind string

const (
	KindMalformedLine   DiagnosticKind = "malformed_line"
	KindMissingDeviceID DiagnosticKind = "missing_device_id"
)

// Diagnostic describes one skipped record. It is never fatal: the scan
// result is still produced from the remaining records.
type Diagnostic struct {
	Kind    DiagnosticKind `json:"kind"`
	Line    int            `json:"line"`
	Message string         `json:"message"`
	Raw     string         `json:"raw,omitempty"`
}

func newMalformedLine(line int, raw string, fields int) Diagnostic {
	return Diagnostic{
		Kind:    KindMalformedLine,
		Line:    line,
		Message: fmt.Sprintf("insufficient fields: got %d, want at least %d", fields, MinRecordFields),
		Raw:     raw,
	}
}

func newMissingDeviceID(rec RawRecord) Diagnostic {
	return Diagnostic{
		Kind:    KindMissingDeviceID,
		Line:    rec.Line,
		Message: "device id (field 6) is empty",
		Raw:     rec.Raw,
	}
}

// Error implements error so diagnostics can travel through error returns.
func (d Diagnostic) Error() string {
	return d.String()
}

// Unwrap lets callers match diagnostics with errors.Is.
func (d Diagnostic) Unwrap() error {
	switch d.Kind {
	case KindMalformedLine:
		return ErrMalformedLine
	case KindMissingDeviceID:
		return ErrMissingDeviceID
	default:
		return nil
	}
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("line %d: %s: %s", d.Line, d.Unwrap(), d.Message)
}

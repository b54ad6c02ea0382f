package domain

import (
	"errors"
	"strings"
)

const (
	// RecordMarker prefixes every resolved advertisement line.
	RecordMarker = "="
	// FieldSeparator splits a record into positional fields. Values are
	// never escaped, so a field can not contain it.
	FieldSeparator = ";"
	// MinRecordFields is the field count a well-formed record must reach.
	MinRecordFields = 10
)

// Positional contract of a resolved advertisement line:
//
//	=;<iface>;<IPv4|IPv6>;<name>;<service_type>;<domain>;<local_hostname>;<address>;<port>;<info_blob>
const (
	fieldInterface = 1
	fieldFamily    = 2
	fieldName      = 3
	fieldService   = 4
	fieldDomain    = 5
	fieldDeviceID  = 6
	fieldAddress   = 7
	fieldPort      = 8
	fieldInfo      = 9
)

// Address family labels carried in field 2.
const (
	FamilyIPv4 = "IPv4"
	FamilyIPv6 = "IPv6"
)

// RawRecord is one resolved advertisement split into fields.
// Line is the 1-based position of the line in the scanner output.
type RawRecord struct {
	Line   int
	Raw    string
	Fields []string
}

func (r RawRecord) field(i int) string {
	if i < 0 || i >= len(r.Fields) {
		return ""
	}
	return r.Fields[i]
}

// Interface is the network interface the advertisement was seen on.
func (r RawRecord) Interface() string { return r.field(fieldInterface) }

// Family is the address family label ("IPv4" or "IPv6").
func (r RawRecord) Family() string { return r.field(fieldFamily) }

// Name is the advertised service instance name.
func (r RawRecord) Name() string { return r.field(fieldName) }

// ServiceType is the advertised service/protocol type, e.g. "_ipp._tcp".
func (r RawRecord) ServiceType() string { return r.field(fieldService) }

// DeviceID is the local host name the record belongs to.
func (r RawRecord) DeviceID() string { return r.field(fieldDeviceID) }

// Address is the resolved IPv4 or IPv6 address.
func (r RawRecord) Address() string { return r.field(fieldAddress) }

// Port is the advertised port number, kept verbatim.
func (r RawRecord) Port() string { return r.field(fieldPort) }

// InfoBlob is the raw TXT data: `"k1=v1" "k2=v2"`.
func (r RawRecord) InfoBlob() string { return r.field(fieldInfo) }

// ParseLine turns one scanner output line into a RawRecord.
//
// Lines without the record marker return ErrNotRecord. Lines with too few
// fields return a Diagnostic (which matches ErrMalformedLine).
func ParseLine(line int, text string) (RawRecord, error) {
	text = strings.TrimRight(text, "\r\n")
	if !strings.HasPrefix(text, RecordMarker) {
		return RawRecord{}, ErrNotRecord
	}

	fields := strings.Split(text, FieldSeparator)
	if len(fields) < MinRecordFields {
		return RawRecord{}, newMalformedLine(line, text, len(fields))
	}

	return RawRecord{Line: line, Raw: text, Fields: fields}, nil
}

// ParseLines parses a complete scanner output. Ignored lines produce
// nothing, malformed ones produce a diagnostic.
func ParseLines(lines []string) ([]RawRecord, []Diagnostic) {
	records := make([]RawRecord, 0, len(lines))
	var diags []Diagnostic

	for i, text := range lines {
		rec, err := ParseLine(i+1, text)
		if err == nil {
			records = append(records, rec)
			continue
		}

		var diag Diagnostic
		if errors.As(err, &diag) {
			diags = append(diags, diag)
		}
	}

	return records, diags
}

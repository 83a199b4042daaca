package logbook

import (
	"strconv"
	"strings"
	"time"

	"github.com/agnivade/levenshtein"
	"github.com/pkg/errors"
)

// FieldType is the declared ADIF data type of a field.
type FieldType int

const (
	TypeString FieldType = iota
	TypeMultiline
	TypeNumber
	TypeInteger
	TypeDate
	TypeTime
	TypeEnumeration
	TypeBoolean
)

func (t FieldType) String() string {
	switch t {
	case TypeMultiline:
		return "multiline string"
	case TypeNumber:
		return "number"
	case TypeInteger:
		return "integer"
	case TypeDate:
		return "date"
	case TypeTime:
		return "time"
	case TypeEnumeration:
		return "enumeration"
	case TypeBoolean:
		return "boolean"
	default:
		return "string"
	}
}

// Field describes one record field.
type Field struct {
	Name     string
	Friendly string
	Type     FieldType
	Options  []string // enumeration values
}

var (
	bands = []string{
		"2190m", "630m", "560m", "160m", "80m", "60m", "40m", "30m", "20m", "17m", "15m", "12m", "10m",
		"8m", "6m", "5m", "4m", "2m", "1.25m", "70cm", "33cm", "23cm", "13cm", "9cm", "6cm", "3cm",
		"1.25cm", "6mm", "4mm", "2.5mm", "2mm", "1mm",
	}
	modes = []string{
		"AM", "ARDOP", "ATV", "CHIP", "CLO", "CONTESTI", "CW", "DIGITALVOICE", "DOMINO", "DYNAMIC",
		"FAX", "FM", "FSK441", "FT4", "FT8", "HELL", "ISCAT", "JT4", "JT6M", "JT9", "JT44", "JT65",
		"MFSK", "MSK144", "MT63", "OLIVIA", "OPERA", "PAC", "PAX", "PKT", "PSK", "PSK2K", "Q15",
		"QRA64", "ROS", "RTTY", "RTTYM", "SSB", "SSTV", "T10", "THOR", "THRB", "TOR", "V4", "VOI",
		"WINMOR", "WSPR",
	}
	qslStatus = []string{"Y", "N", "R", "Q", "I"}
)

// Catalog lists every field a log stores, in export order.
var Catalog = []Field{
	{Name: "CALL", Friendly: "Callsign", Type: TypeString},
	{Name: "QSO_DATE", Friendly: "Date", Type: TypeDate},
	{Name: "TIME_ON", Friendly: "Time", Type: TypeTime},
	{Name: "FREQ", Friendly: "Frequency (MHz)", Type: TypeNumber},
	{Name: "BAND", Friendly: "Band", Type: TypeEnumeration, Options: bands},
	{Name: "MODE", Friendly: "Mode", Type: TypeEnumeration, Options: modes},
	{Name: "TX_PWR", Friendly: "TX Power (W)", Type: TypeNumber},
	{Name: "RST_SENT", Friendly: "RST Sent", Type: TypeString},
	{Name: "RST_RCVD", Friendly: "RST Received", Type: TypeString},
	{Name: "QSL_SENT", Friendly: "QSL Sent", Type: TypeEnumeration, Options: qslStatus},
	{Name: "QSL_RCVD", Friendly: "QSL Received", Type: TypeEnumeration, Options: qslStatus},
	{Name: "NAME", Friendly: "Name", Type: TypeString},
	{Name: "ADDRESS", Friendly: "Address", Type: TypeMultiline},
	{Name: "STATE", Friendly: "State", Type: TypeString},
	{Name: "COUNTRY", Friendly: "Country", Type: TypeString},
	{Name: "DXCC", Friendly: "DXCC", Type: TypeInteger},
	{Name: "CQZ", Friendly: "CQ Zone", Type: TypeInteger},
	{Name: "ITUZ", Friendly: "ITU Zone", Type: TypeInteger},
	{Name: "IOTA", Friendly: "IOTA", Type: TypeString},
	{Name: "GRIDSQUARE", Friendly: "Grid Square", Type: TypeString},
	{Name: "SWL", Friendly: "SWL", Type: TypeBoolean},
	{Name: "NOTES", Friendly: "Notes", Type: TypeMultiline},
}

// IndexColumnTitle heads the leading column of every log view.
const IndexColumnTitle = "Index"

// LookupField returns the catalog entry for name, case-insensitively.
func LookupField(name string) (Field, bool) {
	name = strings.ToUpper(strings.TrimSpace(name))
	for _, f := range Catalog {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// ColumnNames returns every catalog field name.
func ColumnNames() []string {
	out := make([]string, len(Catalog))
	for i, f := range Catalog {
		out[i] = f.Name
	}
	return out
}

// ResolveFields maps configured names onto catalog fields, rejecting unknown
// and repeated names.
func ResolveFields(names []string) ([]Field, error) {
	if len(names) == 0 {
		return nil, errors.New("no fields selected")
	}
	seen := map[string]bool{}
	out := make([]Field, 0, len(names))
	for _, name := range names {
		f, ok := LookupField(name)
		if !ok {
			if s := SuggestField(name); s != "" {
				return nil, errors.Errorf("unknown field %q (did you mean %s?)", name, s)
			}
			return nil, errors.Errorf("unknown field %q", name)
		}
		if seen[f.Name] {
			return nil, errors.Errorf("field %s selected twice", f.Name)
		}
		seen[f.Name] = true
		out = append(out, f)
	}
	return out, nil
}

// SuggestField returns the catalog field closest to name, or "" when nothing
// is close enough to be a plausible typo.
func SuggestField(name string) string {
	name = strings.ToUpper(strings.TrimSpace(name))
	best, bestDist := "", 3
	for _, f := range Catalog {
		if d := levenshtein.ComputeDistance(name, f.Name); d < bestDist {
			best, bestDist = f.Name, d
		}
	}
	return best
}

// Validate checks value against the field's declared type. Empty values are
// always valid.
func (f Field) Validate(value string) error {
	if value == "" {
		return nil
	}
	switch f.Type {
	case TypeString:
		return checkASCII(value, false)
	case TypeMultiline:
		return checkASCII(value, true)
	case TypeNumber:
		if _, err := strconv.ParseFloat(value, 64); err != nil {
			return errors.Errorf("%q is not a number", value)
		}
	case TypeInteger:
		if _, err := strconv.Atoi(value); err != nil {
			return errors.Errorf("%q is not a whole number", value)
		}
	case TypeDate:
		d, err := time.Parse("20060102", value)
		if err != nil || len(value) != 8 {
			return errors.Errorf("%q is not a YYYYMMDD date", value)
		}
		if d.Year() < 1930 {
			return errors.Errorf("%q is before 1930", value)
		}
	case TypeTime:
		layout := ""
		switch len(value) {
		case 4:
			layout = "1504"
		case 6:
			layout = "150405"
		}
		if layout == "" {
			return errors.Errorf("%q is not an HHMM or HHMMSS time", value)
		}
		if _, err := time.Parse(layout, value); err != nil {
			return errors.Errorf("%q is not an HHMM or HHMMSS time", value)
		}
	case TypeEnumeration:
		for _, opt := range f.Options {
			if strings.EqualFold(opt, value) {
				return nil
			}
		}
		return errors.Errorf("%q is not one of the allowed values", value)
	case TypeBoolean:
		switch strings.ToUpper(value) {
		case "Y", "N":
			return nil
		}
		return errors.Errorf("%q is not Y or N", value)
	}
	return nil
}

func checkASCII(value string, multiline bool) error {
	for _, r := range value {
		if multiline && (r == '\r' || r == '\n') {
			continue
		}
		if r < 32 || r > 126 {
			return errors.Errorf("character %q is not allowed", r)
		}
	}
	return nil
}

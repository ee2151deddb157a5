// Encoding/decoding between portable DataType values and this package's
// byte-exact field text (§4.E). A value is represented as a plain Go
// `any`; the concrete type expected for each DataType case is documented
// on Encode. A nil value always means SQL NULL.
package csvfmt

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/text/unicode/norm"

	"github.com/dbcrossbar/dbcrossbar/internal/dbtype"
	"github.com/dbcrossbar/dbcrossbar/internal/xerror"
)

// Encode renders v (already resolved to a non-Named DataType) as a
// RawField per §4.E. v == nil encodes as SQL NULL (an unquoted empty
// field). The expected Go type per DataType case:
//
//	Bool                      bool
//	Date                      time.Time (Y/M/D only)
//	Decimal                   github.com/shopspring/decimal.Decimal
//	Float32                   float32
//	Float64                   float64
//	Int16/Int32/Int64         int16/int32/int64
//	Json, GeoJson             json.RawMessage (or []byte)
//	Text, OneOf               string
//	TimestampWithoutTimeZone  time.Time (zone ignored)
//	TimestampWithTimeZone     time.Time
//	Uuid                      github.com/google/uuid.UUID
//	Array, Struct             any value accepted by encoding/json
func Encode(dt dbtype.DataType, v any) (RawField, error) {
	if v == nil {
		return RawField{}, nil
	}

	switch t := dt.(type) {
	case dbtype.BoolType:
		b, ok := v.(bool)
		if !ok {
			return RawField{}, typeErr(dt, v)
		}
		if b {
			return RawField{Text: "t"}, nil
		}
		return RawField{Text: "f"}, nil

	case dbtype.DateType:
		tm, ok := v.(time.Time)
		if !ok {
			return RawField{}, typeErr(dt, v)
		}
		return RawField{Text: tm.Format("2006-01-02")}, nil

	case dbtype.DecimalType:
		d, ok := v.(decimal.Decimal)
		if !ok {
			return RawField{}, typeErr(dt, v)
		}
		return quotedIfEmpty(d.String()), nil

	case dbtype.Float32Type:
		f, ok := v.(float32)
		if !ok {
			return RawField{}, typeErr(dt, v)
		}
		return RawField{Text: formatFloat(float64(f), 32)}, nil

	case dbtype.Float64Type:
		f, ok := v.(float64)
		if !ok {
			return RawField{}, typeErr(dt, v)
		}
		return RawField{Text: formatFloat(f, 64)}, nil

	case dbtype.Int16Type:
		i, ok := v.(int16)
		if !ok {
			return RawField{}, typeErr(dt, v)
		}
		return RawField{Text: strconv.FormatInt(int64(i), 10)}, nil

	case dbtype.Int32Type:
		i, ok := v.(int32)
		if !ok {
			return RawField{}, typeErr(dt, v)
		}
		return RawField{Text: strconv.FormatInt(int64(i), 10)}, nil

	case dbtype.Int64Type:
		i, ok := v.(int64)
		if !ok {
			return RawField{}, typeErr(dt, v)
		}
		return RawField{Text: strconv.FormatInt(i, 10)}, nil

	case dbtype.JSONType:
		raw, err := asJSONBytes(v)
		if err != nil {
			return RawField{}, err
		}
		minified, err := minifyJSON(raw)
		if err != nil {
			return RawField{}, fmt.Errorf("csvfmt: json: %w", err)
		}
		return RawField{Text: minified, Quoted: true}, nil

	case dbtype.GeoJSONType:
		raw, err := asJSONBytes(v)
		if err != nil {
			return RawField{}, err
		}
		minified, err := minifyJSON(raw)
		if err != nil {
			return RawField{}, fmt.Errorf("csvfmt: geo_json: %w", err)
		}
		return RawField{Text: minified, Quoted: true}, nil

	case dbtype.TextType:
		s, ok := v.(string)
		if !ok {
			return RawField{}, typeErr(dt, v)
		}
		return quotedIfEmpty(s), nil

	case dbtype.TimestampWithoutTimeZoneType:
		tm, ok := v.(time.Time)
		if !ok {
			return RawField{}, typeErr(dt, v)
		}
		return RawField{Text: formatTimestamp(tm, false)}, nil

	case dbtype.TimestampWithTimeZoneType:
		tm, ok := v.(time.Time)
		if !ok {
			return RawField{}, typeErr(dt, v)
		}
		return RawField{Text: formatTimestamp(tm, true)}, nil

	case dbtype.UUIDType:
		u, ok := v.(uuid.UUID)
		if !ok {
			return RawField{}, typeErr(dt, v)
		}
		return RawField{Text: strings.ToLower(u.String())}, nil

	case dbtype.ArrayType:
		data, err := json.Marshal(v)
		if err != nil {
			return RawField{}, fmt.Errorf("csvfmt: array: %w", err)
		}
		return RawField{Text: string(data), Quoted: true}, nil

	case dbtype.StructType:
		data, err := json.Marshal(v)
		if err != nil {
			return RawField{}, fmt.Errorf("csvfmt: struct: %w", err)
		}
		return RawField{Text: string(data), Quoted: true}, nil

	case dbtype.OneOfType:
		s, ok := v.(string)
		if !ok {
			return RawField{}, typeErr(dt, v)
		}
		normalized := norm.NFC.String(s)
		valid := false
		for _, allowed := range t.Values {
			if allowed == normalized {
				valid = true
				break
			}
		}
		if !valid {
			return RawField{}, &xerror.SchemaMismatchError{Reason: fmt.Sprintf("value %q is not a member of one_of %v", s, t.Values)}
		}
		return quotedIfEmpty(normalized), nil

	case dbtype.NamedType:
		return RawField{}, fmt.Errorf("csvfmt: Named type %q must be resolved before encoding", t.Name)

	default:
		return RawField{}, fmt.Errorf("csvfmt: unhandled DataType %T", dt)
	}
}

// Decode parses a RawField back into a value for dt, per the same
// conventions documented on Encode. A field that is empty and unquoted
// decodes to nil (NULL); a quoted empty field decodes to the type's
// empty-but-present value (e.g. "" for Text).
func Decode(dt dbtype.DataType, f RawField) (any, error) {
	if f.Text == "" && !f.Quoted {
		return nil, nil
	}

	switch t := dt.(type) {
	case dbtype.BoolType:
		switch f.Text {
		case "t":
			return true, nil
		case "f":
			return false, nil
		default:
			return nil, &xerror.ParseError{Message: fmt.Sprintf("invalid bool literal %q", f.Text)}
		}

	case dbtype.DateType:
		tm, err := time.Parse("2006-01-02", f.Text)
		if err != nil {
			return nil, &xerror.ParseError{Message: "invalid date: " + err.Error()}
		}
		return tm, nil

	case dbtype.DecimalType:
		d, err := decimal.NewFromString(f.Text)
		if err != nil {
			return nil, &xerror.ParseError{Message: "invalid decimal: " + err.Error()}
		}
		return d, nil

	case dbtype.Float32Type:
		f64, err := parseFloat(f.Text, 32)
		if err != nil {
			return nil, err
		}
		return float32(f64), nil

	case dbtype.Float64Type:
		f64, err := parseFloat(f.Text, 64)
		if err != nil {
			return nil, err
		}
		return f64, nil

	case dbtype.Int16Type:
		i, err := strconv.ParseInt(f.Text, 10, 16)
		if err != nil {
			return nil, &xerror.ParseError{Message: "invalid int16: " + err.Error()}
		}
		return int16(i), nil

	case dbtype.Int32Type:
		i, err := strconv.ParseInt(f.Text, 10, 32)
		if err != nil {
			return nil, &xerror.ParseError{Message: "invalid int32: " + err.Error()}
		}
		return int32(i), nil

	case dbtype.Int64Type:
		i, err := strconv.ParseInt(f.Text, 10, 64)
		if err != nil {
			return nil, &xerror.ParseError{Message: "invalid int64: " + err.Error()}
		}
		return i, nil

	case dbtype.JSONType, dbtype.GeoJSONType:
		return json.RawMessage(f.Text), nil

	case dbtype.TextType:
		return f.Text, nil

	case dbtype.TimestampWithoutTimeZoneType:
		return parseTimestamp(f.Text, false)

	case dbtype.TimestampWithTimeZoneType:
		return parseTimestamp(f.Text, true)

	case dbtype.UUIDType:
		u, err := uuid.Parse(f.Text)
		if err != nil {
			return nil, &xerror.ParseError{Message: "invalid uuid: " + err.Error()}
		}
		return u, nil

	case dbtype.ArrayType, dbtype.StructType:
		var v any
		if err := json.Unmarshal([]byte(f.Text), &v); err != nil {
			return nil, &xerror.ParseError{Message: "invalid composite JSON: " + err.Error()}
		}
		return v, nil

	case dbtype.OneOfType:
		normalized := norm.NFC.String(f.Text)
		for _, allowed := range t.Values {
			if allowed == normalized {
				return normalized, nil
			}
		}
		return nil, &xerror.SchemaMismatchError{Reason: fmt.Sprintf("value %q is not a member of one_of %v", f.Text, t.Values)}

	case dbtype.NamedType:
		return nil, fmt.Errorf("csvfmt: Named type %q must be resolved before decoding", t.Name)

	default:
		return nil, fmt.Errorf("csvfmt: unhandled DataType %T", dt)
	}
}

func typeErr(dt dbtype.DataType, v any) error {
	return fmt.Errorf("csvfmt: value %v (%T) does not match %s", v, v, dt)
}

// quotedIfEmpty forces quoting only for the empty string, so it survives
// as the empty-string value rather than collapsing into NULL.
func quotedIfEmpty(s string) RawField {
	return RawField{Text: s, Quoted: s == ""}
}

func asJSONBytes(v any) ([]byte, error) {
	switch b := v.(type) {
	case json.RawMessage:
		return []byte(b), nil
	case []byte:
		return b, nil
	case string:
		return []byte(b), nil
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("csvfmt: %w", err)
		}
		return data, nil
	}
}

func minifyJSON(raw []byte) (string, error) {
	var buf strings.Builder
	if err := json.Compact(compactWriter{&buf}, raw); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// compactWriter adapts strings.Builder to io.Writer for json.Compact.
type compactWriter struct{ b *strings.Builder }

func (w compactWriter) Write(p []byte) (int, error) { return w.b.Write(p) }

func formatFloat(f float64, bits int) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	default:
		return strconv.FormatFloat(f, 'f', -1, bits)
	}
}

func parseFloat(s string, bits int) (float64, error) {
	switch s {
	case "NaN":
		return math.NaN(), nil
	case "Infinity":
		return math.Inf(1), nil
	case "-Infinity":
		return math.Inf(-1), nil
	}
	f, err := strconv.ParseFloat(s, bits)
	if err != nil {
		return 0, &xerror.ParseError{Message: "invalid float: " + err.Error()}
	}
	return f, nil
}

func formatTimestamp(t time.Time, withZone bool) string {
	var b strings.Builder
	b.WriteString(t.Format("2006-01-02T15:04:05"))
	if ns := t.Nanosecond(); ns != 0 {
		micros := ns / 1000
		frac := fmt.Sprintf(".%06d", micros)
		frac = strings.TrimRight(frac, "0")
		if frac != "." {
			b.WriteString(frac)
		}
	}
	if withZone {
		_, offset := t.Zone()
		if offset == 0 {
			b.WriteString("Z")
		} else {
			sign := "+"
			if offset < 0 {
				sign = "-"
				offset = -offset
			}
			fmt.Fprintf(&b, "%s%02d:%02d", sign, offset/3600, (offset%3600)/60)
		}
	}
	return b.String()
}

var timestampRe = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})T(\d{2}):(\d{2}):(\d{2})(\.\d{1,6})?(Z|[+-]\d{2}:\d{2})?$`)

func parseTimestamp(s string, withZone bool) (time.Time, error) {
	m := timestampRe.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}, &xerror.ParseError{Message: "invalid timestamp: " + s}
	}
	year, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	day, _ := strconv.Atoi(m[3])
	hour, _ := strconv.Atoi(m[4])
	minute, _ := strconv.Atoi(m[5])
	second, _ := strconv.Atoi(m[6])

	nanos := 0
	if m[7] != "" {
		frac := m[7][1:]
		for len(frac) < 6 {
			frac += "0"
		}
		micros, _ := strconv.Atoi(frac[:6])
		nanos = micros * 1000
	}

	loc := time.UTC
	if withZone && m[8] != "" && m[8] != "Z" {
		sign := 1
		spec := m[8]
		if spec[0] == '-' {
			sign = -1
		}
		hh, _ := strconv.Atoi(spec[1:3])
		mm, _ := strconv.Atoi(spec[4:6])
		offset := sign * (hh*3600 + mm*60)
		loc = time.FixedZone(spec, offset)
	}

	return time.Date(year, time.Month(month), day, hour, minute, second, nanos, loc), nil
}

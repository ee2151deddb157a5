// Package csvfmt implements the byte-exact CSV interchange codec (§4.E):
// every driver reads and writes exactly this dialect, so that two
// conforming drivers produce identical bytes for the same schema and row
// data (invariant 3, §8).
//
// The dialect differs from plain RFC 4180 in one load-bearing way:
// Go's encoding/csv collapses a quoted empty string ("") and an
// unquoted empty field to the same value on read, and always renders an
// empty field unquoted on write. That loses the NULL-vs-empty-string
// distinction §4.E requires, so this package hand-rolls a reader and
// writer that track whether each field was quoted.
package csvfmt

import (
	"bufio"
	"io"
	"strings"
)

// RawField is one CSV field together with whether it appeared quoted in
// the source text (or must be quoted on write) — the only extra bit
// RFC 4180 itself doesn't carry, and the one this dialect depends on.
type RawField struct {
	Text   string
	Quoted bool
}

// Writer emits records in the §4.E dialect: comma separator, LF line
// terminator, '"' doubled to escape, and a field quoted whenever its
// RawField.Quoted is true (regardless of content) or its content
// requires it.
type Writer struct {
	w *bufio.Writer
}

// NewWriter wraps w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

// WriteRecord writes one record terminated by a single LF.
func (w *Writer) WriteRecord(fields []RawField) error {
	for i, f := range fields {
		if i > 0 {
			if err := w.w.WriteByte(','); err != nil {
				return err
			}
		}
		if err := w.writeField(f); err != nil {
			return err
		}
	}
	return w.w.WriteByte('\n')
}

func (w *Writer) writeField(f RawField) error {
	needsQuote := f.Quoted || strings.ContainsAny(f.Text, ",\"\r\n")
	if !needsQuote {
		_, err := w.w.WriteString(f.Text)
		return err
	}
	if err := w.w.WriteByte('"'); err != nil {
		return err
	}
	if _, err := w.w.WriteString(strings.ReplaceAll(f.Text, `"`, `""`)); err != nil {
		return err
	}
	return w.w.WriteByte('"')
}

// Flush flushes any buffered output to the underlying writer.
func (w *Writer) Flush() error {
	return w.w.Flush()
}

// Reader parses records in the §4.E dialect, preserving whether each
// field was quoted in the source text.
type Reader struct {
	br *bufio.Reader
}

// NewReader wraps r.
func NewReader(r io.Reader) *Reader {
	return &Reader{br: bufio.NewReader(r)}
}

// ReadRecord reads the next record. It returns io.EOF (with a nil
// record) only at a clean end of input between records.
func (r *Reader) ReadRecord() ([]RawField, error) {
	var fields []RawField
	var field strings.Builder
	fieldQuoted := false
	inQuotes := false
	any := false

	for {
		b, err := r.br.ReadByte()
		if err != nil {
			if err == io.EOF {
				if !any {
					return nil, io.EOF
				}
				fields = append(fields, RawField{Text: field.String(), Quoted: fieldQuoted})
				return fields, nil
			}
			return nil, err
		}
		any = true

		if inQuotes {
			if b == '"' {
				if next, perr := r.br.Peek(1); perr == nil && len(next) > 0 && next[0] == '"' {
					field.WriteByte('"')
					_, _ = r.br.ReadByte()
					continue
				}
				inQuotes = false
				continue
			}
			field.WriteByte(b)
			continue
		}

		switch b {
		case '"':
			if field.Len() == 0 {
				fieldQuoted = true
				inQuotes = true
			} else {
				field.WriteByte(b)
			}
		case ',':
			fields = append(fields, RawField{Text: field.String(), Quoted: fieldQuoted})
			field.Reset()
			fieldQuoted = false
		case '\n':
			fields = append(fields, RawField{Text: field.String(), Quoted: fieldQuoted})
			return fields, nil
		case '\r':
			// tolerate CRLF input even though the dialect only ever emits LF
		default:
			field.WriteByte(b)
		}
	}
}

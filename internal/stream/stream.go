package stream

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/dbcrossbar/dbcrossbar/internal/csvfmt"
)

// OutputStream is one inner byte stream of a DatasetStream — the CSV
// bytes for one part of a table (§4.F, GLOSSARY "Dataset stream").
type OutputStream struct {
	Name string
	Body io.ReadCloser
}

// Item is one element pulled from a DatasetStream: either a ready
// OutputStream, or the single terminal error that ended production.
type Item struct {
	Stream OutputStream
	Err    error
}

// DatasetStream is the lazy outer sequence of OutputStreams (§9
// "Stream-of-streams"): pulling it advances production only as fast as
// the consumer reads from the channel, which is itself the backpressure
// mechanism (§4.F) — no unbounded buffering is possible because the
// channel has a fixed capacity set by Produce's bufferSize.
type DatasetStream struct {
	items <-chan Item
}

// Next pulls the next OutputStream, or (false, nil) at a clean end, or an
// error either from production or from ctx being cancelled first.
func (d DatasetStream) Next(ctx context.Context) (OutputStream, bool, error) {
	select {
	case <-ctx.Done():
		return OutputStream{}, false, ctx.Err()
	case it, ok := <-d.items:
		if !ok {
			return OutputStream{}, false, nil
		}
		if it.Err != nil {
			return OutputStream{}, false, it.Err
		}
		return it.Stream, true, nil
	}
}

// Produce runs fn in its own goroutine, giving it an emit callback that
// blocks until the consumer is ready for the next OutputStream (or ctx is
// cancelled) — the producer-suspension behavior §4.F requires. fn's
// returned error becomes the stream's terminal Item.
func Produce(ctx context.Context, bufferSize int, fn func(ctx context.Context, emit func(OutputStream) error) error) DatasetStream {
	if bufferSize < 1 {
		bufferSize = 1
	}
	items := make(chan Item, bufferSize)
	go func() {
		defer close(items)
		emit := func(os OutputStream) error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case items <- Item{Stream: os}:
				return nil
			}
		}
		if err := fn(ctx, emit); err != nil {
			select {
			case items <- Item{Err: err}:
			case <-ctx.Done():
			}
		}
	}()
	return DatasetStream{items: items}
}

// Split reads one logical CSV stream from r and re-emits it as a
// DatasetStream of parts, splitting only at record boundaries and
// repeating header on every part (§4.F "Splitting and concatenation").
// r holds data records only: Split writes header itself, so a caller
// whose input starts with a header line consumes that line first.
// targetBytes <= 0 disables splitting (the whole input becomes one part).
func Split(ctx context.Context, header []csvfmt.RawField, r io.Reader, targetBytes int64) DatasetStream {
	return Produce(ctx, 1, func(ctx context.Context, emit func(OutputStream) error) error {
		reader := csvfmt.NewReader(r)
		index := 0

		var buf bytes.Buffer
		writer := csvfmt.NewWriter(&buf)
		if err := writer.WriteRecord(header); err != nil {
			return err
		}

		// pendingRecords tracks whether a data record has been written to
		// buf since it was last reset, so a flush forced only by
		// end-of-input doesn't emit a part holding nothing but the header.
		pendingRecords := false
		flush := func(force bool) error {
			if !pendingRecords && !force {
				return nil
			}
			if err := writer.Flush(); err != nil {
				return err
			}
			data := append([]byte(nil), buf.Bytes()...)
			name := fmt.Sprintf("part-%04d.csv", index)
			if err := emit(OutputStream{Name: name, Body: io.NopCloser(bytes.NewReader(data))}); err != nil {
				return err
			}
			index++
			pendingRecords = false
			buf.Reset()
			writer = csvfmt.NewWriter(&buf)
			return writer.WriteRecord(header)
		}

		wroteAnyRecord := false
		for {
			record, err := reader.ReadRecord()
			if err == io.EOF {
				break
			}
			if err != nil {
				return err
			}
			if err := writer.WriteRecord(record); err != nil {
				return err
			}
			wroteAnyRecord = true
			pendingRecords = true
			if err := writer.Flush(); err != nil {
				return err
			}
			if targetBytes > 0 && int64(buf.Len()) >= targetBytes {
				if err := flush(false); err != nil {
					return err
				}
			}
		}

		// Emit whatever remains: always at least the header-only part if
		// the source had zero data rows, so a zero-row table still
		// produces one valid (header-only) output.
		return flush(!wroteAnyRecord && index == 0)
	})
}

// Concatenate reads every part of ds and writes it to w as a single CSV
// stream, dropping the repeated header on every part after the first
// (§4.F "may concatenate inner streams into one for single-file
// destinations").
func Concatenate(ctx context.Context, ds DatasetStream, w io.Writer) error {
	first := true
	for {
		part, ok, err := ds.Next(ctx)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		if err := copyBody(w, part.Body, first); err != nil {
			part.Body.Close()
			return err
		}
		part.Body.Close()
		first = false
	}
}

func copyBody(w io.Writer, body io.Reader, includeHeader bool) error {
	reader := csvfmt.NewReader(body)
	writer := csvfmt.NewWriter(w)
	first := true
	for {
		record, err := reader.ReadRecord()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		if first {
			first = false
			if !includeHeader {
				continue
			}
		}
		if err := writer.WriteRecord(record); err != nil {
			return err
		}
	}
	return writer.Flush()
}

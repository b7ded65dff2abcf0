package fetcher

import (
	"context"
	"encoding/csv"
	"errors"
	"io"
	"strings"

	"github.com/rotisserie/eris"
)

// CSVOptions configures positional CSV reads.
type CSVOptions struct {
	// Comma is the field delimiter. Zero means ','.
	Comma rune

	// Header skips the first record.
	Header bool

	// LazyQuotes tolerates bare quotes inside unquoted fields, which hand
	// exported name lists often contain.
	LazyQuotes bool
}

func (o CSVOptions) reader(r io.Reader) *csv.Reader {
	cr := csv.NewReader(r)
	if o.Comma != 0 {
		cr.Comma = o.Comma
	}
	cr.LazyQuotes = o.LazyQuotes
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true
	return cr
}

// EachRow calls fn for every record of r with fields trimmed. The slice
// passed to fn is reused between calls. Cancellation is checked per record.
func EachRow(ctx context.Context, r io.Reader, opts CSVOptions, fn func(row []string) error) error {
	cr := opts.reader(r)
	skip := opts.Header
	for line := 1; ; line++ {
		if err := ctx.Err(); err != nil {
			return eris.Wrap(err, "csv: cancelled")
		}
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return eris.Wrapf(err, "csv: read record %d", line)
		}
		if skip {
			skip = false
			continue
		}
		for i := range row {
			row[i] = strings.TrimSpace(row[i])
		}
		if err := fn(row); err != nil {
			return err
		}
	}
}

// ReadColumn returns field col of every record. Records too short to have
// that field contribute an empty string.
func ReadColumn(ctx context.Context, r io.Reader, opts CSVOptions, col int) ([]string, error) {
	var out []string
	err := EachRow(ctx, r, opts, func(row []string) error {
		if col < len(row) {
			out = append(out, row[col])
		} else {
			out = append(out, "")
		}
		return nil
	})
	return out, err
}

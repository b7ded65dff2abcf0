// Package staging persists typed pipeline records as CSV files between
// stages.
package staging

import (
	"encoding/csv"
	"errors"
	"io"
	"os"
	"path/filepath"

	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"
)

// Staged file names inside a run directory.
const (
	CatalogFile  = "catalog.csv"
	CeremonyFile = "ceremony.csv"
	FactsFile    = "knowledge.csv"
	SkippedFile  = "knowledge_skipped.csv"
	TracksFile   = "tracks.csv"
	NomsFile     = "nominations.csv"
	ProfilesFile = "profiles.csv"
	MergedFile   = "merged.csv"
)

// Encode writes rows as CSV with a header derived from T's csv tags. The
// header is written even when rows is empty.
func Encode[T any](w io.Writer, rows []T) error {
	cw := csv.NewWriter(w)
	enc := csvutil.NewEncoder(cw)

	var zero T
	if err := enc.EncodeHeader(zero); err != nil {
		return eris.Wrap(err, "staging: encode header")
	}
	for i := range rows {
		if err := enc.Encode(rows[i]); err != nil {
			return eris.Wrapf(err, "staging: encode row %d", i)
		}
	}
	cw.Flush()
	return eris.Wrap(cw.Error(), "staging: flush")
}

// Decode reads every row of r into T by header name. Columns without a
// matching field are ignored. Empty input yields no rows.
func Decode[T any](r io.Reader) ([]T, error) {
	dec, err := csvutil.NewDecoder(csv.NewReader(r))
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "staging: read header")
	}

	var out []T
	for {
		var v T
		err := dec.Decode(&v)
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return out, eris.Wrapf(err, "staging: decode row %d", len(out)+1)
		}
		out = append(out, v)
	}
}

// WriteFile encodes rows to path, creating parent directories.
func WriteFile[T any](path string, rows []T) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return eris.Wrapf(err, "staging: create dir for %s", path)
	}
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "staging: create %s", path)
	}
	if err := Encode(f, rows); err != nil {
		_ = f.Close()
		return eris.Wrapf(err, "staging: write %s", path)
	}
	return eris.Wrapf(f.Close(), "staging: close %s", path)
}

// ReadFile decodes every row of path.
func ReadFile[T any](path string) ([]T, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "staging: open %s", path)
	}
	defer f.Close() //nolint:errcheck

	rows, err := Decode[T](f)
	if err != nil {
		return rows, eris.Wrapf(err, "staging: read %s", path)
	}
	return rows, nil
}

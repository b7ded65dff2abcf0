package extract

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/artist-etl/internal/fetcher"
	"github.com/sells-group/artist-etl/internal/model"
	"github.com/sells-group/artist-etl/internal/staging"
)

// Catalog copies the streaming-catalog export into the run directory. When
// URL is set the file is downloaded through Fetcher, otherwise Path is read.
type Catalog struct {
	Path    string
	URL     string
	Fetcher fetcher.Fetcher
}

// Extract stages the raw export at dest and returns its data row count.
func (c *Catalog) Extract(ctx context.Context, dest string) (int, error) {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return 0, eris.Wrap(err, "extract: catalog mkdir")
	}

	switch {
	case c.URL != "":
		if c.Fetcher == nil {
			return 0, eris.New("extract: catalog url set without fetcher")
		}
		if _, err := c.Fetcher.DownloadToFile(ctx, c.URL, dest); err != nil {
			return 0, eris.Wrap(err, "extract: download catalog")
		}
	case c.Path != "":
		if err := copyFile(c.Path, dest); err != nil {
			return 0, err
		}
	default:
		return 0, eris.New("extract: catalog source not configured")
	}

	rows, err := ReadCatalog(dest)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, emptyDataset("catalog")
	}
	zap.L().Info("extract: catalog staged",
		zap.String("path", dest),
		zap.Int("rows", len(rows)),
	)
	return len(rows), nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return eris.Wrapf(err, "extract: open %s", src)
	}
	defer in.Close() //nolint:errcheck

	out, err := createFile(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close() //nolint:errcheck
		return eris.Wrap(err, "extract: copy catalog")
	}
	return eris.Wrap(out.Close(), "extract: close catalog")
}

// catalogRow mirrors the export columns as text so blanks and unparsable
// numbers can be flagged instead of failing the whole file.
type catalogRow struct {
	TrackID          string `csv:"track_id"`
	Artists          string `csv:"artists"`
	AlbumName        string `csv:"album_name"`
	TrackName        string `csv:"track_name"`
	Popularity       string `csv:"popularity"`
	DurationMs       string `csv:"duration_ms"`
	Explicit         string `csv:"explicit"`
	Danceability     string `csv:"danceability"`
	Energy           string `csv:"energy"`
	Key              string `csv:"key"`
	Loudness         string `csv:"loudness"`
	Mode             string `csv:"mode"`
	Speechiness      string `csv:"speechiness"`
	Acousticness     string `csv:"acousticness"`
	Instrumentalness string `csv:"instrumentalness"`
	Liveness         string `csv:"liveness"`
	Valence          string `csv:"valence"`
	Tempo            string `csv:"tempo"`
	TimeSignature    string `csv:"time_signature"`
	TrackGenre       string `csv:"track_genre"`
}

type rowParser struct {
	missing bool
}

func (p *rowParser) text(v string) string {
	if v == "" {
		p.missing = true
	}
	return v
}

func (p *rowParser) int(v string) int {
	v = strings.TrimSpace(v)
	n, err := strconv.Atoi(v)
	if err == nil {
		return n
	}
	f, ferr := strconv.ParseFloat(v, 64)
	if ferr != nil || f != float64(int(f)) {
		p.missing = true
		return 0
	}
	return int(f)
}

func (p *rowParser) float(v string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		p.missing = true
		return 0
	}
	return f
}

func (p *rowParser) bool(v string) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		p.missing = true
		return false
	}
	return b
}

func (r catalogRow) track() model.RawTrack {
	var p rowParser
	t := model.RawTrack{
		TrackID:          p.text(r.TrackID),
		Artists:          p.text(r.Artists),
		AlbumName:        p.text(r.AlbumName),
		TrackName:        p.text(r.TrackName),
		Popularity:       p.int(r.Popularity),
		DurationMs:       p.int(r.DurationMs),
		Explicit:         p.bool(r.Explicit),
		Danceability:     p.float(r.Danceability),
		Energy:           p.float(r.Energy),
		Key:              p.int(r.Key),
		Loudness:         p.float(r.Loudness),
		Mode:             p.int(r.Mode),
		Speechiness:      p.float(r.Speechiness),
		Acousticness:     p.float(r.Acousticness),
		Instrumentalness: p.float(r.Instrumentalness),
		Liveness:         p.float(r.Liveness),
		Valence:          p.float(r.Valence),
		Tempo:            p.float(r.Tempo),
		TimeSignature:    p.int(r.TimeSignature),
		TrackGenre:       p.text(r.TrackGenre),
	}
	t.Missing = p.missing
	return t
}

// ParseCatalog decodes a catalog export. Rows with a blank or malformed
// column are kept with Missing set.
func ParseCatalog(r io.Reader) ([]model.RawTrack, error) {
	rows, err := staging.Decode[catalogRow](r)
	if err != nil {
		return nil, eris.Wrap(err, "extract: parse catalog")
	}
	out := make([]model.RawTrack, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.track())
	}
	return out, nil
}

// ReadCatalog parses the catalog export at path.
func ReadCatalog(path string) ([]model.RawTrack, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "extract: open %s", path)
	}
	defer f.Close() //nolint:errcheck
	return ParseCatalog(f)
}

// Package transform cleans the raw catalog and ceremony extracts into the
// shapes the merge step joins on.
package transform

import (
	_ "embed"
	"sort"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/artist-etl/internal/model"
)

//go:embed genres.yaml
var genresYAML []byte

// GenreMap maps a catalog genre tag to its category.
type GenreMap map[string]string

// LoadGenreMap parses a category → tags YAML document. A tag listed under
// two categories is an error.
func LoadGenreMap(data []byte) (GenreMap, error) {
	var byCategory map[string][]string
	if err := yaml.Unmarshal(data, &byCategory); err != nil {
		return nil, eris.Wrap(err, "transform: parse genre map")
	}
	m := make(GenreMap)
	for category, tags := range byCategory {
		for _, tag := range tags {
			if prev, ok := m[tag]; ok && prev != category {
				return nil, eris.Errorf("transform: genre %q mapped to both %q and %q", tag, prev, category)
			}
			m[tag] = category
		}
	}
	return m, nil
}

// DefaultGenreMap returns the embedded genre table.
func DefaultGenreMap() GenreMap {
	m, err := LoadGenreMap(genresYAML)
	if err != nil {
		panic(err)
	}
	return m
}

// bucket is a right-inclusive bin (lo, hi].
type bucket struct {
	hi    float64
	label string
}

// cut returns the label of the bin holding v, or "" when v is outside
// (lo, last hi].
func cut(v, lo float64, bins []bucket) string {
	if v <= lo {
		return ""
	}
	for _, b := range bins {
		if v <= b.hi {
			return b.label
		}
	}
	return ""
}

var (
	popularityBins   = []bucket{{30, "Low"}, {60, "Medium"}, {80, "High"}, {100, "Very High"}}
	danceabilityBins = []bucket{{0.3, "Low"}, {0.6, "Medium"}, {1, "High"}}
	energyBins       = []bucket{{0.3, "Low"}, {0.7, "Medium"}, {1, "High"}}
	durationBins     = []bucket{{2, "Very Short"}, {3.5, "Short"}, {5, "Average"}, {10, "Long"}, {20, "Very Long"}}
	valenceBins      = []bucket{{0.2, "Very Sad"}, {0.4, "Sad"}, {0.6, "Neutral"}, {0.8, "Happy"}, {1, "Very Happy"}}
)

const (
	loudThreshold = -5.0
	liveThreshold = 0.8
)

// contentKey blanks the fields that differ between re-releases of the same
// recording.
func contentKey(t model.RawTrack) model.RawTrack {
	t.TrackID = ""
	t.AlbumName = ""
	return t
}

type titleKey struct{ trackName, artists string }

// CleanTracks deduplicates the catalog, maps genres to categories, keeps
// the most popular row per (track name, artists) and buckets the audio
// attributes. Output is ordered by track name, then artists. Genres missing
// from genres are mapped to "" so the row fails Track.Complete.
func CleanTracks(raw []model.RawTrack, genres GenreMap) []model.Track {
	log := zap.L().With(zap.String("component", "transform.catalog"))
	if genres == nil {
		genres = DefaultGenreMap()
	}

	// Drop incomplete rows, exact duplicates, then repeated track IDs.
	seenRow := make(map[model.RawTrack]struct{}, len(raw))
	seenID := make(map[string]struct{}, len(raw))
	rows := make([]model.RawTrack, 0, len(raw))
	for _, r := range raw {
		if r.Missing {
			continue
		}
		if _, dup := seenRow[r]; dup {
			continue
		}
		seenRow[r] = struct{}{}
		if _, dup := seenID[r.TrackID]; dup {
			continue
		}
		seenID[r.TrackID] = struct{}{}

		r.TrackGenre = genres[r.TrackGenre]
		rows = append(rows, r)
	}
	afterID := len(rows)

	// Drop content duplicates, keeping the first release.
	seenContent := make(map[model.RawTrack]struct{}, len(rows))
	content := rows[:0]
	for _, r := range rows {
		k := contentKey(r)
		if _, dup := seenContent[k]; dup {
			continue
		}
		seenContent[k] = struct{}{}
		content = append(content, r)
	}

	// Most popular per title; the earliest row wins ties.
	best := make(map[titleKey]int, len(content))
	for i, r := range content {
		k := titleKey{r.TrackName, r.Artists}
		if j, ok := best[k]; !ok || r.Popularity > content[j].Popularity {
			best[k] = i
		}
	}
	keys := make([]titleKey, 0, len(best))
	for k := range best {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].trackName != keys[j].trackName {
			return keys[i].trackName < keys[j].trackName
		}
		return keys[i].artists < keys[j].artists
	})

	out := make([]model.Track, 0, len(keys))
	for _, k := range keys {
		out = append(out, bucketTrack(content[best[k]]))
	}

	log.Info("transform: catalog cleaned",
		zap.Int("input", len(raw)),
		zap.Int("unique_ids", afterID),
		zap.Int("unique_content", len(content)),
		zap.Int("output", len(out)),
	)
	return out
}

func bucketTrack(r model.RawTrack) model.Track {
	minutes := float64(r.DurationMs) / 60000
	return model.Track{
		TrackID:      r.TrackID,
		Artists:      r.Artists,
		AlbumName:    r.AlbumName,
		TrackName:    r.TrackName,
		Popularity:   cut(float64(r.Popularity), 0, popularityBins),
		DurationMin:  cut(minutes, 0, durationBins),
		Explicit:     r.Explicit,
		Danceability: cut(r.Danceability, 0, danceabilityBins),
		Energy:       cut(r.Energy, 0, energyBins),
		Valence:      cut(r.Valence, 0, valenceBins),
		TrackGenre:   r.TrackGenre,
		IsLoud:       r.Loudness > loudThreshold,
		IsLive:       r.Liveness > liveThreshold,
	}
}

// Package merge joins cleaned catalog tracks with ceremony nominations and
// knowledge profiles on normalized artist names.
package merge

import (
	"go.uber.org/zap"

	"github.com/sells-group/artist-etl/internal/model"
	"github.com/sells-group/artist-etl/internal/names"
)

// Stats counts what Merge dropped along the way.
type Stats struct {
	ExpandedTracks int
	Duplicates     int
	NoNomination   int
	NoProfile      int
	Incomplete     int
	Output         int
}

type trackKey struct{ trackID, artist string }

// Merge expands multi-artist tracks and nominations into one row per artist,
// left-joins tracks to nominations and then to profiles, keeps the first
// row per (track ID, artist) and drops every row with a missing field.
func Merge(tracks []model.Track, nominations []model.Nomination, profiles []model.ArtistProfile, s *names.Splitter) []model.UnifiedRecord {
	out, _ := MergeWithStats(tracks, nominations, profiles, s)
	return out
}

// MergeWithStats is Merge that also reports drop counts.
func MergeWithStats(tracks []model.Track, nominations []model.Nomination, profiles []model.ArtistProfile, s *names.Splitter) ([]model.UnifiedRecord, Stats) {
	if s == nil {
		s = names.MustSplitter("")
	}
	var st Stats

	expandedTracks := names.Expand(s, tracks,
		func(t model.Track) string { return t.Artists },
		func(t *model.Track, name string) { t.Artists = name },
	)
	expandedNoms := names.Expand(s, nominations,
		func(n model.Nomination) string { return n.Artist },
		func(n *model.Nomination, name string) { n.Artist = name },
	)
	st.ExpandedTracks = len(expandedTracks)

	// Only the first match on each side can survive deduplication.
	firstNom := make(map[string]int, len(expandedNoms))
	for i, n := range expandedNoms {
		if _, ok := firstNom[n.Artist]; !ok {
			firstNom[n.Artist] = i
		}
	}
	firstProfile := make(map[string]int, len(profiles))
	for i, p := range profiles {
		key := names.Normalize(p.Artist)
		if _, ok := firstProfile[key]; !ok {
			firstProfile[key] = i
		}
	}

	seen := make(map[trackKey]struct{}, len(expandedTracks))
	out := make([]model.UnifiedRecord, 0, len(expandedTracks))
	for _, t := range expandedTracks {
		k := trackKey{t.TrackID, t.Artists}
		if _, dup := seen[k]; dup {
			st.Duplicates++
			continue
		}
		seen[k] = struct{}{}

		ni, ok := firstNom[t.Artists]
		if !ok {
			st.NoNomination++
			continue
		}
		pi, ok := firstProfile[t.Artists]
		if !ok {
			st.NoProfile++
			continue
		}
		n, p := expandedNoms[ni], profiles[pi]
		if !t.Complete() || !n.Complete() {
			st.Incomplete++
			continue
		}
		out = append(out, record(t, n, p))
	}
	st.Output = len(out)

	zap.L().Info("merge: datasets joined",
		zap.Int("tracks", len(tracks)),
		zap.Int("expanded_tracks", st.ExpandedTracks),
		zap.Int("nominations", len(expandedNoms)),
		zap.Int("profiles", len(profiles)),
		zap.Int("no_nomination", st.NoNomination),
		zap.Int("no_profile", st.NoProfile),
		zap.Int("incomplete", st.Incomplete),
		zap.Int("output", st.Output),
	)
	return out, st
}

func record(t model.Track, n model.Nomination, p model.ArtistProfile) model.UnifiedRecord {
	return model.UnifiedRecord{
		TrackID:      t.TrackID,
		Artist:       t.Artists,
		AlbumName:    t.AlbumName,
		TrackName:    t.TrackName,
		Popularity:   t.Popularity,
		DurationMin:  t.DurationMin,
		Explicit:     t.Explicit,
		Danceability: t.Danceability,
		Energy:       t.Energy,
		Valence:      t.Valence,
		TrackGenre:   t.TrackGenre,
		IsLoud:       t.IsLoud,
		IsLive:       t.IsLive,

		Year:      n.Year,
		Title:     n.Title,
		Category:  n.Category,
		Nominee:   n.Nominee,
		Nominated: n.Nominated,
		Decade:    n.Decade,

		Gender:     p.Gender,
		Country:    p.Country,
		AwardCount: p.AwardCount,
		WonGrammy:  p.WonGrammy,
		AwardsList: p.AwardsList,
		AlbumCount: p.AlbumCount,
	}
}

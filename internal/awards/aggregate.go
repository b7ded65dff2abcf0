// Package awards consolidates knowledge-base facts into one profile per
// artist, keeping only awards whose titles pass a language filter.
package awards

import (
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/artist-etl/internal/model"
)

// DefaultHonorMarker identifies the ceremony's own award in award titles.
const DefaultHonorMarker = "grammy"

// Options configures Aggregate.
type Options struct {
	Filter      *Filter
	HonorMarker string
}

// Mode returns the most frequent non-empty value, the lexically smallest
// on ties, or model.UnknownValue when values holds nothing non-empty.
func Mode(values []string) string {
	counts := make(map[string]int, len(values))
	for _, v := range values {
		if v != "" {
			counts[v]++
		}
	}
	best, bestN := "", 0
	for v, n := range counts {
		if n > bestN || (n == bestN && v < best) {
			best, bestN = v, n
		}
	}
	if bestN == 0 {
		return model.UnknownValue
	}
	return best
}

type accumulator struct {
	countries []string
	genders   []string
	albums    []string
	awards    map[string]struct{}
}

// Aggregate groups facts by exact artist name and returns one profile per
// artist, sorted by name. Facts with an empty artist are dropped.
func Aggregate(facts []model.KnowledgeFact, opts Options) []model.ArtistProfile {
	if opts.Filter == nil {
		opts.Filter = NewFilter("", nil, nil)
	}
	marker := strings.ToLower(opts.HonorMarker)
	if marker == "" {
		marker = DefaultHonorMarker
	}

	byArtist := make(map[string]*accumulator)
	for _, f := range facts {
		if f.Artist == "" {
			continue
		}
		acc, ok := byArtist[f.Artist]
		if !ok {
			acc = &accumulator{awards: make(map[string]struct{})}
			byArtist[f.Artist] = acc
		}
		acc.countries = append(acc.countries, f.Country)
		acc.genders = append(acc.genders, f.Gender)
		acc.albums = append(acc.albums, f.AlbumCount)
		if opts.Filter.Keep(f.Award) {
			acc.awards[f.Award] = struct{}{}
		}
	}

	out := make([]model.ArtistProfile, 0, len(byArtist))
	for artist, acc := range byArtist {
		p := model.ArtistProfile{
			Artist:     artist,
			Gender:     Mode(acc.genders),
			Country:    Mode(acc.countries),
			AlbumCount: Mode(acc.albums),
			AwardsList: model.NoAwards,
		}
		if len(acc.awards) > 0 {
			kept := make([]string, 0, len(acc.awards))
			for a := range acc.awards {
				kept = append(kept, a)
				if strings.Contains(strings.ToLower(a), marker) {
					p.WonGrammy = true
				}
			}
			sort.Strings(kept)
			p.AwardCount = len(kept)
			p.AwardsList = strings.Join(kept, model.AwardDelimiter)
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Artist < out[j].Artist })

	zap.L().Debug("awards: aggregated profiles",
		zap.Int("facts", len(facts)),
		zap.Int("artists", len(out)),
		zap.Int("classified", opts.Filter.Cache.Len()),
	)
	return out
}

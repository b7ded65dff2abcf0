package transform

import (
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/artist-etl/internal/model"
)

// NonEssentialCategories are classical categories whose credit-less rows
// carry no artist information worth recovering.
var NonEssentialCategories = map[string]struct{}{
	"Best Small Ensemble Performance (With or Without Conductor)":                              {},
	"Best Classical Vocal Performance":                                                         {},
	"Best Classical Vocal Soloist Performance":                                                 {},
	"Best Classical Performance - Instrumental Soloist or Soloists (With or Without Orchestra)": {},
	"Best Classical Performance - Vocal Soloist":                                               {},
	"Best Performance - Instrumental Soloist or Soloists (With or Without Orchestra)":          {},
	"Best Classical Performance - Vocal Soloist (With or Without Orchestra)":                   {},
}

var (
	parenthesized = regexp.MustCompile(`\((.*?)\)`)
	roleCredit    = regexp.MustCompile(`^([^,;]+), (soloist|composer|conductor|artist)`)
	collabCredit  = regexp.MustCompile(`(?i)^(.+?(Featuring|&| and ).*?)(;|,|$)`)
)

const (
	variousArtistsRaw = "(Various Artists)"
	variousArtists    = "Various Artists"
)

// ResolveArtist returns the performing artist of a nomination, falling back
// through the credit fields in order until one yields a value:
//  1. no artist and no workers: the nominee itself
//  2. the first parenthesized text in workers, even when it is empty
//  3. a "Name, role" credit or a collaboration credit at the start of workers
//  4. workers, trimmed
func ResolveArtist(n model.RawNomination) string {
	artist := n.Artist
	switch {
	case artist != "":
	case n.Workers == "":
		artist = n.Nominee
	default:
		if m := parenthesized.FindStringSubmatch(n.Workers); m != nil {
			// "()" resolves to an empty credit and ends the chain.
			artist = m[1]
		} else {
			artist = creditedArtist(n.Workers)
		}
	}
	if artist == variousArtistsRaw {
		artist = variousArtists
	}
	return artist
}

func creditedArtist(workers string) string {
	if m := roleCredit.FindStringSubmatch(workers); m != nil {
		return strings.TrimSpace(m[1])
	}
	if m := collabCredit.FindStringSubmatch(workers); m != nil {
		return strings.TrimSpace(m[1])
	}
	return strings.TrimSpace(workers)
}

// CleanNominations drops rows without a nominee and credit-less rows in
// non-essential categories, resolves each artist, and derives the decade.
func CleanNominations(raw []model.RawNomination) []model.Nomination {
	log := zap.L().With(zap.String("component", "transform.ceremony"))

	out := make([]model.Nomination, 0, len(raw))
	var noNominee, nonEssential int
	for _, r := range raw {
		if r.Nominee == "" {
			noNominee++
			continue
		}
		if r.Artist == "" && r.Workers == "" {
			if _, ok := NonEssentialCategories[r.Category]; ok {
				nonEssential++
				continue
			}
		}
		out = append(out, model.Nomination{
			Year:      r.Year,
			Title:     r.Title,
			Category:  r.Category,
			Nominee:   r.Nominee,
			Artist:    ResolveArtist(r),
			Nominated: r.Winner,
			Decade:    decade(r.Year),
			Missing:   r.Missing,
		})
	}

	log.Info("transform: ceremony cleaned",
		zap.Int("input", len(raw)),
		zap.Int("output", len(out)),
		zap.Int("dropped_no_nominee", noNominee),
		zap.Int("dropped_non_essential", nonEssential),
	)
	return out
}

// decade floors year to its decade, rounding toward negative infinity.
func decade(year int) int {
	d := year / 10 * 10
	if year < 0 && year%10 != 0 {
		d -= 10
	}
	return d
}

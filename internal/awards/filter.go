package awards

import (
	"strings"

	"github.com/sells-group/artist-etl/internal/model"
)

// DefaultDenylist holds fragments that mark an award title as non-English
// even when the classifier accepts it. Matching is a case-insensitive
// substring test.
var DefaultDenylist = []string{
	"stär um", "para", "prêmio", "premio", "prix", "voor", "de", "sus", "la",
	"das", "del", "der", "des", "el", "le", "pe", "stella", "sulla", "nagroda",
	"carriera", "réalta", "premi", "xelata", "tähti", "æresdoktor", "famen",
	"doktor", "oriel", "anfarwolion", "auf dem", "or merit", "kpakpando",
	"stäär üüb",
}

// DefaultTarget is the language awards must be written in to count.
const DefaultTarget = "en"

// Filter decides whether an award title is kept.
type Filter struct {
	Target   string
	Denylist []string
	Cache    *Cache
}

// NewFilter builds a Filter with lowercased denylist entries. Empty target
// and nil denylist fall back to the defaults.
func NewFilter(target string, denylist []string, cache *Cache) *Filter {
	if target == "" {
		target = DefaultTarget
	}
	if denylist == nil {
		denylist = DefaultDenylist
	}
	words := make([]string, 0, len(denylist))
	for _, w := range denylist {
		if w = strings.ToLower(w); w != "" {
			words = append(words, w)
		}
	}
	if cache == nil {
		cache = NewCache(nil)
	}
	return &Filter{Target: target, Denylist: words, Cache: cache}
}

// Keep reports whether text is a real award in the target language with no
// denylisted fragment. The NoAwards sentinel is never kept.
func (f *Filter) Keep(text string) bool {
	if text == "" || text == model.NoAwards {
		return false
	}
	if f.Cache.Classify(text) != f.Target {
		return false
	}
	lower := strings.ToLower(strings.TrimSpace(text))
	for _, w := range f.Denylist {
		if strings.Contains(lower, w) {
			return false
		}
	}
	return true
}

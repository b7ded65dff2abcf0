package awards

import (
	"strings"
	"sync"

	"github.com/abadojack/whatlanggo"
	"github.com/pemistahl/lingua-go"
	"github.com/rotisserie/eris"
	"golang.org/x/sync/singleflight"
)

// Unknown is the classification for text whose language cannot be detected.
const Unknown = "unknown"

// Classifier returns the ISO 639-1 language code of text, or Unknown.
type Classifier interface {
	Classify(text string) string
}

// ClassifierFunc adapts a function to Classifier.
type ClassifierFunc func(text string) string

// Classify calls f(text).
func (f ClassifierFunc) Classify(text string) string { return f(text) }

// Names accepted by NewClassifier.
const (
	ClassifierLingua   = "lingua"
	ClassifierWhatlang = "whatlang"
)

// NewClassifier returns the classifier registered under name. An empty name
// selects lingua.
func NewClassifier(name string) (Classifier, error) {
	switch strings.ToLower(name) {
	case "", ClassifierLingua:
		return NewLinguaClassifier(), nil
	case ClassifierWhatlang:
		return WhatlangClassifier{}, nil
	default:
		return nil, eris.Errorf("awards: unknown classifier %q", name)
	}
}

// LinguaClassifier detects languages with lingua's n-gram models, which hold
// up on short texts such as award titles. Models load on first use.
type LinguaClassifier struct {
	langs []lingua.Language

	once     sync.Once
	detector lingua.LanguageDetector
}

// NewLinguaClassifier restricts detection to langs. Fewer than two langs
// means every language lingua knows.
func NewLinguaClassifier(langs ...lingua.Language) *LinguaClassifier {
	return &LinguaClassifier{langs: langs}
}

// Classify implements Classifier.
func (l *LinguaClassifier) Classify(text string) string {
	if strings.TrimSpace(text) == "" {
		return Unknown
	}
	l.once.Do(func() {
		b := lingua.NewLanguageDetectorBuilder()
		if len(l.langs) > 1 {
			l.detector = b.FromLanguages(l.langs...).Build()
		} else {
			l.detector = b.FromAllLanguages().Build()
		}
	})
	lang, ok := l.detector.DetectLanguageOf(text)
	if !ok {
		return Unknown
	}
	return strings.ToLower(lang.IsoCode639_1().String())
}

// WhatlangClassifier detects languages with whatlanggo's trigram models. It
// is lighter than lingua but unreliable below a sentence of text.
type WhatlangClassifier struct{}

// Classify implements Classifier.
func (WhatlangClassifier) Classify(text string) string {
	if strings.TrimSpace(text) == "" {
		return Unknown
	}
	info := whatlanggo.Detect(text)
	if info.Script == nil {
		return Unknown
	}
	code := info.Lang.Iso6391()
	if code == "" {
		return Unknown
	}
	return code
}

// Cache memoizes a Classifier per exact text. It is safe for concurrent use,
// and concurrent lookups of an uncached text share one classification.
type Cache struct {
	inner  Classifier
	flight singleflight.Group

	mu   sync.Mutex
	seen map[string]string
}

// NewCache wraps c. A nil c uses LinguaClassifier over every language.
func NewCache(c Classifier) *Cache {
	if c == nil {
		c = NewLinguaClassifier()
	}
	return &Cache{inner: c, seen: make(map[string]string)}
}

func (c *Cache) lookup(text string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	lang, ok := c.seen[text]
	return lang, ok
}

// Classify returns the cached classification of text, computing it once.
func (c *Cache) Classify(text string) string {
	if lang, ok := c.lookup(text); ok {
		return lang
	}
	v, _, _ := c.flight.Do(text, func() (any, error) {
		// A flight for text may have finished since the lookup above.
		if lang, ok := c.lookup(text); ok {
			return lang, nil
		}
		lang := c.inner.Classify(text)
		c.mu.Lock()
		c.seen[text] = lang
		c.mu.Unlock()
		return lang, nil
	})
	return v.(string)
}

// Seed stores a known classification without consulting the classifier.
func (c *Cache) Seed(text, lang string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seen[text] = lang
}

// Len returns the number of cached texts.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.seen)
}

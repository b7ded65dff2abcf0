// Package names cleans and expands multi-artist text fields into single,
// normalized artist keys.
package names

import (
	"regexp"
	"sort"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// DefaultSeparators matches the collaboration separators seen across the
// catalog and ceremony sources.
const DefaultSeparators = `;|,|&| Featuring | feat\.| Feat\.| ft\.|/| x `

// Splitter splits a multi-artist field on a fixed separator pattern.
type Splitter struct {
	re *regexp.Regexp
}

// NewSplitter compiles pattern into a Splitter. An empty pattern uses
// DefaultSeparators.
func NewSplitter(pattern string) (*Splitter, error) {
	if pattern == "" {
		pattern = DefaultSeparators
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	return &Splitter{re: re}, nil
}

// MustSplitter is NewSplitter that panics on an invalid pattern.
func MustSplitter(pattern string) *Splitter {
	s, err := NewSplitter(pattern)
	if err != nil {
		panic(err)
	}
	return s
}

// Split returns one normalized artist name per non-empty component of s.
func (s *Splitter) Split(v string) []string {
	parts := s.re.Split(v, -1)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if n := Normalize(p); n != "" {
			out = append(out, n)
		}
	}
	return out
}

// Expand emits one copy of each row per artist component of the field read
// by get, with set writing the single normalized name into the copy. Rows
// whose field has no components produce no output.
func Expand[T any](s *Splitter, rows []T, get func(T) string, set func(*T, string)) []T {
	out := make([]T, 0, len(rows))
	for _, row := range rows {
		for _, name := range s.Split(get(row)) {
			cp := row
			set(&cp, name)
			out = append(out, cp)
		}
	}
	return out
}

// Normalize trims and lowercases a single-valued name without splitting.
func Normalize(v string) string {
	return strings.ToLower(strings.TrimSpace(norm.NFC.String(v)))
}

var queryReplacer = strings.NewReplacer(
	"\\", "",
	"\"", "",
	"'", "",
	"/", " ",
	"&", "and",
)

// CleanQueryName prepares a raw name for embedding in a quoted knowledge-base
// query literal. Blank input returns "".
func CleanQueryName(v string) string {
	if strings.TrimSpace(v) == "" {
		return ""
	}
	return strings.TrimSpace(queryReplacer.Replace(v))
}

// Universe returns the sorted distinct set of cleaned, non-empty names.
func Universe(raw []string) []string {
	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, len(raw))
	for _, r := range raw {
		n := CleanQueryName(r)
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

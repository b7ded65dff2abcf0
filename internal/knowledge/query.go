package knowledge

import (
	"strings"
)

const queryHead = `
    SELECT ?artistLabel ?countryLabel ?awardLabel ?genderLabel (COUNT(?album) AS ?album_count) WHERE {
      VALUES ?name { `

const queryTail = ` }
      ?artist rdfs:label ?name.
      OPTIONAL { ?artist wdt:P166 ?award. }
      OPTIONAL { ?artist wdt:P27 ?country. }
      OPTIONAL { ?artist wdt:P21 ?gender. }
      OPTIONAL {
        ?album wdt:P31 wd:Q482994.
        ?album wdt:P175 ?artist.
      }
      SERVICE wikibase:label { bd:serviceParam wikibase:language "[AUTO_LANGUAGE],en". }
    }
    GROUP BY ?artistLabel ?countryLabel ?awardLabel ?genderLabel
    `

// BuildQuery renders the lookup query for a batch of cleaned names. Each
// name is matched as an English label, one per line.
func BuildQuery(names []string) string {
	var b strings.Builder
	b.Grow(len(queryHead) + len(queryTail) + len(names)*32)
	b.WriteString(queryHead)
	for i, n := range names {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteByte('"')
		b.WriteString(n)
		b.WriteString(`"@en`)
	}
	b.WriteString(queryTail)
	return b.String()
}

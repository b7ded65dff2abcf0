package knowledge

import "github.com/sells-group/artist-etl/internal/model"

// SPARQLResponse is the top-level response from the SPARQL endpoint.
type SPARQLResponse struct {
	Results SPARQLResults `json:"results"`
}

// SPARQLResults wraps the bindings array.
type SPARQLResults struct {
	Bindings []SPARQLBinding `json:"bindings"`
}

// SPARQLBinding is one result row. Unbound variables are absent from the
// payload and decode as nil.
type SPARQLBinding struct {
	Artist     *SPARQLValue `json:"artistLabel"`
	Country    *SPARQLValue `json:"countryLabel"`
	Award      *SPARQLValue `json:"awardLabel"`
	Gender     *SPARQLValue `json:"genderLabel"`
	AlbumCount *SPARQLValue `json:"album_count"`
}

// SPARQLValue represents a single SPARQL value.
type SPARQLValue struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

func valueOr(v *SPARQLValue, def string) string {
	if v == nil {
		return def
	}
	return v.Value
}

// Fact converts a binding into a KnowledgeFact, substituting the sentinel
// defaults for unbound fields.
func (b SPARQLBinding) Fact() model.KnowledgeFact {
	return model.KnowledgeFact{
		Artist:     valueOr(b.Artist, ""),
		Country:    valueOr(b.Country, ""),
		Award:      valueOr(b.Award, model.NoAwards),
		Gender:     valueOr(b.Gender, model.UnknownValue),
		AlbumCount: valueOr(b.AlbumCount, model.NoAlbums),
	}
}

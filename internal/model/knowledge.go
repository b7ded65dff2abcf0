package model

// Sentinel values for knowledge-base fields the remote service left unbound.
const (
	NoAwards       = "No awards"
	UnknownValue   = "Unknown"
	NoAlbums       = "0"
	AwardDelimiter = "; "
)

// KnowledgeFact is one (artist, country, award, gender) row returned by the
// knowledge-base lookup. Several facts usually exist per artist.
type KnowledgeFact struct {
	Artist     string `csv:"artist"`
	Country    string `csv:"country"`
	Award      string `csv:"award"`
	Gender     string `csv:"gender"`
	AlbumCount string `csv:"album_count"`
}

// ArtistProfile is the per-artist consolidation of knowledge facts.
type ArtistProfile struct {
	Artist     string `csv:"artist"`
	Gender     string `csv:"gender"`
	Country    string `csv:"country"`
	AwardCount int    `csv:"award_count"`
	WonGrammy  bool   `csv:"won_grammy"`
	AwardsList string `csv:"awards_list"`
	AlbumCount string `csv:"album_count"`
}

package model

// UnifiedRecord is one (track, artist) row of the final denormalized table,
// joined with the artist's first ceremony nomination and knowledge profile.
type UnifiedRecord struct {
	TrackID      string `csv:"track_id"`
	Artist       string `csv:"artist"`
	AlbumName    string `csv:"album_name"`
	TrackName    string `csv:"track_name"`
	Popularity   string `csv:"popularity"`
	DurationMin  string `csv:"duration_min"`
	Explicit     bool   `csv:"explicit"`
	Danceability string `csv:"danceability"`
	Energy       string `csv:"energy"`
	Valence      string `csv:"valence"`
	TrackGenre   string `csv:"track_genre"`
	IsLoud       bool   `csv:"is_loud"`
	IsLive       bool   `csv:"is_live"`

	Year      int    `csv:"year"`
	Title     string `csv:"title"`
	Category  string `csv:"category"`
	Nominee   string `csv:"nominee"`
	Nominated bool   `csv:"nominated"`
	Decade    int    `csv:"decade"`

	Gender     string `csv:"gender"`
	Country    string `csv:"country"`
	AwardCount int    `csv:"award_count"`
	WonGrammy  bool   `csv:"won_grammy"`
	AwardsList string `csv:"awards_list"`
	AlbumCount string `csv:"album_count"`
}

// RecordColumns lists the sink column names in Values order.
var RecordColumns = []string{
	"track_id", "artist", "album_name", "track_name", "popularity", "duration_min",
	"explicit", "danceability", "energy", "valence", "track_genre", "is_loud", "is_live",
	"year", "title", "category", "nominee", "nominated", "decade",
	"gender", "country", "award_count", "won_grammy", "awards_list", "album_count",
}

// Values returns the record as a row matching RecordColumns.
func (r UnifiedRecord) Values() []any {
	return []any{
		r.TrackID, r.Artist, r.AlbumName, r.TrackName, r.Popularity, r.DurationMin,
		r.Explicit, r.Danceability, r.Energy, r.Valence, r.TrackGenre, r.IsLoud, r.IsLive,
		r.Year, r.Title, r.Category, r.Nominee, r.Nominated, r.Decade,
		r.Gender, r.Country, r.AwardCount, r.WonGrammy, r.AwardsList, r.AlbumCount,
	}
}

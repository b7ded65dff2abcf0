package model

// RawTrack is one row of the streaming-catalog export. Missing is set when
// any column was empty or failed to parse.
type RawTrack struct {
	TrackID          string  `csv:"track_id"`
	Artists          string  `csv:"artists"`
	AlbumName        string  `csv:"album_name"`
	TrackName        string  `csv:"track_name"`
	Popularity       int     `csv:"popularity"`
	DurationMs       int     `csv:"duration_ms"`
	Explicit         bool    `csv:"explicit"`
	Danceability     float64 `csv:"danceability"`
	Energy           float64 `csv:"energy"`
	Key              int     `csv:"key"`
	Loudness         float64 `csv:"loudness"`
	Mode             int     `csv:"mode"`
	Speechiness      float64 `csv:"speechiness"`
	Acousticness     float64 `csv:"acousticness"`
	Instrumentalness float64 `csv:"instrumentalness"`
	Liveness         float64 `csv:"liveness"`
	Valence          float64 `csv:"valence"`
	Tempo            float64 `csv:"tempo"`
	TimeSignature    int     `csv:"time_signature"`
	TrackGenre       string  `csv:"track_genre"`
	Missing          bool    `csv:"-"`
}

// Track is a cleaned catalog row with bucketed audio attributes.
type Track struct {
	TrackID      string `csv:"track_id"`
	Artists      string `csv:"artists"`
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
}

// Complete reports whether every bucketed column landed in a bin and the
// genre mapped to a category.
func (t Track) Complete() bool {
	return t.TrackID != "" && t.Artists != "" && t.AlbumName != "" && t.TrackName != "" &&
		t.Popularity != "" && t.DurationMin != "" && t.Danceability != "" &&
		t.Energy != "" && t.Valence != "" && t.TrackGenre != ""
}

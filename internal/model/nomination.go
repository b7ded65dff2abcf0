package model

// RawNomination is one row of the awards-ceremony table. Empty strings stand
// for SQL NULL in text columns; Missing marks a NULL year or winner.
type RawNomination struct {
	Year     int    `csv:"year"`
	Title    string `csv:"title"`
	Category string `csv:"category"`
	Nominee  string `csv:"nominee"`
	Artist   string `csv:"artist"`
	Workers  string `csv:"workers"`
	Winner   bool   `csv:"winner"`
	Missing  bool   `csv:"missing"`
}

// Nomination is a cleaned ceremony row. Artist is resolved; workers is gone.
type Nomination struct {
	Year      int    `csv:"year"`
	Title     string `csv:"title"`
	Category  string `csv:"category"`
	Nominee   string `csv:"nominee"`
	Artist    string `csv:"artist"`
	Nominated bool   `csv:"nominated"`
	Decade    int    `csv:"decade"`
	Missing   bool   `csv:"missing"`
}

// Complete reports whether every nullable column carries a value.
func (n Nomination) Complete() bool {
	return !n.Missing && n.Title != "" && n.Category != ""
}

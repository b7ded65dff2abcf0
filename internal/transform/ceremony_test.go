package transform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/artist-etl/internal/model"
)

func TestResolveArtist(t *testing.T) {
	tests := []struct {
		name string
		in   model.RawNomination
		want string
	}{
		{
			name: "explicit artist wins",
			in:   model.RawNomination{Nominee: "Bad Guy", Artist: "Billie Eilish", Workers: "Finneas O'Connell, producer"},
			want: "Billie Eilish",
		},
		{
			name: "no credits falls back to nominee",
			in:   model.RawNomination{Nominee: "Thriller"},
			want: "Thriller",
		},
		{
			name: "parenthesized text in workers",
			in:   model.RawNomination{Nominee: "Song", Workers: "John Smith (producer)"},
			want: "producer",
		},
		{
			name: "empty parentheses end the chain",
			in:   model.RawNomination{Nominee: "Song", Workers: "Leonard Bernstein, conductor ()"},
			want: "",
		},
		{
			name: "role credit",
			in:   model.RawNomination{Nominee: "Symphony No. 5", Workers: "Leonard Bernstein, conductor; New York Philharmonic"},
			want: "Leonard Bernstein",
		},
		{
			name: "featuring credit",
			in:   model.RawNomination{Nominee: "Song", Workers: "Drake Featuring Rihanna, songwriters"},
			want: "Drake Featuring Rihanna",
		},
		{
			name: "and credit ignores case",
			in:   model.RawNomination{Nominee: "Song", Workers: "Simon AND Garfunkel; engineer"},
			want: "Simon AND Garfunkel",
		},
		{
			name: "workers trimmed as last resort",
			in:   model.RawNomination{Nominee: "Song", Workers: "  Quincy Jones  "},
			want: "Quincy Jones",
		},
		{
			name: "various artists normalized",
			in:   model.RawNomination{Nominee: "Compilation", Artist: "(Various Artists)"},
			want: "Various Artists",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveArtist(tt.in))
		})
	}
}

func TestCleanNominations(t *testing.T) {
	raw := []model.RawNomination{
		{Year: 1983, Title: "26th Annual", Category: "Album Of The Year", Nominee: "Thriller", Winner: true},
		{Year: 2020, Title: "62nd Annual", Category: "Record Of The Year", Nominee: ""},
		{Year: 1965, Title: "8th Annual", Category: "Best Classical Vocal Performance", Nominee: "Aria"},
		{Year: 1965, Title: "8th Annual", Category: "Best Classical Vocal Performance", Nominee: "Aria", Workers: "Leontyne Price, soloist"},
		{Year: 2019, Title: "", Category: "Best New Artist", Nominee: "Billie Eilish", Artist: "Billie Eilish"},
	}

	got := CleanNominations(raw)
	require.Len(t, got, 3)

	assert.Equal(t, model.Nomination{
		Year: 1983, Title: "26th Annual", Category: "Album Of The Year",
		Nominee: "Thriller", Artist: "Thriller", Nominated: true, Decade: 1980,
	}, got[0])
	assert.Equal(t, "Leontyne Price", got[1].Artist)
	assert.Equal(t, 1960, got[1].Decade)
	assert.False(t, got[1].Nominated)

	assert.Equal(t, 2010, got[2].Decade)
	assert.False(t, got[2].Complete(), "missing title survives cleaning but is incomplete")
	assert.True(t, got[0].Complete())
}

func TestCleanNominations_EveryRowHasArtist(t *testing.T) {
	raw := []model.RawNomination{
		{Year: 2001, Nominee: "A"},
		{Year: 2002, Nominee: "B", Workers: "(X)"},
		{Year: 2003, Nominee: "C", Workers: "Y, composer"},
		{Year: 2004, Nominee: "D", Workers: "Z"},
	}
	for _, n := range CleanNominations(raw) {
		assert.NotEmpty(t, n.Artist, n.Nominee)
	}
}

func TestDecade(t *testing.T) {
	assert.Equal(t, 1950, decade(1959))
	assert.Equal(t, 2000, decade(2000))
	assert.Equal(t, 0, decade(5))
	assert.Equal(t, -10, decade(-5))
}

func TestCleanNominations_CarriesMissing(t *testing.T) {
	got := CleanNominations([]model.RawNomination{
		{Title: "62nd Annual", Category: "Record Of The Year", Nominee: "Bad Guy", Artist: "Billie Eilish", Missing: true},
	})
	require.Len(t, got, 1)
	assert.True(t, got[0].Missing)
	assert.False(t, got[0].Complete())
}

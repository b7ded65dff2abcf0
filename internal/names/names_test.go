package names

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type row struct {
	ID     string
	Artist string
}

func TestSplit_Separators(t *testing.T) {
	s := MustSplitter("")

	tests := []struct {
		in   string
		want []string
	}{
		{"Daft Punk & Justice", []string{"daft punk", "justice"}},
		{"A;B", []string{"a", "b"}},
		{"A, B", []string{"a", "b"}},
		{"Drake Featuring Rihanna", []string{"drake", "rihanna"}},
		{"Drake feat. Rihanna", []string{"drake", "rihanna"}},
		{"Drake Feat. Rihanna", []string{"drake", "rihanna"}},
		{"Drake ft. Rihanna", []string{"drake", "rihanna"}},
		{"AC/DC", []string{"ac", "dc"}},
		{"Skrillex x Diplo", []string{"skrillex", "diplo"}},
		{"  Xavier  ", []string{"xavier"}},
		{"", []string{}},
		{"   ", []string{}},
		{"A;;B;", []string{"a", "b"}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, s.Split(tt.in))
		})
	}
}

func TestSplit_NFC(t *testing.T) {
	s := MustSplitter("")
	// A combining acute accent composes to the precomposed form.
	assert.Equal(t, []string{"beyonc\u00e9"}, s.Split("Beyonce\u0301"))
}

func TestNewSplitter_InvalidPattern(t *testing.T) {
	_, err := NewSplitter("(")
	require.Error(t, err)
	assert.Panics(t, func() { MustSplitter("(") })
}

func TestExpand_CartesianCopy(t *testing.T) {
	s := MustSplitter("")
	rows := []row{
		{ID: "t1", Artist: "Daft Punk & Justice"},
		{ID: "t2", Artist: "Adele"},
		{ID: "t3", Artist: " ; "},
	}

	out := Expand(s, rows,
		func(r row) string { return r.Artist },
		func(r *row, v string) { r.Artist = v },
	)

	require.Len(t, out, 3)
	assert.Equal(t, row{ID: "t1", Artist: "daft punk"}, out[0])
	assert.Equal(t, row{ID: "t1", Artist: "justice"}, out[1])
	assert.Equal(t, row{ID: "t2", Artist: "adele"}, out[2])
	// Input is untouched.
	assert.Equal(t, "Daft Punk & Justice", rows[0].Artist)
}

func TestExpand_RowCountMatchesComponents(t *testing.T) {
	s := MustSplitter("")
	inputs := []string{"A & B & C", "A", "", "A feat. B, C; D"}
	for _, in := range inputs {
		out := Expand(s, []row{{ID: "x", Artist: in}},
			func(r row) string { return r.Artist },
			func(r *row, v string) { r.Artist = v },
		)
		assert.Len(t, out, len(s.Split(in)), in)
		for _, r := range out {
			assert.Equal(t, Normalize(r.Artist), r.Artist)
		}
	}
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "the beatles", Normalize("  The Beatles "))
	assert.Equal(t, "daft punk & justice", Normalize("Daft Punk & Justice"))
	assert.Equal(t, "", Normalize("  "))
}

func TestCleanQueryName(t *testing.T) {
	assert.Equal(t, "", CleanQueryName(""))
	assert.Equal(t, "", CleanQueryName("   "))
	assert.Equal(t, "Simon and Garfunkel", CleanQueryName("Simon & Garfunkel"))
	assert.Equal(t, "AC DC", CleanQueryName("AC/DC"))
	assert.Equal(t, "Guns N Roses", CleanQueryName(`Guns N' "Roses"\`))
}

func TestUniverse(t *testing.T) {
	got := Universe([]string{"Zedd", "ABBA", "", "  ", "ABBA", "Simon & Garfunkel", "Simon and Garfunkel"})
	assert.Equal(t, []string{"ABBA", "Simon and Garfunkel", "Zedd"}, got)
}

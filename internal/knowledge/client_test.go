package knowledge

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/artist-etl/internal/fetcher"
	"github.com/sells-group/artist-etl/internal/model"
)

const sampleResponse = `{
  "head": {"vars": ["artistLabel","countryLabel","awardLabel","genderLabel","album_count"]},
  "results": {"bindings": [
    {"artistLabel": {"type":"literal","value":"Bad Bunny"},
     "countryLabel": {"type":"literal","value":"Puerto Rico"},
     "awardLabel": {"type":"literal","value":"Grammy Award for Best Música Urbana Album"},
     "genderLabel": {"type":"literal","value":"male"},
     "album_count": {"type":"literal","datatype":"http://www.w3.org/2001/XMLSchema#integer","value":"5"}},
    {"artistLabel": {"type":"literal","value":"Unknown Band"},
     "album_count": {"type":"literal","value":"0"}}
  ]}
}`

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	f := fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
		UserAgent:      "artist-etl-test/1.0",
		Timeout:        5 * time.Second,
		MaxRetries:     2,
		InitialBackoff: time.Millisecond,
	})
	return NewClient(f, srv.URL)
}

func TestClient_Query(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, AcceptSPARQLJSON, r.Header.Get("Accept"))
		assert.Equal(t, "artist-etl-test/1.0", r.Header.Get("User-Agent"))
		require.NoError(t, r.ParseForm())
		assert.Contains(t, r.PostForm.Get("query"), `"Bad Bunny"@en`)
		w.Header().Set("Content-Type", AcceptSPARQLJSON)
		w.Write([]byte(sampleResponse))
	})

	bindings, err := c.Query(context.Background(), BuildQuery([]string{"Bad Bunny"}))
	require.NoError(t, err)
	require.Len(t, bindings, 2)

	first := bindings[0].Fact()
	assert.Equal(t, model.KnowledgeFact{
		Artist:     "Bad Bunny",
		Country:    "Puerto Rico",
		Award:      "Grammy Award for Best Música Urbana Album",
		Gender:     "male",
		AlbumCount: "5",
	}, first)

	second := bindings[1].Fact()
	assert.Equal(t, "", second.Country)
	assert.Equal(t, model.NoAwards, second.Award)
	assert.Equal(t, model.UnknownValue, second.Gender)
	assert.Equal(t, "0", second.AlbumCount)
}

func TestClient_Query_ServerError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	_, err := c.Query(context.Background(), "SELECT")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "knowledge: query")
}

func TestClient_Query_BadJSON(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>rate limited</html>"))
	})
	_, err := c.Query(context.Background(), "SELECT")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "knowledge: decode response")
}

func TestClient_DefaultEndpoint(t *testing.T) {
	c := NewClient(fetcher.NewHTTPFetcher(fetcher.HTTPOptions{}), "")
	assert.Equal(t, DefaultEndpoint, c.endpoint)
}

func TestClientFetcher_EndToEnd(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(sampleResponse))
	})
	res, err := NewFetcher(c, testConfig()).Fetch(context.Background(), []string{"Bad Bunny", "Unknown Band"})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Batches)
	assert.Len(t, res.Facts, 2)
}

func TestProgress(t *testing.T) {
	p := NewProgress(4, nil)
	assert.Equal(t, 4, p.Total())
	assert.Zero(t, p.Percent())
	p.Add(1)
	p.Add(0)
	p.Add(-3)
	assert.Equal(t, 1, p.Done())
	assert.InDelta(t, 25.0, p.Percent(), 0.001)

	assert.InDelta(t, 100.0, NewProgress(0, nil).Percent(), 0.001)
}

package knowledge

import (
	"context"
	"encoding/json"
	"net/url"

	"github.com/rotisserie/eris"

	"github.com/sells-group/artist-etl/internal/fetcher"
)

// DefaultEndpoint is the public Wikidata SPARQL service.
const DefaultEndpoint = "https://query.wikidata.org/sparql"

// AcceptSPARQLJSON is the result format requested from the endpoint.
const AcceptSPARQLJSON = "application/sparql-results+json"

// Querier executes one rendered query and returns its result rows.
type Querier interface {
	Query(ctx context.Context, sparql string) ([]SPARQLBinding, error)
}

// Client posts queries to a SPARQL endpoint. Retry, rate limiting and the
// User-Agent header are handled by the underlying fetcher.
type Client struct {
	http     fetcher.Fetcher
	endpoint string
}

// NewClient creates a Client for endpoint. An empty endpoint uses
// DefaultEndpoint.
func NewClient(f fetcher.Fetcher, endpoint string) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return &Client{http: f, endpoint: endpoint}
}

// Query sends sparql as a form-encoded POST and decodes the bindings.
func (c *Client) Query(ctx context.Context, sparql string) ([]SPARQLBinding, error) {
	body, err := c.http.PostForm(ctx, c.endpoint, url.Values{"query": {sparql}}, AcceptSPARQLJSON)
	if err != nil {
		return nil, eris.Wrap(err, "knowledge: query")
	}
	defer body.Close() //nolint:errcheck

	var resp SPARQLResponse
	if err := json.NewDecoder(body).Decode(&resp); err != nil {
		return nil, eris.Wrap(err, "knowledge: decode response")
	}
	return resp.Results.Bindings, nil
}

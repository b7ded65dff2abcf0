// Package fetcher downloads remote sources over HTTP with retry and
// per-host rate limiting, and streams CSV rows from them.
package fetcher

import (
	"context"
	"io"
	"net/url"
)

// Fetcher defines the HTTP operations the pipeline needs.
type Fetcher interface {
	// Download fetches the URL and returns the response body.
	Download(ctx context.Context, url string) (io.ReadCloser, error)

	// DownloadToFile fetches the URL and writes it to path. Returns bytes written.
	DownloadToFile(ctx context.Context, url string, path string) (int64, error)

	// PostForm sends form as application/x-www-form-urlencoded and returns the
	// response body. accept is sent as the Accept header when non-empty.
	PostForm(ctx context.Context, url string, form url.Values, accept string) (io.ReadCloser, error)
}

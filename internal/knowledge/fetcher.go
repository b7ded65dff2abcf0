// Package knowledge looks up artist facts (country, awards, gender, album
// count) in a SPARQL knowledge base, batching names adaptively so every
// request stays under the endpoint's payload ceiling.
package knowledge

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/artist-etl/internal/model"
	"github.com/sells-group/artist-etl/internal/resilience"
)

// Config holds the batch policy for a fetch.
type Config struct {
	// BatchSize is the target number of names per request. Default: 80.
	BatchSize int

	// BatchDecrement is subtracted from the size when the rendered query is
	// too large. Default: 5.
	BatchDecrement int

	// MaxQueryBytes is the payload ceiling of a single query. Default: 60000.
	MaxQueryBytes int

	// Delay is the pause after each successful batch. Zero disables it.
	Delay time.Duration
}

// DefaultConfig returns the batch policy used against the public endpoint.
func DefaultConfig() Config {
	return Config{
		BatchSize:      80,
		BatchDecrement: 5,
		MaxQueryBytes:  60000,
		Delay:          800 * time.Millisecond,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.BatchSize <= 0 {
		c.BatchSize = d.BatchSize
	}
	if c.BatchDecrement <= 0 {
		c.BatchDecrement = d.BatchDecrement
	}
	if c.MaxQueryBytes <= 0 {
		c.MaxQueryBytes = d.MaxQueryBytes
	}
	if c.Delay < 0 {
		c.Delay = 0
	}
	return c
}

// Result is the outcome of a fetch. Facts keep the order in which the
// endpoint returned them, batch after batch.
type Result struct {
	Facts []model.KnowledgeFact

	// Skipped lists names no batch size could retrieve.
	Skipped []string

	// Batches and Failures count successful and failed requests.
	Batches  int
	Failures int
}

// Fetcher walks a name universe through a Querier in adaptive batches.
type Fetcher struct {
	q       Querier
	cfg     Config
	observe func(*Progress)
	log     *zap.Logger
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithProgress registers a callback run after every advance of the cursor.
func WithProgress(fn func(*Progress)) Option {
	return func(f *Fetcher) { f.observe = fn }
}

// NewFetcher creates a Fetcher.
func NewFetcher(q Querier, cfg Config, opts ...Option) *Fetcher {
	f := &Fetcher{
		q:   q,
		cfg: cfg.withDefaults(),
		log: zap.L().With(zap.String("component", "knowledge")),
	}
	for _, o := range opts {
		o(f)
	}
	return f
}

// Fetch retrieves facts for every name. For each cursor position it starts
// from BatchSize, shrinks by BatchDecrement while the query exceeds
// MaxQueryBytes, and halves on a failed request. A name for which the size
// reaches zero is skipped. Remote failures never abort the fetch; only ctx
// cancellation does, returning the partial result with ctx.Err().
func (f *Fetcher) Fetch(ctx context.Context, names []string) (*Result, error) {
	res := &Result{}
	progress := NewProgress(len(names), f.observe)

	i := 0
	for i < len(names) {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		size := f.cfg.BatchSize
		fetched := false
		for size > 0 && !fetched {
			batch := names[i:min(i+size, len(names))]
			query := BuildQuery(batch)
			if len(query) > f.cfg.MaxQueryBytes {
				size -= f.cfg.BatchDecrement
				continue
			}

			bindings, err := f.q.Query(ctx, query)
			if err != nil {
				if ctx.Err() != nil {
					return res, ctx.Err()
				}
				res.Failures++
				f.log.Warn("knowledge: batch failed, halving",
					zap.Int("cursor", i),
					zap.Int("size", len(batch)),
					zap.Error(err),
				)
				size /= 2
				continue
			}

			for _, b := range bindings {
				res.Facts = append(res.Facts, b.Fact())
			}
			res.Batches++
			fetched = true
			i += len(batch)
			progress.Add(len(batch))

			if err := resilience.Sleep(ctx, f.cfg.Delay); err != nil {
				return res, err
			}
		}

		if !fetched {
			f.log.Warn("knowledge: skipping name",
				zap.Int("cursor", i),
				zap.String("name", names[i]),
			)
			res.Skipped = append(res.Skipped, names[i])
			i++
			progress.Add(1)
		}
	}

	f.log.Info("knowledge: fetch complete",
		zap.Int("names", len(names)),
		zap.Int("facts", len(res.Facts)),
		zap.Int("batches", res.Batches),
		zap.Int("skipped", len(res.Skipped)),
	)
	return res, nil
}

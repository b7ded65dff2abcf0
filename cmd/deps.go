package main

import (
	"context"
	"net/url"
	"os"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/artist-etl/internal/awards"
	"github.com/sells-group/artist-etl/internal/db"
	"github.com/sells-group/artist-etl/internal/extract"
	"github.com/sells-group/artist-etl/internal/fetcher"
	"github.com/sells-group/artist-etl/internal/knowledge"
	"github.com/sells-group/artist-etl/internal/load"
	"github.com/sells-group/artist-etl/internal/names"
	"github.com/sells-group/artist-etl/internal/pipeline"
	"github.com/sells-group/artist-etl/internal/store"
	"github.com/sells-group/artist-etl/internal/transform"
)

func initStore(ctx context.Context) (store.Store, error) {
	return store.Open(ctx, cfg.Store.Driver, cfg.Store.DatabaseURL, db.PoolOptions{})
}

// buildStages wires every source and sink from cfg. The returned cleanup
// closes the pools it opened.
func buildStages(ctx context.Context) (*pipeline.Stages, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	httpFetcher := fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
		UserAgent:        cfg.Knowledge.UserAgent,
		Timeout:          cfg.Knowledge.Timeout,
		MaxRetries:       cfg.Knowledge.MaxRetries,
		AdaptiveLimiters: knowledgeLimiters(),
	})

	ceremonyPool, err := db.Connect(ctx, cfg.Ceremony.DatabaseURL, db.PoolOptions{})
	if err != nil {
		return nil, cleanup, eris.Wrap(err, "connect ceremony database")
	}
	closers = append(closers, ceremonyPool.Close)

	sinkPool := ceremonyPool
	if cfg.Sink.DatabaseURL != cfg.Ceremony.DatabaseURL {
		sinkPool, err = db.Connect(ctx, cfg.Sink.DatabaseURL, db.PoolOptions{MaxConns: cfg.Sink.MaxConns})
		if err != nil {
			return nil, cleanup, eris.Wrap(err, "connect sink database")
		}
		closers = append(closers, sinkPool.Close)
	}

	policy, err := load.ParsePolicy(cfg.Sink.Policy)
	if err != nil {
		return nil, cleanup, err
	}

	genres, err := loadGenres(cfg.Catalog.GenresPath)
	if err != nil {
		return nil, cleanup, err
	}

	splitter, err := names.NewSplitter(cfg.Names.Separators)
	if err != nil {
		return nil, cleanup, eris.Wrap(err, "compile name separators")
	}

	kf := knowledge.NewFetcher(
		knowledge.NewClient(httpFetcher, cfg.Knowledge.Endpoint),
		knowledge.Config{
			BatchSize:      cfg.Knowledge.BatchSize,
			BatchDecrement: cfg.Knowledge.BatchDecrement,
			MaxQueryBytes:  cfg.Knowledge.MaxQueryBytes,
			Delay:          cfg.Knowledge.Delay,
		},
		knowledge.WithProgress(func(p *knowledge.Progress) {
			zap.L().Debug("knowledge: progress",
				zap.Int("done", p.Done()),
				zap.Int("total", p.Total()),
				zap.Float64("percent", p.Percent()),
			)
		}),
	)

	classifier, err := awards.NewClassifier(cfg.Awards.Classifier)
	if err != nil {
		return nil, cleanup, err
	}

	var denylist []string
	if len(cfg.Awards.Denylist) > 0 {
		denylist = cfg.Awards.Denylist
	}

	stages := &pipeline.Stages{
		Catalog: &extract.Catalog{
			Path:    cfg.Catalog.Path,
			URL:     cfg.Catalog.URL,
			Fetcher: httpFetcher,
		},
		Ceremony: &extract.Ceremony{
			DB:    ceremonyPool,
			Table: cfg.Ceremony.Table,
		},
		Knowledge: &extract.Knowledge{
			NamesPath: cfg.Knowledge.NamesPath,
			Fetcher:   kf,
		},
		Genres:   genres,
		Splitter: splitter,
		Awards: pipeline.AwardsConfig{
			Target:      cfg.Awards.Target,
			Denylist:    denylist,
			HonorMarker: cfg.Awards.HonorMarker,
			Classifier:  classifier,
		},
		Sink:       load.NewPostgresSink(sinkPool),
		Table:      cfg.Sink.Table,
		Policy:     policy,
		ObjectName: cfg.Upload.ObjectName,
	}

	if cfg.Upload.Endpoint != "" {
		up, err := load.NewObjectUploader(load.UploadConfig{
			Endpoint:  cfg.Upload.Endpoint,
			AccessKey: cfg.Upload.AccessKey,
			SecretKey: cfg.Upload.SecretKey,
			Bucket:    cfg.Upload.Bucket,
			Region:    cfg.Upload.Region,
			Prefix:    cfg.Upload.Prefix,
			UseSSL:    cfg.Upload.UseSSL,
		})
		if err != nil {
			return nil, cleanup, err
		}
		if err := up.EnsureBucket(ctx); err != nil {
			return nil, cleanup, err
		}
		stages.Uploader = up
	}

	return stages, cleanup, nil
}

// knowledgeLimiters paces requests to the SPARQL host. The limiter backs
// off on 429 responses and recovers on success.
func knowledgeLimiters() map[string]*fetcher.AdaptiveLimiter {
	if cfg.Knowledge.Rate <= 0 {
		return nil
	}
	u, err := url.Parse(cfg.Knowledge.Endpoint)
	if err != nil || u.Host == "" {
		return nil
	}
	return map[string]*fetcher.AdaptiveLimiter{
		u.Host: fetcher.NewAdaptiveLimiter(rate.Limit(cfg.Knowledge.Rate), 1),
	}
}

func loadGenres(path string) (transform.GenreMap, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "read genre table")
	}
	return transform.LoadGenreMap(data)
}

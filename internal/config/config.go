package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Catalog   CatalogConfig   `yaml:"catalog" mapstructure:"catalog"`
	Ceremony  CeremonyConfig  `yaml:"ceremony" mapstructure:"ceremony"`
	Knowledge KnowledgeConfig `yaml:"knowledge" mapstructure:"knowledge"`
	Awards    AwardsConfig    `yaml:"awards" mapstructure:"awards"`
	Names     NamesConfig     `yaml:"names" mapstructure:"names"`
	Sink      SinkConfig      `yaml:"sink" mapstructure:"sink"`
	Upload    UploadConfig    `yaml:"upload" mapstructure:"upload"`
	Pipeline  PipelineConfig  `yaml:"pipeline" mapstructure:"pipeline"`
	Temporal  TemporalConfig  `yaml:"temporal" mapstructure:"temporal"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// StoreConfig configures the run-tracking backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// CatalogConfig locates the track catalog CSV. URL wins over Path.
type CatalogConfig struct {
	Path       string `yaml:"path" mapstructure:"path"`
	URL        string `yaml:"url" mapstructure:"url"`
	GenresPath string `yaml:"genres_path" mapstructure:"genres_path"`
}

// CeremonyConfig locates the award ceremony table.
type CeremonyConfig struct {
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	Table       string `yaml:"table" mapstructure:"table"`
}

// KnowledgeConfig configures the SPARQL enrichment fetch.
type KnowledgeConfig struct {
	Endpoint       string        `yaml:"endpoint" mapstructure:"endpoint"`
	UserAgent      string        `yaml:"user_agent" mapstructure:"user_agent"`
	NamesPath      string        `yaml:"names_path" mapstructure:"names_path"`
	BatchSize      int           `yaml:"batch_size" mapstructure:"batch_size"`
	BatchDecrement int           `yaml:"batch_decrement" mapstructure:"batch_decrement"`
	MaxQueryBytes  int           `yaml:"max_query_bytes" mapstructure:"max_query_bytes"`
	Delay          time.Duration `yaml:"delay" mapstructure:"delay"`
	Timeout        time.Duration `yaml:"timeout" mapstructure:"timeout"`
	MaxRetries     int           `yaml:"max_retries" mapstructure:"max_retries"`
	Rate           float64       `yaml:"rate" mapstructure:"rate"`
}

// AwardsConfig configures award filtering.
type AwardsConfig struct {
	Target      string   `yaml:"target" mapstructure:"target"`
	Denylist    []string `yaml:"denylist" mapstructure:"denylist"`
	HonorMarker string   `yaml:"honor_marker" mapstructure:"honor_marker"`
	Classifier  string   `yaml:"classifier" mapstructure:"classifier"`
}

// NamesConfig configures multi-artist splitting.
type NamesConfig struct {
	Separators string `yaml:"separators" mapstructure:"separators"`
}

// SinkConfig configures the relational load target.
type SinkConfig struct {
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	Table       string `yaml:"table" mapstructure:"table"`
	Policy      string `yaml:"policy" mapstructure:"policy"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
}

// UploadConfig configures the object-store copy of the merged file. An
// empty endpoint disables the upload.
type UploadConfig struct {
	Endpoint   string `yaml:"endpoint" mapstructure:"endpoint"`
	AccessKey  string `yaml:"access_key" mapstructure:"access_key"`
	SecretKey  string `yaml:"secret_key" mapstructure:"secret_key"`
	Bucket     string `yaml:"bucket" mapstructure:"bucket"`
	Region     string `yaml:"region" mapstructure:"region"`
	Prefix     string `yaml:"prefix" mapstructure:"prefix"`
	UseSSL     bool   `yaml:"use_ssl" mapstructure:"use_ssl"`
	ObjectName string `yaml:"object_name" mapstructure:"object_name"`
}

// PipelineConfig configures DAG execution.
type PipelineConfig struct {
	WorkDir     string        `yaml:"work_dir" mapstructure:"work_dir"`
	Retries     int           `yaml:"retries" mapstructure:"retries"`
	RetryDelay  time.Duration `yaml:"retry_delay" mapstructure:"retry_delay"`
	StepTimeout time.Duration `yaml:"step_timeout" mapstructure:"step_timeout"`
}

// TemporalConfig configures the Temporal worker and trigger.
type TemporalConfig struct {
	HostPort  string `yaml:"host_port" mapstructure:"host_port"`
	Namespace string `yaml:"namespace" mapstructure:"namespace"`
	TaskQueue string `yaml:"task_queue" mapstructure:"task_queue"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("ARTIST_ETL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "artist-etl.db")
	v.SetDefault("catalog.path", "")
	v.SetDefault("catalog.url", "")
	v.SetDefault("catalog.genres_path", "")
	v.SetDefault("ceremony.database_url", "")
	v.SetDefault("ceremony.table", "grammys_raw_data")
	v.SetDefault("knowledge.endpoint", "https://query.wikidata.org/sparql")
	v.SetDefault("knowledge.user_agent", "artist-etl/1.0")
	v.SetDefault("knowledge.names_path", "names.csv")
	v.SetDefault("knowledge.batch_size", 80)
	v.SetDefault("knowledge.batch_decrement", 5)
	v.SetDefault("knowledge.max_query_bytes", 60000)
	v.SetDefault("knowledge.delay", 800*time.Millisecond)
	v.SetDefault("knowledge.timeout", 60*time.Second)
	v.SetDefault("knowledge.max_retries", 3)
	v.SetDefault("knowledge.rate", 1.0)
	v.SetDefault("awards.target", "en")
	v.SetDefault("awards.denylist", []string{})
	v.SetDefault("awards.honor_marker", "grammy")
	v.SetDefault("awards.classifier", "lingua")
	v.SetDefault("names.separators", "")
	v.SetDefault("sink.database_url", "")
	v.SetDefault("sink.table", "data_pipeline")
	v.SetDefault("sink.policy", "replace")
	v.SetDefault("sink.max_conns", 4)
	v.SetDefault("upload.endpoint", "")
	v.SetDefault("upload.bucket", "")
	v.SetDefault("upload.region", "")
	v.SetDefault("upload.prefix", "")
	v.SetDefault("upload.use_ssl", false)
	v.SetDefault("upload.object_name", "artistas_merge.csv")
	v.SetDefault("pipeline.work_dir", "")
	v.SetDefault("pipeline.retries", 1)
	v.SetDefault("pipeline.retry_delay", 5*time.Second)
	v.SetDefault("pipeline.step_timeout", time.Hour)
	v.SetDefault("temporal.host_port", "localhost:7233")
	v.SetDefault("temporal.namespace", "default")
	v.SetDefault("temporal.task_queue", "artist-etl")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the settings a command mode cannot start without.
// Modes: "run", "worker", "trigger", "store".
func (c *Config) Validate(mode string) error {
	var errs []string
	require := func(ok bool, msg string) {
		if !ok {
			errs = append(errs, msg)
		}
	}

	switch mode {
	case "run", "worker":
		require(c.Catalog.Path != "" || c.Catalog.URL != "", "catalog.path or catalog.url is required")
		require(c.Ceremony.DatabaseURL != "", "ceremony.database_url is required")
		require(c.Knowledge.NamesPath != "", "knowledge.names_path is required")
		require(c.Sink.DatabaseURL != "", "sink.database_url is required")
		require(c.Upload.Endpoint == "" || c.Upload.Bucket != "", "upload.bucket is required when upload.endpoint is set")
		require(c.Pipeline.Retries >= 0, "pipeline.retries must be >= 0")
		require(c.Knowledge.BatchSize > 0, "knowledge.batch_size must be > 0")
		require(c.Knowledge.MaxQueryBytes > 0, "knowledge.max_query_bytes must be > 0")
		if mode == "worker" {
			require(c.Temporal.HostPort != "", "temporal.host_port is required")
		}
	case "trigger":
		require(c.Temporal.HostPort != "", "temporal.host_port is required")
	case "store":
		require(c.Store.DatabaseURL != "", "store.database_url is required")
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}

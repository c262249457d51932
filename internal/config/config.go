package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Paths     PathsConfig     `yaml:"paths" mapstructure:"paths"`
	Sources   SourcesConfig   `yaml:"sources" mapstructure:"sources"`
	BAN       BANConfig       `yaml:"ban" mapstructure:"ban"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Warehouse WarehouseConfig `yaml:"warehouse" mapstructure:"warehouse"`
	Merge     MergeConfig     `yaml:"merge" mapstructure:"merge"`
	Extract   ExtractConfig   `yaml:"extract" mapstructure:"extract"`
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// PathsConfig locates the on-disk working directories.
type PathsConfig struct {
	CacheDir string `yaml:"cache_dir" mapstructure:"cache_dir"`
	SeedsDir string `yaml:"seeds_dir" mapstructure:"seeds_dir"`
	DataDir  string `yaml:"data_dir" mapstructure:"data_dir"`
}

// SourcesConfig maps budget years to their source PDF URLs.
type SourcesConfig struct {
	BudgetVote  map[int]string `yaml:"budget_vote" mapstructure:"budget_vote"`
	Investments map[int]string `yaml:"investments" mapstructure:"investments"`
}

// BANConfig configures the Base Adresse Nationale geocoding API.
type BANConfig struct {
	BaseURL     string  `yaml:"base_url" mapstructure:"base_url"`
	RPS         float64 `yaml:"rps" mapstructure:"rps"`
	TimeoutSecs int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	// Minimum API relevance score to accept a geocode, per tier.
	AddressScoreFloor float64 `yaml:"address_score_floor" mapstructure:"address_score_floor"`
	PlaceScoreFloor   float64 `yaml:"place_score_floor" mapstructure:"place_score_floor"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key           string  `yaml:"key" mapstructure:"key"`
	Model         string  `yaml:"model" mapstructure:"model"`
	MaxTokens     int64   `yaml:"max_tokens" mapstructure:"max_tokens"`
	BatchSize     int     `yaml:"batch_size" mapstructure:"batch_size"`
	RPS           float64 `yaml:"rps" mapstructure:"rps"`
	MinConfidence float64 `yaml:"min_confidence" mapstructure:"min_confidence"`
}

// WarehouseConfig configures the secondary investment-record source.
type WarehouseConfig struct {
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	Table       string `yaml:"table" mapstructure:"table"`
}

// MergeConfig tunes the PDF/warehouse dedup policy.
type MergeConfig struct {
	MinAmount     float64 `yaml:"min_amount" mapstructure:"min_amount"`
	Keywords      int     `yaml:"keywords" mapstructure:"keywords"`
	MinKeywordLen int     `yaml:"min_keyword_len" mapstructure:"min_keyword_len"`
}

// ExtractConfig tunes PDF extraction.
type ExtractConfig struct {
	PdfToTextPath  string  `yaml:"pdftotext_path" mapstructure:"pdftotext_path"`
	TotalTolerance float64 `yaml:"total_tolerance" mapstructure:"total_tolerance"`
}

// StoreConfig configures the local cache database.
type StoreConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("BUDGET")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("paths.cache_dir", ".cache/pdfs")
	v.SetDefault("paths.seeds_dir", "seeds")
	v.SetDefault("paths.data_dir", "data/map")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("ban.base_url", "https://api-adresse.data.gouv.fr/search")
	v.SetDefault("ban.rps", 10.0)
	v.SetDefault("ban.timeout_secs", 5)
	v.SetDefault("ban.address_score_floor", 0.4)
	v.SetDefault("ban.place_score_floor", 0.3)
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("anthropic.max_tokens", 8192)
	v.SetDefault("anthropic.batch_size", 10)
	v.SetDefault("anthropic.rps", 2.0)
	v.SetDefault("anthropic.min_confidence", 0.85)
	v.SetDefault("warehouse.table", "grandes_operations")
	v.SetDefault("merge.min_amount", 500_000)
	v.SetDefault("merge.keywords", 3)
	v.SetDefault("merge.min_keyword_len", 3)
	v.SetDefault("extract.pdftotext_path", "pdftotext")
	v.SetDefault("extract.total_tolerance", 100.0)
	v.SetDefault("store.path", ".cache/budget-cli.db")
	v.SetDefault("sources.budget_vote", map[string]string{
		"2023": "https://cdn.paris.fr/paris/2023/02/15/bp-2023-editique-bg_partie01-QLeA.pdf",
		"2024": "https://cdn.paris.fr/paris/2024/02/21/1-bp-2024-editique-premierepartie-bg-ZFnH.pdf",
		"2025": "https://cdn.paris.fr/paris/2025/01/17/bp-2025-editique-premiere-parite-bg-weCs.pdf",
		"2026": "https://cdn.paris.fr/paris/2026/01/21/bp-2026-editique-premiere-partie-bg-bxlu.pdf",
	})
	v.SetDefault("sources.investments", map[string]string{
		"2022": "https://cdn.paris.fr/paris/2023/07/05/09-ca-2022-investissements-localises-3owH.pdf",
		"2023": "https://cdn.paris.fr/paris/2024/07/03/ca-2023-investissements-localises-tJO3.pdf",
		"2024": "https://cdn.paris.fr/paris/2025/06/25/ca-2024-annexe-il-UtMj.PDF",
	})

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

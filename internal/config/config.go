package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sells-group/venue-enrichment/internal/store"
)

// Config holds the full application configuration.
type Config struct {
	Search     SearchConfig    `yaml:"search" mapstructure:"search"`
	Exa        ExaConfig       `yaml:"exa" mapstructure:"exa"`
	Jina       JinaConfig      `yaml:"jina" mapstructure:"jina"`
	Firecrawl  FirecrawlConfig `yaml:"firecrawl" mapstructure:"firecrawl"`
	LLM        LLMConfig       `yaml:"llm" mapstructure:"llm"`
	OpenAI     ProviderConfig  `yaml:"openai" mapstructure:"openai"`
	Anthropic  ProviderConfig  `yaml:"anthropic" mapstructure:"anthropic"`
	Perplexity ProviderConfig  `yaml:"perplexity" mapstructure:"perplexity"`
	Blocklist  BlocklistConfig `yaml:"blocklist" mapstructure:"blocklist"`
	Scrape     ScrapeConfig    `yaml:"scrape" mapstructure:"scrape"`
	RateLimit  RateLimitConfig `yaml:"rate_limit" mapstructure:"rate_limit"`
	Pipeline   PipelineConfig  `yaml:"pipeline" mapstructure:"pipeline"`
	Store      StoreConfig     `yaml:"store" mapstructure:"store"`
	Log        LogConfig       `yaml:"log" mapstructure:"log"`
}

// SearchConfig selects the web search provider.
type SearchConfig struct {
	Provider                string `yaml:"provider" mapstructure:"provider"` // exa or jina
	NumResults              int    `yaml:"num_results" mapstructure:"num_results"`
	RetryAttempts           int    `yaml:"retry_attempts" mapstructure:"retry_attempts"`
	CircuitFailureThreshold int    `yaml:"circuit_failure_threshold" mapstructure:"circuit_failure_threshold"`
	CircuitResetSecs        int    `yaml:"circuit_reset_secs" mapstructure:"circuit_reset_secs"`
}

// ExaConfig holds Exa search API settings.
type ExaConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// JinaConfig holds Jina AI Reader settings. RetryAttempts counts every
// attempt, including the first.
type JinaConfig struct {
	Key            string `yaml:"key" mapstructure:"key"`
	BaseURL        string `yaml:"base_url" mapstructure:"base_url"`
	SearchBaseURL  string `yaml:"search_base_url" mapstructure:"search_base_url"`
	RetryAttempts  int    `yaml:"retry_attempts" mapstructure:"retry_attempts"`
	RetryBackoffMs int    `yaml:"retry_backoff_ms" mapstructure:"retry_backoff_ms"`
}

// FirecrawlConfig holds Firecrawl API settings (fallback only).
type FirecrawlConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// LLMConfig selects the completion provider and its sampling settings.
type LLMConfig struct {
	Provider          string  `yaml:"provider" mapstructure:"provider"` // openai, anthropic or perplexity
	Temperature       float64 `yaml:"temperature" mapstructure:"temperature"`
	MaxTokens         int     `yaml:"max_tokens" mapstructure:"max_tokens"`
	RetryAttempts     int     `yaml:"retry_attempts" mapstructure:"retry_attempts"`
	RetryDelaySeconds int     `yaml:"retry_delay_seconds" mapstructure:"retry_delay_seconds"`
}

// ProviderConfig holds one LLM provider's credentials and model.
type ProviderConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	Model   string `yaml:"model" mapstructure:"model"`
}

// BlocklistConfig lists domains never used as sources.
type BlocklistConfig struct {
	Domains []string `yaml:"domains" mapstructure:"domains"`
}

// ScrapeConfig configures page fetching.
type ScrapeConfig struct {
	TimeoutSecs int      `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	UserAgents  []string `yaml:"user_agents" mapstructure:"user_agents"`
	ProxyURL    string   `yaml:"proxy_url" mapstructure:"proxy_url"`
	MaxSources  int      `yaml:"max_sources" mapstructure:"max_sources"`
}

// RateLimitConfig configures per-host request pacing.
type RateLimitConfig struct {
	RequestsPerSecond      float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	BurstSize              int     `yaml:"burst_size" mapstructure:"burst_size"`
	DelayBetweenRequestsMs int     `yaml:"delay_between_requests_ms" mapstructure:"delay_between_requests_ms"`
}

// PipelineConfig configures orchestration.
type PipelineConfig struct {
	MergePolicy       string `yaml:"merge_policy" mapstructure:"merge_policy"`
	VenueDelayMs      int    `yaml:"venue_delay_ms" mapstructure:"venue_delay_ms"`
	SelectionPoolSize int    `yaml:"selection_pool_size" mapstructure:"selection_pool_size"`
}

// StoreConfig configures the run history backend.
type StoreConfig struct {
	Driver      string           `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string           `yaml:"database_url" mapstructure:"database_url"`
	Pool        store.PoolConfig `yaml:"pool" mapstructure:"pool"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// envAliases binds the unprefixed variable names users already export.
var envAliases = map[string][]string{
	"exa.key":            {"VENUE_EXA_KEY", "EXA_API_KEY"},
	"openai.key":         {"VENUE_OPENAI_KEY", "LLM_API_KEY", "OPENAI_API_KEY"},
	"anthropic.key":      {"VENUE_ANTHROPIC_KEY", "ANTHROPIC_API_KEY"},
	"perplexity.key":     {"VENUE_PERPLEXITY_KEY", "PERPLEXITY_API_KEY"},
	"jina.key":           {"VENUE_JINA_KEY", "JINA_API_KEY"},
	"firecrawl.key":      {"VENUE_FIRECRAWL_KEY", "FIRECRAWL_API_KEY"},
	"store.database_url": {"VENUE_STORE_DATABASE_URL", "DATABASE_URL"},
}

// Load reads configuration from file and environment. path may be empty, in
// which case config.{yaml,toml} in the working directory is used if present.
func Load(path string) (*Config, error) {
	v := viper.New()

	// Config file
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
	}

	// Environment
	v.SetEnvPrefix("VENUE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, names := range envAliases {
		if err := v.BindEnv(append([]string{key}, names...)...); err != nil {
			return nil, eris.Wrapf(err, "config: bind env %s", key)
		}
	}

	// Defaults
	v.SetDefault("search.provider", "exa")
	v.SetDefault("search.num_results", 10)
	v.SetDefault("search.retry_attempts", 2)
	v.SetDefault("search.circuit_failure_threshold", 5)
	v.SetDefault("search.circuit_reset_secs", 60)
	v.SetDefault("exa.base_url", "https://api.exa.ai")
	v.SetDefault("jina.base_url", "https://r.jina.ai")
	v.SetDefault("jina.search_base_url", "https://s.jina.ai")
	v.SetDefault("jina.retry_attempts", 3)
	v.SetDefault("jina.retry_backoff_ms", 1000)
	v.SetDefault("firecrawl.base_url", "https://api.firecrawl.dev/v2")
	v.SetDefault("llm.provider", "openai")
	v.SetDefault("llm.temperature", 0.1)
	v.SetDefault("llm.max_tokens", 2000)
	v.SetDefault("llm.retry_attempts", 3)
	v.SetDefault("llm.retry_delay_seconds", 2)
	v.SetDefault("openai.base_url", "https://api.openai.com/v1")
	v.SetDefault("openai.model", "gpt-4o-mini")
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("perplexity.base_url", "https://api.perplexity.ai")
	v.SetDefault("perplexity.model", "sonar")
	v.SetDefault("blocklist.domains", []string{
		"facebook.com", "instagram.com", "linkedin.com", "pinterest.com", "reddit.com", "youtube.com",
	})
	v.SetDefault("scrape.timeout_secs", 30)
	v.SetDefault("scrape.user_agents", []string{
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36",
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36",
		"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36",
	})
	v.SetDefault("scrape.max_sources", 3)
	v.SetDefault("rate_limit.requests_per_second", 2.0)
	v.SetDefault("rate_limit.burst_size", 5)
	v.SetDefault("rate_limit.delay_between_requests_ms", 500)
	v.SetDefault("pipeline.merge_policy", "replace_if_larger")
	v.SetDefault("pipeline.venue_delay_ms", 1000)
	v.SetDefault("pipeline.selection_pool_size", 5)
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "venues.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	// Read config file (optional unless named explicitly)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); path != "" || !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// LLMProvider returns the settings of the selected completion provider.
func (c *Config) LLMProvider() ProviderConfig {
	switch strings.ToLower(c.LLM.Provider) {
	case "anthropic":
		return c.Anthropic
	case "perplexity":
		return c.Perplexity
	default:
		return c.OpenAI
	}
}

// Validate reports missing credentials. Dry runs make no external calls and
// need none.
func (c *Config) Validate(dryRun bool) error {
	if dryRun {
		return nil
	}
	var missing []string
	switch strings.ToLower(c.Search.Provider) {
	case "", "exa":
		if c.Exa.Key == "" {
			missing = append(missing, "exa.key (EXA_API_KEY)")
		}
	case "jina":
		if c.Jina.Key == "" {
			missing = append(missing, "jina.key (JINA_API_KEY)")
		}
	default:
		return eris.Errorf("config: unknown search provider %q", c.Search.Provider)
	}
	if c.LLMProvider().Key == "" {
		missing = append(missing, c.LLM.Provider+".key")
	}
	if len(missing) > 0 {
		return eris.Errorf("config: missing required keys: %s", strings.Join(missing, ", "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
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

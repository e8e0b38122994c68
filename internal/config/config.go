package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
	Database DatabaseConfig `mapstructure:"database"`
	LLM      LLMConfig      `mapstructure:"llm"`
	Weather  WeatherConfig  `mapstructure:"weather"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Auth     AuthConfig     `mapstructure:"auth"`
	NLP      NLPConfig      `mapstructure:"nlp"`
	Intent   IntentConfig   `mapstructure:"intent"`
	Policy   PolicyConfig   `mapstructure:"policy"`
}

type ServerConfig struct {
	Port          string `mapstructure:"port"`
	MaxBatchItems int    `mapstructure:"max_batch_items"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

type LLMConfig struct {
	APIKey         string        `mapstructure:"api_key"`
	ChatModel      string        `mapstructure:"chat_model"`
	EmbeddingModel string        `mapstructure:"embedding_model"`
	EmbeddingDim   int           `mapstructure:"embedding_dim"`
	Temperature    float32       `mapstructure:"temperature"`
	MaxTokens      int32         `mapstructure:"max_tokens"`
	Timeout        time.Duration `mapstructure:"timeout"`
}

// Enabled reports whether an LLM key is configured.
func (c LLMConfig) Enabled() bool { return c.APIKey != "" }

type WeatherConfig struct {
	ForecastURL  string        `mapstructure:"forecast_url"`
	GeocodingURL string        `mapstructure:"geocoding_url"`
	APIKey       string        `mapstructure:"api_key"`
	HistoryDays  int           `mapstructure:"history_days"`
	ForecastDays int           `mapstructure:"forecast_days"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

type RedisConfig struct {
	Address  string        `mapstructure:"address"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

type AuthConfig struct {
	JWTSecret string        `mapstructure:"jwt_secret"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
}

type NLPConfig struct {
	UseLanguageModel    bool    `mapstructure:"use_language_model"`
	LanguageModelWeight float64 `mapstructure:"language_model_weight"`
	CodeMixedThreshold  float64 `mapstructure:"code_mixed_threshold"`
	UseNER              bool    `mapstructure:"use_ner"`
}

type IntentConfig struct {
	UseML         bool               `mapstructure:"use_ml"`
	UseSemantic   bool               `mapstructure:"use_semantic"`
	UseZeroShot   bool               `mapstructure:"use_zero_shot"`
	Weights       map[string]float64 `mapstructure:"weights"`
	Adaptive      bool               `mapstructure:"adaptive"`
	WinnerBoost   float64            `mapstructure:"winner_boost"`
	RuleBaseline  float64            `mapstructure:"rule_baseline"`
	LowConfidence float64            `mapstructure:"low_confidence"`
	TrainingFile  string             `mapstructure:"training_file"`
}

type PolicyConfig struct {
	TopK                int     `mapstructure:"top_k"`
	SimilarityThreshold float64 `mapstructure:"similarity_threshold"`
	ChunkSize           int     `mapstructure:"chunk_size"`
	ChunkOverlap        int     `mapstructure:"chunk_overlap"`
}

// Load reads .env, an optional configs/config.yaml and the environment, in
// increasing order of precedence.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")

	v.SetEnvPrefix("AGRI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	bindLegacyEnv(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Default returns the configuration used when nothing is overridden.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	_ = v.Unmarshal(&cfg)
	return &cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.max_batch_items", 100)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	v.SetDefault("database.path", "agri_data.db")

	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.chat_model", "gemini-1.5-flash-latest")
	v.SetDefault("llm.embedding_model", "text-embedding-004")
	v.SetDefault("llm.embedding_dim", 768)
	v.SetDefault("llm.temperature", 0.4)
	v.SetDefault("llm.max_tokens", 800)
	v.SetDefault("llm.timeout", "30s")

	v.SetDefault("weather.forecast_url", "https://api.open-meteo.com/v1/forecast")
	v.SetDefault("weather.geocoding_url", "https://geocoding-api.open-meteo.com/v1/search")
	v.SetDefault("weather.api_key", "")
	v.SetDefault("weather.history_days", 20)
	v.SetDefault("weather.forecast_days", 7)
	v.SetDefault("weather.timeout", "15s")

	v.SetDefault("redis.address", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.ttl", "30m")

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.token_ttl", "24h")

	v.SetDefault("nlp.use_language_model", true)
	v.SetDefault("nlp.language_model_weight", 0.4)
	v.SetDefault("nlp.code_mixed_threshold", 0.3)
	v.SetDefault("nlp.use_ner", false)

	v.SetDefault("intent.use_ml", true)
	v.SetDefault("intent.use_semantic", true)
	v.SetDefault("intent.use_zero_shot", true)
	v.SetDefault("intent.weights", map[string]float64{
		"rule":      0.35,
		"ml":        0.25,
		"semantic":  0.20,
		"zero_shot": 0.20,
	})
	v.SetDefault("intent.adaptive", true)
	v.SetDefault("intent.winner_boost", 1.2)
	v.SetDefault("intent.rule_baseline", 0.3)
	v.SetDefault("intent.low_confidence", 0.4)
	v.SetDefault("intent.training_file", "")

	v.SetDefault("policy.top_k", 3)
	v.SetDefault("policy.similarity_threshold", 0.5)
	v.SetDefault("policy.chunk_size", 1200)
	v.SetDefault("policy.chunk_overlap", 150)
}

// bindLegacyEnv keeps the plain variable names working next to the AGRI_ prefix.
func bindLegacyEnv(v *viper.Viper) {
	_ = v.BindEnv("llm.api_key", "AGRI_LLM_API_KEY", "GEMINI_API_KEY")
	_ = v.BindEnv("weather.api_key", "AGRI_WEATHER_API_KEY", "WEATHER_API_KEY")
	_ = v.BindEnv("database.path", "AGRI_DATABASE_PATH", "DATABASE_URL")
	_ = v.BindEnv("server.port", "AGRI_SERVER_PORT", "HTTP_PORT")
	_ = v.BindEnv("redis.address", "AGRI_REDIS_ADDRESS", "REDIS_ADDRESS")
	_ = v.BindEnv("auth.jwt_secret", "AGRI_AUTH_JWT_SECRET", "JWT_SECRET")
	_ = v.BindEnv("log.level", "AGRI_LOG_LEVEL", "LOG_LEVEL")
	_ = v.BindEnv("log.format", "AGRI_LOG_FORMAT", "LOG_FORMAT")
}

// Validate collects every configuration problem instead of stopping at the first.
func (c *Config) Validate() error {
	var result *multierror.Error

	if c.Server.Port == "" {
		result = multierror.Append(result, errors.New("server.port is required"))
	}
	if c.Server.MaxBatchItems <= 0 {
		result = multierror.Append(result, errors.New("server.max_batch_items must be positive"))
	}
	if c.Database.Path == "" {
		result = multierror.Append(result, errors.New("database.path is required"))
	}
	if c.LLM.EmbeddingDim <= 0 {
		result = multierror.Append(result, errors.New("llm.embedding_dim must be positive"))
	}
	if c.Weather.HistoryDays < 0 || c.Weather.HistoryDays > 92 {
		result = multierror.Append(result, fmt.Errorf("weather.history_days must be within 0..92, got %d", c.Weather.HistoryDays))
	}
	if c.Weather.ForecastDays < 1 || c.Weather.ForecastDays > 16 {
		result = multierror.Append(result, fmt.Errorf("weather.forecast_days must be within 1..16, got %d", c.Weather.ForecastDays))
	}
	if c.NLP.LanguageModelWeight < 0 || c.NLP.LanguageModelWeight > 1 {
		result = multierror.Append(result, errors.New("nlp.language_model_weight must be within [0,1]"))
	}
	if c.NLP.CodeMixedThreshold <= 0 || c.NLP.CodeMixedThreshold >= 1 {
		result = multierror.Append(result, errors.New("nlp.code_mixed_threshold must be within (0,1)"))
	}

	var total float64
	for name, w := range c.Intent.Weights {
		if w < 0 {
			result = multierror.Append(result, fmt.Errorf("intent.weights.%s must not be negative", name))
		}
		total += w
	}
	if total <= 0 {
		result = multierror.Append(result, errors.New("intent.weights must contain a positive weight"))
	}
	if c.Intent.WinnerBoost < 1 {
		result = multierror.Append(result, errors.New("intent.winner_boost must be >= 1"))
	}
	if c.Intent.RuleBaseline < 0 {
		result = multierror.Append(result, errors.New("intent.rule_baseline must not be negative"))
	}
	if c.Intent.LowConfidence < 0 || c.Intent.LowConfidence > 1 {
		result = multierror.Append(result, errors.New("intent.low_confidence must be within [0,1]"))
	}

	if c.Policy.TopK <= 0 {
		result = multierror.Append(result, errors.New("policy.top_k must be positive"))
	}
	if c.Policy.ChunkSize <= 0 || c.Policy.ChunkOverlap < 0 || c.Policy.ChunkOverlap >= c.Policy.ChunkSize {
		result = multierror.Append(result, errors.New("policy.chunk_overlap must be smaller than a positive policy.chunk_size"))
	}

	return result.ErrorOrNil()
}

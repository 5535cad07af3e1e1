package config

import (
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Log       LogConfig
	CORS      CORSConfig
	Upload    UploadConfig
	Extract   ExtractConfig
	LLM       LLMConfig
	OCR       OCRConfig
	Interview InterviewConfig
	Session   SessionConfig
	Staging   StagingConfig
	Redis     RedisConfig
	S3        S3Config
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	Environment  string        `mapstructure:"environment"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// UploadConfig holds resume upload limits.
type UploadConfig struct {
	MaxFileSizeMB int64 `mapstructure:"max_file_size_mb"`
}

// MaxBytes returns the upload size limit in bytes.
func (u *UploadConfig) MaxBytes() int64 {
	return u.MaxFileSizeMB << 20
}

// ExtractConfig holds PDF text extraction settings.
type ExtractConfig struct {
	AllPages    bool `mapstructure:"all_pages"`
	OCRMaxPages int  `mapstructure:"ocr_max_pages"`
}

// ProviderConfig holds settings for a single LLM provider.
type ProviderConfig struct {
	Provider    string `mapstructure:"provider"`
	APIKey      string `mapstructure:"api_key"`
	Model       string `mapstructure:"model"`
	BaseURL     string `mapstructure:"base_url"`
	TimeoutSecs int    `mapstructure:"timeout_secs"`
}

// Timeout returns the per-call timeout for the provider.
func (p *ProviderConfig) Timeout() time.Duration {
	return time.Duration(p.TimeoutSecs) * time.Second
}

// LLMConfig holds chat completion settings.
type LLMConfig struct {
	Provider    string  `mapstructure:"provider"`
	APIKey      string  `mapstructure:"api_key"`
	Model       string  `mapstructure:"model"`
	BaseURL     string  `mapstructure:"base_url"`
	TimeoutSecs int     `mapstructure:"timeout_secs"`
	Temperature float64 `mapstructure:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens"`
	Stream      bool    `mapstructure:"stream"`
}

// ProviderConfig returns the provider part of the completion settings.
func (l *LLMConfig) ProviderConfig() *ProviderConfig {
	return &ProviderConfig{
		Provider:    l.Provider,
		APIKey:      l.APIKey,
		Model:       l.Model,
		BaseURL:     l.BaseURL,
		TimeoutSecs: l.TimeoutSecs,
	}
}

// OCRConfig holds the image transcription chain used when a PDF has no text layer.
type OCRConfig struct {
	Enabled   bool           `mapstructure:"enabled"`
	Primary   ProviderConfig `mapstructure:"primary"`
	Secondary ProviderConfig `mapstructure:"secondary"`
	Tertiary  ProviderConfig `mapstructure:"tertiary"`
}

// PrimaryConfig returns the primary OCR provider config, or nil if OCR is off.
func (o *OCRConfig) PrimaryConfig() *ProviderConfig {
	if o.Enabled && o.Primary.Provider != "" {
		return &o.Primary
	}
	return nil
}

// SecondaryConfig returns the secondary OCR provider config, or nil if not configured.
func (o *OCRConfig) SecondaryConfig() *ProviderConfig {
	if o.Enabled && o.Secondary.Provider != "" {
		return &o.Secondary
	}
	return nil
}

// TertiaryConfig returns the tertiary OCR provider config, or nil if not configured.
func (o *OCRConfig) TertiaryConfig() *ProviderConfig {
	if o.Enabled && o.Tertiary.Provider != "" {
		return &o.Tertiary
	}
	return nil
}

// InterviewConfig holds conversation limits and the retry policy for rate limits.
type InterviewConfig struct {
	MaxTurns         int           `mapstructure:"max_turns"`
	RateLimitRetries int           `mapstructure:"rate_limit_retries"`
	RetryBackoff     time.Duration `mapstructure:"retry_backoff"`
	MaxRetryWait     time.Duration `mapstructure:"max_retry_wait"`
}

// SessionConfig holds interview session storage settings.
type SessionConfig struct {
	Backend string        `mapstructure:"backend"`
	TTL     time.Duration `mapstructure:"ttl"`
}

// StagingConfig holds transient upload staging settings.
type StagingConfig struct {
	Backend  string `mapstructure:"backend"`
	LocalDir string `mapstructure:"local_dir"`
	Prefix   string `mapstructure:"prefix"`
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Addr      string `mapstructure:"addr"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

// S3Config holds AWS S3 settings.
type S3Config struct {
	Region    string `mapstructure:"region"`
	Bucket    string `mapstructure:"bucket"`
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
}

var providerKeys = []string{"provider", "api_key", "model", "base_url", "timeout_secs"}

// Load reads configuration from environment variables with the INTERVIEW_ prefix.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("INTERVIEW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Server defaults
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.read_timeout", "30s")
	// Zero derives the write timeout from the worst-case interview start; see RequestBudget.
	v.SetDefault("server.write_timeout", "0s")
	v.SetDefault("server.environment", "development")

	// Log defaults
	v.SetDefault("log.level", "debug")
	v.SetDefault("log.format", "console")

	// CORS defaults (localhost origins for development)
	v.SetDefault("cors.allowed_origins", "http://localhost:3000,http://127.0.0.1:3000")

	v.SetDefault("upload.max_file_size_mb", 10)

	v.SetDefault("extract.all_pages", true)
	v.SetDefault("extract.ocr_max_pages", 3)

	// Completion defaults
	v.SetDefault("llm.provider", "openai")
	v.SetDefault("llm.api_key", "")
	// Empty lets each provider client apply its own default model.
	v.SetDefault("llm.model", "")
	v.SetDefault("llm.base_url", "")
	v.SetDefault("llm.timeout_secs", 120)
	v.SetDefault("llm.temperature", 1.0)
	v.SetDefault("llm.max_tokens", 1024)
	v.SetDefault("llm.stream", true)

	// OCR chain defaults; an empty primary falls back to the completion provider
	v.SetDefault("ocr.enabled", true)
	for _, tier := range []string{"primary", "secondary", "tertiary"} {
		v.SetDefault("ocr."+tier+".provider", "")
		v.SetDefault("ocr."+tier+".api_key", "")
		v.SetDefault("ocr."+tier+".model", "")
		v.SetDefault("ocr."+tier+".base_url", "")
		v.SetDefault("ocr."+tier+".timeout_secs", 120)
	}

	v.SetDefault("interview.max_turns", 60)
	v.SetDefault("interview.rate_limit_retries", 1)
	v.SetDefault("interview.retry_backoff", "2s")
	v.SetDefault("interview.max_retry_wait", "30s")

	v.SetDefault("session.backend", "memory")
	v.SetDefault("session.ttl", "2h")

	v.SetDefault("staging.backend", "memory")
	v.SetDefault("staging.local_dir", "")
	v.SetDefault("staging.prefix", "uploads")

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.key_prefix", "interview:")

	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("s3.bucket", "interview-uploads")
	v.SetDefault("s3.endpoint", "")

	// Bind environment variables explicitly for nested keys
	envBindings := map[string]string{
		"server.port":                  "INTERVIEW_SERVER_PORT",
		"server.read_timeout":          "INTERVIEW_SERVER_READ_TIMEOUT",
		"server.write_timeout":         "INTERVIEW_SERVER_WRITE_TIMEOUT",
		"server.environment":           "INTERVIEW_SERVER_ENVIRONMENT",
		"log.level":                    "INTERVIEW_LOG_LEVEL",
		"log.format":                   "INTERVIEW_LOG_FORMAT",
		"cors.allowed_origins":         "INTERVIEW_CORS_ALLOWED_ORIGINS",
		"upload.max_file_size_mb":      "INTERVIEW_UPLOAD_MAX_FILE_SIZE_MB",
		"extract.all_pages":            "INTERVIEW_EXTRACT_ALL_PAGES",
		"extract.ocr_max_pages":        "INTERVIEW_EXTRACT_OCR_MAX_PAGES",
		"llm.provider":                 "INTERVIEW_LLM_PROVIDER",
		"llm.api_key":                  "INTERVIEW_LLM_API_KEY",
		"llm.model":                    "INTERVIEW_LLM_MODEL",
		"llm.base_url":                 "INTERVIEW_LLM_BASE_URL",
		"llm.timeout_secs":             "INTERVIEW_LLM_TIMEOUT_SECS",
		"llm.temperature":              "INTERVIEW_LLM_TEMPERATURE",
		"llm.max_tokens":               "INTERVIEW_LLM_MAX_TOKENS",
		"llm.stream":                   "INTERVIEW_LLM_STREAM",
		"ocr.enabled":                  "INTERVIEW_OCR_ENABLED",
		"interview.max_turns":          "INTERVIEW_INTERVIEW_MAX_TURNS",
		"interview.rate_limit_retries": "INTERVIEW_INTERVIEW_RATE_LIMIT_RETRIES",
		"interview.retry_backoff":      "INTERVIEW_INTERVIEW_RETRY_BACKOFF",
		"interview.max_retry_wait":     "INTERVIEW_INTERVIEW_MAX_RETRY_WAIT",
		"session.backend":              "INTERVIEW_SESSION_BACKEND",
		"session.ttl":                  "INTERVIEW_SESSION_TTL",
		"staging.backend":              "INTERVIEW_STAGING_BACKEND",
		"staging.local_dir":            "INTERVIEW_STAGING_LOCAL_DIR",
		"staging.prefix":               "INTERVIEW_STAGING_PREFIX",
		"redis.addr":                   "INTERVIEW_REDIS_ADDR",
		"redis.password":               "INTERVIEW_REDIS_PASSWORD",
		"redis.db":                     "INTERVIEW_REDIS_DB",
		"redis.key_prefix":             "INTERVIEW_REDIS_KEY_PREFIX",
		"s3.region":                    "INTERVIEW_S3_REGION",
		"s3.bucket":                    "INTERVIEW_S3_BUCKET",
		"s3.endpoint":                  "INTERVIEW_S3_ENDPOINT",
		"s3.access_key":                "INTERVIEW_S3_ACCESS_KEY",
		"s3.secret_key":                "INTERVIEW_S3_SECRET_KEY",
	}
	for _, tier := range []string{"primary", "secondary", "tertiary"} {
		for _, k := range providerKeys {
			key := "ocr." + tier + "." + k
			envBindings[key] = "INTERVIEW_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		}
	}
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	cfg := &Config{}

	// Railway/Heroku/Render set a PORT env var. Use it if INTERVIEW_SERVER_PORT is not explicitly set.
	serverPort := v.GetString("server.port")
	if port := os.Getenv("PORT"); port != "" && os.Getenv("INTERVIEW_SERVER_PORT") == "" {
		serverPort = ":" + port
	}

	cfg.Server = ServerConfig{
		Port:         serverPort,
		ReadTimeout:  v.GetDuration("server.read_timeout"),
		WriteTimeout: v.GetDuration("server.write_timeout"),
		Environment:  v.GetString("server.environment"),
	}
	cfg.Log = LogConfig{
		Level:  v.GetString("log.level"),
		Format: v.GetString("log.format"),
	}
	cfg.CORS = CORSConfig{AllowedOrigins: splitList(v.GetString("cors.allowed_origins"))}
	cfg.Upload = UploadConfig{MaxFileSizeMB: v.GetInt64("upload.max_file_size_mb")}
	cfg.Extract = ExtractConfig{
		AllPages:    v.GetBool("extract.all_pages"),
		OCRMaxPages: v.GetInt("extract.ocr_max_pages"),
	}

	// OPENAI_API_KEY is what most deployments of the chat frontend already export.
	apiKey := v.GetString("llm.api_key")
	if apiKey == "" && v.GetString("llm.provider") == "openai" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	cfg.LLM = LLMConfig{
		Provider:    v.GetString("llm.provider"),
		APIKey:      apiKey,
		Model:       v.GetString("llm.model"),
		BaseURL:     v.GetString("llm.base_url"),
		TimeoutSecs: v.GetInt("llm.timeout_secs"),
		Temperature: v.GetFloat64("llm.temperature"),
		MaxTokens:   v.GetInt("llm.max_tokens"),
		Stream:      v.GetBool("llm.stream"),
	}

	cfg.OCR = OCRConfig{
		Enabled:   v.GetBool("ocr.enabled"),
		Primary:   providerFrom(v, "ocr.primary"),
		Secondary: providerFrom(v, "ocr.secondary"),
		Tertiary:  providerFrom(v, "ocr.tertiary"),
	}
	if cfg.OCR.Primary.Provider == "" {
		cfg.OCR.Primary = *cfg.LLM.ProviderConfig()
	}

	cfg.Interview = InterviewConfig{
		MaxTurns:         v.GetInt("interview.max_turns"),
		RateLimitRetries: v.GetInt("interview.rate_limit_retries"),
		RetryBackoff:     v.GetDuration("interview.retry_backoff"),
		MaxRetryWait:     v.GetDuration("interview.max_retry_wait"),
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = cfg.RequestBudget()
	}
	cfg.Session = SessionConfig{
		Backend: v.GetString("session.backend"),
		TTL:     v.GetDuration("session.ttl"),
	}
	cfg.Staging = StagingConfig{
		Backend:  v.GetString("staging.backend"),
		LocalDir: v.GetString("staging.local_dir"),
		Prefix:   v.GetString("staging.prefix"),
	}
	cfg.Redis = RedisConfig{
		Addr:      v.GetString("redis.addr"),
		Password:  v.GetString("redis.password"),
		DB:        v.GetInt("redis.db"),
		KeyPrefix: v.GetString("redis.key_prefix"),
	}
	cfg.S3 = S3Config{
		Region:    v.GetString("s3.region"),
		Bucket:    v.GetString("s3.bucket"),
		Endpoint:  v.GetString("s3.endpoint"),
		AccessKey: v.GetString("s3.access_key"),
		SecretKey: v.GetString("s3.secret_key"),
	}

	return cfg, nil
}

// writeTimeoutSlack covers upload transfer, staging and response writing.
const writeTimeoutSlack = 30 * time.Second

// RequestBudget is the longest a single interview start can take: OCR of every
// allowed page through each configured tier, then the opening completion with
// all rate-limit retries and their waits.
func (c *Config) RequestBudget() time.Duration {
	var perPage time.Duration
	for _, tier := range []*ProviderConfig{c.OCR.PrimaryConfig(), c.OCR.SecondaryConfig(), c.OCR.TertiaryConfig()} {
		if tier != nil {
			perPage += tier.Timeout()
		}
	}
	ocr := time.Duration(c.Extract.OCRMaxPages) * perPage

	attempts := time.Duration(c.Interview.RateLimitRetries + 1)
	completion := attempts*c.LLM.ProviderConfig().Timeout() +
		time.Duration(c.Interview.RateLimitRetries)*c.Interview.MaxRetryWait

	return ocr + completion + writeTimeoutSlack
}

func providerFrom(v *viper.Viper, prefix string) ProviderConfig {
	return ProviderConfig{
		Provider:    v.GetString(prefix + ".provider"),
		APIKey:      v.GetString(prefix + ".api_key"),
		Model:       v.GetString(prefix + ".model"),
		BaseURL:     v.GetString(prefix + ".base_url"),
		TimeoutSecs: v.GetInt(prefix + ".timeout_secs"),
	}
}

// splitList parses a comma-separated string, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}

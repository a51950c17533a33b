package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const devSigningKey = "insightboard-dev-signing-key-do-not-use-in-prod"

type ProviderSettings struct {
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
	BaseURL string `yaml:"base_url"`
}

type Config struct {
	HTTP struct {
		Addr string `yaml:"addr"`
	} `yaml:"http"`
	Dev struct {
		Mode bool `yaml:"mode"`
	} `yaml:"dev"`
	Database struct {
		DSN string `yaml:"dsn"`
	} `yaml:"database"`
	Redis struct {
		URL string `yaml:"url"`
	} `yaml:"redis"`
	Auth struct {
		TokenSigningKey string        `yaml:"token_signing_key"`
		Issuer          string        `yaml:"issuer"`
		TokenTTL        time.Duration `yaml:"token_ttl"`
	} `yaml:"auth"`
	Analysis struct {
		ProviderOrder []string      `yaml:"provider_order"`
		Timeout       time.Duration `yaml:"timeout"`
		Async         bool          `yaml:"async"`
		PromptPath    string        `yaml:"prompt_path"`
	} `yaml:"analysis"`
	Providers struct {
		Gemini    ProviderSettings `yaml:"gemini"`
		OpenAI    ProviderSettings `yaml:"openai"`
		Anthropic ProviderSettings `yaml:"anthropic"`
		Ollama    ProviderSettings `yaml:"ollama"`
	} `yaml:"providers"`
	RateLimit struct {
		SubmissionsPerMinute int `yaml:"submissions_per_minute"`
		Burst                int `yaml:"burst"`
	} `yaml:"rate_limit"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
}

func Default() Config {
	var cfg Config
	cfg.HTTP.Addr = ":8080"
	cfg.Dev.Mode = true
	cfg.Auth.Issuer = "insightboard"
	cfg.Auth.TokenTTL = 24 * time.Hour
	cfg.Analysis.ProviderOrder = []string{"gemini", "openai", "anthropic"}
	cfg.Analysis.Timeout = 60 * time.Second
	cfg.RateLimit.SubmissionsPerMinute = 10
	cfg.RateLimit.Burst = 3
	cfg.Log.Level = "info"
	cfg.Log.Format = "json"
	return cfg
}

func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return cfg, err
			}
		} else {
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, err
			}
		}
	}

	applyEnv(&cfg)

	if cfg.Auth.TokenSigningKey == "" && cfg.Dev.Mode {
		cfg.Auth.TokenSigningKey = devSigningKey
	}
	if len(cfg.Auth.TokenSigningKey) < 32 {
		return cfg, errors.New("auth.token_signing_key (or IB_TOKEN_SIGNING_KEY) must be at least 32 bytes")
	}

	return cfg, nil
}

// Provider returns the settings for a provider name from analysis.provider_order.
func (c Config) Provider(name string) (ProviderSettings, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "gemini":
		return c.Providers.Gemini, true
	case "openai":
		return c.Providers.OpenAI, true
	case "anthropic":
		return c.Providers.Anthropic, true
	case "ollama":
		return c.Providers.Ollama, true
	default:
		return ProviderSettings{}, false
	}
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("IB_HTTP_ADDR"); v != "" {
		cfg.HTTP.Addr = v
	}
	if v := os.Getenv("IB_DEV_MODE"); v != "" {
		cfg.Dev.Mode = parseBool(v, cfg.Dev.Mode)
	}
	if v := os.Getenv("IB_DB_DSN"); v != "" {
		cfg.Database.DSN = v
	}
	if v := os.Getenv("IB_REDIS_URL"); v != "" {
		cfg.Redis.URL = v
	}
	if v := os.Getenv("IB_TOKEN_SIGNING_KEY"); v != "" {
		cfg.Auth.TokenSigningKey = v
	}
	if v := os.Getenv("IB_AUTH_ISSUER"); v != "" {
		cfg.Auth.Issuer = v
	}
	if v := os.Getenv("IB_TOKEN_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Auth.TokenTTL = d
		}
	}
	if v := os.Getenv("IB_PROVIDER_ORDER"); v != "" {
		cfg.Analysis.ProviderOrder = splitCSV(v)
	}
	if v := os.Getenv("IB_ANALYSIS_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Analysis.Timeout = d
		}
	}
	if v := os.Getenv("IB_ANALYSIS_ASYNC"); v != "" {
		cfg.Analysis.Async = parseBool(v, cfg.Analysis.Async)
	}
	if v := os.Getenv("IB_PROMPT_PATH"); v != "" {
		cfg.Analysis.PromptPath = v
	}

	// Gemini accepts either name; GEMINI_API_KEY wins.
	if v := envKey("GOOGLE_API_KEY"); v != "" {
		cfg.Providers.Gemini.APIKey = v
	}
	if v := envKey("GEMINI_API_KEY"); v != "" {
		cfg.Providers.Gemini.APIKey = v
	}
	if v := envKey("OPENAI_API_KEY"); v != "" {
		cfg.Providers.OpenAI.APIKey = v
	}
	if v := envKey("ANTHROPIC_API_KEY"); v != "" {
		cfg.Providers.Anthropic.APIKey = v
	}
	if v := os.Getenv("IB_GEMINI_MODEL"); v != "" {
		cfg.Providers.Gemini.Model = v
	}
	if v := os.Getenv("IB_OPENAI_MODEL"); v != "" {
		cfg.Providers.OpenAI.Model = v
	}
	if v := os.Getenv("IB_OPENAI_BASE_URL"); v != "" {
		cfg.Providers.OpenAI.BaseURL = v
	}
	if v := os.Getenv("IB_ANTHROPIC_MODEL"); v != "" {
		cfg.Providers.Anthropic.Model = v
	}
	if v := os.Getenv("IB_OLLAMA_URL"); v != "" {
		cfg.Providers.Ollama.BaseURL = v
	}
	if v := os.Getenv("IB_OLLAMA_MODEL"); v != "" {
		cfg.Providers.Ollama.Model = v
	}

	if v := os.Getenv("IB_RATE_LIMIT_PER_MINUTE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.RateLimit.SubmissionsPerMinute = n
		}
	}
	if v := os.Getenv("IB_RATE_LIMIT_BURST"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.RateLimit.Burst = n
		}
	}
	if v := os.Getenv("IB_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("IB_LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
}

// envKey treats a whitespace-only credential as unset.
func envKey(name string) string {
	return strings.TrimSpace(os.Getenv(name))
}

func parseBool(input string, fallback bool) bool {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return fallback
	}
}

func splitCSV(input string) []string {
	parts := strings.Split(input, ",")
	var out []string
	for _, part := range parts {
		val := strings.TrimSpace(part)
		if val == "" {
			continue
		}
		out = append(out, val)
	}
	return out
}

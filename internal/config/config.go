package config

import (
	"encoding/json"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	ConfigDirName = "lootlook"
	EnvFileName   = "config.env"
)

const (
	LogFormatConsole = "console"
	LogFormatJSON    = "json"
)

// Config holds the service settings. Ports use their mock implementations
// when the corresponding API key is empty.
type Config struct {
	AppName    string
	AppVersion string
	Debug      bool

	Host string
	Port int

	GeminiAPIKey string
	GeminiModel  string

	// Claude is used for identification when no Gemini key is set.
	AnthropicAPIKey string
	AnthropicModel  string

	// IdentifyFallback reports identification failures as an unidentified item
	// instead of failing the scan.
	IdentifyFallback bool

	SerpAPIKey           string
	SerpAPIBaseURL       string
	SerpAPIRatePerSecond float64

	CORSOrigins []string

	// Empty disables identification caching.
	CacheDBPath string
	CacheMaxAge time.Duration

	// Empty disables the telegram front end.
	BotToken string

	LogLevel  string
	LogFormat string

	RequestTimeout time.Duration
}

// LoadEnvFile loads environment variables from the config file in the user's
// config directory, then from .env in the working directory. Variables that
// are already set win. Errors are ignored since the files may not exist.
func LoadEnvFile() {
	if configBase, err := os.UserConfigDir(); err == nil {
		_ = godotenv.Load(filepath.Join(configBase, ConfigDirName, EnvFileName))
	}
	_ = godotenv.Load(".env")
}

// FromEnv reads the configuration from the process environment.
func FromEnv() (Config, error) {
	cfg := Config{
		AppName:         envString("APP_NAME", "LootLook API"),
		AppVersion:      envString("APP_VERSION", "0.1.0"),
		Host:            envString("HOST", "0.0.0.0"),
		GeminiAPIKey:    os.Getenv("GEMINI_API_KEY"),
		GeminiModel:     os.Getenv("GEMINI_MODEL"),
		AnthropicAPIKey: os.Getenv("ANTHROPIC_API_KEY"),
		AnthropicModel:  os.Getenv("ANTHROPIC_MODEL"),
		SerpAPIKey:      os.Getenv("SERPAPI_KEY"),
		SerpAPIBaseURL:  os.Getenv("SERPAPI_BASE_URL"),
		CacheDBPath:     os.Getenv("CACHE_DB_PATH"),
		BotToken:        os.Getenv("BOT_TOKEN"),
		LogFormat:       strings.ToLower(envString("LOG_FORMAT", LogFormatConsole)),
	}

	var err error
	if cfg.Debug, err = envBool("DEBUG", false); err != nil {
		return Config{}, err
	}
	if cfg.IdentifyFallback, err = envBool("IDENTIFY_FALLBACK", true); err != nil {
		return Config{}, err
	}
	if cfg.Port, err = envInt("PORT", 8000); err != nil {
		return Config{}, err
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		return Config{}, fmt.Errorf("PORT must be between 1 and 65535, got %d", cfg.Port)
	}
	if cfg.SerpAPIRatePerSecond, err = envFloat("SERPAPI_RATE_PER_SECOND", 2); err != nil {
		return Config{}, err
	}
	if cfg.RequestTimeout, err = envDuration("REQUEST_TIMEOUT", 30*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.CacheMaxAge, err = envDuration("CACHE_MAX_AGE", 30*24*time.Hour); err != nil {
		return Config{}, err
	}
	if cfg.CORSOrigins, err = parseOrigins(envString("CORS_ORIGINS", "*")); err != nil {
		return Config{}, err
	}

	defaultLevel := "info"
	if cfg.Debug {
		defaultLevel = "debug"
	}
	cfg.LogLevel = strings.ToLower(envString("LOG_LEVEL", defaultLevel))

	if cfg.LogFormat != LogFormatConsole && cfg.LogFormat != LogFormatJSON {
		return Config{}, fmt.Errorf("LOG_FORMAT must be %q or %q, got %q", LogFormatConsole, LogFormatJSON, cfg.LogFormat)
	}

	return cfg, nil
}

// Addr returns the host:port the HTTP server listens on.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

func envString(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) (bool, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s must be a boolean: %w", key, err)
	}
	return b, nil
}

func envInt(key string, fallback int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}

func envFloat(key string, fallback float64) (float64, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number: %w", key, err)
	}
	return f, nil
}

func envDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration such as 30s: %w", key, err)
	}
	return d, nil
}

// parseOrigins accepts either a comma separated list or a JSON array.
func parseOrigins(v string) ([]string, error) {
	var raw []string
	if strings.HasPrefix(v, "[") {
		if err := json.Unmarshal([]byte(v), &raw); err != nil {
			return nil, fmt.Errorf("CORS_ORIGINS is not a valid JSON array: %w", err)
		}
	} else {
		raw = strings.Split(v, ",")
	}

	origins := make([]string, 0, len(raw))
	for _, o := range raw {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	if len(origins) == 0 {
		return []string{"*"}, nil
	}
	return origins, nil
}

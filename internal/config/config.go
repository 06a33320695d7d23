package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// PathEnvVar names the optional YAML file layered between defaults and the
// environment.
const PathEnvVar = "CONFIG_PATH"

// Config captures all runtime configuration. Keys are the lower-cased
// environment variable names, so DB_URL and a YAML `db_url:` set the same field.
type Config struct {
	Port             string   `koanf:"port"`
	AuthToken        string   `koanf:"auth_token"`
	CORSOrigins      []string `koanf:"cors_origins"`
	ReadTimeoutSecs  int      `koanf:"server_read_timeout"`
	WriteTimeoutSecs int      `koanf:"server_write_timeout"`
	IdleTimeoutSecs  int      `koanf:"server_idle_timeout"`

	DBURL             string `koanf:"db_url"`
	DBMaxConns        int    `koanf:"db_max_conns"`
	DBMinConns        int    `koanf:"db_min_conns"`
	DBMaxIdleSecs     int    `koanf:"db_max_conn_idle_secs"`
	DBMaxLifeSecs     int    `koanf:"db_max_conn_lifetime_secs"`
	DBConnTimeoutSecs int    `koanf:"db_conn_timeout_secs"`
	DBStatementCache  int    `koanf:"db_statement_cache_capacity"`

	TMDBURL         string `koanf:"tmdb_url"`
	TMDBAPIKey      string `koanf:"tmdb_api_key"`
	TMDBLanguage    string `koanf:"tmdb_language"`
	TMDBTimeoutSecs int    `koanf:"tmdb_timeout_secs"`

	CacheTTLSecs          int  `koanf:"cache_ttl_secs"`
	CacheReferenceTTLSecs int  `koanf:"cache_reference_ttl_secs"`
	FilterIncomplete      bool `koanf:"metadata_filter_incomplete"`
	CollectionLimit       int  `koanf:"collection_limit"`

	LogLevel  string `koanf:"log_level"`
	LogFormat string `koanf:"log_format"`
}

func defaults() Config {
	return Config{
		Port:                  "8080",
		CORSOrigins:           []string{"*"},
		ReadTimeoutSecs:       15,
		WriteTimeoutSecs:      15,
		IdleTimeoutSecs:       60,
		DBMaxConns:            20,
		DBMinConns:            2,
		DBMaxIdleSecs:         300,
		DBMaxLifeSecs:         3600,
		DBConnTimeoutSecs:     10,
		DBStatementCache:      256,
		TMDBURL:               "https://api.themoviedb.org/3",
		TMDBLanguage:          "es-ES",
		TMDBTimeoutSecs:       5,
		CacheTTLSecs:          60,
		CacheReferenceTTLSecs: 86400,
		FilterIncomplete:      true,
		CollectionLimit:       20,
		LogLevel:              "info",
		LogFormat:             "json",
	}
}

// Load layers struct defaults, the YAML file named by CONFIG_PATH (if any)
// and the environment, then validates the result.
func Load() (Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaults(), "koanf"), nil); err != nil {
		return Config{}, fmt.Errorf("load defaults: %w", err)
	}

	if path := os.Getenv(PathEnvVar); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	// Empty variables are skipped so that `FOO=` does not wipe a default.
	envProvider := env.ProviderWithValue("", ".", func(key, value string) (string, any) {
		if value == "" {
			return "", nil
		}
		return strings.ToLower(key), value
	})
	if err := k.Load(envProvider, nil); err != nil {
		return Config{}, fmt.Errorf("load environment: %w", err)
	}

	if err := splitSliceFields(k); err != nil {
		return Config{}, err
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("decode configuration: %w", err)
	}
	cfg.CORSOrigins = trimAll(cfg.CORSOrigins)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports the first invalid setting by its environment name.
func (cfg Config) Validate() error {
	if cfg.AuthToken == "" {
		return fmt.Errorf("AUTH_TOKEN is required")
	}
	if cfg.DBURL == "" {
		return fmt.Errorf("DB_URL is required")
	}
	if cfg.TMDBURL == "" {
		return fmt.Errorf("TMDB_URL is required")
	}
	if cfg.TMDBAPIKey == "" {
		return fmt.Errorf("TMDB_API_KEY is required")
	}
	if cfg.TMDBTimeoutSecs <= 0 {
		return fmt.Errorf("TMDB_TIMEOUT_SECS must be positive")
	}
	if cfg.CacheTTLSecs <= 0 {
		return fmt.Errorf("CACHE_TTL_SECS must be positive")
	}
	if cfg.CacheReferenceTTLSecs <= 0 {
		return fmt.Errorf("CACHE_REFERENCE_TTL_SECS must be positive")
	}
	if cfg.CollectionLimit <= 0 {
		return fmt.Errorf("COLLECTION_LIMIT must be positive")
	}
	if cfg.DBMaxConns <= 0 {
		return fmt.Errorf("DB_MAX_CONNS must be positive")
	}
	if cfg.DBMinConns < 0 {
		return fmt.Errorf("DB_MIN_CONNS must be non-negative")
	}
	if cfg.DBMinConns > cfg.DBMaxConns {
		return fmt.Errorf("DB_MIN_CONNS cannot exceed DB_MAX_CONNS")
	}
	if cfg.DBStatementCache < 0 {
		return fmt.Errorf("DB_STATEMENT_CACHE_CAPACITY must be non-negative")
	}
	switch cfg.LogFormat {
	case "json", "console":
	default:
		return fmt.Errorf("LOG_FORMAT must be json or console, got %q", cfg.LogFormat)
	}
	return nil
}

// sliceKeys are settings that arrive from the environment as comma-separated
// strings but decode into slices.
var sliceKeys = []string{"cors_origins"}

func splitSliceFields(k *koanf.Koanf) error {
	for _, key := range sliceKeys {
		raw, ok := k.Get(key).(string)
		if !ok {
			continue
		}
		if err := k.Set(key, trimAll(strings.Split(raw, ","))); err != nil {
			return fmt.Errorf("set %s: %w", key, err)
		}
	}
	return nil
}

func trimAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

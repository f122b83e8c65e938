package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. TRACTORLOG_LOG_LEVEL.
const EnvPrefix = "TRACTORLOG"

type Config struct {
	DataDir           string `mapstructure:"data_dir"`
	DBPath            string `mapstructure:"db_path"`
	StorageKey        string `mapstructure:"storage_key"`
	DefaultHourlyRate int    `mapstructure:"default_hourly_rate"`
	Currency          string `mapstructure:"currency"`

	Log struct {
		Level  string `mapstructure:"level"`
		Format string `mapstructure:"format"`
	} `mapstructure:"log"`

	Offline OfflineConfig `mapstructure:"offline"`
}

type OfflineConfig struct {
	Version       string        `mapstructure:"version"`
	Origin        string        `mapstructure:"origin"`
	EntryPoint    string        `mapstructure:"entry_point"`
	Manifest      []string      `mapstructure:"manifest"`
	InstallPolicy string        `mapstructure:"install_policy"`
	Backend       string        `mapstructure:"backend"`
	CacheDir      string        `mapstructure:"cache_dir"`
	Addr          string        `mapstructure:"addr"`
	FetchTimeout  time.Duration `mapstructure:"fetch_timeout"`

	Redis struct {
		Addr     string `mapstructure:"addr"`
		Password string `mapstructure:"password"`
		DB       int    `mapstructure:"db"`
	} `mapstructure:"redis"`
}

// Load reads configuration from an optional YAML file, a .env file in the
// working directory, and TRACTORLOG_* environment variables, in increasing
// precedence. An empty path skips the file. A missing file at an explicit
// path is an error.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	cfg.fillDerived()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("data_dir", defaultDataDir())
	v.SetDefault("db_path", "")
	v.SetDefault("storage_key", "tractor_records")
	v.SetDefault("default_hourly_rate", 5000)
	v.SetDefault("currency", "SDG")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("offline.version", "tractorlog-v2")
	v.SetDefault("offline.origin", "http://localhost:3000")
	v.SetDefault("offline.entry_point", "/index.html")
	v.SetDefault("offline.manifest", []string{"/", "/index.html", "/manifest.json"})
	v.SetDefault("offline.install_policy", "best-effort")
	v.SetDefault("offline.backend", "badger")
	v.SetDefault("offline.cache_dir", "")
	v.SetDefault("offline.addr", ":8090")
	v.SetDefault("offline.fetch_timeout", 15*time.Second)
	v.SetDefault("offline.redis.addr", "localhost:6379")
	v.SetDefault("offline.redis.password", "")
	v.SetDefault("offline.redis.db", 0)
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".tractorlog"
	}
	return filepath.Join(home, ".tractorlog")
}

func (c *Config) fillDerived() {
	if c.DBPath == "" {
		c.DBPath = filepath.Join(c.DataDir, "tractorlog.db")
	}
	if c.Offline.CacheDir == "" {
		c.Offline.CacheDir = filepath.Join(c.DataDir, "cache")
	}
}

// Validate rejects settings the binary cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.StorageKey == "" {
		errs = append(errs, errors.New("storage_key must not be empty"))
	}
	if c.DefaultHourlyRate <= 0 {
		errs = append(errs, fmt.Errorf("default_hourly_rate must be positive, got %d", c.DefaultHourlyRate))
	}
	if c.Offline.Version == "" {
		errs = append(errs, errors.New("offline.version must not be empty"))
	}
	switch c.Offline.InstallPolicy {
	case "best-effort", "strict":
	default:
		errs = append(errs, fmt.Errorf("offline.install_policy must be best-effort or strict, got %q", c.Offline.InstallPolicy))
	}
	switch c.Offline.Backend {
	case "badger", "memory", "redis":
	default:
		errs = append(errs, fmt.Errorf("offline.backend must be badger, memory or redis, got %q", c.Offline.Backend))
	}
	return errors.Join(errs...)
}

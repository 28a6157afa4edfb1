// Package config loads server settings from a .env file, an optional TOML or
// YAML file and the process environment, in that order of precedence from
// lowest to highest.
package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

var (
	ErrUnknownFormat = errors.New("unknown config file format")
	ErrInvalid       = errors.New("invalid config")
)

type Config struct {
	Port      string `toml:"port" yaml:"port"`
	WebRoot   string `toml:"web_root" yaml:"web_root"`
	IndexFile string `toml:"index_file" yaml:"index_file"`
	// MaxConns caps concurrent connections on the static listener; 0 means
	// unlimited.
	MaxConns int `toml:"max_conns" yaml:"max_conns"`
	// Freshness selects the If-Modified-Since comparator: "exact" or
	// "rfc7232".
	Freshness    string            `toml:"freshness" yaml:"freshness"`
	DefaultType  string            `toml:"default_type" yaml:"default_type"`
	ContentTypes map[string]string `toml:"content_types" yaml:"content_types"`

	AdminPort string `toml:"admin_port" yaml:"admin_port"`
	Platform  string `toml:"platform" yaml:"platform"`

	// Secrets are only read from the environment.
	DBURL             string `toml:"-" yaml:"-"`
	JWTSecret         string `toml:"-" yaml:"-"`
	AdminPasswordHash string `toml:"-" yaml:"-"`
}

func Default() Config {
	return Config{
		Port:      "8000",
		WebRoot:   ".",
		IndexFile: "index.html",
		Freshness: "exact",
		Platform:  "prod",
	}
}

// Load reads envFile (a missing file is only logged), then the file named by
// path or, when path is empty, by CONFIG_FILE, then the environment.
func Load(envFile, path string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			log.Printf("No %s file found or error loading it: %v", envFile, err)
		}
	}

	cfg := Default()
	if path == "" {
		path = os.Getenv("CONFIG_FILE")
	}
	if path != "" {
		if err := LoadFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}
	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadFile decodes a TOML or YAML file over cfg, picking the decoder by
// extension.
func LoadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return fmt.Errorf("decode %s: %w", path, err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("decode %s: %w", path, err)
		}
	default:
		return fmt.Errorf("%w: %s", ErrUnknownFormat, path)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	strs := map[string]*string{
		"PORT":                &cfg.Port,
		"WEB_ROOT":            &cfg.WebRoot,
		"INDEX_FILE":          &cfg.IndexFile,
		"FRESHNESS":           &cfg.Freshness,
		"DEFAULT_TYPE":        &cfg.DefaultType,
		"ADMIN_PORT":          &cfg.AdminPort,
		"PLATFORM":            &cfg.Platform,
		"DB_URL":              &cfg.DBURL,
		"JWT_SECRET":          &cfg.JWTSecret,
		"ADMIN_PASSWORD_HASH": &cfg.AdminPasswordHash,
	}
	for key, dst := range strs {
		if v, ok := os.LookupEnv(key); ok {
			*dst = v
		}
	}

	if v, ok := os.LookupEnv("MAX_CONNS"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: MAX_CONNS=%q", ErrInvalid, v)
		}
		cfg.MaxConns = n
	}
	return nil
}

func (c Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("%w: port is required", ErrInvalid)
	}
	if c.MaxConns < 0 {
		return fmt.Errorf("%w: max_conns must not be negative", ErrInvalid)
	}
	switch c.Freshness {
	case "", "exact", "rfc7232":
	default:
		return fmt.Errorf("%w: unknown freshness mode %q", ErrInvalid, c.Freshness)
	}
	if c.AdminPort != "" && c.AdminPort == c.Port {
		return fmt.Errorf("%w: admin_port must differ from port", ErrInvalid)
	}
	return nil
}

func (c Config) AdminEnabled() bool {
	return c.AdminPort != ""
}

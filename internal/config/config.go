// Package config loads runtime settings for the server and the CLI.
//
// Values are applied in three layers, later layers winning:
//
//  1. LoadDefaults: development defaults
//  2. an optional YAML file (--config)
//  3. environment variables, named after the YAML keys in SCREAMING_SNAKE
//     form (db_path -> DB_PATH, github_client_id -> GITHUB_CLIENT_ID)
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/iancoleman/strcase"
	"gopkg.in/yaml.v3"
)

// minSecretLen matches the minimum the token service and sealer accept.
const minSecretLen = 16

// Config holds every setting the application reads.
//
// Fields:
//   - JWTSecret: HMAC key for session tokens (HS256). Required to serve.
//   - CredentialKey: key that seals stored GitHub tokens. Falls back to JWTSecret.
//   - GitHubAPIURL: base URL of the REST API used for profile sync.
//   - ProviderTimeout: the only deadline on a profile fetch.
type Config struct {
	Port             int           `yaml:"port"`
	DBPath           string        `yaml:"db_path"`
	DBConnectTimeout time.Duration `yaml:"db_connect_timeout"`
	LogLevel         string        `yaml:"log_level"`

	JWTSecret     string        `yaml:"jwt_secret"`
	TokenTTL      time.Duration `yaml:"token_ttl"`
	CredentialKey string        `yaml:"credential_key"`
	SecureCookies bool          `yaml:"secure_cookies"`

	GitHubClientID     string        `yaml:"github_client_id"`
	GitHubClientSecret string        `yaml:"github_client_secret"`
	GitHubCallbackURL  string        `yaml:"github_callback_url"`
	GitHubAPIURL       string        `yaml:"github_api_url"`
	ProviderTimeout    time.Duration `yaml:"provider_timeout"`
}

// LoadDefaults populates Config with development defaults.
// JWTSecret has no default: a server must be given one.
func (c *Config) LoadDefaults() {
	c.Port = 8080
	c.DBPath = "data/refactorium.db"
	c.DBConnectTimeout = 10 * time.Second
	c.LogLevel = "info"
	c.TokenTTL = 24 * time.Hour
	c.GitHubAPIURL = "https://api.github.com"
	c.ProviderTimeout = 10 * time.Second
}

// Load builds a Config from defaults, the YAML file at path (skipped when
// path is empty) and the environment as seen through lookup.
// Pass os.LookupEnv in production.
func Load(path string, lookup func(string) (string, bool)) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.loadEnv(lookup); err != nil {
		return nil, err
	}

	if cfg.GitHubCallbackURL == "" {
		cfg.GitHubCallbackURL = fmt.Sprintf("http://localhost:%d/auth/github/callback", cfg.Port)
	}
	if cfg.CredentialKey == "" {
		cfg.CredentialKey = cfg.JWTSecret
	}

	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("config: opening %s: %w", path, err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil {
		return fmt.Errorf("config: parsing %s: %w", path, err)
	}
	return nil
}

// envSetters maps each YAML key to a parser writing into c.
func (c *Config) envSetters() map[string]func(string) error {
	return map[string]func(string) error{
		"port":                 intVar(&c.Port),
		"db_path":              stringVar(&c.DBPath),
		"db_connect_timeout":   durationVar(&c.DBConnectTimeout),
		"log_level":            stringVar(&c.LogLevel),
		"jwt_secret":           stringVar(&c.JWTSecret),
		"token_ttl":            durationVar(&c.TokenTTL),
		"credential_key":       stringVar(&c.CredentialKey),
		"secure_cookies":       boolVar(&c.SecureCookies),
		"github_client_id":     stringVar(&c.GitHubClientID),
		"github_client_secret": stringVar(&c.GitHubClientSecret),
		"github_callback_url":  stringVar(&c.GitHubCallbackURL),
		"github_api_url":       stringVar(&c.GitHubAPIURL),
		"provider_timeout":     durationVar(&c.ProviderTimeout),
	}
}

// EnvName returns the environment variable that overrides a YAML key.
func EnvName(key string) string {
	return strcase.ToScreamingSnake(key)
}

func (c *Config) loadEnv(lookup func(string) (string, bool)) error {
	if lookup == nil {
		return nil
	}

	var errs []error
	for key, set := range c.envSetters() {
		name := EnvName(key)
		v, ok := lookup(name)
		if !ok || v == "" {
			continue
		}
		if err := set(v); err != nil {
			errs = append(errs, fmt.Errorf("config: %s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

// Validate checks the settings a running server depends on.
// Offline commands (migrate, seed) do not call it.
func (c *Config) Validate() error {
	var errs []error
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d out of range", c.Port))
	}
	if c.DBPath == "" {
		errs = append(errs, errors.New("db_path is required"))
	}
	if len(c.JWTSecret) < minSecretLen {
		errs = append(errs, fmt.Errorf("jwt_secret must be at least %d characters", minSecretLen))
	}
	if len(c.CredentialKey) < minSecretLen {
		errs = append(errs, fmt.Errorf("credential_key must be at least %d characters", minSecretLen))
	}
	if c.ProviderTimeout <= 0 {
		errs = append(errs, errors.New("provider_timeout must be positive"))
	}
	if _, err := c.SlogLevel(); err != nil {
		errs = append(errs, err)
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// SlogLevel parses LogLevel ("debug", "info", "warn", "error").
func (c *Config) SlogLevel() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(c.LogLevel))); err != nil {
		return slog.LevelInfo, fmt.Errorf("log_level %q: %w", c.LogLevel, err)
	}
	return lvl, nil
}

// OAuthEnabled reports whether the GitHub login routes can be served.
func (c *Config) OAuthEnabled() bool {
	return c.GitHubClientID != "" && c.GitHubClientSecret != ""
}

func stringVar(dst *string) func(string) error {
	return func(v string) error {
		*dst = v
		return nil
	}
}

func intVar(dst *int) func(string) error {
	return func(v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		*dst = n
		return nil
	}
}

func boolVar(dst *bool) func(string) error {
	return func(v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return err
		}
		*dst = b
		return nil
	}
}

func durationVar(dst *time.Duration) func(string) error {
	return func(v string) error {
		d, err := time.ParseDuration(v)
		if err != nil {
			return err
		}
		*dst = d
		return nil
	}
}

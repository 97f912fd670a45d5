// Package config holds the run configuration passed to every stage.
package config

import (
	"errors"
	"flag"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all converter configuration.
type Config struct {
	ManifestPath string
	OutputDir    string
	CompilerPath string
	SkipCompile  bool
	Workers      int // 0 runs one worker per source

	StripLeadingDot bool
	SuffixDot       bool

	GeoIPDB      string // path or URL, empty disables GEOIP expansion
	CachePath    string
	CacheTTL     time.Duration
	FetchTimeout time.Duration

	LogLevel string
	LogJSON  bool
	Listen   string // serve over HTTP instead of running the batch
}

// Load reads a .env file when present, then environment variables with
// sensible defaults.
func Load() Config {
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv reads configuration from environment variables only.
func FromEnv() Config {
	return Config{
		ManifestPath:    getenv("RULESET_MANIFEST", "../source.txt"),
		OutputDir:       getenv("RULESET_OUTPUT_DIR", "./"),
		CompilerPath:    getenv("RULESET_COMPILER", "sing-box"),
		SkipCompile:     getenvBool("RULESET_SKIP_COMPILE", false),
		Workers:         getenvInt("RULESET_WORKERS", 0),
		StripLeadingDot: getenvBool("RULESET_STRIP_LEADING_DOT", true),
		SuffixDot:       getenvBool("RULESET_SUFFIX_DOT", false),
		GeoIPDB:         os.Getenv("RULESET_GEOIP_DB"),
		CachePath:       os.Getenv("RULESET_CACHE_PATH"),
		CacheTTL:        getenvDuration("RULESET_CACHE_TTL", 0),
		FetchTimeout:    getenvDuration("RULESET_FETCH_TIMEOUT", 60*time.Second),
		LogLevel:        getenv("RULESET_LOG_LEVEL", "info"),
		LogJSON:         getenvBool("RULESET_LOG_JSON", false),
		Listen:          os.Getenv("RULESET_LISTEN"),
	}
}

// RegisterFlags binds command-line flags to cfg, using its current values as
// defaults so flags override the environment.
func (c *Config) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.ManifestPath, "manifest", c.ManifestPath, "File listing one source per line")
	fs.StringVar(&c.OutputDir, "out", c.OutputDir, "Directory for rule-set documents")
	fs.StringVar(&c.CompilerPath, "compiler", c.CompilerPath, "Rule-set compiler binary")
	fs.BoolVar(&c.SkipCompile, "skip-compile", c.SkipCompile, "Only write JSON documents")
	fs.IntVar(&c.Workers, "workers", c.Workers, "Concurrent sources (0 = one per source)")
	fs.BoolVar(&c.StripLeadingDot, "strip-leading-dot", c.StripLeadingDot, "Strip a '.' following the suffix marker of untagged tokens")
	fs.BoolVar(&c.SuffixDot, "suffix-dot", c.SuffixDot, "Emit domain_suffix values with a leading '.'")
	fs.StringVar(&c.GeoIPDB, "geoip-db", c.GeoIPDB, "MaxMind database path or URL for GEOIP expansion")
	fs.StringVar(&c.CachePath, "cache-path", c.CachePath, "Source cache persistence file path (optional)")
	fs.DurationVar(&c.CacheTTL, "cache-ttl", c.CacheTTL, "Serve cached sources without revalidation for this long")
	fs.DurationVar(&c.FetchTimeout, "fetch-timeout", c.FetchTimeout, "Timeout for one source download")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "Log level: debug, info, warn, error")
	fs.BoolVar(&c.LogJSON, "log-json", c.LogJSON, "Log as JSON")
	fs.StringVar(&c.Listen, "listen", c.Listen, "Serve conversions over HTTP on this address")
}

// Validate reports configuration that cannot run.
func (c Config) Validate() error {
	if c.Workers < 0 {
		return errors.New("workers must not be negative")
	}
	if c.OutputDir == "" && c.Listen == "" {
		return errors.New("output dir is required")
	}
	if c.CompilerPath == "" && !c.SkipCompile && c.Listen == "" {
		return errors.New("compiler path is required unless compilation is skipped")
	}
	if c.FetchTimeout <= 0 {
		return errors.New("fetch timeout must be positive")
	}
	return nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getenvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

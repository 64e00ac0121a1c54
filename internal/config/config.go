// Package config assembles server configuration from flags, environment and an optional .env file.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store backends.
const (
	StoreFile     = "file"
	StorePostgres = "postgres"
)

// Defaults.
const (
	DefaultPort     = 3001
	DefaultDataFile = "data/data.json"
	DefaultMaxBody  = 10 << 20
)

// DefaultAllowedOrigins are the two local frontend addresses.
var DefaultAllowedOrigins = []string{"http://localhost:3000", "http://127.0.0.1:3000"}

// Config is the server configuration.
type Config struct {
	Addr            string
	Store           string
	DataFile        string
	DatabaseURL     string
	Document        string
	AllowedOrigins  []string
	MaxBodyBytes    int64
	Strict          bool
	HealthAddr      string
	HealthInterval  time.Duration
	ShutdownTimeout time.Duration
	Dev             bool
}

// LoadDotEnv loads KEY=VALUE pairs from files into the process environment
// without overriding variables that are already set. Missing files are skipped.
func LoadDotEnv(files ...string) error {
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// Load parses args (without the program name). Flags win over environment
// variables, which win over defaults.
func Load(args []string, getenv func(string) string) (Config, error) {
	var cfg Config

	port := DefaultPort
	if v := getenv("PORT"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil || p <= 0 || p > 65535 {
			return cfg, fmt.Errorf("invalid PORT %q", v)
		}
		port = p
	}
	maxBody := int64(DefaultMaxBody)
	if v := getenv("MAX_BODY_BYTES"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n <= 0 {
			return cfg, fmt.Errorf("invalid MAX_BODY_BYTES %q", v)
		}
		maxBody = n
	}
	strict := false
	if v := getenv("STRICT_VALIDATION"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return cfg, fmt.Errorf("invalid STRICT_VALIDATION %q", v)
		}
		strict = b
	}
	origins := DefaultAllowedOrigins
	if v := getenv("ALLOWED_ORIGINS"); v != "" {
		origins = splitList(v)
	}

	flags := flag.NewFlagSet("eco-server", flag.ContinueOnError)
	flags.SetOutput(io.Discard)
	flags.StringVar(&cfg.Addr, "addr", fmt.Sprintf(":%d", port), "listen address")
	flags.StringVar(&cfg.Store, "store", orDefault(getenv("STORE"), StoreFile), "storage backend: file|postgres")
	flags.StringVar(&cfg.DataFile, "data", orDefault(getenv("DATA_FILE"), DefaultDataFile), "JSON data file (file store)")
	flags.StringVar(&cfg.DatabaseURL, "dsn", getenv("DATABASE_URL"), "PostgreSQL DSN (postgres store)")
	flags.StringVar(&cfg.Document, "document", orDefault(getenv("DOCUMENT_NAME"), "actions"), "document row name (postgres store)")
	originsFlag := flags.String("origins", strings.Join(origins, ","), "comma-separated allowed CORS origins")
	flags.Int64Var(&cfg.MaxBodyBytes, "max-body", maxBody, "max request body size in bytes")
	flags.BoolVar(&cfg.Strict, "strict", strict, "enforce entry form rules on the server")
	flags.StringVar(&cfg.HealthAddr, "health-addr", getenv("HEALTH_ADDR"), "gRPC health listen address (empty disables)")
	flags.DurationVar(&cfg.HealthInterval, "health-interval", 15*time.Second, "store probe interval")
	flags.DurationVar(&cfg.ShutdownTimeout, "shutdown-timeout", 5*time.Second, "graceful shutdown timeout")
	flags.BoolVar(&cfg.Dev, "dev", false, "development logging and gRPC reflection")
	if err := flags.Parse(args); err != nil {
		return cfg, err
	}
	cfg.AllowedOrigins = splitList(*originsFlag)

	switch cfg.Store {
	case StoreFile:
		if cfg.DataFile == "" {
			return cfg, errors.New("file store needs a data file path")
		}
	case StorePostgres:
		if cfg.DatabaseURL == "" {
			return cfg, errors.New("postgres store needs DATABASE_URL or -dsn")
		}
	default:
		return cfg, fmt.Errorf("unknown store %q", cfg.Store)
	}
	if cfg.MaxBodyBytes <= 0 {
		return cfg, errors.New("max-body must be positive")
	}
	if cfg.HealthInterval <= 0 {
		return cfg, errors.New("health-interval must be positive")
	}
	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

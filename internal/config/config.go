// Package config handles configuration for the server: defaults,
// environment variables, and command-line flags, in that order of
// precedence (flags win).
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/maryamfad/atlas-ecommerce-backend/internal/flagx"
)

// ErrMissingSecret indicates that no JWT signing secret was provided.
// The server must refuse to start without one.
var ErrMissingSecret = errors.New("JWT secret is not configured")

// Config holds runtime settings for the auth server.
//
// Fields:
//   - Address: bind address for the HTTP endpoint.
//   - DatabasePath: SQLite database file for the user store.
//   - RevocationPath: BoltDB file for the durable revocation registry;
//     empty selects the in-memory registry.
//   - JWTSecret: HMAC secret for signing tokens (HS256). Required.
//   - TokenTTL: access token lifetime.
//   - BcryptCost: password hashing work factor.
//   - LogLevel: debug, info, warn or error.
type Config struct {
	Address        string
	DatabasePath   string
	RevocationPath string
	JWTSecret      string
	TokenTTL       time.Duration
	BcryptCost     int
	LogLevel       string
}

// LoadDefaults populates Config with development defaults.
// The JWT secret has no default: it must come from the environment or
// a flag.
func (c *Config) LoadDefaults() {
	c.Address = ":8080"
	c.DatabasePath = "atlas.db"
	c.RevocationPath = ""
	c.TokenTTL = time.Hour
	c.BcryptCost = bcrypt.DefaultCost
	c.LogLevel = "info"
}

// Load builds a Config by applying defaults, then overlaying values
// from environment variables and finally from command-line flags.
// Returns ErrMissingSecret when no signing secret was provided.
func Load() (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseEnv(cfg); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, os.Args[1:]); err != nil {
		return nil, err
	}

	if cfg.JWTSecret == "" {
		return nil, ErrMissingSecret
	}

	return cfg, nil
}

// parseEnv overlays Config fields from environment variables:
//
//	ADDRESS          HTTP bind address
//	DATABASE_PATH    SQLite file for the user store
//	REVOCATION_PATH  BoltDB file for the revocation registry
//	JWT_SECRET       token signing secret
//	TOKEN_TTL        token lifetime (Go duration, e.g. "1h")
//	LOG_LEVEL        log level
func parseEnv(cfg *Config) error {
	if v, ok := os.LookupEnv("ADDRESS"); ok {
		cfg.Address = v
	}
	if v, ok := os.LookupEnv("DATABASE_PATH"); ok {
		cfg.DatabasePath = v
	}
	if v, ok := os.LookupEnv("REVOCATION_PATH"); ok {
		cfg.RevocationPath = v
	}
	if v, ok := os.LookupEnv("JWT_SECRET"); ok {
		cfg.JWTSecret = v
	}
	if v, ok := os.LookupEnv("TOKEN_TTL"); ok {
		ttl, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid TOKEN_TTL: %w", err)
		}
		cfg.TokenTTL = ttl
	}
	if v, ok := os.LookupEnv("BCRYPT_COST"); ok {
		cost, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid BCRYPT_COST: %w", err)
		}
		cfg.BcryptCost = cost
	}
	if v, ok := os.LookupEnv("LOG_LEVEL"); ok {
		cfg.LogLevel = v
	}
	return nil
}

// parseFlags overlays Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string     HTTP bind address (e.g. ":8080")
//	-d string     SQLite database path for the user store
//	-b string     BoltDB path for the revocation registry
//	-s string     JWT signing secret
//	-t duration   token lifetime (e.g. "1h")
//	-l string     log level
func parseFlags(cfg *Config, args []string) error {
	// Only the flags handled here; -version belongs to main
	args = flagx.FilterArgs(args, []string{"-a", "-d", "-b", "-s", "-t", "-l"})

	fs := flag.NewFlagSet("server", flag.ContinueOnError)

	fs.StringVar(&cfg.Address, "a", cfg.Address, "address and port to run server")
	fs.StringVar(&cfg.DatabasePath, "d", cfg.DatabasePath, "SQLite database path")
	fs.StringVar(&cfg.RevocationPath, "b", cfg.RevocationPath, "revocation registry path (empty = in-memory)")
	fs.StringVar(&cfg.JWTSecret, "s", cfg.JWTSecret, "JWT signing secret")
	fs.DurationVar(&cfg.TokenTTL, "t", cfg.TokenTTL, "access token time-to-live")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level (debug, info, warn, error)")

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("failed to parse flags: %w", err)
	}

	return nil
}

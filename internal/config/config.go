// Package config provides functionality for managing configuration options
// for the application using a config file, command-line flags and
// environment variables.
package config

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Storage backends.
const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

// DefaultSessionTTL is the lifetime of a session and of its cookie.
const DefaultSessionTTL = 30 * 24 * time.Hour

// Options holds the configuration values for the application.
type Options struct {
	// Address defines the server's listening address (ip:port).
	Address string

	// Storage selects the persistence backend: "postgres" or "memory".
	Storage string
	// DatabaseDSN holds the database connection string for the application.
	DatabaseDSN string
	// DatabaseDriver is the database/sql driver name: "postgres" (lib/pq) or "pgx".
	DatabaseDriver string

	// LogLevel is the minimum zap level.
	LogLevel string

	// SessionTTL is how long a session stays valid after login.
	SessionTTL time.Duration
	// SessionCleanupInterval is the period of the expired-session sweeper; 0 disables it.
	SessionCleanupInterval time.Duration
	// CookieSecure marks the session cookie Secure.
	CookieSecure bool
	// ConcealForeignResources reports another user's resource as not found
	// instead of forbidden.
	ConcealForeignResources bool
	// BcryptCost is the bcrypt work factor for new password hashes.
	BcryptCost int

	// TLSCert and TLSKey enable HTTPS when both are set.
	TLSCert string
	TLSKey  string
	// TLSSelfSigned generates a development certificate at TLSCert/TLSKey if missing.
	TLSSelfSigned bool

	// Config is the path to the config file.
	Config string
}

// fileOptions is the on-disk shape of the config file. Durations are
// strings such as "720h".
type fileOptions struct {
	Address                 *string `json:"address" yaml:"address"`
	Storage                 *string `json:"storage" yaml:"storage"`
	DatabaseDSN             *string `json:"database_dsn" yaml:"database_dsn"`
	DatabaseDriver          *string `json:"database_driver" yaml:"database_driver"`
	LogLevel                *string `json:"log_level" yaml:"log_level"`
	SessionTTL              *string `json:"session_ttl" yaml:"session_ttl"`
	SessionCleanupInterval  *string `json:"session_cleanup_interval" yaml:"session_cleanup_interval"`
	CookieSecure            *bool   `json:"cookie_secure" yaml:"cookie_secure"`
	ConcealForeignResources *bool   `json:"conceal_foreign_resources" yaml:"conceal_foreign_resources"`
	BcryptCost              *int    `json:"bcrypt_cost" yaml:"bcrypt_cost"`
	TLSCert                 *string `json:"tls_cert" yaml:"tls_cert"`
	TLSKey                  *string `json:"tls_key" yaml:"tls_key"`
	TLSSelfSigned           *bool   `json:"tls_self_signed" yaml:"tls_self_signed"`
}

// Defaults returns the built-in configuration.
func Defaults() *Options {
	return &Options{
		Address:                "localhost:8080",
		Storage:                StoragePostgres,
		DatabaseDriver:         "postgres",
		LogLevel:               "info",
		SessionTTL:             DefaultSessionTTL,
		SessionCleanupInterval: time.Hour,
		BcryptCost:             10,
		Config:                 "config.json",
	}
}

// Parse reads the process arguments and environment. It exits the process
// on invalid configuration.
func Parse() *Options {
	opts, err := ParseArgs(os.Args[1:], os.Getenv)
	if err != nil {
		log.Fatalf("error while parsing configuration: %v", err)
	}
	return opts
}

// ParseArgs builds Options from defaults, then the config file, then flags,
// then environment variables, each layer overriding the previous one.
func ParseArgs(args []string, getenv func(string) string) (*Options, error) {
	opts := Defaults()

	if p := configPathFromArgs(args); p != "" {
		opts.Config = p
	}
	if p := getenv("CONFIG"); p != "" {
		opts.Config = p
	}
	if opts.Config != "" {
		if _, err := os.Stat(opts.Config); err == nil {
			if err := loadFile(opts.Config, opts); err != nil {
				return nil, err
			}
		}
	}

	fs := flag.NewFlagSet("timeledger", flag.ContinueOnError)
	fs.StringVar(&opts.Address, "a", opts.Address, "run on ip:port server")
	fs.StringVar(&opts.DatabaseDSN, "d", opts.DatabaseDSN, "db address")
	fs.StringVar(&opts.DatabaseDriver, "driver", opts.DatabaseDriver, "database driver: postgres or pgx")
	fs.StringVar(&opts.Storage, "storage", opts.Storage, "storage backend: postgres or memory")
	fs.StringVar(&opts.LogLevel, "l", opts.LogLevel, "log level")
	fs.DurationVar(&opts.SessionTTL, "session-ttl", opts.SessionTTL, "session lifetime")
	fs.DurationVar(&opts.SessionCleanupInterval, "session-cleanup", opts.SessionCleanupInterval, "expired session sweep interval, 0 disables")
	fs.BoolVar(&opts.CookieSecure, "cookie-secure", opts.CookieSecure, "mark session cookie Secure")
	fs.BoolVar(&opts.ConcealForeignResources, "conceal-foreign", opts.ConcealForeignResources, "report other users' resources as not found")
	fs.IntVar(&opts.BcryptCost, "bcrypt-cost", opts.BcryptCost, "bcrypt cost")
	fs.StringVar(&opts.TLSCert, "tls-cert", opts.TLSCert, "TLS certificate file")
	fs.StringVar(&opts.TLSKey, "tls-key", opts.TLSKey, "TLS key file")
	fs.BoolVar(&opts.TLSSelfSigned, "tls-self-signed", opts.TLSSelfSigned, "generate a self-signed certificate if missing")
	fs.StringVar(&opts.Config, "config", opts.Config, "path to config file")
	fs.StringVar(&opts.Config, "c", opts.Config, "path to config file (shorthand)")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if err := applyEnv(opts, getenv); err != nil {
		return nil, err
	}

	if err := opts.validate(); err != nil {
		return nil, err
	}
	return opts, nil
}

func (o *Options) validate() error {
	switch o.Storage {
	case StoragePostgres:
		if o.DatabaseDSN == "" {
			return fmt.Errorf("database dsn is required for %s storage", o.Storage)
		}
	case StorageMemory:
	default:
		return fmt.Errorf("unknown storage %q", o.Storage)
	}
	switch o.DatabaseDriver {
	case "postgres", "pgx":
	default:
		return fmt.Errorf("unknown database driver %q", o.DatabaseDriver)
	}
	if o.SessionTTL <= 0 {
		return fmt.Errorf("session ttl must be positive, got %s", o.SessionTTL)
	}
	if (o.TLSCert == "") != (o.TLSKey == "") {
		return fmt.Errorf("tls cert and key must be set together")
	}
	return nil
}

func applyEnv(opts *Options, getenv func(string) string) error {
	if v := getenv("SERVER_ADDRESS"); v != "" {
		opts.Address = v
	}
	if v := getenv("DATABASE_DSN"); v != "" {
		opts.DatabaseDSN = v
	}
	if v := getenv("DATABASE_DRIVER"); v != "" {
		opts.DatabaseDriver = v
	}
	if v := getenv("STORAGE"); v != "" {
		opts.Storage = v
	}
	if v := getenv("LOG_LEVEL"); v != "" {
		opts.LogLevel = v
	}
	if v := getenv("SESSION_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("SESSION_TTL: %w", err)
		}
		opts.SessionTTL = d
	}
	if v := getenv("COOKIE_SECURE"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("COOKIE_SECURE: %w", err)
		}
		opts.CookieSecure = b
	}
	return nil
}

func loadFile(path string, opts *Options) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	var fo fileOptions
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &fo)
	default:
		err = json.Unmarshal(data, &fo)
	}
	if err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}

	setString(&opts.Address, fo.Address)
	setString(&opts.Storage, fo.Storage)
	setString(&opts.DatabaseDSN, fo.DatabaseDSN)
	setString(&opts.DatabaseDriver, fo.DatabaseDriver)
	setString(&opts.LogLevel, fo.LogLevel)
	setString(&opts.TLSCert, fo.TLSCert)
	setString(&opts.TLSKey, fo.TLSKey)
	if fo.CookieSecure != nil {
		opts.CookieSecure = *fo.CookieSecure
	}
	if fo.ConcealForeignResources != nil {
		opts.ConcealForeignResources = *fo.ConcealForeignResources
	}
	if fo.TLSSelfSigned != nil {
		opts.TLSSelfSigned = *fo.TLSSelfSigned
	}
	if fo.BcryptCost != nil {
		opts.BcryptCost = *fo.BcryptCost
	}
	if err := setDuration(&opts.SessionTTL, fo.SessionTTL); err != nil {
		return fmt.Errorf("session_ttl: %w", err)
	}
	if err := setDuration(&opts.SessionCleanupInterval, fo.SessionCleanupInterval); err != nil {
		return fmt.Errorf("session_cleanup_interval: %w", err)
	}
	return nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setDuration(dst *time.Duration, v *string) error {
	if v == nil {
		return nil
	}
	d, err := time.ParseDuration(*v)
	if err != nil {
		return err
	}
	*dst = d
	return nil
}

// configPathFromArgs finds -c/-config ahead of full flag parsing so the file
// layer can sit below the flags.
func configPathFromArgs(args []string) string {
	for i := 0; i < len(args); i++ {
		name := strings.TrimLeft(args[i], "-")
		if name == args[i] {
			continue
		}
		if k, v, ok := strings.Cut(name, "="); ok {
			if k == "c" || k == "config" {
				return v
			}
			continue
		}
		if (name == "c" || name == "config") && i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}

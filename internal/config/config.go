package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DriverSQLServer = "sqlserver"
	DriverPostgres  = "postgres"
	DriverSQLite    = "sqlite"

	DefaultTable          = "Users"
	DefaultConnectTimeout = 30 * time.Second
)

type Config struct {
	Driver                  string     `yaml:"driver"`
	DatabaseURL             string     `yaml:"database_url"`
	Connection              Connection `yaml:"connection"`
	Table                   string     `yaml:"table"`
	ActivityLog             bool       `yaml:"activity_log"`
	ClearVerificationTokens bool       `yaml:"clear_verification_tokens"`
}

// Connection describes the database endpoint when no database_url is given.
// Encrypt and TrustServerCertificate are pointers so that an absent key keeps
// the secure default rather than the zero value.
type Connection struct {
	Host                   string `yaml:"host"`
	Port                   string `yaml:"port"`
	Database               string `yaml:"database"`
	User                   string `yaml:"user"`
	Password               string `yaml:"password"`
	Encrypt                *bool  `yaml:"encrypt"`
	TrustServerCertificate *bool  `yaml:"trust_server_certificate"`
	ConnectTimeout         string `yaml:"connect_timeout"`
}

type Flags struct {
	URL    string
	Driver string
	Table  string
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.Driver = expandEnv(cfg.Driver)
	cfg.DatabaseURL = expandEnv(cfg.DatabaseURL)
	cfg.Table = expandEnv(cfg.Table)
	cfg.Connection.Host = expandEnv(cfg.Connection.Host)
	cfg.Connection.Port = expandEnv(cfg.Connection.Port)
	cfg.Connection.Database = expandEnv(cfg.Connection.Database)
	cfg.Connection.User = expandEnv(cfg.Connection.User)
	cfg.Connection.Password = expandEnv(cfg.Connection.Password)
	cfg.Connection.ConnectTimeout = expandEnv(cfg.Connection.ConnectTimeout)

	return &cfg, nil
}

// LoadOrDefault loads path, or returns an empty Config when the file does not exist.
func LoadOrDefault(path string) (*Config, error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return &Config{}, nil
	}
	return Load(path)
}

// LoadDotEnv reads KEY=VALUE pairs from the given files into the process
// environment without overriding variables that are already set.
// Missing files are skipped.
func LoadDotEnv(paths ...string) error {
	for _, p := range paths {
		if _, err := os.Stat(p); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}
	return nil
}

func (c *Config) GetDriver(flags *Flags) (string, error) {
	driver := DriverSQLServer
	if c.Driver != "" {
		driver = c.Driver
	}
	if flags != nil && flags.Driver != "" {
		driver = flags.Driver
	}

	switch strings.ToLower(driver) {
	case DriverSQLServer, "mssql":
		return DriverSQLServer, nil
	case DriverPostgres, "postgresql", "pgx":
		return DriverPostgres, nil
	case DriverSQLite, "sqlite3":
		return DriverSQLite, nil
	}
	return "", fmt.Errorf("unsupported driver %q (want sqlserver, postgres or sqlite)", driver)
}

func (c *Config) GetTable(flags *Flags) string {
	if flags != nil && flags.Table != "" {
		return flags.Table
	}
	if c.Table != "" {
		return c.Table
	}
	return DefaultTable
}

func (c *Config) GetConnectTimeout() (time.Duration, error) {
	if c.Connection.ConnectTimeout == "" {
		return DefaultConnectTimeout, nil
	}
	if secs, err := strconv.Atoi(c.Connection.ConnectTimeout); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(c.Connection.ConnectTimeout)
	if err != nil {
		return 0, fmt.Errorf("invalid connect_timeout %q: %w", c.Connection.ConnectTimeout, err)
	}
	return d, nil
}

// GetDatabaseURL resolves the DSN in priority order: --url flag, database_url,
// the connection block, then the DATABASE_URL environment variable.
func (c *Config) GetDatabaseURL(flags *Flags) (string, error) {
	if flags != nil && flags.URL != "" {
		return flags.URL, nil
	}
	if c.DatabaseURL != "" {
		return c.DatabaseURL, nil
	}
	if c.Connection.Host != "" || c.Connection.Database != "" {
		driver, err := c.GetDriver(flags)
		if err != nil {
			return "", err
		}
		return c.DSN(driver)
	}
	if env := os.Getenv("DATABASE_URL"); env != "" {
		return env, nil
	}
	return "", fmt.Errorf("database_url is required (set in config, pass --url flag, or export DATABASE_URL)")
}

// DSN builds a driver-specific connection string from the connection block.
func (c *Config) DSN(driver string) (string, error) {
	conn := c.Connection
	timeout, err := c.GetConnectTimeout()
	if err != nil {
		return "", err
	}
	encrypt := conn.Encrypt == nil || *conn.Encrypt
	trust := conn.TrustServerCertificate != nil && *conn.TrustServerCertificate

	switch driver {
	case DriverSQLServer:
		port := conn.Port
		if port == "" {
			port = "1433"
		}
		q := url.Values{}
		q.Set("database", conn.Database)
		q.Set("encrypt", strconv.FormatBool(encrypt))
		q.Set("TrustServerCertificate", strconv.FormatBool(trust))
		q.Set("connection timeout", strconv.Itoa(int(timeout/time.Second)))
		u := url.URL{
			Scheme:   "sqlserver",
			User:     url.UserPassword(conn.User, conn.Password),
			Host:     net.JoinHostPort(conn.Host, port),
			RawQuery: q.Encode(),
		}
		return u.String(), nil

	case DriverPostgres:
		port := conn.Port
		if port == "" {
			port = "5432"
		}
		sslmode := "disable"
		if encrypt {
			sslmode = "verify-full"
			if trust {
				sslmode = "require"
			}
		}
		q := url.Values{}
		q.Set("sslmode", sslmode)
		q.Set("connect_timeout", strconv.Itoa(int(timeout/time.Second)))
		u := url.URL{
			Scheme:   "postgres",
			User:     url.UserPassword(conn.User, conn.Password),
			Host:     net.JoinHostPort(conn.Host, port),
			Path:     "/" + conn.Database,
			RawQuery: q.Encode(),
		}
		return u.String(), nil

	case DriverSQLite:
		if conn.Database == "" {
			return "", fmt.Errorf("connection.database must name the sqlite file")
		}
		return conn.Database, nil
	}

	return "", fmt.Errorf("unsupported driver %q", driver)
}

// expandEnv substitutes every $VAR and ${VAR} reference in s; unset
// variables expand to the empty string.
func expandEnv(s string) string {
	return os.ExpandEnv(s)
}

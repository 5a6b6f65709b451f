package database

import (
	"fmt"
	"strings"

	"github.com/terminally-online/verifyusers/internal/config"
)

// Dialect captures the SQL differences between the supported servers.
type Dialect struct {
	Name       string
	DriverName string
	True       string
	False      string
	quoteOpen  string
	quoteClose string
	bind       func(n int) string
}

var dialects = map[string]Dialect{
	config.DriverSQLServer: {
		Name:       config.DriverSQLServer,
		DriverName: "sqlserver",
		True:       "1",
		False:      "0",
		quoteOpen:  "[",
		quoteClose: "]",
		bind:       func(n int) string { return fmt.Sprintf("@p%d", n) },
	},
	config.DriverPostgres: {
		Name:       config.DriverPostgres,
		DriverName: "pgx",
		True:       "TRUE",
		False:      "FALSE",
		quoteOpen:  `"`,
		quoteClose: `"`,
		bind:       func(n int) string { return fmt.Sprintf("$%d", n) },
	},
	config.DriverSQLite: {
		Name:       config.DriverSQLite,
		DriverName: "sqlite",
		True:       "1",
		False:      "0",
		quoteOpen:  `"`,
		quoteClose: `"`,
		bind:       func(int) string { return "?" },
	},
}

func DialectFor(driver string) (Dialect, error) {
	d, ok := dialects[driver]
	if !ok {
		return Dialect{}, fmt.Errorf("unsupported driver %q", driver)
	}
	return d, nil
}

// Quote quotes a possibly schema-qualified identifier such as dbo.Users.
func (d Dialect) Quote(ident string) string {
	parts := strings.Split(ident, ".")
	for i, p := range parts {
		escaped := strings.ReplaceAll(p, d.quoteClose, d.quoteClose+d.quoteClose)
		parts[i] = d.quoteOpen + escaped + d.quoteClose
	}
	return strings.Join(parts, ".")
}

// Bind returns the n-th (1-based) bind placeholder.
func (d Dialect) Bind(n int) string {
	return d.bind(n)
}

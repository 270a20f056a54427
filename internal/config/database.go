// internal/config/database.go
package config

import (
	"fmt"
	"strings"
)

const sqliteBusyTimeoutMs = 5000

func (d *DatabaseConfig) IsSQLite() bool {
	return d.Driver == "sqlite"
}

// DSN returns the connection string for the configured driver. sqlite
// paths get a busy timeout unless they already carry query options.
func (d *DatabaseConfig) DSN() string {
	if d.IsSQLite() {
		if strings.Contains(d.Path, "?") {
			return d.Path
		}
		return fmt.Sprintf("%s?_busy_timeout=%d", d.Path, sqliteBusyTimeoutMs)
	}

	pairs := []string{
		"host=" + d.Host,
		"port=" + d.Port,
		"user=" + d.User,
		"dbname=" + d.Database,
		"sslmode=" + d.SSLMode,
		"TimeZone=UTC",
	}
	if d.Password != "" {
		pairs = append(pairs, "password="+d.Password)
	}
	return strings.Join(pairs, " ")
}

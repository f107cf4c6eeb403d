package config

import (
	"github.com/spf13/viper"
)

// DatabaseConfig holds the event archive database configuration
type DatabaseConfig struct {
	Enabled bool
	URL     string
}

// NewDatabaseConfig creates a new database configuration using Viper
func NewDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		Enabled: viper.GetBool(DBEnabled),
		URL:     viper.GetString(DBURL),
	}
}

// GetConnectionString returns the PostgreSQL connection string
func (c DatabaseConfig) GetConnectionString() string {
	return c.URL
}

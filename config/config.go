package config

import (
	"strings"

	"github.com/spf13/viper"
)

// Config holds application configuration (env + Viper).
type Config struct {
	Env  string
	Port string

	// Driver selects the document store: memory, sqlite or postgres.
	Driver      string
	SQLitePath  string
	DatabaseURL string

	// RedisURL enables the shared geocode cache when set.
	RedisURL string
}

// Load loads config from env and an optional .env file.
func Load() (*Config, error) {
	viper.SetConfigFile(".env")
	_ = viper.ReadInConfig()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	port := viper.GetString("PORT")
	if port == "" {
		port = "8080"
	}
	env := viper.GetString("APP_ENV")
	if env == "" {
		env = "development"
	}
	driver := strings.ToLower(viper.GetString("DB_DRIVER"))
	if driver == "" {
		driver = "memory"
	}
	sqlitePath := viper.GetString("SQLITE_PATH")
	if sqlitePath == "" {
		sqlitePath = "wandergrid.db"
	}

	return &Config{
		Env:         env,
		Port:        port,
		Driver:      driver,
		SQLitePath:  sqlitePath,
		DatabaseURL: viper.GetString("DATABASE_URL"),
		RedisURL:    viper.GetString("REDIS_URL"),
	}, nil
}

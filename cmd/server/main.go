/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the WanderGrid workspace server. Handles
  configuration, store selection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration (flags override env/.env)
  2. Open the selected document store
  3. Build the API router
  4. Start the server with graceful shutdown

CONFIGURATION:
  PORT          HTTP server port (default: 8080)
  DB_DRIVER     memory | sqlite | postgres (default: memory)
  SQLITE_PATH   SQLite database path (default: wandergrid.db)
  DATABASE_URL  Postgres connection string (postgres driver)
  REDIS_URL     Optional shared geocode cache
  APP_ENV       development | production

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close the store
  4. Exit

EXAMPLES:
  # In-memory workspace
  ./server

  # SQLite file
  DB_DRIVER=sqlite SQLITE_PATH=./data/wandergrid.db ./server

  # Postgres
  DB_DRIVER=postgres DATABASE_URL=postgres://... ./server

SEE ALSO:
  - api/server.go: Router configuration
  - api/handlers.go: HTTP handlers
  - config/config.go: Environment loading
*/
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/SamerBerjawi/wandergrid/api"
	"github.com/SamerBerjawi/wandergrid/config"
	"github.com/SamerBerjawi/wandergrid/store"
	"github.com/SamerBerjawi/wandergrid/store/memory"
	"github.com/SamerBerjawi/wandergrid/store/postgres"
	"github.com/SamerBerjawi/wandergrid/store/sqlite"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Exit(1)
	}

	// Flags override the environment.
	port := flag.String("port", cfg.Port, "HTTP server port")
	driver := flag.String("driver", cfg.Driver, "store driver: memory, sqlite or postgres")
	dbPath := flag.String("db", cfg.SQLitePath, "SQLite database path")
	flag.Parse()

	log := newLogger(cfg.Env)

	st, err := openStore(*driver, *dbPath, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Str("driver", *driver).Msg("failed to open store")
	}
	defer st.Close()

	router := api.NewRouter(st, log)

	server := &http.Server{
		Addr:         ":" + *port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("port", *port).Str("driver", *driver).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}

func newLogger(env string) zerolog.Logger {
	if env == "production" {
		return zerolog.New(os.Stdout).With().Timestamp().Logger()
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
}

func openStore(driver, sqlitePath, databaseURL string) (store.Store, error) {
	switch driver {
	case "sqlite":
		return sqlite.New(sqlitePath)
	case "postgres":
		return postgres.New(context.Background(), databaseURL)
	default:
		return memory.New(), nil
	}
}

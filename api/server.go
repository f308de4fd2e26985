/*
server.go - Router assembly for the workspace API

PURPOSE:
  Wires the HTTP handlers into a chi router with CORS and request
  logging. The router is the single place the URL surface is declared.
*/
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/SamerBerjawi/wandergrid/store"
)

// NewRouter builds the full route tree over the given store.
func NewRouter(st store.Store, log zerolog.Logger) http.Handler {
	h := NewHandler(st, log)

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/settings", h.GetSettings)
		r.Put("/settings", h.PutSettings)

		r.Get("/backup", h.Backup)
		r.Post("/restore", h.Restore)

		r.Get("/users/{id}/balance", h.GetBalance)
		r.Post("/users/{id}/requests/evaluate", h.EvaluateRequest)

		r.Get("/{collection}", h.ListDocuments)
		r.Post("/{collection}", h.CreateDocument)
		r.Get("/{collection}/{id}", h.GetDocument)
		r.Put("/{collection}/{id}", h.PutDocument)
		r.Delete("/{collection}/{id}", h.DeleteDocument)
	})

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return r
}

// requestLogger logs one line per request with method, path, status and
// elapsed time.
func requestLogger(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			log.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Dur("elapsed", time.Since(start)).
				Msg("request")
		})
	}
}

package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

// SetupRoutes configures all API routes
func SetupRoutes(handler *Handler) *mux.Router {
	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", handler.HealthCheck).Methods("GET")

	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/search", handler.Search).Methods("GET")
	api.HandleFunc("/analyze", handler.Analyze).Methods("GET")
	api.HandleFunc("/history/{symbol}.csv", handler.DownloadCSV).Methods("GET")
	api.HandleFunc("/options/ranges", handler.DateRanges).Methods("GET")
	api.HandleFunc("/options/timeframes", handler.Timeframes).Methods("GET")

	return r
}

// WithCORS lets a browser dashboard on another origin call the read-only API.
func WithCORS(h http.Handler) http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
	})
	return c.Handler(h)
}

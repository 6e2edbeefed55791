package api

import (
	"net/http"
	"servicearea-service/internal/api/handlers"
	"servicearea-service/internal/platform/metrics"
)

// NewRouter wires HTTP handlers and returns an http.Handler.
// This is the API composition root (handlers stay unaware of concrete adapters).
func NewRouter(areas *handlers.ServiceAreaHandler) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", handlers.Health)
	mux.HandleFunc("/service-areas", areas.Collection)
	mux.HandleFunc("/service-areas/{id}", areas.Get)
	mux.Handle("/metrics", metrics.Handler())

	return requestIDMiddleware(loggingMiddleware(mux))
}

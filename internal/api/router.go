package api

import (
	"net/http"

	"station-cargo-service/internal/api/handlers"
	"station-cargo-service/internal/ports"
)

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
// This is the API composition root (handlers stay unaware of concrete adapters).
func NewRouter(repo ports.NetworkRepository, viewCache ports.ViewCache) http.Handler {
	mux := http.NewServeMux()

	stationHandler := &handlers.StationHandler{Repo: repo}
	viewHandler := handlers.NewCargoViewHandler(repo, viewCache)

	mux.HandleFunc("/health", handlers.Health)
	mux.HandleFunc("/stations", stationHandler.List)
	mux.HandleFunc("/cargo", viewHandler.Show)
	mux.HandleFunc("/invalidate", viewHandler.Invalidate)

	return requestIDMiddleware(loggingMiddleware(mux))
}

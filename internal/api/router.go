package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/stats", s.handleStats)

		r.Route("/devices", func(r chi.Router) {
			r.Get("/", s.handleListDevices)
			r.Get("/by-id/{uniqueID}", s.handleGetDeviceByID)

			r.Route("/{alias}", func(r chi.Router) {
				r.Get("/", s.handleGetDevice)
				r.Put("/ports/{port}/patch", s.handlePatchPort)
				r.Delete("/ports/{port}/patch", s.handleUnpatchPort)
			})
		})

		r.Route("/universes", func(r chi.Router) {
			r.Get("/", s.handleListUniverses)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetUniverse)
				r.Patch("/", s.handleUpdateUniverse)
			})
		})
	})

	return r
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
	})
}

// handleStats returns registry counts.
func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"device_count":   s.manager.DeviceCount(),
		"universe_count": s.universes.Count(),
	})
}

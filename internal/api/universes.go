package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/openlux/luxd/internal/universe"
)

// handleListUniverses returns all universes ordered by ID.
func (s *Server) handleListUniverses(w http.ResponseWriter, _ *http.Request) {
	list := s.universes.List()
	infos := make([]universe.Info, 0, len(list))
	for _, u := range list {
		infos = append(infos, u.Info())
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"universes": infos,
		"count":     len(infos),
	})
}

// handleGetUniverse returns one universe by ID.
func (s *Server) handleGetUniverse(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIntParam(w, r, "id")
	if !ok {
		return
	}

	u, err := s.universes.Get(id)
	if err != nil {
		writeNotFound(w, "universe not found")
		return
	}

	writeJSON(w, http.StatusOK, u.Info())
}

// universeUpdateRequest is the body for PATCH /universes/{id}. Absent
// fields are left unchanged.
type universeUpdateRequest struct {
	Name      *string `json:"name"`
	MergeMode *string `json:"merge_mode"`
}

// handleUpdateUniverse renames a universe and/or changes its merge mode.
func (s *Server) handleUpdateUniverse(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIntParam(w, r, "id")
	if !ok {
		return
	}

	var req universeUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}
	if req.Name == nil && req.MergeMode == nil {
		writeBadRequest(w, "nothing to update")
		return
	}

	if req.Name != nil {
		if err := s.universes.SetName(r.Context(), id, *req.Name); err != nil {
			writeUniverseError(w, err)
			return
		}
	}

	if req.MergeMode != nil {
		mode, err := universe.ParseMergeMode(*req.MergeMode)
		if err != nil {
			writeBadRequest(w, "merge_mode must be htp or ltp")
			return
		}
		if err := s.universes.SetMergeMode(r.Context(), id, mode); err != nil {
			writeUniverseError(w, err)
			return
		}
	}

	u, err := s.universes.Get(id)
	if err != nil {
		writeNotFound(w, "universe not found")
		return
	}
	writeJSON(w, http.StatusOK, u.Info())
}

// writeUniverseError maps universe store errors to HTTP responses.
func writeUniverseError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, universe.ErrNotFound):
		writeNotFound(w, "universe not found")
	case errors.Is(err, universe.ErrEmptyName):
		writeBadRequest(w, "name cannot be empty")
	case errors.Is(err, universe.ErrInvalidMergeMode):
		writeBadRequest(w, "merge_mode must be htp or ltp")
	default:
		writeInternalError(w, "universe update failed")
	}
}

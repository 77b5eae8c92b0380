package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/openlux/luxd/internal/device"
	"github.com/openlux/luxd/internal/universe"
)

// handleListDevices returns all connected devices ordered by alias.
func (s *Server) handleListDevices(w http.ResponseWriter, _ *http.Request) {
	entries := s.manager.Devices()
	infos := make([]device.Info, 0, len(entries))
	for _, entry := range entries {
		infos = append(infos, device.Describe(entry.Alias, entry.Device))
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"devices": infos,
		"count":   len(infos),
	})
}

// handleGetDevice returns one connected device by alias.
func (s *Server) handleGetDevice(w http.ResponseWriter, r *http.Request) {
	alias, ok := parseIntParam(w, r, "alias")
	if !ok {
		return
	}

	d, err := s.manager.ByAlias(alias)
	if err != nil {
		writeNotFound(w, "device not found")
		return
	}

	writeJSON(w, http.StatusOK, device.Describe(alias, d))
}

// handleGetDeviceByID resolves a unique ID to its identity record. Known
// but disconnected devices still resolve, with connected=false.
func (s *Server) handleGetDeviceByID(w http.ResponseWriter, r *http.Request) {
	uniqueID := chi.URLParam(r, "uniqueID")

	entry := s.manager.IdentityByID(uniqueID)
	if entry.Alias == device.MissingDeviceAlias {
		writeNotFound(w, "unknown unique id")
		return
	}

	resp := map[string]any{
		"alias":     entry.Alias,
		"unique_id": uniqueID,
		"connected": entry.Device != nil,
	}
	if entry.Device != nil {
		resp["device"] = device.Describe(entry.Alias, entry.Device)
	}

	writeJSON(w, http.StatusOK, resp)
}

// patchRequest is the body for PUT /devices/{alias}/ports/{port}/patch.
type patchRequest struct {
	Universe int `json:"universe"`
}

// handlePatchPort patches a port to a universe.
func (s *Server) handlePatchPort(w http.ResponseWriter, r *http.Request) {
	alias, ok := parseIntParam(w, r, "alias")
	if !ok {
		return
	}
	portID, ok := parseIntParam(w, r, "port")
	if !ok {
		return
	}

	var req patchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	if err := s.manager.PatchPort(r.Context(), alias, portID, req.Universe); err != nil {
		writePatchError(w, err)
		return
	}

	d, err := s.manager.ByAlias(alias)
	if err != nil {
		writeNotFound(w, "device not found")
		return
	}
	writeJSON(w, http.StatusOK, device.Describe(alias, d))
}

// handleUnpatchPort disconnects a port from its universe.
func (s *Server) handleUnpatchPort(w http.ResponseWriter, r *http.Request) {
	alias, ok := parseIntParam(w, r, "alias")
	if !ok {
		return
	}
	portID, ok := parseIntParam(w, r, "port")
	if !ok {
		return
	}

	if err := s.manager.UnpatchPort(r.Context(), alias, portID); err != nil {
		writePatchError(w, err)
		return
	}

	d, err := s.manager.ByAlias(alias)
	if err != nil {
		writeNotFound(w, "device not found")
		return
	}
	writeJSON(w, http.StatusOK, device.Describe(alias, d))
}

// writePatchError maps patch operation errors to HTTP responses.
func writePatchError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, device.ErrNotFound):
		writeNotFound(w, "device not found")
	case errors.Is(err, device.ErrPortNotFound):
		writeNotFound(w, "port not found")
	case errors.Is(err, universe.ErrInvalidID):
		writeBadRequest(w, "universe id must be a positive integer")
	default:
		writeInternalError(w, "patch operation failed")
	}
}

// parseIntParam extracts an integer URL parameter, writing a 400 on
// failure.
func parseIntParam(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	value, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil {
		writeBadRequest(w, "invalid "+name)
		return 0, false
	}
	return value, true
}

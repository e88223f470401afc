package api

import (
	"net/http"
	"strconv"
)

func (s *Server) handleListGroups(w http.ResponseWriter, r *http.Request) {
	limit, ok := parseLimit(w, r)
	if !ok {
		return
	}
	groups, err := s.dir.Groups(r.Context(), limit)
	if err != nil {
		s.logger.Error("listing group addresses failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list group addresses")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"groups": groups, "count": len(groups)})
}

func (s *Server) handleListDevices(w http.ResponseWriter, r *http.Request) {
	limit, ok := parseLimit(w, r)
	if !ok {
		return
	}
	devices, err := s.dir.Devices(r.Context(), limit)
	if err != nil {
		s.logger.Error("listing devices failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list devices")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"devices": devices, "count": len(devices)})
}

// parseLimit reads ?limit=, writing a 400 when it is not a non-negative
// integer.
func parseLimit(w http.ResponseWriter, r *http.Request) (int, bool) {
	v := r.URL.Query().Get("limit")
	if v == "" {
		return 0, true
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
		return 0, false
	}
	return n, true
}

package api

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/p0l0/xknx/internal/capture"
	"github.com/p0l0/xknx/internal/dpt"
	"github.com/p0l0/xknx/internal/knxip"
	"github.com/p0l0/xknx/internal/monitor"
)

// captureListResponse is one page of captures with decoded summaries.
type captureListResponse struct {
	Captures []monitor.FrameSummary `json:"captures"`
	Total    int                    `json:"total"`
	Limit    int                    `json:"limit"`
	Offset   int                    `json:"offset"`
}

// handleListCaptures returns stored captures, newest first.
//
// Query parameters: service_type (name or 0x code), status, since (RFC 3339),
// limit, offset.
func (s *Server) handleListCaptures(w http.ResponseWriter, r *http.Request) {
	filter, err := parseCaptureFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := s.captures.List(r.Context(), filter)
	if err != nil {
		s.logger.Error("listing captures failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list captures")
		return
	}

	out := captureListResponse{
		Captures: make([]monitor.FrameSummary, 0, len(res.Records)),
		Total:    res.Total,
		Limit:    res.Limit,
		Offset:   res.Offset,
	}
	for _, rec := range res.Records {
		out.Captures = append(out.Captures, s.summarizeRecord(rec))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCaptureSummary(w http.ResponseWriter, r *http.Request) {
	rows, err := s.captures.Summary(r.Context())
	if err != nil {
		s.logger.Error("summarising captures failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to summarise captures")
		return
	}

	type row struct {
		ServiceType string         `json:"service_type"`
		Status      capture.Status `json:"status"`
		Count       int            `json:"count"`
	}
	out := make([]row, 0, len(rows))
	for _, r := range rows {
		out = append(out, row{ServiceType: serviceName(r.ServiceType), Status: r.Status, Count: r.Count})
	}
	writeJSON(w, http.StatusOK, map[string]any{"summary": out})
}

func (s *Server) handleGetCapture(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	rec, err := s.captures.Get(r.Context(), id)
	if errors.Is(err, capture.ErrNotFound) {
		writeError(w, http.StatusNotFound, "capture not found")
		return
	}
	if err != nil {
		s.logger.Error("getting capture failed", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get capture")
		return
	}
	writeJSON(w, http.StatusOK, s.summarizeRecord(*rec))
}

// decodeRequest is the body of POST /decode.
type decodeRequest struct {
	// Hex is the frame as hex. Spaces and colons are ignored.
	Hex string `json:"hex"`

	// DPT, if set, decodes the group value of the frame as this type.
	// Otherwise the configured group types apply.
	DPT string `json:"dpt,omitempty"`
}

// handleDecode decodes a frame supplied by the caller. Decode failures are
// still 200: the summary carries status "error" and the reason.
func (s *Server) handleDecode(w http.ResponseWriter, r *http.Request) {
	var req decodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	data, err := hex.DecodeString(strings.NewReplacer(" ", "", ":", "").Replace(req.Hex))
	if err != nil || len(data) == 0 {
		writeError(w, http.StatusBadRequest, "hex must be a non-empty hex string")
		return
	}

	types := s.types
	if req.DPT != "" {
		d, err := dpt.Parse(req.DPT)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		types = dpt.Fixed(d)
	}

	ev := monitor.DecodeDatagram(monitor.Datagram{Data: data, ReceivedAt: time.Now()})
	decodeValue(&ev, types)
	writeJSON(w, http.StatusOK, monitor.Summarize(ev))
}

func (s *Server) summarizeRecord(rec capture.Record) monitor.FrameSummary {
	ev := monitor.DecodeRecord(rec)
	decodeValue(&ev, s.types)
	return monitor.Summarize(ev)
}

// decodeValue sets ev.Value. When the payload does not fit the configured
// type the frame itself still decoded, so the reason is appended to the
// summary error and the status is kept.
func decodeValue(ev *monitor.Event, types dpt.Resolver) {
	if err := monitor.DecodeValue(ev, types); err != nil {
		ev.Record.Error = strings.TrimPrefix(ev.Record.Error+"; "+err.Error(), "; ")
	}
}

func parseCaptureFilter(r *http.Request) (capture.Filter, error) {
	q := r.URL.Query()
	var f capture.Filter

	if v := q.Get("service_type"); v != "" {
		st, err := knxip.ParseServiceType(v)
		if err != nil {
			return f, errors.New("service_type must be a service name or 0x code")
		}
		f.ServiceType = st
	}
	if v := q.Get("status"); v != "" {
		f.Status = capture.Status(v)
		if !f.Status.Valid() {
			return f, errors.New("status must be ok, degraded or error")
		}
	}
	if v := q.Get("since"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return f, errors.New("since must be an RFC 3339 timestamp")
		}
		f.Since = t
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return f, errors.New("limit must be a non-negative integer")
		}
		f.Limit = n
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return f, errors.New("offset must be a non-negative integer")
		}
		f.Offset = n
	}
	return f, nil
}

func serviceName(st knxip.ServiceType) string {
	if st == 0 {
		return "UNKNOWN"
	}
	return st.String()
}

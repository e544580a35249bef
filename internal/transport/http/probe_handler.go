package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"sysbro/internal/domain"
	"sysbro/internal/logger"
	"sysbro/internal/probe"

	"github.com/google/uuid"
)

const defaultHistoryLimit = 20

type ProbeRunner interface {
	Start(ctx context.Context, serverIndex int) (*probe.Session, error)
	Cancel() bool
	State() domain.ProbeState
	Current() *probe.Session
	Targets() []probe.Target
}

type HistoryLister interface {
	List(ctx context.Context, limit int) ([]domain.ProbeRecord, error)
}

type ProbeStartRequest struct {
	ServerIndex *int `json:"server_index" validate:"required,gte=0"`
}

type ProbeSessionView struct {
	ID          uuid.UUID           `json:"id"`
	ServerIndex int                 `json:"server_index"`
	URL         string              `json:"url"`
	StartedAt   time.Time           `json:"started_at"`
	State       domain.ProbeState   `json:"state"`
	Record      *domain.ProbeRecord `json:"record,omitempty"`
}

type ProbeStatus struct {
	State   domain.ProbeState `json:"state"`
	Targets []probe.Target    `json:"targets"`
	Current *ProbeSessionView `json:"current,omitempty"`
}

type ProbeHandler struct {
	// base bounds probe runs, not the request context.
	base    context.Context
	prober  ProbeRunner
	history HistoryLister
	log     logger.Logger
}

func NewProbeHandler(base context.Context, prober ProbeRunner, history HistoryLister, log logger.Logger) *ProbeHandler {
	return &ProbeHandler{base: base, prober: prober, history: history, log: log}
}

func (h *ProbeHandler) Status(w http.ResponseWriter, r *http.Request) {
	status := ProbeStatus{
		State:   h.prober.State(),
		Targets: h.prober.Targets(),
	}

	if s := h.prober.Current(); s != nil {
		status.Current = sessionView(s)
	}

	JSONSuccess(w, http.StatusOK, APIResponse{Data: status})
}

func (h *ProbeHandler) Start(w http.ResponseWriter, r *http.Request) {
	var req ProbeStartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		JSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if validationErrors := ValidateStruct(req); len(validationErrors) > 0 {
		JSONValidationError(w, validationErrors)
		return
	}

	s, err := h.prober.Start(h.base, *req.ServerIndex)
	if err != nil {
		h.writeError(w, err)
		return
	}

	JSONSuccess(w, http.StatusAccepted, APIResponse{
		Message: "Probe started",
		Data:    sessionView(s),
	})
}

func (h *ProbeHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	if !h.prober.Cancel() {
		JSONError(w, http.StatusNotFound, "No probe running")
		return
	}

	JSONSuccess(w, http.StatusOK, APIResponse{Message: "Probe canceled"})
}

func (h *ProbeHandler) History(w http.ResponseWriter, r *http.Request) {
	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			JSONValidationError(w, map[string]string{"limit": "The limit must be a positive integer."})
			return
		}
		limit = n
	}

	records, err := h.history.List(r.Context(), limit)
	if err != nil {
		h.log.Error("http: failed to list probe history", "error", err)
		JSONError(w, http.StatusInternalServerError, "Something went wrong")
		return
	}

	if records == nil {
		records = []domain.ProbeRecord{}
	}

	JSONSuccess(w, http.StatusOK, APIResponse{Data: records})
}

func (h *ProbeHandler) writeError(w http.ResponseWriter, err error) {
	status := StatusFor(err)
	if status == http.StatusInternalServerError {
		h.log.Error("http: probe request failed", "error", err)
	}
	JSONError(w, status, err.Error())
}

// StatusFor maps a domain error kind onto an HTTP status code.
func StatusFor(err error) int {
	switch domain.KindOf(err) {
	case domain.KindInvalidSelection:
		return http.StatusBadRequest
	case domain.KindProbeInProgress:
		return http.StatusConflict
	case domain.KindTransfer:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func sessionView(s *probe.Session) *ProbeSessionView {
	v := &ProbeSessionView{
		ID:          s.ID,
		ServerIndex: s.ServerIndex,
		URL:         s.Target.URL,
		StartedAt:   s.StartedAt,
		State:       s.State(),
	}

	if v.State != domain.ProbeRunning {
		rec := s.Record()
		v.Record = &rec
	}

	return v
}

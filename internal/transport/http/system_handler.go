package http

import (
	"context"
	"net/http"

	"sysbro/internal/domain"
)

type HostReader interface {
	HostInfo(ctx context.Context) domain.HostInfo
	JunkScan(ctx context.Context) ([]domain.JunkCategory, error)
}

type SnapshotSource interface {
	Latest() *domain.Snapshot
	History() []domain.Snapshot
}

type SystemHandler struct {
	host      HostReader
	snapshots SnapshotSource
}

func NewSystemHandler(host HostReader, snapshots SnapshotSource) *SystemHandler {
	return &SystemHandler{host: host, snapshots: snapshots}
}

func (h *SystemHandler) Info(w http.ResponseWriter, r *http.Request) {
	JSONSuccess(w, http.StatusOK, APIResponse{
		Data: h.host.HostInfo(r.Context()),
	})
}

// Junk reports reclaimable space. Nothing is deleted.
func (h *SystemHandler) Junk(w http.ResponseWriter, r *http.Request) {
	cats, err := h.host.JunkScan(r.Context())
	if err != nil {
		JSONError(w, http.StatusInternalServerError, "Failed to scan junk files")
		return
	}

	JSONSuccess(w, http.StatusOK, APIResponse{Data: cats})
}

func (h *SystemHandler) Latest(w http.ResponseWriter, r *http.Request) {
	snap := h.snapshots.Latest()
	if snap == nil {
		JSONError(w, http.StatusNotFound, "No snapshot collected yet")
		return
	}

	JSONSuccess(w, http.StatusOK, APIResponse{Data: snap})
}

func (h *SystemHandler) History(w http.ResponseWriter, r *http.Request) {
	JSONSuccess(w, http.StatusOK, APIResponse{Data: h.snapshots.History()})
}

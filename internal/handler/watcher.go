package handler

import (
	"errors"
	"net/http"

	"bdo-market-watch/internal/service"
	"bdo-market-watch/pkg/apierror"
	"bdo-market-watch/pkg/response"
)

// WatcherHandler exposes the poll scheduler over HTTP.
type WatcherHandler struct {
	watcher *service.Watcher
}

// NewWatcherHandler creates a new watcher handler.
func NewWatcherHandler(watcher *service.Watcher) *WatcherHandler {
	return &WatcherHandler{watcher: watcher}
}

// CheckNow handles POST /api/v1/watcher/check - runs one pass synchronously.
func (h *WatcherHandler) CheckNow(w http.ResponseWriter, r *http.Request) {
	report, err := h.watcher.RunNow(r.Context())
	if err != nil {
		if errors.Is(err, service.ErrCheckInProgress) {
			response.Error(w, apierror.CheckInProgress(""))
			return
		}
		response.Error(w, apierror.InternalError("failed to run market check"))
		return
	}

	response.OK(w, report)
}

// Status handles GET /api/v1/watcher/status
func (h *WatcherHandler) Status(w http.ResponseWriter, r *http.Request) {
	response.OK(w, map[string]interface{}{
		"state":       h.watcher.State(),
		"interval":    h.watcher.Interval().String(),
		"last_report": h.watcher.LastReport(),
	})
}

package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/presence/internal/httpserver/deps"
	"github.com/MrSnakeDoc/presence/internal/logger"
)

type rescanResponse struct {
	Status string `json:"status"`
}

// Rescan queues a manual scan. The result is published asynchronously.
func Rescan(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if d.Rescan == nil {
			writeError(w, d.Logger, http.StatusServiceUnavailable, "scanner not running")
			return
		}

		if err := d.Rescan.Trigger(); err != nil {
			d.Logger.Warn("manual scan rejected",
				logger.String("remote_ip", r.RemoteAddr),
				logger.Error(err))
			writeJSON(w, d.Logger, http.StatusTooManyRequests, rescanResponse{Status: "already queued"})
			return
		}

		d.Logger.Info("manual scan triggered via endpoint",
			logger.String("remote_ip", r.RemoteAddr))
		writeJSON(w, d.Logger, http.StatusAccepted, rescanResponse{Status: "queued"})
	}
}

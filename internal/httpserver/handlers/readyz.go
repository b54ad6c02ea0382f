package handlers

import (
	"net/http"
	"time"

	"github.com/MrSnakeDoc/presence/internal/httpserver/deps"
)

type readyzResponse struct {
	Ready    bool       `json:"ready"`
	Devices  int        `json:"devices"`
	LastScan *time.Time `json:"last_scan,omitempty"`
}

// Readyz reports ready once a scan result is published, either from a
// completed scan or restored from redis.
func Readyz(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		idx := d.MemoryIndex
		if !idx.HasSnapshot() {
			writeJSON(w, d.Logger, http.StatusServiceUnavailable, readyzResponse{Ready: false})
			return
		}

		last := idx.GetLastScan()
		writeJSON(w, d.Logger, http.StatusOK, readyzResponse{
			Ready:    true,
			Devices:  idx.Count(),
			LastScan: &last,
		})
	}
}

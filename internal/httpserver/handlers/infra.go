package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/presence/internal/httpserver/deps"
)

const timeLayout = "2006-01-02 15:04:05"

type componentStatus struct {
	OK            bool   `json:"ok"`
	Mode          string `json:"mode,omitempty"`
	DevicesLoaded *int   `json:"devices_loaded,omitempty"`
	LastScan      string `json:"last_scan,omitempty"`
	Interval      string `json:"interval,omitempty"`
	Impact        string `json:"impact,omitempty"`
	Error         string `json:"error,omitempty"`
}

type infraResponse struct {
	Status     string                     `json:"status"`
	Components map[string]componentStatus `json:"components"`
}

func Infra(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		components := map[string]componentStatus{
			"scanner": checkScanner(d),
			"redis":   checkRedis(r.Context(), d),
		}

		writeJSON(w, d.Logger, http.StatusOK, infraResponse{
			Status:     overallStatus(components),
			Components: components,
		})
	}
}

func checkScanner(d deps.Deps) componentStatus {
	idx := d.MemoryIndex
	count := idx.Count()

	status := componentStatus{
		OK:            idx.HasSnapshot(),
		Mode:          d.Scanner,
		DevicesLoaded: &count,
		LastScan:      "never",
		Interval:      d.ScanInterval.String(),
	}
	if last := idx.GetLastScan(); !last.IsZero() {
		status.LastScan = last.Format(timeLayout)
	}
	if at, msg := idx.LastFailure(); msg != "" {
		status.OK = false
		status.Error = msg
		status.Impact = "serving scan from " + status.LastScan + ", failed at " + at.Format(timeLayout)
	}
	return status
}

// overallStatus is "critical" without any scan result, "degraded" when a
// component reports a problem and "ok" otherwise.
func overallStatus(components map[string]componentStatus) string {
	if components["scanner"].LastScan == "never" {
		return "critical"
	}
	for _, c := range components {
		if !c.OK {
			return "degraded"
		}
	}
	return "ok"
}

func checkRedis(ctx context.Context, d deps.Deps) componentStatus {
	if d.RedisClient == nil {
		return componentStatus{
			OK:     true,
			Mode:   "disabled",
			Impact: "results-lost-on-restart",
		}
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := d.RedisClient.Ping(ctx).Err(); err != nil {
		return componentStatus{
			OK:     false,
			Mode:   "degraded",
			Impact: "results-lost-on-restart",
			Error:  err.Error(),
		}
	}

	return componentStatus{
		OK:     true,
		Mode:   "persistent",
		Impact: "results-restored-on-restart",
	}
}

package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/presence/internal/domain"
	"github.com/MrSnakeDoc/presence/internal/httpserver/deps"
	"github.com/MrSnakeDoc/presence/internal/index"
)

const msgNoDevices = "no devices found"

// deviceView is a profile plus the values derived for presentation.
type deviceView struct {
	ID string `json:"id"`
	*domain.DeviceProfile
	PortList          []domain.Port `json:"portList"`
	AdministrationURL string        `json:"administrationUrl,omitempty"`
	Category          string        `json:"category,omitempty"`
	PrivacyConcern    bool          `json:"privacyConcern"`
	LastSeen          *time.Time    `json:"lastSeen,omitempty"`
}

type devicesResponse struct {
	ScanID      string       `json:"scanId,omitempty"`
	CompletedAt *time.Time   `json:"completedAt,omitempty"`
	Count       int          `json:"count"`
	Message     string       `json:"message,omitempty"`
	Devices     []deviceView `json:"devices"`
}

type interfacesResponse struct {
	Interfaces map[string][]string `json:"interfaces"`
}

type diagnosticsResponse struct {
	ScanID      string              `json:"scanId,omitempty"`
	Lines       int                 `json:"lines"`
	Records     int                 `json:"records"`
	Diagnostics []domain.Diagnostic `json:"diagnostics"`
}

func newDeviceView(idx *index.MemoryIndex, id string, p *domain.DeviceProfile) deviceView {
	v := deviceView{
		ID:                id,
		DeviceProfile:     p,
		PortList:          p.SortedPorts(),
		AdministrationURL: p.AdministrationURL(),
		Category:          domain.PrimaryCategory(p.Tags),
		PrivacyConcern:    domain.HasPrivacyConcern(p.Tags),
	}
	if at, ok := idx.LastSeen(id); ok {
		v.LastSeen = &at
	}
	return v
}

// Devices lists the devices of the last scan sorted by name, then id.
func Devices(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		idx := d.MemoryIndex
		snap := idx.Snapshot()

		resp := devicesResponse{Devices: []deviceView{}}
		if snap != nil {
			resp.ScanID = snap.ID
			completed := snap.CompletedAt
			resp.CompletedAt = &completed
			for _, id := range snap.DeviceIDs() {
				resp.Devices = append(resp.Devices, newDeviceView(idx, id, snap.Devices[id]))
			}
		}
		resp.Count = len(resp.Devices)
		if resp.Count == 0 {
			resp.Message = msgNoDevices
		}

		writeJSON(w, d.Logger, http.StatusOK, resp)
	}
}

// Device returns one device by DeviceID.
func Device(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		p, ok := d.MemoryIndex.Device(id)
		if !ok {
			writeError(w, d.Logger, http.StatusNotFound, "device not found")
			return
		}
		writeJSON(w, d.Logger, http.StatusOK, newDeviceView(d.MemoryIndex, id, p))
	}
}

// Interfaces returns the interface address table of the last scan.
func Interfaces(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, d.Logger, http.StatusOK, interfacesResponse{
			Interfaces: d.MemoryIndex.Interfaces(),
		})
	}
}

// Diagnostics returns the skipped lines of the last scan.
func Diagnostics(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := diagnosticsResponse{Diagnostics: d.MemoryIndex.Diagnostics()}
		if snap := d.MemoryIndex.Snapshot(); snap != nil {
			resp.ScanID = snap.ID
			resp.Lines = snap.Lines
			resp.Records = snap.Records
		}
		writeJSON(w, d.Logger, http.StatusOK, resp)
	}
}

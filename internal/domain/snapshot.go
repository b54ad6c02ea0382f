package domain

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// Snapshot is the complete result of one scan. It is replaced as a whole
// by the next scan; nobody mutates a published snapshot.
type Snapshot struct {
	ID          string                    `json:"id"`
	Source      string                    `json:"source"`
	StartedAt   time.Time                 `json:"startedAt"`
	CompletedAt time.Time                 `json:"completedAt"`
	Lines       int                       `json:"lines"`
	Records     int                       `json:"records"`
	Devices     map[string]*DeviceProfile `json:"devices"`
	Interfaces  map[string][]string       `json:"interfaces"`
	Diagnostics []Diagnostic              `json:"diagnostics"`
}

// NewSnapshot wraps an aggregation result.
func NewSnapshot(source string, startedAt, completedAt time.Time, lines int, res Result) *Snapshot {
	diags := res.Diagnostics
	if diags == nil {
		diags = []Diagnostic{}
	}
	return &Snapshot{
		ID:          uuid.NewString(),
		Source:      source,
		StartedAt:   startedAt,
		CompletedAt: completedAt,
		Lines:       lines,
		Records:     res.Records,
		Devices:     res.Devices,
		Interfaces:  res.Interfaces,
		Diagnostics: diags,
	}
}

// DeviceIDs returns the device ids sorted by device name, then id.
func (s *Snapshot) DeviceIDs() []string {
	if s == nil {
		return nil
	}
	ids := make([]string, 0, len(s.Devices))
	for id := range s.Devices {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		ni, nj := s.Devices[ids[i]].Name, s.Devices[ids[j]].Name
		if ni != nj {
			return ni < nj
		}
		return ids[i] < ids[j]
	})
	return ids
}

// Duration is how long the scan took.
func (s *Snapshot) Duration() time.Duration {
	if s == nil || s.CompletedAt.Before(s.StartedAt) {
		return 0
	}
	return s.CompletedAt.Sub(s.StartedAt)
}

package index

import (
	"sync"
	"time"

	"github.com/MrSnakeDoc/presence/internal/domain"
)

// MemoryIndex holds the latest published scan snapshot and the last time
// each device was observed. Readers never see a half-applied scan: the
// snapshot pointer is swapped as a whole.
type MemoryIndex struct {
	mu        sync.RWMutex
	snapshot  *domain.Snapshot
	lastSeen  map[string]time.Time // DeviceID -> last observation
	lastScan  time.Time            // completion time of the published snapshot
	failedAt  time.Time            // last failed scan attempt
	lastError string
}

// NewMemoryIndex creates an empty index.
func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{
		lastSeen: make(map[string]time.Time),
	}
}

// Replace publishes snap and marks all of its devices as seen at its
// completion time.
func (idx *MemoryIndex) Replace(snap *domain.Snapshot) {
	if snap == nil {
		return
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.snapshot = snap
	idx.lastScan = snap.CompletedAt
	idx.lastError = ""
	for id := range snap.Devices {
		idx.touch(id, snap.CompletedAt)
	}
}

// Restore publishes a snapshot loaded from persistence. It is a no-op when
// a newer snapshot is already published.
func (idx *MemoryIndex) Restore(snap *domain.Snapshot, lastSeen map[string]time.Time) bool {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	for id, at := range lastSeen {
		idx.touch(id, at)
	}

	if snap == nil || (idx.snapshot != nil && !snap.CompletedAt.After(idx.lastScan)) {
		return false
	}
	idx.snapshot = snap
	idx.lastScan = snap.CompletedAt
	return true
}

func (idx *MemoryIndex) touch(id string, at time.Time) {
	if prev, ok := idx.lastSeen[id]; !ok || at.After(prev) {
		idx.lastSeen[id] = at
	}
}

// Snapshot returns the published snapshot, nil before the first scan.
func (idx *MemoryIndex) Snapshot() *domain.Snapshot {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return idx.snapshot
}

// HasSnapshot reports whether any scan result is available.
func (idx *MemoryIndex) HasSnapshot() bool {
	return idx.Snapshot() != nil
}

// Device retrieves a device profile by DeviceID.
func (idx *MemoryIndex) Device(id string) (*domain.DeviceProfile, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if idx.snapshot == nil {
		return nil, false
	}
	p, ok := idx.snapshot.Devices[id]
	return p, ok
}

// Devices returns the published devices sorted by name, then id.
func (idx *MemoryIndex) Devices() []*domain.DeviceProfile {
	snap := idx.Snapshot()
	if snap == nil {
		return []*domain.DeviceProfile{}
	}

	ids := snap.DeviceIDs()
	out := make([]*domain.DeviceProfile, 0, len(ids))
	for _, id := range ids {
		out = append(out, snap.Devices[id])
	}
	return out
}

// Interfaces returns the interface address table of the published scan.
func (idx *MemoryIndex) Interfaces() map[string][]string {
	snap := idx.Snapshot()
	if snap == nil || snap.Interfaces == nil {
		return map[string][]string{}
	}
	return snap.Interfaces
}

// Diagnostics returns the diagnostics of the published scan.
func (idx *MemoryIndex) Diagnostics() []domain.Diagnostic {
	snap := idx.Snapshot()
	if snap == nil || snap.Diagnostics == nil {
		return []domain.Diagnostic{}
	}
	return snap.Diagnostics
}

// Count returns the number of devices in the published scan.
func (idx *MemoryIndex) Count() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if idx.snapshot == nil {
		return 0
	}
	return len(idx.snapshot.Devices)
}

// GetLastScan returns the completion time of the published scan.
func (idx *MemoryIndex) GetLastScan() time.Time {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return idx.lastScan
}

// ─────────────────────────────────────────────────────────────────
// Scan failures
// ─────────────────────────────────────────────────────────────────

// RecordFailure remembers a failed scan attempt. The published snapshot
// is left untouched.
func (idx *MemoryIndex) RecordFailure(at time.Time, err error) {
	if err == nil {
		return
	}
	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.failedAt = at
	idx.lastError = err.Error()
}

// LastFailure returns the last failed attempt since the last success.
func (idx *MemoryIndex) LastFailure() (time.Time, string) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if idx.lastError == "" {
		return time.Time{}, ""
	}
	return idx.failedAt, idx.lastError
}

// ─────────────────────────────────────────────────────────────────
// Presence history
// ─────────────────────────────────────────────────────────────────

// LastSeen returns when the device was last observed.
func (idx *MemoryIndex) LastSeen(id string) (time.Time, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	at, ok := idx.lastSeen[id]
	return at, ok
}

// LastSeenCount returns the number of devices with a recorded observation.
func (idx *MemoryIndex) LastSeenCount() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return len(idx.lastSeen)
}

// PruneLastSeen forgets devices not observed since cutoff and returns
// their ids.
func (idx *MemoryIndex) PruneLastSeen(cutoff time.Time) []string {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	var removed []string
	for id, at := range idx.lastSeen {
		if at.Before(cutoff) {
			delete(idx.lastSeen, id)
			removed = append(removed, id)
		}
	}
	return removed
}

package redis

import (
	"testing"
	"time"
)

func TestKeys(t *testing.T) {
	if SnapshotKey() != "presence:snapshot" {
		t.Errorf("SnapshotKey() = %q", SnapshotKey())
	}
	if LastSeenKey() != "presence:lastseen" {
		t.Errorf("LastSeenKey() = %q", LastSeenKey())
	}
}

func TestDecodeLastSeen(t *testing.T) {
	at := time.Date(2026, 5, 4, 3, 2, 1, 0, time.UTC)

	seen, invalid := decodeLastSeen(map[string]string{
		"printer01.local": encodeUnix(at),
		"broken.local":    "yesterday",
		"zero.local":      "0",
	})

	if len(seen) != 1 || !seen["printer01.local"].Equal(at) {
		t.Errorf("decodeLastSeen() seen = %v", seen)
	}
	if len(invalid) != 2 {
		t.Errorf("decodeLastSeen() invalid = %v, want 2 entries", invalid)
	}
}

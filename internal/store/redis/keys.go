package redis

import (
	"strconv"
	"time"
)

const (
	// KeyPrefix namespaces every key written by the service.
	KeyPrefix = "presence:"
	// KeySnapshot holds the JSON of the last complete scan.
	KeySnapshot = KeyPrefix + "snapshot"
	// KeyLastSeen is a hash of DeviceID -> unix seconds of last observation.
	KeyLastSeen = KeyPrefix + "lastseen"
)

// SnapshotKey returns the key of the persisted snapshot.
func SnapshotKey() string {
	return KeySnapshot
}

// LastSeenKey returns the key of the presence history hash.
func LastSeenKey() string {
	return KeyLastSeen
}

func encodeUnix(t time.Time) string {
	return strconv.FormatInt(t.Unix(), 10)
}

// decodeLastSeen converts the raw hash into timestamps. Fields with an
// unparsable value are returned separately so the caller can drop them.
func decodeLastSeen(raw map[string]string) (map[string]time.Time, []string) {
	out := make(map[string]time.Time, len(raw))
	var invalid []string
	for id, v := range raw {
		secs, err := strconv.ParseInt(v, 10, 64)
		if err != nil || secs <= 0 {
			invalid = append(invalid, id)
			continue
		}
		out[id] = time.Unix(secs, 0).UTC()
	}
	return out, invalid
}

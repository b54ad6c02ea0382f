package deps

import (
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/presence/internal/index"
	"github.com/MrSnakeDoc/presence/internal/logger"
)

// Rescanner queues a manual scan.
type Rescanner interface {
	Trigger() error
}

type Deps struct {
	Logger       logger.Logger
	StartTime    time.Time
	Version      string
	Commit       string
	BuildDate    string
	GoVersion    string
	TimeNow      func() time.Time   // for testing, defaults to time.Now
	AllowedHosts []string           // Host headers allowed on mutating routes
	AllowedCIDRS []string           // IPs/CIDRs allowed to access the API
	TrustProxy   bool               // true if running behind a trusted reverse proxy
	RedisClient  *redis.Client      // nil when persistence is disabled
	MemoryIndex  *index.MemoryIndex // latest scan + presence history
	Scanner      string             // name of the configured scanner
	ScanInterval time.Duration      // periodic rescan interval
	Rescan       Rescanner          // manual scan trigger
	RescanBurst  int                // manual rescans allowed back to back per client
	RescanPerMin int                // manual rescan refill rate per client
}

// Now returns the current time using TimeNow when set.
func (d Deps) Now() time.Time {
	if d.TimeNow != nil {
		return d.TimeNow()
	}
	return time.Now()
}

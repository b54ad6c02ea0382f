package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Scanner kinds accepted by PRESENCE_SCANNER.
const (
	ScannerAvahi    = "avahi"
	ScannerZeroconf = "zeroconf"
	ScannerFile     = "file"
)

type Config struct {
	ListenPort      string        // ex: ":8080"
	ShutdownTimeout time.Duration // ex: 5s

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	// Scanning
	Scanner           string        // avahi | zeroconf | file
	AvahiBrowse       string        // avahi-browse binary
	AvahiArgs         []string      // avahi-browse arguments
	ScanFile          string        // captured dump, required for scanner=file
	ScanTimeout       time.Duration // per-scan deadline
	ScanInterval      time.Duration // periodic rescan
	ZeroconfServices  []string      // service types browsed by the zeroconf scanner (empty = built-in list)
	ZeroconfWindow    time.Duration // browse window of the zeroconf scanner
	ZeroconfInterface string        // interface label written into zeroconf records
	VocabularyFile    string        // optional YAML vocabulary extension

	// Presence history
	GCInterval  time.Duration // interval between last-seen pruning runs
	ForgetAfter time.Duration // drop devices not seen for this long

	// Redis (optional: empty address disables persistence)
	RedisAddr           string
	RedisUser           string
	RedisPassword       string
	RedisDB             int
	RedisDT             time.Duration // dial timeout
	RedisRT             time.Duration // read timeout
	RedisWT             time.Duration // write timeout
	RedisMaxWait        time.Duration // max wait between retries
	RedisPingTimeout    time.Duration // timeout for each ping attempt
	RedisPoolSize       int
	RedisConnectTimeout time.Duration // total time to retry connecting
	RedisRetryInterval  time.Duration // initial wait between retries, doubled each time
	RedisWarnThreshold  int           // warn after this many attempts

	// Access restrictions
	AllowedHosts []string // optional, restrict mutating routes to these Host headers
	AllowedCIDRS []string // optional, restrict access to these IPs/CIDRs
	TrustProxy   bool     // true => trust X-Forwarded-For headers
	RescanBurst  int      // manual rescans allowed back to back per client
	RescanPerMin int      // manual rescan refill rate per client
}

// Load reads the configuration from the environment. Invalid values are
// fatal.
func Load() *Config {
	cfg := &Config{
		// Server settings
		ListenPort:      getenv("PRESENCE_LISTEN_PORT", ":8080"),
		ShutdownTimeout: mustDuration("PRESENCE_SHUTDOWN_TIMEOUT", 5*time.Second),

		// Logging
		LogLevel:  getenv("PRESENCE_LOG_LEVEL", "info"),
		PrettyLog: mustBool("PRESENCE_PRETTY_LOG", true),

		// Scanning
		Scanner:           strings.ToLower(getenv("PRESENCE_SCANNER", ScannerAvahi)),
		AvahiBrowse:       getenv("PRESENCE_AVAHI_BROWSE", "avahi-browse"),
		AvahiArgs:         splitAndTrim(getenv("PRESENCE_AVAHI_ARGS", "-p,-l,-a,-r,-k,-t")),
		ScanFile:          getenv("PRESENCE_SCAN_FILE", ""),
		ScanTimeout:       mustDuration("PRESENCE_SCAN_TIMEOUT", 30*time.Second),
		ScanInterval:      mustDuration("PRESENCE_SCAN_INTERVAL", 5*time.Minute),
		ZeroconfServices:  splitAndTrim(getenv("PRESENCE_ZEROCONF_SERVICES", "")),
		ZeroconfWindow:    mustDuration("PRESENCE_ZEROCONF_WINDOW", 3*time.Second),
		ZeroconfInterface: getenv("PRESENCE_ZEROCONF_INTERFACE", "mdns"),
		VocabularyFile:    getenv("PRESENCE_VOCABULARY_FILE", ""),

		// Presence history
		GCInterval:  mustDuration("PRESENCE_GC_INTERVAL", time.Hour),
		ForgetAfter: mustDuration("PRESENCE_FORGET_AFTER", 7*24*time.Hour),

		// Redis settings
		RedisAddr:           getenv("PRESENCE_REDIS_ADDR", ""),
		RedisUser:           getenv("PRESENCE_REDIS_USERNAME", ""),
		RedisPassword:       getenv("PRESENCE_REDIS_PASSWORD", ""),
		RedisDB:             getenvInt("PRESENCE_REDIS_DB", 0),
		RedisDT:             mustDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
		RedisRT:             mustDuration("REDIS_READ_TIMEOUT", 3*time.Second),
		RedisWT:             mustDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		RedisMaxWait:        mustDuration("REDIS_MAX_WAIT", 10*time.Second),
		RedisPingTimeout:    mustDuration("REDIS_PING_TIMEOUT", 5*time.Second),
		RedisPoolSize:       getenvInt("REDIS_POOL_SIZE", 10),
		RedisConnectTimeout: mustDuration("REDIS_CONNECT_TIMEOUT", 30*time.Second),
		RedisRetryInterval:  mustDuration("REDIS_RETRY_INTERVAL", 2*time.Second),
		RedisWarnThreshold:  getenvInt("REDIS_WARN_THRESHOLD", 3),

		// Access restrictions
		AllowedHosts: splitAndTrim(getenv("PRESENCE_ALLOWED_HOSTS", "")),
		AllowedCIDRS: splitAndTrim(getenv("PRESENCE_ALLOWED_CIDRS", "")),
		TrustProxy:   mustBool("PRESENCE_TRUST_PROXY", false),
		RescanBurst:  getenvInt("PRESENCE_RESCAN_BURST", 3),
		RescanPerMin: getenvInt("PRESENCE_RESCAN_PER_MIN", 6),
	}

	if err := cfg.Validate(); err != nil {
		panic(fmt.Sprintf("❌ FATAL: %v", err))
	}

	return cfg
}

// Validate checks combinations the individual parsers cannot.
func (c *Config) Validate() error {
	switch c.Scanner {
	case ScannerAvahi:
		if c.AvahiBrowse == "" {
			return fmt.Errorf("PRESENCE_AVAHI_BROWSE must not be empty")
		}
	case ScannerZeroconf:
		if c.ZeroconfWindow <= 0 {
			return fmt.Errorf("PRESENCE_ZEROCONF_WINDOW must be > 0")
		}
	case ScannerFile:
		if c.ScanFile == "" {
			return fmt.Errorf("PRESENCE_SCAN_FILE is required when PRESENCE_SCANNER=%s", ScannerFile)
		}
	default:
		return fmt.Errorf("PRESENCE_SCANNER must be one of %s, %s, %s; got %q",
			ScannerAvahi, ScannerZeroconf, ScannerFile, c.Scanner)
	}

	if c.ScanInterval <= 0 {
		return fmt.Errorf("PRESENCE_SCAN_INTERVAL must be > 0")
	}
	if c.GCInterval <= 0 {
		return fmt.Errorf("PRESENCE_GC_INTERVAL must be > 0")
	}
	if c.ForgetAfter <= 0 {
		return fmt.Errorf("PRESENCE_FORGET_AFTER must be > 0")
	}
	return nil
}

// PersistenceEnabled reports whether a redis address is configured.
func (c *Config) PersistenceEnabled() bool {
	return c.RedisAddr != ""
}

// Redacted returns a copy safe to log.
func (c *Config) Redacted() Config {
	out := *c
	if out.RedisPassword != "" {
		out.RedisPassword = "***REDACTED***"
	}
	if out.RedisUser != "" {
		out.RedisUser = "***REDACTED***"
	}
	return out
}

// helpers
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func mustBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func mustDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	raw := strings.Split(s, ",")
	parts := make([]string, 0, len(raw))
	for _, part := range raw {
		trimmed := strings.TrimSpace(part)
		// Remove surrounding quotes if present
		trimmed = strings.Trim(trimmed, `"'`)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}

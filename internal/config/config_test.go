package config

import (
	"reflect"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.ListenPort != ":8080" {
		t.Errorf("ListenPort = %q, want :8080", cfg.ListenPort)
	}
	if cfg.Scanner != ScannerAvahi {
		t.Errorf("Scanner = %q, want %q", cfg.Scanner, ScannerAvahi)
	}
	if want := []string{"-p", "-l", "-a", "-r", "-k", "-t"}; !reflect.DeepEqual(cfg.AvahiArgs, want) {
		t.Errorf("AvahiArgs = %v, want %v", cfg.AvahiArgs, want)
	}
	if cfg.ScanInterval != 5*time.Minute || cfg.ScanTimeout != 30*time.Second {
		t.Errorf("ScanInterval/ScanTimeout = %v/%v", cfg.ScanInterval, cfg.ScanTimeout)
	}
	if cfg.ForgetAfter != 7*24*time.Hour {
		t.Errorf("ForgetAfter = %v, want 168h", cfg.ForgetAfter)
	}
	if cfg.PersistenceEnabled() {
		t.Error("PersistenceEnabled() = true without PRESENCE_REDIS_ADDR")
	}
	if cfg.RescanBurst != 3 || cfg.RescanPerMin != 6 {
		t.Errorf("RescanBurst/RescanPerMin = %d/%d, want 3/6", cfg.RescanBurst, cfg.RescanPerMin)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PRESENCE_SCANNER", "ZeroConf")
	t.Setenv("PRESENCE_ZEROCONF_SERVICES", "_ipp._tcp, _airplay._tcp")
	t.Setenv("PRESENCE_REDIS_ADDR", "localhost:6379")
	t.Setenv("PRESENCE_ALLOWED_CIDRS", `"10.0.0.0/8", 192.168.1.1`)
	t.Setenv("PRESENCE_SCAN_INTERVAL", "90s")

	cfg := Load()

	if cfg.Scanner != ScannerZeroconf {
		t.Errorf("Scanner = %q, want %q", cfg.Scanner, ScannerZeroconf)
	}
	if want := []string{"_ipp._tcp", "_airplay._tcp"}; !reflect.DeepEqual(cfg.ZeroconfServices, want) {
		t.Errorf("ZeroconfServices = %v, want %v", cfg.ZeroconfServices, want)
	}
	if !cfg.PersistenceEnabled() {
		t.Error("PersistenceEnabled() = false with PRESENCE_REDIS_ADDR set")
	}
	if want := []string{"10.0.0.0/8", "192.168.1.1"}; !reflect.DeepEqual(cfg.AllowedCIDRS, want) {
		t.Errorf("AllowedCIDRS = %v, want %v", cfg.AllowedCIDRS, want)
	}
	if cfg.ScanInterval != 90*time.Second {
		t.Errorf("ScanInterval = %v, want 90s", cfg.ScanInterval)
	}
}

func TestLoadPanicsOnInvalidScanner(t *testing.T) {
	t.Setenv("PRESENCE_SCANNER", "nmap")

	defer func() {
		if r := recover(); r == nil {
			t.Errorf("Load() should have panicked")
		}
	}()
	Load()
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Scanner:        ScannerAvahi,
			AvahiBrowse:    "avahi-browse",
			ZeroconfWindow: time.Second,
			ScanInterval:   time.Minute,
			GCInterval:     time.Hour,
			ForgetAfter:    time.Hour,
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid avahi", func(*Config) {}, false},
		{"file without path", func(c *Config) { c.Scanner = ScannerFile }, true},
		{"file with path", func(c *Config) { c.Scanner = ScannerFile; c.ScanFile = "/tmp/scan.txt" }, false},
		{"zeroconf without window", func(c *Config) { c.Scanner = ScannerZeroconf; c.ZeroconfWindow = 0 }, true},
		{"unknown scanner", func(c *Config) { c.Scanner = "arp" }, true},
		{"zero scan interval", func(c *Config) { c.ScanInterval = 0 }, true},
		{"zero gc interval", func(c *Config) { c.GCInterval = 0 }, true},
		{"zero forget after", func(c *Config) { c.ForgetAfter = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			if err := cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestRedacted(t *testing.T) {
	cfg := &Config{RedisUser: "presence", RedisPassword: "hunter2"}
	r := cfg.Redacted()
	if r.RedisPassword == "hunter2" || r.RedisUser == "presence" {
		t.Errorf("Redacted() leaked credentials: %+v", r)
	}
	if cfg.RedisPassword != "hunter2" {
		t.Error("Redacted() modified the receiver")
	}
}

func TestSplitAndTrim(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"a", []string{"a"}},
		{" a , 'b' ,, \"c\" ", []string{"a", "b", "c"}},
	}
	for _, tt := range tests {
		if got := splitAndTrim(tt.in); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("splitAndTrim(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestMustDuration(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		value    string
		def      time.Duration
		expected time.Duration
	}{
		{
			name:     "valid duration",
			key:      "TEST_DURATION",
			value:    "5s",
			def:      1 * time.Second,
			expected: 5 * time.Second,
		},
		{
			name:     "invalid duration uses default",
			key:      "TEST_DURATION_INVALID",
			value:    "invalid",
			def:      10 * time.Second,
			expected: 10 * time.Second,
		},
		{
			name:     "missing variable uses default",
			key:      "TEST_DURATION_MISSING",
			value:    "",
			def:      15 * time.Second,
			expected: 15 * time.Second,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.value != "" {
				t.Setenv(tt.key, tt.value)
			}

			result := mustDuration(tt.key, tt.def)
			if result != tt.expected {
				t.Errorf("mustDuration() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestMustBool(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		value    string
		def      bool
		expected bool
	}{
		{"true value", "TEST_BOOL", "true", false, true},
		{"false value", "TEST_BOOL_FALSE", "false", true, false},
		{"invalid value uses default", "TEST_BOOL_INVALID", "invalid", true, true},
		{"missing variable uses default", "TEST_BOOL_MISSING", "", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.value != "" {
				t.Setenv(tt.key, tt.value)
			}

			if result := mustBool(tt.key, tt.def); result != tt.expected {
				t.Errorf("mustBool() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestGetenvInt(t *testing.T) {
	t.Setenv("TEST_INT", "42")
	t.Setenv("TEST_INT_INVALID", "x")

	if got := getenvInt("TEST_INT", 1); got != 42 {
		t.Errorf("getenvInt() = %d, want 42", got)
	}
	if got := getenvInt("TEST_INT_INVALID", 7); got != 7 {
		t.Errorf("getenvInt(invalid) = %d, want 7", got)
	}
	if got := getenvInt("TEST_INT_MISSING", 9); got != 9 {
		t.Errorf("getenvInt(missing) = %d, want 9", got)
	}
}

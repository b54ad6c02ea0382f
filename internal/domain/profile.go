package domain

import (
	"sort"
	"strconv"
)

// UnknownName is the name of a device until a usable name is advertised.
const UnknownName = "Unknown"

// Port is one advertised service port and the protocol that claimed it last.
type Port struct {
	Port     string `json:"port"`
	Protocol string `json:"protocol"`
}

// DeviceProfile is the merged view of every advertisement sharing a DeviceID
// within one scan.
//
// The JSON field names are what presenters depend on.
type DeviceProfile struct {
	// ─────────────────────────────
	// Identity
	// ─────────────────────────────

	// Name is the human readable name. Later records overwrite it unless
	// the candidate belongs to a bridge service (see Vocabulary.IgnoresName).
	Name string `json:"name"`

	// LocalAddress is the DeviceID the profile was created for.
	// It never changes.
	LocalAddress string `json:"localAddress"`

	// ─────────────────────────────
	// Network
	// ─────────────────────────────

	NetworkInterfaces []string `json:"networkInterfaces"`
	IPv4Present       bool     `json:"ipv4Present"`
	IPv6Present       bool     `json:"ipv6Present"`
	Address4          string   `json:"address4,omitempty"`
	Address6          string   `json:"address6,omitempty"`

	// Ports is keyed by port number. Last writer wins on the protocol.
	Ports map[string]Port `json:"ports"`

	// ─────────────────────────────
	// Advertised metadata
	// ─────────────────────────────

	Info map[string]string `json:"info"`
	URLs []string          `json:"urls"`
	Tags []string          `json:"tags"`

	AdminURL        string `json:"adminUrl,omitempty"`
	SecureAdminURL  string `json:"secureAdminUrl,omitempty"`
	AdminPort       string `json:"adminPort,omitempty"`
	SecureAdminPort string `json:"secureAdminPort,omitempty"`
}

// NewDeviceProfile returns an empty profile for id.
func NewDeviceProfile(id string) *DeviceProfile {
	return &DeviceProfile{
		Name:              UnknownName,
		LocalAddress:      id,
		NetworkInterfaces: []string{},
		Ports:             make(map[string]Port),
		Info:              make(map[string]string),
		URLs:              []string{},
		Tags:              []string{},
	}
}

// HasTag reports whether tag is set on the profile.
func (p *DeviceProfile) HasTag(tag string) bool {
	return containsString(p.Tags, tag)
}

// SortedPorts returns the ports ordered by numeric port value. Non numeric
// ports sort last, lexically.
func (p *DeviceProfile) SortedPorts() []Port {
	ports := make([]Port, 0, len(p.Ports))
	for _, port := range p.Ports {
		ports = append(ports, port)
	}
	sort.Slice(ports, func(i, j int) bool {
		a, errA := strconv.Atoi(ports[i].Port)
		b, errB := strconv.Atoi(ports[j].Port)
		switch {
		case errA == nil && errB == nil:
			return a < b
		case errA == nil:
			return true
		case errB == nil:
			return false
		default:
			return ports[i].Port < ports[j].Port
		}
	})
	return ports
}

func containsString(values []string, v string) bool {
	for _, existing := range values {
		if existing == v {
			return true
		}
	}
	return false
}

// appendUnique appends v unless already present, keeping insertion order.
func appendUnique(values []string, v string) []string {
	if containsString(values, v) {
		return values
	}
	return append(values, v)
}

func removeString(values []string, v string) []string {
	out := make([]string, 0, len(values))
	for _, existing := range values {
		if existing != v {
			out = append(out, existing)
		}
	}
	return out
}

package domain

import "strings"

const (
	schemeHTTP  = "http"
	schemeHTTPS = "https"
)

// ResolveAdminURL picks the management URL of a device. First present
// candidate wins:
//
//  1. secure admin url (https)
//  2. local address + secure admin port (https)
//  3. admin url (http)
//  4. local address + admin port (http)
//
// The scheme is only added when the candidate has none.
func ResolveAdminURL(p *DeviceProfile) (string, bool) {
	if p == nil {
		return "", false
	}

	switch {
	case p.SecureAdminURL != "":
		return withScheme(p.SecureAdminURL, schemeHTTPS), true
	case p.SecureAdminPort != "":
		return withScheme(p.LocalAddress+":"+p.SecureAdminPort, schemeHTTPS), true
	case p.AdminURL != "":
		return withScheme(p.AdminURL, schemeHTTP), true
	case p.AdminPort != "":
		return withScheme(p.LocalAddress+":"+p.AdminPort, schemeHTTP), true
	default:
		return "", false
	}
}

// AdministrationURL is ResolveAdminURL without the presence flag.
func (p *DeviceProfile) AdministrationURL() string {
	u, _ := ResolveAdminURL(p)
	return u
}

func withScheme(raw, scheme string) string {
	if hasScheme(raw) {
		return raw
	}
	return scheme + "://" + raw
}

// hasScheme reports whether raw starts with "<scheme>://".
func hasScheme(raw string) bool {
	i := strings.Index(raw, "://")
	if i <= 0 {
		return false
	}
	for _, r := range raw[:i] {
		isLetter := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
		isOther := (r >= '0' && r <= '9') || r == '+' || r == '-' || r == '.'
		if !isLetter && !isOther {
			return false
		}
	}
	return true
}

package domain

import "strings"

// Info keys with a dedicated profile field.
const (
	InfoKeyAdminURL        = "admin_url"
	InfoKeyAdminURLAlt     = "adminurl"
	InfoKeySecureAdminURL  = "secure_admin_url"
	InfoKeyAdminPort       = "admin_port"
	InfoKeySecureAdminPort = "secure_admin_port"
	InfoKeyURL             = "url"
)

const infoTokenSeparator = `" "`

// InfoPair is one key=value token of a TXT blob.
type InfoPair struct {
	Key   string
	Value string
}

// ParseInfoBlob splits `"k1=v1" "k2=v2"` into pairs, in blob order.
//
// Each token is split on its first '='. Tokens without '=' or with an empty
// value are dropped. An empty key is kept.
func ParseInfoBlob(blob string) []InfoPair {
	if blob == "" {
		return nil
	}

	var pairs []InfoPair
	for _, token := range strings.Split(blob, infoTokenSeparator) {
		token = strings.TrimPrefix(token, `"`)
		token = strings.TrimSuffix(token, `"`)

		key, value, ok := strings.Cut(token, "=")
		if !ok || value == "" {
			continue
		}
		pairs = append(pairs, InfoPair{Key: key, Value: value})
	}
	return pairs
}

package domain

import (
	"regexp"
	"sort"
)

// Anchored dotted quad, each octet 0-255.
var ipv4Pattern = regexp.MustCompile(`^(25[0-5]|2[0-4][0-9]|[01]?[0-9][0-9]?)\.(25[0-5]|2[0-4][0-9]|[01]?[0-9][0-9]?)\.(25[0-5]|2[0-4][0-9]|[01]?[0-9][0-9]?)\.(25[0-5]|2[0-4][0-9]|[01]?[0-9][0-9]?)$`)

// IsIPv4 reports whether addr is written as an IPv4 address.
func IsIPv4(addr string) bool {
	return ipv4Pattern.MatchString(addr)
}

// Result is the outcome of one aggregation pass.
type Result struct {
	// Devices maps DeviceID to its merged profile.
	Devices map[string]*DeviceProfile
	// Interfaces maps an interface name to the addresses seen on it,
	// in first-seen order.
	Interfaces map[string][]string
	// Diagnostics lists skipped records ordered by line.
	Diagnostics []Diagnostic
	// Records counts the records that contributed to a device.
	Records int
}

// Aggregator folds advertisement records into device profiles.
// It holds no per-scan state and is safe for concurrent use.
type Aggregator struct {
	vocab Vocabulary
}

// NewAggregator returns an aggregator classifying with vocab.
func NewAggregator(vocab Vocabulary) *Aggregator {
	return &Aggregator{vocab: vocab}
}

// Aggregate parses lines and folds the records in one go.
func (a *Aggregator) Aggregate(lines []string) Result {
	records, parseDiags := ParseLines(lines)
	res := a.Fold(records)

	if len(parseDiags) > 0 {
		res.Diagnostics = append(parseDiags, res.Diagnostics...)
		sort.SliceStable(res.Diagnostics, func(i, j int) bool {
			return res.Diagnostics[i].Line < res.Diagnostics[j].Line
		})
	}
	return res
}

// Fold merges records left to right. Later records win per-field ties, so
// order matters. Records without a DeviceID are skipped with a diagnostic.
func (a *Aggregator) Fold(records []RawRecord) Result {
	res := Result{
		Devices:    make(map[string]*DeviceProfile),
		Interfaces: make(map[string][]string),
	}

	for _, rec := range records {
		id := rec.DeviceID()
		if id == "" {
			res.Diagnostics = append(res.Diagnostics, newMissingDeviceID(rec))
			continue
		}

		profile, ok := res.Devices[id]
		if !ok {
			profile = NewDeviceProfile(id)
			res.Devices[id] = profile
		}

		a.apply(profile, rec)
		res.Records++

		if addr := rec.Address(); addr != "" {
			iface := rec.Interface()
			res.Interfaces[iface] = appendUnique(res.Interfaces[iface], addr)
		}
	}

	for _, profile := range res.Devices {
		profile.Tags = NormalizeTags(profile.Tags)
	}

	return res
}

func (a *Aggregator) apply(p *DeviceProfile, rec RawRecord) {
	// Name
	if name := rec.Name(); name != "" && !a.vocab.IgnoresName(name) {
		p.Name = name
	}

	// Addresses: the value decides the slot, the label decides the flag.
	if addr := rec.Address(); addr != "" {
		if IsIPv4(addr) {
			p.Address4 = addr
		} else {
			p.Address6 = addr
		}
	}
	switch rec.Family() {
	case FamilyIPv4:
		p.IPv4Present = true
	case FamilyIPv6:
		p.IPv6Present = true
	}

	p.NetworkInterfaces = appendUnique(p.NetworkInterfaces, rec.Interface())

	port := rec.Port()
	p.Ports[port] = Port{Port: port, Protocol: rec.ServiceType()}

	for _, pair := range ParseInfoBlob(rec.InfoBlob()) {
		p.Info[pair.Key] = pair.Value

		switch pair.Key {
		case InfoKeyAdminURL, InfoKeyAdminURLAlt:
			p.AdminURL = pair.Value
		case InfoKeySecureAdminURL:
			p.SecureAdminURL = pair.Value
		case InfoKeyAdminPort:
			p.AdminPort = pair.Value
		case InfoKeySecureAdminPort:
			p.SecureAdminPort = pair.Value
		case InfoKeyURL:
			p.URLs = appendUnique(p.URLs, pair.Value)
		}

		p.addTags(a.vocab.InfoTags(pair.Value))
	}

	p.addTags(a.vocab.ProtocolTags(rec.ServiceType()))
	p.addTags(a.vocab.InfoTags(rec.Name()))
}

func (p *DeviceProfile) addTags(tags []string) {
	for _, tag := range tags {
		p.Tags = appendUnique(p.Tags, tag)
	}
}

// Fold aggregates records with the built-in vocabulary.
func Fold(records []RawRecord) Result {
	return NewAggregator(DefaultVocabulary()).Fold(records)
}

// Aggregate parses and aggregates lines with the built-in vocabulary.
func Aggregate(lines []string) Result {
	return NewAggregator(DefaultVocabulary()).Aggregate(lines)
}

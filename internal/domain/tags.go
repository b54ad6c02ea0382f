package domain

import (
	"slices"
	"strings"
)

// Tags produced by the built-in vocabulary and used by normalization.
const (
	TagApple        = "Apple"
	TagBorderRouter = "BorderRouter"
	TagMacBook      = "MacBook"
	TagRouter       = "Router"
	TagServer       = "Server"
	TagXServe       = "XServe"
)

// TagRule adds Tag when Term is contained (case-insensitively) in the
// inspected value.
type TagRule struct {
	Term string
	Tag  string
}

// Matches reports whether the rule applies to value.
func (r TagRule) Matches(value string) bool {
	if r.Term == "" || value == "" {
		return false
	}
	return strings.Contains(strings.ToLower(value), strings.ToLower(r.Term))
}

var defaultInfoTerms = []string{
	"Google", "Apple", "Amazon", "Synology", "AudioAccessory", "Printer",
	"BorderRouter", "HomePod", "Sensor", "XServe", "Server", "Router",
	"MacBook", "Laptop", "Samba", "Time Machine", "Homebridge", "Candle",
	"Privacy",
}

var defaultProtocolTerms = []string{"Airplay"}

// Names advertised by bridge software on behalf of other devices. A record
// carrying one of them must not rename the device.
var defaultIgnoredNames = []string{"Candle Homebridge", "CandleMQTT-"}

// Vocabulary is the rule table used by the tag classifier and the name
// update rule. Rule order is evaluation order.
type Vocabulary struct {
	// InfoRules are matched against the advertised name and every info value.
	InfoRules []TagRule
	// ProtocolRules are matched against the service type only.
	ProtocolRules []TagRule
	// IgnoredNames are case-sensitive substrings; a candidate name
	// containing one is not applied.
	IgnoredNames []string
}

// DefaultVocabulary returns a fresh copy of the built-in rule table.
func DefaultVocabulary() Vocabulary {
	return Vocabulary{
		InfoRules:     selfRules(defaultInfoTerms),
		ProtocolRules: selfRules(defaultProtocolTerms),
		IgnoredNames:  append([]string(nil), defaultIgnoredNames...),
	}
}

func selfRules(terms []string) []TagRule {
	rules := make([]TagRule, 0, len(terms))
	for _, term := range terms {
		rules = append(rules, TagRule{Term: term, Tag: term})
	}
	return rules
}

// Extend returns v with the rules and names of other appended. Entries
// already present are skipped, so extending twice is harmless.
func (v Vocabulary) Extend(other Vocabulary) Vocabulary {
	out := Vocabulary{
		InfoRules:     appendRules(append([]TagRule(nil), v.InfoRules...), other.InfoRules),
		ProtocolRules: appendRules(append([]TagRule(nil), v.ProtocolRules...), other.ProtocolRules),
		IgnoredNames:  append([]string(nil), v.IgnoredNames...),
	}
	for _, name := range other.IgnoredNames {
		if name != "" {
			out.IgnoredNames = appendUnique(out.IgnoredNames, name)
		}
	}
	return out
}

func appendRules(rules []TagRule, extra []TagRule) []TagRule {
	for _, rule := range extra {
		if rule.Term == "" || rule.Tag == "" {
			continue
		}
		dup := false
		for _, existing := range rules {
			if existing == rule {
				dup = true
				break
			}
		}
		if !dup {
			rules = append(rules, rule)
		}
	}
	return rules
}

// IgnoresName reports whether name belongs to a bridge service.
func (v Vocabulary) IgnoresName(name string) bool {
	for _, pattern := range v.IgnoredNames {
		if pattern != "" && strings.Contains(name, pattern) {
			return true
		}
	}
	return false
}

// InfoTags returns the tags the info rules derive from value.
func (v Vocabulary) InfoTags(value string) []string {
	return matchRules(v.InfoRules, value)
}

// ProtocolTags returns the tags the protocol rules derive from serviceType.
func (v Vocabulary) ProtocolTags(serviceType string) []string {
	return matchRules(v.ProtocolRules, serviceType)
}

func matchRules(rules []TagRule, value string) []string {
	var tags []string
	for _, rule := range rules {
		if rule.Matches(value) {
			tags = appendUnique(tags, rule.Tag)
		}
	}
	return tags
}

// NormalizeTags collapses model tags into presentation categories:
//
//  1. XServe becomes Server.
//  2. Router is dropped when BorderRouter is present.
//  3. MacBook implies Apple.
//
// Applying it more than once yields the same set.
func NormalizeTags(tags []string) []string {
	tags = slices.Clone(tags)
	if containsString(tags, TagXServe) {
		tags = appendUnique(tags, TagServer)
		tags = removeString(tags, TagXServe)
	}
	if containsString(tags, TagRouter) && containsString(tags, TagBorderRouter) {
		tags = removeString(tags, TagRouter)
	}
	if containsString(tags, TagMacBook) {
		tags = appendUnique(tags, TagApple)
	}
	return tags
}

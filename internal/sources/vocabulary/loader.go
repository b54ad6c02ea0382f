package vocabulary

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/MrSnakeDoc/presence/internal/domain"
)

// File is the on-disk shape of a vocabulary extension:
//
//	info_tags:
//	  - Sonos
//	  - term: Chromecast
//	    tag: Google
//	protocol_tags:
//	  - { term: _googlecast, tag: Google }
//	ignored_names:
//	  - Hue Bridge
type File struct {
	InfoTags     []Rule   `yaml:"info_tags"`
	ProtocolTags []Rule   `yaml:"protocol_tags"`
	IgnoredNames []string `yaml:"ignored_names"`
}

// Rule is either a bare term (tag equals term) or a term/tag mapping.
type Rule struct {
	Term string `yaml:"term"`
	Tag  string `yaml:"tag"`
}

func (r *Rule) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		r.Term = strings.TrimSpace(node.Value)
		r.Tag = r.Term
		return nil
	case yaml.MappingNode:
		type plain Rule
		var p plain
		if err := node.Decode(&p); err != nil {
			return err
		}
		r.Term = strings.TrimSpace(p.Term)
		r.Tag = strings.TrimSpace(p.Tag)
		if r.Tag == "" {
			r.Tag = r.Term
		}
		return nil
	default:
		return fmt.Errorf("line %d: tag rule must be a string or a term/tag mapping", node.Line)
	}
}

// Loader reads a vocabulary extension file.
type Loader struct {
	filePath string
}

func NewLoader(filePath string) *Loader {
	return &Loader{filePath: filePath}
}

// Load parses the file. It does not merge with the built-in table.
func (l *Loader) Load() (File, error) {
	data, err := os.ReadFile(l.filePath)
	if err != nil {
		return File{}, fmt.Errorf("failed to read vocabulary file: %w", err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return File{}, fmt.Errorf("failed to parse vocabulary yaml: %w", err)
	}
	return f, nil
}

// Vocabulary converts the file into a domain vocabulary fragment.
func (f File) Vocabulary() domain.Vocabulary {
	return domain.Vocabulary{
		InfoRules:     toRules(f.InfoTags),
		ProtocolRules: toRules(f.ProtocolTags),
		IgnoredNames:  f.IgnoredNames,
	}
}

func toRules(rules []Rule) []domain.TagRule {
	out := make([]domain.TagRule, 0, len(rules))
	for _, r := range rules {
		if r.Term == "" {
			continue
		}
		out = append(out, domain.TagRule{Term: r.Term, Tag: r.Tag})
	}
	return out
}

// Resolve returns the built-in vocabulary extended with the file at path.
// An empty path yields the built-in vocabulary.
func Resolve(path string) (domain.Vocabulary, error) {
	base := domain.DefaultVocabulary()
	if path == "" {
		return base, nil
	}
	f, err := NewLoader(path).Load()
	if err != nil {
		return domain.Vocabulary{}, err
	}
	return base.Extend(f.Vocabulary()), nil
}

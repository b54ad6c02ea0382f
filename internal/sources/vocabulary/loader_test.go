package vocabulary

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/MrSnakeDoc/presence/internal/domain"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "vocabulary.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to create test YAML file: %v", err)
	}
	return path
}

func TestLoaderLoad(t *testing.T) {
	path := writeFile(t, `---
info_tags:
  - Sonos
  - term: Chromecast
    tag: Google
  - term: Kindle
protocol_tags:
  - { term: _googlecast, tag: Google }
ignored_names:
  - Hue Bridge
`)

	f, err := NewLoader(path).Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	want := []Rule{
		{Term: "Sonos", Tag: "Sonos"},
		{Term: "Chromecast", Tag: "Google"},
		{Term: "Kindle", Tag: "Kindle"},
	}
	if len(f.InfoTags) != len(want) {
		t.Fatalf("InfoTags = %+v, want %+v", f.InfoTags, want)
	}
	for i := range want {
		if f.InfoTags[i] != want[i] {
			t.Errorf("InfoTags[%d] = %+v, want %+v", i, f.InfoTags[i], want[i])
		}
	}
	if len(f.ProtocolTags) != 1 || f.ProtocolTags[0].Tag != "Google" {
		t.Errorf("ProtocolTags = %+v", f.ProtocolTags)
	}
	if len(f.IgnoredNames) != 1 || f.IgnoredNames[0] != "Hue Bridge" {
		t.Errorf("IgnoredNames = %v", f.IgnoredNames)
	}
}

func TestLoaderLoadInvalidRule(t *testing.T) {
	path := writeFile(t, `info_tags:
  - [nested, list]
`)
	if _, err := NewLoader(path).Load(); err == nil {
		t.Fatal("Load() error = nil, want error for sequence rule")
	}
}

func TestLoaderLoadMissingFile(t *testing.T) {
	if _, err := NewLoader(filepath.Join(t.TempDir(), "missing.yaml")).Load(); err == nil {
		t.Fatal("Load() error = nil, want error")
	}
}

func TestResolve(t *testing.T) {
	base, err := Resolve("")
	if err != nil {
		t.Fatalf("Resolve(\"\") error = %v", err)
	}
	if len(base.InfoRules) != len(domain.DefaultVocabulary().InfoRules) {
		t.Errorf("Resolve(\"\") should return the built-in vocabulary")
	}

	path := writeFile(t, `info_tags:
  - term: Chromecast
    tag: Google
ignored_names:
  - Hue Bridge
`)
	vocab, err := Resolve(path)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	res := domain.NewAggregator(vocab).Aggregate([]string{
		`=;eth0;IPv4;Living Room;_googlecast._tcp;local;tv.local;10.0.0.20;8009;"md=Chromecast Ultra"`,
		`=;eth0;IPv4;Hue Bridge - 1A;_hue._tcp;local;tv.local;10.0.0.20;443;`,
	})
	p := res.Devices["tv.local"]
	if p == nil {
		t.Fatal("device tv.local missing")
	}
	if p.Name != "Living Room" {
		t.Errorf("Name = %q, want Living Room", p.Name)
	}
	if !p.HasTag("Google") {
		t.Errorf("Tags = %v, want Google", p.Tags)
	}
}

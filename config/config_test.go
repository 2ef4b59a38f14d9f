package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	cases := map[string]struct {
		name    string
		content string
		expect  *Config
	}{
		"yaml": {
			name: "xmlb.yaml",
			content: `
log:
  level: debug
serializer:
  xinclude: false
xinclude:
  max-depth: 4
metrics:
  enabled: true
`,
			expect: &Config{
				Log:        LogConfig{Level: "debug"},
				Serializer: SerializerConfig{XInclude: false},
				XInclude:   XIncludeConfig{MaxDepth: 4},
				Metrics:    MetricsConfig{Enabled: true},
			},
		},
		"json defaults": {
			name:    "xmlb.json",
			content: `{"log": {"level": "warn"}}`,
			expect: &Config{
				Log:        LogConfig{Level: "warn"},
				Serializer: SerializerConfig{XInclude: true},
				XInclude:   XIncludeConfig{MaxDepth: 16},
			},
		},
	}

	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			cfg, err := Load(writeConfig(t, c.name, c.content))
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if diff := cmp.Diff(c.expect, cfg); len(diff) != 0 {
				t.Errorf("config mismatch (-expect +actual):\n%s", diff)
			}
		})
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("XMLB_XINCLUDE_MAX_DEPTH", "3")

	cfg, err := Load(writeConfig(t, "xmlb.yaml", "log:\n  level: info\n"))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if e, a := 3, cfg.XInclude.MaxDepth; e != a {
		t.Errorf("expected %v, got %v", e, a)
	}
}

func TestLoadErrors(t *testing.T) {
	cases := map[string]string{
		"missing":        filepath.Join(t.TempDir(), "none.yaml"),
		"unknown type":   writeConfig(t, "xmlb.toml", "x = 1"),
		"malformed":      writeConfig(t, "xmlb.json", "{"),
		"negative depth": writeConfig(t, "xmlb.yaml", "xinclude:\n  max-depth: -1\n"),
		"bad level":      writeConfig(t, "xmlb.yaml", "log:\n  level: loud\n"),
	}

	for name, path := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Load(path); err == nil {
				t.Errorf("expected error")
			}
		})
	}
}

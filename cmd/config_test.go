package cmd

import (
	"bytes"
	"slices"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/samsaffron/mdstream/internal/config"
)

func parseNode(t *testing.T, src string) *yaml.Node {
	t.Helper()
	var root yaml.Node
	if err := yaml.Unmarshal([]byte(src), &root); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	return &root
}

func TestSetAndGetYAMLValue(t *testing.T) {
	root := parseNode(t, "provider: openai\nrender:\n  width: 80\n")

	tests := []struct {
		key   string
		value string
	}{
		{"render.preset", "nord"},
		{"render.width", "100"},
		{"record.enabled", "true"},
		{"styles.h1.fg", "#ff0000"},
		{"provider", "gemini"},
	}
	for _, tt := range tests {
		if err := setYAMLValue(root, strings.Split(tt.key, "."), tt.value); err != nil {
			t.Fatalf("set %s: %v", tt.key, err)
		}
	}
	for _, tt := range tests {
		got, err := getYAMLValue(root, strings.Split(tt.key, "."))
		if err != nil {
			t.Errorf("get %s: %v", tt.key, err)
			continue
		}
		if got != tt.value {
			t.Errorf("get %s = %q, want %q", tt.key, got, tt.value)
		}
	}

	out, err := yaml.Marshal(root)
	if err != nil {
		t.Fatal(err)
	}
	var cfg struct {
		Render struct {
			Width  int    `yaml:"width"`
			Preset string `yaml:"preset"`
		} `yaml:"render"`
	}
	if err := yaml.Unmarshal(out, &cfg); err != nil {
		t.Fatal(err)
	}
	if cfg.Render.Width != 100 || cfg.Render.Preset != "nord" {
		t.Errorf("round trip = %+v\n%s", cfg, out)
	}

	if _, err := getYAMLValue(root, []string{"render"}); err == nil {
		t.Error("expected an error for a mapping value")
	}
	if _, err := getYAMLValue(root, []string{"render", "missing"}); err == nil {
		t.Error("expected an error for a missing key")
	}
	if _, err := getYAMLValue(root, []string{"provider", "deeper"}); err == nil {
		t.Error("expected an error for a path through a scalar")
	}
}

func TestSetYAMLValueReplacesScalarParent(t *testing.T) {
	root := parseNode(t, "render: oops\n")
	if err := setYAMLValue(root, []string{"render", "width"}, "90"); err != nil {
		t.Fatal(err)
	}
	if got, _ := getYAMLValue(root, []string{"render", "width"}); got != "90" {
		t.Errorf("render.width = %q", got)
	}
}

func TestWriteMaskedConfig(t *testing.T) {
	cfg := config.Defaults()
	cfg.OpenAI.APIKey = "sk-very-secret"
	cfg.Anthropic.APIKey = ""

	var buf bytes.Buffer
	if err := writeMaskedConfig(&buf, cfg); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if strings.Contains(out, "sk-very-secret") {
		t.Fatalf("api key leaked:\n%s", out)
	}
	if !strings.Contains(out, "[set]") || !strings.Contains(out, "[NOT SET - export ANTHROPIC_API_KEY]") {
		t.Errorf("masked output:\n%s", out)
	}
	if cfg.OpenAI.APIKey != "sk-very-secret" {
		t.Error("masking modified the config")
	}
}

func TestConfigKeys(t *testing.T) {
	keys := configKeys()
	for _, want := range []string{"provider", "render.preset", "record.retention", "styles.h1.fg", "styles.codelang.bg"} {
		if !slices.Contains(keys, want) {
			t.Errorf("missing key %s", want)
		}
	}
	if got := filterPrefix(keys, "render.co"); !slices.Equal(got, []string{"render.color"}) {
		t.Errorf("filterPrefix = %v", got)
	}
	if got := configValueCompletions("styles.h2.bold"); !slices.Equal(got, []string{"true", "false"}) {
		t.Errorf("bool completions = %v", got)
	}
	if got := configValueCompletions("render.preset"); !slices.Contains(got, "gruvbox") {
		t.Errorf("preset completions = %v", got)
	}
}

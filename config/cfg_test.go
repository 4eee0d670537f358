package config

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/rupor-github/gencfg"

	"docasm/common"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	return path
}

func TestLoadConfiguration_NoFile(t *testing.T) {
	cfg, err := LoadConfiguration("")
	if err != nil {
		t.Fatalf("LoadConfiguration() with empty path error = %v", err)
	}
	if cfg.Version != 1 {
		t.Errorf("Default config version = %d, want 1", cfg.Version)
	}
	if !cfg.Assembly.NormalizeStyleIDs {
		t.Error("style id normalization should be on by default")
	}
	if cfg.Assembly.MissingMarker != common.MissingMarkerPolicyIgnore {
		t.Errorf("MissingMarker = %s, want ignore", cfg.Assembly.MissingMarker)
	}
	if !strings.Contains(cfg.Assembly.OutputNameTemplate, "{{") {
		t.Errorf("output name template was expanded: %q", cfg.Assembly.OutputNameTemplate)
	}
	if cfg.Logging.ConsoleLogger.Level != "normal" {
		t.Errorf("console level = %q", cfg.Logging.ConsoleLogger.Level)
	}
}

func TestLoadConfiguration_WithFile(t *testing.T) {
	path := writeConfig(t, `version: 1
assembly:
  normalize_style_ids: false
  custom_xml_items: ["{5F8B3D1C-2A4E-4C6B-9D0F-7E1A2B3C4D5E}"]
  missing_marker: warn
  fix_zip: true
logging:
  console:
    level: debug
reporting:
  destination: `+filepath.Join(t.TempDir(), "report.zip")+`
`)

	cfg, err := LoadConfiguration(path)
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}
	if cfg.Assembly.NormalizeStyleIDs {
		t.Error("NormalizeStyleIDs should be false")
	}
	if !cfg.Assembly.FixZip {
		t.Error("FixZip should be true")
	}
	if cfg.Assembly.MissingMarker != common.MissingMarkerPolicyWarn {
		t.Errorf("MissingMarker = %s, want warn", cfg.Assembly.MissingMarker)
	}
	if !slices.Equal(cfg.Assembly.CustomXMLItems, []string{"{5F8B3D1C-2A4E-4C6B-9D0F-7E1A2B3C4D5E}"}) {
		t.Errorf("CustomXMLItems = %q", cfg.Assembly.CustomXMLItems)
	}
	// not mentioned in the file, comes from defaults
	if cfg.Assembly.OutputNameTemplate == "" {
		t.Error("default output name template lost")
	}
	if cfg.Logging.ConsoleLogger.Level != "debug" {
		t.Errorf("console level = %q", cfg.Logging.ConsoleLogger.Level)
	}
}

func TestLoadConfiguration_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"invalid yaml", "version: 1\nassembly:\n  fix_zip: true\n  invalid indent\n"},
		{"unknown field", "version: 1\nunknown_field: value\n"},
		{"invalid version", "version: 2\n"},
		{"unknown policy", "version: 1\nassembly:\n  missing_marker: shout\n"},
		{"empty custom xml item", "version: 1\nassembly:\n  custom_xml_items: [\"\"]\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadConfiguration(writeConfig(t, tt.content)); err == nil {
				t.Error("expected error")
			}
		})
	}

	if _, err := LoadConfiguration("/nonexistent/config.yaml"); err == nil {
		t.Error("Expected error for nonexistent file")
	}
}

func TestLoadConfiguration_WithOptions(t *testing.T) {
	called := false
	option := func(*gencfg.ProcessingOptions) { called = true }

	if _, err := LoadConfiguration("", option); err != nil {
		t.Fatalf("LoadConfiguration() with options error = %v", err)
	}
	if !called {
		t.Error("processing option was not applied")
	}
}

func TestPrepare(t *testing.T) {
	data, err := Prepare()
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	if _, err = unmarshalConfig(data, &Config{}, true); err != nil {
		t.Errorf("Prepared config is not valid: %v", err)
	}
}

func TestDump(t *testing.T) {
	cfg := &Config{
		Version: 1,
		Assembly: AssemblyConfig{
			NormalizeStyleIDs: true,
			MissingMarker:     common.MissingMarkerPolicyFail,
			CustomXMLItems:    []string{"{A}"},
		},
	}

	data, err := Dump(cfg)
	if err != nil {
		t.Fatalf("Dump() error = %v", err)
	}
	if !strings.Contains(string(data), "missing_marker: fail") {
		t.Errorf("policy is not dumped by name:\n%s", data)
	}

	cfg2, err := unmarshalConfig(data, &Config{}, false)
	if err != nil {
		t.Fatalf("Dumped config cannot be loaded: %v", err)
	}
	if cfg2.Assembly.MissingMarker != common.MissingMarkerPolicyFail || !cfg2.Assembly.NormalizeStyleIDs {
		t.Errorf("assembly section mismatch after dump/load: %+v", cfg2.Assembly)
	}
}

func TestCleanFileName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"report", "report"},
		{"", "_bad_file_name_"},
		{"a" + string(os.PathSeparator) + "b", "ab"},
		{"  ..hidden ", "hidden"},
		{"tab\tbed", "tabbed"},
		{"...", "_bad_file_name_"},
		{strings.Repeat("ж", 200), strings.Repeat("ж", 120)},
	}
	for _, tt := range tests {
		if got := CleanFileName(tt.in); got != tt.want {
			t.Errorf("CleanFileName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

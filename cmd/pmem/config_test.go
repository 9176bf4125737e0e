package main

import (
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/matsen/papermem/internal/config"
)

func TestSetConfigValue(t *testing.T) {
	cfg := &config.Config{}

	if err := setConfigValue(cfg, "merge-threshold", "-1"); err != nil {
		t.Fatalf("setConfigValue(merge-threshold) error = %v", err)
	}
	if cfg.MergeThreshold == nil || *cfg.MergeThreshold != -1 {
		t.Errorf("MergeThreshold = %v, want -1", cfg.MergeThreshold)
	}

	if err := setConfigValue(cfg, "provider-order", "S2, dblp"); err != nil {
		t.Fatalf("setConfigValue(provider-order) error = %v", err)
	}
	if want := []string{"semanticscholar", "dblp"}; !reflect.DeepEqual(cfg.ProviderOrder, want) {
		t.Errorf("ProviderOrder = %v, want %v", cfg.ProviderOrder, want)
	}

	if err := setConfigValue(cfg, "pacing", "250ms"); err != nil {
		t.Fatalf("setConfigValue(pacing) error = %v", err)
	}
	if cfg.Pacing != "250ms" {
		t.Errorf("Pacing = %q, want 250ms", cfg.Pacing)
	}
}

func TestSetConfigValue_Errors(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{"merge-threshold", "four"},
		{"provider-order", "dblp,bing"},
		{"pacing", "-1s"},
		{"pdf-root", "/tmp"},
	}

	for _, tt := range tests {
		if err := setConfigValue(&config.Config{}, tt.key, tt.value); err == nil {
			t.Errorf("setConfigValue(%q, %q) error = nil", tt.key, tt.value)
		}
	}
}

func TestNormalizeKey(t *testing.T) {
	for _, in := range []string{"merge-threshold", "merge_threshold", " Merge_Threshold "} {
		if got := normalizeKey(in); got != "merge-threshold" {
			t.Errorf("normalizeKey(%q) = %q", in, got)
		}
	}
}

func TestFormatSettingsHuman_HidesKey(t *testing.T) {
	out := formatSettingsHuman(config.Settings{
		Root:          "/lib",
		ProviderOrder: []string{"dblp"},
		Pacing:        time.Second,
		S2APIKey:      "secret",
	})
	if strings.Contains(out, "secret") {
		t.Errorf("formatSettingsHuman() leaked the API key:\n%s", out)
	}
	if !strings.Contains(out, "s2-api-key:      (set)") {
		t.Errorf("formatSettingsHuman() = %q, want key marked as set", out)
	}
}

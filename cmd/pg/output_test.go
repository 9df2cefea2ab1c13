package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/peoplegraph/peoplegraph/internal/config"
)

func TestTruncateString(t *testing.T) {
	tests := []struct {
		in     string
		maxLen int
		want   string
	}{
		{"short", 10, "short"},
		{"exactly10!", 10, "exactly10!"},
		{"this is too long", 10, "this is..."},
		{"Ádám Ödön Ürge", 8, "Ádám ..."},
	}

	for _, tt := range tests {
		if got := truncateString(tt.in, tt.maxLen); got != tt.want {
			t.Errorf("truncateString(%q, %d) = %q, want %q", tt.in, tt.maxLen, got, tt.want)
		}
	}
}

func TestFormatIndices(t *testing.T) {
	if got := formatIndices(nil); got != "(none)" {
		t.Errorf("formatIndices(nil) = %q", got)
	}
	if got := formatIndices([]int{0, 3, 7}); got != "0, 3, 7" {
		t.Errorf("formatIndices() = %q", got)
	}
}

func TestNormalizeKey(t *testing.T) {
	for in, want := range map[string]string{
		"listen-addr":  "listen_addr",
		"listen_addr":  "listen_addr",
		" Pinned-Node": "pinned_node",
	} {
		if got := normalizeKey(in); got != want {
			t.Errorf("normalizeKey(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestConfigValues(t *testing.T) {
	values, err := configValues(config.Default())
	if err != nil {
		t.Fatalf("configValues() error = %v", err)
	}

	if values["pinned_node"] != "andrew huberman" {
		t.Errorf("pinned_node = %v", values["pinned_node"])
	}
	if values["avatar_timeout"] != "10s" {
		t.Errorf("avatar_timeout = %v", values["avatar_timeout"])
	}
	if _, ok := values["listen_addr"]; !ok {
		t.Error("missing listen_addr")
	}
}

func TestSetConfigValue(t *testing.T) {
	cfg := config.Default()

	if err := setConfigValue(cfg, "avatar_rate_limit", "2.5"); err != nil {
		t.Fatalf("setConfigValue() error = %v", err)
	}
	if cfg.AvatarRateLimit != 2.5 {
		t.Errorf("AvatarRateLimit = %v, want 2.5", cfg.AvatarRateLimit)
	}

	if err := setConfigValue(cfg, "avatar_timeout", "3s"); err != nil {
		t.Fatalf("setConfigValue() error = %v", err)
	}
	if cfg.AvatarTimeout != 3*time.Second {
		t.Errorf("AvatarTimeout = %v, want 3s", cfg.AvatarTimeout)
	}

	if err := setConfigValue(cfg, "image_base_url", "https://img.example.com/upload"); err != nil {
		t.Fatalf("setConfigValue() error = %v", err)
	}
	if cfg.ImageBaseURL != "https://img.example.com/upload" {
		t.Errorf("ImageBaseURL = %q", cfg.ImageBaseURL)
	}

	if err := setConfigValue(cfg, "avatar_concurrency", "many"); err == nil {
		t.Error("expected error for non-numeric concurrency")
	}
}

func TestUpdateConfigFile_KeepsOverridesOut(t *testing.T) {
	t.Setenv(config.EnvListen, "127.0.0.1:1234")
	t.Setenv(config.EnvDataPath, "https://example.com/data.json")

	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte("title: Mine\n"), 0644); err != nil {
		t.Fatal(err)
	}

	if err := updateConfigFile(path, "pinned_node", "matthew walker"); err != nil {
		t.Fatalf("updateConfigFile() error = %v", err)
	}

	saved, err := config.LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if saved.PinnedNode != "matthew walker" {
		t.Errorf("PinnedNode = %q", saved.PinnedNode)
	}
	if saved.Title != "Mine" {
		t.Errorf("Title = %q, want the file's value", saved.Title)
	}
	def := config.Default()
	if saved.ListenAddr != def.ListenAddr || saved.DataPath != def.DataPath {
		t.Errorf("environment override written to file: listen=%q data=%q", saved.ListenAddr, saved.DataPath)
	}

	if err := updateConfigFile(path, "avatar_rate_limit", "0"); err == nil {
		t.Error("expected validation error")
	}
}

package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// isolate points XDG_CONFIG_HOME at a temp dir, clears overrides, and resets
// the cache.
func isolate(t *testing.T) string {
	t.Helper()
	ResetCache()
	t.Cleanup(ResetCache)

	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmpDir)
	for _, env := range []string{EnvDataPath, EnvListen, EnvImageBase, EnvLogLevel} {
		t.Setenv(env, "")
	}
	return tmpDir
}

func TestPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/custom/config")
	want := "/custom/config/peoplegraph/config.yml"
	if got := Path(); got != want {
		t.Errorf("Path() = %q, want %q", got, want)
	}
}

func TestLoad_NotFound(t *testing.T) {
	isolate(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	def := Default()
	if cfg.DataPath != def.DataPath || cfg.ListenAddr != def.ListenAddr {
		t.Errorf("Load() = %+v, want defaults", cfg)
	}
	if cfg.PinnedNode != "andrew huberman" {
		t.Errorf("PinnedNode = %q", cfg.PinnedNode)
	}
}

func TestLoad_File(t *testing.T) {
	tmpDir := isolate(t)

	path := filepath.Join(tmpDir, ConfigDir, ConfigFile)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	content := `data_path: /srv/graph.json
listen_addr: ":9000"
pinned_node: ""
avatar_timeout: 3s
avatar_concurrency: 2
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.DataPath != "/srv/graph.json" {
		t.Errorf("DataPath = %q", cfg.DataPath)
	}
	if cfg.ListenAddr != ":9000" {
		t.Errorf("ListenAddr = %q", cfg.ListenAddr)
	}
	if cfg.PinnedNode != "" {
		t.Errorf("PinnedNode = %q, want empty", cfg.PinnedNode)
	}
	if cfg.AvatarTimeout != 3*time.Second {
		t.Errorf("AvatarTimeout = %v", cfg.AvatarTimeout)
	}
	if cfg.AvatarConcurrency != 2 {
		t.Errorf("AvatarConcurrency = %d", cfg.AvatarConcurrency)
	}
	// Untouched keys keep their defaults
	if cfg.ImageBaseURL != Default().ImageBaseURL {
		t.Errorf("ImageBaseURL = %q", cfg.ImageBaseURL)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	isolate(t)
	t.Setenv(EnvDataPath, "https://example.com/data.json")
	t.Setenv(EnvListen, "127.0.0.1:1234")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.DataPath != "https://example.com/data.json" {
		t.Errorf("DataPath = %q", cfg.DataPath)
	}
	if cfg.ListenAddr != "127.0.0.1:1234" {
		t.Errorf("ListenAddr = %q", cfg.ListenAddr)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tmpDir := isolate(t)

	path := filepath.Join(tmpDir, "bad.yml")
	if err := os.WriteFile(path, []byte("avatar_rate_limit: 0\n"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := Load(path)
	if !errors.Is(err, ErrBadRateLimit) {
		t.Errorf("Load() error = %v, want ErrBadRateLimit", err)
	}
}

func TestLoad_Malformed(t *testing.T) {
	tmpDir := isolate(t)

	path := filepath.Join(tmpDir, "bad.yml")
	if err := os.WriteFile(path, []byte("data_path: [unclosed\n"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(path); err == nil {
		t.Error("expected error for malformed YAML")
	}
}

func TestLoadFile_IgnoresEnv(t *testing.T) {
	tmpDir := isolate(t)
	t.Setenv(EnvListen, "127.0.0.1:1234")

	path := filepath.Join(tmpDir, "config.yml")
	if err := os.WriteFile(path, []byte("title: From File\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if cfg.ListenAddr != Default().ListenAddr {
		t.Errorf("ListenAddr = %q, want the default", cfg.ListenAddr)
	}
	if cfg.Title != "From File" {
		t.Errorf("Title = %q", cfg.Title)
	}

	missing, err := LoadFile(filepath.Join(tmpDir, "absent.yml"))
	if err != nil {
		t.Fatalf("LoadFile(missing) error = %v", err)
	}
	if missing.DataPath != Default().DataPath {
		t.Errorf("LoadFile(missing) = %+v, want defaults", missing)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	tmpDir := isolate(t)
	path := filepath.Join(tmpDir, "nested", "config.yml")

	cfg := Default()
	cfg.Title = "Test Graph"
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.Title != "Test Graph" {
		t.Errorf("Title = %q", loaded.Title)
	}
	if loaded.AvatarTimeout != cfg.AvatarTimeout {
		t.Errorf("AvatarTimeout = %v, want %v", loaded.AvatarTimeout, cfg.AvatarTimeout)
	}
}

func TestAvatarURLs(t *testing.T) {
	cfg := Default()

	want := "https://assets.dexa.ai/image/upload/e_grayscale,w_256,h_256,c_thumb,g_face,r_max,f_auto/entities/people/abc123"
	if got := cfg.AvatarURL("abc123"); got != want {
		t.Errorf("AvatarURL() = %q, want %q", got, want)
	}

	want = "https://assets.dexa.ai/image/upload/r_max,w_256,h_256,c_thumb/entities/placeholders/person.png"
	if got := cfg.PlaceholderURL(); got != want {
		t.Errorf("PlaceholderURL() = %q, want %q", got, want)
	}

	cfg.ImageBaseURL = "http://localhost:9999/"
	cfg.AvatarTransform = ""
	if got := cfg.AvatarURL("x"); got != "http://localhost:9999/entities/people/x" {
		t.Errorf("AvatarURL() = %q", got)
	}
}

func TestExpandTilde(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("Cannot get home directory")
	}

	tests := []struct {
		in   string
		want string
	}{
		{"~/data.json", filepath.Join(home, "data.json")},
		{"/abs/data.json", "/abs/data.json"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := ExpandTilde(tt.in); got != tt.want {
			t.Errorf("ExpandTilde(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

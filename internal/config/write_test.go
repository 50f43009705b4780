package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/esdrain/esdrain/internal/config"
	"github.com/esdrain/esdrain/internal/testutil"
)

func TestWrite_Roundtrip(t *testing.T) {
	testutil.NewTestEnv(t)

	cfg := config.NewDefaultConfig()
	cfg.Export.Index = "logs-archive"
	cfg.Export.BatchSize = 500

	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	if err := config.Write(&cfg, path); err != nil {
		t.Fatalf("Write() failed: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat() failed: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("file mode = %o, want 0600", perm)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() failed: %v", err)
	}
	if !strings.HasPrefix(string(data), "# esdrain configuration") {
		t.Errorf("file missing header, starts with %q", string(data)[:40])
	}

	loaded, err := config.LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath() failed: %v", err)
	}
	if loaded.Export.Index != "logs-archive" {
		t.Errorf("Index = %q, want %q", loaded.Export.Index, "logs-archive")
	}
	if loaded.Export.BatchSize != 500 {
		t.Errorf("BatchSize = %d, want 500", loaded.Export.BatchSize)
	}
}

func TestWrite_ExpandsHome(t *testing.T) {
	testutil.NewTestEnv(t)
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg := config.NewDefaultConfig()
	if err := config.Write(&cfg, "~/.config/esdrain/config.yaml"); err != nil {
		t.Fatalf("Write() failed: %v", err)
	}

	want := filepath.Join(home, ".config", "esdrain", "config.yaml")
	if !config.ConfigExistsAt(want) {
		t.Errorf("config not written to %s", want)
	}
}

func TestConfigExistsAt(t *testing.T) {
	testutil.NewTestEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	if config.ConfigExistsAt(path) {
		t.Error("ConfigExistsAt() = true for a missing file")
	}
	if err := os.WriteFile(path, []byte("log_level: info\n"), 0644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}
	if !config.ConfigExistsAt(path) {
		t.Error("ConfigExistsAt() = false for an existing file")
	}
}

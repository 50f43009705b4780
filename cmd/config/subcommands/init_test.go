package subcommands

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/esdrain/esdrain/internal/config"
	"github.com/esdrain/esdrain/internal/testutil"
)

func TestRunInit_WritesDefaultConfig(t *testing.T) {
	testutil.NewTestEnv(t)
	home := t.TempDir()
	t.Setenv("HOME", home)

	if err := runInit(InitCmd, nil); err != nil {
		t.Fatalf("runInit() failed: %v", err)
	}

	path := filepath.Join(home, ".config", "esdrain", "config.yaml")
	if !config.ConfigExistsAt(path) {
		t.Fatalf("config not written to %s", path)
	}

	cfg, err := config.LoadFromPath(path)
	if err != nil {
		t.Fatalf("written config does not load: %v", err)
	}
	if cfg.Export.BatchSize != config.DefaultBatchSize {
		t.Errorf("BatchSize = %d, want %d", cfg.Export.BatchSize, config.DefaultBatchSize)
	}
}

func TestRunInit_RefusesToOverwrite(t *testing.T) {
	testutil.NewTestEnv(t)
	home := t.TempDir()
	t.Setenv("HOME", home)

	path := filepath.Join(home, ".config", "esdrain", "config.yaml")
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		t.Fatalf("failed to create config dir: %v", err)
	}
	if err := os.WriteFile(path, []byte("log_level: debug\n"), 0600); err != nil {
		t.Fatalf("failed to write existing config: %v", err)
	}

	if err := runInit(InitCmd, nil); err == nil {
		t.Fatal("runInit() overwrote an existing config without --force")
	}

	initForce = true
	t.Cleanup(func() { initForce = false })
	if err := runInit(InitCmd, nil); err != nil {
		t.Fatalf("runInit() with force failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() failed: %v", err)
	}
	if string(data) == "log_level: debug\n" {
		t.Error("config file not overwritten with --force")
	}
}

func TestRunValidate_AcceptsValidConfig(t *testing.T) {
	env := testutil.NewTestEnv(t)
	env.WriteConfig("log_level: debug\n")

	if err := runValidate(ValidateCmd, nil); err != nil {
		t.Fatalf("runValidate() failed on a valid config: %v", err)
	}
}

func TestRunValidate_RejectsInvalidConfig(t *testing.T) {
	env := testutil.NewTestEnv(t)
	env.WriteConfig("export:\n  format: csv\n")

	if err := runValidate(ValidateCmd, nil); err == nil {
		t.Fatal("runValidate() accepted an invalid config")
	}
}

func TestRunValidate_NoConfigFileIsOK(t *testing.T) {
	testutil.NewTestEnv(t)
	home := t.TempDir()
	t.Setenv("HOME", home)

	if err := runValidate(ValidateCmd, nil); err != nil {
		t.Fatalf("runValidate() failed with no config file: %v", err)
	}
}

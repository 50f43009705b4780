package export

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"

	"github.com/esdrain/esdrain/internal/config"
	"github.com/esdrain/esdrain/internal/testutil"
)

func mustSet(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("failed to set flag: %v", err)
	}
}

// resetExportFlags restores flag state between tests; cobra flag sets are
// package-global.
func resetExportFlags() {
	ExportCmd.Flags().VisitAll(func(f *pflag.Flag) {
		f.Changed = false
	})
	flagIndex, flagQuery, flagQueryFile = "", "", ""
	flagBatchSize, flagMaxRetries = 0, 0
	flagRetryDelay, flagScroll, flagTimeout = 0, 0, 0
	flagOutput, flagFormat, flagUsername, flagMonitorAddr = "", "", "", ""
	flagAddresses = nil
}

func TestValidateExport_QueryFlagsAreMutuallyExclusive(t *testing.T) {
	t.Cleanup(resetExportFlags)
	flagQuery = `{"query":{"match_all":{}}}`
	flagQueryFile = "query.json"

	if err := validateExport(ExportCmd, nil); err == nil {
		t.Fatal("validateExport() accepted --query together with --query-file")
	}
}

func TestApplyFlags_OverridesConfig(t *testing.T) {
	testutil.NewTestEnv(t)
	t.Cleanup(resetExportFlags)

	cfg := config.NewDefaultConfig()

	flags := ExportCmd.Flags()
	mustSet(t, flags.Set("index", "logs-2026"))
	mustSet(t, flags.Set("batch-size", "250"))
	mustSet(t, flags.Set("max-retries", "7"))
	mustSet(t, flags.Set("retry-delay", "500ms"))
	mustSet(t, flags.Set("scroll", "5m"))
	mustSet(t, flags.Set("timeout", "30s"))
	mustSet(t, flags.Set("format", "json"))
	mustSet(t, flags.Set("addresses", "https://es.internal:9200"))

	if err := applyFlags(ExportCmd, &cfg); err != nil {
		t.Fatalf("applyFlags() failed: %v", err)
	}

	if cfg.Export.Index != "logs-2026" {
		t.Errorf("Index = %q, want %q", cfg.Export.Index, "logs-2026")
	}
	if cfg.Export.BatchSize != 250 {
		t.Errorf("BatchSize = %d, want 250", cfg.Export.BatchSize)
	}
	if cfg.Export.MaxRetries != 7 {
		t.Errorf("MaxRetries = %d, want 7", cfg.Export.MaxRetries)
	}
	if cfg.Export.RetryDelayMs != 500 {
		t.Errorf("RetryDelayMs = %d, want 500", cfg.Export.RetryDelayMs)
	}
	if cfg.Export.Format != "json" {
		t.Errorf("Format = %q, want %q", cfg.Export.Format, "json")
	}
	if len(cfg.Elasticsearch.Addresses) != 1 || cfg.Elasticsearch.Addresses[0] != "https://es.internal:9200" {
		t.Errorf("Addresses = %v, want [https://es.internal:9200]", cfg.Elasticsearch.Addresses)
	}

	// The overridden durations still parse.
	if d, err := cfg.Export.KeepAlive(); err != nil || d != 5*time.Minute {
		t.Errorf("KeepAlive() = (%s, %v), want (5m, nil)", d, err)
	}
	if d, err := cfg.Elasticsearch.CallTimeout(); err != nil || d != 30*time.Second {
		t.Errorf("CallTimeout() = (%s, %v), want (30s, nil)", d, err)
	}
}

func TestApplyFlags_UnsetFlagsKeepConfigValues(t *testing.T) {
	testutil.NewTestEnv(t)
	t.Cleanup(resetExportFlags)

	cfg := config.NewDefaultConfig()
	cfg.Export.Index = "from-config"
	cfg.Export.BatchSize = 42

	if err := applyFlags(ExportCmd, &cfg); err != nil {
		t.Fatalf("applyFlags() failed: %v", err)
	}
	if cfg.Export.Index != "from-config" {
		t.Errorf("Index = %q, want the config value untouched", cfg.Export.Index)
	}
	if cfg.Export.BatchSize != 42 {
		t.Errorf("BatchSize = %d, want the config value untouched", cfg.Export.BatchSize)
	}
}

func TestApplyFlags_QueryFile(t *testing.T) {
	testutil.NewTestEnv(t)
	t.Cleanup(resetExportFlags)

	path := filepath.Join(t.TempDir(), "query.json")
	query := `{"query":{"term":{"in_stock":true}}}`
	if err := os.WriteFile(path, []byte(query), 0644); err != nil {
		t.Fatalf("failed to write query file: %v", err)
	}

	cfg := config.NewDefaultConfig()
	mustSet(t, ExportCmd.Flags().Set("query-file", path))

	if err := applyFlags(ExportCmd, &cfg); err != nil {
		t.Fatalf("applyFlags() failed: %v", err)
	}
	if cfg.Export.Query != query {
		t.Errorf("Query = %q, want the file contents", cfg.Export.Query)
	}
}

func TestApplyFlags_MissingQueryFileFails(t *testing.T) {
	testutil.NewTestEnv(t)
	t.Cleanup(resetExportFlags)

	cfg := config.NewDefaultConfig()
	mustSet(t, ExportCmd.Flags().Set("query-file", filepath.Join(t.TempDir(), "absent.json")))

	if err := applyFlags(ExportCmd, &cfg); err == nil {
		t.Fatal("applyFlags() succeeded with a missing query file")
	}
}

func TestApplyFlags_RejectsInvalidResult(t *testing.T) {
	testutil.NewTestEnv(t)
	t.Cleanup(resetExportFlags)

	cfg := config.NewDefaultConfig()
	mustSet(t, ExportCmd.Flags().Set("format", "csv"))

	if err := applyFlags(ExportCmd, &cfg); err == nil {
		t.Fatal("applyFlags() accepted an invalid format")
	}
}

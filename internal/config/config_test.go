package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultMatchesRatioConstants(t *testing.T) {
	cfg := Default()

	if cfg.Context.Curation.WarnRatio != 0.70 {
		t.Errorf("WarnRatio = %v, want 0.70", cfg.Context.Curation.WarnRatio)
	}
	if cfg.Context.Curation.TriggerRatio != 0.85 {
		t.Errorf("TriggerRatio = %v, want 0.85", cfg.Context.Curation.TriggerRatio)
	}
	if cfg.Context.Curation.HardRatio != 0.95 {
		t.Errorf("HardRatio = %v, want 0.95", cfg.Context.Curation.HardRatio)
	}
	if cfg.Context.Curation.PreserveCount != 10 {
		t.Errorf("PreserveCount = %v, want 10", cfg.Context.Curation.PreserveCount)
	}
	if cfg.Model.LoopDetectionThreshold != 3 {
		t.Errorf("LoopDetectionThreshold = %v, want 3", cfg.Model.LoopDetectionThreshold)
	}
}

func TestConfigPathDefaultsUnderHome(t *testing.T) {
	os.Unsetenv("VTCODE_CONFIG")
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory available")
	}
	want := filepath.Join(home, ".vtcode", "config.toml")
	if got := ConfigPath(); got != want {
		t.Errorf("ConfigPath() = %q, want %q", got, want)
	}
}

func TestConfigPathHonorsEnvOverride(t *testing.T) {
	t.Setenv("VTCODE_CONFIG", "/tmp/custom.toml")
	if got := ConfigPath(); got != "/tmp/custom.toml" {
		t.Errorf("ConfigPath() = %q, want /tmp/custom.toml", got)
	}
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	t.Setenv("VTCODE_CONFIG", filepath.Join(t.TempDir(), "nonexistent.toml"))

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Agent.Provider != Default().Agent.Provider {
		t.Errorf("Provider = %q, want default %q", cfg.Agent.Provider, Default().Agent.Provider)
	}
}

func TestLoadReadsFileOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	contents := `
[agent]
provider = "openai"
default_model = "gpt-5"

[context.curation]
warn_ratio = 0.5
`
	if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("VTCODE_CONFIG", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Agent.Provider != "openai" {
		t.Errorf("Provider = %q, want openai", cfg.Agent.Provider)
	}
	if cfg.Agent.DefaultModel != "gpt-5" {
		t.Errorf("DefaultModel = %q, want gpt-5", cfg.Agent.DefaultModel)
	}
	if cfg.Context.Curation.WarnRatio != 0.5 {
		t.Errorf("WarnRatio = %v, want 0.5", cfg.Context.Curation.WarnRatio)
	}
	// Fields absent from the file keep their Default() values.
	if cfg.Context.Curation.HardRatio != 0.95 {
		t.Errorf("HardRatio = %v, want default 0.95", cfg.Context.Curation.HardRatio)
	}
}

func TestEnvOverridesWinOverFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	contents := "[agent]\nprovider = \"openai\"\n"
	if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("VTCODE_CONFIG", path)
	t.Setenv("VTCODE_PROVIDER", "anthropic")
	t.Setenv("VTCODE_MODEL", "claude-opus")
	t.Setenv("VTCODE_WALL_CLOCK_TIMEOUT_SECS", "90")
	t.Setenv("VTCODE_UPDATE_ENABLED", "false")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Agent.Provider != "anthropic" {
		t.Errorf("Provider = %q, want anthropic (env override)", cfg.Agent.Provider)
	}
	if cfg.Agent.DefaultModel != "claude-opus" {
		t.Errorf("DefaultModel = %q, want claude-opus", cfg.Agent.DefaultModel)
	}
	if cfg.Agent.WallClockTimeoutSecs != 90 {
		t.Errorf("WallClockTimeoutSecs = %v, want 90", cfg.Agent.WallClockTimeoutSecs)
	}
	if cfg.Agent.UpdateEnabled {
		t.Errorf("UpdateEnabled = true, want false (env override)")
	}
}

func TestSaveAndReloadRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.toml")
	cfg := Default()
	cfg.Agent.Provider = "moonshot"
	cfg.Security.Allow = []string{"Bash(npm:*)"}

	if err := Save(cfg, path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	t.Setenv("VTCODE_CONFIG", path)
	reloaded, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if reloaded.Agent.Provider != "moonshot" {
		t.Errorf("Provider = %q, want moonshot", reloaded.Agent.Provider)
	}
	if len(reloaded.Security.Allow) != 1 || reloaded.Security.Allow[0] != "Bash(npm:*)" {
		t.Errorf("Security.Allow = %v, want [Bash(npm:*)]", reloaded.Security.Allow)
	}
}

// Package config loads the on-disk configuration for the agent: provider
// selection, turn budgets, context curation thresholds, PTY limits, loop
// detection knobs, the security policy, and terminal UI preferences.
//
// Configuration has two levels, lowest to highest priority:
//  1. ~/.vtcode/config.toml (or the path named by VTCODE_CONFIG)
//  2. environment variable overrides (VTCODE_PROVIDER, VTCODE_MODEL, ...)
//
// This is a deliberate simplification of the layered settings cascade this
// package used to implement (Claude-compat user/project/local JSON files):
// one file plus a handful of env overrides is enough, so the multi-file
// merge machinery no longer has anything to merge.
package config

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/pelletier/go-toml/v2"
)

// SystemPromptMode selects how much system-prompt content is sent per turn.
type SystemPromptMode string

const (
	SystemPromptDefault     SystemPromptMode = "default"
	SystemPromptMinimal     SystemPromptMode = "minimal"
	SystemPromptLightweight SystemPromptMode = "lightweight"
	SystemPromptSpecialized SystemPromptMode = "specialized"
)

// ToolDocumentationMode selects how much detail tool declarations carry.
type ToolDocumentationMode string

const (
	ToolDocsFull        ToolDocumentationMode = "full"
	ToolDocsProgressive ToolDocumentationMode = "progressive"
	ToolDocsMinimal     ToolDocumentationMode = "minimal"
)

// Config is the complete, merged configuration for one agent process.
type Config struct {
	Agent    AgentConfig    `toml:"agent"`
	Context  ContextConfig  `toml:"context"`
	PTY      PTYConfig      `toml:"pty"`
	Model    ModelConfig    `toml:"model"`
	Security SecurityConfig `toml:"security"`
	UI       UIConfig       `toml:"ui"`
}

// AgentConfig controls provider selection and per-turn budgets.
type AgentConfig struct {
	Provider              string                `toml:"provider"`
	DefaultModel          string                `toml:"default_model"`
	SystemPromptMode      SystemPromptMode      `toml:"system_prompt_mode"`
	ToolDocumentationMode ToolDocumentationMode `toml:"tool_documentation_mode"`
	MaxToolCallsPerTurn   int                   `toml:"max_tool_calls_per_turn"`
	MaxToolRetries        int                   `toml:"max_tool_retries"`
	WallClockTimeoutSecs  int                   `toml:"wall_clock_timeout_secs"`
	UpdateEnabled         bool                  `toml:"update_enabled"`
}

// ContextConfig controls context-window curation.
type ContextConfig struct {
	Curation CurationConfig `toml:"curation"`
}

// CurationConfig mirrors contextmgr.Manager's thresholds so a config file
// can tune compaction behavior without touching code.
type CurationConfig struct {
	WarnRatio     float64 `toml:"warn_ratio"`
	TriggerRatio  float64 `toml:"trigger_ratio"`
	HardRatio     float64 `toml:"hard_ratio"`
	PreserveCount int     `toml:"preserve_count"`
}

// PTYConfig holds the [pty] scrollback and timeout settings. They are
// loaded and saved with the rest of the file, but the PTY executor does not
// read them: ptyexec's own defaults (DefaultMaxLines, DefaultMaxBytes,
// DefaultTimeout) and per-call timeouts apply instead.
type PTYConfig struct {
	ScrollbackLines        int `toml:"scrollback_lines"`
	MaxScrollbackBytes     int `toml:"max_scrollback_bytes"`
	LargeOutputThresholdKB int `toml:"large_output_threshold_kb"`
	CommandTimeoutSeconds  int `toml:"command_timeout_seconds"`
}

// ModelConfig controls loop detection.
type ModelConfig struct {
	SkipLoopDetection        bool `toml:"skip_loop_detection"`
	LoopDetectionThreshold   int  `toml:"loop_detection_threshold"`
	LoopDetectionInteractive bool `toml:"loop_detection_interactive"`
}

// SecurityConfig holds the Allow/Deny/Ask policy rules consumed by
// safety.Policy, plus the human-in-the-loop toggle.
type SecurityConfig struct {
	Allow          []string `toml:"allow"`
	Deny           []string `toml:"deny"`
	Ask            []string `toml:"ask"`
	HumanInTheLoop bool     `toml:"human_in_the_loop"`
}

// UIConfig holds terminal UI preferences.
type UIConfig struct {
	KeyboardProtocol KeyboardProtocolConfig `toml:"keyboard_protocol"`
}

// KeyboardProtocolConfig holds terminal keyboard enhancement flags (e.g.
// Kitty's keyboard protocol). They are loaded from the [ui] table, but the
// interactive shell harness does not read them and enables no keyboard
// enhancement.
type KeyboardProtocolConfig struct {
	Enabled             bool `toml:"enabled"`
	DisambiguateEscapes bool `toml:"disambiguate_escapes"`
	ReportAlternateKeys bool `toml:"report_alternate_keys"`
}

// Default returns the configuration used when no file and no overrides are
// present — every threshold here matches the corresponding package's own
// fallback constant (contextmgr.Default*Ratio, loopdetect's default
// threshold, ptyexec.DefaultMaxLines/DefaultMaxBytes/DefaultTimeout) so an
// absent config.toml behaves identically to one that
// spells the defaults out explicitly.
func Default() *Config {
	return &Config{
		Agent: AgentConfig{
			Provider:              "anthropic",
			DefaultModel:          "claude-sonnet-4-5@20250929",
			SystemPromptMode:      SystemPromptDefault,
			ToolDocumentationMode: ToolDocsFull,
			MaxToolCallsPerTurn:   32,
			MaxToolRetries:        2,
			WallClockTimeoutSecs:  0, // 0 means ptyexec.ResolveTimeout's own default
			UpdateEnabled:         true,
		},
		Context: ContextConfig{
			Curation: CurationConfig{
				WarnRatio:     0.70,
				TriggerRatio:  0.85,
				HardRatio:     0.95,
				PreserveCount: 10,
			},
		},
		PTY: PTYConfig{
			ScrollbackLines:        2000,
			MaxScrollbackBytes:     50 * 1024 * 1024,
			LargeOutputThresholdKB: 32,
			CommandTimeoutSeconds:  600,
		},
		Model: ModelConfig{
			SkipLoopDetection:        false,
			LoopDetectionThreshold:   3,
			LoopDetectionInteractive: true,
		},
		Security: SecurityConfig{
			HumanInTheLoop: true,
		},
		UI: UIConfig{
			KeyboardProtocol: KeyboardProtocolConfig{
				Enabled:             true,
				DisambiguateEscapes: true,
				ReportAlternateKeys: false,
			},
		},
	}
}

// ConfigPath returns the file Load reads: the path named by VTCODE_CONFIG,
// or ~/.vtcode/config.toml.
func ConfigPath() string {
	if p := os.Getenv("VTCODE_CONFIG"); p != "" {
		return p
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".vtcode", "config.toml")
	}
	return filepath.Join(homeDir, ".vtcode", "config.toml")
}

// Load reads the config file named by ConfigPath, layers it over Default,
// and applies environment variable overrides. A missing file is not an
// error — it simply leaves the defaults in place.
func Load() (*Config, error) {
	cfg := Default()

	path := ConfigPath()
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
	} else if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

// applyEnvOverrides layers a handful of env vars on top of whatever Load
// already read from disk.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("VTCODE_PROVIDER"); v != "" {
		cfg.Agent.Provider = v
	}
	if v := os.Getenv("VTCODE_MODEL"); v != "" {
		cfg.Agent.DefaultModel = v
	}
	if v := os.Getenv("VTCODE_SYSTEM_PROMPT_MODE"); v != "" {
		cfg.Agent.SystemPromptMode = SystemPromptMode(v)
	}
	if v := os.Getenv("VTCODE_WALL_CLOCK_TIMEOUT_SECS"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil {
			cfg.Agent.WallClockTimeoutSecs = secs
		}
	}
	if v := os.Getenv("VTCODE_UPDATE_ENABLED"); v != "" {
		cfg.Agent.UpdateEnabled = v == "1" || v == "true"
	}
}

// Save writes cfg as TOML to path, creating parent directories as needed.
// No command calls it: `vtcode update config` only reports that it is not
// implemented.
func Save(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

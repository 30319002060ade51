package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/yanmxa/gencode/internal/client"
	"github.com/yanmxa/gencode/internal/config"
	"github.com/yanmxa/gencode/internal/contextmgr"
	"github.com/yanmxa/gencode/internal/loopdetect"
	"github.com/yanmxa/gencode/internal/provider"
	"github.com/yanmxa/gencode/internal/ptyexec"
	"github.com/yanmxa/gencode/internal/safety"
	"github.com/yanmxa/gencode/internal/system"
	"github.com/yanmxa/gencode/internal/tool"
	"github.com/yanmxa/gencode/internal/turn"
)

// agentRuntime bundles everything one conversation needs: the configured
// LLM client, the turn driver, and the context manager the driver consults
// for compaction. Built once per process invocation.
type agentRuntime struct {
	cfg    *config.Config
	client *client.Client
	driver *turn.Driver
	ctxMgr *contextmgr.Manager
}

// newAgentRuntime loads configuration, connects to the configured
// provider, wires the security policy into the Bash tool, and assembles a
// turn driver ready for RunTurn.
func newAgentRuntime(ctx context.Context, cwd string) (*agentRuntime, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	llmProvider, model, err := connectProvider(ctx, cfg)
	if err != nil {
		return nil, err
	}

	cl := &client.Client{Provider: llmProvider, Model: model}

	// Re-register the Bash tool with the configured security policy and
	// loop-detection threshold, replacing the zero-value defaults each
	// tool's init() installed into the default registry.
	policy := &safety.Policy{
		Allow: cfg.Security.Allow,
		Deny:  cfg.Security.Deny,
		Ask:   cfg.Security.Ask,
	}
	evaluator := safety.NewEvaluator(policy, 256, auditDir())
	detector := loopdetect.New(cfg.Model.LoopDetectionThreshold)
	tool.Register(tool.NewBashTool(evaluator, ptyexec.NewExecutor(), detector))

	sys := &system.System{Client: cl, Cwd: cwd, IsGit: isGitRepo(cwd)}

	ctxMgr := contextmgr.New(contextWindowForModel(llmProvider, model))
	ctxMgr.WarnRatio = cfg.Context.Curation.WarnRatio
	ctxMgr.TriggerRatio = cfg.Context.Curation.TriggerRatio
	ctxMgr.HardRatio = cfg.Context.Curation.HardRatio
	ctxMgr.PreserveCount = cfg.Context.Curation.PreserveCount

	driver := turn.New(sys, cl, tool.DefaultRegistry, ctxMgr)
	driver.Compactor = cl

	return &agentRuntime{cfg: cfg, client: cl, driver: driver, ctxMgr: ctxMgr}, nil
}

// connectProvider picks the first ready auth method for cfg.Agent.Provider,
// falling back to any ready provider if the configured one isn't
// reachable.
func connectProvider(ctx context.Context, cfg *config.Config) (provider.LLMProvider, string, error) {
	want := provider.Provider(cfg.Agent.Provider)
	for _, meta := range provider.GetAllMetas() {
		if meta.Provider != want || !provider.IsReady(meta) {
			continue
		}
		p, err := provider.GetProvider(ctx, meta.Provider, meta.AuthMethod)
		if err == nil {
			return p, modelFor(cfg, meta), nil
		}
	}

	for _, meta := range provider.GetReadyProviders() {
		p, err := provider.GetProvider(ctx, meta.Provider, meta.AuthMethod)
		if err == nil {
			return p, modelFor(cfg, meta), nil
		}
	}

	return nil, "", fmt.Errorf("no provider connected; set %s's API key env var or edit %s",
		cfg.Agent.Provider, config.ConfigPath())
}

func modelFor(cfg *config.Config, meta provider.ProviderMeta) string {
	if cfg.Agent.DefaultModel != "" {
		return cfg.Agent.DefaultModel
	}
	return ""
}

// contextWindowForModel looks up the model's advertised input token limit,
// falling back to a conservative default when the provider doesn't carry
// per-model limits (e.g. a static fallback list).
func contextWindowForModel(p provider.LLMProvider, model string) int {
	const fallback = 200000
	models, err := p.ListModels(context.Background())
	if err != nil {
		return fallback
	}
	for _, m := range models {
		if m.ID == model && m.InputTokenLimit > 0 {
			return m.InputTokenLimit
		}
	}
	return fallback
}

func auditDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".vtcode/audit"
	}
	return filepath.Join(home, ".vtcode", "audit")
}

func isGitRepo(cwd string) bool {
	_, err := os.Stat(filepath.Join(cwd, ".git"))
	return err == nil
}

// docMode translates the config's tool-documentation-mode string into the
// tool package's enum, defaulting to progressive on an unrecognized value.
func docMode(m config.ToolDocumentationMode) tool.DocumentationMode {
	switch m {
	case config.ToolDocsMinimal:
		return tool.DocMinimal
	case config.ToolDocsFull:
		return tool.DocFull
	default:
		return tool.DocProgressive
	}
}

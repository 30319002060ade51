package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"github.com/yanmxa/gencode/internal/message"
	"github.com/yanmxa/gencode/internal/session"
	"github.com/yanmxa/gencode/internal/turn"
)

var askOutput string

var askCmd = &cobra.Command{
	Use:   "ask <message>",
	Short: "Send one message non-interactively and print the reply",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		input := args[0]
		for _, a := range args[1:] {
			input += " " + a
		}
		return runAsk(cmd.Context(), input, askOutput)
	},
}

func init() {
	askCmd.Flags().StringVar(&askOutput, "output", "text", `output format: "text" or "json"`)
}

// askJSONResult is the shape printed for --output=json: the final assistant
// text plus enough of the turn outcome for a script to branch on without
// re-parsing human-readable prose.
type askJSONResult struct {
	Text    string `json:"text"`
	Outcome string `json:"outcome"`
	Reason  string `json:"reason,omitempty"`
}

func runAsk(ctx context.Context, input, output string) error {
	if output != "text" && output != "json" {
		return fatalErr(fmt.Sprintf("unknown --output %q: want text or json", output))
	}

	cwd, err := os.Getwd()
	if err != nil {
		return fatalErr(err.Error())
	}

	rt, err := newAgentRuntime(ctx, cwd)
	if err != nil {
		return fatalErr(err.Error())
	}

	var timeout *time.Duration
	if secs := rt.cfg.Agent.WallClockTimeoutSecs; secs > 0 {
		d := time.Duration(secs) * time.Second
		timeout = &d
	}

	// Buffered rather than printed live: both output modes render the
	// complete text at once (JSON can't stream a partial document, and
	// the markdown renderer needs the whole reply to lay out headings,
	// lists, and code fences correctly).
	var text strings.Builder

	result, err := rt.driver.RunTurn(ctx, input, turn.Options{
		MaxToolCallsPerTurn: rt.cfg.Agent.MaxToolCallsPerTurn,
		MaxToolRetries:      rt.cfg.Agent.MaxToolRetries,
		WallClockTimeout:    timeout,
		ToolDocMode:         docMode(rt.cfg.Agent.ToolDocumentationMode),
		Approve:             nonInteractiveApprove(rt.cfg.Security.HumanInTheLoop),
		OnChunk: func(c message.StreamChunk) {
			if c.Type == message.ChunkTypeText {
				text.WriteString(c.Text)
			}
		},
	})
	if err != nil {
		return fatalErr(err.Error())
	}

	if output == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if encErr := enc.Encode(askJSONResult{
			Text:    text.String(),
			Outcome: string(result.Outcome),
			Reason:  result.Reason,
		}); encErr != nil {
			return fatalErr(encErr.Error())
		}
	} else {
		fmt.Println(renderAskText(text.String()))
	}

	if snapErr := snapshotSession(rt, cwd); snapErr != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to save session: %v\n", snapErr)
	}

	switch result.Outcome {
	case turn.Completed:
		return nil
	case turn.BudgetExceeded, turn.LoopDetected:
		return budgetExceededErr(result.Reason)
	default:
		return fatalErr(result.Reason)
	}
}

// renderAskText renders the reply as markdown for a terminal, falling back
// to the raw text when the renderer can't be built or fails (e.g. stdout
// isn't a TTY the style detector recognizes).
func renderAskText(text string) string {
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle())
	if err != nil {
		return text
	}
	rendered, err := r.Render(text)
	if err != nil {
		return text
	}
	return strings.TrimRight(rendered, "\n")
}

// nonInteractiveApprove always declines — the safe default when there is
// no terminal to ask.
func nonInteractiveApprove(humanInTheLoop bool) func(string) bool {
	return func(string) bool { return false }
}

func snapshotSession(rt *agentRuntime, cwd string) error {
	store, err := session.NewStore()
	if err != nil {
		return err
	}
	sess := &session.Session{
		Metadata: session.SessionMetadata{
			Provider: rt.client.Name(),
			Model:    rt.client.ModelID(),
			Cwd:      cwd,
		},
		History: rt.driver.Messages(),
		Ledger:  rt.driver.Ledger(),
		Phase:   rt.driver.Phase(),
	}
	return store.Save(sess)
}

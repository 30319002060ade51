package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/yanmxa/gencode/internal/message"
	"github.com/yanmxa/gencode/internal/session"
	"github.com/yanmxa/gencode/internal/shell"
	"github.com/yanmxa/gencode/internal/turn"
)

var resumeFlag bool

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive session",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChat(cmd.Context())
	},
}

func init() {
	chatCmd.Flags().BoolVar(&resumeFlag, "resume", false, "resume the most recent session for this directory")
}

func runChat(ctx context.Context) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fatalErr(err.Error())
	}

	rt, err := newAgentRuntime(ctx, cwd)
	if err != nil {
		return fatalErr(err.Error())
	}

	store, err := session.NewStore()
	if err != nil {
		return fatalErr(err.Error())
	}

	if resumeFlag {
		if prior, err := store.GetLatestByCwd(cwd); err == nil && prior != nil {
			report := rt.driver.Resume(prior.History)
			if report.MissingOutputsFixed > 0 || report.OrphansRemoved > 0 {
				fmt.Fprintf(os.Stderr, "resumed session: %d dangling call(s) canceled, %d orphan result(s) removed\n",
					report.MissingOutputsFixed, report.OrphansRemoved)
			}
		}
	}

	var model *shell.Model
	runTurn := func(ctx context.Context, input string, onChunk func(message.StreamChunk)) (string, string, error) {
		var timeout *time.Duration
		if secs := rt.cfg.Agent.WallClockTimeoutSecs; secs > 0 {
			d := time.Duration(secs) * time.Second
			timeout = &d
		}
		result, err := rt.driver.RunTurn(ctx, input, turn.Options{
			MaxToolCallsPerTurn: rt.cfg.Agent.MaxToolCallsPerTurn,
			MaxToolRetries:      rt.cfg.Agent.MaxToolRetries,
			WallClockTimeout:    timeout,
			ToolDocMode:         docMode(rt.cfg.Agent.ToolDocumentationMode),
			Approve: func(requestID string) bool {
				if !rt.cfg.Security.HumanInTheLoop {
					return true
				}
				return model.Ask(requestID)
			},
			OnChunk: onChunk,
		})
		if err != nil {
			return "", "", err
		}
		return string(result.Outcome), result.Reason, nil
	}

	model = shell.New(runTurn)

	runErr := model.Run(ctx)

	if saveErr := snapshotSession(rt, cwd); saveErr != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to save session: %v\n", saveErr)
	}

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return fatalErr(runErr.Error())
	}
	return nil
}

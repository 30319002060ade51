// Command vtcode is the terminal entry point: a turn-driver-backed coding
// agent exposed as a small cobra command tree (chat, ask, update).
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/yanmxa/gencode/internal/log"

	// Import providers for registration.
	_ "github.com/yanmxa/gencode/internal/provider/anthropic"
	_ "github.com/yanmxa/gencode/internal/provider/google"
	_ "github.com/yanmxa/gencode/internal/provider/moonshot"
	_ "github.com/yanmxa/gencode/internal/provider/openai"
)

var version = "0.1.0"

func init() {
	_ = godotenv.Load()
	_ = log.Init()
}

func main() {
	defer log.Sync()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCodeFor(err))
	}
}

var rootCmd = &cobra.Command{
	Use:   "vtcode",
	Short: "vtcode - a terminal coding agent",
	Long: `vtcode drives one conversation at a time against an LLM provider,
dispatching tool calls through a command-safety evaluator and a PTY
executor.

  vtcode chat              Start an interactive session
  vtcode ask "message"     Send one message and exit`,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("vtcode version %s\n", version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(updateCmd)
}

// cliError is the error type a subcommand returns when it wants to control
// the process exit code explicitly: 0 normal, 1 fatal provider/config
// error, 2 budget or loop termination surfaced non-interactively.
type cliError struct {
	code int
	msg  string
}

func (e *cliError) Error() string { return e.msg }

func budgetExceededErr(msg string) error { return &cliError{code: 2, msg: msg} }
func fatalErr(msg string) error          { return &cliError{code: 1, msg: msg} }

func exitCodeFor(err error) int {
	if ce, ok := err.(*cliError); ok {
		return ce.code
	}
	return 1
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// updateCmd groups the self-update subcommands. The self-installer itself
// is out of scope — these bodies report that plainly and exit 0 rather
// than pretending to perform an update.
var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Manage vtcode's self-update (not implemented in this build)",
}

func notImplemented(subcommand string) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		fmt.Printf("vtcode update %s: not implemented in this build\n", subcommand)
		return nil
	}
}

func init() {
	updateCmd.AddCommand(&cobra.Command{
		Use:   "check",
		Short: "Check for a newer release",
		RunE:  notImplemented("check"),
	})
	updateCmd.AddCommand(&cobra.Command{
		Use:   "install",
		Short: "Install the latest release",
		RunE:  notImplemented("install"),
	})
	updateCmd.AddCommand(&cobra.Command{
		Use:   "config",
		Short: "Show or edit the update configuration",
		RunE:  notImplemented("config"),
	})
	updateCmd.AddCommand(&cobra.Command{
		Use:   "backups",
		Short: "List saved pre-update backups",
		RunE:  notImplemented("backups"),
	})
	updateCmd.AddCommand(&cobra.Command{
		Use:   "rollback",
		Short: "Roll back to the previous version",
		RunE:  notImplemented("rollback"),
	})
	updateCmd.AddCommand(&cobra.Command{
		Use:   "cleanup",
		Short: "Remove old backups",
		RunE:  notImplemented("cleanup"),
	})
}

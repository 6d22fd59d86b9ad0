package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/waypoint/internal/cli"
	"github.com/spf13/cobra"
)

func navigateCmd(use, short string, args cobra.PositionalArgs) *cobra.Command {
	op := strings.Fields(use)[0]
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  args,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := loadApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			update, err := app.Navigate(cmd.Context(), sessionID(cmd), op, args)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatUpdate(update))
			return nil
		},
	}
}

func init() {
	rootCmd.AddCommand(
		navigateCmd("push <to> [state]", "Add an entry after the current one", cobra.MinimumNArgs(1)),
		navigateCmd("replace <to> [state]", "Replace the current entry", cobra.MinimumNArgs(1)),
		goCmd(),
		navigateCmd("back", "Move one entry back", cobra.NoArgs),
		navigateCmd("forward", "Move one entry forward", cobra.NoArgs),
	)
}

func goCmd() *cobra.Command {
	cmd := navigateCmd("go <delta>", "Move relative to the current entry", cobra.ExactArgs(1))
	// Negative deltas look like flags.
	cmd.Example = "  waypoint go -- -2\n  waypoint go 1"
	return cmd
}

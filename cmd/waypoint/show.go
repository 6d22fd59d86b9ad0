package main

import (
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the stack of a session",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := loadApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		render, _ := cmd.Flags().GetBool("render")
		if !cmd.Flags().Changed("render") {
			render = term.IsTerminal(int(os.Stdout.Fd()))
		}
		return app.Show(cmd.Context(), sessionID(cmd), cmd.OutOrStdout(), render)
	},
}

var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Export the stack of a session as a Mermaid diagram",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := loadApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()
		return app.Graph(cmd.Context(), sessionID(cmd), cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(showCmd, graphCmd)
	showCmd.Flags().Bool("render", false, "Render markdown for the terminal (default when stdout is a terminal)")
}

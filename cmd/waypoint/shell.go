package main

import (
	"fmt"
	"os"
	"sync/atomic"

	"github.com/aretw0/waypoint/internal/cli"
	"github.com/aretw0/waypoint/internal/presentation/tui"
	"github.com/aretw0/waypoint/pkg/guard"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Navigate a session interactively",
	Long: `Opens a prompt over one session. While the shell holds transitions
(see "block"), an interrupt asks for confirmation before leaving.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()

		// First interrupt while armed warns, the second one leaves.
		var interrupts atomic.Int32
		signals := guard.New(cmd.Context(), guard.WithConfirm(func(os.Signal) bool {
			if interrupts.Add(1) > 1 {
				return true
			}
			fmt.Fprintln(out, "\ntransitions are held; interrupt again to leave")
			return false
		}))
		signals.Start()
		defer signals.Stop()

		app, err := loadApp(cmd, cli.WithUnloadGuard(signals))
		if err != nil {
			return err
		}
		defer app.Close()

		interactive := term.IsTerminal(int(os.Stdin.Fd()))
		if interactive {
			tui.PrintBanner(out)
			fmt.Fprintln(out, `type "help" for commands`)
		}

		sh := &cli.Shell{
			App:     app,
			Session: sessionID(cmd),
			In:      cmd.InOrStdin(),
			Out:     out,
			Prompt:  interactive,
		}
		return sh.Run(signals.Context())
	},
}

func init() {
	rootCmd.AddCommand(shellCmd)
}

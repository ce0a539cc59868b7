package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"mrfix/internal/fixer"
	"mrfix/internal/ui"
)

var assumeYes bool

var fixCmd = &cobra.Command{
	Use:   "fix <mr-url-or-id>",
	Short: "Rebase an MR and resolve conflicts automatically",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		session := fixer.New(cfg, newConsoleSink())
		ctx := context.Background()

		var code int
		if assumeYes {
			code = session.Run(ctx, args[0])
		} else {
			mr, err := session.Analyze(ctx, args[0])
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error analyzing MR: %v\n", err)
				os.Exit(1)
			}

			proceed, err := ui.ConfirmFix(mr, cfg.Resolution.Strategy)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error reading confirmation: %v\n", err)
				os.Exit(1)
			}
			if !proceed {
				fmt.Println("Aborted.")
				return
			}

			code = session.Finish(ctx)
		}

		fmt.Println(session.Report().Summary())
		if code != 0 {
			os.Exit(code)
		}
	},
}

func init() {
	fixCmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "skip the confirmation prompt")
}

package main

import (
	"context"
	"os"

	"github.com/aretw0/coach/internal/cli"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate [script]",
	Short: "Check the script for consistency",
	Long: `Crawls the flow from its start state and reports dead links and unreachable states,
then loads the whole script to check triggers, actions and the rules document.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) > 0 && !cmd.Flags().Changed("script") {
			cfg.Script = args[0]
		}
		graph, _ := cmd.Flags().GetBool("graph")
		watch, _ := cmd.Flags().GetBool("watch")

		sigCtx := cli.NewSignalContext(context.Background())
		defer sigCtx.Cancel()
		return cli.RunValidate(sigCtx, cfg, logger, cli.ValidateOptions{
			Graph: graph,
			Watch: watch,
			Out:   os.Stdout,
		})
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().Bool("graph", false, "Print the flow as a Mermaid diagram")
	validateCmd.Flags().Bool("watch", false, "Re-validate on every change (loam scripts)")
}

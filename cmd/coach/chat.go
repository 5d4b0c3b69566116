package main

import (
	"context"

	"github.com/aretw0/coach/internal/cli"
	"github.com/spf13/cobra"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Talk to the coach in the terminal",
	Long: `Runs one conversation in the terminal.

Type your answer, a number to pick a quick reply, "/card N" to pick a carousel card
or "/quit" to leave. With --session the conversation is saved and resumed next time.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		sessionID, _ := cmd.Flags().GetString("session")
		fresh, _ := cmd.Flags().GetBool("fresh")
		quiet, _ := cmd.Flags().GetBool("quiet")

		sigCtx := cli.NewSignalContext(context.Background())
		defer sigCtx.Cancel()

		return cli.RunChat(sigCtx, cfg, logger, cli.ChatOptions{
			SessionID: sessionID,
			Fresh:     fresh,
			Quiet:     quiet,
			Debug:     debugEnabled(cmd),
		})
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().String("session", "", "Save and resume the conversation under this id")
	chatCmd.Flags().Bool("fresh", false, "Discard the saved session before starting")
	chatCmd.Flags().Bool("quiet", false, "Skip the banner and system messages")
	chatCmd.Flags().Bool("instant", false, "Disable the typing simulation")
	chatCmd.Flags().String("store-dir", "", "Directory of saved sessions")
}

package main

import (
	"fmt"

	"github.com/aretw0/coach"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of coach",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return nil
	},
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("coach version %s\n", coach.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

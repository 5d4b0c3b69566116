package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/coach/internal/config"
	"github.com/spf13/cobra"
)

var (
	cfg    *config.Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "coach",
	Short: "Coach runs scripted sales-qualification conversations",
	Long: `Coach walks a visitor through a declarative conversation script, detects off-route
questions and hands them to a backend for open-ended answers and personalized plans.

Settings come from COACH_* environment variables (and a .env file); flags override them.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		envFile, _ := cmd.Flags().GetString("env-file")
		var files []string
		if envFile != "" {
			files = append(files, envFile)
		}

		loaded, err := config.Load(files...)
		if err != nil {
			return err
		}
		applyFlags(cmd, loaded)
		if err := loaded.Validate(); err != nil {
			return err
		}
		cfg = loaded
		logger = cfg.Logger()
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("env-file", "", "Read settings from this file instead of ./.env")
	flags.String("script", "", "Script directory or assets URL (default: bundled script)")
	flags.String("source", "", "Script source: auto, file, loam or http")
	flags.String("start", "", "Start state, overriding 'start: true' in loam scripts")
	flags.String("api", "", "Backend API base URL (default: offline backend)")
	flags.String("log-level", "", "Log level: debug, info, warn or error")
	flags.Bool("debug", false, "Log every engine event")
}

// applyFlags overrides cfg with the flags the user set explicitly.
func applyFlags(cmd *cobra.Command, c *config.Config) {
	set := func(name string, dst *string) {
		if cmd.Flags().Changed(name) {
			*dst, _ = cmd.Flags().GetString(name)
		}
	}
	set("script", &c.Script)
	set("source", &c.ScriptSource)
	set("start", &c.StartState)
	set("api", &c.APIBase)
	set("log-level", &c.LogLevel)
	set("store", &c.Store)
	set("store-dir", &c.StoreDir)
	set("redis", &c.RedisAddr)

	if debug, _ := cmd.Flags().GetBool("debug"); debug && !cmd.Flags().Changed("log-level") {
		c.LogLevel = "debug"
	}
	if cmd.Flags().Changed("port") {
		c.Port, _ = cmd.Flags().GetInt("port")
	}
	if cmd.Flags().Lookup("instant") != nil {
		if instant, _ := cmd.Flags().GetBool("instant"); instant {
			c.TypingBase, c.TypingJitter, c.WidgetDelay = 0, 0, 0
		}
	}
}

func debugEnabled(cmd *cobra.Command) bool {
	debug, _ := cmd.Flags().GetBool("debug")
	return debug
}

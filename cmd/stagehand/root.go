package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/stagehandhq/stagehand/internal/config"
	"github.com/stagehandhq/stagehand/internal/logger"
)

var (
	cfgFile string
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "stagehand",
	Short: "Stagehand recruiting assistant",
	Long:  `Stagehand is a Slack bot that drives an Ashby-compatible ATS through natural language, with human confirmation on every destructive action.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cmd)
		if err != nil {
			return err
		}

		logger.Setup(cfg.Server.LogLevel)
		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.stagehand/config.yaml)")
	rootCmd.PersistentFlags().String("server.log_level", config.DefaultServerLogLevel, "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Int("server.port", config.DefaultServerPort, "events server port")
	rootCmd.PersistentFlags().String("safety.mode", config.DefaultSafetyMode, "write gate mode (open, confirm_writes, confirm_all)")
}

package main

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/plugfs/plugfs/internal/version"
	"github.com/plugfs/plugfs/pkg/config"
	"github.com/plugfs/plugfs/pkg/logging"
)

// NewRootCmd creates and returns the root command
func NewRootCmd() *cobra.Command {
	var (
		verbosity  int
		configPath string
		basePath   string
	)

	// loadConfig resolves the effective config for subcommands, applying the
	// --base override on top of the file/env layers.
	loadConfig := func() (*config.Config, error) {
		cfg, err := config.Load(configPath)
		if err != nil {
			return nil, err
		}
		if basePath != "" {
			cfg.BasePath = basePath
		}
		if cfg.LogFile != "" {
			logging.SetupLoggerWithFile(verbosity, cfg.LogFile)
		}
		return cfg, nil
	}

	rootCmd := &cobra.Command{
		Use:     "plugfs",
		Short:   MsgRootShort,
		Long:    MsgRootLong,
		Version: version.Version,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.SetupLogger(verbosity)
			log.Debug().Str("command", cmd.Name()).Msg("Command started")
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			_ = cmd.Help()
			return fmt.Errorf("no command specified")
		},
		SilenceUsage:      true,
		SilenceErrors:     true,
		DisableAutoGenTag: true,
	}

	// Global flags
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", MsgFlagVerbose)
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", MsgFlagConfig)
	rootCmd.PersistentFlags().StringVar(&basePath, "base", "", MsgFlagBase)

	rootCmd.AddCommand(newListCmd(loadConfig))
	rootCmd.AddCommand(newMigrateCmd(loadConfig))
	rootCmd.AddCommand(newGenConfigCmd())
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: MsgVersionShort,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("plugfs version %s\n", version.Version)
			fmt.Printf("  commit: %s\n", version.Commit)
			fmt.Printf("  built:  %s\n", version.Date)
		},
	}
}

package main

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"github.com/plugfs/plugfs/pkg/config"
	"github.com/plugfs/plugfs/pkg/filesystem"
	"github.com/plugfs/plugfs/pkg/paths"
	"github.com/plugfs/plugfs/pkg/storage"
)

type configLoader func() (*config.Config, error)

func newListCmd(loadConfig configLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: MsgListShort,
		Long:  MsgListLong,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			layout := paths.New(cfg.BasePath)

			entries, err := os.ReadDir(layout.StoragesRoot())
			if err != nil {
				if os.IsNotExist(err) {
					fmt.Fprintf(cmd.OutOrStdout(), "no storages root at %s\n", layout.StoragesRoot())
					return nil
				}
				return err
			}

			for _, entry := range entries {
				if !entry.IsDir() {
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", entry.Name(), layout.StorageDir(entry.Name()))
			}
			return nil
		},
	}
}

func newMigrateCmd(loadConfig configLoader) *cobra.Command {
	var purgeLegacy bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: MsgMigrateShort,
		Long:  MsgMigrateLong,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			layout := paths.New(cfg.BasePath)

			registry := storage.New(layout, filesystem.NewOS())
			if err := registry.Load(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "storages root ready at %s\n", layout.StoragesRoot())

			if purgeLegacy {
				registry.Unload()
				fmt.Fprintf(cmd.OutOrStdout(), "legacy directory %s removed\n", layout.LegacyRoot())
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&purgeLegacy, "purge-legacy", false, MsgFlagPurgeLegacy)
	return cmd
}

func newGenConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "genconfig",
		Short: MsgGenConfigShort,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			defaults := config.Default()
			data, err := toml.Marshal(defaults)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), string(data))
			return nil
		},
	}
}

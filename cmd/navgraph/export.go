package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/navikit/navgraph/internal/config"
	"github.com/navikit/navgraph/internal/store"
)

// newExportCmd dumps the persisted graph snapshot as JSON to stdout.
func newExportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export",
		Short: "Dump the persisted graph snapshot as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			if cfg.SnapshotPath == "" {
				return fmt.Errorf("export requires snapshot_path to be configured")
			}

			db, err := store.NewSQLiteStoreWithDSN(cfg.SnapshotPath)
			if err != nil {
				return err
			}
			defer db.Close()

			snap, err := db.LoadGraph()
			if err != nil {
				return err
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(snap)
		},
	}
}

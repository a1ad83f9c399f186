package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/joestump/curated-links/internal/category"
	"github.com/joestump/curated-links/internal/config"
	"github.com/joestump/curated-links/internal/store"
)

func newGCAssetsCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "gc-assets",
		Short: "Retry deletion of orphaned category images",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			log, err := newLogger(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			database, err := openDB(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = database.Close() }()

			ctx := cmd.Context()
			assetStore, err := newAssetStore(ctx, cfg.Assets, log)
			if err != nil {
				return err
			}
			manager := category.NewManager(store.NewCategoryStore(database), store.NewOrphanStore(database), assetStore,
				category.Options{Prefix: cfg.Assets.Prefix, Timeout: cfg.Assets.Timeout}, log)

			resolved, failed, err := manager.ReapOrphans(ctx, limit)
			if err != nil {
				return err
			}
			log.Info("orphan sweep finished", zap.Int("resolved", resolved), zap.Int("failed", failed))
			fmt.Fprintf(cmd.OutOrStdout(), "resolved %d, still orphaned %d\n", resolved, failed)
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 100, "maximum number of ledger entries to process")
	return cmd
}

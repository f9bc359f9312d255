package cli

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
)

func NewReindexCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reindex",
		Short: "Recompute the feature vectors of every stored photo",
		Long: "Recompute the feature vectors of every stored photo with the current extractor. " +
			"Run this after upgrading if the server warns about a descriptor mismatch.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			a, err := setup(ctx)
			if err != nil {
				return err
			}
			defer a.close()

			start := time.Now()
			res, err := a.catalog.Reindex(ctx, a.cfg.Search.ReindexWorkers)
			if err != nil {
				return fmt.Errorf("reindexing: %w", err)
			}

			slog.Info("reindex finished",
				"total", res.Total, "updated", res.Updated, "skipped", res.Skipped,
				"duration", time.Since(start).Round(time.Millisecond))
			fmt.Fprintf(cmd.OutOrStdout(), "%d photos, %d updated, %d skipped\n", res.Total, res.Updated, res.Skipped)
			return nil
		},
	}

	cmd.Flags().Int("workers", 4, "concurrent feature extractions (overrides search.reindex_workers)")
	bindFlag(cmd, "search.reindex_workers", "workers")

	return cmd
}

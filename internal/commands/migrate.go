package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/documind/internal/config"
	"github.com/custodia-labs/documind/internal/core/domain"
)

func (c *cli) migrateCommand() *cobra.Command {
	var dimensions int

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply the PostgreSQL schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if c.cfg.Database.URL == "" {
				return fmt.Errorf("%w: database.url is required", domain.ErrInvalidInput)
			}

			db, err := openDatabase(ctx, c.cfg)
			if err != nil {
				return err
			}
			defer db.Close()
			c.logger.Info("durable schema applied")

			if c.cfg.Vector.Backend != config.VectorBackendPGVector {
				return nil
			}
			if dimensions <= 0 {
				dimensions = c.cfg.Embedding.Dimensions
			}
			if dimensions <= 0 {
				return fmt.Errorf("%w: --dimensions or embedding.dimensions is required for pgvector", domain.ErrInvalidInput)
			}
			if err := db.InitVectorSchema(ctx, dimensions); err != nil {
				return err
			}
			c.logger.Info("vector schema applied", "dimensions", dimensions)
			return nil
		},
	}

	cmd.Flags().IntVar(&dimensions, "dimensions", 0, "embedding dimensions for the pgvector table")
	return cmd
}

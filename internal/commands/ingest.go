package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/documind/internal/core/domain"
	"github.com/custodia-labs/documind/internal/core/ports/driving"
	"github.com/custodia-labs/documind/internal/worker"
)

func (c *cli) ingestCommand() *cobra.Command {
	var sessionID string

	cmd := &cobra.Command{
		Use:   "ingest <file>",
		Short: "Ingest one file synchronously and print the job result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}

			a, err := newApp(ctx, c.cfg, c.logger)
			if err != nil {
				return err
			}
			defer a.Close()

			svc := a.ingestionService(&worker.InlineScheduler{Runner: a.newRunner()})
			job, err := svc.Submit(ctx, driving.SubmitRequest{
				SessionID: sessionID,
				Filename:  filepath.Base(args[0]),
				Data:      data,
			})
			if err != nil {
				return err
			}

			// The inline scheduler has finished; read back the final state
			job, err = svc.GetJob(ctx, job.ID)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(job); err != nil {
				return err
			}
			if job.Status == domain.JobStatusFailed {
				return errors.New("ingestion failed: " + job.Error)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&sessionID, "session", "s", "", "session to ingest into")
	_ = cmd.MarkFlagRequired("session")
	return cmd
}

package commands

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/documind/internal/core/domain"
)

func (c *cli) qaCommand() *cobra.Command {
	var (
		documentID string
		questions  int
	)

	cmd := &cobra.Command{
		Use:   "qa",
		Short: "Generate evaluation question/answer pairs for a document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			a, err := newApp(ctx, c.cfg, c.logger)
			if err != nil {
				return err
			}
			defer a.Close()

			pairs, err := a.evaluationService().GenerateQA(ctx, documentID, questions)
			if err != nil {
				return err
			}
			if pairs == nil {
				pairs = []domain.QAPair{}
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(pairs)
		},
	}

	cmd.Flags().StringVarP(&documentID, "document", "d", "", "document ID")
	cmd.Flags().IntVarP(&questions, "questions", "n", domain.DefaultQuestions, "number of questions")
	_ = cmd.MarkFlagRequired("document")
	return cmd
}

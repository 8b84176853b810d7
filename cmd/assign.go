package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/leadflow-cli/internal/model"
	"github.com/sells-group/leadflow-cli/internal/pipeline"
	"github.com/sells-group/leadflow-cli/pkg/odoo"
)

var assignCmd = &cobra.Command{
	Use:   "assign",
	Short: "Route unowned leads to salespeople by source",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		startedAt := time.Now().UTC()

		st := initLedger(ctx)
		defer closeLedger(st)

		rc, err := initOdoo()
		if err != nil {
			return err
		}

		result, err := runAssign(ctx, rc)
		if err != nil {
			return err
		}

		saveRun(ctx, st, model.Run{
			Kind:       model.RunKindAssign,
			Assigned:   result.Assigned,
			StartedAt:  startedAt,
			FinishedAt: time.Now().UTC(),
		})
		return nil
	},
}

func runAssign(ctx context.Context, rc odoo.Client) (pipeline.AssignResult, error) {
	table, err := pipeline.LoadRoutingTable(cfg.Routing.File)
	if err != nil {
		return pipeline.AssignResult{}, err
	}

	result, err := pipeline.AssignOwners(ctx, rc, table)
	if err != nil {
		return pipeline.AssignResult{}, err
	}

	zap.L().Info("assignment complete",
		zap.Int("assigned", result.Assigned),
		zap.Int("skipped", result.Skipped),
	)
	return result, nil
}

func init() {
	rootCmd.AddCommand(assignCmd)
}

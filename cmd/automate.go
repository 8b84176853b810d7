package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/sells-group/leadflow-cli/internal/model"
	"github.com/sells-group/leadflow-cli/pkg/odoo"
)

var automateCmd = &cobra.Command{
	Use:   "automate",
	Short: "Run assignment then notification in one pass",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		startedAt := time.Now().UTC()

		st := initLedger(ctx)
		defer closeLedger(st)

		rc, err := initOdoo()
		if err != nil {
			return err
		}

		run, err := runAutomate(ctx, rc)
		if err != nil {
			return err
		}

		run.StartedAt = startedAt
		run.FinishedAt = time.Now().UTC()
		saveRun(ctx, st, run)
		return nil
	},
}

// runAutomate is the combined pass: ownership first so the welcome mail
// can name the salesperson.
func runAutomate(ctx context.Context, rc odoo.Client) (model.Run, error) {
	assigned, err := runAssign(ctx, rc)
	if err != nil {
		return model.Run{}, err
	}
	notified, err := runNotify(ctx, rc)
	if err != nil {
		return model.Run{}, err
	}
	return model.Run{
		Kind:     model.RunKindAutomate,
		Assigned: assigned.Assigned,
		Notified: notified.Sent,
	}, nil
}

func init() {
	rootCmd.AddCommand(automateCmd)
}

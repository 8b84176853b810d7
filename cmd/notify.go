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

var notifyCmd = &cobra.Command{
	Use:   "notify",
	Short: "Send pending outreach mail with delivery confirmation",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		startedAt := time.Now().UTC()

		st := initLedger(ctx)
		defer closeLedger(st)

		rc, err := initOdoo()
		if err != nil {
			return err
		}

		result, err := runNotify(ctx, rc)
		if err != nil {
			return err
		}

		saveRun(ctx, st, model.Run{
			Kind:       model.RunKindNotify,
			Notified:   result.Sent,
			StartedAt:  startedAt,
			FinishedAt: time.Now().UTC(),
		})
		return nil
	},
}

func runNotify(ctx context.Context, rc odoo.Client) (pipeline.NotifyResult, error) {
	// Both templates must exist before any mail goes out.
	welcome, err := pipeline.LoadTemplate(ctx, rc, cfg.Notify.WelcomeTemplate)
	if err != nil {
		return pipeline.NotifyResult{}, err
	}
	apology, err := pipeline.LoadTemplate(ctx, rc, cfg.Notify.ApologyTemplate)
	if err != nil {
		return pipeline.NotifyResult{}, err
	}
	companyEmail, err := pipeline.CompanyEmail(ctx, rc)
	if err != nil {
		return pipeline.NotifyResult{}, err
	}

	result, _, err := pipeline.Notify(ctx, rc, welcome, apology, companyEmail)
	if err != nil {
		return pipeline.NotifyResult{}, err
	}

	zap.L().Info("notification pass complete",
		zap.Int("sent", result.Sent),
		zap.Int("skipped", result.Skipped),
	)
	return result, nil
}

func init() {
	rootCmd.AddCommand(notifyCmd)
}

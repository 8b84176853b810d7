package main

import (
	"fmt"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/leadflow-cli/internal/leadcsv"
	"github.com/sells-group/leadflow-cli/internal/model"
	"github.com/sells-group/leadflow-cli/internal/pipeline"
	"github.com/sells-group/leadflow-cli/pkg/odoo"
)

var importCSVPath string

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import a lead CSV into the CRM",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		startedAt := time.Now().UTC()

		st := initLedger(ctx)
		defer closeLedger(st)

		rc, err := initOdoo()
		if err != nil {
			return err
		}

		table, err := leadcsv.ReadFile(importCSVPath)
		if err != nil {
			return eris.Wrap(err, "read lead csv")
		}
		zap.L().Info("lead file loaded",
			zap.String("file", importCSVPath),
			zap.Int("rows", len(table.Rows)),
		)

		meta, err := rc.FieldsGet(ctx, "crm.lead", []string{"string", "type"})
		if err != nil {
			return eris.Wrap(err, "fetch lead schema")
		}

		cache := pipeline.NewFieldCache(rc)
		if err := pipeline.EnsureImportFields(ctx, cache); err != nil {
			return err
		}

		mapping, err := pipeline.ResolveHeaders(ctx, table.Headers, meta, cache)
		if err != nil {
			return err
		}

		rows := pipeline.MapRows(mapping, table.Rows)
		fields := mapping.Canonicals()

		if err := leadcsv.WriteCSV(cfg.Import.MappedCSV, fields, leadcsv.RowsToRecords(fields, rows)); err != nil {
			return err
		}

		complete, incomplete := pipeline.PartitionRows(fields, rows)
		zap.L().Info("rows partitioned",
			zap.Int("accepted", len(complete)),
			zap.Int("rejected", len(incomplete)),
		)

		if err := leadcsv.WriteWorkbook(cfg.Import.AcceptedXLS, fields, leadcsv.RowsToRecords(fields, complete)); err != nil {
			return err
		}
		if err := leadcsv.WriteWorkbook(cfg.Import.RejectedXLS, fields, leadcsv.RowsToRecords(fields, incomplete)); err != nil {
			return err
		}

		catalogue, err := pipeline.FetchCatalogue(ctx, rc)
		if err != nil {
			return err
		}
		stageID, teamID, err := pipeline.LookupDefaults(ctx, rc, cfg.Import.StageName, cfg.Import.TeamName)
		if err != nil {
			return err
		}

		payloads, err := pipeline.Enrich(ctx,
			pipeline.BucketByProduct(complete), catalogue,
			initMatcher(), pipeline.NewRefResolver(rc),
			model.Defaults{StageID: stageID, TeamID: teamID})
		if err != nil {
			return err
		}

		ids, err := pipeline.BulkImport(ctx, rc, payloads)
		if err != nil {
			return err
		}

		created, err := pipeline.ReadBack(ctx, rc, ids, fields)
		if err != nil {
			return err
		}
		if err := leadcsv.WriteCSV(cfg.Import.ImportedCSV, fields, recordsToStrings(fields, created)); err != nil {
			return err
		}

		saveRun(ctx, st, model.Run{
			Kind:       model.RunKindImport,
			SourceFile: importCSVPath,
			Accepted:   len(complete),
			Rejected:   len(incomplete),
			Imported:   len(ids),
			StartedAt:  startedAt,
			FinishedAt: time.Now().UTC(),
		})

		zap.L().Info("import complete",
			zap.Int("accepted", len(complete)),
			zap.Int("rejected", len(incomplete)),
			zap.Int("imported", len(ids)),
		)
		return nil
	},
}

// recordsToStrings flattens read-back records for the audit CSV. Odoo's
// false-for-empty and [id, name] relational values render as "" and the
// display name.
func recordsToStrings(fields []string, recs []odoo.Record) [][]string {
	out := make([][]string, len(recs))
	for i, rec := range recs {
		row := make([]string, len(fields))
		for j, f := range fields {
			row[j] = renderValue(rec[f])
		}
		out[i] = row
	}
	return out
}

func renderValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case bool:
		if !val {
			return ""
		}
		return "true"
	case string:
		return val
	case []any:
		if name, ok := odoo.RelName(val); ok {
			return name
		}
		return fmt.Sprint(val)
	case float64:
		if val == float64(int64(val)) {
			return fmt.Sprintf("%d", int64(val))
		}
		return fmt.Sprint(val)
	default:
		return fmt.Sprint(val)
	}
}

func init() {
	importCmd.Flags().StringVar(&importCSVPath, "csv", "", "path to the lead CSV file (required)")
	_ = importCmd.MarkFlagRequired("csv")
	rootCmd.AddCommand(importCmd)
}

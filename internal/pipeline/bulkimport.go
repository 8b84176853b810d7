package pipeline

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/leadflow-cli/pkg/odoo"
)

// BulkImport submits all enriched payloads as a single create call.
// All-or-nothing: a failure aborts the run with the server error intact
// and nothing is retried.
func BulkImport(ctx context.Context, rc odoo.Client, payloads []odoo.Record) ([]int64, error) {
	if len(payloads) == 0 {
		return nil, nil
	}

	ids, err := rc.Create(ctx, "crm.lead", payloads)
	if err != nil {
		return nil, eris.Wrap(err, "import: bulk create leads")
	}

	zap.L().Info("leads imported", zap.Int("count", len(ids)))
	return ids, nil
}

// ReadBack fetches the created records restricted to the mapped fields,
// for the imported-records audit file.
func ReadBack(ctx context.Context, rc odoo.Client, ids []int64, fields []string) ([]odoo.Record, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	recs, err := rc.Read(ctx, "crm.lead", ids, fields)
	if err != nil {
		return nil, eris.Wrap(err, "import: read back created leads")
	}
	return recs, nil
}

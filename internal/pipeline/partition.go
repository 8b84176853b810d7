package pipeline

import (
	"github.com/sells-group/leadflow-cli/internal/model"
)

// MapRows converts raw CSV rows into canonical-keyed rows using the
// resolved column mapping. Values are carried verbatim; trimming happens
// at validation time.
func MapRows(mapping model.ColumnMapping, raw [][]string) []model.Row {
	rows := make([]model.Row, 0, len(raw))
	for _, rec := range raw {
		row := make(model.Row, len(mapping.Headers))
		for i, h := range mapping.Headers {
			if h.Canonical == "" {
				continue // dropped column
			}
			if i < len(rec) {
				row[h.Canonical] = rec[i]
			}
		}
		rows = append(rows, row)
	}
	return rows
}

// PartitionRows splits mapped rows into complete rows (every mapped field
// non-empty after trimming) and incomplete rows. Purely structural, no
// value mutation; both partitions are kept for the audit outputs.
func PartitionRows(fields []string, rows []model.Row) (complete, incomplete []model.Row) {
	for _, row := range rows {
		if row.Complete(fields) {
			complete = append(complete, row)
		} else {
			incomplete = append(incomplete, row)
		}
	}
	return complete, incomplete
}

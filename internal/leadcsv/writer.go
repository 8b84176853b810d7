package leadcsv

import (
	"encoding/csv"
	"os"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/leadflow-cli/internal/model"
)

// WriteCSV writes a header row plus data rows to path, replacing any
// existing file.
func WriteCSV(path string, headers []string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrap(err, "leadcsv: create csv")
	}
	defer f.Close() //nolint:errcheck

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write(headers); err != nil {
		return eris.Wrap(err, "leadcsv: write header")
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return eris.Wrap(err, "leadcsv: write row")
		}
	}
	if err := w.Error(); err != nil {
		return eris.Wrap(err, "leadcsv: flush csv")
	}
	return nil
}

// WriteWorkbook writes a single-sheet xlsx file with a header row plus
// data rows, replacing any existing file.
func WriteWorkbook(path string, headers []string, rows [][]string) error {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Leads")
	if err != nil {
		return eris.Wrap(err, "leadcsv: add sheet")
	}

	hr := sheet.AddRow()
	for _, h := range headers {
		hr.AddCell().Value = h
	}
	for _, row := range rows {
		r := sheet.AddRow()
		for _, v := range row {
			r.AddCell().Value = v
		}
	}

	if err := file.Save(path); err != nil {
		return eris.Wrap(err, "leadcsv: save workbook")
	}
	return nil
}

// RowsToRecords projects mapped rows onto the given field order.
func RowsToRecords(fields []string, rows []model.Row) [][]string {
	out := make([][]string, len(rows))
	for i, row := range rows {
		rec := make([]string, len(fields))
		for j, f := range fields {
			rec[j] = row[f]
		}
		out[i] = rec
	}
	return out
}

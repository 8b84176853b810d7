// Package leadcsv reads lead CSV files of unknown encoding and writes the
// per-run audit outputs (mapped CSV, accepted/rejected workbooks, import dump).
package leadcsv

import (
	"encoding/csv"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Table is a parsed CSV: one header row plus data rows, each padded or
// truncated to the header width.
type Table struct {
	Headers []string
	Rows    [][]string
}

// ReadFile parses a lead CSV trying UTF-8 first, then latin-1, then
// content-sniffed encoding detection. An attempt only counts as successful
// when the decoded bytes parse as CSV with a sane header; otherwise the
// next encoding is tried.
func ReadFile(path string) (*Table, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "leadcsv: read file")
	}

	attempts := []struct {
		name string
		enc  encoding.Encoding
	}{
		{"utf-8", unicode.UTF8},
		{"latin-1", charmap.ISO8859_1},
	}
	if sniffed, name, _ := charset.DetermineEncoding(raw, "text/csv"); sniffed != nil {
		attempts = append(attempts, struct {
			name string
			enc  encoding.Encoding
		}{name, sniffed})
	}

	var lastErr error
	for i, attempt := range attempts {
		if attempt.name == "utf-8" && !utf8.Valid(raw) {
			lastErr = eris.New("leadcsv: invalid utf-8")
			continue
		}

		decoded, _, err := transform.Bytes(attempt.enc.NewDecoder(), raw)
		if err != nil {
			lastErr = eris.Wrapf(err, "leadcsv: decode %s", attempt.name)
			continue
		}

		table, err := parse(decoded)
		if err != nil {
			lastErr = err
			continue
		}

		if i > 0 {
			zap.L().Info("detected encoding", zap.String("encoding", attempt.name))
		}
		return table, nil
	}

	return nil, eris.Wrap(lastErr, "leadcsv: no usable encoding")
}

func parse(data []byte) (*Table, error) {
	// A BOM survives decoding (the sniffed UTF-16 decoders ignore it) and
	// would corrupt the first header.
	text := strings.TrimPrefix(string(data), "\ufeff")

	r := csv.NewReader(strings.NewReader(text))
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, eris.Wrap(err, "leadcsv: parse csv")
	}
	if len(records) == 0 {
		return nil, eris.New("leadcsv: empty file")
	}

	headers := records[0]
	if err := checkHeader(headers); err != nil {
		return nil, err
	}

	rows := make([][]string, 0, len(records)-1)
	for _, rec := range records[1:] {
		rows = append(rows, fitWidth(rec, len(headers)))
	}

	return &Table{Headers: headers, Rows: rows}, nil
}

// checkHeader rejects headers that only a wrong decode would produce,
// e.g. NUL-riddled text from latin-1-decoding a UTF-16 file.
func checkHeader(headers []string) error {
	if len(headers) == 0 {
		return eris.New("leadcsv: empty header row")
	}
	for _, h := range headers {
		if strings.ContainsRune(h, '\x00') {
			return eris.New("leadcsv: header contains NUL bytes")
		}
	}
	return nil
}

func fitWidth(rec []string, width int) []string {
	if len(rec) == width {
		return rec
	}
	out := make([]string, width)
	copy(out, rec)
	return out
}

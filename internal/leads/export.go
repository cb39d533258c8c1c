package leads

import (
	"io"
	"strings"

	"github.com/rotisserie/eris"
)

// Columns is the fixed export column order, matching the table contract
// the backend is held to.
var Columns = []string{"Name", "Phone", "Email", "Address", "Website", "Rating", "Google Maps URL"}

// ProjectRow maps one record to the flat export row, in Columns order.
func ProjectRow(b Business) []string {
	return []string{b.Name, b.Phone, b.Email, b.Address, b.Website, b.Rating, b.MapsURL}
}

// ProjectRows maps a result set to its export rows. Every record yields
// exactly one row; nothing is skipped.
func ProjectRows(rs ResultSet) [][]string {
	rows := make([][]string, len(rs))
	for i, b := range rs {
		rows[i] = ProjectRow(b)
	}
	return rows
}

// quoteCell wraps a field in quotes, doubling any embedded quote. Every
// cell is quoted, including empty ones.
func quoteCell(v string) string {
	return `"` + strings.ReplaceAll(v, `"`, `""`) + `"`
}

// WriteCSV serializes a result set as delimited text: the fixed header
// line followed by one always-quoted row per record.
func WriteCSV(w io.Writer, rs ResultSet) error {
	var b strings.Builder
	b.WriteString(strings.Join(Columns, ","))
	b.WriteByte('\n')

	for _, row := range ProjectRows(rs) {
		quoted := make([]string, len(row))
		for i, v := range row {
			quoted[i] = quoteCell(v)
		}
		b.WriteString(strings.Join(quoted, ","))
		b.WriteByte('\n')
	}

	if _, err := io.WriteString(w, b.String()); err != nil {
		return eris.Wrap(err, "leads: write csv")
	}
	return nil
}

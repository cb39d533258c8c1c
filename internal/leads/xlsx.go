package leads

import (
	"io"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
)

// WriteXLSX serializes a result set as a single-sheet workbook with the
// same column order as the CSV projection.
func WriteXLSX(w io.Writer, rs ResultSet) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Leads")
	if err != nil {
		return eris.Wrap(err, "leads: add xlsx sheet")
	}

	header := sheet.AddRow()
	for _, col := range Columns {
		header.AddCell().Value = col
	}

	for _, row := range ProjectRows(rs) {
		r := sheet.AddRow()
		for _, v := range row {
			r.AddCell().Value = v
		}
	}

	return eris.Wrap(f.Write(w), "leads: write xlsx")
}

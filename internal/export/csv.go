package export

import (
	"bytes"
	"encoding/csv"
	"math"
	"strconv"
)

var csvHeader = []string{"meal", "food", "portion", "unit", "kcal", "protein_g"}

// RenderCSV writes one line per placed food followed by a TOTAL line.
func RenderCSV(doc Document) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(csvHeader); err != nil {
		return nil, err
	}

	for _, sec := range doc.Sections {
		for _, row := range sec.Rows {
			record := []string{
				sec.Title,
				row.Name,
				formatNumber(row.Portion),
				string(row.Unit),
				formatOneDecimal(row.Kcal),
				formatOneDecimal(row.Protein),
			}
			if err := w.Write(record); err != nil {
				return nil, err
			}
		}
	}

	total := []string{"TOTAL", "", "", "", formatOneDecimal(doc.Totals.Kcal), formatOneDecimal(doc.Totals.Protein)}
	if err := w.Write(total); err != nil {
		return nil, err
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func formatOneDecimal(v float64) string {
	return strconv.FormatFloat(math.Round(v*10)/10, 'f', -1, 64)
}

package export

import (
	"bytes"
	"fmt"
	"math"
	"strconv"

	"github.com/jung-kurt/gofpdf"
)

const (
	pdfFont         = "Arial"
	pdfMargin       = 12.0
	pdfBottomMargin = 15.0

	colName    = 90.0
	colPortion = 32.0
	colKcal    = 32.0
	colProtein = 32.0
	rowHeight  = 7.0
)

// RenderPDF renders doc as an A4 document. Long plans continue on new pages.
func RenderPDF(doc Document) ([]byte, error) {
	return renderPDF(doc, true)
}

func renderPDF(doc Document, compress bool) ([]byte, error) {
	pdf := drawPDF(doc)
	pdf.SetCompression(compress)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}
	return buf.Bytes(), nil
}

func drawPDF(doc Document) *gofpdf.Fpdf {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(true, pdfBottomMargin)
	pdf.SetTitle(doc.Title, true)
	pdf.AliasNbPages("")

	// core fonts are cp1252
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFooterFunc(func() {
		pdf.SetY(-pdfBottomMargin + 3)
		pdf.SetFont(pdfFont, "", 8)
		pdf.SetTextColor(120, 120, 120)
		pdf.CellFormat(0, 5, fmt.Sprintf("Page %d/{nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
		pdf.SetTextColor(0, 0, 0)
	})

	pdf.AddPage()

	pdf.SetFont(pdfFont, "B", 18)
	pdf.CellFormat(0, 10, tr(doc.Title), "", 1, "L", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont(pdfFont, "", 12)
	if doc.UserName != "" {
		pdf.CellFormat(0, 6, tr("User: "+doc.UserName), "", 1, "L", false, 0, "")
	}
	pdf.CellFormat(0, 6, tr("Day type: "+doc.DayType), "", 1, "L", false, 0, "")
	if doc.Target != nil {
		pdf.CellFormat(0, 6, fmt.Sprintf("Target: %s-%s kcal", formatRounded(doc.Target.MinKcal), formatRounded(doc.Target.MaxKcal)), "", 1, "L", false, 0, "")
	}
	pdf.CellFormat(0, 6, fmt.Sprintf("Total: %s kcal, %s g protein", formatRounded(doc.Totals.Kcal), formatRounded(doc.Totals.Protein)), "", 1, "L", false, 0, "")
	if doc.StillNeed != nil {
		pdf.CellFormat(0, 6, fmt.Sprintf("Still need: %s kcal", formatRounded(*doc.StillNeed)), "", 1, "L", false, 0, "")
	}
	if doc.ProteinPerKg != nil {
		pdf.CellFormat(0, 6, fmt.Sprintf("Protein: %.1f g/kg", *doc.ProteinPerKg), "", 1, "L", false, 0, "")
	}

	for _, sec := range doc.Sections {
		drawSection(pdf, tr, sec)
	}
	return pdf
}

func drawSection(pdf *gofpdf.Fpdf, tr func(string) string, sec Section) {
	// keep the slot title on the same page as its first row
	_, pageH := pdf.GetPageSize()
	if pdf.GetY()+4*rowHeight > pageH-pdfBottomMargin {
		pdf.AddPage()
	}

	pdf.Ln(5)
	pdf.SetDrawColor(230, 230, 230)
	x, y := pdf.GetX(), pdf.GetY()
	pageW, _ := pdf.GetPageSize()
	pdf.Line(x, y, pageW-pdfMargin, y)
	pdf.Ln(3)

	pdf.SetFont(pdfFont, "B", 14)
	pdf.CellFormat(0, 8, tr(sec.Title), "", 1, "L", false, 0, "")

	if len(sec.Rows) == 0 {
		pdf.SetFont(pdfFont, "", 12)
		pdf.SetTextColor(68, 68, 68)
		pdf.CellFormat(0, rowHeight, "No items", "", 1, "L", false, 0, "")
		pdf.SetTextColor(0, 0, 0)
		return
	}

	pdf.SetFont(pdfFont, "", 12)
	for _, row := range sec.Rows {
		pdf.CellFormat(colName, rowHeight, tr(row.Name), "", 0, "L", false, 0, "")
		pdf.CellFormat(colPortion, rowHeight, formatNumber(row.Portion)+string(row.Unit), "", 0, "L", false, 0, "")
		pdf.CellFormat(colKcal, rowHeight, formatRounded(row.Kcal)+" kcal", "", 0, "L", false, 0, "")
		pdf.CellFormat(colProtein, rowHeight, formatRounded(row.Protein)+" g", "", 1, "L", false, 0, "")
	}

	pdf.SetFont(pdfFont, "I", 10)
	pdf.CellFormat(colName+colPortion, rowHeight, "Subtotal", "", 0, "R", false, 0, "")
	pdf.CellFormat(colKcal, rowHeight, formatRounded(sec.Totals.Kcal)+" kcal", "", 0, "L", false, 0, "")
	pdf.CellFormat(colProtein, rowHeight, formatRounded(sec.Totals.Protein)+" g", "", 1, "L", false, 0, "")
}

func formatRounded(v float64) string {
	return strconv.FormatFloat(math.Round(v), 'f', 0, 64)
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

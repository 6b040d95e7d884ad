package document

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
)

const (
	pdfMargin     = 20.0
	pdfLineHeight = 5.0
)

// newPDF returns an A4 page set up with the footer. The translator maps
// UTF-8 text into the cp1252 core fonts.
func newPDF(title string, created time.Time) (*fpdf.Fpdf, func(string) string) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(true, 25)
	pdf.SetTitle(title, true)
	pdf.SetAuthor("Abogados Online Ecuador", true)
	pdf.SetCreator("aoe-api", true)
	pdf.SetCreationDate(created)
	pdf.SetModificationDate(created)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont("Helvetica", "", 7)
		pdf.SetTextColor(148, 163, 184)
		pdf.CellFormat(0, 4, tr(Footer), "T", 0, "C", false, 0, "")
		pdf.SetTextColor(0, 0, 0)
	})
	pdf.AddPage()
	return pdf, tr
}

// RenderPDF renders a contract body as PDF
func RenderPDF(doc *Contract, created time.Time) ([]byte, error) {
	pdf, tr := newPDF(doc.Title, created)

	for _, blk := range doc.Blocks {
		switch blk.Kind {
		case BlockCenteredBold:
			pdf.SetFont("Helvetica", "B", 12)
			pdf.SetTextColor(30, 64, 175)
			pdf.MultiCell(0, 6, tr(blk.Text()), "", "C", false)
			pdf.SetTextColor(0, 0, 0)
		case BlockCentered:
			pdf.SetFont("Helvetica", "", 9)
			pdf.MultiCell(0, 5, tr(blk.Text()), "", "C", false)
			pdf.Ln(2)
		case BlockClauseTitle:
			pdf.Ln(3)
			pdf.SetFont("Helvetica", "B", 11)
			pdf.SetTextColor(30, 64, 175)
			pdf.MultiCell(0, 6, tr(blk.Text()), "", "L", false)
			pdf.SetTextColor(0, 0, 0)
		default:
			writeRuns(pdf, tr, blk.Runs)
			pdf.Ln(pdfLineHeight + 2)
		}
	}

	writeSignatures(pdf, tr, doc.Signatures)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func writeRuns(pdf *fpdf.Fpdf, tr func(string) string, runs []Run) {
	for _, r := range runs {
		style := ""
		if r.Bold {
			style = "B"
		}
		pdf.SetFont("Helvetica", style, 10)
		pdf.Write(pdfLineHeight, tr(r.Text))
	}
}

// writeSignatures lays the signatures out two per row
func writeSignatures(pdf *fpdf.Fpdf, tr func(string) string, sigs []Signature) {
	pageW, _ := pdf.GetPageSize()
	colW := (pageW - 2*pdfMargin - 10) / 2

	for i := 0; i < len(sigs); i += 2 {
		pdf.Ln(22)
		if _, y := pdf.GetXY(); y > 250 {
			pdf.AddPage()
			pdf.Ln(20)
		}
		y := pdf.GetY()
		for j := 0; j < 2 && i+j < len(sigs); j++ {
			s := sigs[i+j]
			x := pdfMargin + float64(j)*(colW+10)
			pdf.SetDrawColor(30, 41, 59)
			pdf.Line(x, y, x+colW, y)
			pdf.SetXY(x, y+1)
			pdf.SetFont("Helvetica", "B", 9)
			pdf.CellFormat(colW, 5, tr(strings.ToUpper(s.Nombre)), "", 2, "C", false, 0, "")
			pdf.SetFont("Helvetica", "", 9)
			pdf.CellFormat(colW, 5, tr("C.I. "+s.Cedula), "", 2, "C", false, 0, "")
			pdf.SetFont("Helvetica", "", 8)
			pdf.SetTextColor(100, 116, 139)
			pdf.CellFormat(colW, 4, tr(s.Rol), "", 2, "C", false, 0, "")
			pdf.SetTextColor(0, 0, 0)
		}
		pdf.SetXY(pdfMargin, y+15)
	}
}

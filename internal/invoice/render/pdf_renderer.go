package render

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"
)

type pdfRenderer struct{}

// NewPDFRenderer builds the downloadable-PDF renderer.
func NewPDFRenderer() PDFRenderer {
	return &pdfRenderer{}
}

func (r *pdfRenderer) RenderPDF(input RenderInput) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(120, 10, "Wishpark Concierge")
	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(60, 10, "Invoice "+input.Invoice.Number, "", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	pdf.Cell(120, 6, input.Customer.Name)
	pdf.CellFormat(60, 6, "Status: "+input.Invoice.Status, "", 1, "R", false, 0, "")
	pdf.Cell(120, 6, input.Customer.Email)
	if input.Invoice.DueDate != nil {
		pdf.CellFormat(60, 6, "Due: "+input.Invoice.DueDate.Format("Jan 2, 2006"), "", 1, "R", false, 0, "")
	} else {
		pdf.Ln(6)
	}
	pdf.Ln(8)

	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(240, 240, 240)
	pdf.CellFormat(90, 8, "Item", "1", 0, "L", true, 0, "")
	pdf.CellFormat(20, 8, "Qty", "1", 0, "R", true, 0, "")
	pdf.CellFormat(35, 8, "Unit Price", "1", 0, "R", true, 0, "")
	pdf.CellFormat(35, 8, "Line Total", "1", 1, "R", true, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	for _, item := range input.Items {
		pdf.CellFormat(90, 8, item.Name, "1", 0, "L", false, 0, "")
		pdf.CellFormat(20, 8, fmt.Sprintf("%d", item.Quantity), "1", 0, "R", false, 0, "")
		pdf.CellFormat(35, 8, "$"+item.UnitPrice.StringFixed(2), "1", 0, "R", false, 0, "")
		pdf.CellFormat(35, 8, "$"+item.LineTotal.StringFixed(2), "1", 1, "R", false, 0, "")
	}
	pdf.Ln(4)

	writeTotal := func(label string, amount decimal.Decimal, bold bool) {
		if bold {
			pdf.SetFont("Helvetica", "B", 11)
		} else {
			pdf.SetFont("Helvetica", "", 10)
		}
		pdf.CellFormat(145, 7, label, "", 0, "R", false, 0, "")
		pdf.CellFormat(35, 7, "$"+amount.StringFixed(2), "", 1, "R", false, 0, "")
	}

	writeTotal("Items", input.Invoice.ItemsSubtotal, false)
	if !input.Invoice.TaxAmount.IsZero() {
		writeTotal("Sales Tax", input.Invoice.TaxAmount, false)
	}
	if !input.Invoice.PickupAmount.IsZero() {
		writeTotal("Pickup Fees", input.Invoice.PickupAmount, false)
	}
	if !input.Invoice.ShippingAmount.IsZero() {
		writeTotal("Shipping", input.Invoice.ShippingAmount, false)
	}
	if !input.Invoice.CustomAmount.IsZero() {
		writeTotal("Other Fees", input.Invoice.CustomAmount, false)
	}
	if !input.Invoice.CCFeeAmount.IsZero() {
		writeTotal("Card Processing", input.Invoice.CCFeeAmount, false)
	}
	writeTotal("Total", input.Invoice.Total, true)

	if input.Invoice.Notes != "" {
		pdf.Ln(6)
		pdf.SetFont("Helvetica", "I", 9)
		pdf.MultiCell(180, 5, input.Invoice.Notes, "", "L", false)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

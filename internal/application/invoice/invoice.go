// Package invoice renders a one-page PDF invoice for a sold lead.
package invoice

import (
	"errors"
	"fmt"
	"io"
	"time"

	"marketdesk/internal/domain"

	"github.com/go-pdf/fpdf"
)

var ErrNotSold = errors.New("Invoices are only available for sold leads")

type Invoice struct {
	Number     string       `json:"number"`
	Date       time.Time    `json:"date"`
	SellerName string       `json:"sellerName"`
	Buyer      domain.Party `json:"buyer"`
	Item       string       `json:"item"`
	Quantity   int          `json:"quantity"`
	UnitPrice  float64      `json:"unitPrice"`
	Total      float64      `json:"total"`
}

// FromLead builds the invoice of a sold lead. The sale id is the invoice number.
func FromLead(l domain.Lead, sellerName string, issued time.Time) (Invoice, error) {
	sold, ok := l.State.(domain.Sold)
	if !ok {
		return Invoice{}, ErrNotSold
	}
	number := sold.SaleID
	if number == "" {
		number = l.ID
	}
	item := l.Asset.Title
	if item == "" {
		item = "Asset " + l.Asset.ID
	}
	return Invoice{
		Number:     number,
		Date:       issued,
		SellerName: sellerName,
		Buyer:      l.Buyer,
		Item:       item,
		Quantity:   sold.Quantity,
		UnitPrice:  sold.Price,
		Total:      sold.TotalAmount,
	}, nil
}

// FileName is the download name of the invoice.
func (inv Invoice) FileName() string {
	return fmt.Sprintf("invoice-%s.pdf", inv.Number)
}

// Render writes the invoice as a single A4 page.
func Render(w io.Writer, inv Invoice) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Invoice "+inv.Number, true)
	pdf.SetAuthor(inv.SellerName, true)
	pdf.SetMargins(20, 20, 20)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont("Helvetica", "B", 22)
	pdf.CellFormat(0, 12, "INVOICE", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 6, tr("Invoice no. "+inv.Number), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, "Date: "+inv.Date.Format("02 Jan 2006"), "", 1, "L", false, 0, "")
	if inv.SellerName != "" {
		pdf.CellFormat(0, 6, tr("Seller: "+inv.SellerName), "", 1, "L", false, 0, "")
	}
	pdf.Ln(8)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 7, "Bill to", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	for _, line := range []string{inv.Buyer.Name, inv.Buyer.Email, inv.Buyer.Phone} {
		if line != "" {
			pdf.CellFormat(0, 6, tr(line), "", 1, "L", false, 0, "")
		}
	}
	pdf.Ln(8)

	widths := []float64{90, 20, 30, 30}
	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(235, 235, 235)
	for i, h := range []string{"Item", "Qty", "Unit price", "Amount"} {
		align := "R"
		if i == 0 {
			align = "L"
		}
		pdf.CellFormat(widths[i], 8, h, "1", 0, align, true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(widths[0], 8, tr(inv.Item), "1", 0, "L", false, 0, "")
	pdf.CellFormat(widths[1], 8, fmt.Sprintf("%d", inv.Quantity), "1", 0, "R", false, 0, "")
	pdf.CellFormat(widths[2], 8, money(inv.UnitPrice), "1", 0, "R", false, 0, "")
	pdf.CellFormat(widths[3], 8, money(inv.Total), "1", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(widths[0]+widths[1]+widths[2], 9, "Total", "", 0, "R", false, 0, "")
	pdf.CellFormat(widths[3], 9, money(inv.Total), "", 1, "R", false, 0, "")

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("invoice %s: %w", inv.Number, err)
	}
	return pdf.Output(w)
}

func money(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

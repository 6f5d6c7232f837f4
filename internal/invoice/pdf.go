package invoice

import (
	"fmt"
	"io"

	"github.com/go-pdf/fpdf"
)

var (
	accent = [3]int{249, 115, 22}
	muted  = [3]int{102, 102, 102}
	ink    = [3]int{51, 51, 51}
)

// RenderPDF writes the invoice as an A4 PDF. Core fonts are used, so amounts are
// prefixed with "Rs." and text outside cp1252 is replaced.
func RenderPDF(w io.Writer, doc Document) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Invoice - "+doc.Number, true)
	pdf.SetAuthor(doc.Property.Name, true)
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	setColor := func(c [3]int) { pdf.SetTextColor(c[0], c[1], c[2]) }
	pageW, _ := pdf.GetPageSize()
	left, _, right, _ := pdf.GetMargins()
	width := pageW - left - right

	// Header
	setColor(accent)
	pdf.SetFont("Helvetica", "B", 22)
	pdf.CellFormat(width, 10, tr(doc.Property.Name), "", 1, "C", false, 0, "")
	setColor(muted)
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(width, 6, tr(doc.Property.Tagline), "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 8)
	contact := fmt.Sprintf("%s | %s | %s", doc.Property.Address, doc.Property.Phone, doc.Property.Email)
	pdf.CellFormat(width, 5, tr(contact), "", 1, "C", false, 0, "")
	pdf.SetDrawColor(accent[0], accent[1], accent[2])
	pdf.SetLineWidth(0.8)
	y := pdf.GetY() + 3
	pdf.Line(left, y, pageW-right, y)
	pdf.SetY(y + 6)

	section := func(title string) {
		setColor(accent)
		pdf.SetFont("Helvetica", "B", 12)
		pdf.CellFormat(width, 8, title, "", 1, "L", false, 0, "")
	}
	pdf.SetFillColor(249, 249, 249)
	row := func(label, value string) {
		setColor(muted)
		pdf.SetFont("Helvetica", "B", 9)
		pdf.CellFormat(40, 7, label, "", 0, "L", true, 0, "")
		setColor(ink)
		pdf.SetFont("Helvetica", "", 9)
		pdf.CellFormat(width-40, 7, tr(value), "", 1, "L", true, 0, "")
		pdf.Ln(1)
	}

	section("BOOKING INVOICE / RECEIPT")
	row("Invoice Number:", doc.Number)
	row("Date:", doc.Date)
	payment := doc.PaymentStatus
	if doc.Paid {
		payment = "PAID"
	}
	row("Payment Status:", payment)
	row("Booking Status:", doc.BookingStatus)
	pdf.Ln(4)

	section("GUEST INFORMATION")
	row("Name:", doc.GuestName)
	row("Email:", doc.GuestEmail)
	row("Phone:", doc.GuestPhone)
	pdf.Ln(4)

	section("BOOKING DETAILS")
	cols := []struct {
		title string
		w     float64
		align string
	}{
		{"Description", 48, "L"},
		{"Check-in", 24, "L"},
		{"Check-out", 24, "L"},
		{"Nights", 14, "C"},
		{"Guests", 14, "C"},
		{"Rate/Night", 28, "R"},
		{"Amount", width - 152, "R"},
	}
	pdf.SetFillColor(accent[0], accent[1], accent[2])
	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Helvetica", "B", 9)
	for _, c := range cols {
		pdf.CellFormat(c.w, 8, c.title, "", 0, c.align, true, 0, "")
	}
	pdf.Ln(-1)

	setColor(ink)
	pdf.SetFont("Helvetica", "", 9)
	pdf.SetDrawColor(221, 221, 221)
	pdf.SetLineWidth(0.2)
	values := []string{
		doc.LodgeName, doc.CheckIn, doc.CheckOut,
		fmt.Sprint(doc.Nights), fmt.Sprint(doc.Guests),
		"Rs. " + doc.Rate, "Rs. " + doc.Subtotal,
	}
	for i, c := range cols {
		pdf.CellFormat(c.w, 8, tr(values[i]), "B", 0, c.align, false, 0, "")
	}
	pdf.Ln(12)

	// Totals
	total := func(label, value string, big bool) {
		setColor(muted)
		pdf.SetFont("Helvetica", "B", 11)
		pdf.CellFormat(width-45, 8, label, "", 0, "R", false, 0, "")
		if big {
			setColor(accent)
			pdf.SetFont("Helvetica", "B", 14)
		} else {
			setColor(ink)
			pdf.SetFont("Helvetica", "", 11)
		}
		pdf.CellFormat(45, 8, "Rs. "+value, "", 1, "R", false, 0, "")
	}
	total("Subtotal:", doc.Subtotal, false)
	total("Taxes & Fees:", doc.Taxes, false)
	total("TOTAL PAID:", doc.Total, true)

	if doc.SpecialRequests != "" {
		pdf.Ln(6)
		section("SPECIAL REQUESTS")
		setColor(ink)
		pdf.SetFont("Helvetica", "", 9)
		pdf.SetFillColor(249, 249, 249)
		pdf.MultiCell(width, 6, tr(doc.SpecialRequests), "L", "L", true)
	}

	// Signature
	pdf.Ln(10)
	setColor(accent)
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(width, 6, "Authorized Signature", "", 1, "R", false, 0, "")
	pdf.Ln(8)
	pdf.CellFormat(width, 6, "_____________________", "", 1, "R", false, 0, "")
	pdf.SetFont("Helvetica", "", 8)
	pdf.CellFormat(width, 5, tr(doc.Property.Name), "", 1, "R", false, 0, "")

	// Footer
	pdf.Ln(8)
	setColor(muted)
	pdf.SetFont("Helvetica", "B", 8)
	pdf.CellFormat(width, 5, "Terms & Conditions:", "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 8)
	for _, t := range doc.Terms {
		pdf.CellFormat(width, 5, tr("- "+t), "", 1, "C", false, 0, "")
	}
	pdf.Ln(3)
	pdf.CellFormat(width, 5, tr(fmt.Sprintf("Thank you for choosing %s! We look forward to hosting you.", doc.Property.Name)), "", 1, "C", false, 0, "")
	setColor(accent)
	pdf.CellFormat(width, 5, tr(fmt.Sprintf("For any queries, contact us at %s or %s", doc.Property.Phone, doc.Property.Email)), "", 1, "C", false, 0, "")

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("render invoice pdf: %w", err)
	}
	return pdf.Output(w)
}

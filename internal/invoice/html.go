package invoice

import (
	"bytes"
	"html/template"
	"io"
)

var htmlTemplate = template.Must(template.New("invoice").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Invoice - {{.Number}}</title>
<style>
body { font-family: Arial, sans-serif; padding: 40px; color: #333; }
.header { text-align: center; margin-bottom: 40px; border-bottom: 3px solid #f97316; padding-bottom: 20px; }
.logo { font-size: 32px; font-weight: bold; color: #f97316; margin-bottom: 5px; }
.subtitle { color: #666; font-size: 14px; }
.section { margin-bottom: 30px; }
.section-title { font-size: 18px; font-weight: bold; margin-bottom: 15px; color: #f97316; }
.info-row { display: flex; justify-content: space-between; margin-bottom: 8px; padding: 8px; background: #f9f9f9; }
.label { font-weight: bold; color: #666; }
.items { width: 100%; border-collapse: collapse; margin: 20px 0; }
.items th { background: #f97316; color: white; padding: 12px; text-align: left; }
.items td { padding: 12px; border-bottom: 1px solid #ddd; }
.totals { margin-top: 30px; text-align: right; }
.total-row { margin: 8px 0; font-size: 18px; }
.total-amount { color: #f97316; font-weight: bold; font-size: 24px; }
.paid { color: green; font-weight: bold; }
.requests { padding: 15px; background: #f9f9f9; border-left: 3px solid #f97316; }
.stamp { margin-top: 40px; text-align: right; color: #f97316; font-weight: bold; }
.footer { margin-top: 50px; padding-top: 20px; border-top: 2px solid #ddd; text-align: center; color: #666; font-size: 12px; }
</style>
</head>
<body>
<div class="header">
  <div class="logo">{{.Property.Name}}</div>
  <div class="subtitle">{{.Property.Tagline}}</div>
  <div>{{.Property.Address}} | {{.Property.Phone}} | {{.Property.Email}}</div>
</div>

<div class="section">
  <div class="section-title">BOOKING INVOICE / RECEIPT</div>
  <div class="info-row">
    <div><span class="label">Invoice Number:</span> {{.Number}}</div>
    <div><span class="label">Date:</span> {{.Date}}</div>
  </div>
  <div class="info-row">
    <div><span class="label">Payment Status:</span> {{if .Paid}}<span class="paid">&#10003; PAID</span>{{else}}{{.PaymentStatus}}{{end}}</div>
    <div><span class="label">Booking Status:</span> {{.BookingStatus}}</div>
  </div>
</div>

<div class="section">
  <div class="section-title">GUEST INFORMATION</div>
  <div class="info-row"><span class="label">Name:</span><span>{{.GuestName}}</span></div>
  <div class="info-row"><span class="label">Email:</span><span>{{.GuestEmail}}</span></div>
  <div class="info-row"><span class="label">Phone:</span><span>{{.GuestPhone}}</span></div>
</div>

<div class="section">
  <div class="section-title">BOOKING DETAILS</div>
  <table class="items">
    <thead>
      <tr><th>Description</th><th>Check-in</th><th>Check-out</th><th>Nights</th><th>Guests</th><th>Rate/Night</th><th>Amount</th></tr>
    </thead>
    <tbody>
      <tr>
        <td>{{.LodgeName}}</td><td>{{.CheckIn}}</td><td>{{.CheckOut}}</td>
        <td>{{.Nights}}</td><td>{{.Guests}}</td><td>&#8377;{{.Rate}}</td><td>&#8377;{{.Subtotal}}</td>
      </tr>
    </tbody>
  </table>
</div>

<div class="totals">
  <div class="total-row"><span class="label">Subtotal:</span> &#8377;{{.Subtotal}}</div>
  <div class="total-row"><span class="label">Taxes &amp; Fees:</span> &#8377;{{.Taxes}}</div>
  <div class="total-row"><span class="label">TOTAL PAID:</span> <span class="total-amount">&#8377;{{.Total}}</span></div>
</div>
{{if .SpecialRequests}}
<div class="section">
  <div class="section-title">SPECIAL REQUESTS</div>
  <div class="requests">{{.SpecialRequests}}</div>
</div>
{{end}}
<div class="stamp">
  <div>Authorized Signature</div>
  <div style="margin-top: 30px;">_____________________</div>
  <div style="margin-top: 5px; font-size: 12px;">{{.Property.Name}}</div>
</div>

<div class="footer">
  <p><strong>Terms &amp; Conditions:</strong></p>
  {{range .Terms}}<p>&bull; {{.}}</p>
  {{end}}
  <p>Thank you for choosing {{.Property.Name}}! We look forward to hosting you.</p>
  <p>For any queries, contact us at {{.Property.Phone}} or {{.Property.Email}}</p>
</div>
</body>
</html>
`))

// RenderHTML writes the invoice as a standalone HTML page. Guest-entered text is escaped.
func RenderHTML(w io.Writer, doc Document) error {
	var buf bytes.Buffer
	if err := htmlTemplate.Execute(&buf, doc); err != nil {
		return err
	}
	_, err := buf.WriteTo(w)
	return err
}

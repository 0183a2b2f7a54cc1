package render

import (
	"bytes"
	"html/template"

	"github.com/shopspring/decimal"
)

const invoiceHTMLTemplate = `<!doctype html>
<html lang="en">
<head>
  <meta charset="utf-8" />
  <title>Invoice {{.Invoice.Number}}</title>
  <style>
    * { box-sizing: border-box; }
    body {
      margin: 0;
      padding: 32px;
      font-family: "Helvetica Neue", Arial, sans-serif;
      color: #111827;
      background: #ffffff;
    }
    .invoice { max-width: 820px; margin: 0 auto; }
    .header {
      display: flex;
      justify-content: space-between;
      align-items: flex-start;
      border-bottom: 2px solid #7c3aed;
      padding-bottom: 16px;
      margin-bottom: 24px;
    }
    .meta { text-align: right; font-size: 14px; }
    .meta .label {
      color: #6b7280;
      text-transform: uppercase;
      letter-spacing: 0.04em;
      font-size: 11px;
    }
    table { width: 100%; border-collapse: collapse; font-size: 14px; }
    th, td { padding: 10px; border-bottom: 1px solid #e5e7eb; text-align: left; }
    th {
      text-transform: uppercase;
      font-size: 11px;
      letter-spacing: 0.04em;
      color: #6b7280;
    }
    td.amount, th.amount { text-align: right; }
    .totals { margin-top: 16px; margin-left: auto; width: 280px; font-size: 14px; }
    .totals .row { display: flex; justify-content: space-between; padding: 4px 0; }
    .totals .grand {
      border-top: 2px solid #111827;
      margin-top: 8px;
      padding-top: 8px;
      font-size: 16px;
      font-weight: 600;
    }
    .footer {
      margin-top: 32px;
      border-top: 1px solid #e5e7eb;
      padding-top: 16px;
      font-size: 12px;
      color: #6b7280;
    }
  </style>
</head>
<body>
  <div class="invoice">
    <div class="header">
      <div>
        <h1>Wishpark Concierge</h1>
        <div>{{.Customer.Name}}</div>
        <div>{{.Customer.Email}}</div>
      </div>
      <div class="meta">
        <div class="label">Invoice</div>
        <div>{{.Invoice.Number}}</div>
        <div class="label">Status</div>
        <div>{{.Invoice.Status}}</div>
        {{if .Invoice.DueDate}}<div class="label">Due</div>
        <div>{{.Invoice.DueDate.Format "Jan 2, 2006"}}</div>{{end}}
      </div>
    </div>
    <table>
      <thead>
        <tr>
          <th>Item</th>
          <th class="amount">Qty</th>
          <th class="amount">Unit Price</th>
          <th class="amount">Line Total</th>
        </tr>
      </thead>
      <tbody>
        {{range .Items}}
        <tr>
          <td>{{.Name}}</td>
          <td class="amount">{{.Quantity}}</td>
          <td class="amount">${{fmt .UnitPrice}}</td>
          <td class="amount">${{fmt .LineTotal}}</td>
        </tr>
        {{end}}
      </tbody>
    </table>
    <div class="totals">
      <div class="row"><span>Items</span><span>${{fmt .Invoice.ItemsSubtotal}}</span></div>
      {{if nonzero .Invoice.TaxAmount}}<div class="row"><span>Sales Tax</span><span>${{fmt .Invoice.TaxAmount}}</span></div>{{end}}
      {{if nonzero .Invoice.PickupAmount}}<div class="row"><span>Pickup Fees</span><span>${{fmt .Invoice.PickupAmount}}</span></div>{{end}}
      {{if nonzero .Invoice.ShippingAmount}}<div class="row"><span>Shipping</span><span>${{fmt .Invoice.ShippingAmount}}</span></div>{{end}}
      {{if nonzero .Invoice.CustomAmount}}<div class="row"><span>Other Fees</span><span>${{fmt .Invoice.CustomAmount}}</span></div>{{end}}
      {{if nonzero .Invoice.CCFeeAmount}}<div class="row"><span>Card Processing</span><span>${{fmt .Invoice.CCFeeAmount}}</span></div>{{end}}
      <div class="row grand"><span>Total</span><span>${{fmt .Invoice.Total}}</span></div>
    </div>
    {{if .Invoice.Notes}}<div class="footer">{{.Invoice.Notes}}</div>{{end}}
  </div>
</body>
</html>`

type htmlRenderer struct {
	tmpl *template.Template
}

// NewHTMLRenderer parses the invoice template once at startup.
func NewHTMLRenderer() (HTMLRenderer, error) {
	tmpl, err := template.New("invoice").Funcs(template.FuncMap{
		"fmt":     func(d decimal.Decimal) string { return d.StringFixed(2) },
		"nonzero": func(d decimal.Decimal) bool { return !d.IsZero() },
	}).Parse(invoiceHTMLTemplate)
	if err != nil {
		return nil, err
	}
	return &htmlRenderer{tmpl: tmpl}, nil
}

func (r *htmlRenderer) RenderHTML(input RenderInput) (string, error) {
	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, input); err != nil {
		return "", err
	}
	return buf.String(), nil
}

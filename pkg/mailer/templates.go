package mailer

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
)

// OrderConfirmation is the data rendered into the payment confirmation email.
type OrderConfirmation struct {
	CustomerName string
	StoreName    string
	OrderID      string
	Amount       string
	Currency     string
	Items        []OrderConfirmationItem
	OrderURL     string
}

// OrderConfirmationItem is one rendered line.
type OrderConfirmationItem struct {
	Name     string
	Variant  string
	Quantity int
	Total    string
}

var confirmationHTML = template.Must(template.New("confirmation").Parse(`<p>Hi {{if .CustomerName}}{{.CustomerName}}{{else}}there{{end}},</p>
<p>We received your payment for order <strong>{{.OrderID}}</strong>{{if .StoreName}} at {{.StoreName}}{{end}}.</p>
<table>{{range .Items}}<tr><td>{{.Name}}{{if .Variant}} ({{.Variant}}){{end}}</td><td>x{{.Quantity}}</td><td>{{.Total}}</td></tr>{{end}}</table>
<p>Total paid: {{.Amount}} {{.Currency}}</p>
{{if .OrderURL}}<p><a href="{{.OrderURL}}">View your order</a></p>{{end}}`))

// BuildOrderConfirmation renders the confirmation email for a paid order.
func BuildOrderConfirmation(toEmail string, data OrderConfirmation) (Message, error) {
	var html bytes.Buffer
	if err := confirmationHTML.Execute(&html, data); err != nil {
		return Message{}, fmt.Errorf("render confirmation: %w", err)
	}

	var text strings.Builder
	fmt.Fprintf(&text, "We received your payment for order %s.\n", data.OrderID)
	for _, item := range data.Items {
		fmt.Fprintf(&text, "- %s x%d %s\n", item.Name, item.Quantity, item.Total)
	}
	fmt.Fprintf(&text, "Total paid: %s %s\n", data.Amount, data.Currency)

	subject := fmt.Sprintf("Payment received for order %s", data.OrderID)
	if data.StoreName != "" {
		subject = fmt.Sprintf("%s: payment received for order %s", data.StoreName, data.OrderID)
	}
	return Message{
		ToEmail: toEmail,
		ToName:  data.CustomerName,
		Subject: subject,
		Text:    text.String(),
		HTML:    html.String(),
	}, nil
}

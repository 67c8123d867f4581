package notify

import (
	"fmt"
	"log"
	"net/smtp"
	"strings"

	"kaboyagrovet/backend/internal/domain"
)

// Sender delivers a single mail. Every call site treats delivery as
// best-effort: failures are logged and never affect the response already
// decided by the commit outcome.
type Sender interface {
	Send(to []string, subject string, body string) error
}

// LogSender is the default when SMTP is not configured. It writes the mail
// to the process log instead of delivering it.
type LogSender struct{}

func (LogSender) Send(to []string, subject string, _ string) error {
	log.Printf("[notify] mail suppressed (no SMTP configured) to=%s subject=%q", strings.Join(to, ","), subject)
	return nil
}

type SMTPSender struct {
	addr string
	from string
	auth smtp.Auth
}

func NewSMTPSender(host string, port int, username string, password string, from string) *SMTPSender {
	var auth smtp.Auth
	if username != "" {
		auth = smtp.PlainAuth("", username, password, host)
	}
	return &SMTPSender{
		addr: fmt.Sprintf("%s:%d", host, port),
		from: from,
		auth: auth,
	}
}

func (s *SMTPSender) Send(to []string, subject string, body string) error {
	msg := strings.Join([]string{
		"From: " + s.from,
		"To: " + strings.Join(to, ", "),
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"utf-8\"",
		"",
		body,
	}, "\r\n")
	return smtp.SendMail(s.addr, s.auth, s.from, to, []byte(msg))
}

// OrderNotification is the mail sent to the shop when a new online order
// lands.
func OrderNotification(order domain.Order) (subject string, body string) {
	var b strings.Builder
	fmt.Fprintf(&b, "New order %s from %s (%s, %s)\n", order.ID, order.CustomerName, order.CustomerEmail, order.CustomerPhone)
	fmt.Fprintf(&b, "Deliver to: %s\n\n", order.DeliveryAddress)
	for _, item := range order.Items {
		fmt.Fprintf(&b, "  %d x %s (%s) @ %s\n", item.Quantity, item.ProductName, item.VariantInfo, domain.FormatKES(item.PriceCents))
	}
	fmt.Fprintf(&b, "\nTotal: %s\n", domain.FormatKES(order.TotalCents))
	return fmt.Sprintf("New Order %s - %s", order.ID, domain.FormatKES(order.TotalCents)), b.String()
}

// OrderConfirmation is the mail sent to the customer after checkout.
func OrderConfirmation(order domain.Order) (subject string, body string) {
	var b strings.Builder
	fmt.Fprintf(&b, "Dear %s,\n\nThank you for shopping with Kaboy Agrovet. Your order %s has been received.\n\n", order.CustomerName, order.ID)
	for _, item := range order.Items {
		fmt.Fprintf(&b, "  %d x %s (%s) @ %s\n", item.Quantity, item.ProductName, item.VariantInfo, domain.FormatKES(item.PriceCents))
	}
	fmt.Fprintf(&b, "\nTotal: %s\n", domain.FormatKES(order.TotalCents))
	fmt.Fprintf(&b, "Delivery address: %s\n\nWe will contact you on %s to arrange delivery.\n", order.DeliveryAddress, order.CustomerPhone)
	return fmt.Sprintf("Your Kaboy Agrovet order %s", order.ID), b.String()
}

// SaleNotification is the mail sent to the shop after a staff member
// records an over-the-counter sale.
func SaleNotification(sale domain.OfflineSale) (subject string, body string) {
	var b strings.Builder
	customer := sale.CustomerName
	if customer == "" {
		customer = "walk-in customer"
	}
	fmt.Fprintf(&b, "Sale %s recorded for %s (%s)\n\n", sale.ID, customer, sale.PaymentMode)
	for _, item := range sale.Items {
		fmt.Fprintf(&b, "  %d x %s (%s) @ %s\n", item.Quantity, item.ProductName, item.VariantInfo, domain.FormatKES(item.PriceCents))
	}
	fmt.Fprintf(&b, "\nTotal: %s\nPaid: %s, change: %s\n",
		domain.FormatKES(sale.TotalCents), domain.FormatKES(sale.AmountPaidCents), domain.FormatKES(sale.ChangeGivenCents))
	return fmt.Sprintf("Sale recorded %s - %s", sale.ID, domain.FormatKES(sale.TotalCents)), b.String()
}

// LowStockAlert warns the shop that a variant dropped below the threshold.
func LowStockAlert(productName string, variantInfo string, stockLevel int, threshold int) (subject string, body string) {
	subject = fmt.Sprintf("Low stock: %s (%s)", productName, variantInfo)
	body = fmt.Sprintf("%s (%s) is down to %d units (threshold %d). Consider restocking.\n",
		productName, variantInfo, stockLevel, threshold)
	return subject, body
}

// ContactAlert forwards a storefront contact message to the shop inbox.
func ContactAlert(msg domain.ContactMessage) (subject string, body string) {
	subject = fmt.Sprintf("Contact message from %s", msg.Name)
	if msg.Subject != "" {
		subject = fmt.Sprintf("Contact: %s", msg.Subject)
	}
	body = fmt.Sprintf("From: %s <%s>\n\n%s\n", msg.Name, msg.Email, msg.Message)
	return subject, body
}

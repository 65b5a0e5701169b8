package notify

import (
	"context"
	"crypto/tls"
	"fmt"
	"html"
	"log"
	"net/smtp"
	"strings"

	"github.com/dealradar/backend/internal/domain"
)

// Mailer delivers deal notifications over SMTPS as a multipart message with
// a short-form text part and a long-form HTML part.
type Mailer struct {
	host      string
	port      int
	username  string
	password  string
	recipient string

	// send is swapped out in tests.
	send func(addr string, auth smtp.Auth, from string, to []string, msg []byte) error
}

// MailerOptions configures a Mailer.
type MailerOptions struct {
	Host      string
	Port      int
	Username  string
	Password  string
	Recipient string
}

// NewMailer creates an SMTPS mailer.
func NewMailer(opts MailerOptions) *Mailer {
	return &Mailer{
		host:      opts.Host,
		port:      opts.Port,
		username:  opts.Username,
		password:  opts.Password,
		recipient: opts.Recipient,
		send:      sendTLS,
	}
}

// Notify sends one email covering all matched offers. Delivery failure is
// reported to the caller so the seen-set commit can be withheld.
func (m *Mailer) Notify(ctx context.Context, offers []domain.Offer) error {
	if len(offers) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	subject := fmt.Sprintf("Deal Alert: %d new matching deal(s)", len(offers))
	msg := buildMessage(m.username, m.recipient, subject, renderText(offers), renderHTML(offers))

	addr := fmt.Sprintf("%s:%d", m.host, m.port)
	auth := smtp.PlainAuth("", m.username, m.password, m.host)
	if err := m.send(addr, auth, m.username, []string{m.recipient}, msg); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrNotifyFailed, err)
	}

	log.Printf("[NOTIFY] Sent email for %d deal(s) to %s", len(offers), m.recipient)
	return nil
}

// sendTLS speaks SMTP over an implicit-TLS connection (port 465 style).
func sendTLS(addr string, auth smtp.Auth, from string, to []string, msg []byte) error {
	host := addr
	if idx := strings.LastIndex(addr, ":"); idx >= 0 {
		host = addr[:idx]
	}

	conn, err := tls.Dial("tcp", addr, &tls.Config{ServerName: host})
	if err != nil {
		return err
	}

	client, err := smtp.NewClient(conn, host)
	if err != nil {
		conn.Close()
		return err
	}
	defer client.Close()

	if err := client.Auth(auth); err != nil {
		return err
	}
	if err := client.Mail(from); err != nil {
		return err
	}
	for _, rcpt := range to {
		if err := client.Rcpt(rcpt); err != nil {
			return err
		}
	}
	w, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(msg); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return client.Quit()
}

const mimeBoundary = "deal-alert-boundary"

// buildMessage assembles a multipart/alternative MIME message.
func buildMessage(from, to, subject, textBody, htmlBody string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&b, "Content-Type: multipart/alternative; boundary=%q\r\n", mimeBoundary)
	b.WriteString("\r\n")

	fmt.Fprintf(&b, "--%s\r\n", mimeBoundary)
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n\r\n")
	b.WriteString(textBody)
	b.WriteString("\r\n")

	fmt.Fprintf(&b, "--%s\r\n", mimeBoundary)
	b.WriteString("Content-Type: text/html; charset=UTF-8\r\n\r\n")
	b.WriteString(htmlBody)
	b.WriteString("\r\n")

	fmt.Fprintf(&b, "--%s--\r\n", mimeBoundary)
	return []byte(b.String())
}

// renderText is the short form: one line per deal.
func renderText(offers []domain.Offer) string {
	lines := make([]string, 0, len(offers))
	for _, o := range offers {
		url := o.URL
		if url == "" {
			url = "No URL"
		}
		lines = append(lines, fmt.Sprintf("%s - %s", titleOrDefault(o), url))
	}
	return strings.Join(lines, "\n\n")
}

// renderHTML is the long form with price and description blocks.
func renderHTML(offers []domain.Offer) string {
	var b strings.Builder
	b.WriteString("<html><body>")
	for _, o := range offers {
		b.WriteString(renderDealHTML(o))
	}
	b.WriteString("<hr><p><small>Sent by your deal alert service</small></p>")
	b.WriteString("</body></html>")
	return b.String()
}

func renderDealHTML(o domain.Offer) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<h2>%s</h2>", html.EscapeString(titleOrDefault(o)))
	fmt.Fprintf(&b, "<p><strong>Price:</strong> %s</p>", html.EscapeString(priceLine(o)))

	if desc := snippet(o); desc != "" {
		fmt.Fprintf(&b, "<p>%s</p>", html.EscapeString(desc))
	}
	if o.URL != "" {
		fmt.Fprintf(&b, "<p><a href=%q>View deal</a></p>", o.URL)
	}
	return b.String()
}

func titleOrDefault(o domain.Offer) string {
	if o.Title != "" {
		return o.Title
	}
	return "No Title"
}

// priceLine formats the representative sale price and, when the list price
// is higher, the savings amount.
func priceLine(o domain.Offer) string {
	sale, ok := o.SalePrice()
	if !ok {
		return "Price unknown"
	}
	if savings, ok := o.Savings(); ok {
		return fmt.Sprintf("$%.2f (Save $%.2f)", sale, savings)
	}
	return fmt.Sprintf("$%.2f", sale)
}

const maxSnippetLen = 200

// snippet picks the best available description text, truncated for email.
func snippet(o domain.Offer) string {
	desc := o.WriteUpIntro
	if desc == "" {
		desc = o.Snippet
	}
	if desc == "" {
		desc = o.Description
	}
	if len(desc) > maxSnippetLen {
		desc = desc[:maxSnippetLen-3] + "..."
	}
	return desc
}

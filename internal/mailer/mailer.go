// Package mailer compiles a report payload into a MIME email with the
// receipts attached and delivers it over SMTP.
package mailer

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"mime/multipart"
	"net/smtp"
	"net/textproto"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/declabot/internal/report"
)

type Config struct {
	Host        string
	Port        int
	User        string
	Pass        string
	FromAddress string
	FromName    string
}

// Mailer renders and sends expense reports. It implements report.Renderer.
type Mailer struct {
	cfg    Config
	sendFn func(to []string, msg []byte) error
}

func New(cfg Config) *Mailer {
	m := &Mailer{cfg: cfg}
	m.sendFn = m.smtpSend
	return m
}

// RenderAndSend compiles the payload into a multipart email and sends it to
// all recipients in one delivery.
func (m *Mailer) RenderAndSend(_ context.Context, p report.Payload, recipients []string) error {
	if len(recipients) == 0 {
		return fmt.Errorf("mailer: no recipients")
	}
	msg, err := m.buildMessage(p, recipients)
	if err != nil {
		return fmt.Errorf("build report email: %w", err)
	}
	return m.sendFn(recipients, msg)
}

func (m *Mailer) smtpSend(to []string, msg []byte) error {
	// Without SMTP configured, log the would-be delivery. Useful in development.
	if m.cfg.Host == "" {
		slog.Info("smtp not configured, skipping delivery", "recipients", strings.Join(to, ", "))
		return nil
	}
	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
	auth := smtp.PlainAuth("", m.cfg.User, m.cfg.Pass, m.cfg.Host)
	return smtp.SendMail(addr, auth, m.cfg.FromAddress, to, msg)
}

func (m *Mailer) buildMessage(p report.Payload, recipients []string) ([]byte, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	var msg bytes.Buffer
	fmt.Fprintf(&msg, "From: %s <%s>\r\n", m.cfg.FromName, m.cfg.FromAddress)
	fmt.Fprintf(&msg, "To: %s\r\n", strings.Join(recipients, ", "))
	fmt.Fprintf(&msg, "Subject: Expense declaration from %s\r\n", p.Name)
	msg.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&msg, "Content-Type: multipart/mixed; boundary=%s\r\n", writer.Boundary())
	msg.WriteString("\r\n")

	textHeader := textproto.MIMEHeader{}
	textHeader.Set("Content-Type", "text/plain; charset=utf-8")
	textPart, err := writer.CreatePart(textHeader)
	if err != nil {
		return nil, err
	}
	textPart.Write([]byte(renderBody(p)))

	for i, att := range p.Attachments {
		contentType, filename := attachmentMeta(att, i)
		attHeader := textproto.MIMEHeader{}
		attHeader.Set("Content-Type", contentType)
		attHeader.Set("Content-Transfer-Encoding", "base64")
		attHeader.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

		attPart, err := writer.CreatePart(attHeader)
		if err != nil {
			return nil, err
		}
		encoded := base64.StdEncoding.EncodeToString(att.Data)
		// 76-character lines per RFC 2045
		for j := 0; j < len(encoded); j += 76 {
			end := j + 76
			if end > len(encoded) {
				end = len(encoded)
			}
			attPart.Write([]byte(encoded[j:end] + "\r\n"))
		}
	}
	writer.Close()

	msg.Write(body.Bytes())
	return msg.Bytes(), nil
}

// renderBody lays out the rows, total and payout details as plain text.
func renderBody(p report.Payload) string {
	var sb strings.Builder
	sb.WriteString("EXPENSE DECLARATION\n")
	sb.WriteString("===================\n\n")

	total := decimal.Zero
	for _, row := range p.Rows {
		fmt.Fprintf(&sb, "- %s => %s\n", row.Message, euro(row.Amount))
		total = total.Add(row.Amount)
	}
	fmt.Fprintf(&sb, "\nTotal: %s\n\n", euro(total))

	fmt.Fprintf(&sb, "Name: %s\n", p.Name)
	fmt.Fprintf(&sb, "IBAN: %s\n", p.IBAN)
	fmt.Fprintf(&sb, "\nAttachments: %d file(s)\n", len(p.Attachments))
	return sb.String()
}

func euro(d decimal.Decimal) string {
	return "€" + strings.Replace(d.StringFixed(2), ".", ",", 1)
}

func attachmentMeta(att report.File, i int) (contentType, filename string) {
	if att.IsPDF {
		return "application/pdf", fmt.Sprintf("receipt-%d.pdf", i+1)
	}
	return "image/jpeg", fmt.Sprintf("receipt-%d.jpg", i+1)
}

// Package mail delivers outgoing e-mail over SMTP, or logs it when SMTP is not configured.
package mail

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	"net"
	"net/mail"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/diewo77/go-lawfirm/internal/config"
	"go.uber.org/zap"
)

// Message is one outgoing e-mail. HTML is optional; Text is always sent.
type Message struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

// Mailer sends messages.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// New returns an SMTP mailer when cfg has a host, a logging mailer otherwise.
func New(cfg config.MailConfig, log *zap.Logger) Mailer {
	if log == nil {
		log = zap.L()
	}
	if !cfg.Enabled() {
		return &LogMailer{log: log}
	}
	return &SMTPMailer{cfg: cfg, log: log}
}

// SMTPMailer sends through an SMTP relay with PLAIN auth when credentials are set.
type SMTPMailer struct {
	cfg config.MailConfig
	log *zap.Logger
}

func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if _, err := mail.ParseAddress(msg.To); err != nil {
		return fmt.Errorf("mail: invalid recipient %q: %w", msg.To, err)
	}
	addr := net.JoinHostPort(m.cfg.Host, strconv.Itoa(m.cfg.Port))
	var a smtp.Auth
	if m.cfg.Username != "" {
		a = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}
	body := Build(m.cfg.From, m.cfg.FromName, msg, time.Now())

	done := make(chan error, 1)
	go func() { done <- smtp.SendMail(addr, a, m.cfg.From, []string{msg.To}, body) }()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		if err != nil {
			return fmt.Errorf("mail: send to %s: %w", msg.To, err)
		}
		m.log.Debug("mail sent", zap.String("to", msg.To), zap.String("subject", msg.Subject))
		return nil
	}
}

// LogMailer only logs messages; used in development.
type LogMailer struct {
	log *zap.Logger
}

func (m *LogMailer) Send(_ context.Context, msg Message) error {
	m.log.Info("mail not configured, message logged",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.String("text", msg.Text),
	)
	return nil
}

const boundary = "lawfirm-alt-boundary"

// Build renders msg as an RFC 5322 message, multipart/alternative when HTML is set.
func Build(from, fromName string, msg Message, now time.Time) []byte {
	var b bytes.Buffer
	sender := (&mail.Address{Name: fromName, Address: from}).String()
	fmt.Fprintf(&b, "From: %s\r\n", sender)
	fmt.Fprintf(&b, "To: %s\r\n", msg.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", msg.Subject))
	fmt.Fprintf(&b, "Date: %s\r\n", now.Format(time.RFC1123Z))
	b.WriteString("MIME-Version: 1.0\r\n")
	if msg.HTML == "" {
		b.WriteString("Content-Type: text/plain; charset=utf-8\r\n\r\n")
		b.WriteString(normalize(msg.Text))
		return b.Bytes()
	}
	fmt.Fprintf(&b, "Content-Type: multipart/alternative; boundary=%q\r\n\r\n", boundary)
	fmt.Fprintf(&b, "--%s\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n%s\r\n", boundary, normalize(msg.Text))
	fmt.Fprintf(&b, "--%s\r\nContent-Type: text/html; charset=utf-8\r\n\r\n%s\r\n", boundary, normalize(msg.HTML))
	fmt.Fprintf(&b, "--%s--\r\n", boundary)
	return b.Bytes()
}

func normalize(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\n", "\r\n")
}

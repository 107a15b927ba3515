// Copyright (c) 2026 Rentwise. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package notify

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"
)

// dialTimeout bounds the TCP connect when ctx carries no deadline.
const dialTimeout = 10 * time.Second

// SMTPConfig holds the relay settings.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPSender delivers email through an SMTP relay. STARTTLS is used whenever
// the server advertises it; PLAIN auth is attempted only with credentials.
type SMTPSender struct {
	config SMTPConfig
	now    func() time.Time
}

// NewSMTPSender creates an SMTP-backed [Sender].
func NewSMTPSender(config SMTPConfig) *SMTPSender {
	return &SMTPSender{config: config, now: time.Now}
}

// Send implements [Sender].
func (sender *SMTPSender) Send(ctx context.Context, message Message) error {
	address := net.JoinHostPort(sender.config.Host, strconv.Itoa(sender.config.Port))

	dialer := &net.Dialer{Timeout: dialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		return fmt.Errorf("smtp_sender_dial_failed: %w", err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	client, err := smtp.NewClient(conn, sender.config.Host)
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("smtp_sender_handshake_failed: %w", err)
	}
	defer client.Close()

	if ok, _ := client.Extension("STARTTLS"); ok {
		if err := client.StartTLS(&tls.Config{ServerName: sender.config.Host, MinVersion: tls.VersionTLS12}); err != nil {
			return fmt.Errorf("smtp_sender_starttls_failed: %w", err)
		}
	}

	if sender.config.Username != "" {
		if ok, _ := client.Extension("AUTH"); ok {
			auth := smtp.PlainAuth("", sender.config.Username, sender.config.Password, sender.config.Host)
			if err := client.Auth(auth); err != nil {
				return fmt.Errorf("smtp_sender_auth_failed: %w", err)
			}
		}
	}

	if err := client.Mail(sender.config.From); err != nil {
		return fmt.Errorf("smtp_sender_mail_failed: %w", err)
	}
	if err := client.Rcpt(message.To); err != nil {
		return fmt.Errorf("smtp_sender_rcpt_failed: %w", err)
	}

	writer, err := client.Data()
	if err != nil {
		return fmt.Errorf("smtp_sender_data_failed: %w", err)
	}
	if _, err := writer.Write(sender.compose(message)); err != nil {
		_ = writer.Close()
		return fmt.Errorf("smtp_sender_write_failed: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("smtp_sender_data_failed: %w", err)
	}

	return client.Quit()
}

// compose renders RFC 5322 headers followed by a plain-text body.
func (sender *SMTPSender) compose(message Message) []byte {
	var builder strings.Builder

	header := func(name, value string) {
		builder.WriteString(name)
		builder.WriteString(": ")
		builder.WriteString(value)
		builder.WriteString("\r\n")
	}

	header("From", sender.config.From)
	header("To", message.To)
	header("Subject", message.Subject)
	header("Date", sender.now().UTC().Format(time.RFC1123Z))
	header("MIME-Version", "1.0")
	header("Content-Type", "text/plain; charset=UTF-8")
	if message.Priority == PriorityHigh {
		header("X-Priority", "1")
		header("Importance", "high")
	}
	builder.WriteString("\r\n")
	builder.WriteString(strings.ReplaceAll(message.Body, "\n", "\r\n"))
	builder.WriteString("\r\n")

	return []byte(builder.String())
}

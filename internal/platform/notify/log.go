// Copyright (c) 2026 Rentwise. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package notify

import (
	"context"
	"log/slog"
)

// LogSender writes messages to the structured log instead of delivering them.
//
// It backs the SMS channel and stands in for email in development. The body is
// only logged when includeBody is set so codes never reach production logs.
type LogSender struct {
	logger      *slog.Logger
	includeBody bool
}

// NewLogSender creates a log-only [Sender].
func NewLogSender(logger *slog.Logger, includeBody bool) *LogSender {
	return &LogSender{logger: logger, includeBody: includeBody}
}

// Send implements [Sender].
func (sender *LogSender) Send(ctx context.Context, message Message) error {
	attrs := []any{
		slog.String("channel", string(message.Channel)),
		slog.String("to", MaskRecipient(message.To)),
		slog.String("subject", message.Subject),
		slog.String("priority", string(message.Priority)),
	}
	if sender.includeBody {
		attrs = append(attrs, slog.String("body", message.Body))
	}

	sender.logger.InfoContext(ctx, "notification_logged", attrs...)
	return nil
}

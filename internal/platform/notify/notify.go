// Copyright (c) 2026 Rentwise. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package notify delivers outbound messages to end users.

Verification codes, password reset codes and "new device" alerts all leave the
system through a [Sender]. A [Router] picks the concrete transport by
[Channel]:

  - Email: [SMTPSender] in deployments with SMTP configured, [LogSender] otherwise.
  - SMS: [LogSender]. No SMS gateway is wired yet; messages are logged with the
    recipient masked.
*/
package notify

import (
	"context"
	"fmt"
	"strings"
)

// Channel identifies a delivery transport.
type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelSMS   Channel = "sms"
)

// Priority hints how urgently a message should be delivered.
type Priority string

const (
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
)

// Message is a single rendered notification.
type Message struct {
	Channel  Channel
	To       string
	Subject  string
	Body     string
	Priority Priority
}

// Sender delivers a [Message]. Implementations must honour ctx cancellation.
type Sender interface {
	Send(ctx context.Context, message Message) error
}

// SenderFunc adapts an ordinary function to the [Sender] interface.
type SenderFunc func(ctx context.Context, message Message) error

// Send implements [Sender].
func (fn SenderFunc) Send(ctx context.Context, message Message) error {
	return fn(ctx, message)
}

// Router dispatches messages to the sender registered for their channel.
type Router struct {
	senders map[Channel]Sender
}

// NewRouter creates an empty router.
func NewRouter() *Router {
	return &Router{senders: make(map[Channel]Sender)}
}

// Handle registers sender for channel, replacing any previous one.
func (router *Router) Handle(channel Channel, sender Sender) *Router {
	router.senders[channel] = sender
	return router
}

// Send implements [Sender].
func (router *Router) Send(ctx context.Context, message Message) error {
	sender, ok := router.senders[message.Channel]
	if !ok {
		return fmt.Errorf("notify_router_no_sender: channel %q", message.Channel)
	}
	return sender.Send(ctx, message)
}

// MaskRecipient hides most of an address for logging.
//
//	MaskRecipient("alice@example.com") // "al***@example.com"
//	MaskRecipient("+250788123456")      // "*********3456"
func MaskRecipient(recipient string) string {
	if local, domain, ok := strings.Cut(recipient, "@"); ok {
		visible := min(2, len(local))
		return local[:visible] + "***@" + domain
	}
	if len(recipient) <= 4 {
		return strings.Repeat("*", len(recipient))
	}
	return strings.Repeat("*", len(recipient)-4) + recipient[len(recipient)-4:]
}

// Package messaging delivers agent replies to external chat platforms.
package messaging

import (
	"context"
	"errors"
)

// PlatformTelegram is the MessagingIDs key for Telegram chat ids.
const PlatformTelegram = "telegram"

// ErrDisabled is returned when no platform credentials are configured.
var ErrDisabled = errors.New("messaging disabled")

// Sender delivers a text message to a chat on one platform.
type Sender interface {
	Platform() string
	Send(ctx context.Context, chatID, text string) error
}

// Disabled is a Sender that refuses every message.
type Disabled struct{ Name string }

func (d Disabled) Platform() string                         { return d.Name }
func (Disabled) Send(context.Context, string, string) error { return ErrDisabled }

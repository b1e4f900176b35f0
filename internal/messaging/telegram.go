package messaging

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// Telegram sends messages through the Bot API.
type Telegram struct {
	client *resty.Client
	token  string
}

func NewTelegram(baseURL, token string) *Telegram {
	if baseURL == "" {
		baseURL = "https://api.telegram.org"
	}
	return &Telegram{
		client: resty.New().
			SetBaseURL(strings.TrimSuffix(baseURL, "/")).
			SetHeader("Content-Type", "application/json").
			SetTimeout(10 * time.Second),
		token: token,
	}
}

func (t *Telegram) Platform() string { return PlatformTelegram }

type sendMessageRequest struct {
	ChatID string `json:"chat_id"`
	Text   string `json:"text"`
}

type apiResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

func (t *Telegram) Send(ctx context.Context, chatID, text string) error {
	var out apiResponse
	resp, err := t.client.R().
		SetContext(ctx).
		SetBody(sendMessageRequest{ChatID: chatID, Text: text}).
		SetResult(&out).
		SetError(&out).
		Post("/bot" + t.token + "/sendMessage")
	if err != nil {
		return fmt.Errorf("telegram request: %w", scrubURL(err))
	}
	if resp.StatusCode() != http.StatusOK || !out.OK {
		return fmt.Errorf("telegram status %d: %s", resp.StatusCode(), out.Description)
	}
	return nil
}

// scrubURL drops the request URL from transport errors. Bot API URLs carry
// the token in their path.
func scrubURL(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return fmt.Errorf("%s: %w", urlErr.Op, urlErr.Err)
	}
	return err
}

// Update is the subset of a Telegram webhook update the agent reads.
type Update struct {
	UpdateID int64 `json:"update_id"`
	Message  *struct {
		MessageID int64  `json:"message_id"`
		Date      int64  `json:"date"`
		Text      string `json:"text"`
		Chat      struct {
			ID int64 `json:"id"`
		} `json:"chat"`
	} `json:"message"`
}

// Inbound is a text message received from a platform.
type Inbound struct {
	ChatID string
	Text   string
	SentAt time.Time
}

// Inbound extracts the text message of u. ok is false for updates without text.
func (u Update) Inbound() (Inbound, bool) {
	if u.Message == nil || strings.TrimSpace(u.Message.Text) == "" {
		return Inbound{}, false
	}
	in := Inbound{ChatID: strconv.FormatInt(u.Message.Chat.ID, 10), Text: u.Message.Text}
	if u.Message.Date > 0 {
		in.SentAt = time.Unix(u.Message.Date, 0).UTC()
	}
	return in, true
}

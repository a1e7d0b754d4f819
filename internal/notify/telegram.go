// Package notify delivers best-effort order notifications to owners and
// operators. Delivery failures are reported to the caller, which logs and
// drops them; no notification ever blocks or reverts an order transition.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const telegramAPIBase = "https://api.telegram.org"

// Telegram posts messages through the Bot API. Owners are addressed by their
// id (private chats share the user id); operators share one configured chat.
type Telegram struct {
	client         *http.Client
	baseURL        string
	token          string
	operatorChatID int64
}

func NewTelegram(token string, operatorChatID int64) *Telegram {
	return &Telegram{
		client:         &http.Client{Timeout: 10 * time.Second},
		baseURL:        telegramAPIBase,
		token:          token,
		operatorChatID: operatorChatID,
	}
}

func (t *Telegram) NotifyOwner(ctx context.Context, ownerID int64, message string) error {
	return t.sendMessage(ctx, ownerID, message)
}

func (t *Telegram) NotifyOperators(ctx context.Context, message string) error {
	return t.sendMessage(ctx, t.operatorChatID, message)
}

type sendMessageRequest struct {
	ChatID int64  `json:"chat_id"`
	Text   string `json:"text"`
}

type sendMessageResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

func (t *Telegram) sendMessage(ctx context.Context, chatID int64, text string) error {
	payload, err := json.Marshal(sendMessageRequest{ChatID: chatID, Text: text})
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", t.baseURL, t.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	var body sendMessageResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&body); err != nil {
		return fmt.Errorf("decode response (status %d): %w", resp.StatusCode, err)
	}
	if !body.OK {
		return fmt.Errorf("telegram api: status %d: %s", resp.StatusCode, body.Description)
	}
	return nil
}

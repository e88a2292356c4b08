// Package telegram is a thin Bot API client covering the calls the engine
// makes: sendMessage for delivery and getMe/getWebhookInfo for diagnostics.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

const DefaultAPIURL = "https://api.telegram.org"

type Client struct {
	httpClient *http.Client
	baseURL    string
	log        *zap.Logger
}

// NewClient creates a Bot API client. baseURL is overridable for tests and
// self-hosted Bot API servers; empty means the public endpoint.
func NewClient(baseURL string, log *zap.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultAPIURL
	}
	return &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    baseURL,
		log:        log,
	}
}

type apiResponse struct {
	OK          bool            `json:"ok"`
	Description string          `json:"description,omitempty"`
	Result      json.RawMessage `json:"result,omitempty"`
}

func (c *Client) call(ctx context.Context, token, method string, payload any, result any) error {
	url := fmt.Sprintf("%s/bot%s/%s", c.baseURL, token, method)

	var body bytes.Buffer
	if payload != nil {
		if err := json.NewEncoder(&body).Encode(payload); err != nil {
			return fmt.Errorf("failed to encode %s payload: %w", method, err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &body)
	if err != nil {
		return fmt.Errorf("failed to build %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("telegram %s call failed: %w", method, err)
	}
	defer resp.Body.Close()

	var api apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&api); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", method, err)
	}
	if !api.OK {
		return fmt.Errorf("telegram %s rejected: %s", method, api.Description)
	}
	if result != nil && api.Result != nil {
		if err := json.Unmarshal(api.Result, result); err != nil {
			return fmt.Errorf("failed to decode %s result: %w", method, err)
		}
	}
	return nil
}

type sendMessagePayload struct {
	ChatID      string       `json:"chat_id"`
	Text        string       `json:"text"`
	ParseMode   string       `json:"parse_mode,omitempty"`
	ReplyMarkup *ReplyMarkup `json:"reply_markup,omitempty"`
}

// SendMessage delivers text to a chat. Best effort: a non-nil error means
// delivery was not confirmed and the caller decides whether that matters.
func (c *Client) SendMessage(ctx context.Context, token, chatID, text string, markup *ReplyMarkup) error {
	err := c.call(ctx, token, "sendMessage", sendMessagePayload{
		ChatID:      chatID,
		Text:        text,
		ParseMode:   "HTML",
		ReplyMarkup: markup,
	}, nil)
	if err != nil {
		c.log.Error("Failed to send telegram message", zap.String("chat_id", chatID), zap.Error(err))
		return err
	}
	return nil
}

// GetMe fetches the bot's own profile.
func (c *Client) GetMe(ctx context.Context, token string) (BotProfile, error) {
	var profile BotProfile
	if err := c.call(ctx, token, "getMe", nil, &profile); err != nil {
		return BotProfile{}, err
	}
	return profile, nil
}

// GetWebhookInfo fetches the currently registered webhook state.
func (c *Client) GetWebhookInfo(ctx context.Context, token string) (WebhookInfo, error) {
	var info WebhookInfo
	if err := c.call(ctx, token, "getWebhookInfo", nil, &info); err != nil {
		return WebhookInfo{}, err
	}
	return info, nil
}

// Package discord is the destination platform adapter: it posts forwarded
// text into one channel through the REST API.
package discord

import (
	"bytes"
	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/errors"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"unicode/utf8"

	"github.com/hashicorp/go-cleanhttp"
)

// MaxContentLength is the Discord message ceiling, in characters.
const MaxContentLength = 2000

// maxErrorBody bounds how much of a rejection body is kept for logs.
const maxErrorBody = 4096

var _ contract.Delivery = (*Client)(nil)

type Client struct {
	log       *slog.Logger
	http      *http.Client
	baseURL   string
	token     string
	channelID string
}

func NewClient(log *slog.Logger, baseURL, token, channelID string) *Client {
	return &Client{
		log:       log,
		http:      cleanhttp.DefaultPooledClient(),
		baseURL:   baseURL,
		token:     token,
		channelID: channelID,
	}
}

type createMessageRequest struct {
	Content string `json:"content"`
}

// Deliver posts text, truncated to MaxContentLength. The deadline comes from ctx.
// A non-2xx answer is returned as a result wrapping ErrDeliveryRejected.
func (c *Client) Deliver(ctx context.Context, text string) (domain.DeliveryResult, error) {
	data, err := json.Marshal(createMessageRequest{Content: Truncate(text, MaxContentLength)})
	if err != nil {
		return domain.DeliveryResult{}, err
	}

	endpoint := fmt.Sprintf("%s/channels/%s/messages", c.baseURL, c.channelID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return domain.DeliveryResult{}, err
	}
	req.Header.Set("Authorization", "Bot "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return domain.DeliveryResult{}, fmt.Errorf("discord: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	result := domain.DeliveryResult{StatusCode: resp.StatusCode}
	if !result.OK() {
		result.Body = string(body)
		return result, fmt.Errorf("%w: status %d", errors.ErrDeliveryRejected, resp.StatusCode)
	}
	c.log.Debug("Discord message created", "channel", c.channelID, "status", resp.StatusCode)
	return result, nil
}

// Truncate cuts text to at most limit characters without splitting a rune.
func Truncate(text string, limit int) string {
	if utf8.RuneCountInString(text) <= limit {
		return text
	}
	runes := []rune(text)
	return string(runes[:limit])
}

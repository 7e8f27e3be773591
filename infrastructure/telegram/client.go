// Package telegram is the source platform adapter, built on the Bot API:
// updates are long polled, replies are sent with sendMessage.
package telegram

import (
	"bytes"
	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/errors"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-cleanhttp"
)

var _ contract.Source = (*Client)(nil)

const defaultErrorPause = 5 * time.Second

type Client struct {
	log         *slog.Logger
	http        *http.Client
	baseURL     string
	token       string
	pollTimeout time.Duration
	errorPause  time.Duration
	offset      int64
}

func NewClient(log *slog.Logger, baseURL, token string, pollTimeout time.Duration) *Client {
	httpClient := cleanhttp.DefaultPooledClient()
	// The server holds getUpdates open for pollTimeout
	httpClient.Timeout = pollTimeout + 10*time.Second
	return &Client{
		log:         log,
		http:        httpClient,
		baseURL:     baseURL,
		token:       token,
		pollTimeout: pollTimeout,
		errorPause:  defaultErrorPause,
	}
}

type apiResponse struct {
	OK          bool            `json:"ok"`
	Result      json.RawMessage `json:"result"`
	ErrorCode   int             `json:"error_code"`
	Description string          `json:"description"`
}

type tgUser struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	IsBot    bool   `json:"is_bot"`
}

type tgChat struct {
	ID       int64  `json:"id"`
	Type     string `json:"type"`
	Username string `json:"username"`
	Title    string `json:"title"`
}

type tgMessage struct {
	MessageID int64   `json:"message_id"`
	From      *tgUser `json:"from"`
	Chat      tgChat  `json:"chat"`
	Text      string  `json:"text"`
	Caption   string  `json:"caption"`
}

type tgUpdate struct {
	UpdateID    int64      `json:"update_id"`
	Message     *tgMessage `json:"message"`
	ChannelPost *tgMessage `json:"channel_post"`
}

// Authenticate checks the bot token with getMe.
func (c *Client) Authenticate(ctx context.Context) error {
	var me tgUser
	if err := c.call(ctx, http.MethodGet, "getMe", nil, &me); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrSourceAuthentication, err)
	}
	c.log.Info("Telegram login succeeded", "bot", me.Username, "id", me.ID)
	return nil
}

// Poll long polls getUpdates and pushes converted events until ctx is done.
// Transport errors are logged and retried after a pause.
func (c *Client) Poll(ctx context.Context, events chan<- contract.Event) error {
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		updates, err := c.getUpdates(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.log.Error("Telegram poll error", "error", err)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.errorPause):
			}
			continue
		}

		for _, u := range updates {
			c.offset = u.UpdateID + 1
			evt, ok := toEvent(u)
			if !ok {
				continue
			}
			select {
			case events <- evt:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}

func (c *Client) getUpdates(ctx context.Context) ([]tgUpdate, error) {
	query := url.Values{}
	query.Set("offset", strconv.FormatInt(c.offset, 10))
	query.Set("timeout", strconv.Itoa(int(c.pollTimeout.Seconds())))
	query.Set("allowed_updates", `["message","channel_post"]`)

	var updates []tgUpdate
	if err := c.call(ctx, http.MethodGet, "getUpdates?"+query.Encode(), nil, &updates); err != nil {
		return nil, err
	}
	return updates, nil
}

// toEvent maps a private or group message that parses as a known command
// to a CommandEvent; any other message or channel post is an InboundMessage.
func toEvent(u tgUpdate) (contract.Event, bool) {
	if m := u.Message; m != nil {
		if name, arg, ok := domain.ParseCommand(m.Text); ok {
			sender := ""
			if m.From != nil {
				sender = strconv.FormatInt(m.From.ID, 10)
			}
			return domain.CommandEvent{
				MessageID: strconv.FormatInt(m.MessageID, 10),
				SenderID:  sender,
				ChatID:    strconv.FormatInt(m.Chat.ID, 10),
				Name:      name,
				Argument:  arg,
			}, true
		}
		return toInbound(m), true
	}
	if u.ChannelPost != nil {
		return toInbound(u.ChannelPost), true
	}
	return nil, false
}

func toInbound(m *tgMessage) domain.InboundMessage {
	chat := m.Chat.Username
	if chat == "" {
		chat = strconv.FormatInt(m.Chat.ID, 10)
	}
	body := m.Text
	if body == "" {
		body = m.Caption
	}
	return domain.InboundMessage{
		ID:             strconv.FormatInt(m.MessageID, 10),
		ChatIdentifier: chat,
		Body:           body,
	}
}

type sendMessageRequest struct {
	ChatID                   string `json:"chat_id"`
	Text                     string `json:"text"`
	ReplyToMessageID         int64  `json:"reply_to_message_id,omitempty"`
	AllowSendingWithoutReply bool   `json:"allow_sending_without_reply,omitempty"`
}

func (c *Client) Reply(ctx context.Context, chatID, replyTo, text string) error {
	payload := sendMessageRequest{ChatID: chatID, Text: text}
	if id, err := strconv.ParseInt(replyTo, 10, 64); err == nil {
		payload.ReplyToMessageID = id
		payload.AllowSendingWithoutReply = true
	}
	return c.call(ctx, http.MethodPost, "sendMessage", payload, nil)
}

// Close drops the pooled connections to the Bot API.
func (c *Client) Close() error {
	c.http.CloseIdleConnections()
	return nil
}

func (c *Client) call(ctx context.Context, method, endpoint string, payload, result any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.token, endpoint), body)
	if err != nil {
		return err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		// *url.Error embeds the request URL, token included
		var urlErr *url.Error
		if stderrors.As(err, &urlErr) {
			err = urlErr.Err
		}
		return fmt.Errorf("telegram %s: %w", endpointName(endpoint), err)
	}
	defer resp.Body.Close()

	var envelope apiResponse
	if err = json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("telegram %s: status %d: %w", endpointName(endpoint), resp.StatusCode, err)
	}
	if !envelope.OK {
		return fmt.Errorf("telegram %s: %d %s", endpointName(endpoint), envelope.ErrorCode, envelope.Description)
	}
	if result == nil {
		return nil
	}
	return json.Unmarshal(envelope.Result, result)
}

// endpointName drops the query string for error messages.
func endpointName(endpoint string) string {
	name, _, _ := strings.Cut(endpoint, "?")
	return name
}

// Package discord implements the slice of the Discord API the bot needs:
// a REST client for sending and editing messages, attaching reaction
// controls and responding to slash command interactions, plus a websocket
// gateway connection that delivers interaction and reaction events.
package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultBaseURL is the Discord REST API root.
const DefaultBaseURL = "https://discord.com/api/v10"

// Client is a minimal Discord REST client authenticated as a bot.
type Client struct {
	Token         string
	ApplicationID string
	BaseURL       string
	HTTPClient    *http.Client
}

// New returns a REST client for the given bot token and application id.
func New(token, applicationID string) *Client {
	return &Client{
		Token:         token,
		ApplicationID: applicationID,
		BaseURL:       DefaultBaseURL,
		HTTPClient:    &http.Client{Timeout: 15 * time.Second},
	}
}

func (c *Client) http() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}

func (c *Client) base() string {
	if c.BaseURL != "" {
		return strings.TrimRight(c.BaseURL, "/")
	}
	return DefaultBaseURL
}

// Message is a Discord message handle. Channel and message id together
// address every later edit or reaction call.
type Message struct {
	ID        string `json:"id"`
	ChannelID string `json:"channel_id"`
}

// Embed is a rich message embed. Only the fields the bot renders are modeled.
type Embed struct {
	Title       string       `json:"title,omitempty"`
	Description string       `json:"description,omitempty"`
	Footer      *EmbedFooter `json:"footer,omitempty"`
	Image       *EmbedImage  `json:"image,omitempty"`
}

type EmbedFooter struct {
	Text string `json:"text"`
}

type EmbedImage struct {
	URL string `json:"url"`
}

// File is an attachment uploaded alongside a message edit.
type File struct {
	Name        string
	ContentType string
	Body        []byte
}

// MessageEdit is the payload for editing a message. Nil fields are left
// untouched by Discord; an empty Embeds slice clears existing embeds.
type MessageEdit struct {
	Content *string  `json:"content,omitempty"`
	Embeds  *[]Embed `json:"embeds,omitempty"`
}

// APIError is a non-2xx response from the Discord API.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("discord: unexpected status %d: %s", e.StatusCode, e.Body)
}

// EditMessage edits a previously sent message, optionally attaching a file.
func (c *Client) EditMessage(ctx context.Context, channelID, messageID string, edit MessageEdit, file *File) (*Message, error) {
	path := fmt.Sprintf("/channels/%s/messages/%s", channelID, messageID)
	var out Message
	if file == nil {
		if err := c.do(ctx, http.MethodPatch, path, edit, &out); err != nil {
			return nil, err
		}
		return &out, nil
	}
	if err := c.doMultipart(ctx, http.MethodPatch, path, edit, file, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateReaction adds the bot's reaction emoji to a message.
func (c *Client) CreateReaction(ctx context.Context, channelID, messageID, emoji string) error {
	path := fmt.Sprintf("/channels/%s/messages/%s/reactions/%s/@me",
		channelID, messageID, url.PathEscape(emoji))
	return c.do(ctx, http.MethodPut, path, nil, nil)
}

// DeleteAllReactions clears every reaction from a message. This removes the
// previous navigation controls before the new set is attached.
func (c *Client) DeleteAllReactions(ctx context.Context, channelID, messageID string) error {
	path := fmt.Sprintf("/channels/%s/messages/%s/reactions", channelID, messageID)
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

// RespondToInteraction acknowledges a slash command with an initial channel
// message (callback type 4). The actual result is filled in later via edits.
func (c *Client) RespondToInteraction(ctx context.Context, interactionID, interactionToken, content string) error {
	path := fmt.Sprintf("/interactions/%s/%s/callback", interactionID, interactionToken)
	payload := struct {
		Type int `json:"type"`
		Data struct {
			Content string `json:"content"`
		} `json:"data"`
	}{Type: 4}
	payload.Data.Content = content
	return c.do(ctx, http.MethodPost, path, payload, nil)
}

// OriginalInteractionResponse fetches the message created by the initial
// interaction response, yielding the channel and message ids used for all
// later edits and reactions.
func (c *Client) OriginalInteractionResponse(ctx context.Context, interactionToken string) (*Message, error) {
	path := fmt.Sprintf("/webhooks/%s/%s/messages/@original", c.ApplicationID, interactionToken)
	var out Message
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// do performs a JSON request. A nil body sends no payload; a nil out discards
// the response body.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(buf)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base()+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.send(req, out)
}

// doMultipart sends the edit payload as the payload_json part with the file
// in files[0], per the Discord attachment upload contract.
func (c *Client) doMultipart(ctx context.Context, method, path string, payload any, file *File, out any) error {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	if err := w.WriteField("payload_json", string(payloadJSON)); err != nil {
		return err
	}
	part, err := w.CreateFormFile("files[0]", file.Name)
	if err != nil {
		return err
	}
	if _, err := part.Write(file.Body); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base()+path, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	return c.send(req, out)
}

func (c *Client) send(req *http.Request, out any) error {
	req.Header.Set("Authorization", "Bot "+c.Token)
	resp, err := c.http().Do(req)
	if err != nil {
		return fmt.Errorf("discord request: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			slog.Warn("failed to close response body", slog.Any("err", err))
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	if out == nil {
		return nil
	}
	if resp.StatusCode == http.StatusNoContent {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

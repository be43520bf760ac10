// Package discord delivers notification payloads to a Discord webhook.
package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"time"

	"github.com/trogers1052/watchlist-alert-relay/internal/models"
	"go.uber.org/zap"
)

// StatusError is returned when the webhook answers with a non-2xx status
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("discord responded with %d: %s", e.StatusCode, e.Body)
}

// Client posts payloads to a single webhook URL
type Client struct {
	webhookURL string
	client     *http.Client
	logger     *zap.Logger
}

// NewClient creates a webhook client
func NewClient(webhookURL string, timeout time.Duration, logger *zap.Logger) *Client {
	return &Client{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// Send delivers payload as JSON, or as multipart when it carries an attachment
func (c *Client) Send(ctx context.Context, payload models.NotificationPayload) error {
	body, contentType, err := encode(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webhookURL, body)
	if err != nil {
		return fmt.Errorf("discord: create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("discord: send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return &StatusError{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	c.logger.Debug(
		"discord webhook delivered",
		zap.Int("status", resp.StatusCode),
		zap.Bool("multipart", payload.Attachment != nil),
		zap.Duration("duration", time.Since(start)),
	)
	return nil
}

func encode(payload models.NotificationPayload) (io.Reader, string, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, "", fmt.Errorf("discord: marshal: %w", err)
	}

	if payload.Attachment == nil {
		return bytes.NewReader(data), "application/json", nil
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	if err := w.WriteField("payload_json", string(data)); err != nil {
		return nil, "", fmt.Errorf("discord: write payload_json: %w", err)
	}

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="files[0]"; filename="%s"`, payload.Attachment.Filename))
	header.Set("Content-Type", payload.Attachment.ContentType)
	part, err := w.CreatePart(header)
	if err != nil {
		return nil, "", fmt.Errorf("discord: create file part: %w", err)
	}
	if _, err := part.Write(payload.Attachment.Data); err != nil {
		return nil, "", fmt.Errorf("discord: write file part: %w", err)
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("discord: close multipart: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}

package watchlist

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/trogers1052/watchlist-alert-relay/internal/config"
	"github.com/trogers1052/watchlist-alert-relay/internal/models"
	"go.uber.org/zap"
)

// NotionClient looks up watchlist entries in a Notion database
type NotionClient struct {
	baseURL    string
	apiKey     string
	databaseID string
	version    string
	client     *http.Client
	logger     *zap.Logger
}

// NewNotionClient creates a Notion-backed watchlist store
func NewNotionClient(cfg config.NotionConfig, timeout time.Duration, logger *zap.Logger) *NotionClient {
	return &NotionClient{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		databaseID: cfg.DatabaseID,
		version:    cfg.Version,
		client:     &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

type notionQuery struct {
	Filter   notionFilter `json:"filter"`
	PageSize int          `json:"page_size"`
}

type notionFilter struct {
	Property string            `json:"property"`
	Title    map[string]string `json:"title"`
}

type notionQueryResponse struct {
	Results []notionPage `json:"results"`
}

type notionPage struct {
	ID         string            `json:"id"`
	Properties models.Properties `json:"properties"`
}

type notionError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// FindByTicker returns the first page whose Ticker title equals ticker
func (c *NotionClient) FindByTicker(ctx context.Context, ticker string) (*models.WatchlistRecord, error) {
	body, err := json.Marshal(notionQuery{
		Filter: notionFilter{
			Property: FieldTicker,
			Title:    map[string]string{"equals": ticker},
		},
		PageSize: 1,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal notion query: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1/databases/%s/query", c.baseURL, url.PathEscape(c.databaseID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Notion-Version", c.version)
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Error("notion query failed", zap.String("ticker", ticker), zap.Error(err))
		return nil, fmt.Errorf("notion query: %w", err)
	}
	defer resp.Body.Close()

	c.logger.Debug(
		"notion query complete",
		zap.String("ticker", ticker),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr notionError
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Message != "" {
			return nil, fmt.Errorf("notion error: status %d %s: %s", resp.StatusCode, apiErr.Code, apiErr.Message)
		}
		return nil, fmt.Errorf("notion error: status %d", resp.StatusCode)
	}

	var payload notionQueryResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode notion response: %w", err)
	}

	if len(payload.Results) == 0 {
		return nil, models.ErrTickerNotFound
	}

	record := RecordFromProperties(payload.Results[0].Properties)
	if record.Ticker == "" {
		record.Ticker = ticker
	}
	return &record, nil
}

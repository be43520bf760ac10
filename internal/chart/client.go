// Package chart fetches rendered chart images for a ticker.
package chart

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/trogers1052/watchlist-alert-relay/internal/config"
	"github.com/trogers1052/watchlist-alert-relay/internal/models"
	"go.uber.org/zap"
)

// Filename is the attachment name given to fetched charts
const Filename = "chart.png"

const maxImageBytes = 8 << 20

// ErrEmptyImage is returned when the service answers without image data
var ErrEmptyImage = errors.New("chart service returned an empty image")

// Client requests TradingView-style chart snapshots
type Client struct {
	baseURL  string
	apiKey   string
	interval string
	width    int
	height   int
	client   *http.Client
	logger   *zap.Logger
}

// NewClient creates a chart client
func NewClient(cfg config.ChartConfig, timeout time.Duration, logger *zap.Logger) *Client {
	return &Client{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:   cfg.APIKey,
		interval: cfg.Interval,
		width:    cfg.Width,
		height:   cfg.Height,
		client:   &http.Client{Timeout: timeout},
		logger:   logger,
	}
}

// Fetch renders a chart for ticker and returns it as a PNG attachment
func (c *Client) Fetch(ctx context.Context, ticker string) (*models.Attachment, error) {
	query := url.Values{}
	query.Set("symbol", ticker)
	query.Set("interval", c.interval)
	query.Set("width", strconv.Itoa(c.width))
	query.Set("height", strconv.Itoa(c.height))
	endpoint := c.baseURL + "/v1/tradingview/advanced-chart?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("x-api-key", c.apiKey)

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("chart request: %w", err)
	}
	defer resp.Body.Close()

	c.logger.Debug(
		"chart request complete",
		zap.String("ticker", ticker),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("chart error: status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read chart image: %w", err)
	}
	if len(data) == 0 {
		return nil, ErrEmptyImage
	}

	contentType := resp.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		contentType = "image/png"
	}

	return &models.Attachment{
		Filename:    Filename,
		ContentType: contentType,
		Data:        data,
	}, nil
}

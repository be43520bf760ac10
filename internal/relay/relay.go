// Package relay turns price alerts into watchlist-enriched webhook notifications.
package relay

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/trogers1052/watchlist-alert-relay/internal/alert"
	"github.com/trogers1052/watchlist-alert-relay/internal/metrics"
	"github.com/trogers1052/watchlist-alert-relay/internal/models"
	"go.uber.org/zap"
)

// WatchlistStore looks up the watchlist entry for a normalized ticker.
// It returns models.ErrTickerNotFound when there is no entry.
type WatchlistStore interface {
	FindByTicker(ctx context.Context, ticker string) (*models.WatchlistRecord, error)
}

// ChartFetcher renders a chart image for a ticker
type ChartFetcher interface {
	Fetch(ctx context.Context, ticker string) (*models.Attachment, error)
}

// Notifier delivers a payload to the group chat
type Notifier interface {
	Send(ctx context.Context, payload models.NotificationPayload) error
}

// EventPublisher announces delivered alerts
type EventPublisher interface {
	PublishAlertRelayed(ctx context.Context, event models.AlertRelayedEvent) error
}

// TestMessage is the content of the connectivity check message
const TestMessage = "Trading Alerts webhook is connected and working."

// Deps are the collaborators of a Service. Charts and Events are optional.
type Deps struct {
	Store    WatchlistStore
	Charts   ChartFetcher
	Notifier Notifier
	Events   EventPublisher
	Renderer alert.Renderer
	Metrics  *metrics.Metrics
	Logger   *zap.Logger
}

// Options tune relay behaviour
type Options struct {
	StaleAfter      time.Duration
	UpstreamTimeout time.Duration
	Now             func() time.Time
}

// Result acknowledges a relayed alert
type Result struct {
	Ticker   string
	Warnings []string
	HasChart bool
}

// Service runs the lookup, derive, render and deliver pipeline for one alert
// at a time. It holds no per-request state and is safe for concurrent use.
type Service struct {
	store    WatchlistStore
	charts   ChartFetcher
	notifier Notifier
	events   EventPublisher
	renderer alert.Renderer
	metrics  *metrics.Metrics
	logger   *zap.Logger

	staleAfter time.Duration
	timeout    time.Duration
	now        func() time.Time
}

// NewService creates a relay service
func NewService(deps Deps, opts Options) *Service {
	if opts.StaleAfter <= 0 {
		opts.StaleAfter = alert.DefaultStaleAfter
	}
	if opts.UpstreamTimeout <= 0 {
		opts.UpstreamTimeout = 5 * time.Second
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Metrics == nil {
		deps.Metrics = metrics.New()
	}

	return &Service{
		store:      deps.Store,
		charts:     deps.Charts,
		notifier:   deps.Notifier,
		events:     deps.Events,
		renderer:   deps.Renderer,
		metrics:    deps.Metrics,
		logger:     deps.Logger,
		staleAfter: opts.StaleAfter,
		timeout:    opts.UpstreamTimeout,
		now:        opts.Now,
	}
}

// Relay validates req, enriches it from the watchlist and delivers the notification
func (s *Service) Relay(ctx context.Context, req models.AlertRequest) (*Result, error) {
	if !req.HasRequiredFields() {
		s.metrics.ObserveAlert(metrics.OutcomeInvalid, string(req.Level))
		return nil, ErrMissingFields
	}
	if req.Price.IsNegative() {
		s.metrics.ObserveAlert(metrics.OutcomeInvalid, string(req.Level))
		return nil, ErrInvalidPrice
	}

	req = req.Normalize()
	alertID := uuid.NewString()
	logger := s.logger.With(
		zap.String("alert_id", alertID),
		zap.String("ticker", req.Ticker),
		zap.String("level", string(req.Level)),
	)
	level := string(req.Level)

	record, err := s.lookup(ctx, req.Ticker)
	if errors.Is(err, models.ErrTickerNotFound) {
		logger.Info("ticker not on watchlist")
		s.metrics.ObserveAlert(metrics.OutcomeNotFound, level)
		return nil, &NotFoundError{Ticker: req.Ticker}
	}
	if err != nil {
		logger.Error("watchlist lookup failed", zap.Error(err))
		s.metrics.ObserveAlert(metrics.OutcomeLookupFailed, level)
		return nil, &LookupError{Err: err}
	}

	now := s.now()
	warnings := alert.DeriveWarnings(record.Tier, record.EntryConditions, now, s.staleAfter)

	var chart *models.Attachment
	if s.charts != nil && s.renderer.WantsChart() {
		chart, err = s.fetchChart(ctx, req.Ticker)
		if err != nil {
			// a missing chart never blocks the alert
			logger.Warn("chart fetch failed, sending without image", zap.Error(err))
			s.metrics.ChartFailures.Inc()
			chart = nil
		}
	}

	payload := s.renderer.Render(alert.Input{
		Alert:     req,
		Record:    *record,
		Warnings:  warnings,
		Chart:     chart,
		Timestamp: now,
	})

	if err := s.deliver(ctx, payload); err != nil {
		logger.Error("notification delivery failed", zap.Error(err))
		s.metrics.ObserveAlert(metrics.OutcomeDeliveryFailed, level)
		return nil, &DeliveryError{Err: err}
	}

	s.publish(ctx, logger, models.AlertRelayedEvent{
		EventID:   alertID,
		EventType: models.EventTypeAlertRelayed,
		Ticker:    req.Ticker,
		Price:     req.Price,
		Level:     req.Level,
		Tier:      record.Tier,
		Warnings:  warnings,
		HasChart:  chart != nil,
		Timestamp: now,
	})

	s.metrics.ObserveAlert(metrics.OutcomeRelayed, level)
	logger.Info("alert relayed", zap.Int("warnings", len(warnings)), zap.Bool("chart", chart != nil))

	return &Result{Ticker: req.Ticker, Warnings: warnings, HasChart: chart != nil}, nil
}

// SendTest posts the connectivity check message
func (s *Service) SendTest(ctx context.Context) error {
	if err := s.deliver(ctx, models.NotificationPayload{Content: TestMessage}); err != nil {
		s.logger.Error("test message delivery failed", zap.Error(err))
		return &DeliveryError{Err: err}
	}
	return nil
}

func (s *Service) lookup(ctx context.Context, ticker string) (*models.WatchlistRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	defer func() { s.metrics.LookupDuration.Observe(time.Since(start).Seconds()) }()

	return s.store.FindByTicker(ctx, ticker)
}

func (s *Service) fetchChart(ctx context.Context, ticker string) (*models.Attachment, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.charts.Fetch(ctx, ticker)
}

func (s *Service) deliver(ctx context.Context, payload models.NotificationPayload) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	defer func() { s.metrics.DeliveryDuration.Observe(time.Since(start).Seconds()) }()

	return s.notifier.Send(ctx, payload)
}

func (s *Service) publish(ctx context.Context, logger *zap.Logger, event models.AlertRelayedEvent) {
	if s.events == nil {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.events.PublishAlertRelayed(ctx, event); err != nil {
		logger.Warn("failed to publish relayed event", zap.Error(err))
		s.metrics.EventPublishFails.Inc()
	}
}

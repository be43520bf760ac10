package relay

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trogers1052/watchlist-alert-relay/internal/alert"
	"github.com/trogers1052/watchlist-alert-relay/internal/metrics"
	"github.com/trogers1052/watchlist-alert-relay/internal/models"
)

// MockStore implements WatchlistStore for testing
type MockStore struct {
	records map[string]models.WatchlistRecord
	err     error

	mu      sync.Mutex
	lookups []string
}

func NewMockStore(records ...models.WatchlistRecord) *MockStore {
	m := &MockStore{records: make(map[string]models.WatchlistRecord)}
	for _, r := range records {
		m.records[r.Ticker] = r
	}
	return m
}

func (m *MockStore) FindByTicker(ctx context.Context, ticker string) (*models.WatchlistRecord, error) {
	m.mu.Lock()
	m.lookups = append(m.lookups, ticker)
	m.mu.Unlock()

	if m.err != nil {
		return nil, m.err
	}
	rec, ok := m.records[ticker]
	if !ok {
		return nil, models.ErrTickerNotFound
	}
	return &rec, nil
}

func (m *MockStore) Lookups() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.lookups...)
}

type mockNotifier struct {
	err      error
	payloads []models.NotificationPayload
}

func (n *mockNotifier) Send(ctx context.Context, payload models.NotificationPayload) error {
	if _, ok := ctx.Deadline(); !ok {
		return errors.New("delivery without deadline")
	}
	n.payloads = append(n.payloads, payload)
	return n.err
}

type mockCharts struct {
	img   *models.Attachment
	err   error
	calls int
}

func (c *mockCharts) Fetch(ctx context.Context, ticker string) (*models.Attachment, error) {
	c.calls++
	return c.img, c.err
}

type mockEvents struct {
	err    error
	events []models.AlertRelayedEvent
}

func (e *mockEvents) PublishAlertRelayed(ctx context.Context, event models.AlertRelayedEvent) error {
	e.events = append(e.events, event)
	return e.err
}

var fixedNow = time.Date(2026, 1, 20, 9, 30, 0, 0, time.Local)

type fixture struct {
	store    *MockStore
	notifier *mockNotifier
	charts   *mockCharts
	events   *mockEvents
	metrics  *metrics.Metrics
	service  *Service
}

func newFixture(t *testing.T, renderer alert.Renderer, records ...models.WatchlistRecord) *fixture {
	t.Helper()
	f := &fixture{
		store:    NewMockStore(records...),
		notifier: &mockNotifier{},
		charts:   &mockCharts{},
		events:   &mockEvents{},
		metrics:  metrics.New(),
	}
	f.service = NewService(Deps{
		Store:    f.store,
		Charts:   f.charts,
		Notifier: f.notifier,
		Events:   f.events,
		Renderer: renderer,
		Metrics:  f.metrics,
	}, Options{
		StaleAfter:      alert.DefaultStaleAfter,
		UpstreamTimeout: time.Second,
		Now:             func() time.Time { return fixedNow },
	})
	return f
}

func embedRenderer() alert.Renderer {
	return &alert.EmbedRenderer{ChartLinkBase: "https://www.tradingview.com/chart/?symbol="}
}

func TestService_Relay(t *testing.T) {
	ctx := context.Background()

	t.Run("radar paused entry end to end", func(t *testing.T) {
		f := newFixture(t, embedRenderer(), models.WatchlistRecord{
			Ticker:          "ABC",
			Tier:            "Radar",
			EntryConditions: "PAUSED",
		})

		res, err := f.service.Relay(ctx, models.AlertRequest{Ticker: "abc", Price: decimal.NewFromInt(10)})
		require.NoError(t, err)
		assert.Equal(t, "ABC", res.Ticker)
		assert.Equal(t, []string{alert.WarningRadar, alert.WarningPaused}, res.Warnings)
		assert.Equal(t, []string{"ABC"}, f.store.Lookups())

		require.Len(t, f.notifier.payloads, 1)
		embed := f.notifier.payloads[0].Embeds[0]
		assert.Contains(t, embed.Title, "ABC")
		assert.Equal(t, "🔵 ABC hit $10 [execution]", embed.Title)
		assert.Equal(t, alert.RadarColor, embed.Color)
		assert.Contains(t, embed.Description, alert.WarningRadar+"\n"+alert.WarningPaused)

		require.Len(t, f.events.events, 1)
		event := f.events.events[0]
		assert.Equal(t, models.EventTypeAlertRelayed, event.EventType)
		assert.Equal(t, "ABC", event.Ticker)
		assert.NotEmpty(t, event.EventID)
		assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.AlertsTotal.WithLabelValues(metrics.OutcomeRelayed, "execution")))
	})

	t.Run("missing price performs no lookup", func(t *testing.T) {
		f := newFixture(t, embedRenderer())

		_, err := f.service.Relay(ctx, models.AlertRequest{Ticker: "ABC"})
		assert.ErrorIs(t, err, ErrMissingFields)
		assert.Empty(t, f.store.Lookups())
		assert.Empty(t, f.notifier.payloads)
	})

	t.Run("missing ticker performs no lookup", func(t *testing.T) {
		f := newFixture(t, embedRenderer())

		_, err := f.service.Relay(ctx, models.AlertRequest{Ticker: "  ", Price: decimal.NewFromInt(5)})
		assert.ErrorIs(t, err, ErrMissingFields)
		assert.Empty(t, f.store.Lookups())
	})

	t.Run("negative price is rejected", func(t *testing.T) {
		f := newFixture(t, embedRenderer())

		_, err := f.service.Relay(ctx, models.AlertRequest{Ticker: "ABC", Price: decimal.NewFromInt(-1)})
		assert.ErrorIs(t, err, ErrInvalidPrice)
		assert.Empty(t, f.store.Lookups())
	})

	t.Run("unknown ticker is not found", func(t *testing.T) {
		f := newFixture(t, embedRenderer())

		_, err := f.service.Relay(ctx, models.AlertRequest{Ticker: "zzz", Price: decimal.NewFromInt(1)})
		var notFound *NotFoundError
		require.True(t, errors.As(err, &notFound))
		assert.Equal(t, "ZZZ", notFound.Ticker)
		assert.Contains(t, err.Error(), "ZZZ")
		assert.ErrorIs(t, err, models.ErrTickerNotFound)
		assert.Empty(t, f.notifier.payloads)
	})

	t.Run("store failure is a lookup error", func(t *testing.T) {
		f := newFixture(t, embedRenderer())
		f.store.err = errors.New("connection refused")

		_, err := f.service.Relay(ctx, models.AlertRequest{Ticker: "ABC", Price: decimal.NewFromInt(1)})
		var lookupErr *LookupError
		require.True(t, errors.As(err, &lookupErr))
		assert.NotErrorIs(t, err, models.ErrTickerNotFound)
		assert.Empty(t, f.notifier.payloads)
	})

	t.Run("delivery failure is a delivery error", func(t *testing.T) {
		f := newFixture(t, embedRenderer(), models.WatchlistRecord{Ticker: "ABC"})
		f.notifier.err = errors.New("discord responded with 500")

		_, err := f.service.Relay(ctx, models.AlertRequest{Ticker: "ABC", Price: decimal.NewFromInt(1)})
		var deliveryErr *DeliveryError
		require.True(t, errors.As(err, &deliveryErr))
		assert.Empty(t, f.events.events)
	})

	t.Run("chart is attached when available", func(t *testing.T) {
		f := newFixture(t, embedRenderer(), models.WatchlistRecord{Ticker: "ABC"})
		f.charts.img = &models.Attachment{Filename: "chart.png", ContentType: "image/png", Data: []byte("png")}

		res, err := f.service.Relay(ctx, models.AlertRequest{Ticker: "ABC", Price: decimal.NewFromInt(1)})
		require.NoError(t, err)
		assert.True(t, res.HasChart)

		payload := f.notifier.payloads[0]
		require.NotNil(t, payload.Attachment)
		assert.Equal(t, "attachment://chart.png", payload.Embeds[0].Image.URL)
	})

	t.Run("chart failure is not fatal", func(t *testing.T) {
		f := newFixture(t, embedRenderer(), models.WatchlistRecord{Ticker: "ABC"})
		f.charts.err = errors.New("chart error: status 500")

		res, err := f.service.Relay(ctx, models.AlertRequest{Ticker: "ABC", Price: decimal.NewFromInt(1)})
		require.NoError(t, err)
		assert.False(t, res.HasChart)

		payload := f.notifier.payloads[0]
		assert.Nil(t, payload.Attachment)
		assert.Nil(t, payload.Embeds[0].Image)
		assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.ChartFailures))
	})

	t.Run("text renderer skips chart and warnings", func(t *testing.T) {
		f := newFixture(t, &alert.TextRenderer{}, models.WatchlistRecord{Ticker: "ABC", Tier: "Radar", DemandZone: "9-9.5"})

		_, err := f.service.Relay(ctx, models.AlertRequest{Ticker: "abc", Price: decimal.RequireFromString("9.25")})
		require.NoError(t, err)
		assert.Equal(t, 0, f.charts.calls)

		payload := f.notifier.payloads[0]
		assert.Equal(t, "**ABC** hit $9.25\nTier: Radar\nDemand Zone: 9-9.5", payload.Content)
		assert.Empty(t, payload.Embeds)
	})

	t.Run("stale entry date is flagged", func(t *testing.T) {
		f := newFixture(t, embedRenderer(), models.WatchlistRecord{Ticker: "ABC", EntryConditions: "ENTRY DATE: 2 Jan 2026"})

		res, err := f.service.Relay(ctx, models.AlertRequest{Ticker: "ABC", Price: decimal.NewFromInt(1), Level: models.LevelDemand})
		require.NoError(t, err)
		assert.Equal(t, []string{alert.WarningStale}, res.Warnings)
		assert.Equal(t, "🟡 ABC hit $1 [demand]", f.notifier.payloads[0].Embeds[0].Title)
	})

	t.Run("event publish failure is not fatal", func(t *testing.T) {
		f := newFixture(t, embedRenderer(), models.WatchlistRecord{Ticker: "ABC"})
		f.events.err = errors.New("kafka unavailable")

		_, err := f.service.Relay(ctx, models.AlertRequest{Ticker: "ABC", Price: decimal.NewFromInt(1)})
		require.NoError(t, err)
		assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.EventPublishFails))
	})

	t.Run("relay is repeatable", func(t *testing.T) {
		f := newFixture(t, embedRenderer(), models.WatchlistRecord{Ticker: "ABC", Tier: "Core", PivotLevel: "11"})
		req := models.AlertRequest{Ticker: "abc", Price: decimal.NewFromInt(10), Level: models.LevelPivot}

		_, err := f.service.Relay(ctx, req)
		require.NoError(t, err)
		_, err = f.service.Relay(ctx, req)
		require.NoError(t, err)

		require.Len(t, f.notifier.payloads, 2)
		assert.Equal(t, f.notifier.payloads[0], f.notifier.payloads[1])
	})
}

func TestService_SendTest(t *testing.T) {
	f := newFixture(t, embedRenderer())

	require.NoError(t, f.service.SendTest(context.Background()))
	require.Len(t, f.notifier.payloads, 1)
	assert.Equal(t, TestMessage, f.notifier.payloads[0].Content)

	f.notifier.err = errors.New("boom")
	var deliveryErr *DeliveryError
	assert.True(t, errors.As(f.service.SendTest(context.Background()), &deliveryErr))
}

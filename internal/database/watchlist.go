package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/trogers1052/watchlist-alert-relay/internal/models"
)

// UpsertWatchlistEntry inserts or replaces a watchlist entry. The relay only
// reads the table; this seeds it from an export or a test.
func (db *DB) UpsertWatchlistEntry(ctx context.Context, rec models.WatchlistRecord) error {
	query := `
		INSERT INTO watchlist_entries (
			ticker, tier, entry_conditions, invalidation_level, industry_etf,
			demand_zone, strength_level, pivot_level, execution_lines,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (ticker) DO UPDATE SET
			tier = EXCLUDED.tier,
			entry_conditions = EXCLUDED.entry_conditions,
			invalidation_level = EXCLUDED.invalidation_level,
			industry_etf = EXCLUDED.industry_etf,
			demand_zone = EXCLUDED.demand_zone,
			strength_level = EXCLUDED.strength_level,
			pivot_level = EXCLUDED.pivot_level,
			execution_lines = EXCLUDED.execution_lines,
			updated_at = EXCLUDED.updated_at
	`
	now := time.Now()

	_, err := db.conn.ExecContext(ctx, query,
		rec.Ticker, nullString(rec.Tier), nullString(rec.EntryConditions),
		nullString(rec.InvalidationLevel), nullString(rec.IndustryETF),
		nullString(rec.DemandZone), nullString(rec.StrengthLevel),
		nullString(rec.PivotLevel), nullString(rec.ExecutionLines),
		now, now,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert watchlist entry: %w", err)
	}
	return nil
}

// FindByTicker retrieves the watchlist entry for a ticker
func (db *DB) FindByTicker(ctx context.Context, ticker string) (*models.WatchlistRecord, error) {
	query := `
		SELECT ticker, tier, entry_conditions, invalidation_level, industry_etf,
		       demand_zone, strength_level, pivot_level, execution_lines
		FROM watchlist_entries
		WHERE ticker = $1
	`
	var rec models.WatchlistRecord
	var tier, entry, invalidation, etf, demand, strength, pivot, execution sql.NullString

	err := db.conn.QueryRowContext(ctx, query, ticker).Scan(
		&rec.Ticker, &tier, &entry, &invalidation, &etf,
		&demand, &strength, &pivot, &execution,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrTickerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get watchlist entry: %w", err)
	}

	rec.Tier = tier.String
	rec.EntryConditions = entry.String
	rec.InvalidationLevel = invalidation.String
	rec.IndustryETF = etf.String
	rec.DemandZone = demand.String
	rec.StrengthLevel = strength.String
	rec.PivotLevel = pivot.String
	rec.ExecutionLines = execution.String

	return &rec, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// SettingsService reads the store configuration and the daily exchange rate.
type SettingsService interface {
	// LoadSettings returns ErrNotFound when the store has not been configured.
	LoadSettings(ctx context.Context) (*StoreSettings, error)
	// LatestExchangeRate returns the most recent rate on or before today.
	LatestExchangeRate(ctx context.Context) (*ExchangeRate, error)
	// SetExchangeRate publishes the rate for date, replacing any rate already set for that day.
	SetExchangeRate(ctx context.Context, date time.Time, rate decimal.Decimal) (*ExchangeRate, error)
}

type settingsService struct {
	pool *pgxpool.Pool
}

func NewSettingsService(pool *pgxpool.Pool) SettingsService {
	return &settingsService{pool: pool}
}

func (s *settingsService) LoadSettings(ctx context.Context) (*StoreSettings, error) {
	var st StoreSettings
	err := s.pool.QueryRow(ctx, `
		SELECT name, tax_id, address, tax_percent, igtf_percent
		FROM store_settings
		ORDER BY id
		LIMIT 1
	`).Scan(&st.Name, &st.TaxID, &st.Address, &st.TaxPercent, &st.IGTFPercent)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, refuse(ErrNotFound, "store settings not configured")
		}
		return nil, fmt.Errorf("failed to load store settings: %w", err)
	}
	return &st, nil
}

func (s *settingsService) LatestExchangeRate(ctx context.Context) (*ExchangeRate, error) {
	var r ExchangeRate
	err := s.pool.QueryRow(ctx, `
		SELECT rate_date, rate
		FROM exchange_rates
		WHERE rate_date <= CURRENT_DATE
		ORDER BY rate_date DESC
		LIMIT 1
	`).Scan(&r.Date, &r.Rate)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, refuse(ErrNotFound, "no exchange rate has been published")
		}
		return nil, fmt.Errorf("failed to load exchange rate: %w", err)
	}
	return &r, nil
}

func (s *settingsService) SetExchangeRate(ctx context.Context, date time.Time, rate decimal.Decimal) (*ExchangeRate, error) {
	if !rate.IsPositive() {
		return nil, refuse(ErrInvalidInput, "exchange rate must be greater than zero")
	}
	var r ExchangeRate
	err := s.pool.QueryRow(ctx, `
		INSERT INTO exchange_rates (rate_date, rate)
		VALUES ($1, $2)
		ON CONFLICT (rate_date) DO UPDATE SET rate = EXCLUDED.rate
		RETURNING rate_date, rate
	`, dateOnly(date), rate).Scan(&r.Date, &r.Rate)
	if err != nil {
		return nil, fmt.Errorf("failed to set exchange rate: %w", err)
	}
	return &r, nil
}

// dateOnly drops the clock part so the value maps onto a DATE column.
func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

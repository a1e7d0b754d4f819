package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/paydesk/api/internal/domain"
)

// SettingsRepository stores operator-managed key/value settings, most
// importantly the payout requisites shown after method selection.
type SettingsRepository struct {
	pool *pgxpool.Pool
}

func NewSettingsRepository(pool *pgxpool.Pool) *SettingsRepository {
	return &SettingsRepository{pool: pool}
}

var requisiteKeys = map[domain.PaymentMethod]string{
	domain.MethodUSDTTRC20: "usdt_trc20_address",
	domain.MethodUSDTBEP20: "usdt_bep20_address",
	domain.MethodBybitUID:  "bybit_uid",
	domain.MethodCard:      "card_number",
	domain.MethodLolz:      "lolz_requisites",
}

// Get returns the value for key, or "" when the key is absent.
func (r *SettingsRepository) Get(ctx context.Context, key string) (string, error) {
	const query = `SELECT value FROM settings WHERE key = $1`

	var value string
	err := r.pool.QueryRow(ctx, query, key).Scan(&value)
	if err != nil {
		if err == pgx.ErrNoRows {
			return "", nil
		}
		return "", fmt.Errorf("get setting %s: %w", key, err)
	}
	return value, nil
}

// Set upserts the value for key.
func (r *SettingsRepository) Set(ctx context.Context, key, value string) error {
	const stmt = `
INSERT INTO settings (key, value, updated_at)
VALUES ($1, $2, NOW())
ON CONFLICT (key) DO UPDATE
SET value = EXCLUDED.value, updated_at = NOW()`

	if _, err := r.pool.Exec(ctx, stmt, key, value); err != nil {
		return fmt.Errorf("set setting %s: %w", key, err)
	}
	return nil
}

// Requisites returns the payout instructions for a payment method, or ""
// when none are configured.
func (r *SettingsRepository) Requisites(ctx context.Context, method domain.PaymentMethod) (string, error) {
	key, ok := requisiteKeys[method]
	if !ok {
		return "", domain.ErrInvalidMethod
	}
	return r.Get(ctx, key)
}

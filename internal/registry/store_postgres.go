package registry

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/safestake/registry/internal/domain"
)

// PostgresStore is the pgx-backed Store. Per-account serialization uses a
// transaction-scoped advisory lock keyed on the account hash, so two writers
// for the same account never interleave even before the row exists.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a Store backed by the given pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const selectRecordSQL = `
	SELECT account_id, age_verified, daily_limit, monthly_limit,
	       daily_spent, monthly_spent, last_reset_day, last_reset_month,
	       cooldown_until, self_excluded_until, created_at, updated_at
	FROM compliance_records WHERE account_id = $1`

func (s *PostgresStore) GetRecord(ctx context.Context, accountID string) (*domain.ComplianceRecord, error) {
	rec, err := scanRecord(s.pool.QueryRow(ctx, selectRecordSQL, accountID))
	if err != nil || rec == nil {
		return rec, err
	}
	rec.PlatformsUsed, err = s.loadPlatforms(ctx, s.pool, accountID)
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *PostgresStore) Mutate(ctx context.Context, accountID string, fn MutateFunc) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	// Advisory lock gives single-writer ownership of the account for the
	// duration of the transaction, including the not-yet-registered case
	// where there is no row to lock.
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, accountID); err != nil {
		return fmt.Errorf("acquire account lock: %w", err)
	}

	cur, err := scanRecord(tx.QueryRow(ctx, selectRecordSQL+" FOR UPDATE", accountID))
	if err != nil {
		return err
	}
	if cur != nil {
		if cur.PlatformsUsed, err = s.loadPlatforms(ctx, tx, accountID); err != nil {
			return err
		}
	}

	next, events, err := fn(cur)
	if err != nil {
		return err
	}

	if next != nil {
		if err := upsertRecord(ctx, tx, next); err != nil {
			return err
		}
		for _, platform := range next.PlatformsUsed {
			_, err := tx.Exec(ctx, `
				INSERT INTO account_platforms (account_id, platform_id, first_used_at)
				VALUES ($1, $2, $3)
				ON CONFLICT (account_id, platform_id) DO NOTHING`,
				next.AccountID, platform, next.UpdatedAt)
			if err != nil {
				return fmt.Errorf("insert platform: %w", err)
			}
		}
	}

	for _, ev := range events {
		_, err := tx.Exec(ctx, `
			INSERT INTO event_outbox (event_id, aggregate_type, aggregate_id, event_type, payload, occurred_at)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			ev.EventID, ev.AggregateType, ev.AggregateID, ev.EventType, ev.Payload, ev.OccurredAt)
		if err != nil {
			return fmt.Errorf("insert outbox event: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func upsertRecord(ctx context.Context, tx pgx.Tx, rec *domain.ComplianceRecord) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO compliance_records (
			account_id, age_verified, daily_limit, monthly_limit,
			daily_spent, monthly_spent, last_reset_day, last_reset_month,
			cooldown_until, self_excluded_until, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (account_id) DO UPDATE SET
			age_verified = EXCLUDED.age_verified,
			daily_limit = EXCLUDED.daily_limit,
			monthly_limit = EXCLUDED.monthly_limit,
			daily_spent = EXCLUDED.daily_spent,
			monthly_spent = EXCLUDED.monthly_spent,
			last_reset_day = EXCLUDED.last_reset_day,
			last_reset_month = EXCLUDED.last_reset_month,
			cooldown_until = EXCLUDED.cooldown_until,
			self_excluded_until = EXCLUDED.self_excluded_until,
			updated_at = EXCLUDED.updated_at`,
		rec.AccountID, rec.AgeVerified, rec.DailyLimit, rec.MonthlyLimit,
		rec.DailySpent, rec.MonthlySpent, rec.LastResetDay, rec.LastResetMonth,
		rec.CooldownUntil, rec.SelfExcludedUntil, rec.CreatedAt, rec.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert compliance record: %w", err)
	}
	return nil
}

func scanRecord(row pgx.Row) (*domain.ComplianceRecord, error) {
	var rec domain.ComplianceRecord
	err := row.Scan(
		&rec.AccountID, &rec.AgeVerified, &rec.DailyLimit, &rec.MonthlyLimit,
		&rec.DailySpent, &rec.MonthlySpent, &rec.LastResetDay, &rec.LastResetMonth,
		&rec.CooldownUntil, &rec.SelfExcludedUntil, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scan compliance record: %w", err)
	}
	return &rec, nil
}

type queryer interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
}

func (s *PostgresStore) loadPlatforms(ctx context.Context, q queryer, accountID string) ([]string, error) {
	rows, err := q.Query(ctx, `
		SELECT platform_id FROM account_platforms
		WHERE account_id = $1 ORDER BY first_used_at, platform_id`, accountID)
	if err != nil {
		return nil, fmt.Errorf("load platforms: %w", err)
	}
	defer rows.Close()

	var platforms []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("scan platform: %w", err)
		}
		platforms = append(platforms, p)
	}
	return platforms, rows.Err()
}

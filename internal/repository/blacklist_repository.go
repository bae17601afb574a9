package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackyYam/mybooklist/internal/metrics"
)

// BlacklistRepo persists revoked refresh token identifiers in the
// `token_blacklist` table.  Timestamps are stored as unix seconds.
type BlacklistRepo struct {
	db    *sql.DB
	clock func() time.Time
}

// BlacklistOption configures a BlacklistRepo.
type BlacklistOption func(*BlacklistRepo)

// WithClock sets the clock used for expiry checks.
func WithClock(clock func() time.Time) BlacklistOption {
	return func(r *BlacklistRepo) {
		if clock != nil {
			r.clock = clock
		}
	}
}

func NewBlacklistRepo(db *sql.DB, opts ...BlacklistOption) *BlacklistRepo {
	r := &BlacklistRepo{db: db, clock: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// Add blacklists jti until expiresAt.  It reports false when the jti was
// already blacklisted; the primary key makes concurrent adds race-free.
func (r *BlacklistRepo) Add(ctx context.Context, jti string, userID uint64, expiresAt time.Time) (bool, error) {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO token_blacklist (jti, user_id, expires_at, blacklisted_at) VALUES (?, ?, ?, ?)",
		jti, userID, expiresAt.Unix(), r.clock().Unix())
	if err != nil {
		if isDuplicateKey(err) {
			return false, nil
		}
		return false, fmt.Errorf("blacklist token: %w", err)
	}
	return true, nil
}

// Contains reports whether jti is blacklisted.  Entries past their expiry
// are treated as absent.
func (r *BlacklistRepo) Contains(ctx context.Context, jti string) (bool, error) {
	start := time.Now()
	defer func() {
		metrics.ObserveBlacklistCheck("sql", float64(time.Since(start).Microseconds())/1000.0)
	}()

	var expiresAt int64
	err := r.db.QueryRowContext(ctx,
		"SELECT expires_at FROM token_blacklist WHERE jti = ?", jti).Scan(&expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check token blacklist: %w", err)
	}
	return r.clock().Unix() <= expiresAt, nil
}

// PurgeExpired deletes entries whose token has expired and returns how many
// were removed.
func (r *BlacklistRepo) PurgeExpired(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		"DELETE FROM token_blacklist WHERE expires_at < ?", r.clock().Unix())
	if err != nil {
		return 0, fmt.Errorf("purge token blacklist: %w", err)
	}
	return res.RowsAffected()
}

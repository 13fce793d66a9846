// internal/repositories/pin_lockout_repository.go
package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/mzdss/sms-pin-auth/internal/models"
)

// PinLockoutRepository tracks consecutive failed PIN logins per user
// and the resulting temporary lock.
type PinLockoutRepository interface {
	GetOrCreate(ctx context.Context, userID uuid.UUID) (*models.PinLockout, error)
	Increment(ctx context.Context, userID uuid.UUID, lockDuration, window time.Duration, maxAttempts int) error
	Reset(ctx context.Context, userID uuid.UUID) error
	IsLocked(ctx context.Context, userID uuid.UUID) (bool, time.Time, error)
}

type pinLockoutRepository struct {
	db DB
}

func NewPinLockoutRepository(db DB) PinLockoutRepository {
	return &pinLockoutRepository{db: db}
}

func (r *pinLockoutRepository) GetOrCreate(ctx context.Context, userID uuid.UUID) (*models.PinLockout, error) {
	query := `
        SELECT user_id, attempt_count, locked_until, updated_at, created_at
        FROM pin_lockouts
        WHERE user_id = $1
    `
	row := r.db.QueryRow(ctx, query, userID)
	lo := &models.PinLockout{}
	err := row.Scan(
		&lo.UserID,
		&lo.AttemptCount,
		&lo.LockedUntil,
		&lo.UpdatedAt,
		&lo.CreatedAt,
	)
	if err == nil {
		return lo, nil
	}
	// Insert fresh
	insert := `
        INSERT INTO pin_lockouts (user_id, attempt_count, locked_until, updated_at, created_at)
        VALUES ($1, 0, NULL, NOW(), NOW())
        ON CONFLICT (user_id) DO UPDATE SET user_id = EXCLUDED.user_id
        RETURNING user_id, attempt_count, locked_until, updated_at, created_at
    `
	row = r.db.QueryRow(ctx, insert, userID)
	err = row.Scan(
		&lo.UserID,
		&lo.AttemptCount,
		&lo.LockedUntil,
		&lo.UpdatedAt,
		&lo.CreatedAt,
	)
	return lo, err
}

func (r *pinLockoutRepository) Increment(
	ctx context.Context,
	userID uuid.UUID,
	lockDuration, window time.Duration,
	maxAttempts int,
) error {
	query := `
WITH current AS (
    SELECT user_id,
           attempt_count,
           locked_until,
           updated_at
    FROM pin_lockouts
    WHERE user_id = $1
    FOR UPDATE
)
UPDATE pin_lockouts
SET attempt_count = CASE
    WHEN (current.locked_until IS NOT NULL AND current.locked_until > NOW())
         THEN current.attempt_count
    ELSE CASE
        WHEN (NOW() - current.updated_at) > $3
            THEN 1
        ELSE current.attempt_count + 1
    END
END,
locked_until = CASE
    WHEN (current.locked_until IS NOT NULL AND current.locked_until > NOW())
         THEN current.locked_until
    ELSE CASE
        WHEN ((NOW() - current.updated_at) <= $3
              AND (current.attempt_count + 1) >= $4)
            THEN NOW() + $2
        ELSE NULL
    END
END,
updated_at = NOW()
FROM current
WHERE pin_lockouts.user_id = current.user_id
RETURNING pin_lockouts.user_id
    `
	_, err := r.db.Exec(ctx, query, userID, lockDuration, window, maxAttempts)
	return err
}

func (r *pinLockoutRepository) Reset(ctx context.Context, userID uuid.UUID) error {
	query := `
        UPDATE pin_lockouts
        SET attempt_count = 0,
            locked_until = NULL,
            updated_at = NOW()
        WHERE user_id = $1
    `
	_, err := r.db.Exec(ctx, query, userID)
	return err
}

func (r *pinLockoutRepository) IsLocked(ctx context.Context, userID uuid.UUID) (bool, time.Time, error) {
	query := `
        SELECT locked_until
        FROM pin_lockouts
        WHERE user_id = $1
    `
	row := r.db.QueryRow(ctx, query, userID)
	var lockedUntil *time.Time
	if err := row.Scan(&lockedUntil); err != nil {
		return false, time.Time{}, err
	}
	if lockedUntil != nil && lockedUntil.After(time.Now()) {
		return true, *lockedUntil, nil
	}
	return false, time.Time{}, nil
}

// internal/repositories/login_attempt_repository.go
package repositories

import (
	"context"
	"time"
)

// LoginAttemptRepository appends to the login_attempts audit table.
// Rows are never updated; DeleteOlderThan is the only destructive path.
type LoginAttemptRepository interface {
	Log(ctx context.Context, phone, attemptType string, success bool, ipAddress string) error
	DeleteOlderThan(ctx context.Context, retention time.Duration) error
	// CountRecentFailures is used by anomaly tooling and tests.
	CountRecentFailures(ctx context.Context, phone, attemptType string, since time.Time) (int, error)
}

type loginAttemptRepository struct {
	db DB
}

func NewLoginAttemptRepository(db DB) LoginAttemptRepository {
	return &loginAttemptRepository{db: db}
}

func (r *loginAttemptRepository) Log(ctx context.Context, phone, attemptType string, success bool, ipAddress string) error {
	q := `
        INSERT INTO login_attempts (phone, attempt_type, success, ip_address, timestamp)
        VALUES ($1, $2, $3, $4, NOW())
    `
	_, err := r.db.Exec(ctx, q, phone, attemptType, success, ipAddress)
	return err
}

func (r *loginAttemptRepository) DeleteOlderThan(ctx context.Context, retention time.Duration) error {
	q := `DELETE FROM login_attempts WHERE timestamp < NOW() - $1::interval`
	_, err := r.db.Exec(ctx, q, retention)
	return err
}

func (r *loginAttemptRepository) CountRecentFailures(ctx context.Context, phone, attemptType string, since time.Time) (int, error) {
	q := `
        SELECT COUNT(*)
        FROM login_attempts
        WHERE phone = $1 AND attempt_type = $2 AND success = FALSE AND timestamp >= $3
    `
	var n int
	if err := r.db.QueryRow(ctx, q, phone, attemptType, since).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// internal/repositories/otp_repository.go
package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"

	"github.com/mzdss/sms-pin-auth/internal/models"
)

type OTPRepository interface {
	// Replace deletes any existing code for the phone and stores the
	// new one, in a single statement.
	Replace(ctx context.Context, phone, code string, expiresAt time.Time) (*models.OTPCode, error)
	// GetActiveByPhone returns the newest non-expired code for the
	// phone, or (nil, nil) when none exists.
	GetActiveByPhone(ctx context.Context, phone string) (*models.OTPCode, error)
	// IncrementAttempts bumps the attempt counter and returns the new value.
	IncrementAttempts(ctx context.Context, id uuid.UUID) (int, error)
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteByPhone(ctx context.Context, phone string) error
	CleanupExpired(ctx context.Context) error
}

type otpRepository struct {
	db DB
}

func NewOTPRepository(db DB) OTPRepository {
	return &otpRepository{db: db}
}

func (r *otpRepository) Replace(ctx context.Context, phone, code string, expiresAt time.Time) (*models.OTPCode, error) {
	// One active challenge per phone: the CTE removes the previous row
	// atomically with the insert.
	q := `
        WITH old AS (
            DELETE FROM otp_codes WHERE phone = $2
        )
        INSERT INTO otp_codes (id, phone, code, expires_at, attempts, verified, created_at)
        VALUES ($1, $2, $3, $4, 0, FALSE, NOW())
        RETURNING id, phone, code, expires_at, attempts, verified, created_at
    `
	row := r.db.QueryRow(ctx, q, uuid.New(), phone, code, expiresAt)
	var rec models.OTPCode
	err := row.Scan(&rec.ID, &rec.Phone, &rec.Code, &rec.ExpiresAt, &rec.Attempts, &rec.Verified, &rec.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *otpRepository) GetActiveByPhone(ctx context.Context, phone string) (*models.OTPCode, error) {
	q := `
        SELECT id, phone, code, expires_at, attempts, verified, created_at
        FROM otp_codes
        WHERE phone = $1 AND expires_at > NOW()
        ORDER BY created_at DESC
        LIMIT 1
    `
	row := r.db.QueryRow(ctx, q, phone)
	var rec models.OTPCode
	err := row.Scan(&rec.ID, &rec.Phone, &rec.Code, &rec.ExpiresAt, &rec.Attempts, &rec.Verified, &rec.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &rec, nil
}

func (r *otpRepository) IncrementAttempts(ctx context.Context, id uuid.UUID) (int, error) {
	q := `UPDATE otp_codes SET attempts = attempts + 1 WHERE id = $1 RETURNING attempts`
	var attempts int
	if err := r.db.QueryRow(ctx, q, id).Scan(&attempts); err != nil {
		return 0, err
	}
	return attempts, nil
}

func (r *otpRepository) Delete(ctx context.Context, id uuid.UUID) error {
	q := `DELETE FROM otp_codes WHERE id = $1`
	_, err := r.db.Exec(ctx, q, id)
	return err
}

func (r *otpRepository) DeleteByPhone(ctx context.Context, phone string) error {
	q := `DELETE FROM otp_codes WHERE phone = $1`
	_, err := r.db.Exec(ctx, q, phone)
	return err
}

func (r *otpRepository) CleanupExpired(ctx context.Context) error {
	q := `DELETE FROM otp_codes WHERE expires_at < NOW()`
	_, err := r.db.Exec(ctx, q)
	return err
}

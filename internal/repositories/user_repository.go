// internal/repositories/user_repository.go
package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"

	"github.com/mzdss/sms-pin-auth/internal/models"
)

type UserRepository interface {
	// GetByPhone returns (nil, nil) when no user exists for the phone.
	GetByPhone(ctx context.Context, phone string) (*models.User, error)
	// GetOrCreate inserts a user for the phone, or returns the existing
	// one. Safe under concurrent first-login races for the same phone.
	GetOrCreate(ctx context.Context, phone string) (*models.User, error)
	UpdatePin(ctx context.Context, userID uuid.UUID, pinHash string) error
	UpdateLastLogin(ctx context.Context, userID uuid.UUID) error
}

type userRepository struct {
	db DB
}

func NewUserRepository(db DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) GetByPhone(ctx context.Context, phone string) (*models.User, error) {
	q := `
        SELECT id, phone, pin_hash, created_at, last_login_at
        FROM users
        WHERE phone = $1
    `
	row := r.db.QueryRow(ctx, q, phone)
	var u models.User
	err := row.Scan(&u.ID, &u.Phone, &u.PinHash, &u.CreatedAt, &u.LastLoginAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

func (r *userRepository) GetOrCreate(ctx context.Context, phone string) (*models.User, error) {
	// The no-op DO UPDATE makes RETURNING yield the existing row when
	// two first logins race on the same phone.
	q := `
        INSERT INTO users (id, phone, created_at, last_login_at)
        VALUES ($1, $2, NOW(), NOW())
        ON CONFLICT (phone) DO UPDATE SET phone = EXCLUDED.phone
        RETURNING id, phone, pin_hash, created_at, last_login_at
    `
	row := r.db.QueryRow(ctx, q, uuid.New(), phone)
	var u models.User
	err := row.Scan(&u.ID, &u.Phone, &u.PinHash, &u.CreatedAt, &u.LastLoginAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *userRepository) UpdatePin(ctx context.Context, userID uuid.UUID, pinHash string) error {
	q := `UPDATE users SET pin_hash = $2 WHERE id = $1`
	_, err := r.db.Exec(ctx, q, userID, pinHash)
	return err
}

func (r *userRepository) UpdateLastLogin(ctx context.Context, userID uuid.UUID) error {
	q := `UPDATE users SET last_login_at = NOW() WHERE id = $1`
	_, err := r.db.Exec(ctx, q, userID)
	return err
}

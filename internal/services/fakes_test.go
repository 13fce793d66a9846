package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mzdss/sms-pin-auth/internal/models"
)

// In-memory repository stand-ins for service tests.

type fakeOTPRepo struct {
	mu      sync.Mutex
	byPhone map[string]*models.OTPCode
}

func newFakeOTPRepo() *fakeOTPRepo {
	return &fakeOTPRepo{byPhone: make(map[string]*models.OTPCode)}
}

func (r *fakeOTPRepo) Replace(ctx context.Context, phone, code string, expiresAt time.Time) (*models.OTPCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec := &models.OTPCode{
		ID:        uuid.New(),
		Phone:     phone,
		Code:      code,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now(),
	}
	r.byPhone[phone] = rec
	copied := *rec
	return &copied, nil
}

func (r *fakeOTPRepo) GetActiveByPhone(ctx context.Context, phone string) (*models.OTPCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.byPhone[phone]
	if !ok || !rec.ExpiresAt.After(time.Now()) {
		return nil, nil
	}
	copied := *rec
	return &copied, nil
}

func (r *fakeOTPRepo) IncrementAttempts(ctx context.Context, id uuid.UUID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range r.byPhone {
		if rec.ID == id {
			rec.Attempts++
			return rec.Attempts, nil
		}
	}
	return 0, nil
}

func (r *fakeOTPRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for phone, rec := range r.byPhone {
		if rec.ID == id {
			delete(r.byPhone, phone)
		}
	}
	return nil
}

func (r *fakeOTPRepo) DeleteByPhone(ctx context.Context, phone string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byPhone, phone)
	return nil
}

func (r *fakeOTPRepo) CleanupExpired(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	for phone, rec := range r.byPhone {
		if !rec.ExpiresAt.After(now) {
			delete(r.byPhone, phone)
		}
	}
	return nil
}

// currentCode exposes the stored plaintext code for assertions.
func (r *fakeOTPRepo) currentCode(phone string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rec, ok := r.byPhone[phone]; ok {
		return rec.Code
	}
	return ""
}

type fakeUserRepo struct {
	mu      sync.Mutex
	byPhone map[string]*models.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{byPhone: make(map[string]*models.User)}
}

func (r *fakeUserRepo) GetByPhone(ctx context.Context, phone string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byPhone[phone]
	if !ok {
		return nil, nil
	}
	copied := *u
	return &copied, nil
}

func (r *fakeUserRepo) GetOrCreate(ctx context.Context, phone string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.byPhone[phone]; ok {
		copied := *u
		return &copied, nil
	}
	u := &models.User{
		ID:          uuid.New(),
		Phone:       phone,
		CreatedAt:   time.Now(),
		LastLoginAt: time.Now(),
	}
	r.byPhone[phone] = u
	copied := *u
	return &copied, nil
}

func (r *fakeUserRepo) UpdatePin(ctx context.Context, userID uuid.UUID, pinHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.byPhone {
		if u.ID == userID {
			hash := pinHash
			u.PinHash = &hash
		}
	}
	return nil
}

func (r *fakeUserRepo) UpdateLastLogin(ctx context.Context, userID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.byPhone {
		if u.ID == userID {
			u.LastLoginAt = time.Now()
		}
	}
	return nil
}

type attemptRecord struct {
	phone       string
	attemptType string
	success     bool
	ipAddress   string
	timestamp   time.Time
}

type fakeAttemptRepo struct {
	mu      sync.Mutex
	records []attemptRecord
}

func newFakeAttemptRepo() *fakeAttemptRepo {
	return &fakeAttemptRepo{}
}

func (r *fakeAttemptRepo) Log(ctx context.Context, phone, attemptType string, success bool, ipAddress string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, attemptRecord{
		phone:       phone,
		attemptType: attemptType,
		success:     success,
		ipAddress:   ipAddress,
		timestamp:   time.Now(),
	})
	return nil
}

func (r *fakeAttemptRepo) DeleteOlderThan(ctx context.Context, retention time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cutoff := time.Now().Add(-retention)
	kept := r.records[:0]
	for _, rec := range r.records {
		if rec.timestamp.After(cutoff) {
			kept = append(kept, rec)
		}
	}
	r.records = kept
	return nil
}

func (r *fakeAttemptRepo) CountRecentFailures(ctx context.Context, phone, attemptType string, since time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, rec := range r.records {
		if rec.phone == phone && rec.attemptType == attemptType && !rec.success && rec.timestamp.After(since) {
			n++
		}
	}
	return n, nil
}

func (r *fakeAttemptRepo) all() []attemptRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]attemptRecord, len(r.records))
	copy(out, r.records)
	return out
}

type fakeLockoutRepo struct {
	mu       sync.Mutex
	lockouts map[uuid.UUID]*models.PinLockout
}

func newFakeLockoutRepo() *fakeLockoutRepo {
	return &fakeLockoutRepo{lockouts: make(map[uuid.UUID]*models.PinLockout)}
}

func (r *fakeLockoutRepo) GetOrCreate(ctx context.Context, userID uuid.UUID) (*models.PinLockout, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	lo, ok := r.lockouts[userID]
	if !ok {
		lo = &models.PinLockout{UserID: userID, UpdatedAt: time.Now(), CreatedAt: time.Now()}
		r.lockouts[userID] = lo
	}
	copied := *lo
	return &copied, nil
}

func (r *fakeLockoutRepo) Increment(
	ctx context.Context,
	userID uuid.UUID,
	lockDuration, window time.Duration,
	maxAttempts int,
) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	lo, ok := r.lockouts[userID]
	if !ok {
		lo = &models.PinLockout{UserID: userID, CreatedAt: time.Now()}
		r.lockouts[userID] = lo
	}
	now := time.Now()
	if lo.LockedUntil != nil && lo.LockedUntil.After(now) {
		return nil
	}
	if now.Sub(lo.UpdatedAt) > window {
		lo.AttemptCount = 1
	} else {
		lo.AttemptCount++
	}
	if lo.AttemptCount >= maxAttempts {
		until := now.Add(lockDuration)
		lo.LockedUntil = &until
	} else {
		lo.LockedUntil = nil
	}
	lo.UpdatedAt = now
	return nil
}

func (r *fakeLockoutRepo) Reset(ctx context.Context, userID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if lo, ok := r.lockouts[userID]; ok {
		lo.AttemptCount = 0
		lo.LockedUntil = nil
		lo.UpdatedAt = time.Now()
	}
	return nil
}

func (r *fakeLockoutRepo) IsLocked(ctx context.Context, userID uuid.UUID) (bool, time.Time, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	lo, ok := r.lockouts[userID]
	if !ok {
		return false, time.Time{}, nil
	}
	if lo.LockedUntil != nil && lo.LockedUntil.After(time.Now()) {
		return true, *lo.LockedUntil, nil
	}
	return false, time.Time{}, nil
}

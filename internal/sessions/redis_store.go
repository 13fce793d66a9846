// internal/sessions/redis_store.go
package sessions

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mzdss/sms-pin-auth/internal/models"
	"github.com/mzdss/sms-pin-auth/internal/utils"
)

const sessionKeyPrefix = "session:"

// redisStore keeps sessions in Redis with a TTL matching ExpiresAt,
// so expiry holds even if the process never touches the key again.
type redisStore struct {
	client *redis.Client

	stopOnce sync.Once
}

func NewRedisStore(addr, password string) (SessionStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &redisStore{client: client}, nil
}

func (s *redisStore) Create(ctx context.Context, session *models.Session) error {
	return s.set(ctx, session)
}

func (s *redisStore) Get(ctx context.Context, sessionID string) (*models.Session, error) {
	raw, err := s.client.Get(ctx, sessionKeyPrefix+sessionID).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var sess models.Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		return nil, err
	}
	if sess.Expired(time.Now()) {
		// TTL should have evicted it already; remove the straggler.
		_ = s.client.Del(ctx, sessionKeyPrefix+sessionID).Err()
		return nil, nil
	}
	return &sess, nil
}

func (s *redisStore) Update(ctx context.Context, session *models.Session) error {
	existing, err := s.Get(ctx, session.SessionID)
	if err != nil {
		return err
	}
	if existing == nil {
		return utils.ErrSessionExpired
	}
	return s.set(ctx, session)
}

func (s *redisStore) Delete(ctx context.Context, sessionID string) error {
	return s.client.Del(ctx, sessionKeyPrefix+sessionID).Err()
}

func (s *redisStore) Shutdown() error {
	var err error
	s.stopOnce.Do(func() {
		err = s.client.Close()
	})
	return err
}

func (s *redisStore) set(ctx context.Context, session *models.Session) error {
	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		return utils.ErrSessionExpired
	}
	raw, err := json.Marshal(session)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, sessionKeyPrefix+session.SessionID, raw, ttl).Err()
}

package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	pkgerrors "github.com/orderchat/orderchat-backend/pkg/errors"
	"github.com/orderchat/orderchat-backend/pkg/redis"
)

type redisStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	SetKeepTTL(ctx context.Context, key string, value any) error
	ScanKeys(ctx context.Context, pattern string) ([]string, error)
	SessionKey(psid string) string
	SessionKeyPattern() string
}

// Store owns conversation sessions. Every mutation is a read-modify-write
// serialized per PSID; concurrent webhook deliveries for the same user queue
// behind the keyed mutex instead of racing last-write-wins.
type Store struct {
	redis redisStore
	mu    *keyedMutex
	ttl   time.Duration
	now   func() time.Time
}

// NewStore builds a session store over the shared Redis client.
func NewStore(client redisStore) (*Store, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client required")
	}
	return &Store{
		redis: client,
		mu:    newKeyedMutex(),
		ttl:   TTL,
		now:   time.Now,
	}, nil
}

// GetOrCreate returns the session for psid, creating an empty one on first
// contact.
func (s *Store) GetOrCreate(ctx context.Context, psid string) (*Session, error) {
	if psid == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "psid is required")
	}
	unlock := s.mu.Lock(psid)
	defer unlock()

	sess, err := s.load(ctx, psid)
	if err != nil {
		return nil, err
	}
	if sess != nil {
		return sess, nil
	}

	sess = &Session{PSID: psid, Step: "", UpdatedAt: s.now().UTC()}
	if err := s.save(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// UpdateStep moves the conversation to a new dialogue step.
func (s *Store) UpdateStep(ctx context.Context, psid, step string) (*Session, error) {
	return s.mutate(ctx, psid, func(sess *Session) error {
		sess.Step = step
		return nil
	})
}

// AddToCart merges the item into an existing line with the same identity or
// appends a new line.
func (s *Store) AddToCart(ctx context.Context, psid string, item CartItem) (*Session, error) {
	if item.Quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart quantity must be at least 1")
	}
	if item.ProductID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart item product id is required")
	}
	return s.mutate(ctx, psid, func(sess *Session) error {
		for i := range sess.Cart {
			if sess.Cart[i].SameIdentity(item) {
				sess.Cart[i].Quantity += item.Quantity
				return nil
			}
		}
		sess.Cart = append(sess.Cart, item)
		return nil
	})
}

// ClearCart empties the cart but keeps the rest of the session.
func (s *Store) ClearCart(ctx context.Context, psid string) (*Session, error) {
	return s.mutate(ctx, psid, func(sess *Session) error {
		sess.Cart = nil
		return nil
	})
}

// SetTempData shallow-merges the patch into the session scratch space.
func (s *Store) SetTempData(ctx context.Context, psid string, patch map[string]any) (*Session, error) {
	return s.mutate(ctx, psid, func(sess *Session) error {
		if sess.TempData == nil {
			sess.TempData = map[string]any{}
		}
		for k, v := range patch {
			sess.TempData[k] = v
		}
		return nil
	})
}

// ClearAllCarts zeroes the cart of every session that has one, preserving
// each session's remaining TTL. The operation is idempotent so concurrent
// scheduler instances are harmless.
func (s *Store) ClearAllCarts(ctx context.Context) (int, error) {
	keys, err := s.redis.ScanKeys(ctx, s.redis.SessionKeyPattern())
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "scan sessions")
	}

	cleared := 0
	for _, key := range keys {
		raw, err := s.redis.Get(ctx, key)
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue // expired between scan and read
			}
			return cleared, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load session")
		}
		var sess Session
		if err := json.Unmarshal([]byte(raw), &sess); err != nil {
			return cleared, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decode session")
		}
		if len(sess.Cart) == 0 {
			continue
		}

		unlock := s.mu.Lock(sess.PSID)
		sess.Cart = nil
		sess.UpdatedAt = s.now().UTC()
		encoded, err := json.Marshal(&sess)
		if err == nil {
			err = s.redis.SetKeepTTL(ctx, key, encoded)
		}
		unlock()
		if err != nil {
			return cleared, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear session cart")
		}
		cleared++
	}
	return cleared, nil
}

func (s *Store) mutate(ctx context.Context, psid string, fn func(*Session) error) (*Session, error) {
	if psid == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "psid is required")
	}
	unlock := s.mu.Lock(psid)
	defer unlock()

	sess, err := s.load(ctx, psid)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		sess = &Session{PSID: psid}
	}
	if err := fn(sess); err != nil {
		return nil, err
	}
	if err := s.save(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

func (s *Store) load(ctx context.Context, psid string) (*Session, error) {
	raw, err := s.redis.Get(ctx, s.redis.SessionKey(psid))
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load session")
	}
	var sess Session
	if err := json.Unmarshal([]byte(raw), &sess); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decode session")
	}
	return &sess, nil
}

// save persists the session and refreshes the inactivity TTL.
func (s *Store) save(ctx context.Context, sess *Session) error {
	sess.UpdatedAt = s.now().UTC()
	encoded, err := json.Marshal(sess)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode session")
	}
	if err := s.redis.Set(ctx, s.redis.SessionKey(sess.PSID), encoded, s.ttl); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist session")
	}
	return nil
}

// internal/authflow/state.go
package authflow

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/redis/go-redis/v9"
)

// NonceStore marks state token ids as consumed. Consume returns true the
// first time an id is seen within the TTL window.
type NonceStore interface {
	Consume(ctx context.Context, id string, ttl time.Duration) (bool, error)
}

type redisNonces struct{ rdb *redis.Client }

func NewRedisNonces(rdb *redis.Client) NonceStore { return &redisNonces{rdb: rdb} }

func (n *redisNonces) Consume(ctx context.Context, id string, ttl time.Duration) (bool, error) {
	return n.rdb.SetNX(ctx, "oauth_state:"+id, 1, ttl).Result()
}

type memNonces struct {
	mu   sync.Mutex
	seen map[string]time.Time
}

func NewMemoryNonces() NonceStore { return &memNonces{seen: map[string]time.Time{}} }

func (n *memNonces) Consume(ctx context.Context, id string, ttl time.Duration) (bool, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	now := time.Now()
	for k, exp := range n.seen {
		if exp.Before(now) {
			delete(n.seen, k)
		}
	}
	if _, ok := n.seen[id]; ok {
		return false, nil
	}
	n.seen[id] = now.Add(ttl)
	return true, nil
}

// StateIssuer issues and redeems the OAuth state parameter. States are HS256
// JWTs keyed by the app secret carrying the shop and a one-time id, so the
// callback can be tied to the shop that started the flow without any
// server-side session.
type StateIssuer struct {
	secret []byte
	ttl    time.Duration
	nonces NonceStore
}

func NewStateIssuer(secret string, ttl time.Duration, nonces NonceStore) *StateIssuer {
	return &StateIssuer{secret: []byte(secret), ttl: ttl, nonces: nonces}
}

func (s *StateIssuer) Issue(shop string) (string, error) {
	now := time.Now()
	tok, err := jwt.NewBuilder().
		Subject(shop).
		JwtID(uuid.NewString()).
		IssuedAt(now).
		Expiration(now.Add(s.ttl)).
		Build()
	if err != nil {
		return "", err
	}
	signed, err := jwt.Sign(tok, jwt.WithKey(jwa.HS256, s.secret))
	if err != nil {
		return "", err
	}
	return string(signed), nil
}

// ErrStateUsed reports a state id that was already consumed.
var ErrStateUsed = errors.New("state already used")

// Validate checks the state's signature, expiry and shop binding and returns
// its one-time id. The id stays live until Consume, so a callback that fails
// past this point can retry with the same state.
func (s *StateIssuer) Validate(raw, shop string) (string, error) {
	tok, err := jwt.Parse([]byte(raw), jwt.WithKey(jwa.HS256, s.secret), jwt.WithValidate(true))
	if err != nil {
		return "", fmt.Errorf("state invalid: %w", err)
	}
	if tok.Subject() != shop {
		return "", fmt.Errorf("state shop mismatch")
	}
	return tok.JwtID(), nil
}

// Consume burns a validated state id. Second and later calls fail with
// ErrStateUsed.
func (s *StateIssuer) Consume(ctx context.Context, id string) error {
	ok, err := s.nonces.Consume(ctx, id, s.ttl)
	if err != nil {
		return fmt.Errorf("state nonce: %w", err)
	}
	if !ok {
		return ErrStateUsed
	}
	return nil
}

// pkg/sessions/postgres.go
package sessions

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// querier is the slice of pgxpool.Pool the store uses.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// pgStore implements Store backed by PostgreSQL.
type pgStore struct {
	dbPool querier
	log    *zap.SugaredLogger
}

// NewPostgresStore constructs a PostgreSQL-backed session store.
func NewPostgresStore(dbPool *pgxpool.Pool, log *zap.SugaredLogger) Store {
	return &pgStore{dbPool: dbPool, log: log}
}

// EnsureSchema creates the sessions table if it does not already exist.
// Safe to call repeatedly (idempotent).
func EnsureSchema(ctx context.Context, dbPool querier) error {
	_, err := dbPool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS shop_sessions (
  shop text PRIMARY KEY,
  access_token text NOT NULL,
  scopes text[] DEFAULT '{}',
  created_at timestamptz NOT NULL DEFAULT NOW(),
  updated_at timestamptz NOT NULL DEFAULT NOW()
);
`)
	return err
}

func (s *pgStore) Upsert(ctx context.Context, shop, accessToken string, scopes []string) error {
	if shop == "" || accessToken == "" {
		return fmt.Errorf("upsert: shop and access token must be non-empty")
	}
	if scopes == nil {
		scopes = []string{}
	}
	// created_at is set once on first insert and deliberately left out of
	// the conflict update.
	_, err := s.dbPool.Exec(ctx, `INSERT INTO shop_sessions(shop, access_token, scopes)
	  VALUES ($1,$2,$3)
	  ON CONFLICT (shop) DO UPDATE SET access_token=EXCLUDED.access_token, scopes=EXCLUDED.scopes, updated_at=NOW()`,
		shop, accessToken, scopes)
	if err != nil {
		s.log.Errorw("session upsert", "shop", shop, "err", err)
		return ErrUnavailable
	}
	return nil
}

func (s *pgStore) Lookup(ctx context.Context, shop string) (Session, error) {
	row := s.dbPool.QueryRow(ctx, `SELECT shop, access_token, scopes, created_at FROM shop_sessions WHERE shop=$1`, shop)
	var sess Session
	if err := row.Scan(&sess.Shop, &sess.AccessToken, &sess.Scopes, &sess.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Session{}, ErrNotFound
		}
		s.log.Errorw("session lookup", "shop", shop, "err", err)
		return Session{}, ErrUnavailable
	}
	return sess, nil
}

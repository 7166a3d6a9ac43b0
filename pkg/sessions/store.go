package sessions

import (
	"context"
	"errors"
)

var (
	// ErrNotFound means the shop has no stored session. A normal business
	// outcome (shop not installed), not an infrastructure failure.
	ErrNotFound = errors.New("session not found")
	// ErrUnavailable means the underlying storage could not be reached.
	ErrUnavailable = errors.New("session store unavailable")
)

type Store interface {
	// Upsert inserts the session or replaces the token/scopes of an existing
	// row in place. Atomic per shop: duplicate installation callbacks must
	// not produce duplicate-key failures; the newest token simply wins.
	Upsert(ctx context.Context, shop, accessToken string, scopes []string) error
	// Lookup returns the stored session for the shop, ErrNotFound if the
	// shop never installed, or ErrUnavailable if storage is down.
	Lookup(ctx context.Context, shop string) (Session, error)
}

package sessions

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newMockStore(t *testing.T) (pgxmock.PgxPoolIface, *pgStore) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock, &pgStore{dbPool: mock, log: zap.NewNop().Sugar()}
}

// upsertPattern pins the full conflict clause: the token and scopes are
// replaced in one atomic statement and created_at stays out of the update set.
const upsertPattern = `INSERT INTO shop_sessions\(shop, access_token, scopes\)\s+VALUES \(\$1,\$2,\$3\)\s+ON CONFLICT \(shop\) DO UPDATE SET access_token=EXCLUDED\.access_token, scopes=EXCLUDED\.scopes, updated_at=NOW\(\)`

func TestPostgresUpsertStatementShape(t *testing.T) {
	mock, store := newMockStore(t)
	mock.ExpectExec(upsertPattern).
		WithArgs("demo.example", "tok1", []string{"write_draft_orders"}).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, store.Upsert(context.Background(), "demo.example", "tok1", []string{"write_draft_orders"}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresUpsertNilScopesStoredEmpty(t *testing.T) {
	mock, store := newMockStore(t)
	mock.ExpectExec(upsertPattern).
		WithArgs("demo.example", "tok1", []string{}).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, store.Upsert(context.Background(), "demo.example", "tok1", nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresUpsertUnavailable(t *testing.T) {
	mock, store := newMockStore(t)
	mock.ExpectExec(upsertPattern).
		WithArgs("demo.example", "tok1", []string{}).
		WillReturnError(errors.New("connection refused"))

	err := store.Upsert(context.Background(), "demo.example", "tok1", nil)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresUpsertRejectsEmptyArgs(t *testing.T) {
	mock, store := newMockStore(t)
	assert.Error(t, store.Upsert(context.Background(), "", "tok1", nil))
	assert.Error(t, store.Upsert(context.Background(), "demo.example", "", nil))
	assert.NoError(t, mock.ExpectationsWereMet(), "empty args never reach the database")
}

func TestPostgresLookup(t *testing.T) {
	mock, store := newMockStore(t)
	created := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`SELECT shop, access_token, scopes, created_at FROM shop_sessions WHERE shop=\$1`).
		WithArgs("demo.example").
		WillReturnRows(pgxmock.NewRows([]string{"shop", "access_token", "scopes", "created_at"}).
			AddRow("demo.example", "tok1", []string{"write_draft_orders"}, created))

	sess, err := store.Lookup(context.Background(), "demo.example")
	require.NoError(t, err)
	assert.Equal(t, "demo.example", sess.Shop)
	assert.Equal(t, "tok1", sess.AccessToken)
	assert.Equal(t, []string{"write_draft_orders"}, sess.Scopes)
	assert.Equal(t, created, sess.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresLookupNotFound(t *testing.T) {
	mock, store := newMockStore(t)
	mock.ExpectQuery(`SELECT shop, access_token, scopes, created_at FROM shop_sessions`).
		WithArgs("demo.example").
		WillReturnError(pgx.ErrNoRows)

	_, err := store.Lookup(context.Background(), "demo.example")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresLookupUnavailable(t *testing.T) {
	mock, store := newMockStore(t)
	mock.ExpectQuery(`SELECT shop, access_token, scopes, created_at FROM shop_sessions`).
		WithArgs("demo.example").
		WillReturnError(errors.New("server closed the connection"))

	_, err := store.Lookup(context.Background(), "demo.example")
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureSchemaStatement(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS shop_sessions`).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, EnsureSchema(context.Background(), mock))
	assert.NoError(t, mock.ExpectationsWereMet())
}

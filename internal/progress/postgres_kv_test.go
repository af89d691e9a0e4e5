package progress

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockQuerier struct {
	mock.Mock
}

func (m *mockQuerier) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	ret := m.Called(ctx, sql, args)
	return pgconn.NewCommandTag(ret.String(0)), ret.Error(1)
}

func (m *mockQuerier) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	ret := m.Called(ctx, sql, args)
	return ret.Get(0).(pgx.Row)
}

func (m *mockQuerier) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

type stubRow struct {
	value []byte
	err   error
}

func (r stubRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	*(dest[0].(*[]byte)) = r.value
	return nil
}

func TestPostgresKVGet(t *testing.T) {
	ctx := context.Background()
	db := new(mockQuerier)
	db.On("QueryRow", ctx, selectValueSQL, []any{"@quickfacts_bookmarks_u1"}).
		Return(stubRow{value: []byte(`["f1"]`)}).Once()
	db.On("QueryRow", ctx, selectValueSQL, []any{"missing"}).
		Return(stubRow{err: pgx.ErrNoRows}).Once()
	db.On("QueryRow", ctx, selectValueSQL, []any{"broken"}).
		Return(stubRow{err: errors.New("conn reset")}).Once()

	kv := NewPostgresKV(db)

	val, err := kv.Get(ctx, "@quickfacts_bookmarks_u1")
	require.NoError(t, err)
	assert.JSONEq(t, `["f1"]`, string(val))

	_, err = kv.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = kv.Get(ctx, "broken")
	assert.EqualError(t, err, "conn reset")

	db.AssertExpectations(t)
}

func TestPostgresKVSetUpserts(t *testing.T) {
	ctx := context.Background()
	db := new(mockQuerier)
	db.On("Exec", ctx, upsertValueSQL, []any{"k", `["f1"]`}).Return("INSERT 0 1", nil).Once()
	db.On("Ping", ctx).Return(nil).Once()

	kv := NewPostgresKV(db)
	require.NoError(t, kv.Set(ctx, "k", []byte(`["f1"]`)))
	require.NoError(t, kv.Ping(ctx))

	db.AssertExpectations(t)
}

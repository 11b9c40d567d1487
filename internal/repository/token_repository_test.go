package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRepo_StoreRefresh(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec(q("UPDATE users SET refresh_token_hash=?, refresh_token_expires_at=? WHERE id=?")).
		WithArgs("h1", sqlmock.AnyArg(), 4).
		WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, NewTokenRepo(db).StoreRefresh(context.Background(), 4, "h1", time.Now().Add(time.Hour)))
}

func TestTokenRepo_FindByRefresh(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	cases := []struct {
		name    string
		expires any
		wantErr bool
	}{
		{"valid", now.Add(time.Minute), false},
		{"expired", now.Add(-time.Minute), true},
		{"no expiry recorded", nil, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			db, mock := newMock(t)
			mock.ExpectQuery(q("FROM users WHERE refresh_token_hash=? LIMIT 1")).
				WithArgs("h1").
				WillReturnRows(sqlmock.NewRows(userCols).
					AddRow(4, "A", "a", "a@x.com", "555", "pw", "USER", nil, "h1", tc.expires, now, now))

			repo := NewTokenRepo(db)
			repo.Now = func() time.Time { return now }
			u, err := repo.FindByRefresh(context.Background(), "h1")
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrNotFound)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, uint64(4), u.ID)
			assert.Equal(t, "h1", u.RefreshTokenHash)
		})
	}
}

func TestTokenRepo_FindByRefreshUnknown(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(q("FROM users WHERE refresh_token_hash=? LIMIT 1")).
		WithArgs("nope").
		WillReturnRows(sqlmock.NewRows(userCols))

	_, err := NewTokenRepo(db).FindByRefresh(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTokenRepo_RotateRefreshLostRace(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec(q("WHERE id=? AND refresh_token_hash=?")).
		WithArgs("new", sqlmock.AnyArg(), 4, "old").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := NewTokenRepo(db).RotateRefresh(context.Background(), 4, "old", "new", time.Now().Add(time.Hour))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTokenRepo_RevokeIsIdempotent(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec(q("UPDATE users SET refresh_token_hash=NULL, refresh_token_expires_at=NULL WHERE id=?")).
		WithArgs(4).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.NoError(t, NewTokenRepo(db).RevokeForUser(context.Background(), 4))
}

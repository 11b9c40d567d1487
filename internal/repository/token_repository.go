package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/restodash/dashboard-api/internal/model"
)

// TokenRepo manages the single refresh token slot on each users row.
// Only the SHA-256 hash of a token is ever written.
type TokenRepo struct {
	DB  *sql.DB
	Now func() time.Time
}

func NewTokenRepo(db *sql.DB) *TokenRepo { return &TokenRepo{DB: db, Now: time.Now} }

// StoreRefresh records tokenHash as the user's only refresh token,
// replacing any previous one.
func (r *TokenRepo) StoreRefresh(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error {
	return expectAffected(r.DB.ExecContext(ctx,
		"UPDATE users SET refresh_token_hash=?, refresh_token_expires_at=? WHERE id=?",
		tokenHash, exp.UTC(), userID))
}

// FindByRefresh returns the user currently holding tokenHash. Unknown and
// expired hashes are both reported as ErrNotFound.
func (r *TokenRepo) FindByRefresh(ctx context.Context, tokenHash string) (model.User, error) {
	u, err := scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE refresh_token_hash=? LIMIT 1", tokenHash))
	if err != nil {
		return model.User{}, translate(err)
	}
	if u.RefreshTokenExpiresAt == nil || !r.Now().UTC().Before(*u.RefreshTokenExpiresAt) {
		return model.User{}, ErrNotFound
	}
	return u, nil
}

// RotateRefresh swaps oldHash for newHash only if oldHash is still the
// stored value. A concurrent rotation or login makes it return ErrNotFound.
func (r *TokenRepo) RotateRefresh(ctx context.Context, userID uint64, oldHash, newHash string, exp time.Time) error {
	return expectAffected(r.DB.ExecContext(ctx,
		"UPDATE users SET refresh_token_hash=?, refresh_token_expires_at=? WHERE id=? AND refresh_token_hash=?",
		newHash, exp.UTC(), userID, oldHash))
}

// RevokeForUser clears the stored refresh token.
func (r *TokenRepo) RevokeForUser(ctx context.Context, userID uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET refresh_token_hash=NULL, refresh_token_expires_at=NULL WHERE id=?",
		userID)
	return err
}

// Package service holds the session lifecycle and user administration logic.
// It depends on the credential store only through the interfaces below so
// that MySQL, test doubles or any other store can back it.
package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/restodash/dashboard-api/internal/apperrors"
	"github.com/restodash/dashboard-api/internal/model"
	"github.com/restodash/dashboard-api/internal/queue"
	"github.com/restodash/dashboard-api/internal/utils"
)

// UserStore persists user records. Implementations report missing rows as
// repository.ErrNotFound and unique-key violations as repository.ErrDuplicate.
type UserStore interface {
	Create(ctx context.Context, u *model.User) (uint64, error)
	ExistsByEmailOrUsername(ctx context.Context, email, username string) (bool, error)
	GetByEmail(ctx context.Context, email string) (model.User, error)
	GetByID(ctx context.Context, id uint64) (model.User, error)
	List(ctx context.Context, q model.UserQuery) ([]model.User, int, error)
	Update(ctx context.Context, id uint64, upd model.UserUpdate) error
	UpdatePassword(ctx context.Context, id uint64, hash string) error
	AssignRestaurant(ctx context.Context, userID, restaurantID uint64) error
	Delete(ctx context.Context, id uint64) error
}

// TokenStore holds the single active refresh token hash of each user.
type TokenStore interface {
	StoreRefresh(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error
	FindByRefresh(ctx context.Context, tokenHash string) (model.User, error)
	RotateRefresh(ctx context.Context, userID uint64, oldHash, newHash string, exp time.Time) error
	RevokeForUser(ctx context.Context, userID uint64) error
}

// Deps bundles the collaborators shared by SessionManager and UserAdmin.
// Events and Log may be nil.
type Deps struct {
	Users  UserStore
	Tokens TokenStore
	Issuer *utils.Issuer
	Hasher utils.PasswordHasher
	Events queue.Publisher
	Log    *zap.Logger
}

func (d Deps) withDefaults() Deps {
	if d.Events == nil {
		d.Events = queue.NopPublisher{}
	}
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	return d
}

// publish sends ev without letting broker trouble fail the request.
func (d Deps) publish(ctx context.Context, ev queue.UserEvent) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	if err := d.Events.Publish(ctx, ev); err != nil {
		d.Log.Warn("user event not published",
			zap.String("event", string(ev.Type)), zap.Uint64("user_id", ev.UserID), zap.Error(err))
	}
}

func (d Deps) hashPassword(plain string) (string, error) {
	hash, err := d.Hasher.Hash(plain)
	if errors.Is(err, utils.ErrPasswordTooLong) {
		return "", apperrors.Validation("Password is too long",
			apperrors.FieldError{Field: "password", Message: "password must be at most 72 bytes"})
	}
	if err != nil {
		return "", apperrors.Internal(err)
	}
	return hash, nil
}

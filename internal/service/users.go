package service

import (
	"context"
	"errors"
	"strings"

	"github.com/restodash/dashboard-api/internal/apperrors"
	"github.com/restodash/dashboard-api/internal/model"
	"github.com/restodash/dashboard-api/internal/queue"
	"github.com/restodash/dashboard-api/internal/repository"
)

const (
	DefaultPageLimit = 10
	MaxPageLimit     = 100
)

// CreateUserInput is an administrator-initiated account creation.
type CreateUserInput struct {
	Name     string
	Username string
	Email    string
	Phone    string
	Password string
	Role     model.Role
}

// UserPage is one page of the admin user table.
type UserPage struct {
	Users []model.PublicUser `json:"users"`
	Total int                `json:"total"`
	Page  int                `json:"page"`
	Limit int                `json:"limit"`
}

// UserAdmin implements the SUPERADMIN user management operations. actorID
// identifies the administrator and is recorded on audit events.
type UserAdmin struct {
	Deps
}

func NewUserAdmin(deps Deps) *UserAdmin {
	return &UserAdmin{Deps: deps.withDefaults()}
}

// NormalizeQuery applies pagination defaults and bounds.
func NormalizeQuery(q model.UserQuery) model.UserQuery {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = DefaultPageLimit
	}
	if q.Limit > MaxPageLimit {
		q.Limit = MaxPageLimit
	}
	q.Search = strings.TrimSpace(q.Search)
	return q
}

func (a *UserAdmin) List(ctx context.Context, q model.UserQuery) (UserPage, error) {
	q = NormalizeQuery(q)
	users, total, err := a.Users.List(ctx, q)
	if err != nil {
		return UserPage{}, apperrors.Internal(err)
	}
	out := make([]model.PublicUser, 0, len(users))
	for _, u := range users {
		out = append(out, u.Public())
	}
	return UserPage{Users: out, Total: total, Page: q.Page, Limit: q.Limit}, nil
}

func (a *UserAdmin) Create(ctx context.Context, actorID uint64, in CreateUserInput) (model.PublicUser, error) {
	if in.Role == "" {
		in.Role = model.RoleUser
	}
	if !in.Role.Valid() {
		return model.PublicUser{}, invalidRole()
	}
	hash, err := a.hashPassword(in.Password)
	if err != nil {
		return model.PublicUser{}, err
	}
	u := model.User{
		Name:         strings.TrimSpace(in.Name),
		Username:     strings.TrimSpace(in.Username),
		Email:        NormalizeEmail(in.Email),
		Phone:        strings.TrimSpace(in.Phone),
		PasswordHash: hash,
		Role:         in.Role,
	}
	id, err := a.Users.Create(ctx, &u)
	if err != nil {
		return model.PublicUser{}, storeError(err)
	}
	u.ID = id

	a.publish(ctx, queue.UserEvent{Type: queue.EventCreated, UserID: id, Email: u.Email, Role: string(u.Role), ActorID: actorID})
	return u.Public(), nil
}

// Update replaces the profile fields and role of a user. Administrators
// cannot change their own role, which keeps at least one SUPERADMIN able
// to manage accounts.
func (a *UserAdmin) Update(ctx context.Context, actorID, id uint64, upd model.UserUpdate) (model.PublicUser, error) {
	if !upd.Role.Valid() {
		return model.PublicUser{}, invalidRole()
	}
	if id == actorID && upd.Role != model.RoleSuperAdmin {
		return model.PublicUser{}, apperrors.Validation("You cannot change your own role",
			apperrors.FieldError{Field: "role", Message: "own role cannot be changed"})
	}
	upd.Name = strings.TrimSpace(upd.Name)
	upd.Username = strings.TrimSpace(upd.Username)
	upd.Email = NormalizeEmail(upd.Email)
	upd.Phone = strings.TrimSpace(upd.Phone)

	if err := a.Users.Update(ctx, id, upd); err != nil {
		return model.PublicUser{}, storeError(err)
	}
	u, err := a.Users.GetByID(ctx, id)
	if err != nil {
		return model.PublicUser{}, storeError(err)
	}

	a.publish(ctx, queue.UserEvent{Type: queue.EventUpdated, UserID: id, Email: u.Email, Role: string(u.Role), ActorID: actorID})
	return u.Public(), nil
}

func (a *UserAdmin) Delete(ctx context.Context, actorID, id uint64) error {
	if id == actorID {
		return apperrors.Validation("You cannot delete your own account")
	}
	if err := a.Users.Delete(ctx, id); err != nil {
		return storeError(err)
	}
	a.publish(ctx, queue.UserEvent{Type: queue.EventDeleted, UserID: id, ActorID: actorID})
	return nil
}

// ResetPassword sets a new password and ends the user's session.
func (a *UserAdmin) ResetPassword(ctx context.Context, actorID, id uint64, password string) error {
	hash, err := a.hashPassword(password)
	if err != nil {
		return err
	}
	if err := a.Users.UpdatePassword(ctx, id, hash); err != nil {
		return storeError(err)
	}
	a.publish(ctx, queue.UserEvent{Type: queue.EventPasswordReset, UserID: id, ActorID: actorID})
	return nil
}

// AssignRestaurantAdmin makes userID the RESTAURANT_ADMIN of restaurantID.
func (a *UserAdmin) AssignRestaurantAdmin(ctx context.Context, actorID, restaurantID, userID uint64) (model.PublicUser, error) {
	if userID == actorID {
		return model.PublicUser{}, apperrors.Validation("You cannot change your own role")
	}
	if err := a.Users.AssignRestaurant(ctx, userID, restaurantID); err != nil {
		return model.PublicUser{}, storeError(err)
	}
	u, err := a.Users.GetByID(ctx, userID)
	if err != nil {
		return model.PublicUser{}, storeError(err)
	}
	a.publish(ctx, queue.UserEvent{
		Type: queue.EventRestaurantAdminAssigned, UserID: userID, Email: u.Email,
		Role: string(u.Role), RestaurantID: restaurantID, ActorID: actorID,
	})
	return u.Public(), nil
}

func invalidRole() error {
	return apperrors.Validation("Role must be USER, RESTAURANT_ADMIN, or SUPERADMIN",
		apperrors.FieldError{Field: "role", Message: "invalid role"})
}

func storeError(err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return apperrors.New(apperrors.KindNotFound, "User not found")
	case errors.Is(err, repository.ErrDuplicate):
		return apperrors.New(apperrors.KindConflict, "Email or username already in use")
	}
	return apperrors.Internal(err)
}

package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/restodash/dashboard-api/internal/apperrors"
	"github.com/restodash/dashboard-api/internal/model"
	"github.com/restodash/dashboard-api/internal/queue"
	"github.com/restodash/dashboard-api/internal/repository"
	"github.com/restodash/dashboard-api/internal/utils"
)

// SignupSuccessMessage is the confirmation returned by a successful signup.
const SignupSuccessMessage = "User created successfully"

// SignupInput is a self-service registration request.
type SignupInput struct {
	Name     string
	Username string
	Email    string
	Phone    string
	Password string
}

// LoginResult is returned by a successful login.
type LoginResult struct {
	AccessToken  string
	RefreshToken string
	User         model.PublicUser
}

// RefreshResult carries the new access token. RefreshToken is set only when
// rotation is enabled.
type RefreshResult struct {
	AccessToken  string
	RefreshToken string
}

// AuthenticatedUser is the current profile together with a re-signed
// access token reflecting the stored role.
type AuthenticatedUser struct {
	User        model.PublicUser
	AccessToken string
}

// SessionManager implements signup, login, token refresh, logout and
// profile reload. Each user holds at most one refresh token: logging in
// replaces it, logging out clears it.
type SessionManager struct {
	Deps
	rotate bool
}

// SessionOption customises a SessionManager.
type SessionOption func(*SessionManager)

// WithRefreshRotation makes every successful refresh replace the stored
// refresh token, so each refresh token can be used only once.
func WithRefreshRotation(on bool) SessionOption {
	return func(m *SessionManager) { m.rotate = on }
}

func NewSessionManager(deps Deps, opts ...SessionOption) *SessionManager {
	m := &SessionManager{Deps: deps.withDefaults()}
	for _, o := range opts {
		o(m)
	}
	return m
}

// NormalizeEmail trims and lower-cases an address.
func NormalizeEmail(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

// Signup registers a new USER account.
func (m *SessionManager) Signup(ctx context.Context, in SignupInput) error {
	in.Name = strings.TrimSpace(in.Name)
	in.Username = strings.TrimSpace(in.Username)
	in.Email = NormalizeEmail(in.Email)
	in.Phone = strings.TrimSpace(in.Phone)

	var missing []apperrors.FieldError
	for _, f := range []struct{ name, value string }{
		{"name", in.Name}, {"username", in.Username}, {"email", in.Email},
		{"phone", in.Phone}, {"password", in.Password},
	} {
		if f.value == "" {
			missing = append(missing, apperrors.FieldError{Field: f.name, Message: f.name + " is required"})
		}
	}
	if len(missing) > 0 {
		return apperrors.Validation("All fields are required", missing...)
	}

	exists, err := m.Users.ExistsByEmailOrUsername(ctx, in.Email, in.Username)
	if err != nil {
		return apperrors.Internal(err)
	}
	if exists {
		return apperrors.New(apperrors.KindConflict, "User already exists")
	}

	hash, err := m.hashPassword(in.Password)
	if err != nil {
		return err
	}

	u := model.User{
		Name:         in.Name,
		Username:     in.Username,
		Email:        in.Email,
		Phone:        in.Phone,
		PasswordHash: hash,
		Role:         model.RoleUser,
	}
	id, err := m.Users.Create(ctx, &u)
	if err != nil {
		// the unique keys are authoritative when two signups race past the pre-check
		if errors.Is(err, repository.ErrDuplicate) {
			return apperrors.New(apperrors.KindConflict, "User already exists")
		}
		return apperrors.Internal(err)
	}

	m.publish(ctx, queue.UserEvent{Type: queue.EventSignedUp, UserID: id, Email: u.Email, Role: string(u.Role)})
	return nil
}

// Login verifies credentials and starts a new session, invalidating any
// refresh token issued by an earlier login.
func (m *SessionManager) Login(ctx context.Context, email, password string) (LoginResult, error) {
	email = NormalizeEmail(email)
	if email == "" || password == "" {
		return LoginResult{}, apperrors.Validation("Email and password are required")
	}

	u, err := m.Users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return LoginResult{}, apperrors.New(apperrors.KindNotFound, "Invalid email")
		}
		return LoginResult{}, apperrors.Internal(err)
	}
	if !m.Hasher.Verify(u.PasswordHash, password) {
		return LoginResult{}, apperrors.New(apperrors.KindAuthentication, "Invalid password")
	}

	id := identityOf(u)
	access, err := m.Issuer.IssueAccess(id)
	if err != nil {
		return LoginResult{}, apperrors.Internal(err)
	}
	refresh, err := m.Issuer.IssueRefresh(id)
	if err != nil {
		return LoginResult{}, apperrors.Internal(err)
	}
	if err := m.Tokens.StoreRefresh(ctx, u.ID, utils.HashRefreshRaw(refresh.Token), refresh.ExpiresAt); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return LoginResult{}, apperrors.New(apperrors.KindNotFound, "Invalid email")
		}
		return LoginResult{}, apperrors.Internal(err)
	}

	m.publish(ctx, queue.UserEvent{Type: queue.EventLoggedIn, UserID: u.ID, Email: u.Email, Role: string(u.Role)})
	return LoginResult{AccessToken: access.Token, RefreshToken: refresh.Token, User: u.Public()}, nil
}

// Refresh exchanges a refresh token for a new access token. The token must
// be the one currently stored for its user and must carry a valid signature
// and expiry.
func (m *SessionManager) Refresh(ctx context.Context, raw string) (RefreshResult, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return RefreshResult{}, apperrors.New(apperrors.KindUnauthenticated, "Refresh token is required")
	}
	hash := utils.HashRefreshRaw(raw)

	u, err := m.Tokens.FindByRefresh(ctx, hash)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return RefreshResult{}, apperrors.New(apperrors.KindAuthentication, "Invalid refresh token")
		}
		return RefreshResult{}, apperrors.Internal(err)
	}
	claims, err := m.Issuer.VerifyRefresh(raw)
	if err != nil {
		return RefreshResult{}, apperrors.Wrap(apperrors.KindAuthentication, "Invalid or expired refresh token", err)
	}
	if claims.UserID != u.ID {
		return RefreshResult{}, apperrors.New(apperrors.KindAuthentication, "Invalid refresh token")
	}

	id := identityOf(u)
	access, err := m.Issuer.IssueAccess(id)
	if err != nil {
		return RefreshResult{}, apperrors.Internal(err)
	}
	res := RefreshResult{AccessToken: access.Token}
	if !m.rotate {
		return res, nil
	}

	next, err := m.Issuer.IssueRefresh(id)
	if err != nil {
		return RefreshResult{}, apperrors.Internal(err)
	}
	if err := m.Tokens.RotateRefresh(ctx, u.ID, hash, utils.HashRefreshRaw(next.Token), next.ExpiresAt); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			m.Log.Info("refresh token reused after rotation", zap.Uint64("user_id", u.ID))
			return RefreshResult{}, apperrors.New(apperrors.KindAuthentication, "Invalid refresh token")
		}
		return RefreshResult{}, apperrors.Internal(err)
	}
	res.RefreshToken = next.Token
	return res, nil
}

// Logout clears the stored refresh token of userID. Outstanding access
// tokens stay valid until they expire.
func (m *SessionManager) Logout(ctx context.Context, userID uint64) error {
	if err := m.Tokens.RevokeForUser(ctx, userID); err != nil {
		return apperrors.Internal(err)
	}
	m.publish(ctx, queue.UserEvent{Type: queue.EventLoggedOut, UserID: userID})
	return nil
}

// AuthenticatedUser reloads the caller's profile and signs a fresh access
// token carrying the current role.
func (m *SessionManager) AuthenticatedUser(ctx context.Context, id utils.Identity) (AuthenticatedUser, error) {
	u, err := m.Users.GetByID(ctx, id.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return AuthenticatedUser{}, apperrors.New(apperrors.KindNotFound, "User not found")
		}
		return AuthenticatedUser{}, apperrors.Internal(err)
	}
	access, err := m.Issuer.IssueAccess(identityOf(u))
	if err != nil {
		return AuthenticatedUser{}, apperrors.Internal(err)
	}
	return AuthenticatedUser{User: u.Public(), AccessToken: access.Token}, nil
}

func identityOf(u model.User) utils.Identity {
	return utils.Identity{ID: u.ID, Email: u.Email, Role: u.Role}
}

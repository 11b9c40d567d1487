package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/restodash/dashboard-api/internal/apperrors"
	"github.com/restodash/dashboard-api/internal/middleware"
	"github.com/restodash/dashboard-api/internal/model"
	"github.com/restodash/dashboard-api/internal/service"
	"github.com/restodash/dashboard-api/internal/utils"
)

// requestTimeout bounds the store work of a single request.
const requestTimeout = 5 * time.Second

// SessionService is the session lifecycle used by AuthHandler.
// *service.SessionManager implements it.
type SessionService interface {
	Signup(ctx context.Context, in service.SignupInput) error
	Login(ctx context.Context, email, password string) (service.LoginResult, error)
	Refresh(ctx context.Context, refreshToken string) (service.RefreshResult, error)
	Logout(ctx context.Context, userID uint64) error
	AuthenticatedUser(ctx context.Context, id utils.Identity) (service.AuthenticatedUser, error)
}

// AuthHandler serves the signup, login and session endpoints.
type AuthHandler struct {
	Sessions SessionService
}

func NewAuthHandler(s SessionService) *AuthHandler {
	return &AuthHandler{Sessions: s}
}

// ----- DTOs -----

// signupReq only bounds field lengths. Presence is checked by the session
// service so a missing field always answers "All fields are required", and
// email and phone are taken as given, like any self-service form.
type signupReq struct {
	Name     string `json:"name" validate:"max=120"`
	Username string `json:"username" validate:"max=60"`
	Email    string `json:"email" validate:"max=190"`
	Phone    string `json:"phone" validate:"max=32"`
	Password string `json:"password" validate:"max=72"`
}

type loginReq struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type refreshReq struct {
	RefreshToken string `json:"refreshToken"`
}

type loginResp struct {
	AccessToken  string           `json:"accessToken"`
	RefreshToken string           `json:"refreshToken"`
	User         model.PublicUser `json:"user"`
}

type refreshResp struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken,omitempty"`
}

type profileUser struct {
	ID    uint64 `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// invalidCredentials is the single message for unknown email and wrong
// password so login responses do not reveal which accounts exist.
const invalidCredentials = "Invalid email or password"

// Signup: POST /signup
func (h *AuthHandler) Signup(c echo.Context) error {
	// Bind the JSON body and check the length bounds.
	var req signupReq
	if err := bindAndValidate(c, &req); err != nil {
		return writeError(c, err)
	}

	// Bound the store work of this request.
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	// Create the account; missing fields and duplicates come back as 400.
	err := h.Sessions.Signup(ctx, service.SignupInput{
		Name:     req.Name,
		Username: req.Username,
		Email:    req.Email,
		Phone:    req.Phone,
		Password: req.Password,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": service.SignupSuccessMessage})
}

// Login: POST /login
func (h *AuthHandler) Login(c echo.Context) error {
	// Both email and password must be present.
	var req loginReq
	if err := bindAndValidate(c, &req); err != nil {
		return writeError(c, err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	// Verify the credentials and issue a fresh token pair.
	res, err := h.Sessions.Login(ctx, req.Email, req.Password)
	if err != nil {
		// Unknown email and wrong password share one response.
		switch apperrors.KindOf(err) {
		case apperrors.KindNotFound, apperrors.KindAuthentication:
			return c.JSON(http.StatusBadRequest, errorBody{Error: invalidCredentials})
		}
		return writeError(c, err)
	}
	// Return both tokens with the public projection of the user.
	return c.JSON(http.StatusOK, loginResp{
		AccessToken:  res.AccessToken,
		RefreshToken: res.RefreshToken,
		User:         res.User,
	})
}

// Refresh: POST /refresh. A missing token is 401; a token that is unknown,
// superseded, tampered with or expired is 403.
func (h *AuthHandler) Refresh(c echo.Context) error {
	// Bind without validation; the service reports a missing token as 401.
	var req refreshReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorBody{Error: "Invalid request body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	// Check the token against the stored one and mint a new access token.
	res, err := h.Sessions.Refresh(ctx, req.RefreshToken)
	if err != nil {
		// A rejected refresh token is forbidden, not unauthenticated.
		if apperrors.KindOf(err) == apperrors.KindAuthentication {
			return writeErrorStatus(c, http.StatusForbidden, err)
		}
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, refreshResp{AccessToken: res.AccessToken, RefreshToken: res.RefreshToken})
}

// Logout: POST /logout (protected). Clears the caller's refresh token.
func (h *AuthHandler) Logout(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	// The caller's id was placed in the context by JWTAuth.
	if err := h.Sessions.Logout(ctx, middleware.UserID(c)); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Logged out successfully"})
}

// AuthUserData: GET /authUserData (protected). Returns the stored profile
// and a fresh access token carrying the current role.
func (h *AuthHandler) AuthUserData(c echo.Context) error {
	// Claims are present whenever JWTAuth ran.
	claims, ok := middleware.Claims(c)
	if !ok {
		return writeError(c, apperrors.ErrUnauthenticated)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	// Reload the user so a changed role shows up in the new token.
	res, err := h.Sessions.AuthenticatedUser(ctx, claims.Identity())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"user": res.User, "accessToken": res.AccessToken})
}

// Profile: GET /profile (protected). Answers from the token claims alone.
func (h *AuthHandler) Profile(c echo.Context) error {
	claims, ok := middleware.Claims(c)
	if !ok {
		return writeError(c, apperrors.ErrUnauthenticated)
	}
	// No store lookup; the token is the source.
	return c.JSON(http.StatusOK, echo.Map{"user": profileUser{
		ID:    claims.UserID,
		Email: claims.Email,
		Role:  string(claims.Role),
	}})
}

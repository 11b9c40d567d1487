package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/restodash/dashboard-api/internal/apperrors"
	"github.com/restodash/dashboard-api/internal/middleware"
	"github.com/restodash/dashboard-api/internal/model"
	"github.com/restodash/dashboard-api/internal/service"
)

// UserAdminService is the user management used by AdminHandler.
// *service.UserAdmin implements it.
type UserAdminService interface {
	List(ctx context.Context, q model.UserQuery) (service.UserPage, error)
	Create(ctx context.Context, actorID uint64, in service.CreateUserInput) (model.PublicUser, error)
	Update(ctx context.Context, actorID, id uint64, upd model.UserUpdate) (model.PublicUser, error)
	Delete(ctx context.Context, actorID, id uint64) error
	ResetPassword(ctx context.Context, actorID, id uint64, password string) error
	AssignRestaurantAdmin(ctx context.Context, actorID, restaurantID, userID uint64) (model.PublicUser, error)
}

// AdminHandler serves /admin. Every route is SUPERADMIN-only; the router
// installs the gates.
type AdminHandler struct {
	Users UserAdminService
}

func NewAdminHandler(u UserAdminService) *AdminHandler {
	return &AdminHandler{Users: u}
}

type createUserReq struct {
	Username string `json:"username" validate:"required,max=60"`
	Name     string `json:"name" validate:"required,max=120"`
	Email    string `json:"email" validate:"required,email,max=190"`
	Phone    string `json:"phone" validate:"required,phone"`
	Password string `json:"password" validate:"required,min=6,max=72"`
	Role     string `json:"role" validate:"omitempty,role"`
}

type updateUserReq struct {
	Username string `json:"username" validate:"required,max=60"`
	Name     string `json:"name" validate:"required,max=120"`
	Email    string `json:"email" validate:"required,email,max=190"`
	Phone    string `json:"phone" validate:"required,phone"`
	Role     string `json:"role" validate:"required,role"`
}

type passwordReq struct {
	Password string `json:"password" validate:"required,min=6,max=72"`
}

// ListUsers: GET /admin/users?page=&limit=&search=
func (h *AdminHandler) ListUsers(c echo.Context) error {
	// Absent paging parameters are zero; the service applies the defaults.
	page, err := queryInt(c, "page")
	if err != nil {
		return writeError(c, err)
	}
	limit, err := queryInt(c, "limit")
	if err != nil {
		return writeError(c, err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	// Search matches name or email.
	res, err := h.Users.List(ctx, model.UserQuery{Page: page, Limit: limit, Search: c.QueryParam("search")})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

// CreateUser: POST /admin/users
func (h *AdminHandler) CreateUser(c echo.Context) error {
	// Admin-created users get full format checks and an explicit role.
	var req createUserReq
	if err := bindAndValidate(c, &req); err != nil {
		return writeError(c, err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	// The caller is recorded as the actor on the user event.
	u, err := h.Users.Create(ctx, middleware.UserID(c), service.CreateUserInput{
		Name:     req.Name,
		Username: req.Username,
		Email:    req.Email,
		Phone:    req.Phone,
		Password: req.Password,
		Role:     model.Role(req.Role),
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"message": "User created successfully", "user": u})
}

// UpdateUser: PUT /admin/users/:id
func (h *AdminHandler) UpdateUser(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	// Every field is replaced, so the body is validated in full.
	var req updateUserReq
	if err := bindAndValidate(c, &req); err != nil {
		return writeError(c, err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	u, err := h.Users.Update(ctx, middleware.UserID(c), id, model.UserUpdate{
		Name:     req.Name,
		Username: req.Username,
		Email:    req.Email,
		Phone:    req.Phone,
		Role:     model.Role(req.Role),
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "User updated successfully", "user": u})
}

// DeleteUser: DELETE /admin/users/:id
func (h *AdminHandler) DeleteUser(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	// Self-deletion is refused by the service.
	if err := h.Users.Delete(ctx, middleware.UserID(c), id); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "User deleted successfully"})
}

// ResetPassword: PUT /admin/users/:id/password
func (h *AdminHandler) ResetPassword(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	var req passwordReq
	if err := bindAndValidate(c, &req); err != nil {
		return writeError(c, err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	// Hash and store the new password; the user's refresh token is cleared.
	if err := h.Users.ResetPassword(ctx, middleware.UserID(c), id, req.Password); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Password updated successfully"})
}

// AssignRestaurantAdmin: POST /admin/restaurants/:restaurantId/assign-admin/:userId
func (h *AdminHandler) AssignRestaurantAdmin(c echo.Context) error {
	restaurantID, err := pathID(c, "restaurantId")
	if err != nil {
		return writeError(c, err)
	}
	userID, err := pathID(c, "userId")
	if err != nil {
		return writeError(c, err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	// Sets role RESTAURANT_ADMIN and links the restaurant in one update.
	u, err := h.Users.AssignRestaurantAdmin(ctx, middleware.UserID(c), restaurantID, userID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Admin assigned to restaurant", "user": u})
}

func pathID(c echo.Context, name string) (uint64, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, apperrors.Validation("Invalid "+name, apperrors.FieldError{Field: name, Message: "must be a positive integer"})
	}
	return id, nil
}

// queryInt parses an optional integer query parameter; absent means zero.
func queryInt(c echo.Context, name string) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperrors.Validation("Invalid "+name, apperrors.FieldError{Field: name, Message: "must be an integer"})
	}
	return n, nil
}

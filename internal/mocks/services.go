package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/restodash/dashboard-api/internal/model"
	"github.com/restodash/dashboard-api/internal/service"
	"github.com/restodash/dashboard-api/internal/utils"
)

// SessionService is a testify mock of handler.SessionService.
type SessionService struct {
	mock.Mock
}

func (m *SessionService) Signup(ctx context.Context, in service.SignupInput) error {
	args := m.Called(ctx, in)
	return args.Error(0)
}

func (m *SessionService) Login(ctx context.Context, email, password string) (service.LoginResult, error) {
	args := m.Called(ctx, email, password)
	return args.Get(0).(service.LoginResult), args.Error(1)
}

func (m *SessionService) Refresh(ctx context.Context, refreshToken string) (service.RefreshResult, error) {
	args := m.Called(ctx, refreshToken)
	return args.Get(0).(service.RefreshResult), args.Error(1)
}

func (m *SessionService) Logout(ctx context.Context, userID uint64) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *SessionService) AuthenticatedUser(ctx context.Context, id utils.Identity) (service.AuthenticatedUser, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(service.AuthenticatedUser), args.Error(1)
}

// UserAdminService is a testify mock of handler.UserAdminService.
type UserAdminService struct {
	mock.Mock
}

func (m *UserAdminService) List(ctx context.Context, q model.UserQuery) (service.UserPage, error) {
	args := m.Called(ctx, q)
	return args.Get(0).(service.UserPage), args.Error(1)
}

func (m *UserAdminService) Create(ctx context.Context, actorID uint64, in service.CreateUserInput) (model.PublicUser, error) {
	args := m.Called(ctx, actorID, in)
	return args.Get(0).(model.PublicUser), args.Error(1)
}

func (m *UserAdminService) Update(ctx context.Context, actorID, id uint64, upd model.UserUpdate) (model.PublicUser, error) {
	args := m.Called(ctx, actorID, id, upd)
	return args.Get(0).(model.PublicUser), args.Error(1)
}

func (m *UserAdminService) Delete(ctx context.Context, actorID, id uint64) error {
	args := m.Called(ctx, actorID, id)
	return args.Error(0)
}

func (m *UserAdminService) ResetPassword(ctx context.Context, actorID, id uint64, password string) error {
	args := m.Called(ctx, actorID, id, password)
	return args.Error(0)
}

func (m *UserAdminService) AssignRestaurantAdmin(ctx context.Context, actorID, restaurantID, userID uint64) (model.PublicUser, error) {
	args := m.Called(ctx, actorID, restaurantID, userID)
	return args.Get(0).(model.PublicUser), args.Error(1)
}

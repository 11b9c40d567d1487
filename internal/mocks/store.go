// Package mocks provides test doubles shared by the package tests: an
// in-memory credential store with the same uniqueness rules as the MySQL
// schema, and testify mocks of the service layer.
package mocks

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/restodash/dashboard-api/internal/model"
	"github.com/restodash/dashboard-api/internal/repository"
)

// MemoryStore implements service.UserStore and service.TokenStore.
type MemoryStore struct {
	mu     sync.Mutex
	users  map[uint64]model.User
	nextID uint64
	Now    func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{users: map[uint64]model.User{}, Now: time.Now}
}

// Seed inserts u as-is (ID assigned when zero) and returns its ID.
func (s *MemoryStore) Seed(u model.User) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.ID == 0 {
		s.nextID++
		u.ID = s.nextID
	} else if u.ID > s.nextID {
		s.nextID = u.ID
	}
	s.users[u.ID] = u
	return u.ID
}

// User returns a copy of the stored record.
func (s *MemoryStore) User(id uint64) (model.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	return u, ok
}

// SetRole changes a role directly, bypassing the admin service.
func (s *MemoryStore) SetRole(id uint64, role model.Role) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.users[id]
	u.Role = role
	s.users[id] = u
}

func (s *MemoryStore) clashes(id uint64, email, username string) bool {
	for _, u := range s.users {
		if u.ID != id && (u.Email == email || u.Username == username) {
			return true
		}
	}
	return false
}

func (s *MemoryStore) Create(_ context.Context, u *model.User) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.clashes(0, u.Email, u.Username) {
		return 0, repository.ErrDuplicate
	}
	s.nextID++
	rec := *u
	rec.ID = s.nextID
	rec.CreatedAt = s.Now().UTC()
	rec.UpdatedAt = rec.CreatedAt
	s.users[rec.ID] = rec
	return rec.ID, nil
}

func (s *MemoryStore) ExistsByEmailOrUsername(_ context.Context, email, username string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clashes(0, email, username), nil
}

func (s *MemoryStore) GetByEmail(_ context.Context, email string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return model.User{}, repository.ErrNotFound
}

func (s *MemoryStore) GetByID(_ context.Context, id uint64) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	return u, nil
}

func (s *MemoryStore) List(_ context.Context, q model.UserQuery) ([]model.User, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	needle := strings.ToLower(q.Search)
	var matched []model.User
	for _, u := range s.users {
		if needle == "" || strings.Contains(strings.ToLower(u.Name), needle) ||
			strings.Contains(strings.ToLower(u.Email), needle) {
			matched = append(matched, u)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })
	total := len(matched)
	start := q.Offset()
	if start > total {
		start = total
	}
	end := start + q.Limit
	if end > total {
		end = total
	}
	return append([]model.User(nil), matched[start:end]...), total, nil
}

func (s *MemoryStore) Update(_ context.Context, id uint64, upd model.UserUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	if s.clashes(id, upd.Email, upd.Username) {
		return repository.ErrDuplicate
	}
	u.Name, u.Username, u.Email, u.Phone, u.Role = upd.Name, upd.Username, upd.Email, upd.Phone, upd.Role
	u.UpdatedAt = s.Now().UTC()
	s.users[id] = u
	return nil
}

func (s *MemoryStore) UpdatePassword(_ context.Context, id uint64, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.PasswordHash = hash
	u.RefreshTokenHash, u.RefreshTokenExpiresAt = "", nil
	s.users[id] = u
	return nil
}

func (s *MemoryStore) AssignRestaurant(_ context.Context, userID, restaurantID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	rid := restaurantID
	u.Role, u.RestaurantID = model.RoleRestaurantAdmin, &rid
	s.users[userID] = u
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.users, id)
	return nil
}

func (s *MemoryStore) StoreRefresh(_ context.Context, userID uint64, tokenHash string, exp time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	e := exp.UTC()
	u.RefreshTokenHash, u.RefreshTokenExpiresAt = tokenHash, &e
	s.users[userID] = u
	return nil
}

func (s *MemoryStore) FindByRefresh(_ context.Context, tokenHash string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if tokenHash != "" && u.RefreshTokenHash == tokenHash {
			if u.RefreshTokenExpiresAt == nil || !s.Now().UTC().Before(*u.RefreshTokenExpiresAt) {
				return model.User{}, repository.ErrNotFound
			}
			return u, nil
		}
	}
	return model.User{}, repository.ErrNotFound
}

func (s *MemoryStore) RotateRefresh(_ context.Context, userID uint64, oldHash, newHash string, exp time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok || u.RefreshTokenHash != oldHash {
		return repository.ErrNotFound
	}
	e := exp.UTC()
	u.RefreshTokenHash, u.RefreshTokenExpiresAt = newHash, &e
	s.users[userID] = u
	return nil
}

func (s *MemoryStore) RevokeForUser(_ context.Context, userID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[userID]; ok {
		u.RefreshTokenHash, u.RefreshTokenExpiresAt = "", nil
		s.users[userID] = u
	}
	return nil
}

package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/restodash/dashboard-api/internal/model"
)

// userColumns is the select list understood by scanUser.
const userColumns = "id,name,username,email,phone,password_hash,role,restaurant_id," +
	"refresh_token_hash,refresh_token_expires_at,created_at,updated_at"

// UserRepo reads and writes the users table.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(s rowScanner) (model.User, error) {
	var (
		u            model.User
		role         string
		restaurantID sql.NullInt64
		refreshHash  sql.NullString
		refreshExp   sql.NullTime
	)
	err := s.Scan(&u.ID, &u.Name, &u.Username, &u.Email, &u.Phone, &u.PasswordHash, &role,
		&restaurantID, &refreshHash, &refreshExp, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return model.User{}, err
	}
	u.Role = model.Role(role)
	if restaurantID.Valid {
		id := uint64(restaurantID.Int64)
		u.RestaurantID = &id
	}
	u.RefreshTokenHash = refreshHash.String
	if refreshExp.Valid {
		t := refreshExp.Time
		u.RefreshTokenExpiresAt = &t
	}
	return u, nil
}

// Create inserts u and returns its ID. A unique-key violation on email or
// username is reported as ErrDuplicate.
func (r *UserRepo) Create(ctx context.Context, u *model.User) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (name,username,email,phone,password_hash,role) VALUES (?,?,?,?,?,?)",
		u.Name, u.Username, u.Email, u.Phone, u.PasswordHash, string(u.Role))
	if err != nil {
		return 0, translate(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// ExistsByEmailOrUsername checks both unique fields in a single query.
func (r *UserRepo) ExistsByEmailOrUsername(ctx context.Context, email, username string) (bool, error) {
	var exists bool
	err := r.DB.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM users WHERE email=? OR username=?)",
		email, username).Scan(&exists)
	return exists, err
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	u, err := scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", email))
	return u, translate(err)
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	u, err := scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id))
	return u, translate(err)
}

// List returns one page of users ordered by id together with the total
// number of users matching q.Search.
func (r *UserRepo) List(ctx context.Context, q model.UserQuery) ([]model.User, int, error) {
	where := ""
	var args []any
	if s := strings.TrimSpace(q.Search); s != "" {
		pattern := "%" + escapeLike(s) + "%"
		where = " WHERE name LIKE ? ESCAPE '!' OR email LIKE ? ESCAPE '!'"
		args = append(args, pattern, pattern)
	}

	var total int
	if err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM users"+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+userColumns+" FROM users"+where+" ORDER BY id LIMIT ? OFFSET ?",
		append(args, q.Limit, q.Offset())...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	users := make([]model.User, 0, q.Limit)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		users = append(users, u)
	}
	return users, total, rows.Err()
}

// Update overwrites the editable profile fields of a user.
func (r *UserRepo) Update(ctx context.Context, id uint64, upd model.UserUpdate) error {
	return expectAffected(r.DB.ExecContext(ctx,
		"UPDATE users SET name=?, username=?, email=?, phone=?, role=? WHERE id=?",
		upd.Name, upd.Username, upd.Email, upd.Phone, string(upd.Role), id))
}

// UpdatePassword replaces the password hash and, in the same statement,
// clears the stored refresh token so existing sessions cannot be renewed.
func (r *UserRepo) UpdatePassword(ctx context.Context, id uint64, hash string) error {
	return expectAffected(r.DB.ExecContext(ctx,
		"UPDATE users SET password_hash=?, refresh_token_hash=NULL, refresh_token_expires_at=NULL WHERE id=?",
		hash, id))
}

// AssignRestaurant promotes a user to RESTAURANT_ADMIN of restaurantID.
func (r *UserRepo) AssignRestaurant(ctx context.Context, userID, restaurantID uint64) error {
	return expectAffected(r.DB.ExecContext(ctx,
		"UPDATE users SET role=?, restaurant_id=? WHERE id=?",
		string(model.RoleRestaurantAdmin), restaurantID, userID))
}

// Delete removes a user row.
func (r *UserRepo) Delete(ctx context.Context, id uint64) error {
	return expectAffected(r.DB.ExecContext(ctx, "DELETE FROM users WHERE id=?", id))
}

// likeEscaper escapes LIKE wildcards with '!', which means the same thing
// with or without NO_BACKSLASH_ESCAPES in sql_mode. Backslash is then an
// ordinary character in the pattern.
var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

func escapeLike(s string) string { return likeEscaper.Replace(s) }

package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/taskhive/taskhive-be/internal/models"
	"golang.org/x/crypto/bcrypt"
)

// Work factor for password hashing.
const bcryptCost = 12

// UserServiceProvider defines the interface for user services.
type UserServiceProvider interface {
	Register(name, email, password, role string) (models.User, error)
	Authenticate(email, password string) (models.User, error)
	GetByID(id string) (models.User, error)
	Update(id, name, email, password string) (models.User, error)
	Delete(ctx context.Context, id string) error
	List() ([]models.User, error)
	SetRole(id, role string) (models.User, error)
}

// UserService provides business logic for user accounts.
type UserService struct {
	db        *sql.DB
	cache     TaskCache
	allowRole bool
}

// NewUserService creates a new UserService. allowRole controls whether a
// client-supplied role is honored at registration; when false every new
// account gets the default role.
func NewUserService(db *sql.DB, cache TaskCache, allowRole bool) *UserService {
	return &UserService{db: db, cache: cache, allowRole: allowRole}
}

// Register creates a new user, hashing their password.
func (s *UserService) Register(name, email, password, role string) (models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	taken, err := s.emailTaken(email, "")
	if err != nil {
		return models.User{}, err
	}
	if taken {
		return models.User{}, ErrEmailTaken
	}

	if !s.allowRole || role == "" {
		role = models.RoleUser
	}
	if !models.ValidRole(role) {
		return models.User{}, fmt.Errorf("unknown role %q", role)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return models.User{}, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now().UTC()
	user := models.User{
		ID:           uuid.New().String(),
		Name:         name,
		Email:        email,
		PasswordHash: string(hashedPassword),
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	_, err = s.db.Exec(
		"INSERT INTO users(id, name, email, password_hash, role, created_at, updated_at) VALUES(?, ?, ?, ?, ?, ?, ?)",
		user.ID, user.Name, user.Email, user.PasswordHash, user.Role, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		return models.User{}, err
	}

	// Return user without password hash
	user.PasswordHash = ""
	return user, nil
}

// Authenticate verifies a user's credentials. Unknown emails and wrong
// passwords produce the same error.
func (s *UserService) Authenticate(email, password string) (models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	var user models.User
	row := s.db.QueryRow(
		"SELECT id, name, email, password_hash, role, created_at, updated_at FROM users WHERE email = ?", email)
	err := row.Scan(&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.Role, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.User{}, ErrInvalidCredentials
		}
		return models.User{}, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return models.User{}, ErrInvalidCredentials
	}

	user.PasswordHash = ""
	return user, nil
}

// GetByID retrieves a single user by their ID.
func (s *UserService) GetByID(id string) (models.User, error) {
	var user models.User
	row := s.db.QueryRow(
		"SELECT id, name, email, role, created_at, updated_at FROM users WHERE id = ?", id)
	err := row.Scan(&user.ID, &user.Name, &user.Email, &user.Role, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.User{}, ErrNotFound
		}
		return models.User{}, err
	}
	return user, nil
}

// Update changes a user's profile. An empty password leaves the stored hash
// untouched; a non-empty one is re-hashed here, never accepted pre-hashed.
// Role is deliberately not updatable through this path.
func (s *UserService) Update(id, name, email, password string) (models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	taken, err := s.emailTaken(email, id)
	if err != nil {
		return models.User{}, err
	}
	if taken {
		return models.User{}, ErrEmailTaken
	}

	now := time.Now().UTC()
	if password != "" {
		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
		if err != nil {
			return models.User{}, fmt.Errorf("failed to hash password: %w", err)
		}
		_, err = s.db.Exec(
			"UPDATE users SET name = ?, email = ?, password_hash = ?, updated_at = ? WHERE id = ?",
			name, email, string(hashedPassword), now, id)
		if err != nil {
			return models.User{}, err
		}
	} else {
		_, err = s.db.Exec(
			"UPDATE users SET name = ?, email = ?, updated_at = ? WHERE id = ?",
			name, email, now, id)
		if err != nil {
			return models.User{}, err
		}
	}
	return s.GetByID(id)
}

// Delete removes a user permanently. Their tasks go with them via the
// foreign key cascade, so the task-list cache entry is invalidated too.
func (s *UserService) Delete(ctx context.Context, id string) error {
	res, err := s.db.Exec("DELETE FROM users WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	s.cache.Invalidate(ctx, id)
	return nil
}

// List retrieves all users. Admin use only; routing enforces that.
func (s *UserService) List() ([]models.User, error) {
	rows, err := s.db.Query(
		"SELECT id, name, email, role, created_at, updated_at FROM users ORDER BY created_at")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var user models.User
		if err := rows.Scan(&user.ID, &user.Name, &user.Email, &user.Role, &user.CreatedAt, &user.UpdatedAt); err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// SetRole changes a user's role. Only reachable through the admin route.
func (s *UserService) SetRole(id, role string) (models.User, error) {
	if !models.ValidRole(role) {
		return models.User{}, fmt.Errorf("unknown role %q", role)
	}
	res, err := s.db.Exec(
		"UPDATE users SET role = ?, updated_at = ? WHERE id = ?", role, time.Now().UTC(), id)
	if err != nil {
		return models.User{}, err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return models.User{}, ErrNotFound
	}
	return s.GetByID(id)
}

// emailTaken reports whether email belongs to a user other than excludeID.
func (s *UserService) emailTaken(email, excludeID string) (bool, error) {
	var count int
	err := s.db.QueryRow(
		"SELECT COUNT(1) FROM users WHERE email = ? AND id != ?", email, excludeID).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID           string
	Email        string
	PasswordHash string
	Name         string
	CreatedAt    time.Time
}

// CreateUser stores a user with an already hashed password. The email is
// stored lower-cased; a second user with the same email gets ErrDuplicate.
func (s *Store) CreateUser(ctx context.Context, email, passwordHash, name string) (User, error) {
	u := User{
		ID:           uuid.NewString(),
		Email:        strings.ToLower(strings.TrimSpace(email)),
		PasswordHash: passwordHash,
		Name:         strings.TrimSpace(name),
	}
	row := s.q.QueryRowContext(ctx, `
		INSERT INTO users (id, email, password_hash, name)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`, u.ID, u.Email, u.PasswordHash, nullIfEmpty(u.Name))
	if err := row.Scan(&u.CreatedAt); err != nil {
		if isUniqueViolation(err) {
			return User{}, fmt.Errorf("user %s: %w", u.Email, ErrDuplicate)
		}
		return User{}, err
	}
	return u, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (User, error) {
	return s.scanUser(s.q.QueryRowContext(ctx, `
		SELECT id, email, password_hash, name, created_at FROM users WHERE email = $1
	`, strings.ToLower(strings.TrimSpace(email))))
}

func (s *Store) GetUser(ctx context.Context, id string) (User, error) {
	if !validID(id) {
		return User{}, ErrNotFound
	}
	return s.scanUser(s.q.QueryRowContext(ctx, `
		SELECT id, email, password_hash, name, created_at FROM users WHERE id = $1
	`, id))
}

func (s *Store) scanUser(row *sql.Row) (User, error) {
	var u User
	var name sql.NullString
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &name, &u.CreatedAt); err != nil {
		return User{}, notFound(err)
	}
	u.Name = name.String
	return u, nil
}

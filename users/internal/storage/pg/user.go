package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"

	"github.com/lib/pq"

	"github.com/compass-ms/usernotify/shared/domain"
	internal_errors "github.com/compass-ms/usernotify/shared/errors"
	shared_pg "github.com/compass-ms/usernotify/shared/storage/pg"
)

const userColumns = "id, username, email, password_hash, zip_code, street, complement, neighborhood, city, state"

// =========================================================================
// Public methods (satisfy the service.UserStorage interface)
// =========================================================================

// SaveUser inserts a new account with its resolved address, atomically.
func (s *Storage) SaveUser(user domain.User) (domain.UserId, error) {
	var id domain.UserId
	err := s.withTx(context.Background(), func(tx *sql.Tx) error {
		var err error
		id, err = s.saveUser(tx, user)
		return err
	})
	return id, err
}

// UserByEmail fetches a single account by email, the unique identifier tokens
// are bound to.
func (s *Storage) UserByEmail(email string) (domain.User, error) {
	return s.scanUser(s.db.QueryRow("SELECT "+userColumns+" FROM users WHERE email = $1", email))
}

// UserByUsername fetches a single account by its display handle.
func (s *Storage) UserByUsername(username string) (domain.User, error) {
	return s.scanUser(s.db.QueryRow("SELECT "+userColumns+" FROM users WHERE username = $1", username))
}

// Users lists all accounts.
func (s *Storage) Users() ([]domain.User, error) {
	rows, err := s.db.Query("SELECT " + userColumns + " FROM users ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		user, err := s.scanUserRows(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// UpdatePassword replaces the stored credential hash for username.
func (s *Storage) UpdatePassword(username, newPassHash string) error {
	return s.withTx(context.Background(), func(tx *sql.Tx) error {
		return s.updatePassword(tx, username, newPassHash)
	})
}

// =========================================================================
// Internal methods (core database logic, transaction-agnostic)
// =========================================================================

func (s *Storage) saveUser(q shared_pg.Querier, user domain.User) (domain.UserId, error) {
	var id domain.UserId
	err := q.QueryRow(`
        INSERT INTO users(username, email, password_hash, zip_code, street, complement, neighborhood, city, state)
        VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id`,
		user.Username, user.Email, user.PassHash,
		user.Address.ZipCode, user.Address.Street, user.Address.Complement,
		user.Address.Neighborhood, user.Address.City, user.Address.State,
	).Scan(&id)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return -1, &internal_errors.ErrorWithStatusCode{Message: "Username or email already taken", StatusCode: http.StatusConflict}
		}
		return -1, fmt.Errorf("failed to insert user: %w", err)
	}
	return id, nil
}

func (s *Storage) updatePassword(q shared_pg.Querier, username, newPassHash string) error {
	result, err := q.Exec("UPDATE users SET password_hash = $1 WHERE username = $2", newPassHash, username)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows for password update: %w", err)
	}
	if rowsAffected == 0 {
		return &internal_errors.ErrorWithStatusCode{Message: "User not found", StatusCode: http.StatusNotFound}
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *Storage) scanUser(row *sql.Row) (domain.User, error) {
	user, err := s.scanUserRows(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.User{}, &internal_errors.ErrorWithStatusCode{Message: "User not found", StatusCode: http.StatusNotFound}
		}
		return domain.User{}, err
	}
	return user, nil
}

func (s *Storage) scanUserRows(row rowScanner) (domain.User, error) {
	var user domain.User
	err := row.Scan(
		&user.Id, &user.Username, &user.Email, &user.PassHash,
		&user.Address.ZipCode, &user.Address.Street, &user.Address.Complement,
		&user.Address.Neighborhood, &user.Address.City, &user.Address.State,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.User{}, err
		}
		return domain.User{}, fmt.Errorf("failed to scan user: %w", err)
	}
	return user, nil
}

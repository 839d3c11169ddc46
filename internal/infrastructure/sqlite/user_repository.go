package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/malikkrehic/action/internal/domain/account"
)

const userColumns = `id, name, email, password_hash, email_verified_at, created_at`

type userRepository struct {
	db *sql.DB
}

var _ account.UserRepository = (*userRepository)(nil)

func scanUser(scanner interface{ Scan(...any) error }) (userModel, error) {
	var m userModel
	err := scanner.Scan(&m.ID, &m.Name, &m.Email, &m.PasswordHash, &m.EmailVerifiedAt, &m.CreatedAt)
	return m, err
}

// EmailExists reports whether a user with email exists. Comparison is
// case-insensitive.
func (r *userRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM users WHERE email = ? COLLATE NOCASE`, email,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to check email: %w", err)
	}
	return n > 0, nil
}

// CreateUser inserts u. Returns account.ErrEmailTaken on a duplicate email.
func (r *userRepository) CreateUser(ctx context.Context, u *account.User) error {
	m := toUserModel(u)
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		m.ID, m.Name, m.Email, m.PasswordHash, m.EmailVerifiedAt, m.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return account.ErrEmailTaken
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

// FindByEmail returns the user with email, or sql.ErrNoRows.
func (r *userRepository) FindByEmail(ctx context.Context, email string) (*account.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ? COLLATE NOCASE`, email,
	)
	m, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}
	return m.toDomain(), nil
}

func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

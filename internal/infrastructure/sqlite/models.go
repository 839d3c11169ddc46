package sqlite

import (
	"time"

	"github.com/malikkrehic/action/internal/domain/account"
)

// userModel is a row of the users table. Times are Unix milliseconds.
type userModel struct {
	ID              string
	Name            string
	Email           string
	PasswordHash    string
	EmailVerifiedAt *int64 // nullable
	CreatedAt       int64
}

func toUserModel(u *account.User) userModel {
	m := userModel{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		CreatedAt:    toMillis(u.CreatedAt),
	}
	if u.EmailVerifiedAt != nil {
		v := toMillis(*u.EmailVerifiedAt)
		m.EmailVerifiedAt = &v
	}
	return m
}

func (m userModel) toDomain() *account.User {
	u := &account.User{
		ID:           m.ID,
		Name:         m.Name,
		Email:        m.Email,
		PasswordHash: m.PasswordHash,
		CreatedAt:    fromMillis(m.CreatedAt),
	}
	if m.EmailVerifiedAt != nil {
		t := fromMillis(*m.EmailVerifiedAt)
		u.EmailVerifiedAt = &t
	}
	return u
}

func toMillis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

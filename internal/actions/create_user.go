package actions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/malikkrehic/action/internal/action"
	"github.com/malikkrehic/action/internal/domain/account"
	"github.com/malikkrehic/action/internal/validation"
)

// CreateUserData is the payload of the create-user action.
type CreateUserData struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Password   string `json:"password"`
	AutoVerify bool   `json:"auto_verify"`
}

// CreateUser registers a new user with a bcrypt-hashed password. With
// auto_verify the email is marked verified immediately.
func CreateUser(users account.UserRepository, now func() time.Time) action.Handler {
	emailTaken := validation.LookupFunc(users.EmailExists)

	return action.Define(action.Spec[CreateUserData]{
		Name:        "create-user",
		Description: "Create a new user account",
		PayloadType: "CreateUserData",
		Schema: validation.NewSchema[CreateUserData]().
			Field("name", func(d *CreateUserData) any { return d.Name }, validation.Required(), validation.MinLength(2)).
			Field("email", func(d *CreateUserData) any { return d.Email }, validation.Required(), validation.Email(), validation.Unique(emailTaken)).
			Field("password", func(d *CreateUserData) any { return d.Password }, validation.Required(), validation.MinLength(8)),
	}, func(ctx context.Context, d *CreateUserData) (any, error) {
		hash, err := bcrypt.GenerateFromPassword([]byte(d.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}

		createdAt := now()
		u := &account.User{
			ID:           uuid.NewString(),
			Name:         d.Name,
			Email:        d.Email,
			PasswordHash: string(hash),
			CreatedAt:    createdAt,
		}
		if d.AutoVerify {
			u.EmailVerifiedAt = &createdAt
		}

		if err := users.CreateUser(ctx, u); err != nil {
			if errors.Is(err, account.ErrEmailTaken) {
				// lost a race with a concurrent registration
				return nil, &action.Error{
					Kind:   action.KindValidation,
					Fields: validation.Violations{"email": {validation.MsgUnique}},
					Err:    err,
				}
			}
			return nil, fmt.Errorf("create user: %w", err)
		}
		return u, nil
	})
}

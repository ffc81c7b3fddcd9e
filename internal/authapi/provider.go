package authapi

import (
	"context"
	"errors"

	"ai-spm/internal/domain"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

// Transport define las llamadas de autenticacion contra el backend (real o simulado).
type Transport interface {
	Login(ctx context.Context, email, password string) (domain.User, error)
	Logout(ctx context.Context) error
	Register(ctx context.Context, input RegisterInput) (domain.User, error)
}

// RegisterInput son los datos de alta de una cuenta nueva.
type RegisterInput struct {
	Email    string      `json:"email"`
	Password string      `json:"password"`
	Name     string      `json:"name"`
	Role     domain.Role `json:"role"`
}

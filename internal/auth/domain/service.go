package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
)

type SignUpRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResult carries the signed bearer token alongside the account.
type AuthResult struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"-"`
	User      *User     `json:"user"`
}

type Service interface {
	SignUp(ctx context.Context, req SignUpRequest) (*AuthResult, error)
	SignIn(ctx context.Context, req SignInRequest) (*AuthResult, error)
	// Authenticate resolves a bearer token to the account it was issued for.
	Authenticate(ctx context.Context, rawToken string) (*User, error)
	GetUser(ctx context.Context, id snowflake.ID) (*User, error)
	ListUsers(ctx context.Context) ([]User, error)
}

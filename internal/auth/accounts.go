package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidAccount = errors.New("invalid account")
	ErrAccountExists  = errors.New("account already exists")
	ErrBadCredentials = errors.New("invalid credentials")
)

func validatePassword(p string) error {
	if len(p) < 8 || len(p) > 72 {
		return fmt.Errorf("%w: password must be 8-72 chars", ErrInvalidAccount)
	}
	return nil
}

// Register validates and stores a new admin with a bcrypt hash.
func Register(ctx context.Context, repo *Repo, username, email, password string) (*Admin, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(strings.ToLower(email))

	if len(username) < 3 || len(username) > 30 || strings.Contains(username, "@") {
		return nil, fmt.Errorf("%w: username must be 3-30 chars without @", ErrInvalidAccount)
	}
	if !strings.Contains(email, "@") || len(email) > 255 {
		return nil, fmt.Errorf("%w: invalid email", ErrInvalidAccount)
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}

	if a, err := repo.GetByEmail(ctx, email); err != nil {
		return nil, err
	} else if a != nil {
		return nil, fmt.Errorf("%w: email", ErrAccountExists)
	}
	if a, err := repo.GetByUsername(ctx, username); err != nil {
		return nil, err
	} else if a != nil {
		return nil, fmt.Errorf("%w: username", ErrAccountExists)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	a := Admin{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
	}
	if err := repo.CreateAdmin(ctx, a); err != nil {
		return nil, err
	}
	return &a, nil
}

// Authenticate checks login (username or email) and password.
func Authenticate(ctx context.Context, repo *Repo, login, password string) (*Admin, error) {
	login = strings.TrimSpace(login)
	if login == "" || password == "" {
		return nil, ErrBadCredentials
	}
	a, err := repo.GetByLogin(ctx, login)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, ErrBadCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(password)); err != nil {
		return nil, ErrBadCredentials
	}
	return a, nil
}

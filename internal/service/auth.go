package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"clearhouse/internal/model"
)

// AccountStore persists registered accounts.
type AccountStore interface {
	// CreateAccount fails with ErrLoginTaken on a duplicate login.
	CreateAccount(ctx context.Context, a model.Account) error
	// AccountByLogin returns nil (and no error) for an unknown login.
	AccountByLogin(ctx context.Context, login string) (*model.Account, error)
}

type AuthService struct {
	store AccountStore
}

func NewAuthService(store AccountStore) *AuthService {
	return &AuthService{store: store}
}

// Register creates an account and assigns it a fresh opaque address.
func (s *AuthService) Register(ctx context.Context, login, password string) (*model.Account, error) {
	if login == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	account := model.Account{
		Address:      uuid.NewString(),
		Login:        login,
		PasswordHash: hash,
	}
	if err := s.store.CreateAccount(ctx, account); err != nil {
		if IsDomainError(err) {
			return nil, err
		}
		return nil, fmt.Errorf("create account: %w", err)
	}
	return &account, nil
}

func (s *AuthService) Authenticate(ctx context.Context, login, password string) (*model.Account, error) {
	account, err := s.store.AccountByLogin(ctx, login)
	if err != nil {
		return nil, fmt.Errorf("get account: %w", err)
	}
	if account == nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(account.PasswordHash, []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return account, nil
}

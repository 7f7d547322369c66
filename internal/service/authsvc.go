package service

import (
	"context"
	"errors"
	"strings"

	"mindtrackserver/internal/auth"
	"mindtrackserver/internal/domain"
	"mindtrackserver/internal/store/postgres"

	"github.com/google/uuid"
)

type AccountsStore interface {
	CreateAccount(ctx context.Context, p postgres.CreateAccountParams) (domain.Account, error)
	GetAccountByID(ctx context.Context, id string) (domain.Account, error)
	GetAccountByEmail(ctx context.Context, email string) (domain.AccountWithPassword, error)
}

type AuthService struct {
	Accounts AccountsStore
	Hasher   auth.Hasher
	Tokens   *auth.TokenIssuer
}

// Register persists a new account in the unverified, inactive state and
// assigns its verification token. It returns the account, never a session:
// the caller cannot authenticate until the email is verified.
func (s *AuthService) Register(ctx context.Context, email, username, password string, profile domain.ProfilePatch) (domain.Account, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	username = strings.TrimSpace(username)

	passwordHash, err := s.Hasher.Hash(password)
	if err != nil {
		return domain.Account{}, err
	}

	a, err := s.Accounts.CreateAccount(ctx, postgres.CreateAccountParams{
		Email:             email,
		Username:          username,
		PasswordHash:      passwordHash,
		VerificationToken: uuid.NewString(),
		Profile:           profile,
	})
	if err != nil {
		return domain.Account{}, err
	}
	return a, nil
}

// Login checks credentials and the verification gate, in that order. Unknown
// email and wrong password collapse into ErrInvalidCredentials so responses
// cannot be used to enumerate accounts. A correct password on an unverified
// account still fails, with ErrEmailNotVerified.
func (s *AuthService) Login(ctx context.Context, email, password string) (domain.Account, auth.TokenPair, error) {
	email = strings.TrimSpace(strings.ToLower(email))

	a, err := s.Accounts.GetAccountByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Account{}, auth.TokenPair{}, domain.ErrInvalidCredentials
		}
		return domain.Account{}, auth.TokenPair{}, err
	}

	ok, err := s.Hasher.Compare(a.PasswordHash, password)
	if err != nil {
		return domain.Account{}, auth.TokenPair{}, err
	}
	if !ok {
		return domain.Account{}, auth.TokenPair{}, domain.ErrInvalidCredentials
	}

	if !a.IsEmailVerified {
		return domain.Account{}, auth.TokenPair{}, domain.ErrEmailNotVerified
	}

	pair, err := s.Tokens.IssuePair(a.ID)
	if err != nil {
		return domain.Account{}, auth.TokenPair{}, err
	}
	return a.Account, pair, nil
}

// Refresh exchanges a valid refresh token for a new access token.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	accountID, err := s.Tokens.ParseRefresh(refreshToken)
	if err != nil {
		return "", domain.ErrUnauthorized
	}

	// The account must still exist; a token for a vanished row is dead.
	if _, err := s.Accounts.GetAccountByID(ctx, accountID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", domain.ErrUnauthorized
		}
		return "", err
	}

	return s.Tokens.IssueAccess(accountID)
}

// AccountForAccessToken resolves the caller behind a bearer access token.
func (s *AuthService) AccountForAccessToken(ctx context.Context, accessToken string) (domain.Account, error) {
	accountID, err := s.Tokens.ParseAccess(accessToken)
	if err != nil {
		return domain.Account{}, domain.ErrUnauthorized
	}

	a, err := s.Accounts.GetAccountByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Account{}, domain.ErrUnauthorized
		}
		return domain.Account{}, err
	}
	return a, nil
}

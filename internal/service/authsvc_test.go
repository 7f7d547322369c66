package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"mindtrackserver/internal/auth"
	"mindtrackserver/internal/domain"
	"mindtrackserver/internal/store/postgres"
)

type stubAccountsStore struct {
	t *testing.T

	createAccountFunc func(context.Context, postgres.CreateAccountParams) (domain.Account, error)
	getByIDFunc       func(context.Context, string) (domain.Account, error)
	getByEmailFunc    func(context.Context, string) (domain.AccountWithPassword, error)
}

func (s *stubAccountsStore) CreateAccount(ctx context.Context, p postgres.CreateAccountParams) (domain.Account, error) {
	if s.createAccountFunc != nil {
		return s.createAccountFunc(ctx, p)
	}
	s.t.Fatalf("CreateAccount called unexpectedly")
	return domain.Account{}, errors.New("unexpected call")
}

func (s *stubAccountsStore) GetAccountByID(ctx context.Context, id string) (domain.Account, error) {
	if s.getByIDFunc != nil {
		return s.getByIDFunc(ctx, id)
	}
	s.t.Fatalf("GetAccountByID called unexpectedly")
	return domain.Account{}, errors.New("unexpected call")
}

func (s *stubAccountsStore) GetAccountByEmail(ctx context.Context, email string) (domain.AccountWithPassword, error) {
	if s.getByEmailFunc != nil {
		return s.getByEmailFunc(ctx, email)
	}
	s.t.Fatalf("GetAccountByEmail called unexpectedly")
	return domain.AccountWithPassword{}, errors.New("unexpected call")
}

func testTokenIssuer() *auth.TokenIssuer {
	return &auth.TokenIssuer{
		Secret:     []byte("test-secret-at-least-32-bytes-long!!"),
		AccessTTL:  15 * time.Minute,
		RefreshTTL: 24 * time.Hour,
	}
}

func TestRegisterCreatesUnverifiedAccount(t *testing.T) {
	var got postgres.CreateAccountParams

	store := &stubAccountsStore{
		t: t,
		createAccountFunc: func(_ context.Context, p postgres.CreateAccountParams) (domain.Account, error) {
			got = p
			return domain.Account{
				ID:                     "acct-1",
				Email:                  p.Email,
				Username:               p.Username,
				EmailVerificationToken: p.VerificationToken,
			}, nil
		},
	}
	svc := &AuthService{Accounts: store, Hasher: auth.NewArgon2idHasher(), Tokens: testTokenIssuer()}

	acct, err := svc.Register(context.Background(), "  Holly@Example.COM ", " holly ", "sup3r secret", domain.ProfilePatch{})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	if got.Email != "holly@example.com" {
		t.Fatalf("email not normalized: %q", got.Email)
	}
	if got.Username != "holly" {
		t.Fatalf("username not trimmed: %q", got.Username)
	}
	if got.PasswordHash == "" || got.PasswordHash == "sup3r secret" {
		t.Fatalf("password not hashed: %q", got.PasswordHash)
	}
	if got.VerificationToken == "" {
		t.Fatalf("expected a verification token")
	}
	if acct.IsEmailVerified || acct.IsActive {
		t.Fatalf("fresh account must be unverified and inactive")
	}
}

func TestRegisterVerificationTokensAreUnique(t *testing.T) {
	tokens := map[string]bool{}

	store := &stubAccountsStore{
		t: t,
		createAccountFunc: func(_ context.Context, p postgres.CreateAccountParams) (domain.Account, error) {
			tokens[p.VerificationToken] = true
			return domain.Account{ID: "acct", Email: p.Email}, nil
		},
	}
	svc := &AuthService{Accounts: store, Hasher: auth.NewArgon2idHasher(), Tokens: testTokenIssuer()}

	for i := 0; i < 3; i++ {
		if _, err := svc.Register(context.Background(), "a@example.com", "a", "sup3r secret", domain.ProfilePatch{}); err != nil {
			t.Fatalf("Register: %v", err)
		}
	}
	if len(tokens) != 3 {
		t.Fatalf("expected 3 distinct tokens, got %d", len(tokens))
	}
}

func TestRegisterPropagatesDuplicateEmail(t *testing.T) {
	store := &stubAccountsStore{
		t: t,
		createAccountFunc: func(context.Context, postgres.CreateAccountParams) (domain.Account, error) {
			return domain.Account{}, domain.ErrEmailTaken
		},
	}
	svc := &AuthService{Accounts: store, Hasher: auth.NewArgon2idHasher(), Tokens: testTokenIssuer()}

	_, err := svc.Register(context.Background(), "dup@example.com", "dup", "sup3r secret", domain.ProfilePatch{})
	if !errors.Is(err, domain.ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func loginFixture(t *testing.T, verified bool) (*AuthService, string) {
	t.Helper()

	hasher := auth.NewArgon2idHasher()
	hash, err := hasher.Hash("sup3r secret")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}

	store := &stubAccountsStore{
		t: t,
		getByEmailFunc: func(_ context.Context, email string) (domain.AccountWithPassword, error) {
			if email != "holly@example.com" {
				return domain.AccountWithPassword{}, domain.ErrNotFound
			}
			return domain.AccountWithPassword{
				Account: domain.Account{
					ID:              "acct-1",
					Email:           email,
					IsEmailVerified: verified,
					IsActive:        verified,
				},
				PasswordHash: hash,
			}, nil
		},
	}
	return &AuthService{Accounts: store, Hasher: hasher, Tokens: testTokenIssuer()}, "sup3r secret"
}

func TestLoginUnknownEmail(t *testing.T) {
	svc, password := loginFixture(t, true)

	_, _, err := svc.Login(context.Background(), "nobody@example.com", password)
	if !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	svc, _ := loginFixture(t, true)

	_, _, err := svc.Login(context.Background(), "holly@example.com", "wrong password")
	if !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestLoginUnverifiedAccount(t *testing.T) {
	svc, password := loginFixture(t, false)

	// Correct credentials still fail until the email is verified, and the
	// error is distinct from bad credentials.
	_, _, err := svc.Login(context.Background(), "holly@example.com", password)
	if !errors.Is(err, domain.ErrEmailNotVerified) {
		t.Fatalf("expected ErrEmailNotVerified, got %v", err)
	}
}

func TestLoginVerifiedAccountIssuesTokenPair(t *testing.T) {
	svc, password := loginFixture(t, true)

	acct, pair, err := svc.Login(context.Background(), "Holly@Example.com", password)
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if acct.ID != "acct-1" {
		t.Fatalf("account: got %q", acct.ID)
	}
	if pair.Access == "" || pair.Refresh == "" {
		t.Fatalf("expected a full token pair")
	}

	sub, err := svc.Tokens.ParseAccess(pair.Access)
	if err != nil || sub != "acct-1" {
		t.Fatalf("access token subject: %q, %v", sub, err)
	}
}

func TestRefreshIssuesNewAccessToken(t *testing.T) {
	issuer := testTokenIssuer()
	store := &stubAccountsStore{
		t: t,
		getByIDFunc: func(_ context.Context, id string) (domain.Account, error) {
			if id != "acct-1" {
				return domain.Account{}, domain.ErrNotFound
			}
			return domain.Account{ID: id}, nil
		},
	}
	svc := &AuthService{Accounts: store, Hasher: auth.NewArgon2idHasher(), Tokens: issuer}

	pair, err := issuer.IssuePair("acct-1")
	if err != nil {
		t.Fatalf("IssuePair: %v", err)
	}

	access, err := svc.Refresh(context.Background(), pair.Refresh)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	sub, err := issuer.ParseAccess(access)
	if err != nil || sub != "acct-1" {
		t.Fatalf("refreshed access token subject: %q, %v", sub, err)
	}
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	issuer := testTokenIssuer()
	svc := &AuthService{Accounts: &stubAccountsStore{t: t}, Hasher: auth.NewArgon2idHasher(), Tokens: issuer}

	pair, err := issuer.IssuePair("acct-1")
	if err != nil {
		t.Fatalf("IssuePair: %v", err)
	}

	_, err = svc.Refresh(context.Background(), pair.Access)
	if !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestRefreshRejectsVanishedAccount(t *testing.T) {
	issuer := testTokenIssuer()
	store := &stubAccountsStore{
		t: t,
		getByIDFunc: func(context.Context, string) (domain.Account, error) {
			return domain.Account{}, domain.ErrNotFound
		},
	}
	svc := &AuthService{Accounts: store, Hasher: auth.NewArgon2idHasher(), Tokens: issuer}

	pair, err := issuer.IssuePair("acct-gone")
	if err != nil {
		t.Fatalf("IssuePair: %v", err)
	}

	_, err = svc.Refresh(context.Background(), pair.Refresh)
	if !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

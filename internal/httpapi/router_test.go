package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"mindtrackserver/internal/auth"
	"mindtrackserver/internal/domain"
	"mindtrackserver/internal/service"
	"mindtrackserver/internal/store/postgres"

	"github.com/google/uuid"
)

// memAccountsStore is an in-memory stand-in for the postgres accounts store,
// enforcing the same uniqueness rules the real table does via constraints.
type memAccountsStore struct {
	mu       sync.Mutex
	seq      int
	accounts map[string]*domain.AccountWithPassword
}

func newMemAccountsStore() *memAccountsStore {
	return &memAccountsStore{accounts: map[string]*domain.AccountWithPassword{}}
}

func (s *memAccountsStore) CreateAccount(_ context.Context, p postgres.CreateAccountParams) (domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, a := range s.accounts {
		if a.Email == p.Email {
			return domain.Account{}, domain.ErrEmailTaken
		}
		if a.Username == p.Username {
			return domain.Account{}, domain.ErrUsernameTaken
		}
	}

	s.seq++
	now := time.Now().UTC()
	a := &domain.AccountWithPassword{
		Account: domain.Account{
			ID:                     fmt.Sprintf("acct-%d", s.seq),
			Email:                  p.Email,
			Username:               p.Username,
			EmailVerificationToken: p.VerificationToken,
			DateOfBirth:            p.Profile.DateOfBirth,
			CreatedAt:              now,
			UpdatedAt:              now,
		},
		PasswordHash: p.PasswordHash,
	}
	if p.Profile.Bio != nil {
		a.Bio = *p.Profile.Bio
	}
	if p.Profile.WellnessGoals != nil {
		a.WellnessGoals = *p.Profile.WellnessGoals
	}
	if p.Profile.StressLevel != nil {
		a.StressLevel = p.Profile.StressLevel
	}
	if p.Profile.PreferredActivities != nil {
		a.PreferredActivities = *p.Profile.PreferredActivities
	}
	s.accounts[a.ID] = a
	return a.Account, nil
}

func (s *memAccountsStore) GetAccountByID(_ context.Context, id string) (domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a, ok := s.accounts[id]; ok {
		return a.Account, nil
	}
	return domain.Account{}, domain.ErrNotFound
}

func (s *memAccountsStore) GetAccountByEmail(_ context.Context, email string) (domain.AccountWithPassword, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.accounts {
		if a.Email == email {
			return *a, nil
		}
	}
	return domain.AccountWithPassword{}, domain.ErrNotFound
}

func (s *memAccountsStore) GetAccountByVerificationToken(_ context.Context, token string) (domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.accounts {
		if a.EmailVerificationToken == token {
			return a.Account, nil
		}
	}
	return domain.Account{}, domain.ErrNotFound
}

func (s *memAccountsStore) MarkEmailVerified(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[id]
	if !ok {
		return domain.ErrNotFound
	}
	a.IsEmailVerified = true
	a.IsActive = true
	a.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *memAccountsStore) UpdateProfile(_ context.Context, id string, patch domain.ProfilePatch) (domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[id]
	if !ok {
		return domain.Account{}, domain.ErrNotFound
	}
	if patch.ProfilePicturePath != nil {
		a.ProfilePicturePath = *patch.ProfilePicturePath
	}
	if patch.DateOfBirth != nil {
		a.DateOfBirth = patch.DateOfBirth
	}
	if patch.Bio != nil {
		a.Bio = *patch.Bio
	}
	if patch.WellnessGoals != nil {
		a.WellnessGoals = *patch.WellnessGoals
	}
	if patch.StressLevel != nil {
		a.StressLevel = patch.StressLevel
	}
	if patch.PreferredActivities != nil {
		a.PreferredActivities = *patch.PreferredActivities
	}
	a.UpdatedAt = time.Now().UTC()
	return a.Account, nil
}

func (s *memAccountsStore) get(t *testing.T, id string) domain.AccountWithPassword {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[id]
	if !ok {
		t.Fatalf("account %s not in store", id)
	}
	return *a
}

func (s *memAccountsStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.accounts)
}

type testEnv struct {
	handler http.Handler
	store   *memAccountsStore
	issuer  *auth.TokenIssuer
	hasher  auth.Hasher
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store := newMemAccountsStore()
	issuer := &auth.TokenIssuer{
		Secret:     []byte("test-secret-at-least-32-bytes-long!!"),
		AccessTTL:  15 * time.Minute,
		RefreshTTL: 24 * time.Hour,
	}
	hasher := auth.NewArgon2idHasher()

	handler := NewRouter(RouterOpts{
		Auth:      &service.AuthService{Accounts: store, Hasher: hasher, Tokens: issuer},
		Verify:    &service.VerificationService{Store: store},
		Profile:   &service.ProfileService{Store: store},
		UploadDir: t.TempDir(),
	})
	return &testEnv{handler: handler, store: store, issuer: issuer, hasher: hasher}
}

// seedAccount inserts an account directly into the store, bypassing the
// registration handler.
func (e *testEnv) seedAccount(t *testing.T, email, username, password string, verified bool) domain.Account {
	t.Helper()

	hash, err := e.hasher.Hash(password)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	a, err := e.store.CreateAccount(context.Background(), postgres.CreateAccountParams{
		Email:             email,
		Username:          username,
		PasswordHash:      hash,
		VerificationToken: uuid.NewString(),
	})
	if err != nil {
		t.Fatalf("seed account: %v", err)
	}
	if verified {
		if err := e.store.MarkEmailVerified(context.Background(), a.ID); err != nil {
			t.Fatalf("mark verified: %v", err)
		}
		a, err = e.store.GetAccountByID(context.Background(), a.ID)
		if err != nil {
			t.Fatalf("reload account: %v", err)
		}
	}
	return a
}

func (e *testEnv) accessTokenFor(t *testing.T, accountID string) string {
	t.Helper()
	token, err := e.issuer.IssueAccess(accountID)
	if err != nil {
		t.Fatalf("issue access token: %v", err)
	}
	return token
}

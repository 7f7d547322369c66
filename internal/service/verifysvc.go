package service

import (
	"context"
	"errors"

	"mindtrackserver/internal/domain"
)

type VerificationStore interface {
	GetAccountByVerificationToken(ctx context.Context, token string) (domain.Account, error)
	MarkEmailVerified(ctx context.Context, id string) error
}

type VerifyResult int

const (
	// VerifyApplied means the account just transitioned to verified+active.
	VerifyApplied VerifyResult = iota
	// VerifyAlreadyDone means the account was verified before this call;
	// nothing was mutated.
	VerifyAlreadyDone
)

type VerificationService struct {
	Store VerificationStore
}

// Verify looks up the account holding the token and flips it to
// verified+active. The token is the whole credential here; no other
// authentication applies. Unknown tokens come back as ErrNotFound without
// revealing whether any account exists.
func (s *VerificationService) Verify(ctx context.Context, token string) (VerifyResult, error) {
	if token == "" {
		return 0, domain.ErrNotFound
	}

	a, err := s.Store.GetAccountByVerificationToken(ctx, token)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return 0, domain.ErrNotFound
		}
		return 0, err
	}

	if a.IsEmailVerified {
		return VerifyAlreadyDone, nil
	}

	if err := s.Store.MarkEmailVerified(ctx, a.ID); err != nil {
		return 0, err
	}
	return VerifyApplied, nil
}

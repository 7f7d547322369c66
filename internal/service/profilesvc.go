package service

import (
	"context"
	"strings"
	"time"

	"mindtrackserver/internal/domain"
)

const (
	maxBioLen                 = 500
	maxWellnessGoalsLen       = 1000
	maxPreferredActivitiesLen = 500
)

type ProfileStore interface {
	GetAccountByID(ctx context.Context, id string) (domain.Account, error)
	UpdateProfile(ctx context.Context, id string, patch domain.ProfilePatch) (domain.Account, error)
}

// ProfileService reads and updates the caller's own record. The account ID
// always comes from the authenticated identity, never from request input, so
// cross-account access is impossible by construction.
type ProfileService struct {
	Store ProfileStore
}

func (s *ProfileService) Get(ctx context.Context, accountID string) (domain.Account, error) {
	return s.Store.GetAccountByID(ctx, accountID)
}

// Update applies a partial patch. Only length bounds are enforced; the
// stress-level scale is deliberately not range-checked, matching the stored
// column's leniency.
func (s *ProfileService) Update(ctx context.Context, accountID string, patch domain.ProfilePatch) (domain.Account, error) {
	if fields := CheckProfilePatch(patch); len(fields) > 0 {
		return domain.Account{}, domain.NewValidationError(fields)
	}

	if patch.IsEmpty() {
		return s.Store.GetAccountByID(ctx, accountID)
	}
	return s.Store.UpdateProfile(ctx, accountID, patch)
}

// CheckProfilePatch returns per-field problems for the supplied fields of a
// patch. Registration reuses it for the optional profile payload.
func CheckProfilePatch(patch domain.ProfilePatch) map[string]string {
	fields := map[string]string{}
	if patch.Bio != nil && len(*patch.Bio) > maxBioLen {
		fields["bio"] = "must be 500 characters or less"
	}
	if patch.WellnessGoals != nil && len(*patch.WellnessGoals) > maxWellnessGoalsLen {
		fields["wellness_goals"] = "must be 1000 characters or less"
	}
	if patch.PreferredActivities != nil && len(*patch.PreferredActivities) > maxPreferredActivitiesLen {
		fields["preferred_activities"] = "must be 500 characters or less"
	}
	if patch.DateOfBirth != nil && patch.DateOfBirth.After(time.Now()) {
		fields["date_of_birth"] = "must not be in the future"
	}
	if patch.ProfilePicturePath != nil && strings.TrimSpace(*patch.ProfilePicturePath) == "" {
		fields["profile_picture"] = "file is required"
	}
	return fields
}

package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"mindtrackserver/internal/domain"
)

type stubProfileStore struct {
	t *testing.T

	getByIDFunc       func(context.Context, string) (domain.Account, error)
	updateProfileFunc func(context.Context, string, domain.ProfilePatch) (domain.Account, error)
}

func (s *stubProfileStore) GetAccountByID(ctx context.Context, id string) (domain.Account, error) {
	if s.getByIDFunc != nil {
		return s.getByIDFunc(ctx, id)
	}
	s.t.Fatalf("GetAccountByID called unexpectedly")
	return domain.Account{}, errors.New("unexpected call")
}

func (s *stubProfileStore) UpdateProfile(ctx context.Context, id string, patch domain.ProfilePatch) (domain.Account, error) {
	if s.updateProfileFunc != nil {
		return s.updateProfileFunc(ctx, id, patch)
	}
	s.t.Fatalf("UpdateProfile called unexpectedly")
	return domain.Account{}, errors.New("unexpected call")
}

func strPtr(s string) *string { return &s }

func TestUpdatePassesPatchThrough(t *testing.T) {
	var gotID string
	var gotPatch domain.ProfilePatch

	store := &stubProfileStore{
		t: t,
		updateProfileFunc: func(_ context.Context, id string, patch domain.ProfilePatch) (domain.Account, error) {
			gotID = id
			gotPatch = patch
			return domain.Account{ID: id, Bio: *patch.Bio}, nil
		},
	}
	svc := &ProfileService{Store: store}

	updated, err := svc.Update(context.Background(), "acct-1", domain.ProfilePatch{Bio: strPtr("hello")})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if gotID != "acct-1" {
		t.Fatalf("account id: got %q", gotID)
	}
	if gotPatch.Bio == nil || *gotPatch.Bio != "hello" {
		t.Fatalf("bio not passed through: %+v", gotPatch)
	}
	if gotPatch.WellnessGoals != nil || gotPatch.StressLevel != nil {
		t.Fatalf("unset fields must stay nil: %+v", gotPatch)
	}
	if updated.Bio != "hello" {
		t.Fatalf("updated bio: got %q", updated.Bio)
	}
}

func TestUpdateEmptyPatchReadsCurrentRecord(t *testing.T) {
	store := &stubProfileStore{
		t: t,
		getByIDFunc: func(_ context.Context, id string) (domain.Account, error) {
			return domain.Account{ID: id, Bio: "unchanged"}, nil
		},
		// updateProfileFunc left nil: an empty patch must not write.
	}
	svc := &ProfileService{Store: store}

	got, err := svc.Update(context.Background(), "acct-1", domain.ProfilePatch{})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got.Bio != "unchanged" {
		t.Fatalf("bio: got %q", got.Bio)
	}
}

func TestUpdateRejectsOverlongFields(t *testing.T) {
	svc := &ProfileService{Store: &stubProfileStore{t: t}}

	cases := map[string]domain.ProfilePatch{
		"bio":                  {Bio: strPtr(strings.Repeat("x", 501))},
		"wellness_goals":       {WellnessGoals: strPtr(strings.Repeat("x", 1001))},
		"preferred_activities": {PreferredActivities: strPtr(strings.Repeat("x", 501))},
	}

	for field, patch := range cases {
		t.Run(field, func(t *testing.T) {
			_, err := svc.Update(context.Background(), "acct-1", patch)
			var verr *domain.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if _, ok := verr.Fields[field]; !ok {
				t.Fatalf("expected error on %q, got %v", field, verr.Fields)
			}
		})
	}
}

func TestUpdateStressLevelNotRangeChecked(t *testing.T) {
	store := &stubProfileStore{
		t: t,
		updateProfileFunc: func(_ context.Context, id string, patch domain.ProfilePatch) (domain.Account, error) {
			return domain.Account{ID: id, StressLevel: patch.StressLevel}, nil
		},
	}
	svc := &ProfileService{Store: store}

	// 1-10 is the intended scale, but out-of-range values are stored as-is.
	level := 47
	got, err := svc.Update(context.Background(), "acct-1", domain.ProfilePatch{StressLevel: &level})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got.StressLevel == nil || *got.StressLevel != 47 {
		t.Fatalf("stress level: got %v", got.StressLevel)
	}
}

package domain

import "time"

// Account is the persisted identity and profile record for one user of the
// wellness tracker. Email is the login identifier; username is a required
// secondary handle.
type Account struct {
	ID       string
	Email    string
	Username string

	IsEmailVerified        bool
	IsActive               bool
	EmailVerificationToken string

	ProfilePicturePath  string
	DateOfBirth         *time.Time
	Bio                 string
	WellnessGoals       string
	StressLevel         *int
	PreferredActivities string

	CreatedAt time.Time
	UpdatedAt time.Time
}

type AccountWithPassword struct {
	Account
	PasswordHash string
}

// ProfilePatch carries a partial profile update. Nil fields are left
// untouched by the store.
type ProfilePatch struct {
	ProfilePicturePath  *string
	DateOfBirth         *time.Time
	Bio                 *string
	WellnessGoals       *string
	StressLevel         *int
	PreferredActivities *string
}

func (p ProfilePatch) IsEmpty() bool {
	return p.ProfilePicturePath == nil &&
		p.DateOfBirth == nil &&
		p.Bio == nil &&
		p.WellnessGoals == nil &&
		p.StressLevel == nil &&
		p.PreferredActivities == nil
}

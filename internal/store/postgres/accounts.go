package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"mindtrackserver/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

type AccountsStore struct {
	pool *pgxpool.Pool
}

func NewAccountsStore(pool *pgxpool.Pool) *AccountsStore {
	return &AccountsStore{pool: pool}
}

const accountColumns = `
	id, email, username,
	is_email_verified, is_active, email_verification_token,
	profile_picture_path, date_of_birth, bio,
	wellness_goals, stress_level, preferred_activities,
	created_at, updated_at
`

type CreateAccountParams struct {
	Email             string
	Username          string
	PasswordHash      string
	VerificationToken string
	Profile           domain.ProfilePatch
}

func (s *AccountsStore) CreateAccount(ctx context.Context, p CreateAccountParams) (domain.Account, error) {
	const q = `
		INSERT INTO accounts (
			email, username, password_hash, email_verification_token,
			date_of_birth, bio, wellness_goals, stress_level, preferred_activities
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING ` + accountColumns

	row := s.pool.QueryRow(ctx, q,
		p.Email,
		p.Username,
		p.PasswordHash,
		p.VerificationToken,
		p.Profile.DateOfBirth,
		textOrDefault(p.Profile.Bio),
		textOrDefault(p.Profile.WellnessGoals),
		p.Profile.StressLevel,
		textOrDefault(p.Profile.PreferredActivities),
	)
	a, err := scanAccount(row)
	if err != nil {
		return domain.Account{}, mapAccountWriteError(err)
	}
	return a, nil
}

func (s *AccountsStore) GetAccountByID(ctx context.Context, id string) (domain.Account, error) {
	const q = `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`

	a, err := scanAccount(s.pool.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Account{}, domain.ErrNotFound
		}
		return domain.Account{}, fmt.Errorf("get account by id: %w", err)
	}
	return a, nil
}

func (s *AccountsStore) GetAccountByEmail(ctx context.Context, email string) (domain.AccountWithPassword, error) {
	const q = `
		SELECT password_hash, ` + accountColumns + `
		FROM accounts
		WHERE email = $1
		LIMIT 1
	`

	var a domain.AccountWithPassword
	row := s.pool.QueryRow(ctx, q, email)
	err := scanInto(row, &a.Account, &a.PasswordHash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.AccountWithPassword{}, domain.ErrNotFound
		}
		return domain.AccountWithPassword{}, fmt.Errorf("get account by email: %w", err)
	}
	return a, nil
}

func (s *AccountsStore) GetAccountByVerificationToken(ctx context.Context, token string) (domain.Account, error) {
	const q = `SELECT ` + accountColumns + ` FROM accounts WHERE email_verification_token = $1 LIMIT 1`

	a, err := scanAccount(s.pool.QueryRow(ctx, q, token))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Account{}, domain.ErrNotFound
		}
		return domain.Account{}, fmt.Errorf("get account by verification token: %w", err)
	}
	return a, nil
}

// MarkEmailVerified flips the account to verified and active. Running it
// against an already-verified account is harmless.
func (s *AccountsStore) MarkEmailVerified(ctx context.Context, id string) error {
	const q = `
		UPDATE accounts
		SET is_email_verified = TRUE, is_active = TRUE, updated_at = now()
		WHERE id = $1
	`
	tag, err := s.pool.Exec(ctx, q, id)
	if err != nil {
		return fmt.Errorf("mark email verified: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// UpdateProfile applies only the non-nil fields of the patch and returns the
// resulting record.
func (s *AccountsStore) UpdateProfile(ctx context.Context, id string, patch domain.ProfilePatch) (domain.Account, error) {
	sets := []string{"updated_at = now()"}
	args := []any{id}

	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if patch.ProfilePicturePath != nil {
		add("profile_picture_path", *patch.ProfilePicturePath)
	}
	if patch.DateOfBirth != nil {
		add("date_of_birth", *patch.DateOfBirth)
	}
	if patch.Bio != nil {
		add("bio", *patch.Bio)
	}
	if patch.WellnessGoals != nil {
		add("wellness_goals", *patch.WellnessGoals)
	}
	if patch.StressLevel != nil {
		add("stress_level", *patch.StressLevel)
	}
	if patch.PreferredActivities != nil {
		add("preferred_activities", *patch.PreferredActivities)
	}

	q := `UPDATE accounts SET ` + strings.Join(sets, ", ") + ` WHERE id = $1 RETURNING ` + accountColumns

	a, err := scanAccount(s.pool.QueryRow(ctx, q, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Account{}, domain.ErrNotFound
		}
		return domain.Account{}, fmt.Errorf("update profile: %w", err)
	}
	return a, nil
}

func scanAccount(row pgx.Row) (domain.Account, error) {
	var a domain.Account
	if err := scanInto(row, &a); err != nil {
		return domain.Account{}, err
	}
	return a, nil
}

// scanInto scans the accountColumns set into a, optionally preceded by extra
// leading destinations (used to pull password_hash alongside).
func scanInto(row pgx.Row, a *domain.Account, leading ...any) error {
	var (
		idUUID     pgtype.UUID
		tokenUUID  pgtype.UUID
		picture    pgtype.Text
		dob        pgtype.Date
		bio        pgtype.Text
		goals      pgtype.Text
		stress     pgtype.Int4
		activities pgtype.Text
	)

	dest := append(leading,
		&idUUID,
		&a.Email,
		&a.Username,
		&a.IsEmailVerified,
		&a.IsActive,
		&tokenUUID,
		&picture,
		&dob,
		&bio,
		&goals,
		&stress,
		&activities,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err := row.Scan(dest...); err != nil {
		return err
	}

	a.ID = uuidOrEmpty(idUUID)
	a.EmailVerificationToken = uuidOrEmpty(tokenUUID)
	a.ProfilePicturePath = textOrEmpty(picture)
	a.DateOfBirth = datePtr(dob)
	a.Bio = textOrEmpty(bio)
	a.WellnessGoals = textOrEmpty(goals)
	a.StressLevel = int4Ptr(stress)
	a.PreferredActivities = textOrEmpty(activities)
	return nil
}

func textOrDefault(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func mapAccountWriteError(err error) error {
	var pgerr *pgconn.PgError
	if errors.As(err, &pgerr) && pgerr.Code == "23505" {
		switch pgerr.ConstraintName {
		case "accounts_email_uq":
			return domain.ErrEmailTaken
		case "accounts_username_uq":
			return domain.ErrUsernameTaken
		default:
			return fmt.Errorf("unique violation (%s): %w", pgerr.ConstraintName, err)
		}
	}
	return fmt.Errorf("create account: %w", err)
}

package httpapi

import (
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"mindtrackserver/internal/domain"
	"mindtrackserver/internal/service"
)

type registerRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`

	DateOfBirth         *string `json:"date_of_birth"`
	Bio                 *string `json:"bio"`
	WellnessGoals       *string `json:"wellness_goals"`
	StressLevel         *int    `json:"stress_level"`
	PreferredActivities *string `json:"preferred_activities"`
}

type registerResponse struct {
	Message string `json:"message"`
	Email   string `json:"email"`
}

func (a *api) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "bad_json", "invalid json")
		return
	}

	fields := map[string]string{}
	req.Email = normalizeEmail(req.Email)
	req.Username = strings.TrimSpace(req.Username)
	if !validEmail(req.Email) {
		fields["email"] = "must be a valid email"
	}
	if !validUsername(req.Username) {
		fields["username"] = "must be 3-30 chars [A-Za-z0-9_.-]"
	}
	if msg := checkPassword(req.Password); msg != "" {
		fields["password"] = msg
	}

	patch := domain.ProfilePatch{
		Bio:                 req.Bio,
		WellnessGoals:       req.WellnessGoals,
		StressLevel:         req.StressLevel,
		PreferredActivities: req.PreferredActivities,
	}
	if req.DateOfBirth != nil {
		dob, err := time.Parse("2006-01-02", *req.DateOfBirth)
		if err != nil {
			fields["date_of_birth"] = "must be a YYYY-MM-DD date"
		} else {
			patch.DateOfBirth = &dob
		}
	}
	for k, v := range service.CheckProfilePatch(patch) {
		fields[k] = v
	}
	if len(fields) > 0 {
		WriteFieldErrors(w, fields)
		return
	}

	acct, err := a.authSvc.Register(r.Context(), req.Email, req.Username, req.Password, patch)
	if err != nil {
		if errors.Is(err, domain.ErrEmailTaken) || errors.Is(err, domain.ErrUsernameTaken) {
			WriteDomainError(w, err)
			return
		}
		// Unexpected persistence failures surface as a generic 400 with the
		// raw error text. Inherited behavior; see the design notes.
		WriteError(w, http.StatusBadRequest, "registration_failed", err.Error())
		return
	}

	a.sendVerificationEmail(r, acct)

	WriteJSON(w, http.StatusCreated, registerResponse{
		Message: "registered, check your email for the verification link",
		Email:   acct.Email,
	})
}

func (a *api) sendVerificationEmail(r *http.Request, acct domain.Account) {
	if a.mailer == nil {
		return
	}
	verifyURL := a.verifyLink(r, acct.EmailVerificationToken)
	if err := a.mailer.SendVerificationEmail(r.Context(), acct.Email, verifyURL); err != nil {
		a.logger.Error("send verification email failed", "err", err, "account_id", acct.ID)
	}
}

func (a *api) verifyLink(r *http.Request, token string) string {
	if a.publicURL != nil {
		u := *a.publicURL
		u.Path = "/verify-email/" + url.PathEscape(token)
		return u.String()
	}
	scheme := "http"
	if forwarded := r.Header.Get("X-Forwarded-Proto"); forwarded != "" {
		scheme = forwarded
	}
	return scheme + "://" + r.Host + "/verify-email/" + url.PathEscape(token)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (a *api) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "bad_json", "invalid json")
		return
	}

	req.Email = normalizeEmail(req.Email)
	if req.Email == "" || req.Password == "" {
		WriteDomainError(w, domain.NewValidationError(map[string]string{"email": "required", "password": "required"}))
		return
	}

	_, pair, err := a.authSvc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		WriteDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, pair)
}

type refreshRequest struct {
	Refresh string `json:"refresh"`
}

type refreshResponse struct {
	Access string `json:"access"`
}

func (a *api) handleTokenRefresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "bad_json", "invalid json")
		return
	}
	if strings.TrimSpace(req.Refresh) == "" {
		WriteDomainError(w, domain.NewValidationError(map[string]string{"refresh": "required"}))
		return
	}

	access, err := a.authSvc.Refresh(r.Context(), req.Refresh)
	if err != nil {
		WriteDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, refreshResponse{Access: access})
}

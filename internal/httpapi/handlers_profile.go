package httpapi

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"mindtrackserver/internal/domain"
)

type accountResponse struct {
	ID                  string  `json:"id"`
	Email               string  `json:"email"`
	Username            string  `json:"username"`
	IsEmailVerified     bool    `json:"is_email_verified"`
	IsActive            bool    `json:"is_active"`
	ProfilePicture      string  `json:"profile_picture,omitempty"`
	ProfilePictureURL   string  `json:"profile_picture_url,omitempty"`
	DateOfBirth         *string `json:"date_of_birth"`
	Bio                 string  `json:"bio"`
	WellnessGoals       string  `json:"wellness_goals"`
	StressLevel         *int    `json:"stress_level"`
	PreferredActivities string  `json:"preferred_activities"`
	CreatedAt           string  `json:"created_at"`
	UpdatedAt           string  `json:"updated_at"`
}

func writeAccount(w http.ResponseWriter, status int, a domain.Account) {
	resp := accountResponse{
		ID:                  a.ID,
		Email:               a.Email,
		Username:            a.Username,
		IsEmailVerified:     a.IsEmailVerified,
		IsActive:            a.IsActive,
		ProfilePicture:      a.ProfilePicturePath,
		ProfilePictureURL:   pictureURL(a.ProfilePicturePath),
		DateOfBirth:         formatDatePtr(a.DateOfBirth),
		Bio:                 a.Bio,
		WellnessGoals:       a.WellnessGoals,
		StressLevel:         a.StressLevel,
		PreferredActivities: a.PreferredActivities,
		CreatedAt:           a.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:           a.UpdatedAt.UTC().Format(time.RFC3339),
	}
	WriteJSON(w, status, resp)
}

func (a *api) handleProfileGet(w http.ResponseWriter, r *http.Request) {
	acct, ok := CurrentAccount(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrUnauthorized)
		return
	}
	writeAccount(w, http.StatusOK, acct)
}

type updateProfileRequest struct {
	DateOfBirth         *string `json:"date_of_birth"`
	Bio                 *string `json:"bio"`
	WellnessGoals       *string `json:"wellness_goals"`
	StressLevel         *int    `json:"stress_level"`
	PreferredActivities *string `json:"preferred_activities"`
}

// handleProfileUpdate applies a partial update to the caller's own record.
// It accepts JSON, or multipart form data when a replacement profile picture
// rides along. Fields absent from the payload are left untouched.
func (a *api) handleProfileUpdate(w http.ResponseWriter, r *http.Request) {
	acct, ok := CurrentAccount(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrUnauthorized)
		return
	}

	var (
		patch       domain.ProfilePatch
		savedPath   string
		parseFields map[string]string
	)
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		var err error
		patch, savedPath, parseFields, err = a.parseMultipartPatch(w, r, acct)
		if err != nil {
			return // response already written
		}
	} else {
		var req updateProfileRequest
		if err := decodeJSON(w, r, &req); err != nil {
			WriteError(w, http.StatusBadRequest, "bad_json", "invalid json")
			return
		}
		patch = domain.ProfilePatch{
			Bio:                 req.Bio,
			WellnessGoals:       req.WellnessGoals,
			StressLevel:         req.StressLevel,
			PreferredActivities: req.PreferredActivities,
		}
		parseFields = map[string]string{}
		if req.DateOfBirth != nil {
			dob, err := time.Parse("2006-01-02", *req.DateOfBirth)
			if err != nil {
				parseFields["date_of_birth"] = "must be a YYYY-MM-DD date"
			} else {
				patch.DateOfBirth = &dob
			}
		}
	}
	if len(parseFields) > 0 {
		a.discardUpload(savedPath)
		WriteFieldErrors(w, parseFields)
		return
	}

	updated, err := a.profileSvc.Update(r.Context(), acct.ID, patch)
	if err != nil {
		a.discardUpload(savedPath)
		WriteDomainError(w, err)
		return
	}

	if savedPath != "" && acct.ProfilePicturePath != "" && acct.ProfilePicturePath != savedPath {
		_ = os.Remove(filepath.Join(a.uploadDir, acct.ProfilePicturePath))
	}

	writeAccount(w, http.StatusOK, updated)
}

const maxPictureSize = 8 << 20

// parseMultipartPatch reads form fields and, when present, stores the
// uploaded profile picture and sets its reference on the patch first, ahead
// of the remaining field validation. On error it writes the response itself.
func (a *api) parseMultipartPatch(w http.ResponseWriter, r *http.Request, acct domain.Account) (domain.ProfilePatch, string, map[string]string, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxPictureSize)
	if err := r.ParseMultipartForm(maxPictureSize); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_form", "form payload is invalid or too large")
		return domain.ProfilePatch{}, "", nil, err
	}

	var patch domain.ProfilePatch
	var savedPath string

	file, header, err := r.FormFile("profile_picture")
	if err == nil {
		defer file.Close()
		savedPath, err = a.storePicture(file, header.Filename, acct.ID)
		if err != nil {
			a.logger.Error("store profile picture failed", "err", err)
			WriteError(w, http.StatusBadRequest, "invalid_picture", "profile picture must be a valid image file")
			return domain.ProfilePatch{}, "", nil, err
		}
		patch.ProfilePicturePath = &savedPath
	} else if err != http.ErrMissingFile {
		WriteError(w, http.StatusBadRequest, "invalid_picture", "profile picture upload is invalid")
		return domain.ProfilePatch{}, "", nil, err
	}

	fields := map[string]string{}
	formValue := func(key string) (string, bool) {
		vals, ok := r.MultipartForm.Value[key]
		if !ok || len(vals) == 0 {
			return "", false
		}
		return vals[0], true
	}

	if raw, ok := formValue("date_of_birth"); ok {
		dob, err := time.Parse("2006-01-02", raw)
		if err != nil {
			fields["date_of_birth"] = "must be a YYYY-MM-DD date"
		} else {
			patch.DateOfBirth = &dob
		}
	}
	if raw, ok := formValue("bio"); ok {
		patch.Bio = &raw
	}
	if raw, ok := formValue("wellness_goals"); ok {
		patch.WellnessGoals = &raw
	}
	if raw, ok := formValue("stress_level"); ok {
		n, err := strconv.Atoi(raw)
		if err != nil {
			fields["stress_level"] = "must be an integer"
		} else {
			patch.StressLevel = &n
		}
	}
	if raw, ok := formValue("preferred_activities"); ok {
		patch.PreferredActivities = &raw
	}

	return patch, savedPath, fields, nil
}

// storePicture writes the upload under the upload dir via a temp file and
// rename, and returns the stored reference (the bare filename).
func (a *api) storePicture(file io.Reader, originalName, accountID string) (string, error) {
	content, err := io.ReadAll(io.LimitReader(file, maxPictureSize))
	if err != nil {
		return "", fmt.Errorf("read picture: %w", err)
	}
	if _, _, err := image.DecodeConfig(bytes.NewReader(content)); err != nil {
		return "", fmt.Errorf("decode picture: %w", err)
	}

	if err := os.MkdirAll(a.uploadDir, 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(originalName))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".gif":
	default:
		ext = ".img"
	}
	filename := fmt.Sprintf("%s-%d%s", accountID, time.Now().UnixNano(), ext)

	tmp, err := os.CreateTemp(a.uploadDir, "picture-*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	if _, err := tmp.Write(content); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return "", fmt.Errorf("write picture: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return "", fmt.Errorf("close picture: %w", err)
	}
	target := filepath.Join(a.uploadDir, filename)
	if err := os.Rename(tmp.Name(), target); err != nil {
		_ = os.Remove(tmp.Name())
		return "", fmt.Errorf("rename picture: %w", err)
	}
	_ = os.Chmod(target, 0o644)

	return filename, nil
}

func (a *api) discardUpload(savedPath string) {
	if savedPath == "" {
		return
	}
	_ = os.Remove(filepath.Join(a.uploadDir, savedPath))
}

func pictureURL(path string) string {
	if path == "" {
		return ""
	}
	return "/media/profile_pictures/" + url.PathEscape(path)
}

func formatDatePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format("2006-01-02")
	return &s
}

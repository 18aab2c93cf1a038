// internal/app/features/profile/profile.go
package profile

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	uierrors "github.com/dalemusser/clubhub/internal/app/features/errors"
	userstore "github.com/dalemusser/clubhub/internal/app/store/users"
	"github.com/dalemusser/clubhub/internal/app/system/authutil"
	"github.com/dalemusser/clubhub/internal/app/system/authz"
	"github.com/dalemusser/clubhub/internal/app/system/formutil"
	"github.com/dalemusser/clubhub/internal/app/system/limits"
	"github.com/dalemusser/clubhub/internal/app/system/normalize"
	"github.com/dalemusser/clubhub/internal/app/system/timeouts"
	"github.com/dalemusser/clubhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
)

// profileData is the body of GET /profile.
type profileData struct {
	ID              string `json:"id"`
	DisplayName     string `json:"display_name"`
	Email           string `json:"email"`
	AuthMethod      string `json:"auth_method"`
	Role            string `json:"role"`
	ClubID          string `json:"club_id,omitempty"`
	Phone           string `json:"phone"`
	DOB             string `json:"dob"`
	Gender          string `json:"gender"`
	Stream          string `json:"stream"`
	Course          string `json:"course"`
	ProfileComplete bool   `json:"profile_complete"`

	// Password section (only for password auth)
	CanChangePassword bool   `json:"can_change_password"`
	PasswordRules     string `json:"password_rules,omitempty"`
}

type profileInput struct {
	DisplayName string `json:"display_name"`
	Phone       string `json:"phone"`
	DOB         string `json:"dob"`
	Gender      string `json:"gender"`
	Stream      string `json:"stream"`
	Course      string `json:"course"`
}

type passwordInput struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
	ConfirmPassword string `json:"confirm_password"`
}

var genders = map[string]bool{"": true, "female": true, "male": true, "other": true, "unspecified": true}

func toProfileData(u *models.User) profileData {
	d := profileData{
		ID:              u.ID.Hex(),
		DisplayName:     u.DisplayName,
		Email:           u.Email,
		AuthMethod:      normalize.AuthMethod(u.AuthMethod),
		Role:            normalize.Role(u.Role),
		Phone:           u.Phone,
		DOB:             u.DOB,
		Gender:          u.Gender,
		Stream:          u.Stream,
		Course:          u.Course,
		ProfileComplete: u.ProfileComplete(),
	}
	if u.ClubID != nil {
		d.ClubID = u.ClubID.Hex()
	}
	if d.AuthMethod == "password" {
		d.CanChangePassword = true
		d.PasswordRules = authutil.PasswordRules()
	}
	return d
}

// validate returns a user-facing message for the first bad field, or "".
func (in *profileInput) validate() string {
	in.Phone = normalize.Text(in.Phone)
	in.Stream = normalize.Text(in.Stream)
	in.Course = normalize.Text(in.Course)
	in.DOB = normalize.Text(in.DOB)
	in.Gender = strings.ToLower(normalize.Text(in.Gender))

	switch {
	case in.Phone == "":
		return "Phone is required."
	case len(in.Phone) > 32:
		return "Phone is too long."
	case in.Stream == "":
		return "Stream is required."
	case in.Course == "":
		return "Course is required."
	case !genders[in.Gender]:
		return "Gender must be female, male, other or unspecified."
	}
	if in.DOB != "" {
		dob, err := time.Parse("2006-01-02", in.DOB)
		if err != nil {
			return "Date of birth must be YYYY-MM-DD."
		}
		if dob.After(time.Now()) {
			return "Date of birth cannot be in the future."
		}
	}
	return ""
}

// ServeProfile returns the signed-in user's profile.
func (h *Handler) ServeProfile(w http.ResponseWriter, r *http.Request) {
	_, _, uid, ok := authz.UserCtx(r)
	if !ok {
		uierrors.Unauthenticated(w)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	user, err := userstore.New(h.DB).GetByID(ctx, uid)
	if errors.Is(err, mongo.ErrNoDocuments) {
		uierrors.NotFound(w, "User not found.")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load profile failed", err, "Failed to load profile.")
		return
	}

	uierrors.WriteJSON(w, http.StatusOK, toProfileData(user))
}

// HandleUpdateProfile completes or edits the profile fields.
func (h *Handler) HandleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	_, _, uid, ok := authz.UserCtx(r)
	if !ok {
		uierrors.Unauthenticated(w)
		return
	}

	var in profileInput
	if err := formutil.DecodeJSON(w, r, &in, limits.MaxJSONBody); err != nil {
		h.ErrLog.LogBadRequest(w, r, "decode profile body failed", err, err.Error())
		return
	}
	if msg := in.validate(); msg != "" {
		uierrors.BadRequest(w, msg)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	usrStore := userstore.New(h.DB)
	err := usrStore.UpdateProfile(ctx, uid, userstore.ProfileUpdate{
		DisplayName: in.DisplayName,
		Phone:       in.Phone,
		DOB:         in.DOB,
		Gender:      in.Gender,
		Stream:      in.Stream,
		Course:      in.Course,
	})
	if errors.Is(err, mongo.ErrNoDocuments) {
		uierrors.NotFound(w, "User not found.")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "update profile failed", err, "Failed to save profile.")
		return
	}

	user, err := usrStore.GetByID(ctx, uid)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "reload profile failed", err, "Failed to load profile.")
		return
	}
	uierrors.WriteJSON(w, http.StatusOK, toProfileData(user))
}

// HandleChangePassword changes the password of a password-auth user.
func (h *Handler) HandleChangePassword(w http.ResponseWriter, r *http.Request) {
	_, _, uid, ok := authz.UserCtx(r)
	if !ok {
		uierrors.Unauthenticated(w)
		return
	}

	var in passwordInput
	if err := formutil.DecodeJSON(w, r, &in, limits.MaxJSONBody); err != nil {
		h.ErrLog.LogBadRequest(w, r, "decode password body failed", err, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	usrStore := userstore.New(h.DB)
	user, err := usrStore.GetByID(ctx, uid)
	if err != nil {
		uierrors.NotFound(w, "User not found.")
		return
	}

	if normalize.AuthMethod(user.AuthMethod) != "password" {
		uierrors.BadRequest(w, "Password change is only available for password authentication.")
		return
	}
	if !authutil.CheckPassword(in.CurrentPassword, user.PasswordHash) {
		uierrors.BadRequest(w, "Current password is incorrect.")
		return
	}
	if err := authutil.ValidatePassword(in.NewPassword); err != nil {
		uierrors.BadRequest(w, err.Error())
		return
	}
	if in.NewPassword != in.ConfirmPassword {
		uierrors.BadRequest(w, "New passwords do not match.")
		return
	}
	if authutil.CheckPassword(in.NewPassword, user.PasswordHash) {
		uierrors.BadRequest(w, "New password cannot be the same as your current password.")
		return
	}

	hash, err := authutil.HashPassword(in.NewPassword)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "hash password failed", err, "Failed to update password.")
		return
	}
	if err := usrStore.SetPasswordHash(ctx, uid, hash); err != nil {
		h.ErrLog.LogServerError(w, r, "update password failed", err, "Failed to update password.")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

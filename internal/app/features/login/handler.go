// internal/app/features/login/handler.go
package login

import (
	"context"
	"errors"
	"net/http"
	"strings"

	uierrors "github.com/dalemusser/clubhub/internal/app/features/errors"
	userstore "github.com/dalemusser/clubhub/internal/app/store/users"
	"github.com/dalemusser/clubhub/internal/app/system/auditlog"
	"github.com/dalemusser/clubhub/internal/app/system/auth"
	"github.com/dalemusser/clubhub/internal/app/system/authutil"
	"github.com/dalemusser/clubhub/internal/app/system/formutil"
	"github.com/dalemusser/clubhub/internal/app/system/limits"
	"github.com/dalemusser/clubhub/internal/app/system/normalize"
	"github.com/dalemusser/clubhub/internal/app/system/ratelimit"
	"github.com/dalemusser/clubhub/internal/app/system/timeouts"
	"github.com/dalemusser/clubhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/urlutil"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const defaultReturn = "/clubs"

type Handler struct {
	DB            *mongo.Database
	Log           *zap.Logger
	SessionMgr    *auth.SessionManager
	ErrLog        *uierrors.ErrorLogger
	AuditLog      *auditlog.Logger
	Limiter       *ratelimit.LoginLimiter
	GoogleEnabled bool // True if Google OAuth is configured
}

func NewHandler(
	db *mongo.Database,
	sessionMgr *auth.SessionManager,
	errLog *uierrors.ErrorLogger,
	audit *auditlog.Logger,
	limiter *ratelimit.LoginLimiter,
	googleEnabled bool,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		DB:            db,
		Log:           logger,
		SessionMgr:    sessionMgr,
		ErrLog:        errLog,
		AuditLog:      audit,
		Limiter:       limiter,
		GoogleEnabled: googleEnabled,
	}
}

type loginOptions struct {
	GoogleEnabled bool   `json:"google_enabled"`
	PasswordRules string `json:"password_rules"`
	Return        string `json:"return,omitempty"`
}

type credentials struct {
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	Return      string `json:"return"`
}

type userJSON struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	ClubID string `json:"club_id,omitempty"`
}

type signedIn struct {
	User            userJSON `json:"user"`
	ProfileComplete bool     `json:"profile_complete"`
	Redirect        string   `json:"redirect"`
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /login                                                                  |
*─────────────────────────────────────────────────────────────────────────────*/

// ServeLogin describes the sign-in options.
func (h *Handler) ServeLogin(w http.ResponseWriter, r *http.Request) {
	uierrors.WriteJSON(w, http.StatusOK, loginOptions{
		GoogleEnabled: h.GoogleEnabled,
		PasswordRules: authutil.PasswordRules(),
		Return:        r.URL.Query().Get("return"),
	})
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /login                                                                 |
*─────────────────────────────────────────────────────────────────────────────*/

// HandleLoginPost signs in with email and password.
func (h *Handler) HandleLoginPost(w http.ResponseWriter, r *http.Request) {
	var in credentials
	if err := formutil.DecodeJSON(w, r, &in, limits.MaxJSONBody); err != nil {
		h.ErrLog.LogBadRequest(w, r, "decode login body failed", err, err.Error())
		return
	}
	email := normalize.Email(in.Email)
	if email == "" || in.Password == "" {
		uierrors.BadRequest(w, "Email and password are required.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if h.Limiter != nil {
		if ok, reason := h.Limiter.Check(r, email); !ok {
			h.AuditLog.LoginFailedRateLimit(ctx, r, email)
			uierrors.RateLimited(w, reason)
			return
		}
	}

	u, err := userstore.New(h.DB).GetByEmail(ctx, email)
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		h.AuditLog.LoginFailedUserNotFound(ctx, r, email)
		uierrors.WriteError(w, http.StatusUnauthorized, uierrors.CodeUnauthenticated, "Email or password is incorrect.")
		return
	case err != nil:
		h.ErrLog.LogServerError(w, r, "DB find user", err, "A server error occurred.")
		return
	}

	if !authutil.CheckPassword(in.Password, u.PasswordHash) {
		h.AuditLog.LoginFailedWrongPassword(ctx, r, u.ID)
		msg := "Email or password is incorrect."
		if u.PasswordHash == "" && normalize.AuthMethod(u.AuthMethod) == "google" && h.GoogleEnabled {
			msg = "This account signs in with Google."
		}
		uierrors.WriteError(w, http.StatusUnauthorized, uierrors.CodeUnauthenticated, msg)
		return
	}

	if h.Limiter != nil {
		h.Limiter.ResetEmail(email)
	}
	h.createSession(w, r, u, "password", in.Return, http.StatusOK)
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /login/signup                                                          |
*─────────────────────────────────────────────────────────────────────────────*/

// HandleSignUp creates a visitor account with a password and signs it in.
func (h *Handler) HandleSignUp(w http.ResponseWriter, r *http.Request) {
	var in credentials
	if err := formutil.DecodeJSON(w, r, &in, limits.MaxJSONBody); err != nil {
		h.ErrLog.LogBadRequest(w, r, "decode signup body failed", err, err.Error())
		return
	}
	email := normalize.Email(in.Email)
	if !authutil.IsValidEmail(email) {
		uierrors.BadRequest(w, "Please enter a valid email address.")
		return
	}
	if err := authutil.ValidatePassword(in.Password); err != nil {
		uierrors.BadRequest(w, err.Error())
		return
	}
	if h.Limiter != nil {
		if ok, reason := h.Limiter.Check(r, email); !ok {
			uierrors.RateLimited(w, reason)
			return
		}
	}

	hash, err := authutil.HashPassword(in.Password)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "hash password failed", err, "Failed to create account.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := userstore.New(h.DB).Create(ctx, models.User{
		DisplayName:  in.DisplayName,
		Email:        email,
		AuthMethod:   "password",
		PasswordHash: hash,
	})
	if errors.Is(err, userstore.ErrDuplicateEmail) {
		uierrors.Conflict(w, "An account with this email already exists.")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "create user failed", err, "Failed to create account.")
		return
	}

	h.AuditLog.SignUp(ctx, r, u.ID, "password")
	h.createSession(w, r, &u, "password", in.Return, http.StatusCreated)
}

// createSession writes the session cookie and answers with the signed-in user.
func (h *Handler) createSession(w http.ResponseWriter, r *http.Request, u *models.User, method, returnURL string, status int) {
	su := userstore.ToSessionUser(*u)
	if err := h.SessionMgr.SignIn(w, r, su); err != nil {
		h.ErrLog.LogServerError(w, r, "save session failed", err, "Unable to create session. Please try again.")
		return
	}

	h.AuditLog.LoginSuccess(r.Context(), r, u.ID, method)

	dest := urlutil.SafeReturn(strings.TrimSpace(returnURL), "", defaultReturn)
	if !u.ProfileComplete() {
		dest = "/profile"
	}
	uierrors.WriteJSON(w, status, signedIn{
		User: userJSON{
			ID:     su.ID,
			Name:   su.Name,
			Email:  su.Email,
			Role:   su.Role,
			ClubID: su.ClubID,
		},
		ProfileComplete: u.ProfileComplete(),
		Redirect:        dest,
	})
}

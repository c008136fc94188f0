// internal/app/features/login/handler.go
package login

import (
	"errors"
	"net/http"
	"time"

	uierrors "github.com/Elqomdes/hedeflynet/internal/app/features/errors"
	"github.com/Elqomdes/hedeflynet/internal/app/features/shared"
	"github.com/Elqomdes/hedeflynet/internal/app/store/audit"
	userstore "github.com/Elqomdes/hedeflynet/internal/app/store/users"
	"github.com/Elqomdes/hedeflynet/internal/app/system/auditlog"
	"github.com/Elqomdes/hedeflynet/internal/app/system/auth"
	"github.com/Elqomdes/hedeflynet/internal/app/system/ratelimit"
	"github.com/Elqomdes/hedeflynet/internal/app/system/respond"
	"github.com/Elqomdes/hedeflynet/internal/app/system/timeouts"
	"github.com/Elqomdes/hedeflynet/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Handler struct {
	Users      *userstore.Store
	Log        *zap.Logger
	SessionMgr *auth.SessionManager
	ErrLog     *uierrors.ErrorLogger
	Limiter    *ratelimit.LoginLimiter
	AuditLog   *auditlog.Logger
}

func NewHandler(db *mongo.Database, sm *auth.SessionManager, limiter *ratelimit.LoginLimiter, audit *auditlog.Logger, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Users:      userstore.New(db),
		Log:        logger,
		SessionMgr: sm,
		ErrLog:     errLog,
		Limiter:    limiter,
		AuditLog:   audit,
	}
}

type credentials struct {
	Email    string `json:"email" validate:"required,email" label:"Email"`
	Password string `json:"password" validate:"required,max=128" label:"Password"`
}

type loginResponse struct {
	User *models.User `json:"user"`
}

type tokenResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *models.User `json:"user"`
}

// authenticate checks the posted credentials. It writes the error response
// itself and returns nil when the request must stop.
func (h *Handler) authenticate(w http.ResponseWriter, r *http.Request) *models.User {
	var in credentials
	if !shared.Bind(w, r, &in) {
		return nil
	}

	if h.Limiter != nil {
		if ok, msg := h.Limiter.Check(r, in.Email); !ok {
			h.AuditLog.LoginFailed(r.Context(), r, audit.EventLoginFailedRateLimit, nil, in.Email, "rate limited")
			respond.Error(w, http.StatusTooManyRequests, msg)
			return nil
		}
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "login lookup")
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, in.Email)
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		h.AuditLog.LoginFailed(ctx, r, audit.EventLoginFailedUserNotFound, nil, in.Email, "no such user")
		respond.Error(w, http.StatusUnauthorized, "Invalid email or password.")
		return nil
	case err != nil:
		h.ErrLog.LogServerError(w, r, "login: user lookup failed", err, "")
		return nil
	}

	if !userstore.CheckPassword(u, in.Password) {
		h.AuditLog.LoginFailed(ctx, r, audit.EventLoginFailedWrongPassword, &u.ID, in.Email, "wrong password")
		respond.Error(w, http.StatusUnauthorized, "Invalid email or password.")
		return nil
	}
	if !u.IsActive {
		h.AuditLog.LoginFailed(ctx, r, audit.EventLoginFailedUserDisabled, &u.ID, in.Email, "account disabled")
		respond.Error(w, http.StatusForbidden, "This account is disabled.")
		return nil
	}

	if h.Limiter != nil {
		h.Limiter.ResetEmail(in.Email)
	}
	if err := h.Users.TouchLastLogin(ctx, u.ID); err != nil {
		h.Log.Warn("login: touch last_login_at failed", zap.Error(err), zap.String("user_id", u.ID.Hex()))
	}
	return u
}

// HandleLogin signs the caller in with a session cookie.
// POST /api/auth/login
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	u := h.authenticate(w, r)
	if u == nil {
		return
	}
	if err := h.SessionMgr.SignIn(w, r, u.ID.Hex()); err != nil {
		h.ErrLog.LogServerError(w, r, "login: save session failed", err, "")
		return
	}
	h.AuditLog.LoginSuccess(r.Context(), r, u.ID, "password")
	respond.JSON(w, http.StatusOK, loginResponse{User: u})
}

// HandleToken issues a bearer token for API clients.
// POST /api/auth/token
func (h *Handler) HandleToken(w http.ResponseWriter, r *http.Request) {
	tokens := h.SessionMgr.Tokens()
	if tokens == nil {
		respond.Error(w, http.StatusNotFound, "Token authentication is not enabled.")
		return
	}
	u := h.authenticate(w, r)
	if u == nil {
		return
	}
	tok, exp, err := tokens.Issue(u.ID.Hex(), u.Role)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "login: sign token failed", err, "")
		return
	}
	h.AuditLog.TokenIssued(r.Context(), r, u.ID)
	respond.JSON(w, http.StatusOK, tokenResponse{Token: tok, ExpiresAt: exp, User: u})
}

// ServeMe returns the signed-in user.
// GET /api/auth/me
func (h *Handler) ServeMe(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "me lookup")
	defer cancel()

	u, err := h.Users.GetByID(ctx, shared.UserID(r))
	if errors.Is(err, mongo.ErrNoDocuments) {
		respond.Error(w, http.StatusUnauthorized, "Sign in required.")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "me: user lookup failed", err, "")
		return
	}
	respond.JSON(w, http.StatusOK, loginResponse{User: u})
}

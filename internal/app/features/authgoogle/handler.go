// internal/app/features/authgoogle/handler.go
package authgoogle

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Elqomdes/hedeflynet/internal/app/store/audit"
	"github.com/Elqomdes/hedeflynet/internal/app/store/oauthstate"
	userstore "github.com/Elqomdes/hedeflynet/internal/app/store/users"
	"github.com/Elqomdes/hedeflynet/internal/app/system/auditlog"
	"github.com/Elqomdes/hedeflynet/internal/app/system/auth"
	"github.com/Elqomdes/hedeflynet/internal/app/system/timeouts"
	"github.com/gorilla/securecookie"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// StateTTL is how long a sign-in attempt may take at Google.
const StateTTL = 10 * time.Minute

const defaultUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

// Handler handles Google OAuth sign-in for existing accounts. There is no
// self-registration: the Google email must match a user.
type Handler struct {
	Users      *userstore.Store
	Log        *zap.Logger
	SessionMgr *auth.SessionManager
	AuditLog   *auditlog.Logger
	StateStore *oauthstate.Store

	// OAuth configuration
	ClientID     string
	ClientSecret string
	RedirectURL  string // e.g., "https://api.hedeflynet.com/auth/google/callback"
	ClientURL    string // browser client the flow returns to

	// Overridable for tests.
	Endpoint    oauth2.Endpoint
	UserInfoURL string
}

// NewHandler creates a new Google OAuth handler. baseURL is this API's
// public origin; clientURL is where the browser client lives.
func NewHandler(
	db *mongo.Database,
	sessionMgr *auth.SessionManager,
	audit *auditlog.Logger,
	clientID, clientSecret, baseURL, clientURL string,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		Users:        userstore.New(db),
		Log:          logger,
		SessionMgr:   sessionMgr,
		AuditLog:     audit,
		StateStore:   oauthstate.New(db),
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  strings.TrimRight(baseURL, "/") + "/auth/google/callback",
		ClientURL:    strings.TrimRight(clientURL, "/"),
		Endpoint:     google.Endpoint,
		UserInfoURL:  defaultUserInfoURL,
	}
}

func (h *Handler) oauth2Config() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     h.ClientID,
		ClientSecret: h.ClientSecret,
		RedirectURL:  h.RedirectURL,
		Scopes: []string{
			"openid",
			"https://www.googleapis.com/auth/userinfo.email",
			"https://www.googleapis.com/auth/userinfo.profile",
		},
		Endpoint: h.Endpoint,
	}
}

// IsConfigured returns true if Google OAuth is configured.
func (h *Handler) IsConfigured() bool {
	return h.ClientID != "" && h.ClientSecret != ""
}

// generateState returns 32 random bytes, URL-safe encoded.
func generateState() (string, error) {
	b := securecookie.GenerateRandomKey(32)
	if b == nil {
		return "", errors.New("random source unavailable")
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// safeReturn keeps only same-origin paths so the callback can't be used as an
// open redirect.
func safeReturn(p string) string {
	if p == "" || !strings.HasPrefix(p, "/") || strings.HasPrefix(p, "//") || strings.Contains(p, `\`) {
		return "/"
	}
	return p
}

func (h *Handler) redirectToClient(w http.ResponseWriter, r *http.Request, path, errorCode string) {
	dest := h.ClientURL + path
	if errorCode != "" {
		dest = h.ClientURL + "/login?error=" + url.QueryEscape(errorCode)
	}
	http.Redirect(w, r, dest, http.StatusSeeOther)
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /auth/google/login                                                       |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeLogin(w http.ResponseWriter, r *http.Request) {
	if !h.IsConfigured() {
		h.Log.Warn("Google OAuth not configured")
		h.redirectToClient(w, r, "", "google_not_configured")
		return
	}

	state, err := generateState()
	if err != nil {
		h.Log.Error("failed to generate OAuth state", zap.Error(err))
		h.redirectToClient(w, r, "", "internal")
		return
	}
	returnURL := safeReturn(r.URL.Query().Get("return"))

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	if err := h.StateStore.Save(ctx, state, returnURL, time.Now().Add(StateTTL)); err != nil {
		h.Log.Error("failed to save OAuth state", zap.Error(err))
		h.redirectToClient(w, r, "", "internal")
		return
	}

	dest := h.oauth2Config().AuthCodeURL(state)
	h.Log.Debug("initiating Google OAuth flow", zap.String("return_url", returnURL))
	http.Redirect(w, r, dest, http.StatusTemporaryRedirect)
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /auth/google/callback                                                    |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	if errParam := q.Get("error"); errParam != "" {
		h.Log.Warn("Google OAuth error",
			zap.String("error", errParam),
			zap.String("description", q.Get("error_description")))
		h.redirectToClient(w, r, "", "google_denied")
		return
	}

	state := q.Get("state")
	if state == "" {
		h.Log.Warn("missing OAuth state parameter")
		h.redirectToClient(w, r, "", "invalid_state")
		return
	}
	sctx, cancel := context.WithTimeout(ctx, timeouts.Short())
	returnURL, valid, err := h.StateStore.Consume(sctx, state)
	cancel()
	if err != nil {
		h.Log.Error("failed to validate OAuth state", zap.Error(err))
		h.redirectToClient(w, r, "", "internal")
		return
	}
	if !valid {
		h.Log.Warn("invalid or expired OAuth state")
		h.redirectToClient(w, r, "", "invalid_state")
		return
	}

	code := q.Get("code")
	if code == "" {
		h.Log.Warn("missing OAuth code parameter")
		h.redirectToClient(w, r, "", "invalid_code")
		return
	}

	token, err := h.oauth2Config().Exchange(ctx, code)
	if err != nil {
		h.Log.Error("failed to exchange OAuth code", zap.Error(err))
		h.redirectToClient(w, r, "", "token_exchange")
		return
	}
	info, err := h.fetchUserInfo(ctx, token)
	if err != nil {
		h.Log.Error("failed to fetch Google user info", zap.Error(err))
		h.redirectToClient(w, r, "", "user_info")
		return
	}
	if !info.EmailVerified {
		h.redirectToClient(w, r, "", "email_unverified")
		return
	}

	lctx, cancel := context.WithTimeout(ctx, timeouts.Short())
	defer cancel()
	u, err := h.Users.GetByEmail(lctx, info.Email)
	if errors.Is(err, mongo.ErrNoDocuments) {
		h.Log.Info("Google OAuth: user not found", zap.String("email", info.Email))
		h.AuditLog.LoginFailed(lctx, r, audit.EventLoginFailedUserNotFound, nil, info.Email, "no account for google email")
		h.redirectToClient(w, r, "", "no_account")
		return
	}
	if err != nil {
		h.Log.Error("failed to look up user", zap.Error(err))
		h.redirectToClient(w, r, "", "internal")
		return
	}
	if !u.IsActive {
		h.AuditLog.LoginFailed(lctx, r, audit.EventLoginFailedUserDisabled, &u.ID, info.Email, "account disabled")
		h.redirectToClient(w, r, "", "account_disabled")
		return
	}

	if err := h.SessionMgr.SignIn(w, r, u.ID.Hex()); err != nil {
		h.Log.Error("failed to save session", zap.Error(err))
		h.redirectToClient(w, r, "", "internal")
		return
	}
	if err := h.Users.TouchLastLogin(lctx, u.ID); err != nil {
		h.Log.Warn("touch last_login_at failed", zap.Error(err))
	}
	h.AuditLog.LoginSuccess(lctx, r, u.ID, "google")
	h.redirectToClient(w, r, safeReturn(returnURL), "")
}

type googleUserInfo struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"verified_email"`
	Name          string `json:"name"`
}

func (h *Handler) fetchUserInfo(ctx context.Context, token *oauth2.Token) (*googleUserInfo, error) {
	client := h.oauth2Config().Client(ctx, token)

	resp, err := client.Get(h.UserInfoURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var info googleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("failed to decode user info: %w", err)
	}
	return &info, nil
}

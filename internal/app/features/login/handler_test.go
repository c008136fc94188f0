package login_test

import (
	"net/http"
	"strings"
	"testing"
	"time"

	uierrors "github.com/Elqomdes/hedeflynet/internal/app/features/errors"
	"github.com/Elqomdes/hedeflynet/internal/app/features/login"
	"github.com/Elqomdes/hedeflynet/internal/app/store/audit"
	"github.com/Elqomdes/hedeflynet/internal/app/system/auditlog"
	"github.com/Elqomdes/hedeflynet/internal/app/system/auth"
	"github.com/Elqomdes/hedeflynet/internal/app/system/ratelimit"
	"github.com/Elqomdes/hedeflynet/internal/domain/models"
	"github.com/Elqomdes/hedeflynet/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T) (*login.Handler, *testutil.Fixtures, *mongo.Database) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()
	errLog := uierrors.NewErrorLogger(logger)

	sessionMgr, err := auth.NewSessionManager("test-session-key-for-testing-only", "test-session", "", time.Hour, false, logger)
	if err != nil {
		t.Fatalf("NewSessionManager failed: %v", err)
	}
	tokens, err := auth.NewTokenIssuer("test-jwt-secret-that-is-long-enough!", time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	sessionMgr.SetTokenIssuer(tokens)

	limiter := ratelimit.NewLoginLimiter()
	t.Cleanup(limiter.Close)
	al := auditlog.New(audit.New(db), logger, auditlog.Config{Auth: auditlog.DB})

	handler := login.NewHandler(db, sessionMgr, limiter, al, errLog, logger)
	return handler, testutil.NewFixtures(t, db), db
}

func creds(email, password string) map[string]string {
	return map[string]string{"email": email, "password": password}
}

func TestHandleLogin_Success(t *testing.T) {
	handler, fixtures, db := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fixtures.CreateTeacher(ctx, "Test Teacher", "teacher@example.com")

	rec := testutil.NewRecorder()
	handler.HandleLogin(rec, testutil.NewJSONRequest(t, http.MethodPost, "/api/auth/login", creds("Teacher@Example.com", testutil.FixturePassword)))
	rec.AssertStatus(t, http.StatusOK)

	var body struct{ User models.User }
	rec.DecodeJSON(t, &body)
	if body.User.Email != "teacher@example.com" || body.User.Role != models.RoleTeacher {
		t.Errorf("user = %+v", body.User)
	}
	if rec.Header().Get("Set-Cookie") == "" {
		t.Error("expected a session cookie")
	}
	rec.AssertContains(t, `"full_name":"Test Teacher"`)
	if n, _ := db.Collection("audit_events").CountDocuments(ctx, bson.M{"event_type": audit.EventLoginSuccess}); n != 1 {
		t.Errorf("login_success events = %d, want 1", n)
	}
}

func TestHandleLogin_Failures(t *testing.T) {
	handler, fixtures, db := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fixtures.CreateStudent(ctx, "Student", "student@example.com", nil)
	fixtures.CreateDisabledUser(ctx, "Gone", "gone@example.com", models.RoleTeacher)

	tests := []struct {
		name   string
		body   any
		status int
		event  string
	}{
		{"missing password", map[string]string{"email": "student@example.com"}, http.StatusBadRequest, ""},
		{"bad email", creds("not-an-email", "x"), http.StatusBadRequest, ""},
		{"unknown user", creds("nobody@example.com", "password123"), http.StatusUnauthorized, audit.EventLoginFailedUserNotFound},
		{"wrong password", creds("student@example.com", "wrong-pass"), http.StatusUnauthorized, audit.EventLoginFailedWrongPassword},
		{"disabled", creds("gone@example.com", testutil.FixturePassword), http.StatusForbidden, audit.EventLoginFailedUserDisabled},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := testutil.NewRecorder()
			handler.HandleLogin(rec, testutil.NewJSONRequest(t, http.MethodPost, "/api/auth/login", tt.body))
			rec.AssertStatus(t, tt.status)
			if tt.event == "" {
				return
			}
			if n, _ := db.Collection("audit_events").CountDocuments(ctx, bson.M{"event_type": tt.event}); n != 1 {
				t.Errorf("%s events = %d, want 1", tt.event, n)
			}
		})
	}
}

func TestHandleLogin_RateLimited(t *testing.T) {
	handler, fixtures, _ := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fixtures.CreateStudent(ctx, "Student", "student@example.com", nil)

	var last int
	for i := 0; i < 6; i++ {
		rec := testutil.NewRecorder()
		handler.HandleLogin(rec, testutil.NewJSONRequest(t, http.MethodPost, "/api/auth/login", creds("student@example.com", "wrong-pass")))
		last = rec.Code
	}
	if last != http.StatusTooManyRequests {
		t.Errorf("sixth attempt status = %d, want 429", last)
	}
}

func TestHandleToken(t *testing.T) {
	handler, fixtures, _ := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	u := fixtures.CreateParent(ctx, "Parent", "parent@example.com")

	rec := testutil.NewRecorder()
	handler.HandleToken(rec, testutil.NewJSONRequest(t, http.MethodPost, "/api/auth/token", creds("parent@example.com", testutil.FixturePassword)))
	rec.AssertStatus(t, http.StatusOK)

	var body struct {
		Token     string    `json:"token"`
		ExpiresAt time.Time `json:"expires_at"`
	}
	rec.DecodeJSON(t, &body)
	claims, err := handler.SessionMgr.Tokens().Parse(body.Token)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if claims.Subject != u.ID.Hex() || claims.Role != models.RoleParent {
		t.Errorf("claims = %+v", claims)
	}
	if !body.ExpiresAt.After(time.Now()) {
		t.Errorf("expires_at = %v", body.ExpiresAt)
	}
}

func TestServeMe(t *testing.T) {
	handler, fixtures, _ := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	u := fixtures.CreateStudent(ctx, "Me", "me@example.com", nil)

	rec := testutil.NewRecorder()
	handler.ServeMe(rec, testutil.NewAuthenticatedRequest(t, http.MethodGet, "/api/auth/me", nil, testutil.AsUser(u)))
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `"email":"me@example.com"`)
	if got := rec.Body.String(); strings.Contains(got, "password") {
		t.Errorf("password leaked: %s", got)
	}
}

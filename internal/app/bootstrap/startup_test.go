package bootstrap

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	userstore "github.com/Elqomdes/hedeflynet/internal/app/store/users"
	"github.com/Elqomdes/hedeflynet/internal/app/system/metrics"
	"github.com/Elqomdes/hedeflynet/internal/app/system/respcache"
	"github.com/Elqomdes/hedeflynet/internal/domain/models"
	"github.com/Elqomdes/hedeflynet/internal/testutil"
	"github.com/dalemusser/waffle/config"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

func testLogger() *zap.Logger {
	return zap.NewNop()
}

func validAppConfig() AppConfig {
	return AppConfig{
		MongoURI:   "mongodb://localhost:27017",
		SessionKey: "dev-only-change-me-please-0123456789ABCDEF",
		JWTSecret:  strings.Repeat("s", minJWTSecret),
		AuditLog:   "all",
	}
}

func TestValidateConfig(t *testing.T) {
	dev := &config.CoreConfig{Env: "dev"}
	prod := &config.CoreConfig{Env: "prod"}

	tests := []struct {
		name    string
		core    *config.CoreConfig
		mutate  func(*AppConfig)
		wantErr bool
	}{
		{"valid", prod, func(*AppConfig) {}, false},
		{"bad mongo uri", dev, func(c *AppConfig) { c.MongoURI = "postgres://x" }, true},
		{"missing session key", dev, func(c *AppConfig) { c.SessionKey = "" }, true},
		{"short jwt secret in prod", prod, func(c *AppConfig) { c.JWTSecret = "short" }, true},
		{"short jwt secret in dev", dev, func(c *AppConfig) { c.JWTSecret = "short" }, false},
		{"unknown audit mode", dev, func(c *AppConfig) { c.AuditLog = "verbose" }, true},
		{"admin without password", dev, func(c *AppConfig) { c.AdminEmail = "root@example.com" }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validAppConfig()
			tt.mutate(&cfg)
			err := ValidateConfig(tt.core, cfg, testLogger())
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateConfig() err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSplitList(t *testing.T) {
	got := splitList(" https://a.example, ,https://b.example ")
	if len(got) != 2 || got[0] != "https://a.example" || got[1] != "https://b.example" {
		t.Errorf("splitList = %q", got)
	}
	if splitList("") != nil {
		t.Error("empty input should give nil")
	}
}

func TestEnsureAdmin_CreatesNew(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := ensureAdmin(ctx, db, "Root@Example.com", "correct-horse", testLogger()); err != nil {
		t.Fatalf("ensureAdmin failed: %v", err)
	}

	u, err := userstore.New(db).GetByEmail(ctx, "root@example.com")
	if err != nil {
		t.Fatalf("admin not created: %v", err)
	}
	if u.Role != models.RoleAdmin || !u.IsActive {
		t.Errorf("role=%q active=%v", u.Role, u.IsActive)
	}
	if !userstore.CheckPassword(u, "correct-horse") {
		t.Error("password was not stored")
	}

	// A second run is a no-op.
	if err := ensureAdmin(ctx, db, "root@example.com", "correct-horse", testLogger()); err != nil {
		t.Fatalf("second ensureAdmin failed: %v", err)
	}
	n, _ := db.Collection("users").CountDocuments(ctx, bson.M{})
	if n != 1 {
		t.Errorf("expected 1 user, got %d", n)
	}
}

func TestEnsureAdmin_PromotesExisting(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	teacher := fx.CreateTeacher(ctx, "Ms Kaya", "kaya@example.com")
	if _, err := db.Collection("users").UpdateOne(ctx, bson.M{"_id": teacher.ID}, bson.M{"$set": bson.M{"is_active": false}}); err != nil {
		t.Fatal(err)
	}

	if err := ensureAdmin(ctx, db, "kaya@example.com", "", testLogger()); err != nil {
		t.Fatalf("ensureAdmin failed: %v", err)
	}

	u, err := userstore.New(db).GetByID(ctx, teacher.ID)
	if err != nil {
		t.Fatal(err)
	}
	if u.Role != models.RoleAdmin || !u.IsActive {
		t.Errorf("role=%q active=%v", u.Role, u.IsActive)
	}
}

func TestEnsureAdmin_MissingPassword(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := ensureAdmin(ctx, db, "nobody@example.com", "", testLogger()); err == nil {
		t.Error("expected an error when the admin is missing and no password is set")
	}
}

func TestBuildWorkers_SweepsExpiredSubscriptions(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	student := fx.CreateStudent(ctx, "Ali", "ali@example.com", nil)
	past := time.Now().Add(-48 * time.Hour)
	if _, err := db.Collection("subscriptions").InsertOne(ctx, models.Subscription{
		UserID:    student.ID,
		PlanType:  models.Plan3Months,
		Status:    models.SubscriptionActive,
		StartDate: past.AddDate(0, -3, 0),
		EndDate:   past,
	}); err != nil {
		t.Fatal(err)
	}

	deps := DBDeps{MongoDatabase: db, Cache: respcache.NewMemory(), Metrics: metrics.New()}
	cfg := AppConfig{SubscriptionSweepInterval: time.Hour, NotificationRetention: 24 * time.Hour}
	runner := buildWorkers(cfg, deps, testLogger())
	runner.RunAll()

	var sub models.Subscription
	if err := db.Collection("subscriptions").FindOne(ctx, bson.M{"user_id": student.ID}).Decode(&sub); err != nil {
		t.Fatal(err)
	}
	if sub.Status != models.SubscriptionExpired {
		t.Errorf("status = %q, want expired", sub.Status)
	}
}

func testHandler(t *testing.T) http.Handler {
	t.Helper()
	db := testutil.SetupTestDB(t)

	deps := DBDeps{
		MongoClient:   db.Client(),
		MongoDatabase: db,
		Cache:         respcache.NewMemory(),
		Metrics:       metrics.New(),
	}
	cfg := validAppConfig()
	cfg.SessionName = "hedeflynet-test"
	cfg.SessionMaxAge = time.Hour
	cfg.JWTTTL = time.Hour
	cfg.CORSOrigins = []string{"http://localhost:3000"}

	h, err := BuildHandler(&config.CoreConfig{Env: "dev"}, cfg, deps, testLogger())
	if err != nil {
		t.Fatalf("BuildHandler: %v", err)
	}
	return h
}

func TestBuildHandler(t *testing.T) {
	h := testHandler(t)

	tests := []struct {
		method, path string
		want         int
	}{
		{http.MethodGet, "/health", http.StatusOK},
		{http.MethodHead, "/health", http.StatusOK},
		{http.MethodGet, "/metrics", http.StatusOK},
		{http.MethodGet, "/api/plans", http.StatusOK},
		{http.MethodGet, "/api/auth/me", http.StatusUnauthorized},
		{http.MethodGet, "/api/admin/stats", http.StatusUnauthorized},
		{http.MethodGet, "/api/student/leaderboard", http.StatusUnauthorized},
		{http.MethodGet, "/nope", http.StatusNotFound},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(tt.method, tt.path, nil).WithContext(context.Background())
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != tt.want {
			t.Errorf("%s %s = %d, want %d (body %s)", tt.method, tt.path, rec.Code, tt.want, rec.Body.String())
		}
		if strings.HasPrefix(tt.path, "/api/") && !strings.Contains(rec.Header().Get("Cache-Control"), "no-store") {
			t.Errorf("%s missing no-store header", tt.path)
		}
	}
}

func TestBuildHandler_PublicWrites(t *testing.T) {
	h := testHandler(t)

	post := func(contentType string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/discounts/validate",
			strings.NewReader(`{"code":"NOPE","plan_type":"3_months"}`))
		req.RemoteAddr = "192.0.2.10:5000"
		if contentType != "" {
			req.Header.Set("Content-Type", contentType)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	if rec := post("text/plain"); rec.Code != http.StatusUnsupportedMediaType {
		t.Errorf("text/plain validate = %d, want 415 (body %s)", rec.Code, rec.Body.String())
	}

	rec := post("application/json")
	if rec.Code != http.StatusOK {
		t.Fatalf("json validate = %d (body %s)", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("X-RateLimit-Remaining"); got != "18" {
		t.Errorf("X-RateLimit-Remaining = %q, want 18", got)
	}

	for i := 0; i < publicWritesPerMinute; i++ {
		rec = post("application/json")
	}
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("after the budget = %d, want 429", rec.Code)
	}
}

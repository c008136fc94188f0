package applications

import (
	"net/http"
	"strings"
	"testing"

	uierrors "github.com/Elqomdes/hedeflynet/internal/app/features/errors"
	userstore "github.com/Elqomdes/hedeflynet/internal/app/store/users"
	"github.com/Elqomdes/hedeflynet/internal/app/system/indexes"
	"github.com/Elqomdes/hedeflynet/internal/app/system/mailer"
	"github.com/Elqomdes/hedeflynet/internal/app/system/respcache"
	"github.com/Elqomdes/hedeflynet/internal/domain/models"
	"github.com/Elqomdes/hedeflynet/internal/testutil"
	"go.uber.org/zap"
)

type env struct {
	h    *Handler
	fx   *testutil.Fixtures
	mail *mailer.Recorder
}

func newEnv(t *testing.T) env {
	t.Helper()
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}
	logger := zap.NewNop()
	mail := &mailer.Recorder{}
	h := NewHandler(db, mail, "HedeflyNet", "https://hedefly.test/login", respcache.NewMemory(), nil, uierrors.NewErrorLogger(logger), logger)
	h.tempPassword = func() string { return "temp-pass-123" }
	return env{h: h, fx: testutil.NewFixtures(t, db), mail: mail}
}

func validApplication() map[string]any {
	return map[string]any{
		"full_name":        "Zeynep Arslan",
		"email":            "Zeynep@Example.com",
		"subjects":         []string{"Math", "physics"},
		"experience_years": 7,
		"message":          "I teach olympiad math.",
	}
}

func (e env) submit(t *testing.T, body map[string]any) *testutil.ResponseRecorder {
	rec := testutil.NewRecorder()
	e.h.HandleSubmit(rec, testutil.NewJSONRequest(t, http.MethodPost, "/api/applications", body))
	return rec
}

func TestHandleSubmit(t *testing.T) {
	e := newEnv(t)

	rec := e.submit(t, validApplication())
	rec.AssertStatus(t, http.StatusCreated)
	var a models.Application
	rec.DecodeJSON(t, &a)
	if a.Status != models.ApplicationPending || a.Email != "zeynep@example.com" {
		t.Errorf("application = %+v", a)
	}

	e.submit(t, validApplication()).AssertStatus(t, http.StatusConflict)

	tooSenior := validApplication()
	tooSenior["email"] = "other@example.com"
	tooSenior["experience_years"] = 61
	e.submit(t, tooSenior).AssertStatus(t, http.StatusBadRequest)

	noSubjects := validApplication()
	noSubjects["email"] = "other@example.com"
	delete(noSubjects, "subjects")
	e.submit(t, noSubjects).AssertStatus(t, http.StatusBadRequest)
}

func TestHandleSubmit_ExistingAccount(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	e.fx.CreateTeacher(ctx, "Zeynep", "zeynep@example.com")

	e.submit(t, validApplication()).AssertStatus(t, http.StatusConflict)
}

func TestHandleApprove(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	admin := testutil.AsUser(e.fx.CreateAdmin(ctx, "Admin", "admin@example.com"))

	rec := e.submit(t, validApplication())
	var a models.Application
	rec.DecodeJSON(t, &a)

	approve := func() *testutil.ResponseRecorder {
		rec := testutil.NewRecorder()
		req := testutil.NewAuthenticatedRequest(t, http.MethodPost, "/", nil, admin)
		e.h.HandleApprove(rec, testutil.WithChiURLParam(req, "id", a.ID.Hex()))
		return rec
	}

	rec = approve()
	rec.AssertStatus(t, http.StatusOK)
	var out struct {
		Application models.Application `json:"application"`
		Teacher     models.User        `json:"teacher"`
	}
	rec.DecodeJSON(t, &out)
	if out.Application.Status != models.ApplicationApproved || out.Application.TeacherID == nil || *out.Application.TeacherID != out.Teacher.ID {
		t.Errorf("application = %+v", out.Application)
	}
	if out.Application.ReviewedBy == nil || out.Application.ReviewedBy.Hex() != admin.ID {
		t.Errorf("reviewed_by = %v", out.Application.ReviewedBy)
	}

	teacher, err := e.h.Users.GetByID(ctx, out.Teacher.ID)
	if err != nil {
		t.Fatal(err)
	}
	if teacher.Role != models.RoleTeacher || !teacher.IsActive || len(teacher.Subjects) != 2 {
		t.Errorf("teacher = %+v", teacher)
	}
	if !userstore.CheckPassword(teacher, "temp-pass-123") {
		t.Error("teacher cannot sign in with the temporary password")
	}

	msgs := e.mail.Messages()
	if len(msgs) != 1 || msgs[0].To != "zeynep@example.com" || !strings.Contains(msgs[0].TextBody, "temp-pass-123") {
		t.Errorf("mail = %+v", msgs)
	}

	approve().AssertStatus(t, http.StatusConflict)
}

func TestHandleReject(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	admin := testutil.AsUser(e.fx.CreateAdmin(ctx, "Admin", "admin@example.com"))

	var a models.Application
	e.submit(t, validApplication()).DecodeJSON(t, &a)

	reject := func(id string) *testutil.ResponseRecorder {
		rec := testutil.NewRecorder()
		req := testutil.NewAuthenticatedRequest(t, http.MethodPost, "/", map[string]string{"reason": "  not enough detail "}, admin)
		e.h.HandleReject(rec, testutil.WithChiURLParam(req, "id", id))
		return rec
	}
	rec := reject(a.ID.Hex())
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `"reject_reason":"not enough detail"`)

	reject(a.ID.Hex()).AssertStatus(t, http.StatusConflict)
	reject("64b000000000000000000000").AssertStatus(t, http.StatusNotFound)

	// A rejected application frees the email for a new one.
	e.submit(t, validApplication()).AssertStatus(t, http.StatusCreated)
}

func TestServeList_StatusFilter(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	admin := testutil.AsUser(e.fx.CreateAdmin(ctx, "Admin", "admin@example.com"))

	e.submit(t, validApplication())
	other := validApplication()
	other["email"] = "second@example.com"
	e.submit(t, other)

	list := func(q string) *testutil.ResponseRecorder {
		rec := testutil.NewRecorder()
		e.h.ServeList(rec, testutil.NewAuthenticatedRequest(t, http.MethodGet, "/api/admin/applications"+q, nil, admin))
		return rec
	}
	var page struct {
		Items []models.Application `json:"items"`
		Total int64                `json:"total"`
	}
	list("?status=pending").DecodeJSON(t, &page)
	if page.Total != 2 || page.Items[0].Email != "second@example.com" {
		t.Errorf("pending page = %+v", page)
	}
	list("?status=approved").DecodeJSON(t, &page)
	if page.Total != 0 {
		t.Errorf("approved total = %d", page.Total)
	}
	list("?status=bogus").AssertStatus(t, http.StatusBadRequest)
}

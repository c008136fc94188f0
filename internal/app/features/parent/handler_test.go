package parent_test

import (
	"net/http"
	"testing"
	"time"

	uierrors "github.com/Elqomdes/hedeflynet/internal/app/features/errors"
	"github.com/Elqomdes/hedeflynet/internal/app/features/parent"
	"github.com/Elqomdes/hedeflynet/internal/app/services/parentdash"
	notificationstore "github.com/Elqomdes/hedeflynet/internal/app/store/notifications"
	"github.com/Elqomdes/hedeflynet/internal/app/system/respcache"
	"github.com/Elqomdes/hedeflynet/internal/domain/models"
	"github.com/Elqomdes/hedeflynet/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func TestServeDashboard(t *testing.T) {
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()
	h := parent.NewHandler(db, parentdash.New(db, respcache.NewMemory(), time.Minute, logger), uierrors.NewErrorLogger(logger), logger)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	teacher := fx.CreateTeacher(ctx, "Ms Kaya", "kaya@example.com")
	ali := fx.CreateStudent(ctx, "Ali", "ali@example.com", &teacher.ID)
	fx.CreateAssignment(ctx, teacher.ID, ali.ID, "Essay", "english")
	fx.CreateGradedAssignment(ctx, teacher.ID, ali.ID, "math", 80)
	fx.CreateGoal(ctx, teacher.ID, ali.ID, "Read", 4)
	fx.CreateVideoSession(ctx, teacher.ID, time.Now().Add(time.Hour), ali.ID)
	p := fx.CreateParent(ctx, "Parent", "p@example.com", ali.ID)

	rec := testutil.NewRecorder()
	h.ServeDashboard(rec, testutil.NewAuthenticatedRequest(t, http.MethodGet, "/", nil, testutil.AsUser(p)))
	rec.AssertStatus(t, http.StatusOK)
	var d parentdash.Dashboard
	rec.DecodeJSON(t, &d)
	if len(d.Children) != 1 {
		t.Fatalf("children = %d, want 1", len(d.Children))
	}
	c := d.Children[0]
	if c.Name != "Ali" || c.TeacherName != "Ms Kaya" {
		t.Errorf("names = %q / %q", c.Name, c.TeacherName)
	}
	if c.AssignmentsTotal != 2 || c.AssignmentsCompleted != 1 || c.CompletionPercent != 50 {
		t.Errorf("assignments = %d/%d (%v%%)", c.AssignmentsCompleted, c.AssignmentsTotal, c.CompletionPercent)
	}
	if c.GoalsTotal != 1 || c.GoalCompletionRate != 0 || c.UpcomingSessions != 1 || len(c.RecentGrades) != 1 {
		t.Errorf("summary = %+v", c)
	}
}

func TestNotifications(t *testing.T) {
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()
	h := parent.NewHandler(db, parentdash.New(db, nil, time.Minute, logger), uierrors.NewErrorLogger(logger), logger)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	child := fx.CreateStudent(ctx, "Ali", "ali@example.com", nil)
	p := fx.CreateParent(ctx, "Parent", "p@example.com", child.ID)
	other := fx.CreateParent(ctx, "Other", "o@example.com", child.ID)
	notes := notificationstore.New(db)
	created, err := notes.CreateMany(ctx, []models.ParentNotification{
		{ParentID: p.ID, StudentID: child.ID, Type: models.NotifyGrade, Title: "Graded", Message: "80/100"},
		{ParentID: p.ID, StudentID: child.ID, Type: models.NotifyGoalCompleted, Title: "Goal", Message: "Done"},
		{ParentID: other.ID, StudentID: child.ID, Type: models.NotifyGrade, Title: "Graded", Message: "80/100"},
	})
	if err != nil {
		t.Fatal(err)
	}
	as := testutil.AsUser(p)

	list := func(query string) int64 {
		rec := testutil.NewRecorder()
		h.ServeNotifications(rec, testutil.NewAuthenticatedRequest(t, http.MethodGet, "/"+query, nil, as))
		rec.AssertStatus(t, http.StatusOK)
		var page struct {
			Total int64 `json:"total"`
		}
		rec.DecodeJSON(t, &page)
		return page.Total
	}
	read := func(id primitive.ObjectID) *testutil.ResponseRecorder {
		rec := testutil.NewRecorder()
		req := testutil.NewAuthenticatedRequest(t, http.MethodPost, "/", nil, as)
		h.HandleRead(rec, testutil.WithChiURLParam(req, "id", id.Hex()))
		return rec
	}

	if n := list(""); n != 2 {
		t.Errorf("all = %d, want 2", n)
	}
	rec := read(created[0].ID)
	rec.AssertStatus(t, http.StatusOK)
	var n models.ParentNotification
	rec.DecodeJSON(t, &n)
	if !n.Read || n.ReadAt == nil {
		t.Errorf("read notification = %+v", n)
	}
	if got := list("?unread=true"); got != 1 {
		t.Errorf("unread = %d, want 1", got)
	}
	read(created[2].ID).AssertStatus(t, http.StatusNotFound)

	rec = testutil.NewRecorder()
	h.HandleReadAll(rec, testutil.NewAuthenticatedRequest(t, http.MethodPost, "/", nil, as))
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `"marked":1`)
	if got := list("?unread=true"); got != 0 {
		t.Errorf("unread after read-all = %d", got)
	}

	rec = testutil.NewRecorder()
	h.ServeNotifications(rec, testutil.NewAuthenticatedRequest(t, http.MethodGet, "/?unread=maybe", nil, as))
	rec.AssertStatus(t, http.StatusBadRequest)
}

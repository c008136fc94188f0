package goals_test

import (
	"net/http"
	"testing"
	"time"

	uierrors "github.com/Elqomdes/hedeflynet/internal/app/features/errors"
	"github.com/Elqomdes/hedeflynet/internal/app/features/goals"
	"github.com/Elqomdes/hedeflynet/internal/app/services/gamification"
	"github.com/Elqomdes/hedeflynet/internal/app/services/notifier"
	"github.com/Elqomdes/hedeflynet/internal/app/services/parentdash"
	gamificationstore "github.com/Elqomdes/hedeflynet/internal/app/store/gamification"
	notificationstore "github.com/Elqomdes/hedeflynet/internal/app/store/notifications"
	userstore "github.com/Elqomdes/hedeflynet/internal/app/store/users"
	"github.com/Elqomdes/hedeflynet/internal/domain/models"
	"github.com/Elqomdes/hedeflynet/internal/testutil"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T) (*goals.Handler, *testutil.Fixtures, *mongo.Database) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()
	game := gamification.New(gamificationstore.New(db), nil, nil, logger)
	notify := notifier.New(notificationstore.New(db), userstore.New(db), nil, "", logger)
	dash := parentdash.New(db, nil, time.Minute, logger)
	return goals.NewHandler(db, game, notify, dash, uierrors.NewErrorLogger(logger), logger), testutil.NewFixtures(t, db), db
}

func TestHandleCreate(t *testing.T) {
	h, fx, _ := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	teacher := fx.CreateTeacher(ctx, "T", "t@example.com")
	mine := fx.CreateStudent(ctx, "Mine", "mine@example.com", &teacher.ID)
	other := fx.CreateStudent(ctx, "Other", "other@example.com", nil)

	post := func(body map[string]any) *testutil.ResponseRecorder {
		rec := testutil.NewRecorder()
		h.HandleCreate(rec, testutil.NewAuthenticatedRequest(t, http.MethodPost, "/", body, testutil.AsUser(teacher)))
		return rec
	}

	rec := post(map[string]any{"student_id": mine.ID.Hex(), "title": "Read books", "target_value": 5, "unit": "books", "target_date": "2026-12-31"})
	rec.AssertStatus(t, http.StatusCreated)
	var g models.Goal
	rec.DecodeJSON(t, &g)
	if g.Status != models.GoalActive || g.TargetDate == nil || g.TeacherID != teacher.ID {
		t.Errorf("goal = %+v", g)
	}

	post(map[string]any{"student_id": other.ID.Hex(), "title": "X", "target_value": 1}).AssertStatus(t, http.StatusForbidden)
	post(map[string]any{"student_id": mine.ID.Hex(), "title": "X", "target_value": 0}).AssertStatus(t, http.StatusBadRequest)
}

func TestHandleProgress_CompletesOnce(t *testing.T) {
	h, fx, db := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	teacher := fx.CreateTeacher(ctx, "T", "t@example.com")
	student := fx.CreateStudent(ctx, "S", "s@example.com", &teacher.ID)
	parent := fx.CreateParent(ctx, "P", "p@example.com", student.ID)
	g := fx.CreateGoal(ctx, teacher.ID, student.ID, "Read", 4)

	type result struct {
		Goal struct {
			Status   string  `json:"status"`
			Progress float64 `json:"progress"`
		} `json:"goal"`
		Completed bool                 `json:"just_completed"`
		XP        *gamification.Result `json:"xp"`
	}
	progress := func(v float64) result {
		rec := testutil.NewRecorder()
		req := testutil.NewAuthenticatedRequest(t, http.MethodPatch, "/", map[string]any{"current_value": v}, testutil.AsUser(student))
		h.HandleProgress(rec, testutil.WithChiURLParam(req, "id", g.ID.Hex()))
		rec.AssertStatus(t, http.StatusOK)
		var out result
		rec.DecodeJSON(t, &out)
		return out
	}

	if out := progress(1); out.Goal.Status != models.GoalActive || out.Goal.Progress != 25 || out.Completed {
		t.Errorf("partial progress = %+v", out)
	}
	out := progress(4)
	if !out.Completed || out.Goal.Status != models.GoalCompleted {
		t.Errorf("completion = %+v", out)
	}
	// GoalXP plus the first_goal reward, which lands after the XP snapshot.
	if out.XP == nil || out.XP.XP != gamification.GoalXP {
		t.Errorf("xp = %+v", out.XP)
	}
	if again := progress(5); again.Completed || again.Goal.Status != models.GoalCompleted {
		t.Errorf("second completion = %+v", again)
	}

	p, err := gamificationstore.New(db).Find(ctx, student.ID)
	if err != nil {
		t.Fatal(err)
	}
	if p.XP != gamification.GoalXP+25 {
		t.Errorf("stored xp = %d", p.XP)
	}
	n, err := notificationstore.New(db).CountUnread(ctx, parent.ID)
	if err != nil || n != 1 {
		t.Errorf("unread notifications = %d (%v)", n, err)
	}

	other := fx.CreateStudent(ctx, "O", "o@example.com", nil)
	rec := testutil.NewRecorder()
	req := testutil.NewAuthenticatedRequest(t, http.MethodPatch, "/", map[string]any{"current_value": 1}, testutil.AsUser(other))
	h.HandleProgress(rec, testutil.WithChiURLParam(req, "id", g.ID.Hex()))
	rec.AssertStatus(t, http.StatusNotFound)
}

func TestHandleDelete_OwnerOnly(t *testing.T) {
	h, fx, _ := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	owner := fx.CreateTeacher(ctx, "Owner", "owner@example.com")
	other := fx.CreateTeacher(ctx, "Other", "other@example.com")
	student := fx.CreateStudent(ctx, "S", "s@example.com", &owner.ID)
	g := fx.CreateGoal(ctx, owner.ID, student.ID, "Read", 4)

	del := func(as models.User) *testutil.ResponseRecorder {
		rec := testutil.NewRecorder()
		req := testutil.NewAuthenticatedRequest(t, http.MethodDelete, "/", nil, testutil.AsUser(as))
		h.HandleDelete(rec, testutil.WithChiURLParam(req, "id", g.ID.Hex()))
		return rec
	}
	del(other).AssertStatus(t, http.StatusForbidden)
	del(owner).AssertStatus(t, http.StatusNoContent)
	del(owner).AssertStatus(t, http.StatusNotFound)
}

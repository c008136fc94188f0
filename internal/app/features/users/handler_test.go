package users_test

import (
	"net/http"
	"testing"
	"time"

	uierrors "github.com/Elqomdes/hedeflynet/internal/app/features/errors"
	"github.com/Elqomdes/hedeflynet/internal/app/features/users"
	"github.com/Elqomdes/hedeflynet/internal/app/services/parentdash"
	"github.com/Elqomdes/hedeflynet/internal/app/system/indexes"
	"github.com/Elqomdes/hedeflynet/internal/app/system/respcache"
	"github.com/Elqomdes/hedeflynet/internal/domain/models"
	"github.com/Elqomdes/hedeflynet/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T) (*users.Handler, *testutil.Fixtures, *mongo.Database) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}
	logger := zap.NewNop()
	cache := respcache.NewMemory()
	dash := parentdash.New(db, cache, time.Minute, logger)
	h := users.NewHandler(db, dash, cache, time.Minute, nil, uierrors.NewErrorLogger(logger), logger)
	return h, testutil.NewFixtures(t, db), db
}

func TestServeTeachers_PagedAndSearched(t *testing.T) {
	h, fx, _ := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	admin := fx.CreateAdmin(ctx, "Admin", "admin@example.com")
	fx.CreateTeacher(ctx, "Ayşe Kaya", "ayse@example.com")
	fx.CreateTeacher(ctx, "Mehmet Demir", "mehmet@example.com")
	fx.CreateStudent(ctx, "Ali", "ali@example.com", nil)

	rec := testutil.NewRecorder()
	h.ServeTeachers(rec, testutil.NewAuthenticatedRequest(t, http.MethodGet, "/api/admin/teachers?limit=1", nil, testutil.AsUser(admin)))
	rec.AssertStatus(t, http.StatusOK)
	var page struct {
		Items   []models.User `json:"items"`
		Total   int64         `json:"total"`
		HasNext bool          `json:"has_next"`
	}
	rec.DecodeJSON(t, &page)
	if page.Total != 2 || len(page.Items) != 1 || !page.HasNext || page.Items[0].FullName != "Ayşe Kaya" {
		t.Errorf("page = %+v", page)
	}

	rec = testutil.NewRecorder()
	h.ServeTeachers(rec, testutil.NewAuthenticatedRequest(t, http.MethodGet, "/api/admin/teachers?q=ayse", nil, testutil.AsUser(admin)))
	rec.DecodeJSON(t, &page)
	if page.Total != 1 {
		t.Errorf("folded search total = %d, want 1", page.Total)
	}
}

func TestHandleCreate(t *testing.T) {
	h, fx, _ := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	admin := testutil.AsUser(fx.CreateAdmin(ctx, "Admin", "admin@example.com"))
	teacher := fx.CreateTeacher(ctx, "T", "t@example.com")

	body := map[string]any{"full_name": "New Student", "email": "NEW@example.com", "password": "longenough", "role": "student", "teacher_id": teacher.ID.Hex()}
	rec := testutil.NewRecorder()
	h.HandleCreate(rec, testutil.NewAuthenticatedRequest(t, http.MethodPost, "/api/admin/users", body, admin))
	rec.AssertStatus(t, http.StatusCreated)
	var u models.User
	rec.DecodeJSON(t, &u)
	if u.Email != "new@example.com" || u.TeacherID == nil || *u.TeacherID != teacher.ID || !u.IsActive {
		t.Errorf("created = %+v", u)
	}

	rec = testutil.NewRecorder()
	h.HandleCreate(rec, testutil.NewAuthenticatedRequest(t, http.MethodPost, "/api/admin/users", body, admin))
	rec.AssertStatus(t, http.StatusConflict)

	for _, bad := range []map[string]any{
		{"full_name": "X", "email": "x@example.com", "password": "short", "role": "student"},
		{"full_name": "X", "email": "x@example.com", "password": "longenough", "role": "janitor"},
		{"full_name": "X", "email": "x@example.com", "password": "longenough", "role": "parent", "teacher_id": teacher.ID.Hex()},
	} {
		rec = testutil.NewRecorder()
		h.HandleCreate(rec, testutil.NewAuthenticatedRequest(t, http.MethodPost, "/api/admin/users", bad, admin))
		rec.AssertStatus(t, http.StatusBadRequest)
	}
}

func TestHandleToggleTeacher_Persists(t *testing.T) {
	h, fx, db := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	admin := testutil.AsUser(fx.CreateAdmin(ctx, "Admin", "admin@example.com"))
	teacher := fx.CreateTeacher(ctx, "T", "t@example.com")
	student := fx.CreateStudent(ctx, "S", "s@example.com", nil)

	toggle := func(id string) *testutil.ResponseRecorder {
		rec := testutil.NewRecorder()
		req := testutil.NewAuthenticatedRequest(t, http.MethodPatch, "/api/admin/teachers/"+id+"/toggle-active", nil, admin)
		h.HandleToggleTeacher(rec, testutil.WithChiURLParam(req, "id", id))
		return rec
	}

	rec := toggle(teacher.ID.Hex())
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `"is_active":false`)

	var stored models.User
	if err := db.Collection("users").FindOne(ctx, bson.M{"_id": teacher.ID}).Decode(&stored); err != nil {
		t.Fatal(err)
	}
	if stored.IsActive {
		t.Error("toggle did not persist")
	}
	toggle(teacher.ID.Hex()).AssertContains(t, `"is_active":true`)

	toggle(student.ID.Hex()).AssertStatus(t, http.StatusNotFound)
	toggle("nope").AssertStatus(t, http.StatusBadRequest)
}

func TestHandleAssignAndLink(t *testing.T) {
	h, fx, _ := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	admin := testutil.AsUser(fx.CreateAdmin(ctx, "Admin", "admin@example.com"))
	teacher := fx.CreateTeacher(ctx, "T", "t@example.com")
	student := fx.CreateStudent(ctx, "S", "s@example.com", nil)
	parent := fx.CreateParent(ctx, "P", "p@example.com")

	rec := testutil.NewRecorder()
	req := testutil.NewAuthenticatedRequest(t, http.MethodPost, "/", map[string]string{"teacher_id": teacher.ID.Hex()}, admin)
	h.HandleAssignTeacher(rec, testutil.WithChiURLParam(req, "id", student.ID.Hex()))
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, teacher.ID.Hex())

	// Warm the parent's cached dashboard before the link.
	d, err := h.Dash.Dashboard(ctx, parent.ID)
	if err != nil || len(d.Children) != 0 {
		t.Fatalf("dashboard before link = %+v, %v", d, err)
	}

	rec = testutil.NewRecorder()
	req = testutil.NewAuthenticatedRequest(t, http.MethodPost, "/", map[string]string{"student_id": student.ID.Hex()}, admin)
	h.HandleLinkChild(rec, testutil.WithChiURLParam(req, "id", parent.ID.Hex()))
	rec.AssertStatus(t, http.StatusOK)
	var p models.User
	rec.DecodeJSON(t, &p)
	if len(p.ChildIDs) != 1 || p.ChildIDs[0] != student.ID {
		t.Errorf("child_ids = %v", p.ChildIDs)
	}

	d, err = h.Dash.Dashboard(ctx, parent.ID)
	if err != nil || len(d.Children) != 1 || d.Children[0].StudentID != student.ID {
		t.Errorf("dashboard after link = %+v, %v", d, err)
	}

	// A teacher is not a valid child.
	rec = testutil.NewRecorder()
	req = testutil.NewAuthenticatedRequest(t, http.MethodPost, "/", map[string]string{"student_id": teacher.ID.Hex()}, admin)
	h.HandleLinkChild(rec, testutil.WithChiURLParam(req, "id", parent.ID.Hex()))
	rec.AssertStatus(t, http.StatusBadRequest)
}

func TestHandleDelete_Cascades(t *testing.T) {
	h, fx, db := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	adminUser := fx.CreateAdmin(ctx, "Admin", "admin@example.com")
	admin := testutil.AsUser(adminUser)
	teacher := fx.CreateTeacher(ctx, "T", "t@example.com")
	student := fx.CreateStudent(ctx, "S", "s@example.com", &teacher.ID)
	fx.CreateParent(ctx, "P", "p@example.com", student.ID)
	fx.CreateAssignment(ctx, teacher.ID, student.ID, "Essay", "english")
	fx.CreateGoal(ctx, teacher.ID, student.ID, "Read", 3)

	// Study group state: the student owns one group with another member,
	// owns one they are alone in, and has joined a third.
	peer := fx.CreateStudent(ctx, "Peer", "peer@example.com", nil)
	shared := fx.CreateStudyGroup(ctx, "Shared", "math", student.ID, 10, true)
	solo := fx.CreateStudyGroup(ctx, "Solo", "math", student.ID, 10, true)
	joined := fx.CreateStudyGroup(ctx, "Joined", "math", peer.ID, 10, true)
	if _, err := h.StudyGroups.Join(ctx, shared.ID, peer.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := h.StudyGroups.Join(ctx, joined.ID, student.ID); err != nil {
		t.Fatal(err)
	}
	own, err := h.Posts.Create(ctx, joined.ID, student.ID, "mine")
	if err != nil {
		t.Fatal(err)
	}
	peerPost, err := h.Posts.Create(ctx, joined.ID, peer.ID, "theirs")
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := h.Posts.ToggleLike(ctx, peerPost.ID, student.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := h.Posts.AddComment(ctx, peerPost.ID, student.ID, "nice"); err != nil {
		t.Fatal(err)
	}
	if _, err := h.Posts.Create(ctx, solo.ID, student.ID, "alone"); err != nil {
		t.Fatal(err)
	}

	mod := fx.CreateModule(ctx, "Fractions", "math", 1)
	if _, err := h.Progress.Start(ctx, student.ID, mod.ID, time.Now()); err != nil {
		t.Fatal(err)
	}
	fx.CreateVideoSession(ctx, teacher.ID, time.Now().Add(time.Hour), student.ID, peer.ID)

	del := func(id string) *testutil.ResponseRecorder {
		rec := testutil.NewRecorder()
		req := testutil.NewAuthenticatedRequest(t, http.MethodDelete, "/api/admin/users/"+id, nil, admin)
		h.HandleDelete(rec, testutil.WithChiURLParam(req, "id", id))
		return rec
	}
	del(student.ID.Hex()).AssertStatus(t, http.StatusNoContent)

	leftovers := []struct {
		coll   string
		filter bson.M
	}{
		{"users", bson.M{"_id": student.ID}},
		{"users", bson.M{"child_ids": student.ID}},
		{"assignments", bson.M{"student_id": student.ID}},
		{"goals", bson.M{"student_id": student.ID}},
		{"module_progress", bson.M{"user_id": student.ID}},
		{"video_sessions", bson.M{"participants.user_id": student.ID}},
		{"study_groups", bson.M{"member_ids": student.ID}},
		{"study_groups", bson.M{"owner_id": student.ID}},
		{"study_groups", bson.M{"_id": solo.ID}},
		{"group_posts", bson.M{"_id": own.ID}},
		{"group_posts", bson.M{"group_id": solo.ID}},
		{"group_posts", bson.M{"liked_by": student.ID}},
		{"group_posts", bson.M{"comments.author_id": student.ID}},
	}
	for _, l := range leftovers {
		n, err := db.Collection(l.coll).CountDocuments(ctx, l.filter)
		if err != nil || n != 0 {
			t.Errorf("%s %v: %d left (%v)", l.coll, l.filter, n, err)
		}
	}

	for _, id := range []primitive.ObjectID{shared.ID, joined.ID} {
		g, err := h.StudyGroups.GetByID(ctx, id)
		if err != nil {
			t.Fatal(err)
		}
		if g.OwnerID != peer.ID || g.MemberCount != 1 || len(g.MemberIDs) != 1 {
			t.Errorf("group %s after delete = owner %s, count %d, members %v", g.Name, g.OwnerID.Hex(), g.MemberCount, g.MemberIDs)
		}
	}
	p, err := h.Posts.GetByID(ctx, peerPost.ID)
	if err != nil {
		t.Fatal(err)
	}
	if p.LikeCount != 0 || len(p.Comments) != 0 {
		t.Errorf("peer post = %+v", p)
	}

	del(student.ID.Hex()).AssertStatus(t, http.StatusNotFound)
	del(adminUser.ID.Hex()).AssertStatus(t, http.StatusBadRequest)
}

func TestServeStats_Cached(t *testing.T) {
	h, fx, _ := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	admin := testutil.AsUser(fx.CreateAdmin(ctx, "Admin", "admin@example.com"))
	fx.CreateTeacher(ctx, "T", "t@example.com")

	get := func() (s struct {
		Teachers int64 `json:"teachers"`
		Admins   int64 `json:"admins"`
	}) {
		rec := testutil.NewRecorder()
		h.ServeStats(rec, testutil.NewAuthenticatedRequest(t, http.MethodGet, "/api/admin/stats", nil, admin))
		rec.AssertStatus(t, http.StatusOK)
		rec.DecodeJSON(t, &s)
		return s
	}
	if s := get(); s.Teachers != 1 || s.Admins != 1 {
		t.Fatalf("stats = %+v", s)
	}
	fx.CreateTeacher(ctx, "T2", "t2@example.com")
	if s := get(); s.Teachers != 1 {
		t.Errorf("expected cached teachers=1, got %d", s.Teachers)
	}

	rec := testutil.NewRecorder()
	body := map[string]any{"full_name": "T3", "email": "t3@example.com", "password": "longenough", "role": "teacher"}
	h.HandleCreate(rec, testutil.NewAuthenticatedRequest(t, http.MethodPost, "/api/admin/users", body, admin))
	rec.AssertStatus(t, http.StatusCreated)
	if s := get(); s.Teachers != 3 {
		t.Errorf("after create teachers = %d, want 3", s.Teachers)
	}
}

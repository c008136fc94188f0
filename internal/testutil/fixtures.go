package testutil

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/Elqomdes/hedeflynet/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"
)

// FixturePassword is the plain-text password of every fixture user.
const FixturePassword = "password123"

// WithChiURLParam adds a chi URL parameter to the request context.
// Calling it more than once on the same request adds further parameters.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx, ok := r.Context().Value(chi.RouteCtxKey).(*chi.Context)
	if !ok || rctx == nil {
		rctx = chi.NewRouteContext()
	}
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

func (f *Fixtures) insert(ctx context.Context, coll string, doc any) {
	f.t.Helper()
	if _, err := f.db.Collection(coll).InsertOne(ctx, doc); err != nil {
		f.t.Fatalf("failed to insert test %s: %v", coll, err)
	}
}

var fixtureHash string

func passwordHash(t *testing.T) string {
	if fixtureHash == "" {
		h, err := bcrypt.GenerateFromPassword([]byte(FixturePassword), bcrypt.MinCost)
		if err != nil {
			t.Fatalf("hash fixture password: %v", err)
		}
		fixtureHash = string(h)
	}
	return fixtureHash
}

// CreateUser creates an active user with FixturePassword.
func (f *Fixtures) CreateUser(ctx context.Context, fullName, email, role string) models.User {
	f.t.Helper()
	now := time.Now().UTC()
	u := models.User{
		ID:           primitive.NewObjectID(),
		FullName:     fullName,
		FullNameCI:   text.Fold(fullName),
		Email:        email,
		EmailCI:      strings.ToLower(email),
		PasswordHash: passwordHash(f.t),
		Role:         role,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	f.insert(ctx, "users", u)
	return u
}

// CreateAdmin creates an admin user.
func (f *Fixtures) CreateAdmin(ctx context.Context, fullName, email string) models.User {
	return f.CreateUser(ctx, fullName, email, models.RoleAdmin)
}

// CreateTeacher creates a teacher user.
func (f *Fixtures) CreateTeacher(ctx context.Context, fullName, email string) models.User {
	return f.CreateUser(ctx, fullName, email, models.RoleTeacher)
}

// CreateStudent creates a student, optionally assigned to teacherID.
func (f *Fixtures) CreateStudent(ctx context.Context, fullName, email string, teacherID *primitive.ObjectID) models.User {
	f.t.Helper()
	now := time.Now().UTC()
	u := models.User{
		ID:           primitive.NewObjectID(),
		FullName:     fullName,
		FullNameCI:   text.Fold(fullName),
		Email:        email,
		EmailCI:      strings.ToLower(email),
		PasswordHash: passwordHash(f.t),
		Role:         models.RoleStudent,
		IsActive:     true,
		TeacherID:    teacherID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	f.insert(ctx, "users", u)
	return u
}

// CreateParent creates a parent linked to children.
func (f *Fixtures) CreateParent(ctx context.Context, fullName, email string, children ...primitive.ObjectID) models.User {
	f.t.Helper()
	now := time.Now().UTC()
	u := models.User{
		ID:           primitive.NewObjectID(),
		FullName:     fullName,
		FullNameCI:   text.Fold(fullName),
		Email:        email,
		EmailCI:      strings.ToLower(email),
		PasswordHash: passwordHash(f.t),
		Role:         models.RoleParent,
		IsActive:     true,
		ChildIDs:     children,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	f.insert(ctx, "users", u)
	return u
}

// CreateDisabledUser creates an inactive user.
func (f *Fixtures) CreateDisabledUser(ctx context.Context, fullName, email, role string) models.User {
	f.t.Helper()
	u := f.CreateUser(ctx, fullName, email, role)
	if _, err := f.db.Collection("users").UpdateByID(ctx, u.ID, map[string]any{"$set": map[string]any{"is_active": false}}); err != nil {
		f.t.Fatalf("failed to disable test user: %v", err)
	}
	u.IsActive = false
	return u
}

// CreateDiscount creates an active discount with no window and unlimited plans.
func (f *Fixtures) CreateDiscount(ctx context.Context, code, kind string, value int64, maxUses int) models.Discount {
	f.t.Helper()
	now := time.Now().UTC()
	d := models.Discount{
		ID:        primitive.NewObjectID(),
		Code:      strings.ToUpper(code),
		Type:      kind,
		Value:     value,
		MaxUses:   maxUses,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	f.insert(ctx, "discounts", d)
	return d
}

// CreateAssignment creates a pending assignment due in a week.
func (f *Fixtures) CreateAssignment(ctx context.Context, teacherID, studentID primitive.ObjectID, title, subject string) models.Assignment {
	f.t.Helper()
	now := time.Now().UTC()
	a := models.Assignment{
		ID:        primitive.NewObjectID(),
		TeacherID: teacherID,
		StudentID: studentID,
		Title:     title,
		Subject:   subject,
		DueDate:   now.Add(7 * 24 * time.Hour),
		MaxScore:  100,
		Status:    models.AssignmentPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	f.insert(ctx, "assignments", a)
	return a
}

// CreateGradedAssignment creates an assignment already graded with score out of 100.
func (f *Fixtures) CreateGradedAssignment(ctx context.Context, teacherID, studentID primitive.ObjectID, subject string, score int) models.Assignment {
	f.t.Helper()
	now := time.Now().UTC()
	a := models.Assignment{
		ID:          primitive.NewObjectID(),
		TeacherID:   teacherID,
		StudentID:   studentID,
		Title:       subject + " worksheet",
		Subject:     subject,
		DueDate:     now.Add(-24 * time.Hour),
		MaxScore:    100,
		Status:      models.AssignmentGraded,
		SubmittedAt: &now,
		Score:       &score,
		GradedAt:    &now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	f.insert(ctx, "assignments", a)
	return a
}

// CreateGoal creates an active goal.
func (f *Fixtures) CreateGoal(ctx context.Context, teacherID, studentID primitive.ObjectID, title string, target float64) models.Goal {
	f.t.Helper()
	now := time.Now().UTC()
	g := models.Goal{
		ID:          primitive.NewObjectID(),
		TeacherID:   teacherID,
		StudentID:   studentID,
		Title:       title,
		TargetValue: target,
		Status:      models.GoalActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	f.insert(ctx, "goals", g)
	return g
}

// CreateModule creates a published learning module.
func (f *Fixtures) CreateModule(ctx context.Context, title, subject string, difficulty int, prereqs ...primitive.ObjectID) models.LearningModule {
	f.t.Helper()
	now := time.Now().UTC()
	m := models.LearningModule{
		ID:               primitive.NewObjectID(),
		Title:            title,
		TitleCI:          text.Fold(title),
		Subject:          subject,
		Difficulty:       difficulty,
		Prerequisites:    prereqs,
		EstimatedMinutes: 30,
		Content:          []models.ContentItem{{Type: models.ContentText, Title: "Intro", Body: "..."}},
		IsPublished:      true,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	f.insert(ctx, "learning_modules", m)
	return m
}

// CreateVideoSession creates a session scheduled at when with the given invitees.
func (f *Fixtures) CreateVideoSession(ctx context.Context, teacherID primitive.ObjectID, when time.Time, students ...primitive.ObjectID) models.VideoSession {
	f.t.Helper()
	now := time.Now().UTC()
	parts := make([]models.Participant, 0, len(students))
	for _, s := range students {
		parts = append(parts, models.Participant{UserID: s})
	}
	v := models.VideoSession{
		ID:              primitive.NewObjectID(),
		TeacherID:       teacherID,
		Title:           "Coaching call",
		ScheduledAt:     when.UTC(),
		DurationMinutes: 45,
		RoomID:          primitive.NewObjectID().Hex(),
		Status:          models.VideoScheduled,
		Participants:    parts,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	f.insert(ctx, "video_sessions", v)
	return v
}

// CreateStudyGroup creates a group owned by owner with owner as the only member.
func (f *Fixtures) CreateStudyGroup(ctx context.Context, name, subject string, owner primitive.ObjectID, maxMembers int, public bool) models.StudyGroup {
	f.t.Helper()
	now := time.Now().UTC()
	g := models.StudyGroup{
		ID:          primitive.NewObjectID(),
		Name:        name,
		NameCI:      text.Fold(name),
		Subject:     subject,
		OwnerID:     owner,
		MemberIDs:   []primitive.ObjectID{owner},
		MemberCount: 1,
		MaxMembers:  maxMembers,
		IsPublic:    public,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	f.insert(ctx, "study_groups", g)
	return g
}

package assignmentstore_test

import (
	"errors"
	"testing"
	"time"

	assignmentstore "github.com/Elqomdes/hedeflynet/internal/app/store/assignments"
	"github.com/Elqomdes/hedeflynet/internal/app/system/paging"
	"github.com/Elqomdes/hedeflynet/internal/domain/models"
	"github.com/Elqomdes/hedeflynet/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestStore_CreateForStudents(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := assignmentstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	teacher := primitive.NewObjectID()
	s1, s2 := primitive.NewObjectID(), primitive.NewObjectID()

	created, err := store.CreateForStudents(ctx, models.Assignment{
		TeacherID: teacher,
		Title:     "Fractions",
		Subject:   " Math ",
		DueDate:   time.Now().Add(72 * time.Hour),
		MaxScore:  50,
		Status:    models.AssignmentGraded,
	}, []primitive.ObjectID{s1, s2})
	if err != nil {
		t.Fatalf("CreateForStudents failed: %v", err)
	}
	if len(created) != 2 || created[0].ID == created[1].ID {
		t.Fatalf("expected two distinct assignments, got %+v", created)
	}
	if created[0].Status != models.AssignmentPending || created[0].Subject != "math" {
		t.Errorf("unexpected assignment: %+v", created[0])
	}

	items, total, err := store.List(ctx, assignmentstore.Filter{TeacherID: &teacher}, paging.Params{Page: 1, Limit: 10})
	if err != nil || total != 2 || len(items) != 2 {
		t.Errorf("List = %d items (total %d), err %v", len(items), total, err)
	}
	items, total, _ = store.List(ctx, assignmentstore.Filter{StudentID: &s2}, paging.Params{Page: 1, Limit: 10})
	if total != 1 || items[0].StudentID != s2 {
		t.Errorf("List(student) = %+v", items)
	}
}

func TestStore_SubmitAndGrade(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := assignmentstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	teacher := fixtures.CreateTeacher(ctx, "Teacher", "t@example.com")
	student := fixtures.CreateStudent(ctx, "Student", "s@example.com", &teacher.ID)
	a := fixtures.CreateAssignment(ctx, teacher.ID, student.ID, "Essay", "english")

	// Grading before submission is not allowed.
	if _, err := store.Grade(ctx, a.ID, teacher.ID, 80, "", time.Now()); !errors.Is(err, assignmentstore.ErrInvalidTransition) {
		t.Errorf("grade pending: expected ErrInvalidTransition, got %v", err)
	}

	submitted, err := store.Submit(ctx, a.ID, student.ID, "my essay", time.Now())
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if submitted.Status != models.AssignmentSubmitted || submitted.Late || submitted.SubmittedAt == nil {
		t.Errorf("unexpected submission: %+v", submitted)
	}
	if _, err := store.Submit(ctx, a.ID, student.ID, "again", time.Now()); !errors.Is(err, assignmentstore.ErrInvalidTransition) {
		t.Errorf("double submit: expected ErrInvalidTransition, got %v", err)
	}
	if _, err := store.Submit(ctx, a.ID, primitive.NewObjectID(), "x", time.Now()); !errors.Is(err, mongo.ErrNoDocuments) {
		t.Errorf("other student: expected ErrNoDocuments, got %v", err)
	}

	if _, err := store.Grade(ctx, a.ID, teacher.ID, 101, "", time.Now()); !errors.Is(err, assignmentstore.ErrScoreRange) {
		t.Errorf("expected ErrScoreRange, got %v", err)
	}
	graded, err := store.Grade(ctx, a.ID, teacher.ID, 88, "Nice work", time.Now())
	if err != nil {
		t.Fatalf("Grade failed: %v", err)
	}
	if graded.Status != models.AssignmentGraded || graded.Score == nil || *graded.Score != 88 {
		t.Errorf("unexpected grade: %+v", graded)
	}

	if _, err := store.Update(ctx, a.ID, teacher.ID, assignmentstore.Edit{}); !errors.Is(err, assignmentstore.ErrGraded) {
		t.Errorf("editing graded: expected ErrGraded, got %v", err)
	}

	recent, err := store.RecentGraded(ctx, student.ID, 5)
	if err != nil || len(recent) != 1 {
		t.Errorf("RecentGraded = %d, %v", len(recent), err)
	}
}

func TestStore_Submit_Late(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := assignmentstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	a := fixtures.CreateAssignment(ctx, primitive.NewObjectID(), primitive.NewObjectID(), "Lab", "physics")

	got, err := store.Submit(ctx, a.ID, a.StudentID, "done", a.DueDate.Add(time.Hour))
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if !got.Late {
		t.Error("expected late flag after due date")
	}
}

func TestStore_UpdateAndDelete(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := assignmentstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	teacher := primitive.NewObjectID()
	a := fixtures.CreateAssignment(ctx, teacher, primitive.NewObjectID(), "Draft", "math")

	title := "Final"
	max := 20
	updated, err := store.Update(ctx, a.ID, teacher, assignmentstore.Edit{Title: &title, MaxScore: &max})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if updated.Title != "Final" || updated.MaxScore != 20 || updated.Subject != "math" {
		t.Errorf("unexpected update: %+v", updated)
	}
	if _, err := store.Update(ctx, a.ID, primitive.NewObjectID(), assignmentstore.Edit{Title: &title}); !errors.Is(err, mongo.ErrNoDocuments) {
		t.Errorf("other teacher: expected ErrNoDocuments, got %v", err)
	}

	if n, _ := store.Delete(ctx, a.ID, primitive.NewObjectID()); n != 0 {
		t.Error("other teacher should not delete")
	}
	if n, err := store.Delete(ctx, a.ID, teacher); err != nil || n != 1 {
		t.Errorf("Delete = %d, %v", n, err)
	}
}

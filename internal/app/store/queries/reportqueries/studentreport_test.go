package reportqueries_test

import (
	"testing"

	"github.com/Elqomdes/hedeflynet/internal/app/store/queries/reportqueries"
	"github.com/Elqomdes/hedeflynet/internal/domain/models"
	"github.com/Elqomdes/hedeflynet/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestCountAssignmentsByStatus(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	teacher, student := primitive.NewObjectID(), primitive.NewObjectID()
	fixtures.CreateAssignment(ctx, teacher, student, "A", "math")
	fixtures.CreateAssignment(ctx, teacher, student, "B", "math")
	fixtures.CreateGradedAssignment(ctx, teacher, student, "math", 80)
	fixtures.CreateAssignment(ctx, teacher, primitive.NewObjectID(), "C", "math")

	counts, err := reportqueries.CountAssignmentsByStatus(ctx, db, student, reportqueries.Window{})
	if err != nil {
		t.Fatalf("CountAssignmentsByStatus failed: %v", err)
	}
	if counts[models.AssignmentPending] != 2 || counts[models.AssignmentGraded] != 1 || counts[models.AssignmentSubmitted] != 0 {
		t.Errorf("unexpected counts: %v", counts)
	}
}

func TestSubjectAverages(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	teacher, student := primitive.NewObjectID(), primitive.NewObjectID()
	fixtures.CreateGradedAssignment(ctx, teacher, student, "math", 80)
	fixtures.CreateGradedAssignment(ctx, teacher, student, "math", 90)
	fixtures.CreateGradedAssignment(ctx, teacher, student, "english", 70)
	fixtures.CreateAssignment(ctx, teacher, student, "ungraded", "physics")

	avgs, err := reportqueries.SubjectAverages(ctx, db, student, reportqueries.Window{})
	if err != nil {
		t.Fatalf("SubjectAverages failed: %v", err)
	}
	if len(avgs) != 2 {
		t.Fatalf("got %d subjects, want 2: %+v", len(avgs), avgs)
	}
	if avgs[0].Subject != "english" || avgs[0].Average != 70 {
		t.Errorf("english = %+v", avgs[0])
	}
	if avgs[1].Subject != "math" || avgs[1].Average != 85 || avgs[1].Graded != 2 {
		t.Errorf("math = %+v", avgs[1])
	}
}

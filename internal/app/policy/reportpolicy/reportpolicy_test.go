package reportpolicy_test

import (
	"net/http/httptest"
	"testing"

	"github.com/Elqomdes/hedeflynet/internal/app/policy/reportpolicy"
	"github.com/Elqomdes/hedeflynet/internal/testutil"
)

func TestCanViewStudentReport(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	teacher := fixtures.CreateTeacher(ctx, "Teacher", "t@example.com")
	other := fixtures.CreateTeacher(ctx, "Other", "o@example.com")
	student := fixtures.CreateStudent(ctx, "Student", "s@example.com", &teacher.ID)
	parent := fixtures.CreateParent(ctx, "Parent", "p@example.com", student.ID)
	stranger := fixtures.CreateParent(ctx, "Stranger", "x@example.com")
	admin := fixtures.CreateAdmin(ctx, "Admin", "a@example.com")

	tests := []struct {
		name string
		as   testutil.TestUser
		want bool
	}{
		{"admin", testutil.AsUser(admin), true},
		{"assigned teacher", testutil.AsUser(teacher), true},
		{"other teacher", testutil.AsUser(other), false},
		{"linked parent", testutil.AsUser(parent), true},
		{"unlinked parent", testutil.AsUser(stranger), false},
		{"the student", testutil.AsUser(student), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := testutil.WithUser(httptest.NewRequest("GET", "/", nil), tt.as)
			got, err := reportpolicy.CanViewStudentReport(ctx, db, r, student.ID)
			if err != nil {
				t.Fatalf("error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

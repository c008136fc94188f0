package reports

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Elqomdes/hedeflynet/internal/app/store/queries/reportqueries"
	"github.com/Elqomdes/hedeflynet/internal/app/system/metrics"
	"github.com/Elqomdes/hedeflynet/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func isPDF(b []byte) bool { return bytes.HasPrefix(b, []byte("%PDF-")) }

func sampleData() *Data {
	return &Data{
		StudentName:         "Ayşe Yılmaz",
		TeacherName:         "Öğretmen Kaya",
		GeneratedAt:         time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
		AssignmentCounts:    map[string]int64{"pending": 1, "graded": 2},
		AssignmentsTotal:    3,
		AverageGradePercent: 72.5,
		Subjects: []reportqueries.SubjectAverage{
			{Subject: "math", Average: 72.5, Graded: 2},
			{Subject: "physics", Average: 90, Graded: 1},
		},
		Goals: []GoalLine{{Title: "Read 5 books", Status: "active", Progress: 40, Current: 2, Target: 5, Unit: "books"}},
		Level: 3,
		XP:    260,
	}
}

func TestRender(t *testing.T) {
	out, err := Render(sampleData())
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !isPDF(out) {
		t.Fatalf("output is not a PDF: %q", out[:16])
	}

	empty := sampleData()
	empty.Subjects = nil
	empty.Goals = nil
	empty.Partial = true
	if out, err := Render(empty); err != nil || !isPDF(out) {
		t.Fatalf("Render(empty) err=%v", err)
	}

	if _, err := Render(nil); err == nil {
		t.Error("Render(nil) should fail")
	}
}

func TestSubjectChart(t *testing.T) {
	png, err := SubjectChart(sampleData().Subjects)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(png, []byte("\x89PNG")) {
		t.Error("chart is not a PNG")
	}
}

func TestErrorPDF(t *testing.T) {
	if out := ErrorPDF("Ali", time.Now()); !isPDF(out) {
		t.Error("ErrorPDF is not a PDF")
	}
}

func TestFilename(t *testing.T) {
	at := time.Date(2026, 5, 4, 23, 0, 0, 0, time.UTC)
	tests := []struct{ name, want string }{
		{"Ayşe Çağlar Öztürk", "report-ayse-caglar-ozturk-2026-05-04.pdf"},
		{"  ", "report-student-2026-05-04.pdf"},
		{"Ali/../x", "report-ali-x-2026-05-04.pdf"},
	}
	for _, tt := range tests {
		if got := Filename(tt.name, at); got != tt.want {
			t.Errorf("Filename(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}

type fakeCollector struct {
	err error
}

func (f fakeCollector) Collect(context.Context, primitive.ObjectID, *time.Time, *time.Time) (*Data, error) {
	if f.err != nil {
		return nil, f.err
	}
	return sampleData(), nil
}

func (f fakeCollector) Fallback(id primitive.ObjectID, name string) *Data {
	return (&DataService{now: time.Now}).Fallback(id, name)
}

func TestGenerateFallbackChain(t *testing.T) {
	m := metrics.New()
	id := primitive.NewObjectID()

	g := &Generator{data: fakeCollector{}, render: Render, metrics: m, log: zap.NewNop(), now: time.Now}
	if out, src := g.Generate(context.Background(), id, "Ali", nil, nil); src != SourcePrimary || !isPDF(out) {
		t.Errorf("primary: source=%s", src)
	}

	g.data = fakeCollector{err: errors.New("db down")}
	var rendered *Data
	g.render = func(d *Data) ([]byte, error) { rendered = d; return Render(d) }
	if out, src := g.Generate(context.Background(), id, "Ali", nil, nil); src != SourceFallback || !isPDF(out) {
		t.Errorf("fallback: source=%s", src)
	}
	if rendered == nil || !rendered.Partial || rendered.StudentName != "Ali" {
		t.Errorf("fallback data = %+v", rendered)
	}

	g.render = func(*Data) ([]byte, error) { return nil, errors.New("boom") }
	if out, src := g.Generate(context.Background(), id, "Ali", nil, nil); src != SourceError || !isPDF(out) {
		t.Errorf("error: source=%s", src)
	}
}

func TestCollect(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	teacher := fx.CreateTeacher(ctx, "Ms Kaya", "kaya@example.com")
	ali := fx.CreateStudent(ctx, "Ali", "ali@example.com", &teacher.ID)
	fx.CreateAssignment(ctx, teacher.ID, ali.ID, "Essay", "english")
	fx.CreateGradedAssignment(ctx, teacher.ID, ali.ID, "math", 80)
	fx.CreateGradedAssignment(ctx, teacher.ID, ali.ID, "math", 60)
	fx.CreateGoal(ctx, teacher.ID, ali.ID, "Read", 4)

	d, err := NewDataService(db).Collect(ctx, ali.ID, nil, nil)
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if d.StudentName != "Ali" || d.TeacherName != "Ms Kaya" {
		t.Errorf("names = %q / %q", d.StudentName, d.TeacherName)
	}
	if d.AssignmentsTotal != 3 || d.AverageGradePercent != 70 || len(d.Subjects) != 1 {
		t.Errorf("assignments total=%d avg=%v subjects=%d", d.AssignmentsTotal, d.AverageGradePercent, len(d.Subjects))
	}
	if len(d.Goals) != 1 || d.Level != 1 || d.Partial {
		t.Errorf("goals=%d level=%d partial=%v", len(d.Goals), d.Level, d.Partial)
	}

	if _, err := NewDataService(db).Collect(ctx, teacher.ID, nil, nil); err == nil {
		t.Error("Collect for a non-student should fail")
	}
}

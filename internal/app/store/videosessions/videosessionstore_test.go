package videosessionstore_test

import (
	"errors"
	"testing"
	"time"

	videosessionstore "github.com/Elqomdes/hedeflynet/internal/app/store/videosessions"
	"github.com/Elqomdes/hedeflynet/internal/app/system/paging"
	"github.com/Elqomdes/hedeflynet/internal/domain/models"
	"github.com/Elqomdes/hedeflynet/internal/testutil"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStore_Create(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := videosessionstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	s1 := primitive.NewObjectID()
	v, err := store.Create(ctx, models.VideoSession{
		TeacherID:       primitive.NewObjectID(),
		Title:           "Exam prep",
		ScheduledAt:     time.Now().Add(time.Hour),
		DurationMinutes: 60,
	}, []primitive.ObjectID{s1, s1})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := uuid.Parse(v.RoomID); err != nil {
		t.Errorf("RoomID %q is not a uuid", v.RoomID)
	}
	if v.Status != models.VideoScheduled || len(v.Participants) != 1 {
		t.Errorf("unexpected session: %+v", v)
	}

	if _, err := store.Create(ctx, models.VideoSession{DurationMinutes: 5}, nil); !errors.Is(err, videosessionstore.ErrBadDuration) {
		t.Errorf("expected ErrBadDuration, got %v", err)
	}
}

func TestStore_JoinAndLeave(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := videosessionstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	teacher, student, outsider := primitive.NewObjectID(), primitive.NewObjectID(), primitive.NewObjectID()
	v := fixtures.CreateVideoSession(ctx, teacher, time.Now().Add(time.Hour), student)

	if _, err := store.Leave(ctx, v.ID, student, time.Now()); !errors.Is(err, videosessionstore.ErrNotJoined) {
		t.Errorf("leave before join: expected ErrNotJoined, got %v", err)
	}

	joined, err := store.Join(ctx, v.ID, student, time.Now())
	if err != nil {
		t.Fatalf("Join failed: %v", err)
	}
	p := joined.Participants[0]
	if !p.Joined || p.JoinedAt == nil {
		t.Errorf("participant not joined: %+v", p)
	}

	if _, err := store.Join(ctx, v.ID, outsider, time.Now()); !errors.Is(err, videosessionstore.ErrNotInvited) {
		t.Errorf("outsider: expected ErrNotInvited, got %v", err)
	}

	left, err := store.Leave(ctx, v.ID, student, time.Now())
	if err != nil {
		t.Fatalf("Leave failed: %v", err)
	}
	if left.Participants[0].LeftAt == nil {
		t.Error("expected LeftAt to be set")
	}

	if n, _ := store.CountAttended(ctx, student, nil, nil); n != 1 {
		t.Errorf("CountAttended = %d, want 1", n)
	}
}

func TestStore_Lifecycle(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := videosessionstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	teacher, student := primitive.NewObjectID(), primitive.NewObjectID()
	v := fixtures.CreateVideoSession(ctx, teacher, time.Now().Add(time.Hour), student)

	if _, err := store.End(ctx, v.ID, teacher, time.Now()); !errors.Is(err, videosessionstore.ErrInvalidTransition) {
		t.Errorf("end scheduled: expected ErrInvalidTransition, got %v", err)
	}
	live, err := store.Start(ctx, v.ID, teacher, time.Now())
	if err != nil || live.Status != models.VideoLive || live.StartedAt == nil {
		t.Fatalf("Start = %+v, %v", live, err)
	}
	done, err := store.End(ctx, v.ID, teacher, time.Now())
	if err != nil || done.Status != models.VideoCompleted {
		t.Fatalf("End = %+v, %v", done, err)
	}
	if _, err := store.Join(ctx, v.ID, student, time.Now()); !errors.Is(err, videosessionstore.ErrSessionClosed) {
		t.Errorf("join completed: expected ErrSessionClosed, got %v", err)
	}

	other := fixtures.CreateVideoSession(ctx, teacher, time.Now().Add(2*time.Hour), student)
	if _, err := store.Cancel(ctx, other.ID, primitive.NewObjectID()); err == nil {
		t.Error("another teacher should not cancel")
	}
	if c, err := store.Cancel(ctx, other.ID, teacher); err != nil || c.Status != models.VideoCancelled {
		t.Errorf("Cancel = %+v, %v", c, err)
	}
}

func TestStore_UpcomingAndList(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := videosessionstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	teacher, student := primitive.NewObjectID(), primitive.NewObjectID()
	now := time.Now()
	later := fixtures.CreateVideoSession(ctx, teacher, now.Add(48*time.Hour), student)
	soon := fixtures.CreateVideoSession(ctx, teacher, now.Add(time.Hour), student)
	fixtures.CreateVideoSession(ctx, teacher, now.Add(-time.Hour), student)

	up, err := store.Upcoming(ctx, student, now)
	if err != nil {
		t.Fatalf("Upcoming failed: %v", err)
	}
	if len(up) != 2 || up[0].ID != soon.ID || up[1].ID != later.ID {
		t.Errorf("unexpected upcoming: %+v", up)
	}
	if n, _ := store.CountUpcoming(ctx, student, now); n != 2 {
		t.Errorf("CountUpcoming = %d, want 2", n)
	}

	items, total, err := store.ListForTeacher(ctx, teacher, "", paging.Params{Page: 1, Limit: 10})
	if err != nil || total != 3 || items[0].ID != later.ID {
		t.Errorf("ListForTeacher = %d (total %d), err %v", len(items), total, err)
	}
}

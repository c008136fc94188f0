package progressstore_test

import (
	"errors"
	"testing"
	"time"

	progressstore "github.com/Elqomdes/hedeflynet/internal/app/store/progress"
	"github.com/Elqomdes/hedeflynet/internal/domain/models"
	"github.com/Elqomdes/hedeflynet/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStore_StartThenComplete(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := progressstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	user, mod := primitive.NewObjectID(), primitive.NewObjectID()

	p, err := store.Start(ctx, user, mod, time.Now())
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if p.Status != models.ProgressInProgress {
		t.Errorf("Status = %q, want in_progress", p.Status)
	}

	done, first, err := store.Complete(ctx, user, mod, 90, time.Now())
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if !first || done.Status != models.ProgressCompleted || *done.Score != 90 {
		t.Errorf("first completion = %v, %+v", first, done)
	}

	_, first, _ = store.Complete(ctx, user, mod, 95, time.Now())
	if first {
		t.Error("second completion should not be first")
	}

	// Starting a completed module keeps it completed.
	p, _ = store.Start(ctx, user, mod, time.Now())
	if p.Status != models.ProgressCompleted {
		t.Errorf("Start reset a completed module: %+v", p)
	}
}

func TestStore_CompleteWithoutStart(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := progressstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	user := primitive.NewObjectID()
	_, first, err := store.Complete(ctx, user, primitive.NewObjectID(), 70, time.Now())
	if err != nil || !first {
		t.Fatalf("Complete = %v, %v", first, err)
	}
	if _, _, err := store.Complete(ctx, user, primitive.NewObjectID(), 101, time.Now()); !errors.Is(err, progressstore.ErrScoreRange) {
		t.Errorf("expected ErrScoreRange, got %v", err)
	}

	all, err := store.ForUser(ctx, user)
	if err != nil || len(all) != 1 {
		t.Errorf("ForUser = %d, %v", len(all), err)
	}
	n, _ := store.CountCompleted(ctx, user, nil, nil)
	if n != 1 {
		t.Errorf("CountCompleted = %d, want 1", n)
	}
	future := time.Now().Add(time.Hour)
	if n, _ := store.CountCompleted(ctx, user, &future, nil); n != 0 {
		t.Errorf("CountCompleted(from future) = %d, want 0", n)
	}
}

package gamificationstore_test

import (
	"testing"
	"time"

	gamificationstore "github.com/Elqomdes/hedeflynet/internal/app/store/gamification"
	"github.com/Elqomdes/hedeflynet/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStore_GetCreatesProfile(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := gamificationstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	user := primitive.NewObjectID()
	p, err := store.Get(ctx, user)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if p.UserID != user || p.Level != 1 || p.XP != 0 {
		t.Errorf("unexpected new profile: %+v", p)
	}
	again, _ := store.Get(ctx, user)
	if again.ID != p.ID {
		t.Error("second Get created another profile")
	}
}

func TestStore_AddXPAndRaiseLevel(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := gamificationstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	user := primitive.NewObjectID()
	p, err := store.AddXP(ctx, user, 40)
	if err != nil {
		t.Fatalf("AddXP failed: %v", err)
	}
	if p.XP != 40 || p.Level != 1 {
		t.Errorf("after first AddXP: %+v", p)
	}
	p, _ = store.AddXP(ctx, user, 25)
	if p.XP != 65 {
		t.Errorf("XP = %d, want 65", p.XP)
	}

	raised, err := store.RaiseLevel(ctx, user, 2)
	if err != nil || !raised {
		t.Fatalf("RaiseLevel(2) = %v, %v", raised, err)
	}
	if raised, _ := store.RaiseLevel(ctx, user, 2); raised {
		t.Error("raising to the same level twice should report false")
	}
	if raised, _ := store.RaiseLevel(ctx, user, 1); raised {
		t.Error("lowering the level should report false")
	}
}

func TestStore_AwardIsIdempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := gamificationstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	user := primitive.NewObjectID()
	store.Get(ctx, user)

	first, err := store.Award(ctx, user, "streak_3", time.Now())
	if err != nil || !first {
		t.Fatalf("first Award = %v, %v", first, err)
	}
	second, _ := store.Award(ctx, user, "streak_3", time.Now())
	if second {
		t.Error("second Award should not add a duplicate")
	}
	p, _ := store.Find(ctx, user)
	if len(p.Achievements) != 1 || !p.HasAchievement("streak_3") {
		t.Errorf("Achievements = %+v", p.Achievements)
	}
}

func TestStore_SetStreakIsConditional(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := gamificationstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	user := primitive.NewObjectID()
	store.Get(ctx, user)

	day1 := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	ok, err := store.SetStreak(ctx, user, nil, 1, 1, day1)
	if err != nil || !ok {
		t.Fatalf("SetStreak(first) = %v, %v", ok, err)
	}
	// A writer that still believes there was no previous activity loses.
	if ok, _ := store.SetStreak(ctx, user, nil, 1, 1, day1); ok {
		t.Error("stale SetStreak should not match")
	}
	day2 := day1.AddDate(0, 0, 1)
	if ok, _ := store.SetStreak(ctx, user, &day1, 2, 2, day2); !ok {
		t.Error("SetStreak with correct previous date should match")
	}
	p, _ := store.Find(ctx, user)
	if p.CurrentStreak != 2 || p.LongestStreak != 2 {
		t.Errorf("streak = %d/%d, want 2/2", p.CurrentStreak, p.LongestStreak)
	}
}

func TestStore_Leaderboard(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := gamificationstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	a, b, c := primitive.NewObjectID(), primitive.NewObjectID(), primitive.NewObjectID()
	store.AddXP(ctx, a, 10)
	store.AddXP(ctx, b, 300)
	store.AddXP(ctx, c, 120)

	top, err := store.Leaderboard(ctx, 2)
	if err != nil {
		t.Fatalf("Leaderboard failed: %v", err)
	}
	if len(top) != 2 || top[0].UserID != b || top[1].UserID != c {
		t.Errorf("unexpected leaderboard: %+v", top)
	}

	m, _ := store.ForUsers(ctx, []primitive.ObjectID{a, c})
	if len(m) != 2 || m[a].XP != 10 {
		t.Errorf("ForUsers = %+v", m)
	}
}

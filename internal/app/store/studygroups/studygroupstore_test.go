package studygroupstore_test

import (
	"errors"
	"sync"
	"testing"

	studygroupstore "github.com/Elqomdes/hedeflynet/internal/app/store/studygroups"
	"github.com/Elqomdes/hedeflynet/internal/app/system/paging"
	"github.com/Elqomdes/hedeflynet/internal/domain/models"
	"github.com/Elqomdes/hedeflynet/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStore_Create(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := studygroupstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := primitive.NewObjectID()
	g, err := store.Create(ctx, models.StudyGroup{Name: " Calc  Crew ", Subject: "Math", OwnerID: owner, MaxMembers: 5, IsPublic: true})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if g.Name != "Calc Crew" || g.MemberCount != 1 || !g.HasMember(owner) {
		t.Errorf("unexpected group: %+v", g)
	}
	if _, err := store.Create(ctx, models.StudyGroup{Name: "Solo", OwnerID: owner, MaxMembers: 1}); !errors.Is(err, studygroupstore.ErrBadSize) {
		t.Errorf("expected ErrBadSize, got %v", err)
	}
}

func TestStore_JoinRules(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := studygroupstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner, a, b := primitive.NewObjectID(), primitive.NewObjectID(), primitive.NewObjectID()
	public := fixtures.CreateStudyGroup(ctx, "Public", "math", owner, 2, true)
	private := fixtures.CreateStudyGroup(ctx, "Private", "math", owner, 10, false)

	if _, err := store.Join(ctx, public.ID, a); err != nil {
		t.Fatalf("Join failed: %v", err)
	}
	if _, err := store.Join(ctx, public.ID, a); !errors.Is(err, studygroupstore.ErrAlreadyMember) {
		t.Errorf("expected ErrAlreadyMember, got %v", err)
	}
	if _, err := store.Join(ctx, public.ID, b); !errors.Is(err, studygroupstore.ErrFull) {
		t.Errorf("expected ErrFull, got %v", err)
	}

	if _, err := store.Join(ctx, private.ID, b); !errors.Is(err, studygroupstore.ErrPrivate) {
		t.Errorf("expected ErrPrivate, got %v", err)
	}
	if err := store.Invite(ctx, private.ID, a, b); !errors.Is(err, studygroupstore.ErrNotOwner) {
		t.Errorf("non-owner invite: expected ErrNotOwner, got %v", err)
	}
	if err := store.Invite(ctx, private.ID, owner, b); err != nil {
		t.Fatalf("Invite failed: %v", err)
	}
	joined, err := store.Join(ctx, private.ID, b)
	if err != nil {
		t.Fatalf("invited Join failed: %v", err)
	}
	if len(joined.InvitedIDs) != 0 || joined.MemberCount != 2 {
		t.Errorf("unexpected group after invited join: %+v", joined)
	}
}

func TestStore_JoinConcurrentNeverOverfills(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := studygroupstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	g := fixtures.CreateStudyGroup(ctx, "Rush", "math", primitive.NewObjectID(), 4, true)

	var wg sync.WaitGroup
	for i := 0; i < 12; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			store.Join(ctx, g.ID, primitive.NewObjectID())
		}()
	}
	wg.Wait()

	reloaded, _ := store.GetByID(ctx, g.ID)
	if reloaded.MemberCount != 4 || len(reloaded.MemberIDs) != 4 {
		t.Errorf("group has %d members (count %d), want 4", len(reloaded.MemberIDs), reloaded.MemberCount)
	}
}

func TestStore_Leave(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := studygroupstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner, member := primitive.NewObjectID(), primitive.NewObjectID()
	g := fixtures.CreateStudyGroup(ctx, "G", "math", owner, 5, true)
	store.Join(ctx, g.ID, member)

	if err := store.Leave(ctx, g.ID, owner); !errors.Is(err, studygroupstore.ErrOwnerCannotLeave) {
		t.Errorf("expected ErrOwnerCannotLeave, got %v", err)
	}
	if err := store.Leave(ctx, g.ID, member); err != nil {
		t.Fatalf("Leave failed: %v", err)
	}
	if err := store.Leave(ctx, g.ID, member); !errors.Is(err, studygroupstore.ErrNotMember) {
		t.Errorf("expected ErrNotMember, got %v", err)
	}
	reloaded, _ := store.GetByID(ctx, g.ID)
	if reloaded.MemberCount != 1 {
		t.Errorf("MemberCount = %d, want 1", reloaded.MemberCount)
	}
}

func TestStore_List(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := studygroupstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	viewer, other := primitive.NewObjectID(), primitive.NewObjectID()
	fixtures.CreateStudyGroup(ctx, "Alpha", "math", other, 5, true)
	fixtures.CreateStudyGroup(ctx, "Beta", "physics", other, 5, false)
	fixtures.CreateStudyGroup(ctx, "Gamma", "math", viewer, 5, false)

	visible, total, err := store.List(ctx, studygroupstore.Filter{Viewer: viewer}, paging.Params{Page: 1, Limit: 10})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if total != 2 || visible[0].Name != "Alpha" || visible[1].Name != "Gamma" {
		t.Errorf("visible = %+v", visible)
	}
	mine, _, _ := store.List(ctx, studygroupstore.Filter{Viewer: viewer, Mine: true}, paging.Params{Page: 1, Limit: 10})
	if len(mine) != 1 || mine[0].Name != "Gamma" {
		t.Errorf("mine = %+v", mine)
	}
	math, _, _ := store.List(ctx, studygroupstore.Filter{Viewer: viewer, Subject: "MATH"}, paging.Params{Page: 1, Limit: 10})
	if len(math) != 2 {
		t.Errorf("math = %d groups, want 2", len(math))
	}
}

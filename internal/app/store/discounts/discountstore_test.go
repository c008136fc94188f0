package discountstore_test

import (
	"errors"
	"sync"
	"testing"
	"time"

	discountstore "github.com/Elqomdes/hedeflynet/internal/app/store/discounts"
	"github.com/Elqomdes/hedeflynet/internal/app/system/indexes"
	"github.com/Elqomdes/hedeflynet/internal/domain/models"
	"github.com/Elqomdes/hedeflynet/internal/testutil"
)

func TestStore_Create(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := discountstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	d, err := store.Create(ctx, models.Discount{Code: " spring20 ", Type: models.DiscountPercentage, Value: 20, IsActive: true, CurrentUses: 7})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if d.Code != "SPRING20" {
		t.Errorf("Code = %q, want SPRING20", d.Code)
	}
	if d.CurrentUses != 0 {
		t.Errorf("CurrentUses = %d, want 0", d.CurrentUses)
	}

	if _, err := store.Create(ctx, models.Discount{Code: "Spring20", Type: models.DiscountFixed, Value: 100}); !errors.Is(err, discountstore.ErrDuplicateCode) {
		t.Errorf("expected ErrDuplicateCode, got %v", err)
	}

	tests := []struct {
		name string
		d    models.Discount
		want error
	}{
		{"percentage over 100", models.Discount{Code: "A", Type: models.DiscountPercentage, Value: 101}, discountstore.ErrBadValue},
		{"zero value", models.Discount{Code: "B", Type: models.DiscountFixed, Value: 0}, discountstore.ErrBadValue},
		{"bad type", models.Discount{Code: "C", Type: "bogo", Value: 1}, discountstore.ErrBadType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := store.Create(ctx, tt.d); !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
		})
	}
}

func TestStore_Redeem_IncrementsAndBlocksAtMax(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := discountstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fixtures.CreateDiscount(ctx, "TWICE", models.DiscountFixed, 5000, 2)
	now := time.Now()

	for i := 1; i <= 2; i++ {
		d, err := store.Redeem(ctx, "twice", models.Plan3Months, now)
		if err != nil {
			t.Fatalf("redeem %d failed: %v", i, err)
		}
		if d.CurrentUses != i {
			t.Errorf("after redeem %d CurrentUses = %d", i, d.CurrentUses)
		}
	}
	if _, err := store.Redeem(ctx, "TWICE", models.Plan3Months, now); !errors.Is(err, discountstore.ErrExhausted) {
		t.Errorf("third redeem: expected ErrExhausted, got %v", err)
	}

	d, _ := store.GetByCode(ctx, "TWICE")
	if d.CurrentUses != 2 {
		t.Errorf("CurrentUses = %d, want 2", d.CurrentUses)
	}
}

func TestStore_Redeem_Concurrent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := discountstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fixtures.CreateDiscount(ctx, "RUSH", models.DiscountPercentage, 10, 5)

	var wg sync.WaitGroup
	var mu sync.Mutex
	ok := 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := store.Redeem(ctx, "RUSH", models.Plan6Months, time.Now()); err == nil {
				mu.Lock()
				ok++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if ok != 5 {
		t.Errorf("%d redemptions succeeded, want 5", ok)
	}
	d, _ := store.GetByCode(ctx, "RUSH")
	if d.CurrentUses != 5 {
		t.Errorf("CurrentUses = %d, want 5", d.CurrentUses)
	}
}

func TestStore_Redeem_Reasons(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := discountstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	now := time.Now().UTC()
	past := now.Add(-48 * time.Hour)
	yesterday := now.Add(-24 * time.Hour)
	tomorrow := now.Add(24 * time.Hour)
	later := now.Add(48 * time.Hour)

	mk := func(d models.Discount) {
		t.Helper()
		if d.Type == "" {
			d.Type, d.Value = models.DiscountFixed, 1000
		}
		if _, err := store.Create(ctx, d); err != nil {
			t.Fatalf("Create %s failed: %v", d.Code, err)
		}
	}
	mk(models.Discount{Code: "OFF", IsActive: false})
	mk(models.Discount{Code: "OLD", IsActive: true, ValidFrom: &past, ValidUntil: &yesterday})
	mk(models.Discount{Code: "SOON", IsActive: true, ValidFrom: &tomorrow, ValidUntil: &later})
	mk(models.Discount{Code: "YEARLY", IsActive: true, ApplicablePlans: []string{models.Plan12Months}})
	mk(models.Discount{Code: "OPEN", IsActive: true, ValidFrom: &yesterday, ValidUntil: &tomorrow})

	tests := []struct {
		code string
		plan string
		want error
	}{
		{"MISSING", models.Plan3Months, discountstore.ErrUnknownCode},
		{"OFF", models.Plan3Months, discountstore.ErrInactive},
		{"OLD", models.Plan3Months, discountstore.ErrExpired},
		{"SOON", models.Plan3Months, discountstore.ErrNotYetValid},
		{"YEARLY", models.Plan3Months, discountstore.ErrPlanNotApplicable},
		{"YEARLY", models.Plan12Months, nil},
		{"OPEN", models.Plan6Months, nil},
	}
	for _, tt := range tests {
		t.Run(tt.code+"/"+tt.plan, func(t *testing.T) {
			_, err := store.Redeem(ctx, tt.code, tt.plan, now)
			if !errors.Is(err, tt.want) {
				t.Errorf("Redeem = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestStore_UpdateKeepsUses(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := discountstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	d := fixtures.CreateDiscount(ctx, "EDIT", models.DiscountPercentage, 15, 0)
	store.Redeem(ctx, "EDIT", models.Plan3Months, time.Now())

	d.Value = 25
	d.CurrentUses = 0
	d.ApplicablePlans = []string{models.Plan6Months}
	updated, err := store.Update(ctx, d)
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if updated.Value != 25 || updated.CurrentUses != 1 {
		t.Errorf("Value=%d CurrentUses=%d, want 25 and 1", updated.Value, updated.CurrentUses)
	}
	if len(updated.ApplicablePlans) != 1 {
		t.Errorf("ApplicablePlans = %v", updated.ApplicablePlans)
	}

	if err := store.Release(ctx, d.ID); err != nil {
		t.Fatalf("Release failed: %v", err)
	}
	reloaded, _ := store.GetByID(ctx, d.ID)
	if reloaded.CurrentUses != 0 {
		t.Errorf("CurrentUses after Release = %d, want 0", reloaded.CurrentUses)
	}
}

func TestCheck(t *testing.T) {
	now := time.Now()
	d := models.Discount{IsActive: true, MaxUses: 3, CurrentUses: 3}
	if err := discountstore.Check(d, models.Plan3Months, now); !errors.Is(err, discountstore.ErrExhausted) {
		t.Errorf("expected ErrExhausted, got %v", err)
	}
	d.MaxUses = 0
	if err := discountstore.Check(d, models.Plan3Months, now); err != nil {
		t.Errorf("unlimited discount should be usable, got %v", err)
	}
}

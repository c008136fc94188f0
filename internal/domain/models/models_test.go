package models

import (
	"testing"
	"time"
)

func TestPlanEndDate(t *testing.T) {
	start := time.Date(2026, 1, 15, 9, 0, 0, 0, time.UTC)
	tests := []struct {
		plan string
		want time.Time
	}{
		{Plan3Months, time.Date(2026, 4, 15, 9, 0, 0, 0, time.UTC)},
		{Plan6Months, time.Date(2026, 7, 15, 9, 0, 0, 0, time.UTC)},
		{Plan12Months, time.Date(2027, 1, 15, 9, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.plan, func(t *testing.T) {
			p, ok := LookupPlan(tt.plan)
			if !ok {
				t.Fatalf("LookupPlan(%q) not found", tt.plan)
			}
			if got := p.EndDate(start); !got.Equal(tt.want) {
				t.Errorf("EndDate = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLookupPlan_Unknown(t *testing.T) {
	if _, ok := LookupPlan("1_month"); ok {
		t.Error("expected unknown plan to be rejected")
	}
}

func TestDiscountAmount(t *testing.T) {
	tests := []struct {
		name  string
		d     Discount
		price int64
		want  int64
	}{
		{"percentage", Discount{Type: DiscountPercentage, Value: 20}, 150000, 30000},
		{"full percentage", Discount{Type: DiscountPercentage, Value: 100}, 150000, 150000},
		{"fixed", Discount{Type: DiscountFixed, Value: 25000}, 150000, 25000},
		{"fixed capped at price", Discount{Type: DiscountFixed, Value: 999999}, 150000, 150000},
		{"negative value", Discount{Type: DiscountFixed, Value: -5}, 150000, 0},
		{"unknown type", Discount{Type: "bogus", Value: 10}, 150000, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.d.Amount(tt.price); got != tt.want {
				t.Errorf("Amount(%d) = %d, want %d", tt.price, got, tt.want)
			}
		})
	}
}

func TestDiscountAppliesTo(t *testing.T) {
	all := Discount{}
	if !all.AppliesTo(Plan6Months) {
		t.Error("empty ApplicablePlans should apply to every plan")
	}
	only := Discount{ApplicablePlans: []string{Plan12Months}}
	if only.AppliesTo(Plan3Months) {
		t.Error("expected 3_months to be excluded")
	}
	if !only.AppliesTo(Plan12Months) {
		t.Error("expected 12_months to be included")
	}
}

func TestGoalProgress(t *testing.T) {
	tests := []struct {
		g    Goal
		want float64
	}{
		{Goal{TargetValue: 0, CurrentValue: 5}, 0},
		{Goal{TargetValue: 10, CurrentValue: 5}, 50},
		{Goal{TargetValue: 10, CurrentValue: 15}, 100},
		{Goal{TargetValue: 10, CurrentValue: -1}, 0},
	}
	for _, tt := range tests {
		if got := tt.g.Progress(); got != tt.want {
			t.Errorf("Progress(%v/%v) = %v, want %v", tt.g.CurrentValue, tt.g.TargetValue, got, tt.want)
		}
	}
}

func TestAssignmentPercent(t *testing.T) {
	a := Assignment{MaxScore: 50}
	if _, ok := a.Percent(); ok {
		t.Error("ungraded assignment should report no percent")
	}
	score := 40
	a.Score = &score
	got, ok := a.Percent()
	if !ok || got != 80 {
		t.Errorf("Percent = %v,%v want 80,true", got, ok)
	}
}

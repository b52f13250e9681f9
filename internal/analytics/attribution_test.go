package analytics

import (
	"testing"
	"time"

	"alcyxob/gym-manager/internal/domain"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func idPtr(id primitive.ObjectID) *primitive.ObjectID {
	return &id
}

func TestSessionValue(t *testing.T) {
	tests := []struct {
		name  string
		terms *PlanTerms
		want  decimal.Decimal
	}{
		{name: "nil plan", terms: nil, want: decimal.Zero},
		{name: "zero units", terms: &PlanTerms{Price: dec("500"), Units: 0}, want: decimal.Zero},
		{name: "even split", terms: &PlanTerms{Price: dec("1000"), Units: 10}, want: dec("100")},
		{name: "fractional", terms: &PlanTerms{Price: dec("100"), Units: 3}, want: dec("33.3333333333333333")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SessionValue(tt.terms)
			if !got.Equal(tt.want) {
				t.Fatalf("SessionValue() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestComputeCrossTrainerCompletion(t *testing.T) {
	x := primitive.NewObjectID()
	y := primitive.NewObjectID()
	plan := &PlanTerms{Price: dec("1000"), Units: 10}

	report := Compute(Input{
		Sales:    []Sale{{OwnerID: idPtr(x), Plan: plan}},
		OneOnOne: []Delivery{{OwnerID: idPtr(x), DeliveredBy: y, Plan: plan}},
	})

	fx, fy := report.For(x), report.For(y)
	if !fx.Base.Equal(dec("1000")) {
		t.Errorf("X base = %s, want 1000", fx.Base)
	}
	if !fx.OneOnOneAdjustment.Equal(dec("-100")) {
		t.Errorf("X adjustment = %s, want -100", fx.OneOnOneAdjustment)
	}
	if !fx.Net().Equal(dec("900")) {
		t.Errorf("X net = %s, want 900", fx.Net())
	}
	if !fy.Net().Equal(dec("100")) {
		t.Errorf("Y net = %s, want 100", fy.Net())
	}
	if !report.TotalRevenue().Equal(dec("1000")) {
		t.Errorf("total revenue = %s, want 1000", report.TotalRevenue())
	}
}

func TestComputeSkipsOwnAndWorthlessDeliveries(t *testing.T) {
	x := primitive.NewObjectID()
	y := primitive.NewObjectID()
	free := &PlanTerms{Price: dec("0"), Units: 0}
	paid := &PlanTerms{Price: dec("600"), Units: 6}

	report := Compute(Input{
		OneOnOne: []Delivery{
			{OwnerID: idPtr(x), DeliveredBy: x, Plan: paid},
			{OwnerID: idPtr(x), DeliveredBy: y, Plan: free},
			{OwnerID: idPtr(x), DeliveredBy: y, Plan: nil},
		},
	})

	if len(report.Trainers) != 0 {
		t.Fatalf("expected no figures, got %d trainers", len(report.Trainers))
	}
}

func TestComputeGroupAdjustment(t *testing.T) {
	owner := primitive.NewObjectID()
	coach := primitive.NewObjectID()
	plan := &PlanTerms{Price: dec("800"), Units: 8}

	report := Compute(Input{
		GroupWork: []Delivery{
			{OwnerID: idPtr(owner), DeliveredBy: coach, Plan: plan},
			{OwnerID: idPtr(owner), DeliveredBy: coach, Plan: plan},
			{OwnerID: idPtr(coach), DeliveredBy: coach, Plan: plan},
		},
	})

	if got := report.For(owner).GroupAdjustment; !got.Equal(dec("-200")) {
		t.Errorf("owner group adjustment = %s, want -200", got)
	}
	if got := report.For(coach).GroupAdjustment; !got.Equal(dec("200")) {
		t.Errorf("coach group adjustment = %s, want 200", got)
	}
	if got := report.For(coach).OneOnOneAdjustment; !got.IsZero() {
		t.Errorf("coach 1-on-1 adjustment = %s, want 0", got)
	}
}

func TestComputeUnownedSubscription(t *testing.T) {
	y := primitive.NewObjectID()
	plan := &PlanTerms{Price: dec("300"), Units: 3}

	report := Compute(Input{
		Sales:    []Sale{{OwnerID: nil, Plan: plan}},
		OneOnOne: []Delivery{{OwnerID: nil, DeliveredBy: y, Plan: plan}},
	})

	if !report.Unattributed.Equal(dec("300")) {
		t.Errorf("unattributed = %s, want 300", report.Unattributed)
	}
	if got := report.For(y).Net(); !got.Equal(dec("100")) {
		t.Errorf("deliverer net = %s, want 100", got)
	}
}

func TestNoRoundingDuringAccumulation(t *testing.T) {
	x := primitive.NewObjectID()
	y := primitive.NewObjectID()
	plan := &PlanTerms{Price: dec("100"), Units: 3}

	deliveries := make([]Delivery, 3)
	for i := range deliveries {
		deliveries[i] = Delivery{OwnerID: idPtr(x), DeliveredBy: y, Plan: plan}
	}
	report := Compute(Input{OneOnOne: deliveries})

	got := report.For(y).Net().Round(2)
	if !got.Equal(dec("100")) {
		t.Fatalf("rounded net = %s, want 100.00", got)
	}
}

func TestGoverningSubscription(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	older := domain.Subscription{ID: primitive.NewObjectID(), CreatedAt: base}
	newer := domain.Subscription{ID: primitive.NewObjectID(), CreatedAt: base.AddDate(0, 2, 0)}
	active := domain.Subscription{ID: primitive.NewObjectID(), CreatedAt: base.AddDate(0, 1, 0), IsActive: true}

	if got := GoverningSubscription(nil); got != nil {
		t.Fatalf("expected nil for no subscriptions")
	}
	if got := GoverningSubscription([]domain.Subscription{older, newer}); got.ID != newer.ID {
		t.Errorf("expected most recent subscription without an active one")
	}
	if got := GoverningSubscription([]domain.Subscription{older, active, newer}); got.ID != active.ID {
		t.Errorf("expected the active subscription to win")
	}
}

func TestMonthlyTotals(t *testing.T) {
	sales := []DatedSale{
		{At: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC), Price: dec("1000")},
		{At: time.Date(2024, 3, 20, 10, 0, 0, 0, time.UTC), Price: dec("250.50")},
		{At: time.Date(2024, 12, 31, 10, 0, 0, 0, time.UTC), Price: dec("10")},
		{At: time.Date(2023, 3, 1, 10, 0, 0, 0, time.UTC), Price: dec("999")},
	}
	totals := MonthlyTotals(sales, 2024, time.UTC)

	if !totals[2].Equal(dec("1250.50")) {
		t.Errorf("march = %s, want 1250.50", totals[2])
	}
	if !totals[11].Equal(dec("10")) {
		t.Errorf("december = %s, want 10", totals[11])
	}
	if !totals[0].IsZero() {
		t.Errorf("january = %s, want 0", totals[0])
	}
}

func TestMonthWindow(t *testing.T) {
	from, to := MonthWindow(2024, time.December, time.UTC)
	if !from.Equal(time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC)) || !to.Equal(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected window %s - %s", from, to)
	}
}

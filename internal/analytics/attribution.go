// Package analytics computes per-trainer revenue for a reporting window.
// It works on plain values only and never touches storage or auth.
package analytics

import (
	"sort"
	"time"

	"alcyxob/gym-manager/internal/domain"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PlanTerms are the pricing terms of a package.
type PlanTerms struct {
	Price decimal.Decimal
	Units int
}

// TermsOf converts a plan into its pricing terms. A nil plan yields nil.
func TermsOf(p *domain.Plan) *PlanTerms {
	if p == nil {
		return nil
	}
	return &PlanTerms{Price: p.PriceValue(), Units: p.Units}
}

// SessionValue is price/units, or zero for a missing plan or a plan without units.
func SessionValue(t *PlanTerms) decimal.Decimal {
	if t == nil || t.Units <= 0 {
		return decimal.Zero
	}
	return t.Price.Div(decimal.NewFromInt(int64(t.Units)))
}

// Sale is a subscription created inside the window.
type Sale struct {
	OwnerID *primitive.ObjectID
	Plan    *PlanTerms
}

// Delivery is one unit of a subscription delivered by a trainer, either a
// completed 1-on-1 session or a deducted group participation.
type Delivery struct {
	OwnerID     *primitive.ObjectID
	DeliveredBy primitive.ObjectID
	Plan        *PlanTerms
}

// Input is everything the engine needs for one window.
type Input struct {
	Sales     []Sale
	OneOnOne  []Delivery
	GroupWork []Delivery
}

// TrainerFigures holds unrounded money figures for one trainer.
type TrainerFigures struct {
	Base               decimal.Decimal
	OneOnOneAdjustment decimal.Decimal
	GroupAdjustment    decimal.Decimal
	SalesCount         int
}

// Net is base revenue plus both adjustments.
func (f TrainerFigures) Net() decimal.Decimal {
	return f.Base.Add(f.OneOnOneAdjustment).Add(f.GroupAdjustment)
}

// Report is the result of Compute.
type Report struct {
	Trainers map[primitive.ObjectID]*TrainerFigures
	// Unattributed is revenue from sales that had no owning trainer.
	Unattributed      decimal.Decimal
	UnattributedSales int
}

// For returns the figures for trainerID, zero valued when it had no activity.
func (r *Report) For(trainerID primitive.ObjectID) TrainerFigures {
	if f, ok := r.Trainers[trainerID]; ok {
		return *f
	}
	return TrainerFigures{}
}

// TotalRevenue is the sum of all sale prices in the window.
func (r *Report) TotalRevenue() decimal.Decimal {
	total := r.Unattributed
	for _, f := range r.Trainers {
		total = total.Add(f.Base)
	}
	return total
}

// SalesCount is the number of sales in the window, owned or not.
func (r *Report) SalesCount() int {
	n := r.UnattributedSales
	for _, f := range r.Trainers {
		n += f.SalesCount
	}
	return n
}

func (r *Report) figures(id primitive.ObjectID) *TrainerFigures {
	f, ok := r.Trainers[id]
	if !ok {
		f = &TrainerFigures{}
		r.Trainers[id] = f
	}
	return f
}

// Compute attributes revenue to trainers. Each delivery whose deliverer differs
// from the subscription owner moves one session value from the owner to the
// deliverer. Nothing is rounded here.
func Compute(in Input) *Report {
	r := &Report{Trainers: make(map[primitive.ObjectID]*TrainerFigures)}

	for _, s := range in.Sales {
		price := decimal.Zero
		if s.Plan != nil {
			price = s.Plan.Price
		}
		if s.OwnerID == nil {
			r.Unattributed = r.Unattributed.Add(price)
			r.UnattributedSales++
			continue
		}
		f := r.figures(*s.OwnerID)
		f.Base = f.Base.Add(price)
		f.SalesCount++
	}

	for _, d := range in.OneOnOne {
		shift(r, d, func(f *TrainerFigures, v decimal.Decimal) {
			f.OneOnOneAdjustment = f.OneOnOneAdjustment.Add(v)
		})
	}
	for _, d := range in.GroupWork {
		shift(r, d, func(f *TrainerFigures, v decimal.Decimal) {
			f.GroupAdjustment = f.GroupAdjustment.Add(v)
		})
	}
	return r
}

func shift(r *Report, d Delivery, apply func(*TrainerFigures, decimal.Decimal)) {
	if d.OwnerID != nil && *d.OwnerID == d.DeliveredBy {
		return
	}
	v := SessionValue(d.Plan)
	if v.IsZero() {
		return
	}
	if d.OwnerID != nil {
		apply(r.figures(*d.OwnerID), v.Neg())
	}
	apply(r.figures(d.DeliveredBy), v)
}

// GoverningSubscription picks the subscription a group attendance counts
// against: the active one, else the most recently created one.
func GoverningSubscription(subs []domain.Subscription) *domain.Subscription {
	var latest *domain.Subscription
	for i := range subs {
		s := &subs[i]
		if s.IsActive {
			return s
		}
		if latest == nil || s.CreatedAt.After(latest.CreatedAt) {
			latest = s
		}
	}
	return latest
}

// MonthWindow returns [first day of month, first day of next month) in loc.
func MonthWindow(year int, month time.Month, loc *time.Location) (time.Time, time.Time) {
	from := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	return from, from.AddDate(0, 1, 0)
}

// DatedSale is a sale with its creation time, used for the yearly chart.
type DatedSale struct {
	At    time.Time
	Price decimal.Decimal
}

// MonthlyTotals sums sale prices per calendar month of year. Months without
// sales stay zero.
func MonthlyTotals(sales []DatedSale, year int, loc *time.Location) [12]decimal.Decimal {
	var out [12]decimal.Decimal
	for i := range out {
		out[i] = decimal.Zero
	}
	for _, s := range sales {
		at := s.At.In(loc)
		if at.Year() != year {
			continue
		}
		out[at.Month()-1] = out[at.Month()-1].Add(s.Price)
	}
	return out
}

// Ranked returns trainer ids ordered by net revenue, highest first.
func (r *Report) Ranked() []primitive.ObjectID {
	ids := make([]primitive.ObjectID, 0, len(r.Trainers))
	for id := range r.Trainers {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		ni, nj := r.Trainers[ids[i]].Net(), r.Trainers[ids[j]].Net()
		if !ni.Equal(nj) {
			return ni.GreaterThan(nj)
		}
		return ids[i].Hex() < ids[j].Hex()
	})
	return ids
}

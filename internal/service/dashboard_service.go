package service

import (
	"context"
	"sort"
	"time"

	"alcyxob/gym-manager/internal/analytics"
	"alcyxob/gym-manager/internal/domain"
	"alcyxob/gym-manager/internal/repository"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const recentSalesLimit = 10

// RosterEntry is one active client of a trainer.
type RosterEntry struct {
	SubscriptionID primitive.ObjectID
	ClientID       primitive.ObjectID
	ClientName     string
	PlanName       string
	SessionsUsed   int
	Units          int
	Progress       int
	EndDate        *time.Time
}

// TrainerDashboard is the trainer's own view of the month.
type TrainerDashboard struct {
	Figures analytics.TrainerFigures
	Roster  []RosterEntry
}

// TrainerSummary is one row of the admin dashboard.
type TrainerSummary struct {
	TrainerID primitive.ObjectID
	Name      string
	Active    int
	Inactive  int
	Total     int
	Figures   analytics.TrainerFigures
}

// AdminDashboard covers every trainer plus gym totals.
type AdminDashboard struct {
	Trainers     []TrainerSummary
	SalesCount   int
	Revenue      decimal.Decimal
	Unattributed decimal.Decimal
	Chart        [12]decimal.Decimal
}

// RecentSale is a sale as shown at the front desk, without prices.
type RecentSale struct {
	SubscriptionID primitive.ObjectID
	ClientName     string
	PlanName       string
	TrainerName    string
	Date           time.Time
}

// FrontDeskDashboard is the reception view.
type FrontDeskDashboard struct {
	ActiveMembers int
	VisitsToday   int64
	RecentSales   []RecentSale
}

// DashboardStats holds exactly one role-shaped section.
type DashboardStats struct {
	Role      domain.Role
	Month     int
	Year      int
	Trainer   *TrainerDashboard
	Admin     *AdminDashboard
	FrontDesk *FrontDeskDashboard
}

// DashboardService shapes revenue and activity figures per role.
type DashboardService interface {
	Stats(ctx context.Context, actor Actor, month, year int) (*DashboardStats, error)
}

type dashboardService struct {
	subRepo     repository.SubscriptionRepository
	planRepo    repository.PlanRepository
	clientRepo  repository.ClientRepository
	userRepo    repository.UserRepository
	sessionRepo repository.TrainingSessionRepository
	logRepo     repository.SessionLogRepository
	groupRepo   repository.GroupSessionRepository
	loc         *time.Location
	now         func() time.Time
}

// NewDashboardService creates a new dashboard service.
func NewDashboardService(
	subRepo repository.SubscriptionRepository,
	planRepo repository.PlanRepository,
	clientRepo repository.ClientRepository,
	userRepo repository.UserRepository,
	sessionRepo repository.TrainingSessionRepository,
	logRepo repository.SessionLogRepository,
	groupRepo repository.GroupSessionRepository,
	loc *time.Location,
) DashboardService {
	if loc == nil {
		loc = time.UTC
	}
	return &dashboardService{
		subRepo:     subRepo,
		planRepo:    planRepo,
		clientRepo:  clientRepo,
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		logRepo:     logRepo,
		groupRepo:   groupRepo,
		loc:         loc,
		now:         clockIn(loc),
	}
}

func (s *dashboardService) Stats(ctx context.Context, actor Actor, month, year int) (*DashboardStats, error) {
	if month < 1 || month > 12 {
		return nil, newValidationError("month", "Month must be between 1 and 12.")
	}
	if year < 2000 || year > 9999 {
		return nil, newValidationError("year", "Year is out of range.")
	}

	stats := &DashboardStats{Role: actor.Role, Month: month, Year: year}
	var err error
	switch actor.Role {
	case domain.RoleTrainer:
		stats.Trainer, err = s.trainerView(ctx, actor.ID, month, year)
	case domain.RoleAdmin:
		stats.Admin, err = s.adminView(ctx, month, year)
	case domain.RoleFrontDesk:
		stats.FrontDesk, err = s.frontDeskView(ctx, month, year)
	default:
		return nil, newForbiddenError("Unknown role %q.", actor.Role)
	}
	if err != nil {
		return nil, err
	}
	return stats, nil
}

func (s *dashboardService) trainerView(ctx context.Context, trainerID primitive.ObjectID, month, year int) (*TrainerDashboard, error) {
	plans, err := s.planIndex(ctx)
	if err != nil {
		return nil, err
	}
	report, err := s.monthReport(ctx, plans, month, year)
	if err != nil {
		return nil, err
	}

	active, err := s.subRepo.List(ctx, repository.SubscriptionFilter{TrainerID: &trainerID, IsActive: boolPtr(true)})
	if err != nil {
		return nil, err
	}
	views, err := buildSubscriptionViews(ctx, s.planRepo, s.clientRepo, s.userRepo, active)
	if err != nil {
		return nil, err
	}
	roster := make([]RosterEntry, 0, len(views))
	for _, v := range views {
		entry := RosterEntry{
			SubscriptionID: v.Subscription.ID,
			ClientID:       v.Subscription.ClientID,
			ClientName:     v.ClientName,
			SessionsUsed:   v.Subscription.SessionsUsed,
			Progress:       v.Progress,
			EndDate:        v.Subscription.EndDate,
		}
		if v.Plan != nil {
			entry.PlanName = v.Plan.Name
			entry.Units = v.Plan.Units
		}
		roster = append(roster, entry)
	}
	return &TrainerDashboard{Figures: report.For(trainerID), Roster: roster}, nil
}

func (s *dashboardService) adminView(ctx context.Context, month, year int) (*AdminDashboard, error) {
	plans, err := s.planIndex(ctx)
	if err != nil {
		return nil, err
	}
	report, err := s.monthReport(ctx, plans, month, year)
	if err != nil {
		return nil, err
	}

	role := domain.RoleTrainer
	trainers, err := s.userRepo.List(ctx, &role, false)
	if err != nil {
		return nil, err
	}
	all, err := s.subRepo.List(ctx, repository.SubscriptionFilter{})
	if err != nil {
		return nil, err
	}

	summaries := make(map[primitive.ObjectID]*TrainerSummary, len(trainers))
	for _, t := range trainers {
		summaries[t.ID] = &TrainerSummary{TrainerID: t.ID, Name: t.Name, Figures: report.For(t.ID)}
	}
	// Anyone credited this month gets a row, including admins who coached.
	var credited []primitive.ObjectID
	for id := range report.Trainers {
		if _, ok := summaries[id]; !ok {
			credited = append(credited, id)
		}
	}
	if len(credited) > 0 {
		others, err := s.userRepo.GetByIDs(ctx, credited)
		if err != nil {
			return nil, err
		}
		names := make(map[primitive.ObjectID]string, len(others))
		for _, u := range others {
			names[u.ID] = u.Name
		}
		for _, id := range credited {
			summaries[id] = &TrainerSummary{TrainerID: id, Name: names[id], Figures: report.For(id)}
		}
	}
	chartSales := make([]analytics.DatedSale, 0, len(all))
	for _, sub := range all {
		if sub.PlanID != nil {
			if plan, ok := plans[*sub.PlanID]; ok {
				chartSales = append(chartSales, analytics.DatedSale{At: sub.CreatedAt, Price: plan.PriceValue()})
			}
		}
		if sub.TrainerID == nil {
			continue
		}
		summary, ok := summaries[*sub.TrainerID]
		if !ok {
			continue
		}
		summary.Total++
		if sub.IsActive {
			summary.Active++
		} else {
			summary.Inactive++
		}
	}

	out := &AdminDashboard{
		Trainers:     make([]TrainerSummary, 0, len(summaries)),
		SalesCount:   report.SalesCount(),
		Revenue:      report.TotalRevenue(),
		Unattributed: report.Unattributed,
		Chart:        analytics.MonthlyTotals(chartSales, year, s.loc),
	}
	for _, summary := range summaries {
		out.Trainers = append(out.Trainers, *summary)
	}
	sort.Slice(out.Trainers, func(i, j int) bool {
		ni, nj := out.Trainers[i].Figures.Net(), out.Trainers[j].Figures.Net()
		if !ni.Equal(nj) {
			return ni.GreaterThan(nj)
		}
		return out.Trainers[i].Name < out.Trainers[j].Name
	})
	return out, nil
}

func (s *dashboardService) frontDeskView(ctx context.Context, month, year int) (*FrontDeskDashboard, error) {
	active, err := s.subRepo.List(ctx, repository.SubscriptionFilter{IsActive: boolPtr(true)})
	if err != nil {
		return nil, err
	}

	// Visits today: 1-on-1 completions, legacy logs and group attendees.
	now := s.now().In(s.loc)
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.loc)
	dayEnd := dayStart.AddDate(0, 0, 1)
	sessions, err := s.sessionRepo.ListCompletedBetween(ctx, dayStart, dayEnd)
	if err != nil {
		return nil, err
	}
	logs, err := s.logRepo.CountBetween(ctx, dayStart, dayEnd)
	if err != nil {
		return nil, err
	}
	// Group logs carry calendar dates, not instants.
	today := domain.DateOnly(now.In(s.loc))
	groups, err := s.groupRepo.ListBetween(ctx, today, today.AddDate(0, 0, 1))
	if err != nil {
		return nil, err
	}
	visits := int64(len(sessions)) + logs
	for _, g := range groups {
		visits += int64(len(g.Participants))
	}

	from, to := analytics.MonthWindow(year, time.Month(month), s.loc)
	sold, err := s.subRepo.List(ctx, repository.SubscriptionFilter{CreatedFrom: &from, CreatedBefore: &to})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(sold, func(i, j int) bool { return sold[i].CreatedAt.After(sold[j].CreatedAt) })
	if len(sold) > recentSalesLimit {
		sold = sold[:recentSalesLimit]
	}
	views, err := buildSubscriptionViews(ctx, s.planRepo, s.clientRepo, s.userRepo, sold)
	if err != nil {
		return nil, err
	}
	recent := make([]RecentSale, 0, len(views))
	for _, v := range views {
		sale := RecentSale{
			SubscriptionID: v.Subscription.ID,
			ClientName:     v.ClientName,
			TrainerName:    v.TrainerName,
			Date:           v.Subscription.CreatedAt,
		}
		if v.Plan != nil {
			sale.PlanName = v.Plan.Name
		}
		recent = append(recent, sale)
	}

	return &FrontDeskDashboard{ActiveMembers: len(active), VisitsToday: visits, RecentSales: recent}, nil
}

// monthReport gathers the window's sales and deliveries and runs the attribution engine.
func (s *dashboardService) monthReport(ctx context.Context, plans map[primitive.ObjectID]*domain.Plan, month, year int) (*analytics.Report, error) {
	from, to := analytics.MonthWindow(year, time.Month(month), s.loc)
	termsOf := func(planID *primitive.ObjectID) *analytics.PlanTerms {
		if planID == nil {
			return nil
		}
		return analytics.TermsOf(plans[*planID])
	}

	// 1. Sales
	sold, err := s.subRepo.List(ctx, repository.SubscriptionFilter{CreatedFrom: &from, CreatedBefore: &to})
	if err != nil {
		return nil, err
	}
	in := analytics.Input{}
	for _, sub := range sold {
		in.Sales = append(in.Sales, analytics.Sale{OwnerID: sub.TrainerID, Plan: termsOf(sub.PlanID)})
	}

	// 2. 1-on-1 sessions completed in the window
	sessions, err := s.sessionRepo.ListCompletedBetween(ctx, from, to)
	if err != nil {
		return nil, err
	}
	var subIDs []primitive.ObjectID
	for _, ts := range sessions {
		subIDs = append(subIDs, ts.SubscriptionID)
	}
	subsByID := make(map[primitive.ObjectID]domain.Subscription)
	if len(subIDs) > 0 {
		subs, err := s.subRepo.List(ctx, repository.SubscriptionFilter{IDs: uniqueIDs(subIDs)})
		if err != nil {
			return nil, err
		}
		for _, sub := range subs {
			subsByID[sub.ID] = sub
		}
	}
	for _, ts := range sessions {
		sub, ok := subsByID[ts.SubscriptionID]
		if !ok || ts.CompletedBy == nil {
			continue
		}
		in.OneOnOne = append(in.OneOnOne, analytics.Delivery{OwnerID: sub.TrainerID, DeliveredBy: *ts.CompletedBy, Plan: termsOf(sub.PlanID)})
	}

	// 3. Deducted group participations, charged to each client's governing subscription.
	// Group logs are stored as UTC calendar dates, so their window is too.
	groupFrom, groupTo := analytics.MonthWindow(year, time.Month(month), time.UTC)
	groups, err := s.groupRepo.ListBetween(ctx, groupFrom, groupTo)
	if err != nil {
		return nil, err
	}
	var clientIDs []primitive.ObjectID
	for _, g := range groups {
		for _, p := range g.Participants {
			if p.Deducted {
				clientIDs = append(clientIDs, p.ClientID)
			}
		}
	}
	byClient := make(map[primitive.ObjectID][]domain.Subscription)
	if len(clientIDs) > 0 {
		subs, err := s.subRepo.List(ctx, repository.SubscriptionFilter{ClientIDs: uniqueIDs(clientIDs)})
		if err != nil {
			return nil, err
		}
		for _, sub := range subs {
			byClient[sub.ClientID] = append(byClient[sub.ClientID], sub)
		}
	}
	for _, g := range groups {
		for _, p := range g.Participants {
			if !p.Deducted {
				continue
			}
			gov := analytics.GoverningSubscription(byClient[p.ClientID])
			if gov == nil {
				continue
			}
			in.GroupWork = append(in.GroupWork, analytics.Delivery{OwnerID: gov.TrainerID, DeliveredBy: g.CoachID, Plan: termsOf(gov.PlanID)})
		}
	}

	return analytics.Compute(in), nil
}

func (s *dashboardService) planIndex(ctx context.Context) (map[primitive.ObjectID]*domain.Plan, error) {
	plans, err := s.planRepo.List(ctx, nil)
	if err != nil {
		return nil, err
	}
	index := make(map[primitive.ObjectID]*domain.Plan, len(plans))
	for i := range plans {
		index[plans[i].ID] = &plans[i]
	}
	return index, nil
}

package service

import (
	"context"
	"errors"
	"log"
	"time"

	"alcyxob/gym-manager/internal/domain"
	"alcyxob/gym-manager/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const activeSubscriptionExists = "This client already has an active subscription. Deactivate the old one first."

// SubscriptionInput carries the fields of a new subscription.
type SubscriptionInput struct {
	ClientID  primitive.ObjectID
	PlanID    *primitive.ObjectID
	TrainerID *primitive.ObjectID
	StartDate *time.Time
	IsActive  *bool // defaults to true
	InBody    domain.InBody
}

// SubscriptionPatch carries the editable fields of a subscription. Nil fields are left unchanged.
type SubscriptionPatch struct {
	PlanID       *primitive.ObjectID
	TrainerID    *primitive.ObjectID
	ClearTrainer bool
	StartDate    *time.Time
	IsActive     *bool
	InBody       *domain.InBody
}

// SubscriptionView is a subscription with its resolved references.
type SubscriptionView struct {
	Subscription domain.Subscription
	Plan         *domain.Plan
	ClientName   string
	TrainerName  string
	Progress     int
}

// SubscriptionService manages the subscription lifecycle.
type SubscriptionService interface {
	Create(ctx context.Context, actor Actor, in SubscriptionInput) (*SubscriptionView, error)
	Update(ctx context.Context, actor Actor, id primitive.ObjectID, patch SubscriptionPatch) (*SubscriptionView, error)
	Get(ctx context.Context, id primitive.ObjectID) (*SubscriptionView, error)
	ListByClient(ctx context.Context, clientID primitive.ObjectID) ([]SubscriptionView, error)
	// Covered lists the active subscriptions a trainer works with: their own
	// plus those named by transfers they accepted.
	Covered(ctx context.Context, actor Actor) ([]SubscriptionView, error)
	// ExpireOverdue deactivates active subscriptions whose end date has passed.
	ExpireOverdue(ctx context.Context) (int64, error)
}

type subscriptionService struct {
	subRepo      repository.SubscriptionRepository
	planRepo     repository.PlanRepository
	clientRepo   repository.ClientRepository
	userRepo     repository.UserRepository
	transferRepo repository.TransferRepository
	now          func() time.Time
}

// NewSubscriptionService creates a new subscription service.
func NewSubscriptionService(
	subRepo repository.SubscriptionRepository,
	planRepo repository.PlanRepository,
	clientRepo repository.ClientRepository,
	userRepo repository.UserRepository,
	transferRepo repository.TransferRepository,
	loc *time.Location,
) SubscriptionService {
	return &subscriptionService{
		subRepo:      subRepo,
		planRepo:     planRepo,
		clientRepo:   clientRepo,
		userRepo:     userRepo,
		transferRepo: transferRepo,
		now:          clockIn(loc),
	}
}

func (s *subscriptionService) Create(ctx context.Context, actor Actor, in SubscriptionInput) (*SubscriptionView, error) {
	// 1. Referenced client and plan must exist
	if _, err := s.clientRepo.GetByID(ctx, in.ClientID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrClientNotFound
		}
		return nil, err
	}
	var plan *domain.Plan
	if in.PlanID != nil {
		p, err := s.planRepo.GetByID(ctx, *in.PlanID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, ErrPlanNotFound
			}
			return nil, err
		}
		plan = p
	}

	// 2. Trainers always sell for themselves
	trainerID := in.TrainerID
	if actor.IsTrainer() {
		id := actor.ID
		trainerID = &id
	} else if trainerID != nil {
		if err := s.requireTrainer(ctx, *trainerID); err != nil {
			return nil, err
		}
	}

	sub := &domain.Subscription{
		ClientID:  in.ClientID,
		PlanID:    in.PlanID,
		TrainerID: trainerID,
		IsActive:  true,
		InBody:    in.InBody,
	}
	if in.IsActive != nil {
		sub.IsActive = *in.IsActive
	}
	if in.StartDate != nil {
		sub.StartDate = domain.DateOnly(*in.StartDate)
	} else {
		sub.StartDate = domain.DateOnly(s.now())
	}

	// 3. One active subscription per client
	if sub.IsActive {
		if err := s.ensureNoOtherActive(ctx, sub.ClientID, primitive.NilObjectID); err != nil {
			return nil, err
		}
	}

	// 4. Derive the end date once and persist
	sub.EnsureEndDate(plan)
	if _, err := s.subRepo.Create(ctx, sub); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, newValidationError("is_active", activeSubscriptionExists)
		}
		return nil, err
	}

	return s.view(ctx, sub)
}

func (s *subscriptionService) Update(ctx context.Context, actor Actor, id primitive.ObjectID, patch SubscriptionPatch) (*SubscriptionView, error) {
	sub, err := getSubscription(ctx, s.subRepo, id)
	if err != nil {
		return nil, err
	}
	if actor.IsTrainer() && (sub.TrainerID == nil || *sub.TrainerID != actor.ID) {
		return nil, newForbiddenError("You can only edit subscriptions you own.")
	}

	if patch.PlanID != nil {
		if _, err := s.planRepo.GetByID(ctx, *patch.PlanID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, ErrPlanNotFound
			}
			return nil, err
		}
		sub.PlanID = patch.PlanID
	}
	switch {
	case patch.ClearTrainer:
		if actor.IsTrainer() {
			return nil, newValidationError("trainer", "Trainers cannot unassign themselves.")
		}
		sub.TrainerID = nil
	case patch.TrainerID != nil:
		if actor.IsTrainer() && *patch.TrainerID != actor.ID {
			return nil, newValidationError("trainer", "Use a session transfer to hand a client to another trainer.")
		}
		if err := s.requireTrainer(ctx, *patch.TrainerID); err != nil {
			return nil, err
		}
		sub.TrainerID = patch.TrainerID
	}
	if patch.StartDate != nil {
		sub.StartDate = domain.DateOnly(*patch.StartDate)
	}
	if patch.InBody != nil {
		sub.InBody = *patch.InBody
	}
	if patch.IsActive != nil {
		sub.IsActive = *patch.IsActive
	}

	if sub.IsActive {
		if err := s.ensureNoOtherActive(ctx, sub.ClientID, sub.ID); err != nil {
			return nil, err
		}
	}

	plan, err := loadPlan(ctx, s.planRepo, sub.PlanID)
	if err != nil {
		return nil, err
	}
	// Only fills an unset end date. A set one is never recomputed.
	sub.EnsureEndDate(plan)

	if err := s.subRepo.Update(ctx, sub); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, newValidationError("is_active", activeSubscriptionExists)
		}
		return nil, err
	}

	stored, err := getSubscription(ctx, s.subRepo, sub.ID)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, stored)
}

func (s *subscriptionService) Get(ctx context.Context, id primitive.ObjectID) (*SubscriptionView, error) {
	sub, err := getSubscription(ctx, s.subRepo, id)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, sub)
}

func (s *subscriptionService) ListByClient(ctx context.Context, clientID primitive.ObjectID) ([]SubscriptionView, error) {
	subs, err := s.subRepo.List(ctx, repository.SubscriptionFilter{ClientIDs: []primitive.ObjectID{clientID}})
	if err != nil {
		return nil, err
	}
	return buildSubscriptionViews(ctx, s.planRepo, s.clientRepo, s.userRepo, subs)
}

func (s *subscriptionService) Covered(ctx context.Context, actor Actor) ([]SubscriptionView, error) {
	trainerID := actor.ID
	own, err := s.subRepo.List(ctx, repository.SubscriptionFilter{TrainerID: &trainerID, IsActive: boolPtr(true)})
	if err != nil {
		return nil, err
	}

	accepted, err := s.transferRepo.ListAcceptedTo(ctx, trainerID)
	if err != nil {
		return nil, err
	}
	seen := make(map[primitive.ObjectID]bool, len(own))
	for _, sub := range own {
		seen[sub.ID] = true
	}
	var transferred []primitive.ObjectID
	for _, t := range accepted {
		if !seen[t.SubscriptionID] {
			seen[t.SubscriptionID] = true
			transferred = append(transferred, t.SubscriptionID)
		}
	}
	if len(transferred) > 0 {
		extra, err := s.subRepo.List(ctx, repository.SubscriptionFilter{IDs: transferred, IsActive: boolPtr(true)})
		if err != nil {
			return nil, err
		}
		own = append(own, extra...)
	}
	return buildSubscriptionViews(ctx, s.planRepo, s.clientRepo, s.userRepo, own)
}

func (s *subscriptionService) ExpireOverdue(ctx context.Context) (int64, error) {
	today := domain.DateOnly(s.now())
	n, err := s.subRepo.DeactivateEndedBefore(ctx, today)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		log.Printf("INFO: Deactivated %d expired subscriptions", n)
	}
	return n, nil
}

func (s *subscriptionService) ensureNoOtherActive(ctx context.Context, clientID, self primitive.ObjectID) error {
	active, err := s.subRepo.FindActiveByClient(ctx, clientID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return err
	}
	if active.ID != self {
		return newValidationError("is_active", activeSubscriptionExists)
	}
	return nil
}

func (s *subscriptionService) requireTrainer(ctx context.Context, id primitive.ObjectID) error {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return newValidationError("trainer", "Trainer does not exist.")
		}
		return err
	}
	if !user.IsTrainer() || !user.IsActive {
		return newValidationError("trainer", "Selected user is not an active trainer.")
	}
	return nil
}

func (s *subscriptionService) view(ctx context.Context, sub *domain.Subscription) (*SubscriptionView, error) {
	views, err := buildSubscriptionViews(ctx, s.planRepo, s.clientRepo, s.userRepo, []domain.Subscription{*sub})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// buildSubscriptionViews resolves plans, clients and trainer names in batches.
func buildSubscriptionViews(
	ctx context.Context,
	planRepo repository.PlanRepository,
	clientRepo repository.ClientRepository,
	userRepo repository.UserRepository,
	subs []domain.Subscription,
) ([]SubscriptionView, error) {
	var planIDs, clientIDs, trainerIDs []primitive.ObjectID
	for _, sub := range subs {
		clientIDs = append(clientIDs, sub.ClientID)
		if sub.PlanID != nil {
			planIDs = append(planIDs, *sub.PlanID)
		}
		if sub.TrainerID != nil {
			trainerIDs = append(trainerIDs, *sub.TrainerID)
		}
	}

	plans, err := planRepo.GetByIDs(ctx, uniqueIDs(planIDs))
	if err != nil {
		return nil, err
	}
	planByID := make(map[primitive.ObjectID]*domain.Plan, len(plans))
	for i := range plans {
		planByID[plans[i].ID] = &plans[i]
	}
	clients, err := clientRepo.GetByIDs(ctx, uniqueIDs(clientIDs))
	if err != nil {
		return nil, err
	}
	clientNames := make(map[primitive.ObjectID]string, len(clients))
	for _, c := range clients {
		clientNames[c.ID] = c.Name
	}
	trainerNames, err := userNames(ctx, userRepo, trainerIDs)
	if err != nil {
		return nil, err
	}

	views := make([]SubscriptionView, 0, len(subs))
	for _, sub := range subs {
		v := SubscriptionView{Subscription: sub, ClientName: clientNames[sub.ClientID]}
		if sub.PlanID != nil {
			v.Plan = planByID[*sub.PlanID]
		}
		if sub.TrainerID != nil {
			v.TrainerName = trainerNames[*sub.TrainerID]
		}
		v.Progress = sub.ProgressPercentage(v.Plan)
		views = append(views, v)
	}
	return views, nil
}

// clockIn returns a clock reporting the current time in loc.
func clockIn(loc *time.Location) func() time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return func() time.Time { return time.Now().In(loc) }
}

package service

import (
	"context"
	"errors"
	"log"
	"time"

	"alcyxob/gym-manager/internal/domain"
	"alcyxob/gym-manager/internal/events"
	"alcyxob/gym-manager/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// usageRecorder recomputes a subscription's consumed units after every
// completion event and deactivates it when exhausted or expired.
type usageRecorder struct {
	subRepo     repository.SubscriptionRepository
	planRepo    repository.PlanRepository
	sessionRepo repository.TrainingSessionRepository
	logRepo     repository.SessionLogRepository
	groupRepo   repository.GroupSessionRepository
	publisher   events.Publisher
	now         func() time.Time
}

// recordSessionCompletion sets sessions_used to the number of consumed units
// (completed 1-on-1 sessions, legacy logs and deducted group participations).
// It returns the subscription when this call deactivated it, nil otherwise.
func (u *usageRecorder) recordSessionCompletion(ctx context.Context, subID primitive.ObjectID) (*domain.Subscription, error) {
	sub, err := u.subRepo.GetByID(ctx, subID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSubscriptionNotFound
		}
		return nil, err
	}

	completed, err := u.sessionRepo.CountCompleted(ctx, subID)
	if err != nil {
		return nil, err
	}
	logged, err := u.logRepo.CountBySubscription(ctx, subID)
	if err != nil {
		return nil, err
	}
	grouped, err := u.groupRepo.CountDeducted(ctx, subID)
	if err != nil {
		return nil, err
	}
	sub.SessionsUsed = int(completed + logged + grouped)

	plan, err := loadPlan(ctx, u.planRepo, sub.PlanID)
	if err != nil {
		return nil, err
	}

	wasActive := sub.IsActive
	if sub.IsActive && sub.ShouldDeactivate(plan, u.now()) {
		sub.IsActive = false
	}
	if err := u.subRepo.SetUsage(ctx, sub.ID, sub.SessionsUsed, sub.IsActive); err != nil {
		return nil, err
	}
	if wasActive && !sub.IsActive {
		return sub, nil
	}
	return nil, nil
}

// announceDeactivated publishes subscription.deactivated events. Call after commit.
func (u *usageRecorder) announceDeactivated(ctx context.Context, subs ...*domain.Subscription) {
	for _, sub := range subs {
		if sub == nil {
			continue
		}
		event := events.SubscriptionEvent{
			SubscriptionID: sub.ID.Hex(),
			ClientID:       sub.ClientID.Hex(),
			SessionsUsed:   sub.SessionsUsed,
			Reason:         "completed",
			OccurredAt:     u.now().UTC(),
		}
		if err := u.publisher.Publish(ctx, events.SubscriptionDeactivated, event); err != nil {
			log.Printf("WARN: Failed to publish %s for subscription %s: %v", events.SubscriptionDeactivated, sub.ID.Hex(), err)
		}
	}
}

// loadPlan fetches a subscription's plan. A missing reference or a deleted
// plan yields nil, which every caller treats as "no plan".
func loadPlan(ctx context.Context, planRepo repository.PlanRepository, planID *primitive.ObjectID) (*domain.Plan, error) {
	if planID == nil {
		return nil, nil
	}
	plan, err := planRepo.GetByID(ctx, *planID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return plan, nil
}

func getSubscription(ctx context.Context, subRepo repository.SubscriptionRepository, id primitive.ObjectID) (*domain.Subscription, error) {
	sub, err := subRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSubscriptionNotFound
		}
		return nil, err
	}
	return sub, nil
}

// userNames resolves staff ids to display names.
func userNames(ctx context.Context, userRepo repository.UserRepository, ids []primitive.ObjectID) (map[primitive.ObjectID]string, error) {
	users, err := userRepo.GetByIDs(ctx, uniqueIDs(ids))
	if err != nil {
		return nil, err
	}
	names := make(map[primitive.ObjectID]string, len(users))
	for _, u := range users {
		names[u.ID] = u.Name
	}
	return names, nil
}

func uniqueIDs(ids []primitive.ObjectID) []primitive.ObjectID {
	seen := make(map[primitive.ObjectID]bool, len(ids))
	out := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if id.IsZero() || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

func boolPtr(b bool) *bool { return &b }

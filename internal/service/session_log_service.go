package service

import (
	"context"
	"errors"
	"time"

	"alcyxob/gym-manager/internal/domain"
	"alcyxob/gym-manager/internal/events"
	"alcyxob/gym-manager/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SessionLogService records legacy visits. Each visit consumes one unit.
type SessionLogService interface {
	Create(ctx context.Context, subscriptionID primitive.ObjectID, number int, splitOrder *int) (*domain.SessionLog, error)
}

type sessionLogService struct {
	tx      repository.Transactor
	subRepo repository.SubscriptionRepository
	logRepo repository.SessionLogRepository
	usage   *usageRecorder
	now     func() time.Time
}

// NewSessionLogService creates the legacy session log service.
func NewSessionLogService(
	tx repository.Transactor,
	subRepo repository.SubscriptionRepository,
	planRepo repository.PlanRepository,
	sessionRepo repository.TrainingSessionRepository,
	logRepo repository.SessionLogRepository,
	groupRepo repository.GroupSessionRepository,
	publisher events.Publisher,
	loc *time.Location,
) SessionLogService {
	now := clockIn(loc)
	return &sessionLogService{
		tx:      tx,
		subRepo: subRepo,
		logRepo: logRepo,
		usage: &usageRecorder{
			subRepo:     subRepo,
			planRepo:    planRepo,
			sessionRepo: sessionRepo,
			logRepo:     logRepo,
			groupRepo:   groupRepo,
			publisher:   publisher,
			now:         now,
		},
		now: now,
	}
}

func (s *sessionLogService) Create(ctx context.Context, subscriptionID primitive.ObjectID, number int, splitOrder *int) (*domain.SessionLog, error) {
	if number < 1 {
		return nil, newValidationError("session_number", "Session number must be at least 1.")
	}
	if _, err := getSubscription(ctx, s.subRepo, subscriptionID); err != nil {
		return nil, err
	}

	entry := &domain.SessionLog{
		SubscriptionID: subscriptionID,
		SessionNumber:  number,
		SplitOrder:     splitOrder,
		DateCompleted:  s.now().UTC(),
	}
	var deactivated *domain.Subscription
	err := s.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		deactivated = nil
		if _, err := s.logRepo.Create(txCtx, entry); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return newValidationError("session_number", "This session number is already logged for the subscription.")
			}
			return err
		}
		var err error
		deactivated, err = s.usage.recordSessionCompletion(txCtx, subscriptionID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.usage.announceDeactivated(ctx, deactivated)
	return entry, nil
}

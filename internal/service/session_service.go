package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"alcyxob/gym-manager/internal/domain"
	"alcyxob/gym-manager/internal/events"
	"alcyxob/gym-manager/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SessionView is a persisted session or, when ID is nil, a preview
// simulated from the training plan.
type SessionView struct {
	ID             *primitive.ObjectID
	SubscriptionID primitive.ObjectID
	SessionNumber  int
	Name           string
	Exercises      []domain.Exercise
	IsCompleted    bool
	DateCompleted  *time.Time
	CompletedBy    *primitive.ObjectID
	TrainerName    string
}

// SaveSessionInput is the payload of a session save.
type SaveSessionInput struct {
	SubscriptionID primitive.ObjectID
	SessionNumber  int
	Name           string
	Exercises      []domain.Exercise
	MarkComplete   bool
}

// HistoryEntry is the latest completed session for one cycle position.
type HistoryEntry struct {
	CyclePosition int
	Session       domain.TrainingSession
}

// SessionService records 1-on-1 training sessions.
type SessionService interface {
	GetOrSimulate(ctx context.Context, subscriptionID primitive.ObjectID, number int) (*SessionView, error)
	Save(ctx context.Context, actor Actor, in SaveSessionInput) error
	History(ctx context.Context, subscriptionID primitive.ObjectID) ([]HistoryEntry, error)
	List(ctx context.Context, subscriptionID primitive.ObjectID, completed *bool) ([]domain.TrainingSession, error)
}

type sessionService struct {
	tx               repository.Transactor
	subRepo          repository.SubscriptionRepository
	sessionRepo      repository.TrainingSessionRepository
	trainingPlanRepo repository.TrainingPlanRepository
	userRepo         repository.UserRepository
	usage            *usageRecorder
	defaultTrainer   string
	now              func() time.Time
}

// NewSessionService creates the session completion recorder.
func NewSessionService(
	tx repository.Transactor,
	subRepo repository.SubscriptionRepository,
	planRepo repository.PlanRepository,
	sessionRepo repository.TrainingSessionRepository,
	logRepo repository.SessionLogRepository,
	groupRepo repository.GroupSessionRepository,
	trainingPlanRepo repository.TrainingPlanRepository,
	userRepo repository.UserRepository,
	publisher events.Publisher,
	defaultTrainerLabel string,
	loc *time.Location,
) SessionService {
	now := clockIn(loc)
	return &sessionService{
		tx:               tx,
		subRepo:          subRepo,
		sessionRepo:      sessionRepo,
		trainingPlanRepo: trainingPlanRepo,
		userRepo:         userRepo,
		usage: &usageRecorder{
			subRepo:     subRepo,
			planRepo:    planRepo,
			sessionRepo: sessionRepo,
			logRepo:     logRepo,
			groupRepo:   groupRepo,
			publisher:   publisher,
			now:         now,
		},
		defaultTrainer: defaultTrainerLabel,
		now:            now,
	}
}

func (s *sessionService) GetOrSimulate(ctx context.Context, subscriptionID primitive.ObjectID, number int) (*SessionView, error) {
	if number < 1 {
		return nil, newValidationError("session_number", "Session number must be at least 1.")
	}
	sub, err := getSubscription(ctx, s.subRepo, subscriptionID)
	if err != nil {
		return nil, err
	}

	session, err := s.sessionRepo.GetByNumber(ctx, subscriptionID, number)
	if err == nil {
		name, err := s.trainerName(ctx, session.CompletedBy, sub.TrainerID)
		if err != nil {
			return nil, err
		}
		id := session.ID
		return &SessionView{
			ID:             &id,
			SubscriptionID: session.SubscriptionID,
			SessionNumber:  session.SessionNumber,
			Name:           session.Name,
			Exercises:      session.Exercises,
			IsCompleted:    session.IsCompleted,
			DateCompleted:  session.DateCompleted,
			CompletedBy:    session.CompletedBy,
			TrainerName:    name,
		}, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	// Not persisted yet: preview the split this session falls on.
	name, err := s.trainerName(ctx, nil, sub.TrainerID)
	if err != nil {
		return nil, err
	}
	view := &SessionView{
		SubscriptionID: subscriptionID,
		SessionNumber:  number,
		Name:           fmt.Sprintf("Session %d", number),
		Exercises:      []domain.Exercise{},
		TrainerName:    name,
	}
	plan, err := s.trainingPlanRepo.GetBySubscription(ctx, subscriptionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return view, nil
		}
		return nil, err
	}
	if split := plan.SplitForSession(number); split != nil {
		view.Name = split.Name
		view.Exercises = domain.RenumberExercises(split.Exercises)
	}
	return view, nil
}

func (s *sessionService) Save(ctx context.Context, actor Actor, in SaveSessionInput) error {
	// 1. Validate before any mutation
	if in.SessionNumber < 1 {
		return newValidationError("session_number", "Session number must be at least 1.")
	}
	if _, err := getSubscription(ctx, s.subRepo, in.SubscriptionID); err != nil {
		return err
	}
	existing, err := s.sessionRepo.GetByNumber(ctx, in.SubscriptionID, in.SessionNumber)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return err
	}
	if existing != nil {
		if err := s.checkLock(ctx, existing, actor); err != nil {
			return err
		}
	}

	exercises := normalizeExercises(in.Exercises)
	name := strings.TrimSpace(in.Name)

	// 2. Upsert, replace exercises, claim completion and recount in one transaction
	var deactivated *domain.Subscription
	err = s.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		deactivated = nil
		session, err := s.getOrCreate(txCtx, in.SubscriptionID, in.SessionNumber, name)
		if err != nil {
			return err
		}
		if err := s.checkLock(txCtx, session, actor); err != nil {
			return err
		}
		if name == "" {
			name = session.Name
		}
		if err := s.sessionRepo.ReplaceContent(txCtx, session.ID, name, exercises); err != nil {
			return err
		}

		if in.MarkComplete && !session.IsCompleted {
			err := s.sessionRepo.ClaimCompletion(txCtx, session.ID, actor.ID, s.now().UTC())
			if errors.Is(err, repository.ErrConflict) {
				return newForbiddenError("This session was just completed by another trainer and is locked.")
			}
			if err != nil {
				return err
			}
			deactivated, err = s.usage.recordSessionCompletion(txCtx, in.SubscriptionID)
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.usage.announceDeactivated(ctx, deactivated)
	return nil
}

func (s *sessionService) getOrCreate(ctx context.Context, subID primitive.ObjectID, number int, name string) (*domain.TrainingSession, error) {
	session, err := s.sessionRepo.GetByNumber(ctx, subID, number)
	if err == nil {
		return session, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	if name == "" {
		name = "Workout"
	}
	session = &domain.TrainingSession{
		SubscriptionID: subID,
		SessionNumber:  number,
		Name:           name,
	}
	if _, err := s.sessionRepo.Create(ctx, session); err != nil {
		// A duplicate key aborts the surrounding transaction, so the caller must retry.
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, &StateError{Message: "This session was just created by someone else. Reload and save again."}
		}
		return nil, err
	}
	return session, nil
}

// checkLock enforces that completed sessions are edited only by their completer or an admin.
func (s *sessionService) checkLock(ctx context.Context, session *domain.TrainingSession, actor Actor) error {
	if session.CanEdit(actor.ID, actor.Role) {
		return nil
	}
	locker := "another trainer"
	if session.CompletedBy != nil {
		names, err := userNames(ctx, s.userRepo, []primitive.ObjectID{*session.CompletedBy})
		if err != nil {
			return err
		}
		if n := names[*session.CompletedBy]; n != "" {
			locker = n
		}
	} else {
		locker = "an unknown trainer"
	}
	return newForbiddenError("This session was completed by %s and is locked. Only they or an admin can edit it.", locker)
}

func (s *sessionService) History(ctx context.Context, subscriptionID primitive.ObjectID) ([]HistoryEntry, error) {
	plan, err := s.trainingPlanRepo.GetBySubscription(ctx, subscriptionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return []HistoryEntry{}, nil
		}
		return nil, err
	}
	cycle := plan.CycleLength
	if cycle < 1 {
		cycle = 1
	}

	sessions, err := s.sessionRepo.ListCompletedNewestFirst(ctx, subscriptionID)
	if err != nil {
		return nil, err
	}
	latest := make(map[int]domain.TrainingSession, cycle)
	for _, session := range sessions {
		if !session.HasContent() {
			continue
		}
		pos := plan.CyclePosition(session.SessionNumber)
		if _, ok := latest[pos]; !ok {
			latest[pos] = session
		}
		if len(latest) >= cycle {
			break
		}
	}

	entries := make([]HistoryEntry, 0, len(latest))
	for pos := 0; pos < cycle; pos++ {
		if session, ok := latest[pos]; ok {
			entries = append(entries, HistoryEntry{CyclePosition: pos, Session: session})
		}
	}
	return entries, nil
}

func (s *sessionService) List(ctx context.Context, subscriptionID primitive.ObjectID, completed *bool) ([]domain.TrainingSession, error) {
	if _, err := getSubscription(ctx, s.subRepo, subscriptionID); err != nil {
		return nil, err
	}
	return s.sessionRepo.ListBySubscription(ctx, subscriptionID, completed)
}

// trainerName prefers the completer, then the subscription owner, then the default label.
func (s *sessionService) trainerName(ctx context.Context, completedBy, owner *primitive.ObjectID) (string, error) {
	var ids []primitive.ObjectID
	if completedBy != nil {
		ids = append(ids, *completedBy)
	}
	if owner != nil {
		ids = append(ids, *owner)
	}
	names, err := userNames(ctx, s.userRepo, ids)
	if err != nil {
		return "", err
	}
	for _, id := range ids {
		if n := names[id]; n != "" {
			return n, nil
		}
	}
	return s.defaultTrainer, nil
}

// normalizeExercises drops unnamed exercises, trims names and renumbers.
func normalizeExercises(in []domain.Exercise) []domain.Exercise {
	out := make([]domain.Exercise, 0, len(in))
	for _, ex := range in {
		ex.Name = strings.TrimSpace(ex.Name)
		if ex.Name == "" {
			continue
		}
		sets := make([]domain.ExerciseSet, len(ex.Sets))
		copy(sets, ex.Sets)
		for i := range sets {
			if sets[i].Technique == "" {
				sets[i].Technique = "Regular"
			}
		}
		ex.Sets = sets
		out = append(out, ex)
	}
	return domain.RenumberExercises(out)
}

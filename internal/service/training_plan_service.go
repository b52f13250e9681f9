package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"alcyxob/gym-manager/internal/domain"
	"alcyxob/gym-manager/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TrainingPlanService manages recurring workout templates.
type TrainingPlanService interface {
	Create(ctx context.Context, actor Actor, subscriptionID primitive.ObjectID, cycleLength int, dayNames []string) (*domain.TrainingPlan, error)
	GetBySubscription(ctx context.Context, subscriptionID primitive.ObjectID) (*domain.TrainingPlan, error)
	// UpdateSplitExercises replaces the exercises of one split wholesale.
	UpdateSplitExercises(ctx context.Context, planID primitive.ObjectID, order int, exercises []domain.Exercise) (*domain.TrainingPlan, error)
	Delete(ctx context.Context, planID primitive.ObjectID) error
}

type trainingPlanService struct {
	trainingPlanRepo repository.TrainingPlanRepository
	subRepo          repository.SubscriptionRepository
}

// NewTrainingPlanService creates a new training plan service.
func NewTrainingPlanService(trainingPlanRepo repository.TrainingPlanRepository, subRepo repository.SubscriptionRepository) TrainingPlanService {
	return &trainingPlanService{trainingPlanRepo: trainingPlanRepo, subRepo: subRepo}
}

func (s *trainingPlanService) Create(ctx context.Context, actor Actor, subscriptionID primitive.ObjectID, cycleLength int, dayNames []string) (*domain.TrainingPlan, error) {
	// 1. Validate
	if cycleLength < 1 {
		return nil, newValidationError("cycle_length", "Cycle length must be at least 1.")
	}
	if len(dayNames) > cycleLength {
		return nil, newValidationError("day_names", "More day names than days in the cycle.")
	}
	if _, err := getSubscription(ctx, s.subRepo, subscriptionID); err != nil {
		return nil, err
	}

	// 2. One split per cycle day; unnamed days get a default label
	splits := make([]domain.Split, cycleLength)
	for i := range splits {
		name := ""
		if i < len(dayNames) {
			name = strings.TrimSpace(dayNames[i])
		}
		if name == "" {
			name = fmt.Sprintf("Day %d", i+1)
		}
		splits[i] = domain.Split{Order: i + 1, Name: name, Exercises: []domain.Exercise{}}
	}

	plan := &domain.TrainingPlan{
		SubscriptionID: subscriptionID,
		CycleLength:    cycleLength,
		Splits:         splits,
		CreatedBy:      actor.ID,
	}
	id, err := s.trainingPlanRepo.Create(ctx, plan)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, newValidationError("subscription", "This subscription already has a training plan.")
		}
		return nil, err
	}
	plan.ID = id
	return plan, nil
}

func (s *trainingPlanService) GetBySubscription(ctx context.Context, subscriptionID primitive.ObjectID) (*domain.TrainingPlan, error) {
	plan, err := s.trainingPlanRepo.GetBySubscription(ctx, subscriptionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTrainingPlanNotFound
		}
		return nil, err
	}
	return plan, nil
}

func (s *trainingPlanService) UpdateSplitExercises(ctx context.Context, planID primitive.ObjectID, order int, exercises []domain.Exercise) (*domain.TrainingPlan, error) {
	plan, err := s.trainingPlanRepo.GetByID(ctx, planID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTrainingPlanNotFound
		}
		return nil, err
	}
	idx := -1
	for i, split := range plan.Splits {
		if split.Order == order {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, newValidationError("order", fmt.Sprintf("Split %d does not exist in this plan.", order))
	}

	normalized := normalizeExercises(exercises)
	if err := s.trainingPlanRepo.UpdateSplitExercises(ctx, planID, order, normalized); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTrainingPlanNotFound
		}
		return nil, err
	}
	plan.Splits[idx].Exercises = normalized
	return plan, nil
}

func (s *trainingPlanService) Delete(ctx context.Context, planID primitive.ObjectID) error {
	if err := s.trainingPlanRepo.Delete(ctx, planID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrTrainingPlanNotFound
		}
		return err
	}
	return nil
}

package service

import (
	"context"
	"errors"
	"strings"

	"alcyxob/gym-manager/internal/domain"
	"alcyxob/gym-manager/internal/repository"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PlanInput carries the fields of a new package definition.
type PlanInput struct {
	Name         string
	Units        int
	DurationDays int
	Price        decimal.Decimal
	IsChildPlan  bool
}

// PlanService manages the package catalog.
type PlanService interface {
	Create(ctx context.Context, in PlanInput) (*domain.Plan, error)
	// List filters by target: "child", "adult" or "" for all.
	List(ctx context.Context, target string) ([]domain.Plan, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

type planService struct {
	planRepo repository.PlanRepository
}

// NewPlanService creates a new plan service.
func NewPlanService(planRepo repository.PlanRepository) PlanService {
	return &planService{planRepo: planRepo}
}

func (s *planService) Create(ctx context.Context, in PlanInput) (*domain.Plan, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, newValidationError("name", "Name is required.")
	}
	if in.Units < 0 {
		return nil, newValidationError("units", "Units cannot be negative.")
	}
	if in.DurationDays < 0 {
		return nil, newValidationError("duration_days", "Duration cannot be negative.")
	}
	if in.Price.IsNegative() {
		return nil, newValidationError("price", "Price cannot be negative.")
	}
	price, err := domain.DecimalTo128(in.Price)
	if err != nil {
		return nil, newValidationError("price", "Price is not a valid amount.")
	}

	plan := &domain.Plan{
		Name:         name,
		Units:        in.Units,
		DurationDays: in.DurationDays,
		Price:        price,
		IsChildPlan:  in.IsChildPlan,
	}
	id, err := s.planRepo.Create(ctx, plan)
	if err != nil {
		return nil, err
	}
	plan.ID = id
	return plan, nil
}

func (s *planService) List(ctx context.Context, target string) ([]domain.Plan, error) {
	var isChild *bool
	switch strings.ToLower(target) {
	case "":
	case "child":
		isChild = boolPtr(true)
	case "adult":
		isChild = boolPtr(false)
	default:
		return nil, newValidationError("target", "Target must be child or adult.")
	}
	return s.planRepo.List(ctx, isChild)
}

func (s *planService) Delete(ctx context.Context, id primitive.ObjectID) error {
	if err := s.planRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrPlanNotFound
		}
		return err
	}
	return nil
}

package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"alcyxob/gym-manager/internal/domain"
	"alcyxob/gym-manager/internal/events"
	"alcyxob/gym-manager/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TransferInput is the payload of a new transfer request. The sender is
// always the acting trainer.
type TransferInput struct {
	ToTrainerID    primitive.ObjectID
	SubscriptionID primitive.ObjectID
	SessionsCount  int
	ScheduleNotes  string
}

// TransferView is a transfer request with display names.
type TransferView struct {
	Request         domain.TransferRequest
	FromTrainerName string
	ToTrainerName   string
	ClientName      string
}

// TransferService runs the session transfer workflow.
type TransferService interface {
	Create(ctx context.Context, actor Actor, in TransferInput) (*domain.TransferRequest, error)
	Respond(ctx context.Context, actor Actor, id primitive.ObjectID, status domain.TransferStatus) (*domain.TransferRequest, error)
	Cancel(ctx context.Context, actor Actor, id primitive.ObjectID) (*domain.TransferRequest, error)
	List(ctx context.Context, actor Actor) ([]TransferView, error)
}

type transferService struct {
	transferRepo repository.TransferRepository
	subRepo      repository.SubscriptionRepository
	planRepo     repository.PlanRepository
	userRepo     repository.UserRepository
	clientRepo   repository.ClientRepository
	publisher    events.Publisher
	now          func() time.Time
}

// NewTransferService creates a new transfer service.
func NewTransferService(
	transferRepo repository.TransferRepository,
	subRepo repository.SubscriptionRepository,
	planRepo repository.PlanRepository,
	userRepo repository.UserRepository,
	clientRepo repository.ClientRepository,
	publisher events.Publisher,
) TransferService {
	return &transferService{
		transferRepo: transferRepo,
		subRepo:      subRepo,
		planRepo:     planRepo,
		userRepo:     userRepo,
		clientRepo:   clientRepo,
		publisher:    publisher,
		now:          time.Now,
	}
}

func (s *transferService) Create(ctx context.Context, actor Actor, in TransferInput) (*domain.TransferRequest, error) {
	// 1. Self transfer
	if in.ToTrainerID == actor.ID {
		return nil, newValidationError("to_trainer", "You cannot transfer sessions to yourself.")
	}

	// 2. Sender must own the subscription
	sub, err := getSubscription(ctx, s.subRepo, in.SubscriptionID)
	if err != nil {
		return nil, err
	}
	if sub.TrainerID == nil || *sub.TrainerID != actor.ID {
		return nil, newForbiddenError("You can only transfer sessions from subscriptions you own.")
	}

	// 3. Target must be an active trainer
	target, err := s.userRepo.GetByID(ctx, in.ToTrainerID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	if target == nil || !target.IsTrainer() || !target.IsActive {
		return nil, newValidationError("to_trainer", "Target must be an active trainer.")
	}

	// 4. Subscription must be active with enough units left
	if !sub.IsActive {
		return nil, newValidationError("subscription", "Cannot transfer sessions from an inactive subscription.")
	}
	if in.SessionsCount <= 0 {
		return nil, newValidationError("sessions_count", "Sessions count must be greater than zero.")
	}
	plan, err := loadPlan(ctx, s.planRepo, sub.PlanID)
	if err != nil {
		return nil, err
	}
	if remaining := sub.RemainingUnits(plan); in.SessionsCount > remaining {
		return nil, newValidationError("sessions_count", fmt.Sprintf("Only %d sessions remain on this subscription.", max(remaining, 0)))
	}

	// 5. Persist and announce
	req := &domain.TransferRequest{
		FromTrainerID:  actor.ID,
		ToTrainerID:    in.ToTrainerID,
		SubscriptionID: in.SubscriptionID,
		SessionsCount:  in.SessionsCount,
		ScheduleNotes:  strings.TrimSpace(in.ScheduleNotes),
		Status:         domain.TransferPending,
	}
	if _, err := s.transferRepo.Create(ctx, req); err != nil {
		return nil, err
	}
	s.announce(ctx, events.TransferRequested, req)
	return req, nil
}

func (s *transferService) Respond(ctx context.Context, actor Actor, id primitive.ObjectID, status domain.TransferStatus) (*domain.TransferRequest, error) {
	req, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.ToTrainerID != actor.ID {
		return nil, newForbiddenError("Only the addressed trainer can respond to this request.")
	}
	if status != domain.TransferAccepted && status != domain.TransferRejected {
		return nil, &StateError{Message: "Status must be either accepted or rejected."}
	}
	if req.Status.IsTerminal() {
		return nil, &StateError{Message: fmt.Sprintf("This request is already %s.", req.Status)}
	}

	return s.transition(ctx, req, status, events.TransferResponded)
}

func (s *transferService) Cancel(ctx context.Context, actor Actor, id primitive.ObjectID) (*domain.TransferRequest, error) {
	req, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.FromTrainerID != actor.ID {
		return nil, newForbiddenError("Only the sending trainer can cancel this request.")
	}
	if req.Status != domain.TransferPending {
		return nil, &StateError{Message: fmt.Sprintf("This request is already %s.", req.Status)}
	}

	return s.transition(ctx, req, domain.TransferCancelled, events.TransferCancelled)
}

// transition moves a pending request to status. A concurrent transition that
// got there first surfaces as a StateError.
func (s *transferService) transition(ctx context.Context, req *domain.TransferRequest, status domain.TransferStatus, routingKey string) (*domain.TransferRequest, error) {
	at := s.now().UTC()
	err := s.transferRepo.Transition(ctx, req.ID, domain.TransferPending, status, at)
	if errors.Is(err, repository.ErrConflict) {
		return nil, &StateError{Message: "This request has already been resolved."}
	}
	if err != nil {
		return nil, err
	}

	req.Status = status
	req.UpdatedAt = at
	if status != domain.TransferCancelled {
		req.RespondedAt = &at
	}
	s.announce(ctx, routingKey, req)
	return req, nil
}

func (s *transferService) List(ctx context.Context, actor Actor) ([]TransferView, error) {
	filter := repository.TransferFilter{}
	if !actor.IsAdmin() {
		id := actor.ID
		filter.TrainerID = &id
	}
	reqs, err := s.transferRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	var userIDs, subIDs []primitive.ObjectID
	for _, r := range reqs {
		userIDs = append(userIDs, r.FromTrainerID, r.ToTrainerID)
		subIDs = append(subIDs, r.SubscriptionID)
	}
	names, err := userNames(ctx, s.userRepo, userIDs)
	if err != nil {
		return nil, err
	}
	clientNames, err := s.clientNamesBySubscription(ctx, uniqueIDs(subIDs))
	if err != nil {
		return nil, err
	}

	views := make([]TransferView, 0, len(reqs))
	for _, r := range reqs {
		views = append(views, TransferView{
			Request:         r,
			FromTrainerName: names[r.FromTrainerID],
			ToTrainerName:   names[r.ToTrainerID],
			ClientName:      clientNames[r.SubscriptionID],
		})
	}
	return views, nil
}

func (s *transferService) clientNamesBySubscription(ctx context.Context, subIDs []primitive.ObjectID) (map[primitive.ObjectID]string, error) {
	out := make(map[primitive.ObjectID]string, len(subIDs))
	if len(subIDs) == 0 {
		return out, nil
	}
	subs, err := s.subRepo.List(ctx, repository.SubscriptionFilter{IDs: subIDs})
	if err != nil {
		return nil, err
	}
	clientIDs := make([]primitive.ObjectID, 0, len(subs))
	for _, sub := range subs {
		clientIDs = append(clientIDs, sub.ClientID)
	}
	clients, err := s.clientRepo.GetByIDs(ctx, uniqueIDs(clientIDs))
	if err != nil {
		return nil, err
	}
	names := make(map[primitive.ObjectID]string, len(clients))
	for _, c := range clients {
		names[c.ID] = c.Name
	}
	for _, sub := range subs {
		out[sub.ID] = names[sub.ClientID]
	}
	return out, nil
}

func (s *transferService) get(ctx context.Context, id primitive.ObjectID) (*domain.TransferRequest, error) {
	req, err := s.transferRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTransferNotFound
		}
		return nil, err
	}
	return req, nil
}

func (s *transferService) announce(ctx context.Context, routingKey string, req *domain.TransferRequest) {
	event := events.TransferEvent{
		TransferID:     req.ID.Hex(),
		SubscriptionID: req.SubscriptionID.Hex(),
		FromTrainerID:  req.FromTrainerID.Hex(),
		ToTrainerID:    req.ToTrainerID.Hex(),
		SessionsCount:  req.SessionsCount,
		Status:         string(req.Status),
		OccurredAt:     s.now().UTC(),
	}
	if err := s.publisher.Publish(ctx, routingKey, event); err != nil {
		log.Printf("WARN: Failed to publish %s for transfer %s: %v", routingKey, req.ID.Hex(), err)
	}
}

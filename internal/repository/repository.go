package repository

import (
	"alcyxob/gym-manager/internal/domain"
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Error constants for repository layer
var (
	ErrNotFound  = RepositoryError("not found")
	ErrDuplicate = RepositoryError("duplicate key")
	// ErrConflict is returned when a conditional update matched no document.
	ErrConflict = RepositoryError("conflicting update")
)

// RepositoryError helps distinguish repository errors
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// Transactor runs fn inside a single all-or-nothing transaction.
// Repositories called with the ctx passed to fn take part in it.
type Transactor interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// UserRepository defines the interface for interacting with staff user data.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error)
	GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]domain.User, error)
	List(ctx context.Context, role *domain.Role, activeOnly bool) ([]domain.User, error)
	SetActive(ctx context.Context, id primitive.ObjectID, active bool) error
}

// ClientFilter narrows client listings.
type ClientFilter struct {
	Search  string
	IsChild *bool
	Skip    int64
	Limit   int64
}

// ClientRepository defines the interface for interacting with client records.
type ClientRepository interface {
	Create(ctx context.Context, client *domain.Client) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Client, error)
	GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]domain.Client, error)
	List(ctx context.Context, filter ClientFilter) ([]domain.Client, int64, error)
	Update(ctx context.Context, client *domain.Client) error
	SetPhoto(ctx context.Context, id primitive.ObjectID, key string) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// PlanRepository defines the interface for the package catalog.
type PlanRepository interface {
	Create(ctx context.Context, plan *domain.Plan) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Plan, error)
	GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]domain.Plan, error)
	List(ctx context.Context, isChild *bool) ([]domain.Plan, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// SubscriptionFilter narrows subscription listings. Zero fields are ignored.
type SubscriptionFilter struct {
	IDs           []primitive.ObjectID
	ClientIDs     []primitive.ObjectID
	TrainerID     *primitive.ObjectID
	IsActive      *bool
	CreatedFrom   *time.Time
	CreatedBefore *time.Time
}

// SubscriptionRepository defines the interface for client subscriptions.
type SubscriptionRepository interface {
	// Create returns ErrDuplicate when the client already has an active subscription.
	Create(ctx context.Context, sub *domain.Subscription) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Subscription, error)
	// FindActiveByClient returns ErrNotFound when the client has no active subscription.
	FindActiveByClient(ctx context.Context, clientID primitive.ObjectID) (*domain.Subscription, error)
	// List returns matches newest start date first.
	List(ctx context.Context, filter SubscriptionFilter) ([]domain.Subscription, error)
	// Update returns ErrDuplicate when activating would break the one-active rule.
	Update(ctx context.Context, sub *domain.Subscription) error
	SetUsage(ctx context.Context, id primitive.ObjectID, sessionsUsed int, isActive bool) error
	DeactivateEndedBefore(ctx context.Context, day time.Time) (int64, error)
	DeleteByClient(ctx context.Context, clientID primitive.ObjectID) ([]primitive.ObjectID, error)
}

// TrainingPlanRepository defines the interface for recurring workout templates.
type TrainingPlanRepository interface {
	// Create returns ErrDuplicate when the subscription already has a plan.
	Create(ctx context.Context, plan *domain.TrainingPlan) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.TrainingPlan, error)
	GetBySubscription(ctx context.Context, subscriptionID primitive.ObjectID) (*domain.TrainingPlan, error)
	UpdateSplitExercises(ctx context.Context, id primitive.ObjectID, order int, exercises []domain.Exercise) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	DeleteBySubscriptions(ctx context.Context, subscriptionIDs []primitive.ObjectID) error
}

// TrainingSessionRepository defines the interface for 1-on-1 sessions.
type TrainingSessionRepository interface {
	// Create returns ErrDuplicate when (subscription, number) already exists.
	Create(ctx context.Context, session *domain.TrainingSession) (primitive.ObjectID, error)
	GetByNumber(ctx context.Context, subscriptionID primitive.ObjectID, number int) (*domain.TrainingSession, error)
	ReplaceContent(ctx context.Context, id primitive.ObjectID, name string, exercises []domain.Exercise) error
	// ClaimCompletion marks an incomplete session as completed by trainerID.
	// Returns ErrConflict when the session was already completed.
	ClaimCompletion(ctx context.Context, id, trainerID primitive.ObjectID, at time.Time) error
	ListBySubscription(ctx context.Context, subscriptionID primitive.ObjectID, completed *bool) ([]domain.TrainingSession, error)
	// ListCompletedNewestFirst orders by completion date, creation date, then number, all descending.
	ListCompletedNewestFirst(ctx context.Context, subscriptionID primitive.ObjectID) ([]domain.TrainingSession, error)
	CountCompleted(ctx context.Context, subscriptionID primitive.ObjectID) (int64, error)
	ListCompletedBetween(ctx context.Context, from, to time.Time) ([]domain.TrainingSession, error)
	DeleteBySubscriptions(ctx context.Context, subscriptionIDs []primitive.ObjectID) error
}

// SessionLogRepository defines the interface for legacy visit logs.
type SessionLogRepository interface {
	// Create returns ErrDuplicate when (subscription, number) already exists.
	Create(ctx context.Context, log *domain.SessionLog) (primitive.ObjectID, error)
	CountBySubscription(ctx context.Context, subscriptionID primitive.ObjectID) (int64, error)
	CountBetween(ctx context.Context, from, to time.Time) (int64, error)
	DeleteBySubscriptions(ctx context.Context, subscriptionIDs []primitive.ObjectID) error
}

// GroupSessionRepository defines the interface for group session logs.
type GroupSessionRepository interface {
	Create(ctx context.Context, log *domain.GroupSessionLog) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.GroupSessionLog, error)
	List(ctx context.Context, skip, limit int64) ([]domain.GroupSessionLog, int64, error)
	ListBetween(ctx context.Context, from, to time.Time) ([]domain.GroupSessionLog, error)
	ListByClient(ctx context.Context, clientID primitive.ObjectID) ([]domain.GroupSessionLog, error)
	CountDeducted(ctx context.Context, subscriptionID primitive.ObjectID) (int64, error)
}

// TransferFilter narrows transfer listings. A nil TrainerID lists all requests.
type TransferFilter struct {
	TrainerID *primitive.ObjectID
	Status    *domain.TransferStatus
}

// TransferRepository defines the interface for session transfer requests.
type TransferRepository interface {
	Create(ctx context.Context, req *domain.TransferRequest) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.TransferRequest, error)
	List(ctx context.Context, filter TransferFilter) ([]domain.TransferRequest, error)
	ListAcceptedTo(ctx context.Context, trainerID primitive.ObjectID) ([]domain.TransferRequest, error)
	// Transition moves a request from one status to another. Returns ErrConflict
	// when the stored status is no longer from.
	Transition(ctx context.Context, id primitive.ObjectID, from, to domain.TransferStatus, at time.Time) error
}

// CoachScheduleRepository defines the interface for weekly group slots.
type CoachScheduleRepository interface {
	// Create returns ErrDuplicate for the same coach, client, day and time.
	Create(ctx context.Context, entry *domain.CoachSchedule) (primitive.ObjectID, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	List(ctx context.Context, coachID *primitive.ObjectID) ([]domain.CoachSchedule, error)
}

// GroupTemplateRepository defines the interface for saved group workouts.
type GroupTemplateRepository interface {
	Create(ctx context.Context, tpl *domain.GroupTemplate) (primitive.ObjectID, error)
	List(ctx context.Context) ([]domain.GroupTemplate, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// UploadRepository defines the interface for interacting with upload metadata.
type UploadRepository interface {
	Create(ctx context.Context, upload *domain.Upload) (primitive.ObjectID, error)
	ListByClient(ctx context.Context, clientID primitive.ObjectID) ([]domain.Upload, error)
}

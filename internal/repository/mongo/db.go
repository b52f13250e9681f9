package mongo

import (
	"alcyxob/gym-manager/internal/repository"
	"context"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Default connection timeout
const defaultTimeout = 10 * time.Second

// Collection names
const (
	userCollectionName            = "users"
	clientCollectionName          = "clients"
	planCollectionName            = "plans"
	subscriptionCollectionName    = "subscriptions"
	trainingPlanCollectionName    = "training_plans"
	trainingSessionCollectionName = "training_sessions"
	sessionLogCollectionName      = "session_logs"
	groupSessionCollectionName    = "group_sessions"
	transferCollectionName        = "transfers"
	coachScheduleCollectionName   = "coach_schedules"
	groupTemplateCollectionName   = "group_templates"
	uploadCollectionName          = "uploads"
)

// ConnectDB establishes a connection to MongoDB using the provided URI.
// Transactions require a replica set or sharded cluster.
func ConnectDB(uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}

	pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer pingCancel()

	if err = client.Ping(pingCtx, readpref.Primary()); err != nil {
		disconnectCtx, disconnectCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer disconnectCancel()
		_ = client.Disconnect(disconnectCtx)
		return nil, err
	}

	return client, nil
}

// DisconnectDB gracefully disconnects the MongoDB client.
func DisconnectDB(client *mongo.Client) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()
	return client.Disconnect(ctx)
}

// EnsureIndexes creates the indexes of every collection.
func EnsureIndexes(ctx context.Context, db *mongo.Database) {
	EnsureUserIndexes(ctx, db.Collection(userCollectionName))
	EnsureClientIndexes(ctx, db.Collection(clientCollectionName))
	EnsurePlanIndexes(ctx, db.Collection(planCollectionName))
	EnsureSubscriptionIndexes(ctx, db.Collection(subscriptionCollectionName))
	EnsureTrainingPlanIndexes(ctx, db.Collection(trainingPlanCollectionName))
	EnsureTrainingSessionIndexes(ctx, db.Collection(trainingSessionCollectionName))
	EnsureSessionLogIndexes(ctx, db.Collection(sessionLogCollectionName))
	EnsureGroupSessionIndexes(ctx, db.Collection(groupSessionCollectionName))
	EnsureTransferIndexes(ctx, db.Collection(transferCollectionName))
	EnsureCoachScheduleIndexes(ctx, db.Collection(coachScheduleCollectionName))
	EnsureUploadIndexes(ctx, db.Collection(uploadCollectionName))
}

// mongoTransactor implements repository.Transactor with client sessions.
type mongoTransactor struct {
	client *mongo.Client
}

// NewTransactor creates a Transactor backed by MongoDB multi-document transactions.
func NewTransactor(client *mongo.Client) repository.Transactor {
	return &mongoTransactor{client: client}
}

// WithTransaction runs fn in a transaction. The mongo.SessionContext handed to fn
// carries the session, so repository calls made with it join the transaction.
// Transient errors are retried by the driver.
func (t *mongoTransactor) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	session, err := t.client.StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}

// mapWriteError translates driver write errors to repository errors.
func mapWriteError(err error) error {
	if mongo.IsDuplicateKeyError(err) {
		return repository.ErrDuplicate
	}
	return err
}

package mongo

import (
	"alcyxob/gym-manager/internal/domain"
	"alcyxob/gym-manager/internal/repository"
	"context"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoSessionLogRepository struct {
	collection *mongo.Collection
}

// NewMongoSessionLogRepository creates the legacy visit log repository.
func NewMongoSessionLogRepository(db *mongo.Database) repository.SessionLogRepository {
	return &mongoSessionLogRepository{collection: db.Collection(sessionLogCollectionName)}
}

func (r *mongoSessionLogRepository) Create(ctx context.Context, entry *domain.SessionLog) (primitive.ObjectID, error) {
	entry.ID = primitive.NewObjectID()
	entry.CreatedAt = time.Now().UTC()
	if _, err := r.collection.InsertOne(ctx, entry); err != nil {
		return primitive.NilObjectID, mapWriteError(err)
	}
	return entry.ID, nil
}

func (r *mongoSessionLogRepository) CountBySubscription(ctx context.Context, subscriptionID primitive.ObjectID) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"subscriptionId": subscriptionID})
}

func (r *mongoSessionLogRepository) CountBetween(ctx context.Context, from, to time.Time) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"dateCompleted": bson.M{"$gte": from, "$lt": to}})
}

func (r *mongoSessionLogRepository) DeleteBySubscriptions(ctx context.Context, subscriptionIDs []primitive.ObjectID) error {
	if len(subscriptionIDs) == 0 {
		return nil
	}
	_, err := r.collection.DeleteMany(ctx, bson.M{"subscriptionId": bson.M{"$in": subscriptionIDs}})
	return err
}

// EnsureSessionLogIndexes creates necessary indexes for the session_logs collection.
func EnsureSessionLogIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "subscriptionId", Value: 1}, {Key: "sessionNumber", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "dateCompleted", Value: -1}},
		},
	}
	if _, err := collection.Indexes().CreateMany(ctx, indexes); err != nil {
		log.Printf("WARN: Failed to create indexes for collection %s: %v", collection.Name(), err)
	}
}

package mongo

import (
	"alcyxob/gym-manager/internal/domain"
	"alcyxob/gym-manager/internal/repository"
	"context"
	"errors"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// mongoTrainingSessionRepository stores 1-on-1 sessions with embedded exercises.
type mongoTrainingSessionRepository struct {
	collection *mongo.Collection
}

// NewMongoTrainingSessionRepository creates a new instance of mongoTrainingSessionRepository.
func NewMongoTrainingSessionRepository(db *mongo.Database) repository.TrainingSessionRepository {
	return &mongoTrainingSessionRepository{collection: db.Collection(trainingSessionCollectionName)}
}

func (r *mongoTrainingSessionRepository) Create(ctx context.Context, session *domain.TrainingSession) (primitive.ObjectID, error) {
	session.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	session.CreatedAt = now
	session.UpdatedAt = now
	if session.Exercises == nil {
		session.Exercises = []domain.Exercise{}
	}

	if _, err := r.collection.InsertOne(ctx, session); err != nil {
		return primitive.NilObjectID, mapWriteError(err)
	}
	return session.ID, nil
}

func (r *mongoTrainingSessionRepository) GetByNumber(ctx context.Context, subscriptionID primitive.ObjectID, number int) (*domain.TrainingSession, error) {
	var session domain.TrainingSession
	filter := bson.M{"subscriptionId": subscriptionID, "sessionNumber": number}
	err := r.collection.FindOne(ctx, filter).Decode(&session)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &session, nil
}

// ReplaceContent overwrites the name and the whole exercise list.
func (r *mongoTrainingSessionRepository) ReplaceContent(ctx context.Context, id primitive.ObjectID, name string, exercises []domain.Exercise) error {
	if exercises == nil {
		exercises = []domain.Exercise{}
	}
	update := bson.M{"$set": bson.M{
		"name":      name,
		"exercises": exercises,
		"updatedAt": time.Now().UTC(),
	}}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// ClaimCompletion only matches sessions that are not completed yet, so of two
// concurrent claims exactly one succeeds.
func (r *mongoTrainingSessionRepository) ClaimCompletion(ctx context.Context, id, trainerID primitive.ObjectID, at time.Time) error {
	filter := bson.M{"_id": id, "isCompleted": false}
	update := bson.M{"$set": bson.M{
		"isCompleted":   true,
		"dateCompleted": at,
		"completedBy":   trainerID,
		"updatedAt":     time.Now().UTC(),
	}}
	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrConflict
	}
	return nil
}

func (r *mongoTrainingSessionRepository) ListBySubscription(ctx context.Context, subscriptionID primitive.ObjectID, completed *bool) ([]domain.TrainingSession, error) {
	filter := bson.M{"subscriptionId": subscriptionID}
	if completed != nil {
		filter["isCompleted"] = *completed
	}
	return r.find(ctx, filter, options.Find().SetSort(bson.D{{Key: "sessionNumber", Value: 1}}))
}

func (r *mongoTrainingSessionRepository) ListCompletedNewestFirst(ctx context.Context, subscriptionID primitive.ObjectID) ([]domain.TrainingSession, error) {
	filter := bson.M{"subscriptionId": subscriptionID, "isCompleted": true}
	sort := bson.D{
		{Key: "dateCompleted", Value: -1},
		{Key: "createdAt", Value: -1},
		{Key: "sessionNumber", Value: -1},
	}
	return r.find(ctx, filter, options.Find().SetSort(sort))
}

func (r *mongoTrainingSessionRepository) CountCompleted(ctx context.Context, subscriptionID primitive.ObjectID) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"subscriptionId": subscriptionID, "isCompleted": true})
}

func (r *mongoTrainingSessionRepository) ListCompletedBetween(ctx context.Context, from, to time.Time) ([]domain.TrainingSession, error) {
	filter := bson.M{
		"isCompleted":   true,
		"dateCompleted": bson.M{"$gte": from, "$lt": to},
	}
	// Exercises are not needed for reporting.
	findOptions := options.Find().SetProjection(bson.M{"exercises": 0})
	return r.find(ctx, filter, findOptions)
}

func (r *mongoTrainingSessionRepository) DeleteBySubscriptions(ctx context.Context, subscriptionIDs []primitive.ObjectID) error {
	if len(subscriptionIDs) == 0 {
		return nil
	}
	_, err := r.collection.DeleteMany(ctx, bson.M{"subscriptionId": bson.M{"$in": subscriptionIDs}})
	return err
}

func (r *mongoTrainingSessionRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]domain.TrainingSession, error) {
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	sessions := []domain.TrainingSession{}
	if err = cursor.All(ctx, &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

// EnsureTrainingSessionIndexes creates necessary indexes for the training_sessions collection.
func EnsureTrainingSessionIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "subscriptionId", Value: 1}, {Key: "sessionNumber", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "isCompleted", Value: 1}, {Key: "dateCompleted", Value: -1}},
		},
	}
	if _, err := collection.Indexes().CreateMany(ctx, indexes); err != nil {
		log.Printf("WARN: Failed to create indexes for collection %s: %v", collection.Name(), err)
	}
}

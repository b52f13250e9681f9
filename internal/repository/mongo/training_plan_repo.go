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

// mongoTrainingPlanRepository stores one recurring template per subscription.
type mongoTrainingPlanRepository struct {
	collection *mongo.Collection
}

// NewMongoTrainingPlanRepository creates a new instance of mongoTrainingPlanRepository.
func NewMongoTrainingPlanRepository(db *mongo.Database) repository.TrainingPlanRepository {
	return &mongoTrainingPlanRepository{collection: db.Collection(trainingPlanCollectionName)}
}

func (r *mongoTrainingPlanRepository) Create(ctx context.Context, plan *domain.TrainingPlan) (primitive.ObjectID, error) {
	plan.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	plan.CreatedAt = now
	plan.UpdatedAt = now
	if plan.Splits == nil {
		plan.Splits = []domain.Split{}
	}

	if _, err := r.collection.InsertOne(ctx, plan); err != nil {
		return primitive.NilObjectID, mapWriteError(err)
	}
	return plan.ID, nil
}

func (r *mongoTrainingPlanRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.TrainingPlan, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *mongoTrainingPlanRepository) GetBySubscription(ctx context.Context, subscriptionID primitive.ObjectID) (*domain.TrainingPlan, error) {
	return r.findOne(ctx, bson.M{"subscriptionId": subscriptionID})
}

func (r *mongoTrainingPlanRepository) findOne(ctx context.Context, filter bson.M) (*domain.TrainingPlan, error) {
	var plan domain.TrainingPlan
	err := r.collection.FindOne(ctx, filter).Decode(&plan)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &plan, nil
}

// UpdateSplitExercises replaces the exercises of the split with the given order.
func (r *mongoTrainingPlanRepository) UpdateSplitExercises(ctx context.Context, id primitive.ObjectID, order int, exercises []domain.Exercise) error {
	filter := bson.M{"_id": id, "splits.order": order}
	update := bson.M{"$set": bson.M{
		"splits.$.exercises": exercises,
		"updatedAt":          time.Now().UTC(),
	}}
	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *mongoTrainingPlanRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *mongoTrainingPlanRepository) DeleteBySubscriptions(ctx context.Context, subscriptionIDs []primitive.ObjectID) error {
	if len(subscriptionIDs) == 0 {
		return nil
	}
	_, err := r.collection.DeleteMany(ctx, bson.M{"subscriptionId": bson.M{"$in": subscriptionIDs}})
	return err
}

// EnsureTrainingPlanIndexes creates necessary indexes for the training_plans collection.
func EnsureTrainingPlanIndexes(ctx context.Context, collection *mongo.Collection) {
	index := mongo.IndexModel{
		Keys:    bson.D{{Key: "subscriptionId", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	if _, err := collection.Indexes().CreateOne(ctx, index); err != nil {
		log.Printf("WARN: Failed to create indexes for collection %s: %v", collection.Name(), err)
	}
}

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

type mongoCoachScheduleRepository struct {
	collection *mongo.Collection
}

// NewMongoCoachScheduleRepository creates the weekly group roster repository.
func NewMongoCoachScheduleRepository(db *mongo.Database) repository.CoachScheduleRepository {
	return &mongoCoachScheduleRepository{collection: db.Collection(coachScheduleCollectionName)}
}

func (r *mongoCoachScheduleRepository) Create(ctx context.Context, entry *domain.CoachSchedule) (primitive.ObjectID, error) {
	entry.ID = primitive.NewObjectID()
	entry.CreatedAt = time.Now().UTC()
	if _, err := r.collection.InsertOne(ctx, entry); err != nil {
		return primitive.NilObjectID, mapWriteError(err)
	}
	return entry.ID, nil
}

func (r *mongoCoachScheduleRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *mongoCoachScheduleRepository) List(ctx context.Context, coachID *primitive.ObjectID) ([]domain.CoachSchedule, error) {
	filter := bson.M{}
	if coachID != nil {
		filter["coachId"] = *coachID
	}
	findOptions := options.Find().SetSort(bson.D{{Key: "dayOfWeek", Value: 1}, {Key: "time", Value: 1}})
	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	entries := []domain.CoachSchedule{}
	if err = cursor.All(ctx, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// EnsureCoachScheduleIndexes creates necessary indexes for the coach_schedules collection.
func EnsureCoachScheduleIndexes(ctx context.Context, collection *mongo.Collection) {
	index := mongo.IndexModel{
		Keys: bson.D{
			{Key: "coachId", Value: 1},
			{Key: "dayOfWeek", Value: 1},
			{Key: "time", Value: 1},
			{Key: "clientId", Value: 1},
		},
		Options: options.Index().SetUnique(true),
	}
	if _, err := collection.Indexes().CreateOne(ctx, index); err != nil {
		log.Printf("WARN: Failed to create indexes for collection %s: %v", collection.Name(), err)
	}
}

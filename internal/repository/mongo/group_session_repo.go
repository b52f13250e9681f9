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

type mongoGroupSessionRepository struct {
	collection *mongo.Collection
}

// NewMongoGroupSessionRepository creates the group session log repository.
func NewMongoGroupSessionRepository(db *mongo.Database) repository.GroupSessionRepository {
	return &mongoGroupSessionRepository{collection: db.Collection(groupSessionCollectionName)}
}

func (r *mongoGroupSessionRepository) Create(ctx context.Context, entry *domain.GroupSessionLog) (primitive.ObjectID, error) {
	entry.ID = primitive.NewObjectID()
	entry.CreatedAt = time.Now().UTC()
	if entry.Exercises == nil {
		entry.Exercises = []domain.GroupExercise{}
	}
	if entry.Participants == nil {
		entry.Participants = []domain.GroupParticipant{}
	}
	if _, err := r.collection.InsertOne(ctx, entry); err != nil {
		return primitive.NilObjectID, mapWriteError(err)
	}
	return entry.ID, nil
}

func (r *mongoGroupSessionRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.GroupSessionLog, error) {
	var entry domain.GroupSessionLog
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&entry)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &entry, nil
}

// List returns one page of logs, newest first, and the total count.
func (r *mongoGroupSessionRepository) List(ctx context.Context, skip, limit int64) ([]domain.GroupSessionLog, int64, error) {
	total, err := r.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, 0, err
	}
	findOptions := newestFirst()
	if skip > 0 {
		findOptions.SetSkip(skip)
	}
	if limit > 0 {
		findOptions.SetLimit(limit)
	}
	logs, err := r.find(ctx, bson.M{}, findOptions)
	if err != nil {
		return nil, 0, err
	}
	return logs, total, nil
}

func (r *mongoGroupSessionRepository) ListBetween(ctx context.Context, from, to time.Time) ([]domain.GroupSessionLog, error) {
	filter := bson.M{"date": bson.M{"$gte": from, "$lt": to}}
	return r.find(ctx, filter, newestFirst())
}

func (r *mongoGroupSessionRepository) ListByClient(ctx context.Context, clientID primitive.ObjectID) ([]domain.GroupSessionLog, error) {
	return r.find(ctx, bson.M{"participants.clientId": clientID}, newestFirst())
}

// CountDeducted counts participations that consumed a unit of the subscription.
func (r *mongoGroupSessionRepository) CountDeducted(ctx context.Context, subscriptionID primitive.ObjectID) (int64, error) {
	deducted := bson.M{"participants.subscriptionId": subscriptionID, "participants.deducted": true}
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"participants": bson.M{"$elemMatch": bson.M{
			"subscriptionId": subscriptionID,
			"deducted":       true,
		}}}}},
		{{Key: "$unwind", Value: "$participants"}},
		{{Key: "$match", Value: deducted}},
		{{Key: "$count", Value: "n"}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, err
	}
	defer cursor.Close(ctx)

	var rows []struct {
		N int64 `bson:"n"`
	}
	if err = cursor.All(ctx, &rows); err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return rows[0].N, nil
}

func (r *mongoGroupSessionRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]domain.GroupSessionLog, error) {
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	logs := []domain.GroupSessionLog{}
	if err = cursor.All(ctx, &logs); err != nil {
		return nil, err
	}
	return logs, nil
}

func newestFirst() *options.FindOptions {
	return options.Find().SetSort(bson.D{{Key: "date", Value: -1}, {Key: "createdAt", Value: -1}})
}

// EnsureGroupSessionIndexes creates necessary indexes for the group_sessions collection.
func EnsureGroupSessionIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "date", Value: -1}}},
		{Keys: bson.D{{Key: "participants.clientId", Value: 1}}},
		{Keys: bson.D{{Key: "participants.subscriptionId", Value: 1}}},
	}
	if _, err := collection.Indexes().CreateMany(ctx, indexes); err != nil {
		log.Printf("WARN: Failed to create indexes for collection %s: %v", collection.Name(), err)
	}
}

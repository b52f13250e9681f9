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

const oneActiveIndexName = "one_active_per_client"

type mongoSubscriptionRepository struct {
	collection *mongo.Collection
}

// NewMongoSubscriptionRepository creates the subscription repository.
func NewMongoSubscriptionRepository(db *mongo.Database) repository.SubscriptionRepository {
	return &mongoSubscriptionRepository{collection: db.Collection(subscriptionCollectionName)}
}

func (r *mongoSubscriptionRepository) Create(ctx context.Context, sub *domain.Subscription) (primitive.ObjectID, error) {
	sub.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	sub.CreatedAt = now
	sub.UpdatedAt = now

	if _, err := r.collection.InsertOne(ctx, sub); err != nil {
		return primitive.NilObjectID, mapWriteError(err)
	}
	return sub.ID, nil
}

func (r *mongoSubscriptionRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Subscription, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *mongoSubscriptionRepository) FindActiveByClient(ctx context.Context, clientID primitive.ObjectID) (*domain.Subscription, error) {
	return r.findOne(ctx, bson.M{"clientId": clientID, "isActive": true})
}

func (r *mongoSubscriptionRepository) findOne(ctx context.Context, filter bson.M) (*domain.Subscription, error) {
	var sub domain.Subscription
	err := r.collection.FindOne(ctx, filter).Decode(&sub)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &sub, nil
}

func (r *mongoSubscriptionRepository) List(ctx context.Context, f repository.SubscriptionFilter) ([]domain.Subscription, error) {
	filter := bson.M{}
	if f.IDs != nil {
		filter["_id"] = bson.M{"$in": f.IDs}
	}
	if f.ClientIDs != nil {
		filter["clientId"] = bson.M{"$in": f.ClientIDs}
	}
	if f.TrainerID != nil {
		filter["trainerId"] = *f.TrainerID
	}
	if f.IsActive != nil {
		filter["isActive"] = *f.IsActive
	}
	created := bson.M{}
	if f.CreatedFrom != nil {
		created["$gte"] = *f.CreatedFrom
	}
	if f.CreatedBefore != nil {
		created["$lt"] = *f.CreatedBefore
	}
	if len(created) > 0 {
		filter["createdAt"] = created
	}

	findOptions := options.Find().SetSort(bson.D{{Key: "startDate", Value: -1}, {Key: "createdAt", Value: -1}})
	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	subs := []domain.Subscription{}
	if err = cursor.All(ctx, &subs); err != nil {
		return nil, err
	}
	return subs, nil
}

// Update writes the editable fields. The end date is only written while the
// stored one is still unset.
func (r *mongoSubscriptionRepository) Update(ctx context.Context, sub *domain.Subscription) error {
	sub.UpdatedAt = time.Now().UTC()
	update := bson.M{"$set": bson.M{
		"planId":       sub.PlanID,
		"trainerId":    sub.TrainerID,
		"startDate":    sub.StartDate,
		"isActive":     sub.IsActive,
		"sessionsUsed": sub.SessionsUsed,
		"inBody":       sub.InBody,
		"updatedAt":    sub.UpdatedAt,
	}}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": sub.ID}, update)
	if err != nil {
		return mapWriteError(err)
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}

	if sub.EndDate != nil {
		_, err = r.collection.UpdateOne(ctx,
			bson.M{"_id": sub.ID, "endDate": nil},
			bson.M{"$set": bson.M{"endDate": sub.EndDate}},
		)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *mongoSubscriptionRepository) SetUsage(ctx context.Context, id primitive.ObjectID, sessionsUsed int, isActive bool) error {
	update := bson.M{"$set": bson.M{
		"sessionsUsed": sessionsUsed,
		"isActive":     isActive,
		"updatedAt":    time.Now().UTC(),
	}}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return mapWriteError(err)
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// DeactivateEndedBefore deactivates active subscriptions whose end date is before day.
func (r *mongoSubscriptionRepository) DeactivateEndedBefore(ctx context.Context, day time.Time) (int64, error) {
	filter := bson.M{"isActive": true, "endDate": bson.M{"$lt": day}}
	update := bson.M{"$set": bson.M{"isActive": false, "updatedAt": time.Now().UTC()}}
	result, err := r.collection.UpdateMany(ctx, filter, update)
	if err != nil {
		return 0, err
	}
	return result.ModifiedCount, nil
}

// DeleteByClient removes every subscription of the client and returns their ids.
func (r *mongoSubscriptionRepository) DeleteByClient(ctx context.Context, clientID primitive.ObjectID) ([]primitive.ObjectID, error) {
	filter := bson.M{"clientId": clientID}
	cursor, err := r.collection.Find(ctx, filter, options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return nil, err
	}
	var rows []struct {
		ID primitive.ObjectID `bson:"_id"`
	}
	if err = cursor.All(ctx, &rows); err != nil {
		return nil, err
	}
	ids := make([]primitive.ObjectID, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	if _, err = r.collection.DeleteMany(ctx, filter); err != nil {
		return nil, err
	}
	return ids, nil
}

// EnsureSubscriptionIndexes creates the subscription indexes, including the
// partial unique index that admits one active subscription per client.
func EnsureSubscriptionIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "clientId", Value: 1}},
			Options: options.Index().
				SetName(oneActiveIndexName).
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"isActive": true}),
		},
		{
			Keys: bson.D{{Key: "trainerId", Value: 1}, {Key: "isActive", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "createdAt", Value: -1}},
		},
		{
			Keys: bson.D{{Key: "isActive", Value: 1}, {Key: "endDate", Value: 1}},
		},
	}
	if _, err := collection.Indexes().CreateMany(ctx, indexes); err != nil {
		log.Printf("WARN: Failed to create indexes for collection %s: %v", collection.Name(), err)
	}
}

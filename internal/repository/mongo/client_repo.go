package mongo

import (
	"alcyxob/gym-manager/internal/domain"
	"alcyxob/gym-manager/internal/repository"
	"context"
	"errors"
	"log"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoClientRepository struct {
	collection *mongo.Collection
}

// NewMongoClientRepository creates a client repository on db.
func NewMongoClientRepository(db *mongo.Database) repository.ClientRepository {
	return &mongoClientRepository{collection: db.Collection(clientCollectionName)}
}

func (r *mongoClientRepository) Create(ctx context.Context, client *domain.Client) (primitive.ObjectID, error) {
	client.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	client.CreatedAt = now
	client.UpdatedAt = now
	if client.Status == "" {
		client.Status = domain.ClientStatusActive
	}

	if _, err := r.collection.InsertOne(ctx, client); err != nil {
		return primitive.NilObjectID, mapWriteError(err)
	}
	return client.ID, nil
}

func (r *mongoClientRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Client, error) {
	var client domain.Client
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&client)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &client, nil
}

func (r *mongoClientRepository) GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]domain.Client, error) {
	clients := []domain.Client{}
	if len(ids) == 0 {
		return clients, nil
	}
	cursor, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	if err = cursor.All(ctx, &clients); err != nil {
		return nil, err
	}
	return clients, nil
}

// List searches name, phone and manual id case-insensitively and returns one
// page ordered by name together with the total match count.
func (r *mongoClientRepository) List(ctx context.Context, f repository.ClientFilter) ([]domain.Client, int64, error) {
	filter := bson.M{}
	if f.Search != "" {
		pattern := primitive.Regex{Pattern: regexp.QuoteMeta(f.Search), Options: "i"}
		filter["$or"] = bson.A{
			bson.M{"name": pattern},
			bson.M{"phone": pattern},
			bson.M{"parentPhone": pattern},
			bson.M{"manualId": pattern},
		}
	}
	if f.IsChild != nil {
		filter["isChild"] = *f.IsChild
	}

	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	findOptions := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	if f.Skip > 0 {
		findOptions.SetSkip(f.Skip)
	}
	if f.Limit > 0 {
		findOptions.SetLimit(f.Limit)
	}
	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	clients := []domain.Client{}
	if err = cursor.All(ctx, &clients); err != nil {
		return nil, 0, err
	}
	return clients, total, nil
}

func (r *mongoClientRepository) Update(ctx context.Context, client *domain.Client) error {
	client.UpdatedAt = time.Now().UTC()
	update := bson.M{"$set": bson.M{
		"name":        client.Name,
		"manualId":    client.ManualID,
		"phone":       client.Phone,
		"isChild":     client.IsChild,
		"parentPhone": client.ParentPhone,
		"birthDate":   client.BirthDate,
		"status":      client.Status,
		"notes":       client.Notes,
		"updatedAt":   client.UpdatedAt,
	}}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": client.ID}, update)
	if err != nil {
		return mapWriteError(err)
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *mongoClientRepository) SetPhoto(ctx context.Context, id primitive.ObjectID, key string) error {
	update := bson.M{"$set": bson.M{"photoKey": key, "updatedAt": time.Now().UTC()}}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *mongoClientRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// EnsureClientIndexes creates necessary indexes for the clients collection.
func EnsureClientIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "manualId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "name", Value: 1}},
		},
	}
	if _, err := collection.Indexes().CreateMany(ctx, indexes); err != nil {
		log.Printf("WARN: Failed to create indexes for collection %s: %v", collection.Name(), err)
	}
}

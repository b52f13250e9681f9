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

type mongoPlanRepository struct {
	collection *mongo.Collection
}

// NewMongoPlanRepository creates the package catalog repository.
func NewMongoPlanRepository(db *mongo.Database) repository.PlanRepository {
	return &mongoPlanRepository{collection: db.Collection(planCollectionName)}
}

func (r *mongoPlanRepository) Create(ctx context.Context, plan *domain.Plan) (primitive.ObjectID, error) {
	plan.ID = primitive.NewObjectID()
	plan.CreatedAt = time.Now().UTC()
	if _, err := r.collection.InsertOne(ctx, plan); err != nil {
		return primitive.NilObjectID, mapWriteError(err)
	}
	return plan.ID, nil
}

func (r *mongoPlanRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Plan, error) {
	var plan domain.Plan
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&plan)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &plan, nil
}

func (r *mongoPlanRepository) GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]domain.Plan, error) {
	plans := []domain.Plan{}
	if len(ids) == 0 {
		return plans, nil
	}
	cursor, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	if err = cursor.All(ctx, &plans); err != nil {
		return nil, err
	}
	return plans, nil
}

// List returns plans ordered by child flag, then price.
func (r *mongoPlanRepository) List(ctx context.Context, isChild *bool) ([]domain.Plan, error) {
	filter := bson.M{}
	if isChild != nil {
		filter["isChildPlan"] = *isChild
	}
	findOptions := options.Find().SetSort(bson.D{{Key: "isChildPlan", Value: 1}, {Key: "price", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	plans := []domain.Plan{}
	if err = cursor.All(ctx, &plans); err != nil {
		return nil, err
	}
	return plans, nil
}

func (r *mongoPlanRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// EnsurePlanIndexes creates necessary indexes for the plans collection.
func EnsurePlanIndexes(ctx context.Context, collection *mongo.Collection) {
	index := mongo.IndexModel{Keys: bson.D{{Key: "isChildPlan", Value: 1}, {Key: "price", Value: 1}}}
	if _, err := collection.Indexes().CreateOne(ctx, index); err != nil {
		log.Printf("WARN: Failed to create indexes for collection %s: %v", collection.Name(), err)
	}
}

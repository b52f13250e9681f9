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

// mongoTransferRepository implements repository.TransferRepository.
type mongoTransferRepository struct {
	collection *mongo.Collection
}

// NewMongoTransferRepository creates the session transfer repository.
func NewMongoTransferRepository(db *mongo.Database) repository.TransferRepository {
	return &mongoTransferRepository{collection: db.Collection(transferCollectionName)}
}

func (r *mongoTransferRepository) Create(ctx context.Context, req *domain.TransferRequest) (primitive.ObjectID, error) {
	req.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	req.CreatedAt = now
	req.UpdatedAt = now
	if req.Status == "" {
		req.Status = domain.TransferPending
	}
	if _, err := r.collection.InsertOne(ctx, req); err != nil {
		return primitive.NilObjectID, mapWriteError(err)
	}
	return req.ID, nil
}

func (r *mongoTransferRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.TransferRequest, error) {
	var req domain.TransferRequest
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&req)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &req, nil
}

// List returns requests newest first. With a trainer set, only requests the
// trainer sent or received are returned.
func (r *mongoTransferRepository) List(ctx context.Context, f repository.TransferFilter) ([]domain.TransferRequest, error) {
	filter := bson.M{}
	if f.TrainerID != nil {
		filter["$or"] = bson.A{
			bson.M{"fromTrainerId": *f.TrainerID},
			bson.M{"toTrainerId": *f.TrainerID},
		}
	}
	if f.Status != nil {
		filter["status"] = *f.Status
	}
	return r.find(ctx, filter)
}

func (r *mongoTransferRepository) ListAcceptedTo(ctx context.Context, trainerID primitive.ObjectID) ([]domain.TransferRequest, error) {
	return r.find(ctx, bson.M{"toTrainerId": trainerID, "status": domain.TransferAccepted})
}

func (r *mongoTransferRepository) Transition(ctx context.Context, id primitive.ObjectID, from, to domain.TransferStatus, at time.Time) error {
	filter := bson.M{"_id": id, "status": from}
	set := bson.M{"status": to, "updatedAt": at}
	if to == domain.TransferAccepted || to == domain.TransferRejected {
		set["respondedAt"] = at
	}
	result, err := r.collection.UpdateOne(ctx, filter, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrConflict
	}
	return nil
}

func (r *mongoTransferRepository) find(ctx context.Context, filter bson.M) ([]domain.TransferRequest, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	reqs := []domain.TransferRequest{}
	if err = cursor.All(ctx, &reqs); err != nil {
		return nil, err
	}
	return reqs, nil
}

// EnsureTransferIndexes creates necessary indexes for the transfers collection.
func EnsureTransferIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "fromTrainerId", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "toTrainerId", Value: 1}, {Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "subscriptionId", Value: 1}}},
	}
	if _, err := collection.Indexes().CreateMany(ctx, indexes); err != nil {
		log.Printf("WARN: Failed to create indexes for collection %s: %v", collection.Name(), err)
	}
}

package mongo

import (
	"alcyxob/gym-manager/internal/domain"
	"alcyxob/gym-manager/internal/repository"
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoGroupTemplateRepository struct {
	collection *mongo.Collection
}

// NewMongoGroupTemplateRepository creates the saved group workout repository.
func NewMongoGroupTemplateRepository(db *mongo.Database) repository.GroupTemplateRepository {
	return &mongoGroupTemplateRepository{collection: db.Collection(groupTemplateCollectionName)}
}

func (r *mongoGroupTemplateRepository) Create(ctx context.Context, tpl *domain.GroupTemplate) (primitive.ObjectID, error) {
	tpl.ID = primitive.NewObjectID()
	tpl.CreatedAt = time.Now().UTC()
	if tpl.Exercises == nil {
		tpl.Exercises = []domain.GroupTemplateExercise{}
	}
	if _, err := r.collection.InsertOne(ctx, tpl); err != nil {
		return primitive.NilObjectID, err
	}
	return tpl.ID, nil
}

func (r *mongoGroupTemplateRepository) List(ctx context.Context) ([]domain.GroupTemplate, error) {
	cursor, err := r.collection.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	templates := []domain.GroupTemplate{}
	if err = cursor.All(ctx, &templates); err != nil {
		return nil, err
	}
	return templates, nil
}

func (r *mongoGroupTemplateRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

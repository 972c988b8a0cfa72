package mongo

import (
	"context"
	"errors"
	"log"
	"time"

	"tlm/coach-api/internal/domain"
	"tlm/coach-api/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const prebuiltWorkoutCollectionName = "prebuilt_workouts"

type mongoPrebuiltWorkoutRepository struct {
	collection *mongo.Collection
}

// NewMongoPrebuiltWorkoutRepository creates a repository for workout templates.
func NewMongoPrebuiltWorkoutRepository(db *mongo.Database) repository.PrebuiltWorkoutRepository {
	return &mongoPrebuiltWorkoutRepository{
		collection: db.Collection(prebuiltWorkoutCollectionName),
	}
}

func (r *mongoPrebuiltWorkoutRepository) Create(ctx context.Context, workout *domain.PrebuiltWorkout) (primitive.ObjectID, error) {
	if workout.AuthorID == primitive.NilObjectID || workout.Name == "" {
		return primitive.NilObjectID, errors.New("prebuilt workout requires authorId and name")
	}
	if !workout.Visibility.Valid() {
		return primitive.NilObjectID, errors.New("prebuilt workout has invalid visibility")
	}
	workout.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	workout.CreatedAt = now
	workout.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, workout)
	if err != nil {
		return primitive.NilObjectID, err
	}
	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted prebuilt workout ID")
	}
	return insertedID, nil
}

func (r *mongoPrebuiltWorkoutRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.PrebuiltWorkout, error) {
	var workout domain.PrebuiltWorkout
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&workout)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &workout, nil
}

func (r *mongoPrebuiltWorkoutRepository) ListVisible(ctx context.Context, authorID primitive.ObjectID, includeShared bool) ([]domain.PrebuiltWorkout, error) {
	or := bson.A{
		bson.M{"visibility": domain.VisibilityTLM},
		bson.M{"authorId": authorID},
	}
	if includeShared {
		or = append(or, bson.M{"visibility": domain.VisibilityShared})
	}
	findOptions := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})

	cursor, err := r.collection.Find(ctx, bson.M{"$or": or}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var workouts []domain.PrebuiltWorkout
	if err = cursor.All(ctx, &workouts); err != nil {
		return nil, err
	}
	return workouts, nil
}

// ReferencesExercise reports whether any stored workout embeds the exercise.
func (r *mongoPrebuiltWorkoutRepository) ReferencesExercise(ctx context.Context, exerciseID primitive.ObjectID) (bool, error) {
	n, err := r.collection.CountDocuments(ctx, bson.M{"exercises._id": exerciseID}, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// EnsurePrebuiltWorkoutIndexes creates necessary indexes. Call during startup.
func EnsurePrebuiltWorkoutIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "visibility", Value: 1}}},
		{Keys: bson.D{{Key: "authorId", Value: 1}}},
	}
	if _, err := collection.Indexes().CreateMany(ctx, indexes); err != nil {
		log.Printf("WARN: Failed to create indexes for collection %s: %v", collection.Name(), err)
	}
}

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

const exerciseCollectionName = "exercises"

// mongoExerciseRepository implements repository.ExerciseRepository
type mongoExerciseRepository struct {
	collection *mongo.Collection
}

// NewMongoExerciseRepository creates a new Exercise repository backed by MongoDB.
func NewMongoExerciseRepository(db *mongo.Database) repository.ExerciseRepository {
	return &mongoExerciseRepository{
		collection: db.Collection(exerciseCollectionName),
	}
}

// Create inserts a new exercise into the database.
func (r *mongoExerciseRepository) Create(ctx context.Context, exercise *domain.Exercise) (primitive.ObjectID, error) {
	if exercise.Name == "" || exercise.TrainerID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("exercise name and trainer ID are required")
	}

	exercise.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	exercise.CreatedAt = now
	exercise.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, exercise)
	if err != nil {
		return primitive.NilObjectID, err
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted ID")
	}
	return insertedID, nil
}

// GetByID retrieves an exercise by its ID.
func (r *mongoExerciseRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Exercise, error) {
	var exercise domain.Exercise
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&exercise)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &exercise, nil
}

// GetByIDs retrieves exercises in the order of ids. A missing id yields
// repository.ErrNotFound; repeated ids are returned repeatedly.
func (r *mongoExerciseRepository) GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]domain.Exercise, error) {
	if len(ids) == 0 {
		return []domain.Exercise{}, nil
	}

	cursor, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var found []domain.Exercise
	if err = cursor.All(ctx, &found); err != nil {
		return nil, err
	}

	byID := make(map[primitive.ObjectID]domain.Exercise, len(found))
	for _, ex := range found {
		byID[ex.ID] = ex
	}
	ordered := make([]domain.Exercise, 0, len(ids))
	for _, id := range ids {
		ex, ok := byID[id]
		if !ok {
			return nil, repository.ErrNotFound
		}
		ordered = append(ordered, ex)
	}
	return ordered, nil
}

// List retrieves exercises matching the filter, newest first.
func (r *mongoExerciseRepository) List(ctx context.Context, f repository.ExerciseFilter) ([]domain.Exercise, error) {
	filter := bson.M{}
	if f.TrainerID != nil {
		filter["trainerId"] = *f.TrainerID
	}
	if f.PublishedOnly {
		filter["published"] = true
	}
	if !f.IncludeArchived {
		filter["archived"] = bson.M{"$ne": true}
	}
	if f.MovementPattern != "" {
		filter["movementPattern"] = f.MovementPattern
	}

	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var exercises []domain.Exercise
	if err = cursor.All(ctx, &exercises); err != nil {
		return nil, err
	}
	return exercises, nil
}

// Update modifies an existing exercise. TrainerID is never changed here.
func (r *mongoExerciseRepository) Update(ctx context.Context, exercise *domain.Exercise) error {
	if exercise.ID == primitive.NilObjectID {
		return errors.New("exercise ID is required for update")
	}
	if exercise.Name == "" {
		return errors.New("exercise name cannot be empty")
	}

	exercise.UpdatedAt = time.Now().UTC()
	update := bson.M{
		"$set": bson.M{
			"name":            exercise.Name,
			"description":     exercise.Description,
			"movementPattern": exercise.MovementPattern,
			"intensity":       exercise.Intensity,
			"duration":        exercise.Duration,
			"prenatal":        exercise.Prenatal,
			"postnatal":       exercise.Postnatal,
			"instruction":     exercise.Instruction,
			"isBreak":         exercise.IsBreak,
			"isCustom":        exercise.IsCustom,
			"preComposited":   exercise.PreComposited,
			"published":       exercise.Published,
			"archived":        exercise.Archived,
			"updatedAt":       exercise.UpdatedAt,
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": exercise.ID}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Delete removes an exercise, ensuring it belongs to the specified trainer.
func (r *mongoExerciseRepository) Delete(ctx context.Context, id primitive.ObjectID, trainerID primitive.ObjectID) error {
	filter := bson.M{
		"_id":       id,
		"trainerId": trainerID,
	}

	result, err := r.collection.DeleteOne(ctx, filter)
	if err != nil {
		return err
	}
	// Not found and "owned by someone else" look the same from here.
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// EnsureExerciseIndexes creates necessary indexes for the exercises collection.
func EnsureExerciseIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "trainerId", Value: 1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "published", Value: 1}, {Key: "archived", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "name", Value: "text"}, {Key: "description", Value: "text"}},
			Options: options.Index().SetName("exercise_text_search"),
		},
	}

	if _, err := collection.Indexes().CreateMany(ctx, indexes); err != nil {
		log.Printf("WARN: Failed to create indexes for collection %s: %v", collection.Name(), err)
	}
}

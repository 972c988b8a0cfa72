// internal/repository/mongo/workout_repo.go
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

const workoutCollectionName = "workouts"

// mongoWorkoutRepository implements repository.WorkoutRepository
type mongoWorkoutRepository struct {
	collection *mongo.Collection
}

// NewMongoWorkoutRepository creates a new Workout repository.
func NewMongoWorkoutRepository(db *mongo.Database) repository.WorkoutRepository {
	return &mongoWorkoutRepository{
		collection: db.Collection(workoutCollectionName),
	}
}

// Create inserts a new workout.
func (r *mongoWorkoutRepository) Create(ctx context.Context, workout *domain.Workout) (primitive.ObjectID, error) {
	if workout.TrainerID == primitive.NilObjectID || workout.ClientID == primitive.NilObjectID || workout.Name == "" {
		return primitive.NilObjectID, errors.New("workout requires trainerId, clientId, and name")
	}
	if len(workout.Exercises) == 0 {
		return primitive.NilObjectID, errors.New("workout requires at least one exercise")
	}
	workout.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	workout.CreatedAt = now
	workout.UpdatedAt = now
	if workout.Progress.Status == "" {
		workout.Progress.Status = domain.ProgressNotStarted
	}

	result, err := r.collection.InsertOne(ctx, workout)
	if err != nil {
		return primitive.NilObjectID, err
	}
	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted workout ID")
	}
	return insertedID, nil
}

// GetByID retrieves a single workout by its ID.
func (r *mongoWorkoutRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Workout, error) {
	var workout domain.Workout
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&workout)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &workout, nil
}

// GetByClientID retrieves every workout assigned to a client, newest first.
func (r *mongoWorkoutRepository) GetByClientID(ctx context.Context, clientID primitive.ObjectID) ([]domain.Workout, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})

	cursor, err := r.collection.Find(ctx, bson.M{"clientId": clientID}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var workouts []domain.Workout
	if err = cursor.All(ctx, &workouts); err != nil {
		return nil, err
	}
	return workouts, nil
}

// UpdateProgress stores the resumable playback position.
func (r *mongoWorkoutRepository) UpdateProgress(ctx context.Context, id primitive.ObjectID, progress domain.WorkoutProgress) error {
	return r.set(ctx, id, bson.M{"progress": progress})
}

// MarkStarted sets startedOn unless the workout was already started.
func (r *mongoWorkoutRepository) MarkStarted(ctx context.Context, id primitive.ObjectID, at time.Time) error {
	filter := bson.M{"_id": id, "startedOn": bson.M{"$exists": false}}
	update := bson.M{"$set": bson.M{"startedOn": at.UTC(), "updatedAt": time.Now().UTC()}}
	if _, err := r.collection.UpdateOne(ctx, filter, update); err != nil {
		return err
	}
	return nil
}

// MarkCompleted sets completedOn and the completed progress status.
func (r *mongoWorkoutRepository) MarkCompleted(ctx context.Context, id primitive.ObjectID, at time.Time) error {
	return r.set(ctx, id, bson.M{
		"completedOn":     at.UTC(),
		"progress.status": domain.ProgressCompleted,
	})
}

func (r *mongoWorkoutRepository) set(ctx context.Context, id primitive.ObjectID, fields bson.M) error {
	fields["updatedAt"] = time.Now().UTC()
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": fields})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// ReferencesExercise reports whether any stored workout embeds the exercise.
func (r *mongoWorkoutRepository) ReferencesExercise(ctx context.Context, exerciseID primitive.ObjectID) (bool, error) {
	n, err := r.collection.CountDocuments(ctx, bson.M{"exercises._id": exerciseID}, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// EnsureWorkoutIndexes creates necessary indexes. Call during startup.
func EnsureWorkoutIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "clientId", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "trainerId", Value: 1}},
			Options: options.Index(),
		},
	}
	if _, err := collection.Indexes().CreateMany(ctx, indexes); err != nil {
		log.Printf("WARN: Failed to create indexes for collection %s: %v", collection.Name(), err)
	}
}

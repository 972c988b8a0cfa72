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

const userCollectionName = "users"

// mongoUserRepository implements the repository.UserRepository interface using MongoDB.
type mongoUserRepository struct {
	collection *mongo.Collection
}

// NewMongoUserRepository creates a new instance of mongoUserRepository.
func NewMongoUserRepository(db *mongo.Database) repository.UserRepository {
	return &mongoUserRepository{
		collection: db.Collection(userCollectionName),
	}
}

// Create inserts a new user into the database.
func (r *mongoUserRepository) Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error) {
	if user.Email == "" || user.PasswordHash == "" || user.Role == "" {
		return primitive.NilObjectID, errors.New("user email, password hash, and role are required")
	}

	user.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, user)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
		return primitive.NilObjectID, err
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted ID")
	}
	return insertedID, nil
}

// GetByEmail retrieves a user by their email address.
func (r *mongoUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

// GetByID retrieves a user by their MongoDB ObjectID.
func (r *mongoUserRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *mongoUserRepository) findOne(ctx context.Context, filter bson.M) (*domain.User, error) {
	var user domain.User
	err := r.collection.FindOne(ctx, filter).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// AddClientIDToTrainer adds a client's ID to a trainer's ClientIDs array.
func (r *mongoUserRepository) AddClientIDToTrainer(ctx context.Context, trainerID, clientID primitive.ObjectID) error {
	filter := bson.M{"_id": trainerID, "role": domain.RoleTrainer}
	update := bson.M{
		"$addToSet": bson.M{"clientIds": clientID}, // $addToSet prevents duplicates
		"$set":      bson.M{"updatedAt": time.Now().UTC()},
	}
	return r.updateOne(ctx, filter, update)
}

// GetClientsByTrainerID lists the clients linked to a trainer, by name.
func (r *mongoUserRepository) GetClientsByTrainerID(ctx context.Context, trainerID primitive.ObjectID) ([]domain.User, error) {
	filter := bson.M{"trainerId": trainerID, "role": domain.RoleClient}
	cursor, err := r.collection.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	clients := []domain.User{}
	if err := cursor.All(ctx, &clients); err != nil {
		return nil, err
	}
	return clients, nil
}

// SetTrainerForClient sets the TrainerID field for a client that has no
// trainer yet or already belongs to trainerID.
func (r *mongoUserRepository) SetTrainerForClient(ctx context.Context, clientID, trainerID primitive.ObjectID) error {
	filter := bson.M{
		"_id":  clientID,
		"role": domain.RoleClient,
		"$or": bson.A{
			bson.M{"trainerId": bson.M{"$exists": false}},
			bson.M{"trainerId": nil},
			bson.M{"trainerId": trainerID},
		},
	}
	update := bson.M{
		"$set": bson.M{
			"trainerId": trainerID,
			"updatedAt": time.Now().UTC(),
		},
	}
	return r.updateOne(ctx, filter, update)
}

// UnsetTrainerForClient removes the client's link, but only to trainerID.
func (r *mongoUserRepository) UnsetTrainerForClient(ctx context.Context, clientID, trainerID primitive.ObjectID) error {
	filter := bson.M{"_id": clientID, "role": domain.RoleClient, "trainerId": trainerID}
	update := bson.M{
		"$unset": bson.M{"trainerId": ""},
		"$set":   bson.M{"updatedAt": time.Now().UTC()},
	}
	return r.updateOne(ctx, filter, update)
}

// SetPregnant records whether the client is currently pregnant. Playlists
// resolved afterwards pick media for the new state.
func (r *mongoUserRepository) SetPregnant(ctx context.Context, clientID primitive.ObjectID, pregnant bool) error {
	filter := bson.M{"_id": clientID, "role": domain.RoleClient}
	update := bson.M{
		"$set": bson.M{
			"isPregnant": pregnant,
			"updatedAt":  time.Now().UTC(),
		},
	}
	return r.updateOne(ctx, filter, update)
}

func (r *mongoUserRepository) updateOne(ctx context.Context, filter, update bson.M) error {
	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	// ModifiedCount may be 0 when the value was already set, which is fine.
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// EnsureUserIndexes creates necessary indexes for the users collection.
// Call this once during application startup.
func EnsureUserIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "role", Value: 1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "trainerId", Value: 1}},
			Options: options.Index().SetSparse(true), // Only clients carry trainerId
		},
	}

	if _, err := collection.Indexes().CreateMany(ctx, indexes); err != nil {
		log.Printf("WARN: Failed to create indexes for collection %s: %v", collection.Name(), err)
	}
}

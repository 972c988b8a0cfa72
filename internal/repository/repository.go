package repository

import (
	"context"
	"time"

	"tlm/coach-api/internal/domain"
	"tlm/coach-api/internal/player"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Error constants for repository layer
var (
	ErrNotFound     = RepositoryError("not found")
	ErrUpdateFailed = RepositoryError("update failed")
	ErrDeleteFailed = RepositoryError("delete failed")
	ErrDuplicate    = RepositoryError("duplicate key")
	ErrConflict     = RepositoryError("concurrent update")
)

// RepositoryError helps distinguish repository errors
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// UserRepository defines the interface for interacting with user data.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error)
	AddClientIDToTrainer(ctx context.Context, trainerID, clientID primitive.ObjectID) error
	// SetTrainerForClient links an unassigned client (or one already linked
	// to trainerID). It returns ErrNotFound when another trainer holds it.
	SetTrainerForClient(ctx context.Context, clientID, trainerID primitive.ObjectID) error
	UnsetTrainerForClient(ctx context.Context, clientID, trainerID primitive.ObjectID) error
	GetClientsByTrainerID(ctx context.Context, trainerID primitive.ObjectID) ([]domain.User, error)
	SetPregnant(ctx context.Context, clientID primitive.ObjectID, pregnant bool) error
}

// ExerciseFilter narrows exercise listings.
type ExerciseFilter struct {
	TrainerID       *primitive.ObjectID // Owner; nil means any owner
	PublishedOnly   bool
	IncludeArchived bool
	MovementPattern string
}

// ExerciseRepository defines the interface for interacting with exercise data.
type ExerciseRepository interface {
	Create(ctx context.Context, exercise *domain.Exercise) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Exercise, error)
	GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]domain.Exercise, error)
	List(ctx context.Context, filter ExerciseFilter) ([]domain.Exercise, error)
	Update(ctx context.Context, exercise *domain.Exercise) error
	Delete(ctx context.Context, id primitive.ObjectID, trainerID primitive.ObjectID) error // Ensure trainer owns the exercise
}

// WorkoutRepository defines the interface for interacting with client workouts.
type WorkoutRepository interface {
	Create(ctx context.Context, workout *domain.Workout) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Workout, error)
	GetByClientID(ctx context.Context, clientID primitive.ObjectID) ([]domain.Workout, error)
	UpdateProgress(ctx context.Context, id primitive.ObjectID, progress domain.WorkoutProgress) error
	MarkStarted(ctx context.Context, id primitive.ObjectID, at time.Time) error
	MarkCompleted(ctx context.Context, id primitive.ObjectID, at time.Time) error
	// ReferencesExercise reports whether any workout embeds the exercise.
	ReferencesExercise(ctx context.Context, exerciseID primitive.ObjectID) (bool, error)
}

// PrebuiltWorkoutRepository stores reusable workout templates.
type PrebuiltWorkoutRepository interface {
	Create(ctx context.Context, workout *domain.PrebuiltWorkout) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.PrebuiltWorkout, error)
	// ListVisible returns templates that are platform-wide, shared (when
	// includeShared is set), or authored by authorID.
	ListVisible(ctx context.Context, authorID primitive.ObjectID, includeShared bool) ([]domain.PrebuiltWorkout, error)
	ReferencesExercise(ctx context.Context, exerciseID primitive.ObjectID) (bool, error)
}

// PlaybackSession is one client's live pass through a workout.
type PlaybackSession struct {
	ID           string             `json:"id"`
	ClientID     primitive.ObjectID `json:"clientId"`
	WorkoutID    primitive.ObjectID `json:"workoutId"`
	State        player.State       `json:"state"`
	PlaybackTime float64            `json:"playbackTime"` // seconds into the current entry
	StartedAt    time.Time          `json:"startedAt"`
	UpdatedAt    time.Time          `json:"updatedAt"`
}

// PlaybackSessionRepository holds live playback sessions.
type PlaybackSessionRepository interface {
	Save(ctx context.Context, session *PlaybackSession) error
	Get(ctx context.Context, id string) (*PlaybackSession, error)
	// Update loads the session, applies fn and stores the result atomically.
	// An error from fn aborts the update and is returned unchanged.
	Update(ctx context.Context, id string, fn func(*PlaybackSession) error) (*PlaybackSession, error)
	Delete(ctx context.Context, id string) error
}

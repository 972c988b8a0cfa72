package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// WorkoutType distinguishes regular sessions from mobility sessions.
type WorkoutType string

const (
	WorkoutTypeNormal   WorkoutType = "normal"
	WorkoutTypeMobility WorkoutType = "mobility"
)

// ProgressStatus tracks where a client is with a workout.
type ProgressStatus string

const (
	ProgressNotStarted ProgressStatus = "not_started"
	ProgressInProgress ProgressStatus = "in_progress"
	ProgressCompleted  ProgressStatus = "completed"
)

// WorkoutProgress is the resumable playback position of a workout.
type WorkoutProgress struct {
	Status        ProgressStatus `bson:"status" json:"status"`
	ExerciseIndex int            `bson:"exerciseIndex" json:"exerciseIndex"` // Playlist position to resume from
	PlaybackTime  float64        `bson:"playbackTime" json:"playbackTime"`   // Seconds into the current video
}

// Workout is an ordered list of exercises assigned to a client.
// Exercises are embedded snapshots so later library edits do not change a
// workout that was already handed out.
type Workout struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	TrainerID   primitive.ObjectID `bson:"trainerId" json:"trainerId"`
	ClientID    primitive.ObjectID `bson:"clientId,omitempty" json:"clientId,omitempty"`
	Name        string             `bson:"name" json:"name"`
	WorkoutType WorkoutType        `bson:"workoutType" json:"workoutType"`
	Exercises   []Exercise         `bson:"exercises" json:"exercises"`
	Duration    int64              `bson:"duration" json:"duration"` // Milliseconds
	Progress    WorkoutProgress    `bson:"progress" json:"progress"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
	StartedOn   *time.Time         `bson:"startedOn,omitempty" json:"startedOn,omitempty"`
	CompletedOn *time.Time         `bson:"completedOn,omitempty" json:"completedOn,omitempty"`
}

// TotalDuration sums the exercise durations (seconds) into milliseconds.
func TotalDuration(exercises []Exercise) int64 {
	var total int64
	for _, ex := range exercises {
		total += int64(ex.Duration)
	}
	return total * 1000
}

// Visibility controls who may see a prebuilt workout.
type Visibility string

const (
	VisibilityTLM     Visibility = "TLM"     // Published by the platform, visible to everybody
	VisibilityPrivate Visibility = "private" // Author only
	VisibilityShared  Visibility = "shared"  // Every trainer and editor
)

// Valid reports whether v is a known visibility.
func (v Visibility) Valid() bool {
	switch v {
	case VisibilityTLM, VisibilityPrivate, VisibilityShared:
		return true
	}
	return false
}

// PrebuiltWorkout is a reusable workout template.
type PrebuiltWorkout struct {
	Workout    `bson:",inline"`
	AuthorID   primitive.ObjectID `bson:"authorId" json:"authorId"`
	Visibility Visibility         `bson:"visibility" json:"visibility"`
}

// VisibleTo reports whether the user may see the template.
func (p *PrebuiltWorkout) VisibleTo(userID primitive.ObjectID, role Role) bool {
	switch p.Visibility {
	case VisibilityTLM:
		return true
	case VisibilityShared:
		return role == RoleTrainer || role == RoleEditor || p.AuthorID == userID
	case VisibilityPrivate:
		return p.AuthorID == userID
	}
	return false
}

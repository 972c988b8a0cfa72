package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"tlm/coach-api/internal/domain"
	"tlm/coach-api/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrWorkoutNotFound         = errors.New("workout not found")
	ErrWorkoutAccessDenied     = errors.New("access denied to this workout")
	ErrEmptyWorkout            = errors.New("workout must contain at least one exercise")
	ErrInvalidWorkoutType      = errors.New("invalid workout type")
	ErrInvalidVisibility       = errors.New("invalid visibility")
	ErrClientNotFound          = errors.New("client not found")
	ErrClientNotManaged        = errors.New("client is not managed by this trainer")
	ErrClientAlreadyAssigned   = errors.New("client is already assigned to another trainer")
	ErrPrebuiltWorkoutNotFound = errors.New("prebuilt workout not found")
)

// WorkoutInput describes a workout built from library exercises.
type WorkoutInput struct {
	Name        string
	WorkoutType domain.WorkoutType
	ExerciseIDs []primitive.ObjectID // Order is playback order; repeats allowed
}

type WorkoutService interface {
	// Roster
	AddClientByEmail(ctx context.Context, trainerID primitive.ObjectID, email string) (*domain.User, error)
	GetManagedClients(ctx context.Context, trainerID primitive.ObjectID) ([]domain.User, error)
	SetClientPregnancy(ctx context.Context, trainerID, clientID primitive.ObjectID, pregnant bool) (*domain.User, error)

	// Client workouts
	CreateWorkout(ctx context.Context, trainerID, clientID primitive.ObjectID, in WorkoutInput) (*domain.Workout, error)
	GetWorkout(ctx context.Context, requesterID primitive.ObjectID, role domain.Role, workoutID primitive.ObjectID) (*domain.Workout, error)
	ListClientWorkouts(ctx context.Context, requesterID primitive.ObjectID, role domain.Role, clientID primitive.ObjectID) ([]domain.Workout, error)

	// Templates
	CreatePrebuiltWorkout(ctx context.Context, authorID primitive.ObjectID, in WorkoutInput, visibility domain.Visibility) (*domain.PrebuiltWorkout, error)
	ListPrebuiltWorkouts(ctx context.Context, requesterID primitive.ObjectID, role domain.Role) ([]domain.PrebuiltWorkout, error)
	AssignPrebuiltWorkout(ctx context.Context, trainerID primitive.ObjectID, role domain.Role, prebuiltID, clientID primitive.ObjectID) (*domain.Workout, error)
}

type workoutService struct {
	userRepo     repository.UserRepository
	exerciseRepo repository.ExerciseRepository
	workoutRepo  repository.WorkoutRepository
	prebuiltRepo repository.PrebuiltWorkoutRepository
}

// NewWorkoutService creates a new instance of workoutService.
func NewWorkoutService(
	userRepo repository.UserRepository,
	exerciseRepo repository.ExerciseRepository,
	workoutRepo repository.WorkoutRepository,
	prebuiltRepo repository.PrebuiltWorkoutRepository,
) WorkoutService {
	return &workoutService{
		userRepo:     userRepo,
		exerciseRepo: exerciseRepo,
		workoutRepo:  workoutRepo,
		prebuiltRepo: prebuiltRepo,
	}
}

// === Roster ===

// AddClientByEmail links an existing client account to the trainer.
func (s *workoutService) AddClientByEmail(ctx context.Context, trainerID primitive.ObjectID, email string) (*domain.User, error) {
	client, err := s.userRepo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrClientNotFound
		}
		return nil, err
	}
	if !client.IsClient() {
		return nil, ErrClientNotFound
	}
	if client.TrainerID != nil && *client.TrainerID != trainerID {
		return nil, ErrClientAlreadyAssigned
	}

	// Claim the client first so a failure leaves no half-made link on the
	// trainer; undo the claim if the trainer side cannot be written.
	if err := s.userRepo.SetTrainerForClient(ctx, client.ID, trainerID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrClientAlreadyAssigned
		}
		return nil, fmt.Errorf("set trainer for client: %w", err)
	}
	if err := s.userRepo.AddClientIDToTrainer(ctx, trainerID, client.ID); err != nil {
		if client.TrainerID == nil {
			if undoErr := s.userRepo.UnsetTrainerForClient(ctx, client.ID, trainerID); undoErr != nil {
				log.Printf("ERROR: Failed to unlink client %s from trainer %s: %v", client.ID.Hex(), trainerID.Hex(), undoErr)
			}
		}
		return nil, fmt.Errorf("add client to trainer: %w", err)
	}
	client.TrainerID = &trainerID
	client.PasswordHash = ""
	return client, nil
}

// GetManagedClients lists the trainer's clients.
func (s *workoutService) GetManagedClients(ctx context.Context, trainerID primitive.ObjectID) ([]domain.User, error) {
	clients, err := s.userRepo.GetClientsByTrainerID(ctx, trainerID)
	if err != nil {
		return nil, err
	}
	for i := range clients {
		clients[i].PasswordHash = ""
	}
	return clients, nil
}

// SetClientPregnancy updates the flag that selects prenatal or postnatal media.
func (s *workoutService) SetClientPregnancy(ctx context.Context, trainerID, clientID primitive.ObjectID, pregnant bool) (*domain.User, error) {
	client, err := s.managedClient(ctx, trainerID, clientID)
	if err != nil {
		return nil, err
	}
	if err := s.userRepo.SetPregnant(ctx, clientID, pregnant); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrClientNotFound
		}
		return nil, err
	}
	client.IsPregnant = pregnant
	client.PasswordHash = ""
	return client, nil
}

// managedClient loads a client and checks it is on the trainer's roster.
func (s *workoutService) managedClient(ctx context.Context, trainerID, clientID primitive.ObjectID) (*domain.User, error) {
	client, err := s.userRepo.GetByID(ctx, clientID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrClientNotFound
		}
		return nil, err
	}
	if !client.IsClient() {
		return nil, ErrClientNotFound
	}
	if client.TrainerID == nil || *client.TrainerID != trainerID {
		return nil, ErrClientNotManaged
	}
	return client, nil
}

// === Client workouts ===

// resolveExercises validates the input and loads the exercise snapshots.
func (s *workoutService) resolveExercises(ctx context.Context, in WorkoutInput) ([]domain.Exercise, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, fmt.Errorf("%w: name is required", ErrValidationFailed)
	}
	switch in.WorkoutType {
	case domain.WorkoutTypeNormal, domain.WorkoutTypeMobility:
	default:
		return nil, ErrInvalidWorkoutType
	}
	if len(in.ExerciseIDs) == 0 {
		return nil, ErrEmptyWorkout
	}

	exercises, err := s.exerciseRepo.GetByIDs(ctx, in.ExerciseIDs)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrExerciseNotFound
		}
		return nil, err
	}
	return exercises, nil
}

func (s *workoutService) createForClient(ctx context.Context, trainerID, clientID primitive.ObjectID, name string, workoutType domain.WorkoutType, exercises []domain.Exercise) (*domain.Workout, error) {
	workout := &domain.Workout{
		TrainerID:   trainerID,
		ClientID:    clientID,
		Name:        strings.TrimSpace(name),
		WorkoutType: workoutType,
		Exercises:   exercises,
		Duration:    domain.TotalDuration(exercises),
		Progress:    domain.WorkoutProgress{Status: domain.ProgressNotStarted},
	}
	id, err := s.workoutRepo.Create(ctx, workout)
	if err != nil {
		return nil, err
	}
	workout.ID = id
	return workout, nil
}

// CreateWorkout builds a workout for one of the trainer's clients.
func (s *workoutService) CreateWorkout(ctx context.Context, trainerID, clientID primitive.ObjectID, in WorkoutInput) (*domain.Workout, error) {
	if _, err := s.managedClient(ctx, trainerID, clientID); err != nil {
		return nil, err
	}
	exercises, err := s.resolveExercises(ctx, in)
	if err != nil {
		return nil, err
	}
	return s.createForClient(ctx, trainerID, clientID, in.Name, in.WorkoutType, exercises)
}

// GetWorkout returns a workout to its client or to the trainer who built it.
func (s *workoutService) GetWorkout(ctx context.Context, requesterID primitive.ObjectID, role domain.Role, workoutID primitive.ObjectID) (*domain.Workout, error) {
	workout, err := s.workoutRepo.GetByID(ctx, workoutID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrWorkoutNotFound
		}
		return nil, err
	}
	if !canSeeWorkout(workout, requesterID, role) {
		return nil, ErrWorkoutAccessDenied
	}
	return workout, nil
}

func canSeeWorkout(workout *domain.Workout, requesterID primitive.ObjectID, role domain.Role) bool {
	if role == domain.RoleClient {
		return workout.ClientID == requesterID
	}
	return workout.TrainerID == requesterID
}

// ListClientWorkouts lists a client's workouts for the client or their trainer.
func (s *workoutService) ListClientWorkouts(ctx context.Context, requesterID primitive.ObjectID, role domain.Role, clientID primitive.ObjectID) ([]domain.Workout, error) {
	switch role {
	case domain.RoleClient:
		if requesterID != clientID {
			return nil, ErrWorkoutAccessDenied
		}
	default:
		if _, err := s.managedClient(ctx, requesterID, clientID); err != nil {
			return nil, err
		}
	}
	workouts, err := s.workoutRepo.GetByClientID(ctx, clientID)
	if err != nil {
		return nil, err
	}
	if workouts == nil {
		workouts = []domain.Workout{}
	}
	return workouts, nil
}

// === Templates ===

// CreatePrebuiltWorkout stores a reusable template.
func (s *workoutService) CreatePrebuiltWorkout(ctx context.Context, authorID primitive.ObjectID, in WorkoutInput, visibility domain.Visibility) (*domain.PrebuiltWorkout, error) {
	if !visibility.Valid() {
		return nil, ErrInvalidVisibility
	}
	exercises, err := s.resolveExercises(ctx, in)
	if err != nil {
		return nil, err
	}
	prebuilt := &domain.PrebuiltWorkout{
		Workout: domain.Workout{
			TrainerID:   authorID,
			Name:        strings.TrimSpace(in.Name),
			WorkoutType: in.WorkoutType,
			Exercises:   exercises,
			Duration:    domain.TotalDuration(exercises),
		},
		AuthorID:   authorID,
		Visibility: visibility,
	}
	id, err := s.prebuiltRepo.Create(ctx, prebuilt)
	if err != nil {
		return nil, err
	}
	prebuilt.ID = id
	return prebuilt, nil
}

// ListPrebuiltWorkouts returns the templates visible to the requester.
func (s *workoutService) ListPrebuiltWorkouts(ctx context.Context, requesterID primitive.ObjectID, role domain.Role) ([]domain.PrebuiltWorkout, error) {
	includeShared := role == domain.RoleTrainer || role == domain.RoleEditor
	found, err := s.prebuiltRepo.ListVisible(ctx, requesterID, includeShared)
	if err != nil {
		return nil, err
	}
	visible := make([]domain.PrebuiltWorkout, 0, len(found))
	for i := range found {
		if found[i].VisibleTo(requesterID, role) {
			visible = append(visible, found[i])
		}
	}
	return visible, nil
}

// AssignPrebuiltWorkout copies a template into a new workout for a client.
func (s *workoutService) AssignPrebuiltWorkout(ctx context.Context, trainerID primitive.ObjectID, role domain.Role, prebuiltID, clientID primitive.ObjectID) (*domain.Workout, error) {
	prebuilt, err := s.prebuiltRepo.GetByID(ctx, prebuiltID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPrebuiltWorkoutNotFound
		}
		return nil, err
	}
	if !prebuilt.VisibleTo(trainerID, role) {
		return nil, ErrPrebuiltWorkoutNotFound
	}
	if len(prebuilt.Exercises) == 0 {
		return nil, ErrEmptyWorkout
	}
	if _, err := s.managedClient(ctx, trainerID, clientID); err != nil {
		return nil, err
	}

	exercises := make([]domain.Exercise, len(prebuilt.Exercises))
	copy(exercises, prebuilt.Exercises)
	return s.createForClient(ctx, trainerID, clientID, prebuilt.Name, prebuilt.WorkoutType, exercises)
}

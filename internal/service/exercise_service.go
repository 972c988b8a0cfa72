package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"tlm/coach-api/internal/domain"
	"tlm/coach-api/internal/repository"
	"tlm/coach-api/internal/storage"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrExerciseNotFound     = errors.New("exercise not found")
	ErrExerciseAccessDenied = errors.New("access denied to modify or delete this exercise")
	ErrValidationFailed     = errors.New("exercise validation failed")
	ErrInvalidMediaSlot     = errors.New("invalid media slot or kind")
	ErrInvalidContentType   = errors.New("invalid media content type")
	ErrUploadURLError       = errors.New("failed to generate upload URL")
)

// ExerciseInput carries the editable fields of an exercise.
type ExerciseInput struct {
	Name            string
	Description     string
	MovementPattern string
	Intensity       int
	Duration        int
	IsBreak         bool
	IsCustom        bool
	PreComposited   bool
	Published       bool
}

// UploadURLResponse structure for returning URL and object key
type UploadURLResponse struct {
	UploadURL string `json:"uploadUrl"`
	ObjectKey string `json:"objectKey"` // Reported back when confirming the upload
}

type ExerciseService interface {
	CreateExercise(ctx context.Context, authorID primitive.ObjectID, in ExerciseInput) (*domain.Exercise, error)
	GetExerciseByID(ctx context.Context, exerciseID primitive.ObjectID) (*domain.Exercise, error)
	ListExercises(ctx context.Context, requesterID primitive.ObjectID, mine bool, movementPattern string) ([]domain.Exercise, error)
	UpdateExercise(ctx context.Context, requesterID primitive.ObjectID, role domain.Role, exerciseID primitive.ObjectID, in ExerciseInput) (*domain.Exercise, error)
	ArchiveExercise(ctx context.Context, requesterID primitive.ObjectID, role domain.Role, exerciseID primitive.ObjectID, archived bool) (*domain.Exercise, error)
	DeleteExercise(ctx context.Context, requesterID, exerciseID primitive.ObjectID) error
	RequestMediaUploadURL(ctx context.Context, requesterID primitive.ObjectID, role domain.Role, exerciseID primitive.ObjectID, slot domain.MediaSlot, kind domain.MediaKind, contentType string) (*UploadURLResponse, error)
	ConfirmMediaUpload(ctx context.Context, requesterID primitive.ObjectID, role domain.Role, exerciseID primitive.ObjectID, slot domain.MediaSlot, kind domain.MediaKind, objectKey string) (*domain.Exercise, error)
}

// exerciseService implements the ExerciseService interface.
type exerciseService struct {
	exerciseRepo repository.ExerciseRepository
	workoutRepo  repository.WorkoutRepository
	prebuiltRepo repository.PrebuiltWorkoutRepository
	fileStorage  storage.FileStorage
}

// NewExerciseService creates a new instance of exerciseService.
func NewExerciseService(
	exerciseRepo repository.ExerciseRepository,
	workoutRepo repository.WorkoutRepository,
	prebuiltRepo repository.PrebuiltWorkoutRepository,
	fileStorage storage.FileStorage,
) ExerciseService {
	return &exerciseService{
		exerciseRepo: exerciseRepo,
		workoutRepo:  workoutRepo,
		prebuiltRepo: prebuiltRepo,
		fileStorage:  fileStorage,
	}
}

func validateExercise(in ExerciseInput) error {
	if strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrValidationFailed)
	}
	if in.Duration < 0 {
		return fmt.Errorf("%w: duration cannot be negative", ErrValidationFailed)
	}
	// Breaks and custom exercises are not rated.
	if in.IsBreak || in.IsCustom {
		return nil
	}
	if in.Intensity < domain.MinIntensity || in.Intensity > domain.MaxIntensity {
		return fmt.Errorf("%w: intensity must be between %d and %d", ErrValidationFailed, domain.MinIntensity, domain.MaxIntensity)
	}
	return nil
}

func applyInput(ex *domain.Exercise, in ExerciseInput) {
	ex.Name = strings.TrimSpace(in.Name)
	ex.Description = in.Description
	ex.MovementPattern = in.MovementPattern
	ex.Intensity = in.Intensity
	ex.Duration = in.Duration
	ex.IsBreak = in.IsBreak
	ex.IsCustom = in.IsCustom
	ex.PreComposited = in.PreComposited
	ex.Published = in.Published
}

// CreateExercise adds an exercise to the library.
func (s *exerciseService) CreateExercise(ctx context.Context, authorID primitive.ObjectID, in ExerciseInput) (*domain.Exercise, error) {
	if err := validateExercise(in); err != nil {
		return nil, err
	}
	if authorID == primitive.NilObjectID {
		return nil, errors.New("author ID is required to create an exercise")
	}

	exercise := &domain.Exercise{TrainerID: authorID}
	applyInput(exercise, in)

	exerciseID, err := s.exerciseRepo.Create(ctx, exercise)
	if err != nil {
		return nil, err
	}
	exercise.ID = exerciseID
	return exercise, nil
}

// GetExerciseByID retrieves a single exercise.
func (s *exerciseService) GetExerciseByID(ctx context.Context, exerciseID primitive.ObjectID) (*domain.Exercise, error) {
	exercise, err := s.exerciseRepo.GetByID(ctx, exerciseID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrExerciseNotFound
		}
		return nil, err
	}
	return exercise, nil
}

// ListExercises returns the requester's own exercises when mine is set,
// otherwise the published library. Archived exercises are left out.
func (s *exerciseService) ListExercises(ctx context.Context, requesterID primitive.ObjectID, mine bool, movementPattern string) ([]domain.Exercise, error) {
	filter := repository.ExerciseFilter{MovementPattern: movementPattern}
	if mine {
		filter.TrainerID = &requesterID
	} else {
		filter.PublishedOnly = true
	}
	exercises, err := s.exerciseRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	if exercises == nil {
		exercises = []domain.Exercise{}
	}
	return exercises, nil
}

// loadEditable fetches an exercise the requester may change: their own, or
// any exercise for editors.
func (s *exerciseService) loadEditable(ctx context.Context, requesterID primitive.ObjectID, role domain.Role, exerciseID primitive.ObjectID) (*domain.Exercise, error) {
	exercise, err := s.GetExerciseByID(ctx, exerciseID)
	if err != nil {
		return nil, err
	}
	if exercise.TrainerID != requesterID && role != domain.RoleEditor {
		return nil, ErrExerciseAccessDenied
	}
	return exercise, nil
}

func (s *exerciseService) save(ctx context.Context, exercise *domain.Exercise) (*domain.Exercise, error) {
	if err := s.exerciseRepo.Update(ctx, exercise); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrExerciseNotFound
		}
		return nil, err
	}
	return exercise, nil
}

// UpdateExercise replaces the editable fields. Media is changed through the
// upload flow only.
func (s *exerciseService) UpdateExercise(ctx context.Context, requesterID primitive.ObjectID, role domain.Role, exerciseID primitive.ObjectID, in ExerciseInput) (*domain.Exercise, error) {
	if err := validateExercise(in); err != nil {
		return nil, err
	}
	exercise, err := s.loadEditable(ctx, requesterID, role, exerciseID)
	if err != nil {
		return nil, err
	}
	applyInput(exercise, in)
	return s.save(ctx, exercise)
}

// ArchiveExercise hides or restores an exercise in library listings.
// Workouts that already embed it keep playing it.
func (s *exerciseService) ArchiveExercise(ctx context.Context, requesterID primitive.ObjectID, role domain.Role, exerciseID primitive.ObjectID, archived bool) (*domain.Exercise, error) {
	exercise, err := s.loadEditable(ctx, requesterID, role, exerciseID)
	if err != nil {
		return nil, err
	}
	exercise.Archived = archived
	return s.save(ctx, exercise)
}

// DeleteExercise removes the requester's exercise and its stored media.
func (s *exerciseService) DeleteExercise(ctx context.Context, requesterID, exerciseID primitive.ObjectID) error {
	if requesterID == primitive.NilObjectID || exerciseID == primitive.NilObjectID {
		return errors.New("trainer ID and exercise ID are required")
	}

	exercise, err := s.GetExerciseByID(ctx, exerciseID)
	if err != nil {
		return err
	}
	if exercise.TrainerID != requesterID {
		return ErrExerciseAccessDenied
	}

	if err := s.exerciseRepo.Delete(ctx, exerciseID, requesterID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrExerciseNotFound
		}
		return err
	}

	if s.mediaInUse(ctx, exerciseID) {
		return nil
	}
	s.deleteMedia(ctx, exercise.MediaNames()...)
	return nil
}

// mediaInUse reports whether a workout snapshot still plays the exercise's
// media. Lookup failures count as in use.
func (s *exerciseService) mediaInUse(ctx context.Context, exerciseID primitive.ObjectID) bool {
	inWorkout, err := s.workoutRepo.ReferencesExercise(ctx, exerciseID)
	if err != nil {
		log.Printf("WARN: Failed to check workouts for exercise %s: %v", exerciseID.Hex(), err)
		return true
	}
	if inWorkout {
		return true
	}
	inPrebuilt, err := s.prebuiltRepo.ReferencesExercise(ctx, exerciseID)
	if err != nil {
		log.Printf("WARN: Failed to check prebuilt workouts for exercise %s: %v", exerciseID.Hex(), err)
		return true
	}
	return inPrebuilt
}

func (s *exerciseService) deleteMedia(ctx context.Context, names ...string) {
	for _, name := range names {
		if err := s.fileStorage.DeleteObject(ctx, name); err != nil {
			log.Printf("WARN: Failed to delete media '%s': %v", name, err)
		}
	}
}

// RequestMediaUploadURL issues a presigned PUT URL for one media slot.
func (s *exerciseService) RequestMediaUploadURL(ctx context.Context, requesterID primitive.ObjectID, role domain.Role, exerciseID primitive.ObjectID, slot domain.MediaSlot, kind domain.MediaKind, contentType string) (*UploadURLResponse, error) {
	if !slot.Valid() || !kind.Valid() {
		return nil, ErrInvalidMediaSlot
	}
	wantPrefix := "video/"
	if kind == domain.MediaKindThumb {
		wantPrefix = "image/"
	}
	if !strings.HasPrefix(strings.ToLower(contentType), wantPrefix) {
		return nil, ErrInvalidContentType
	}
	if _, err := s.loadEditable(ctx, requesterID, role, exerciseID); err != nil {
		return nil, err
	}

	objectKey := storage.MediaObjectKey(exerciseID.Hex(), string(slot), string(kind), contentType)
	uploadURL, err := s.fileStorage.GeneratePresignedUploadURL(ctx, objectKey, contentType, storage.DefaultPresignedURLExpiry)
	if err != nil {
		return nil, ErrUploadURLError
	}
	return &UploadURLResponse{UploadURL: uploadURL, ObjectKey: objectKey}, nil
}

// ConfirmMediaUpload points the slot at an uploaded object. The object it
// replaces is deleted best-effort.
func (s *exerciseService) ConfirmMediaUpload(ctx context.Context, requesterID primitive.ObjectID, role domain.Role, exerciseID primitive.ObjectID, slot domain.MediaSlot, kind domain.MediaKind, objectKey string) (*domain.Exercise, error) {
	if !slot.Valid() || !kind.Valid() {
		return nil, ErrInvalidMediaSlot
	}
	if !strings.HasPrefix(objectKey, storage.MediaKeyPrefix(exerciseID.Hex(), string(slot), string(kind))) {
		return nil, fmt.Errorf("%w: object key does not belong to this media slot", ErrValidationFailed)
	}
	exercise, err := s.loadEditable(ctx, requesterID, role, exerciseID)
	if err != nil {
		return nil, err
	}

	pair := exercise.Media(slot)
	previous := pair.Video
	if kind == domain.MediaKindThumb {
		previous = pair.Thumb
	}
	exercise.SetMedia(slot, kind, domain.MediaRef{Name: objectKey})

	updated, err := s.save(ctx, exercise)
	if err != nil {
		return nil, err
	}
	if previous.Present() && previous.Name != objectKey && !s.mediaInUse(ctx, exerciseID) {
		s.deleteMedia(ctx, previous.Name)
	}
	return updated, nil
}

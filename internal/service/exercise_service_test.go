package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"tlm/coach-api/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type exerciseFixture struct {
	svc       ExerciseService
	exercises *fakeExerciseRepo
	workouts  *fakeWorkoutRepo
	storage   *fakeStorage
}

func newExerciseFixture() *exerciseFixture {
	f := &exerciseFixture{
		exercises: newFakeExerciseRepo(),
		workouts:  newFakeWorkoutRepo(),
		storage:   &fakeStorage{},
	}
	f.svc = NewExerciseService(f.exercises, f.workouts, newFakePrebuiltRepo(), f.storage)
	return f
}

func TestCreateExercise_Validation(t *testing.T) {
	f := newExerciseFixture()
	author := primitive.NewObjectID()

	tests := []struct {
		name    string
		in      ExerciseInput
		wantErr bool
	}{
		{"valid", ExerciseInput{Name: "Squat", Intensity: 5, Duration: 30}, false},
		{"no name", ExerciseInput{Intensity: 5}, true},
		{"intensity too low", ExerciseInput{Name: "Squat", Intensity: 0}, true},
		{"intensity too high", ExerciseInput{Name: "Squat", Intensity: 11}, true},
		{"negative duration", ExerciseInput{Name: "Squat", Intensity: 5, Duration: -1}, true},
		{"break needs no intensity", ExerciseInput{Name: "Break", IsBreak: true, Duration: 20}, false},
		{"custom needs no intensity", ExerciseInput{Name: "Stretch", IsCustom: true}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.CreateExercise(context.Background(), author, tt.in)
			if tt.wantErr != (err != nil) {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrValidationFailed) {
				t.Fatalf("err = %v, want %v", err, ErrValidationFailed)
			}
		})
	}
}

func TestUpdateExercise_Access(t *testing.T) {
	f := newExerciseFixture()
	ctx := context.Background()
	owner := primitive.NewObjectID()
	ex, err := f.svc.CreateExercise(ctx, owner, ExerciseInput{Name: "Squat", Intensity: 5})
	if err != nil {
		t.Fatalf("CreateExercise: %v", err)
	}
	in := ExerciseInput{Name: "Goblet squat", Intensity: 6}

	if _, err := f.svc.UpdateExercise(ctx, primitive.NewObjectID(), domain.RoleTrainer, ex.ID, in); !errors.Is(err, ErrExerciseAccessDenied) {
		t.Fatalf("other trainer err = %v, want %v", err, ErrExerciseAccessDenied)
	}
	got, err := f.svc.UpdateExercise(ctx, primitive.NewObjectID(), domain.RoleEditor, ex.ID, in)
	if err != nil {
		t.Fatalf("editor UpdateExercise: %v", err)
	}
	if got.Name != "Goblet squat" || got.TrainerID != owner {
		t.Fatalf("updated = %+v", got)
	}
	if err := f.svc.DeleteExercise(ctx, primitive.NewObjectID(), ex.ID); !errors.Is(err, ErrExerciseAccessDenied) {
		t.Fatalf("delete by non-owner err = %v, want %v", err, ErrExerciseAccessDenied)
	}
}

func TestListExercises_HidesArchived(t *testing.T) {
	f := newExerciseFixture()
	ctx := context.Background()
	owner := primitive.NewObjectID()
	ex, err := f.svc.CreateExercise(ctx, owner, ExerciseInput{Name: "Squat", Intensity: 5, Published: true})
	if err != nil {
		t.Fatalf("CreateExercise: %v", err)
	}
	if _, err := f.svc.CreateExercise(ctx, owner, ExerciseInput{Name: "Draft", Intensity: 5}); err != nil {
		t.Fatalf("CreateExercise: %v", err)
	}

	library, _ := f.svc.ListExercises(ctx, primitive.NewObjectID(), false, "")
	if len(library) != 1 {
		t.Fatalf("library has %d exercises, want 1 published", len(library))
	}
	mine, _ := f.svc.ListExercises(ctx, owner, true, "")
	if len(mine) != 2 {
		t.Fatalf("owner sees %d exercises, want 2", len(mine))
	}

	if _, err := f.svc.ArchiveExercise(ctx, owner, domain.RoleTrainer, ex.ID, true); err != nil {
		t.Fatalf("ArchiveExercise: %v", err)
	}
	library, _ = f.svc.ListExercises(ctx, primitive.NewObjectID(), false, "")
	if len(library) != 0 {
		t.Fatalf("library has %d exercises after archive, want 0", len(library))
	}
}

func TestMediaUploadFlow(t *testing.T) {
	f := newExerciseFixture()
	ctx := context.Background()
	owner := primitive.NewObjectID()
	ex, err := f.svc.CreateExercise(ctx, owner, ExerciseInput{Name: "Squat", Intensity: 5})
	if err != nil {
		t.Fatalf("CreateExercise: %v", err)
	}

	if _, err := f.svc.RequestMediaUploadURL(ctx, owner, domain.RoleTrainer, ex.ID, "antenatal", domain.MediaKindVideo, "video/mp4"); !errors.Is(err, ErrInvalidMediaSlot) {
		t.Fatalf("bad slot err = %v, want %v", err, ErrInvalidMediaSlot)
	}
	if _, err := f.svc.RequestMediaUploadURL(ctx, owner, domain.RoleTrainer, ex.ID, domain.MediaSlotPrenatal, domain.MediaKindThumb, "video/mp4"); !errors.Is(err, ErrInvalidContentType) {
		t.Fatalf("video as thumb err = %v, want %v", err, ErrInvalidContentType)
	}

	first, err := f.svc.RequestMediaUploadURL(ctx, owner, domain.RoleTrainer, ex.ID, domain.MediaSlotPrenatal, domain.MediaKindVideo, "video/mp4")
	if err != nil {
		t.Fatalf("RequestMediaUploadURL: %v", err)
	}
	wantPrefix := "exercises/" + ex.ID.Hex() + "/prenatal/video/"
	if !strings.HasPrefix(first.ObjectKey, wantPrefix) || !strings.HasSuffix(first.ObjectKey, ".mp4") {
		t.Fatalf("ObjectKey = %q, want %s<uuid>.mp4", first.ObjectKey, wantPrefix)
	}
	if _, err := f.svc.ConfirmMediaUpload(ctx, owner, domain.RoleTrainer, ex.ID, domain.MediaSlotPostnatal, domain.MediaKindVideo, first.ObjectKey); !errors.Is(err, ErrValidationFailed) {
		t.Fatalf("key from another slot err = %v, want %v", err, ErrValidationFailed)
	}
	got, err := f.svc.ConfirmMediaUpload(ctx, owner, domain.RoleTrainer, ex.ID, domain.MediaSlotPrenatal, domain.MediaKindVideo, first.ObjectKey)
	if err != nil {
		t.Fatalf("ConfirmMediaUpload: %v", err)
	}
	if got.Prenatal.Video.Name != first.ObjectKey {
		t.Fatalf("prenatal video = %q, want %q", got.Prenatal.Video.Name, first.ObjectKey)
	}

	// Replacing the video deletes the old object when nothing plays it.
	second, _ := f.svc.RequestMediaUploadURL(ctx, owner, domain.RoleTrainer, ex.ID, domain.MediaSlotPrenatal, domain.MediaKindVideo, "video/mp4")
	if _, err := f.svc.ConfirmMediaUpload(ctx, owner, domain.RoleTrainer, ex.ID, domain.MediaSlotPrenatal, domain.MediaKindVideo, second.ObjectKey); err != nil {
		t.Fatalf("ConfirmMediaUpload: %v", err)
	}
	if len(f.storage.deleted) != 1 || f.storage.deleted[0] != first.ObjectKey {
		t.Fatalf("deleted = %v, want [%s]", f.storage.deleted, first.ObjectKey)
	}
}

func TestDeleteExercise_KeepsMediaUsedByWorkouts(t *testing.T) {
	f := newExerciseFixture()
	ctx := context.Background()
	owner := primitive.NewObjectID()
	ex, err := f.svc.CreateExercise(ctx, owner, ExerciseInput{Name: "Squat", Intensity: 5})
	if err != nil {
		t.Fatalf("CreateExercise: %v", err)
	}
	up, _ := f.svc.RequestMediaUploadURL(ctx, owner, domain.RoleTrainer, ex.ID, domain.MediaSlotPostnatal, domain.MediaKindVideo, "video/mp4")
	stored, err := f.svc.ConfirmMediaUpload(ctx, owner, domain.RoleTrainer, ex.ID, domain.MediaSlotPostnatal, domain.MediaKindVideo, up.ObjectKey)
	if err != nil {
		t.Fatalf("ConfirmMediaUpload: %v", err)
	}
	f.workouts.workouts[primitive.NewObjectID()] = &domain.Workout{Exercises: []domain.Exercise{*stored}}

	if err := f.svc.DeleteExercise(ctx, owner, ex.ID); err != nil {
		t.Fatalf("DeleteExercise: %v", err)
	}
	if len(f.storage.deleted) != 0 {
		t.Fatalf("deleted = %v, want none while a workout plays the media", f.storage.deleted)
	}
	if _, err := f.svc.GetExerciseByID(ctx, ex.ID); !errors.Is(err, ErrExerciseNotFound) {
		t.Fatalf("GetExerciseByID err = %v, want %v", err, ErrExerciseNotFound)
	}
}

package service

import (
	"context"
	"errors"
	"testing"

	"tlm/coach-api/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type workoutFixture struct {
	svc       WorkoutService
	users     *fakeUserRepo
	exercises *fakeExerciseRepo
	workouts  *fakeWorkoutRepo
	prebuilt  *fakePrebuiltRepo
	trainer   *domain.User
	client    *domain.User
}

func newWorkoutFixture(t *testing.T, exercises ...domain.Exercise) *workoutFixture {
	t.Helper()
	trainer := &domain.User{ID: primitive.NewObjectID(), Role: domain.RoleTrainer, Email: "t@example.com"}
	client := &domain.User{ID: primitive.NewObjectID(), Role: domain.RoleClient, Email: "c@example.com", TrainerID: &trainer.ID}
	trainer.ClientIDs = []primitive.ObjectID{client.ID}

	f := &workoutFixture{
		users:     newFakeUserRepo(trainer, client),
		exercises: newFakeExerciseRepo(exercises...),
		workouts:  newFakeWorkoutRepo(),
		prebuilt:  newFakePrebuiltRepo(),
		trainer:   trainer,
		client:    client,
	}
	f.svc = NewWorkoutService(f.users, f.exercises, f.workouts, f.prebuilt)
	return f
}

func TestCreateWorkout_KeepsOrderAndRepeats(t *testing.T) {
	a, b := playableExercise("a"), playableExercise("b")
	f := newWorkoutFixture(t, a, b)

	in := WorkoutInput{Name: " Legs ", WorkoutType: domain.WorkoutTypeNormal, ExerciseIDs: []primitive.ObjectID{b.ID, a.ID, b.ID}}
	w, err := f.svc.CreateWorkout(context.Background(), f.trainer.ID, f.client.ID, in)
	if err != nil {
		t.Fatalf("CreateWorkout: %v", err)
	}
	if w.Name != "Legs" {
		t.Fatalf("Name = %q, want %q", w.Name, "Legs")
	}
	var got []string
	for _, ex := range w.Exercises {
		got = append(got, ex.Name)
	}
	if want := []string{"b", "a", "b"}; len(got) != 3 || got[0] != want[0] || got[1] != want[1] || got[2] != want[2] {
		t.Fatalf("exercises = %v, want %v", got, want)
	}
	if w.Duration != 90000 {
		t.Fatalf("Duration = %d, want 90000", w.Duration)
	}
	if w.Progress.Status != domain.ProgressNotStarted {
		t.Fatalf("status = %q, want %q", w.Progress.Status, domain.ProgressNotStarted)
	}
}

func TestCreateWorkout_Validation(t *testing.T) {
	a := playableExercise("a")
	f := newWorkoutFixture(t, a)
	stranger := &domain.User{ID: primitive.NewObjectID(), Role: domain.RoleClient}
	f.users.users[stranger.ID] = stranger

	tests := []struct {
		name   string
		client primitive.ObjectID
		in     WorkoutInput
		want   error
	}{
		{"no exercises", f.client.ID, WorkoutInput{Name: "x", WorkoutType: domain.WorkoutTypeNormal}, ErrEmptyWorkout},
		{"bad type", f.client.ID, WorkoutInput{Name: "x", WorkoutType: "cardio", ExerciseIDs: []primitive.ObjectID{a.ID}}, ErrInvalidWorkoutType},
		{"no name", f.client.ID, WorkoutInput{WorkoutType: domain.WorkoutTypeNormal, ExerciseIDs: []primitive.ObjectID{a.ID}}, ErrValidationFailed},
		{"unknown exercise", f.client.ID, WorkoutInput{Name: "x", WorkoutType: domain.WorkoutTypeMobility, ExerciseIDs: []primitive.ObjectID{primitive.NewObjectID()}}, ErrExerciseNotFound},
		{"unmanaged client", stranger.ID, WorkoutInput{Name: "x", WorkoutType: domain.WorkoutTypeNormal, ExerciseIDs: []primitive.ObjectID{a.ID}}, ErrClientNotManaged},
		{"unknown client", primitive.NewObjectID(), WorkoutInput{Name: "x", WorkoutType: domain.WorkoutTypeNormal, ExerciseIDs: []primitive.ObjectID{a.ID}}, ErrClientNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := f.svc.CreateWorkout(context.Background(), f.trainer.ID, tt.client, tt.in); !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestGetWorkout_Access(t *testing.T) {
	a := playableExercise("a")
	f := newWorkoutFixture(t, a)
	ctx := context.Background()
	w, err := f.svc.CreateWorkout(ctx, f.trainer.ID, f.client.ID, WorkoutInput{Name: "x", WorkoutType: domain.WorkoutTypeNormal, ExerciseIDs: []primitive.ObjectID{a.ID}})
	if err != nil {
		t.Fatalf("CreateWorkout: %v", err)
	}

	if _, err := f.svc.GetWorkout(ctx, f.client.ID, domain.RoleClient, w.ID); err != nil {
		t.Fatalf("client GetWorkout: %v", err)
	}
	if _, err := f.svc.GetWorkout(ctx, f.trainer.ID, domain.RoleTrainer, w.ID); err != nil {
		t.Fatalf("trainer GetWorkout: %v", err)
	}
	if _, err := f.svc.GetWorkout(ctx, primitive.NewObjectID(), domain.RoleClient, w.ID); !errors.Is(err, ErrWorkoutAccessDenied) {
		t.Fatalf("stranger err = %v, want %v", err, ErrWorkoutAccessDenied)
	}
	if _, err := f.svc.ListClientWorkouts(ctx, primitive.NewObjectID(), domain.RoleClient, f.client.ID); !errors.Is(err, ErrWorkoutAccessDenied) {
		t.Fatalf("list as other client err = %v, want %v", err, ErrWorkoutAccessDenied)
	}
	list, err := f.svc.ListClientWorkouts(ctx, f.client.ID, domain.RoleClient, f.client.ID)
	if err != nil || len(list) != 1 {
		t.Fatalf("ListClientWorkouts = %d, %v; want 1 workout", len(list), err)
	}
}

func TestAddClientByEmail(t *testing.T) {
	f := newWorkoutFixture(t)
	ctx := context.Background()
	free := &domain.User{ID: primitive.NewObjectID(), Role: domain.RoleClient, Email: "free@example.com", PasswordHash: "x"}
	f.users.users[free.ID] = free

	got, err := f.svc.AddClientByEmail(ctx, f.trainer.ID, " FREE@example.com ")
	if err != nil {
		t.Fatalf("AddClientByEmail: %v", err)
	}
	if got.PasswordHash != "" {
		t.Fatal("password hash leaked")
	}
	if !f.trainer.ManagesClient(free.ID) || free.TrainerID == nil || *free.TrainerID != f.trainer.ID {
		t.Fatal("client not linked to trainer")
	}

	other := primitive.NewObjectID()
	if _, err := f.svc.AddClientByEmail(ctx, other, "free@example.com"); !errors.Is(err, ErrClientAlreadyAssigned) {
		t.Fatalf("err = %v, want %v", err, ErrClientAlreadyAssigned)
	}
	if _, err := f.svc.AddClientByEmail(ctx, f.trainer.ID, "t@example.com"); !errors.Is(err, ErrClientNotFound) {
		t.Fatalf("trainer as client err = %v, want %v", err, ErrClientNotFound)
	}
}

func TestAddClientByEmail_UndoesClaimOnFailure(t *testing.T) {
	f := newWorkoutFixture(t)
	ctx := context.Background()
	free := &domain.User{ID: primitive.NewObjectID(), Role: domain.RoleClient, Email: "free@example.com"}
	f.users.users[free.ID] = free
	f.users.failAddClient = errors.New("mongo unavailable")

	if _, err := f.svc.AddClientByEmail(ctx, f.trainer.ID, "free@example.com"); !errors.Is(err, f.users.failAddClient) {
		t.Fatalf("err = %v, want %v", err, f.users.failAddClient)
	}
	if free.TrainerID != nil {
		t.Fatalf("TrainerID = %v, want nil after failed link", free.TrainerID)
	}
	if f.trainer.ManagesClient(free.ID) {
		t.Fatal("trainer lists a client whose link failed")
	}

	// The client is still free to be added once the store recovers.
	f.users.failAddClient = nil
	if _, err := f.svc.AddClientByEmail(ctx, f.trainer.ID, "free@example.com"); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if free.TrainerID == nil || *free.TrainerID != f.trainer.ID {
		t.Fatal("client not linked after retry")
	}
}

func TestSetClientPregnancy(t *testing.T) {
	f := newWorkoutFixture(t)
	got, err := f.svc.SetClientPregnancy(context.Background(), f.trainer.ID, f.client.ID, true)
	if err != nil {
		t.Fatalf("SetClientPregnancy: %v", err)
	}
	if !got.IsPregnant || !f.client.IsPregnant {
		t.Fatal("IsPregnant = false, want true")
	}
	if _, err := f.svc.SetClientPregnancy(context.Background(), primitive.NewObjectID(), f.client.ID, false); !errors.Is(err, ErrClientNotManaged) {
		t.Fatalf("err = %v, want %v", err, ErrClientNotManaged)
	}
}

func TestPrebuiltWorkouts(t *testing.T) {
	a := playableExercise("a")
	f := newWorkoutFixture(t, a)
	ctx := context.Background()
	in := WorkoutInput{Name: "Template", WorkoutType: domain.WorkoutTypeMobility, ExerciseIDs: []primitive.ObjectID{a.ID}}

	if _, err := f.svc.CreatePrebuiltWorkout(ctx, f.trainer.ID, in, "public"); !errors.Is(err, ErrInvalidVisibility) {
		t.Fatalf("err = %v, want %v", err, ErrInvalidVisibility)
	}
	private, err := f.svc.CreatePrebuiltWorkout(ctx, f.trainer.ID, in, domain.VisibilityPrivate)
	if err != nil {
		t.Fatalf("CreatePrebuiltWorkout: %v", err)
	}
	otherTrainer := primitive.NewObjectID()
	if _, err := f.svc.CreatePrebuiltWorkout(ctx, otherTrainer, in, domain.VisibilityShared); err != nil {
		t.Fatalf("CreatePrebuiltWorkout shared: %v", err)
	}

	mine, err := f.svc.ListPrebuiltWorkouts(ctx, f.trainer.ID, domain.RoleTrainer)
	if err != nil || len(mine) != 2 {
		t.Fatalf("trainer sees %d templates (err %v), want 2", len(mine), err)
	}
	theirs, err := f.svc.ListPrebuiltWorkouts(ctx, otherTrainer, domain.RoleTrainer)
	if err != nil || len(theirs) != 1 {
		t.Fatalf("other trainer sees %d templates (err %v), want 1", len(theirs), err)
	}

	if _, err := f.svc.AssignPrebuiltWorkout(ctx, otherTrainer, domain.RoleTrainer, private.ID, f.client.ID); !errors.Is(err, ErrPrebuiltWorkoutNotFound) {
		t.Fatalf("assigning someone else's private template err = %v, want %v", err, ErrPrebuiltWorkoutNotFound)
	}
	w, err := f.svc.AssignPrebuiltWorkout(ctx, f.trainer.ID, domain.RoleTrainer, private.ID, f.client.ID)
	if err != nil {
		t.Fatalf("AssignPrebuiltWorkout: %v", err)
	}
	if w.ClientID != f.client.ID || w.Name != "Template" || len(w.Exercises) != 1 {
		t.Fatalf("assigned workout = %+v", w)
	}
}

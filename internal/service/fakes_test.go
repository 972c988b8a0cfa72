package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"tlm/coach-api/internal/domain"
	"tlm/coach-api/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fakeUserRepo struct {
	users map[primitive.ObjectID]*domain.User

	failAddClient error
}

func newFakeUserRepo(users ...*domain.User) *fakeUserRepo {
	r := &fakeUserRepo{users: make(map[primitive.ObjectID]*domain.User)}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *fakeUserRepo) Create(_ context.Context, user *domain.User) (primitive.ObjectID, error) {
	for _, u := range r.users {
		if u.Email == user.Email {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
	}
	user.ID = primitive.NewObjectID()
	cp := *user
	r.users[user.ID] = &cp
	return user.ID, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeUserRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUserRepo) AddClientIDToTrainer(_ context.Context, trainerID, clientID primitive.ObjectID) error {
	if r.failAddClient != nil {
		return r.failAddClient
	}
	t, ok := r.users[trainerID]
	if !ok {
		return repository.ErrNotFound
	}
	if !t.ManagesClient(clientID) {
		t.ClientIDs = append(t.ClientIDs, clientID)
	}
	return nil
}

func (r *fakeUserRepo) GetClientsByTrainerID(_ context.Context, trainerID primitive.ObjectID) ([]domain.User, error) {
	t, ok := r.users[trainerID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	var out []domain.User
	for _, id := range t.ClientIDs {
		if c, ok := r.users[id]; ok {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (r *fakeUserRepo) SetTrainerForClient(_ context.Context, clientID, trainerID primitive.ObjectID) error {
	c, ok := r.users[clientID]
	if !ok || (c.TrainerID != nil && *c.TrainerID != trainerID) {
		return repository.ErrNotFound
	}
	c.TrainerID = &trainerID
	return nil
}

func (r *fakeUserRepo) UnsetTrainerForClient(_ context.Context, clientID, trainerID primitive.ObjectID) error {
	c, ok := r.users[clientID]
	if !ok || c.TrainerID == nil || *c.TrainerID != trainerID {
		return repository.ErrNotFound
	}
	c.TrainerID = nil
	return nil
}

func (r *fakeUserRepo) SetPregnant(_ context.Context, clientID primitive.ObjectID, pregnant bool) error {
	c, ok := r.users[clientID]
	if !ok {
		return repository.ErrNotFound
	}
	c.IsPregnant = pregnant
	return nil
}

type fakeExerciseRepo struct {
	exercises map[primitive.ObjectID]*domain.Exercise
}

func newFakeExerciseRepo(exercises ...domain.Exercise) *fakeExerciseRepo {
	r := &fakeExerciseRepo{exercises: make(map[primitive.ObjectID]*domain.Exercise)}
	for i := range exercises {
		ex := exercises[i]
		r.exercises[ex.ID] = &ex
	}
	return r
}

func (r *fakeExerciseRepo) Create(_ context.Context, ex *domain.Exercise) (primitive.ObjectID, error) {
	ex.ID = primitive.NewObjectID()
	cp := *ex
	r.exercises[ex.ID] = &cp
	return ex.ID, nil
}

func (r *fakeExerciseRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Exercise, error) {
	ex, ok := r.exercises[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *ex
	return &cp, nil
}

func (r *fakeExerciseRepo) GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]domain.Exercise, error) {
	out := make([]domain.Exercise, 0, len(ids))
	for _, id := range ids {
		ex, err := r.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, *ex)
	}
	return out, nil
}

func (r *fakeExerciseRepo) List(_ context.Context, f repository.ExerciseFilter) ([]domain.Exercise, error) {
	var out []domain.Exercise
	for _, ex := range r.exercises {
		if f.TrainerID != nil && ex.TrainerID != *f.TrainerID {
			continue
		}
		if f.PublishedOnly && !ex.Published {
			continue
		}
		if !f.IncludeArchived && ex.Archived {
			continue
		}
		out = append(out, *ex)
	}
	return out, nil
}

func (r *fakeExerciseRepo) Update(_ context.Context, ex *domain.Exercise) error {
	if _, ok := r.exercises[ex.ID]; !ok {
		return repository.ErrNotFound
	}
	cp := *ex
	r.exercises[ex.ID] = &cp
	return nil
}

func (r *fakeExerciseRepo) Delete(_ context.Context, id, trainerID primitive.ObjectID) error {
	ex, ok := r.exercises[id]
	if !ok || ex.TrainerID != trainerID {
		return repository.ErrNotFound
	}
	delete(r.exercises, id)
	return nil
}

type fakeWorkoutRepo struct {
	workouts map[primitive.ObjectID]*domain.Workout
	progress []domain.WorkoutProgress // every UpdateProgress call, in order
}

func newFakeWorkoutRepo(workouts ...*domain.Workout) *fakeWorkoutRepo {
	r := &fakeWorkoutRepo{workouts: make(map[primitive.ObjectID]*domain.Workout)}
	for _, w := range workouts {
		r.workouts[w.ID] = w
	}
	return r
}

func (r *fakeWorkoutRepo) Create(_ context.Context, w *domain.Workout) (primitive.ObjectID, error) {
	if len(w.Exercises) == 0 {
		return primitive.NilObjectID, errors.New("workout requires at least one exercise")
	}
	w.ID = primitive.NewObjectID()
	cp := *w
	r.workouts[w.ID] = &cp
	return w.ID, nil
}

func (r *fakeWorkoutRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Workout, error) {
	w, ok := r.workouts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *w
	return &cp, nil
}

func (r *fakeWorkoutRepo) GetByClientID(_ context.Context, clientID primitive.ObjectID) ([]domain.Workout, error) {
	var out []domain.Workout
	for _, w := range r.workouts {
		if w.ClientID == clientID {
			out = append(out, *w)
		}
	}
	return out, nil
}

func (r *fakeWorkoutRepo) UpdateProgress(_ context.Context, id primitive.ObjectID, p domain.WorkoutProgress) error {
	w, ok := r.workouts[id]
	if !ok {
		return repository.ErrNotFound
	}
	w.Progress = p
	r.progress = append(r.progress, p)
	return nil
}

func (r *fakeWorkoutRepo) MarkStarted(_ context.Context, id primitive.ObjectID, at time.Time) error {
	w, ok := r.workouts[id]
	if !ok {
		return repository.ErrNotFound
	}
	if w.StartedOn == nil {
		w.StartedOn = &at
	}
	return nil
}

func (r *fakeWorkoutRepo) MarkCompleted(_ context.Context, id primitive.ObjectID, at time.Time) error {
	w, ok := r.workouts[id]
	if !ok {
		return repository.ErrNotFound
	}
	w.CompletedOn = &at
	w.Progress.Status = domain.ProgressCompleted
	return nil
}

func (r *fakeWorkoutRepo) ReferencesExercise(_ context.Context, exerciseID primitive.ObjectID) (bool, error) {
	for _, w := range r.workouts {
		for _, ex := range w.Exercises {
			if ex.ID == exerciseID {
				return true, nil
			}
		}
	}
	return false, nil
}

type fakePrebuiltRepo struct {
	workouts map[primitive.ObjectID]*domain.PrebuiltWorkout
}

func newFakePrebuiltRepo() *fakePrebuiltRepo {
	return &fakePrebuiltRepo{workouts: make(map[primitive.ObjectID]*domain.PrebuiltWorkout)}
}

func (r *fakePrebuiltRepo) Create(_ context.Context, w *domain.PrebuiltWorkout) (primitive.ObjectID, error) {
	w.ID = primitive.NewObjectID()
	cp := *w
	r.workouts[w.ID] = &cp
	return w.ID, nil
}

func (r *fakePrebuiltRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.PrebuiltWorkout, error) {
	w, ok := r.workouts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *w
	return &cp, nil
}

func (r *fakePrebuiltRepo) ListVisible(_ context.Context, authorID primitive.ObjectID, includeShared bool) ([]domain.PrebuiltWorkout, error) {
	var out []domain.PrebuiltWorkout
	for _, w := range r.workouts {
		if w.Visibility == domain.VisibilityTLM || w.AuthorID == authorID || (includeShared && w.Visibility == domain.VisibilityShared) {
			out = append(out, *w)
		}
	}
	return out, nil
}

func (r *fakePrebuiltRepo) ReferencesExercise(_ context.Context, exerciseID primitive.ObjectID) (bool, error) {
	for _, w := range r.workouts {
		for _, ex := range w.Exercises {
			if ex.ID == exerciseID {
				return true, nil
			}
		}
	}
	return false, nil
}

type fakeStorage struct {
	mu      sync.Mutex
	deleted []string
	failGet bool
}

func (f *fakeStorage) GeneratePresignedUploadURL(_ context.Context, key, _ string, _ time.Duration) (string, error) {
	return "https://upload.test/" + key, nil
}

func (f *fakeStorage) GeneratePresignedDownloadURL(_ context.Context, key string, _ time.Duration) (string, error) {
	if f.failGet {
		return "", errors.New("presign failed")
	}
	return "https://media.test/" + key, nil
}

func (f *fakeStorage) DeleteObject(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, key)
	return nil
}

func playableExercise(name string) domain.Exercise {
	return domain.Exercise{
		ID:        primitive.NewObjectID(),
		Name:      name,
		Intensity: 5,
		Duration:  30,
		Prenatal: domain.MediaPair{
			Video: domain.MediaRef{Name: name + "-pre.mp4"},
			Thumb: domain.MediaRef{Name: name + "-pre.jpg"},
		},
		Postnatal: domain.MediaPair{
			Video: domain.MediaRef{Name: name + "-post.mp4"},
			Thumb: domain.MediaRef{Name: name + "-post.jpg"},
		},
	}
}

package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"tlm/coach-api/internal/domain"
	"tlm/coach-api/internal/player"
	"tlm/coach-api/internal/playlist"
	"tlm/coach-api/internal/repository"
	"tlm/coach-api/internal/storage"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrSessionNotFound     = errors.New("playback session not found")
	ErrSessionAccessDenied = errors.New("playback session belongs to another client")
	ErrWorkoutDone         = errors.New("workout is already done")
	ErrInvalidVideoIndex   = errors.New("video index out of range")
	ErrNothingPlaying      = errors.New("no entry is currently playing")
	ErrMediaURLError       = errors.New("failed to resolve media URL")
	ErrSessionBusy         = errors.New("playback session was updated concurrently")
)

// MediaURLs are the fetchable locations of the current entry's media.
type MediaURLs struct {
	Entry               playlist.Entry `json:"entry"`
	VideoURL            string         `json:"videoUrl,omitempty"`
	ThumbURL            string         `json:"thumbUrl,omitempty"`
	InstructionURL      string         `json:"instructionUrl,omitempty"`
	InstructionThumbURL string         `json:"instructionThumbUrl,omitempty"`
	ExpiresAt           time.Time      `json:"expiresAt"`
}

type PlaybackService interface {
	// Playlist previews the resolved playlist of a client's workout.
	Playlist(ctx context.Context, clientID, workoutID primitive.ObjectID) ([]playlist.Entry, error)

	StartSession(ctx context.Context, clientID, workoutID primitive.ObjectID) (*repository.PlaybackSession, error)
	GetSession(ctx context.Context, clientID primitive.ObjectID, sessionID string) (*repository.PlaybackSession, error)
	// Dispatch applies a client action. playbackTime, when set, is stored as
	// the position within the current video; without it the stored position
	// is kept until the index moves.
	Dispatch(ctx context.Context, clientID primitive.ObjectID, sessionID string, action player.Action, playbackTime *float64) (*repository.PlaybackSession, error)
	CurrentMedia(ctx context.Context, clientID primitive.ObjectID, sessionID string) (*MediaURLs, error)
	EndSession(ctx context.Context, clientID primitive.ObjectID, sessionID string) error
}

type playbackService struct {
	userRepo    repository.UserRepository
	workoutRepo repository.WorkoutRepository
	sessions    repository.PlaybackSessionRepository
	sequencer   *player.Sequencer
	resolver    playlist.Resolver
	urls        *storage.URLResolver
	urlExpiry   time.Duration
	now         func() time.Time
}

// NewPlaybackService creates a new instance of playbackService.
func NewPlaybackService(
	userRepo repository.UserRepository,
	workoutRepo repository.WorkoutRepository,
	sessions repository.PlaybackSessionRepository,
	resolver playlist.Resolver,
	fileStorage storage.FileStorage,
	urlExpiry time.Duration,
) PlaybackService {
	if urlExpiry <= 0 {
		urlExpiry = storage.DefaultPresignedURLExpiry
	}
	return &playbackService{
		userRepo:    userRepo,
		workoutRepo: workoutRepo,
		sessions:    sessions,
		sequencer:   player.NewSequencer(resolver),
		resolver:    resolver,
		urls:        storage.NewURLResolver(fileStorage, urlExpiry),
		urlExpiry:   urlExpiry,
		now:         time.Now,
	}
}

// clientWorkout loads the workout and the client record it is played for.
func (s *playbackService) clientWorkout(ctx context.Context, clientID, workoutID primitive.ObjectID) (*domain.Workout, *domain.User, error) {
	workout, err := s.workoutRepo.GetByID(ctx, workoutID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, ErrWorkoutNotFound
		}
		return nil, nil, err
	}
	if workout.ClientID != clientID {
		return nil, nil, ErrWorkoutAccessDenied
	}
	client, err := s.userRepo.GetByID(ctx, clientID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, ErrClientNotFound
		}
		return nil, nil, err
	}
	return workout, client, nil
}

func (s *playbackService) Playlist(ctx context.Context, clientID, workoutID primitive.ObjectID) ([]playlist.Entry, error) {
	workout, client, err := s.clientWorkout(ctx, clientID, workoutID)
	if err != nil {
		return nil, err
	}
	return s.resolver.Resolve(workout, client.IsPregnant), nil
}

// StartSession loads the workout into a fresh sequencer, resuming from the
// stored progress. A completed workout starts over.
func (s *playbackService) StartSession(ctx context.Context, clientID, workoutID primitive.ObjectID) (*repository.PlaybackSession, error) {
	workout, client, err := s.clientWorkout(ctx, clientID, workoutID)
	if err != nil {
		return nil, err
	}
	if len(workout.Exercises) == 0 {
		return nil, ErrEmptyWorkout
	}
	if workout.Progress.Status == domain.ProgressCompleted || workout.Progress.ExerciseIndex < 0 {
		workout.Progress = domain.WorkoutProgress{}
	}

	state := s.sequencer.Transition(player.State{}, player.SetWorkout{Workout: workout, IsPregnant: client.IsPregnant})
	// Restart from the top when the playlist shrank since progress was saved
	// (e.g. the client's media variant changed), or when progress sits past
	// the last entry without the workout having been marked completed.
	if state.Index > len(state.Playlist) || (state.WorkoutDone && len(state.Playlist) > 0) {
		state = s.sequencer.Transition(state, player.SetVideoIndex{Index: 0})
	}
	resumeAt := workout.Progress.PlaybackTime
	if state.Index != workout.Progress.ExerciseIndex || len(state.Playlist) == 0 {
		resumeAt = 0
	}

	now := s.now().UTC()
	session := &repository.PlaybackSession{
		ID:           uuid.NewString(),
		ClientID:     clientID,
		WorkoutID:    workoutID,
		State:        state,
		PlaybackTime: resumeAt,
		StartedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, fmt.Errorf("save playback session: %w", err)
	}

	if workout.StartedOn == nil {
		if err := s.workoutRepo.MarkStarted(ctx, workoutID, now); err != nil {
			log.Printf("WARN: Failed to mark workout %s started: %v", workoutID.Hex(), err)
		}
	}
	// An empty playlist is "nothing to play", not a finished workout.
	if len(state.Playlist) == 0 {
		log.Printf("WARN: Workout %s has no playable entries for client %s", workoutID.Hex(), clientID.Hex())
		return session, nil
	}
	if err := s.persistProgress(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

func (s *playbackService) GetSession(ctx context.Context, clientID primitive.ObjectID, sessionID string) (*repository.PlaybackSession, error) {
	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	if session.ClientID != clientID {
		return nil, ErrSessionAccessDenied
	}
	return session, nil
}

func (s *playbackService) Dispatch(ctx context.Context, clientID primitive.ObjectID, sessionID string, action player.Action, playbackTime *float64) (*repository.PlaybackSession, error) {
	if _, ok := action.(player.SetWorkout); ok {
		return nil, player.ErrUnknownAction
	}

	var before player.State
	session, err := s.sessions.Update(ctx, sessionID, func(session *repository.PlaybackSession) error {
		if session.ClientID != clientID {
			return ErrSessionAccessDenied
		}
		// The reducer does not guard its index; keep it inside [0, len].
		switch a := action.(type) {
		case player.NextVideo:
			if session.State.WorkoutDone {
				return ErrWorkoutDone
			}
		case player.SetVideoIndex:
			if a.Index < 0 || a.Index > len(session.State.Playlist) {
				return ErrInvalidVideoIndex
			}
		}

		before = session.State
		session.State = s.sequencer.Transition(session.State, action)
		session.UpdatedAt = s.now().UTC()
		// Moving to another entry rewinds; otherwise the stored position is
		// kept unless the client reported a new one.
		switch {
		case session.State.Index != before.Index:
			session.PlaybackTime = 0
		case playbackTime != nil:
			session.PlaybackTime = *playbackTime
		}
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, ErrSessionNotFound
		case errors.Is(err, repository.ErrConflict):
			return nil, ErrSessionBusy
		case errors.Is(err, ErrSessionAccessDenied), errors.Is(err, ErrWorkoutDone), errors.Is(err, ErrInvalidVideoIndex):
			return nil, err
		}
		return nil, fmt.Errorf("update playback session: %w", err)
	}

	if err := s.persistProgress(ctx, session); err != nil {
		return nil, err
	}

	if session.State.WorkoutDone && !before.WorkoutDone {
		if err := s.workoutRepo.MarkCompleted(ctx, session.WorkoutID, session.UpdatedAt); err != nil {
			return nil, fmt.Errorf("mark workout completed: %w", err)
		}
		log.Printf("INFO: Client %s completed workout %s", clientID.Hex(), session.WorkoutID.Hex())
	}
	return session, nil
}

// persistProgress writes the resumable position back to the workout.
func (s *playbackService) persistProgress(ctx context.Context, session *repository.PlaybackSession) error {
	status := domain.ProgressInProgress
	if session.State.WorkoutDone {
		status = domain.ProgressCompleted
	}
	progress := domain.WorkoutProgress{
		Status:        status,
		ExerciseIndex: session.State.Index,
		PlaybackTime:  session.PlaybackTime,
	}
	if err := s.workoutRepo.UpdateProgress(ctx, session.WorkoutID, progress); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrWorkoutNotFound
		}
		return fmt.Errorf("update workout progress: %w", err)
	}
	return nil
}

// CurrentMedia resolves the media names of the current entry to URLs.
func (s *playbackService) CurrentMedia(ctx context.Context, clientID primitive.ObjectID, sessionID string) (*MediaURLs, error) {
	session, err := s.GetSession(ctx, clientID, sessionID)
	if err != nil {
		return nil, err
	}
	entry, ok := session.State.Current()
	if !ok {
		return nil, ErrNothingPlaying
	}

	media := &MediaURLs{Entry: entry, ExpiresAt: s.now().UTC().Add(s.urlExpiry)}
	for _, m := range []struct {
		name string
		dst  *string
	}{
		{entry.VideoSourceName, &media.VideoURL},
		{entry.VideoThumbName, &media.ThumbURL},
		{entry.InstructionSourceName, &media.InstructionURL},
		{entry.InstructionThumbName, &media.InstructionThumbURL},
	} {
		url, err := s.urls.URL(ctx, m.name)
		if err != nil {
			log.Printf("ERROR: %v", err)
			return nil, ErrMediaURLError
		}
		*m.dst = url
	}
	return media, nil
}

// EndSession discards the session. Progress was already persisted.
func (s *playbackService) EndSession(ctx context.Context, clientID primitive.ObjectID, sessionID string) error {
	if _, err := s.GetSession(ctx, clientID, sessionID); err != nil {
		return err
	}
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrSessionNotFound
		}
		return err
	}
	return nil
}

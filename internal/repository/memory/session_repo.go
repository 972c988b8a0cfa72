// Package memory holds process-local repository implementations, used when
// no external session store is configured and in tests.
package memory

import (
	"context"
	"errors"
	"sync"

	"tlm/coach-api/internal/repository"
)

type sessionRepository struct {
	mu       sync.RWMutex
	sessions map[string]repository.PlaybackSession
}

// NewSessionRepository returns an empty in-process session store.
func NewSessionRepository() repository.PlaybackSessionRepository {
	return &sessionRepository{sessions: make(map[string]repository.PlaybackSession)}
}

func (r *sessionRepository) Save(_ context.Context, session *repository.PlaybackSession) error {
	if session.ID == "" {
		return errors.New("playback session ID is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[session.ID] = *session
	return nil
}

func (r *sessionRepository) Get(_ context.Context, id string) (*repository.PlaybackSession, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	session, ok := r.sessions[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &session, nil
}

func (r *sessionRepository) Update(_ context.Context, id string, fn func(*repository.PlaybackSession) error) (*repository.PlaybackSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	session, ok := r.sessions[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if err := fn(&session); err != nil {
		return nil, err
	}
	r.sessions[id] = session
	return &session, nil
}

func (r *sessionRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.sessions, id)
	return nil
}

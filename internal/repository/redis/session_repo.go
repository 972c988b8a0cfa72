// Package redis keeps live playback sessions in Redis.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"tlm/coach-api/internal/repository"

	goredis "github.com/redis/go-redis/v9"
)

const (
	sessionKeyPrefix  = "playback:session:"
	defaultSessionTTL = 6 * time.Hour
	maxUpdateAttempts = 5
)

// Connect opens a client and checks the server answers.
func Connect(ctx context.Context, addr, password string, db int) (*goredis.Client, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

type sessionRepository struct {
	client *goredis.Client
	ttl    time.Duration
}

// NewSessionRepository stores sessions as JSON documents that expire after
// ttl without activity.
func NewSessionRepository(client *goredis.Client, ttl time.Duration) repository.PlaybackSessionRepository {
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	return &sessionRepository{client: client, ttl: ttl}
}

func sessionKey(id string) string {
	return sessionKeyPrefix + id
}

func (r *sessionRepository) Save(ctx context.Context, session *repository.PlaybackSession) error {
	if session.ID == "" {
		return errors.New("playback session ID is required")
	}
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal playback session: %w", err)
	}
	if err := r.client.Set(ctx, sessionKey(session.ID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("error saving playback session: %w", err)
	}
	return nil
}

func (r *sessionRepository) Get(ctx context.Context, id string) (*repository.PlaybackSession, error) {
	data, err := r.client.Get(ctx, sessionKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("error loading playback session: %w", err)
	}
	return decodeSession(data)
}

func decodeSession(data []byte) (*repository.PlaybackSession, error) {
	var session repository.PlaybackSession
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal playback session: %w", err)
	}
	return &session, nil
}

// Update runs fn under WATCH so a concurrent writer makes the transaction
// fail instead of being overwritten; failed transactions are retried.
func (r *sessionRepository) Update(ctx context.Context, id string, fn func(*repository.PlaybackSession) error) (*repository.PlaybackSession, error) {
	key := sessionKey(id)
	var updated *repository.PlaybackSession
	txf := func(tx *goredis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if err != nil {
			if errors.Is(err, goredis.Nil) {
				return repository.ErrNotFound
			}
			return fmt.Errorf("error loading playback session: %w", err)
		}
		session, err := decodeSession(data)
		if err != nil {
			return err
		}
		if err := fn(session); err != nil {
			return err
		}
		out, err := json.Marshal(session)
		if err != nil {
			return fmt.Errorf("failed to marshal playback session: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
			pipe.Set(ctx, key, out, r.ttl)
			return nil
		})
		if err != nil {
			return err
		}
		updated = session
		return nil
	}

	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		err := r.client.Watch(ctx, txf, key)
		if err == nil {
			return updated, nil
		}
		if !errors.Is(err, goredis.TxFailedErr) {
			return nil, err
		}
	}
	return nil, repository.ErrConflict
}

func (r *sessionRepository) Delete(ctx context.Context, id string) error {
	n, err := r.client.Del(ctx, sessionKey(id)).Result()
	if err != nil {
		return fmt.Errorf("error deleting playback session: %w", err)
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

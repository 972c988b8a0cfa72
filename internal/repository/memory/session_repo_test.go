package memory

import (
	"context"
	"errors"
	"sync"
	"testing"

	"tlm/coach-api/internal/player"
	"tlm/coach-api/internal/repository"
)

func TestSessionRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewSessionRepository()

	if err := repo.Save(ctx, &repository.PlaybackSession{}); err == nil {
		t.Fatal("expected error for session without ID")
	}

	session := &repository.PlaybackSession{ID: "s-1", State: player.State{Index: 2}}
	if err := repo.Save(ctx, session); err != nil {
		t.Fatalf("save: %v", err)
	}
	session.State.Index = 5 // caller mutations must not leak into the store

	got, err := repo.Get(ctx, "s-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.State.Index != 2 {
		t.Fatalf("index = %d, want 2", got.State.Index)
	}

	if err := repo.Delete(ctx, "s-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.Get(ctx, "s-1"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("get after delete error = %v, want ErrNotFound", err)
	}
	if err := repo.Delete(ctx, "s-1"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("second delete error = %v, want ErrNotFound", err)
	}
}

func TestSessionRepository_Update(t *testing.T) {
	ctx := context.Background()
	repo := NewSessionRepository()

	if _, err := repo.Update(ctx, "missing", func(*repository.PlaybackSession) error { return nil }); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("update missing error = %v, want ErrNotFound", err)
	}

	if err := repo.Save(ctx, &repository.PlaybackSession{ID: "s-1"}); err != nil {
		t.Fatalf("save: %v", err)
	}

	errStop := errors.New("stop")
	if _, err := repo.Update(ctx, "s-1", func(s *repository.PlaybackSession) error {
		s.State.Index = 9
		return errStop
	}); !errors.Is(err, errStop) {
		t.Fatalf("update error = %v, want %v", err, errStop)
	}
	if got, _ := repo.Get(ctx, "s-1"); got.State.Index != 0 {
		t.Fatalf("index = %d after aborted update, want 0", got.State.Index)
	}

	const writers = 50
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := repo.Update(ctx, "s-1", func(s *repository.PlaybackSession) error {
				s.State.Index++
				return nil
			}); err != nil {
				t.Errorf("update: %v", err)
			}
		}()
	}
	wg.Wait()

	got, err := repo.Get(ctx, "s-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.State.Index != writers {
		t.Fatalf("index = %d, want %d", got.State.Index, writers)
	}
}

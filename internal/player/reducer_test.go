package player

import (
	"errors"
	"reflect"
	"testing"

	"tlm/coach-api/internal/domain"
	"tlm/coach-api/internal/playlist"
)

func playable(name string) domain.Exercise {
	return domain.Exercise{
		Name:      name,
		Postnatal: domain.MediaPair{Video: domain.MediaRef{Name: name + ".mp4"}, Thumb: domain.MediaRef{Name: name + ".jpg"}},
	}
}

func loaded(t *testing.T, n, start int) State {
	t.Helper()
	w := &domain.Workout{Progress: domain.WorkoutProgress{ExerciseIndex: start}}
	for i := 0; i < n; i++ {
		w.Exercises = append(w.Exercises, playable(string(rune('A'+i))))
	}
	s := Transition(State{}, SetWorkout{Workout: w})
	if len(s.Playlist) != n {
		t.Fatalf("len(playlist) = %d, want %d", len(s.Playlist), n)
	}
	return s
}

func TestSetWorkout_StartsFromProgressIndex(t *testing.T) {
	s := loaded(t, 5, 2)
	if s.Index != 2 {
		t.Fatalf("index = %d, want 2", s.Index)
	}
	if s.WorkoutDone {
		t.Fatal("expected workoutDone = false")
	}
}

func TestSetWorkout_ClearsTransientFlags(t *testing.T) {
	prev := State{
		Playlist:            []playlist.Entry{{Name: "old"}},
		Index:               1,
		ShowingInstructions: true,
		Error:               true,
		WorkoutDone:         true,
		Abandoned:           true,
	}
	w := &domain.Workout{Exercises: []domain.Exercise{playable("A"), playable("B")}}

	s := Transition(prev, SetWorkout{Workout: w})
	if s.Index != 0 || s.Error || s.Abandoned || s.ShowingInstructions || s.WorkoutDone {
		t.Fatalf("state = %+v, want fresh state at index 0", s)
	}
	if s.Playlist[0].Name != "A" {
		t.Fatalf("playlist[0] = %s, want A", s.Playlist[0].Name)
	}
}

func TestSetWorkout_EmptyPlaylistIsDone(t *testing.T) {
	w := &domain.Workout{Exercises: []domain.Exercise{{Name: "no media"}}}
	s := Transition(State{}, SetWorkout{Workout: w, IsPregnant: true})
	if len(s.Playlist) != 0 {
		t.Fatalf("len(playlist) = %d, want 0", len(s.Playlist))
	}
	if !s.WorkoutDone {
		t.Fatal("expected workoutDone = true for empty playlist")
	}
}

func TestNextVideo_ReachesDone(t *testing.T) {
	s := loaded(t, 3, 0)
	for i := 0; i < 3; i++ {
		if s.WorkoutDone {
			t.Fatalf("workoutDone set early at index %d", s.Index)
		}
		s = Transition(s, NextVideo{})
	}
	if !s.WorkoutDone {
		t.Fatal("expected workoutDone = true")
	}
	if s.Index != len(s.Playlist) {
		t.Fatalf("index = %d, want %d", s.Index, len(s.Playlist))
	}
	if _, ok := s.Current(); ok {
		t.Fatal("expected no current entry once done")
	}
}

func TestPrevVideo(t *testing.T) {
	s := loaded(t, 3, 0)
	if got := Transition(s, PrevVideo{}); !reflect.DeepEqual(got, s) {
		t.Fatalf("PrevVideo at 0 changed state: %+v", got)
	}

	s = Transition(s, SetVideoIndex{Index: 3})
	if !s.WorkoutDone {
		t.Fatal("expected workoutDone after jumping to end")
	}
	s = Transition(s, PrevVideo{})
	if s.Index != 2 || s.WorkoutDone {
		t.Fatalf("index = %d done = %v, want 2 false", s.Index, s.WorkoutDone)
	}
}

func TestSetVideoIndex(t *testing.T) {
	s := Transition(loaded(t, 4, 0), SetVideoIndex{Index: 2})
	if s.Index != 2 || s.WorkoutDone {
		t.Fatalf("index = %d done = %v, want 2 false", s.Index, s.WorkoutDone)
	}
	cur, ok := s.Current()
	if !ok || cur.Name != "C" {
		t.Fatalf("current = %+v, want C", cur)
	}
}

func TestFlags_DoNotMoveIndex(t *testing.T) {
	s := loaded(t, 3, 1)

	s = Transition(s, SetVideoError{Err: true})
	if !s.Error || s.Index != 1 {
		t.Fatalf("error = %v index = %d, want true 1", s.Error, s.Index)
	}
	s = Transition(s, SetVideoError{Err: false})
	if s.Error {
		t.Fatal("expected error cleared")
	}

	s = Transition(s, ShowInstructions{Show: true})
	if !s.ShowingInstructions || s.Index != 1 {
		t.Fatalf("showingInstructions = %v index = %d", s.ShowingInstructions, s.Index)
	}
}

func TestAbandonResume_RoundTrips(t *testing.T) {
	before := Transition(loaded(t, 3, 0), NextVideo{})

	abandoned := Transition(before, Abandon{})
	if !abandoned.Abandoned {
		t.Fatal("expected abandoned = true")
	}
	if abandoned.Index != before.Index || len(abandoned.Playlist) != len(before.Playlist) {
		t.Fatal("abandon must keep position and playlist")
	}
	if abandoned.Playing() {
		t.Fatal("abandoned session reports playing")
	}

	resumed := Transition(abandoned, Resume{})
	if !reflect.DeepEqual(resumed, before) {
		t.Fatalf("resumed = %+v, want %+v", resumed, before)
	}
}

func TestSequencer_UsesConfiguredBreakMedia(t *testing.T) {
	seq := NewSequencer(playlist.NewResolver("rest.mp4", "rest.jpg"))
	w := &domain.Workout{Exercises: []domain.Exercise{{Name: "Break"}, playable("A")}}

	s := seq.Transition(State{}, SetWorkout{Workout: w})
	cur, ok := s.Current()
	if !ok {
		t.Fatal("expected a current entry")
	}
	if !cur.IsBreak() || cur.VideoSourceName != "rest.mp4" {
		t.Fatalf("current = %+v, want break with rest.mp4", cur)
	}
}

func TestParseAction(t *testing.T) {
	tests := []struct {
		name  string
		index int
		flag  bool
		want  Action
	}{
		{name: "NEXT_VIDEO", want: NextVideo{}},
		{name: "PREV_VIDEO", want: PrevVideo{}},
		{name: "SET_VIDEO_IDX", index: 4, want: SetVideoIndex{Index: 4}},
		{name: "SET_VIDEO_ERROR", flag: true, want: SetVideoError{Err: true}},
		{name: "SHOW_INSTRUCTIONS", flag: true, want: ShowInstructions{Show: true}},
		{name: "ABANDON", want: Abandon{}},
		{name: "RESUME", want: Resume{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAction(tt.name, tt.index, tt.flag)
			if err != nil {
				t.Fatalf("ParseAction: %v", err)
			}
			if got != tt.want {
				t.Fatalf("action = %#v, want %#v", got, tt.want)
			}
			if string(got.Type()) != tt.name {
				t.Fatalf("type = %s, want %s", got.Type(), tt.name)
			}
		})
	}

	for _, name := range []string{"SET_WORKOUT", "JUMP", ""} {
		if _, err := ParseAction(name, 0, false); !errors.Is(err, ErrUnknownAction) {
			t.Fatalf("ParseAction(%q) error = %v, want ErrUnknownAction", name, err)
		}
	}
}

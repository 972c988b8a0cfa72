package player

import "tlm/coach-api/internal/playlist"

// Sequencer applies actions using a specific playlist resolver.
type Sequencer struct {
	resolver playlist.Resolver
}

// NewSequencer returns a Sequencer resolving playlists with r.
func NewSequencer(r playlist.Resolver) *Sequencer {
	return &Sequencer{resolver: r}
}

// Transition applies an action with the default resolver.
func Transition(state State, action Action) State {
	return Sequencer{}.Transition(state, action)
}

// Transition returns the state that follows action. It never fails; an
// unknown action leaves the state unchanged.
//
// NextVideo past the end of the playlist is not guarded: callers stop
// dispatching once WorkoutDone is set.
func (s Sequencer) Transition(state State, action Action) State {
	switch a := action.(type) {
	case SetWorkout:
		next := State{Playlist: s.resolver.Resolve(a.Workout, a.IsPregnant)}
		if a.Workout != nil {
			next.Index = a.Workout.Progress.ExerciseIndex
		}
		next.WorkoutDone = next.Index == len(next.Playlist)
		return next
	case NextVideo:
		state.Index++
		state.WorkoutDone = state.Index == len(state.Playlist)
	case PrevVideo:
		if state.Index > 0 {
			state.Index--
			state.WorkoutDone = state.Index == len(state.Playlist)
		}
	case SetVideoIndex:
		state.Index = a.Index
		state.WorkoutDone = state.Index == len(state.Playlist)
	case SetVideoError:
		state.Error = a.Err
	case ShowInstructions:
		state.ShowingInstructions = a.Show
	case Abandon:
		state.Abandoned = true
	case Resume:
		state.Abandoned = false
	}
	return state
}

// Package player sequences playback through a resolved workout playlist.
//
// Transition is a pure reducer: the caller owns the State value, feeds it the
// actions raised by the video element and the user, and stores the result.
// The reducer never navigates, persists, or retries anything.
package player

import "tlm/coach-api/internal/playlist"

// State is the in-memory playback state of one session.
// Index ranges over [0, len(Playlist)]; len(Playlist) means the workout is done.
type State struct {
	Playlist            []playlist.Entry `json:"playlist"`
	Index               int              `json:"index"`
	ShowingInstructions bool             `json:"showingInstructions"`
	Error               bool             `json:"error"`
	WorkoutDone         bool             `json:"workoutDone"`
	Abandoned           bool             `json:"abandoned"`
}

// Loaded reports whether a workout has been set.
func (s State) Loaded() bool {
	return s.Playlist != nil
}

// Playing reports whether an entry is currently up and the session is live.
func (s State) Playing() bool {
	return s.Loaded() && !s.WorkoutDone && !s.Abandoned && s.Index >= 0 && s.Index < len(s.Playlist)
}

// Current returns the entry at Index, if any.
func (s State) Current() (playlist.Entry, bool) {
	if s.Index < 0 || s.Index >= len(s.Playlist) {
		return playlist.Entry{}, false
	}
	return s.Playlist[s.Index], true
}

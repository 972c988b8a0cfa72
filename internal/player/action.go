package player

import (
	"errors"
	"fmt"

	"tlm/coach-api/internal/domain"
)

// ActionType is the wire name of an action.
type ActionType string

const (
	ActionSetWorkout       ActionType = "SET_WORKOUT"
	ActionNextVideo        ActionType = "NEXT_VIDEO"
	ActionPrevVideo        ActionType = "PREV_VIDEO"
	ActionSetVideoIndex    ActionType = "SET_VIDEO_IDX"
	ActionSetVideoError    ActionType = "SET_VIDEO_ERROR"
	ActionShowInstructions ActionType = "SHOW_INSTRUCTIONS"
	ActionAbandon          ActionType = "ABANDON"
	ActionResume           ActionType = "RESUME"
)

// Action is one of the concrete action types declared in this file.
type Action interface {
	Type() ActionType
	isAction()
}

// SetWorkout loads a workout, resolving its playlist for the client's state.
type SetWorkout struct {
	Workout    *domain.Workout
	IsPregnant bool
}

// NextVideo advances to the following entry.
type NextVideo struct{}

// PrevVideo steps back one entry. It is a no-op at the first entry.
type PrevVideo struct{}

// SetVideoIndex jumps straight to an entry.
type SetVideoIndex struct {
	Index int
}

// SetVideoError records whether the current video failed to play.
type SetVideoError struct {
	Err bool
}

// ShowInstructions toggles the instruction overlay.
type ShowInstructions struct {
	Show bool
}

// Abandon pauses the session. It can be undone with Resume.
type Abandon struct{}

// Resume continues an abandoned session.
type Resume struct{}

func (SetWorkout) Type() ActionType       { return ActionSetWorkout }
func (NextVideo) Type() ActionType        { return ActionNextVideo }
func (PrevVideo) Type() ActionType        { return ActionPrevVideo }
func (SetVideoIndex) Type() ActionType    { return ActionSetVideoIndex }
func (SetVideoError) Type() ActionType    { return ActionSetVideoError }
func (ShowInstructions) Type() ActionType { return ActionShowInstructions }
func (Abandon) Type() ActionType          { return ActionAbandon }
func (Resume) Type() ActionType           { return ActionResume }

func (SetWorkout) isAction()       {}
func (NextVideo) isAction()        {}
func (PrevVideo) isAction()        {}
func (SetVideoIndex) isAction()    {}
func (SetVideoError) isAction()    {}
func (ShowInstructions) isAction() {}
func (Abandon) isAction()          {}
func (Resume) isAction()           {}

// ErrUnknownAction is returned by ParseAction for unrecognised action names.
var ErrUnknownAction = errors.New("unknown playback action")

// ParseAction builds a client-issued action from its wire form. SET_WORKOUT
// is not accepted here: workouts are only loaded when a session starts.
func ParseAction(name string, index int, flag bool) (Action, error) {
	switch ActionType(name) {
	case ActionNextVideo:
		return NextVideo{}, nil
	case ActionPrevVideo:
		return PrevVideo{}, nil
	case ActionSetVideoIndex:
		return SetVideoIndex{Index: index}, nil
	case ActionSetVideoError:
		return SetVideoError{Err: flag}, nil
	case ActionShowInstructions:
		return ShowInstructions{Show: flag}, nil
	case ActionAbandon:
		return Abandon{}, nil
	case ActionResume:
		return Resume{}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownAction, name)
}

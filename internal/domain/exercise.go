// internal/domain/exercise.go
package domain

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Intensity bounds for an exercise.
const (
	MinIntensity = 1
	MaxIntensity = 10
)

// BreakExerciseName is the library name used for rest intervals.
const BreakExerciseName = "Break"

// Exercise represents a single exercise definition in the library.
type Exercise struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	TrainerID       primitive.ObjectID `bson:"trainerId" json:"trainerId"` // Trainer or editor who created the exercise
	Name            string             `bson:"name" json:"name"`
	Description     string             `bson:"description,omitempty" json:"description,omitempty"` // Shown instead of video for custom exercises
	MovementPattern string             `bson:"movementPattern,omitempty" json:"movementPattern,omitempty"` // e.g., "Squat", "Hinge", "Core"
	Intensity       int                `bson:"intensity" json:"intensity"` // 1 - 10
	Duration        int                `bson:"duration" json:"duration"`   // Seconds

	Prenatal    MediaPair `bson:"prenatal" json:"prenatal"`
	Postnatal   MediaPair `bson:"postnatal" json:"postnatal"`
	Instruction MediaPair `bson:"instruction" json:"instruction"`

	IsBreak       bool `bson:"isBreak" json:"isBreak"`
	IsCustom      bool `bson:"isCustom" json:"isCustom"`
	PreComposited bool `bson:"preComposited" json:"preComposited"`
	Published     bool `bson:"published" json:"published"`
	Archived      bool `bson:"archived" json:"archived"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// Break reports whether the exercise is a rest interval. Older break entries
// only carry the reserved name, so the name is checked as well as the flag.
func (e *Exercise) Break() bool {
	return e.IsBreak || strings.EqualFold(strings.TrimSpace(e.Name), BreakExerciseName)
}

// Media returns the pair stored in the given slot.
func (e *Exercise) Media(slot MediaSlot) MediaPair {
	switch slot {
	case MediaSlotPrenatal:
		return e.Prenatal
	case MediaSlotPostnatal:
		return e.Postnatal
	case MediaSlotInstruction:
		return e.Instruction
	}
	return MediaPair{}
}

// SetMedia replaces one half of the pair stored in the given slot.
func (e *Exercise) SetMedia(slot MediaSlot, kind MediaKind, ref MediaRef) {
	var pair *MediaPair
	switch slot {
	case MediaSlotPrenatal:
		pair = &e.Prenatal
	case MediaSlotPostnatal:
		pair = &e.Postnatal
	case MediaSlotInstruction:
		pair = &e.Instruction
	default:
		return
	}
	if kind == MediaKindThumb {
		pair.Thumb = ref
	} else {
		pair.Video = ref
	}
}

// MediaNames lists every present media object name of the exercise.
func (e *Exercise) MediaNames() []string {
	var names []string
	for _, pair := range []MediaPair{e.Prenatal, e.Postnatal, e.Instruction} {
		if pair.Video.Present() {
			names = append(names, pair.Video.Name)
		}
		if pair.Thumb.Present() {
			names = append(names, pair.Thumb.Name)
		}
	}
	return names
}

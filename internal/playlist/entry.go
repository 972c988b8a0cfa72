// Package playlist turns a workout into the ordered list of media segments
// a client plays through.
package playlist

// EntryType tags how a playlist entry is presented.
type EntryType string

const (
	TypeHasInstructions EntryType = "HAS_INSTRUCTIONS"
	TypeNoInstructions  EntryType = "NO_INSTRUCTIONS"
	TypeBreak           EntryType = "BREAK"
	TypeCustom          EntryType = "CUSTOM"
)

// BreakIndex is the position assigned to every break entry.
const BreakIndex = -1

// Entry is one playable unit of a workout. Entries are derived on load and
// never persisted or mutated.
type Entry struct {
	Type                  EntryType `json:"type"`
	Name                  string    `json:"name"`
	ExerciseID            string    `json:"exerciseId,omitempty"`
	VideoSourceName       string    `json:"videoSourceName,omitempty"`
	VideoThumbName        string    `json:"videoThumbName,omitempty"`
	InstructionSourceName string    `json:"instructionSourceName,omitempty"`
	InstructionThumbName  string    `json:"instructionThumbName,omitempty"`
	Description           string    `json:"description,omitempty"` // Custom entries only
	Duration              int       `json:"duration"`              // Seconds
	PreComposited         bool      `json:"preComposited"`
	Index                 int       `json:"index"`
}

// IsBreak reports whether the entry is a rest interval.
func (e Entry) IsBreak() bool {
	return e.Type == TypeBreak
}

// HasInstructions reports whether an instruction video is attached.
func (e Entry) HasInstructions() bool {
	return e.Type == TypeHasInstructions
}

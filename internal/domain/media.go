package domain

// MediaRef names one stored media object (a video or a thumbnail).
// The zero value is the "absent" variant: older exercise documents store
// missing media as an empty sub-document, which decodes to a MediaRef with
// an empty Name.
type MediaRef struct {
	Name string `bson:"name,omitempty" json:"name,omitempty"` // Object name in the media bucket
}

// Present reports whether the reference points at an actual media object.
func (m MediaRef) Present() bool {
	return m.Name != ""
}

// MediaPair groups a video with its thumbnail. Either half may be absent.
type MediaPair struct {
	Video MediaRef `bson:"video" json:"video"`
	Thumb MediaRef `bson:"thumb" json:"thumb"`
}

// MediaSlot identifies one of the three media pairs of an exercise.
type MediaSlot string

const (
	MediaSlotPrenatal    MediaSlot = "prenatal"
	MediaSlotPostnatal   MediaSlot = "postnatal"
	MediaSlotInstruction MediaSlot = "instruction"
)

// MediaKind picks the video or the thumbnail half of a MediaPair.
type MediaKind string

const (
	MediaKindVideo MediaKind = "video"
	MediaKindThumb MediaKind = "thumb"
)

// Valid reports whether s is a known slot.
func (s MediaSlot) Valid() bool {
	switch s {
	case MediaSlotPrenatal, MediaSlotPostnatal, MediaSlotInstruction:
		return true
	}
	return false
}

// Valid reports whether k is a known kind.
func (k MediaKind) Valid() bool {
	return k == MediaKindVideo || k == MediaKindThumb
}

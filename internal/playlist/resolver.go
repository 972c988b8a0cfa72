package playlist

import (
	"log"

	"tlm/coach-api/internal/domain"
)

// Default media object names used for every break.
const (
	DefaultBreakVideo = "break/break.mp4"
	DefaultBreakThumb = "break/break.jpg"
)

// Resolver builds playlists. The zero value uses the default break media.
type Resolver struct {
	BreakVideo string
	BreakThumb string
}

// NewResolver returns a Resolver with the given break media, falling back to
// the defaults for empty names.
func NewResolver(breakVideo, breakThumb string) Resolver {
	if breakVideo == "" {
		breakVideo = DefaultBreakVideo
	}
	if breakThumb == "" {
		breakThumb = DefaultBreakThumb
	}
	return Resolver{BreakVideo: breakVideo, BreakThumb: breakThumb}
}

// Resolve builds a playlist with the default break media.
func Resolve(workout *domain.Workout, isPregnant bool) []Entry {
	return Resolver{}.Resolve(workout, isPregnant)
}

// Resolve converts the workout's exercises, in order, into playlist entries.
//
// Pregnant clients get prenatal media, everybody else postnatal; when the
// preferred variant is missing the other one is used. Video and thumbnail are
// chosen independently and an exercise missing either is left out of the
// playlist. Missing media is logged, never returned as an error.
func (r Resolver) Resolve(workout *domain.Workout, isPregnant bool) []Entry {
	if workout == nil {
		return []Entry{}
	}
	breakVideo, breakThumb := r.BreakVideo, r.BreakThumb
	if breakVideo == "" {
		breakVideo = DefaultBreakVideo
	}
	if breakThumb == "" {
		breakThumb = DefaultBreakThumb
	}

	entries := make([]Entry, 0, len(workout.Exercises))
	counter := 0
	for i := range workout.Exercises {
		ex := &workout.Exercises[i]

		if ex.Break() {
			entries = append(entries, Entry{
				Type:            TypeBreak,
				Name:            ex.Name,
				ExerciseID:      hexID(ex),
				VideoSourceName: breakVideo,
				VideoThumbName:  breakThumb,
				Duration:        ex.Duration,
				Index:           BreakIndex,
			})
			continue
		}

		// Dropped exercises still consume their position so the index keeps
		// matching the exercise number the trainer sees.
		counter++

		if ex.IsCustom {
			entries = append(entries, Entry{
				Type:          TypeCustom,
				Name:          ex.Name,
				ExerciseID:    hexID(ex),
				Description:   ex.Description,
				Duration:      ex.Duration,
				PreComposited: ex.PreComposited,
				Index:         counter,
			})
			continue
		}

		video, ok := pick(ex.Prenatal.Video, ex.Postnatal.Video, isPregnant)
		if !ok {
			log.Printf("WARN: Exercise '%s' (%s) in workout %s has no video, skipping", ex.Name, hexID(ex), workout.ID.Hex())
			continue
		}
		thumb, ok := pick(ex.Prenatal.Thumb, ex.Postnatal.Thumb, isPregnant)
		if !ok {
			log.Printf("WARN: Exercise '%s' (%s) in workout %s has no thumbnail, skipping", ex.Name, hexID(ex), workout.ID.Hex())
			continue
		}

		entry := Entry{
			Type:            TypeNoInstructions,
			Name:            ex.Name,
			ExerciseID:      hexID(ex),
			VideoSourceName: video.Name,
			VideoThumbName:  thumb.Name,
			Duration:        ex.Duration,
			PreComposited:   ex.PreComposited,
			Index:           counter,
		}
		if ex.Instruction.Video.Present() {
			entry.Type = TypeHasInstructions
			entry.InstructionSourceName = ex.Instruction.Video.Name
			entry.InstructionThumbName = ex.Instruction.Thumb.Name
		}
		entries = append(entries, entry)
	}
	return entries
}

// pick returns the variant matching the client's state, else the other one.
func pick(prenatal, postnatal domain.MediaRef, isPregnant bool) (domain.MediaRef, bool) {
	preferred, fallback := postnatal, prenatal
	if isPregnant {
		preferred, fallback = prenatal, postnatal
	}
	if preferred.Present() {
		return preferred, true
	}
	if fallback.Present() {
		return fallback, true
	}
	return domain.MediaRef{}, false
}

func hexID(ex *domain.Exercise) string {
	if ex.ID.IsZero() {
		return ""
	}
	return ex.ID.Hex()
}

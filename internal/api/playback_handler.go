package api

import (
	"errors"
	"log"
	"net/http"
	"time"

	"tlm/coach-api/internal/player"
	"tlm/coach-api/internal/playlist"
	"tlm/coach-api/internal/repository"
	"tlm/coach-api/internal/service"

	"github.com/gin-gonic/gin"
)

// PlaybackHandler drives playback sessions for clients.
type PlaybackHandler struct {
	playbackService service.PlaybackService
}

func NewPlaybackHandler(playbackService service.PlaybackService) *PlaybackHandler {
	return &PlaybackHandler{playbackService: playbackService}
}

// ActionRequest is the wire form of a playback action. Index is read by
// SET_VIDEO_IDX, Flag by SET_VIDEO_ERROR and SHOW_INSTRUCTIONS.
type ActionRequest struct {
	Type         string   `json:"type" binding:"required"`
	Index        int      `json:"index"`
	Flag         bool     `json:"flag"`
	PlaybackTime *float64 `json:"playbackTime" binding:"omitempty,min=0"` // Seconds into the current video
}

type SessionResponse struct {
	ID        string          `json:"id"`
	WorkoutID string          `json:"workoutId"`
	State     player.State    `json:"state"`
	Current   *playlist.Entry `json:"current,omitempty"`
	StartedAt time.Time       `json:"startedAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

func MapSessionToResponse(s *repository.PlaybackSession) SessionResponse {
	resp := SessionResponse{
		ID:        s.ID,
		WorkoutID: s.WorkoutID.Hex(),
		State:     s.State,
		StartedAt: s.StartedAt,
		UpdatedAt: s.UpdatedAt,
	}
	if entry, ok := s.State.Current(); ok {
		resp.Current = &entry
	}
	return resp
}

// abortWithPlaybackError maps playback service errors to HTTP statuses.
func abortWithPlaybackError(c *gin.Context, err error, action string) {
	switch {
	case errors.Is(err, player.ErrUnknownAction),
		errors.Is(err, service.ErrInvalidVideoIndex),
		errors.Is(err, service.ErrEmptyWorkout):
		abortWithError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrSessionNotFound),
		errors.Is(err, service.ErrWorkoutNotFound),
		errors.Is(err, service.ErrClientNotFound):
		abortWithError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrSessionAccessDenied),
		errors.Is(err, service.ErrWorkoutAccessDenied):
		abortWithError(c, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrWorkoutDone),
		errors.Is(err, service.ErrNothingPlaying),
		errors.Is(err, service.ErrSessionBusy):
		abortWithError(c, http.StatusConflict, err.Error())
	default:
		log.Printf("ERROR: Failed to %s: %v", action, err)
		abortWithError(c, http.StatusInternalServerError, "Failed to "+action+".")
	}
}

// StartPlayback godoc
// @Summary Start or resume playing a workout
// @Tags Playback
// @Produce json
// @Security BearerAuth
// @Param workoutId path string true "Workout ID"
// @Success 201 {object} SessionResponse
// @Router /client/workouts/{workoutId}/playback [post]
func (h *PlaybackHandler) StartPlayback(c *gin.Context) {
	workoutID, ok := objectIDParam(c, "workoutId")
	if !ok {
		return
	}
	clientID, _, ok := requester(c)
	if !ok {
		return
	}

	session, err := h.playbackService.StartSession(c.Request.Context(), clientID, workoutID)
	if err != nil {
		abortWithPlaybackError(c, err, "start playback")
		return
	}
	c.JSON(http.StatusCreated, MapSessionToResponse(session))
}

// GetPlayback godoc
// @Summary Get a playback session
// @Tags Playback
// @Produce json
// @Security BearerAuth
// @Param sessionId path string true "Session ID"
// @Success 200 {object} SessionResponse
// @Router /playback/{sessionId} [get]
func (h *PlaybackHandler) GetPlayback(c *gin.Context) {
	clientID, _, ok := requester(c)
	if !ok {
		return
	}

	session, err := h.playbackService.GetSession(c.Request.Context(), clientID, c.Param("sessionId"))
	if err != nil {
		abortWithPlaybackError(c, err, "retrieve playback session")
		return
	}
	c.JSON(http.StatusOK, MapSessionToResponse(session))
}

// DispatchAction godoc
// @Summary Apply a playback action
// @Tags Playback
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param sessionId path string true "Session ID"
// @Param action body ActionRequest true "Action"
// @Success 200 {object} SessionResponse
// @Failure 400 {object} gin.H "Unknown action or index out of range"
// @Failure 409 {object} gin.H "Workout already done"
// @Router /playback/{sessionId}/actions [post]
func (h *PlaybackHandler) DispatchAction(c *gin.Context) {
	var req ActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	action, err := player.ParseAction(req.Type, req.Index, req.Flag)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}
	clientID, _, ok := requester(c)
	if !ok {
		return
	}

	session, err := h.playbackService.Dispatch(c.Request.Context(), clientID, c.Param("sessionId"), action, req.PlaybackTime)
	if err != nil {
		abortWithPlaybackError(c, err, "apply playback action")
		return
	}
	c.JSON(http.StatusOK, MapSessionToResponse(session))
}

// CurrentMedia godoc
// @Summary Get fetchable URLs for the entry being played
// @Tags Playback
// @Produce json
// @Security BearerAuth
// @Param sessionId path string true "Session ID"
// @Success 200 {object} service.MediaURLs
// @Failure 409 {object} gin.H "Nothing is playing"
// @Router /playback/{sessionId}/media [get]
func (h *PlaybackHandler) CurrentMedia(c *gin.Context) {
	clientID, _, ok := requester(c)
	if !ok {
		return
	}

	media, err := h.playbackService.CurrentMedia(c.Request.Context(), clientID, c.Param("sessionId"))
	if err != nil {
		abortWithPlaybackError(c, err, "resolve media")
		return
	}
	c.JSON(http.StatusOK, media)
}

// EndPlayback godoc
// @Summary End a playback session
// @Tags Playback
// @Security BearerAuth
// @Param sessionId path string true "Session ID"
// @Success 204 "Ended"
// @Router /playback/{sessionId} [delete]
func (h *PlaybackHandler) EndPlayback(c *gin.Context) {
	clientID, _, ok := requester(c)
	if !ok {
		return
	}

	if err := h.playbackService.EndSession(c.Request.Context(), clientID, c.Param("sessionId")); err != nil {
		abortWithPlaybackError(c, err, "end playback session")
		return
	}
	c.Status(http.StatusNoContent)
}

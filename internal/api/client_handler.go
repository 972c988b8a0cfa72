package api

import (
	"net/http"

	"tlm/coach-api/internal/playlist"
	"tlm/coach-api/internal/service"

	"github.com/gin-gonic/gin"
)

// ClientHandler serves a client's own workouts.
type ClientHandler struct {
	workoutService  service.WorkoutService
	playbackService service.PlaybackService
}

func NewClientHandler(workoutService service.WorkoutService, playbackService service.PlaybackService) *ClientHandler {
	return &ClientHandler{
		workoutService:  workoutService,
		playbackService: playbackService,
	}
}

// GetMyWorkouts godoc
// @Summary List the client's workouts
// @Tags Client
// @Produce json
// @Security BearerAuth
// @Success 200 {array} WorkoutResponse
// @Router /client/workouts [get]
func (h *ClientHandler) GetMyWorkouts(c *gin.Context) {
	clientID, role, ok := requester(c)
	if !ok {
		return
	}

	workouts, err := h.workoutService.ListClientWorkouts(c.Request.Context(), clientID, role, clientID)
	if err != nil {
		abortWithWorkoutError(c, err, "retrieve workouts")
		return
	}
	c.JSON(http.StatusOK, MapWorkoutsToResponse(workouts))
}

// GetMyWorkout godoc
// @Summary Get one of the client's workouts
// @Tags Client
// @Produce json
// @Security BearerAuth
// @Param workoutId path string true "Workout ID"
// @Success 200 {object} WorkoutResponse
// @Failure 403 {object} gin.H "Workout belongs to another client"
// @Failure 404 {object} gin.H "Workout not found"
// @Router /client/workouts/{workoutId} [get]
func (h *ClientHandler) GetMyWorkout(c *gin.Context) {
	workoutID, ok := objectIDParam(c, "workoutId")
	if !ok {
		return
	}
	clientID, role, ok := requester(c)
	if !ok {
		return
	}

	workout, err := h.workoutService.GetWorkout(c.Request.Context(), clientID, role, workoutID)
	if err != nil {
		abortWithWorkoutError(c, err, "retrieve workout")
		return
	}
	c.JSON(http.StatusOK, MapWorkoutToResponse(workout))
}

// GetPlaylist godoc
// @Summary Preview the playlist a workout resolves to for this client
// @Description Exercises without usable media are left out; breaks carry index -1.
// @Tags Client
// @Produce json
// @Security BearerAuth
// @Param workoutId path string true "Workout ID"
// @Success 200 {array} playlist.Entry
// @Router /client/workouts/{workoutId}/playlist [get]
func (h *ClientHandler) GetPlaylist(c *gin.Context) {
	workoutID, ok := objectIDParam(c, "workoutId")
	if !ok {
		return
	}
	clientID, _, ok := requester(c)
	if !ok {
		return
	}

	entries, err := h.playbackService.Playlist(c.Request.Context(), clientID, workoutID)
	if err != nil {
		abortWithWorkoutError(c, err, "resolve playlist")
		return
	}
	if entries == nil {
		entries = []playlist.Entry{}
	}
	c.JSON(http.StatusOK, entries)
}

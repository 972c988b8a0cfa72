package api

import (
	"errors"
	"log"
	"net/http"
	"time"

	"tlm/coach-api/internal/domain"
	"tlm/coach-api/internal/service"

	"github.com/gin-gonic/gin"
)

// ExerciseHandler holds the exercise service dependency.
type ExerciseHandler struct {
	exerciseService service.ExerciseService
}

// NewExerciseHandler creates a new ExerciseHandler.
func NewExerciseHandler(exerciseService service.ExerciseService) *ExerciseHandler {
	return &ExerciseHandler{exerciseService: exerciseService}
}

// --- DTOs for API (Data Transfer Objects) ---

// ExerciseRequest defines the expected JSON for creating or updating an exercise.
type ExerciseRequest struct {
	Name            string `json:"name" binding:"required"`
	Description     string `json:"description"`
	MovementPattern string `json:"movementPattern"`          // e.g. "squat", "hinge"
	Intensity       int    `json:"intensity" binding:"min=0"` // 1-10; ignored for breaks and custom exercises
	Duration        int    `json:"duration" binding:"min=0"`  // Seconds
	IsBreak         bool   `json:"isBreak"`
	IsCustom        bool   `json:"isCustom"`
	PreComposited   bool   `json:"preComposited"`
	Published       bool   `json:"published"`
}

func (r ExerciseRequest) toInput() service.ExerciseInput {
	return service.ExerciseInput{
		Name:            r.Name,
		Description:     r.Description,
		MovementPattern: r.MovementPattern,
		Intensity:       r.Intensity,
		Duration:        r.Duration,
		IsBreak:         r.IsBreak,
		IsCustom:        r.IsCustom,
		PreComposited:   r.PreComposited,
		Published:       r.Published,
	}
}

type ArchiveExerciseRequest struct {
	Archived *bool `json:"archived" binding:"required"`
}

type MediaUploadURLRequest struct {
	Slot        domain.MediaSlot `json:"slot" binding:"required,oneof=prenatal postnatal instruction"`
	Kind        domain.MediaKind `json:"kind" binding:"required,oneof=video thumb"`
	ContentType string           `json:"contentType" binding:"required"`
}

type ConfirmMediaRequest struct {
	Slot      domain.MediaSlot `json:"slot" binding:"required,oneof=prenatal postnatal instruction"`
	Kind      domain.MediaKind `json:"kind" binding:"required,oneof=video thumb"`
	ObjectKey string           `json:"objectKey" binding:"required"`
}

// MediaPairResponse carries storage names, not URLs.
type MediaPairResponse struct {
	Video string `json:"video,omitempty"`
	Thumb string `json:"thumb,omitempty"`
}

// ExerciseResponse is the DTO for returning exercise details.
type ExerciseResponse struct {
	ID              string            `json:"id"`
	TrainerID       string            `json:"trainerId"`
	Name            string            `json:"name"`
	Description     string            `json:"description,omitempty"`
	MovementPattern string            `json:"movementPattern,omitempty"`
	Intensity       int               `json:"intensity"`
	Duration        int               `json:"duration"`
	Prenatal        MediaPairResponse `json:"prenatal"`
	Postnatal       MediaPairResponse `json:"postnatal"`
	Instruction     MediaPairResponse `json:"instruction"`
	IsBreak         bool              `json:"isBreak"`
	IsCustom        bool              `json:"isCustom"`
	PreComposited   bool              `json:"preComposited"`
	Published       bool              `json:"published"`
	Archived        bool              `json:"archived"`
	CreatedAt       time.Time         `json:"createdAt"`
	UpdatedAt       time.Time         `json:"updatedAt"`
}

func mapMediaPair(p domain.MediaPair) MediaPairResponse {
	return MediaPairResponse{Video: p.Video.Name, Thumb: p.Thumb.Name}
}

// MapExerciseToResponse converts a domain.Exercise to ExerciseResponse DTO.
func MapExerciseToResponse(ex *domain.Exercise) ExerciseResponse {
	if ex == nil {
		return ExerciseResponse{}
	}
	return ExerciseResponse{
		ID:              ex.ID.Hex(),
		TrainerID:       ex.TrainerID.Hex(),
		Name:            ex.Name,
		Description:     ex.Description,
		MovementPattern: ex.MovementPattern,
		Intensity:       ex.Intensity,
		Duration:        ex.Duration,
		Prenatal:        mapMediaPair(ex.Prenatal),
		Postnatal:       mapMediaPair(ex.Postnatal),
		Instruction:     mapMediaPair(ex.Instruction),
		IsBreak:         ex.Break(),
		IsCustom:        ex.IsCustom,
		PreComposited:   ex.PreComposited,
		Published:       ex.Published,
		Archived:        ex.Archived,
		CreatedAt:       ex.CreatedAt,
		UpdatedAt:       ex.UpdatedAt,
	}
}

// MapExercisesToResponse converts a slice of domain.Exercise to a slice of ExerciseResponse DTO.
func MapExercisesToResponse(exercises []domain.Exercise) []ExerciseResponse {
	responses := make([]ExerciseResponse, len(exercises))
	for i := range exercises {
		responses[i] = MapExerciseToResponse(&exercises[i])
	}
	return responses
}

// abortWithExerciseError maps exercise service errors to HTTP statuses.
func abortWithExerciseError(c *gin.Context, err error, action string) {
	switch {
	case errors.Is(err, service.ErrValidationFailed),
		errors.Is(err, service.ErrInvalidMediaSlot),
		errors.Is(err, service.ErrInvalidContentType):
		abortWithError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrExerciseNotFound):
		abortWithError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrExerciseAccessDenied):
		abortWithError(c, http.StatusForbidden, err.Error())
	default:
		log.Printf("ERROR: Failed to %s: %v", action, err)
		abortWithError(c, http.StatusInternalServerError, "Failed to "+action+".")
	}
}

// --- Handler Methods ---

// CreateExercise godoc
// @Summary Create a new exercise
// @Tags Exercises
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param exercise body ExerciseRequest true "Exercise details"
// @Success 201 {object} ExerciseResponse "Exercise created successfully"
// @Failure 400 {object} gin.H "Invalid input (validation error)"
// @Failure 403 {object} gin.H "Forbidden (not a trainer or editor)"
// @Router /exercises [post]
func (h *ExerciseHandler) CreateExercise(c *gin.Context) {
	var req ExerciseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	authorID, _, ok := requester(c)
	if !ok {
		return
	}

	exercise, err := h.exerciseService.CreateExercise(c.Request.Context(), authorID, req.toInput())
	if err != nil {
		abortWithExerciseError(c, err, "create exercise")
		return
	}
	c.JSON(http.StatusCreated, MapExerciseToResponse(exercise))
}

// ListExercises godoc
// @Summary List exercises
// @Description Returns the published library, or the caller's own exercises with ?mine=true.
// @Tags Exercises
// @Produce json
// @Security BearerAuth
// @Param mine query bool false "Only the caller's exercises"
// @Param movementPattern query string false "Filter by movement pattern"
// @Success 200 {array} ExerciseResponse "List of exercises"
// @Router /exercises [get]
func (h *ExerciseHandler) ListExercises(c *gin.Context) {
	userID, _, ok := requester(c)
	if !ok {
		return
	}
	mine := c.Query("mine") == "true"

	exercises, err := h.exerciseService.ListExercises(c.Request.Context(), userID, mine, c.Query("movementPattern"))
	if err != nil {
		abortWithExerciseError(c, err, "retrieve exercises")
		return
	}
	c.JSON(http.StatusOK, MapExercisesToResponse(exercises))
}

// GetExercise godoc
// @Summary Get one exercise
// @Tags Exercises
// @Produce json
// @Security BearerAuth
// @Param id path string true "Exercise ID"
// @Success 200 {object} ExerciseResponse
// @Failure 404 {object} gin.H "Exercise not found"
// @Router /exercises/{id} [get]
func (h *ExerciseHandler) GetExercise(c *gin.Context) {
	exerciseID, ok := objectIDParam(c, "id")
	if !ok {
		return
	}
	exercise, err := h.exerciseService.GetExerciseByID(c.Request.Context(), exerciseID)
	if err != nil {
		abortWithExerciseError(c, err, "retrieve exercise")
		return
	}
	c.JSON(http.StatusOK, MapExerciseToResponse(exercise))
}

// UpdateExercise godoc
// @Summary Update an exercise
// @Tags Exercises
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Exercise ID"
// @Param exercise body ExerciseRequest true "Exercise details"
// @Success 200 {object} ExerciseResponse
// @Failure 403 {object} gin.H "Not the owner"
// @Router /exercises/{id} [put]
func (h *ExerciseHandler) UpdateExercise(c *gin.Context) {
	exerciseID, ok := objectIDParam(c, "id")
	if !ok {
		return
	}
	var req ExerciseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	userID, role, ok := requester(c)
	if !ok {
		return
	}

	exercise, err := h.exerciseService.UpdateExercise(c.Request.Context(), userID, role, exerciseID, req.toInput())
	if err != nil {
		abortWithExerciseError(c, err, "update exercise")
		return
	}
	c.JSON(http.StatusOK, MapExerciseToResponse(exercise))
}

// ArchiveExercise godoc
// @Summary Archive or restore an exercise
// @Tags Exercises
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Exercise ID"
// @Param body body ArchiveExerciseRequest true "Archive flag"
// @Success 200 {object} ExerciseResponse
// @Router /exercises/{id}/archive [post]
func (h *ExerciseHandler) ArchiveExercise(c *gin.Context) {
	exerciseID, ok := objectIDParam(c, "id")
	if !ok {
		return
	}
	var req ArchiveExerciseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	userID, role, ok := requester(c)
	if !ok {
		return
	}

	exercise, err := h.exerciseService.ArchiveExercise(c.Request.Context(), userID, role, exerciseID, *req.Archived)
	if err != nil {
		abortWithExerciseError(c, err, "archive exercise")
		return
	}
	c.JSON(http.StatusOK, MapExerciseToResponse(exercise))
}

// DeleteExercise godoc
// @Summary Delete an exercise and its media
// @Tags Exercises
// @Security BearerAuth
// @Param id path string true "Exercise ID"
// @Success 204 "Deleted"
// @Failure 403 {object} gin.H "Not the owner"
// @Router /exercises/{id} [delete]
func (h *ExerciseHandler) DeleteExercise(c *gin.Context) {
	exerciseID, ok := objectIDParam(c, "id")
	if !ok {
		return
	}
	userID, _, ok := requester(c)
	if !ok {
		return
	}

	if err := h.exerciseService.DeleteExercise(c.Request.Context(), userID, exerciseID); err != nil {
		abortWithExerciseError(c, err, "delete exercise")
		return
	}
	c.Status(http.StatusNoContent)
}

// RequestMediaUploadURL godoc
// @Summary Get a presigned upload URL for one exercise media slot
// @Tags Exercises
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Exercise ID"
// @Param body body MediaUploadURLRequest true "Slot, kind and content type"
// @Success 200 {object} service.UploadURLResponse
// @Router /exercises/{id}/media-upload-url [post]
func (h *ExerciseHandler) RequestMediaUploadURL(c *gin.Context) {
	exerciseID, ok := objectIDParam(c, "id")
	if !ok {
		return
	}
	var req MediaUploadURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	userID, role, ok := requester(c)
	if !ok {
		return
	}

	resp, err := h.exerciseService.RequestMediaUploadURL(c.Request.Context(), userID, role, exerciseID, req.Slot, req.Kind, req.ContentType)
	if err != nil {
		abortWithExerciseError(c, err, "generate upload URL")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ConfirmMediaUpload godoc
// @Summary Attach an uploaded object to an exercise media slot
// @Tags Exercises
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Exercise ID"
// @Param body body ConfirmMediaRequest true "Slot, kind and the uploaded object key"
// @Success 200 {object} ExerciseResponse
// @Router /exercises/{id}/media [put]
func (h *ExerciseHandler) ConfirmMediaUpload(c *gin.Context) {
	exerciseID, ok := objectIDParam(c, "id")
	if !ok {
		return
	}
	var req ConfirmMediaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	userID, role, ok := requester(c)
	if !ok {
		return
	}

	exercise, err := h.exerciseService.ConfirmMediaUpload(c.Request.Context(), userID, role, exerciseID, req.Slot, req.Kind, req.ObjectKey)
	if err != nil {
		abortWithExerciseError(c, err, "attach media")
		return
	}
	c.JSON(http.StatusOK, MapExerciseToResponse(exercise))
}

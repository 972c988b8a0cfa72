package api

import (
	"errors"
	"log"
	"net/http"
	"time"

	"tlm/coach-api/internal/domain"
	"tlm/coach-api/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TrainerHandler serves the trainer's roster, client workouts and templates.
type TrainerHandler struct {
	workoutService service.WorkoutService
}

func NewTrainerHandler(workoutService service.WorkoutService) *TrainerHandler {
	return &TrainerHandler{workoutService: workoutService}
}

// --- DTOs ---

type AddClientRequest struct {
	ClientEmail string `json:"clientEmail" binding:"required,email"`
}

type PregnancyRequest struct {
	IsPregnant *bool `json:"isPregnant" binding:"required"`
}

type WorkoutRequest struct {
	Name        string             `json:"name" binding:"required"`
	WorkoutType domain.WorkoutType `json:"workoutType" binding:"required,oneof=normal mobility"`
	ExerciseIDs []string           `json:"exerciseIds" binding:"required,min=1"` // Playback order; repeats allowed
}

type PrebuiltWorkoutRequest struct {
	WorkoutRequest
	Visibility domain.Visibility `json:"visibility" binding:"required,oneof=TLM private shared"`
}

type AssignPrebuiltRequest struct {
	ClientID string `json:"clientId" binding:"required"`
}

type WorkoutResponse struct {
	ID          string                 `json:"id"`
	TrainerID   string                 `json:"trainerId"`
	ClientID    string                 `json:"clientId,omitempty"`
	Name        string                 `json:"name"`
	WorkoutType domain.WorkoutType     `json:"workoutType"`
	Exercises   []ExerciseResponse     `json:"exercises"`
	Duration    int64                  `json:"duration"` // Milliseconds
	Progress    domain.WorkoutProgress `json:"progress"`
	CreatedAt   time.Time              `json:"createdAt"`
	StartedOn   *time.Time             `json:"startedOn,omitempty"`
	CompletedOn *time.Time             `json:"completedOn,omitempty"`
}

type PrebuiltWorkoutResponse struct {
	WorkoutResponse
	AuthorID   string            `json:"authorId"`
	Visibility domain.Visibility `json:"visibility"`
}

func MapWorkoutToResponse(w *domain.Workout) WorkoutResponse {
	if w == nil {
		return WorkoutResponse{}
	}
	resp := WorkoutResponse{
		ID:          w.ID.Hex(),
		TrainerID:   w.TrainerID.Hex(),
		Name:        w.Name,
		WorkoutType: w.WorkoutType,
		Exercises:   MapExercisesToResponse(w.Exercises),
		Duration:    w.Duration,
		Progress:    w.Progress,
		CreatedAt:   w.CreatedAt,
		StartedOn:   w.StartedOn,
		CompletedOn: w.CompletedOn,
	}
	if w.ClientID != primitive.NilObjectID {
		resp.ClientID = w.ClientID.Hex()
	}
	return resp
}

func MapWorkoutsToResponse(workouts []domain.Workout) []WorkoutResponse {
	responses := make([]WorkoutResponse, len(workouts))
	for i := range workouts {
		responses[i] = MapWorkoutToResponse(&workouts[i])
	}
	return responses
}

func MapPrebuiltWorkoutToResponse(p *domain.PrebuiltWorkout) PrebuiltWorkoutResponse {
	return PrebuiltWorkoutResponse{
		WorkoutResponse: MapWorkoutToResponse(&p.Workout),
		AuthorID:        p.AuthorID.Hex(),
		Visibility:      p.Visibility,
	}
}

func (r WorkoutRequest) toInput() (service.WorkoutInput, error) {
	ids := make([]primitive.ObjectID, len(r.ExerciseIDs))
	for i, hex := range r.ExerciseIDs {
		id, err := primitive.ObjectIDFromHex(hex)
		if err != nil {
			return service.WorkoutInput{}, errors.New("invalid exercise ID: " + hex)
		}
		ids[i] = id
	}
	return service.WorkoutInput{Name: r.Name, WorkoutType: r.WorkoutType, ExerciseIDs: ids}, nil
}

// abortWithWorkoutError maps workout service errors to HTTP statuses.
func abortWithWorkoutError(c *gin.Context, err error, action string) {
	switch {
	case errors.Is(err, service.ErrValidationFailed),
		errors.Is(err, service.ErrEmptyWorkout),
		errors.Is(err, service.ErrInvalidWorkoutType),
		errors.Is(err, service.ErrInvalidVisibility):
		abortWithError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrClientNotFound),
		errors.Is(err, service.ErrWorkoutNotFound),
		errors.Is(err, service.ErrExerciseNotFound),
		errors.Is(err, service.ErrPrebuiltWorkoutNotFound):
		abortWithError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrClientNotManaged),
		errors.Is(err, service.ErrWorkoutAccessDenied):
		abortWithError(c, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrClientAlreadyAssigned):
		abortWithError(c, http.StatusConflict, err.Error())
	default:
		log.Printf("ERROR: Failed to %s: %v", action, err)
		abortWithError(c, http.StatusInternalServerError, "Failed to "+action+".")
	}
}

// --- Roster ---

// AddClientByEmail godoc
// @Summary Add a client to the trainer's roster by email
// @Tags Trainer
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param clientRequest body AddClientRequest true "Client's email"
// @Success 200 {object} UserResponse "Client successfully added"
// @Failure 404 {object} gin.H "Client not found"
// @Failure 409 {object} gin.H "Client already has a trainer"
// @Router /trainer/clients [post]
func (h *TrainerHandler) AddClientByEmail(c *gin.Context) {
	var req AddClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	trainerID, _, ok := requester(c)
	if !ok {
		return
	}

	client, err := h.workoutService.AddClientByEmail(c.Request.Context(), trainerID, req.ClientEmail)
	if err != nil {
		abortWithWorkoutError(c, err, "add client")
		return
	}
	c.JSON(http.StatusOK, MapUserToResponse(client))
}

// GetManagedClients godoc
// @Summary Get the trainer's managed clients
// @Tags Trainer
// @Produce json
// @Security BearerAuth
// @Success 200 {array} UserResponse "List of managed clients"
// @Router /trainer/clients [get]
func (h *TrainerHandler) GetManagedClients(c *gin.Context) {
	trainerID, _, ok := requester(c)
	if !ok {
		return
	}

	clients, err := h.workoutService.GetManagedClients(c.Request.Context(), trainerID)
	if err != nil {
		abortWithWorkoutError(c, err, "retrieve managed clients")
		return
	}
	c.JSON(http.StatusOK, MapUsersToResponse(clients))
}

// SetClientPregnancy godoc
// @Summary Set whether a client receives prenatal media
// @Tags Trainer
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param clientId path string true "Client ID"
// @Param body body PregnancyRequest true "Pregnancy flag"
// @Success 200 {object} UserResponse
// @Router /trainer/clients/{clientId}/pregnancy [put]
func (h *TrainerHandler) SetClientPregnancy(c *gin.Context) {
	clientID, ok := objectIDParam(c, "clientId")
	if !ok {
		return
	}
	var req PregnancyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	trainerID, _, ok := requester(c)
	if !ok {
		return
	}

	client, err := h.workoutService.SetClientPregnancy(c.Request.Context(), trainerID, clientID, *req.IsPregnant)
	if err != nil {
		abortWithWorkoutError(c, err, "update client")
		return
	}
	c.JSON(http.StatusOK, MapUserToResponse(client))
}

// --- Client workouts ---

// CreateWorkout godoc
// @Summary Build a workout for a client
// @Tags Trainer
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param clientId path string true "Client ID"
// @Param workout body WorkoutRequest true "Workout details"
// @Success 201 {object} WorkoutResponse
// @Failure 400 {object} gin.H "Invalid input or empty workout"
// @Failure 403 {object} gin.H "Client not managed by this trainer"
// @Router /trainer/clients/{clientId}/workouts [post]
func (h *TrainerHandler) CreateWorkout(c *gin.Context) {
	clientID, ok := objectIDParam(c, "clientId")
	if !ok {
		return
	}
	var req WorkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	in, err := req.toInput()
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}
	trainerID, _, ok := requester(c)
	if !ok {
		return
	}

	workout, err := h.workoutService.CreateWorkout(c.Request.Context(), trainerID, clientID, in)
	if err != nil {
		abortWithWorkoutError(c, err, "create workout")
		return
	}
	c.JSON(http.StatusCreated, MapWorkoutToResponse(workout))
}

// GetClientWorkouts godoc
// @Summary List a managed client's workouts
// @Tags Trainer
// @Produce json
// @Security BearerAuth
// @Param clientId path string true "Client ID"
// @Success 200 {array} WorkoutResponse
// @Router /trainer/clients/{clientId}/workouts [get]
func (h *TrainerHandler) GetClientWorkouts(c *gin.Context) {
	clientID, ok := objectIDParam(c, "clientId")
	if !ok {
		return
	}
	trainerID, role, ok := requester(c)
	if !ok {
		return
	}

	workouts, err := h.workoutService.ListClientWorkouts(c.Request.Context(), trainerID, role, clientID)
	if err != nil {
		abortWithWorkoutError(c, err, "retrieve workouts")
		return
	}
	c.JSON(http.StatusOK, MapWorkoutsToResponse(workouts))
}

// --- Templates ---

// CreatePrebuiltWorkout godoc
// @Summary Save a reusable workout template
// @Tags PrebuiltWorkouts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param workout body PrebuiltWorkoutRequest true "Template details"
// @Success 201 {object} PrebuiltWorkoutResponse
// @Router /prebuilt-workouts [post]
func (h *TrainerHandler) CreatePrebuiltWorkout(c *gin.Context) {
	var req PrebuiltWorkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	in, err := req.toInput()
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}
	authorID, role, ok := requester(c)
	if !ok {
		return
	}
	// Platform-wide templates are curated by editors.
	if req.Visibility == domain.VisibilityTLM && role != domain.RoleEditor {
		abortWithError(c, http.StatusForbidden, "Only editors may publish TLM workouts")
		return
	}

	prebuilt, err := h.workoutService.CreatePrebuiltWorkout(c.Request.Context(), authorID, in, req.Visibility)
	if err != nil {
		abortWithWorkoutError(c, err, "create prebuilt workout")
		return
	}
	c.JSON(http.StatusCreated, MapPrebuiltWorkoutToResponse(prebuilt))
}

// ListPrebuiltWorkouts godoc
// @Summary List the templates visible to the caller
// @Tags PrebuiltWorkouts
// @Produce json
// @Security BearerAuth
// @Success 200 {array} PrebuiltWorkoutResponse
// @Router /prebuilt-workouts [get]
func (h *TrainerHandler) ListPrebuiltWorkouts(c *gin.Context) {
	userID, role, ok := requester(c)
	if !ok {
		return
	}

	prebuilt, err := h.workoutService.ListPrebuiltWorkouts(c.Request.Context(), userID, role)
	if err != nil {
		abortWithWorkoutError(c, err, "retrieve prebuilt workouts")
		return
	}
	responses := make([]PrebuiltWorkoutResponse, len(prebuilt))
	for i := range prebuilt {
		responses[i] = MapPrebuiltWorkoutToResponse(&prebuilt[i])
	}
	c.JSON(http.StatusOK, responses)
}

// AssignPrebuiltWorkout godoc
// @Summary Copy a template into a client's workouts
// @Tags PrebuiltWorkouts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Prebuilt workout ID"
// @Param body body AssignPrebuiltRequest true "Target client"
// @Success 201 {object} WorkoutResponse
// @Router /prebuilt-workouts/{id}/assign [post]
func (h *TrainerHandler) AssignPrebuiltWorkout(c *gin.Context) {
	prebuiltID, ok := objectIDParam(c, "id")
	if !ok {
		return
	}
	var req AssignPrebuiltRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	clientID, err := primitive.ObjectIDFromHex(req.ClientID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid clientId format.")
		return
	}
	trainerID, role, ok := requester(c)
	if !ok {
		return
	}

	workout, err := h.workoutService.AssignPrebuiltWorkout(c.Request.Context(), trainerID, role, prebuiltID, clientID)
	if err != nil {
		abortWithWorkoutError(c, err, "assign prebuilt workout")
		return
	}
	c.JSON(http.StatusCreated, MapWorkoutToResponse(workout))
}

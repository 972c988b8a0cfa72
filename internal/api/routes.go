package api

import (
	"net/http"

	"tlm/coach-api/internal/domain"
	"tlm/coach-api/internal/service"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(
	router *gin.Engine,
	jwtSecret string,
	authService service.AuthService,
	exerciseService service.ExerciseService,
	workoutService service.WorkoutService,
	playbackService service.PlaybackService,
) {
	authHandler := NewAuthHandler(authService)
	exerciseHandler := NewExerciseHandler(exerciseService)
	trainerHandler := NewTrainerHandler(workoutService)
	clientHandler := NewClientHandler(workoutService, playbackService)
	playbackHandler := NewPlaybackHandler(playbackService)

	authMiddleware := AuthMiddleware(jwtSecret)
	authors := RoleMiddleware(domain.RoleTrainer, domain.RoleEditor)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	apiV1 := router.Group("/api/v1")
	{
		authGroup := apiV1.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
		}
	}

	protected := apiV1.Group("")
	protected.Use(authMiddleware)
	{
		protected.GET("/me", func(c *gin.Context) {
			userIDStr, err := getUserIDFromContext(c)
			if err != nil {
				abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
				return
			}
			role, _ := getUserRoleFromContext(c)
			c.JSON(http.StatusOK, gin.H{"userId": userIDStr, "role": role})
		})

		// --- Exercise library (trainers and editors) ---
		exerciseGroup := protected.Group("/exercises")
		exerciseGroup.Use(authors)
		{
			exerciseGroup.POST("", exerciseHandler.CreateExercise)
			exerciseGroup.GET("", exerciseHandler.ListExercises)
			exerciseGroup.GET("/:id", exerciseHandler.GetExercise)
			exerciseGroup.PUT("/:id", exerciseHandler.UpdateExercise)
			exerciseGroup.DELETE("/:id", exerciseHandler.DeleteExercise)
			exerciseGroup.POST("/:id/archive", exerciseHandler.ArchiveExercise)
			exerciseGroup.POST("/:id/media-upload-url", exerciseHandler.RequestMediaUploadURL)
			exerciseGroup.PUT("/:id/media", exerciseHandler.ConfirmMediaUpload)
		}

		// --- Trainer roster and client workouts ---
		trainerApiGroup := protected.Group("/trainer")
		trainerApiGroup.Use(RoleMiddleware(domain.RoleTrainer))
		{
			trainerApiGroup.POST("/clients", trainerHandler.AddClientByEmail)
			trainerApiGroup.GET("/clients", trainerHandler.GetManagedClients)
			trainerApiGroup.PUT("/clients/:clientId/pregnancy", trainerHandler.SetClientPregnancy)
			trainerApiGroup.POST("/clients/:clientId/workouts", trainerHandler.CreateWorkout)
			trainerApiGroup.GET("/clients/:clientId/workouts", trainerHandler.GetClientWorkouts)
		}

		// --- Workout templates ---
		prebuiltGroup := protected.Group("/prebuilt-workouts")
		prebuiltGroup.Use(authors)
		{
			prebuiltGroup.POST("", trainerHandler.CreatePrebuiltWorkout)
			prebuiltGroup.GET("", trainerHandler.ListPrebuiltWorkouts)
			prebuiltGroup.POST("/:id/assign", RoleMiddleware(domain.RoleTrainer), trainerHandler.AssignPrebuiltWorkout)
		}

		// --- Client ---
		clientGroup := protected.Group("/client")
		clientGroup.Use(RoleMiddleware(domain.RoleClient))
		{
			clientGroup.GET("/workouts", clientHandler.GetMyWorkouts)
			clientGroup.GET("/workouts/:workoutId", clientHandler.GetMyWorkout)
			clientGroup.GET("/workouts/:workoutId/playlist", clientHandler.GetPlaylist)
			clientGroup.POST("/workouts/:workoutId/playback", playbackHandler.StartPlayback)
		}

		playbackGroup := protected.Group("/playback")
		playbackGroup.Use(RoleMiddleware(domain.RoleClient))
		{
			playbackGroup.GET("/:sessionId", playbackHandler.GetPlayback)
			playbackGroup.DELETE("/:sessionId", playbackHandler.EndPlayback)
			playbackGroup.POST("/:sessionId/actions", playbackHandler.DispatchAction)
			playbackGroup.GET("/:sessionId/media", playbackHandler.CurrentMedia)
		}
	}
}

package api

import (
	"net/http"

	"athlos/fitness-tracker/internal/metrics"
	"athlos/fitness-tracker/internal/service"

	"github.com/gin-gonic/gin"
)

// Services are the handlers' dependencies.
type Services struct {
	Auth        service.AuthService
	Exercises   service.ExerciseService
	Plans       service.PlanService
	Tracking    service.TrackingService
	WorkoutMode service.WorkoutModeService
	Export      service.ExportService
}

// RouterOptions holds the optional parts of the router.
type RouterOptions struct {
	Metrics *metrics.Manager
	// MetricsHandler is mounted on /metrics when set.
	MetricsHandler http.Handler
	// RateLimiter guards the auth routes when set and LoginRatePerMinute > 0.
	RateLimiter        RequestRateLimiter
	LoginRatePerMinute int
}

// NewRouter returns a gin engine with every route mounted.
func NewRouter(svc Services, opts RouterOptions) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestID(), LogRequest())
	if opts.Metrics != nil {
		router.Use(RequestMetrics(opts.Metrics))
	}
	SetupRoutes(router, svc, opts)
	return router
}

func SetupRoutes(router *gin.Engine, svc Services, opts RouterOptions) {
	authHandler := NewAuthHandler(svc.Auth)
	exerciseHandler := NewExerciseHandler(svc.Exercises)
	planHandler := NewPlanHandler(svc.Plans)
	trackingHandler := NewTrackingHandler(svc.Tracking)
	workoutHandler := NewWorkoutModeHandler(svc.WorkoutMode)
	exportHandler := NewExportHandler(svc.Export)

	authMiddleware := AuthMiddleware(svc.Auth)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	if opts.MetricsHandler != nil {
		router.GET("/metrics", gin.WrapH(opts.MetricsHandler))
	}

	apiV1 := router.Group("/api/v1")
	{
		authGroup := apiV1.Group("/auth")
		if opts.RateLimiter != nil && opts.LoginRatePerMinute > 0 {
			authGroup.Use(RateLimit(opts.RateLimiter, "auth", opts.LoginRatePerMinute, opts.Metrics))
		}
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
		}

		// The exercise library is public.
		exerciseGroup := apiV1.Group("/exercises")
		{
			exerciseGroup.GET("", exerciseHandler.ListExercises)
			exerciseGroup.GET("/:id", exerciseHandler.GetExercise)
		}
	}

	protected := apiV1.Group("")
	protected.Use(authMiddleware)
	{
		protected.GET("/me", authHandler.Me)

		planGroup := protected.Group("/plans")
		{
			planGroup.POST("", planHandler.CreatePlan)
			planGroup.GET("", planHandler.ListPlans)
			planGroup.GET("/:planId", planHandler.GetPlan)
			planGroup.PATCH("/:planId", planHandler.UpdatePlan)
			planGroup.DELETE("/:planId", planHandler.DeletePlan)

			planGroup.GET("/:planId/items", planHandler.ListItems)
			planGroup.POST("/:planId/items", planHandler.AddItem)
			planGroup.PATCH("/:planId/items/:itemId", planHandler.UpdateItem)
			planGroup.DELETE("/:planId/items/:itemId", planHandler.RemoveItem)
		}

		trackingGroup := protected.Group("/tracking")
		{
			trackingGroup.POST("/workouts", trackingHandler.CreateWorkoutLog)
			trackingGroup.GET("/workouts", trackingHandler.ListWorkoutLogs)
			trackingGroup.GET("/workouts/:id", trackingHandler.GetWorkoutLog)
			trackingGroup.DELETE("/workouts/:id", trackingHandler.DeleteWorkoutLog)

			trackingGroup.POST("/weights", trackingHandler.CreateWeightLog)
			trackingGroup.GET("/weights", trackingHandler.ListWeightLogs)
			trackingGroup.DELETE("/weights/:id", trackingHandler.DeleteWeightLog)

			trackingGroup.POST("/goals", trackingHandler.CreateGoal)
			trackingGroup.GET("/goals", trackingHandler.ListGoals)
			trackingGroup.PATCH("/goals/:id", trackingHandler.UpdateGoal)
			trackingGroup.DELETE("/goals/:id", trackingHandler.DeleteGoal)
		}

		workoutGroup := protected.Group("/workout-mode")
		{
			workoutGroup.POST("/start/:planId", workoutHandler.Start)
			workoutGroup.PATCH("/:sessionId/complete", workoutHandler.Complete)
			workoutGroup.POST("/:sessionId/finish", workoutHandler.Finish)
		}

		protected.POST("/export", exportHandler.Export)
	}
}

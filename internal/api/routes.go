package api

import (
	"net/http"
	"time"

	"alcyxob/gym-manager/internal/domain"
	"alcyxob/gym-manager/internal/service"

	"github.com/gin-gonic/gin"
)

// Services bundles everything the HTTP layer calls into.
type Services struct {
	Auth         service.AuthService
	Client       service.ClientService
	Plan         service.PlanService
	Subscription service.SubscriptionService
	TrainingPlan service.TrainingPlanService
	Session      service.SessionService
	SessionLog   service.SessionLogService
	Transfer     service.TransferService
	Group        service.GroupService
	Dashboard    service.DashboardService
}

// SetupRoutes registers /ping and the /api/v1 surface. loc is the gym's time zone.
func SetupRoutes(router *gin.Engine, jwtSecret string, loc *time.Location, svc Services) {
	authHandler := NewAuthHandler(svc.Auth)
	clientHandler := NewClientHandler(svc.Client)
	planHandler := NewPlanHandler(svc.Plan)
	subscriptionHandler := NewSubscriptionHandler(svc.Subscription)
	trainingPlanHandler := NewTrainingPlanHandler(svc.TrainingPlan)
	sessionHandler := NewSessionHandler(svc.Session, svc.SessionLog)
	transferHandler := NewTransferHandler(svc.Transfer)
	groupHandler := NewGroupHandler(svc.Group)
	dashboardHandler := NewDashboardHandler(svc.Dashboard, loc)

	adminOnly := RoleMiddleware(domain.RoleAdmin)
	trainerOnly := RoleMiddleware(domain.RoleTrainer)
	coaches := RoleMiddleware(domain.RoleAdmin, domain.RoleTrainer)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	apiV1 := router.Group("/api/v1")
	{
		authGroup := apiV1.Group("/auth")
		{
			authGroup.POST("/login", authHandler.Login)
		}
	}

	protected := apiV1.Group("")
	protected.Use(AuthMiddleware(jwtSecret))
	{
		protected.GET("/me", authHandler.Me)
		protected.GET("/trainers", authHandler.ListTrainers)

		// --- Staff Administration ---
		adminGroup := protected.Group("/admin")
		adminGroup.Use(adminOnly)
		{
			adminGroup.POST("/staff", authHandler.CreateStaff)
			adminGroup.GET("/staff", authHandler.ListStaff)
			adminGroup.PATCH("/staff/:id/deactivate", authHandler.DeactivateStaff)
		}

		// --- Package Catalog ---
		planGroup := protected.Group("/plans")
		{
			planGroup.GET("", planHandler.ListPlans)
			planGroup.POST("", adminOnly, planHandler.CreatePlan)
			planGroup.DELETE("/:id", adminOnly, planHandler.DeletePlan)
		}

		// --- Clients ---
		clientGroup := protected.Group("/clients")
		{
			clientGroup.GET("", clientHandler.ListClients)
			clientGroup.POST("", clientHandler.CreateClient)
			clientGroup.GET("/:id", clientHandler.GetClient)
			clientGroup.PATCH("/:id", clientHandler.UpdateClient)
			clientGroup.DELETE("/:id", adminOnly, clientHandler.DeleteClient)
			clientGroup.POST("/:id/photo/upload-url", clientHandler.RequestPhotoUploadURL)
			clientGroup.POST("/:id/photo/confirm", clientHandler.ConfirmPhotoUpload)
		}

		// --- Subscriptions ---
		subGroup := protected.Group("/client-subscriptions")
		{
			subGroup.GET("", subscriptionHandler.ListSubscriptions)
			subGroup.POST("", subscriptionHandler.CreateSubscription)
			subGroup.GET("/covered", trainerOnly, subscriptionHandler.CoveredSubscriptions)
			subGroup.GET("/:id", subscriptionHandler.GetSubscription)
			subGroup.PATCH("/:id", subscriptionHandler.UpdateSubscription)
		}

		// --- Training Plans ---
		tpGroup := protected.Group("/training-plans")
		{
			tpGroup.GET("", trainingPlanHandler.GetTrainingPlan)
			tpGroup.POST("", coaches, trainingPlanHandler.CreateTrainingPlan)
			tpGroup.PUT("/:id/splits/:order/exercises", coaches, trainingPlanHandler.UpdateSplitExercises)
			tpGroup.DELETE("/:id", coaches, trainingPlanHandler.DeleteTrainingPlan)
		}

		// --- 1-on-1 Sessions ---
		sessionGroup := protected.Group("/training-sessions")
		{
			sessionGroup.GET("", sessionHandler.ListSessions)
			sessionGroup.GET("/get-data", sessionHandler.GetSessionData)
			sessionGroup.POST("/save-data", coaches, sessionHandler.SaveSessionData)
			sessionGroup.GET("/history", sessionHandler.SessionHistory)
		}
		protected.POST("/session-logs", sessionHandler.CreateSessionLog)

		// --- Transfers ---
		transferGroup := protected.Group("/transfers")
		{
			transferGroup.GET("", coaches, transferHandler.ListTransfers)
			transferGroup.POST("", trainerOnly, transferHandler.CreateTransfer)
			transferGroup.POST("/:id/respond", trainerOnly, transferHandler.RespondTransfer)
			transferGroup.POST("/:id/cancel", trainerOnly, transferHandler.CancelTransfer)
		}

		// --- Group Training ---
		groupGroup := protected.Group("/group-training")
		{
			groupGroup.GET("/schedule", groupHandler.GetSchedule)
			groupGroup.POST("/schedule", groupHandler.AddToSchedule)
			groupGroup.DELETE("/schedule/:id", groupHandler.RemoveFromSchedule)
			groupGroup.POST("/complete-session", coaches, groupHandler.CompleteSession)
			groupGroup.GET("/history", groupHandler.History)
			groupGroup.GET("/client-history", groupHandler.ClientHistory)
			groupGroup.GET("/:id", groupHandler.GetSession)
		}
		templateGroup := protected.Group("/group-templates")
		{
			templateGroup.GET("", groupHandler.ListTemplates)
			templateGroup.POST("", coaches, groupHandler.CreateTemplate)
			templateGroup.DELETE("/:id", coaches, groupHandler.DeleteTemplate)
		}

		protected.GET("/dashboard/stats", dashboardHandler.GetStats)
	}
}

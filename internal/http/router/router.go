package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Algorithm-Archetict/raqmiya-backend/internal/config"
	"github.com/Algorithm-Archetict/raqmiya-backend/internal/http/handlers"
	"github.com/Algorithm-Archetict/raqmiya-backend/internal/http/middleware"
	"github.com/Algorithm-Archetict/raqmiya-backend/internal/service"
)

func SetupRouter(
	cfg *config.Config,
	chatHandler *handlers.ChatHandler,
	serviceRequestHandler *handlers.ServiceRequestHandler,
	deliveryHandler *handlers.DeliveryHandler,
	notificationHandler *handlers.NotificationHandler,
	wsHandler *handlers.WSHandler,
	healthHandler *handlers.HealthHandler,
	tokenManager *service.TokenManager,
) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))

	r.GET("/health", healthHandler.Health)
	r.StaticFS("/attachments", http.Dir(cfg.AttachmentStorageDir))

	api := r.Group("/api")

	api.GET("/ws", wsHandler.Handle)

	protected := api.Group("/")
	protected.Use(middleware.AuthMiddleware(tokenManager))
	protected.Use(middleware.RateLimitMiddleware(cfg.RateLimitLimit, cfg.RateLimitPeriod))
	{
		protected.POST("/message-requests", chatHandler.CreateMessageRequest)

		protected.GET("/conversations", chatHandler.GetConversations)
		protected.POST("/conversations/:id/message-request/respond", middleware.UUIDValidator("id"), chatHandler.RespondToMessageRequest)
		protected.GET("/conversations/:id/messages", middleware.UUIDValidator("id"), chatHandler.GetMessages)
		protected.POST("/conversations/:id/messages", middleware.UUIDValidator("id"), chatHandler.SendMessage)
		protected.POST("/conversations/:id/attachments", middleware.UUIDValidator("id"), chatHandler.UploadAttachment)

		protected.POST("/conversations/:id/service-requests", middleware.UUIDValidator("id"), serviceRequestHandler.Create)
		protected.GET("/conversations/:id/service-requests", middleware.UUIDValidator("id"), serviceRequestHandler.List)
		protected.POST("/conversations/:id/service-requests/:requestID/accept", middleware.UUIDValidator("id"), middleware.UUIDValidator("requestID"), serviceRequestHandler.Accept)
		protected.POST("/conversations/:id/service-requests/:requestID/confirm", middleware.UUIDValidator("id"), middleware.UUIDValidator("requestID"), serviceRequestHandler.Confirm)
		protected.DELETE("/conversations/:id/service-requests/:requestID", middleware.UUIDValidator("id"), middleware.UUIDValidator("requestID"), serviceRequestHandler.Decline)

		protected.POST("/conversations/:id/service-requests/:requestID/deadline-proposals", middleware.UUIDValidator("id"), middleware.UUIDValidator("requestID"), serviceRequestHandler.ProposeDeadline)
		protected.GET("/conversations/:id/service-requests/:requestID/deadline-proposals", middleware.UUIDValidator("id"), middleware.UUIDValidator("requestID"), serviceRequestHandler.DeadlineHistory)
		protected.GET("/conversations/:id/service-requests/:requestID/deadline-proposals/pending", middleware.UUIDValidator("id"), middleware.UUIDValidator("requestID"), serviceRequestHandler.PendingDeadline)
		protected.GET("/conversations/:id/service-requests/:requestID/deadline-proposals/latest", middleware.UUIDValidator("id"), middleware.UUIDValidator("requestID"), serviceRequestHandler.LatestDeadline)
		protected.POST("/conversations/:id/service-requests/:requestID/deadline-proposals/:proposalID/respond", middleware.UUIDValidator("id"), middleware.UUIDValidator("requestID"), middleware.UUIDValidator("proposalID"), serviceRequestHandler.RespondToDeadline)

		protected.POST("/conversations/:id/deliveries", middleware.UUIDValidator("id"), deliveryHandler.Deliver)
		protected.POST("/conversations/:id/deliveries/private", middleware.UUIDValidator("id"), deliveryHandler.DeliverPrivate)
		protected.GET("/conversations/:id/deliveries", middleware.UUIDValidator("id"), deliveryHandler.List)
		protected.POST("/conversations/:id/deliveries/:deliveryID/purchase", middleware.UUIDValidator("id"), middleware.UUIDValidator("deliveryID"), deliveryHandler.MarkPurchased)
		protected.GET("/conversations/:id/deliveries/:deliveryID/files", middleware.UUIDValidator("id"), middleware.UUIDValidator("deliveryID"), deliveryHandler.Files)

		protected.GET("/deliveries/completed", deliveryHandler.Completed)

		protected.GET("/notifications", notificationHandler.List)
		protected.GET("/notifications/unread/count", notificationHandler.UnreadCount)
		protected.PUT("/notifications/read-all", notificationHandler.MarkAllAsRead)
		protected.PUT("/notifications/:id/read", middleware.UUIDValidator("id"), notificationHandler.MarkAsRead)
		protected.DELETE("/notifications/:id", middleware.UUIDValidator("id"), notificationHandler.Delete)
	}

	return r
}

package server

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/ironpoint/steeltrack-backend/internal/handlers"
	"github.com/ironpoint/steeltrack-backend/internal/middleware"
	"github.com/ironpoint/steeltrack-backend/internal/observability"
	"github.com/ironpoint/steeltrack-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	Metrics        *observability.Metrics
	CORSOrigins    []string
	AuthMiddleware *middleware.AuthMiddleware

	HealthHandler    *handlers.HealthHandler
	PieceMarkHandler *handlers.PieceMarkHandler
	DeliveryHandler  *handlers.DeliveryHandler
	CrewHandler      *handlers.CrewHandler
	ActivityHandler  *handlers.ActivityHandler
	SSEHandler       *handlers.SSEHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware("steeltrack-backend"))
	r.Use(middleware.CORS(cfg.CORSOrigins))
	r.Use(middleware.Metrics(cfg.Metrics))
	r.Use(middleware.RequestLogger(cfg.Log))

	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}

	protected := r.Group("/")
	if cfg.AuthMiddleware != nil {
		protected.Use(cfg.AuthMiddleware.RequireActor())
	}

	// Realtime (SSE)
	if cfg.SSEHandler != nil {
		protected.GET("/sse/stream", cfg.SSEHandler.SSEStream)
		protected.POST("/sse/subscribe", cfg.SSEHandler.SSESubscribe)
		protected.POST("/sse/unsubscribe", cfg.SSEHandler.SSEUnsubscribe)
	}

	api := protected.Group("/api")
	{
		// Piece marks
		if cfg.PieceMarkHandler != nil {
			api.POST("/projects/:id/piece-marks", cfg.PieceMarkHandler.CreatePieceMark)
			api.GET("/projects/:id/piece-marks", cfg.PieceMarkHandler.ListPieceMarks)
			api.GET("/piece-marks/:id", cfg.PieceMarkHandler.GetPieceMark)
			api.POST("/piece-marks/:id/advance", cfg.PieceMarkHandler.AdvanceStatus)
			api.POST("/piece-marks/:id/rollback", cfg.PieceMarkHandler.RollbackStatus)
			api.POST("/piece-marks/:id/location", cfg.PieceMarkHandler.UpdateLocation)
		}

		// Deliveries
		if cfg.DeliveryHandler != nil {
			api.POST("/projects/:id/deliveries", cfg.DeliveryHandler.CreateDelivery)
			api.GET("/projects/:id/deliveries", cfg.DeliveryHandler.ListDeliveries)
			api.GET("/deliveries/:id", cfg.DeliveryHandler.GetDelivery)
			api.POST("/deliveries/:id/items", cfg.DeliveryHandler.AddItem)
			api.POST("/deliveries/:id/dispatch", cfg.DeliveryHandler.Dispatch)
			api.POST("/deliveries/:id/arrive", cfg.DeliveryHandler.Arrive)
			api.POST("/deliveries/:id/reject", cfg.DeliveryHandler.Reject)
			api.POST("/deliveries/:id/reconcile", cfg.DeliveryHandler.Reconcile)
		}

		// Crews
		if cfg.CrewHandler != nil {
			api.POST("/projects/:id/crews", cfg.CrewHandler.AssignCrew)
			api.GET("/projects/:id/crews", cfg.CrewHandler.ListCrews)
			api.GET("/crews/:id", cfg.CrewHandler.GetCrew)
			api.POST("/crews/:id/status", cfg.CrewHandler.UpdateStatus)
		}

		// Activity log
		if cfg.ActivityHandler != nil {
			api.GET("/projects/:id/activity", cfg.ActivityHandler.ListProjectActivity)
		}
	}

	return r
}

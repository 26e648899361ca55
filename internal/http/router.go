// Package http assembles the gin router from the handlers and middleware.
package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/fairwaylabs/swingsense-backend/internal/http/handlers"
	httpMW "github.com/fairwaylabs/swingsense-backend/internal/http/middleware"
	"github.com/fairwaylabs/swingsense-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log *logger.Logger

	HealthHandler    *httpH.HealthHandler
	SwingHandler     *httpH.SwingHandler
	FeedbackHandler  *httpH.FeedbackHandler
	AnalyticsHandler *httpH.AnalyticsHandler
	RubricHandler    *httpH.RubricHandler

	AdminHandler    *httpH.AdminHandler
	AdminMiddleware *httpMW.AdminMiddleware
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware("swingsense-backend"))
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.CORS())

	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}

	api := r.Group("/api")
	{
		if cfg.SwingHandler != nil {
			api.POST("/swings/analyze", cfg.SwingHandler.Analyze)
			api.GET("/swings/:id", cfg.SwingHandler.Get)
			api.GET("/swings", cfg.SwingHandler.List)
		}
		if cfg.FeedbackHandler != nil {
			api.POST("/feedback", cfg.FeedbackHandler.Ingest)
		}
		if cfg.AnalyticsHandler != nil {
			api.GET("/analytics/accuracy", cfg.AnalyticsHandler.Accuracy)
		}
		if cfg.RubricHandler != nil {
			api.GET("/rubrics/:metric", cfg.RubricHandler.Get)
		}
	}

	admin := api.Group("/admin")
	{
		if cfg.AdminMiddleware != nil {
			admin.Use(cfg.AdminMiddleware.RequireAdmin())
		}
		if cfg.AdminHandler != nil {
			admin.POST("/metrics/initialize", cfg.AdminHandler.InitializeMetrics)
			admin.POST("/feedback/process", cfg.AdminHandler.ProcessFeedback)
			admin.POST("/rubrics/:metric/extract", cfg.AdminHandler.ExtractRubric)
			admin.POST("/rubrics/extract-all", cfg.AdminHandler.ExtractAllRubrics)
		}
	}

	return r
}

package main

import (
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/gradebook-api/internal/handler"
	"github.com/noah-isme/gradebook-api/internal/middleware"
	"github.com/noah-isme/gradebook-api/internal/models"
	"github.com/noah-isme/gradebook-api/pkg/config"
	"github.com/noah-isme/gradebook-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/gradebook-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/gradebook-api/pkg/middleware/requestid"
)

type tokenValidator interface {
	ValidateToken(tokenString string) (*models.JWTClaims, error)
}

type routeHandlers struct {
	auth      *handler.AuthHandler
	classes   *handler.ClassHandler
	subjects  *handler.SubjectHandler
	standings *handler.StandingsHandler
	students  *handler.StudentHandler
	gradebook *handler.GradebookHandler
	health    *handler.HealthHandler
	validator tokenValidator
	metrics   middlewareMetrics
}

type middlewareMetrics interface {
	ObserveHTTPRequest(method, path string, status int, duration time.Duration)
}

func newRouter(cfg *config.Config, logr *zap.Logger, h routeHandlers) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(h.metrics))

	r.GET("/health", h.health.Health)
	r.GET("/ready", h.health.Ready)
	r.GET("/metrics", h.health.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.POST("/auth/login", h.auth.Login)

	secured := api.Group("")
	secured.Use(middleware.JWT(h.validator))

	secured.GET("/me", h.auth.Me)
	secured.PUT("/me/theme", h.auth.UpdateTheme)

	secured.GET("/classes", h.classes.List)

	secured.GET("/subjects", h.subjects.List)
	secured.POST("/subjects", h.subjects.Create)
	secured.DELETE("/subjects/:id", h.subjects.Delete)
	secured.GET("/subjects/:id/sessions", h.subjects.Sessions)

	secured.GET("/subjects/:id/standings", h.standings.Standings)
	secured.GET("/subjects/:id/top", h.standings.TopPerformers)
	secured.GET("/subjects/:id/export", h.standings.Export)

	secured.POST("/subjects/:id/students", h.students.Add)
	secured.POST("/subjects/:id/import", h.students.Import)
	secured.DELETE("/students/:id", h.students.Delete)

	secured.PUT("/subjects/:id/marks", h.gradebook.UpdateMark)
	secured.PUT("/subjects/:id/progress", h.gradebook.UpdateProgress)

	return r
}

package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/answer-scoring-service/internal/services"
	"github.com/SAP-F-2025/answer-scoring-service/internal/utils"
)

const serviceName = "answer-scoring-service"

// HealthCheck reports whether a dependency is reachable.
type HealthCheck func(ctx context.Context) error

type HandlerManager struct {
	templateHandler *TemplateHandler
	testHandler     *TestHandler
	attemptHandler  *AttemptHandler
	gradingHandler  *GradingHandler

	auth   gin.HandlerFunc
	checks map[string]HealthCheck
}

func NewHandlerManager(
	templateService services.TemplateService,
	testService services.TestService,
	attemptService services.AttemptService,
	exportService services.ExportService,
	tokens TokenParser,
	checks map[string]HealthCheck,
	logger utils.Logger,
) *HandlerManager {
	return &HandlerManager{
		templateHandler: NewTemplateHandler(templateService, logger),
		testHandler:     NewTestHandler(testService, exportService, logger),
		attemptHandler:  NewAttemptHandler(attemptService, logger),
		gradingHandler:  NewGradingHandler(logger),
		auth:            AuthMiddleware(tokens, logger),
		checks:          checks,
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	router.GET("/health", hm.health)

	v1 := router.Group("/api/v1")
	{
		v1.GET("/templates", hm.templateHandler.ListTemplates)
		v1.POST("/grading/normalize", hm.gradingHandler.Normalize)

		tests := v1.Group("/tests", hm.auth, RequireRole(RoleTeacher))
		{
			tests.POST("", hm.testHandler.CreateTest)
			tests.GET("", hm.testHandler.ListTests)
			tests.GET("/:id", hm.testHandler.GetTest)
			tests.PUT("/:id/keys/:section", hm.testHandler.SaveKeySection)
			tests.GET("/:id/keys", hm.testHandler.GetKeySummary)
			tests.PUT("/:id/material", hm.testHandler.UpdateMaterial)
			tests.POST("/:id/publish", hm.testHandler.PublishTest)
			tests.POST("/:id/close", hm.testHandler.CloseTest)
			tests.GET("/:id/results/export", hm.testHandler.ExportResults)
		}

		attempts := v1.Group("/attempts", hm.auth, RequireRole(RoleStudent))
		{
			attempts.POST("", hm.attemptHandler.StartAttempt)
			attempts.GET("", hm.attemptHandler.ListAttempts)
			attempts.GET("/:id", hm.attemptHandler.GetAttempt)
			attempts.GET("/:id/progress", hm.attemptHandler.GetProgress)
			attempts.PUT("/:id/sections/:section", hm.attemptHandler.SubmitSection)
			attempts.POST("/:id/submit", hm.attemptHandler.SubmitAttempt)
		}
	}
}

func (hm *HandlerManager) health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	deps := make(map[string]string, len(hm.checks))
	for name, check := range hm.checks {
		if err := check(ctx); err != nil {
			deps[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		deps[name] = "ok"
	}

	state := "healthy"
	if status != http.StatusOK {
		state = "unhealthy"
	}
	c.JSON(status, gin.H{
		"status":       state,
		"service":      serviceName,
		"dependencies": deps,
	})
}

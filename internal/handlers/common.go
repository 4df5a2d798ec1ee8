package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/answer-scoring-service/internal/services"
	"github.com/SAP-F-2025/answer-scoring-service/internal/utils"
)

// ===== COMMON RESPONSE STRUCTURES =====

// ErrorResponse represents an error response
type ErrorResponse struct {
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
	Code    string      `json:"code,omitempty"`
}

// SuccessResponse represents a success response
type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// ListResponse wraps a page of results with the total count
type ListResponse struct {
	Data  interface{} `json:"data"`
	Total int64       `json:"total"`
}

// ===== BASE HANDLER STRUCT =====

// BaseHandler provides common logging and error mapping for all handlers
type BaseHandler struct {
	logger utils.Logger
}

func NewBaseHandler(logger utils.Logger) BaseHandler {
	return BaseHandler{logger: logger}
}

// log returns the request-scoped logger when one was attached by the middleware.
func (h *BaseHandler) log(c *gin.Context) utils.Logger {
	return utils.GetLoggerFromContext(c, h.logger)
}

// LogRequest logs incoming HTTP requests with context information
func (h *BaseHandler) LogRequest(c *gin.Context, message string, additionalFields ...interface{}) {
	fields := []interface{}{
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
		"request_id", c.GetHeader("X-Request-ID"),
		"user_id", c.GetString(ContextUserID),
	}
	fields = append(fields, additionalFields...)
	h.log(c).Debug(message, fields...)
}

// RespondWithError sends a consistent error response and logs it
func (h *BaseHandler) RespondWithError(c *gin.Context, statusCode int, message string, err error, details ...interface{}) {
	resp := ErrorResponse{Message: message}
	if len(details) > 0 {
		resp.Details = details[0]
	}

	if err != nil && statusCode >= http.StatusInternalServerError {
		h.log(c).LogError(err, message,
			"status_code", statusCode,
			"path", c.Request.URL.Path,
			"user_id", c.GetString(ContextUserID))
	} else if err != nil {
		h.log(c).Warn(message,
			"status_code", statusCode,
			"error", err.Error(),
			"path", c.Request.URL.Path)
	}

	c.JSON(statusCode, resp)
}

// RespondWithSuccess sends a consistent success response
func (h *BaseHandler) RespondWithSuccess(c *gin.Context, statusCode int, message string, data interface{}) {
	c.JSON(statusCode, SuccessResponse{
		Message: message,
		Data:    data,
	})
}

// handleServiceError maps service errors onto HTTP responses.
func (h *BaseHandler) handleServiceError(c *gin.Context, err error) {
	var formatError *services.FormatError
	if errors.As(err, &formatError) {
		h.log(c).Debug("Rejected input", "section", formatError.Section, "reason", formatError.Reason)
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Message: formatError.Message,
			Code:    "format_error",
			Details: map[string]interface{}{
				"section": formatError.Section,
				"reason":  formatError.Reason,
				"items":   formatError.Items,
			},
		})
		return
	}

	var validationErrors services.ValidationErrors
	if errors.As(err, &validationErrors) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Validation failed",
			Details: validationErrors,
		})
		return
	}

	var scoringError *services.ScoringError
	if errors.As(err, &scoringError) {
		h.RespondWithError(c, http.StatusConflict, "Answer key is incomplete", err,
			map[string]interface{}{"missing_sections": scoringError.Missing})
		return
	}

	var businessRuleError *services.BusinessRuleError
	if errors.As(err, &businessRuleError) {
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Message: businessRuleError.Message,
			Code:    businessRuleError.Rule,
			Details: businessRuleError.Context,
		})
		return
	}

	var permissionError *services.PermissionError
	if errors.As(err, &permissionError) {
		c.JSON(http.StatusForbidden, ErrorResponse{
			Message: "Access denied",
			Details: map[string]interface{}{
				"resource": permissionError.Resource,
				"action":   permissionError.Action,
				"reason":   permissionError.Reason,
			},
		})
		return
	}

	switch {
	case errors.Is(err, services.ErrTemplateNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Message: "Subject template not found"})
	case errors.Is(err, services.ErrTestNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Message: "Test not found"})
	case errors.Is(err, services.ErrAttemptNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Message: "Attempt not found"})
	case errors.Is(err, services.ErrInvalidSection):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Unknown section, expected one of Y1, Y2, O",
			Code:    "invalid_section",
		})
	case errors.Is(err, services.ErrTestNotEditable):
		c.JSON(http.StatusConflict, ErrorResponse{
			Message: "Test cannot be changed in its current status",
			Code:    "test_not_editable",
		})
	case errors.Is(err, services.ErrTestNotPublished):
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Message: "Test is not published",
			Code:    "test_not_published",
		})
	case errors.Is(err, services.ErrTestClosed):
		c.JSON(http.StatusGone, ErrorResponse{
			Message: "Test is closed",
			Code:    "test_closed",
		})
	case errors.Is(err, services.ErrAttemptAlreadySubmitted):
		c.JSON(http.StatusConflict, ErrorResponse{
			Message: "Attempt has already been submitted",
			Code:    "attempt_submitted",
		})
	case errors.Is(err, services.ErrAttemptTimeExpired):
		c.JSON(http.StatusGone, ErrorResponse{
			Message: "Time for this attempt has run out",
			Code:    "attempt_expired",
		})
	case errors.Is(err, services.ErrDraftIncomplete):
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Message: "Not all sections are filled in",
			Code:    "draft_incomplete",
			Details: err.Error(),
		})
	case services.IsUnauthorized(err):
		c.JSON(http.StatusForbidden, ErrorResponse{Message: "Access denied"})
	case services.IsNotFound(err):
		c.JSON(http.StatusNotFound, ErrorResponse{Message: "Resource not found"})
	case services.IsConflict(err):
		h.RespondWithError(c, http.StatusConflict, "Resource conflict", err)
	case services.IsValidation(err):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Validation failed",
			Details: err.Error(),
		})
	default:
		h.RespondWithError(c, http.StatusInternalServerError, "Internal server error", err)
	}
}

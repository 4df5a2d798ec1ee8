package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/answer-scoring-service/internal/services"
	"github.com/SAP-F-2025/answer-scoring-service/internal/utils"
)

const maxHistoryLimit = 50

type AttemptHandler struct {
	BaseHandler
	attemptService services.AttemptService
}

func NewAttemptHandler(attemptService services.AttemptService, logger utils.Logger) *AttemptHandler {
	return &AttemptHandler{
		BaseHandler:    NewBaseHandler(logger),
		attemptService: attemptService,
	}
}

// StartAttempt starts or resumes an attempt by access code
// @Summary Start attempt
// @Description Starts an attempt on the published test with the given access code, or resumes the running one
// @Tags attempts
// @Accept json
// @Produce json
// @Param attempt body services.StartAttemptRequest true "Access code"
// @Success 201 {object} services.AttemptResponse
// @Success 200 {object} services.AttemptResponse "resumed"
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 410 {object} ErrorResponse
// @Router /attempts [post]
func (h *AttemptHandler) StartAttempt(c *gin.Context) {
	studentID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req services.StartAttemptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	h.LogRequest(c, "Starting attempt", "access_code", req.AccessCode)

	attempt, err := h.attemptService.Start(c.Request.Context(), &req, studentID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	status := http.StatusCreated
	if attempt.Resumed {
		status = http.StatusOK
	}
	c.JSON(status, attempt)
}

// ListAttempts lists the caller's latest attempts
// @Summary List attempts
// @Tags attempts
// @Produce json
// @Param limit query int false "Number of attempts" default(10)
// @Success 200 {array} services.AttemptSummary
// @Router /attempts [get]
func (h *AttemptHandler) ListAttempts(c *gin.Context) {
	studentID, ok := currentUserID(c)
	if !ok {
		return
	}

	limit := parseIntQuery(c, "limit", 0)
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	attempts, err := h.attemptService.ListByStudent(c.Request.Context(), studentID, limit)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, attempts)
}

// GetAttempt returns one of the caller's attempts
// @Summary Get attempt
// @Tags attempts
// @Produce json
// @Param id path uint true "Attempt ID"
// @Success 200 {object} services.AttemptResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /attempts/{id} [get]
func (h *AttemptHandler) GetAttempt(c *gin.Context) {
	id := parseIDParam(c, "id")
	if id == 0 {
		return
	}
	studentID, ok := currentUserID(c)
	if !ok {
		return
	}

	attempt, err := h.attemptService.GetByID(c.Request.Context(), id, studentID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, attempt)
}

// GetProgress shows the answers entered so far
// @Summary Get attempt progress
// @Tags attempts
// @Produce json
// @Param id path uint true "Attempt ID"
// @Success 200 {object} services.ProgressResponse
// @Router /attempts/{id}/progress [get]
func (h *AttemptHandler) GetProgress(c *gin.Context) {
	id := parseIDParam(c, "id")
	if id == 0 {
		return
	}
	studentID, ok := currentUserID(c)
	if !ok {
		return
	}

	progress, err := h.attemptService.GetProgress(c.Request.Context(), id, studentID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, progress)
}

// SubmitSection stores the answers of one section in the draft
// @Summary Submit section answers
// @Tags attempts
// @Accept json
// @Produce json
// @Param id path uint true "Attempt ID"
// @Param section path string true "Y1, Y2 or O"
// @Param answers body services.SectionInputRequest true "Section text"
// @Success 200 {object} services.ProgressResponse
// @Failure 400 {object} ErrorResponse
// @Failure 410 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /attempts/{id}/sections/{section} [put]
func (h *AttemptHandler) SubmitSection(c *gin.Context) {
	id := parseIDParam(c, "id")
	if id == 0 {
		return
	}
	studentID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req services.SectionInputRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	section := parseSectionParam(c)
	h.LogRequest(c, "Submitting section", "attempt_id", id, "section", section)

	progress, err := h.attemptService.SubmitSection(c.Request.Context(), id, section, &req, studentID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, progress)
}

// SubmitAttempt scores the completed draft
// @Summary Submit attempt
// @Tags attempts
// @Produce json
// @Param id path uint true "Attempt ID"
// @Success 200 {object} services.SubmitResultResponse
// @Failure 409 {object} ErrorResponse
// @Failure 410 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /attempts/{id}/submit [post]
func (h *AttemptHandler) SubmitAttempt(c *gin.Context) {
	id := parseIDParam(c, "id")
	if id == 0 {
		return
	}
	studentID, ok := currentUserID(c)
	if !ok {
		return
	}

	h.LogRequest(c, "Submitting attempt", "attempt_id", id)

	result, err := h.attemptService.Submit(c.Request.Context(), id, studentID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

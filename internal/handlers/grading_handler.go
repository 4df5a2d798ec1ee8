package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/answer-scoring-service/internal/grading"
	"github.com/SAP-F-2025/answer-scoring-service/internal/utils"
)

// GradingHandler exposes the stateless parts of the grading package.
type GradingHandler struct {
	BaseHandler
}

type NormalizeRequest struct {
	Value string `json:"value" binding:"required,max=200"`
}

type NormalizeResponse struct {
	Input     string `json:"input"`
	Canonical string `json:"canonical"`
}

func NewGradingHandler(logger utils.Logger) *GradingHandler {
	return &GradingHandler{BaseHandler: NewBaseHandler(logger)}
}

// Normalize canonicalizes a numeric answer
// @Summary Normalize numeric answer
// @Description Returns the canonical form used when comparing open answers
// @Tags grading
// @Accept json
// @Produce json
// @Param request body NormalizeRequest true "Raw value"
// @Success 200 {object} NormalizeResponse
// @Failure 400 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /grading/normalize [post]
func (h *GradingHandler) Normalize(c *gin.Context) {
	var req NormalizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	canonical, err := grading.Normalize(req.Value)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, NormalizeResponse{
		Input:     req.Value,
		Canonical: canonical,
	})
}

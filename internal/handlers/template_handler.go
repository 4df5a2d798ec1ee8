package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/answer-scoring-service/internal/services"
	"github.com/SAP-F-2025/answer-scoring-service/internal/utils"
)

type TemplateHandler struct {
	BaseHandler
	templateService services.TemplateService
}

func NewTemplateHandler(templateService services.TemplateService, logger utils.Logger) *TemplateHandler {
	return &TemplateHandler{
		BaseHandler:     NewBaseHandler(logger),
		templateService: templateService,
	}
}

// ListTemplates lists the active subject templates
// @Summary List subject templates
// @Tags templates
// @Produce json
// @Success 200 {array} models.SubjectTemplate
// @Router /templates [get]
func (h *TemplateHandler) ListTemplates(c *gin.Context) {
	templates, err := h.templateService.ListActive(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, templates)
}

package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/answer-scoring-service/internal/models"
	"github.com/SAP-F-2025/answer-scoring-service/internal/repositories"
	"github.com/SAP-F-2025/answer-scoring-service/internal/services"
	"github.com/SAP-F-2025/answer-scoring-service/internal/utils"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type TestHandler struct {
	BaseHandler
	testService   services.TestService
	exportService services.ExportService
}

func NewTestHandler(
	testService services.TestService,
	exportService services.ExportService,
	logger utils.Logger,
) *TestHandler {
	return &TestHandler{
		BaseHandler:   NewBaseHandler(logger),
		testService:   testService,
		exportService: exportService,
	}
}

// CreateTest creates a draft test
// @Summary Create test
// @Description Creates a draft test from a subject template and assigns an access code
// @Tags tests
// @Accept json
// @Produce json
// @Param test body services.CreateTestRequest true "Test data"
// @Success 201 {object} services.TestResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /tests [post]
func (h *TestHandler) CreateTest(c *gin.Context) {
	teacherID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req services.CreateTestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	h.LogRequest(c, "Creating test", "template_code", req.TemplateCode)

	test, err := h.testService.Create(c.Request.Context(), &req, teacherID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, test)
}

// ListTests lists the caller's tests
// @Summary List tests
// @Tags tests
// @Produce json
// @Param status query string false "draft, published or closed"
// @Param limit query int false "Page size" default(20)
// @Param offset query int false "Offset" default(0)
// @Success 200 {object} ListResponse
// @Router /tests [get]
func (h *TestHandler) ListTests(c *gin.Context) {
	teacherID, ok := currentUserID(c)
	if !ok {
		return
	}

	filters := repositories.TestFilters{
		Limit:  parseIntQuery(c, "limit", 20),
		Offset: parseIntQuery(c, "offset", 0),
	}
	if status := c.Query("status"); status != "" {
		s := models.TestStatus(status)
		if !s.Valid() {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Message: "Invalid status",
				Details: "status must be one of draft, published, closed",
			})
			return
		}
		filters.Status = &s
	}

	tests, total, err := h.testService.ListByTeacher(c.Request.Context(), teacherID, filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, ListResponse{Data: tests, Total: total})
}

// GetTest returns one of the caller's tests
// @Summary Get test
// @Tags tests
// @Produce json
// @Param id path uint true "Test ID"
// @Success 200 {object} services.TestResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /tests/{id} [get]
func (h *TestHandler) GetTest(c *gin.Context) {
	id := parseIDParam(c, "id")
	if id == 0 {
		return
	}
	teacherID, ok := currentUserID(c)
	if !ok {
		return
	}

	test, err := h.testService.GetByID(c.Request.Context(), id, teacherID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, test)
}

// SaveKeySection stores the answer key of one section
// @Summary Save answer key section
// @Description Parses the free-text answers of a section and stores them as the key
// @Tags tests
// @Accept json
// @Produce json
// @Param id path uint true "Test ID"
// @Param section path string true "Y1, Y2 or O"
// @Param key body services.SectionInputRequest true "Section text"
// @Success 200 {object} services.ProgressResponse
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /tests/{id}/keys/{section} [put]
func (h *TestHandler) SaveKeySection(c *gin.Context) {
	id := parseIDParam(c, "id")
	if id == 0 {
		return
	}
	teacherID, ok := currentUserID(c)
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
	h.LogRequest(c, "Saving answer key section", "test_id", id, "section", section)

	progress, err := h.testService.SaveKeySection(c.Request.Context(), id, section, &req, teacherID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, progress)
}

// GetKeySummary shows the answer key entered so far
// @Summary Get answer key summary
// @Tags tests
// @Produce json
// @Param id path uint true "Test ID"
// @Success 200 {object} services.ProgressResponse
// @Router /tests/{id}/keys [get]
func (h *TestHandler) GetKeySummary(c *gin.Context) {
	id := parseIDParam(c, "id")
	if id == 0 {
		return
	}
	teacherID, ok := currentUserID(c)
	if !ok {
		return
	}

	progress, err := h.testService.GetKeySummary(c.Request.Context(), id, teacherID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, progress)
}

// PublishTest opens a test for attempts
// @Summary Publish test
// @Tags tests
// @Produce json
// @Param id path uint true "Test ID"
// @Success 200 {object} services.TestResponse
// @Failure 409 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /tests/{id}/publish [post]
func (h *TestHandler) PublishTest(c *gin.Context) {
	id := parseIDParam(c, "id")
	if id == 0 {
		return
	}
	teacherID, ok := currentUserID(c)
	if !ok {
		return
	}

	h.LogRequest(c, "Publishing test", "test_id", id)

	test, err := h.testService.Publish(c.Request.Context(), id, teacherID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, test)
}

// CloseTest stops accepting new attempts
// @Summary Close test
// @Tags tests
// @Produce json
// @Param id path uint true "Test ID"
// @Success 200 {object} services.TestResponse
// @Router /tests/{id}/close [post]
func (h *TestHandler) CloseTest(c *gin.Context) {
	id := parseIDParam(c, "id")
	if id == 0 {
		return
	}
	teacherID, ok := currentUserID(c)
	if !ok {
		return
	}

	h.LogRequest(c, "Closing test", "test_id", id)

	test, err := h.testService.Close(c.Request.Context(), id, teacherID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, test)
}

// UpdateMaterial attaches reading material to a draft test
// @Summary Update test material
// @Description Attaches a photo or document shown to students when they start. An empty file_id clears it
// @Tags tests
// @Accept json
// @Produce json
// @Param id path uint true "Test ID"
// @Param material body services.UpdateMaterialRequest true "Material"
// @Success 200 {object} services.TestResponse
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /tests/{id}/material [put]
func (h *TestHandler) UpdateMaterial(c *gin.Context) {
	id := parseIDParam(c, "id")
	if id == 0 {
		return
	}
	teacherID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req services.UpdateMaterialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	h.LogRequest(c, "Updating test material", "test_id", id, "file_type", req.FileType)

	test, err := h.testService.UpdateMaterial(c.Request.Context(), id, &req, teacherID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, test)
}

// ExportResults downloads the results workbook
// @Summary Export test results
// @Tags tests
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param id path uint true "Test ID"
// @Success 200 {file} file
// @Router /tests/{id}/results/export [get]
func (h *TestHandler) ExportResults(c *gin.Context) {
	id := parseIDParam(c, "id")
	if id == 0 {
		return
	}
	teacherID, ok := currentUserID(c)
	if !ok {
		return
	}

	data, filename, err := h.exportService.ExportTestResults(c.Request.Context(), id, teacherID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, xlsxContentType, data)
}

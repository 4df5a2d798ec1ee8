package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/SAP-F-2025/answer-scoring-service/internal/models"
	"github.com/SAP-F-2025/answer-scoring-service/internal/repositories"
)

type templateService struct {
	repo   repositories.Repository
	logger *slog.Logger
}

func NewTemplateService(repo repositories.Repository, logger *slog.Logger) TemplateService {
	return &templateService{repo: repo, logger: logger}
}

func (s *templateService) ListActive(ctx context.Context) ([]*models.SubjectTemplate, error) {
	templates, err := s.repo.Template().ListActive(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	return templates, nil
}

func (s *templateService) GetByCode(ctx context.Context, code string) (*models.SubjectTemplate, error) {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		code = models.MathTemplateCode
	}

	template, err := s.repo.Template().GetByCode(ctx, nil, code)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrTemplateNotFound
		}
		return nil, fmt.Errorf("failed to get template: %w", err)
	}
	if !template.IsActive {
		return nil, ErrTemplateNotFound
	}
	if err := template.Structure.Data().Validate(); err != nil {
		s.logger.Error("Template has an unusable layout", "template", code, "error", err)
		return nil, NewBusinessRuleError("template_layout", "template layout cannot be answered: "+err.Error(),
			map[string]interface{}{"template": code})
	}
	return template, nil
}

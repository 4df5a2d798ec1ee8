package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/SAP-F-2025/answer-scoring-service/internal/models"
	"github.com/SAP-F-2025/answer-scoring-service/internal/repositories"
)

var attemptSortColumns = map[string]bool{
	"started_at":   true,
	"submitted_at": true,
	"score_total":  true,
}

type AttemptPostgreSQL struct {
	db *gorm.DB
}

func NewAttemptPostgreSQL(db *gorm.DB) repositories.AttemptRepository {
	return &AttemptPostgreSQL{db: db}
}

func (a *AttemptPostgreSQL) Create(ctx context.Context, tx *gorm.DB, attempt *models.Attempt) error {
	return getDB(a.db, tx).WithContext(ctx).Omit(clause.Associations).Create(attempt).Error
}

func (a *AttemptPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Attempt, error) {
	var attempt models.Attempt
	if err := getDB(a.db, tx).WithContext(ctx).
		Preload("Test").
		Preload("Test.Template").
		First(&attempt, id).Error; err != nil {
		return nil, err
	}
	return &attempt, nil
}

// GetByTestAndStudent returns nil, nil when the student has not started the test.
func (a *AttemptPostgreSQL) GetByTestAndStudent(ctx context.Context, tx *gorm.DB, testID uint, studentID string) (*models.Attempt, error) {
	var attempt models.Attempt
	if err := getDB(a.db, tx).WithContext(ctx).
		Where("test_id = ? AND student_id = ?", testID, studentID).
		First(&attempt).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &attempt, nil
}

func (a *AttemptPostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.AttemptFilters) ([]*models.Attempt, int64, error) {
	var attempts []*models.Attempt
	var total int64

	// apply filter first
	query := getDB(a.db, tx).WithContext(ctx).Model(&models.Attempt{})
	query = applyAttemptFilters(query, filters)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	// then apply pagination and sorting
	query = applyPaginationAndSort(query, filters.SortBy, filters.SortOrder, filters.Limit, filters.Offset,
		attemptSortColumns, "started_at")

	if err := query.Preload("Test").Find(&attempts).Error; err != nil {
		return nil, 0, err
	}
	return attempts, total, nil
}

func (a *AttemptPostgreSQL) GetByStudent(ctx context.Context, tx *gorm.DB, studentID string, filters repositories.AttemptFilters) ([]*models.Attempt, int64, error) {
	filters.StudentID = &studentID
	return a.List(ctx, tx, filters)
}

func (a *AttemptPostgreSQL) GetByTest(ctx context.Context, tx *gorm.DB, testID uint, filters repositories.AttemptFilters) ([]*models.Attempt, error) {
	var attempts []*models.Attempt

	query := getDB(a.db, tx).WithContext(ctx).Model(&models.Attempt{}).Where("test_id = ?", testID)
	query = applyAttemptFilters(query, filters)
	query = applyPaginationAndSort(query, filters.SortBy, filters.SortOrder, filters.Limit, filters.Offset,
		attemptSortColumns, "started_at")

	if err := query.Find(&attempts).Error; err != nil {
		return nil, err
	}
	return attempts, nil
}

func (a *AttemptPostgreSQL) UpdateStatus(ctx context.Context, tx *gorm.DB, id uint, from, to models.AttemptStatus) error {
	result := getDB(a.db, tx).WithContext(ctx).
		Model(&models.Attempt{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return repositories.ErrConflict
	}
	return nil
}

func (a *AttemptPostgreSQL) CompleteAttempt(ctx context.Context, tx *gorm.DB, attempt *models.Attempt) error {
	result := getDB(a.db, tx).WithContext(ctx).
		Model(&models.Attempt{}).
		Where("id = ? AND status = ?", attempt.ID, models.AttemptStarted).
		Updates(map[string]interface{}{
			"status":          attempt.Status,
			"submitted_at":    attempt.SubmittedAt,
			"score_total":     attempt.ScoreTotal,
			"score_y1":        attempt.ScoreY1,
			"score_y2":        attempt.ScoreY2,
			"score_o":         attempt.ScoreO,
			"incorrect_items": attempt.IncorrectItems,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return repositories.ErrConflict
	}
	return nil
}

func (a *AttemptPostgreSQL) CountByTests(ctx context.Context, tx *gorm.DB, testIDs []uint) (map[uint]int, error) {
	counts := make(map[uint]int, len(testIDs))
	if len(testIDs) == 0 {
		return counts, nil
	}

	var rows []struct {
		TestID uint
		Count  int
	}
	if err := getDB(a.db, tx).WithContext(ctx).
		Model(&models.Attempt{}).
		Select("test_id, COUNT(*) AS count").
		Where("test_id IN ?", testIDs).
		Group("test_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		counts[row.TestID] = row.Count
	}
	return counts, nil
}

func (a *AttemptPostgreSQL) GetTestAttemptStats(ctx context.Context, tx *gorm.DB, testID uint) (*repositories.AttemptStats, error) {
	db := getDB(a.db, tx).WithContext(ctx)

	var rows []struct {
		Status models.AttemptStatus
		Count  int
	}
	if err := db.Model(&models.Attempt{}).
		Select("status, COUNT(*) AS count").
		Where("test_id = ?", testID).
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	stats := &repositories.AttemptStats{StatusBreakdown: make(map[models.AttemptStatus]int)}
	for _, row := range rows {
		stats.StatusBreakdown[row.Status] = row.Count
		stats.TotalAttempts += row.Count
	}
	stats.SubmittedAttempts = stats.StatusBreakdown[models.AttemptSubmitted]

	// Aggregate scores in a single query
	var agg struct {
		Avg float64
		Max int
	}
	if err := db.Model(&models.Attempt{}).
		Select("COALESCE(AVG(score_total), 0) AS avg, COALESCE(MAX(score_total), 0) AS max").
		Where("test_id = ? AND status = ?", testID, models.AttemptSubmitted).
		Scan(&agg).Error; err != nil {
		return nil, err
	}
	stats.AverageScore = agg.Avg
	stats.MaxScore = agg.Max

	return stats, nil
}

type AttemptAnswerPostgreSQL struct {
	db *gorm.DB
}

func NewAttemptAnswerPostgreSQL(db *gorm.DB) repositories.AttemptAnswerRepository {
	return &AttemptAnswerPostgreSQL{db: db}
}

func (r *AttemptAnswerPostgreSQL) CreateBatch(ctx context.Context, tx *gorm.DB, answers []*models.AttemptAnswer) error {
	if len(answers) == 0 {
		return nil
	}
	return getDB(r.db, tx).WithContext(ctx).Create(&answers).Error
}

func (r *AttemptAnswerPostgreSQL) GetByAttempt(ctx context.Context, tx *gorm.DB, attemptID uint) ([]*models.AttemptAnswer, error) {
	var answers []*models.AttemptAnswer
	if err := getDB(r.db, tx).WithContext(ctx).
		Where("attempt_id = ?", attemptID).
		Order("section_code").
		Find(&answers).Error; err != nil {
		return nil, err
	}
	return answers, nil
}

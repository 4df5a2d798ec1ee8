package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/SAP-F-2025/answer-scoring-service/internal/grading"
)

// DefaultDraftTTL keeps an abandoned draft around for a day.
const DefaultDraftTTL = 24 * time.Hour

// DraftStore keeps the working answer sheet of an attempt between requests.
type DraftStore interface {
	// Load returns the draft, or an empty sheet if none was saved.
	Load(ctx context.Context, attemptID uint) (grading.AnswerSheet, error)
	Save(ctx context.Context, attemptID uint, sheet grading.AnswerSheet, ttl time.Duration) error
	Delete(ctx context.Context, attemptID uint) error
}

type draftStore struct {
	cache CacheService
}

func NewDraftStore(cache CacheService) DraftStore {
	return &draftStore{cache: cache}
}

func draftKey(attemptID uint) string {
	return fmt.Sprintf("draft:attempt:%d", attemptID)
}

func (s *draftStore) Load(ctx context.Context, attemptID uint) (grading.AnswerSheet, error) {
	var sheet grading.AnswerSheet
	if err := s.cache.Get(ctx, draftKey(attemptID), &sheet); err != nil {
		if errors.Is(err, ErrCacheMiss) {
			return grading.AnswerSheet{}, nil
		}
		return grading.AnswerSheet{}, err
	}
	return sheet, nil
}

func (s *draftStore) Save(ctx context.Context, attemptID uint, sheet grading.AnswerSheet, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultDraftTTL
	}
	return s.cache.Set(ctx, draftKey(attemptID), sheet, ttl)
}

func (s *draftStore) Delete(ctx context.Context, attemptID uint) error {
	return s.cache.Delete(ctx, draftKey(attemptID))
}

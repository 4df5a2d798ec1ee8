package cache

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SAP-F-2025/answer-scoring-service/internal/grading"
)

func setupTestCache(t *testing.T) (CacheService, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewRedisCache(client, "answers", logger), mr
}

func TestRedisCache(t *testing.T) {
	ctx := context.Background()

	t.Run("Should round trip JSON values under the prefix", func(t *testing.T) {
		c, mr := setupTestCache(t)
		require.NoError(t, c.Set(ctx, "k1", map[string]int{"a": 1}, time.Minute))
		assert.True(t, mr.Exists("answers:k1"))

		var got map[string]int
		require.NoError(t, c.Get(ctx, "k1", &got))
		assert.Equal(t, 1, got["a"])
	})

	t.Run("Should report a miss for unknown keys", func(t *testing.T) {
		c, _ := setupTestCache(t)
		var got string
		assert.ErrorIs(t, c.Get(ctx, "missing", &got), ErrCacheMiss)
	})

	t.Run("Should expire entries after the ttl", func(t *testing.T) {
		c, mr := setupTestCache(t)
		require.NoError(t, c.Set(ctx, "short", "v", time.Second))
		mr.FastForward(2 * time.Second)
		var got string
		assert.ErrorIs(t, c.Get(ctx, "short", &got), ErrCacheMiss)
	})
}

func TestDraftStore(t *testing.T) {
	ctx := context.Background()

	t.Run("Should return an empty sheet when nothing was saved", func(t *testing.T) {
		c, _ := setupTestCache(t)
		store := NewDraftStore(c)
		sheet, err := store.Load(ctx, 42)
		require.NoError(t, err)
		assert.Equal(t, grading.AnswerSheet{}, sheet)
	})

	t.Run("Should persist every section of the sheet", func(t *testing.T) {
		c, mr := setupTestCache(t)
		store := NewDraftStore(c)
		sheet := grading.AnswerSheet{
			SingleChoice: &grading.SingleChoiceSection{Answers: "ABCD"},
			MultiChoice:  &grading.MultiChoiceSection{Answers: grading.ItemChoices{33: "A", 35: "E"}},
			Open:         &grading.OpenSection{Items: []grading.OpenItem{{ItemNo: 36, A: "-3/4", B: "0.5"}}},
		}
		require.NoError(t, store.Save(ctx, 7, sheet, time.Hour))

		ttl := mr.TTL("answers:draft:attempt:7")
		assert.Equal(t, time.Hour, ttl)

		got, err := store.Load(ctx, 7)
		require.NoError(t, err)
		assert.Equal(t, sheet, got)
	})

	t.Run("Should use the default ttl", func(t *testing.T) {
		c, mr := setupTestCache(t)
		store := NewDraftStore(c)
		require.NoError(t, store.Save(ctx, 8, grading.AnswerSheet{}, 0))
		assert.Equal(t, DefaultDraftTTL, mr.TTL("answers:draft:attempt:8"))
	})

	t.Run("Should delete the draft", func(t *testing.T) {
		c, _ := setupTestCache(t)
		store := NewDraftStore(c)
		require.NoError(t, store.Save(ctx, 9, grading.AnswerSheet{SingleChoice: &grading.SingleChoiceSection{Answers: "A"}}, time.Hour))
		require.NoError(t, store.Delete(ctx, 9))

		got, err := store.Load(ctx, 9)
		require.NoError(t, err)
		assert.Nil(t, got.SingleChoice)
	})
}

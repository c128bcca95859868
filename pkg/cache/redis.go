// pkg/cache/redis.go
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"

	"quiz-engine/internal/models"
)

const quizTTL = 24 * time.Hour

type RedisCache struct {
	client *redis.Client
	ctx    context.Context
}

func NewRedisCache(addr string) *RedisCache {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
	})
	return &RedisCache{
		client: client,
		ctx:    context.Background(),
	}
}

func (c *RedisCache) SetQuiz(quiz *models.Quiz) error {
	data, err := json.Marshal(quiz)
	if err != nil {
		return err
	}

	key := "quiz:" + quiz.QuizCode
	return c.client.Set(c.ctx, key, data, quizTTL).Err()
}

func (c *RedisCache) GetQuiz(code string) (*models.Quiz, error) {
	key := "quiz:" + code
	data, err := c.client.Get(c.ctx, key).Bytes()
	if err != nil {
		return nil, err
	}

	var quiz models.Quiz
	err = json.Unmarshal(data, &quiz)
	return &quiz, err
}

func (c *RedisCache) InvalidateQuiz(code string) error {
	return c.client.Del(c.ctx, "quiz:"+code).Err()
}

// RecordResult stores a participant's total score in the per-quiz result set.
// ZADD overwrites the member, so re-scoring an attempt is idempotent.
func (c *RedisCache) RecordResult(quizCode, participantEmail string, score int) error {
	key := "results:" + quizCode
	pipe := c.client.Pipeline()
	pipe.ZAdd(c.ctx, key, &redis.Z{
		Score:  float64(score),
		Member: participantEmail,
	})
	pipe.Expire(c.ctx, key, quizTTL)
	_, err := pipe.Exec(c.ctx)
	return err
}

// ResultEntry is one row of a quiz's score-ordered result set.
type ResultEntry struct {
	ParticipantEmail string `json:"participant_email"`
	Score            int    `json:"score"`
}

func (c *RedisCache) GetResults(quizCode string) ([]ResultEntry, error) {
	key := "results:" + quizCode

	results, err := c.client.ZRevRangeWithScores(c.ctx, key, 0, -1).Result()
	if err != nil {
		return nil, err
	}

	entries := make([]ResultEntry, len(results))
	for i, z := range results {
		entries[i] = ResultEntry{
			ParticipantEmail: z.Member.(string),
			Score:            int(z.Score),
		}
	}

	return entries, nil
}

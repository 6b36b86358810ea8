// Package cache keeps the disbursement run lock and the last run report in
// Redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"disburse/internal/models"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	keyDelimiter = ":"
	runEntity    = "disbursement"
	runKeyType   = "run"
)

var (
	runLockKey = generateKey(runEntity, runKeyType, "lock")
	lastRunKey = generateKey(runEntity, runKeyType, "last")
)

var ErrLockNotHeld = errors.New("lock not held")

// releaseScript deletes the lock only while it still carries our token, so an
// expired lock taken over by another process is left alone.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type CacheService struct {
	client *redis.Client
	ttl    time.Duration
}

func NewCacheService(client *redis.Client, defaultTTL time.Duration) *CacheService {
	return &CacheService{
		client: client,
		ttl:    defaultTTL,
	}
}

// Base operations
func (s *CacheService) Set(ctx context.Context, key string, value interface{}) error {
	return s.SetWithTTL(ctx, key, value, s.ttl)
}

func (s *CacheService) SetWithTTL(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal cache value: %w", err)
	}
	return s.client.Set(ctx, key, data, ttl).Err()
}

func (s *CacheService) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("failed to get cache value: %w", err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("failed to unmarshal cache value: %w", err)
	}
	return true, nil
}

// generateKey joins the parts of a cache key.
func generateKey(entityType, keyType string, value interface{}) string {
	return fmt.Sprintf("%s%s%s%s%v", entityType, keyDelimiter, keyType, keyDelimiter, value)
}

// AcquireRunLock takes the run lock for ttl. It returns the token needed to
// release it, or ok=false when another holder has it.
func (s *CacheService) AcquireRunLock(ctx context.Context, ttl time.Duration) (token string, ok bool, err error) {
	token = uuid.NewString()
	ok, err = s.client.SetNX(ctx, runLockKey, token, ttl).Result()
	if err != nil {
		return "", false, fmt.Errorf("failed to acquire run lock: %w", err)
	}
	if !ok {
		return "", false, nil
	}
	return token, true, nil
}

func (s *CacheService) ReleaseRunLock(ctx context.Context, token string) error {
	deleted, err := releaseScript.Run(ctx, s.client, []string{runLockKey}, token).Int()
	if err != nil {
		return fmt.Errorf("failed to release run lock: %w", err)
	}
	if deleted == 0 {
		return ErrLockNotHeld
	}
	return nil
}

// SaveRunReport stores report under its run id and as the last run. Both
// entries expire after the service's default TTL.
func (s *CacheService) SaveRunReport(ctx context.Context, report *models.RunReport) error {
	if report == nil {
		return errors.New("cannot cache nil run report")
	}
	if err := s.Set(ctx, generateKey(runEntity, runKeyType, report.ID), report); err != nil {
		return err
	}
	return s.Set(ctx, lastRunKey, report)
}

// LastRunReport returns the most recently saved report, or nil if none.
func (s *CacheService) LastRunReport(ctx context.Context) (*models.RunReport, error) {
	return s.runReport(ctx, lastRunKey)
}

// RunReport returns the report of run id, or nil if it expired or never existed.
func (s *CacheService) RunReport(ctx context.Context, id string) (*models.RunReport, error) {
	return s.runReport(ctx, generateKey(runEntity, runKeyType, id))
}

func (s *CacheService) runReport(ctx context.Context, key string) (*models.RunReport, error) {
	var report models.RunReport
	found, err := s.Get(ctx, key, &report)
	if err != nil || !found {
		return nil, err
	}
	return &report, nil
}

package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rentradar/scraper-api/internal/model"
)

// ErrNotFound is returned when no job exists under the requested id
var ErrNotFound = errors.New("job not found")

// JobStore is the durable per-job state store. Implementations must provide
// read-after-write consistency for a single job id: the orchestrator
// persists every transition before returning control.
type JobStore interface {
	Get(ctx context.Context, id string) (*model.Job, error)
	Put(ctx context.Context, job *model.Job) error
	List(ctx context.Context) ([]*model.Job, error)
}

const (
	jobKeyPrefix = "job:"
	jobIndexKey  = "jobs:index"
)

// storedJob is the persistence envelope. Job.Result is json:"-" on the API
// model, so it is carried explicitly here.
type storedJob struct {
	Job    model.Job       `json:"job"`
	Result json.RawMessage `json:"result,omitempty"`
}

// RedisJobStore keeps jobs as JSON values under job:<id> with a sorted-set
// index scored by creation time. A single Redis instance gives the
// read-after-write guarantee per id.
type RedisJobStore struct {
	client    *redis.Client
	retention time.Duration
}

func NewRedisJobStore(client *redis.Client, retention time.Duration) *RedisJobStore {
	return &RedisJobStore{client: client, retention: retention}
}

func (s *RedisJobStore) Get(ctx context.Context, id string) (*model.Job, error) {
	data, err := s.client.Get(ctx, jobKeyPrefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read job %s: %w", id, err)
	}
	return decodeJob(data)
}

func (s *RedisJobStore) Put(ctx context.Context, job *model.Job) error {
	data, err := json.Marshal(storedJob{Job: *job, Result: job.Result})
	if err != nil {
		return fmt.Errorf("failed to marshal job %s: %w", job.ID, err)
	}
	if err := s.client.Set(ctx, jobKeyPrefix+job.ID, data, s.retention).Err(); err != nil {
		return fmt.Errorf("failed to write job %s: %w", job.ID, err)
	}
	err = s.client.ZAdd(ctx, jobIndexKey, redis.Z{
		Score:  float64(job.CreatedAt.UnixMilli()),
		Member: job.ID,
	}).Err()
	if err != nil {
		return fmt.Errorf("failed to index job %s: %w", job.ID, err)
	}
	return nil
}

// List returns all retained jobs, newest first. Index entries whose values
// have expired are pruned as they are encountered.
func (s *RedisJobStore) List(ctx context.Context) ([]*model.Job, error) {
	ids, err := s.client.ZRevRange(ctx, jobIndexKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read job index: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = jobKeyPrefix + id
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read jobs: %w", err)
	}

	jobs := make([]*model.Job, 0, len(values))
	for i, v := range values {
		if v == nil {
			// Value expired under retention; drop the stale index entry
			s.client.ZRem(ctx, jobIndexKey, ids[i])
			continue
		}
		str, ok := v.(string)
		if !ok {
			continue
		}
		job, err := decodeJob([]byte(str))
		if err != nil {
			continue
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

func decodeJob(data []byte) (*model.Job, error) {
	var stored storedJob
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, fmt.Errorf("failed to unmarshal job: %w", err)
	}
	job := stored.Job
	job.Result = stored.Result
	return &job, nil
}

// MemoryJobStore is an in-process JobStore used in tests and single-node
// development runs.
type MemoryJobStore struct {
	jobs map[string][]byte
}

func NewMemoryJobStore() *MemoryJobStore {
	return &MemoryJobStore{jobs: make(map[string][]byte)}
}

func (s *MemoryJobStore) Get(_ context.Context, id string) (*model.Job, error) {
	data, ok := s.jobs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return decodeJob(data)
}

func (s *MemoryJobStore) Put(_ context.Context, job *model.Job) error {
	data, err := json.Marshal(storedJob{Job: *job, Result: job.Result})
	if err != nil {
		return err
	}
	s.jobs[job.ID] = data
	return nil
}

func (s *MemoryJobStore) List(_ context.Context) ([]*model.Job, error) {
	jobs := make([]*model.Job, 0, len(s.jobs))
	for _, data := range s.jobs {
		job, err := decodeJob(data)
		if err != nil {
			continue
		}
		jobs = append(jobs, job)
	}
	sort.Slice(jobs, func(i, j int) bool {
		return jobs[i].CreatedAt.After(jobs[j].CreatedAt)
	})
	return jobs, nil
}

package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const analysisJobsKey = "insightboard:analysis_jobs"

// ErrEmpty is returned by PopAnalysisJob when the wait timed out.
var ErrEmpty = errors.New("queue empty")

// AnalysisJob asks a worker to analyze a pending transcript.
type AnalysisJob struct {
	TranscriptID string    `json:"transcriptId"`
	UserID       string    `json:"userId"`
	EnqueuedAt   time.Time `json:"enqueuedAt"`
	// Attempts counts earlier runs that failed and were requeued.
	Attempts int `json:"attempts,omitempty"`
}

type Queue struct {
	client *redis.Client
	key    string
}

func New(url string) (*Queue, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opt)
	return &Queue{client: client, key: analysisJobsKey}, nil
}

func (q *Queue) Ping(ctx context.Context) error {
	return q.client.Ping(ctx).Err()
}

func (q *Queue) PushAnalysisJob(ctx context.Context, job AnalysisJob) error {
	if job.TranscriptID == "" {
		return errors.New("analysis job requires a transcript id")
	}
	if job.EnqueuedAt.IsZero() {
		job.EnqueuedAt = time.Now().UTC()
	}
	payload, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return q.client.LPush(ctx, q.key, payload).Err()
}

// PopAnalysisJob blocks up to timeout for the oldest job.
func (q *Queue) PopAnalysisJob(ctx context.Context, timeout time.Duration) (AnalysisJob, error) {
	res, err := q.client.BRPop(ctx, timeout, q.key).Result()
	if errors.Is(err, redis.Nil) {
		return AnalysisJob{}, ErrEmpty
	}
	if err != nil {
		return AnalysisJob{}, err
	}
	if len(res) < 2 {
		return AnalysisJob{}, ErrEmpty
	}
	var job AnalysisJob
	if err := json.Unmarshal([]byte(res[1]), &job); err != nil {
		return AnalysisJob{}, fmt.Errorf("decode analysis job: %w", err)
	}
	return job, nil
}

func (q *Queue) Depth(ctx context.Context) (int64, error) {
	return q.client.LLen(ctx, q.key).Result()
}

func (q *Queue) Close() error {
	return q.client.Close()
}

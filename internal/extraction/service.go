package extraction

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/kiranshivaraju/hindsight/internal/cache"
	"github.com/kiranshivaraju/hindsight/internal/corpus"
	"github.com/kiranshivaraju/hindsight/internal/store"
	"github.com/kiranshivaraju/hindsight/pkg/models"
)

// DefaultLimit is the number of stories processed when the caller gives none.
const DefaultLimit = 50

// ExtractedAtLayout formats Corpus.ExtractedAt.
const ExtractedAtLayout = "2006-01-02 15:04:05"

const jobStatusTTL = 30 * time.Minute

// ErrNoJobStore is returned by TriggerExtraction when no job store is configured.
var ErrNoJobStore = errors.New("job store not configured")

// JobStore is the subset of store.Store used for extraction jobs.
type JobStore interface {
	CreateJob(ctx context.Context, job *models.Job) error
	GetJob(ctx context.Context, id uuid.UUID) (*models.Job, error)
	UpdateJobStatus(ctx context.Context, id uuid.UUID, status string, opts ...store.JobUpdateOption) error
}

// Recorder receives per-run extraction counts.
type Recorder interface {
	RecordExtraction(ok, dropped int)
}

// Report summarizes one extraction run. It is stored as the job result.
type Report struct {
	Stories     int    `json:"stories"`
	Patterns    int    `json:"patterns"`
	Dropped     int    `json:"dropped"`
	ExtractedAt string `json:"extracted_at"`
}

// Service reads raw stories, extracts patterns and installs the new corpus.
type Service struct {
	extractor   *Extractor
	patterns    *corpus.Store
	storiesPath string

	jobs     JobStore
	cache    cache.Cache
	recorder Recorder
	now      func() time.Time

	wg sync.WaitGroup
}

// Option configures a Service.
type Option func(*Service)

func WithJobStore(j JobStore) Option {
	return func(s *Service) { s.jobs = j }
}

// WithCache mirrors job status in c.
func WithCache(c cache.Cache) Option {
	return func(s *Service) { s.cache = c }
}

func WithRecorder(r Recorder) Option {
	return func(s *Service) { s.recorder = r }
}

func NewService(ex *Extractor, patterns *corpus.Store, storiesPath string, opts ...Option) *Service {
	s := &Service{
		extractor:   ex,
		patterns:    patterns,
		storiesPath: storiesPath,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run extracts up to limit stories synchronously, saves the corpus and swaps it in.
func (s *Service) Run(ctx context.Context, limit int) (*Report, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	stories, err := corpus.ReadStories(s.storiesPath, limit)
	if err != nil {
		return nil, fmt.Errorf("read stories: %w", err)
	}

	patterns, err := s.extractor.ExtractBatch(ctx, stories)
	if err != nil {
		return nil, err
	}

	doc := &models.Corpus{
		ExtractedAt:   s.now().Format(ExtractedAtLayout),
		TotalPatterns: len(patterns),
		Patterns:      patterns,
	}
	if _, err := s.patterns.Save(ctx, doc); err != nil {
		return nil, err
	}

	report := &Report{
		Stories:     len(stories),
		Patterns:    len(patterns),
		Dropped:     len(stories) - len(patterns),
		ExtractedAt: doc.ExtractedAt,
	}
	if s.recorder != nil {
		s.recorder.RecordExtraction(report.Patterns, report.Dropped)
	}
	return report, nil
}

// TriggerExtraction creates a pending job and runs the extraction in the background.
func (s *Service) TriggerExtraction(ctx context.Context, limit int) (*models.Job, error) {
	if s.jobs == nil {
		return nil, ErrNoJobStore
	}

	now := time.Now().UTC()
	job := &models.Job{
		ID:        uuid.New(),
		Type:      models.JobTypeExtraction,
		Status:    models.JobStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.jobs.CreateJob(ctx, job); err != nil {
		return nil, fmt.Errorf("creating job: %w", err)
	}
	s.setStatus(ctx, job.ID, models.JobStatusPending)

	s.wg.Add(1)
	go s.runJob(context.WithoutCancel(ctx), job.ID, limit)

	return job, nil
}

// GetJob returns a job by ID. When the job store errors (other than not
// found) and the cache still mirrors the job, a status-only Job is returned.
func (s *Service) GetJob(ctx context.Context, id uuid.UUID) (*models.Job, error) {
	if s.jobs == nil {
		return nil, ErrNoJobStore
	}

	job, err := s.jobs.GetJob(ctx, id)
	if err == nil || errors.Is(err, store.ErrNotFound) || s.cache == nil {
		return job, err
	}

	status, ok, cerr := s.cache.GetJobStatus(ctx, id)
	if cerr != nil || !ok {
		return nil, err
	}
	slog.Warn("job store unavailable, serving cached status", "job_id", id, "error", err)
	return &models.Job{ID: id, Type: models.JobTypeExtraction, Status: status}, nil
}

// Wait blocks until all background jobs have finished.
func (s *Service) Wait() {
	s.wg.Wait()
}

func (s *Service) runJob(ctx context.Context, jobID uuid.UUID, limit int) {
	defer s.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			slog.Error("panic in extraction job", "error", r, "job_id", jobID)
			s.fail(ctx, jobID, fmt.Sprintf("panic: %v", r))
		}
	}()

	if err := s.jobs.UpdateJobStatus(ctx, jobID, models.JobStatusRunning); err != nil {
		slog.Error("mark job running", "job_id", jobID, "error", err)
		s.fail(ctx, jobID, fmt.Sprintf("mark job running: %v", err))
		return
	}
	s.setStatus(ctx, jobID, models.JobStatusRunning)

	report, err := s.Run(ctx, limit)
	if err != nil {
		slog.Error("extraction job failed", "job_id", jobID, "error", err)
		s.fail(ctx, jobID, err.Error())
		return
	}

	result, err := json.Marshal(report)
	if err != nil {
		s.fail(ctx, jobID, fmt.Sprintf("encoding report: %v", err))
		return
	}

	if err := s.jobs.UpdateJobStatus(ctx, jobID, models.JobStatusCompleted, store.WithResult(result)); err != nil {
		slog.Error("mark job completed", "job_id", jobID, "error", err)
	}
	s.setStatus(ctx, jobID, models.JobStatusCompleted)
	slog.Info("extraction job completed", "job_id", jobID, "patterns", report.Patterns, "dropped", report.Dropped)
}

func (s *Service) fail(ctx context.Context, jobID uuid.UUID, msg string) {
	if err := s.jobs.UpdateJobStatus(ctx, jobID, models.JobStatusFailed, store.WithErrorMessage(msg)); err != nil {
		slog.Error("mark job failed", "job_id", jobID, "reason", msg, "error", err)
	}
	s.setStatus(ctx, jobID, models.JobStatusFailed)
}

func (s *Service) setStatus(ctx context.Context, jobID uuid.UUID, status string) {
	if s.cache == nil {
		return
	}
	_ = s.cache.SetJobStatus(ctx, jobID, status, jobStatusTTL)
}

package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/faculty-timetable-api/internal/dto"
	appErrors "github.com/noah-isme/faculty-timetable-api/pkg/errors"
	"github.com/noah-isme/faculty-timetable-api/pkg/jobs"
)

const regenerationJobType = "timetable.regenerate"

type timetableGenerator interface {
	Generate(ctx context.Context, req dto.GenerateTimetableRequest) (*dto.GenerateTimetableResponse, error)
}

type jobStatusStore interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// RegenerationConfig tunes the background regeneration worker.
type RegenerationConfig struct {
	BufferSize int
	MaxRetries int
	RetryDelay time.Duration
	StatusTTL  time.Duration
}

// RegenerationService regenerates timetables for many faculty members in the background.
// A single worker drains the queue, so runs never overlap each other.
type RegenerationService struct {
	generator timetableGenerator
	store     jobStatusStore
	queue     *jobs.Queue
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	cfg       RegenerationConfig
}

// NewRegenerationService builds the service and its queue. Call Start before Enqueue.
func NewRegenerationService(generator timetableGenerator, store jobStatusStore, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, cfg RegenerationConfig) *RegenerationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.StatusTTL <= 0 {
		cfg.StatusTTL = 24 * time.Hour
	}
	s := &RegenerationService{
		generator: generator,
		store:     store,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
	}
	s.queue = jobs.NewQueue("timetable-regeneration", s.handle, jobs.QueueConfig{
		Workers:    1,
		BufferSize: cfg.BufferSize,
		MaxRetries: cfg.MaxRetries,
		RetryDelay: cfg.RetryDelay,
		Logger:     logger,
		Retryable:  retryableJobError,
		OnGiveUp:   s.giveUp,
	})
	return s
}

// Start launches the worker.
func (s *RegenerationService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop waits for the worker to exit.
func (s *RegenerationService) Stop() {
	s.queue.Stop()
}

// Enqueue records a queued job and hands it to the worker.
func (s *RegenerationService) Enqueue(ctx context.Context, req dto.RegenerateTimetablesRequest) (*dto.RegenerationJobStatus, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid regeneration payload")
	}
	req.FacultyIDs = uniqueStrings(req.FacultyIDs)

	now := time.Now().UTC()
	status := &dto.RegenerationJobStatus{
		JobID:        uuid.NewString(),
		Status:       dto.JobStatusQueued,
		AcademicYear: req.AcademicYear,
		Semester:     req.Semester,
		FacultyIDs:   req.FacultyIDs,
		Results:      []dto.FacultyJobResult{},
		EnqueuedAt:   now,
		UpdatedAt:    now,
	}
	if err := s.saveStatus(ctx, status); err != nil {
		return nil, err
	}
	if err := s.queue.Enqueue(jobs.Job{ID: status.JobID, Type: regenerationJobType, Payload: req}); err != nil {
		status.Status = dto.JobStatusFailed
		status.Error = err.Error()
		_ = s.saveStatus(ctx, status)
		s.metrics.RecordJob(dto.JobStatusFailed)
		return nil, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "regeneration queue unavailable")
	}
	s.logger.Info("regeneration job queued", zap.String("job_id", status.JobID), zap.Int("faculty", len(req.FacultyIDs)))
	return status, nil
}

// Status returns the stored state of a job.
func (s *RegenerationService) Status(ctx context.Context, jobID string) (*dto.RegenerationJobStatus, error) {
	var status dto.RegenerationJobStatus
	if err := s.store.Get(ctx, regenerationJobKey(jobID), &status); err != nil {
		if errors.Is(err, appErrors.ErrCacheMiss) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("regeneration job %s not found", jobID))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load regeneration job")
	}
	return &status, nil
}

func (s *RegenerationService) handle(ctx context.Context, job jobs.Job) error {
	req, ok := job.Payload.(dto.RegenerateTimetablesRequest)
	if !ok {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unexpected payload %T", job.Payload))
	}
	status, err := s.Status(ctx, job.ID)
	if err != nil {
		s.logger.Warn("regeneration status missing, rebuilding", zap.String("job_id", job.ID), zap.Error(err))
		status = &dto.RegenerationJobStatus{
			JobID:        job.ID,
			AcademicYear: req.AcademicYear,
			Semester:     req.Semester,
			FacultyIDs:   req.FacultyIDs,
			EnqueuedAt:   job.Enqueued,
		}
	}
	// a retried job keeps what earlier attempts committed
	done := completedResults(status.Results)
	status.Status = dto.JobStatusRunning
	status.Error = ""
	if err := s.saveStatus(ctx, status); err != nil {
		return err
	}
	status.Results = make([]dto.FacultyJobResult, 0, len(req.FacultyIDs))

	var retryErr error
	failed := 0
	for _, facultyID := range req.FacultyIDs {
		if prior, ok := done[facultyID]; ok {
			status.Results = append(status.Results, prior)
			continue
		}
		result := dto.FacultyJobResult{FacultyID: facultyID, Status: dto.JobStatusCompleted}
		resp, err := s.generator.Generate(ctx, dto.GenerateTimetableRequest{
			FacultyID:    facultyID,
			AcademicYear: req.AcademicYear,
			Semester:     req.Semester,
		})
		if err != nil {
			failed++
			result.Status = dto.JobStatusFailed
			result.Error = err.Error()
			if retryableJobError(err) && retryErr == nil {
				retryErr = err
			}
		} else {
			result.PlacedPeriods = resp.PlacedPeriods
			result.Shortfall = resp.Shortfall
		}
		status.Results = append(status.Results, result)
	}

	if retryErr != nil {
		s.logger.Warn("regeneration job incomplete",
			zap.String("job_id", job.ID),
			zap.Int("attempt", job.Attempt),
			zap.Int("skipped", len(done)),
			zap.Int("failed", failed))
		status.Error = retryErr.Error()
		_ = s.saveStatus(ctx, status)
		return retryErr
	}

	status.Status = dto.JobStatusCompleted
	if failed > 0 {
		status.Status = dto.JobStatusCompletedWithErrors
	}
	if err := s.saveStatus(ctx, status); err != nil {
		return err
	}
	s.metrics.RecordJob(status.Status)
	s.logger.Info("regeneration job finished",
		zap.String("job_id", job.ID),
		zap.String("status", status.Status),
		zap.Int("faculty", len(req.FacultyIDs)),
		zap.Int("failed", failed))
	return nil
}

func (s *RegenerationService) giveUp(_ context.Context, job jobs.Job, cause error) {
	// the queue context may already be cancelled on shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	status, err := s.Status(ctx, job.ID)
	if err != nil {
		status = &dto.RegenerationJobStatus{JobID: job.ID, EnqueuedAt: job.Enqueued}
	}
	status.Status = dto.JobStatusFailed
	status.Error = cause.Error()
	if err := s.saveStatus(ctx, status); err != nil {
		s.logger.Error("failed to record failed regeneration job", zap.String("job_id", job.ID), zap.Error(err))
	}
	s.metrics.RecordJob(dto.JobStatusFailed)
}

func (s *RegenerationService) saveStatus(ctx context.Context, status *dto.RegenerationJobStatus) error {
	status.UpdatedAt = time.Now().UTC()
	if err := s.store.Set(ctx, regenerationJobKey(status.JobID), status, s.cfg.StatusTTL); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store regeneration job status")
	}
	return nil
}

// retryableJobError retries server-side failures and lock timeouts. Validation and not-found are final.
func retryableJobError(err error) bool {
	if errors.Is(err, appErrors.ErrLocked) {
		return true
	}
	return appErrors.FromError(err).Status >= http.StatusInternalServerError
}

func completedResults(results []dto.FacultyJobResult) map[string]dto.FacultyJobResult {
	done := make(map[string]dto.FacultyJobResult, len(results))
	for _, r := range results {
		if r.Status == dto.JobStatusCompleted {
			done[r.FacultyID] = r
		}
	}
	return done
}

func regenerationJobKey(jobID string) string {
	return "timetable:job:" + jobID
}

func uniqueStrings(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

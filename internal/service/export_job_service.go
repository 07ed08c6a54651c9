package service

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	appErrors "github.com/HieuTrannn/fibo-academic-api/pkg/errors"
	"github.com/HieuTrannn/fibo-academic-api/pkg/jobs"
	"github.com/HieuTrannn/fibo-academic-api/pkg/storage"
)

// ExportJobStatus tracks the lifecycle of an asynchronous roster export.
type ExportJobStatus string

const (
	ExportJobPending   ExportJobStatus = "PENDING"
	ExportJobCompleted ExportJobStatus = "COMPLETED"
	ExportJobFailed    ExportJobStatus = "FAILED"
)

const (
	exportScopeClass = "class"
	exportScopeGroup = "group"
)

// ExportJob is the tracked state of one roster export request.
type ExportJob struct {
	ID          string          `json:"id"`
	Scope       string          `json:"scope"`
	TargetID    string          `json:"target_id"`
	Format      string          `json:"format"`
	Status      ExportJobStatus `json:"status"`
	Filename    string          `json:"filename,omitempty"`
	DownloadURL string          `json:"download_url,omitempty"`
	ExpiresAt   *time.Time      `json:"expires_at,omitempty"`
	Error       string          `json:"error,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// ExportJobService runs roster exports on a background worker queue,
// persists the rendered files and hands out signed download tokens.
type ExportJobService struct {
	exports  *ExportService
	store    *storage.LocalStorage
	signer   *storage.SignedURLSigner
	queue    *jobs.Queue
	basePath string
	logger   *zap.Logger

	mu      sync.RWMutex
	tracked map[string]*ExportJob
}

// NewExportJobService constructs the service and its queue. Call Start
// before enqueueing and Stop on shutdown.
func NewExportJobService(exports *ExportService, store *storage.LocalStorage, signer *storage.SignedURLSigner, basePath string, logger *zap.Logger) *ExportJobService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &ExportJobService{
		exports:  exports,
		store:    store,
		signer:   signer,
		basePath: basePath,
		logger:   logger,
		tracked:  make(map[string]*ExportJob),
	}
	s.queue = jobs.NewQueue("roster-exports", s.process, jobs.QueueConfig{Workers: 2, Logger: logger})
	return s
}

// Start launches the queue workers.
func (s *ExportJobService) Start(ctx context.Context) { s.queue.Start(ctx) }

// Stop drains the queue workers.
func (s *ExportJobService) Stop() { s.queue.Stop() }

// RequestClassRoster enqueues an asynchronous class roster export.
func (s *ExportJobService) RequestClassRoster(ctx context.Context, classID, format string) (*ExportJob, error) {
	return s.enqueue(ctx, exportScopeClass, classID, format)
}

// RequestGroupRoster enqueues an asynchronous group roster export.
func (s *ExportJobService) RequestGroupRoster(ctx context.Context, groupID, format string) (*ExportJob, error) {
	return s.enqueue(ctx, exportScopeGroup, groupID, format)
}

func (s *ExportJobService) enqueue(ctx context.Context, scope, targetID, format string) (*ExportJob, error) {
	if format == "" {
		format = FormatCSV
	}
	if format != FormatCSV && format != FormatPDF {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported export format "+format)
	}

	job := &ExportJob{
		ID:        uuid.NewString(),
		Scope:     scope,
		TargetID:  targetID,
		Format:    format,
		Status:    ExportJobPending,
		CreatedAt: time.Now().UTC(),
	}
	s.mu.Lock()
	s.tracked[job.ID] = job
	s.mu.Unlock()

	if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: scope}); err != nil {
		s.mu.Lock()
		delete(s.tracked, job.ID)
		s.mu.Unlock()
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enqueue export")
	}
	snapshot := *job
	return &snapshot, nil
}

// Get returns the tracked job, decorated with a signed download URL once the
// file is ready.
func (s *ExportJobService) Get(id string) (*ExportJob, error) {
	s.mu.RLock()
	job, ok := s.tracked[id]
	s.mu.RUnlock()
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "export job not found")
	}

	snapshot := *job
	if snapshot.Status == ExportJobCompleted && s.signer != nil {
		token, expiresAt, err := s.signer.Generate(snapshot.ID, snapshot.Filename)
		if err == nil {
			snapshot.DownloadURL = s.basePath + "/exports/download?token=" + token
			snapshot.ExpiresAt = &expiresAt
		}
	}
	return &snapshot, nil
}

// Download validates a signed token and streams back the stored file.
func (s *ExportJobService) Download(token string) ([]byte, string, error) {
	if s.signer == nil || s.store == nil {
		return nil, "", appErrors.Clone(appErrors.ErrBusinessRule, "export downloads are not configured")
	}
	_, filename, _, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, "", appErrors.Clone(appErrors.ErrForbidden, "invalid or expired download token")
	}
	file, err := s.store.Open(filename)
	if err != nil {
		return nil, "", appErrors.Clone(appErrors.ErrNotFound, "export file no longer available")
	}
	defer file.Close() //nolint:errcheck
	payload, err := io.ReadAll(file)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read export file")
	}
	return payload, filename, nil
}

// CleanupExpired deletes export files past their TTL.
func (s *ExportJobService) CleanupExpired(ttl time.Duration) ([]string, error) {
	if s.store == nil {
		return nil, nil
	}
	return s.store.CleanupOlderThan(ttl)
}

func (s *ExportJobService) process(ctx context.Context, job jobs.Job) error {
	s.mu.RLock()
	tracked, ok := s.tracked[job.ID]
	s.mu.RUnlock()
	if !ok {
		return nil
	}

	var payload []byte
	var filename string
	var err error
	switch tracked.Scope {
	case exportScopeClass:
		payload, filename, err = s.exports.ClassRoster(ctx, tracked.TargetID, tracked.Format)
	case exportScopeGroup:
		payload, filename, err = s.exports.GroupRoster(ctx, tracked.TargetID, tracked.Format)
	default:
		err = fmt.Errorf("unknown export scope %s", tracked.Scope)
	}
	if err == nil && s.store != nil {
		filename = fmt.Sprintf("%s/%s", tracked.Scope, job.ID+"-"+filename)
		_, err = s.store.Save(filename, payload)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		tracked.Status = ExportJobFailed
		tracked.Error = err.Error()
		s.logger.Error("roster export failed", zap.String("job_id", job.ID), zap.Error(err))
		// retrying will not help for domain errors, swallow
		if appErrors.Is(err, appErrors.ErrNotFound) || appErrors.Is(err, appErrors.ErrValidation) {
			return nil
		}
		return err
	}
	tracked.Status = ExportJobCompleted
	tracked.Filename = filename
	s.logger.Info("roster export completed", zap.String("job_id", job.ID), zap.String("file", filename))
	return nil
}

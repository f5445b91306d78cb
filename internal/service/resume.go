package service

import (
	"bytes"
	"context"
	"iter"
	"log/slog"

	"github.com/DukeRupert/certum/internal/ai"
	"github.com/DukeRupert/certum/internal/domain"
	"github.com/DukeRupert/certum/internal/metrics"
	"github.com/DukeRupert/certum/internal/storage"
)

// ResumeService runs AI resume analysis against a job info.
type ResumeService interface {
	// Analyze validates the upload, checks entitlement and ownership, and
	// returns the analysis as a stream of text chunks. The caller must
	// range over the stream.
	Analyze(ctx context.Context, userID string, upload *domain.ResumeUpload) (iter.Seq2[string, error], error)
}

// ResumeDeps holds the collaborators of ResumeService. Archive may be nil,
// in which case uploads are not kept.
type ResumeDeps struct {
	Gate     Gate
	JobInfos JobInfoService
	Analyzer ai.ResumeAnalyzer
	Archive  storage.Storage
	Logger   *slog.Logger
}

type resumeService struct {
	ResumeDeps
}

// NewResumeService creates a new ResumeService.
func NewResumeService(deps ResumeDeps) ResumeService {
	return &resumeService{ResumeDeps: deps}
}

func (s *resumeService) Analyze(ctx context.Context, userID string, upload *domain.ResumeUpload) (iter.Seq2[string, error], error) {
	const op = "resume.analyze"

	if upload == nil {
		return nil, domain.Invalid(op, "resume file is required")
	}
	if err := upload.Validate(); err != nil {
		return nil, err
	}
	if userID == "" {
		return nil, domain.Unauthorized(op, NotLoggedInMessage)
	}

	if !s.Gate.allowed(ctx, userID, domain.ResourceResume) {
		return nil, domain.PlanLimit(op, PlanLimitMessage)
	}

	jobInfo, err := s.JobInfos.Get(ctx, userID, upload.JobInfoID)
	if err != nil {
		return nil, err
	}

	s.archive(ctx, userID, upload)

	stream, err := s.Analyzer.AnalyzeResume(ctx, ai.ResumeRequest{
		Data:        upload.Data,
		ContentType: upload.ContentType,
		Filename:    upload.Filename,
		Job:         ai.NewJobContext(jobInfo),
	})
	if err != nil {
		s.Logger.Error("resume analysis failed", "user_id", userID, "job_info_id", upload.JobInfoID, "error", err)
		return nil, domain.Upstream(err, op, "Failed to analyze resume")
	}

	s.Gate.recordDemoUse(ctx, s.Logger, userID, domain.ResourceResume)
	metrics.ResumesAnalyzed.Inc()

	return stream, nil
}

// archive keeps a copy of the upload. Failures are logged and ignored.
func (s *resumeService) archive(ctx context.Context, userID string, upload *domain.ResumeUpload) {
	if s.Archive == nil {
		return
	}

	key := storage.ResumeKey(userID, upload.JobInfoID, upload.Filename, upload.ContentType)
	err := s.Archive.Put(ctx, key, bytes.NewReader(upload.Data), storage.PutOptions{
		ContentType: upload.ContentType,
		MaxSize:     domain.MaxResumeSize,
		Metadata: map[string]string{
			"user-id":     userID,
			"job-info-id": upload.JobInfoID.String(),
			"filename":    upload.Filename,
		},
	})
	if err != nil {
		s.Logger.Warn("resume archive failed", "user_id", userID, "key", key, "error", err)
		return
	}
	s.Logger.Debug("resume archived", "user_id", userID, "key", key)
}

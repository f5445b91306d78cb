package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/DukeRupert/certum/internal/ai"
	"github.com/DukeRupert/certum/internal/cache"
	"github.com/DukeRupert/certum/internal/domain"
	"github.com/DukeRupert/certum/internal/metrics"
	"github.com/DukeRupert/certum/internal/ratelimit"
	"github.com/DukeRupert/certum/internal/repository"
)

// =============================================================================
// Interface Definition
// =============================================================================

// InterviewService runs the mock interview lifecycle.
type InterviewService interface {
	// Create starts a new empty interview under an owned job info.
	// Checks, in order: authentication, entitlement, rate limit, ownership.
	Create(ctx context.Context, userID string, jobInfoID uuid.UUID) (*domain.Interview, error)

	// Update records the call id and duration reported by the voice session.
	Update(ctx context.Context, userID string, id uuid.UUID, params domain.UpdateInterviewParams) (*domain.Interview, error)

	// GenerateFeedback writes AI feedback for a completed interview. The
	// entitlement is not checked again; creating the interview consumed it.
	GenerateFeedback(ctx context.Context, userID string, id uuid.UUID) (*domain.Interview, error)

	// Get returns an owned interview with its job info.
	Get(ctx context.Context, userID string, id uuid.UUID) (*domain.Interview, error)

	// ListByJobInfo returns the interviews of an owned job info, newest first.
	ListByJobInfo(ctx context.Context, userID string, jobInfoID uuid.UUID) ([]domain.Interview, error)
}

// InterviewDeps holds the collaborators of InterviewService.
type InterviewDeps struct {
	Queries     repository.Querier
	Cache       *cache.Store
	Gate        Gate
	Limiter     ratelimit.Limiter
	JobInfos    JobInfoService
	Users       UserService
	Transcripts ai.TranscriptSource
	Feedback    ai.FeedbackGenerator
	Logger      *slog.Logger
}

// =============================================================================
// Implementation
// =============================================================================

type interviewService struct {
	InterviewDeps
}

// NewInterviewService creates a new InterviewService.
func NewInterviewService(deps InterviewDeps) InterviewService {
	return &interviewService{InterviewDeps: deps}
}

func (s *interviewService) Create(ctx context.Context, userID string, jobInfoID uuid.UUID) (*domain.Interview, error) {
	const op = "interview.create"

	if userID == "" {
		return nil, domain.Unauthorized(op, "You don't have permission to create an interview")
	}

	if !s.Gate.allowed(ctx, userID, domain.ResourceInterview) {
		return nil, domain.PlanLimit(op, PlanLimitMessage)
	}

	decision, err := s.Limiter.Protect(ctx, userID, 1)
	if err != nil {
		metrics.RateLimited("interview", "error")
		s.Logger.Error("rate limiter failed", "user_id", userID, "error", err)
		return nil, domain.Upstream(err, op, "Unable to start an interview right now. Please try again.")
	}
	if decision.IsDenied() {
		metrics.RateLimited("interview", "denied")
		s.Logger.Info("interview creation rate limited",
			"user_id", userID,
			"retry_after", decision.RetryAfter,
		)
		return nil, domain.RateLimit(op)
	}
	metrics.RateLimited("interview", "allowed")

	if _, err := s.JobInfos.Get(ctx, userID, jobInfoID); err != nil {
		return nil, err
	}

	row, err := s.Queries.CreateInterview(ctx, jobInfoID)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to create interview")
	}

	s.Cache.Invalidate(cache.JobInfoInterviewsTag(jobInfoID), cache.InterviewTag(row.ID))
	s.Gate.recordDemoUse(ctx, s.Logger, userID, domain.ResourceInterview)
	metrics.InterviewsCreated.Inc()

	s.Logger.Info("interview created", "user_id", userID, "interview_id", row.ID, "job_info_id", jobInfoID)
	return repoInterviewToDomain(row), nil
}

func (s *interviewService) Update(ctx context.Context, userID string, id uuid.UUID, params domain.UpdateInterviewParams) (*domain.Interview, error) {
	const op = "interview.update"

	interview, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	chatID, duration, err := interview.Apply(params)
	if err != nil {
		return nil, err
	}

	row, err := s.Queries.UpdateInterview(ctx, repository.UpdateInterviewParams{
		ID:              id,
		HumeChatID:      domain.ToNullString(chatID),
		DurationSeconds: int32(duration / time.Second),
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Feedback landed between the read and the write.
			return nil, domain.Invalid(op, "interview already has feedback and can no longer change")
		}
		return nil, domain.Internal(err, op, "failed to update interview")
	}

	s.Cache.Invalidate(cache.InterviewTag(id), cache.JobInfoInterviewsTag(row.JobInfoID))

	updated := repoInterviewToDomain(row)
	updated.JobInfo = interview.JobInfo
	return updated, nil
}

func (s *interviewService) GenerateFeedback(ctx context.Context, userID string, id uuid.UUID) (*domain.Interview, error) {
	const op = "interview.generate_feedback"

	if userID == "" {
		return nil, domain.Unauthorized(op, "You don't have permission to do this")
	}

	interview, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if !interview.IsCompleted() {
		return nil, domain.Invalid(op, NotCompletedMessage)
	}
	if interview.HasFeedback() {
		return nil, domain.Invalid(op, "Feedback has already been generated for this interview.")
	}

	userName := ""
	if user, err := s.Users.GetByID(ctx, userID); err == nil {
		userName = user.DisplayName()
	} else {
		s.Logger.Warn("could not load user name for feedback", "user_id", userID, "error", err)
	}

	transcript, err := s.Transcripts.ChatTranscript(ctx, interview.HumeChatID)
	if err != nil {
		s.Logger.Error("transcript fetch failed", "interview_id", id, "error", err)
		return nil, domain.Upstream(err, op, "Failed to generate feedback")
	}

	feedback, err := s.Feedback.GenerateFeedback(ctx, ai.FeedbackRequest{
		Transcript: transcript,
		Job:        ai.NewJobContext(interview.JobInfo),
		UserName:   userName,
	})
	if err == nil && strings.TrimSpace(feedback) == "" {
		err = ai.EAIEmptyResponse
	}
	if err != nil {
		s.Logger.Error("feedback generation failed", "interview_id", id, "error", err)
		return nil, domain.Upstream(err, op, "Failed to generate feedback")
	}

	affected, err := s.Queries.SetInterviewFeedback(ctx, repository.SetInterviewFeedbackParams{
		ID:       id,
		Feedback: domain.ToNullString(feedback),
	})
	if err != nil {
		return nil, domain.Internal(err, op, "failed to save feedback")
	}
	if affected == 0 {
		return nil, domain.Invalid(op, "Feedback has already been generated for this interview.")
	}

	s.Cache.Invalidate(cache.InterviewTag(id), cache.JobInfoInterviewsTag(interview.JobInfoID))

	updated := *interview
	updated.Feedback = feedback
	return &updated, nil
}

func (s *interviewService) Get(ctx context.Context, userID string, id uuid.UUID) (*domain.Interview, error) {
	const op = "interview.get"

	if userID == "" {
		return nil, domain.Unauthorized(op, NotLoggedInMessage)
	}

	interview, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if interview.JobInfo == nil || !interview.JobInfo.OwnedBy(userID) {
		return nil, domain.NotFound(op, "interview", id.String())
	}
	return interview, nil
}

// load reads an interview and its parent job info. The entry is tagged with
// the interview and, once known, the parent.
func (s *interviewService) load(ctx context.Context, id uuid.UUID) (*domain.Interview, error) {
	const op = "interview.load"

	return cache.Remember(ctx, s.Cache, "interview:"+id.String(), []string{cache.InterviewTag(id)},
		func(ctx context.Context) (*domain.Interview, error) {
			row, err := s.Queries.GetInterviewByID(ctx, id)
			if err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					return nil, domain.NotFound(op, "interview", id.String())
				}
				return nil, domain.Internal(err, op, "failed to get interview")
			}

			cache.AddTags(ctx, cache.JobInfoTag(row.JobInfoID))
			parent, err := s.Queries.GetJobInfoByID(ctx, row.JobInfoID)
			if err != nil {
				return nil, domain.Internal(err, op, "failed to get interview job info")
			}

			interview := repoInterviewToDomain(row)
			interview.JobInfo = repoJobInfoToDomain(parent)
			return interview, nil
		})
}

func (s *interviewService) ListByJobInfo(ctx context.Context, userID string, jobInfoID uuid.UUID) ([]domain.Interview, error) {
	const op = "interview.list"

	if _, err := s.JobInfos.Get(ctx, userID, jobInfoID); err != nil {
		return nil, err
	}

	return cache.Remember(ctx, s.Cache, "job-info-interviews:"+jobInfoID.String(),
		[]string{cache.JobInfoInterviewsTag(jobInfoID)},
		func(ctx context.Context) ([]domain.Interview, error) {
			rows, err := s.Queries.ListInterviewsByJobInfoID(ctx, jobInfoID)
			if err != nil {
				return nil, domain.Internal(err, op, "failed to list interviews")
			}
			out := make([]domain.Interview, 0, len(rows))
			for _, row := range rows {
				out = append(out, *repoInterviewToDomain(row))
			}
			return out, nil
		})
}

func repoInterviewToDomain(i repository.Interview) *domain.Interview {
	return &domain.Interview{
		ID:         i.ID,
		JobInfoID:  i.JobInfoID,
		HumeChatID: domain.NullStringValue(i.HumeChatID),
		Duration:   time.Duration(i.DurationSeconds) * time.Second,
		Feedback:   domain.NullStringValue(i.Feedback),
		CreatedAt:  i.CreatedAt,
		UpdatedAt:  i.UpdatedAt,
	}
}

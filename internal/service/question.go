package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/DukeRupert/certum/internal/ai"
	"github.com/DukeRupert/certum/internal/cache"
	"github.com/DukeRupert/certum/internal/domain"
	"github.com/DukeRupert/certum/internal/metrics"
	"github.com/DukeRupert/certum/internal/repository"
)

// QuestionService manages practice questions under a job info.
type QuestionService interface {
	// Create stores a question after the entitlement and ownership checks.
	Create(ctx context.Context, userID string, jobInfoID uuid.UUID, params domain.CreateQuestionParams) (*domain.Question, error)

	// GenerateNext asks the AI for a new question at the given difficulty,
	// using earlier questions as context, and stores it like Create.
	GenerateNext(ctx context.Context, userID string, jobInfoID uuid.UUID, difficulty domain.QuestionDifficulty) (*domain.Question, error)

	// LatestID returns the id of the newest question under an owned job info.
	LatestID(ctx context.Context, userID string, jobInfoID uuid.UUID) (uuid.UUID, error)

	// List returns the questions of an owned job info, oldest first.
	List(ctx context.Context, userID string, jobInfoID uuid.UUID) ([]domain.Question, error)
}

// QuestionDeps holds the collaborators of QuestionService.
type QuestionDeps struct {
	Queries   repository.Querier
	Cache     *cache.Store
	Gate      Gate
	JobInfos  JobInfoService
	Generator ai.QuestionGenerator
	Logger    *slog.Logger
}

type questionService struct {
	QuestionDeps
}

// NewQuestionService creates a new QuestionService.
func NewQuestionService(deps QuestionDeps) QuestionService {
	return &questionService{QuestionDeps: deps}
}

func (s *questionService) Create(ctx context.Context, userID string, jobInfoID uuid.UUID, params domain.CreateQuestionParams) (*domain.Question, error) {
	const op = "question.create"

	if userID == "" {
		return nil, domain.Unauthorized(op, NotLoggedInMessage)
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.authorize(ctx, op, userID, jobInfoID); err != nil {
		return nil, err
	}
	return s.insert(ctx, userID, jobInfoID, params)
}

func (s *questionService) GenerateNext(ctx context.Context, userID string, jobInfoID uuid.UUID, difficulty domain.QuestionDifficulty) (*domain.Question, error) {
	const op = "question.generate_next"

	if userID == "" {
		return nil, domain.Unauthorized(op, NotLoggedInMessage)
	}
	if !difficulty.IsValid() {
		return nil, domain.Invalid(op, "difficulty must be easy, medium or hard")
	}

	jobInfo, err := s.authorize(ctx, op, userID, jobInfoID)
	if err != nil {
		return nil, err
	}

	previous, err := s.List(ctx, userID, jobInfoID)
	if err != nil {
		return nil, err
	}
	texts := make([]string, 0, len(previous))
	for _, q := range previous {
		texts = append(texts, q.Text)
	}

	text, err := s.Generator.GenerateQuestion(ctx, ai.QuestionRequest{
		Job:        ai.NewJobContext(jobInfo),
		Difficulty: difficulty,
		Previous:   texts,
	})
	if err != nil {
		s.Logger.Error("question generation failed", "user_id", userID, "job_info_id", jobInfoID, "error", err)
		return nil, domain.Upstream(err, op, "Failed to generate a question")
	}

	params := domain.CreateQuestionParams{Text: text, Difficulty: difficulty}
	if err := params.Validate(); err != nil {
		return nil, domain.Upstream(err, op, "Failed to generate a question")
	}
	return s.insert(ctx, userID, jobInfoID, params)
}

// authorize runs the entitlement check and loads the owned job info.
func (s *questionService) authorize(ctx context.Context, op, userID string, jobInfoID uuid.UUID) (*domain.JobInfo, error) {
	if !s.Gate.allowed(ctx, userID, domain.ResourceQuestion) {
		return nil, domain.PlanLimit(op, PlanLimitMessage)
	}
	return s.JobInfos.Get(ctx, userID, jobInfoID)
}

func (s *questionService) insert(ctx context.Context, userID string, jobInfoID uuid.UUID, params domain.CreateQuestionParams) (*domain.Question, error) {
	const op = "question.insert"

	row, err := s.Queries.CreateQuestion(ctx, repository.CreateQuestionParams{
		JobInfoID:  jobInfoID,
		Text:       params.Text,
		Difficulty: string(params.Difficulty),
	})
	if err != nil {
		return nil, domain.Internal(err, op, "failed to create question")
	}

	s.Cache.Invalidate(cache.JobInfoQuestionsTag(jobInfoID))
	s.Gate.recordDemoUse(ctx, s.Logger, userID, domain.ResourceQuestion)
	metrics.QuestionsCreated.Inc()

	return repoQuestionToDomain(row), nil
}

func (s *questionService) LatestID(ctx context.Context, userID string, jobInfoID uuid.UUID) (uuid.UUID, error) {
	const op = "question.latest_id"

	if userID == "" {
		return uuid.Nil, domain.Unauthorized(op, NotLoggedInMessage)
	}
	if _, err := s.JobInfos.Get(ctx, userID, jobInfoID); err != nil {
		return uuid.Nil, err
	}

	row, err := s.Queries.GetLatestQuestionByJobInfoID(ctx, jobInfoID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return uuid.Nil, domain.NotFound(op, "question for job info", jobInfoID.String())
		}
		return uuid.Nil, domain.Internal(err, op, "failed to get latest question")
	}
	return row.ID, nil
}

func (s *questionService) List(ctx context.Context, userID string, jobInfoID uuid.UUID) ([]domain.Question, error) {
	const op = "question.list"

	if userID == "" {
		return nil, domain.Unauthorized(op, NotLoggedInMessage)
	}
	if _, err := s.JobInfos.Get(ctx, userID, jobInfoID); err != nil {
		return nil, err
	}

	return cache.Remember(ctx, s.Cache, "job-info-questions:"+jobInfoID.String(),
		[]string{cache.JobInfoQuestionsTag(jobInfoID)},
		func(ctx context.Context) ([]domain.Question, error) {
			rows, err := s.Queries.ListQuestionsByJobInfoID(ctx, jobInfoID)
			if err != nil {
				return nil, domain.Internal(err, op, "failed to list questions")
			}
			out := make([]domain.Question, 0, len(rows))
			for _, row := range rows {
				out = append(out, *repoQuestionToDomain(row))
			}
			return out, nil
		})
}

func repoQuestionToDomain(q repository.Question) *domain.Question {
	return &domain.Question{
		ID:         q.ID,
		JobInfoID:  q.JobInfoID,
		Text:       q.Text,
		Difficulty: domain.QuestionDifficulty(q.Difficulty),
		CreatedAt:  q.CreatedAt,
		UpdatedAt:  q.UpdatedAt,
	}
}

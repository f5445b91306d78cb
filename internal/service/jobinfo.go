package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/DukeRupert/certum/internal/cache"
	"github.com/DukeRupert/certum/internal/domain"
	"github.com/DukeRupert/certum/internal/repository"
)

// JobInfoService manages the job postings users prepare for. A job info is
// the unit of ownership for interviews and questions.
type JobInfoService interface {
	// Create stores a new job info for userID.
	Create(ctx context.Context, userID string, params domain.JobInfoParams) (*domain.JobInfo, error)

	// Get returns the job info if it belongs to userID. A job info owned by
	// someone else is reported as domain.ENOTFOUND.
	Get(ctx context.Context, userID string, id uuid.UUID) (*domain.JobInfo, error)

	// List returns the user's job infos, most recently updated first.
	List(ctx context.Context, userID string) ([]domain.JobInfo, error)

	// Update replaces the editable fields of an owned job info.
	Update(ctx context.Context, userID string, id uuid.UUID, params domain.JobInfoParams) (*domain.JobInfo, error)
}

type jobInfoService struct {
	queries repository.Querier
	cache   *cache.Store
	logger  *slog.Logger
}

// NewJobInfoService creates a new JobInfoService.
func NewJobInfoService(queries repository.Querier, store *cache.Store, logger *slog.Logger) JobInfoService {
	return &jobInfoService{
		queries: queries,
		cache:   store,
		logger:  logger,
	}
}

func (s *jobInfoService) Create(ctx context.Context, userID string, params domain.JobInfoParams) (*domain.JobInfo, error) {
	const op = "job_info.create"

	if userID == "" {
		return nil, domain.Unauthorized(op, "You are not logged in")
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}

	row, err := s.queries.CreateJobInfo(ctx, repository.CreateJobInfoParams{
		UserID:          userID,
		Name:            params.Name,
		Title:           domain.ToNullString(params.Title),
		ExperienceLevel: string(params.ExperienceLevel),
		Description:     params.Description,
	})
	if err != nil {
		return nil, domain.Internal(err, op, "failed to create job info")
	}

	s.cache.Invalidate(cache.UserJobInfosTag(userID), cache.JobInfoTag(row.ID))
	s.logger.Info("job info created", "user_id", userID, "job_info_id", row.ID)

	return repoJobInfoToDomain(row), nil
}

func (s *jobInfoService) Get(ctx context.Context, userID string, id uuid.UUID) (*domain.JobInfo, error) {
	const op = "job_info.get"

	if userID == "" {
		return nil, domain.Unauthorized(op, "You are not logged in")
	}

	jobInfo, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !jobInfo.OwnedBy(userID) {
		return nil, domain.NotFound(op, "job info", id.String())
	}
	return jobInfo, nil
}

// load reads a job info regardless of owner. Results are cached under the
// job info's tag; callers check ownership on the cached value.
func (s *jobInfoService) load(ctx context.Context, id uuid.UUID) (*domain.JobInfo, error) {
	const op = "job_info.load"

	return cache.Remember(ctx, s.cache, "job-info:"+id.String(), []string{cache.JobInfoTag(id)},
		func(ctx context.Context) (*domain.JobInfo, error) {
			row, err := s.queries.GetJobInfoByID(ctx, id)
			if err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					return nil, domain.NotFound(op, "job info", id.String())
				}
				return nil, domain.Internal(err, op, "failed to get job info")
			}
			return repoJobInfoToDomain(row), nil
		})
}

func (s *jobInfoService) List(ctx context.Context, userID string) ([]domain.JobInfo, error) {
	const op = "job_info.list"

	if userID == "" {
		return nil, domain.Unauthorized(op, "You are not logged in")
	}

	return cache.Remember(ctx, s.cache, "user-job-infos:"+userID, []string{cache.UserJobInfosTag(userID)},
		func(ctx context.Context) ([]domain.JobInfo, error) {
			rows, err := s.queries.ListJobInfosByUserID(ctx, userID)
			if err != nil {
				return nil, domain.Internal(err, op, "failed to list job infos")
			}
			out := make([]domain.JobInfo, 0, len(rows))
			for _, row := range rows {
				out = append(out, *repoJobInfoToDomain(row))
				cache.AddTags(ctx, cache.JobInfoTag(row.ID))
			}
			return out, nil
		})
}

func (s *jobInfoService) Update(ctx context.Context, userID string, id uuid.UUID, params domain.JobInfoParams) (*domain.JobInfo, error) {
	const op = "job_info.update"

	if _, err := s.Get(ctx, userID, id); err != nil {
		return nil, err
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}

	row, err := s.queries.UpdateJobInfo(ctx, repository.UpdateJobInfoParams{
		ID:              id,
		UserID:          userID,
		Name:            params.Name,
		Title:           domain.ToNullString(params.Title),
		ExperienceLevel: string(params.ExperienceLevel),
		Description:     params.Description,
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound(op, "job info", id.String())
		}
		return nil, domain.Internal(err, op, "failed to update job info")
	}

	s.cache.Invalidate(cache.JobInfoTag(id), cache.UserJobInfosTag(userID))
	return repoJobInfoToDomain(row), nil
}

func repoJobInfoToDomain(j repository.JobInfo) *domain.JobInfo {
	return &domain.JobInfo{
		ID:              j.ID,
		UserID:          j.UserID,
		Name:            j.Name,
		Title:           domain.NullStringValue(j.Title),
		ExperienceLevel: domain.ExperienceLevel(j.ExperienceLevel),
		Description:     j.Description,
		CreatedAt:       j.CreatedAt,
		UpdatedAt:       j.UpdatedAt,
	}
}

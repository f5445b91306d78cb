package service

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/DukeRupert/certum/internal/ai/mock"
	"github.com/DukeRupert/certum/internal/billing"
	"github.com/DukeRupert/certum/internal/cache"
	"github.com/DukeRupert/certum/internal/domain"
	"github.com/DukeRupert/certum/internal/ratelimit"
	"github.com/DukeRupert/certum/internal/repository"
	"github.com/DukeRupert/certum/internal/storage"
)

// =============================================================================
// In-memory Querier
// =============================================================================

// fakeQueries implements repository.Querier over maps. errs forces a method,
// by name, to fail.
type fakeQueries struct {
	mu         sync.Mutex
	users      map[string]repository.User
	jobInfos   map[uuid.UUID]repository.JobInfo
	interviews map[uuid.UUID]repository.Interview
	questions  []repository.Question
	calls      map[string]int
	errs       map[string]error
	clock      time.Time
}

var _ repository.Querier = (*fakeQueries)(nil)

func newFakeQueries() *fakeQueries {
	return &fakeQueries{
		users:      make(map[string]repository.User),
		jobInfos:   make(map[uuid.UUID]repository.JobInfo),
		interviews: make(map[uuid.UUID]repository.Interview),
		calls:      make(map[string]int),
		errs:       make(map[string]error),
		clock:      time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// enter records a call and returns the forced error, if any. Callers hold mu.
func (f *fakeQueries) enter(name string) error {
	f.calls[name]++
	return f.errs[name]
}

func (f *fakeQueries) now() time.Time {
	f.clock = f.clock.Add(time.Second)
	return f.clock
}

func (f *fakeQueries) callCount(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeQueries) failOn(name string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs[name] = err
}

func (f *fakeQueries) addUser(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[id] = repository.User{ID: id, Name: "Test " + id, Email: id + "@example.com", SubscriptionStatus: "inactive"}
}

func (f *fakeQueries) addJobInfo(userID string) uuid.UUID {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := uuid.New()
	f.jobInfos[id] = repository.JobInfo{
		ID:              id,
		UserID:          userID,
		Name:            "Backend role",
		Title:           sql.NullString{String: "Backend Engineer", Valid: true},
		ExperienceLevel: "senior",
		Description:     "Build Go services",
	}
	return id
}

func (f *fakeQueries) ownerOf(jobInfoID uuid.UUID) string {
	return f.jobInfos[jobInfoID].UserID
}

func (f *fakeQueries) CountCompletedInterviewsByUserID(ctx context.Context, userID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("CountCompletedInterviewsByUserID"); err != nil {
		return 0, err
	}
	var n int64
	for _, i := range f.interviews {
		if i.HumeChatID.Valid && f.ownerOf(i.JobInfoID) == userID {
			n++
		}
	}
	return n, nil
}

func (f *fakeQueries) CountQuestionsByUserID(ctx context.Context, userID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("CountQuestionsByUserID"); err != nil {
		return 0, err
	}
	var n int64
	for _, q := range f.questions {
		if f.ownerOf(q.JobInfoID) == userID {
			n++
		}
	}
	return n, nil
}

func (f *fakeQueries) CreateInterview(ctx context.Context, jobInfoID uuid.UUID) (repository.Interview, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("CreateInterview"); err != nil {
		return repository.Interview{}, err
	}
	now := f.now()
	i := repository.Interview{ID: uuid.New(), JobInfoID: jobInfoID, CreatedAt: now, UpdatedAt: now}
	f.interviews[i.ID] = i
	return i, nil
}

func (f *fakeQueries) CreateJobInfo(ctx context.Context, arg repository.CreateJobInfoParams) (repository.JobInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("CreateJobInfo"); err != nil {
		return repository.JobInfo{}, err
	}
	now := f.now()
	j := repository.JobInfo{
		ID:              uuid.New(),
		UserID:          arg.UserID,
		Name:            arg.Name,
		Title:           arg.Title,
		ExperienceLevel: arg.ExperienceLevel,
		Description:     arg.Description,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	f.jobInfos[j.ID] = j
	return j, nil
}

func (f *fakeQueries) CreateQuestion(ctx context.Context, arg repository.CreateQuestionParams) (repository.Question, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("CreateQuestion"); err != nil {
		return repository.Question{}, err
	}
	now := f.now()
	q := repository.Question{
		ID:         uuid.New(),
		JobInfoID:  arg.JobInfoID,
		Text:       arg.Text,
		Difficulty: arg.Difficulty,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	f.questions = append(f.questions, q)
	return q, nil
}

func (f *fakeQueries) DeleteUser(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("DeleteUser"); err != nil {
		return err
	}
	delete(f.users, id)
	// ON DELETE CASCADE
	for jobInfoID, j := range f.jobInfos {
		if j.UserID != id {
			continue
		}
		delete(f.jobInfos, jobInfoID)
		for interviewID, i := range f.interviews {
			if i.JobInfoID == jobInfoID {
				delete(f.interviews, interviewID)
			}
		}
		kept := f.questions[:0]
		for _, q := range f.questions {
			if q.JobInfoID != jobInfoID {
				kept = append(kept, q)
			}
		}
		f.questions = kept
	}
	return nil
}

func (f *fakeQueries) GetInterviewByID(ctx context.Context, id uuid.UUID) (repository.Interview, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("GetInterviewByID"); err != nil {
		return repository.Interview{}, err
	}
	i, ok := f.interviews[id]
	if !ok {
		return repository.Interview{}, sql.ErrNoRows
	}
	return i, nil
}

func (f *fakeQueries) GetJobInfoByID(ctx context.Context, id uuid.UUID) (repository.JobInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("GetJobInfoByID"); err != nil {
		return repository.JobInfo{}, err
	}
	j, ok := f.jobInfos[id]
	if !ok {
		return repository.JobInfo{}, sql.ErrNoRows
	}
	return j, nil
}

func (f *fakeQueries) GetJobInfoByIDAndUserID(ctx context.Context, arg repository.GetJobInfoByIDAndUserIDParams) (repository.JobInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("GetJobInfoByIDAndUserID"); err != nil {
		return repository.JobInfo{}, err
	}
	j, ok := f.jobInfos[arg.ID]
	if !ok || j.UserID != arg.UserID {
		return repository.JobInfo{}, sql.ErrNoRows
	}
	return j, nil
}

func (f *fakeQueries) GetLatestQuestionByJobInfoID(ctx context.Context, jobInfoID uuid.UUID) (repository.Question, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("GetLatestQuestionByJobInfoID"); err != nil {
		return repository.Question{}, err
	}
	for i := len(f.questions) - 1; i >= 0; i-- {
		if f.questions[i].JobInfoID == jobInfoID {
			return f.questions[i], nil
		}
	}
	return repository.Question{}, sql.ErrNoRows
}

func (f *fakeQueries) GetUserByID(ctx context.Context, id string) (repository.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("GetUserByID"); err != nil {
		return repository.User{}, err
	}
	u, ok := f.users[id]
	if !ok {
		return repository.User{}, sql.ErrNoRows
	}
	return u, nil
}

func (f *fakeQueries) GetUserByStripeCustomerID(ctx context.Context, stripeCustomerID sql.NullString) (repository.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("GetUserByStripeCustomerID"); err != nil {
		return repository.User{}, err
	}
	for _, u := range f.users {
		if u.StripeCustomerID.Valid && u.StripeCustomerID == stripeCustomerID {
			return u, nil
		}
	}
	return repository.User{}, sql.ErrNoRows
}

func (f *fakeQueries) GetUserDemoUsage(ctx context.Context, id string) (repository.GetUserDemoUsageRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("GetUserDemoUsage"); err != nil {
		return repository.GetUserDemoUsageRow{}, err
	}
	u, ok := f.users[id]
	if !ok {
		return repository.GetUserDemoUsageRow{}, sql.ErrNoRows
	}
	return repository.GetUserDemoUsageRow{
		DemoInterviewsUsed: u.DemoInterviewsUsed,
		DemoQuestionsUsed:  u.DemoQuestionsUsed,
		DemoResumesUsed:    u.DemoResumesUsed,
	}, nil
}

func (f *fakeQueries) incrementUser(name, id string, apply func(*repository.User)) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter(name); err != nil {
		return 0, err
	}
	u, ok := f.users[id]
	if !ok {
		return 0, nil
	}
	apply(&u)
	u.UpdatedAt = f.now()
	f.users[id] = u
	return 1, nil
}

func (f *fakeQueries) IncrementDemoInterviews(ctx context.Context, id string) (int64, error) {
	return f.incrementUser("IncrementDemoInterviews", id, func(u *repository.User) { u.DemoInterviewsUsed++ })
}

func (f *fakeQueries) IncrementDemoQuestions(ctx context.Context, id string) (int64, error) {
	return f.incrementUser("IncrementDemoQuestions", id, func(u *repository.User) { u.DemoQuestionsUsed++ })
}

func (f *fakeQueries) IncrementDemoResumes(ctx context.Context, id string) (int64, error) {
	return f.incrementUser("IncrementDemoResumes", id, func(u *repository.User) { u.DemoResumesUsed++ })
}

func (f *fakeQueries) ResetDemoUsage(ctx context.Context, id string) (int64, error) {
	return f.incrementUser("ResetDemoUsage", id, func(u *repository.User) {
		u.DemoInterviewsUsed, u.DemoQuestionsUsed, u.DemoResumesUsed = 0, 0, 0
	})
}

func (f *fakeQueries) ListInterviewsByJobInfoID(ctx context.Context, jobInfoID uuid.UUID) ([]repository.Interview, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("ListInterviewsByJobInfoID"); err != nil {
		return nil, err
	}
	out := []repository.Interview{}
	for _, i := range f.interviews {
		if i.JobInfoID == jobInfoID {
			out = append(out, i)
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a].CreatedAt.After(out[b].CreatedAt) })
	return out, nil
}

func (f *fakeQueries) ListJobInfosByUserID(ctx context.Context, userID string) ([]repository.JobInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("ListJobInfosByUserID"); err != nil {
		return nil, err
	}
	out := []repository.JobInfo{}
	for _, j := range f.jobInfos {
		if j.UserID == userID {
			out = append(out, j)
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a].UpdatedAt.After(out[b].UpdatedAt) })
	return out, nil
}

func (f *fakeQueries) ListQuestionsByJobInfoID(ctx context.Context, jobInfoID uuid.UUID) ([]repository.Question, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("ListQuestionsByJobInfoID"); err != nil {
		return nil, err
	}
	out := []repository.Question{}
	for _, q := range f.questions {
		if q.JobInfoID == jobInfoID {
			out = append(out, q)
		}
	}
	return out, nil
}

func (f *fakeQueries) SetInterviewFeedback(ctx context.Context, arg repository.SetInterviewFeedbackParams) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("SetInterviewFeedback"); err != nil {
		return 0, err
	}
	i, ok := f.interviews[arg.ID]
	if !ok || i.Feedback.Valid || !i.HumeChatID.Valid {
		return 0, nil
	}
	i.Feedback = arg.Feedback
	i.UpdatedAt = f.now()
	f.interviews[arg.ID] = i
	return 1, nil
}

func (f *fakeQueries) UpdateInterview(ctx context.Context, arg repository.UpdateInterviewParams) (repository.Interview, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("UpdateInterview"); err != nil {
		return repository.Interview{}, err
	}
	i, ok := f.interviews[arg.ID]
	if !ok || i.Feedback.Valid {
		return repository.Interview{}, sql.ErrNoRows
	}
	i.HumeChatID = arg.HumeChatID
	i.DurationSeconds = arg.DurationSeconds
	i.UpdatedAt = f.now()
	f.interviews[arg.ID] = i
	return i, nil
}

func (f *fakeQueries) UpdateJobInfo(ctx context.Context, arg repository.UpdateJobInfoParams) (repository.JobInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("UpdateJobInfo"); err != nil {
		return repository.JobInfo{}, err
	}
	j, ok := f.jobInfos[arg.ID]
	if !ok || j.UserID != arg.UserID {
		return repository.JobInfo{}, sql.ErrNoRows
	}
	j.Name, j.Title, j.ExperienceLevel, j.Description = arg.Name, arg.Title, arg.ExperienceLevel, arg.Description
	j.UpdatedAt = f.now()
	f.jobInfos[arg.ID] = j
	return j, nil
}

func (f *fakeQueries) UpdateUserStripeCustomer(ctx context.Context, arg repository.UpdateUserStripeCustomerParams) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("UpdateUserStripeCustomer"); err != nil {
		return err
	}
	if u, ok := f.users[arg.ID]; ok {
		u.StripeCustomerID = arg.StripeCustomerID
		f.users[arg.ID] = u
	}
	return nil
}

func (f *fakeQueries) UpdateUserSubscription(ctx context.Context, arg repository.UpdateUserSubscriptionParams) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("UpdateUserSubscription"); err != nil {
		return 0, err
	}
	for id, u := range f.users {
		if u.StripeCustomerID == arg.StripeCustomerID {
			u.SubscriptionStatus = arg.SubscriptionStatus
			u.SubscriptionTier = arg.SubscriptionTier
			u.SubscriptionID = arg.SubscriptionID
			f.users[id] = u
			return 1, nil
		}
	}
	return 0, nil
}

func (f *fakeQueries) UpsertUser(ctx context.Context, arg repository.UpsertUserParams) (repository.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("UpsertUser"); err != nil {
		return repository.User{}, err
	}
	u, ok := f.users[arg.ID]
	if !ok {
		u = repository.User{ID: arg.ID, SubscriptionStatus: "inactive", CreatedAt: arg.CreatedAt}
	}
	u.Name, u.Email, u.ImageUrl, u.UpdatedAt = arg.Name, arg.Email, arg.ImageUrl, arg.UpdatedAt
	f.users[arg.ID] = u
	return u, nil
}

// =============================================================================
// Collaborator fakes
// =============================================================================

// fakePermissions grants the keys in granted. HasPermissionFunc overrides.
type fakePermissions struct {
	mu                sync.Mutex
	granted           map[domain.Permission]bool
	err               error
	calls             int
	HasPermissionFunc func(ctx context.Context, userID string, key domain.Permission) (bool, error)
}

func (f *fakePermissions) HasPermission(ctx context.Context, userID string, key domain.Permission) (bool, error) {
	f.mu.Lock()
	f.calls++
	fn, granted, err := f.HasPermissionFunc, f.granted[key], f.err
	f.mu.Unlock()

	if fn != nil {
		return fn(ctx, userID, key)
	}
	return granted, err
}

func (f *fakePermissions) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// fakeArchive records Put calls.
type fakeArchive struct {
	mu   sync.Mutex
	keys []string
	err  error
}

func (f *fakeArchive) Put(ctx context.Context, key string, data io.Reader, opts storage.PutOptions) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.keys = append(f.keys, key)
	return nil
}

func (f *fakeArchive) Get(ctx context.Context, key string) (io.ReadCloser, storage.ObjectInfo, error) {
	return nil, storage.ObjectInfo{}, storage.ErrNotFound
}

func (f *fakeArchive) Delete(ctx context.Context, key string) error { return nil }

func (f *fakeArchive) Exists(ctx context.Context, key string) (bool, error) { return false, nil }

// fakeLimiter returns a fixed decision.
type fakeLimiter struct {
	decision ratelimit.Decision
	err      error
	calls    int
}

func (f *fakeLimiter) Protect(ctx context.Context, key string, requested int) (ratelimit.Decision, error) {
	f.calls++
	return f.decision, f.err
}

// =============================================================================
// Harness
// =============================================================================

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type harness struct {
	q        *fakeQueries
	store    *cache.Store
	perms    *fakePermissions
	plans    bool
	limiter  ratelimit.Limiter
	ai       *mock.Provider
	archive  *fakeArchive
	demo     DemoConfig
	usage    UsageService
	ent      EntitlementService
	users    UserService
	jobInfos JobInfoService
	inter    InterviewService
	quest    QuestionService
	resumes  ResumeService
}

type harnessOption func(*harness)

func withLimiter(l ratelimit.Limiter) harnessOption {
	return func(h *harness) { h.limiter = l }
}

func withDemo(demo DemoConfig) harnessOption {
	return func(h *harness) { h.demo = demo }
}

// withPlanPermissions replaces the fake permissions with the billing plan
// provider the server uses.
func withPlanPermissions() harnessOption {
	return func(h *harness) { h.plans = true }
}

func newHarness(t *testing.T, opts ...harnessOption) *harness {
	t.Helper()

	h := &harness{
		q:       newFakeQueries(),
		store:   cache.New(),
		perms:   &fakePermissions{granted: map[domain.Permission]bool{}},
		limiter: &fakeLimiter{decision: ratelimit.Decision{Allowed: true, Remaining: 11}},
		archive: &fakeArchive{},
	}
	h.ai = mock.New(testLogger())
	for _, opt := range opts {
		opt(h)
	}

	logger := testLogger()
	h.usage = NewUsageService(h.q, h.store, h.demo, logger)
	h.users = NewUserService(h.q, h.store, logger)
	var perms billing.PermissionProvider = h.perms
	if h.plans {
		perms = billing.NewPlanPermissions(h.users, h.demo.Enabled)
	}
	h.ent = NewEntitlementService(perms, h.q, h.usage, h.demo, logger)
	h.jobInfos = NewJobInfoService(h.q, h.store, logger)

	gate := Gate{Entitlements: h.ent, Usage: h.usage, Demo: h.demo}
	h.inter = NewInterviewService(InterviewDeps{
		Queries:     h.q,
		Cache:       h.store,
		Gate:        gate,
		Limiter:     h.limiter,
		JobInfos:    h.jobInfos,
		Users:       h.users,
		Transcripts: h.ai,
		Feedback:    h.ai,
		Logger:      logger,
	})
	h.quest = NewQuestionService(QuestionDeps{
		Queries:   h.q,
		Cache:     h.store,
		Gate:      gate,
		JobInfos:  h.jobInfos,
		Generator: h.ai,
		Logger:    logger,
	})
	h.resumes = NewResumeService(ResumeDeps{
		Gate:     gate,
		JobInfos: h.jobInfos,
		Analyzer: h.ai,
		Archive:  h.archive,
		Logger:   logger,
	})
	return h
}

func demoOn() DemoConfig {
	return DemoConfig{Enabled: true, Limits: domain.DefaultDemoLimits()}
}

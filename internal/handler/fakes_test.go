package handler

import (
	"context"
	"io"
	"iter"
	"log/slog"
	"net/http"
	"net/http/httptest"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v79"

	"github.com/DukeRupert/certum/internal/auth"
	"github.com/DukeRupert/certum/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// requireUserForTest mirrors the identity middleware without importing it.
func requireUserForTest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if auth.UserIDFromRequest(r) == "" {
			UnauthorizedResponse(w, r, testLogger())
			return
		}
		next.ServeHTTP(w, r)
	})
}

func passThrough(next http.Handler) http.Handler { return next }

func asUser(req *http.Request, userID string) *http.Request {
	return req.WithContext(auth.WithUserID(req.Context(), userID))
}

func serve(mux *http.ServeMux, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

// =============================================================================
// Service fakes
// =============================================================================

type fakeJobInfoService struct {
	CreateFunc func(ctx context.Context, userID string, params domain.JobInfoParams) (*domain.JobInfo, error)
	GetFunc    func(ctx context.Context, userID string, id uuid.UUID) (*domain.JobInfo, error)
	ListFunc   func(ctx context.Context, userID string) ([]domain.JobInfo, error)
	UpdateFunc func(ctx context.Context, userID string, id uuid.UUID, params domain.JobInfoParams) (*domain.JobInfo, error)
}

func (f *fakeJobInfoService) Create(ctx context.Context, userID string, params domain.JobInfoParams) (*domain.JobInfo, error) {
	return f.CreateFunc(ctx, userID, params)
}

func (f *fakeJobInfoService) Get(ctx context.Context, userID string, id uuid.UUID) (*domain.JobInfo, error) {
	return f.GetFunc(ctx, userID, id)
}

func (f *fakeJobInfoService) List(ctx context.Context, userID string) ([]domain.JobInfo, error) {
	return f.ListFunc(ctx, userID)
}

func (f *fakeJobInfoService) Update(ctx context.Context, userID string, id uuid.UUID, params domain.JobInfoParams) (*domain.JobInfo, error) {
	return f.UpdateFunc(ctx, userID, id, params)
}

type fakeInterviewService struct {
	CreateFunc           func(ctx context.Context, userID string, jobInfoID uuid.UUID) (*domain.Interview, error)
	UpdateFunc           func(ctx context.Context, userID string, id uuid.UUID, params domain.UpdateInterviewParams) (*domain.Interview, error)
	GenerateFeedbackFunc func(ctx context.Context, userID string, id uuid.UUID) (*domain.Interview, error)
	GetFunc              func(ctx context.Context, userID string, id uuid.UUID) (*domain.Interview, error)
	ListByJobInfoFunc    func(ctx context.Context, userID string, jobInfoID uuid.UUID) ([]domain.Interview, error)
}

func (f *fakeInterviewService) Create(ctx context.Context, userID string, jobInfoID uuid.UUID) (*domain.Interview, error) {
	return f.CreateFunc(ctx, userID, jobInfoID)
}

func (f *fakeInterviewService) Update(ctx context.Context, userID string, id uuid.UUID, params domain.UpdateInterviewParams) (*domain.Interview, error) {
	return f.UpdateFunc(ctx, userID, id, params)
}

func (f *fakeInterviewService) GenerateFeedback(ctx context.Context, userID string, id uuid.UUID) (*domain.Interview, error) {
	return f.GenerateFeedbackFunc(ctx, userID, id)
}

func (f *fakeInterviewService) Get(ctx context.Context, userID string, id uuid.UUID) (*domain.Interview, error) {
	return f.GetFunc(ctx, userID, id)
}

func (f *fakeInterviewService) ListByJobInfo(ctx context.Context, userID string, jobInfoID uuid.UUID) ([]domain.Interview, error) {
	return f.ListByJobInfoFunc(ctx, userID, jobInfoID)
}

type fakeQuestionService struct {
	CreateFunc       func(ctx context.Context, userID string, jobInfoID uuid.UUID, params domain.CreateQuestionParams) (*domain.Question, error)
	GenerateNextFunc func(ctx context.Context, userID string, jobInfoID uuid.UUID, difficulty domain.QuestionDifficulty) (*domain.Question, error)
	LatestIDFunc     func(ctx context.Context, userID string, jobInfoID uuid.UUID) (uuid.UUID, error)
	ListFunc         func(ctx context.Context, userID string, jobInfoID uuid.UUID) ([]domain.Question, error)
}

func (f *fakeQuestionService) Create(ctx context.Context, userID string, jobInfoID uuid.UUID, params domain.CreateQuestionParams) (*domain.Question, error) {
	return f.CreateFunc(ctx, userID, jobInfoID, params)
}

func (f *fakeQuestionService) GenerateNext(ctx context.Context, userID string, jobInfoID uuid.UUID, difficulty domain.QuestionDifficulty) (*domain.Question, error) {
	return f.GenerateNextFunc(ctx, userID, jobInfoID, difficulty)
}

func (f *fakeQuestionService) LatestID(ctx context.Context, userID string, jobInfoID uuid.UUID) (uuid.UUID, error) {
	return f.LatestIDFunc(ctx, userID, jobInfoID)
}

func (f *fakeQuestionService) List(ctx context.Context, userID string, jobInfoID uuid.UUID) ([]domain.Question, error) {
	return f.ListFunc(ctx, userID, jobInfoID)
}

type fakeResumeService struct {
	AnalyzeFunc func(ctx context.Context, userID string, upload *domain.ResumeUpload) (iter.Seq2[string, error], error)
}

func (f *fakeResumeService) Analyze(ctx context.Context, userID string, upload *domain.ResumeUpload) (iter.Seq2[string, error], error) {
	return f.AnalyzeFunc(ctx, userID, upload)
}

type fakeUsageService struct {
	SummaryFunc func(ctx context.Context, userID string) (domain.UsageSummary, error)
}

func (f *fakeUsageService) GetUsage(ctx context.Context, userID string) (domain.DemoUsage, error) {
	return domain.DemoUsage{}, nil
}

func (f *fakeUsageService) IncrementInterviews(ctx context.Context, userID string) error { return nil }
func (f *fakeUsageService) IncrementQuestions(ctx context.Context, userID string) error  { return nil }
func (f *fakeUsageService) IncrementResumes(ctx context.Context, userID string) error    { return nil }

func (f *fakeUsageService) Increment(ctx context.Context, userID string, r domain.Resource) error {
	return nil
}

func (f *fakeUsageService) ResetUsage(ctx context.Context, userID string) error { return nil }

func (f *fakeUsageService) Summary(ctx context.Context, userID string) (domain.UsageSummary, error) {
	return f.SummaryFunc(ctx, userID)
}

type fakeUserService struct {
	UpsertFunc                func(ctx context.Context, params domain.UpsertUserParams) (*domain.User, error)
	DeleteFunc                func(ctx context.Context, id string) error
	GetByIDFunc               func(ctx context.Context, id string) (*domain.User, error)
	GetByStripeCustomerIDFunc func(ctx context.Context, customerID string) (*domain.User, error)
	SetStripeCustomerFunc     func(ctx context.Context, userID, customerID string) error
	UpdateSubscriptionFunc    func(ctx context.Context, update domain.SubscriptionUpdate) error
}

func (f *fakeUserService) Upsert(ctx context.Context, params domain.UpsertUserParams) (*domain.User, error) {
	return f.UpsertFunc(ctx, params)
}

func (f *fakeUserService) Delete(ctx context.Context, id string) error {
	return f.DeleteFunc(ctx, id)
}

func (f *fakeUserService) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return f.GetByIDFunc(ctx, id)
}

func (f *fakeUserService) GetByStripeCustomerID(ctx context.Context, customerID string) (*domain.User, error) {
	return f.GetByStripeCustomerIDFunc(ctx, customerID)
}

func (f *fakeUserService) SetStripeCustomer(ctx context.Context, userID, customerID string) error {
	return f.SetStripeCustomerFunc(ctx, userID, customerID)
}

func (f *fakeUserService) UpdateSubscription(ctx context.Context, update domain.SubscriptionUpdate) error {
	return f.UpdateSubscriptionFunc(ctx, update)
}

// =============================================================================
// Billing fake
// =============================================================================

type fakeBilling struct {
	CreateCustomerFunc         func(ctx context.Context, userID, email, name string) (string, error)
	CreateCheckoutSessionFunc  func(ctx context.Context, customerID, priceID, successURL, cancelURL string) (string, error)
	CreatePortalSessionFunc    func(ctx context.Context, customerID, returnURL string) (string, error)
	GetSubscriptionFunc        func(ctx context.Context, subscriptionID string) (*stripe.Subscription, error)
	CancelSubscriptionFunc     func(ctx context.Context, subscriptionID string) error
	ReactivateSubscriptionFunc func(ctx context.Context, subscriptionID string) error
	VerifyWebhookSignatureFunc func(payload []byte, signature string) (stripe.Event, error)
	tiers                      map[string]domain.SubscriptionTier
}

func (f *fakeBilling) CreateCustomer(ctx context.Context, userID, email, name string) (string, error) {
	return f.CreateCustomerFunc(ctx, userID, email, name)
}

func (f *fakeBilling) CreateCheckoutSession(ctx context.Context, customerID, priceID, successURL, cancelURL string) (string, error) {
	return f.CreateCheckoutSessionFunc(ctx, customerID, priceID, successURL, cancelURL)
}

func (f *fakeBilling) CreatePortalSession(ctx context.Context, customerID, returnURL string) (string, error) {
	return f.CreatePortalSessionFunc(ctx, customerID, returnURL)
}

func (f *fakeBilling) GetSubscription(ctx context.Context, subscriptionID string) (*stripe.Subscription, error) {
	return f.GetSubscriptionFunc(ctx, subscriptionID)
}

func (f *fakeBilling) CancelSubscription(ctx context.Context, subscriptionID string) error {
	return f.CancelSubscriptionFunc(ctx, subscriptionID)
}

func (f *fakeBilling) ReactivateSubscription(ctx context.Context, subscriptionID string) error {
	return f.ReactivateSubscriptionFunc(ctx, subscriptionID)
}

func (f *fakeBilling) VerifyWebhookSignature(payload []byte, signature string) (stripe.Event, error) {
	return f.VerifyWebhookSignatureFunc(payload, signature)
}

func (f *fakeBilling) TierForPriceID(priceID string) domain.SubscriptionTier {
	return f.tiers[priceID]
}

func (f *fakeBilling) PriceIDForPlan(tier domain.SubscriptionTier, yearly bool) (string, bool) {
	for id, t := range f.tiers {
		if t == tier {
			return id, true
		}
	}
	return "", false
}

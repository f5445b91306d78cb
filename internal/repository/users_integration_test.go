package repository_test

import (
	"context"
	"database/sql"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/DukeRupert/certum/internal"
	"github.com/DukeRupert/certum/internal/repository"
	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// openTestDB connects to TEST_DATABASE_URL and applies migrations. Tests are
// skipped when the variable is unset.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	db, err := sql.Open("pgx", url)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, internal.RunMigrations(context.Background(), db))
	return db
}

func createTestUser(t *testing.T, q *repository.Queries) repository.User {
	t.Helper()

	id := "user_" + uuid.NewString()
	now := time.Now().UTC()
	u, err := q.UpsertUser(context.Background(), repository.UpsertUserParams{
		ID:        id,
		Name:      "Test User",
		Email:     id + "@example.com",
		CreatedAt: now,
		UpdatedAt: now,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = q.DeleteUser(context.Background(), id) })
	return u
}

func TestIncrementDemoInterviews_ConcurrentCallsSum(t *testing.T) {
	db := openTestDB(t)
	q := repository.New(db)
	ctx := context.Background()
	u := createTestUser(t, q)

	const workers = 25
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n, err := q.IncrementDemoInterviews(ctx, u.ID)
			assert.NoError(t, err)
			assert.Equal(t, int64(1), n)
		}()
	}
	wg.Wait()

	usage, err := q.GetUserDemoUsage(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, int32(workers), usage.DemoInterviewsUsed)
	assert.Equal(t, int32(0), usage.DemoQuestionsUsed)
	assert.Equal(t, int32(0), usage.DemoResumesUsed)
}

func TestIncrementAndReset(t *testing.T) {
	db := openTestDB(t)
	q := repository.New(db)
	ctx := context.Background()
	u := createTestUser(t, q)

	_, err := q.IncrementDemoQuestions(ctx, u.ID)
	require.NoError(t, err)
	_, err = q.IncrementDemoResumes(ctx, u.ID)
	require.NoError(t, err)

	usage, err := q.GetUserDemoUsage(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, int32(1), usage.DemoQuestionsUsed)
	assert.Equal(t, int32(1), usage.DemoResumesUsed)

	n, err := q.ResetDemoUsage(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	usage, err = q.GetUserDemoUsage(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, repository.GetUserDemoUsageRow{}, usage)
}

func TestIncrementMissingUserAffectsNoRows(t *testing.T) {
	db := openTestDB(t)
	q := repository.New(db)

	n, err := q.IncrementDemoInterviews(context.Background(), "user_missing_"+uuid.NewString())
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestCountCompletedInterviewsByUserID(t *testing.T) {
	db := openTestDB(t)
	q := repository.New(db)
	ctx := context.Background()
	u := createTestUser(t, q)

	job, err := q.CreateJobInfo(ctx, repository.CreateJobInfoParams{
		UserID:          u.ID,
		Name:            "Backend Engineer",
		ExperienceLevel: "senior",
		Description:     "Go services",
	})
	require.NoError(t, err)

	pending, err := q.CreateInterview(ctx, job.ID)
	require.NoError(t, err)
	done, err := q.CreateInterview(ctx, job.ID)
	require.NoError(t, err)

	_, err = q.UpdateInterview(ctx, repository.UpdateInterviewParams{
		ID:              done.ID,
		HumeChatID:      sql.NullString{String: "chat_1", Valid: true},
		DurationSeconds: 120,
	})
	require.NoError(t, err)

	count, err := q.CountCompletedInterviewsByUserID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	// Feedback requires a call id.
	n, err := q.SetInterviewFeedback(ctx, repository.SetInterviewFeedbackParams{
		ID:       pending.ID,
		Feedback: sql.NullString{String: "x", Valid: true},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

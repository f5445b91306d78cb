package ai

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"time"

	"github.com/DukeRupert/certum/internal/domain"
)

// ResumeAnalyzer streams an analysis of a resume against a job posting.
//
// The returned sequence yields text chunks as the model produces them. An
// error returned directly means the stream could not be opened; an error
// yielded by the sequence means it broke part way through.
type ResumeAnalyzer interface {
	AnalyzeResume(ctx context.Context, req ResumeRequest) (iter.Seq2[string, error], error)
}

// FeedbackGenerator writes post-interview feedback from a call transcript.
type FeedbackGenerator interface {
	GenerateFeedback(ctx context.Context, req FeedbackRequest) (string, error)
}

// QuestionGenerator writes the next practice question for a job posting.
type QuestionGenerator interface {
	GenerateQuestion(ctx context.Context, req QuestionRequest) (string, error)
}

// TranscriptSource loads the messages of a finished voice session.
type TranscriptSource interface {
	ChatTranscript(ctx context.Context, chatID string) ([]TranscriptMessage, error)
}

// Provider is the full set of model-backed operations.
type Provider interface {
	ResumeAnalyzer
	FeedbackGenerator
	QuestionGenerator
}

// JobContext is the part of a job info a prompt needs.
type JobContext struct {
	Title           string
	Description     string
	ExperienceLevel domain.ExperienceLevel
}

// NewJobContext extracts prompt context from a job info.
func NewJobContext(j *domain.JobInfo) JobContext {
	if j == nil {
		return JobContext{}
	}
	return JobContext{
		Title:           j.Title,
		Description:     j.Description,
		ExperienceLevel: j.ExperienceLevel,
	}
}

// ResumeRequest contains the resume file and the job it is judged against.
type ResumeRequest struct {
	Data        []byte
	ContentType string
	Filename    string
	Job         JobContext
}

// FeedbackRequest contains the transcript of a finished interview.
type FeedbackRequest struct {
	Transcript []TranscriptMessage
	Job        JobContext
	UserName   string
}

// QuestionRequest asks for a new question. Previous holds earlier questions
// for the same job so the model does not repeat itself.
type QuestionRequest struct {
	Job        JobContext
	Difficulty domain.QuestionDifficulty
	Previous   []string
}

// Speaker identifies who said a transcript message.
type Speaker string

const (
	SpeakerUser        Speaker = "user"
	SpeakerInterviewer Speaker = "interviewer"
)

// TranscriptMessage is one utterance of a voice session.
type TranscriptMessage struct {
	Speaker  Speaker
	Text     string
	Emotions []string // strongest detected emotions, if any
	At       time.Time
}

// ProviderConfig contains common configuration for AI providers
type ProviderConfig struct {
	MaxRetries     int           // Maximum retry attempts for transient errors
	RetryBaseDelay time.Duration // Base delay for exponential backoff
	RequestTimeout time.Duration // Timeout for individual requests
}

// Error codes for AI provider operations
var (
	// EAIRateLimit indicates the API rate limit has been exceeded
	EAIRateLimit = errors.New("ai provider rate limit exceeded")

	// EAIInvalidInput indicates the provider rejected the request content
	EAIInvalidInput = errors.New("invalid input for ai provider")

	// EAIContentPolicy indicates the content was blocked by a safety filter
	EAIContentPolicy = errors.New("content blocked by provider policy")

	// EAITimeout indicates the request timed out
	EAITimeout = errors.New("ai request timed out")

	// EAIUnavailable indicates the AI service is temporarily unavailable
	EAIUnavailable = errors.New("ai service temporarily unavailable")

	// EAIUnauthorized indicates invalid API credentials
	EAIUnauthorized = errors.New("ai provider authentication failed")

	// EAIEmptyResponse indicates the provider answered with no text
	EAIEmptyResponse = errors.New("ai provider returned an empty response")
)

// IsRetryable returns true if the error is a transient error that can be retried
func IsRetryable(err error) bool {
	return errors.Is(err, EAIRateLimit) ||
		errors.Is(err, EAITimeout) ||
		errors.Is(err, EAIUnavailable)
}

// WrapError wraps an error with context about the AI operation
func WrapError(operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("ai %s: %w", operation, err)
}

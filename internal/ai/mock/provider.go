package mock

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/DukeRupert/certum/internal/ai"
)

// Provider is a mock AI provider for testing and development. It implements
// ai.Provider and ai.TranscriptSource.
type Provider struct {
	logger *slog.Logger

	mu sync.Mutex

	// Configurable responses for testing
	ResumeChunks       []string
	AnalyzeResumeErr   error
	StreamErr          error // yielded after ResumeChunks
	FeedbackResponse   string
	FeedbackError      error
	QuestionResponse   string
	QuestionError      error
	TranscriptMessages []ai.TranscriptMessage
	TranscriptError    error

	// Call tracking for testing
	AnalyzeResumeCalls    int
	GenerateFeedbackCalls int
	GenerateQuestionCalls int
	ChatTranscriptCalls   int
}

// New creates a new mock AI provider
func New(logger *slog.Logger) *Provider {
	return &Provider{
		logger: logger,
	}
}

// AnalyzeResume streams canned analysis chunks.
func (p *Provider) AnalyzeResume(ctx context.Context, req ai.ResumeRequest) (iter.Seq2[string, error], error) {
	p.mu.Lock()
	p.AnalyzeResumeCalls++
	openErr, streamErr := p.AnalyzeResumeErr, p.StreamErr
	chunks := p.ResumeChunks
	p.mu.Unlock()

	if openErr != nil {
		return nil, openErr
	}
	if chunks == nil {
		chunks = []string{
			"## Overall fit\n",
			fmt.Sprintf("The resume %s lines up reasonably well with the %s role.\n", req.Filename, titleOr(req.Job.Title)),
			"## Suggestions\n",
			"- Quantify the impact of recent projects.\n",
		}
	}

	return func(yield func(string, error) bool) {
		for _, chunk := range chunks {
			if ctx.Err() != nil {
				yield("", ctx.Err())
				return
			}
			if !yield(chunk, nil) {
				return
			}
		}
		if streamErr != nil {
			yield("", streamErr)
		}
	}, nil
}

// GenerateFeedback returns canned feedback.
func (p *Provider) GenerateFeedback(ctx context.Context, req ai.FeedbackRequest) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.GenerateFeedbackCalls++

	if p.FeedbackError != nil {
		return "", p.FeedbackError
	}
	if p.FeedbackResponse != "" {
		return p.FeedbackResponse, nil
	}

	name := req.UserName
	if name == "" {
		name = "Candidate"
	}
	return fmt.Sprintf("## Overall Rating: 7/10\n\n%s answered %d prompts for the %s role with clear structure.",
		name, countSpeaker(req.Transcript, ai.SpeakerUser), titleOr(req.Job.Title)), nil
}

// GenerateQuestion returns a canned question.
func (p *Provider) GenerateQuestion(ctx context.Context, req ai.QuestionRequest) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.GenerateQuestionCalls++

	if p.QuestionError != nil {
		return "", p.QuestionError
	}
	if p.QuestionResponse != "" {
		return p.QuestionResponse, nil
	}
	return fmt.Sprintf("(%s) Describe a project where you had to make a difficult trade-off as a %s.",
		req.Difficulty, strings.ToLower(titleOr(req.Job.Title))), nil
}

// ChatTranscript returns a canned two-message transcript.
func (p *Provider) ChatTranscript(ctx context.Context, chatID string) ([]ai.TranscriptMessage, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ChatTranscriptCalls++

	if p.TranscriptError != nil {
		return nil, p.TranscriptError
	}
	if p.TranscriptMessages != nil {
		return p.TranscriptMessages, nil
	}
	now := time.Now()
	return []ai.TranscriptMessage{
		{Speaker: ai.SpeakerInterviewer, Text: "Tell me about yourself.", At: now},
		{Speaker: ai.SpeakerUser, Text: "I have five years of backend experience.", Emotions: []string{"Calmness"}, At: now.Add(5 * time.Second)},
	}, nil
}

// Reset clears call counters and custom responses for testing
func (p *Provider) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.AnalyzeResumeCalls = 0
	p.GenerateFeedbackCalls = 0
	p.GenerateQuestionCalls = 0
	p.ChatTranscriptCalls = 0
	p.ResumeChunks = nil
	p.AnalyzeResumeErr = nil
	p.StreamErr = nil
	p.FeedbackResponse = ""
	p.FeedbackError = nil
	p.QuestionResponse = ""
	p.QuestionError = nil
	p.TranscriptMessages = nil
	p.TranscriptError = nil
}

func titleOr(title string) string {
	if title == "" {
		return "target"
	}
	return title
}

func countSpeaker(msgs []ai.TranscriptMessage, s ai.Speaker) int {
	n := 0
	for _, m := range msgs {
		if m.Speaker == s {
			n++
		}
	}
	return n
}

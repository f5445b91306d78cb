// Package gemini implements ai.Provider on Google's Gemini API.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/DukeRupert/certum/internal/ai"
	"github.com/DukeRupert/certum/internal/metrics"
)

// DefaultModel is the Gemini model used when none is configured.
const DefaultModel = "gemini-2.5-flash"

// Config contains configuration for the Gemini provider
type Config struct {
	APIKey         string
	Model          string
	ProviderConfig ai.ProviderConfig
}

// models is the subset of *genai.Models the provider calls.
type models interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
	GenerateContentStream(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) iter.Seq2[*genai.GenerateContentResponse, error]
}

// Provider implements ai.Provider using the Gemini API.
type Provider struct {
	config Config
	models models
	logger *slog.Logger
}

// New creates a new Gemini provider
func New(ctx context.Context, config Config, logger *slog.Logger) (*Provider, error) {
	config.APIKey = strings.TrimSpace(config.APIKey)
	if config.APIKey == "" {
		return nil, errors.New("gemini API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return newProvider(config, client.Models, logger), nil
}

func newProvider(config Config, m models, logger *slog.Logger) *Provider {
	if config.Model = strings.TrimSpace(config.Model); config.Model == "" {
		config.Model = DefaultModel
	}
	if config.ProviderConfig.MaxRetries == 0 {
		config.ProviderConfig.MaxRetries = 3
	}
	if config.ProviderConfig.RetryBaseDelay == 0 {
		config.ProviderConfig.RetryBaseDelay = 1 * time.Second
	}
	if config.ProviderConfig.RequestTimeout == 0 {
		config.ProviderConfig.RequestTimeout = 60 * time.Second
	}
	return &Provider{config: config, models: m, logger: logger}
}

// Model returns the configured model name.
func (p *Provider) Model() string {
	return p.config.Model
}

// AnalyzeResume streams a resume review. The resume bytes are sent inline
// with their MIME type so PDFs and Word documents are read by the model.
func (p *Provider) AnalyzeResume(ctx context.Context, req ai.ResumeRequest) (iter.Seq2[string, error], error) {
	if len(req.Data) == 0 {
		return nil, ai.WrapError("analyze resume", ai.EAIInvalidInput)
	}

	contents := []*genai.Content{{
		Role: genai.RoleUser,
		Parts: []*genai.Part{
			{InlineData: &genai.Blob{Data: req.Data, MIMEType: baseMIMEType(req.ContentType)}},
			{Text: buildResumePrompt(req)},
		},
	}}
	cfg := &genai.GenerateContentConfig{SystemInstruction: systemContent(resumeSystemPrompt)}

	start := time.Now()
	next, stop := iter.Pull2(p.models.GenerateContentStream(ctx, p.config.Model, contents, cfg))

	// Pull the first chunk so a failure to open the stream is reported to
	// the caller instead of midway through the response.
	// Callers must range over the returned sequence to release it.
	first, err, ok := next()
	if !ok {
		err = ai.EAIEmptyResponse
	}
	if err != nil {
		stop()
		err = mapError(err)
		metrics.AICallCompleted("analyze_resume", time.Since(start), err)
		return nil, ai.WrapError("analyze resume", err)
	}

	return func(yield func(string, error) bool) {
		defer stop()
		var streamErr error
		defer func() { metrics.AICallCompleted("analyze_resume", time.Since(start), streamErr) }()

		if text := responseText(first); text != "" {
			if !yield(text, nil) {
				return
			}
		}
		for {
			resp, err, ok := next()
			if !ok {
				return
			}
			if err != nil {
				streamErr = mapError(err)
				yield("", ai.WrapError("analyze resume stream", streamErr))
				return
			}
			if text := responseText(resp); text != "" {
				if !yield(text, nil) {
					return
				}
			}
		}
	}, nil
}

// GenerateFeedback writes interview feedback from a transcript.
func (p *Provider) GenerateFeedback(ctx context.Context, req ai.FeedbackRequest) (string, error) {
	if len(req.Transcript) == 0 {
		return "", ai.WrapError("generate feedback", ai.EAIInvalidInput)
	}
	out, err := p.generate(ctx, "generate_feedback", feedbackSystemPrompt, buildFeedbackPrompt(req))
	if err != nil {
		return "", ai.WrapError("generate feedback", err)
	}
	return out, nil
}

// GenerateQuestion writes one practice question.
func (p *Provider) GenerateQuestion(ctx context.Context, req ai.QuestionRequest) (string, error) {
	out, err := p.generate(ctx, "generate_question", questionSystemPrompt, buildQuestionPrompt(req))
	if err != nil {
		return "", ai.WrapError("generate question", err)
	}
	return out, nil
}

// generate runs a single-shot prompt with exponential backoff retry on
// transient errors.
func (p *Provider) generate(ctx context.Context, operation, system, prompt string) (string, error) {
	start := time.Now()
	cfg := &genai.GenerateContentConfig{SystemInstruction: systemContent(system)}
	contents := genai.Text(prompt)

	var lastErr error
	for attempt := 1; attempt <= p.config.ProviderConfig.MaxRetries; attempt++ {
		out, err := p.generateOnce(ctx, contents, cfg)
		if err == nil {
			metrics.AICallCompleted(operation, time.Since(start), nil)
			return out, nil
		}
		lastErr = err

		if !ai.IsRetryable(err) || attempt >= p.config.ProviderConfig.MaxRetries {
			break
		}

		delay := p.config.ProviderConfig.RetryBaseDelay * time.Duration(1<<(attempt-1))
		p.logger.Info("Retrying AI request", "operation", operation, "attempt", attempt, "delay", delay, "error", err)

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			lastErr = ctx.Err()
			metrics.AICallCompleted(operation, time.Since(start), lastErr)
			return "", lastErr
		}
	}

	metrics.AICallCompleted(operation, time.Since(start), lastErr)
	return "", lastErr
}

func (p *Provider) generateOnce(ctx context.Context, contents []*genai.Content, cfg *genai.GenerateContentConfig) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, p.config.ProviderConfig.RequestTimeout)
	defer cancel()

	resp, err := p.models.GenerateContent(ctx, p.config.Model, contents, cfg)
	if err != nil {
		return "", mapError(err)
	}
	out := strings.TrimSpace(responseText(resp))
	if out == "" {
		return "", ai.EAIEmptyResponse
	}
	return out, nil
}

// mapError maps Gemini API errors to the ai error sentinels.
func mapError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return ai.EAITimeout
	}

	var apiErr genai.APIError
	if !errors.As(err, &apiErr) {
		return err
	}

	switch apiErr.Code {
	case http.StatusUnauthorized, http.StatusForbidden:
		return ai.EAIUnauthorized
	case http.StatusTooManyRequests:
		return ai.EAIRateLimit
	case http.StatusRequestTimeout, http.StatusGatewayTimeout:
		return ai.EAITimeout
	case http.StatusBadRequest:
		return fmt.Errorf("%w: %s", ai.EAIInvalidInput, apiErr.Message)
	case http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable:
		return ai.EAIUnavailable
	default:
		return fmt.Errorf("API error (status %d): %s", apiErr.Code, apiErr.Message)
	}
}

func systemContent(text string) *genai.Content {
	return &genai.Content{Parts: []*genai.Part{{Text: text}}}
}

// responseText concatenates the text parts of every candidate.
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	var b strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil || part.Thought {
				continue
			}
			b.WriteString(part.Text)
		}
	}
	return b.String()
}

func baseMIMEType(contentType string) string {
	return strings.TrimSpace(strings.Split(contentType, ";")[0])
}

// Package hume fetches voice interview transcripts from the Hume EVI API.
package hume

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/DukeRupert/certum/internal/ai"
	"github.com/DukeRupert/certum/internal/metrics"
)

const (
	// APIBaseURL is the base URL for the Hume EVI API
	APIBaseURL = "https://api.hume.ai/v0/evi"

	// PageSize is the number of chat events requested per page
	PageSize = 100

	// topEmotions is how many emotion scores are kept per message
	topEmotions = 3
)

// Config contains configuration for the Hume client
type Config struct {
	APIKey         string
	BaseURL        string
	ProviderConfig ai.ProviderConfig
}

// Client implements ai.TranscriptSource.
type Client struct {
	config Config
	client *http.Client
	logger *slog.Logger
}

// New creates a new Hume client
func New(config Config, logger *slog.Logger) (*Client, error) {
	if config.APIKey == "" {
		return nil, errors.New("hume API key is required")
	}

	if config.BaseURL == "" {
		config.BaseURL = APIBaseURL
	}
	if config.ProviderConfig.MaxRetries == 0 {
		config.ProviderConfig.MaxRetries = 3
	}
	if config.ProviderConfig.RetryBaseDelay == 0 {
		config.ProviderConfig.RetryBaseDelay = 1 * time.Second
	}
	if config.ProviderConfig.RequestTimeout == 0 {
		config.ProviderConfig.RequestTimeout = 30 * time.Second
	}

	return &Client{
		config: config,
		client: &http.Client{
			Timeout: config.ProviderConfig.RequestTimeout,
		},
		logger: logger,
	}, nil
}

// ChatTranscript returns the user and assistant messages of a chat in the
// order they were spoken.
func (c *Client) ChatTranscript(ctx context.Context, chatID string) ([]ai.TranscriptMessage, error) {
	if chatID == "" {
		return nil, ai.WrapError("chat transcript", ai.EAIInvalidInput)
	}

	start := time.Now()
	var messages []ai.TranscriptMessage
	for page := 0; ; page++ {
		resp, err := c.fetchPage(ctx, chatID, page)
		if err != nil {
			metrics.AICallCompleted("chat_transcript", time.Since(start), err)
			return nil, ai.WrapError("chat transcript", err)
		}

		for _, ev := range resp.EventsPage {
			if msg, ok := ev.toMessage(); ok {
				messages = append(messages, msg)
			}
		}

		if page+1 >= resp.TotalPages || len(resp.EventsPage) == 0 {
			break
		}
	}

	metrics.AICallCompleted("chat_transcript", time.Since(start), nil)
	return messages, nil
}

func (c *Client) fetchPage(ctx context.Context, chatID string, page int) (*chatEventsResponse, error) {
	q := url.Values{}
	q.Set("page_number", strconv.Itoa(page))
	q.Set("page_size", strconv.Itoa(PageSize))
	q.Set("ascending_order", "true")
	endpoint := fmt.Sprintf("%s/chats/%s?%s", c.config.BaseURL, url.PathEscape(chatID), q.Encode())

	return c.executeWithRetry(ctx, endpoint)
}

// executeWithRetry executes a GET request with exponential backoff retry
func (c *Client) executeWithRetry(ctx context.Context, endpoint string) (*chatEventsResponse, error) {
	var lastErr error

	for attempt := 1; attempt <= c.config.ProviderConfig.MaxRetries; attempt++ {
		resp, err := c.executeRequest(ctx, endpoint)
		if err == nil {
			return resp, nil
		}

		lastErr = err

		if !ai.IsRetryable(err) {
			return nil, err
		}
		if attempt >= c.config.ProviderConfig.MaxRetries {
			break
		}

		delay := c.config.ProviderConfig.RetryBaseDelay * time.Duration(1<<(attempt-1))
		c.logger.Info("Retrying transcript request", "attempt", attempt, "delay", delay, "error", err)

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	return nil, lastErr
}

// executeRequest executes a single HTTP request
func (c *Client) executeRequest(ctx context.Context, endpoint string) (*chatEventsResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Hume-Api-Key", c.config.APIKey)

	resp, err := c.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		// Network errors are typically retryable
		return nil, ai.EAIUnavailable
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, mapHTTPError(resp.StatusCode, body)
	}

	var out chatEventsResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	return &out, nil
}

// mapHTTPError maps HTTP status codes to ai errors
func mapHTTPError(statusCode int, body []byte) error {
	var errResp apiErrorResponse
	_ = json.Unmarshal(body, &errResp)

	switch statusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return ai.EAIUnauthorized
	case http.StatusTooManyRequests:
		return ai.EAIRateLimit
	case http.StatusRequestTimeout, http.StatusGatewayTimeout:
		return ai.EAITimeout
	case http.StatusNotFound:
		return fmt.Errorf("%w: chat not found", ai.EAIInvalidInput)
	case http.StatusInternalServerError, http.StatusServiceUnavailable, http.StatusBadGateway:
		return ai.EAIUnavailable
	default:
		return fmt.Errorf("API error (status %d): %s", statusCode, errResp.message())
	}
}

// =============================================================================
// API types
// =============================================================================

type chatEventsResponse struct {
	ID         string      `json:"id"`
	PageNumber int         `json:"page_number"`
	PageSize   int         `json:"page_size"`
	TotalPages int         `json:"total_pages"`
	EventsPage []chatEvent `json:"events_page"`
}

type chatEvent struct {
	ID              string `json:"id"`
	Type            string `json:"type"`
	Role            string `json:"role"`
	Timestamp       int64  `json:"timestamp"`
	MessageText     string `json:"message_text"`
	EmotionFeatures string `json:"emotion_features"`
}

type apiErrorResponse struct {
	Message string `json:"message"`
	Detail  string `json:"detail"`
}

func (e apiErrorResponse) message() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Detail
}

// toMessage converts user and agent messages. Other events are skipped.
func (e chatEvent) toMessage() (ai.TranscriptMessage, bool) {
	var speaker ai.Speaker
	switch e.Type {
	case "USER_MESSAGE":
		speaker = ai.SpeakerUser
	case "AGENT_MESSAGE":
		speaker = ai.SpeakerInterviewer
	default:
		return ai.TranscriptMessage{}, false
	}
	if e.MessageText == "" {
		return ai.TranscriptMessage{}, false
	}

	msg := ai.TranscriptMessage{
		Speaker: speaker,
		Text:    e.MessageText,
		At:      time.UnixMilli(e.Timestamp).UTC(),
	}
	if speaker == ai.SpeakerUser {
		msg.Emotions = strongestEmotions(e.EmotionFeatures, topEmotions)
	}
	return msg, true
}

// strongestEmotions parses the emotion score object, which the API sends as
// a JSON-encoded string, and returns the n highest scoring names.
func strongestEmotions(raw string, n int) []string {
	if raw == "" {
		return nil
	}
	var scores map[string]float64
	if err := json.Unmarshal([]byte(raw), &scores); err != nil {
		return nil
	}

	names := make([]string, 0, len(scores))
	for name := range scores {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if scores[names[i]] == scores[names[j]] {
			return names[i] < names[j]
		}
		return scores[names[i]] > scores[names[j]]
	})

	if len(names) > n {
		names = names[:n]
	}
	return names
}

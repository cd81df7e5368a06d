package brain

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/paige-robotics/feelme/internal/convo"
	"github.com/paige-robotics/feelme/internal/reliability"
	"github.com/paige-robotics/feelme/pkg/logger"
)

// Config holds settings for the chat-completions collaborator. BaseURL may
// point at any OpenAI-compatible endpoint (Ollama's /v1 included).
type Config struct {
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float64
	MaxAttempts int
	RetryBase   time.Duration
	RetryCap    time.Duration
}

// OpenAIBrain talks to a chat-completions endpoint. Implements convo.Brain.
type OpenAIBrain struct {
	client      openai.Client
	model       string
	temperature float64
	maxAttempts int
	retryBase   time.Duration
	retryCap    time.Duration
	log         *logger.Logger
}

var _ convo.Brain = (*OpenAIBrain)(nil)

func New(cfg Config, log *logger.Logger) (*OpenAIBrain, error) {
	if strings.TrimSpace(cfg.Model) == "" {
		return nil, fmt.Errorf("model name is required")
	}
	if log == nil {
		log = logger.NewNop()
	}

	opts := []option.RequestOption{}
	if strings.TrimSpace(cfg.BaseURL) != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if strings.TrimSpace(cfg.APIKey) != "" {
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	}

	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 2
	}
	retryBase := cfg.RetryBase
	if retryBase <= 0 {
		retryBase = 250 * time.Millisecond
	}
	retryCap := cfg.RetryCap
	if retryCap <= 0 {
		retryCap = 2 * time.Second
	}

	temperature := cfg.Temperature
	if temperature <= 0 {
		temperature = 0.6
	}

	return &OpenAIBrain{
		client:      openai.NewClient(opts...),
		model:       cfg.Model,
		temperature: temperature,
		maxAttempts: maxAttempts,
		retryBase:   retryBase,
		retryCap:    retryCap,
		log:         log.Named("brain"),
	}, nil
}

// Respond sends the directive, the prior history in order, and the new user
// message, and returns the model's single reply.
func (b *OpenAIBrain) Respond(ctx context.Context, directive string, history []convo.Message, userText string) (string, error) {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(history)+2)
	messages = append(messages, openai.SystemMessage(directive))
	for _, msg := range history {
		switch msg.Role {
		case convo.RoleAssistant:
			messages = append(messages, openai.AssistantMessage(msg.Content))
		default:
			messages = append(messages, openai.UserMessage(msg.Content))
		}
	}
	messages = append(messages, openai.UserMessage(userText))

	params := openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(b.model),
		Messages:    messages,
		Temperature: openai.Float(b.temperature),
	}

	var lastErr error
	for attempt := 0; attempt < b.maxAttempts; attempt++ {
		if attempt > 0 {
			wait := reliability.ExponentialBackoff(attempt-1, b.retryBase, b.retryCap)
			b.log.Warn("retrying model call",
				logger.Int("attempt", attempt),
				logger.Duration("backoff", wait),
				logger.Error(lastErr))
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(wait):
			}
		}

		completion, err := b.client.Chat.Completions.New(ctx, params)
		if err != nil {
			lastErr = err
			if !retryableModelError(err) {
				return "", fmt.Errorf("chat completion: %w", err)
			}
			continue
		}
		if len(completion.Choices) == 0 {
			return "", fmt.Errorf("chat completion returned no choices")
		}
		reply := strings.TrimSpace(completion.Choices[0].Message.Content)
		if reply == "" {
			return "", fmt.Errorf("chat completion returned empty reply")
		}
		return reply, nil
	}
	return "", fmt.Errorf("chat completion: %w", lastErr)
}

func retryableModelError(err error) bool {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return reliability.IsRetryableHTTPStatus(apiErr.StatusCode)
	}
	// Connection-level failures (endpoint restarting, model loading) are worth
	// one more attempt.
	return true
}

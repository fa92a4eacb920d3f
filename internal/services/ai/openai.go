package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
	"go.uber.org/zap"

	"github.com/enp09/duende/internal/logger"
)

const (
	// DefaultOpenAIModel is the default model to use
	DefaultOpenAIModel = "gpt-4o-mini"
	// DefaultOpenAIBaseURL is the default OpenAI API base URL
	DefaultOpenAIBaseURL = "https://api.openai.com/v1"
	// DefaultTimeout is the default timeout for API calls
	DefaultTimeout = 30 * time.Second

	advocacyMaxTokens = 300
	alertMaxTokens    = 200
	temperature       = 0.7
)

// ErrEmptyResponse is returned when the model produces no text.
var ErrEmptyResponse = errors.New("no choices in response")

// OpenAIGenerator implements MessageGenerator with the OpenAI chat completions API.
type OpenAIGenerator struct {
	client    openai.Client
	model     string
	logger    *zap.Logger
	debugMode bool
}

// NewOpenAIGenerator creates a generator. Empty baseURL and model fall back to the
// defaults; extra options are appended to the client configuration.
func NewOpenAIGenerator(apiKey, baseURL, model string, log *zap.Logger, debugMode bool, opts ...option.RequestOption) *OpenAIGenerator {
	if model == "" {
		model = DefaultOpenAIModel
	}
	if baseURL == "" {
		baseURL = DefaultOpenAIBaseURL
	}
	if log == nil {
		log = zap.NewNop()
	}

	clientOpts := append([]option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithBaseURL(baseURL),
		option.WithHTTPClient(&http.Client{Timeout: DefaultTimeout}),
	}, opts...)

	return &OpenAIGenerator{
		client:    openai.NewClient(clientOpts...),
		model:     model,
		logger:    log,
		debugMode: debugMode,
	}
}

// GenerateAdvocacyMessage implements MessageGenerator.
func (g *OpenAIGenerator) GenerateAdvocacyMessage(ctx context.Context, mc MessageContext) (string, error) {
	return g.complete(ctx, "advocacy_message", advocacySystemPrompt, buildAdvocacyPrompt(mc), advocacyMaxTokens)
}

// GenerateThresholdAlert implements MessageGenerator.
func (g *OpenAIGenerator) GenerateThresholdAlert(ctx context.Context, mc MessageContext) (string, error) {
	return g.complete(ctx, "threshold_alert", alertSystemPrompt, buildAlertPrompt(mc), alertMaxTokens)
}

func (g *OpenAIGenerator) complete(ctx context.Context, operation, system, prompt string, maxTokens int64) (string, error) {
	req := openai.ChatCompletionNewParams{
		Model: shared.ChatModel(g.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(prompt),
		},
		MaxTokens:   openai.Int(maxTokens),
		Temperature: openai.Float(temperature),
	}

	fields := []zap.Field{
		zap.String("operation", operation),
		zap.String("model", g.model),
		zap.String("user_id", ExtractUserID(ctx)),
		zap.String("suggestion_id", ExtractSuggestionID(ctx)),
		zap.String("request_id", ExtractRequestID(ctx)),
	}
	if g.debugMode {
		g.logger.Debug("llm_api_request", append(fields,
			zap.Int("prompt_length", len(prompt)),
			zap.String("prompt_preview", logger.SanitizeDebugContent(prompt)),
		)...)
	}

	start := time.Now()
	resp, err := g.client.Chat.Completions.New(ctx, req)
	latency := time.Since(start)
	if err != nil {
		if g.debugMode {
			g.logger.Debug("llm_api_error", append(fields,
				zap.String("error", logger.SanitizeError(err)),
				zap.Int64("latency_ms", latency.Milliseconds()),
			)...)
		}
		if apiErr := ExtractAPIError(err); apiErr != nil {
			return "", fmt.Errorf("failed to generate %s: %w", operation, apiErr)
		}
		return "", fmt.Errorf("failed to generate %s: %w", operation, err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if g.debugMode {
		g.logger.Debug("llm_api_response", append(fields,
			zap.Int("response_length", len(content)),
			zap.String("response_preview", logger.SanitizeDebugContent(content)),
			zap.Int64("latency_ms", latency.Milliseconds()),
		)...)
	}
	return content, nil
}

var _ MessageGenerator = (*OpenAIGenerator)(nil)

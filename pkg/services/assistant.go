package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/civicworks/grievance-engine/pkg/apperrors"
	"github.com/civicworks/grievance-engine/pkg/config"
	"github.com/civicworks/grievance-engine/pkg/retry"
)

const assistantSystemPrompt = `You are an assistant for a government grievance tracking office.
Answer questions about grievance handling, categorization and prioritization concisely.
Do not invent case data; suggest looking up the request by reference number instead.`

// assistantFallback is returned when no API key is configured or the
// external call keeps failing. The endpoint degrades instead of erroring.
const assistantFallback = "The AI assistant is currently unavailable. " +
	"You can search requests by reference number, filter the request list by status or district, " +
	"or contact the office administrator for help."

// AssistantService proxies free-text questions to an OpenAI-compatible
// endpoint.
type AssistantService interface {
	// Query answers a question. It never returns an error for upstream
	// failures; those degrade to the canned fallback answer.
	Query(ctx context.Context, question string) (string, error)
}

type assistantService struct {
	client *openai.Client // nil when no API key is configured
	model  string
	logger *zap.Logger
}

// NewAssistantService creates a new assistant service. With an empty API
// key the service stays up and answers with the fallback response.
func NewAssistantService(cfg *config.AssistantConfig, logger *zap.Logger) AssistantService {
	var client *openai.Client
	if cfg.APIKey != "" {
		clientConfig := openai.DefaultConfig(cfg.APIKey)
		clientConfig.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
		client = openai.NewClientWithConfig(clientConfig)
	}

	return &assistantService{
		client: client,
		model:  cfg.Model,
		logger: logger,
	}
}

var _ AssistantService = (*assistantService)(nil)

func (s *assistantService) Query(ctx context.Context, question string) (string, error) {
	if strings.TrimSpace(question) == "" {
		return "", fmt.Errorf("%w: question is required", apperrors.ErrValidation)
	}

	if s.client == nil {
		return assistantFallback, nil
	}

	answer, err := retry.DoWithResult(ctx, retry.DefaultConfig(), func() (string, error) {
		resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model: s.model,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: assistantSystemPrompt},
				{Role: openai.ChatMessageRoleUser, Content: question},
			},
		})
		if err != nil {
			return "", err
		}
		if len(resp.Choices) == 0 {
			return "", fmt.Errorf("empty completion response")
		}
		return resp.Choices[0].Message.Content, nil
	})
	if err != nil {
		s.logger.Warn("Assistant query failed, using fallback", zap.Error(err))
		return assistantFallback, nil
	}

	return answer, nil
}

package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	goopenai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"reaction-hand/config"
	"reaction-hand/providers"
)

// chatClient ist der von *goopenai.Client genutzte Ausschnitt.
type chatClient interface {
	CreateChatCompletion(ctx context.Context, request goopenai.ChatCompletionRequest) (goopenai.ChatCompletionResponse, error)
}

// Client kapselt die Chat-Completion-API von OpenAI.
type Client struct {
	Inner  chatClient
	Model  string
	Logger *zap.Logger
}

// NewClient erstellt einen neuen OpenAI-Client aus der Konfiguration.
func NewClient(cfg *config.Config, logger *zap.Logger) *Client {
	oc := goopenai.DefaultConfig(cfg.OpenAIAPIKey)
	if cfg.OpenAIBaseURL != "" {
		oc.BaseURL = cfg.OpenAIBaseURL
	}
	oc.OrgID = cfg.OpenAIOrgID
	oc.HTTPClient = &http.Client{Timeout: cfg.CompletionTimeout}

	return &Client{
		Inner:  goopenai.NewClientWithConfig(oc),
		Model:  cfg.OpenAIModel,
		Logger: logger,
	}
}

// Name gibt "openai" zurück.
func (c *Client) Name() string {
	return "openai"
}

// Complete führt eine Chat-Completion im Textmodus aus.
func (c *Client) Complete(ctx context.Context, req providers.CompletionRequest) (*providers.Completion, error) {
	model := req.Model
	if model == "" {
		model = c.Model
	}

	messages := make([]goopenai.ChatCompletionMessage, 0, len(req.Messages))
	for _, m := range req.Messages {
		messages = append(messages, goopenai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}

	log := c.Logger.With(zap.String("model", model))
	log.Debug("Sending chat completion request", zap.Int("messages", len(messages)))

	resp, err := c.Inner.CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
		Model:            model,
		Messages:         messages,
		MaxTokens:        req.MaxTokens,
		Temperature:      req.Temperature,
		TopP:             req.TopP,
		FrequencyPenalty: req.FrequencyPenalty,
		PresencePenalty:  req.PresencePenalty,
		ResponseFormat: &goopenai.ChatCompletionResponseFormat{
			Type: goopenai.ChatCompletionResponseFormatTypeText,
		},
	})
	if err != nil {
		var apiErr *goopenai.APIError
		if errors.As(err, &apiErr) {
			log.Warn("OpenAI API returned an error",
				zap.Int("status", apiErr.HTTPStatusCode),
				zap.Any("code", apiErr.Code),
				zap.String("type", apiErr.Type))
		}
		return nil, fmt.Errorf("chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no choices in response")
	}

	return &providers.Completion{
		Content:          resp.Choices[0].Message.Content,
		Model:            resp.Model,
		FinishReason:     string(resp.Choices[0].FinishReason),
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
	}, nil
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package analysis

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/pdiddy/financeflow/pkg/types"
)

const (
	defaultModel       = "gpt-4"
	defaultMaxTokens   = 1000
	defaultTemperature = 0.3
)

// OpenAIBackend asks an OpenAI chat model for the report directly.
type OpenAIBackend struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float32
}

// NewOpenAIBackend creates a backend from cfg. httpClient may be nil.
func NewOpenAIBackend(cfg types.AIConfig, httpClient *http.Client) *OpenAIBackend {
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}
	if httpClient != nil {
		oc.HTTPClient = httpClient
	}

	b := &OpenAIBackend{
		client:      openai.NewClientWithConfig(oc),
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
	}
	if b.model == "" {
		b.model = defaultModel
	}
	if b.maxTokens <= 0 {
		b.maxTokens = defaultMaxTokens
	}
	if b.temperature == 0 {
		b.temperature = defaultTemperature
	}
	return b
}

// Analyze implements Backend.
func (b *OpenAIBackend) Analyze(ctx context.Context, req Request) (types.AnalysisReport, error) {
	prompt, err := renderUserPrompt(req)
	if err != nil {
		return types.AnalysisReport{}, &RemoteError{Reason: ReasonNetwork, Err: fmt.Errorf("rendering prompt: %w", err)}
	}

	chat := openai.ChatCompletionRequest{
		Model: b.model,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	}
	// Reasoning models take MaxCompletionTokens and reject a custom temperature.
	if isReasoningModel(b.model) {
		chat.MaxCompletionTokens = b.maxTokens
	} else {
		chat.MaxTokens = b.maxTokens
		chat.Temperature = b.temperature
	}

	resp, err := b.client.CreateChatCompletion(ctx, chat)
	if err != nil {
		return types.AnalysisReport{}, classifyOpenAI(err)
	}
	if len(resp.Choices) == 0 {
		return types.AnalysisReport{}, &RemoteError{Reason: ReasonShape, Err: errors.New("completion has no choices")}
	}

	return DecodeReport([]byte(resp.Choices[0].Message.Content))
}

func isReasoningModel(model string) bool {
	for _, p := range []string{"o1", "o3", "o4", "gpt-5"} {
		if strings.HasPrefix(model, p) {
			return true
		}
	}
	return false
}

func classifyOpenAI(err error) *RemoteError {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &RemoteError{Reason: ReasonStatus, StatusCode: apiErr.HTTPStatusCode, Err: err}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return &RemoteError{Reason: ReasonStatus, StatusCode: reqErr.HTTPStatusCode, Err: err}
	}
	return &RemoteError{Reason: ReasonNetwork, Err: fmt.Errorf("creating chat completion: %w", err)}
}

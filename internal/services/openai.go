package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/jwebster45206/gatekeeper/pkg/chat"
)

const (
	openAIBaseURL     = "https://api.openai.com/v1"
	openRouterBaseURL = "https://openrouter.ai/api/v1"
)

// OpenAIService implements OracleService against any OpenAI-compatible chat
// completions endpoint, including OpenRouter. System messages stay in the
// messages array.
type OpenAIService struct {
	apiKey     string
	modelName  string
	baseURL    string
	referer    string
	title      string
	httpClient *http.Client
	logger     *slog.Logger
}

type OpenAIChatRequest struct {
	Model       string             `json:"model"`
	Messages    []chat.ChatMessage `json:"messages"`
	MaxTokens   int                `json:"max_tokens,omitempty"`
	Temperature *float64           `json:"temperature,omitempty"`
	Stream      bool               `json:"stream,omitempty"`
}

type OpenAIChatResponse struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	Model   string `json:"model"`
	Choices []struct {
		Index        int              `json:"index"`
		Message      chat.ChatMessage `json:"message"`
		FinishReason string           `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

func NewOpenAIService(apiKey string, modelName string, logger *slog.Logger) *OpenAIService {
	return &OpenAIService{
		apiKey:    apiKey,
		modelName: modelName,
		baseURL:   openAIBaseURL,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
		logger: logger,
	}
}

// WithBaseURL points the service at a different OpenAI-compatible endpoint
func (o *OpenAIService) WithBaseURL(baseURL string) *OpenAIService {
	o.baseURL = strings.TrimRight(baseURL, "/")
	return o
}

// NewOpenRouterService targets OpenRouter's OpenAI-compatible endpoint.
// OpenRouter asks callers to identify themselves via referer headers.
func NewOpenRouterService(apiKey string, modelName string, logger *slog.Logger) *OpenAIService {
	s := NewOpenAIService(apiKey, modelName, logger)
	s.baseURL = openRouterBaseURL
	s.referer = "https://github.com/jwebster45206/gatekeeper"
	s.title = "Gatekeeper"
	return s
}

// Decide makes one decision request and returns the raw response text.
func (o *OpenAIService) Decide(ctx context.Context, messages []chat.ChatMessage) (string, error) {
	if o.apiKey == "" {
		return "", fmt.Errorf("API key is not configured")
	}

	temperature := DefaultTemperature
	openAIReq := OpenAIChatRequest{
		Model:       o.modelName,
		Messages:    messages,
		MaxTokens:   DefaultMaxTokens,
		Temperature: &temperature,
		Stream:      false,
	}

	reqBody, err := json.Marshal(openAIReq)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", o.baseURL+"/chat/completions", bytes.NewBuffer(reqBody))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+o.apiKey)
	req.Header.Set("Content-Type", "application/json")
	if o.referer != "" {
		req.Header.Set("HTTP-Referer", o.referer)
	}
	if o.title != "" {
		req.Header.Set("X-Title", o.title)
	}

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to make request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var openAIResp OpenAIChatResponse
	if err := json.Unmarshal(body, &openAIResp); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}

	if openAIResp.Error != nil {
		return "", fmt.Errorf("API error: %s", openAIResp.Error.Message)
	}

	if len(openAIResp.Choices) == 0 {
		return "", fmt.Errorf("no choices in response")
	}

	responseText := openAIResp.Choices[0].Message.Content
	if responseText == "" {
		return "", fmt.Errorf("empty completion body")
	}

	return responseText, nil
}

package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
)

const (
	defaultLLMTimeout  = 120 * time.Second
	anthropicMaxTokens = 4096
	anthropicVersion   = "2023-06-01"
	maxResponseBytes   = 4 << 20
)

// Provider presets for known LLM providers
var providerDefaults = map[string]struct {
	BaseURL   string
	Model     string
	APIFormat string
	JSONMode  bool
}{
	"openai":     {BaseURL: "https://api.openai.com/v1/chat/completions", Model: "gpt-4o-mini", APIFormat: "openai", JSONMode: true},
	"gemini":     {BaseURL: "https://generativelanguage.googleapis.com/v1beta/openai/chat/completions", Model: "gemini-2.5-flash", APIFormat: "openai", JSONMode: true},
	"openrouter": {BaseURL: "https://openrouter.ai/api/v1/chat/completions", Model: "openai/gpt-4o-mini", APIFormat: "openai", JSONMode: true},
	"perplexity": {BaseURL: "https://api.perplexity.ai/chat/completions", Model: "sonar", APIFormat: "openai"},
	"anthropic":  {BaseURL: "https://api.anthropic.com/v1/messages", Model: "claude-sonnet-4-5-20250929", APIFormat: "anthropic"},
	"ollama":     {BaseURL: "http://localhost:11434/v1/chat/completions", Model: "llava", APIFormat: "openai", JSONMode: true},
}

// Analyzer performs one remote content analysis
type Analyzer interface {
	Analyze(ctx context.Context, req Request) (Result, error)
}

// AnthropicRequest represents the Anthropic /v1/messages request body
type AnthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	System    string             `json:"system,omitempty"`
	Messages  []AnthropicMessage `json:"messages"`
}

// AnthropicMessage is one message with typed content blocks
type AnthropicMessage struct {
	Role    string             `json:"role"`
	Content []AnthropicContent `json:"content"`
}

// AnthropicContent is a text or image content block
type AnthropicContent struct {
	Type   string                `json:"type"`
	Text   string                `json:"text,omitempty"`
	Source *AnthropicImageSource `json:"source,omitempty"`
}

// AnthropicImageSource carries inline base64 image data
type AnthropicImageSource struct {
	Type      string `json:"type"`
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

// AnthropicResponse represents the Anthropic /v1/messages response
type AnthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// Client sends analysis requests to an OpenAI-compatible or Anthropic API
type Client struct {
	provider   string
	apiFormat  string // "openai" (default) or "anthropic"
	apiKey     string
	model      string
	baseURL    string
	jsonMode   bool
	httpClient *http.Client
	chat       *openai.Client
}

// Option allows configuring the client
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithModel sets a custom model
func WithModel(model string) Option {
	return func(c *Client) {
		if model != "" {
			c.model = model
		}
	}
}

// WithBaseURL sets a custom base URL
func WithBaseURL(url string) Option {
	return func(c *Client) {
		if url != "" {
			c.baseURL = url
		}
	}
}

// WithAPIFormat sets the wire format ("openai" or "anthropic")
func WithAPIFormat(format string) Option {
	return func(c *Client) {
		if format != "" {
			c.apiFormat = format
		}
	}
}

// WithJSONMode turns the response_format JSON object request on or off
func WithJSONMode(enabled bool) Option {
	return func(c *Client) {
		c.jsonMode = enabled
	}
}

// NewClient creates a new analysis client.
// provider can be "openai", "gemini", "openrouter", "perplexity", "anthropic",
// "ollama", or empty (defaults to gemini). apiKey can be empty for ollama.
func NewClient(provider, apiKey string, opts ...Option) (*Client, error) {
	if provider == "" {
		provider = "gemini"
	}

	defaults, known := providerDefaults[provider]
	if !known {
		// Unknown provider: require explicit base_url and model via options
		defaults.BaseURL = ""
		defaults.Model = ""
	}

	client := &Client{
		provider:   provider,
		apiFormat:  defaults.APIFormat,
		apiKey:     apiKey,
		model:      defaults.Model,
		baseURL:    defaults.BaseURL,
		jsonMode:   defaults.JSONMode,
		httpClient: &http.Client{Timeout: defaultLLMTimeout},
	}

	for _, opt := range opts {
		opt(client)
	}

	if client.apiFormat == "" {
		client.apiFormat = "openai"
	}
	if client.apiFormat != "openai" && client.apiFormat != "anthropic" {
		return nil, fmt.Errorf("unsupported api_format %q (want openai or anthropic)", client.apiFormat)
	}

	if client.baseURL == "" {
		return nil, fmt.Errorf("LLM base_url is required for provider %q", provider)
	}

	// Auto-append standard path if base URL has no path component
	if !strings.Contains(strings.TrimPrefix(strings.TrimPrefix(client.baseURL, "https://"), "http://"), "/") {
		switch client.apiFormat {
		case "anthropic":
			client.baseURL = strings.TrimRight(client.baseURL, "/") + "/v1/messages"
		default:
			client.baseURL = strings.TrimRight(client.baseURL, "/") + "/v1/chat/completions"
		}
	}

	if client.model == "" {
		return nil, fmt.Errorf("LLM model is required for provider %q", provider)
	}

	// API key is required for non-local providers
	if client.apiKey == "" && provider != "ollama" {
		return nil, fmt.Errorf("LLM api_key is required for provider %q", provider)
	}

	if client.apiFormat == "openai" {
		cfg := openai.DefaultConfig(client.apiKey)
		cfg.BaseURL = strings.TrimSuffix(strings.TrimRight(client.baseURL, "/"), "/chat/completions")
		cfg.HTTPClient = client.httpClient
		client.chat = openai.NewClientWithConfig(cfg)
	}

	return client, nil
}

// Provider returns the configured provider name
func (c *Client) Provider() string { return c.provider }

// Model returns the configured model name
func (c *Client) Model() string { return c.model }

// Analyze validates the request, sends it to the provider and normalizes the
// reply. No retries are attempted.
func (c *Client) Analyze(ctx context.Context, req Request) (Result, error) {
	if err := req.Validate(); err != nil {
		return Result{}, err
	}

	prompt := BuildPrompt(req)

	var content string
	var err error
	if c.apiFormat == "anthropic" {
		content, err = c.completeAnthropic(ctx, prompt, req.Image)
	} else {
		content, err = c.completeOpenAI(ctx, prompt, req.Image)
	}
	if err != nil {
		return Result{}, err
	}

	if strings.TrimSpace(content) == "" {
		return Result{}, fmt.Errorf("%w: no response received from AI", ErrMalformedResponse)
	}
	return ParseResponse(content)
}

func (c *Client) completeOpenAI(ctx context.Context, prompt string, img *Image) (string, error) {
	user := openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser}
	if img != nil {
		user.MultiContent = []openai.ChatMessagePart{
			{
				Type: openai.ChatMessagePartTypeImageURL,
				ImageURL: &openai.ChatMessageImageURL{
					URL:    img.DataURI(),
					Detail: openai.ImageURLDetailAuto,
				},
			},
			{Type: openai.ChatMessagePartTypeText, Text: prompt},
		}
	} else {
		user.Content = prompt
	}

	chatReq := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: SystemPrompt},
			user,
		},
	}
	if c.jsonMode {
		chatReq.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	resp, err := c.chat.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return "", classifyOpenAIError(err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices in response", ErrMalformedResponse)
	}
	return resp.Choices[0].Message.Content, nil
}

func (c *Client) completeAnthropic(ctx context.Context, prompt string, img *Image) (string, error) {
	var blocks []AnthropicContent
	if img != nil {
		blocks = append(blocks, AnthropicContent{
			Type: "image",
			Source: &AnthropicImageSource{
				Type:      "base64",
				MediaType: img.MediaType,
				Data:      img.Base64(),
			},
		})
	}
	blocks = append(blocks, AnthropicContent{Type: "text", Text: prompt})

	body, err := json.Marshal(AnthropicRequest{
		Model:     c.model,
		MaxTokens: anthropicMaxTokens,
		System:    SystemPrompt,
		Messages:  []AnthropicMessage{{Role: "user", Content: blocks}},
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrProviderFailure, err)
	}
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrProviderFailure, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", fmt.Errorf("%w: failed to read response body: %w", ErrProviderFailure, err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", statusError(resp.StatusCode, parseAPIError(resp.StatusCode, respBody))
	}

	var anthropicResp AnthropicResponse
	if err := json.Unmarshal(respBody, &anthropicResp); err != nil {
		return "", fmt.Errorf("%w: unexpected response (not JSON): %s", ErrMalformedResponse, preview(respBody))
	}
	if anthropicResp.Error != nil {
		return "", fmt.Errorf("%w: API error: %s", ErrProviderFailure, anthropicResp.Error.Message)
	}
	for _, block := range anthropicResp.Content {
		if block.Type == "text" {
			return block.Text, nil
		}
	}
	return "", fmt.Errorf("%w: no text content in Anthropic response", ErrMalformedResponse)
}

// classifyOpenAIError sorts go-openai errors into the analysis taxonomy
func classifyOpenAIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return statusError(apiErr.HTTPStatusCode, err)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return statusError(reqErr.HTTPStatusCode, err)
	}

	// A 200 whose body is not a chat completion
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return fmt.Errorf("%w: unexpected response (not JSON): %w", ErrMalformedResponse, err)
	}

	return fmt.Errorf("%w: %w", ErrProviderFailure, err)
}

func statusError(status int, err error) error {
	if status == http.StatusTooManyRequests {
		return fmt.Errorf("%w: %w: %w", ErrProviderFailure, ErrQuotaExceeded, err)
	}
	return fmt.Errorf("%w: %w", ErrProviderFailure, err)
}

// parseAPIError extracts a human-readable message from an API error response.
// If the body is JSON with an error.message field, it uses that; otherwise falls back to raw body.
func parseAPIError(statusCode int, body []byte) error {
	var parsed struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(body, &parsed) == nil && parsed.Error.Message != "" {
		return fmt.Errorf("API error (status %d): %s", statusCode, parsed.Error.Message)
	}
	return fmt.Errorf("API error (status %d): %s", statusCode, preview(body))
}

func preview(body []byte) string {
	s := string(body)
	if len(s) > 200 {
		s = s[:200] + "..."
	}
	return s
}

package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sashabaranov/go-openai"
)

const samplePayload = `{
  "score": 85,
  "verdict": "High Risk Scam",
  "explanation": "Classic advance-fee pattern.",
  "simplifiedExplanation": "Someone wants your money.",
  "suspiciousPhrases": ["act now", "free money"],
  "verificationSources": [{"name": "FTC", "url": "https://consumer.ftc.gov"}],
  "tips": ["Do not reply"]
}`

func chatResponse(content string) openai.ChatCompletionResponse {
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: content}},
		},
	}
}

func TestNewClient(t *testing.T) {
	tests := []struct {
		name     string
		provider string
		apiKey   string
		opts     []Option
		wantErr  bool
	}{
		{name: "gemini with key", provider: "gemini", apiKey: "g-test"},
		{name: "openai with key", provider: "openai", apiKey: "sk-test"},
		{name: "perplexity with key", provider: "perplexity", apiKey: "pplx-test"},
		{name: "anthropic with key", provider: "anthropic", apiKey: "sk-ant-test"},
		{name: "ollama no key needed", provider: "ollama"},
		{name: "empty provider defaults to gemini", provider: "", apiKey: "g-test"},
		{name: "gemini without key fails", provider: "gemini", wantErr: true},
		{name: "unknown provider without base_url fails", provider: "custom", apiKey: "key", wantErr: true},
		{
			name:     "unknown provider with base_url and model works",
			provider: "custom",
			apiKey:   "key",
			opts: []Option{
				WithBaseURL("http://localhost:8080/v1/chat/completions"),
				WithModel("my-model"),
			},
		},
		{
			name:     "bad api format fails",
			provider: "openai",
			apiKey:   "sk-test",
			opts:     []Option{WithAPIFormat("grpc")},
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := NewClient(tt.provider, tt.apiKey, tt.opts...)
			if tt.wantErr {
				if err == nil {
					t.Error("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if client == nil {
				t.Fatal("expected client, got nil")
			}
		})
	}
}

func TestClientOptions(t *testing.T) {
	client, err := NewClient("openai", "sk-test", WithModel("gpt-4o"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if client.Model() != "gpt-4o" {
		t.Errorf("expected model 'gpt-4o', got %q", client.Model())
	}
	if client.Provider() != "openai" {
		t.Errorf("expected provider 'openai', got %q", client.Provider())
	}

	client2, err := NewClient("openai", "sk-test", WithBaseURL("http://custom:9000"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if client2.baseURL != "http://custom:9000/v1/chat/completions" {
		t.Errorf("expected path to be appended, got %q", client2.baseURL)
	}

	customHTTP := &http.Client{}
	client3, err := NewClient("openai", "sk-test", WithHTTPClient(customHTTP))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if client3.httpClient != customHTTP {
		t.Error("expected custom HTTP client to be set")
	}

	client4, err := NewClient("perplexity", "pplx", WithJSONMode(true))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !client4.jsonMode {
		t.Error("expected JSON mode to be enabled")
	}
}

func TestClientAnalyzeText(t *testing.T) {
	var gotReq openai.ChatCompletionRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer sk-test" {
			t.Errorf("expected Bearer auth, got %q", r.Header.Get("Authorization"))
		}
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(chatResponse(samplePayload))
	}))
	defer server.Close()

	client, err := NewClient("openai", "sk-test", WithBaseURL(server.URL))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	result, err := client.Analyze(context.Background(), Request{Text: "URGENT: act now to claim your free money!!!"})
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if result.Score != 85 || result.RiskLevel != RiskHigh {
		t.Errorf("expected 85/HIGH_RISK, got %d/%s", result.Score, result.RiskLevel)
	}
	if len(result.SuspiciousPhrases) != 2 {
		t.Errorf("expected 2 phrases, got %v", result.SuspiciousPhrases)
	}

	if len(gotReq.Messages) != 2 {
		t.Fatalf("expected system and user messages, got %d", len(gotReq.Messages))
	}
	if gotReq.Messages[0].Role != openai.ChatMessageRoleSystem {
		t.Errorf("expected system message first, got %q", gotReq.Messages[0].Role)
	}
	if !strings.Contains(gotReq.Messages[1].Content, "free money") {
		t.Error("expected submitted text in user prompt")
	}
	if gotReq.ResponseFormat == nil || gotReq.ResponseFormat.Type != openai.ChatCompletionResponseFormatTypeJSONObject {
		t.Error("expected JSON response format for openai")
	}
}

func TestClientAnalyzeImage(t *testing.T) {
	var raw map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &raw); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}
		json.NewEncoder(w).Encode(chatResponse(samplePayload))
	}))
	defer server.Close()

	client, _ := NewClient("gemini", "g-test", WithBaseURL(server.URL))
	img := &Image{MediaType: "image/png", Data: []byte{0x89, 'P', 'N', 'G'}}
	if _, err := client.Analyze(context.Background(), Request{Image: img}); err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	messages, _ := raw["messages"].([]any)
	if len(messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(messages))
	}
	user, _ := messages[1].(map[string]any)
	parts, ok := user["content"].([]any)
	if !ok || len(parts) != 2 {
		t.Fatalf("expected multi-part user content, got %v", user["content"])
	}
	imagePart, _ := parts[0].(map[string]any)
	if imagePart["type"] != "image_url" {
		t.Errorf("expected image part first, got %v", imagePart["type"])
	}
	imageURL, _ := imagePart["image_url"].(map[string]any)
	if url, _ := imageURL["url"].(string); !strings.HasPrefix(url, "data:image/png;base64,") {
		t.Errorf("expected data URI, got %q", url)
	}
}

func TestClientAnalyzeEmptyInputSkipsCall(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	client, _ := NewClient("openai", "sk-test", WithBaseURL(server.URL))
	_, err := client.Analyze(context.Background(), Request{Text: "hi  "})
	if !errors.Is(err, ErrEmptyInput) {
		t.Fatalf("expected ErrEmptyInput, got %v", err)
	}
	if called {
		t.Error("expected no remote call for empty input")
	}
}

func TestClientAnalyzeErrors(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		wantIs    error
		wantQuota bool
	}{
		{
			name:   "server error",
			status: http.StatusInternalServerError,
			body:   "internal error",
			wantIs: ErrProviderFailure,
		},
		{
			name:      "rate limited",
			status:    http.StatusTooManyRequests,
			body:      `{"error":{"message":"quota exhausted","type":"rate_limit_error"}}`,
			wantIs:    ErrProviderFailure,
			wantQuota: true,
		},
		{
			name:   "missing verdict",
			status: http.StatusOK,
			body:   mustJSON(chatResponse(`{"score": 10, "explanation": "x", "simplifiedExplanation": "y"}`)),
			wantIs: ErrMalformedResponse,
		},
		{
			name:   "prose instead of JSON",
			status: http.StatusOK,
			body:   mustJSON(chatResponse("I think this is probably fine.")),
			wantIs: ErrMalformedResponse,
		},
		{
			name:   "empty content",
			status: http.StatusOK,
			body:   mustJSON(chatResponse("   ")),
			wantIs: ErrMalformedResponse,
		},
		{
			name:   "no choices",
			status: http.StatusOK,
			body:   `{"choices": []}`,
			wantIs: ErrMalformedResponse,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls++
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client, _ := NewClient("openai", "sk-test", WithBaseURL(server.URL))
			_, err := client.Analyze(context.Background(), Request{Text: "Is this message legit?"})
			if !errors.Is(err, tt.wantIs) {
				t.Fatalf("expected %v, got %v", tt.wantIs, err)
			}
			if got := errors.Is(err, ErrQuotaExceeded); got != tt.wantQuota {
				t.Errorf("quota = %v, want %v (err %v)", got, tt.wantQuota, err)
			}
			if UserMessage(err) != "Failed to analyze content. Please try again later." {
				t.Errorf("unexpected user message %q", UserMessage(err))
			}
			if calls != 1 {
				t.Errorf("expected exactly 1 call, got %d", calls)
			}
		})
	}
}

func TestClientAnalyzeNonJSONResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<html><body>Not Found</body></html>"))
	}))
	defer server.Close()

	client, _ := NewClient("openai", "sk-test", WithBaseURL(server.URL))
	_, err := client.Analyze(context.Background(), Request{Text: "Is this message legit?"})
	if err == nil {
		t.Fatal("expected error on HTML response")
	}
	if UserMessage(err) != "Failed to analyze content. Please try again later." {
		t.Errorf("unexpected user message %q", UserMessage(err))
	}
}

func TestClientAnalyzeCanceled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(chatResponse(samplePayload))
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client, _ := NewClient("openai", "sk-test", WithBaseURL(server.URL))
	_, err := client.Analyze(ctx, Request{Text: "Is this message legit?"})
	if !errors.Is(err, ErrProviderFailure) {
		t.Fatalf("expected ErrProviderFailure, got %v", err)
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled in chain, got %v", err)
	}
}

func TestClientAnalyzeAnthropic(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if r.Header.Get("x-api-key") != "sk-ant-test" {
			t.Errorf("expected x-api-key header, got %q", r.Header.Get("x-api-key"))
		}
		if r.Header.Get("anthropic-version") != "2023-06-01" {
			t.Errorf("expected anthropic-version header, got %q", r.Header.Get("anthropic-version"))
		}
		if r.Header.Get("Authorization") != "" {
			t.Errorf("expected no Authorization header for anthropic, got %q", r.Header.Get("Authorization"))
		}

		body, _ := io.ReadAll(r.Body)
		var reqBody AnthropicRequest
		if err := json.Unmarshal(body, &reqBody); err != nil {
			t.Fatalf("failed to parse request body: %v", err)
		}
		if reqBody.System == "" {
			t.Error("expected system field in Anthropic request")
		}
		if reqBody.MaxTokens == 0 {
			t.Error("expected max_tokens in Anthropic request")
		}
		blocks := reqBody.Messages[0].Content
		if len(blocks) != 2 || blocks[0].Type != "image" || blocks[0].Source == nil {
			t.Fatalf("expected image block then text block, got %+v", blocks)
		}
		if blocks[0].Source.MediaType != "image/jpeg" || blocks[0].Source.Type != "base64" {
			t.Errorf("unexpected image source %+v", blocks[0].Source)
		}

		resp := AnthropicResponse{
			Content: []struct {
				Type string `json:"type"`
				Text string `json:"text"`
			}{
				{Type: "text", Text: "```json\n" + samplePayload + "\n```"},
			},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client, _ := NewClient("anthropic", "sk-ant-test", WithBaseURL(server.URL))
	img := &Image{MediaType: "image/jpeg", Data: []byte{0xff, 0xd8, 0xff}}
	result, err := client.Analyze(context.Background(), Request{Text: "Check this screenshot", Image: img})
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if result.Verdict != "High Risk Scam" {
		t.Errorf("unexpected verdict %q", result.Verdict)
	}
}

func TestClientAnalyzeAnthropicErrors(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		wantIs    error
		wantQuota bool
		wantText  string
	}{
		{
			name:     "bad request",
			status:   http.StatusBadRequest,
			body:     `{"error":{"type":"invalid_request_error","message":"model not found"}}`,
			wantIs:   ErrProviderFailure,
			wantText: "model not found",
		},
		{
			name:      "overloaded quota",
			status:    http.StatusTooManyRequests,
			body:      `{"error":{"type":"rate_limit_error","message":"slow down"}}`,
			wantIs:    ErrProviderFailure,
			wantQuota: true,
		},
		{
			name:     "html body",
			status:   http.StatusOK,
			body:     "<html>oops</html>",
			wantIs:   ErrMalformedResponse,
			wantText: "not JSON",
		},
		{
			name:   "no text block",
			status: http.StatusOK,
			body:   `{"content": []}`,
			wantIs: ErrMalformedResponse,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client, _ := NewClient("anthropic", "sk-ant-test", WithBaseURL(server.URL))
			_, err := client.Analyze(context.Background(), Request{Text: "Is this message legit?"})
			if !errors.Is(err, tt.wantIs) {
				t.Fatalf("expected %v, got %v", tt.wantIs, err)
			}
			if got := errors.Is(err, ErrQuotaExceeded); got != tt.wantQuota {
				t.Errorf("quota = %v, want %v", got, tt.wantQuota)
			}
			if tt.wantText != "" && !strings.Contains(err.Error(), tt.wantText) {
				t.Errorf("expected %q in error, got %q", tt.wantText, err.Error())
			}
		})
	}
}

func TestBuildPrompt(t *testing.T) {
	long := strings.Repeat("a", MaxPromptChars+100)
	prompt := BuildPrompt(Request{Text: long})
	if strings.Contains(prompt, strings.Repeat("a", MaxPromptChars+1)) {
		t.Error("expected text to be truncated in prompt")
	}
	if !strings.Contains(prompt, strings.Repeat("a", MaxPromptChars)) {
		t.Error("expected truncated prefix in prompt")
	}
	if !strings.Contains(prompt, "suspiciousPhrases") {
		t.Error("expected output keys in prompt")
	}
}

func mustJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return string(b)
}

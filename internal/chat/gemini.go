package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	defaultGeminiBase    = "https://generativelanguage.googleapis.com"
	defaultGeminiModel   = "gemini-1.5-flash-latest"
	defaultGeminiTimeout = 30 * time.Second
)

// GeminiConfig configures the Gemini generateContent client.
type GeminiConfig struct {
	// APIKey authenticates against the Generative Language API.
	APIKey string
	// Model is the model resource name, e.g. "gemini-1.5-flash-latest".
	Model string
	// BaseURL overrides the API endpoint. Defaults to the public endpoint.
	BaseURL string
	// Timeout bounds each HTTP request. Defaults to 30s.
	Timeout time.Duration
}

// GeminiProvider implements Provider using the Gemini generateContent API.
type GeminiProvider struct {
	cfg    GeminiConfig
	client *http.Client
}

// NewGeminiProvider returns a Provider backed by the Gemini API. The returned
// provider is safe for concurrent use.
func NewGeminiProvider(cfg GeminiConfig) (*GeminiProvider, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	if cfg.Model == "" {
		cfg.Model = defaultGeminiModel
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultGeminiBase
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultGeminiTimeout
	}
	return &GeminiProvider{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// --- wire types (subset of the generateContent API) ---

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Contents          []geminiContent `json:"contents"`
	SystemInstruction *geminiContent  `json:"systemInstruction,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content      geminiContent `json:"content"`
		FinishReason string        `json:"finishReason"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error,omitempty"`
}

// Complete sends a generateContent request. Any failure, transport or
// API-level, is reported as a *BackendError.
func (p *GeminiProvider) Complete(ctx context.Context, req Request) (Result, error) {
	body := geminiRequest{
		Contents: make([]geminiContent, 0, len(req.Messages)),
	}
	if strings.TrimSpace(req.System) != "" {
		body.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: req.System}}}
	}
	for _, m := range req.Messages {
		role := "user"
		if m.Role == "assistant" {
			role = "model"
		}
		body.Contents = append(body.Contents, geminiContent{
			Role:  role,
			Parts: []geminiPart{{Text: m.Content}},
		})
	}

	data, err := json.Marshal(body)
	if err != nil {
		return Result{}, &BackendError{Reason: fmt.Sprintf("marshal request: %v", err)}
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", p.cfg.BaseURL, p.cfg.Model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return Result{}, &BackendError{Reason: fmt.Sprintf("create http request: %v", err)}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", p.cfg.APIKey)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return Result{}, &BackendError{Reason: fmt.Sprintf("http request: %v", err)}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, &BackendError{Reason: fmt.Sprintf("read response: %v", err)}
	}

	var gemResp geminiResponse
	if err := json.Unmarshal(respBody, &gemResp); err != nil {
		return Result{}, &BackendError{Reason: fmt.Sprintf("decode response (status %d): %v", resp.StatusCode, err)}
	}

	if gemResp.Error != nil {
		reason := fmt.Sprintf("api error %s: %s", gemResp.Error.Status, gemResp.Error.Message)
		if resp.StatusCode == http.StatusTooManyRequests || gemResp.Error.Status == "RESOURCE_EXHAUSTED" {
			reason = "quota exceeded: " + gemResp.Error.Message
		}
		return Result{}, &BackendError{Reason: reason}
	}
	if resp.StatusCode >= 400 {
		return Result{}, &BackendError{Reason: fmt.Sprintf("unexpected http status %d", resp.StatusCode)}
	}
	if len(gemResp.Candidates) == 0 {
		return Result{}, &BackendError{Reason: "no candidates in response"}
	}

	var b strings.Builder
	for _, part := range gemResp.Candidates[0].Content.Parts {
		b.WriteString(part.Text)
	}
	text := strings.TrimSpace(b.String())
	if text == "" {
		return Result{}, &BackendError{Reason: "empty candidate text"}
	}

	return Result{
		Text:         text,
		Model:        p.cfg.Model,
		FinishReason: gemResp.Candidates[0].FinishReason,
	}, nil
}

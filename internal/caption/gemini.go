package caption

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/christophergentle/instaposter/internal/config"
	"github.com/christophergentle/instaposter/internal/errs"
)

// DefaultGeminiURL is the Generative Language API root.
const DefaultGeminiURL = "https://generativelanguage.googleapis.com/v1beta"

// GeminiModel calls the Generative Language REST API with an API key.
type GeminiModel struct {
	client    *resty.Client
	apiKey    string
	model     string
	maxTokens int
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Contents         []geminiContent `json:"contents"`
	GenerationConfig struct {
		MaxOutputTokens int `json:"maxOutputTokens,omitempty"`
	} `json:"generationConfig"`
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
	} `json:"error"`
}

// NewGeminiModel validates the key and builds the REST client.
func NewGeminiModel(cfg config.CaptionConfig, timeout time.Duration) (*GeminiModel, error) {
	if !config.IsSet(cfg.APIKey) {
		return nil, errs.ConfigMissing("gemini", "GEMINI_API_KEY is not set")
	}

	baseURL := cfg.APIURL
	if baseURL == "" {
		baseURL = DefaultGeminiURL
	}

	client := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json")

	return &GeminiModel{
		client:    client,
		apiKey:    cfg.APIKey,
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
	}, nil
}

func (m *GeminiModel) Name() string {
	return m.model
}

func (m *GeminiModel) Generate(ctx context.Context, prompt string) (string, error) {
	var req geminiRequest
	req.Contents = []geminiContent{{Role: "user", Parts: []geminiPart{{Text: prompt}}}}
	req.GenerationConfig.MaxOutputTokens = m.maxTokens

	resp, err := m.client.R().
		SetContext(ctx).
		SetQueryParam("key", m.apiKey).
		SetBody(req).
		Post("/models/" + m.model + ":generateContent")
	if err != nil {
		return "", errs.New("gemini generate", errs.KindTransient, err)
	}

	if resp.IsError() {
		return "", errs.New("gemini generate", errs.FromStatus(resp.StatusCode()),
			fmt.Errorf("status %d: %s", resp.StatusCode(), resp.String()))
	}

	var out geminiResponse
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return "", errs.New("gemini generate", errs.KindUpstreamRejected, fmt.Errorf("failed to decode response: %w", err))
	}
	if out.Error != nil {
		return "", errs.New("gemini generate", errs.KindUpstreamRejected,
			fmt.Errorf("%s: %s", out.Error.Status, out.Error.Message))
	}
	if len(out.Candidates) == 0 {
		return "", nil
	}

	var b strings.Builder
	for _, part := range out.Candidates[0].Content.Parts {
		b.WriteString(part.Text)
	}
	return b.String(), nil
}

func (m *GeminiModel) Close() error {
	return nil
}

package caption

import (
	"context"
	"fmt"
	"strings"

	"cloud.google.com/go/vertexai/genai"

	"github.com/christophergentle/instaposter/internal/config"
	"github.com/christophergentle/instaposter/internal/errs"
)

// VertexModel generates captions through Vertex AI using application
// default credentials.
type VertexModel struct {
	client *genai.Client
	model  *genai.GenerativeModel
	name   string
}

func NewVertexModel(ctx context.Context, cfg config.CaptionConfig) (*VertexModel, error) {
	if cfg.ProjectID == "" || cfg.Location == "" {
		return nil, errs.ConfigMissing("vertex", "project id and location must be provided")
	}

	client, err := genai.NewClient(ctx, cfg.ProjectID, cfg.Location)
	if err != nil {
		return nil, errs.New("vertex", errs.KindConfigMissing, fmt.Errorf("genai.NewClient: %w", err))
	}

	model := client.GenerativeModel(cfg.Model)
	if cfg.MaxTokens > 0 {
		model.SetMaxOutputTokens(int32(cfg.MaxTokens))
	}

	return &VertexModel{client: client, model: model, name: cfg.Model}, nil
}

func (m *VertexModel) Name() string {
	return m.name
}

func (m *VertexModel) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := m.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", errs.New("vertex generate", errs.KindOf(err), err)
	}
	return extractText(resp), nil
}

func (m *VertexModel) Close() error {
	if m.client != nil {
		return m.client.Close()
	}
	return nil
}

func extractText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			b.WriteString(string(txt))
		}
	}
	return b.String()
}

package caption

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/christophergentle/instaposter/internal/config"
	"github.com/christophergentle/instaposter/internal/errs"
)

// NewModel builds the backend named by cfg.Backend. The returned Model is
// nil whenever err is non-nil.
func NewModel(ctx context.Context, cfg config.CaptionConfig, timeout time.Duration) (Model, error) {
	switch strings.ToLower(cfg.Backend) {
	case "", "gemini":
		m, err := NewGeminiModel(cfg, timeout)
		if err != nil {
			return nil, err
		}
		return m, nil
	case "vertex":
		m, err := NewVertexModel(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return m, nil
	default:
		return nil, errs.New("caption model", errs.KindConfigMissing, fmt.Errorf("unknown caption backend %q", cfg.Backend))
	}
}

// Package caption turns an image URL into a short Instagram caption using a
// generative text model, falling back to canned captions when the model is
// unavailable or returns nothing usable.
package caption

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/christophergentle/instaposter/internal/analyzer"
	"github.com/christophergentle/instaposter/internal/errs"
)

// Model is a single-shot text generation backend.
type Model interface {
	Generate(ctx context.Context, prompt string) (string, error)
	Name() string
	Close() error
}

// FallbackCaptions are used whenever the model cannot produce a caption.
var FallbackCaptions = []string{
	"Capturing the beauty of everyday moments ✨ #photography #daily #inspiration",
	"Another day, another story worth sharing 📸 #instadaily #moments #life",
	"Finding magic in the details 🌟 #photooftheday #beautiful #explore",
}

const promptTemplate = `Write an Instagram caption for the image at this URL: %s

Requirements:
- Under 150 characters
- Include 3 to 5 relevant hashtags
- Warm, engaging tone
- Reply with the caption text only, no quotes or explanations`

// Prompt builds the generation prompt for an image.
func Prompt(imageURL string) string {
	return fmt.Sprintf(promptTemplate, imageURL)
}

type Generator struct {
	model        Model
	sentiment    *analyzer.SentimentAnalyzer
	minSentiment float64
	log          logrus.FieldLogger
	pick         func(n int) int
}

// NewGenerator creates a generator. model may be nil, in which case every
// call returns a fallback caption. sentiment may be nil to disable the
// polarity guard.
func NewGenerator(model Model, sentiment *analyzer.SentimentAnalyzer, minSentiment float64, log logrus.FieldLogger) *Generator {
	return &Generator{
		model:        model,
		sentiment:    sentiment,
		minSentiment: minSentiment,
		log:          log,
		pick:         rand.IntN,
	}
}

// Available reports whether a model client was constructed.
func (g *Generator) Available() bool {
	return g.model != nil
}

// ModelName is the configured model, or empty when none is available.
func (g *Generator) ModelName() string {
	if g.model == nil {
		return ""
	}
	return g.model.Name()
}

// GenerateCaption never fails: any problem with the model yields one of
// FallbackCaptions.
func (g *Generator) GenerateCaption(ctx context.Context, imageURL string) string {
	if g.model == nil {
		g.log.WithField("kind", errs.KindConfigMissing).Warn("Caption model not configured, using fallback caption")
		return g.fallback()
	}

	text, err := g.model.Generate(ctx, Prompt(imageURL))
	if err != nil {
		g.log.WithFields(logrus.Fields{
			"kind":  errs.KindOf(err),
			"model": g.model.Name(),
		}).WithError(err).Warn("Caption generation failed, using fallback caption")
		return g.fallback()
	}

	caption := clean(text)
	if caption == "" {
		g.log.WithField("model", g.model.Name()).Warn("Model returned an empty caption, using fallback caption")
		return g.fallback()
	}

	if g.sentiment != nil {
		analyzed := g.sentiment.Analyze(caption)
		if analyzed.SentimentScore < g.minSentiment {
			g.log.WithFields(logrus.Fields{
				"score":     analyzed.SentimentScore,
				"threshold": g.minSentiment,
			}).Warn("Generated caption too negative, using fallback caption")
			return g.fallback()
		}
		g.log.WithFields(logrus.Fields{
			"sentiment": analyzed.Sentiment,
			"hashtags":  len(analyzed.Hashtags),
		}).Debug("Caption analyzed")
	}

	return caption
}

func (g *Generator) fallback() string {
	return FallbackCaptions[g.pick(len(FallbackCaptions))]
}

// Close releases the model client.
func (g *Generator) Close() error {
	if g.model == nil {
		return nil
	}
	return g.model.Close()
}

// clean trims whitespace and a single layer of wrapping quotes that models
// like to add around short answers.
func clean(text string) string {
	text = strings.TrimSpace(text)
	for _, q := range []string{`"`, "'", "“"} {
		closing := q
		if q == "“" {
			closing = "”"
		}
		if len(text) >= len(q)+len(closing) && strings.HasPrefix(text, q) && strings.HasSuffix(text, closing) {
			text = strings.TrimSpace(text[len(q) : len(text)-len(closing)])
			break
		}
	}
	return text
}

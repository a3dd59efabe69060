package analyzer

import (
	"strings"

	"github.com/jonreiter/govader"
)

// CaptionAnalysis is the sentiment and hashtag breakdown of one caption.
type CaptionAnalysis struct {
	Text           string
	Sentiment      string // "positive", "negative", or "neutral"
	SentimentScore float64
	Hashtags       []string
}

type SentimentAnalyzer struct {
	analyzer *govader.SentimentIntensityAnalyzer
}

func New() *SentimentAnalyzer {
	return &SentimentAnalyzer{
		analyzer: govader.NewSentimentIntensityAnalyzer(),
	}
}

// Analyze scores a caption. Hashtags are scored as plain words so that
// "#happy" still counts towards the polarity.
func (sa *SentimentAnalyzer) Analyze(caption string) CaptionAnalysis {
	sentiment := sa.analyzer.PolarityScores(strings.ReplaceAll(caption, "#", " "))

	return CaptionAnalysis{
		Text:           caption,
		Sentiment:      sa.categorizeSentiment(sentiment),
		SentimentScore: sentiment.Compound,
		Hashtags:       extractHashtags(caption),
	}
}

func (sa *SentimentAnalyzer) categorizeSentiment(sentiment govader.Sentiment) string {
	compound := sentiment.Compound

	if compound >= 0.3 {
		return "positive"
	} else if compound <= -0.3 {
		return "negative"
	}
	return "neutral"
}

func extractHashtags(text string) []string {
	seen := make(map[string]bool)
	var tags []string

	for _, word := range strings.Fields(text) {
		if !strings.HasPrefix(word, "#") {
			continue
		}
		tag := strings.ToLower(strings.TrimRight(word, ".,!?;:"))
		if len(tag) < 2 || seen[tag] {
			continue
		}
		seen[tag] = true
		tags = append(tags, tag)
	}

	return tags
}

package analyzer

import (
	"reflect"
	"testing"
)

func TestSentimentAnalyzer(t *testing.T) {
	analyzer := New()

	tests := []struct {
		name     string
		text     string
		expected string
	}{
		{
			name:     "positive caption",
			text:     "I love this golden sunset! It's amazing! #happy #travel",
			expected: "positive",
		},
		{
			name:     "negative caption",
			text:     "This is terrible. I hate it so much.",
			expected: "negative",
		},
		{
			name:     "neutral caption",
			text:     "The street at noon.",
			expected: "neutral",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			analyzed := analyzer.Analyze(tt.text)
			if analyzed.Sentiment != tt.expected {
				t.Errorf("Analyze() sentiment = %v (score: %f), want %v", analyzed.Sentiment, analyzed.SentimentScore, tt.expected)
			}
		})
	}
}

func TestScoreRange(t *testing.T) {
	analyzer := New()
	score := analyzer.Analyze("What a wonderful, beautiful morning!").SentimentScore
	if score <= 0 || score > 1 {
		t.Errorf("SentimentScore = %f, want in (0, 1]", score)
	}
}

func TestExtractHashtags(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected []string
	}{
		{
			name:     "hashtags with punctuation",
			text:     "Morning light #Sunrise, #travel! #sunrise",
			expected: []string{"#sunrise", "#travel"},
		},
		{
			name:     "no hashtags",
			text:     "Just a quiet afternoon",
			expected: nil,
		},
		{
			name:     "bare hash ignored",
			text:     "Number # one #photo",
			expected: []string{"#photo"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := extractHashtags(tt.text)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("extractHashtags() = %v, want %v", got, tt.expected)
			}
		})
	}
}

package semantic

import (
	"math"
	"testing"

	"github.com/ppiankov/groundcheck/internal/model"
)

func openAIConfig(key string) model.OpenAIConfig {
	cfg := model.DefaultConfig().OpenAI
	cfg.APIKey = key
	return cfg
}

func TestCosine(t *testing.T) {
	tests := []struct {
		name string
		a, b []float64
		want float64
	}{
		{"identical", []float64{1, 2, 3}, []float64{1, 2, 3}, 1.0},
		{"orthogonal", []float64{1, 0}, []float64{0, 1}, 0.0},
		{"opposite clamps to zero", []float64{1, 0}, []float64{-1, 0}, 0.0},
		{"zero vector", []float64{0, 0}, []float64{1, 1}, 0.0},
		{"length mismatch", []float64{1}, []float64{1, 2}, 0.0},
		{"empty", nil, nil, 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Cosine(tt.a, tt.b)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Cosine() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseEntailment(t *testing.T) {
	tests := []struct {
		in         string
		label      Entailment
		confidence float64
	}{
		{"contradict 0.92", Contradicts, 0.92},
		{"entail 0.8", Entails, 0.8},
		{"neutral 0.3", Neutral, 0.3},
		{"ENTAILMENT 0.7", Entails, 0.7},
		{"contradiction", Contradicts, 0.5},
		{"garbage answer", Neutral, 0},
		{"", Neutral, 0},
		{"contradict 7", Contradicts, 1.0},
		{"contradict -1", Contradicts, 0},
	}

	for _, tt := range tests {
		got := parseEntailment(tt.in)
		if got.Label != tt.label {
			t.Errorf("parseEntailment(%q).Label = %v, want %v", tt.in, got.Label, tt.label)
		}
		if math.Abs(got.Confidence-tt.confidence) > 1e-9 {
			t.Errorf("parseEntailment(%q).Confidence = %v, want %v", tt.in, got.Confidence, tt.confidence)
		}
	}
}

func TestNewOpenAIMatcher_RequiresKey(t *testing.T) {
	if _, err := NewOpenAIMatcher(openAIConfig("")); err == nil {
		t.Fatal("expected error without API key")
	}
	if _, err := NewOpenAIMatcher(openAIConfig("sk-test")); err != nil {
		t.Fatalf("unexpected error with key: %v", err)
	}
}

package analyze

import "context"

// TextRecognizer is the OCR capability: image bytes -> text fragments in
// detection order. Empty output is a valid result.
type TextRecognizer interface {
	Recognize(ctx context.Context, data []byte, format string) ([]string, error)
}

// RelevanceScorer is the embedding capability: image bytes + prompt set ->
// one probability per prompt, in prompt order, summing to 1.
type RelevanceScorer interface {
	Score(ctx context.Context, image []byte, prompts []string) ([]float64, error)
}

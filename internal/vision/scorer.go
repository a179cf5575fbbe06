package vision

import (
	"context"
	"fmt"
	"log/slog"
	"math"
)

// Scorer converts image-prompt embedding similarity into a probability
// distribution over the prompt set via temperature-scaled softmax.
//
// The resulting probabilities are comparative across the given prompt set
// only. They are not calibrated confidences: adding or removing a prompt
// redistributes all the mass.
type Scorer struct {
	emb        Embedder
	logitScale float64
	logger     *slog.Logger
}

func NewScorer(emb Embedder, logitScale float64, logger *slog.Logger) *Scorer {
	if logger == nil {
		logger = slog.Default()
	}
	if logitScale <= 0 {
		logitScale = 100.0 // CLIP's learned temperature
	}
	return &Scorer{emb: emb, logitScale: logitScale, logger: logger}
}

// Score returns one relevance probability per prompt, in prompt order,
// summing to 1.
func (s *Scorer) Score(ctx context.Context, image []byte, prompts []string) ([]float64, error) {
	if len(prompts) == 0 {
		return nil, fmt.Errorf("prompts must be non-empty")
	}
	for i, p := range prompts {
		if p == "" {
			return nil, fmt.Errorf("prompt %d is empty", i+1)
		}
	}

	imgVec, err := s.emb.EmbedImage(ctx, image)
	if err != nil {
		return nil, fmt.Errorf("image embedding: %w", err)
	}
	txtVecs, err := s.emb.EmbedTexts(ctx, prompts)
	if err != nil {
		return nil, fmt.Errorf("text embeddings: %w", err)
	}

	logits := make([]float64, len(prompts))
	for i, tv := range txtVecs {
		sim, err := cosine(imgVec, tv)
		if err != nil {
			return nil, fmt.Errorf("prompt %q: %w", prompts[i], err)
		}
		logits[i] = s.logitScale * sim
	}
	return softmax(logits), nil
}

func cosine(a, b []float64) (float64, error) {
	if len(a) != len(b) || len(a) == 0 {
		return 0, fmt.Errorf("dimension mismatch: %d vs %d", len(a), len(b))
	}
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0, fmt.Errorf("zero-norm embedding")
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb)), nil
}

// softmax is computed against the max logit for numerical stability.
func softmax(logits []float64) []float64 {
	maxL := logits[0]
	for _, l := range logits[1:] {
		if l > maxL {
			maxL = l
		}
	}
	out := make([]float64, len(logits))
	var sum float64
	for i, l := range logits {
		out[i] = math.Exp(l - maxL)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}

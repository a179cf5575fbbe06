package vision

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeEmbedder returns a fixed image vector and one text vector per prompt.
type fakeEmbedder struct {
	image []float64
	texts map[string][]float64
	err   error
}

func (e fakeEmbedder) EmbedImage(ctx context.Context, data []byte) ([]float64, error) {
	if e.err != nil {
		return nil, e.err
	}
	return e.image, nil
}

func (e fakeEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float64, error) {
	if e.err != nil {
		return nil, e.err
	}
	out := make([][]float64, len(texts))
	for i, txt := range texts {
		out[i] = e.texts[txt]
	}
	return out, nil
}

func TestScoreDistributionSumsToOne(t *testing.T) {
	emb := fakeEmbedder{
		image: []float64{1, 0, 0},
		texts: map[string][]float64{
			"leaves":  {0.9, 0.1, 0},
			"nature":  {0.5, 0.5, 0},
			"plastic": {0, 1, 0},
		},
	}
	s := NewScorer(emb, 100, nil)

	probs, err := s.Score(context.Background(), []byte("img"), []string{"leaves", "nature", "plastic"})
	require.NoError(t, err)
	require.Len(t, probs, 3)

	var sum float64
	for _, p := range probs {
		assert.GreaterOrEqual(t, p, 0.0)
		sum += p
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
}

func TestScoreRanksCloserPromptHigher(t *testing.T) {
	emb := fakeEmbedder{
		image: []float64{1, 0},
		texts: map[string][]float64{
			"leaves":  {1, 0.1}, // nearly parallel to the image vector
			"plastic": {0.1, 1}, // nearly orthogonal
		},
	}
	s := NewScorer(emb, 100, nil)

	probs, err := s.Score(context.Background(), []byte("img"), []string{"leaves", "plastic"})
	require.NoError(t, err)
	assert.Greater(t, probs[0], probs[1])
	assert.Greater(t, probs[0], 0.99) // temperature 100 is sharply peaked
}

func TestScoreOrderFollowsPromptOrder(t *testing.T) {
	emb := fakeEmbedder{
		image: []float64{0, 1},
		texts: map[string][]float64{
			"a": {0, 1},
			"b": {1, 0},
		},
	}
	s := NewScorer(emb, 100, nil)

	forward, err := s.Score(context.Background(), nil, []string{"a", "b"})
	require.NoError(t, err)
	reversed, err := s.Score(context.Background(), nil, []string{"b", "a"})
	require.NoError(t, err)

	assert.InDelta(t, forward[0], reversed[1], 1e-12)
	assert.InDelta(t, forward[1], reversed[0], 1e-12)
}

func TestScoreRejectsEmptyAndBlankPrompts(t *testing.T) {
	s := NewScorer(fakeEmbedder{}, 100, nil)

	_, err := s.Score(context.Background(), nil, nil)
	require.Error(t, err)

	_, err = s.Score(context.Background(), nil, []string{"leaves", ""})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "prompt 2")
}

func TestScoreSurfacesEmbedderFailure(t *testing.T) {
	s := NewScorer(fakeEmbedder{err: fmt.Errorf("connection refused")}, 100, nil)

	_, err := s.Score(context.Background(), nil, []string{"leaves"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "image embedding")
}

func TestScoreRejectsDimensionMismatch(t *testing.T) {
	emb := fakeEmbedder{
		image: []float64{1, 0, 0},
		texts: map[string][]float64{"leaves": {1, 0}},
	}
	s := NewScorer(emb, 100, nil)

	_, err := s.Score(context.Background(), nil, []string{"leaves"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dimension mismatch")
}

func TestSoftmaxStableForLargeLogits(t *testing.T) {
	probs := softmax([]float64{1000, 999, 0})
	var sum float64
	for _, p := range probs {
		sum += p
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
	assert.Greater(t, probs[0], probs[1])
}

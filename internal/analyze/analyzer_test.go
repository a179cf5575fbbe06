package analyze

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veridian-labs/docsift/internal/common"
)

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for x := 0; x < 4; x++ {
		for y := 0; y < 4; y++ {
			img.Set(x, y, color.RGBA{R: 200, G: 10, B: 10, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

type fakeRecognizer struct {
	frags  []string
	err    error
	called bool
}

func (r *fakeRecognizer) Recognize(ctx context.Context, data []byte, format string) ([]string, error) {
	r.called = true
	return r.frags, r.err
}

type fakeScorer struct {
	probs  []float64
	err    error
	called bool
}

func (s *fakeScorer) Score(ctx context.Context, image []byte, prompts []string) ([]float64, error) {
	s.called = true
	if s.err != nil {
		return nil, s.err
	}
	if s.probs != nil {
		return s.probs, nil
	}
	out := make([]float64, len(prompts))
	for i := range out {
		out[i] = 1.0 / float64(len(prompts))
	}
	return out, nil
}

func TestAnalyzeHappyPath(t *testing.T) {
	rec := &fakeRecognizer{frags: []string{"Total", "12.50"}}
	sc := &fakeScorer{probs: []float64{0.7, 0.3}}
	a := NewAnalyzer(rec, sc, nil)

	got, err := a.Analyze(context.Background(), pngBytes(t), "png", []string{"leaves", "plastic"})
	require.NoError(t, err)

	assert.Equal(t, []string{"Total", "12.50"}, got.Fragments)
	assert.Equal(t, "Total\n12.50", got.OCRText())
	require.Len(t, got.Scores, 2)
	assert.Equal(t, "leaves", got.Scores[0].Prompt)
	assert.InDelta(t, 0.7, got.Scores[0].Probability, 1e-12)
	assert.InDelta(t, 1.0, got.Scores.Sum(), 1e-9)
}

func TestAnalyzeRejectsUndecodableImage(t *testing.T) {
	a := NewAnalyzer(&fakeRecognizer{}, &fakeScorer{}, nil)

	_, err := a.Analyze(context.Background(), []byte("not an image"), "png", []string{"leaves"})
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrDecode)
}

func TestAnalyzeOCRFailureDoesNotSkipScoring(t *testing.T) {
	rec := &fakeRecognizer{err: common.NewAppError("OCR_UNAVAILABLE", "tesseract not invocable", common.ErrModelUnavailable)}
	sc := &fakeScorer{}
	a := NewAnalyzer(rec, sc, nil)

	_, err := a.Analyze(context.Background(), pngBytes(t), "png", []string{"leaves"})
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrModelUnavailable)
	assert.True(t, sc.called, "scoring must still be attempted when OCR fails")
}

func TestAnalyzeScoreFailureDoesNotSkipOCR(t *testing.T) {
	rec := &fakeRecognizer{frags: []string{"text"}}
	sc := &fakeScorer{err: fmt.Errorf("image embedding: %w", common.ErrModelUnavailable)}
	a := NewAnalyzer(rec, sc, nil)

	_, err := a.Analyze(context.Background(), pngBytes(t), "png", []string{"leaves"})
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrModelUnavailable)
	assert.True(t, rec.called)
}

func TestAnalyzeEmptyOCRIsNotAnError(t *testing.T) {
	a := NewAnalyzer(&fakeRecognizer{}, &fakeScorer{}, nil)

	got, err := a.Analyze(context.Background(), pngBytes(t), "png", []string{"leaves"})
	require.NoError(t, err)
	assert.Empty(t, got.Fragments)
	assert.Empty(t, got.OCRText())
}

func TestAnalyzeDetectsProbabilityCountMismatch(t *testing.T) {
	a := NewAnalyzer(&fakeRecognizer{}, &fakeScorer{probs: []float64{1.0}}, nil)

	_, err := a.Analyze(context.Background(), pngBytes(t), "png", []string{"leaves", "plastic"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "probabilities")
}

func TestPromptScoresMarshalPreservesOrder(t *testing.T) {
	scores := PromptScores{
		{Prompt: "leaves", Probability: 0.5},
		{Prompt: "nature", Probability: 0.25},
		{Prompt: "plastic", Probability: 0.25},
	}
	raw, err := json.Marshal(scores)
	require.NoError(t, err)
	assert.Equal(t, `{"leaves":0.5,"nature":0.25,"plastic":0.25}`, string(raw))

	// Round-trip through a map to confirm values survive.
	var m map[string]float64
	require.NoError(t, json.Unmarshal(raw, &m))
	assert.InDelta(t, 0.25, m["plastic"], 1e-12)
}

package analyze

import (
	"bytes"
	"encoding/json"
	"strings"
)

// PromptScore is one prompt's relevance probability for an image.
type PromptScore struct {
	Prompt      string
	Probability float64
}

// PromptScores is an ordered relevance distribution. Order matches the
// prompt set handed to the analyzer; a plain Go map would lose it.
type PromptScores []PromptScore

// Sum returns the total probability mass (1.0 within floating-point
// tolerance for any distribution produced by a scorer).
func (ps PromptScores) Sum() float64 {
	var s float64
	for _, p := range ps {
		s += p.Probability
	}
	return s
}

// MarshalJSON renders the distribution as a JSON object whose keys appear
// in prompt order.
func (ps PromptScores) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, p := range ps {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(p.Prompt)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(p.Probability)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// RasterAnalysis is the immutable outcome of analyzing one raster image.
type RasterAnalysis struct {
	Fragments []string     // OCR fragments in detection order
	Scores    PromptScores // relevance distribution over the prompt set
}

// OCRText joins the fragments into one block, preserving detection order.
func (a RasterAnalysis) OCRText() string {
	return strings.Join(a.Fragments, "\n")
}

package persist

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veridian-labs/docsift/internal/analyze"
	"github.com/veridian-labs/docsift/internal/extract"
)

func sampleResult() extract.DocumentResult {
	return extract.DocumentResult{
		DocumentID: "report.pdf",
		Pages: []extract.PageResult{
			{
				Index:      1,
				NativeText: "Quarterly report",
				Images: []extract.AnalyzedImage{
					{
						Image:    extract.EmbeddedImage{PageIndex: 1, LocalIndex: 1, Data: []byte("png-bytes"), Format: "png"},
						Analysis: analyze.RasterAnalysis{Fragments: []string{"Figure 1"}},
					},
				},
			},
			{
				Index:      2,
				NativeText: "Appendix",
				Images: []extract.AnalyzedImage{
					{
						Image:    extract.EmbeddedImage{PageIndex: 2, LocalIndex: 1, Data: []byte("jpeg-bytes"), Format: "jpeg"},
						Analysis: analyze.RasterAnalysis{Fragments: nil},
					},
				},
			},
		},
	}
}

func TestPersistWritesTextAndImages(t *testing.T) {
	dir := t.TempDir()
	textPath := filepath.Join(dir, "output_with_graphics.txt")
	imageDir := filepath.Join(dir, "extracted_images")

	result := sampleResult()
	manifest, err := NewWriter(nil).Persist(context.Background(), result, textPath, imageDir)
	require.NoError(t, err)

	text, err := os.ReadFile(textPath)
	require.NoError(t, err)
	assert.Equal(t, result.FullText(), string(text))

	require.Len(t, manifest.Images, 2)
	assert.Equal(t, filepath.Join(imageDir, "page1_img1.png"), manifest.Images[0].Path)
	assert.Equal(t, filepath.Join(imageDir, "page2_img1.jpeg"), manifest.Images[1].Path)

	img, err := os.ReadFile(manifest.Images[0].Path)
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(img))
	assert.Equal(t, int64(len("png-bytes")), manifest.Images[0].Size)
}

func TestPersistIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	textPath := filepath.Join(dir, "out.txt")
	imageDir := filepath.Join(dir, "imgs")
	w := NewWriter(nil)
	result := sampleResult()

	first, err := w.Persist(context.Background(), result, textPath, imageDir)
	require.NoError(t, err)
	second, err := w.Persist(context.Background(), result, textPath, imageDir)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	entries, err := os.ReadDir(imageDir)
	require.NoError(t, err)
	assert.Len(t, entries, 2) // overwrites, never accumulates
}

func TestPersistEmptyResultWritesEmptyText(t *testing.T) {
	dir := t.TempDir()
	textPath := filepath.Join(dir, "out.txt")

	manifest, err := NewWriter(nil).Persist(context.Background(), extract.DocumentResult{}, textPath, filepath.Join(dir, "imgs"))
	require.NoError(t, err)
	assert.Empty(t, manifest.Images)

	text, err := os.ReadFile(textPath)
	require.NoError(t, err)
	assert.Empty(t, text)
}

func TestPersistCreatesNestedTextDir(t *testing.T) {
	dir := t.TempDir()
	textPath := filepath.Join(dir, "nested", "deep", "out.txt")

	_, err := NewWriter(nil).Persist(context.Background(), sampleResult(), textPath, filepath.Join(dir, "imgs"))
	require.NoError(t, err)
	_, err = os.Stat(textPath)
	assert.NoError(t, err)
}

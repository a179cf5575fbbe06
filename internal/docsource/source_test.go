package docsource

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veridian-labs/docsift/internal/common"
)

func writePNG(t *testing.T, name string) (string, []byte) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return path, buf.Bytes()
}

func TestOpenMissingFile(t *testing.T) {
	o := NewOpener(nil)

	_, err := o.Open(filepath.Join(t.TempDir(), "nope.pdf"))
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrDocumentNotFound)
	assert.Contains(t, err.Error(), "does not exist")
}

func TestOpenUnsupportedExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("plain text"), 0o644))

	_, err := NewOpener(nil).Open(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrDocumentOpen)
}

func TestOpenCorruptPDF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.pdf")
	require.NoError(t, os.WriteFile(path, []byte("this is not a pdf"), 0o644))

	_, err := NewOpener(nil).Open(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrDocumentOpen)
}

func TestOpenImagePresentsOnePageDocument(t *testing.T) {
	path, data := writePNG(t, "scan.png")

	src, err := NewOpener(nil).Open(path)
	require.NoError(t, err)
	defer src.Close()

	assert.Equal(t, "scan.png", src.ID())
	assert.Equal(t, 1, src.PageCount())

	text, err := src.PageText(1)
	require.NoError(t, err)
	assert.Empty(t, text, "standalone images have no text layer")

	images, err := src.PageImages(1)
	require.NoError(t, err)
	require.Len(t, images, 1)
	assert.Equal(t, 1, images[0].PageIndex)
	assert.Equal(t, 1, images[0].LocalIndex)
	assert.Equal(t, "png", images[0].Format)
	assert.Equal(t, data, images[0].Data)
	assert.Equal(t, "page1_img1.png", images[0].Filename())
}

func TestImageSourceRejectsOutOfRangePages(t *testing.T) {
	path, _ := writePNG(t, "scan.png")

	src, err := NewOpener(nil).Open(path)
	require.NoError(t, err)
	defer src.Close()

	_, err = src.PageText(2)
	assert.Error(t, err)
	_, err = src.PageImages(0)
	assert.Error(t, err)
}

func TestOpenImageUppercaseExtension(t *testing.T) {
	path, _ := writePNG(t, "SCAN.PNG")

	src, err := NewOpener(nil).Open(path)
	require.NoError(t, err)
	defer src.Close()

	images, err := src.PageImages(1)
	require.NoError(t, err)
	require.Len(t, images, 1)
	assert.Equal(t, "png", images[0].Format)
}

package pdf

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
)

func writePNG(t *testing.T, dir, name string) string {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 40, 30))
	for x := 0; x < 40; x++ {
		for y := 0; y < 30; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 6), G: uint8(y * 8), B: 120, A: 255})
		}
	}

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return path
}

func TestMarotoGenerator_Generate(t *testing.T) {
	dir := t.TempDir()
	photos := []string{writePNG(t, dir, "001.png"), writePNG(t, dir, "002.png")}

	raw, err := NewMarotoGenerator().Generate(Book{
		Title:    "Summer",
		Subtitle: "Ada Lovelace",
		Photos:   photos,
	})

	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(raw, []byte("%PDF")))
}

func TestMarotoGenerator_NoPhotos(t *testing.T) {
	_, err := NewMarotoGenerator().Generate(Book{Title: "Empty"})
	assert.ErrorIs(t, err, ErrNoPhotos)
}

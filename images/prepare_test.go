package images

import (
	"bytes"
	"context"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestPrepareReencodesAsJPEG(t *testing.T) {
	out, err := Prepare(bytes.NewReader(pngBytes(t, 40, 20)), 1<<20)
	require.NoError(t, err)

	cfg, err := jpeg.DecodeConfig(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 40, cfg.Width)
	assert.Equal(t, 20, cfg.Height)
}

func TestPrepareDownscales(t *testing.T) {
	out, err := Prepare(bytes.NewReader(pngBytes(t, MaxDimension*2, MaxDimension)), 10<<20)
	require.NoError(t, err)

	cfg, err := jpeg.DecodeConfig(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, MaxDimension, cfg.Width)
	assert.Equal(t, MaxDimension/2, cfg.Height)
}

func TestPrepareRejectsNonImages(t *testing.T) {
	_, err := Prepare(strings.NewReader("definitely not a picture"), 1<<20)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestPrepareRejectsOversizedInput(t *testing.T) {
	data := pngBytes(t, 64, 64)
	_, err := Prepare(bytes.NewReader(data), int64(len(data)-1))
	assert.ErrorIs(t, err, ErrTooLarge)
}

// pngHeader returns a PNG signature and IHDR chunk declaring w x h RGBA
// pixels with no image data behind it.
func pngHeader(w, h uint32) []byte {
	ihdr := make([]byte, 13)
	binary.BigEndian.PutUint32(ihdr[0:4], w)
	binary.BigEndian.PutUint32(ihdr[4:8], h)
	ihdr[8] = 8 // bit depth
	ihdr[9] = 6 // truecolor with alpha

	chunk := append([]byte("IHDR"), ihdr...)
	var buf bytes.Buffer
	buf.WriteString("\x89PNG\r\n\x1a\n")
	_ = binary.Write(&buf, binary.BigEndian, uint32(len(ihdr)))
	buf.Write(chunk)
	_ = binary.Write(&buf, binary.BigEndian, crc32.ChecksumIEEE(chunk))
	return buf.Bytes()
}

func TestPrepareRejectsHugeDeclaredDimensions(t *testing.T) {
	data := pngHeader(40000, 40000)
	require.Less(t, len(data), 64)

	_, err := Prepare(bytes.NewReader(data), 1<<20)
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestDisabledProvider(t *testing.T) {
	var p Provider = Disabled{}
	_, err := p.Upload(context.Background(), "photo.jpg", strings.NewReader("x"))
	assert.ErrorIs(t, err, ErrDisabled)
	assert.ErrorIs(t, p.Delete(context.Background(), "ref"), ErrDisabled)
}

// File: internal/screen/preprocess_test.go
package screen

import (
	"bytes"
	"image"
	"image/jpeg"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhemmrich/deskpilot/api/schemas"
)

func shot(w, h int) schemas.Screenshot {
	return schemas.Screenshot{
		Image:      image.NewRGBA(image.Rect(0, 0, w, h)),
		Bounds:     image.Rect(0, 0, w, h),
		CapturedAt: time.Now(),
	}
}

func decodeDims(t *testing.T, data []byte) (int, int) {
	t.Helper()
	img, err := jpeg.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	b := img.Bounds()
	return b.Dx(), b.Dy()
}

func TestPreprocessSmallImageKeepsSize(t *testing.T) {
	encoded, err := Preprocess(shot(640, 480), 1280, 75)

	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", encoded.MIMEType)

	w, h := decodeDims(t, encoded.Data)
	assert.Equal(t, 640, w)
	assert.Equal(t, 480, h)
	assert.InDelta(t, 1.0, encoded.ScaleX, 1e-9)
	assert.InDelta(t, 1.0, encoded.ScaleY, 1e-9)
}

func TestPreprocessDownscalesLongestSide(t *testing.T) {
	encoded, err := Preprocess(shot(2560, 1440), 1280, 75)

	require.NoError(t, err)

	w, h := decodeDims(t, encoded.Data)
	assert.Equal(t, 1280, w)
	assert.Equal(t, 720, h)
	assert.InDelta(t, 2.0, encoded.ScaleX, 1e-9)
	assert.InDelta(t, 2.0, encoded.ScaleY, 1e-9)
}

func TestPreprocessPortraitOrientation(t *testing.T) {
	encoded, err := Preprocess(shot(1080, 2160), 1280, 75)

	require.NoError(t, err)

	w, h := decodeDims(t, encoded.Data)
	assert.Equal(t, 1280, h)
	assert.Equal(t, 640, w)
}

func TestPreprocessHiDPIScaleFactors(t *testing.T) {
	// A HiDPI capture: 2x pixel density over a 1280x800 logical area.
	s := schemas.Screenshot{
		Image:      image.NewRGBA(image.Rect(0, 0, 2560, 1600)),
		Bounds:     image.Rect(0, 0, 1280, 800),
		CapturedAt: time.Now(),
	}

	encoded, err := Preprocess(s, 1280, 75)
	require.NoError(t, err)

	w, h := decodeDims(t, encoded.Data)
	assert.Equal(t, 1280, w)
	assert.Equal(t, 800, h)
	// Image coordinates already match logical coordinates after the resize.
	assert.InDelta(t, 1.0, encoded.ScaleX, 1e-9)
	assert.InDelta(t, 1.0, encoded.ScaleY, 1e-9)
}

func TestPreprocessNilImage(t *testing.T) {
	_, err := Preprocess(schemas.Screenshot{}, 1280, 75)
	require.Error(t, err)
}

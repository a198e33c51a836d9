// File: internal/screen/preprocess.go
package screen

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"

	"golang.org/x/image/draw"

	"github.com/jhemmrich/deskpilot/api/schemas"
)

// Preprocess prepares a screenshot for submission to a remote model: the image
// is scaled so its longest side does not exceed maxDimension, then JPEG-encoded.
// The returned scale factors map encoded-image coordinates back to the logical
// screen area the capture covered, which also absorbs HiDPI pixel scaling.
func Preprocess(shot schemas.Screenshot, maxDimension, jpegQuality int) (schemas.EncodedImage, error) {
	if shot.Image == nil {
		return schemas.EncodedImage{}, fmt.Errorf("screenshot carries no image")
	}

	src := shot.Image
	srcBounds := src.Bounds()
	w, h := srcBounds.Dx(), srcBounds.Dy()
	if w == 0 || h == 0 {
		return schemas.EncodedImage{}, fmt.Errorf("screenshot has zero area (%dx%d)", w, h)
	}

	outW, outH := w, h
	if longest := max(w, h); longest > maxDimension {
		ratio := float64(maxDimension) / float64(longest)
		outW = int(float64(w) * ratio)
		outH = int(float64(h) * ratio)
		if outW < 1 {
			outW = 1
		}
		if outH < 1 {
			outH = 1
		}
	}

	out := src
	if outW != w || outH != h {
		dst := image.NewRGBA(image.Rect(0, 0, outW, outH))
		draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, srcBounds, draw.Src, nil)
		out = dst
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, out, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return schemas.EncodedImage{}, fmt.Errorf("jpeg encode failed: %w", err)
	}

	return schemas.EncodedImage{
		Data:     buf.Bytes(),
		MIMEType: "image/jpeg",
		ScaleX:   float64(shot.Bounds.Dx()) / float64(outW),
		ScaleY:   float64(shot.Bounds.Dy()) / float64(outH),
	}, nil
}

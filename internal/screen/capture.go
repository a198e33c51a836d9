// File: internal/screen/capture.go
package screen

import (
	"fmt"
	"time"

	"github.com/kbinani/screenshot"

	"github.com/jhemmrich/deskpilot/api/schemas"
	"github.com/jhemmrich/deskpilot/internal/config"
)

// Capturer produces point-in-time screenshots of the desktop. Capture is
// synchronous and side-effect-free.
type Capturer interface {
	Capture() (schemas.Screenshot, error)
}

// DisplayCapturer is the production Capturer over the OS screenshot facility.
type DisplayCapturer struct {
	display int
}

// NewDisplayCapturer validates the configured display index against the
// displays actually present.
func NewDisplayCapturer(cfg config.ScreenConfig) (*DisplayCapturer, error) {
	n := screenshot.NumActiveDisplays()
	if n == 0 {
		return nil, fmt.Errorf("no active displays detected")
	}
	if cfg.DisplayIndex < 0 || cfg.DisplayIndex >= n {
		return nil, fmt.Errorf("display index %d out of range (have %d displays)", cfg.DisplayIndex, n)
	}
	return &DisplayCapturer{display: cfg.DisplayIndex}, nil
}

// Capture grabs the configured display.
func (c *DisplayCapturer) Capture() (schemas.Screenshot, error) {
	bounds := screenshot.GetDisplayBounds(c.display)
	img, err := screenshot.CaptureRect(bounds)
	if err != nil {
		return schemas.Screenshot{}, fmt.Errorf("screen capture failed: %w", err)
	}
	return schemas.Screenshot{
		Image:      img,
		Bounds:     bounds,
		CapturedAt: time.Now().UTC(),
	}, nil
}

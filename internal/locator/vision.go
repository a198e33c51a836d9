// File: internal/locator/vision.go
package locator

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/jhemmrich/deskpilot/api/schemas"
	"github.com/jhemmrich/deskpilot/internal/llmutil"
)

const visionSystemPrompt = `You are a precise visual grounding service for a desktop automation agent.
You receive a screenshot of a desktop and a natural-language description of a single UI element.
Your job is to locate that element in the image.

Respond ONLY with a JSON object of this shape:
{
  "candidates": [
    {"x": <pixel x of the element center>, "y": <pixel y of the element center>, "confidence": <0.0-1.0>}
  ]
}

Rules:
- Coordinates are pixel positions within the provided image, with (0,0) at the top-left corner.
- Report the CENTER of the element, not its corner.
- List every plausible match, highest confidence first, up to 5 candidates.
- If the described element is not visible anywhere in the image, return {"candidates": []}.
- Never invent a location. An empty candidate list is always better than a guess.`

// visionResponse is the wire shape of the grounding model's answer.
type visionResponse struct {
	Candidates []struct {
		X          int     `json:"x"`
		Y          int     `json:"y"`
		Confidence float64 `json:"confidence"`
	} `json:"candidates"`
}

// VisionLocator produces location candidates for a target description on a
// screenshot. Implementations must never fabricate a candidate.
type VisionLocator interface {
	Candidates(ctx context.Context, target string, img schemas.EncodedImage) ([]schemas.Candidate, error)
}

// LLMVisionLocator grounds targets by asking a multimodal model.
type LLMVisionLocator struct {
	client schemas.LLMClient
	logger *zap.Logger
}

// NewLLMVisionLocator wraps the reasoning client as a grounding service.
func NewLLMVisionLocator(client schemas.LLMClient, logger *zap.Logger) *LLMVisionLocator {
	return &LLMVisionLocator{
		client: client,
		logger: logger.Named("vision"),
	}
}

// Candidates asks the model where the target is in the image. Coordinates in
// the returned candidates are in image space; the caller owns scaling.
func (v *LLMVisionLocator) Candidates(ctx context.Context, target string, img schemas.EncodedImage) ([]schemas.Candidate, error) {
	req := schemas.GenerationRequest{
		SystemPrompt: visionSystemPrompt,
		UserPrompt:   fmt.Sprintf("Locate this element in the screenshot: %s", target),
		Images:       []schemas.EncodedImage{img},
		Tier:         schemas.TierFast,
		Options: schemas.GenerationOptions{
			Temperature:     0.0,
			ForceJSONFormat: true,
		},
	}

	raw, err := v.client.Generate(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("vision grounding request failed: %w", err)
	}

	parsed, err := llmutil.ParseJSONResponse[visionResponse](raw)
	if err != nil {
		return nil, fmt.Errorf("unparseable vision grounding response: %w", err)
	}

	out := make([]schemas.Candidate, 0, len(parsed.Candidates))
	for _, c := range parsed.Candidates {
		out = append(out, schemas.Candidate{
			Point:      schemas.Point{X: c.X, Y: c.Y},
			Confidence: c.Confidence,
		})
	}

	v.logger.Debug("Vision grounding complete",
		zap.String("target", target),
		zap.Int("candidates", len(out)))
	return out, nil
}

// File: api/schemas/interfaces.go
package schemas

import "context"

// ModelTier selects the class of model a generation request is routed to.
type ModelTier string

const (
	// TierFast targets cheap, low-latency models (step judgments, localization).
	TierFast ModelTier = "fast"
	// TierPowerful targets the strongest configured model (planning).
	TierPowerful ModelTier = "powerful"
)

// GenerationOptions tunes a single generation request.
type GenerationOptions struct {
	Temperature     float32
	ForceJSONFormat bool
}

// GenerationRequest is the narrow contract every component uses to talk to the
// reasoning service. Images ride along as encoded inline parts so that prompts
// can reference the current screen state.
type GenerationRequest struct {
	SystemPrompt string
	UserPrompt   string
	Images       []EncodedImage
	Tier         ModelTier
	Options      GenerationOptions
}

// LLMClient is implemented by the AI integration layer. It is the only
// component that makes outbound calls to the reasoning/vision services.
type LLMClient interface {
	Generate(ctx context.Context, req GenerationRequest) (string, error)
}

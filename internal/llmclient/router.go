// File: internal/llmclient/router.go
package llmclient

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/jhemmrich/deskpilot/api/schemas"
)

// LLMRouter implements schemas.LLMClient and routes requests by tier. A shared
// rate limiter throttles all outbound reasoning calls regardless of tier.
type LLMRouter struct {
	logger  *zap.Logger
	clients map[schemas.ModelTier]schemas.LLMClient
	limiter *rate.Limiter
}

// NewLLMRouter creates a router with clients for each tier and a requests/min
// ceiling applied across both.
func NewLLMRouter(logger *zap.Logger, fastClient, powerfulClient schemas.LLMClient, requestsPerMinute int) (*LLMRouter, error) {
	if fastClient == nil || powerfulClient == nil {
		return nil, fmt.Errorf("both fast and powerful tier clients must be provided")
	}
	if requestsPerMinute < 1 {
		return nil, fmt.Errorf("requestsPerMinute must be at least 1, got %d", requestsPerMinute)
	}

	return &LLMRouter{
		logger: logger.Named("llm_router"),
		clients: map[schemas.ModelTier]schemas.LLMClient{
			schemas.TierFast:     fastClient,
			schemas.TierPowerful: powerfulClient,
		},
		limiter: rate.NewLimiter(rate.Limit(float64(requestsPerMinute)/60.0), 1),
	}, nil
}

// Generate selects the appropriate client based on the request's tier, after
// waiting for a rate-limit slot.
func (r *LLMRouter) Generate(ctx context.Context, req schemas.GenerationRequest) (string, error) {
	tier := req.Tier
	if tier == "" {
		tier = schemas.TierPowerful
	}

	client, ok := r.clients[tier]
	if !ok {
		return "", fmt.Errorf("no LLM client configured for tier: %s", tier)
	}

	if err := r.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter wait aborted: %w", err)
	}

	r.logger.Debug("Routing LLM request", zap.String("tier", string(tier)), zap.Int("images", len(req.Images)))
	return client.Generate(ctx, req)
}

// File: internal/llmclient/gemini_client_test.go
package llmclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jhemmrich/deskpilot/api/schemas"
	"github.com/jhemmrich/deskpilot/internal/config"
)

// -- Test Setup Helpers --

func validModelConfig() config.LLMModelConfig {
	return config.LLMModelConfig{
		Provider:   config.ProviderGemini,
		Model:      "gemini-2.0-flash",
		APIKey:     "test-api-key",
		APITimeout: 5 * time.Second,
		MaxTokens:  1024,
	}
}

// setupGeminiClient rigs up a GeminiClient pointed at a mock HTTP server.
func setupGeminiClient(t *testing.T, handler http.HandlerFunc) *GeminiClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := validModelConfig()
	cfg.Endpoint = server.URL

	client, err := NewGeminiClient(cfg, zap.NewNop())
	require.NoError(t, err)
	return client
}

func geminiSuccessBody(text string) string {
	return fmt.Sprintf(`{
		"candidates": [{"content": {"parts": [{"text": %q}], "role": "model"}, "finishReason": "STOP"}],
		"usageMetadata": {"promptTokenCount": 10, "candidatesTokenCount": 5, "totalTokenCount": 15}
	}`, text)
}

// -- Initialization --

func TestNewGeminiClientDefaultEndpoint(t *testing.T) {
	cfg := validModelConfig()
	cfg.Endpoint = ""

	client, err := NewGeminiClient(cfg, zap.NewNop())

	require.NoError(t, err)
	assert.Equal(t,
		"https://generativelanguage.googleapis.com/v1beta/models/gemini-2.0-flash:generateContent",
		client.endpoint)
	assert.Equal(t, cfg.APITimeout, client.httpClient.Timeout)
}

func TestNewGeminiClientRequiresAPIKey(t *testing.T) {
	cfg := validModelConfig()
	cfg.APIKey = ""

	client, err := NewGeminiClient(cfg, zap.NewNop())

	assert.Error(t, err)
	assert.Nil(t, client)
}

// -- Generation --

func TestGenerateSuccess(t *testing.T) {
	var gotAPIKey atomic.Value
	client := setupGeminiClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAPIKey.Store(r.Header.Get("x-goog-api-key"))
		w.WriteHeader(http.StatusOK)
		io.WriteString(w, geminiSuccessBody("generated text"))
	})

	result, err := client.Generate(context.Background(), schemas.GenerationRequest{
		SystemPrompt: "system",
		UserPrompt:   "user",
	})

	require.NoError(t, err)
	assert.Equal(t, "generated text", result)
	assert.Equal(t, "test-api-key", gotAPIKey.Load())
}

func TestGenerateRetriesTransientErrors(t *testing.T) {
	var calls atomic.Int32
	client := setupGeminiClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		io.WriteString(w, geminiSuccessBody("eventually"))
	})

	result, err := client.Generate(context.Background(), schemas.GenerationRequest{UserPrompt: "u"})

	require.NoError(t, err)
	assert.Equal(t, "eventually", result)
	assert.Equal(t, int32(3), calls.Load())
}

func TestGenerateDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	client := setupGeminiClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		io.WriteString(w, `{"error": "bad request"}`)
	})

	_, err := client.Generate(context.Background(), schemas.GenerationRequest{UserPrompt: "u"})

	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestGenerateEmptyCandidatesIsPermanent(t *testing.T) {
	var calls atomic.Int32
	client := setupGeminiClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusOK)
		io.WriteString(w, `{"candidates": []}`)
	})

	_, err := client.Generate(context.Background(), schemas.GenerationRequest{UserPrompt: "u"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no candidates")
	assert.Equal(t, int32(1), calls.Load())
}

func TestGenerateCancelledContext(t *testing.T) {
	client := setupGeminiClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Generate(ctx, schemas.GenerationRequest{UserPrompt: "u"})
	require.Error(t, err)
}

// -- Payload construction --

func TestBuildRequestPayloadWithImages(t *testing.T) {
	var captured geminiRequestPayload
	client := setupGeminiClient(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &captured))
		w.WriteHeader(http.StatusOK)
		io.WriteString(w, geminiSuccessBody("ok"))
	})

	_, err := client.Generate(context.Background(), schemas.GenerationRequest{
		SystemPrompt: "be precise",
		UserPrompt:   "where is the button",
		Images: []schemas.EncodedImage{
			{Data: []byte{0x01, 0x02}, MIMEType: "image/jpeg"},
		},
		Options: schemas.GenerationOptions{ForceJSONFormat: true},
	})
	require.NoError(t, err)

	require.NotNil(t, captured.SystemInstruction)
	assert.Equal(t, "be precise", captured.SystemInstruction.Parts[0].Text)

	require.Len(t, captured.Contents, 1)
	parts := captured.Contents[0].Parts
	require.Len(t, parts, 2)
	assert.Equal(t, "where is the button", parts[0].Text)
	require.NotNil(t, parts[1].InlineData)
	assert.Equal(t, "image/jpeg", parts[1].InlineData.MIMEType)
	assert.Equal(t, "AQI=", parts[1].InlineData.Data)

	assert.Equal(t, "application/json", captured.GenerationConfig.ResponseMimeType)
}

package llm

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

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	goopenai "github.com/meguminnnnnnnnn/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dream-planner-api/internal/config"
	wfmodel "dream-planner-api/internal/workflow/model"
	apperrors "dream-planner-api/pkg/errors"
)

const okCompletion = `{
  "id": "chatcmpl-1",
  "object": "chat.completion",
  "created": 1700000000,
  "model": "google/gemini-2.5-flash",
  "choices": [{
    "index": 0,
    "finish_reason": "tool_calls",
    "message": {
      "role": "assistant",
      "content": "",
      "tool_calls": [{
        "id": "call_1",
        "type": "function",
        "function": {
          "name": "create_action_steps",
          "arguments": "{\"steps\":[{\"title\":\"a\",\"description\":\"b\"}]}"
        }
      }]
    }
  }],
  "usage": {"prompt_tokens": 11, "completion_tokens": 22, "total_tokens": 33}
}`

func generateSteps(t *testing.T, f *GatewayFactory) (*schema.Message, error) {
	t.Helper()
	ctx := context.Background()
	cm, err := f.Get(ctx, "")
	if err != nil {
		return nil, err
	}
	info, err := wfmodel.ActionStepsToolInfo()
	require.NoError(t, err)
	bound, err := cm.WithTools([]*schema.ToolInfo{info})
	require.NoError(t, err)
	return bound.Generate(ctx,
		[]*schema.Message{schema.SystemMessage("sys"), schema.UserMessage("user")},
		model.WithToolChoice(schema.ToolChoiceForced),
	)
}

func TestGatewayFactory_SendsForcedToolCall(t *testing.T) {
	var got map[string]any
	var auth, path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		auth = r.Header.Get("Authorization")
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, okCompletion)
	}))
	defer srv.Close()

	cfg := &config.GatewayConfig{APIKey: "k-123", BaseURL: srv.URL + "/v1/", Model: "google/gemini-2.5-flash", Timeout: time.Second}
	msg, err := generateSteps(t, NewGatewayFactory(cfg))
	require.NoError(t, err)

	assert.Equal(t, "/v1/chat/completions", path)
	assert.Equal(t, "Bearer k-123", auth)
	assert.Equal(t, "google/gemini-2.5-flash", got["model"])

	tools, ok := got["tools"].([]any)
	require.True(t, ok)
	require.Len(t, tools, 1)
	fn := tools[0].(map[string]any)["function"].(map[string]any)
	assert.Equal(t, wfmodel.ActionStepsToolName, fn["name"])
	params := fn["parameters"].(map[string]any)
	steps := params["properties"].(map[string]any)["steps"].(map[string]any)
	assert.EqualValues(t, wfmodel.MinActionSteps, steps["minItems"])
	assert.EqualValues(t, wfmodel.MaxActionSteps, steps["maxItems"])

	switch choice := got["tool_choice"].(type) {
	case map[string]any:
		assert.Equal(t, wfmodel.ActionStepsToolName, choice["function"].(map[string]any)["name"])
	case string:
		assert.Equal(t, "required", choice)
	default:
		t.Fatalf("tool_choice not forced: %#v", got["tool_choice"])
	}

	require.Len(t, msg.ToolCalls, 1)
	assert.Equal(t, `{"steps":[{"title":"a","description":"b"}]}`, msg.ToolCalls[0].Function.Arguments)
	require.NotNil(t, msg.ResponseMeta)
	require.NotNil(t, msg.ResponseMeta.Usage)
	assert.Equal(t, 11, msg.ResponseMeta.Usage.PromptTokens)
	assert.Equal(t, 22, msg.ResponseMeta.Usage.CompletionTokens)
}

func TestGatewayFactory_MissingCredentialMakesNoCall(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	_, err := NewGatewayFactory(&config.GatewayConfig{APIKey: "  ", BaseURL: srv.URL}).Get(context.Background(), "")
	assert.ErrorIs(t, err, apperrors.ErrLLMNotConfigured)
	assert.Zero(t, hits.Load())

	_, err = NewGatewayFactory(nil).Get(context.Background(), "")
	assert.ErrorIs(t, err, apperrors.ErrLLMNotConfigured)
}

func TestGatewayFactory_ReadsCredentialAtCallTime(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, okCompletion)
	}))
	defer srv.Close()

	cfg := &config.GatewayConfig{BaseURL: srv.URL}
	f := NewGatewayFactory(cfg)
	_, err := generateSteps(t, f)
	assert.ErrorIs(t, err, apperrors.ErrLLMNotConfigured)

	cfg.APIKey = "rotated"
	_, err = generateSteps(t, f)
	assert.NoError(t, err)
}

func TestGatewayFactory_StatusMapping(t *testing.T) {
	cases := []struct {
		status int
		body   string
		code   apperrors.ErrorCode
	}{
		{http.StatusTooManyRequests, `{"error":{"message":"Rate limits exceeded","type":"rate_limit"}}`, apperrors.CodeLLMRateLimited},
		{http.StatusPaymentRequired, `{"error":{"message":"Payment required","type":"billing"}}`, apperrors.CodeLLMBillingExhausted},
		{http.StatusInternalServerError, `{"error":{"message":"boom","type":"server_error"}}`, apperrors.CodeLLMProviderError},
		{http.StatusBadGateway, `upstream unavailable`, apperrors.CodeLLMProviderError},
	}
	for _, tc := range cases {
		t.Run(fmt.Sprint(tc.status), func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = io.WriteString(w, tc.body)
			}))
			defer srv.Close()

			_, err := generateSteps(t, NewGatewayFactory(&config.GatewayConfig{APIKey: "k", BaseURL: srv.URL}))
			require.Error(t, err)
			assert.True(t, apperrors.HasCode(err, tc.code), "got %v", err)
			assert.NotContains(t, apperrors.AsAppError(err).Message, "boom")
		})
	}
}

func TestGatewayFactory_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := generateSteps(t, NewGatewayFactory(&config.GatewayConfig{APIKey: "k", BaseURL: url}))
	assert.True(t, apperrors.HasCode(err, apperrors.CodeLLMTransport), "got %v", err)
}

func TestGatewayFactory_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	cfg := &config.GatewayConfig{APIKey: "k", BaseURL: srv.URL, Timeout: 50 * time.Millisecond}
	_, err := generateSteps(t, NewGatewayFactory(cfg))
	assert.True(t, apperrors.HasCode(err, apperrors.CodeLLMTransport), "got %v", err)
}

func TestStatusCode(t *testing.T) {
	assert.Equal(t, 429, StatusCode(fmt.Errorf("wrapped: %w", &goopenai.APIError{HTTPStatusCode: 429})))
	assert.Equal(t, 402, StatusCode(fmt.Errorf("wrapped: %w", &goopenai.RequestError{HTTPStatusCode: 402})))
	assert.Zero(t, StatusCode(fmt.Errorf("dial tcp: refused")))
}

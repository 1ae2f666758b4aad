package llm_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/docugraph/docugraph/pkg/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAIStudioClientStampsHeadersPerRequest(t *testing.T) {
	var auths, dates []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auths = append(auths, r.Header.Get("Authorization"))
		dates = append(dates, r.Header.Get("x-bce-date"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"ok"},"finish_reason":"stop"}],"usage":{"prompt_tokens":1,"completion_tokens":1,"total_tokens":2}}`))
	}))
	defer srv.Close()

	client, err := llm.NewAIStudioClient("test-key", llm.Config{
		Model:   "ernie-3.5-8k",
		BaseURL: srv.URL,
	}, 5*time.Second)
	require.NoError(t, err)
	defer client.Close()

	ctx := context.Background()
	for range 2 {
		resp, err := client.Chat(ctx, []llm.Message{llm.NewUserMessage("hello")})
		require.NoError(t, err)
		assert.Equal(t, "ok", resp.Content)
	}

	require.Len(t, auths, 2)
	for _, a := range auths {
		assert.Equal(t, "token test-key", a)
	}
	for _, d := range dates {
		_, err := time.Parse("20060102T150405Z", d)
		assert.NoError(t, err, "x-bce-date %q should match the gateway layout", d)
	}
}

func TestNewAIStudioClientRequiresKey(t *testing.T) {
	_, err := llm.NewAIStudioClient("", llm.Config{}, time.Second)
	assert.ErrorIs(t, err, llm.ErrAPIKeyMissing)
}

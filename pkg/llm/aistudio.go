package llm

import (
	"net/http"
	"time"
)

// aiStudioDateFormat is the timestamp layout the AI Studio gateway expects
// in the x-bce-date header. The gateway rejects requests whose header drifts
// too far from its own clock, so the header must be generated per request,
// not per client.
const aiStudioDateFormat = "20060102T150405Z"

// aiStudioTransport rewrites outgoing requests for the AI Studio gateway:
// the Authorization header uses the "token" scheme rather than "Bearer",
// and a fresh x-bce-date header is stamped on every attempt. Retried
// requests therefore never reuse a stale timestamp.
type aiStudioTransport struct {
	apiKey string
	base   http.RoundTripper
	now    func() time.Time
}

func (t *aiStudioTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())
	clone.Header.Set("Authorization", "token "+t.apiKey)
	clone.Header.Set("x-bce-date", t.now().UTC().Format(aiStudioDateFormat))
	return t.base.RoundTrip(clone)
}

// NewAIStudioClient creates a chat client for the Baidu AI Studio chat
// completion gateway (the hosted ERNIE models). The wire contract is
// OpenAI-compatible; only the authentication headers differ.
func NewAIStudioClient(apiKey string, config Config, timeout time.Duration) (*OpenAIClient, error) {
	if apiKey == "" {
		return nil, ErrAPIKeyMissing
	}
	httpClient := &http.Client{
		Timeout: timeout,
		Transport: &aiStudioTransport{
			apiKey: apiKey,
			base:   http.DefaultTransport,
			now:    time.Now,
		},
	}
	return NewOpenAIClient(apiKey, config, httpClient)
}

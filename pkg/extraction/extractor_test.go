package extraction_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/docugraph/docugraph/pkg/cache"
	"github.com/docugraph/docugraph/pkg/extraction"
	"github.com/docugraph/docugraph/pkg/llm"
	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedClient replays a fixed sequence of responses/errors, repeating the
// last step once the script runs out.
type scriptedClient struct {
	script []func() (*llm.Response, error)
	calls  int
}

func (s *scriptedClient) Chat(ctx context.Context, messages []llm.Message) (*llm.Response, error) {
	i := s.calls
	if i >= len(s.script) {
		i = len(s.script) - 1
	}
	s.calls++
	return s.script[i]()
}

func (s *scriptedClient) Close() error { return nil }

func ok(content string) func() (*llm.Response, error) {
	return func() (*llm.Response, error) { return &llm.Response{Content: content}, nil }
}

func fail(err error) func() (*llm.Response, error) {
	return func() (*llm.Response, error) { return nil, err }
}

func httpErr(status int, msg string) error {
	return &openai.APIError{HTTPStatusCode: status, Message: msg}
}

const goodContent = `{"title":"Doc","entities":[{"id":"E1","type":"Person","text":"Bob","canonical":"Bob"}],"relations":[]}`

func newExtractor(client llm.Client, c cache.Cache) *extraction.Extractor {
	return extraction.New(client, "ernie-3.5-8k", extraction.Options{
		BaseDelay: time.Millisecond,
		Cache:     c,
	})
}

func TestExtractSuccess(t *testing.T) {
	client := &scriptedClient{script: []func() (*llm.Response, error){ok(goodContent)}}
	result, err := newExtractor(client, nil).Extract(context.Background(), "some text")
	require.NoError(t, err)
	require.Len(t, result.Entities, 1)
	assert.Equal(t, "Bob", result.Entities[0].Canonical)
	assert.Equal(t, 1, client.calls)
}

func TestExtractDegradesToEmptyOnGarbage(t *testing.T) {
	client := &scriptedClient{script: []func() (*llm.Response, error){ok("no structured output at all")}}
	result, err := newExtractor(client, nil).Extract(context.Background(), "some text")
	require.NoError(t, err)
	assert.Empty(t, result.Entities)
	assert.Empty(t, result.Relations)
}

func TestExtractRetriesTransientThenSucceeds(t *testing.T) {
	client := &scriptedClient{script: []func() (*llm.Response, error){
		fail(httpErr(503, "upstream busy")),
		fail(errors.New("connection reset")),
		ok(goodContent),
	}}
	result, err := newExtractor(client, nil).Extract(context.Background(), "some text")
	require.NoError(t, err)
	assert.Len(t, result.Entities, 1)
	assert.Equal(t, 3, client.calls)
}

func TestExtractRetriesStaleDateSignal(t *testing.T) {
	// 401 from the gateway means a stale x-bce-date signature; the next
	// attempt goes out with a freshly stamped header.
	client := &scriptedClient{script: []func() (*llm.Response, error){
		fail(httpErr(401, "signature expired")),
		ok(goodContent),
	}}
	result, err := newExtractor(client, nil).Extract(context.Background(), "some text")
	require.NoError(t, err)
	assert.Len(t, result.Entities, 1)
	assert.Equal(t, 2, client.calls)
}

func TestExtractFailsFastOnNonRetryableStatus(t *testing.T) {
	client := &scriptedClient{script: []func() (*llm.Response, error){
		fail(httpErr(400, "bad request")),
	}}
	_, err := newExtractor(client, nil).Extract(context.Background(), "some text")
	var exErr *extraction.ExtractionError
	require.ErrorAs(t, err, &exErr)
	assert.Equal(t, 400, exErr.StatusCode)
	assert.Equal(t, "bad request", exErr.Body)
	assert.Equal(t, 1, client.calls)
}

func TestExtractExhaustsRetries(t *testing.T) {
	client := &scriptedClient{script: []func() (*llm.Response, error){
		fail(errors.New("dial tcp: connection refused")),
	}}
	_, err := newExtractor(client, nil).Extract(context.Background(), "some text")
	var exErr *extraction.ExtractionError
	require.ErrorAs(t, err, &exErr)
	assert.Equal(t, extraction.DefaultMaxRetries+1, exErr.Attempts)
	assert.Equal(t, extraction.DefaultMaxRetries+1, client.calls)
}

func TestExtractServesFromCache(t *testing.T) {
	c, err := cache.NewBadgerCache("")
	require.NoError(t, err)
	defer c.Close()

	client := &scriptedClient{script: []func() (*llm.Response, error){ok(goodContent)}}
	ex := newExtractor(client, c)

	first, err := ex.Extract(context.Background(), "cached text")
	require.NoError(t, err)
	second, err := ex.Extract(context.Background(), "cached text")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, client.calls, "second call must be served from cache")
}

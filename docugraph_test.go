package docugraph

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docugraph/docugraph/pkg/driver"
	"github.com/docugraph/docugraph/pkg/extraction"
	"github.com/docugraph/docugraph/pkg/llm"
)

// scriptedLLM replays canned chat responses in call order.
type scriptedLLM struct {
	mu        sync.Mutex
	responses []func() (*llm.Response, error)
	calls     int
}

func (s *scriptedLLM) Chat(ctx context.Context, messages []llm.Message) (*llm.Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.calls >= len(s.responses) {
		return nil, errors.New("scripted llm: no response left")
	}
	next := s.responses[s.calls]
	s.calls++
	return next()
}

func (s *scriptedLLM) Close() error { return nil }

func ok(content string) func() (*llm.Response, error) {
	return func() (*llm.Response, error) {
		return &llm.Response{Content: content}, nil
	}
}

func fail(err error) func() (*llm.Response, error) {
	return func() (*llm.Response, error) { return nil, err }
}

const chunkOneResponse = `{
	"title": "Acme Deal",
	"entities": [{"id": "E1", "type": "Person", "text": "Bob", "canonical": "Bob"}],
	"relations": []
}`

const chunkTwoResponse = `{
	"entities": [
		{"id": "E1", "type": "Person", "text": "bob", "canonical": "bob"},
		{"id": "E2", "type": "Organization", "text": "Acme Corp", "canonical": "Acme Corp"}
	],
	"relations": [
		{"from": "E1", "to": "E2", "type": "SOLD_TO", "confidence": 0.9, "evidence_span": "bob sold the firm to Acme Corp"}
	]
}`

// twoChunkText splits into exactly two chunks at maxLen 60.
const twoChunkText = "Bob founded a small research firm in Boulder in 2015. " +
	"In 2019 bob sold the firm to Acme Corp for ten million."

func newTestPipeline(t *testing.T, stub *scriptedLLM, drv driver.GraphDriver, opts Options) *Pipeline {
	t.Helper()
	ex := extraction.New(stub, "test-model", extraction.Options{
		MaxRetries: 1,
		BaseDelay:  time.Millisecond,
	})
	if opts.ChunkSize == 0 {
		opts.ChunkSize = 60
	}
	return New(drv, ex, opts)
}

func TestProcessDocumentEndToEnd(t *testing.T) {
	stub := &scriptedLLM{responses: []func() (*llm.Response, error){
		ok(chunkOneResponse),
		ok(chunkTwoResponse),
	}}
	drv := driver.NewMemoryDriver("")
	p := newTestPipeline(t, stub, drv, Options{})

	result, err := p.ProcessDocument(context.Background(), twoChunkText)
	require.NoError(t, err)

	assert.NotEmpty(t, result.RunID)
	assert.Equal(t, "Acme Deal", result.Title)
	assert.Equal(t, "AcmeDeal", result.Namespace)
	assert.Equal(t, 2, result.EntityCount)
	assert.Equal(t, 1, result.RelationCount)
	assert.Equal(t, 2, result.ChunksTotal)
	assert.Equal(t, 0, result.ChunksFailed)

	view, err := p.GetGraph(context.Background(), "AcmeDeal")
	require.NoError(t, err)
	require.Len(t, view.Nodes, 2)
	require.Len(t, view.Links, 1)
	assert.Equal(t, "Bob", view.Links[0].Source)
	assert.Equal(t, "Acme Corp", view.Links[0].Target)
	assert.Equal(t, "SOLD_TO", view.Links[0].Label)
}

func TestProcessDocumentUniquifiesNamespace(t *testing.T) {
	stub := &scriptedLLM{responses: []func() (*llm.Response, error){
		ok(chunkOneResponse),
		ok(chunkTwoResponse),
		ok(chunkOneResponse),
		ok(chunkTwoResponse),
	}}
	drv := driver.NewMemoryDriver("")
	p := newTestPipeline(t, stub, drv, Options{})

	first, err := p.ProcessDocument(context.Background(), twoChunkText)
	require.NoError(t, err)
	second, err := p.ProcessDocument(context.Background(), twoChunkText)
	require.NoError(t, err)

	assert.Equal(t, "AcmeDeal", first.Namespace)
	assert.Equal(t, "AcmeDeal-2", second.Namespace)

	names, err := p.ListGraphs(context.Background())
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"AcmeDeal", "AcmeDeal-2"}, names)
}

func TestProcessDocumentEmptyText(t *testing.T) {
	stub := &scriptedLLM{}
	drv := driver.NewMemoryDriver("")
	p := newTestPipeline(t, stub, drv, Options{})

	result, err := p.ProcessDocument(context.Background(), "")
	require.NoError(t, err)

	assert.Equal(t, "graph", result.Title)
	assert.Equal(t, "Graph", result.Namespace)
	assert.Equal(t, 0, result.EntityCount)
	assert.Equal(t, 0, result.ChunksTotal)
	assert.Equal(t, 0, stub.calls)
}

func TestProcessDocumentChunkFailureFailsRun(t *testing.T) {
	stub := &scriptedLLM{responses: []func() (*llm.Response, error){
		ok(chunkOneResponse),
		fail(errors.New("connection refused")),
		fail(errors.New("connection refused")), // one retry
	}}
	drv := driver.NewMemoryDriver("")
	p := newTestPipeline(t, stub, drv, Options{})

	_, err := p.ProcessDocument(context.Background(), twoChunkText)
	require.Error(t, err)

	var stageErr *StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, "extract", stageErr.Stage)
	assert.Equal(t, 1, stageErr.ChunksOK)

	// Nothing was provisioned for the failed run.
	names, listErr := p.ListGraphs(context.Background())
	require.NoError(t, listErr)
	assert.Empty(t, names)
}

func TestProcessDocumentToleratedChunkFailure(t *testing.T) {
	stub := &scriptedLLM{responses: []func() (*llm.Response, error){
		ok(chunkOneResponse),
		fail(errors.New("connection refused")),
		fail(errors.New("connection refused")),
	}}
	drv := driver.NewMemoryDriver("")
	p := newTestPipeline(t, stub, drv, Options{MaxFailedChunkRatio: 0.5})

	result, err := p.ProcessDocument(context.Background(), twoChunkText)
	require.NoError(t, err)

	assert.Equal(t, 1, result.ChunksFailed)
	assert.Equal(t, "Acme Deal", result.Title)
	assert.Equal(t, 1, result.EntityCount) // only chunk one survived
	assert.Equal(t, 0, result.RelationCount)
}

// provisionFailingDriver rejects namespace provisioning but otherwise
// behaves like its wrapped driver.
type provisionFailingDriver struct {
	driver.GraphDriver
}

func (d *provisionFailingDriver) Provision(ctx context.Context, namespace string) error {
	return errors.New("provision denied")
}

func TestProcessDocumentFallsBackToDefaultNamespace(t *testing.T) {
	stub := &scriptedLLM{responses: []func() (*llm.Response, error){
		ok(chunkOneResponse),
		ok(chunkTwoResponse),
	}}
	mem := driver.NewMemoryDriver("")
	p := newTestPipeline(t, stub, &provisionFailingDriver{GraphDriver: mem}, Options{})

	result, err := p.ProcessDocument(context.Background(), twoChunkText)
	require.NoError(t, err)

	assert.Equal(t, "neo4j", result.Namespace)
	entities, relations := mem.Stats("neo4j")
	assert.Equal(t, 2, entities)
	assert.Equal(t, 1, relations)
}

func TestProcessDocumentWithWorkers(t *testing.T) {
	stub := &scriptedLLM{responses: []func() (*llm.Response, error){
		ok(chunkOneResponse),
		ok(chunkTwoResponse),
	}}
	drv := driver.NewMemoryDriver("")
	p := newTestPipeline(t, stub, drv, Options{Workers: 4})

	result, err := p.ProcessDocument(context.Background(), twoChunkText)
	require.NoError(t, err)
	assert.Equal(t, 2, result.ChunksTotal)
	assert.Equal(t, 2, result.EntityCount)
	assert.Equal(t, 1, result.RelationCount)
}

func TestReset(t *testing.T) {
	stub := &scriptedLLM{responses: []func() (*llm.Response, error){
		ok(chunkOneResponse),
		ok(chunkTwoResponse),
	}}
	mem := driver.NewMemoryDriver("")
	p := newTestPipeline(t, stub, &provisionFailingDriver{GraphDriver: mem}, Options{})

	_, err := p.ProcessDocument(context.Background(), twoChunkText)
	require.NoError(t, err)

	require.NoError(t, p.Reset(context.Background()))
	entities, relations := mem.Stats("neo4j")
	assert.Equal(t, 0, entities)
	assert.Equal(t, 0, relations)
}

package docugraph

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/docugraph/docugraph"
	"github.com/docugraph/docugraph/pkg/cache"
	"github.com/docugraph/docugraph/pkg/config"
	"github.com/docugraph/docugraph/pkg/driver"
	"github.com/docugraph/docugraph/pkg/extraction"
	"github.com/docugraph/docugraph/pkg/llm"
	"github.com/docugraph/docugraph/pkg/logger"
	"github.com/docugraph/docugraph/pkg/textract"
)

func newLogger(cfg *config.Config) *slog.Logger {
	return logger.NewDefault(logger.ParseLevel(cfg.Log.Level))
}

func newDriver(cfg *config.Config) (driver.GraphDriver, error) {
	switch cfg.Database.Driver {
	case "memory":
		return driver.NewMemoryDriver(cfg.Database.Database), nil
	case "neo4j", "":
		return driver.NewNeo4jDriver(cfg.Database.URI, cfg.Database.Username, cfg.Database.Password, cfg.Database.Database)
	default:
		return nil, fmt.Errorf("unknown database driver: %s", cfg.Database.Driver)
	}
}

func newLLMClient(cfg *config.Config) (llm.Client, error) {
	clientConfig := llm.Config{
		Model:       cfg.LLM.Model,
		Temperature: &cfg.LLM.Temperature,
		BaseURL:     cfg.LLM.BaseURL,
	}

	switch cfg.LLM.Provider {
	case "openai":
		return llm.NewOpenAIClient(cfg.LLM.APIKey, clientConfig, &http.Client{Timeout: cfg.LLM.Timeout})
	case "aistudio", "":
		return llm.NewAIStudioClient(cfg.LLM.APIKey, clientConfig, cfg.LLM.Timeout)
	default:
		return nil, fmt.Errorf("unknown llm provider: %s", cfg.LLM.Provider)
	}
}

// newPipeline assembles the document pipeline from configuration. The
// returned cleanup function closes the extraction cache; the pipeline's own
// Close releases the graph driver.
func newPipeline(cfg *config.Config, log *slog.Logger) (*docugraph.Pipeline, func(), error) {
	drv, err := newDriver(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize graph driver: %w", err)
	}

	client, err := newLLMClient(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize llm client: %w", err)
	}

	var resultCache cache.Cache
	if cfg.Cache.Enabled {
		badgerCache, err := cache.NewBadgerCache(cfg.Cache.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open extraction cache: %w", err)
		}
		resultCache = badgerCache
	}

	extractor := extraction.New(client, cfg.LLM.Model, extraction.Options{
		MaxRetries: cfg.Pipeline.MaxRetries,
		BaseDelay:  cfg.Pipeline.BaseDelay,
		Cache:      resultCache,
		CacheTTL:   cfg.Cache.TTL,
		Logger:     log,
	})

	pipeline := docugraph.New(drv, extractor, docugraph.Options{
		ChunkSize:           cfg.Pipeline.ChunkSize,
		TokenLimit:          cfg.Pipeline.TokenLimit,
		SafetyMargin:        cfg.Pipeline.SafetyMargin,
		Workers:             cfg.Pipeline.Workers,
		MaxFailedChunkRatio: cfg.Pipeline.MaxFailedChunkRatio,
		Logger:              log,
	})

	cleanup := func() {
		if resultCache != nil {
			resultCache.Close()
		}
		client.Close()
	}
	return pipeline, cleanup, nil
}

func newTextExtractor(cfg *config.Config) textract.TextExtractor {
	if cfg.OCR.BaseURL == "" {
		return textract.New(nil)
	}
	ocr := textract.NewOCRClient(cfg.OCR.BaseURL, cfg.OCR.APIKey, cfg.OCR.Timeout)
	return textract.New(ocr)
}

package logger_test

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/docugraph/docugraph/pkg/logger"
	"github.com/stretchr/testify/assert"
)

func TestColorHandlerLevels(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(&buf, slog.LevelInfo)

	log.Debug("hidden")
	log.Info("plain message", "key", "value")
	log.Warn("something odd")
	log.Error("something broke")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "plain message key=value")
	assert.Contains(t, out, "\033[33msomething odd\033[0m")
	assert.Contains(t, out, "\033[31msomething broke\033[0m")
}

func TestColorHandlerHighlightsIngestion(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(&buf, slog.LevelInfo)
	log.Info("ingested entities and relations", "namespace", "DocA")
	assert.Contains(t, buf.String(), "\033[32m")
}

func TestColorHandlerWithAttrs(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(&buf, slog.LevelInfo).With("component", "pipeline")
	log.Info("starting")
	line := buf.String()
	assert.Contains(t, line, "component=pipeline")
	assert.True(t, strings.HasSuffix(line, "\n"))
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, logger.ParseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, logger.ParseLevel("WARN"))
	assert.Equal(t, slog.LevelError, logger.ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, logger.ParseLevel("anything"))
}

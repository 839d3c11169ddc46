package tracing

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewProvider_DisabledIsNoop(t *testing.T) {
	p, err := NewProvider(DefaultConfig())
	require.NoError(t, err)
	require.False(t, p.Enabled())
	require.NotNil(t, p.Tracer())

	_, span := p.Tracer().Start(context.Background(), "ignored")
	require.False(t, span.SpanContext().IsValid())
	span.End()

	require.NoError(t, p.Shutdown(context.Background()))
}

func TestNewProvider_FileExporter(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Enabled = true
	cfg.FilePath = filepath.Join(t.TempDir(), "traces.jsonl")

	p, err := NewProvider(cfg)
	require.NoError(t, err)
	require.True(t, p.Enabled())

	_, span := p.Tracer().Start(context.Background(), SpanPrefixInvoke+"echo")
	require.True(t, span.SpanContext().IsValid())
	span.End()

	require.NoError(t, p.Shutdown(context.Background()))
	require.Equal(t, 1, countLines(t, cfg.FilePath))
}

func TestNewProvider_FileExporterNeedsPath(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Enabled = true

	_, err := NewProvider(cfg)
	require.ErrorContains(t, err, "file_path required")
}

func TestNewProvider_NoneExporter(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Enabled = true
	cfg.Exporter = "none"
	cfg.SampleRate = 0

	p, err := NewProvider(cfg)
	require.NoError(t, err)
	require.True(t, p.Enabled())
	require.NoError(t, p.Shutdown(context.Background()))
}

func TestNewProvider_UnknownExporter(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Enabled = true
	cfg.Exporter = "carrier-pigeon"

	_, err := NewProvider(cfg)
	require.ErrorContains(t, err, "unsupported exporter type")
}

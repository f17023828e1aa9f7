package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger(t *testing.T) {
	assert.NotNil(t, Logger())
}

func TestWithRequestID(t *testing.T) {
	t.Parallel()

	ctx := WithRequestID(context.Background(), "test-request-123")
	assert.Equal(t, "test-request-123", ctx.Value(requestIDKey))
}

func TestWithRegion(t *testing.T) {
	t.Parallel()

	ctx := WithRegion(context.Background(), "toronto")
	assert.Equal(t, "toronto", ctx.Value(regionKey))
}

func TestNew_ProductionWritesJSON(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	l := New("production", &buf)
	l.Info("snapshot served", "region", "ottawa")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "snapshot served", entry["msg"])
	assert.Equal(t, "ottawa", entry["region"])
}

func TestNew_DevelopmentWritesText(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	l := New("development", &buf)
	l.Debug("debug enabled")

	assert.Contains(t, buf.String(), "msg=\"debug enabled\"")
	assert.Contains(t, buf.String(), "level=DEBUG")
}

func TestFromContext(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		setupCtx func() context.Context
	}{
		{"empty context", context.Background},
		{"with request ID", func() context.Context {
			return WithRequestID(context.Background(), "req-123")
		}},
		{"with chi request ID", func() context.Context {
			return context.WithValue(context.Background(), middleware.RequestIDKey, "chi-req")
		}},
		{"with region", func() context.Context {
			return WithRegion(WithRequestID(context.Background(), "req-123"), "calgary")
		}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.NotNil(t, FromContext(tt.setupCtx()))
		})
	}
}

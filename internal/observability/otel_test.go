package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOTLPHeaders(t *testing.T) {
	assert.Nil(t, parseOTLPHeaders(""))

	got := parseOTLPHeaders("Authorization=Basic%20abc123, X-Scope-OrgID=tenant=1,broken")
	assert.Equal(t, map[string]string{
		"Authorization": "Basic abc123",
		"X-Scope-OrgID": "tenant=1",
	}, got)
}

func TestInit_Disabled(t *testing.T) {
	var buf bytes.Buffer
	providers, err := Init(context.Background(), Config{
		Enabled: false,
		Level:   slog.LevelInfo,
		Format:  "json",
		Output:  &buf,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, providers.Shutdown(context.Background()))
	})

	providers.Logger.Info("hello", "component", "test")
	providers.Logger.Debug("hidden")

	var record map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &record))
	assert.Equal(t, "hello", record["msg"])
	assert.Equal(t, "test", record["component"])
}

func TestNewLocalLogger_Text(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLocalLogger(Config{Level: slog.LevelWarn, Output: &buf})

	logger.Info("skipped")
	logger.Warn("kept", "key", "value")

	assert.NotContains(t, buf.String(), "skipped")
	assert.Contains(t, buf.String(), "msg=kept")
	assert.Contains(t, buf.String(), "key=value")
}

func TestConfig_ServiceNameDefault(t *testing.T) {
	assert.Equal(t, DefaultServiceName, Config{}.serviceName())
	assert.Equal(t, "custom", Config{ServiceName: "custom"}.serviceName())
}

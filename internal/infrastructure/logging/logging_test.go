package logging_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/mediator-go/internal/infrastructure/config"
	"github.com/andrescamacho/mediator-go/internal/infrastructure/logging"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestSanitizingHandler_RedactsSensitiveKeys(t *testing.T) {
	// Arrange
	var buf bytes.Buffer
	logger := slog.New(logging.WrapHandler(slog.NewJSONHandler(&buf, nil)))

	// Act
	logger.Info("login", "user", "ada", "api_token", "abc123", "Password", "hunter2")

	// Assert
	entry := decodeLine(t, &buf)
	assert.Equal(t, "ada", entry["user"])
	assert.Equal(t, "[REDACTED]", entry["api_token"])
	assert.Equal(t, "[REDACTED]", entry["Password"])
}

func TestSanitizingHandler_RedactsInsideGroups(t *testing.T) {
	// Arrange
	var buf bytes.Buffer
	logger := slog.New(logging.WrapHandler(slog.NewJSONHandler(&buf, nil)))

	// Act
	logger.Info("request",
		slog.Group("payload",
			slog.Int64("customer_id", 7),
			slog.Group("credentials", slog.String("client_secret", "s3cr3t"), slog.String("region", "eu"))))

	// Assert
	entry := decodeLine(t, &buf)
	payload := entry["payload"].(map[string]any)
	assert.Equal(t, float64(7), payload["customer_id"])
	credentials := payload["credentials"].(map[string]any)
	assert.Equal(t, "[REDACTED]", credentials["client_secret"])
	assert.Equal(t, "eu", credentials["region"])
}

func TestSanitizingHandler_RedactsPreboundAttrs(t *testing.T) {
	// Arrange
	var buf bytes.Buffer
	logger := slog.New(logging.WrapHandler(slog.NewJSONHandler(&buf, nil))).
		With("authorization", "Bearer xyz").
		WithGroup("req")

	// Act
	logger.Info("call", "session_token", "t")

	// Assert
	entry := decodeLine(t, &buf)
	assert.Equal(t, "[REDACTED]", entry["authorization"])
	assert.Equal(t, "[REDACTED]", entry["req"].(map[string]any)["session_token"])
}

func TestWrapHandler_Nil(t *testing.T) {
	assert.Nil(t, logging.WrapHandler(nil))
}

func TestNewHandler_RespectsLevelAndFormat(t *testing.T) {
	// Arrange
	var buf bytes.Buffer
	handler, err := logging.NewHandler(&buf, config.LoggingConfig{Level: "warn", Format: "text"})
	require.NoError(t, err)
	logger := slog.New(handler)

	// Act
	logger.Info("hidden")
	logger.Warn("shown", "k", "v")

	// Assert
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "msg=shown")
	assert.Contains(t, buf.String(), "k=v")
}

func TestNewHandler_RejectsUnknownFormat(t *testing.T) {
	_, err := logging.NewHandler(&bytes.Buffer{}, config.LoggingConfig{Format: "xml"})
	assert.Error(t, err)
}

func TestNew_WritesToFile(t *testing.T) {
	// Arrange
	path := filepath.Join(t.TempDir(), "mediator.log")
	cfg := config.LoggingConfig{Level: "info", Format: "json", Output: "file", FilePath: path, Sanitize: true}

	// Act
	logger, closer, err := logging.New(cfg)
	require.NoError(t, err)
	logger.Info("persisted", "db_password", "pw")
	require.NoError(t, closer.Close())

	// Assert
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"persisted"`)
	assert.Contains(t, string(data), `"db_password":"[REDACTED]"`)
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"bogus", slog.LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, logging.ParseLevel(tt.in))
		})
	}
}

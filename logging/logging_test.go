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

	"github.com/tranvictor/ensprefs/logging"
)

func restoreDefault(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })
}

func TestJSONKeysAreRenamed(t *testing.T) {
	restoreDefault(t)
	var buf bytes.Buffer
	logger, closer, err := logging.Setup(logging.Options{Service: "ensprefs", Level: "info", Format: "json", Output: &buf})
	require.NoError(t, err)
	defer closer.Close()

	logger.Info("resolved", "address", "0xabc")
	logger.Debug("hidden")

	var line map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line))
	assert.Equal(t, "resolved", line["message"])
	assert.Equal(t, "INFO", line["severity"])
	assert.Equal(t, "ensprefs", line["service"])
	assert.Equal(t, "0xabc", line["address"])
	assert.Contains(t, line, "timestamp")
}

func TestFileSink(t *testing.T) {
	restoreDefault(t)
	path := filepath.Join(t.TempDir(), "ensprefs.log")
	logger, closer, err := logging.Setup(logging.Options{Level: "debug", File: path, MaxSizeMB: 1})
	require.NoError(t, err)
	logger.Debug("to file")
	require.NoError(t, closer.Close())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "to file")
}

func TestBadOptions(t *testing.T) {
	_, _, err := logging.Setup(logging.Options{Level: "loud"})
	require.Error(t, err)
	_, _, err = logging.Setup(logging.Options{Format: "xml"})
	require.Error(t, err)
}

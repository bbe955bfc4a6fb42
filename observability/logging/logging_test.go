package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSetupRenamesKeys(t *testing.T) {
	var buf bytes.Buffer
	logger := setup(&buf, "contractd", "test")
	logger.Info("deployed", "contract", "yutaka")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	require.Equal(t, "deployed", line["message"])
	require.Equal(t, "INFO", line["severity"])
	require.Equal(t, "contractd", line["service"])
	require.Equal(t, "test", line["env"])
	require.Equal(t, "yutaka", line["contract"])
	require.Contains(t, line, "timestamp")
}

func TestSetupWithFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "contractd.log")
	logger := SetupWithFile("contractd", "", path)
	logger.Warn("paused")

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(raw), `"severity":"WARN"`)
	require.NotContains(t, string(raw), `"env"`)
}

func TestMaskField(t *testing.T) {
	require.Equal(t, RedactedValue, MaskField("sender", "alice").Value.String())
	require.Equal(t, "yutaka", MaskField("contract", "yutaka").Value.String())
	require.Equal(t, " ", MaskField("sender", " ").Value.String())
	require.True(t, IsAllowlisted(" Method "))
	require.Contains(t, RedactionAllowlist(), "xpod_id")
}

package lgr

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/mdobak/go-xerrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONLoggerExpandsErrors(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, false)

	logger.Error("filter failed", "error", xerrors.New("model exploded"))

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "filter failed", entry["msg"])

	errAttr, ok := entry["error"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "model exploded", errAttr["msg"])
	assert.NotEmpty(t, errAttr["trace"])
}

func TestJSONLoggerPlainErrorsHaveNoTrace(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, false).Warn("skipped frame", "error", fmt.Errorf("plain"))

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	errAttr := entry["error"].(map[string]interface{})
	assert.Equal(t, "plain", errAttr["msg"])
	assert.NotContains(t, errAttr, "trace")
}

func TestPrettyLogger(t *testing.T) {
	color.NoColor = true

	var buf bytes.Buffer
	New(&buf, true).With("agent", "a1").Info("frame filtered", "seq", 7)

	out := buf.String()
	assert.Contains(t, out, "INFO:")
	assert.Contains(t, out, "frame filtered")
	assert.Contains(t, out, `"seq": 7`)
	assert.Contains(t, out, `"agent": "a1"`)
}

func TestToFileWritesRotatingLog(t *testing.T) {
	saved := Logger
	defer func() { Logger = saved }()

	var buf bytes.Buffer
	Logger = New(&buf, false)

	filename := filepath.Join(t.TempDir(), "logs", "matte.log")
	ToFile(filename)
	Logger.Info("hello")

	assert.Contains(t, buf.String(), "hello")
	assert.FileExists(t, filename)
}

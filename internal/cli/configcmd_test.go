package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/lifesync/internal/config"
)

func TestConfig_TextMasksSecrets(t *testing.T) {
	isolateEnv(t)
	t.Setenv("LIMITLESS_API_KEY", "lk-1234567890")
	t.Setenv("TODOIST_PARENT_ID", "parent-1")

	out, err := execute(t, NewConfigCommand, "text")
	require.NoError(t, err)
	assert.Contains(t, out, "lk-1****")
	assert.NotContains(t, out, "lk-1234567890")
	assert.Contains(t, out, "parent-1")
	assert.Contains(t, out, "https://api.todoist.com/rest/v2")
	assert.Contains(t, out, "3s")
}

func TestConfig_JSON(t *testing.T) {
	isolateEnv(t)
	t.Setenv("POLL_LIMIT", "25")

	out, err := execute(t, NewConfigCommand, "json")
	require.NoError(t, err)

	var resp struct {
		Status string        `json:"status"`
		Data   config.Config `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 25, resp.Data.PollLimit)
	assert.Equal(t, "gpt-4.1", resp.Data.OpenAIModel)
}

func TestConfig_ReadsEnvFilesAndConfigFile(t *testing.T) {
	isolateEnv(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("TODOIST_PARENT_ID=from-dotenv\n"), 0644))
	file := filepath.Join(dir, "lifesync.yaml")
	require.NoError(t, os.WriteFile(file, []byte("poll_limit: 7\n"), 0644))

	cmd := NewConfigCommand(&RootOptions{Format: "json", EnvDir: dir, ConfigFile: file})
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetArgs([]string{})
	require.NoError(t, cmd.Execute())

	var resp struct {
		Data config.Config `json:"data"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "from-dotenv", resp.Data.TodoistParentID)
	assert.Equal(t, 7, resp.Data.PollLimit)
}

func TestConfig_InvalidValue(t *testing.T) {
	isolateEnv(t)
	t.Setenv("LIMITLESS_API_URL", "not a url")

	_, err := execute(t, NewConfigCommand, "text")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

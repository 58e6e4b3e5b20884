package main

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseLogLevel(t *testing.T) {
	require.Equal(t, slog.LevelDebug, parseLogLevel("DEBUG"))
	require.Equal(t, slog.LevelWarn, parseLogLevel("warn"))
	require.Equal(t, slog.LevelError, parseLogLevel("error"))
	require.Equal(t, slog.LevelInfo, parseLogLevel("verbose"))
}

func TestLogFileWriter_KeepsTail(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "taskdeck.log")
	w, err := newLogFileWriter(path)
	require.NoError(t, err)
	w.max, w.keep = 64, 32
	defer w.Close()

	_, err = w.Write([]byte(strings.Repeat("a", 60)))
	require.NoError(t, err)
	_, err = w.Write([]byte(strings.Repeat("b", 10)))
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Len(t, data, 32)
	require.True(t, strings.HasSuffix(string(data), strings.Repeat("b", 10)))
}

func TestEnsureDir(t *testing.T) {
	require.NoError(t, ensureDir(":memory:"))
	require.NoError(t, ensureDir("file:x?mode=memory"))

	path := filepath.Join(t.TempDir(), "nested", "deck.db")
	require.NoError(t, ensureDir(path))
	info, err := os.Stat(filepath.Dir(path))
	require.NoError(t, err)
	require.True(t, info.IsDir())
}

func TestAPIKeyAdd(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("TASKDECK_CONFIG_PATH", "")
	t.Setenv("TASKDECK_DB_PATH", filepath.Join(dir, "deck.db"))

	keyUser, keyEmail, keyOrg, keyToken, keyRole = "user-1", "ana@example.com", "Studio", "secret", "team_lead"
	t.Cleanup(func() { keyUser, keyEmail, keyOrg, keyToken, keyRole = "", "", "", "", "" })

	var out strings.Builder
	apikeyAddCmd.SetOut(&out)
	apikeyAddCmd.SetContext(t.Context())
	require.NoError(t, runAPIKeyAdd(apikeyAddCmd, nil))
	require.Contains(t, out.String(), "token: secret")

	a, err := newApp(os.Stderr)
	require.NoError(t, err)
	defer a.Close()
	session, err := a.keys.ResolveSession(t.Context(), "secret")
	require.NoError(t, err)
	require.Equal(t, "user-1", session)
}

package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asad/localsession/internal/kv"
	"github.com/asad/localsession/internal/session"
)

// run executes the CLI with args against a file store in dataDir.
func run(t *testing.T, dataDir string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("DATA_DIR", dataDir)
	t.Setenv("STORE_BACKEND", "file")
	t.Setenv("LOG_LEVEL", "error")

	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return strings.TrimSpace(out.String()), err
}

func TestCLI_SetGetClear(t *testing.T) {
	dir := t.TempDir()

	out, err := run(t, dir, "get", "authorization-code")
	require.NoError(t, err)
	assert.Equal(t, "null", out)

	_, err = run(t, dir, "set", "authorization-code", "abc123")
	require.NoError(t, err)

	out, err = run(t, dir, "get", "authorization-code")
	require.NoError(t, err)
	assert.Equal(t, "abc123", out)

	out, err = run(t, dir, "get", "session-id")
	require.NoError(t, err)
	assert.Equal(t, "null", out)

	_, err = run(t, dir, "clear", "authorization-code")
	require.NoError(t, err)

	out, err = run(t, dir, "get", "authorization-code")
	require.NoError(t, err)
	assert.Equal(t, "null", out)

	store, err := kv.NewFileStore(dir)
	require.NoError(t, err)
	_, ok, err := store.Get(session.AuthorizationCodeKey)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCLI_NewSession(t *testing.T) {
	dir := t.TempDir()

	id, err := run(t, dir, "new-session")
	require.NoError(t, err)
	_, err = uuid.Parse(id)
	require.NoError(t, err)

	out, err := run(t, dir, "get", "session-id")
	require.NoError(t, err)
	assert.Equal(t, id, out)
}

func TestCLI_UnknownEntry(t *testing.T) {
	_, err := run(t, t.TempDir(), "get", "refresh-token")
	assert.ErrorIs(t, err, session.ErrUnknownEntry)
}

func TestCLI_InvalidBackend(t *testing.T) {
	t.Setenv("STORE_BACKEND", "etcd")
	t.Setenv("LOG_LEVEL", "error")

	cmd := NewRootCmd()
	cmd.SetArgs([]string{"get", "session-id"})
	cmd.SetOut(&bytes.Buffer{})
	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "STORE_BACKEND")
}

func TestCLI_Version(t *testing.T) {
	out, err := run(t, t.TempDir(), "version")
	require.NoError(t, err)
	assert.Equal(t, "localsession version dev", out)
}

package command

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krisalay/fetchcache/types"
)

func setupSite(t *testing.T) string {
	t.Helper()

	home := t.TempDir()
	t.Setenv("FETCHCACHE_CONFIG", "")
	t.Setenv("XDG_CONFIG_HOME", home)
	t.Setenv("APPDATA", "")
	t.Setenv("HOME", home)
	t.Setenv("FETCHCACHE_BASE", "")
	t.Setenv("FETCHCACHE_REDIS_URL", "")

	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "data"), 0o755))
	files := map[string]string{
		"config.json": `{"siteName":"SR Lab","version":"2.1.0","theme":"dark"}`,
		"team.json":   `{"members":[{"name":"Ada","role":"PI"},{"name":"NoRole"}]}`,
	}
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "data", name), []byte(body), 0o600))
	}
	return dir
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	args = append([]string{"sitedata"}, args...)

	app, err := InitApp(context.Background(), args)
	require.NoError(t, err)

	var buf bytes.Buffer
	app.Writer = &buf
	err = app.Run(context.Background(), args)
	return buf.String(), err
}

func TestGetCommand(t *testing.T) {
	dir := setupSite(t)

	out, err := run(t, "--base", dir, "get", "--query", "siteName", "data/config.json")
	require.NoError(t, err)
	assert.Equal(t, "SR Lab\n", out)

	out, err = run(t, "--base", dir, "get", "--no-cache", filepath.Join(dir, "data", "team.json"))
	require.NoError(t, err)
	assert.Contains(t, out, `"name": "Ada"`)

	_, err = run(t, "--base", dir, "get", "--retry", "1", "data/missing.json")
	assert.ErrorIs(t, err, types.ErrFetchFailed)

	_, err = run(t, "--base", dir, "get", "--query", "nope", "data/config.json")
	assert.ErrorContains(t, err, "matched nothing")

	_, err = run(t, "--base", dir, "get")
	assert.Error(t, err)
}

func TestGetCommandRetryFromConfig(t *testing.T) {
	dir := setupSite(t)
	cfgPath := filepath.Join(t.TempDir(), "fetchcache.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(strings.Join([]string{
		"base: " + dir,
		"retry:",
		"  attempts: 2",
		"  delay: 1ms",
		"get:",
		"  retry: 2",
		"  query: version",
		"",
	}, "\n")), 0o600))

	out, err := run(t, "--config", cfgPath, "get", "data/config.json")
	require.NoError(t, err)
	assert.Equal(t, "2.1.0\n", out)

	_, err = run(t, "--config", cfgPath, "get", "data/missing.json")
	assert.ErrorIs(t, err, types.ErrFetchFailed)
}

func TestGetCommandHonoursRetryAttempts(t *testing.T) {
	setupSite(t)

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.URL.Path == "/data/flaky.json" && hits.Load() >= 3 {
			_, _ = w.Write([]byte(`{"ok":true}`))
			return
		}
		http.NotFound(w, r)
	}))
	defer srv.Close()

	cfgPath := filepath.Join(t.TempDir(), "fetchcache.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(strings.Join([]string{
		"base: " + srv.URL,
		"retry:",
		"  attempts: 4",
		"  delay: 1ms",
		"",
	}, "\n")), 0o600))

	_, err := run(t, "--config", cfgPath, "get", "data/missing.json")
	assert.ErrorIs(t, err, types.ErrFetchFailed)
	assert.Equal(t, int32(4), hits.Load())

	hits.Store(0)
	_, err = run(t, "--config", cfgPath, "get", "--retry", "1", "data/missing.json")
	assert.Error(t, err)
	assert.Equal(t, int32(1), hits.Load())

	hits.Store(0)
	out, err := run(t, "--config", cfgPath, "get", "--query", "ok", "data/flaky.json")
	require.NoError(t, err)
	assert.Equal(t, "true\n", out)
	assert.Equal(t, int32(3), hits.Load())
}

func TestPreloadCommand(t *testing.T) {
	dir := setupSite(t)

	out, err := run(t, "--base", dir, "preload")
	require.NoError(t, err)

	assert.Contains(t, out, "content  unavailable, using defaults")
	assert.Contains(t, out, "site     SR Lab 2.1.0 (theme dark)")
	assert.Contains(t, out, "hero     SISR Project")
	assert.Contains(t, out, "team     1 members")
	assert.Contains(t, out, "cache    2 entries, 0 pending")
	assert.Contains(t, out, filepath.ToSlash(filepath.Join(dir, "data", "config.json")))
}

func TestSnapshotCommands(t *testing.T) {
	dir := setupSite(t)
	snaps := filepath.Join(t.TempDir(), "snaps")

	out, err := run(t, "--base", dir, "--snapshot-dir", snaps, "snapshot", "save", "data/config.json", "site-config")
	require.NoError(t, err)
	assert.Equal(t, "saved site-config\n", out)

	out, err = run(t, "--base", dir, "--snapshot-dir", snaps, "snapshot", "load", "site-config")
	require.NoError(t, err)
	assert.Contains(t, out, `"siteName": "SR Lab"`)

	_, err = run(t, "--base", dir, "--snapshot-dir", snaps, "snapshot", "load", "other")
	assert.ErrorContains(t, err, "no snapshot named other")

	_, err = run(t, "--base", dir, "snapshot", "load", "site-config")
	assert.ErrorContains(t, err, "no snapshot store configured")
}

func TestWritePolicyNeedsSnapshotStore(t *testing.T) {
	dir := setupSite(t)
	cfgPath := filepath.Join(t.TempDir(), "fetchcache.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("cache:\n  write_policy: through\n"), 0o600))

	_, err := run(t, "--config", cfgPath, "--base", dir, "get", "data/config.json")
	assert.ErrorContains(t, err, "needs --snapshot-dir")

	snaps := filepath.Join(t.TempDir(), "snaps")
	_, err = run(t, "--config", cfgPath, "--base", dir, "--snapshot-dir", snaps, "get", "data/config.json")
	require.NoError(t, err)

	entries, err := os.ReadDir(snaps)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestConfigArg(t *testing.T) {
	assert.Equal(t, "a.yaml", configArg([]string{"sitedata", "--config", "a.yaml", "get"}))
	assert.Equal(t, "b.yaml", configArg([]string{"sitedata", "--config=b.yaml"}))
	assert.Equal(t, "", configArg([]string{"sitedata", "get"}))
}

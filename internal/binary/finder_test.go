package binary

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func memFsWith(t *testing.T, files map[string]os.FileMode) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	for path, mode := range files {
		require.NoError(t, afero.WriteFile(fs, path, []byte("#!/bin/sh\n"), 0o755))
		require.NoError(t, fs.Chmod(path, mode))
	}
	return fs
}

func collect(lines *[]string) func(string) {
	return func(s string) { *lines = append(*lines, s) }
}

func TestDetectFirstLaunchableCandidate(t *testing.T) {
	fs := memFsWith(t, map[string]os.FileMode{
		"/usr/local/bin/tun2proxy-bin": 0o644,
		"/usr/local/bin/tun2proxy":     0o755,
	})
	f := NewFinder(
		WithFs(fs),
		WithLaunchProbe(func(_ context.Context, p string) bool { return p == "/usr/local/bin/tun2proxy" }),
		WithOwnerLookup(func(os.FileInfo) (int, bool) { return 501, true }),
		WithLookPath(func(context.Context, string) (string, error) {
			t.Fatal("PATH lookup should not run")
			return "", nil
		}),
	)

	var lines []string
	path, ok := f.Detect(context.Background(), collect(&lines))
	require.True(t, ok)
	assert.Equal(t, "/usr/local/bin/tun2proxy", path)

	out := strings.Join(lines, "\n")
	assert.Contains(t, out, " - not found: /opt/homebrew/bin/tun2proxy-bin")
	assert.Contains(t, out, " - found: /usr/local/bin/tun2proxy-bin")
	assert.Contains(t, out, "   ↳ perms: 644")
	assert.Contains(t, out, "Detected system binary: /usr/local/bin/tun2proxy")
}

func TestDetectFallsBackToPath(t *testing.T) {
	f := NewFinder(
		WithFs(afero.NewMemMapFs()),
		WithLaunchProbe(func(context.Context, string) bool { return false }),
		WithLookPath(func(_ context.Context, name string) (string, error) {
			if name == "tun2proxy" {
				return "/home/me/.cargo/bin/tun2proxy", nil
			}
			return "", errors.New("not found")
		}),
	)

	var lines []string
	path, ok := f.Detect(context.Background(), collect(&lines))
	require.True(t, ok)
	assert.Equal(t, "/home/me/.cargo/bin/tun2proxy", path)
	assert.Contains(t, lines, "Detected via PATH: /home/me/.cargo/bin/tun2proxy")
}

func TestDetectNothingFound(t *testing.T) {
	f := NewFinder(
		WithFs(afero.NewMemMapFs()),
		WithLookPath(func(context.Context, string) (string, error) { return "", errors.New("nope") }),
	)

	var lines []string
	_, ok := f.Detect(context.Background(), collect(&lines))
	assert.False(t, ok)
	assert.Equal(t, "Could not auto-detect tun2proxy. Set the path manually.", lines[len(lines)-1])

	// A nil report func is allowed.
	_, ok = f.Detect(context.Background(), nil)
	assert.False(t, ok)
}

func TestResolveSymlinks(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "real", "tun2proxy-bin")
	require.NoError(t, os.MkdirAll(filepath.Dir(target), 0o755))
	require.NoError(t, os.WriteFile(target, []byte("x"), 0o755))

	hop := filepath.Join(dir, "hop")
	require.NoError(t, os.Symlink(filepath.Join("real", "tun2proxy-bin"), hop))
	link := filepath.Join(dir, "link")
	require.NoError(t, os.Symlink(hop, link))

	f := NewFinder()
	assert.Equal(t, target, f.Resolve(link))
	assert.Equal(t, target, f.Resolve(target))
	assert.True(t, f.Exists(link))

	// MemMapFs has no symlinks; paths pass through.
	mf := NewFinder(WithFs(afero.NewMemMapFs()))
	assert.Equal(t, "/a/b", mf.Resolve("/a/b"))
}

func TestCanLaunch(t *testing.T) {
	dir := t.TempDir()
	exe := filepath.Join(dir, "ok")
	require.NoError(t, os.WriteFile(exe, []byte("#!/bin/sh\nexit 3\n"), 0o755))
	noexec := filepath.Join(dir, "noexec")
	require.NoError(t, os.WriteFile(noexec, []byte("#!/bin/sh\n"), 0o644))

	assert.True(t, CanLaunch(context.Background(), exe), "nonzero exit still counts as launched")
	assert.False(t, CanLaunch(context.Background(), noexec))
	assert.False(t, CanLaunch(context.Background(), filepath.Join(dir, "missing")))
}

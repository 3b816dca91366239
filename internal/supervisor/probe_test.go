package supervisor

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Iron-Ham/tun2proxyctl/internal/errors"
	"github.com/Iron-Ham/tun2proxyctl/internal/logbook"
	"github.com/Iron-Ham/tun2proxyctl/internal/supervisor/state"
)

func TestTestProbe(t *testing.T) {
	h := newHarness(t, nil)
	path := writeScript(t, `[ "$1" = "--help" ] || exit 9
echo "Usage: tun2proxy [OPTIONS]"
echo "  --proxy <URL>"
echo "deprecated flag" >&2
exit 2`)

	require.NoError(t, h.sup.Test(context.Background(), path))

	logs := h.sup.Logs()
	assert.Equal(t, "Testing binary…", logs[0].Text)
	assert.Equal(t, []string{"Usage: tun2proxy [OPTIONS]", "  --proxy <URL>"}, texts(logs, logbook.OriginStdout))
	assert.Equal(t, []string{"deprecated flag"}, texts(logs, logbook.OriginStderr))
	assert.Equal(t, "Exit code: 2", logs[len(logs)-1].Text)

	// Probes never touch the run state.
	assert.Equal(t, state.Stopped, h.sup.RunState())
	assert.Empty(t, h.events.states())
}

func TestVersionProbe(t *testing.T) {
	h := newHarness(t, nil)
	path := writeScript(t, `echo "tun2proxy $1"`)

	code, err := h.sup.RunOneShot(context.Background(), path, []string{"--version"}, "Checking version")
	require.NoError(t, err)
	assert.Zero(t, code)
	assert.Equal(t, []string{"tun2proxy --version"}, texts(h.sup.Logs(), logbook.OriginStdout))
}

func TestOneShotLaunchFailure(t *testing.T) {
	h := newHarness(t, nil)
	missing := filepath.Join(t.TempDir(), "missing")

	err := h.sup.Version(context.Background(), missing)
	assert.ErrorIs(t, err, errors.ErrLaunchFailed)
	assert.Equal(t, 1, countText(h.sup.Logs(), "One-shot failed: "))
	assert.Zero(t, countText(h.sup.Logs(), "Exit code"))
}

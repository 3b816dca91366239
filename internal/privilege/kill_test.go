package privilege

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Iron-Ham/tun2proxyctl/internal/errors"
)

// fakeElevator records commands and returns a canned error.
type fakeElevator struct {
	commands []string
	err      error
}

func (f *fakeElevator) Name() string { return "fake" }

func (f *fakeElevator) Run(_ context.Context, command string) (string, error) {
	f.commands = append(f.commands, command)
	return "", f.err
}

func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "killall")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755))
	return path
}

func TestIsNoMatch(t *testing.T) {
	assert.True(t, IsNoMatch("No matching processes belonging to you were found"))
	assert.True(t, IsNoMatch("tun2proxy: no process found"))
	assert.False(t, IsNoMatch("Operation not permitted"))
}

func TestProcessName(t *testing.T) {
	assert.Equal(t, "tun2proxy-bin", ProcessName("/opt/homebrew/bin/tun2proxy-bin"))
}

func TestKillDirect(t *testing.T) {
	tests := []struct {
		name    string
		script  string
		want    KillOutcome
		wantErr bool
	}{
		{"terminated", `exit 0`, KillTerminated, false},
		{"no match", `echo "$2: no process found" >&2; exit 1`, KillNotRunning, false},
		{"denied", `echo "kill: Operation not permitted" >&2; exit 1`, KillTerminated, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			k := NewKiller(nil, nil)
			k.killall = writeScript(t, tt.script)

			got, err := k.Kill(context.Background(), "tun2proxy-bin")
			assert.Equal(t, tt.want, got)
			if tt.wantErr {
				assert.ErrorIs(t, err, errors.ErrStopFailed)
				assert.Contains(t, err.Error(), "Operation not permitted")
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestKillElevated(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		fe := &fakeElevator{}
		got, err := NewKiller(fe, nil).KillElevated(context.Background(), "tun2proxy-bin")
		require.NoError(t, err)
		assert.Equal(t, KillTerminated, got)
		assert.Equal(t, []string{"killall -9 'tun2proxy-bin'"}, fe.commands)
	})

	t.Run("no matching processes is success", func(t *testing.T) {
		fe := &fakeElevator{err: errors.NewElevationError("No matching processes belonging to you were found")}
		got, err := NewKiller(fe, nil).KillElevated(context.Background(), "tun2proxy-bin")
		require.NoError(t, err)
		assert.Equal(t, KillNotRunning, got)
	})

	t.Run("cancelled", func(t *testing.T) {
		fe := &fakeElevator{err: errors.NewElevationError("User canceled.").WithCancelled(true)}
		_, err := NewKiller(fe, nil).KillElevated(context.Background(), "tun2proxy-bin")
		assert.True(t, errors.IsCancelled(err))
	})

	t.Run("no elevator", func(t *testing.T) {
		_, err := NewKiller(nil, nil).KillElevated(context.Background(), "x")
		assert.ErrorIs(t, err, errors.ErrElevationFailed)
	})
}

func TestRunning(t *testing.T) {
	if _, err := exec.LookPath("pgrep"); err != nil {
		t.Skip("pgrep not available")
	}
	ok, err := Running(context.Background(), "no-such-process-tun2proxyctl")
	require.NoError(t, err)
	assert.False(t, ok)
}

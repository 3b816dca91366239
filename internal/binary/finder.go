package binary

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"os/user"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/afero"

	"github.com/Iron-Ham/tun2proxyctl/internal/logging"
)

// DefaultCandidates are the install locations checked in order.
var DefaultCandidates = []string{
	"/opt/homebrew/bin/tun2proxy-bin",
	"/usr/local/bin/tun2proxy-bin",
	"/opt/homebrew/bin/tun2proxy",
	"/usr/local/bin/tun2proxy",
}

// DefaultNames are the executable names searched for on $PATH.
var DefaultNames = []string{"tun2proxy-bin", "tun2proxy"}

// probeTimeout bounds the --version launch probe.
const probeTimeout = 5 * time.Second

// maxSymlinkHops bounds symlink resolution.
const maxSymlinkHops = 40

// Finder locates the tun2proxy executable.
type Finder struct {
	fs         afero.Fs
	candidates []string
	names      []string
	logger     *logging.Logger

	canLaunch func(ctx context.Context, path string) bool
	lookPath  func(ctx context.Context, name string) (string, error)
	owner     func(fi os.FileInfo) (uid int, ok bool)
}

// Option configures a Finder.
type Option func(*Finder)

// WithFs sets the filesystem. Defaults to the OS filesystem.
func WithFs(fs afero.Fs) Option {
	return func(f *Finder) { f.fs = fs }
}

// WithCandidates replaces the install locations that are checked first.
func WithCandidates(paths ...string) Option {
	return func(f *Finder) { f.candidates = paths }
}

// WithNames replaces the names searched for on $PATH.
func WithNames(names ...string) Option {
	return func(f *Finder) { f.names = names }
}

// WithLogger sets the diagnostic logger.
func WithLogger(l *logging.Logger) Option {
	return func(f *Finder) { f.logger = l.WithComponent("binary") }
}

// WithLaunchProbe replaces the --version launch probe.
func WithLaunchProbe(fn func(ctx context.Context, path string) bool) Option {
	return func(f *Finder) { f.canLaunch = fn }
}

// WithLookPath replaces the $PATH lookup.
func WithLookPath(fn func(ctx context.Context, name string) (string, error)) Option {
	return func(f *Finder) { f.lookPath = fn }
}

// WithOwnerLookup replaces how a file's owning uid is read.
func WithOwnerLookup(fn func(fi os.FileInfo) (int, bool)) Option {
	return func(f *Finder) { f.owner = fn }
}

// NewFinder creates a Finder with the given options.
func NewFinder(opts ...Option) *Finder {
	f := &Finder{
		fs:         afero.NewOsFs(),
		candidates: DefaultCandidates,
		names:      DefaultNames,
		canLaunch:  CanLaunch,
		lookPath:   LookPath,
		owner:      statOwner,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Detect returns the first usable executable. Each step is described through
// report, which may be nil.
func (f *Finder) Detect(ctx context.Context, report func(string)) (string, bool) {
	if report == nil {
		report = func(string) {}
	}

	report("Auto-detect: checking common system paths…")
	for _, path := range f.candidates {
		if ok, _ := afero.Exists(f.fs, path); !ok {
			report(" - not found: " + path)
			continue
		}

		resolved := f.Resolve(path)
		report(" - found: " + path)
		if resolved != path {
			report("   ↳ resolves to: " + resolved)
		}

		report("   ↳ probing launch…")
		if f.canLaunch(ctx, resolved) {
			report("Detected system binary: " + resolved)
			f.logger.Info("binary detected", "path", resolved)
			return resolved, true
		}
		f.describe(resolved, report)
	}

	report("Auto-detect: PATH lookup…")
	for _, name := range f.names {
		found, err := f.lookPath(ctx, name)
		if err != nil || found == "" {
			continue
		}
		report("Detected via PATH: " + found)
		f.logger.Info("binary detected on PATH", "path", found)
		return found, true
	}

	report("Could not auto-detect tun2proxy. Set the path manually.")
	return "", false
}

// describe reports mode and owner for a candidate that failed to launch.
func (f *Finder) describe(path string, report func(string)) {
	fi, err := f.fs.Stat(path)
	if err != nil {
		report("   ↳ could not read attributes: " + err.Error())
		return
	}
	report(fmt.Sprintf("   ↳ perms: %o", fi.Mode().Perm()))
	if uid, ok := f.owner(fi); ok {
		report("   ↳ owner: " + ownerName(uid))
	}
}

// Resolve follows symlinks when the filesystem supports them. Paths that
// cannot be resolved are returned unchanged.
func (f *Finder) Resolve(path string) string {
	reader, ok := f.fs.(afero.LinkReader)
	if !ok {
		return path
	}
	lstater, _ := f.fs.(afero.Lstater)

	current := path
	for i := 0; i < maxSymlinkHops; i++ {
		if lstater != nil {
			fi, _, err := lstater.LstatIfPossible(current)
			if err != nil || fi.Mode()&os.ModeSymlink == 0 {
				return current
			}
		}
		target, err := reader.ReadlinkIfPossible(current)
		if err != nil {
			return current
		}
		if !filepath.IsAbs(target) {
			target = filepath.Join(filepath.Dir(current), target)
		}
		current = filepath.Clean(target)
	}
	return current
}

// Exists reports whether path names an existing file.
func (f *Finder) Exists(path string) bool {
	ok, err := afero.Exists(f.fs, path)
	return err == nil && ok
}

// CanLaunch reports whether the OS will start path. It runs path --version
// and only cares that the process started; the exit status is ignored.
func CanLaunch(ctx context.Context, path string) bool {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, path, "--version")
	if err := cmd.Start(); err != nil {
		return false
	}
	_ = cmd.Wait()
	return true
}

// LookPath searches $PATH, then falls back to `command -v` in a login shell,
// which sees PATH entries added by shell profiles.
func LookPath(ctx context.Context, name string) (string, error) {
	if p, err := exec.LookPath(name); err == nil {
		return p, nil
	}

	shell := os.Getenv("SHELL")
	if shell == "" {
		shell = "/bin/sh"
	}
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	out, err := exec.CommandContext(ctx, shell, "-lc", "command -v "+name).Output()
	if err != nil {
		return "", fmt.Errorf("%s not found on PATH: %w", name, err)
	}
	p := strings.TrimSpace(string(out))
	if p == "" || !filepath.IsAbs(p) {
		return "", fmt.Errorf("%s not found on PATH", name)
	}
	return p, nil
}

func statOwner(fi os.FileInfo) (int, bool) {
	st, ok := fi.Sys().(*syscall.Stat_t)
	if !ok {
		return 0, false
	}
	return int(st.Uid), true
}

func ownerName(uid int) string {
	id := strconv.Itoa(uid)
	if u, err := user.LookupId(id); err == nil {
		return u.Username
	}
	return id
}

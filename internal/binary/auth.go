package binary

import (
	"context"
	"fmt"
	"os"

	"github.com/Iron-Ham/tun2proxyctl/internal/errors"
	"github.com/Iron-Ham/tun2proxyctl/internal/privilege"
)

// Authorization describes the setuid state of the executable.
type Authorization struct {
	Path       string
	Resolved   string
	OwnerUID   int
	OwnerKnown bool
	Setuid     bool
}

// Authorized reports whether the binary is owned by root with the setuid bit
// set, which lets tun2proxy configure routing without a prompt.
func (a Authorization) Authorized() bool {
	return a.OwnerKnown && a.OwnerUID == 0 && a.Setuid
}

// Inspect reads the authorization state of path.
func (f *Finder) Inspect(path string) (Authorization, error) {
	a := Authorization{Path: path, Resolved: f.Resolve(path)}
	fi, err := f.fs.Stat(a.Resolved)
	if err != nil {
		if os.IsNotExist(err) {
			return a, errors.NewNotFoundError("binary", path).WithCause(errors.ErrBinaryNotFound)
		}
		return a, fmt.Errorf("stat %s: %w", a.Resolved, err)
	}
	a.Setuid = fi.Mode()&os.ModeSetuid != 0
	a.OwnerUID, a.OwnerKnown = f.owner(fi)
	return a, nil
}

// CheckAuthorization reports whether path is root-owned and setuid. Missing
// or unreadable files are not authorized.
func (f *Finder) CheckAuthorization(path string) bool {
	a, err := f.Inspect(path)
	return err == nil && a.Authorized()
}

// AuthorizeCommand is the shell command that makes path root-owned and setuid.
func AuthorizeCommand(path string) string {
	q := privilege.ShellQuote(path)
	return "chown root " + q + " && chmod u+s " + q
}

// Authorize makes the resolved binary root-owned and setuid through the
// elevator.
func (f *Finder) Authorize(ctx context.Context, elevator privilege.Elevator, path string) error {
	resolved := f.Resolve(path)
	if resolved == "" || !f.Exists(resolved) {
		return errors.NewNotFoundError("binary", path).WithCause(errors.ErrBinaryNotFound)
	}
	if _, err := elevator.Run(ctx, AuthorizeCommand(resolved)); err != nil {
		f.logger.Warn("authorization failed", "path", resolved, "error", err)
		return err
	}
	f.logger.Info("binary authorized", "path", resolved)
	return nil
}

// SetupCommand is the manual alternative to the routing setup tun2proxy
// performs at start.
func SetupCommand(path string) string {
	return fmt.Sprintf("sudo \"%s\" --setup", path)
}

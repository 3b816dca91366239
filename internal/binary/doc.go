// Package binary locates the tun2proxy executable and manages its setuid
// authorization.
//
// Detection walks a fixed list of well-known install locations, resolves
// symlinks, and probes each candidate with --version. Candidates that exist
// but cannot be launched are reported with their mode and owner. When no
// candidate works, $PATH is searched for tun2proxy-bin and tun2proxy.
//
// Filesystem access goes through afero so detection and authorization
// checks can be tested against an in-memory filesystem.
package binary

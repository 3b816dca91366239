// Package privilege runs commands with administrator rights and kills
// processes by executable name.
//
// An [Elevator] takes a single shell command line and executes it through an
// OS privilege channel:
//
//   - [AppleScript]: osascript "do shell script ... with administrator privileges" (macOS)
//   - [Pkexec]: pkexec /bin/sh -c (Linux with polkit)
//   - [Sudo]: sudo -n /bin/sh -c (non-interactive, NOPASSWD setups)
//   - [Direct]: /bin/sh -c, used when the caller is already root
//
// Every token of the command must be quoted with [ShellQuote]; AppleScript
// string escaping is layered on top by [AppleScript] itself.
//
// Failures are returned as *errors.ElevationError carrying the OS-provided
// message, with Cancelled set when the user dismissed the prompt.
package privilege

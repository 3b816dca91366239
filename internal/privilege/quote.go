package privilege

import "strings"

// ShellQuote wraps s in single quotes so /bin/sh treats it as one literal
// word. Embedded single quotes become '\''.
func ShellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// ShellCommand renders path and args as a single shell command line with
// every token quoted.
func ShellCommand(path string, args ...string) string {
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, ShellQuote(path))
	for _, a := range args {
		parts = append(parts, ShellQuote(a))
	}
	return strings.Join(parts, " ")
}

// AppleScriptString escapes s for use inside an AppleScript string literal.
// The surrounding double quotes are not added.
func AppleScriptString(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `"`, `\"`)
}

// AdminScript returns the AppleScript source that runs command with
// administrator privileges.
func AdminScript(command string) string {
	return `do shell script "` + AppleScriptString(command) + `" with administrator privileges`
}

// Package tui is the interactive terminal front end: a status pill for the
// supervised tun2proxy, the binary and proxy in use, and a scrolling view of
// the user-visible log. Keys drive the supervisor; quitting performs a
// synchronous stop so no tunnel outlives the UI.
package tui

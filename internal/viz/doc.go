// Package viz renders powerlink networks in the terminal.
//
// [WatchModel] is a Bubble Tea program that steps a built scenario and
// shows node potentials, supply selections and switch trip states as the
// fault schedule plays out. [Summary] renders a finished run as styled
// tables for the CLI.
//
// # Key Bindings
//
//	Space - Pause/Resume
//	N     - Single major step while paused
//	Tab   - Cycle the plotted node
//	Q     - Quit
package viz

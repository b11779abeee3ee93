// Package viz renders comparison runs in the terminal.
//
//   - [RenderReport]: lipgloss table of t, exact, Euler, absolute and relative error
//   - [PlotComparison], [PlotErrors]: asciigraph line charts
//   - [LiveModel]: Bubble Tea view that reveals grid points one by one
//
// # Key Bindings
//
//	Space - Pause/Resume point reveal
//	+     - Halve h and recompute
//	-     - Double h and recompute
//	R     - Restart the reveal
//	Q     - Quit
package viz

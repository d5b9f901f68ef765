// Package viz is the terminal front-end for a running chain.
//
// The package implements an interactive TUI using the Bubble Tea framework:
//
//   - [App]: start screen listing presets, launches the live view
//   - [Model]: live view of one simulator with energy plots
//   - [Canvas]: Braille-based dot canvas the chain is drawn on
//
// # Key Bindings
//
//	Space/P - Pause/Resume
//	R       - Rebuild the chain
//	B       - Back to the start screen
//	F       - Follow the furthest block
//	←/→     - Pan
//	+/-     - Zoom
//	T       - Cycle colors
//	Click   - Select a block
package viz

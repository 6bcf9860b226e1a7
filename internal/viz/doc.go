// Package viz renders a running experiment in the terminal.
//
// The live view draws the particles projected onto the x-y plane on a
// Braille canvas and lists masses, the tracked orbit and the scheduled
// operator steps beside it.
//
// # Key Bindings
//
//	Space - Pause/Resume
//	+/-   - More/fewer steps per frame
//	T     - Cycle color themes
//	Q     - Quit
package viz

// Package analysis characterizes the output of a chain run.
//
// The package includes:
//
//   - [PowerSpectrum]: one-sided power spectrum of an energy series
//   - [DominantFrequency]: strongest non-zero frequency of a series
//   - [SlipEvents]: bursts where a series rises above a threshold
//   - [TracePhase]: stress/velocity trajectory of a single block
//
// # Stick-slip signature
//
// Steady driving with stick-slip friction releases energy in bursts. The
// kinetic series is near zero between events, so a handful of strong
// low-frequency peaks usually dominates its spectrum:
//
//	freq, power := analysis.DominantFrequency(s.Kinetic().Series(n), fps)
package analysis

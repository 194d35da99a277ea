// Package calculation implements the hour-accounting core of the roster
// engine: per-assignment hour breakdowns under the three hour policies (MOM,
// APGD-D10, daily-contractual) and the post-solve monthly overtime cap
// enforcement.
//
// The package is pure: no logging, no I/O. Cumulative per-employee state is
// threaded through explicitly by the post-processor; nothing is kept in
// package-level variables. Problems are reported as warning-code slices in
// the results.
package calculation

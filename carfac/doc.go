// SPDX-License-Identifier: EPL-2.0

// Package carfac runs the external CARFAC cochlear model executable.
//
// The executable is an opaque program named carfac-cmd (carfac-cmd.exe on
// Windows) that takes eight positional arguments:
//
//	carfac-cmd <filename> <samples> <ears> <rate> <stride> <a_1> <apply_filter> <suffix>
//
// It reads the audio that was written next to <filename> and produces the
// neural activation pattern in <filename><suffix>. Some builds print the
// matrix to stdout instead; CaptureStdout persists that output to the same
// path so callers read one location either way.
package carfac

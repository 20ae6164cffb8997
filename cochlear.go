// SPDX-License-Identifier: EPL-2.0

package carfacnap

import (
	"context"

	"gonum.org/v1/gonum/mat"

	"github.com/ik5/carfacnap/carfac"
	"github.com/ik5/carfacnap/internal/pipeline"
)

// Options are the parameters of a cochlear run.
type Options = pipeline.Options

// DefaultOptions returns stride 256, rate 44100, -40 dB, one ear,
// a_1 -0.995, filtering on and the suffix "cochlear".
func DefaultOptions() Options {
	return pipeline.DefaultOptions()
}

// Cochlear runs the executable found in executableDir ("." when empty) on
// filename and returns the normalized NAP, time x channel. Runner options
// select the capture mode and logger; the logger is shared with the
// pipeline.
//
//	nap, err := carfacnap.Cochlear(ctx, "a.wav", "bin", opts,
//	    carfac.WithCapture(carfac.CaptureStdout),
//	    carfac.WithLogger(logger))
func Cochlear(ctx context.Context, filename, executableDir string, opts Options, runnerOpts ...carfac.Option) (*mat.Dense, error) {
	if executableDir == "" {
		executableDir = "."
	}

	runner := carfac.NewRunner(append([]carfac.Option{carfac.WithDir(executableDir)}, runnerOpts...)...)

	p, err := pipeline.New(opts, runner, pipeline.WithLogger(runner.Logger()))
	if err != nil {
		return nil, err
	}

	return p.Cochlear(ctx, filename)
}

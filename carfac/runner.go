// SPDX-License-Identifier: EPL-2.0

package carfac

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"go.uber.org/zap"
)

// ExecutableName is the base name of the model program.
const ExecutableName = "carfac-cmd"

// Capture selects where the executable's matrix comes from.
type Capture string

const (
	// CaptureFile expects the executable to write <filename><suffix> itself.
	CaptureFile Capture = "file"
	// CaptureStdout writes the executable's stdout to <filename><suffix>.
	CaptureStdout Capture = "stdout"
)

// ParseCapture accepts "file", "stdout" or "" (file).
func ParseCapture(s string) (Capture, error) {
	switch c := Capture(strings.ToLower(s)); c {
	case CaptureFile, CaptureStdout:
		return c, nil
	case "":
		return CaptureFile, nil
	}

	return "", fmt.Errorf("%w: %q", ErrUnknownCapture, s)
}

// Executable returns the platform file name of the model program.
func Executable() string {
	if runtime.GOOS == "windows" {
		return ExecutableName + ".exe"
	}
	return ExecutableName
}

// Result describes a finished run.
type Result struct {
	OutputPath string
	Duration   time.Duration
	Stderr     string
}

// Runner invokes the executable and blocks until it exits.
type Runner struct {
	dir     string
	capture Capture
	logger  *zap.Logger
	exec    executor
}

type Option func(*Runner)

// WithDir sets the directory holding the executable. Default ".".
func WithDir(dir string) Option {
	return func(r *Runner) { r.dir = dir }
}

func WithCapture(c Capture) Option {
	return func(r *Runner) { r.capture = c }
}

func WithLogger(l *zap.Logger) Option {
	return func(r *Runner) { r.logger = l }
}

func NewRunner(opts ...Option) *Runner {
	r := &Runner{
		dir:     ".",
		capture: CaptureFile,
		logger:  zap.NewNop(),
		exec:    osExecutor{},
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Path is the executable location before resolution. A bare name is
// prefixed with the current directory so PATH is never searched.
func (r *Runner) Path() string {
	p := filepath.Join(r.dir, Executable())
	if !strings.ContainsRune(p, filepath.Separator) {
		p = "." + string(filepath.Separator) + p
	}
	return p
}

func (r *Runner) Logger() *zap.Logger { return r.logger }

// Resolve checks that the executable exists and is runnable.
func (r *Runner) Resolve() (string, error) {
	p, err := r.exec.LookPath(r.Path())
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrExecutableNotFound, r.Path(), err)
	}
	return p, nil
}

// Run executes req. A cancelled ctx kills the process. Any existing
// <filename><suffix> is removed first, so a run that writes nothing fails
// with ErrNoOutput.
func (r *Runner) Run(ctx context.Context, req Request) (res Result, err error) {
	if err := req.Validate(); err != nil {
		return Result{}, err
	}

	if r.capture != CaptureFile && r.capture != CaptureStdout {
		return Result{}, fmt.Errorf("%w: %q", ErrUnknownCapture, r.capture)
	}

	bin, err := r.Resolve()
	if err != nil {
		return Result{}, err
	}

	args := req.Args()
	out := req.OutputPath()

	log := r.logger.With(zap.String("executable", bin), zap.String("output", out))
	log.Debug("running cochlear model", zap.Strings("args", args), zap.String("capture", string(r.capture)))

	if err := os.Remove(out); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Result{}, fmt.Errorf("removing stale output: %w", err)
	}

	var stdout io.Writer = io.Discard
	var sink *stdoutSink

	if r.capture == CaptureStdout {
		if sink, err = newStdoutSink(out); err != nil {
			return Result{}, err
		}
		defer func() {
			if err != nil {
				sink.discard(log)
			}
		}()
		stdout = sink.w
	}

	var stderr bytes.Buffer

	start := time.Now()
	runErr := r.exec.Run(ctx, bin, args, stdout, &stderr)
	elapsed := time.Since(start)

	if ctxErr := ctx.Err(); ctxErr != nil {
		return Result{}, fmt.Errorf("running %s: %w", bin, ctxErr)
	}

	var exitErr *ExitError
	if errors.As(runErr, &exitErr) {
		exitErr.Path = bin
		exitErr.Stderr = stderr.String()
		log.Warn("cochlear model failed", zap.Int("code", exitErr.Code), zap.Duration("elapsed", elapsed))
		return Result{}, exitErr
	}
	if runErr != nil {
		return Result{}, fmt.Errorf("running %s: %w", bin, runErr)
	}

	if sink != nil {
		if err := sink.commit(); err != nil {
			return Result{}, err
		}
	}

	if fi, err := os.Stat(out); err != nil || fi.Size() == 0 {
		return Result{}, fmt.Errorf("%w: %s", ErrNoOutput, out)
	}

	log.Debug("cochlear model finished", zap.Duration("elapsed", elapsed))

	return Result{OutputPath: out, Duration: elapsed, Stderr: stderr.String()}, nil
}

// stdoutSink persists the executable's stdout at the output path.
type stdoutSink struct {
	path string
	f    *os.File
	w    *bufio.Writer
}

func newStdoutSink(path string) (*stdoutSink, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("%w", err)
	}

	return &stdoutSink{path: path, f: f, w: bufio.NewWriter(f)}, nil
}

func (s *stdoutSink) commit() error {
	if err := s.w.Flush(); err != nil {
		s.f.Close()
		return fmt.Errorf("%w", err)
	}
	if err := s.f.Close(); err != nil {
		return fmt.Errorf("%w", err)
	}
	return nil
}

// discard closes and removes a partial capture.
func (s *stdoutSink) discard(log *zap.Logger) {
	_ = s.f.Close()
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn("removing partial output", zap.Error(err))
	}
}

// SPDX-License-Identifier: EPL-2.0

package carfac

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// mockExecutor records calls and returns configured responses.
type mockExecutor struct {
	found   bool
	runFunc func(ctx context.Context, args []string, stdout, stderr io.Writer) error

	lookedUp string
	gotName  string
	gotArgs  []string
}

func (m *mockExecutor) LookPath(file string) (string, error) {
	m.lookedUp = file
	if m.found {
		return file, nil
	}
	return "", errors.New("not found: " + file)
}

func (m *mockExecutor) Run(ctx context.Context, name string, args []string, stdout, stderr io.Writer) error {
	m.gotName = name
	m.gotArgs = args
	if m.runFunc != nil {
		return m.runFunc(ctx, args, stdout, stderr)
	}
	return nil
}

func testRequest(dir string) Request {
	return Request{
		Filename:    filepath.Join(dir, "drums.wav"),
		NumSamples:  44100,
		Ears:        1,
		SampleRate:  44100,
		Stride:      256,
		A1:          -0.995,
		ApplyFilter: true,
		Suffix:      "cochlear",
	}
}

func newTestRunner(exec *mockExecutor, opts ...Option) *Runner {
	r := NewRunner(opts...)
	r.exec = exec
	return r
}

func TestRequest_Args(t *testing.T) {
	req := Request{
		Filename:    "drums.wav",
		NumSamples:  1234,
		Ears:        1,
		SampleRate:  44100,
		Stride:      256,
		A1:          -0.995,
		ApplyFilter: true,
		Suffix:      "cochlear",
	}

	assert.Equal(t,
		[]string{"drums.wav", "1234", "1", "44100", "256", "-0.995", "1", "cochlear"},
		req.Args())
	assert.Equal(t, "drums.wavcochlear", req.OutputPath())

	req.ApplyFilter = false
	req.Suffix = ".nap"
	assert.Equal(t, "0", req.Args()[6])
	assert.Equal(t, "drums.wav.nap", req.OutputPath())
}

func TestRequest_Validate(t *testing.T) {
	base := testRequest("x")
	require.NoError(t, base.Validate())

	tests := []struct {
		name   string
		mutate func(*Request)
	}{
		{"empty filename", func(r *Request) { r.Filename = "" }},
		{"no samples", func(r *Request) { r.NumSamples = 0 }},
		{"no ears", func(r *Request) { r.Ears = 0 }},
		{"bad rate", func(r *Request) { r.SampleRate = -1 }},
		{"bad stride", func(r *Request) { r.Stride = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := base
			tt.mutate(&req)
			assert.ErrorIs(t, req.Validate(), ErrInvalidRequest)
		})
	}
}

func TestRunner_Path(t *testing.T) {
	exe := ExecutableName
	if runtime.GOOS == "windows" {
		exe += ".exe"
	}

	assert.Equal(t, exe, Executable())
	assert.Equal(t, "."+string(filepath.Separator)+exe, NewRunner().Path())
	assert.Equal(t, filepath.Join("bin", exe), NewRunner(WithDir("bin")).Path())
}

func TestRunner_Run_FileCapture(t *testing.T) {
	dir := t.TempDir()
	req := testRequest(dir)

	exec := &mockExecutor{
		found: true,
		runFunc: func(_ context.Context, args []string, _, _ io.Writer) error {
			return os.WriteFile(args[0]+args[7], []byte("0.1 0.2\n"), 0o600)
		},
	}

	res, err := newTestRunner(exec, WithDir(dir)).Run(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, req.OutputPath(), res.OutputPath)
	assert.Equal(t, filepath.Join(dir, Executable()), exec.gotName)
	assert.Equal(t, req.Args(), exec.gotArgs)
}

func TestRunner_Run_StdoutCapture(t *testing.T) {
	dir := t.TempDir()
	req := testRequest(dir)

	exec := &mockExecutor{
		found: true,
		runFunc: func(_ context.Context, _ []string, stdout, _ io.Writer) error {
			_, err := io.WriteString(stdout, "1 2 3\n4 5 6\n")
			return err
		},
	}

	res, err := newTestRunner(exec, WithCapture(CaptureStdout)).Run(context.Background(), req)
	require.NoError(t, err)

	data, err := os.ReadFile(res.OutputPath)
	require.NoError(t, err)
	assert.Equal(t, "1 2 3\n4 5 6\n", string(data))
}

func TestRunner_Run_NotFound(t *testing.T) {
	_, err := newTestRunner(&mockExecutor{}).Run(context.Background(), testRequest(t.TempDir()))
	require.ErrorIs(t, err, ErrExecutableNotFound)
}

func TestRunner_Run_ExitError(t *testing.T) {
	exec := &mockExecutor{
		found: true,
		runFunc: func(_ context.Context, _ []string, _, stderr io.Writer) error {
			_, _ = io.WriteString(stderr, "cannot load audio\n")
			return &ExitError{Code: 3}
		},
	}

	_, err := newTestRunner(exec).Run(context.Background(), testRequest(t.TempDir()))

	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 3, exitErr.Code)
	assert.Equal(t, "cannot load audio\n", exitErr.Stderr)
	assert.Contains(t, err.Error(), "status 3: cannot load audio")
}

func TestRunner_Run_NoOutput(t *testing.T) {
	_, err := newTestRunner(&mockExecutor{found: true}).Run(context.Background(), testRequest(t.TempDir()))
	require.ErrorIs(t, err, ErrNoOutput)
}

func TestRunner_Run_StaleOutputRemoved(t *testing.T) {
	req := testRequest(t.TempDir())
	require.NoError(t, os.WriteFile(req.OutputPath(), []byte("1 2\n"), 0o600))

	// Exits 0 without writing anything, like an executable that prints to
	// stdout while the runner expects a file.
	_, err := newTestRunner(&mockExecutor{found: true}).Run(context.Background(), req)
	require.ErrorIs(t, err, ErrNoOutput)
	assert.NoFileExists(t, req.OutputPath())
}

func TestRunner_Run_StdoutCaptureFailures(t *testing.T) {
	tests := []struct {
		name    string
		runFunc func(context.Context, []string, io.Writer, io.Writer) error
		wantErr error
	}{
		{
			name: "exit status",
			runFunc: func(_ context.Context, _ []string, stdout, _ io.Writer) error {
				_, _ = io.WriteString(stdout, "0.5 0.25\n")
				return &ExitError{Code: 1}
			},
		},
		{
			name:    "empty stdout",
			wantErr: ErrNoOutput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := testRequest(t.TempDir())
			require.NoError(t, os.WriteFile(req.OutputPath(), []byte("9 9\n"), 0o600))

			exec := &mockExecutor{found: true, runFunc: tt.runFunc}
			_, err := newTestRunner(exec, WithCapture(CaptureStdout)).Run(context.Background(), req)
			require.Error(t, err)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			}

			assert.NoFileExists(t, req.OutputPath(), "partial or stale output must not survive a failed run")
		})
	}
}

func TestRunner_Run_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	exec := &mockExecutor{
		found: true,
		runFunc: func(ctx context.Context, _ []string, _, _ io.Writer) error {
			cancel()
			<-ctx.Done()
			return ctx.Err()
		},
	}

	_, err := newTestRunner(exec).Run(ctx, testRequest(t.TempDir()))
	require.ErrorIs(t, err, context.Canceled)
}

func TestRunner_Run_InvalidRequest(t *testing.T) {
	exec := &mockExecutor{found: true}

	_, err := newTestRunner(exec).Run(context.Background(), Request{})
	require.ErrorIs(t, err, ErrInvalidRequest)
	assert.Empty(t, exec.lookedUp, "executable must not be resolved for an invalid request")
}

func TestParseCapture(t *testing.T) {
	for in, want := range map[string]Capture{"": CaptureFile, "file": CaptureFile, "STDOUT": CaptureStdout} {
		got, err := ParseCapture(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := ParseCapture("pipe")
	require.ErrorIs(t, err, ErrUnknownCapture)
}

// SPDX-License-Identifier: EPL-2.0

package carfacnap

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"go.uber.org/zap/zaptest"
	"gonum.org/v1/gonum/mat"

	"github.com/ik5/carfacnap/carfac"
	"github.com/ik5/carfacnap/formats/wav"
)

// installModel writes a shell script standing in for carfac-cmd.
func installModel(t *testing.T, dir, body string) {
	t.Helper()

	if runtime.GOOS == "windows" {
		t.Skip("shell script executable")
	}

	script := "#!/bin/sh\n" + body + "\n"
	if err := os.WriteFile(filepath.Join(dir, carfac.Executable()), []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}
}

func writeInput(t *testing.T, dir string) string {
	t.Helper()

	samples := make([]int16, 2000)
	for i := range samples {
		samples[i] = int16(i % 500)
	}

	path := filepath.Join(dir, "input.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := wav.WriteWAV16(f, 16000, 1, samples); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	return path
}

func TestCochlear_RunsExecutable(t *testing.T) {
	dir := t.TempDir()
	// Record the arguments and emit a fixed 2x3 NAP at <file><suffix>.
	installModel(t, dir, `echo "$@" > "$1.args"
printf '0 1 4\n16 -2 9\n' > "$1$8"`)

	input := writeInput(t, dir)

	opts := DefaultOptions()
	opts.Rate = 16000

	nap, err := Cochlear(context.Background(), input, dir, opts)
	if err != nil {
		t.Fatalf("Cochlear() error = %v", err)
	}

	want := mat.NewDense(2, 3, []float64{0, 0.25, 0.5, 1, 0, 0.75})
	if !mat.EqualApprox(nap, want, 1e-12) {
		t.Errorf("Cochlear() =\n%v\nwant\n%v", mat.Formatted(nap), mat.Formatted(want))
	}

	args, err := os.ReadFile(input + ".args")
	if err != nil {
		t.Fatal(err)
	}
	if got, want := string(args), input+" 2000 1 16000 256 -0.995 1 cochlear\n"; got != want {
		t.Errorf("arguments = %q, want %q", got, want)
	}

	if _, err := os.Stat(input + "-audio.txt"); err != nil {
		t.Errorf("intermediate text file missing: %v", err)
	}
}

func TestCochlear_ExitStatus(t *testing.T) {
	dir := t.TempDir()
	installModel(t, dir, `echo "bad input" >&2
exit 3`)

	opts := DefaultOptions()
	opts.Rate = 16000

	_, err := Cochlear(context.Background(), writeInput(t, dir), dir, opts)

	var exitErr *carfac.ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("Cochlear() error = %v, want *carfac.ExitError", err)
	}
	if exitErr.Code != 3 || exitErr.Stderr != "bad input\n" {
		t.Errorf("ExitError = %+v", exitErr)
	}
}

func TestCochlear_MissingExecutable(t *testing.T) {
	dir := t.TempDir()

	_, err := Cochlear(context.Background(), writeInput(t, dir), dir, DefaultOptions())
	if !errors.Is(err, carfac.ErrExecutableNotFound) {
		t.Errorf("Cochlear() error = %v, want %v", err, carfac.ErrExecutableNotFound)
	}
}

func TestCochlear_StdoutCapture(t *testing.T) {
	dir := t.TempDir()
	// Prints the matrix instead of writing <file><suffix>.
	installModel(t, dir, `printf '4 1\n0 16\n'`)

	opts := DefaultOptions()
	opts.Rate = 16000

	nap, err := Cochlear(context.Background(), writeInput(t, dir), dir, opts,
		carfac.WithCapture(carfac.CaptureStdout),
		carfac.WithLogger(zaptest.NewLogger(t)))
	if err != nil {
		t.Fatalf("Cochlear() error = %v", err)
	}

	want := mat.NewDense(2, 2, []float64{0.5, 0.25, 0, 1})
	if !mat.EqualApprox(nap, want, 1e-12) {
		t.Errorf("Cochlear() =\n%v\nwant\n%v", mat.Formatted(nap), mat.Formatted(want))
	}
}

func TestCochlear_SilentRunDoesNotReuseOldOutput(t *testing.T) {
	dir := t.TempDir()
	input := writeInput(t, dir)

	opts := DefaultOptions()
	opts.Rate = 16000

	installModel(t, dir, `printf '1 2\n' > "$1$8"`)
	if _, err := Cochlear(context.Background(), input, dir, opts); err != nil {
		t.Fatalf("first Cochlear() error = %v", err)
	}

	// Same input, but the executable now exits 0 without writing.
	installModel(t, dir, `exit 0`)
	nap, err := Cochlear(context.Background(), input, dir, opts)
	if !errors.Is(err, carfac.ErrNoOutput) {
		t.Fatalf("second Cochlear() = %v, %v; want %v", nap, err, carfac.ErrNoOutput)
	}
}

// SPDX-License-Identifier: EPL-2.0

package main

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"

	"github.com/ik5/carfacnap/cache"
	"github.com/ik5/carfacnap/carfac"
	"github.com/ik5/carfacnap/dlm"
	"github.com/ik5/carfacnap/internal/pipeline"
)

var runCmd = &cobra.Command{
	Use:   "run <audio files...>",
	Short: "Run the cochlear model and write normalized NAPs",
	Long: `Run decodes each file, resamples it to --rate, applies --db of gain and writes
<file>-audio.txt. It then calls carfac-cmd with the positional arguments

  <file> <samples> <ears> <rate> <stride> <a_1> <apply_filter> <suffix>

reads <file><suffix> and writes the normalized NAP to <file>.nap.txt.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCochlear,
}

// flagKeys maps config keys to the flag names that override them.
var flagKeys = map[string]string{
	"stride":             "stride",
	"rate":               "rate",
	"db":                 "db",
	"ears":               "ears",
	"a_1":                "a1",
	"apply_filter":       "apply-filter",
	"suffix":             "suffix",
	"mono":               "mono",
	"write_wav":          "write-wav",
	"keep_intermediate":  "keep-intermediate",
	"filter.local":       "local-filter",
	"resample.method":    "method",
	"resample.quality":   "quality",
	"executable.dir":     "executable-dir",
	"executable.capture": "capture",
	"cache.path":         "cache",
	"timeout":            "timeout",
	"jobs":               "jobs",
}

// bindFlags points every config key at cmd's flag of the same meaning, if
// cmd defines one. It runs before each command since keys bind to a single
// flag at a time.
func bindFlags(cmd *cobra.Command, _ []string) error {
	for key, name := range flagKeys {
		f := cmd.Flags().Lookup(name)
		if f == nil {
			continue
		}
		if err := viper.BindPFlag(key, f); err != nil {
			return fmt.Errorf("binding --%s: %w", name, err)
		}
	}
	return nil
}

// addPrepareFlags registers the flags that shape the waveform.
func addPrepareFlags(cmd *cobra.Command) {
	f := cmd.Flags()

	f.Int("rate", 44100, "model sample rate in Hz")
	f.Float64("db", -40, "gain applied before the model, in dB")
	f.Bool("mono", false, "downmix to one channel before the model")
	f.String("method", "sinc", "resampling method: sinc or cubic")
	f.String("quality", "veryhigh", "sinc quality: quick, low, medium, high, veryhigh")
}

func init() {
	runCmd.PreRunE = bindFlags
	addPrepareFlags(runCmd)

	f := runCmd.Flags()
	f.Int("stride", 256, "NAP decimation factor")
	f.Int("ears", 1, "number of ears")
	f.Float64("a1", -0.995, "smoothing filter coefficient")
	f.Bool("apply-filter", true, "smooth and decimate the NAP")
	f.String("suffix", "cochlear", "suffix appended to the input name for the model output")
	f.Bool("write-wav", false, "also write <file>-audio.wav")
	f.Bool("keep-intermediate", true, "keep the text, WAV and model output files")
	f.Bool("local-filter", false, "smooth and decimate in-process instead of in the executable")
	f.String("executable-dir", ".", "directory holding carfac-cmd")
	f.String("capture", "file", "model output capture: file or stdout")
	f.String("cache", "", "sqlite NAP cache path (empty disables caching)")
	f.Duration("timeout", 0, "per-file limit on the model run (0 means none)")
	f.IntP("jobs", "j", 1, "files processed concurrently")
	f.StringP("out", "o", "", `output path for a single input, "-" for stdout`)

	rootCmd.AddCommand(runCmd)
}

func runCochlear(cmd *cobra.Command, args []string) error {
	out, _ := cmd.Flags().GetString("out")
	if out != "" && len(args) > 1 {
		return fmt.Errorf("--out needs exactly one input file, got %d", len(args))
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	opts, err := pipeline.FromConfig(cfg)
	if err != nil {
		return err
	}

	capture, err := carfac.ParseCapture(cfg.Executable.Capture)
	if err != nil {
		return err
	}

	runner := carfac.NewRunner(
		carfac.WithDir(cfg.Executable.Dir),
		carfac.WithCapture(capture),
		carfac.WithLogger(logger),
	)
	if _, err := runner.Resolve(); err != nil {
		return err
	}

	pipeOpts := []pipeline.Option{pipeline.WithLogger(logger)}
	if cfg.Cache.Path != "" {
		c, err := cache.Open(cfg.Cache.Path)
		if err != nil {
			return err
		}
		defer c.Close()
		pipeOpts = append(pipeOpts, pipeline.WithCache(c))
	}

	p, err := pipeline.New(opts, runner, pipeOpts...)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	naps, err := p.RunBatch(ctx, args, cfg.Jobs)
	if err != nil {
		return err
	}

	for i, file := range args {
		dst := out
		if dst == "" {
			dst = file + ".nap.txt"
		}

		if err := writeNAP(cmd, dst, naps[i]); err != nil {
			return err
		}

		logger.Info("wrote NAP", zap.String("input", file), zap.String("output", dst))
	}

	return nil
}

func writeNAP(cmd *cobra.Command, dst string, m *mat.Dense) error {
	if dst == "-" {
		return dlm.Write(cmd.OutOrStdout(), m, dlm.Options{})
	}
	return dlm.WriteFile(dst, m, dlm.Options{})
}

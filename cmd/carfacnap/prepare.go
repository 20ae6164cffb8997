// SPDX-License-Identifier: EPL-2.0

package main

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/ik5/carfacnap/carfac"
	"github.com/ik5/carfacnap/formats/wav"
	"github.com/ik5/carfacnap/internal/pipeline"
	"github.com/ik5/carfacnap/utils"
)

var prepareCmd = &cobra.Command{
	Use:   "prepare <audio file>",
	Short: "Write the waveform the model would receive as 16-bit WAV",
	Long: `Prepare decodes, resamples and scales the input exactly as run does, without
calling carfac-cmd, and writes the result as 16-bit PCM WAV to
<file>-audio.wav or --out ("-" for stdout).`,
	Args: cobra.ExactArgs(1),
	RunE: runPrepare,
}

func init() {
	prepareCmd.PreRunE = bindFlags
	addPrepareFlags(prepareCmd)
	prepareCmd.Flags().StringP("out", "o", "", `output path, "-" for stdout`)

	rootCmd.AddCommand(prepareCmd)
}

func runPrepare(cmd *cobra.Command, args []string) error {
	out, _ := cmd.Flags().GetString("out")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	opts, err := pipeline.FromConfig(cfg)
	if err != nil {
		return err
	}

	p, err := pipeline.New(opts, carfac.NewRunner(), pipeline.WithLogger(logger))
	if err != nil {
		return err
	}

	signal, err := p.Prepare(args[0])
	if err != nil {
		return err
	}

	raw := signal.RawMatrix()
	peak := max(floats.Max(raw.Data), -floats.Min(raw.Data))
	if peak > 1 {
		logger.Warn("waveform clips at 16 bits", zap.Float64("peak_dbfs", utils.AmplitudeToDB(peak)))
	}

	if out == "" {
		out = pipeline.AudioWAVPath(args[0])
	}
	if err := writeWAV(cmd, out, opts.Rate, signal); err != nil {
		return err
	}

	frames, channels := signal.Dims()
	logger.Info("wrote waveform",
		zap.String("input", args[0]),
		zap.String("output", out),
		zap.Int("frames", frames),
		zap.Int("channels", channels),
		zap.Float64("peak_dbfs", utils.AmplitudeToDB(peak)))

	return nil
}

func writeWAV(cmd *cobra.Command, dst string, rate int, m *mat.Dense) error {
	raw := m.RawMatrix()
	pcm := make([]int16, 0, raw.Rows*raw.Cols)
	for i := range raw.Rows {
		for _, v := range m.RawRowView(i) {
			pcm = append(pcm, utils.Float32ToInt16(float32(v)))
		}
	}

	var w io.Writer = cmd.OutOrStdout()
	if dst != "-" {
		f, err := os.Create(dst)
		if err != nil {
			return fmt.Errorf("%w", err)
		}
		defer f.Close()
		w = f
	}

	bw := bufio.NewWriter(w)
	if err := wav.WriteWAV16(bw, rate, raw.Cols, pcm); err != nil {
		return fmt.Errorf("%s: %w", dst, err)
	}

	return bw.Flush()
}

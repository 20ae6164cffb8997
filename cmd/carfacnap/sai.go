// SPDX-License-Identifier: EPL-2.0

package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"

	"github.com/ik5/carfacnap/dlm"
	"github.com/ik5/carfacnap/sai"
)

var saiCmd = &cobra.Command{
	Use:   "sai <nap.txt>",
	Short: "Compute stabilized auditory image frames from a NAP",
	Long: `Sai reads a time x channel NAP and runs it through the stabilized auditory
image in segments of --hop frames. Each image (channels x width) is written
as one line, channel by channel, to <nap.txt>.sai.txt.`,
	Args: cobra.ExactArgs(1),
	RunE: runSAI,
}

func init() {
	f := saiCmd.Flags()

	def := sai.DefaultParams(0)
	f.Int("width", def.Width, "lags in each image")
	f.Int("window-width", def.WindowWidth, "trigger search window in frames")
	f.Int("window-pos", def.NumWindowPos, "trigger windows per segment")
	f.Int("future-lags", def.FutureLags, "lags kept ahead of the trigger")
	f.Int("hop", 0, "frames per segment (default: window-width / 2)")
	f.StringP("out", "o", "", `output path, "-" for stdout`)

	rootCmd.AddCommand(saiCmd)
}

func runSAI(cmd *cobra.Command, args []string) error {
	f := cmd.Flags()

	width, _ := f.GetInt("width")
	windowWidth, _ := f.GetInt("window-width")
	windowPos, _ := f.GetInt("window-pos")
	futureLags, _ := f.GetInt("future-lags")
	hop, _ := f.GetInt("hop")
	out, _ := f.GetString("out")

	nap, err := dlm.ReadFile(args[0], dlm.Options{})
	if err != nil {
		return err
	}
	_, channels := nap.Dims()

	params := sai.Params{
		NumChannels:  channels,
		Width:        width,
		WindowWidth:  windowWidth,
		NumWindowPos: windowPos,
		FutureLags:   futureLags,
	}
	if hop == 0 {
		hop = max(1, windowWidth/2)
	}

	images, err := sai.Frames(nap, params, hop)
	if err != nil {
		return fmt.Errorf("%s: %w", args[0], err)
	}

	flat := mat.NewDense(len(images), channels*width, nil)
	for i, img := range images {
		row := flat.RawRowView(i)
		for ch := range channels {
			copy(row[ch*width:(ch+1)*width], img.RawRowView(ch))
		}
	}

	if out == "" {
		out = args[0] + ".sai.txt"
	}
	if err := writeNAP(cmd, out, flat); err != nil {
		return err
	}

	logger.Info("wrote SAI",
		zap.String("input", args[0]),
		zap.String("output", out),
		zap.Int("frames", len(images)),
		zap.Int("channels", channels))

	return nil
}

// SPDX-License-Identifier: EPL-2.0

// Package pipeline turns an audio file into a normalized NAP by way of the
// external cochlear model.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"

	"github.com/ik5/carfacnap/audio"
	"github.com/ik5/carfacnap/cache"
	"github.com/ik5/carfacnap/carfac"
	"github.com/ik5/carfacnap/dlm"
	"github.com/ik5/carfacnap/formats"
	"github.com/ik5/carfacnap/formats/wav"
	"github.com/ik5/carfacnap/nap"
	"github.com/ik5/carfacnap/utils"
)

const readBufSize = 8192

// ErrDuplicateInput is returned by RunBatch when a file is listed twice.
// Both runs would share intermediate and output names.
var ErrDuplicateInput = errors.New("input listed more than once")

// ModelRunner runs the cochlear model for one request.
type ModelRunner interface {
	Run(ctx context.Context, req carfac.Request) (carfac.Result, error)
}

// Pipeline is safe for concurrent use on distinct files.
type Pipeline struct {
	opts     Options
	runner   ModelRunner
	registry *audio.Registry
	cache    *cache.Cache
	logger   *zap.Logger
}

type Option func(*Pipeline)

func WithRegistry(r *audio.Registry) Option {
	return func(p *Pipeline) { p.registry = r }
}

// WithCache enables result caching. A nil cache disables it.
func WithCache(c *cache.Cache) Option {
	return func(p *Pipeline) { p.cache = c }
}

func WithLogger(l *zap.Logger) Option {
	return func(p *Pipeline) { p.logger = l }
}

func New(opts Options, runner ModelRunner, options ...Option) (*Pipeline, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	p := &Pipeline{
		opts:     opts,
		runner:   runner,
		registry: formats.NewRegistry(),
		logger:   zap.NewNop(),
	}

	for _, o := range options {
		o(p)
	}

	return p, nil
}

// Intermediate file names derived from the input filename.
func AudioTextPath(filename string) string { return filename + "-audio.txt" }
func AudioWAVPath(filename string) string  { return filename + "-audio.wav" }

// Cochlear decodes filename, prepares the waveform, runs the model and
// returns the normalized NAP (time x channel, values in [0, 1]).
func (p *Pipeline) Cochlear(ctx context.Context, filename string) (*mat.Dense, error) {
	log := p.logger.With(zap.String("file", filename))

	key, err := p.cacheKey(filename)
	if err != nil {
		return nil, err
	}

	if key != "" {
		m, ok, err := p.cache.Get(ctx, key)
		if err != nil {
			log.Warn("cache lookup failed", zap.Error(err))
		}
		if ok {
			log.Debug("cache hit", zap.String("key", key))
			return m, nil
		}
	}

	signal, err := p.Prepare(filename)
	if err != nil {
		return nil, err
	}

	frames, channels := signal.Dims()
	log.Debug("prepared waveform",
		zap.Int("frames", frames),
		zap.Int("channels", channels),
		zap.Int("rate", p.opts.Rate),
		zap.Float64("db", p.opts.DB))

	written, err := p.writeIntermediate(filename, signal)
	if !p.opts.KeepIntermediate {
		defer removeAll(log, written...)
	}
	if err != nil {
		return nil, err
	}

	runCtx := ctx
	if p.opts.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, p.opts.Timeout)
		defer cancel()
	}

	req := carfac.Request{
		Filename:    filename,
		NumSamples:  frames,
		Ears:        p.opts.Ears,
		SampleRate:  p.opts.Rate,
		Stride:      p.opts.Stride,
		A1:          p.opts.A1,
		ApplyFilter: p.opts.ApplyFilter && !p.opts.LocalFilter,
		Suffix:      p.opts.Suffix,
	}

	res, err := p.runner.Run(runCtx, req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	if !p.opts.KeepIntermediate {
		defer removeAll(log, res.OutputPath)
	}

	raw, err := dlm.ReadFile(res.OutputPath, dlm.Options{})
	if err != nil {
		return nil, err
	}

	if p.opts.LocalFilter && p.opts.ApplyFilter {
		if raw, err = nap.Postprocess(raw, p.opts.A1, p.opts.Stride); err != nil {
			return nil, fmt.Errorf("%s: %w", filename, err)
		}
	}

	out, err := nap.Normalize(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}

	stats := nap.Summarize(out)
	log.Info("NAP ready",
		zap.Int("frames", stats.Frames),
		zap.Int("channels", stats.Channels),
		zap.Float64("mean", stats.Mean),
		zap.Duration("model", res.Duration))

	if key != "" {
		if err := p.cache.Put(ctx, key, out); err != nil {
			log.Warn("cache store failed", zap.Error(err))
		}
	}

	return out, nil
}

func (p *Pipeline) cacheKey(filename string) (string, error) {
	if p.cache == nil {
		return "", nil
	}

	digest, err := cache.DigestFile(filename)
	if err != nil {
		return "", err
	}

	return cache.Key(digest, p.opts.cacheParams())
}

// Prepare decodes, resamples, scales and optionally downmixes filename,
// returning the frames x channels waveform the model would receive.
func (p *Pipeline) Prepare(filename string) (*mat.Dense, error) {
	src, err := formats.Open(p.registry, filename)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	if src.SampleRate() != p.opts.Rate {
		p.logger.Debug("resampling",
			zap.String("file", filename),
			zap.Int("from", src.SampleRate()),
			zap.Int("to", p.opts.Rate),
			zap.String("method", string(p.opts.Method)))
	}

	stage, err := audio.Resample(src, p.opts.Rate, p.opts.Method, p.opts.Quality)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}

	if p.opts.Mono {
		stage = audio.NewMonoMixer(stage)
	}

	m, err := audio.ReadAll(stage, readBufSize)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}

	audio.ApplyGain(m, p.opts.DB)

	return m, nil
}

// writeIntermediate writes the text matrix and optionally a WAV copy. It
// returns the paths it created, even on error.
func (p *Pipeline) writeIntermediate(filename string, signal *mat.Dense) ([]string, error) {
	var written []string

	txt := AudioTextPath(filename)
	if err := dlm.WriteFile(txt, signal, dlm.Options{}); err != nil {
		return written, err
	}
	written = append(written, txt)

	if !p.opts.WriteWAV {
		return written, nil
	}

	raw := signal.RawMatrix()
	pcm := make([]int16, 0, raw.Rows*raw.Cols)
	for i := range raw.Rows {
		for _, v := range signal.RawRowView(i) {
			pcm = append(pcm, utils.Float64ToInt16(v))
		}
	}

	path := AudioWAVPath(filename)
	f, err := os.Create(path)
	if err != nil {
		return written, fmt.Errorf("%w", err)
	}
	written = append(written, path)

	if err := wav.Encode(f, p.opts.Rate, raw.Cols, pcm); err != nil {
		f.Close()
		return written, fmt.Errorf("%s: %w", path, err)
	}

	if err := f.Close(); err != nil {
		return written, fmt.Errorf("%w", err)
	}

	return written, nil
}

func removeAll(log *zap.Logger, paths ...string) {
	for _, path := range paths {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			log.Warn("removing intermediate file", zap.String("path", path), zap.Error(err))
		}
	}
}

// RunBatch processes files concurrently, at most jobs at a time, and
// returns the NAPs in input order. The first failure cancels the rest.
func (p *Pipeline) RunBatch(ctx context.Context, files []string, jobs int) ([]*mat.Dense, error) {
	if jobs < 1 {
		jobs = 1
	}

	if err := checkDistinct(files); err != nil {
		return nil, err
	}

	out := make([]*mat.Dense, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)

	for i, file := range files {
		g.Go(func() error {
			m, err := p.Cochlear(gctx, file)
			if err != nil {
				return err
			}
			out[i] = m
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("%w", err)
	}

	return out, nil
}

func checkDistinct(files []string) error {
	seen := make(map[string]int, len(files))
	for i, file := range files {
		key, err := filepath.Abs(file)
		if err != nil {
			key = filepath.Clean(file)
		}
		if j, ok := seen[key]; ok {
			return fmt.Errorf("%w: %s (arguments %d and %d)", ErrDuplicateInput, file, j+1, i+1)
		}
		seen[key] = i
	}
	return nil
}

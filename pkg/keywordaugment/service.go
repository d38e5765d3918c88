package keywordaugment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/himanishpuri/KeywordAugment/pkg/keywordaugment/audio"
	"github.com/himanishpuri/KeywordAugment/pkg/keywordaugment/catalog"
	"github.com/himanishpuri/KeywordAugment/pkg/logger"
	"github.com/himanishpuri/KeywordAugment/pkg/utils"
)

// augmentService is the default implementation of the Service interface.
type augmentService struct {
	config    *Config
	log       Logger
	decoder   Decoder
	effects   EffectSource
	rand      audio.Random
	overlayer *audio.Overlayer
	distorter *audio.Distorter
	observer  Observer
}

func NewService(opts ...Option) (Service, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.SamplesPerEffect < 1 {
		return nil, fmt.Errorf("samples per effect must be positive, got %d", cfg.SamplesPerEffect)
	}
	if cfg.MinGain < 0 || cfg.MaxGain <= cfg.MinGain {
		return nil, fmt.Errorf("invalid gain range [%g, %g)", cfg.MinGain, cfg.MaxGain)
	}

	// Set default logger if none provided
	if cfg.Logger == nil {
		cfg.Logger = logger.GetLogger()
	}
	if cfg.Random == nil {
		cfg.Random = audio.NewRandom(0)
	}
	if cfg.Resampler == nil {
		cfg.Resampler = audio.LinearResampler{}
	}
	if cfg.Decoder == nil {
		cfg.Decoder = audio.NewDecoder(audio.DecoderConfig{
			FFmpegPath:    cfg.FFmpegPath,
			TempDir:       cfg.TempDir,
			DisableFFmpeg: cfg.DisableFFmpeg,
		})
	}
	if cfg.Effects == nil {
		cfg.Effects = catalog.NewDirSource(cfg.EffectsDir, cfg.Decoder, cfg.Logger)
	}
	if cfg.Observer == nil {
		cfg.Observer = nopObserver{}
	}

	overlayer := audio.NewOverlayer(cfg.Random, cfg.Resampler)
	overlayer.MinGain = cfg.MinGain
	overlayer.MaxGain = cfg.MaxGain

	return &augmentService{
		config:    cfg,
		log:       cfg.Logger,
		decoder:   cfg.Decoder,
		effects:   cfg.Effects,
		rand:      cfg.Random,
		overlayer: overlayer,
		distorter: audio.NewDistorter(cfg.Random, cfg.Resampler),
		observer:  cfg.Observer,
	}, nil
}

func (s *augmentService) GenerateDuplicates(ctx context.Context, recordings []Recording) (*Result, error) {
	return s.run(ctx, recordings, false)
}

func (s *augmentService) BuildDataset(ctx context.Context, recordings []Recording) (*Result, error) {
	return s.run(ctx, recordings, true)
}

func (s *augmentService) run(ctx context.Context, recordings []Recording, withOriginals bool) (*Result, error) {
	report := &Report{RunID: utils.GenerateRunID(), Started: time.Now()}
	result := &Result{Report: report}
	defer func() { report.Elapsed = time.Since(report.Started) }()

	s.log.Infof("Starting duplication run %s for %d recordings", report.RunID, len(recordings))

	// 1. Load the background catalog once for the whole run
	cat, err := s.effects.Load(ctx)
	if cat != nil {
		report.Effects = cat.Names()
		report.AssetErrors = cat.Failed
	}
	if err != nil {
		if errors.Is(err, ErrCatalogEmpty) {
			s.log.Errorf("No background effects loaded, run %s produces nothing", report.RunID)
			return result, err
		}
		return result, fmt.Errorf("failed to load background effects: %w", err)
	}

	// 2. Group by label, then run the passes label by label. Rate-converted
	// effects live only as long as this run's catalog.
	conformed := audio.NewEffectCache()
	for _, batch := range groupByLabel(recordings) {
		res := LabelResult{Label: batch.label, Originals: len(batch.recordings)}
		if err := ctx.Err(); err != nil {
			res.Err = err
			report.Labels = append(report.Labels, res)
			continue
		}

		out, res := s.processLabel(ctx, batch, cat, conformed, withOriginals)
		if res.Err != nil {
			s.log.Errorf("Label %q failed: %v", batch.label, res.Err)
		}
		if withOriginals && res.Err == nil {
			report.Canonical += res.Originals - countPass(res.Failures, PassCanonical)
		}
		result.Recordings = append(result.Recordings, out...)
		report.Labels = append(report.Labels, res)
	}

	s.log.Infof("Run %s finished: %d recordings, %d failures", report.RunID, len(result.Recordings), report.Failures())
	return result, nil
}

type labelBatch struct {
	label      string
	recordings []Recording
}

// groupByLabel keeps labels in order of first appearance and takes in input
// order within each label.
func groupByLabel(recordings []Recording) []labelBatch {
	var batches []labelBatch
	index := make(map[string]int)
	for _, rec := range recordings {
		i, ok := index[rec.Label]
		if !ok {
			i = len(batches)
			index[rec.Label] = i
			batches = append(batches, labelBatch{label: rec.Label})
		}
		batches[i].recordings = append(batches[i].recordings, rec)
	}
	return batches
}

type operation struct {
	pass   Pass
	take   int
	effect *catalog.Effect
}

// plan lays out every operation of a label in output order: originals (when
// requested), then the overlay, distort and overlay+distort passes.
func (s *augmentService) plan(n int, cat *catalog.Catalog, withOriginals bool) []operation {
	var ops []operation
	if withOriginals {
		for i := 0; i < n; i++ {
			ops = append(ops, operation{pass: PassCanonical, take: i})
		}
	}
	overlayPass := func(pass Pass) {
		for e := range cat.Effects {
			for _, i := range sampleTakes(s.rand, n, s.config.SamplesPerEffect) {
				ops = append(ops, operation{pass: pass, take: i, effect: &cat.Effects[e]})
			}
		}
	}
	overlayPass(PassOverlay)
	for i := 0; i < n; i++ {
		ops = append(ops, operation{pass: PassDistort, take: i})
	}
	overlayPass(PassOverlayDistort)
	return ops
}

// sampleTakes shuffles the indices [0, n) and keeps the first k.
func sampleTakes(r audio.Random, n, k int) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	r.Shuffle(n, func(i, j int) { idx[i], idx[j] = idx[j], idx[i] })
	if k < n {
		idx = idx[:k]
	}
	return idx
}

func (s *augmentService) processLabel(
	ctx context.Context,
	batch labelBatch,
	cat *catalog.Catalog,
	conformed *audio.EffectCache,
	withOriginals bool,
) (out []Recording, res LabelResult) {
	start := time.Now()
	res = LabelResult{Label: batch.label, Originals: len(batch.recordings)}

	defer func() {
		if r := recover(); r != nil {
			res.Err = fmt.Errorf("panic while processing label %q: %v", batch.label, r)
		}
		if res.Err != nil {
			// a failed label contributes nothing
			out = nil
			res.Overlay, res.Distort, res.OverlayDistort = 0, 0, 0
		}
		res.Elapsed = time.Since(start)
		s.observer.LabelFinished(res)
	}()

	s.log.Infof("Processing label %q (%d takes)", batch.label, len(batch.recordings))

	ops := s.plan(len(batch.recordings), cat, withOriginals)
	s.observer.LabelStarted(batch.label, len(ops))

	takes := newTakeCache(s.decoder, batch.recordings)
	for _, op := range ops {
		if err := ctx.Err(); err != nil {
			res.Err = err
			return nil, res
		}

		rec := batch.recordings[op.take]
		opStart := time.Now()
		data, err := s.execute(ctx, takes, conformed, op)
		s.observer.OperationDone(batch.label, op.pass, err, time.Since(opStart))
		if err != nil {
			opErr := &OperationError{Label: batch.label, Take: rec.Take, Pass: op.pass, Err: err}
			if op.effect != nil {
				opErr.Effect = op.effect.Name
			}
			s.log.Warnf("Skipping %v", opErr)
			res.Failures = append(res.Failures, opErr)
			continue
		}

		if op.pass != PassCanonical {
			res.count(op.pass)
		}
		out = append(out, Recording{
			Label: batch.label,
			Take:  rec.Take.With(op.pass.Stages()...),
			Audio: data,
		})
	}

	if len(batch.recordings) > 0 && takes.decoded() == 0 {
		res.Err = fmt.Errorf("label %q: %w", batch.label, ErrNoUsableTakes)
		return nil, res
	}

	s.log.Infof("Label %q: %d overlay, %d distort, %d overlay+distort", batch.label, res.Overlay, res.Distort, res.OverlayDistort)
	return out, res
}

func (s *augmentService) execute(ctx context.Context, takes *takeCache, conformed *audio.EffectCache, op operation) ([]byte, error) {
	buf, err := takes.get(ctx, op.take)
	if err != nil {
		return nil, err
	}

	switch op.pass {
	case PassCanonical:
		return audio.EncodeWAV(buf)

	case PassOverlay:
		mixed, gain, err := s.overlayer.Apply(buf, op.effect.Buffer, conformed)
		if err != nil {
			return nil, err
		}
		s.log.Debugf("Overlaid %s at gain %.2f", op.effect.Name, gain)
		return audio.EncodeWAV(mixed)

	case PassDistort:
		distorted, rate, err := s.distorter.Apply(buf)
		if err != nil {
			return nil, err
		}
		s.log.Debugf("Distorted at playback rate %.2f", rate)
		return audio.EncodeWAV(distorted)

	case PassOverlayDistort:
		mixed, gain, err := s.overlayer.Apply(buf, op.effect.Buffer, conformed)
		if err != nil {
			return nil, err
		}
		// the overlaid take is materialized as a canonical recording before
		// it is distorted
		intermediate, err := audio.EncodeWAV(mixed)
		if err != nil {
			return nil, err
		}
		reloaded, err := audio.DecodeWAV(intermediate)
		if err != nil {
			return nil, err
		}
		distorted, rate, err := s.distorter.Apply(reloaded)
		if err != nil {
			return nil, err
		}
		s.log.Debugf("Overlaid %s at gain %.2f then distorted at rate %.2f", op.effect.Name, gain, rate)
		return audio.EncodeWAV(distorted)

	default:
		return nil, fmt.Errorf("unknown pass %d", op.pass)
	}
}

// takeCache decodes each take of a label at most once.
type takeCache struct {
	decoder    Decoder
	recordings []Recording
	buffers    []*audio.SampleBuffer
	errs       []error
	done       []bool
}

func newTakeCache(dec Decoder, recordings []Recording) *takeCache {
	return &takeCache{
		decoder:    dec,
		recordings: recordings,
		buffers:    make([]*audio.SampleBuffer, len(recordings)),
		errs:       make([]error, len(recordings)),
		done:       make([]bool, len(recordings)),
	}
}

func (c *takeCache) get(ctx context.Context, i int) (*audio.SampleBuffer, error) {
	if !c.done[i] {
		c.buffers[i], c.errs[i] = c.decoder.Decode(ctx, c.recordings[i].Audio)
		c.done[i] = true
	}
	return c.buffers[i], c.errs[i]
}

func (c *takeCache) decoded() int {
	n := 0
	for i := range c.buffers {
		if c.done[i] && c.errs[i] == nil {
			n++
		}
	}
	return n
}

func countPass(errs []error, pass Pass) int {
	n := 0
	for _, err := range errs {
		var opErr *OperationError
		if errors.As(err, &opErr) && opErr.Pass == pass {
			n++
		}
	}
	return n
}

package keywordaugment

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/himanishpuri/KeywordAugment/pkg/keywordaugment/audio"
	"github.com/himanishpuri/KeywordAugment/pkg/keywordaugment/catalog"
	"github.com/himanishpuri/KeywordAugment/pkg/logger"
)

const testRate = 16000

func toneWAV(t *testing.T, frames int, freq float64) []byte {
	t.Helper()
	buf := audio.NewSampleBuffer(testRate, 1, frames)
	for i := range buf.Channels[0] {
		buf.Channels[0][i] = float32(0.4 * math.Sin(2*math.Pi*freq*float64(i)/testRate))
	}
	data, err := audio.EncodeWAV(buf)
	require.NoError(t, err)
	return data
}

func effectAssets(t *testing.T, n int) []catalog.Asset {
	t.Helper()
	assets := make([]catalog.Asset, n)
	for i := range assets {
		assets[i] = catalog.Asset{Name: fmt.Sprintf("effect%d.wav", i+1), Data: toneWAV(t, 8000, 100*float64(i+1))}
	}
	return assets
}

func takes(t *testing.T, label string, n, frames int) []Recording {
	t.Helper()
	recs := make([]Recording, n)
	for i := range recs {
		recs[i] = Recording{Label: label, Take: OriginalTake(i + 1), Audio: toneWAV(t, frames, 440)}
	}
	return recs
}

func quietLogger() *logger.Logger {
	cfg := logger.DefaultConfig()
	cfg.Level = logger.FATAL
	return logger.New(cfg)
}

func newTestService(t *testing.T, assets []catalog.Asset, opts ...Option) Service {
	t.Helper()
	dec := audio.NewDecoder(audio.DecoderConfig{DisableFFmpeg: true})
	base := []Option{
		WithLogger(quietLogger()),
		WithSeed(7),
		WithDecoder(dec),
		WithEffectSource(&catalog.BytesSource{Assets: assets, Decoder: dec}),
	}
	svc, err := NewService(append(base, opts...)...)
	require.NoError(t, err)
	return svc
}

func countTags(recs []Recording) map[string]int {
	counts := make(map[string]int)
	for _, r := range recs {
		suffix := "original"
		if !r.Take.IsOriginal() {
			suffix = r.Take.Tag()
		}
		counts[r.Label+"/"+suffix]++
	}
	return counts
}

// drawLog records every Float64 draw of the wrapped source.
type drawLog struct {
	r     audio.Random
	draws []float64
}

func (d *drawLog) Float64() float64 {
	v := d.r.Float64()
	d.draws = append(d.draws, v)
	return v
}

func (d *drawLog) Shuffle(n int, swap func(i, j int)) { d.r.Shuffle(n, swap) }

// playbackRate replays Distorter.PickRate on two recorded draws.
func playbackRate(choice, u float64) float64 {
	if choice < 0.5 {
		return audio.Uniform(constDraw(u), audio.FastRateMin, audio.FastRateMax)
	}
	return audio.Uniform(constDraw(u), audio.SlowRateMin, audio.SlowRateMax)
}

type constDraw float64

func (c constDraw) Float64() float64 { return float64(c) }
func (c constDraw) Shuffle(n int, swap func(i, j int)) {}

func TestGenerateDuplicatesThreeTakes(t *testing.T) {
	draws := &drawLog{r: audio.NewRandom(11)}
	svc := newTestService(t, effectAssets(t, 5), WithRandom(draws))
	// one second per take
	recs := takes(t, "yes", 3, testRate)

	result, err := svc.GenerateDuplicates(context.Background(), recs)
	require.NoError(t, err)
	require.Len(t, result.Recordings, 33)

	counts := countTags(result.Recordings)
	assert.Equal(t, 15, counts["yes/bg"])
	assert.Equal(t, 3, counts["yes/distort"])
	assert.Equal(t, 15, counts["yes/bg_distort"])

	// draw order: 15 overlay gains, then (window, rate) per distort, then
	// (gain, window, rate) per overlay+distort
	require.Len(t, draws.draws, 15+3*2+15*3)
	var rates []float64
	for k := 0; k < 3; k++ {
		rates = append(rates, playbackRate(draws.draws[15+2*k], draws.draws[16+2*k]))
	}
	for j := 0; j < 15; j++ {
		base := 21 + 3*j
		rates = append(rates, playbackRate(draws.draws[base+1], draws.draws[base+2]))
	}

	next := 0
	for i, r := range result.Recordings {
		assert.Equal(t, "yes", r.Label)
		assert.Contains(t, []int{1, 2, 3}, r.Take.Base)

		buf, err := audio.DecodeWAV(r.Audio)
		require.NoError(t, err)
		assert.Equal(t, testRate, buf.SampleRate)

		switch r.Take.Tag() {
		case "bg":
			assert.Equal(t, testRate, buf.Len(), "recording %d", i)
		case "distort", "bg_distort":
			rate := rates[next]
			next++
			inWindow := (rate >= audio.FastRateMin && rate < audio.FastRateMax) ||
				(rate >= audio.SlowRateMin && rate < audio.SlowRateMax)
			assert.True(t, inWindow, "rate %v", rate)
			assert.Equal(t, int(math.Ceil(testRate/rate)), buf.Len(), "recording %d at rate %v", i, rate)
		}
	}
	assert.Equal(t, len(rates), next)

	label, ok := result.Report.Label("yes")
	require.True(t, ok)
	assert.True(t, label.OK())
	assert.Equal(t, 33, label.Derived())
	assert.Len(t, result.Report.Effects, 5)
	assert.NotEmpty(t, result.Report.RunID)
}

func TestGenerateDuplicatesSamplesFourPerEffect(t *testing.T) {
	svc := newTestService(t, effectAssets(t, 5))

	result, err := svc.GenerateDuplicates(context.Background(), takes(t, "stop", 10, 1600))
	require.NoError(t, err)

	counts := countTags(result.Recordings)
	assert.Equal(t, 20, counts["stop/bg"])
	assert.Equal(t, 10, counts["stop/distort"])
	assert.Equal(t, 20, counts["stop/bg_distort"])

	// within one effect the four sampled takes are distinct
	for e := 0; e < 5; e++ {
		seen := make(map[int]bool)
		for _, r := range result.Recordings[e*4 : e*4+4] {
			assert.False(t, seen[r.Take.Base], "take %d sampled twice for effect %d", r.Take.Base, e)
			seen[r.Take.Base] = true
		}
	}
}

func TestGenerateDuplicatesPassOrderAndLabelOrder(t *testing.T) {
	svc := newTestService(t, effectAssets(t, 1))
	a := takes(t, "go", 2, 800)
	b := takes(t, "up", 1, 800)
	input := []Recording{b[0], a[0], a[1]}

	result, err := svc.GenerateDuplicates(context.Background(), input)
	require.NoError(t, err)

	var got []string
	for _, r := range result.Recordings {
		got = append(got, r.Label+":"+r.Take.Tag())
	}
	assert.Equal(t, []string{
		"up:bg", "up:distort", "up:bg_distort",
		"go:bg", "go:bg", "go:distort", "go:distort", "go:bg_distort", "go:bg_distort",
	}, got)
}

func TestGenerateDuplicatesContainsLabelFailures(t *testing.T) {
	svc := newTestService(t, effectAssets(t, 5))
	healthy := takes(t, "yes", 2, 1600)
	corrupt := []Recording{
		{Label: "no", Take: OriginalTake(1), Audio: []byte("not audio")},
		{Label: "no", Take: OriginalTake(2), Audio: []byte("RIFF....WAVEjunk")},
	}

	result, err := svc.GenerateDuplicates(context.Background(), append(corrupt, healthy...))
	require.NoError(t, err)

	counts := countTags(result.Recordings)
	assert.Equal(t, 10, counts["yes/bg"])
	assert.Equal(t, 2, counts["yes/distort"])
	assert.Equal(t, 10, counts["yes/bg_distort"])
	assert.Zero(t, counts["no/bg"]+counts["no/distort"]+counts["no/bg_distort"])

	no, ok := result.Report.Label("no")
	require.True(t, ok)
	assert.ErrorIs(t, no.Err, ErrNoUsableTakes)
	require.NotEmpty(t, no.Failures)
	assert.ErrorIs(t, no.Failures[0], ErrDecode)
	var opErr *OperationError
	require.ErrorAs(t, no.Failures[0], &opErr)
	assert.Equal(t, "no", opErr.Label)

	yes, ok := result.Report.Label("yes")
	require.True(t, ok)
	assert.True(t, yes.OK())
	assert.Equal(t, 22, result.Report.Derived())
}

func TestGenerateDuplicatesSkipsSingleBadTake(t *testing.T) {
	svc := newTestService(t, effectAssets(t, 2))
	recs := takes(t, "left", 2, 1600)
	recs = append(recs, Recording{Label: "left", Take: OriginalTake(3), Audio: []byte("broken")})

	result, err := svc.GenerateDuplicates(context.Background(), recs)
	require.NoError(t, err)

	label, _ := result.Report.Label("left")
	require.NoError(t, label.Err)
	assert.Equal(t, 2, label.Distort)
	assert.Equal(t, 2*3, label.Overlay+len(failuresFor(label, PassOverlay)))
	for _, r := range result.Recordings {
		assert.NotEqual(t, 3, r.Take.Base)
	}
}

func failuresFor(l *LabelResult, pass Pass) []error {
	var out []error
	for _, err := range l.Failures {
		var opErr *OperationError
		if errors.As(err, &opErr) && opErr.Pass == pass {
			out = append(out, err)
		}
	}
	return out
}

func TestGenerateDuplicatesEmptyCatalog(t *testing.T) {
	svc := newTestService(t, []catalog.Asset{{Name: "effect1.wav", Data: []byte("bad")}})

	result, err := svc.GenerateDuplicates(context.Background(), takes(t, "yes", 3, 800))
	assert.ErrorIs(t, err, ErrCatalogEmpty)
	require.NotNil(t, result)
	assert.Empty(t, result.Recordings)
	assert.Len(t, result.Report.AssetErrors, 1)
	assert.ErrorIs(t, result.Report.AssetErrors[0], ErrAssetLoad)
}

func TestGenerateDuplicatesPartialCatalog(t *testing.T) {
	assets := effectAssets(t, 3)
	assets[1].Data = []byte("bad")
	svc := newTestService(t, assets)

	result, err := svc.GenerateDuplicates(context.Background(), takes(t, "on", 5, 800))
	require.NoError(t, err)

	counts := countTags(result.Recordings)
	assert.Equal(t, 8, counts["on/bg"])
	assert.Equal(t, 8, counts["on/bg_distort"])
	assert.Equal(t, []string{"effect1.wav", "effect3.wav"}, result.Report.Effects)
}

func TestBuildDatasetIncludesOriginals(t *testing.T) {
	svc := newTestService(t, effectAssets(t, 1))
	recs := takes(t, "yes", 2, 800)
	recs = append(recs, takes(t, "no", 1, 800)...)

	result, err := svc.BuildDataset(context.Background(), recs)
	require.NoError(t, err)

	counts := countTags(result.Recordings)
	assert.Equal(t, 2, counts["yes/original"])
	assert.Equal(t, 1, counts["no/original"])
	assert.Equal(t, 3, result.Report.Canonical)

	// originals lead each label's block
	assert.True(t, result.Recordings[0].Take.IsOriginal())
	assert.True(t, result.Recordings[1].Take.IsOriginal())
	assert.Equal(t, recs[0].Audio, result.Recordings[0].Audio)
}

func TestGenerateDuplicatesCancelled(t *testing.T) {
	svc := newTestService(t, effectAssets(t, 1))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := svc.GenerateDuplicates(ctx, takes(t, "yes", 2, 800))
	// effects cannot load on a cancelled context
	assert.ErrorIs(t, err, ErrCatalogEmpty)
	assert.Empty(t, result.Recordings)
}

type recordingObserver struct {
	mu       sync.Mutex
	planned  map[string]int
	done     map[Pass]int
	failed   int
	finished []LabelResult
}

func (o *recordingObserver) LabelStarted(label string, ops int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.planned[label] = ops
}

func (o *recordingObserver) OperationDone(label string, pass Pass, err error, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.done[pass]++
	if err != nil {
		o.failed++
	}
}

func (o *recordingObserver) LabelFinished(res LabelResult) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.finished = append(o.finished, res)
}

func TestObserverSeesEveryOperation(t *testing.T) {
	obs := &recordingObserver{planned: map[string]int{}, done: map[Pass]int{}}
	svc := newTestService(t, effectAssets(t, 2), WithObserver(Observers{obs}))

	_, err := svc.GenerateDuplicates(context.Background(), takes(t, "yes", 3, 800))
	require.NoError(t, err)

	assert.Equal(t, 2*3+3+2*3, obs.planned["yes"])
	assert.Equal(t, 6, obs.done[PassOverlay])
	assert.Equal(t, 3, obs.done[PassDistort])
	assert.Equal(t, 6, obs.done[PassOverlayDistort])
	assert.Zero(t, obs.failed)
	require.Len(t, obs.finished, 1)
	assert.Equal(t, 15, obs.finished[0].Derived())
}

// effectConversions counts resampler calls that convert an effect recorded
// at from Hz.
type effectConversions struct {
	mu    sync.Mutex
	from  float64
	calls int
}

func (e *effectConversions) Resample(in []float32, from, to float64) ([]float32, error) {
	e.mu.Lock()
	if from == e.from {
		e.calls++
	}
	e.mu.Unlock()
	return audio.LinearResampler{}.Resample(in, from, to)
}

func TestRateConvertedEffectsLiveForOneRun(t *testing.T) {
	buf := audio.NewSampleBuffer(8000, 1, 4000)
	for i := range buf.Channels[0] {
		buf.Channels[0][i] = 0.2
	}
	effect, err := audio.EncodeWAV(buf)
	require.NoError(t, err)

	res := &effectConversions{from: 8000}
	svc := newTestService(t, []catalog.Asset{{Name: "effect1.wav", Data: effect}}, WithResampler(res))

	for run := 1; run <= 2; run++ {
		result, err := svc.GenerateDuplicates(context.Background(), takes(t, "yes", 2, 1600))
		require.NoError(t, err)
		require.Len(t, result.Recordings, 2+2+2)

		// the overlay passes share one conversion, the next run's fresh
		// catalog needs its own
		assert.Equal(t, run, res.calls)
	}
}

func TestSampleTakes(t *testing.T) {
	r := audio.NewRandom(1)
	for n := 0; n < 8; n++ {
		got := sampleTakes(r, n, 4)
		assert.Len(t, got, min(n, 4))
		seen := make(map[int]bool)
		for _, i := range got {
			assert.False(t, seen[i])
			assert.True(t, i >= 0 && i < n)
			seen[i] = true
		}
	}
}

func TestNewServiceValidatesOptions(t *testing.T) {
	_, err := NewService(WithSamplesPerEffect(0), WithLogger(quietLogger()))
	assert.Error(t, err)

	_, err = NewService(WithGainRange(0.7, 0.3), WithLogger(quietLogger()))
	assert.Error(t, err)
}

func TestReportSummary(t *testing.T) {
	r := &Report{
		RunID:   "abcd1234",
		Effects: []string{"effect1.wav"},
		Labels: []LabelResult{
			{Label: "yes", Originals: 3, Overlay: 3, Distort: 3, OverlayDistort: 3},
			{Label: "no", Originals: 1, Err: ErrNoUsableTakes},
		},
	}
	s := r.Summary()
	assert.Contains(t, s, "run abcd1234")
	assert.Contains(t, s, "9 derived")
	assert.Contains(t, s, "failed: no decodable takes")
	assert.Equal(t, 1, r.Failures())
}

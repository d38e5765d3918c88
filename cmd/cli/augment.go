package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/himanishpuri/KeywordAugment/internal/metrics"
	"github.com/himanishpuri/KeywordAugment/pkg/keywordaugment"
	"github.com/himanishpuri/KeywordAugment/pkg/keywordaugment/export"
	"github.com/himanishpuri/KeywordAugment/pkg/logger"
)

var (
	augmentOutput      string
	augmentOutDir      string
	augmentEffects     string
	augmentSamples     int
	augmentResampler   string
	augmentSeed        uint64
	augmentMetrics     string
	augmentNoProgress  bool
	augmentOnlyDerived bool
)

var augmentCmd = &cobra.Command{
	Use:   "augment <captures-dir>",
	Short: "Build an augmented dataset from <label>_<take> captures",
	Long: `Reads every <label>_<take>.<ext> capture in a directory, runs the overlay,
distort and overlay+distort passes per label and writes the originals plus all
derived recordings as <label>_<n>.wav, either into a zip archive or a directory.`,
	Args: cobra.ExactArgs(1),
	Run:  runAugment,
}

func init() {
	f := augmentCmd.Flags()
	f.StringVarP(&augmentOutput, "output", "o", "dataset.zip", "Zip archive to write")
	f.StringVar(&augmentOutDir, "out-dir", "", "Write WAV files into this directory instead of a zip")
	f.StringVar(&augmentEffects, "effects", "", "Directory holding effect1.wav..effect5.wav")
	f.IntVar(&augmentSamples, "samples-per-effect", 0, "Takes sampled per effect in the overlay passes")
	f.StringVar(&augmentResampler, "resampler", "", "linear, soxr or soxr-<quality>")
	f.Uint64Var(&augmentSeed, "seed", 0, "Seed for reproducible runs")
	f.StringVar(&augmentMetrics, "metrics-file", "", "Write Prometheus metrics to this textfile")
	f.BoolVar(&augmentNoProgress, "no-progress", false, "Disable progress bars")
	f.BoolVar(&augmentOnlyDerived, "derived-only", false, "Leave the original takes out of the output")
}

// applyAugmentFlags lets explicit flags win over the config file.
func applyAugmentFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	if f.Changed("effects") {
		cfg.EffectsDir = augmentEffects
	}
	if f.Changed("samples-per-effect") {
		cfg.Augment.SamplesPerEffect = augmentSamples
	}
	if f.Changed("resampler") {
		cfg.Augment.Resampler = augmentResampler
	}
	if f.Changed("seed") {
		cfg.Augment.Seed = augmentSeed
	}
	if f.Changed("metrics-file") {
		cfg.MetricsFile = augmentMetrics
	}
}

func runAugment(cmd *cobra.Command, args []string) {
	log := logger.GetLogger()
	capturesDir := args[0]

	applyAugmentFlags(cmd)
	if err := cfg.Validate(); err != nil {
		fail("Invalid configuration", err)
	}

	fmt.Printf("📂 Reading captures from %s...\n", capturesDir)
	recordings, skipped, err := export.LoadCaptures(capturesDir)
	if err != nil {
		fail("Failed to read captures", err)
	}
	for _, name := range skipped {
		log.Warnf("Skipping %s: not a <label>_<take> capture", name)
	}
	if len(recordings) == 0 {
		fail("Nothing to augment", errors.New("no captures found"))
	}
	fmt.Printf("   Found %d take(s)\n", len(recordings))

	m := metrics.NewMetrics()
	observers := keywordaugment.Observers{m}
	var progress *progressObserver
	if !augmentNoProgress {
		progress = newProgressObserver(os.Stdout)
		observers = append(observers, progress)
	}

	fmt.Println("\n🔧 Initializing service...")
	svc, err := createService(
		keywordaugment.WithDecoder(newDecoder()),
		keywordaugment.WithObserver(observers),
	)
	if err != nil {
		fail("Failed to create service", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Println("🎛️  Generating duplicates...")
	var result *keywordaugment.Result
	if augmentOnlyDerived {
		result, err = svc.GenerateDuplicates(ctx, recordings)
	} else {
		result, err = svc.BuildDataset(ctx, recordings)
	}
	if progress != nil {
		progress.Wait()
	}
	if result != nil {
		m.RecordReport(result.Report)
		writeMetrics(m)
	}
	if err != nil {
		fail("Augmentation failed", err)
	}

	entries := export.Arrange(result.Recordings)
	if augmentOutDir != "" {
		err = export.WriteDir(augmentOutDir, entries)
	} else {
		err = export.WriteZipFile(augmentOutput, entries)
	}
	if err != nil {
		fail("Failed to write dataset", err)
	}

	report := result.Report
	fmt.Printf("\n✅ Wrote %d recording(s)\n", len(entries))
	if augmentOutDir != "" {
		fmt.Printf("   Directory: %s\n", augmentOutDir)
	} else {
		fmt.Printf("   Archive:   %s\n", augmentOutput)
	}
	fmt.Printf("   Originals: %d\n", report.Canonical)
	fmt.Printf("   Derived:   %d\n", report.Derived())
	if n := report.Failures(); n > 0 {
		fmt.Printf("   ⚠️  %d operation(s) skipped, see log\n", n)
	}
	fmt.Println()
	fmt.Print(report.Summary())
	log.Infof("Run %s wrote %d recordings", report.RunID, len(entries))
}

func writeMetrics(m *metrics.Metrics) {
	if cfg.MetricsFile == "" {
		return
	}
	if err := m.WriteTextfile(cfg.MetricsFile); err != nil {
		logger.GetLogger().Warnf("Failed to write metrics to %s: %v", cfg.MetricsFile, err)
		return
	}
	logger.GetLogger().Infof("Metrics written to %s", cfg.MetricsFile)
}

package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/himanishpuri/KeywordAugment/pkg/keywordaugment/analysis"
	"github.com/himanishpuri/KeywordAugment/pkg/keywordaugment/audio"
	"github.com/himanishpuri/KeywordAugment/pkg/logger"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <audio_file>",
	Short: "Decode a recording and print its format and levels",
	Args:  cobra.ExactArgs(1),
	Run:   runInspect,
}

// decodeFile reads and decodes one recording with the configured decoder.
func decodeFile(ctx context.Context, path string) (*audio.SampleBuffer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return newDecoder().Decode(ctx, data)
}

func runInspect(cmd *cobra.Command, args []string) {
	log := logger.GetLogger()
	path := args[0]
	log.Infof("Inspecting audio file: %s", path)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	fmt.Println("🔍 Analyzing audio file...")
	buf, err := decodeFile(ctx, path)
	if err != nil {
		fail("Failed to decode audio", err)
	}

	st, err := analysis.Measure(buf.Mono(), buf.SampleRate)
	if err != nil {
		fail("Failed to measure audio", err)
	}

	fmt.Printf("\n🎵 %s\n", filepath.Base(path))
	fmt.Printf("   Sample rate: %d Hz\n", buf.SampleRate)
	fmt.Printf("   Channels:    %d\n", buf.NumChannels())
	fmt.Printf("   Frames:      %d\n", st.Frames)
	fmt.Printf("   Duration:    %.3fs\n", st.DurationSec)
	fmt.Printf("   Peak:        %.3f (%.1f dBFS)\n", st.Peak, st.PeakDBFS)
	fmt.Printf("   RMS:         %.3f (%.1f dBFS)\n", st.RMS, st.RMSDBFS)
	if st.ClippedRatio > 0 {
		fmt.Printf("   Clipped:     %.2f%%\n", st.ClippedRatio*100)
	}
	if st.DominantHz > 0 {
		fmt.Printf("   Dominant:    %.0f Hz\n", st.DominantHz)
	}

	info, err := audio.ContainerReader{Path: cfg.FFprobePath}.Read(ctx, path)
	if err != nil {
		log.Warnf("Container details unavailable: %v", err)
		return
	}
	fmt.Printf("\n📋 Container: %s (codec %s)\n", info.Container, info.Codec)
	if info.Encoder != "" {
		fmt.Printf("   Encoder:     %s\n", info.Encoder)
	}
	if info.BitDepth > 0 {
		fmt.Printf("   Bit depth:   %d\n", info.BitDepth)
	}
	for k, v := range info.Tags {
		if k != "encoder" {
			fmt.Printf("   %s: %s\n", k, v)
		}
	}
	// one 20 ms frame of slack covers codec priming and padding
	for _, d := range info.Discrepancies(buf, 20*time.Millisecond) {
		fmt.Printf("   ⚠️  %s\n", d)
	}
}

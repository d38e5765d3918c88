package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/himanishpuri/KeywordAugment/pkg/keywordaugment/analysis"
	"github.com/himanishpuri/KeywordAugment/pkg/logger"
)

var (
	spectrogramOutput string
	spectrogramWidth  int
	spectrogramHeight int
	spectrogramLog10  bool
)

var spectrogramCmd = &cobra.Command{
	Use:   "spectrogram <audio_file>",
	Short: "Render a PNG spectrogram of a recording",
	Args:  cobra.ExactArgs(1),
	Run:   runSpectrogram,
}

func init() {
	f := spectrogramCmd.Flags()
	f.StringVarP(&spectrogramOutput, "output", "o", "", "PNG path (default: <audio_file>.png)")
	f.IntVar(&spectrogramWidth, "width", 2048, "Image width in pixels")
	f.IntVar(&spectrogramHeight, "height", 512, "Image height in pixels (frequency bins)")
	f.BoolVar(&spectrogramLog10, "log10", false, "Use a logarithmic magnitude scale")
}

func runSpectrogram(cmd *cobra.Command, args []string) {
	log := logger.GetLogger()
	path := args[0]

	out := spectrogramOutput
	if out == "" {
		out = strings.TrimSuffix(path, filepath.Ext(path)) + ".png"
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	buf, err := decodeFile(ctx, path)
	if err != nil {
		fail("Failed to decode audio", err)
	}
	fmt.Printf("Read %d samples at %d Hz\n", buf.Len(), buf.SampleRate)

	opts := analysis.RenderOptions{Width: spectrogramWidth, Height: spectrogramHeight, Log10: spectrogramLog10}
	if err := analysis.SavePNG(out, buf.Mono(), buf.SampleRate, opts); err != nil {
		fail("Failed to render spectrogram", err)
	}

	fmt.Printf("✅ Saved spectrogram to %s\n", out)
	log.Infof("Spectrogram of %s written to %s", path, out)
}

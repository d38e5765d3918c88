package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/himanishpuri/KeywordAugment/internal/config"
	"github.com/himanishpuri/KeywordAugment/pkg/keywordaugment"
	"github.com/himanishpuri/KeywordAugment/pkg/keywordaugment/audio"
	"github.com/himanishpuri/KeywordAugment/pkg/logger"
)

// Global flags
var (
	configPath string
	logLevel   string
	tempDir    string

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "keyaug",
	Short: "Keyword recording augmentation",
	Long: `keyaug multiplies a small set of keyword recordings into a training dataset
by mixing in background effects and changing playback speed.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("log-level") {
			cfg.Logging.Level = logLevel
		}
		if cmd.Flags().Changed("temp") {
			cfg.TempDir = tempDir
		}
		logger.Configure(cfg.LoggerConfig())
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", os.Getenv("KEYAUG_CONFIG"), "Path to a YAML config file (env: KEYAUG_CONFIG)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level: debug, info, warn or error")
	rootCmd.PersistentFlags().StringVar(&tempDir, "temp", os.TempDir(), "Directory for temporary transcoding files")

	rootCmd.AddCommand(augmentCmd, inspectCmd, spectrogramCmd)
}

// createService creates a new augmentation service from the loaded config
func createService(extra ...keywordaugment.Option) (keywordaugment.Service, error) {
	opts, err := cfg.ServiceOptions()
	if err != nil {
		return nil, err
	}
	opts = append(opts, keywordaugment.WithLogger(logger.GetLogger()))
	return keywordaugment.NewService(append(opts, extra...)...)
}

func newDecoder() *audio.Decoder {
	return audio.NewDecoder(audio.DecoderConfig{
		FFmpegPath: cfg.FFmpegPath,
		TempDir:    cfg.TempDir,
	})
}

func main() {
	printBanner()

	if err := rootCmd.Execute(); err != nil {
		fmt.Printf("❌ %v\n", err)
		os.Exit(1)
	}
}

func printBanner() {
	banner := `
 _  __          _
| |/ /___ _   _/ \  _   _  __ _
| ' // _ \ | | / _ \| | | |/ _' |
| . \  __/ |_| / ___ \ |_| | (_| |
|_|\_\___|\__, /_/   \_\__,_|\__, |
          |___/              |___/
       Keyword Augmentation CLI
`
	fmt.Println(banner)
}

// fail reports err to the terminal and the log, then exits.
func fail(msg string, err error) {
	fmt.Printf("\n❌ %s: %v\n", msg, err)
	logger.GetLogger().Errorf("%s: %v", msg, err)
	os.Exit(1)
}

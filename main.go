package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"imagevariants/config"
	"imagevariants/imageprocessor"
	"imagevariants/imageprocessor/opencv"
	"imagevariants/logging"
	"imagevariants/processor"
	"imagevariants/signalhandler"
)

var rootCmd = &cobra.Command{
	Use:   "imagevariants",
	Short: "Generate responsive WebP and JPEG variants of blog post images",
	Long: `imagevariants walks ` + config.SourceDir + ` and writes thumbnail, small,
medium and large WebP and JPEG copies next to every source image.

Environment:
  ` + config.EnvDebug + `     write a debug log (true/false)
  ` + config.EnvLogFile + `  debug log path (default ` + config.DefaultLogFile + `)
  ` + config.EnvManifest + `  run manifest path, empty to disable (default ` + config.DefaultManifestPath + `)`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run()
	},
}

func main() {
	err := rootCmd.Execute()
	if err != nil {
		logging.LogFatal("%v", err)
	}
	logging.CloseLogger()
	if err != nil {
		os.Exit(1)
	}
}

func run() error {
	cfg := config.DefaultConfig()
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if cfg.Debug {
		if err := logging.SetupLogger(cfg.LogFile); err != nil {
			logging.LogWarning("Failed to setup logging: %v", err)
		}
	}
	if logging.IsDebug() {
		logging.LogInfo("Debug mode enabled. Logging to: %s", cfg.LogFile)
	}

	stop := signalhandler.SetupHandler()
	defer stop()

	meta := imageprocessor.NewMetadataReader()
	defer meta.Close()

	registry := imageprocessor.NewCodecRegistry(
		opencv.NewCodec(meta),
		imageprocessor.NewNativeCodec(meta),
	)
	codec, err := registry.Select()
	if err != nil {
		return err
	}
	logging.DebugLog("Selected codec %s from %v", codec.Name(), registry.Names())

	stats, err := processor.Run(&cfg, codec)
	if err != nil {
		var se *processor.SourceError
		if errors.As(err, &se) {
			logging.DebugLog("Run stopped at %s after %d sources", se.Path, stats.Processed)
		}
		return err
	}
	return nil
}

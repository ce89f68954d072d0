package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go.uber.org/zap"

	"snow-texture-generator/internal/batch"
	"snow-texture-generator/internal/composite"
	"snow-texture-generator/internal/config"
	"snow-texture-generator/internal/filter"
	"snow-texture-generator/internal/logger"
	"snow-texture-generator/internal/pipeline"
	"snow-texture-generator/internal/preview"
	"snow-texture-generator/internal/texture"
)

func main() {
	os.Exit(run())
}

func run() int {
	var flags config.Flags
	flags.Register(flag.CommandLine)
	flag.Parse()

	cfg, err := config.Load(flags.ConfigPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		return 1
	}
	if err := cfg.Resolve(flags); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.File); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logger: %v\n", err)
		return 1
	}
	defer logger.Sync()
	log := logger.Log

	lists := cfg.FilterLists()
	paths, err := filter.DiscoverAssets(cfg.Paths.Input, lists)
	if err != nil {
		log.Error("discovery failed", zap.String("input", cfg.Paths.Input), zap.Error(err))
		return 1
	}
	if len(paths) == 0 {
		fmt.Println("No asset configs to process.")
		return 0
	}

	env := pipeline.Environment{
		DataRoot:     cfg.Paths.DataRoot,
		ExtractedDir: cfg.Paths.Extracted,
		OutDir:       cfg.Paths.Output,
		Filters:      lists,
		Codec:        texture.NewFileCodec(cfg.Format()),
		Meshes:       pipeline.FileMeshes{},
		Defaults:     texture.NewDefaults(),
		Noise:        composite.NewNoise(cfg.Render.NoiseSize, cfg.Render.NoiseSeed),
		Log:          logger.Named("pipeline"),
	}
	if cfg.Policy.SaveRenderings {
		env.Preview = preview.New(preview.Options{Size: cfg.Render.PreviewSize, Supersample: cfg.Render.Supersample})
	}
	proc := pipeline.NewProcessor(env, pipeline.Policy{
		FlatOverwritesSteep: cfg.Policy.FlatOverwritesSteep,
		SaveNonPrimary:      cfg.Policy.SaveNonPrimary,
		SavePNG:             cfg.Policy.SavePNG,
		SaveCompressed:      cfg.Policy.SaveCompressed,
		SaveRenderings:      cfg.Policy.SaveRenderings,
		Wrap:                cfg.WrapPolicy(),
	})

	fmt.Println("Snow texture generator")
	fmt.Printf("Input:  %s\n", cfg.Paths.Input)
	fmt.Printf("Output: %s (%s)\n", cfg.Paths.Output, cfg.Format())
	fmt.Printf("Assets: %d, Workers: %d\n", len(paths), cfg.Batch.Workers)
	fmt.Println("------------------------------------------------------------")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	summary := batch.Run(ctx, batch.Config{
		Workers:          cfg.Batch.Workers,
		ProgressInterval: time.Duration(cfg.Batch.ProgressSeconds) * time.Second,
		Log:              logger.Named("batch"),
	}, proc, paths)

	printSummary(summary)

	reportPath := filepath.Join(cfg.Paths.Output, "report.json")
	if err := batch.WriteReport(reportPath, summary); err != nil {
		log.Warn("report write failed", zap.String("path", reportPath), zap.Error(err))
	} else {
		fmt.Printf("Report: %s\n", reportPath)
	}

	if summary.Errored > 0 || summary.Canceled {
		return 1
	}
	return 0
}

func printSummary(s batch.Summary) {
	fmt.Println("------------------------------------------------------------")
	fmt.Printf("Done in %.1fs", s.Duration.Seconds())
	if s.Canceled {
		fmt.Print(" (canceled)")
	}
	fmt.Println()
	fmt.Printf("Processed: %d, Succeeded: %d, Skipped: %d, Errored: %d\n",
		s.Processed, s.Succeeded, s.Skipped, s.Errored)

	if len(s.Failed) > 0 {
		fmt.Printf("\nFailed (%d):\n", len(s.Failed))
		for _, f := range s.Failed {
			fmt.Printf("  %s [%s]: %s\n", f.Asset, f.Kind, f.Message)
		}
	}
}

// Package batch runs the asset pipeline over many configuration files.
package batch

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"snow-texture-generator/internal/pipeline"
)

// AssetRunner processes one configuration file.
type AssetRunner interface {
	Process(ctx context.Context, path string) pipeline.Report
}

// Config holds the batch settings.
type Config struct {
	Workers          int
	ProgressInterval time.Duration // 0 disables progress lines
	Log              *zap.Logger
}

// Failure identifies one errored asset.
type Failure struct {
	Asset   string
	Kind    pipeline.ErrorKind
	Message string
}

// Summary is the outcome of a batch run.
type Summary struct {
	Processed int
	Succeeded int
	Skipped   int
	Errored   int
	Canceled  bool
	Failed    []Failure
	Reports   []pipeline.Report
	Duration  time.Duration
}

// Run processes every path with a pool of workers. Cancellation stops
// new assets from starting; an asset already past its cancellation check
// completes. Reports keep the order of paths. Assets never started, or
// that returned a canceled report, are left out.
func Run(ctx context.Context, cfg Config, runner AssetRunner, paths []string) Summary {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	log := cfg.Log
	if log == nil {
		log = zap.NewNop()
	}

	total := len(paths)
	reports := make([]pipeline.Report, total)
	started := make([]bool, total)
	var processed atomic.Int64
	start := time.Now()

	done := make(chan struct{})
	if cfg.ProgressInterval > 0 {
		go func() {
			ticker := time.NewTicker(cfg.ProgressInterval)
			defer ticker.Stop()
			for {
				select {
				case <-done:
					return
				case <-ticker.C:
					if p := processed.Load(); p > 0 {
						rate := float64(p) / time.Since(start).Seconds()
						log.Info("progress",
							zap.Int64("done", p),
							zap.Int("total", total),
							zap.Float64("assets_per_sec", rate))
					}
				}
			}
		}()
	}

	work := make(chan int, cfg.Workers*2)
	var wg sync.WaitGroup
	for w := 0; w < cfg.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range work {
				if ctx.Err() != nil {
					continue
				}
				rep := runOne(ctx, runner, paths[idx], log)
				if rep.Kind() == pipeline.KindCanceled {
					continue
				}
				started[idx] = true
				reports[idx] = rep
				processed.Add(1)
			}
		}()
	}

feed:
	for i := range paths {
		select {
		case <-ctx.Done():
			break feed
		case work <- i:
		}
	}
	close(work)
	wg.Wait()
	close(done)

	s := Summary{Canceled: ctx.Err() != nil}
	for i, r := range reports {
		if !started[i] {
			continue
		}
		s.Reports = append(s.Reports, r)
		s.Processed++
		switch {
		case r.Err != nil:
			s.Errored++
			s.Failed = append(s.Failed, Failure{Asset: r.Asset, Kind: r.Kind(), Message: r.Err.Error()})
		case r.Skipped:
			s.Skipped++
		default:
			s.Succeeded++
		}
	}
	s.Duration = time.Since(start)
	return s
}

// runOne processes one asset, turning a panic into an asset error.
func runOne(ctx context.Context, runner AssetRunner, path string, log *zap.Logger) (rep pipeline.Report) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("asset panicked",
				zap.String("asset", path),
				zap.Any("panic", r),
				zap.ByteString("stack", debug.Stack()))
			rep = pipeline.Report{Asset: path, Err: fmt.Errorf("batch: panic: %v", r)}
		}
	}()
	log.Info("processing asset", zap.String("asset", path))
	rep = runner.Process(ctx, path)
	if rep.Asset == "" {
		rep.Asset = path
	}
	return rep
}

package batch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"snow-texture-generator/internal/pipeline"
	"snow-texture-generator/internal/rdm"
)

// scripted returns reports keyed by the name of the asset.
type scripted struct {
	mu    sync.Mutex
	calls  []string
	after  func(path string)
	cancel context.CancelFunc
}

func (s *scripted) Process(_ context.Context, path string) pipeline.Report {
	s.mu.Lock()
	s.calls = append(s.calls, path)
	s.mu.Unlock()
	if s.after != nil {
		defer s.after(path)
	}
	switch {
	case strings.HasPrefix(path, "panic"):
		panic("corrupt state")
	case strings.HasPrefix(path, "bad"):
		return pipeline.Report{Asset: path, Err: fmt.Errorf("load: %w", rdm.ErrMalformed)}
	case strings.HasPrefix(path, "late"):
		s.cancel()
		return pipeline.Report{Asset: path, Err: fmt.Errorf("asset: %w", context.Canceled)}
	case strings.HasPrefix(path, "vanilla"):
		return pipeline.Report{Asset: path, Success: true, Skipped: true}
	}
	return pipeline.Report{Asset: path, Success: true, Written: 2}
}

func TestRunSummary(t *testing.T) {
	paths := []string{"a.cfg", "bad.cfg", "vanilla.cfg", "panic.cfg", "b.cfg"}
	for _, workers := range []int{1, 3} {
		t.Run(fmt.Sprintf("workers=%d", workers), func(t *testing.T) {
			s := Run(context.Background(), Config{Workers: workers}, &scripted{}, paths)
			if s.Processed != 5 || s.Succeeded != 2 || s.Skipped != 1 || s.Errored != 2 {
				t.Errorf("summary = %+v", s)
			}
			if s.Canceled {
				t.Error("summary marked canceled")
			}
			if len(s.Failed) != 2 {
				t.Fatalf("failed = %+v", s.Failed)
			}
			if s.Failed[0].Asset != "bad.cfg" || s.Failed[0].Kind != pipeline.KindMalformed {
				t.Errorf("failed[0] = %+v", s.Failed[0])
			}
			if s.Failed[1].Asset != "panic.cfg" || s.Failed[1].Kind != pipeline.KindInternal {
				t.Errorf("failed[1] = %+v", s.Failed[1])
			}
			for i, r := range s.Reports {
				if r.Asset != paths[i] {
					t.Errorf("report %d is %s, want %s", i, r.Asset, paths[i])
				}
			}
		})
	}
}

func TestRunLogsPanic(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	Run(context.Background(), Config{Log: zap.New(core)}, &scripted{}, []string{"panic.cfg"})
	if logs.FilterMessage("asset panicked").Len() != 1 {
		t.Errorf("logs = %v", logs.All())
	}
}

func TestRunStopsBetweenAssets(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	r := &scripted{after: func(string) { cancel() }}

	s := Run(ctx, Config{Workers: 1}, r, []string{"a.cfg", "b.cfg", "c.cfg", "d.cfg"})
	if !s.Canceled {
		t.Error("summary not marked canceled")
	}
	if s.Processed != 1 || len(r.calls) != 1 {
		t.Errorf("processed %d assets, calls %v", s.Processed, r.calls)
	}
	if s.Reports[0].Asset != "a.cfg" || s.Reports[0].Err != nil {
		t.Errorf("first report = %+v", s.Reports[0])
	}
}

func TestRunDropsAssetsCanceledAtStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	r := &scripted{cancel: cancel}

	s := Run(ctx, Config{Workers: 1}, r, []string{"a.cfg", "late.cfg", "b.cfg"})
	if !s.Canceled {
		t.Error("summary not marked canceled")
	}
	if s.Processed != 1 || s.Succeeded != 1 || s.Errored != 0 || len(s.Failed) != 0 {
		t.Errorf("summary = %+v", s)
	}
	if len(s.Reports) != 1 || s.Reports[0].Asset != "a.cfg" {
		t.Errorf("reports = %+v", s.Reports)
	}
}

func TestRunEmpty(t *testing.T) {
	s := Run(context.Background(), Config{Workers: 4}, &scripted{}, nil)
	if s.Processed != 0 || len(s.Reports) != 0 {
		t.Errorf("summary = %+v", s)
	}
}

func TestWriteReport(t *testing.T) {
	s := Summary{
		Processed: 3, Succeeded: 1, Skipped: 1, Errored: 1,
		Reports: []pipeline.Report{
			{Asset: "a.cfg", Success: true, Written: 2, Warnings: errors.New("encode failed")},
			{Asset: "v.cfg", Success: true, Skipped: true},
			{Asset: "bad.cfg", Err: rdm.ErrMalformed, Messages: []string{"bad header"}},
		},
	}
	path := filepath.Join(t.TempDir(), "out", "report.json")
	if err := WriteReport(path, s); err != nil {
		t.Fatalf("WriteReport: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var got ReportFile
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("report is not JSON: %v", err)
	}
	if got.Processed != 3 || got.Errored != 1 || len(got.Assets) != 3 {
		t.Fatalf("report = %+v", got)
	}
	want := []struct {
		status, kind string
		warnings     int
	}{
		{StatusOK, "", 1},
		{StatusSkipped, "", 0},
		{StatusFailed, string(pipeline.KindMalformed), 0},
	}
	for i, w := range want {
		a := got.Assets[i]
		if a.Status != w.status || a.Kind != w.kind || a.Warnings != w.warnings {
			t.Errorf("asset %d = %+v, want %+v", i, a, w)
		}
	}
}

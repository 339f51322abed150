package convert

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// BatchResult collects per-input outcomes of Batch.
type BatchResult struct {
	Results []*Result
	Failed  map[string]error
}

// Discover lists the .shp and .zip files directly inside dir, sorted by name.
func Discover(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, eris.Wrapf(err, "convert: read directory %s", dir)
	}

	var inputs []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".shp", ".zip":
			inputs = append(inputs, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(inputs)
	return inputs, nil
}

// OutputPath maps an input to <outDir>/<base>.geojson.
func OutputPath(input, outDir string) string {
	base := filepath.Base(input)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(outDir, base+".geojson")
}

// Batch converts every input into outDir using base for the shared options.
// Each conversion runs independently; failures are collected rather than
// aborting the others. At most concurrency conversions run at once. An input
// whose output path is already claimed by an earlier input fails without
// being converted.
func Batch(ctx context.Context, inputs []string, outDir string, base Options, concurrency int) (*BatchResult, error) {
	if concurrency < 1 {
		concurrency = 1
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, eris.Wrapf(err, "convert: create output dir %s", outDir)
	}

	log := zap.L().With(zap.String("component", "convert.batch"))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	var (
		mu        sync.Mutex
		succeeded atomic.Int64
		out       = &BatchResult{Failed: make(map[string]error)}
	)

	claimed := make(map[string]string, len(inputs))
	for _, input := range inputs {
		output := OutputPath(input, outDir)
		key := strings.ToLower(filepath.Clean(output))
		if first, ok := claimed[key]; ok {
			err := eris.Errorf("convert: output %s already written from %s", output, first)
			log.Error("duplicate output", zap.String("input", input), zap.Error(err))
			out.Failed[input] = err
			continue
		}
		claimed[key] = input

		g.Go(func() error {
			opts := base
			opts.Input = input
			opts.Output = output

			res, err := Run(gctx, opts)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				log.Error("conversion failed", zap.String("input", input), zap.Error(err))
				out.Failed[input] = err
				return nil
			}
			succeeded.Add(1)
			out.Results = append(out.Results, res)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, eris.Wrap(err, "convert: batch")
	}

	sort.Slice(out.Results, func(i, j int) bool { return out.Results[i].Input < out.Results[j].Input })
	log.Info("batch complete",
		zap.Int("inputs", len(inputs)),
		zap.Int64("succeeded", succeeded.Load()),
		zap.Int("failed", len(out.Failed)),
	)

	if err := ctx.Err(); err != nil {
		return out, eris.Wrap(err, "convert: batch cancelled")
	}
	return out, nil
}

// Command txclassify reads a JSON transaction fixture and prints the
// classification result as JSON. It is a thin CLI shell over
// pkg/classifier: all decision logic lives in the library.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"runtime"
	"sync"

	"github.com/chainreceipt/txclassify/pkg/chainconfig"
	"github.com/chainreceipt/txclassify/pkg/chaintypes"
	"github.com/chainreceipt/txclassify/pkg/classifier"
	"github.com/chainreceipt/txclassify/pkg/obslog"
)

// fixture is the on-disk shape consumed by the CLI: one transaction's full
// classification input. A batch file is a JSON array of these.
type fixture struct {
	ChainID  uint64                 `json:"chainId"`
	Tx       chaintypes.Transaction `json:"transaction"`
	Receipt  chaintypes.Receipt     `json:"receipt"`
	Internal chaintypes.InternalTx  `json:"internalTrace"`
}

func main() {
	var (
		configPath = flag.String("config", "", "optional chain configuration YAML override")
		workers    = flag.Int("workers", runtime.NumCPU(), "worker pool size for batch input")
		debug      = flag.Bool("debug", false, "include the per-rule debug trace in output")
		cacheSize  = flag.Int("cache-size", classifier.DefaultCacheSize, "bounded result cache size")
	)
	flag.Parse()

	log := obslog.Default().WithComponent("cmd/txclassify")

	registry := chainconfig.Default()
	if *configPath != "" {
		loaded, err := chainconfig.Load(*configPath)
		if err != nil {
			log.Error("failed to load chain configuration", "path", *configPath, "error", err)
			os.Exit(1)
		}
		registry = loaded
	}

	raw, err := io.ReadAll(os.Stdin)
	if err != nil {
		log.Error("failed to read stdin", "error", err)
		os.Exit(1)
	}

	fixtures, err := parseFixtures(raw)
	if err != nil {
		log.Error("failed to parse input", "error", err)
		os.Exit(1)
	}

	c := classifier.New(registry, classifier.NewCache(*cacheSize))
	ctx := context.Background()
	if *debug {
		ctx = classifier.WithDebug(ctx)
	}

	results := runBatch(ctx, c, fixtures, *workers)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if len(fixtures) == 1 {
		if err := enc.Encode(results[0]); err != nil {
			log.Error("failed to encode result", "error", err)
			os.Exit(1)
		}
		return
	}
	if err := enc.Encode(results); err != nil {
		log.Error("failed to encode results", "error", err)
		os.Exit(1)
	}
}

// parseFixtures accepts either a single fixture object or a JSON array of
// fixtures.
func parseFixtures(raw []byte) ([]fixture, error) {
	var batch []fixture
	if err := json.Unmarshal(raw, &batch); err == nil {
		return batch, nil
	}
	var single fixture
	if err := json.Unmarshal(raw, &single); err != nil {
		return nil, fmt.Errorf("input is neither a fixture object nor a fixture array: %w", err)
	}
	return []fixture{single}, nil
}

// runBatch fans fixtures out across a bounded worker pool and collects
// results in input order, since the classifier itself makes no ordering
// promises across goroutines but callers expect positional correspondence
// with their input.
func runBatch(ctx context.Context, c *classifier.Classifier, fixtures []fixture, workers int) []chaintypes.ClassificationResult {
	if workers < 1 {
		workers = 1
	}
	results := make([]chaintypes.ClassificationResult, len(fixtures))

	jobs := make(chan int)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				f := fixtures[idx]
				results[idx] = c.Classify(ctx, f.Tx, f.Receipt, f.Internal, f.ChainID)
			}
		}()
	}
	for i := range fixtures {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	return results
}

package stageprof

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"runtime/pprof"
	"time"

	"github.com/example/go-qa-prep/internal/batch"
	"github.com/example/go-qa-prep/internal/config"
	"github.com/example/go-qa-prep/internal/dataset"
	"github.com/example/go-qa-prep/internal/hub"
	"github.com/example/go-qa-prep/internal/pipeline"
	"github.com/example/go-qa-prep/internal/tokenizer"
	"github.com/example/go-qa-prep/internal/vocab"
)

type timings struct {
	load      time.Duration
	tokenize  time.Duration
	pack      time.Duration
	total     time.Duration
	documents int
	tokens    int64
	rows      int
	batches   int
}

func Main() {
	defaults := config.DefaultConfig()

	var (
		datasetPath string
		format      string
		vocabRef    string
		seqLength   int
		batchSize   int
		runs        int
		warmup      int
		cpuprofile  string
		workers     int
		cacheSize   int
		debugLogs   bool
	)
	flag.StringVar(&datasetPath, "dataset", "", "dataset file")
	flag.StringVar(&format, "format", defaults.Format, "dataset format (squad or text)")
	flag.StringVar(&vocabRef, "vocab", defaults.Vocab, "vocabulary file or pinned model name")
	flag.IntVar(&seqLength, "seq-length", defaults.SeqLength, "fixed row width")
	flag.IntVar(&batchSize, "batch-size", defaults.BatchSize, "rows per batch")
	flag.IntVar(&runs, "runs", 5, "number of profiled runs")
	flag.IntVar(&warmup, "warmup", 1, "number of warmup runs")
	flag.StringVar(&cpuprofile, "cpuprofile", "", "write cpu profile")
	flag.IntVar(&workers, "workers", 0, "tokenizer goroutines (0 = GOMAXPROCS)")
	flag.IntVar(&cacheSize, "cache-size", defaults.CacheSize, "context cache entries (0 disables)")
	flag.BoolVar(&debugLogs, "debug-logs", false, "enable debug logs from pipeline stages")
	flag.Parse()

	if debugLogs {
		slog.SetDefault(
			slog.New(
				slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}),
			),
		)
	}

	if runs < 1 {
		fatalf("--runs must be >= 1")
	}

	if datasetPath == "" {
		fatalf("--dataset is required")
	}

	normalized, err := config.NormalizeFormat(format)
	if err != nil {
		fatalf("%v", err)
	}
	format = normalized

	vocabPath, err := hub.Resolve(vocabRef, "")
	if err != nil {
		fatalf("resolve vocabulary: %v", err)
	}

	v, err := vocab.Load(vocabPath, vocab.DefaultOptions())
	if err != nil {
		fatalf("load vocabulary: %v", err)
	}

	tok, err := tokenizer.New(v)
	if err != nil {
		fatalf("init tokenizer: %v", err)
	}

	runner, err := pipeline.New(tok, pipeline.Options{Workers: workers, CacheSize: cacheSize})
	if err != nil {
		fatalf("init pipeline: %v", err)
	}

	packOpts := batch.Options{BatchSize: batchSize, SeqLength: seqLength}

	ctx := context.Background()

	for i := 0; i < warmup; i++ {
		_, err := runOnce(ctx, runner, v, format, datasetPath, packOpts)
		if err != nil {
			fatalf("warmup run %d failed: %v", i+1, err)
		}
	}

	if cpuprofile != "" {
		f, err := os.Create(cpuprofile)
		if err != nil {
			fatalf("create cpuprofile: %v", err)
		}
		defer f.Close()

		err = pprof.StartCPUProfile(f)
		if err != nil {
			fatalf("start cpuprofile: %v", err)
		}

		defer pprof.StopCPUProfile()
	}

	var agg timings

	for i := 0; i < runs; i++ {
		t, err := runOnce(ctx, runner, v, format, datasetPath, packOpts)
		if err != nil {
			fatalf("profiled run %d failed: %v", i+1, err)
		}

		agg.load += t.load
		agg.tokenize += t.tokenize
		agg.pack += t.pack
		agg.total += t.total
		agg.documents = t.documents
		agg.tokens = t.tokens
		agg.rows = t.rows
		agg.batches = t.batches
	}

	div := float64(runs)
	avgLoad := agg.load.Seconds() * 1000 / div
	avgTokenize := agg.tokenize.Seconds() * 1000 / div
	avgPack := agg.pack.Seconds() * 1000 / div
	avgTotal := agg.total.Seconds() * 1000 / div

	workersEffective := workers
	if workersEffective <= 0 {
		workersEffective = runtime.GOMAXPROCS(0)
	}

	fmt.Printf("dataset: %s\n", datasetPath)
	fmt.Printf("format: %s\n", format)
	fmt.Printf("runs: %d (warmup %d)\n", runs, warmup)
	fmt.Printf("workers_effective: %d\n", workersEffective)
	fmt.Printf("documents: %d\n", agg.documents)
	fmt.Printf("tokens: %d\n", agg.tokens)
	fmt.Printf("rows: %d\n", agg.rows)
	fmt.Printf("batches: %d\n", agg.batches)
	fmt.Printf("avg_load_ms: %.2f\n", avgLoad)
	fmt.Printf("avg_tokenize_ms: %.2f\n", avgTokenize)
	fmt.Printf("avg_pack_ms: %.2f\n", avgPack)
	fmt.Printf("avg_total_ms: %.2f\n", avgTotal)

	if avgTotal > 0 {
		fmt.Printf("docs_per_sec: %.1f\n", float64(agg.documents)*1000/avgTotal)
		fmt.Printf("share_load_pct: %.2f\n", 100*avgLoad/avgTotal)
		fmt.Printf("share_tokenize_pct: %.2f\n", 100*avgTokenize/avgTotal)
		fmt.Printf("share_pack_pct: %.2f\n", 100*avgPack/avgTotal)
	}
}

func runOnce(ctx context.Context, runner *pipeline.Runner, v *vocab.Vocabulary, format, path string, packOpts batch.Options) (timings, error) {
	var out timings
	startTotal := time.Now()

	var docs []*dataset.Document
	var loadErr error

	pprof.Do(ctx, pprof.Labels("stage", "load"), func(context.Context) {
		start := time.Now()
		docs, loadErr = loadDocuments(format, path)
		out.load = time.Since(start)
	})

	if loadErr != nil {
		return out, fmt.Errorf("load dataset: %w", loadErr)
	}

	if len(docs) == 0 {
		return out, errors.New("no documents loaded")
	}

	var examples []batch.Example
	var report *pipeline.Report
	var tokErr error

	pprof.Do(ctx, pprof.Labels("stage", "tokenize"), func(ctx context.Context) {
		start := time.Now()
		examples, report, tokErr = runner.Collect(ctx, dataset.NewSliceSource(docs...))
		out.tokenize = time.Since(start)
	})

	if tokErr != nil {
		return out, fmt.Errorf("tokenize: %w", tokErr)
	}

	var packErr error

	pprof.Do(ctx, pprof.Labels("stage", "pack"), func(context.Context) {
		start := time.Now()

		batcher, err := batch.New(examples, packOpts, v)
		if err != nil {
			packErr = err
			return
		}

		it := batcher.Iter()
		for {
			b, ok := it.Next()
			if !ok {
				break
			}
			out.rows += b.Rows
			out.batches++
		}

		out.pack = time.Since(start)
	})

	if packErr != nil {
		return out, fmt.Errorf("pack batches: %w", packErr)
	}

	out.total = time.Since(startTotal)
	out.documents = report.Documents
	out.tokens = report.Tokens

	return out, nil
}

func loadDocuments(format, path string) ([]*dataset.Document, error) {
	if format == config.FormatText {
		src, err := dataset.NewTextSource(path)
		if err != nil {
			return nil, err
		}
		defer src.Close()

		return dataset.ReadAll(src)
	}

	return dataset.LoadSQuAD(path)
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

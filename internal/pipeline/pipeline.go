// Package pipeline tokenizes document streams across a bounded worker pool
// while preserving input order. Results are index-tagged by the feeder,
// encoded concurrently, and reassembled by a collector goroutine, so output
// order equals input order for any worker count.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/gammazero/deque"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sourcegraph/conc/pool"

	"github.com/example/go-qa-prep/internal/batch"
	"github.com/example/go-qa-prep/internal/dataset"
	"github.com/example/go-qa-prep/internal/tokenizer"
)

// ErrNilTokenizer is returned when a Runner is built without a tokenizer.
var ErrNilTokenizer = errors.New("pipeline requires a tokenizer")

// DefaultQueueDepth bounds the hand-off channels when Options leaves
// QueueDepth unset.
const DefaultQueueDepth = 32

// Options tunes a Runner.
type Options struct {
	// Workers is the tokenization pool size; 0 or less means GOMAXPROCS.
	Workers int
	// QueueDepth bounds the worker and output channels; 0 or less means
	// DefaultQueueDepth. Peak buffered memory scales with this.
	QueueDepth int
	// CacheSize is the number of context tokenizations memoized across
	// documents (SQuAD shares one context between many questions); 0
	// disables the cache. Tokenization is pure, so the cache never
	// changes output.
	CacheSize int
}

// Report summarizes one pass.
type Report struct {
	Documents   int
	Tokens      int64
	Duration    time.Duration
	CacheHits   int64
	CacheMisses int64
	// Skipped collects the unpackable examples of a Stream pass.
	Skipped []*batch.TruncationError
}

// DocsPerSec reports pass throughput in documents per second.
func (r *Report) DocsPerSec() float64 {
	if r.Duration <= 0 {
		return 0
	}
	return float64(r.Documents) / r.Duration.Seconds()
}

// Runner drives tokenization passes. It is safe for sequential reuse across
// sources; the context cache persists between passes.
type Runner struct {
	tok   *tokenizer.Tokenizer
	opts  Options
	cache *lru.Cache[string, []tokenizer.Token]
}

// New builds a Runner around tok.
func New(tok *tokenizer.Tokenizer, opts Options) (*Runner, error) {
	if tok == nil {
		return nil, ErrNilTokenizer
	}
	r := &Runner{tok: tok, opts: opts}
	if opts.CacheSize > 0 {
		cache, err := lru.New[string, []tokenizer.Token](opts.CacheSize)
		if err != nil {
			return nil, fmt.Errorf("build context cache: %w", err)
		}
		r.cache = cache
	}
	return r, nil
}

type indexed struct {
	idx int
	ex  batch.Example
}

// Run tokenizes every document of src and hands the examples to fn in input
// order. Cancellation is honored between documents, never inside one; on
// cancel or a non-nil fn result the pass stops, in-flight work is discarded
// and no further examples are delivered. The returned Report covers the
// documents fn actually received.
func (r *Runner) Run(ctx context.Context, src dataset.Source, fn func(batch.Example) error) (*Report, error) {
	start := time.Now()

	workers := r.opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	depth := r.opts.QueueDepth
	if depth <= 0 {
		depth = DefaultQueueDepth
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var hits, misses atomic.Int64
	done := make(chan indexed, depth)
	ordered := make(chan batch.Example, depth)

	p := pool.New().WithMaxGoroutines(workers).WithContext(runCtx)

	// Feeder: index documents and submit them; Go blocks while the pool
	// is saturated, bounding in-flight work.
	var srcErr error
	go func() {
		defer func() {
			_ = p.Wait()
			close(done)
		}()
		for idx := 0; ; idx++ {
			if runCtx.Err() != nil {
				return
			}
			doc, err := src.Next()
			if err == io.EOF {
				return
			}
			if err != nil {
				srcErr = fmt.Errorf("read document %d: %w", idx, err)
				cancel()
				return
			}
			i := idx
			p.Go(func(ctx context.Context) error {
				res := indexed{idx: i, ex: r.encodeDoc(i, doc, &hits, &misses)}
				select {
				case done <- res:
					return nil
				case <-ctx.Done():
					return ctx.Err()
				}
			})
		}
	}()

	// Collector: restore input order. Completions ahead of the emit
	// cursor wait in a sliding window at offset idx-next; nil marks a
	// hole still in flight.
	go func() {
		defer close(ordered)
		var window deque.Deque[*batch.Example]
		next := 0
		for res := range done {
			pos := res.idx - next
			for window.Len() <= pos {
				window.PushBack(nil)
			}
			ex := res.ex
			window.Set(pos, &ex)
			for window.Len() > 0 && window.Front() != nil {
				head := window.PopFront()
				select {
				case ordered <- *head:
					next++
				case <-runCtx.Done():
					return
				}
			}
		}
	}()

	report := &Report{}
	for ex := range ordered {
		if runCtx.Err() != nil {
			break
		}
		if err := fn(ex); err != nil {
			cancel()
			for range ordered {
			}
			return nil, err
		}
		report.Documents++
		report.Tokens += int64(len(ex.Question) + len(ex.Context))
	}
	for range ordered {
	}

	if srcErr != nil {
		return nil, srcErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	report.Duration = time.Since(start)
	report.CacheHits = hits.Load()
	report.CacheMisses = misses.Load()
	slog.Info("tokenization pass complete",
		"documents", report.Documents,
		"tokens", report.Tokens,
		"ms", report.Duration.Milliseconds(),
		"docs_per_sec", report.DocsPerSec(),
	)
	return report, nil
}

// Collect buffers a full pass, for multi-epoch batching.
func (r *Runner) Collect(ctx context.Context, src dataset.Source) ([]batch.Example, *Report, error) {
	var examples []batch.Example
	report, err := r.Run(ctx, src, func(ex batch.Example) error {
		examples = append(examples, ex)
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return examples, report, nil
}

// Stream batches a single pass on the fly and hands each finished batch to
// fn. Unpackable examples are skipped and collected in the report, unless
// opts.Strict aborts the pass with the first *batch.TruncationError.
func (r *Runner) Stream(ctx context.Context, src dataset.Source, opts batch.Options, fn func(*batch.Batch) error) (*Report, error) {
	builder, err := batch.NewBuilder(opts, r.tok.Vocab())
	if err != nil {
		return nil, err
	}

	var skipped []*batch.TruncationError
	report, err := r.Run(ctx, src, func(ex batch.Example) error {
		b, err := builder.Add(ex)
		if err != nil {
			var terr *batch.TruncationError
			if errors.As(err, &terr) && !opts.Strict {
				skipped = append(skipped, terr)
				return nil
			}
			return err
		}
		if b != nil {
			return fn(b)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if b := builder.Flush(); b != nil {
		if err := fn(b); err != nil {
			return nil, err
		}
	}
	report.Skipped = skipped
	return report, nil
}

func (r *Runner) encodeDoc(idx int, doc *dataset.Document, hits, misses *atomic.Int64) batch.Example {
	ex := batch.Example{
		DocID:    doc.ID,
		Index:    idx,
		Question: r.tok.Encode(doc.Question),
	}

	if r.cache != nil {
		if toks, ok := r.cache.Get(doc.Context); ok {
			hits.Add(1)
			ex.Context = toks
		} else {
			misses.Add(1)
			ex.Context = r.tok.Encode(doc.Context)
			r.cache.Add(doc.Context, ex.Context)
		}
	} else {
		ex.Context = r.tok.Encode(doc.Context)
	}

	if doc.Answer != nil {
		if span, ok := tokenizer.AlignSpan(ex.Context, doc.Answer.Start, doc.Answer.End); ok {
			ex.Answer = span
			ex.HasAnswer = true
		}
	}
	return ex
}

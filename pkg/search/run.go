package search

import (
	"context"
	"runtime"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ChrisMcGann/PepTag/pkg/core"
)

// Result holds the ranked matches of one spectrum.
type Result struct {
	Seq      int
	Spectrum *core.Spectrum
	Parent   *core.ParentPeak
	Matches  []core.TagMatch
	Err      error
}

// Run searches every spectrum against the candidates with a pool of workers, one session per
// spectrum, and calls fn with the results in spectrum order. Spectra that fail validation are
// logged and skipped. Run stops early when ctx is cancelled or fn returns an error.
func (e *Engine) Run(ctx context.Context, spectra []*core.Spectrum, cands *CandidateSet, fn func(Result) error) error {
	if cands == nil || cands.Len() == 0 {
		return ErrNoCandidates
	}
	workers := e.settings.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make(chan Result, 2*workers)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	var runErr error
	go func() {
		defer close(results)
		for i, sp := range spectra {
			if gctx.Err() != nil {
				break
			}
			i, sp := i, sp
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				results <- e.searchOne(i, sp, cands)
				return nil
			})
		}
		runErr = g.Wait()
	}()

	collectErr := OrderedCollect(results, func(r Result) error {
		if r.Err != nil {
			e.logger.Warn("skipping spectrum",
				zap.String("spectrum", r.Spectrum.Name()),
				zap.Error(r.Err))
			return nil
		}
		if err := fn(r); err != nil {
			cancel()
			return err
		}
		return nil
	})
	if collectErr != nil {
		return collectErr
	}
	if runErr != nil {
		return runErr
	}
	return ctx.Err()
}

func (e *Engine) searchOne(seq int, sp *core.Spectrum, cands *CandidateSet) Result {
	sess, err := e.NewSession(sp)
	if err != nil {
		return Result{Seq: seq, Spectrum: sp, Err: err}
	}
	return Result{Seq: seq, Spectrum: sp, Parent: sess.Parent(), Matches: sess.Search(cands)}
}

// OrderedCollect calls fn for each result in sequence-number order.
// It buffers out-of-order results and emits them as soon as the next expected
// sequence number is available. Blocks until the results channel is closed.
func OrderedCollect(results <-chan Result, fn func(Result) error) error {
	pending := make(map[int]Result)
	nextSeq := 0

	for r := range results {
		pending[r.Seq] = r

		for {
			rr, ok := pending[nextSeq]
			if !ok {
				break
			}
			delete(pending, nextSeq)
			nextSeq++
			if err := fn(rr); err != nil {
				// Drain remaining results to unblock workers.
				for range results {
				}
				return err
			}
		}
	}
	return nil
}

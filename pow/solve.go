package pow

import (
	"context"
	"errors"
	"math"
	"runtime"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

const (
	// solveBlockSize is the span of nonces a parallel worker claims at a
	// time. Small enough that draining an in-flight block after a win is
	// cheap, large enough that claim traffic stays negligible.
	solveBlockSize = 1 << 16

	// ctxCheckMask: the context is polled every ctxCheckMask+1 candidates.
	ctxCheckMask = 1<<11 - 1

	// maxSolveWorkers caps the pool regardless of CPU count.
	maxSolveWorkers = 32
)

// Solve enumerates nonces from zero in ascending order and returns the
// first one the descriptor's scheme accepts. It is deterministic: the same
// descriptor always yields the same solution. A context deadline surfaces
// as ErrSolveTimeout; explicit cancellation as the context's own error.
func Solve(ctx context.Context, d *Descriptor) (Solution, error) {
	seed := d.Seed[:]
	for n := uint64(0); ; n++ {
		if n&ctxCheckMask == 0 {
			if err := ctx.Err(); err != nil {
				return Solution{}, solveErr(err)
			}
		}
		if d.scheme.Check(seed, n, d.Difficulty) {
			return Solution{Descriptor: d, Nonce: n}, nil
		}
		if n == math.MaxUint64 {
			return Solution{}, errors.New("nonce space exhausted")
		}
	}
}

// SolveParallel searches with a pool of workers and returns the same
// solution Solve would. The nonce space is dealt out as contiguous blocks
// in ascending order; an accepting nonce is published through a CAS-min
// slot and the remaining workers stop cooperatively, after draining any
// in-flight block that still covers lower nonces. That drain is what keeps
// the winner equal to the sequential result: every nonce below the final
// winner has been evaluated by someone. workers <= 0 selects
// runtime.NumCPU().
func SolveParallel(ctx context.Context, d *Descriptor, workers int) (Solution, error) {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > maxSolveWorkers {
		workers = maxSolveWorkers
	}
	if workers == 1 {
		return Solve(ctx, d)
	}

	var (
		nextBlock atomic.Uint64
		best      atomic.Uint64
	)
	best.Store(math.MaxUint64)
	seed := d.Seed[:]

	g, ctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			for {
				blk := nextBlock.Add(1) - 1
				if blk > math.MaxUint64/solveBlockSize {
					return nil
				}
				start := blk * solveBlockSize
				if start >= best.Load() {
					return nil
				}
				end := start + solveBlockSize
				if end < start {
					end = math.MaxUint64
				}
				for n := start; n < end; n++ {
					if n >= best.Load() {
						break
					}
					if n&ctxCheckMask == 0 {
						if err := ctx.Err(); err != nil {
							return err
						}
					}
					if d.scheme.Check(seed, n, d.Difficulty) {
						storeMin(&best, n)
						break
					}
				}
			}
		})
	}
	err := g.Wait()

	if got := best.Load(); got != math.MaxUint64 {
		return Solution{Descriptor: d, Nonce: got}, nil
	}
	if err != nil {
		return Solution{}, solveErr(err)
	}
	return Solution{}, errors.New("nonce space exhausted")
}

// storeMin lowers a to v unless a already holds something smaller. Ties
// between simultaneous winners resolve to the lowest nonce, never to
// arrival order.
func storeMin(a *atomic.Uint64, v uint64) {
	for {
		cur := a.Load()
		if v >= cur || a.CompareAndSwap(cur, v) {
			return
		}
	}
}

func solveErr(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrSolveTimeout
	}
	return err
}

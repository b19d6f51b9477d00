package pow

import (
	"context"
	"errors"
	"math"
	"sync/atomic"
	"testing"
	"time"
)

// algNever is a predicate that accepts nothing, for exercising deadlines
// without burning CPU on an actual search.
const algNever = Algorithm(0xEE)

type neverScheme struct{}

func (neverScheme) ID() Algorithm { return algNever }
func (neverScheme) Name() string { return "never" }
func (neverScheme) MaxDifficulty() int { return 64 }
func (neverScheme) Check([]byte, uint64, int) bool { return false }

func init() { Register(neverScheme{}) }

func TestSolve_SatisfiesPredicate(t *testing.T) {
	t.Parallel()

	for _, alg := range []Algorithm{AlgSHA256, AlgSHA512_256} {
		d := testDescriptor(t, alg, 8, "abc")
		sol, err := Solve(context.Background(), d)
		if err != nil {
			t.Fatalf("Solve() error: %v", err)
		}
		if !d.Scheme().Check(d.Seed[:], sol.Nonce, d.Difficulty) {
			t.Fatalf("%s: nonce %d rejected by its own predicate", d.Scheme().Name(), sol.Nonce)
		}
		// The winner must be the first accepting nonce in enumeration order.
		for n := uint64(0); n < sol.Nonce; n++ {
			if d.Scheme().Check(d.Seed[:], n, d.Difficulty) {
				t.Fatalf("nonce %d accepted but Solve returned %d", n, sol.Nonce)
			}
		}
	}
}

func TestSolve_Deterministic(t *testing.T) {
	t.Parallel()

	d := testDescriptor(t, AlgSHA256, 10, "solve-twice")
	s1, err := Solve(context.Background(), d)
	if err != nil {
		t.Fatalf("first Solve() error: %v", err)
	}
	s2, err := Solve(context.Background(), d)
	if err != nil {
		t.Fatalf("second Solve() error: %v", err)
	}
	if s1.Nonce != s2.Nonce {
		t.Fatalf("nonces differ: %d vs %d", s1.Nonce, s2.Nonce)
	}
}

func TestSolveParallel_MatchesSequential(t *testing.T) {
	t.Parallel()

	for _, difficulty := range []int{1, 4, 8, 10} {
		d := testDescriptor(t, AlgSHA256, difficulty, "parallel-equivalence")
		want, err := Solve(context.Background(), d)
		if err != nil {
			t.Fatalf("Solve() error: %v", err)
		}
		for _, workers := range []int{2, 4, 8} {
			got, err := SolveParallel(context.Background(), d, workers)
			if err != nil {
				t.Fatalf("SolveParallel(workers=%d) error: %v", workers, err)
			}
			if got.Nonce != want.Nonce {
				t.Fatalf("difficulty %d, workers %d: nonce %d; want %d",
					difficulty, workers, got.Nonce, want.Nonce)
			}
		}
	}
}

func TestSolve_DeadlineSurfacesAsTimeout(t *testing.T) {
	t.Parallel()

	d := testDescriptor(t, algNever, 1, "unsatisfiable")
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := Solve(ctx, d)
	if !errors.Is(err, ErrSolveTimeout) {
		t.Fatalf("Solve() error = %v; want ErrSolveTimeout", err)
	}
}

func TestSolveParallel_DeadlineSurfacesAsTimeout(t *testing.T) {
	t.Parallel()

	d := testDescriptor(t, algNever, 1, "unsatisfiable")
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := SolveParallel(ctx, d, 4)
	if !errors.Is(err, ErrSolveTimeout) {
		t.Fatalf("SolveParallel() error = %v; want ErrSolveTimeout", err)
	}
}

func TestSolve_CancelPropagates(t *testing.T) {
	t.Parallel()

	d := testDescriptor(t, algNever, 1, "cancelled")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Solve(ctx, d)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Solve() error = %v; want context.Canceled", err)
	}
}

func TestStoreMin(t *testing.T) {
	t.Parallel()

	var a atomic.Uint64
	a.Store(math.MaxUint64)

	storeMin(&a, 100)
	if got := a.Load(); got != 100 {
		t.Fatalf("after storeMin(100): %d", got)
	}
	storeMin(&a, 200)
	if got := a.Load(); got != 100 {
		t.Fatalf("storeMin(200) raised the slot to %d", got)
	}
	storeMin(&a, 7)
	if got := a.Load(); got != 7 {
		t.Fatalf("after storeMin(7): %d", got)
	}
}

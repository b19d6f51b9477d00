package pow

import (
	"crypto/sha256"
	"crypto/sha512"
	"encoding/binary"
	"math/bits"
	"sync"
)

// Scheme is one acceptance-predicate family. The descriptor's algorithm id
// selects the scheme once at decode time; the search loop never dispatches
// again.
type Scheme interface {
	ID() Algorithm
	Name() string

	// MaxDifficulty is the largest difficulty Decode accepts for this
	// scheme.
	MaxDifficulty() int

	// Check reports whether nonce satisfies the predicate for seed at the
	// given difficulty. It must be deterministic and side-effect free.
	Check(seed []byte, nonce uint64, difficulty int) bool
}

var (
	schemesMu sync.RWMutex
	schemes   = make(map[Algorithm]Scheme)
)

// Register makes a scheme available to the decoder. Self-hosted deployments
// with custom predicates register theirs before decoding challenges.
func Register(s Scheme) {
	schemesMu.Lock()
	defer schemesMu.Unlock()
	schemes[s.ID()] = s
}

func schemeFor(id Algorithm) (Scheme, bool) {
	schemesMu.RLock()
	defer schemesMu.RUnlock()
	s, ok := schemes[id]
	return s, ok
}

func init() {
	Register(lzbScheme{
		id:   AlgSHA256,
		name: "sha256-lzb",
		sum: func(b []byte) []byte {
			h := sha256.Sum256(b)
			return h[:]
		},
	})
	Register(lzbScheme{
		id:   AlgSHA512_256,
		name: "sha512-256-lzb",
		sum: func(b []byte) []byte {
			h := sha512.Sum512_256(b)
			return h[:]
		},
	})
}

// lzbScheme accepts a nonce when digest(seed ‖ nonce as 8 big-endian bytes)
// has at least `difficulty` leading zero bits.
type lzbScheme struct {
	id   Algorithm
	name string
	sum  func([]byte) []byte
}

func (s lzbScheme) ID() Algorithm { return s.id }
func (s lzbScheme) Name() string { return s.name }

// MaxDifficulty caps at 64 so the uint64 nonce space contains a solution in
// expectation.
func (s lzbScheme) MaxDifficulty() int { return 64 }

func (s lzbScheme) Check(seed []byte, nonce uint64, difficulty int) bool {
	msg := make([]byte, 0, len(seed)+8)
	msg = append(msg, seed...)
	msg = binary.BigEndian.AppendUint64(msg, nonce)
	return leadingZeroBits(s.sum(msg)) >= difficulty
}

func leadingZeroBits(b []byte) int {
	total := 0
	for _, by := range b {
		if by == 0 {
			total += 8
			continue
		}
		total += bits.LeadingZeros8(by)
		break
	}
	return total
}

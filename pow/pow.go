// Package pow implements the Duckity challenge pipeline: decoding a raw
// challenge into a puzzle descriptor, searching the nonce space for a value
// the challenge's predicate accepts, and encoding the winning nonce into the
// token the server verifies.
package pow

import (
	"net/netip"
	"sync"
	"time"
)

// Algorithm identifies the acceptance-predicate scheme a challenge uses.
type Algorithm uint8

const (
	AlgSHA256     Algorithm = 1
	AlgSHA512_256 Algorithm = 2
)

// Challenge is a raw challenge payload as fetched from the server. It is
// decoded at most once; the descriptor is cached for the challenge's
// lifetime.
type Challenge struct {
	raw []byte

	once sync.Once
	desc *Descriptor
	err  error
}

// NewChallenge wraps raw payload bytes. The bytes are copied; the caller
// keeps ownership of its slice.
func NewChallenge(raw []byte) *Challenge {
	return &Challenge{raw: append([]byte(nil), raw...)}
}

// Bytes returns the raw payload.
func (c *Challenge) Bytes() []byte { return c.raw }

// Descriptor decodes the challenge. Repeated calls return the cached
// result, success or failure alike.
func (c *Challenge) Descriptor() (*Descriptor, error) {
	c.once.Do(func() { c.desc, c.err = Decode(c.raw) })
	return c.desc, c.err
}

// Descriptor is the decoded, structured form of a challenge.
type Descriptor struct {
	Version    int
	Algorithm  Algorithm
	Difficulty int
	IssuedAt   time.Time
	ExpiresAt  time.Time
	Seed       [SeedSize]byte

	// ClientIP is the address the challenge was issued to. Validation
	// binds the token to it.
	ClientIP netip.Addr

	scheme Scheme
	raw    []byte
}

// Scheme returns the predicate scheme resolved at decode time.
func (d *Descriptor) Scheme() Scheme { return d.scheme }

// Expired reports whether the challenge expiry has passed at now.
func (d *Descriptor) Expired(now time.Time) bool { return now.After(d.ExpiresAt) }

// Solution is the accepted nonce for a descriptor. It is produced exactly
// once per solve and immutable afterwards.
type Solution struct {
	Descriptor *Descriptor
	Nonce      uint64
}

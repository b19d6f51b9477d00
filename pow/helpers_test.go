package pow

import (
	"io"
	"log/slog"
	"net/netip"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// testChallenge issues a synthetic challenge the way a duckling would.
func testChallenge(t *testing.T, alg Algorithm, difficulty int, seed string) []byte {
	t.Helper()
	var s [SeedSize]byte
	copy(s[:], seed)
	now := time.Now().Truncate(time.Second)
	raw, err := Marshal(&Descriptor{
		Algorithm:  alg,
		Difficulty: difficulty,
		IssuedAt:   now,
		ExpiresAt:  now.Add(10 * time.Minute),
		Seed:       s,
		ClientIP:   netip.MustParseAddr("203.0.113.7"),
	})
	if err != nil {
		t.Fatalf("Marshal() error: %v", err)
	}
	return raw
}

func testDescriptor(t *testing.T, alg Algorithm, difficulty int, seed string) *Descriptor {
	t.Helper()
	d, err := Decode(testChallenge(t, alg, difficulty, seed))
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}
	return d
}

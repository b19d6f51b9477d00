package pow

import (
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"time"
)

// tokenEncoding is the alphabet the server expects: URL-safe, no padding.
var tokenEncoding = base64.RawURLEncoding

// Encode serializes the solution into the token string submitted for
// validation: the original challenge bytes followed by the winning nonce,
// base64 URL-safe without padding. Both fields are fixed width, so distinct
// solutions always yield distinct tokens.
func (s Solution) Encode() string {
	buf := make([]byte, 0, ChallengeSize+8)
	buf = append(buf, s.Descriptor.raw...)
	buf = binary.BigEndian.AppendUint64(buf, s.Nonce)
	return tokenEncoding.EncodeToString(buf)
}

// DecodeToken reverses Encode. The embedded challenge is re-decoded, so a
// token carrying a malformed or unsupported challenge fails with
// ErrBadToken.
func DecodeToken(token string) (Solution, error) {
	raw, err := tokenEncoding.DecodeString(token)
	if err != nil {
		return Solution{}, fmt.Errorf("%w: %v", ErrBadToken, err)
	}
	if len(raw) != ChallengeSize+8 {
		return Solution{}, fmt.Errorf("%w: got %d bytes, want %d", ErrBadToken, len(raw), ChallengeSize+8)
	}
	d, err := Decode(raw[:ChallengeSize])
	if err != nil {
		return Solution{}, fmt.Errorf("%w: %v", ErrBadToken, err)
	}
	return Solution{Descriptor: d, Nonce: binary.BigEndian.Uint64(raw[ChallengeSize:])}, nil
}

// Verify recomputes the acceptance predicate for a token, the same check
// the duckling server performs on validation. It reports ErrExpired for
// stale challenges and ErrVerifyFailed for nonces the predicate rejects.
func Verify(token string, now time.Time) error {
	sol, err := DecodeToken(token)
	if err != nil {
		return err
	}
	d := sol.Descriptor
	if d.Expired(now) {
		return ErrExpired
	}
	if !d.scheme.Check(d.Seed[:], sol.Nonce, d.Difficulty) {
		return ErrVerifyFailed
	}
	return nil
}

package pow

import (
	"encoding/binary"
	"fmt"
	"net/netip"
	"time"
)

// Challenge wire layout, version 1 (big-endian, ChallengeSize bytes total):
//
//	[0]      version
//	[1]      algorithm id
//	[2]      difficulty
//	[3]      reserved, must be zero
//	[4:12]   issued-at, unix seconds
//	[12:20]  expires-at, unix seconds
//	[20:52]  seed
//	[52]     client IP tag: 4 or 6
//	[53:69]  client IP bytes (IPv4 in the first 4, rest zero)
const (
	ChallengeSize = 69
	SeedSize      = 32

	challengeVersion = 1

	offAlgorithm  = 1
	offDifficulty = 2
	offReserved   = 3
	offIssued     = 4
	offExpires    = 12
	offSeed       = 20
	offIPTag      = 52
	offIPBytes    = 53
)

// Decode parses raw challenge bytes into a Descriptor. It is pure: the same
// input always yields the same descriptor or the same error, and every
// malformed input fails with an error wrapping ErrDecode.
func Decode(data []byte) (*Descriptor, error) {
	if len(data) != ChallengeSize {
		return nil, fmt.Errorf("%w: got %d bytes, want %d", ErrDecode, len(data), ChallengeSize)
	}
	if v := data[0]; v != challengeVersion {
		return nil, fmt.Errorf("%w: unknown version %d", ErrDecode, v)
	}
	alg := Algorithm(data[offAlgorithm])
	scheme, ok := schemeFor(alg)
	if !ok {
		return nil, fmt.Errorf("%w: unsupported algorithm %d", ErrDecode, alg)
	}
	difficulty := int(data[offDifficulty])
	if difficulty > scheme.MaxDifficulty() {
		return nil, fmt.Errorf("%w: difficulty %d exceeds %s maximum %d",
			ErrDecode, difficulty, scheme.Name(), scheme.MaxDifficulty())
	}
	if data[offReserved] != 0 {
		return nil, fmt.Errorf("%w: nonzero reserved byte", ErrDecode)
	}
	issued := int64(binary.BigEndian.Uint64(data[offIssued:offExpires]))
	expires := int64(binary.BigEndian.Uint64(data[offExpires:offSeed]))
	if expires < issued {
		return nil, fmt.Errorf("%w: expiry precedes issue time", ErrDecode)
	}

	ip, err := decodeIP(data[offIPTag:])
	if err != nil {
		return nil, err
	}

	d := &Descriptor{
		Version:    challengeVersion,
		Algorithm:  alg,
		Difficulty: difficulty,
		IssuedAt:   time.Unix(issued, 0).UTC(),
		ExpiresAt:  time.Unix(expires, 0).UTC(),
		ClientIP:   ip,
		scheme:     scheme,
		raw:        append([]byte(nil), data...),
	}
	copy(d.Seed[:], data[offSeed:offIPTag])
	return d, nil
}

func decodeIP(b []byte) (netip.Addr, error) {
	switch b[0] {
	case 4:
		return netip.AddrFrom4([4]byte(b[1:5])), nil
	case 6:
		return netip.AddrFrom16([16]byte(b[1:17])), nil
	default:
		return netip.Addr{}, fmt.Errorf("%w: bad IP tag %d", ErrDecode, b[0])
	}
}

// Marshal is the inverse of Decode. Ducklings issuing their own challenges
// (and this SDK's tests and offline demo) use it; the scheme for
// d.Algorithm must be registered.
func Marshal(d *Descriptor) ([]byte, error) {
	scheme, ok := schemeFor(d.Algorithm)
	if !ok {
		return nil, fmt.Errorf("marshal challenge: unsupported algorithm %d", d.Algorithm)
	}
	if d.Difficulty < 0 || d.Difficulty > scheme.MaxDifficulty() {
		return nil, fmt.Errorf("marshal challenge: difficulty %d out of range for %s", d.Difficulty, scheme.Name())
	}
	ip := d.ClientIP.Unmap()
	if !ip.IsValid() {
		return nil, fmt.Errorf("marshal challenge: invalid client IP")
	}

	buf := make([]byte, ChallengeSize)
	buf[0] = challengeVersion
	buf[offAlgorithm] = byte(d.Algorithm)
	buf[offDifficulty] = byte(d.Difficulty)
	binary.BigEndian.PutUint64(buf[offIssued:], uint64(d.IssuedAt.Unix()))
	binary.BigEndian.PutUint64(buf[offExpires:], uint64(d.ExpiresAt.Unix()))
	copy(buf[offSeed:], d.Seed[:])
	if ip.Is4() {
		buf[offIPTag] = 4
		a := ip.As4()
		copy(buf[offIPBytes:], a[:])
	} else {
		buf[offIPTag] = 6
		a := ip.As16()
		copy(buf[offIPBytes:], a[:])
	}
	return buf, nil
}

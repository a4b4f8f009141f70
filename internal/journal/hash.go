package journal

import (
	"encoding/binary"

	"github.com/dchest/siphash"
)

// Hash computes the content hash stored in a Data or Field object, exactly
// as spec.md §3 requires: SipHash-2-4 keyed with the file id when
// KEYED_HASH is set, otherwise the legacy unkeyed Jenkins lookup3 hash.
// Both variants hash the payload bytes exactly as stored on disk.
func Hash(payload []byte, fileID [16]byte, keyed bool) uint64 {
	if keyed {
		k0 := binary.LittleEndian.Uint64(fileID[0:8])
		k1 := binary.LittleEndian.Uint64(fileID[8:16])
		return siphash.Hash(k0, k1, payload)
	}
	return jenkinsHash64(payload)
}

// jenkinsHash64 reproduces systemd's legacy unkeyed hash: Bob Jenkins's
// lookup3 hashlittle2, run with both initial values zeroed, combined into a
// single 64-bit value as hash1<<32 | hash2.
func jenkinsHash64(data []byte) uint64 {
	var pc, pb uint32
	jenkinsHashLittle2(data, &pc, &pb)
	return uint64(pc)<<32 | uint64(pb)
}

func rot(x uint32, k uint) uint32 {
	return (x << k) | (x >> (32 - k))
}

// jenkinsHashLittle2 is a direct port of Bob Jenkins's public-domain
// lookup3.c hashlittle2, processing data in little-endian 12-byte blocks.
func jenkinsHashLittle2(key []byte, pc, pb *uint32) {
	length := uint32(len(key))
	a := 0xdeadbeef + length + *pc
	b := a
	c := a
	c += *pb

	i := 0
	for remaining := int(length); remaining > 12; remaining -= 12 {
		a += binary.LittleEndian.Uint32(key[i : i+4])
		b += binary.LittleEndian.Uint32(key[i+4 : i+8])
		c += binary.LittleEndian.Uint32(key[i+8 : i+12])

		a -= c
		a ^= rot(c, 4)
		c += b
		b -= a
		b ^= rot(a, 6)
		a += c
		c -= b
		c ^= rot(b, 8)
		b += a
		a -= c
		a ^= rot(c, 16)
		c += b
		b -= a
		b ^= rot(a, 19)
		a += c
		c -= b
		c ^= rot(b, 4)
		b += a

		i += 12
	}

	remaining := int(length) - i
	var tail [12]byte
	copy(tail[:], key[i:])

	if remaining > 0 {
		a += binary.LittleEndian.Uint32(tail[0:4])
		b += binary.LittleEndian.Uint32(tail[4:8])
		c += binary.LittleEndian.Uint32(tail[8:12])

		c ^= b
		c -= rot(b, 14)
		a ^= c
		a -= rot(c, 11)
		b ^= a
		b -= rot(a, 25)
		c ^= b
		c -= rot(b, 16)
		a ^= c
		a -= rot(c, 4)
		b ^= a
		b -= rot(a, 14)
		c ^= b
		c -= rot(b, 24)
	}

	*pc = c
	*pb = b
}

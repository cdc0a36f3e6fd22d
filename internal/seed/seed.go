// Package seed derives the deterministic seed chain of a raffle.
//
// # Determinism
//
// A seed is the SHA-256 digest of an ordered list of components. Each
// component is written with a one byte kind tag and, for variable length
// values, a big endian length prefix, so the encoding is injective: equal
// ordered inputs give equal seeds and any reordering or edit gives a
// different one.
//
// The pseudo-random stream built from a seed is a PCG generator keyed by the
// digest. Replicas feeding the same components read the same stream.
package seed

import (
	"crypto/sha256"
	"encoding/binary"
	"math/rand/v2"
	"time"
)

const Size = sha256.Size

type kind byte

const (
	kindString kind = 1
	kindUint   kind = 2
	kindBytes  kind = 3
)

type Component struct {
	kind  kind
	str   string
	num   uint64
	bytes []byte
}

func String(s string) Component {
	return Component{kind: kindString, str: s}
}

func Uint(n uint64) Component {
	return Component{kind: kindUint, num: n}
}

func Bytes(b []byte) Component {
	return Component{kind: kindBytes, bytes: b}
}

// Mix hashes the components in order.
func Mix(components ...Component) []byte {
	h := sha256.New()
	var buf [9]byte
	for _, c := range components {
		buf[0] = byte(c.kind)
		switch c.kind {
		case kindString:
			binary.BigEndian.PutUint64(buf[1:], uint64(len(c.str)))
			h.Write(buf[:])
			h.Write([]byte(c.str))
		case kindUint:
			binary.BigEndian.PutUint64(buf[1:], c.num)
			h.Write(buf[:])
		case kindBytes:
			binary.BigEndian.PutUint64(buf[1:], uint64(len(c.bytes)))
			h.Write(buf[:])
			h.Write(c.bytes)
		}
	}
	return h.Sum(nil)
}

// Entropy is the replay-stable environment of one transaction.
type Entropy struct {
	Time    time.Time
	Height  uint64
	TxIndex uint64
}

func (e Entropy) components() []Component {
	return []Component{
		Uint(uint64(e.Time.UnixNano())),
		Uint(e.Height),
		Uint(e.TxIndex),
	}
}

// Initial returns the seed of a freshly created raffle.
func Initial(creator string, entropy Entropy) []byte {
	return Mix(append([]Component{String(creator)}, entropy.components()...)...)
}

// Next advances the chain after a ticket purchase. A nil message mixes as "".
func Next(previous []byte, message *string, buyer string, entropy Entropy) []byte {
	text := ""
	if message != nil {
		text = *message
	}

	components := []Component{Bytes(previous), String(text), String(buyer)}
	return Mix(append(components, entropy.components()...)...)
}

// NewRand returns a generator whose stream is fully determined by the components.
func NewRand(components ...Component) *rand.Rand {
	digest := Mix(components...)
	return rand.New(rand.NewPCG(
		binary.BigEndian.Uint64(digest[0:8]),
		binary.BigEndian.Uint64(digest[8:16]),
	))
}

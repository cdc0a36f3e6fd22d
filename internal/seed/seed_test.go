package seed

import (
	"encoding/hex"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMixKnownDigest(t *testing.T) {
	digest := Mix(String("alice"), Uint(42))
	require.Equal(t, "6265b6a4e1ed39666429cfd40e0c1f2f5d5f8d1c12247224b822f3e86bbe7034", hex.EncodeToString(digest))
}

func TestMixOrderSensitive(t *testing.T) {
	a := Mix(String("alice"), String("bob"))
	b := Mix(String("bob"), String("alice"))
	require.NotEqual(t, a, b)
	require.Equal(t, a, Mix(String("alice"), String("bob")))
}

func TestMixLengthPrefixed(t *testing.T) {
	// without length prefixes these would hash the same byte string
	require.NotEqual(t, Mix(String("ab"), String("c")), Mix(String("a"), String("bc")))
	require.NotEqual(t, Mix(String("7")), Mix(Uint(7)))
	require.NotEqual(t, Mix(Bytes([]byte("x"))), Mix(String("x")))
}

func TestNextChangesWithEveryInput(t *testing.T) {
	entropy := Entropy{Time: time.Unix(1700000000, 5), Height: 100, TxIndex: 2}
	previous := Initial("creator", entropy)
	message := "good luck"
	base := Next(previous, &message, "buyer", entropy)

	require.Equal(t, base, Next(previous, &message, "buyer", entropy))

	other := "bad luck"
	variants := [][]byte{
		Next(Initial("someone", entropy), &message, "buyer", entropy),
		Next(previous, &other, "buyer", entropy),
		Next(previous, nil, "buyer", entropy),
		Next(previous, &message, "buyer2", entropy),
		Next(previous, &message, "buyer", Entropy{Time: entropy.Time.Add(time.Nanosecond), Height: 100, TxIndex: 2}),
		Next(previous, &message, "buyer", Entropy{Time: entropy.Time, Height: 101, TxIndex: 2}),
		Next(previous, &message, "buyer", Entropy{Time: entropy.Time, Height: 100, TxIndex: 3}),
	}
	for i, v := range variants {
		require.NotEqual(t, base, v, "variant %d", i)
		require.Len(t, v, Size)
	}
}

func TestNilMessageMixesAsEmpty(t *testing.T) {
	entropy := Entropy{Time: time.Unix(10, 0)}
	empty := ""
	require.Equal(t, Next([]byte{1}, nil, "b", entropy), Next([]byte{1}, &empty, "b", entropy))
}

func TestNewRandReplays(t *testing.T) {
	a := NewRand(Bytes([]byte{1, 2, 3}), String("operator"), Uint(9))
	b := NewRand(Bytes([]byte{1, 2, 3}), String("operator"), Uint(9))
	c := NewRand(Bytes([]byte{1, 2, 3}), String("operator"), Uint(10))

	same := true
	for i := 0; i < 16; i++ {
		x, y, z := a.Uint64(), b.Uint64(), c.Uint64()
		require.Equal(t, x, y)
		if x != z {
			same = false
		}
	}
	require.False(t, same)
}

package netiface

import (
	"net/netip"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRawAddrDecodeIPv4ByteOrder(t *testing.T) {
	for _, b := range [][4]byte{
		{0, 0, 0, 0},
		{10, 0, 0, 5},
		{192, 0, 2, 1},
		{1, 2, 3, 4},
		{255, 254, 253, 252},
	} {
		addr, ok := rawAddr{family: afInet, payload: b[:]}.decode()
		require.True(t, ok)
		require.Equal(t, netip.AddrFrom4(b), addr)
		require.Equal(t, b, addr.As4())
	}
}

func TestRawAddrDecodeIPv4Injective(t *testing.T) {
	seen := make(map[netip.Addr][4]byte)
	for i := range 1 << 12 {
		b := [4]byte{byte(i >> 8), byte(i), byte(i * 7), byte(i >> 4)}
		addr, ok := rawAddr{family: afInet, payload: b[:]}.decode()
		require.True(t, ok)
		if prev, dup := seen[addr]; dup {
			require.Equal(t, prev, b)
		}
		seen[addr] = b
	}
}

func TestRawAddrDecodeIPv6(t *testing.T) {
	want := netip.MustParseAddr("2001:db8::1")
	b := want.As16()
	addr, ok := rawAddr{family: afInet6, payload: b[:]}.decode()
	require.True(t, ok)
	require.Equal(t, want, addr)
	require.True(t, addr.Is6())
}

func TestRawAddrDecodeIPv6DoesNotAliasPayload(t *testing.T) {
	b := netip.MustParseAddr("fe80::1").As16()
	addr, ok := rawAddr{family: afInet6, payload: b[:]}.decode()
	require.True(t, ok)
	b[15] = 2
	require.Equal(t, netip.MustParseAddr("fe80::1"), addr)
}

func TestRawAddrDecodeUnknownFamily(t *testing.T) {
	payload := make([]byte, 16)
	for _, family := range []uint16{0, 1, 3, 17, 0xffff} {
		if family == afInet || family == afInet6 {
			continue
		}
		_, ok := rawAddr{family: family, payload: payload}.decode()
		require.False(t, ok, "family %d", family)
	}
}

func TestRawAddrDecodeAbsentOrShort(t *testing.T) {
	_, ok := rawAddr{}.decode()
	require.False(t, ok)

	_, ok = rawAddr{family: afInet}.decode()
	require.False(t, ok)

	_, ok = rawAddr{family: afInet, payload: []byte{1, 2, 3}}.decode()
	require.False(t, ok)

	_, ok = rawAddr{family: afInet6, payload: make([]byte, 15)}.decode()
	require.False(t, ok)
}

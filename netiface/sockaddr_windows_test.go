package netiface

import (
	"net/netip"
	"syscall"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"
	"golang.org/x/sys/windows"
)

func TestRawAddrFromSocketAddress(t *testing.T) {
	sa4 := windows.RawSockaddrInet4{Family: windows.AF_INET, Addr: [4]byte{192, 0, 2, 1}}
	addr, ok := rawAddrFromSocketAddress(&windows.SocketAddress{
		Sockaddr:       (*syscall.RawSockaddrAny)(unsafe.Pointer(&sa4)),
		SockaddrLength: int32(unsafe.Sizeof(sa4)),
	}).decode()
	require.True(t, ok)
	require.Equal(t, netip.MustParseAddr("192.0.2.1"), addr)

	sa6 := windows.RawSockaddrInet6{Family: windows.AF_INET6, Addr: netip.MustParseAddr("2001:db8::1").As16()}
	addr, ok = rawAddrFromSocketAddress(&windows.SocketAddress{
		Sockaddr:       (*syscall.RawSockaddrAny)(unsafe.Pointer(&sa6)),
		SockaddrLength: int32(unsafe.Sizeof(sa6)),
	}).decode()
	require.True(t, ok)
	require.Equal(t, netip.MustParseAddr("2001:db8::1"), addr)

	// Truncated record.
	_, ok = rawAddrFromSocketAddress(&windows.SocketAddress{
		Sockaddr:       (*syscall.RawSockaddrAny)(unsafe.Pointer(&sa6)),
		SockaddrLength: int32(unsafe.Sizeof(sa4)),
	}).decode()
	require.False(t, ok)

	_, ok = rawAddrFromSocketAddress(&windows.SocketAddress{}).decode()
	require.False(t, ok)
	_, ok = rawAddrFromSocketAddress(nil).decode()
	require.False(t, ok)
}

func TestAdapterClassFromIfType(t *testing.T) {
	require.Equal(t, adapterClassEthernet, adapterClassFromIfType(windows.IF_TYPE_ETHERNET_CSMACD))
	require.Equal(t, adapterClassWiFi, adapterClassFromIfType(windows.IF_TYPE_IEEE80211))
	require.Equal(t, adapterClassLoopback, adapterClassFromIfType(windows.IF_TYPE_SOFTWARE_LOOPBACK))
	require.Equal(t, adapterClassVirtual, adapterClassFromIfType(windows.IF_TYPE_TUNNEL))
	require.Equal(t, adapterClassOther, adapterClassFromIfType(windows.IF_TYPE_OTHER))
}

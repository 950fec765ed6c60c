package netiface

import (
	"net/netip"
	"runtime"
	"syscall"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"
	"golang.org/x/sys/windows"
)

// tableLayout places structures in a table buffer the way IP Helper does.
type tableLayout struct {
	buf []byte
	off uintptr
}

func (l *tableLayout) reserve(n uintptr) unsafe.Pointer {
	l.off = (l.off + 7) &^ 7
	p := unsafe.Pointer(&l.buf[l.off])
	l.off += n
	return p
}

func (l *tableLayout) adapter(name, description string, ifType, oper uint32) *windows.IpAdapterAddresses {
	nameBytes := append([]byte(name), 0)
	namePtr := (*byte)(l.reserve(uintptr(len(nameBytes))))
	copy(unsafe.Slice(namePtr, len(nameBytes)), nameBytes)

	descUTF16, _ := windows.UTF16FromString(description)
	descPtr := (*uint16)(l.reserve(uintptr(len(descUTF16)) * 2))
	copy(unsafe.Slice(descPtr, len(descUTF16)), descUTF16)

	aa := (*windows.IpAdapterAddresses)(l.reserve(unsafe.Sizeof(windows.IpAdapterAddresses{})))
	aa.Length = uint32(unsafe.Sizeof(*aa))
	aa.AdapterName = namePtr
	aa.Description = descPtr
	aa.IfType = ifType
	aa.OperStatus = oper
	return aa
}

func (l *tableLayout) unicast(s string, suffixOrigin int32) *windows.IpAdapterUnicastAddress {
	addr := netip.MustParseAddr(s)
	ua := (*windows.IpAdapterUnicastAddress)(l.reserve(unsafe.Sizeof(windows.IpAdapterUnicastAddress{})))
	ua.Length = uint32(unsafe.Sizeof(*ua))
	ua.SuffixOrigin = suffixOrigin

	if addr.Is4() {
		sa := (*windows.RawSockaddrInet4)(l.reserve(unsafe.Sizeof(windows.RawSockaddrInet4{})))
		sa.Family = windows.AF_INET
		sa.Addr = addr.As4()
		ua.Address = windows.SocketAddress{
			Sockaddr:       (*syscall.RawSockaddrAny)(unsafe.Pointer(sa)),
			SockaddrLength: int32(unsafe.Sizeof(*sa)),
		}
	} else {
		sa := (*windows.RawSockaddrInet6)(l.reserve(unsafe.Sizeof(windows.RawSockaddrInet6{})))
		sa.Family = windows.AF_INET6
		sa.Addr = addr.As16()
		ua.Address = windows.SocketAddress{
			Sockaddr:       (*syscall.RawSockaddrAny)(unsafe.Pointer(sa)),
			SockaddrLength: int32(unsafe.Sizeof(*sa)),
		}
	}
	return ua
}

func newTestTable(t *testing.T, a *countingAllocator) (*adapterTable, *tableLayout) {
	t.Helper()
	buf, err := a.alloc(8192)
	require.NoError(t, err)
	return &adapterTable{buf: buf, allocator: a}, &tableLayout{buf: a.live[buf.ptr]}
}

func TestWalkAdapterAddresses(t *testing.T) {
	a := newCountingAllocator()
	table, l := newTestTable(t, a)

	eth := l.adapter("{A}", "Intel(R) Ethernet", windows.IF_TYPE_ETHERNET_CSMACD, windows.IfOperStatusUp)
	v4 := l.unicast("10.0.0.5", windows.IpSuffixOriginManual)
	stable := l.unicast("2001:db8::1", windows.IpSuffixOriginLinkLayerAddress)
	random := l.unicast("2001:db8::5eed", windows.IpSuffixOriginRandom)
	eth.FirstUnicastAddress = v4
	v4.Next = stable
	stable.Next = random

	lo := l.adapter("{B}", "Loopback Pseudo-Interface 1", windows.IF_TYPE_SOFTWARE_LOOPBACK, windows.IfOperStatusUp)
	eth.Next = lo

	adapters, err := walkAdapterAddresses(table)
	require.NoError(t, err)
	require.Len(t, adapters, 2)

	require.Equal(t, ID("{A}"), adapters[0].id)
	require.Equal(t, "Intel(R) Ethernet", adapters[0].description)
	require.True(t, adapters[0].up)
	require.Equal(t, adapterClassEthernet, adapters[0].class)
	require.Len(t, adapters[0].unicast, 3)
	require.True(t, adapters[0].unicast[2].randomSuffix)
	require.Equal(t, adapterClassLoopback, adapters[1].class)
	require.Empty(t, adapters[1].unicast)

	ifaces := buildInterfaces(adapters, false)
	require.Equal(t, []Interface{{
		ID:          "{A}",
		Description: "Intel(R) Ethernet",
		Addrs:       addrs("2001:db8::5eed", "10.0.0.5", "2001:db8::1"),
	}}, ifaces)

	table.Close()
	require.Empty(t, a.live)
}

func TestWalkAdapterAddressesNextOutOfBounds(t *testing.T) {
	a := newCountingAllocator()
	table, l := newTestTable(t, a)
	defer table.Close()

	outside := new(windows.IpAdapterAddresses)
	eth := l.adapter("{A}", "Ethernet", windows.IF_TYPE_ETHERNET_CSMACD, windows.IfOperStatusUp)
	eth.Next = outside

	_, err := walkAdapterAddresses(table)
	require.ErrorIs(t, err, errTableEntryOutOfBounds)
	runtime.KeepAlive(outside)
}

func TestWalkAdapterAddressesUnicastOutOfBounds(t *testing.T) {
	a := newCountingAllocator()
	table, l := newTestTable(t, a)
	defer table.Close()

	outside := new(windows.IpAdapterUnicastAddress)
	eth := l.adapter("{A}", "Ethernet", windows.IF_TYPE_ETHERNET_CSMACD, windows.IfOperStatusUp)
	eth.FirstUnicastAddress = outside

	_, err := walkAdapterAddresses(table)
	require.ErrorIs(t, err, errTableEntryOutOfBounds)
	runtime.KeepAlive(outside)
}

func TestWalkAdapterAddressesSockaddrOutOfBounds(t *testing.T) {
	a := newCountingAllocator()
	table, l := newTestTable(t, a)
	defer table.Close()

	outside := &windows.RawSockaddrInet4{Family: windows.AF_INET, Addr: [4]byte{192, 0, 2, 1}}
	eth := l.adapter("{A}", "Ethernet", windows.IF_TYPE_ETHERNET_CSMACD, windows.IfOperStatusUp)
	ua := l.unicast("10.0.0.5", windows.IpSuffixOriginManual)
	ua.Address.Sockaddr = (*syscall.RawSockaddrAny)(unsafe.Pointer(outside))
	eth.FirstUnicastAddress = ua

	_, err := walkAdapterAddresses(table)
	require.ErrorIs(t, err, errTableEntryOutOfBounds)
	runtime.KeepAlive(outside)
}

func TestWalkAdapterAddressesShortSockaddr(t *testing.T) {
	a := newCountingAllocator()
	table, l := newTestTable(t, a)
	defer table.Close()

	eth := l.adapter("{A}", "Ethernet", windows.IF_TYPE_ETHERNET_CSMACD, windows.IfOperStatusUp)
	short := l.unicast("2001:db8::1", windows.IpSuffixOriginLinkLayerAddress)
	short.Address.SockaddrLength = int32(unsafe.Sizeof(windows.RawSockaddrInet4{}))
	v4 := l.unicast("10.0.0.5", windows.IpSuffixOriginManual)
	eth.FirstUnicastAddress = short
	short.Next = v4

	adapters, err := walkAdapterAddresses(table)
	require.NoError(t, err)
	require.Len(t, adapters[0].unicast, 2)

	ifaces := buildInterfaces(adapters, false)
	require.Equal(t, addrs("10.0.0.5"), ifaces[0].Addrs)
}

func TestEnumerateReadsAdapterTable(t *testing.T) {
	ifaces, err := Enumerate(false)
	require.NoError(t, err)
	for _, iface := range ifaces {
		require.NotEmpty(t, iface.ID)
	}
}

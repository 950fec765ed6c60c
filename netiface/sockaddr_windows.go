package netiface

import (
	"unsafe"

	"golang.org/x/sys/windows"
)

const (
	afInet  uint16 = windows.AF_INET
	afInet6 uint16 = windows.AF_INET6
)

// rawAddrFromSocketAddress reads the family tag of a SOCKET_ADDRESS and
// returns a record whose payload aliases the address bytes of the
// family-specific sockaddr layout.
func rawAddrFromSocketAddress(sa *windows.SocketAddress) rawAddr {
	if sa == nil || sa.Sockaddr == nil || sa.SockaddrLength < 2 {
		return rawAddr{}
	}

	p := unsafe.Pointer(sa.Sockaddr)
	family := *(*uint16)(p)
	length := uintptr(sa.SockaddrLength)

	switch family {
	case windows.AF_INET:
		if length < unsafe.Sizeof(windows.RawSockaddrInet4{}) {
			return rawAddr{family: family}
		}
		sa4 := (*windows.RawSockaddrInet4)(p)
		return rawAddr{family: family, payload: sa4.Addr[:]}
	case windows.AF_INET6:
		if length < unsafe.Sizeof(windows.RawSockaddrInet6{}) {
			return rawAddr{family: family}
		}
		sa6 := (*windows.RawSockaddrInet6)(p)
		return rawAddr{family: family, payload: sa6.Addr[:]}
	default:
		return rawAddr{family: family}
	}
}

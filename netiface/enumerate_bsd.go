//go:build darwin || dragonfly || freebsd || netbsd || openbsd

package netiface

import (
	"os"
	"syscall"

	"golang.org/x/net/route"
	"golang.org/x/sys/unix"
)

// linkAddrLenEthernet is the length of an IEEE 802 MAC address.
const linkAddrLenEthernet = 6

// enumerate reads the interface list from the routing socket.
//
// Route messages carry no IPv6 address flags, so the suffix origin is
// unknown and addresses keep their discovery order.
func enumerate(preferStableV6 bool) ([]Interface, error) {
	rib, err := route.FetchRIB(syscall.AF_UNSPEC, route.RIBTypeInterface, 0)
	if err != nil {
		return nil, os.NewSyscallError("route.FetchRIB", err)
	}
	msgs, err := route.ParseRIB(route.RIBTypeInterface, rib)
	if err != nil {
		return nil, os.NewSyscallError("route.ParseRIB", err)
	}
	return buildInterfaces(parseRouteMessages(msgs), preferStableV6), nil
}

func parseRouteMessages(msgs []route.Message) []adapterEntry {
	var adapters []adapterEntry
	indexes := make(map[int]int)

	for _, msg := range msgs {
		switch m := msg.(type) {
		case *route.InterfaceMessage:
			indexes[m.Index] = len(adapters)
			adapters = append(adapters, adapterEntry{
				id:          ID(m.Name),
				description: m.Name,
				up:          m.Flags&unix.IFF_UP != 0 && m.Flags&unix.IFF_RUNNING != 0,
				class:       routeAdapterClass(m),
			})

		case *route.InterfaceAddrMessage:
			pos, ok := indexes[m.Index]
			if !ok || len(m.Addrs) <= unix.RTAX_IFA {
				continue
			}
			var raw rawAddr
			switch a := m.Addrs[unix.RTAX_IFA].(type) {
			case *route.Inet4Addr:
				raw = rawAddr{family: afInet, payload: a.IP[:]}
			case *route.Inet6Addr:
				raw = rawAddr{family: afInet6, payload: a.IP[:]}
			default:
				continue
			}
			adapters[pos].unicast = append(adapters[pos].unicast, unicastEntry{addr: raw})
		}
	}

	return adapters
}

func routeAdapterClass(m *route.InterfaceMessage) adapterClass {
	if m.Flags&unix.IFF_LOOPBACK != 0 {
		return adapterClassLoopback
	}
	if m.Flags&unix.IFF_POINTOPOINT != 0 {
		return adapterClassVirtual
	}
	if len(m.Addrs) > unix.RTAX_IFP {
		if la, ok := m.Addrs[unix.RTAX_IFP].(*route.LinkAddr); ok && len(la.Addr) == linkAddrLenEthernet {
			return adapterClassEthernet
		}
	}
	return adapterClassOther
}

package netiface

import (
	"fmt"
	"net"
	"os"

	"github.com/vishvananda/netlink"
	"golang.org/x/sys/unix"
)

// unusableAddrFlags mark addresses that are not, or no longer, fit to be published.
const unusableAddrFlags = unix.IFA_F_DEPRECATED | unix.IFA_F_TENTATIVE | unix.IFA_F_DADFAILED

// linkIsWireless reports whether the named link is a wireless device.
// Replaced in tests.
var linkIsWireless = func(name string) bool {
	_, err := os.Stat("/sys/class/net/" + name + "/wireless")
	return err == nil
}

func enumerate(preferStableV6 bool) ([]Interface, error) {
	links, err := netlink.LinkList()
	if err != nil {
		return nil, fmt.Errorf("failed to list links: %w", err)
	}
	addrs, err := netlink.AddrList(nil, netlink.FAMILY_ALL)
	if err != nil {
		return nil, fmt.Errorf("failed to list addresses: %w", err)
	}
	return buildInterfaces(linkEntries(links, addrs), preferStableV6), nil
}

// linkEntries joins a link dump and an address dump into adapter entries,
// keeping the kernel's link order and per-link address order.
func linkEntries(links []netlink.Link, addrs []netlink.Addr) []adapterEntry {
	adapters := make([]adapterEntry, 0, len(links))
	indexes := make(map[int]int, len(links))

	for _, link := range links {
		attrs := link.Attrs()
		indexes[attrs.Index] = len(adapters)
		adapters = append(adapters, adapterEntry{
			id:          ID(attrs.Name),
			description: attrs.Name,
			up:          linkIsUp(attrs),
			class:       linkClass(link),
		})
	}

	for _, addr := range addrs {
		pos, ok := indexes[addr.LinkIndex]
		if !ok || addr.IPNet == nil || addr.Flags&unusableAddrFlags != 0 {
			continue
		}
		adapters[pos].unicast = append(adapters[pos].unicast, unicastEntry{
			addr:         rawAddrFromIP(addr.IP),
			randomSuffix: addr.Flags&unix.IFA_F_TEMPORARY != 0,
		})
	}

	return adapters
}

// linkIsUp reports whether the link is operational. Drivers that do not
// report an operational state count as up when they are up and running.
func linkIsUp(attrs *netlink.LinkAttrs) bool {
	switch attrs.OperState {
	case netlink.OperUp:
		return true
	case netlink.OperUnknown:
		const upRunning = net.FlagUp | net.FlagRunning
		return attrs.Flags&upRunning == upRunning
	default:
		return false
	}
}

func linkClass(link netlink.Link) adapterClass {
	attrs := link.Attrs()
	switch {
	case attrs.EncapType == "loopback" || attrs.Flags&net.FlagLoopback != 0:
		return adapterClassLoopback
	case link.Type() != "device":
		// Bridges, veth pairs, tunnels and every other link with a kind.
		return adapterClassVirtual
	case attrs.EncapType == "ether":
		if linkIsWireless(attrs.Name) {
			return adapterClassWiFi
		}
		return adapterClassEthernet
	default:
		return adapterClassOther
	}
}

func rawAddrFromIP(ip net.IP) rawAddr {
	switch len(ip) {
	case net.IPv4len:
		return rawAddr{family: afInet, payload: ip}
	case net.IPv6len:
		return rawAddr{family: afInet6, payload: ip}
	default:
		return rawAddr{}
	}
}

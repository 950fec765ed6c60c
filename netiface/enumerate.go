package netiface

import (
	"fmt"
	"net/netip"
	"slices"
	"strings"
)

// adapterClass is the coarse kind of a network adapter.
type adapterClass uint8

const (
	adapterClassOther adapterClass = iota
	adapterClassEthernet
	adapterClassWiFi
	adapterClassLoopback
	adapterClassVirtual
)

func (c adapterClass) String() string {
	switch c {
	case adapterClassOther:
		return "other"
	case adapterClassEthernet:
		return "ethernet"
	case adapterClassWiFi:
		return "wifi"
	case adapterClassLoopback:
		return "loopback"
	case adapterClassVirtual:
		return "virtual"
	default:
		return fmt.Sprintf("invalid(%d)", uint8(c))
	}
}

// virtualDescriptionMarkers are substrings of adapter descriptions that
// give away virtual adapters reporting a physical class.
var virtualDescriptionMarkers = []string{
	"Virtual",
}

// adapterEntry is a platform-neutral view of one adapter in the table.
// Address payloads may alias the table buffer.
type adapterEntry struct {
	id          ID
	description string
	up          bool
	class       adapterClass
	unicast     []unicastEntry
}

// unicastEntry is one unicast address attached to an adapter.
type unicastEntry struct {
	addr rawAddr

	// randomSuffix is set for IPv6 addresses with a randomly generated
	// interface identifier (privacy extensions).
	randomSuffix bool
}

// accepted reports whether the adapter passes the adapter-level filters.
func (a *adapterEntry) accepted() bool {
	if !a.up {
		return false
	}

	switch a.class {
	case adapterClassEthernet, adapterClassWiFi:
	default:
		return false
	}

	for _, marker := range virtualDescriptionMarkers {
		if strings.Contains(a.description, marker) {
			return false
		}
	}
	return true
}

// buildInterfaces filters adapters and orders their addresses.
// It must be called while the table backing the entries is still live.
func buildInterfaces(adapters []adapterEntry, preferStableV6 bool) []Interface {
	var ifaces []Interface
	for i := range adapters {
		a := &adapters[i]
		if !a.accepted() {
			continue
		}
		ifaces = append(ifaces, Interface{
			ID:          a.id,
			Description: a.description,
			Addrs:       orderAddrs(a.unicast, preferStableV6),
		})
	}
	return ifaces
}

// orderAddrs decodes the entries in discovery order. Unless preferStableV6
// is set, each random-suffix IPv6 address is inserted at the front, so the
// last one discovered ends up first.
func orderAddrs(entries []unicastEntry, preferStableV6 bool) []netip.Addr {
	addrs := make([]netip.Addr, 0, len(entries))
	for _, e := range entries {
		addr, ok := e.addr.decode()
		if !ok {
			continue
		}
		if !preferStableV6 && e.randomSuffix && addr.Is6() {
			addrs = slices.Insert(addrs, 0, addr)
		} else {
			addrs = append(addrs, addr)
		}
	}
	return addrs
}

package netiface

import "net/netip"

// rawAddr is an address record as handed out by the operating system:
// an address family tag and the family-specific address bytes.
//
// The payload may alias OS-owned memory. It must not be retained beyond
// the call to decode.
type rawAddr struct {
	family  uint16
	payload []byte
}

// decode returns the IP address held by the record.
// Records of an unknown family, or with a short payload, yield false.
func (r rawAddr) decode() (netip.Addr, bool) {
	switch r.family {
	case afInet:
		if len(r.payload) < 4 {
			return netip.Addr{}, false
		}
		// Network byte order, independent of host endianness.
		return netip.AddrFrom4([4]byte{r.payload[0], r.payload[1], r.payload[2], r.payload[3]}), true
	case afInet6:
		if len(r.payload) < 16 {
			return netip.Addr{}, false
		}
		return netip.AddrFrom16([16]byte(r.payload[:16])), true
	default:
		return netip.Addr{}, false
	}
}

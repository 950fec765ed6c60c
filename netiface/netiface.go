package netiface

import (
	"errors"
	"net/netip"
)

// ID identifies a network interface across enumerations.
//
// On Windows this is the adapter name (a GUID string). Elsewhere it is the
// interface name.
type ID string

// Interface is a network interface that survived the adapter filters.
type Interface struct {
	// ID is the stable platform identity of the interface.
	ID ID

	// Description is a human-readable description, only used for logging.
	Description string

	// Addrs is the list of unicast addresses, most preferred first.
	Addrs []netip.Addr
}

// FirstAddr4 returns the first IPv4 address of the interface.
func (i *Interface) FirstAddr4() (netip.Addr, bool) {
	for _, addr := range i.Addrs {
		if addr.Is4() {
			return addr, true
		}
	}
	return netip.Addr{}, false
}

// FirstAddr6 returns the first IPv6 address of the interface.
func (i *Interface) FirstAddr6() (netip.Addr, bool) {
	for _, addr := range i.Addrs {
		if addr.Is6() {
			return addr, true
		}
	}
	return netip.Addr{}, false
}

// ErrNoInterfaceAvailable is returned when there is no interface to select from.
var ErrNoInterfaceAvailable = errors.New("no interface available")

// EnumerateUnsupportedError is returned when the platform has no interface enumerator.
type EnumerateUnsupportedError struct{}

func (EnumerateUnsupportedError) Error() string {
	return "interface enumeration is not supported on this platform"
}

func (EnumerateUnsupportedError) Is(target error) bool {
	return target == errors.ErrUnsupported
}

var ErrEnumerateUnsupported = EnumerateUnsupportedError{}

var (
	// ErrTableAlloc is returned when the adapter table buffer cannot be allocated.
	ErrTableAlloc = errors.New("failed to allocate adapter table buffer")

	// ErrTableSizeUnstable is returned when the adapter table keeps growing
	// beyond the retry limit.
	ErrTableSizeUnstable = errors.New("adapter table size did not settle")
)

// IsFatal reports whether err leaves the process unable to enumerate
// interfaces in any later cycle.
func IsFatal(err error) bool {
	return errors.Is(err, ErrTableAlloc) || errors.Is(err, ErrTableSizeUnstable)
}

// Enumerate returns the host's physical, operational network interfaces
// in the order reported by the operating system.
//
// When preferStableV6 is false, IPv6 addresses with a random (privacy)
// suffix are moved to the front of each interface's address list.
func Enumerate(preferStableV6 bool) ([]Interface, error) {
	return enumerate(preferStableV6)
}

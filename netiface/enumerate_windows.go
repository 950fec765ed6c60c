package netiface

import (
	"errors"
	"fmt"
	"os"
	"unsafe"

	"github.com/database64128/aliddns-go/netiface/internal/iphlpapi"
	"golang.org/x/sys/windows"
)

const adapterAddressesFlags = windows.GAA_FLAG_SKIP_ANYCAST |
	windows.GAA_FLAG_SKIP_MULTICAST |
	windows.GAA_FLAG_SKIP_DNS_SERVER |
	windows.GAA_FLAG_SKIP_FRIENDLY_NAME

// errTableEntryOutOfBounds is returned when a link in the adapter table
// points outside the table buffer.
var errTableEntryOutOfBounds = errors.New("adapter table entry points outside the table buffer")

// localAllocator allocates table buffers from the local heap.
type localAllocator struct{}

func (localAllocator) alloc(size uint32) (tableBuffer, error) {
	p, err := iphlpapi.AllocTable(size)
	if err != nil {
		return tableBuffer{}, os.NewSyscallError("LocalAlloc", err)
	}
	return tableBuffer{ptr: p, size: size}, nil
}

func (localAllocator) free(buf tableBuffer) {
	_ = iphlpapi.FreeTable(buf.ptr)
}

func probeAdapterAddresses(buf tableBuffer, size *uint32) error {
	*size = buf.size
	switch err := windows.GetAdaptersAddresses(windows.AF_UNSPEC, adapterAddressesFlags, 0, (*windows.IpAdapterAddresses)(buf.ptr), size); err {
	case nil:
		return nil
	case windows.ERROR_BUFFER_OVERFLOW:
		return errTableTooSmall
	default:
		return os.NewSyscallError("GetAdaptersAddresses", err)
	}
}

func enumerate(preferStableV6 bool) ([]Interface, error) {
	table, err := readTable(localAllocator{}, probeAdapterAddresses, initialTableSize)
	if err != nil {
		return nil, err
	}
	defer table.Close()

	adapters, err := walkAdapterAddresses(table)
	if err != nil {
		return nil, err
	}
	return buildInterfaces(adapters, preferStableV6), nil
}

// walkAdapterAddresses follows the IP_ADAPTER_ADDRESSES chain in the table.
// The returned entries alias the table and are only valid until it is closed.
func walkAdapterAddresses(table *adapterTable) ([]adapterEntry, error) {
	var adapters []adapterEntry

	for aa := (*windows.IpAdapterAddresses)(table.head()); aa != nil; aa = aa.Next {
		if !table.contains(unsafe.Pointer(aa), unsafe.Sizeof(*aa)) {
			return nil, errTableEntryOutOfBounds
		}

		entry := adapterEntry{
			id:          ID(windows.BytePtrToString(aa.AdapterName)),
			description: windows.UTF16PtrToString(aa.Description),
			up:          aa.OperStatus == uint32(windows.IfOperStatusUp),
			class:       adapterClassFromIfType(aa.IfType),
		}

		for ua := aa.FirstUnicastAddress; ua != nil; ua = ua.Next {
			if !table.contains(unsafe.Pointer(ua), unsafe.Sizeof(*ua)) {
				return nil, errTableEntryOutOfBounds
			}
			if ua.Address.Sockaddr != nil &&
				!table.contains(unsafe.Pointer(ua.Address.Sockaddr), uintptr(max(ua.Address.SockaddrLength, 0))) {
				return nil, fmt.Errorf("adapter %q: unicast sockaddr: %w", entry.id, errTableEntryOutOfBounds)
			}
			entry.unicast = append(entry.unicast, unicastEntry{
				addr:         rawAddrFromSocketAddress(&ua.Address),
				randomSuffix: ua.SuffixOrigin == int32(windows.IpSuffixOriginRandom),
			})
		}

		adapters = append(adapters, entry)
	}

	return adapters, nil
}

func adapterClassFromIfType(ifType uint32) adapterClass {
	switch ifType {
	case windows.IF_TYPE_ETHERNET_CSMACD:
		return adapterClassEthernet
	case windows.IF_TYPE_IEEE80211:
		return adapterClassWiFi
	case windows.IF_TYPE_SOFTWARE_LOOPBACK:
		return adapterClassLoopback
	case windows.IF_TYPE_TUNNEL, windows.IF_TYPE_PPP:
		return adapterClassVirtual
	default:
		return adapterClassOther
	}
}

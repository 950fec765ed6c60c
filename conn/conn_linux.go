package conn

import (
	"fmt"

	"golang.org/x/sys/unix"
)

func setFwmark(fd, fwmark int) error {
	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_MARK, fwmark); err != nil {
		return fmt.Errorf("failed to set socket option SO_MARK: %w", err)
	}
	return nil
}

func setTrafficClass(fd int, network string, trafficClass int) error {
	switch network {
	case "tcp4":
		if err := unix.SetsockoptInt(fd, unix.IPPROTO_IP, unix.IP_TOS, trafficClass); err != nil {
			return fmt.Errorf("failed to set socket option IP_TOS: %w", err)
		}
	case "tcp6":
		if err := unix.SetsockoptInt(fd, unix.IPPROTO_IPV6, unix.IPV6_TCLASS, trafficClass); err != nil {
			return fmt.Errorf("failed to set socket option IPV6_TCLASS: %w", err)
		}
	default:
		return fmt.Errorf("unsupported network: %s", network)
	}
	return nil
}

func (fns setFuncSlice) appendSetFwmarkFunc(fwmark int) setFuncSlice {
	if fwmark != 0 {
		return append(fns, func(fd int, _ string) error {
			return setFwmark(fd, fwmark)
		})
	}
	return fns
}

func (fns setFuncSlice) appendSetTrafficClassFunc(trafficClass int) setFuncSlice {
	if trafficClass != 0 {
		return append(fns, func(fd int, network string) error {
			return setTrafficClass(fd, network, trafficClass)
		})
	}
	return fns
}

func (opts DialerOptions) buildSetFns() setFuncSlice {
	return setFuncSlice{}.
		appendSetFwmarkFunc(opts.Fwmark).
		appendSetTrafficClassFunc(opts.TrafficClass)
}

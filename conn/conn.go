// Package conn configures the sockets used for outbound API requests.
package conn

import (
	"context"
	"net"
	"net/http"
	"syscall"
	"time"
)

type setFunc = func(fd int, network string) error

type setFuncSlice []setFunc

func (fns setFuncSlice) controlContextFunc() func(ctx context.Context, network, address string, c syscall.RawConn) error {
	if len(fns) == 0 {
		return nil
	}
	return func(ctx context.Context, network, address string, c syscall.RawConn) (err error) {
		if cerr := c.Control(func(fd uintptr) {
			for _, fn := range fns {
				if err = fn(int(fd), network); err != nil {
					return
				}
			}
		}); cerr != nil {
			return cerr
		}
		return
	}
}

// DialerOptions contains socket options for outbound TCP connections.
type DialerOptions struct {
	// Fwmark sets the socket's fwmark on Linux.
	//
	// Available on Linux. On other platforms, this is ignored.
	Fwmark int `json:"fwmark,omitzero" envconfig:"FWMARK"`

	// TrafficClass sets the traffic class of the socket.
	//
	// Available on Linux. On other platforms, this is ignored.
	TrafficClass int `json:"trafficClass,omitzero" envconfig:"TRAFFIC_CLASS"`
}

// Dialer returns a [*net.Dialer] that applies the socket options.
func (opts DialerOptions) Dialer() *net.Dialer {
	return &net.Dialer{
		ControlContext: opts.buildSetFns().controlContextFunc(),
	}
}

// HTTPClient returns an HTTP client whose connections are dialed with the
// socket options. Each request is bounded by timeout.
func (opts DialerOptions) HTTPClient(timeout time.Duration) *http.Client {
	if opts == (DialerOptions{}) {
		return &http.Client{Timeout: timeout}
	}
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.DialContext = opts.Dialer().DialContext
	return &http.Client{
		Transport: t,
		Timeout:   timeout,
	}
}

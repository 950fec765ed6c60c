//go:build !linux

package conn

func (opts DialerOptions) buildSetFns() setFuncSlice {
	return nil
}

//go:build !unix && !windows

package netiface

const (
	afInet  uint16 = 2
	afInet6 uint16 = 10
)

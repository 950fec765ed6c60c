//go:build unix

package netiface

import "golang.org/x/sys/unix"

const (
	afInet  uint16 = unix.AF_INET
	afInet6 uint16 = unix.AF_INET6
)

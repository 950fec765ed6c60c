//go:build !linux && !windows && !darwin && !dragonfly && !freebsd && !netbsd && !openbsd

package netiface

func enumerate(bool) ([]Interface, error) {
	return nil, ErrEnumerateUnsupported
}

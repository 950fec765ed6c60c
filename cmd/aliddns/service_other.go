//go:build !windows

package main

import (
	"errors"
	"fmt"
)

func runService() error {
	return fmt.Errorf("service mode: %w", errors.ErrUnsupported)
}

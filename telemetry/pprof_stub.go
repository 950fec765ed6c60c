//go:build aliddns_nopprof

package telemetry

import "net/http"

func registerPprof(*http.ServeMux) error {
	return ErrPprofDisabled
}

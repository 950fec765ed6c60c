// Package ipquery looks up the public address of the host from an
// external HTTP service that echoes the client address as plain text.
package ipquery

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/netip"
	"strings"
	"time"
)

// DefaultIPv4URL answers with the caller's public IPv4 address.
const DefaultIPv4URL = "http://api-ipv4.ip.sb/ip"

// DefaultTimeout bounds each lookup made with the default HTTP client.
const DefaultTimeout = 5 * time.Second

const maxResponseSize = 256

// ErrUnexpectedFamily is returned when the service answers with an
// address of the wrong family.
var ErrUnexpectedFamily = errors.New("unexpected address family")

var defaultHTTPClient = &http.Client{Timeout: DefaultTimeout}

// Resolver resolves the public address using an ifconfig-style service.
type Resolver struct {
	// URL is the service URL.
	URL string

	// Client defaults to a client with [DefaultTimeout].
	Client *http.Client

	// Want4 rejects answers that are not IPv4 addresses.
	Want4 bool
}

// NewIPv4Resolver returns a resolver for the public IPv4 address.
func NewIPv4Resolver(url string) *Resolver {
	if url == "" {
		url = DefaultIPv4URL
	}
	return &Resolver{URL: url, Want4: true}
}

// Resolve queries the service.
func (r *Resolver) Resolve(ctx context.Context) (netip.Addr, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.URL, nil)
	if err != nil {
		return netip.Addr{}, err
	}
	req.Header.Set("User-Agent", "curl")

	client := r.Client
	if client == nil {
		client = defaultHTTPClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return netip.Addr{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return netip.Addr{}, fmt.Errorf("unexpected HTTP status %d from %q", resp.StatusCode, r.URL)
	}

	b, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return netip.Addr{}, fmt.Errorf("failed to read response from %q: %w", r.URL, err)
	}

	addr, err := netip.ParseAddr(strings.TrimSpace(string(b)))
	if err != nil {
		return netip.Addr{}, fmt.Errorf("failed to parse response from %q: %w", r.URL, err)
	}
	addr = addr.Unmap()

	if r.Want4 && !addr.Is4() {
		return netip.Addr{}, fmt.Errorf("%w: %s", ErrUnexpectedFamily, addr)
	}
	return addr, nil
}

package service

import (
	"context"
	"errors"
	"fmt"
	"net/netip"
	"strings"
	"time"

	"github.com/database64128/aliddns-go/aliyun"
	"github.com/database64128/aliddns-go/netiface"
	"go.uber.org/zap"
)

var (
	// ErrNoIPv4Address is returned when the selected interface has no IPv4 address.
	ErrNoIPv4Address = errors.New("no IPv4 address is available")

	// ErrNoIPv6Address is returned when the selected interface has no IPv6 address.
	ErrNoIPv6Address = errors.New("no IPv6 address is available")
)

// RecordUpdater publishes an address to a DNS record.
type RecordUpdater interface {
	UpdateRecord(ctx context.Context, recordID uint64, addr netip.Addr) error
}

// AddrResolver resolves the host's public address.
type AddrResolver interface {
	Resolve(ctx context.Context) (netip.Addr, error)
}

// EnumerateFunc lists the host's candidate interfaces.
type EnumerateFunc func(preferStableV6 bool) ([]netiface.Interface, error)

// Updater runs update cycles: enumerate, select, publish.
//
// It holds the only state carried across cycles, the selector, and must
// be driven by a single goroutine.
type Updater struct {
	logger     *zap.Logger
	interval   time.Duration
	recordIDv4 uint64
	recordIDv6 uint64
	staticV6   bool
	enumerate  EnumerateFunc
	selector   *netiface.Selector
	records    RecordUpdater
	globalV4   AddrResolver
	metrics    *Metrics
}

// String implements [Service.String].
func (u *Updater) String() string {
	return "updater"
}

// Run runs update cycles until ctx is canceled or a fatal error occurs.
//
// Cancellation is observed between cycles. A cycle in progress runs to
// completion.
func (u *Updater) Run(ctx context.Context) error {
	u.logger.Info("Started updater", zap.Duration("interval", u.interval))

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			u.logger.Info("Stopped updater")
			return nil
		case <-timer.C:
		}

		published, err := u.RunCycle(context.WithoutCancel(ctx))
		switch {
		case err != nil:
			if netiface.IsFatal(err) {
				u.logger.Error("Stopping updater on fatal error", zap.Error(err))
				return err
			}
			u.logger.Warn("Update cycle failed", zap.Error(err))
		case len(published) > 0:
			u.logger.Info("Updated records", zap.String("addrs", joinAddrs(published)))
		}

		timer.Reset(u.interval)
	}
}

// RunCycle runs one update cycle and returns the addresses that were
// successfully published.
//
// A failed record update is logged and does not prevent the other record
// from being updated. Failing to obtain an address fails the cycle.
func (u *Updater) RunCycle(ctx context.Context) (published []netip.Addr, err error) {
	defer func() {
		if u.metrics != nil {
			u.metrics.cycles.WithLabelValues(resultLabel(err)).Inc()
		}
	}()

	var iface netiface.Interface
	if u.recordIDv6 != 0 || u.recordIDv4 != 0 && u.globalV4 == nil {
		iface, err = u.selectInterface()
		if err != nil {
			return nil, err
		}
	}

	if u.recordIDv6 != 0 {
		addr, ok := iface.FirstAddr6()
		if !ok {
			return nil, fmt.Errorf("interface %q: %w", iface.ID, ErrNoIPv6Address)
		}
		if u.updateRecord(ctx, u.recordIDv6, addr) {
			published = append(published, addr)
		}
	}

	if u.recordIDv4 != 0 {
		var addr netip.Addr
		if u.globalV4 != nil {
			addr, err = u.globalV4.Resolve(ctx)
			if err != nil {
				return published, fmt.Errorf("unable to get global IPv4 address: %w", err)
			}
		} else {
			var ok bool
			addr, ok = iface.FirstAddr4()
			if !ok {
				return published, fmt.Errorf("interface %q: %w", iface.ID, ErrNoIPv4Address)
			}
		}
		if u.updateRecord(ctx, u.recordIDv4, addr) {
			published = append(published, addr)
		}
	}

	return published, nil
}

func (u *Updater) selectInterface() (netiface.Interface, error) {
	ifaces, err := u.enumerate(u.staticV6)
	if err != nil {
		return netiface.Interface{}, fmt.Errorf("unable to list interfaces: %w", err)
	}

	prevID, wasBound := u.selector.Current()

	iface, err := u.selector.Select(ifaces)
	if err != nil {
		return netiface.Interface{}, err
	}

	if wasBound && iface.ID != prevID && u.metrics != nil {
		u.metrics.interfaceSwitch.Inc()
	}

	if ce := u.logger.Check(zap.DebugLevel, "Using interface"); ce != nil {
		ce.Write(
			zap.String("interfaceID", string(iface.ID)),
			zap.String("description", iface.Description),
			zap.String("addrs", joinAddrs(iface.Addrs)),
		)
	}
	return iface, nil
}

func (u *Updater) updateRecord(ctx context.Context, recordID uint64, addr netip.Addr) bool {
	err := u.records.UpdateRecord(ctx, recordID, addr)

	if u.metrics != nil {
		u.metrics.recordUpdates.WithLabelValues(aliyun.RecordType(addr), resultLabel(err)).Inc()
		if err == nil {
			u.metrics.lastUpdateSecond.SetToCurrentTime()
		}
	}

	if err != nil {
		u.logger.Warn("Failed to update record",
			zap.Uint64("recordID", recordID),
			zap.Stringer("addr", addr),
			zap.Error(err),
		)
		return false
	}
	return true
}

func joinAddrs(addrs []netip.Addr) string {
	var sb strings.Builder
	for i, addr := range addrs {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(addr.String())
	}
	return sb.String()
}

// Package service wires the updater and its auxiliary services together.
package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Service is a component that runs in the background between Start and Stop.
type Service interface {
	// String returns the name of the service.
	String() string

	// Start starts the service.
	Start(ctx context.Context) error

	// Stop stops the service.
	Stop() error
}

// Manager runs the updater loop alongside auxiliary services.
type Manager struct {
	logger   *zap.Logger
	updater  *Updater
	services []Service
}

// NewManager returns a manager for the given config.
func (c *Config) NewManager(logger *zap.Logger) (*Manager, error) {
	metrics := NewMetrics()

	m := Manager{
		logger:  logger,
		updater: c.NewUpdater(logger, metrics),
	}

	if c.Telemetry.Enabled {
		s, err := c.Telemetry.NewService(logger, metrics.Registry)
		if err != nil {
			return nil, fmt.Errorf("failed to create telemetry service: %w", err)
		}
		m.services = append(m.services, s)
	}

	return &m, nil
}

// Updater returns the manager's updater.
func (m *Manager) Updater() *Updater {
	return m.updater
}

// Run starts the auxiliary services, runs the updater loop until ctx is
// canceled or the loop fails, and stops the services in reverse order.
func (m *Manager) Run(ctx context.Context) error {
	for i, s := range m.services {
		if err := s.Start(ctx); err != nil {
			m.stopServices(i)
			return fmt.Errorf("failed to start %s: %w", s, err)
		}
	}

	err := m.updater.Run(ctx)

	m.stopServices(len(m.services))
	return err
}

// stopServices stops the first n services in reverse order.
func (m *Manager) stopServices(n int) {
	for i := n - 1; i >= 0; i-- {
		s := m.services[i]
		if err := s.Stop(); err != nil {
			m.logger.Warn("Failed to stop service",
				zap.Stringer("service", s),
				zap.Error(err),
			)
		}
	}
}

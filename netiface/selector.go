package netiface

import "go.uber.org/zap"

// Selector picks one interface per cycle, preferring the interface it
// picked last time over the first-listed one.
//
// A Selector is not safe for concurrent use. It is owned by a single
// update loop.
type Selector struct {
	logger  *zap.Logger
	current ID
	bound   bool
}

// NewSelector returns a selector that has not selected any interface yet.
func NewSelector(logger *zap.Logger) *Selector {
	return &Selector{logger: logger}
}

// Current returns the identity of the last selected interface.
func (s *Selector) Current() (ID, bool) {
	return s.current, s.bound
}

// Select returns the interface to use for this cycle.
//
// If the previously selected interface is still listed, it is returned.
// Otherwise the first interface is selected, and the switch is logged.
// An empty list yields [ErrNoInterfaceAvailable] and leaves the selector unchanged.
func (s *Selector) Select(ifaces []Interface) (Interface, error) {
	if s.bound {
		for i := range ifaces {
			if ifaces[i].ID == s.current {
				return ifaces[i], nil
			}
		}
	}

	if len(ifaces) == 0 {
		return Interface{}, ErrNoInterfaceAvailable
	}

	iface := ifaces[0]

	if s.bound {
		s.logger.Info("Switched interface",
			zap.String("oldInterfaceID", string(s.current)),
			zap.String("newInterfaceID", string(iface.ID)),
			zap.String("description", iface.Description),
		)
	} else {
		s.logger.Info("Selected interface",
			zap.String("interfaceID", string(iface.ID)),
			zap.String("description", iface.Description),
		)
	}

	s.current = iface.ID
	s.bound = true
	return iface, nil
}

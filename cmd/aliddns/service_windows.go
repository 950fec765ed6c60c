package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sys/windows/svc"
)

const serviceName = "AliDDNS"

// runService runs the updater under the service control manager.
// Logs go to log.txt next to the executable.
func runService() error {
	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("failed to locate executable: %w", err)
	}
	if err = os.Chdir(filepath.Dir(exe)); err != nil {
		return err
	}

	f, err := os.Create("log.txt")
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}
	defer f.Close()

	level := zap.NewAtomicLevel()
	logger := newLogger(zapcore.Lock(f), level)
	defer logger.Sync()

	return svc.Run(serviceName, &handler{logger: logger, level: level})
}

type handler struct {
	logger *zap.Logger
	level  zap.AtomicLevel
}

// Execute implements [svc.Handler].
func (h *handler) Execute(_ []string, r <-chan svc.ChangeRequest, s chan<- svc.Status) (bool, uint32) {
	s <- svc.Status{State: svc.StartPending}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- run(ctx, h.logger, h.level)
	}()

	s <- svc.Status{State: svc.Running, Accepts: svc.AcceptStop | svc.AcceptShutdown}
	h.logger.Info("Service started")

	for {
		select {
		case err := <-done:
			s <- svc.Status{State: svc.StopPending}
			if err != nil {
				h.logger.Error("Service failed", zap.Error(err))
				return false, 1
			}
			return false, 0

		case c := <-r:
			switch c.Cmd {
			case svc.Interrogate:
				s <- c.CurrentStatus
			case svc.Stop, svc.Shutdown:
				s <- svc.Status{State: svc.StopPending}
				cancel()
				if err := <-done; err != nil {
					h.logger.Warn("Updater exited with error", zap.Error(err))
				}
				h.logger.Info("Service stopped")
				return false, 0
			default:
				h.logger.Warn("Unexpected service control request", zap.Uint32("cmd", uint32(c.Cmd)))
			}
		}
	}
}

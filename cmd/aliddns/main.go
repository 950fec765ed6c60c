package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/database64128/aliddns-go/service"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	configPath = flag.String("config", "config.json", "Path to the JSON config file")
	envPath    = flag.String("env", ".env", "Path to the optional dotenv file")
	logLevel   = flag.String("logLevel", "", "Override the log level in the config. Valid values: debug, info, warn, error")
	srv        = flag.Bool("srv", false, "Run as a Windows service")
	once       = flag.Bool("once", false, "Run a single update cycle and exit")
)

func main() {
	flag.Parse()

	if *srv {
		if err := runService(); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}

	os.Exit(runForeground())
}

// runForeground runs with a console logger until interrupted and returns
// the exit status.
func runForeground() int {
	level := zap.NewAtomicLevel()
	logger := newLogger(zapcore.Lock(os.Stderr), level)
	defer logger.Sync()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, logger, level); err != nil {
		logger.Error("Failed to run", zap.Error(err))
		return 1
	}
	return 0
}

// newLogger returns a console logger writing to ws at the given level.
func newLogger(ws zapcore.WriteSyncer, level zap.AtomicLevel) *zap.Logger {
	encoderConfig := zap.NewDevelopmentEncoderConfig()
	encoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05")
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig), ws, level)
	return zap.New(core)
}

// resolveLevel returns the log level from the flag override, or from cfg.
func resolveLevel(cfg *service.Config, override string) (zapcore.Level, error) {
	if override != "" {
		return service.ParseLevel(override)
	}
	return cfg.Level()
}

// run loads the config and runs the manager until ctx is canceled,
// or a single update cycle when -once is set.
func run(ctx context.Context, logger *zap.Logger, level zap.AtomicLevel) error {
	cfg, err := service.LoadConfig(*configPath, *envPath)
	if err != nil {
		return err
	}

	l, err := resolveLevel(cfg, *logLevel)
	if err != nil {
		return err
	}
	level.SetLevel(l)

	m, err := cfg.NewManager(logger)
	if err != nil {
		return err
	}

	if *once {
		published, err := m.Updater().RunCycle(ctx)
		if len(published) > 0 {
			logger.Info("Updated records", zap.Stringers("addrs", published))
		}
		return err
	}

	return m.Run(ctx)
}

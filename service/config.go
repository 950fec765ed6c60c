package service

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/database64128/aliddns-go/aliyun"
	"github.com/database64128/aliddns-go/conn"
	"github.com/database64128/aliddns-go/ipquery"
	"github.com/database64128/aliddns-go/netiface"
	"github.com/database64128/aliddns-go/telemetry"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// EnvPrefix is the prefix of environment variables overriding the config file.
const EnvPrefix = "ALIDDNS"

// Config validation errors.
var (
	ErrNoRecordID        = errors.New("no record ID is available")
	ErrEmptyAccessKey    = errors.New("accessKeyId and accessKeySecret must not be empty")
	ErrEmptyRR           = errors.New("rr must not be empty")
	ErrInvalidInterval   = errors.New("intervalSecs must be positive")
	ErrInvalidLogLevel   = errors.New("logLevel must be debug, info, warn, or error")
	ErrGlobalV4URLUnused = errors.New("globalV4URL is set but globalV4 is disabled")
)

// Config is the configuration of the updater.
type Config struct {
	// IntervalSecs is the number of seconds between update cycles.
	IntervalSecs int `json:"intervalSecs" envconfig:"INTERVAL_SECS"`

	// AccessKeyID is the RAM access key ID.
	AccessKeyID string `json:"accessKeyId" envconfig:"ACCESS_KEY_ID"`

	// AccessKeySecret is the RAM access key secret.
	AccessKeySecret string `json:"accessKeySecret" envconfig:"ACCESS_KEY_SECRET"`

	// RecordIDv4 is the ID of the A record. Zero disables IPv4 updates.
	RecordIDv4 uint64 `json:"recordIdV4,omitzero" envconfig:"RECORD_ID_V4"`

	// RecordIDv6 is the ID of the AAAA record. Zero disables IPv6 updates.
	RecordIDv6 uint64 `json:"recordIdV6,omitzero" envconfig:"RECORD_ID_V6"`

	// GlobalV4 publishes the public IPv4 address reported by an external
	// service instead of the selected interface's IPv4 address.
	GlobalV4 bool `json:"globalV4" envconfig:"GLOBAL_V4"`

	// GlobalV4URL overrides [ipquery.DefaultIPv4URL].
	GlobalV4URL string `json:"globalV4URL,omitzero" envconfig:"GLOBAL_V4_URL"`

	// StaticV6 prefers stable IPv6 addresses over temporary (privacy) ones.
	StaticV6 bool `json:"staticV6" envconfig:"STATIC_V6"`

	// RR is the host record.
	RR string `json:"rr" envconfig:"RR"`

	// Endpoint overrides [aliyun.DefaultEndpoint].
	Endpoint string `json:"endpoint,omitzero" envconfig:"ENDPOINT"`

	// LogLevel is one of debug, info, warn, error. Defaults to info.
	LogLevel string `json:"logLevel,omitzero" envconfig:"LOG_LEVEL"`

	// Dialer configures the sockets of outbound API requests.
	Dialer conn.DialerOptions `json:"dialer" envconfig:"DIALER"`

	// Telemetry configures the metrics and pprof HTTP service.
	Telemetry telemetry.Config `json:"telemetry" envconfig:"TELEMETRY"`
}

// LoadConfig reads the JSON config file at path, if path is not empty,
// loads the optional dotenv file at envFile, and applies environment overrides.
func LoadConfig(path, envFile string) (*Config, error) {
	var cfg Config

	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("unable to load config: %w", err)
		}
		d := json.NewDecoder(bytes.NewReader(b))
		d.DisallowUnknownFields()
		if err := d.Decode(&cfg); err != nil {
			return nil, fmt.Errorf("unable to parse config: %w", err)
		}
	}

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("unable to load env file: %w", err)
		}
	}

	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("unable to apply environment overrides: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.RecordIDv4 == 0 && c.RecordIDv6 == 0 {
		return ErrNoRecordID
	}
	if c.AccessKeyID == "" || c.AccessKeySecret == "" {
		return ErrEmptyAccessKey
	}
	if c.RR == "" {
		return ErrEmptyRR
	}
	if c.IntervalSecs <= 0 {
		return ErrInvalidInterval
	}
	if c.GlobalV4URL != "" && !c.GlobalV4 {
		return ErrGlobalV4URLUnused
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Interval returns the time between update cycles.
func (c *Config) Interval() time.Duration {
	return time.Duration(c.IntervalSecs) * time.Second
}

// Level returns the configured log level.
func (c *Config) Level() (zapcore.Level, error) {
	return ParseLevel(c.LogLevel)
}

// ParseLevel parses one of debug, info, warn, error.
// An empty string is the info level.
func ParseLevel(s string) (zapcore.Level, error) {
	switch s {
	case "":
		return zapcore.InfoLevel, nil
	case "debug", "info", "warn", "error":
		return zapcore.ParseLevel(s)
	default:
		return zapcore.InfoLevel, fmt.Errorf("%w: %q", ErrInvalidLogLevel, s)
	}
}

// NewUpdater returns an updater for the configured records.
func (c *Config) NewUpdater(logger *zap.Logger, metrics *Metrics) *Updater {
	httpClient := c.Dialer.HTTPClient(aliyun.DefaultTimeout)

	u := &Updater{
		logger:     logger,
		interval:   c.Interval(),
		recordIDv4: c.RecordIDv4,
		recordIDv6: c.RecordIDv6,
		staticV6:   c.StaticV6,
		enumerate:  netiface.Enumerate,
		selector:   netiface.NewSelector(logger),
		records: &aliyun.Client{
			AccessKeyID:     c.AccessKeyID,
			AccessKeySecret: c.AccessKeySecret,
			RR:              c.RR,
			Endpoint:        c.Endpoint,
			HTTPClient:      httpClient,
		},
		metrics: metrics,
	}
	if c.GlobalV4 {
		r := ipquery.NewIPv4Resolver(c.GlobalV4URL)
		r.Client = httpClient
		u.globalV4 = r
	}
	return u
}

package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the settings shared by the block watch and the chip programmer.
type Config struct {
	// LogLevel is the minimum level written by the zap logger.
	LogLevel string `yaml:"log_level"`
	// Timeout is the duration for network operations and RPC calls.
	Timeout time.Duration `yaml:"timeout"`
	// Watch configures the interlock monitor.
	Watch Watch `yaml:"watch"`
	// Programmer configures the chip parameter store server.
	Programmer Programmer `yaml:"programmer"`
}

// Watch holds the process-variable names and devices used by the block watch.
type Watch struct {
	// Prefix is the base name of the notepad PVs (trip flags and enable toggle).
	Prefix string `yaml:"prefix"`
	// AnalogInput is the PV carrying the RoadRunner intensity signal.
	AnalogInput string `yaml:"ai"`
	// Filter is the base name of the attenuator filter used as a blocker.
	Filter string `yaml:"filter"`
	// Sequencer is the base name of the event sequencer PVs.
	Sequencer string `yaml:"sequencer"`
	// Threshold is the minimum intensity accepted before tripping.
	Threshold float64 `yaml:"threshold"`
	// PollInterval is the fallback evaluation period when no change arrives.
	PollInterval time.Duration `yaml:"poll_interval"`
	// RedisAddress is the host:port of the Redis process-variable bus.
	RedisAddress string `yaml:"redis_addr"`
	// Actuator selects the filter driver: "redis" or "serial".
	Actuator string `yaml:"actuator"`
	// SerialPort is the device path of the filter controller for the serial actuator.
	SerialPort string `yaml:"serial_port"`
	// SerialBaud is the line speed of the serial actuator.
	SerialBaud int `yaml:"serial_baud"`
	// StatusAddress is the optional HTTP listen address for /status and /metrics.
	StatusAddress string `yaml:"status_addr"`
}

// Programmer holds the chip parameter store server settings.
type Programmer struct {
	// Address is the bind address, "host:port" where host may be "*".
	Address string `yaml:"address"`
	// StatusAddress is the optional HTTP listen address for /status and /metrics.
	StatusAddress string `yaml:"status_addr"`
}

const (
	// DefaultConfigFilename is the default filename for settings.
	DefaultConfigFilename = "roadrunner-settings.yaml"

	// DefaultTimeout is the default duration for network operations.
	DefaultTimeout = 5 * time.Second

	// DefaultFilePermissions is the default file permission for config files.
	DefaultFilePermissions = 0o600

	// DefaultPrefix is the notepad PV base used at the MFX hutch.
	DefaultPrefix = "MFX:RR"
	// DefaultAnalogInput is the RoadRunner analog input channel.
	DefaultAnalogInput = "MFX:USR:ai1:0"
	// DefaultFilter is the attenuator blade used as a blocker.
	DefaultFilter = "MFX:ATT:10"
	// DefaultSequencer is the event sequencer base name.
	DefaultSequencer = "ECS:SYS0:7"
	// DefaultThreshold is the minimum acceptable RoadRunner signal.
	DefaultThreshold = 1.0
	// DefaultPollInterval is the fallback evaluation period.
	DefaultPollInterval = time.Second
	// DefaultRedisAddress is the process-variable bus address.
	DefaultRedisAddress = "127.0.0.1:6379"
	// DefaultSerialBaud is the line speed of the filter controller.
	DefaultSerialBaud = 9600

	// DefaultProgrammerAddress is the chip programmer bind address.
	DefaultProgrammerAddress = "*:5556"

	// ActuatorRedis drives the filter through the process-variable bus.
	ActuatorRedis = "redis"
	// ActuatorSerial drives the filter over a serial line.
	ActuatorSerial = "serial"
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errUnknownActuator is returned when the actuator kind is not supported.
	errUnknownActuator = errors.New("unknown actuator")
	// errSerialPortRequired is returned when the serial actuator has no device.
	errSerialPortRequired = errors.New("serial port must be provided for the serial actuator")
	// errNegativeThreshold is returned for thresholds below zero.
	errNegativeThreshold = errors.New("threshold must not be negative")
)

// Default returns a configuration populated with the hutch defaults.
func Default() *Config {
	cfg := new(Config)
	_ = Validate(cfg)

	return cfg
}

// Load reads configuration from the provided path and validates essential fields.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(contents, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// LoadOrDefault behaves like Load but falls back to Default when the file does not exist.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}

	return cfg, err
}

// Save writes settings to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	// Restrict permissions.
	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate applies defaults and checks the provided settings for formatting errors.
func Validate(settings *Config) error {
	if settings == nil {
		return errConfigIsNotSet
	}

	if settings.Timeout <= 0 {
		settings.Timeout = DefaultTimeout
	}

	if err := validateWatch(&settings.Watch); err != nil {
		return fmt.Errorf("watch: %w", err)
	}

	if settings.Programmer.Address == "" {
		settings.Programmer.Address = DefaultProgrammerAddress
	}

	if settings.Programmer.StatusAddress != "" {
		if _, err := net.ResolveTCPAddr("tcp", settings.Programmer.StatusAddress); err != nil {
			return fmt.Errorf("invalid programmer status address: %w", err)
		}
	}

	return nil
}

//nolint:cyclop // A flat list of defaults reads better than helpers.
func validateWatch(w *Watch) error {
	if w.Prefix == "" {
		w.Prefix = DefaultPrefix
	}

	if w.AnalogInput == "" {
		w.AnalogInput = DefaultAnalogInput
	}

	if w.Filter == "" {
		w.Filter = DefaultFilter
	}

	if w.Sequencer == "" {
		w.Sequencer = DefaultSequencer
	}

	if w.Threshold < 0 {
		return errNegativeThreshold
	}

	if w.Threshold == 0 {
		w.Threshold = DefaultThreshold
	}

	if w.PollInterval <= 0 {
		w.PollInterval = DefaultPollInterval
	}

	if w.RedisAddress == "" {
		w.RedisAddress = DefaultRedisAddress
	}

	if _, err := net.ResolveTCPAddr("tcp", w.RedisAddress); err != nil {
		return fmt.Errorf("invalid redis address: %w", err)
	}

	w.Actuator = strings.ToLower(strings.TrimSpace(w.Actuator))
	switch w.Actuator {
	case "":
		w.Actuator = ActuatorRedis
	case ActuatorRedis:
	case ActuatorSerial:
		if w.SerialPort == "" {
			return errSerialPortRequired
		}
	default:
		return fmt.Errorf("%w: %q", errUnknownActuator, w.Actuator)
	}

	if w.SerialBaud <= 0 {
		w.SerialBaud = DefaultSerialBaud
	}

	if w.StatusAddress != "" {
		if _, err := net.ResolveTCPAddr("tcp", w.StatusAddress); err != nil {
			return fmt.Errorf("invalid status address: %w", err)
		}
	}

	return nil
}

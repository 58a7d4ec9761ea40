// Daemon configuration from a TOML file
package config

import (
	"dblink/internal/crypto"
	"dblink/internal/global"
	"dblink/pkg/protocol"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Defaults for every optional setting
func Default() (cfg Config) {
	cfg = Config{
		Role:              protocol.OriginGround,
		Suite:             crypto.DefaultSuite,
		RadioDriver:       DriverUDP,
		Destination:       protocol.BroadcastMAC,
		RadioPort:         global.DefaultRadioPort,
		BroadcastAddress:  global.DefaultBroadcastAddress,
		RSSI:              int8(global.DefaultSimulatedRSSI),
		NoiseFloor:        int8(global.DefaultNoiseFloor),
		SerialBaud:        global.DefaultSerialBaud,
		SerialReadTimeout: global.DefaultSerialReadWait,
		QueueSize:         global.DefaultQueueSize,
		QueueWait:         global.DefaultQueueWait,
		ReportInterval:    global.DefaultReportInterval,
		MetricInterval:    global.DefaultMetricInterval,
		MetricRetention:   global.DefaultMetricRetention,
		LogLevel:          global.VerbosityStandard,
	}
	return
}

// Reads and validates the TOML file at path
func Load(path string) (cfg Config, err error) {
	var raw FileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		err = fmt.Errorf("invalid config syntax in '%s': %w", path, err)
		return
	}

	undecoded := meta.Undecoded()
	if len(undecoded) > 0 {
		err = fmt.Errorf("unknown config key '%s' in '%s'", undecoded[0], path)
		return
	}

	cfg, err = raw.NewDaemonConf(meta)
	if err != nil {
		err = fmt.Errorf("invalid config '%s': %w", path, err)
		return
	}
	return
}

// Converts the file layout into daemon settings. Keys not present in the file keep their defaults.
func (raw FileConfig) NewDaemonConf(meta toml.MetaData) (cfg Config, err error) {
	cfg = Default()

	// Role
	if !meta.IsDefined("role") {
		err = fmt.Errorf("role is required (ground or air)")
		return
	}
	cfg.Role, err = ParseRole(raw.Role)
	if err != nil {
		return
	}

	// Crypto
	if meta.IsDefined("crypto", "suite") {
		cfg.Suite, err = crypto.SuiteByName(strings.TrimSpace(raw.Crypto.Suite))
		if err != nil {
			return
		}
	}
	cfg.KeyFile = strings.TrimSpace(raw.Crypto.KeyFile)
	if raw.Crypto.Passphrase != "" {
		cfg.Passphrase = []byte(raw.Crypto.Passphrase)
	}
	if raw.Crypto.Salt != "" {
		cfg.Salt = []byte(raw.Crypto.Salt)
	}

	// Radio
	if meta.IsDefined("radio", "driver") {
		cfg.RadioDriver = strings.ToLower(strings.TrimSpace(raw.Radio.Driver))
	}
	cfg.RadioInterface = strings.TrimSpace(raw.Radio.Interface)
	if meta.IsDefined("radio", "mac") {
		cfg.RadioMAC, err = protocol.ParseMAC(strings.TrimSpace(raw.Radio.MAC))
		if err != nil {
			err = fmt.Errorf("radio.mac: %w", err)
			return
		}
	}
	if meta.IsDefined("radio", "destination") {
		cfg.Destination, err = protocol.ParseMAC(strings.TrimSpace(raw.Radio.Destination))
		if err != nil {
			err = fmt.Errorf("radio.destination: %w", err)
			return
		}
	}
	if meta.IsDefined("radio", "port") {
		cfg.RadioPort = raw.Radio.Port
	}
	if meta.IsDefined("radio", "peer_port") {
		cfg.PeerPort = raw.Radio.PeerPort
	}
	if meta.IsDefined("radio", "broadcast_address") {
		cfg.BroadcastAddress = strings.TrimSpace(raw.Radio.BroadcastAddress)
	}
	if meta.IsDefined("radio", "rssi") {
		cfg.RSSI, err = toInt8("radio.rssi", raw.Radio.RSSI)
		if err != nil {
			return
		}
	}
	if meta.IsDefined("radio", "noise_floor") {
		cfg.NoiseFloor, err = toInt8("radio.noise_floor", raw.Radio.NoiseFloor)
		if err != nil {
			return
		}
	}
	cfg.SocketFilter = raw.Radio.SocketFilter

	// Serial
	cfg.SerialDevice = strings.TrimSpace(raw.Serial.Device)
	if meta.IsDefined("serial", "baud") {
		cfg.SerialBaud = raw.Serial.Baud
	}
	if meta.IsDefined("serial", "read_timeout") {
		cfg.SerialReadTimeout, err = parseDuration("serial.read_timeout", raw.Serial.ReadTimeout)
		if err != nil {
			return
		}
	}

	// Queues and link
	if meta.IsDefined("queues", "capacity") {
		cfg.QueueSize = raw.Queues.Capacity
	}
	if meta.IsDefined("queues", "wait_timeout") {
		cfg.QueueWait, err = parseDuration("queues.wait_timeout", raw.Queues.WaitTimeout)
		if err != nil {
			return
		}
	}
	if meta.IsDefined("reporter", "interval") {
		cfg.ReportInterval, err = parseDuration("reporter.interval", raw.Reporter.Interval)
		if err != nil {
			return
		}
	}
	cfg.DropStale = raw.Link.DropStale

	// Outputs
	cfg.BeatsEndpoint = strings.TrimSpace(raw.Beats.Endpoint)
	if meta.IsDefined("metrics", "interval") {
		cfg.MetricInterval, err = parseDuration("metrics.interval", raw.Metrics.Interval)
		if err != nil {
			return
		}
	}
	if meta.IsDefined("metrics", "retention") {
		cfg.MetricRetention, err = parseDuration("metrics.retention", raw.Metrics.Retention)
		if err != nil {
			return
		}
	}

	// Logging
	if meta.IsDefined("logging", "level") {
		cfg.LogLevel = raw.Logging.Level
	}
	cfg.LogFile.Path = strings.TrimSpace(raw.Logging.File)
	cfg.LogFile.MaxSizeMB = raw.Logging.MaxSizeMB
	cfg.LogFile.MaxBackups = raw.Logging.MaxBackups
	cfg.LogFile.MaxAgeDays = raw.Logging.MaxAgeDays
	cfg.LogFile.Compress = raw.Logging.Compress

	err = cfg.Validate()
	return
}

// Checks ranges and cross-field rules
func (cfg Config) Validate() (err error) {
	if cfg.Role != protocol.OriginGround && cfg.Role != protocol.OriginAir {
		err = fmt.Errorf("unknown role %d", cfg.Role)
		return
	}
	_, validID := crypto.GetSuiteInfo(cfg.Suite)
	if !validID {
		err = fmt.Errorf("unknown crypto suite %d", cfg.Suite)
		return
	}
	if cfg.KeyFile != "" && len(cfg.Passphrase) > 0 {
		err = fmt.Errorf("crypto.key_file and crypto.passphrase are mutually exclusive")
		return
	}
	if cfg.RadioDriver != DriverUDP {
		err = fmt.Errorf("unsupported radio driver '%s'", cfg.RadioDriver)
		return
	}
	if cfg.RadioPort < 1 || cfg.RadioPort > math.MaxUint16 {
		err = fmt.Errorf("radio.port %d out of range", cfg.RadioPort)
		return
	}
	if cfg.PeerPort < 0 || cfg.PeerPort > math.MaxUint16 {
		err = fmt.Errorf("radio.peer_port %d out of range", cfg.PeerPort)
		return
	}
	if cfg.SerialBaud <= 0 {
		err = fmt.Errorf("serial.baud must be positive")
		return
	}
	if cfg.QueueSize < 2 {
		err = fmt.Errorf("queues.capacity must be at least 2, got %d", cfg.QueueSize)
		return
	}
	for name, value := range map[string]time.Duration{
		"serial.read_timeout": cfg.SerialReadTimeout,
		"queues.wait_timeout": cfg.QueueWait,
		"reporter.interval":   cfg.ReportInterval,
		"metrics.interval":    cfg.MetricInterval,
		"metrics.retention":   cfg.MetricRetention,
	} {
		if value <= 0 {
			err = fmt.Errorf("%s must be positive", name)
			return
		}
	}
	if cfg.LogLevel < global.VerbosityNone || cfg.LogLevel > global.VerbosityDebug {
		err = fmt.Errorf("logging.level must be between %d and %d", global.VerbosityNone, global.VerbosityDebug)
		return
	}
	return
}

// Accepts "ground" or "air"
func ParseRole(text string) (role protocol.Origin, err error) {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "ground":
		role = protocol.OriginGround
	case "air":
		role = protocol.OriginAir
	default:
		err = fmt.Errorf("unknown role '%s' (expected ground or air)", text)
	}
	return
}

func parseDuration(name, text string) (value time.Duration, err error) {
	value, err = time.ParseDuration(strings.TrimSpace(text))
	if err != nil {
		err = fmt.Errorf("failed to parse %s: %w", name, err)
	}
	return
}

func toInt8(name string, value int) (narrow int8, err error) {
	if value < math.MinInt8 || value > math.MaxInt8 {
		err = fmt.Errorf("%s %d out of range", name, value)
		return
	}
	narrow = int8(value)
	return
}

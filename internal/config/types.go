package config

import (
	"dblink/internal/logctx"
	"dblink/pkg/protocol"
	"time"
)

// On-disk layout
type FileConfig struct {
	Role   string `toml:"role"`
	Crypto struct {
		Suite      string `toml:"suite"`
		KeyFile    string `toml:"key_file"`
		Passphrase string `toml:"passphrase"`
		Salt       string `toml:"salt"`
	} `toml:"crypto"`
	Radio struct {
		Driver           string `toml:"driver"`
		Interface        string `toml:"interface"`
		MAC              string `toml:"mac"`
		Destination      string `toml:"destination"`
		Port             int    `toml:"port"`
		PeerPort         int    `toml:"peer_port"`
		BroadcastAddress string `toml:"broadcast_address"`
		RSSI             int    `toml:"rssi"`
		NoiseFloor       int    `toml:"noise_floor"`
		SocketFilter     bool   `toml:"socket_filter"`
	} `toml:"radio"`
	Serial struct {
		Device      string `toml:"device"`
		Baud        int    `toml:"baud"`
		ReadTimeout string `toml:"read_timeout"`
	} `toml:"serial"`
	Queues struct {
		Capacity    int    `toml:"capacity"`
		WaitTimeout string `toml:"wait_timeout"`
	} `toml:"queues"`
	Reporter struct {
		Interval string `toml:"interval"`
	} `toml:"reporter"`
	Link struct {
		DropStale bool `toml:"drop_stale"`
	} `toml:"link"`
	Beats struct {
		Endpoint string `toml:"endpoint"`
	} `toml:"beats"`
	Metrics struct {
		Interval  string `toml:"interval"`
		Retention string `toml:"retention"`
	} `toml:"metrics"`
	Logging struct {
		Level      int    `toml:"level"`
		File       string `toml:"file"`
		MaxSizeMB  int    `toml:"max_size_mb"`
		MaxBackups int    `toml:"max_backups"`
		MaxAgeDays int    `toml:"max_age_days"`
		Compress   bool   `toml:"compress"`
	} `toml:"logging"`
}

// Validated daemon settings
type Config struct {
	Role protocol.Origin

	// Key material, exactly one source is used
	Suite      uint8
	KeyFile    string
	Passphrase []byte
	Salt       []byte

	// Radio
	RadioDriver      string
	RadioInterface   string
	RadioMAC         protocol.MAC // zero means derive from interface or generate
	Destination      protocol.MAC
	RadioPort        int
	PeerPort         int
	BroadcastAddress string
	RSSI             int8
	NoiseFloor       int8
	SocketFilter     bool

	// Serial, disabled when no device
	SerialDevice      string
	SerialBaud        int
	SerialReadTimeout time.Duration

	QueueSize      int
	QueueWait      time.Duration
	ReportInterval time.Duration
	DropStale      bool

	BeatsEndpoint string

	MetricInterval  time.Duration
	MetricRetention time.Duration

	LogLevel int
	LogFile  logctx.FileOutput
}

const (
	DriverUDP string = "udp"

	// HKDF context for passphrase derived link keys
	KeyNamespace string = "dblink link key v1"
)

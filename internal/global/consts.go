package global

import "time"

const (
	// Descriptive Names for available verbosity levels
	VerbosityNone int = iota
	VerbosityStandard
	VerbosityProgress
	VerbosityData
	VerbosityFullData
	VerbosityDebug

	// Descriptive names for available severity levels
	ErrorLog string = "Error"
	WarnLog  string = "Warn"
	InfoLog  string = "Info"
)

const (
	ProgVersion  string = "v0.3.0"
	ProgBaseName string = "dblink"

	// Context keys
	LoggerKey  CtxKey = "logger"  // Event queue (mostly for variable log verbosity handling)
	LogTagsKey CtxKey = "logtags" // List of tags in order of broad->specific appended/popped at various parts of the program

	DefaultConfigPath string = "/etc/dblink/dblink.toml"
	DefaultKeyPath    string = "/etc/dblink/link.key"

	// Link defaults
	DefaultQueueSize        int           = 6
	DefaultQueueWait        time.Duration = 512 * time.Millisecond
	DefaultReportInterval   time.Duration = 200 * time.Millisecond
	DefaultRadioPort        int           = 47100
	DefaultBroadcastAddress string        = "255.255.255.255"
	DefaultSimulatedRSSI    int           = -50
	DefaultNoiseFloor       int           = -95
	DefaultSerialBaud       int           = 115200
	DefaultSerialReadWait   time.Duration = 20 * time.Millisecond

	// Metric defaults
	DefaultMetricInterval  time.Duration = 10 * time.Second
	DefaultMetricRetention time.Duration = 1 * time.Hour

	// Timeout values
	ShutdownTimeout   time.Duration = 5 * time.Second
	QueueDrainTimeout time.Duration = 2 * time.Second

	// Namespacing Name Components
	NSMetric   string = "Metrics"
	NSTest     string = "Test"
	NSGround   string = "Ground"
	NSAir      string = "Air"
	NSLink     string = "Link"
	NSRadio    string = "Radio"
	NSSend     string = "Send"
	NSRecv     string = "Receiver"
	NSReporter string = "Reporter"
	NSEgress   string = "Egress"
	NSIngest   string = "Ingest"
	NSQueue    string = "Queue"
	NSSerial   string = "Serial"
	NSBeats    string = "Beats"
	NSDriver   string = "Driver"
)

package link

import (
	"context"
	"dblink/internal/link/reporter"
	"dblink/internal/queue"
	"dblink/internal/radio"
	"dblink/pkg/protocol"
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

var ErrDisabled = errors.New("link module disabled")

type Config struct {
	Role           protocol.Origin
	Suite          uint8
	Key            []byte        // zeroed by New
	Destination    protocol.MAC  // defaults to broadcast
	QueueSize      int           // capacity of every pipeline queue
	QueueWait      time.Duration // bounded wait for queue push/pop
	ReportInterval time.Duration // ground internal telemetry period
	DropStale      bool          // drop repeated or old sequence numbers instead of forwarding
}

// Encrypted link between the ground and air units over one radio driver
type Module struct {
	Namespace []string
	cfg       Config
	driver    radio.Driver
	codec     *protocol.Codec

	// Constructed once and handed to the tasks
	radioOutbox  *queue.Queue[*Event]      // serial ingest -> radio send
	serialOutbox *queue.Queue[*Event]      // receive -> serial egress
	radioEvents  *queue.Queue[radio.Event] // driver callbacks -> receive

	sender   *sender
	receiver *receiver
	reporter *reporter.Reporter

	mu      sync.Mutex   // serializes enable/disable
	gate    sync.RWMutex // held shared by Submit across its enabled check and push
	enabled atomic.Bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	subscriber    atomic.Pointer[func(*Event)]
	reportHandler atomic.Pointer[func(protocol.LinkReport)]
	localReport   atomic.Pointer[protocol.LinkReport] // ground registry snapshot published by the receive task
	remoteReport  atomic.Pointer[protocol.LinkReport] // last report received on the air side

	Metrics MetricStorage
}

// Independently scheduled unit of the pipeline
type task struct {
	tag string
	run func(context.Context)
}

type MetricStorage struct {
	Submitted          atomic.Uint64 // payloads accepted from serial ingest
	SubmitRejected     atomic.Uint64 // payloads refused with backpressure
	PacketsSent        atomic.Uint64
	BytesSent          atomic.Uint64
	EncodeErrors       atomic.Uint64
	DriverErrors       atomic.Uint64 // synchronous submission failures
	TxSuccess          atomic.Uint64 // asynchronous completions
	TxFailures         atomic.Uint64
	PacketsReceived    atomic.Uint64 // authenticated packets
	AuthFailures       atomic.Uint64
	ValidationFailures atomic.Uint64
	OwnOrigin          atomic.Uint64
	StalePackets       atomic.Uint64
	StaleDropped       atomic.Uint64
	LostPackets        atomic.Uint64
	RegistryRejected   atomic.Uint64
	EventDrops         atomic.Uint64 // driver events lost to a full event queue
	SerialBackpressure atomic.Uint64 // decoded payloads dropped on a full serial queue
	Delivered          atomic.Uint64
	Undelivered        atomic.Uint64 // no subscriber registered
	ReportsReceived    atomic.Uint64
	ReportErrors       atomic.Uint64
}

package daemon

import (
	"context"
	"dblink/internal/config"
	"dblink/internal/externalio/beats"
	"dblink/internal/link"
	"dblink/internal/metrics"
	"dblink/internal/radio/udp"
	"dblink/internal/serial"
	"io"
	"sync"
	"time"
)

// Opens the serial device, replaceable for tests
type PortOpener func(device string, baud int, readTimeout time.Duration) (io.ReadWriteCloser, error)

type Daemon struct {
	cfg    config.Config
	ctx    context.Context
	cancel context.CancelFunc

	// Ingest stops first so the queues can drain
	ingestCancel context.CancelFunc
	ingestWg     sync.WaitGroup

	wg           sync.WaitGroup
	shutdownOnce sync.Once

	openPort PortOpener
	driver   *udp.Driver
	Link     *link.Module
	serial   *serial.Endpoint
	beats    *beats.OutModule
	gatherer *metrics.Gatherer
	Metrics  *metrics.Registry
}

// Serial side of the link: flight controller or ground station UART
package serial

import (
	"context"
	"dblink/internal/global"
	"dblink/internal/link"
	"dblink/internal/logctx"
	"dblink/internal/queue"
	"dblink/pkg/protocol"
	"errors"
	"fmt"
	"io"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"go.bug.st/serial"
)

// Accepts payloads for the radio (link.Module)
type Submitter interface {
	Submit(ctx context.Context, payload []byte) error
}

type Endpoint struct {
	Namespace []string
	port      io.ReadWriteCloser
	link      Submitter
	writeMu   sync.Mutex
	Metrics   MetricStorage
}

type MetricStorage struct {
	Reads       atomic.Uint64
	BytesIn     atomic.Uint64
	Submitted   atomic.Uint64
	Dropped     atomic.Uint64 // chunks refused by the link
	ReadErrors  atomic.Uint64
	Writes      atomic.Uint64
	BytesOut    atomic.Uint64
	WriteErrors atomic.Uint64
}

// Opens a UART at 8N1. Reads return after readTimeout with no data so the ingest loop can observe shutdown.
func Open(device string, baud int, readTimeout time.Duration) (port serial.Port, err error) {
	if baud <= 0 {
		baud = global.DefaultSerialBaud
	}
	if readTimeout <= 0 {
		readTimeout = global.DefaultSerialReadWait
	}

	mode := &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err = serial.Open(device, mode)
	if err != nil {
		err = fmt.Errorf("failed to open serial device %s: %w", device, err)
		return
	}

	err = port.SetReadTimeout(readTimeout)
	if err != nil {
		port.Close()
		err = fmt.Errorf("failed to set read timeout on %s: %w", device, err)
		return
	}
	return
}

// Endpoint Constructor
func New(namespace []string, port io.ReadWriteCloser, submitter Submitter) (new *Endpoint) {
	new = &Endpoint{
		Namespace: append(append([]string(nil), namespace...), global.NSSerial),
		port:      port,
		link:      submitter,
	}
	return
}

// Reads the port in chunks of at most one payload and submits each chunk.
// Returns on cancellation, end of stream, or a closed port.
func (endpoint *Endpoint) Ingest(ctx context.Context) {
	buf := make([]byte, protocol.MaxPayloadSize)

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		var stop bool
		func() {
			defer func() {
				if fatalError := recover(); fatalError != nil {
					stack := debug.Stack()
					logctx.LogEvent(ctx, global.VerbosityStandard, global.ErrorLog,
						"panic in serial ingest: %v\n%s", fatalError, stack)
				}
			}()

			n, err := endpoint.port.Read(buf)
			if n > 0 {
				endpoint.Metrics.Reads.Add(1)
				endpoint.Metrics.BytesIn.Add(uint64(n))
				endpoint.submit(ctx, buf[:n])
			}
			if err == nil {
				return
			}
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrClosedPipe) || ctx.Err() != nil {
				stop = true
				return
			}

			var portErr *serial.PortError
			if errors.As(err, &portErr) && portErr.Code() == serial.PortClosed {
				stop = true
				return
			}

			endpoint.Metrics.ReadErrors.Add(1)
			logctx.LogEvent(ctx, global.VerbosityStandard, global.ErrorLog,
				"serial read failed: %v\n", err)
			time.Sleep(global.DefaultSerialReadWait)
		}()
		if stop {
			return
		}
	}
}

func (endpoint *Endpoint) submit(ctx context.Context, chunk []byte) {
	err := endpoint.link.Submit(ctx, chunk)
	if err == nil {
		endpoint.Metrics.Submitted.Add(1)
		return
	}

	endpoint.Metrics.Dropped.Add(1)
	if errors.Is(err, queue.ErrBackpressure) {
		logctx.LogEvent(ctx, global.VerbosityData, global.WarnLog,
			"radio busy, dropped %d serial bytes\n", len(chunk))
		return
	}
	logctx.LogEvent(ctx, global.VerbosityProgress, global.WarnLog,
		"dropped %d serial bytes: %v\n", len(chunk), err)
}

// Subscriber for inbound link payloads. Does not keep the event.
func (endpoint *Endpoint) Egress(event *link.Event) {
	endpoint.writeMu.Lock()
	defer endpoint.writeMu.Unlock()

	n, err := endpoint.port.Write(event.Data)
	endpoint.Metrics.BytesOut.Add(uint64(n))
	if err != nil {
		endpoint.Metrics.WriteErrors.Add(1)
		return
	}
	endpoint.Metrics.Writes.Add(1)
}

func (endpoint *Endpoint) Close() (err error) {
	err = endpoint.port.Close()
	return
}

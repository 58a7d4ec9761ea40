package integration

import (
	"bytes"
	"context"
	"dblink/internal/global"
	"dblink/internal/link"
	"dblink/internal/logctx"
	"dblink/internal/radio"
	"dblink/internal/serial"
	"dblink/pkg/protocol"
	"io"
	"sync"
	"testing"
	"time"
)

var (
	groundMAC = protocol.MAC{0x02, 0, 0, 0, 0, 0x10}
	airMAC    = protocol.MAC{0x02, 0, 0, 0, 0, 0x20}
)

// Serial port of a unit. The host side writes into the pipe, the link writes to out.
type pipePort struct {
	reader *io.PipeReader
	host   *io.PipeWriter

	mu  sync.Mutex
	out bytes.Buffer
}

func newPipePort() (port *pipePort) {
	reader, writer := io.Pipe()
	port = &pipePort{reader: reader, host: writer}
	return
}

func (port *pipePort) Read(p []byte) (int, error) { return port.reader.Read(p) }

func (port *pipePort) Write(p []byte) (int, error) {
	port.mu.Lock()
	defer port.mu.Unlock()
	return port.out.Write(p)
}

func (port *pipePort) Close() error {
	port.host.Close()
	return port.reader.Close()
}

func (port *pipePort) written() (data []byte) {
	port.mu.Lock()
	defer port.mu.Unlock()
	data = bytes.Clone(port.out.Bytes())
	return
}

// One end of the bridge: link module plus its serial endpoint
type unit struct {
	link     *link.Module
	port     *pipePort
	endpoint *serial.Endpoint
}

func startUnit(t *testing.T, ctx context.Context, driver radio.Driver, cfg link.Config) (u *unit) {
	t.Helper()

	cfg.Key = bytes.Repeat([]byte{0x5A}, 32)
	if cfg.QueueSize == 0 {
		cfg.QueueSize = 64
	}
	if cfg.QueueWait == 0 {
		cfg.QueueWait = 100 * time.Millisecond
	}

	module, err := link.New(cfg, driver)
	if err != nil {
		t.Fatalf("failed to create %s link: %v", cfg.Role, err)
	}

	u = &unit{link: module, port: newPipePort()}
	u.endpoint = serial.New(module.Namespace, u.port, module)
	module.Subscribe(u.endpoint.Egress)

	err = module.Enable(ctx)
	if err != nil {
		t.Fatalf("failed to enable %s link: %v", cfg.Role, err)
	}

	var ingest sync.WaitGroup
	ingest.Add(1)
	go func() {
		defer ingest.Done()
		u.endpoint.Ingest(ctx)
	}()

	t.Cleanup(func() {
		u.endpoint.Close()
		ingest.Wait()
		module.Disable()
	})
	return
}

// Writes each chunk as one serial burst from the host side
func (u *unit) hostWrite(t *testing.T, chunks [][]byte) {
	t.Helper()
	for i, chunk := range chunks {
		_, err := u.port.host.Write(chunk)
		if err != nil {
			t.Fatalf("host write %d failed: %v", i, err)
		}
	}
}

func testContext(t *testing.T) (ctx context.Context) {
	logger := logctx.NewLogger("integration", global.VerbosityStandard, t.Context().Done())
	ctx = logctx.WithLogger(t.Context(), logger)
	return
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

// Deterministic payload of n bytes distinct per index
func chunk(index, n int) (data []byte) {
	data = make([]byte, n)
	for i := range data {
		data[i] = byte(index*31 + i)
	}
	return
}

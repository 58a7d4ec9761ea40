// Ground or air link daemon: emulated radio, encrypted link, serial endpoint and exporters
package daemon

import (
	"context"
	"dblink/internal/atomics"
	"dblink/internal/config"
	"dblink/internal/externalio/beats"
	"dblink/internal/global"
	"dblink/internal/lifecycle"
	"dblink/internal/link"
	"dblink/internal/logctx"
	"dblink/internal/metrics"
	"dblink/internal/radio/udp"
	"dblink/internal/serial"
	"dblink/pkg/protocol"
	"fmt"
	"io"
	"os"
	"time"
)

// Create new link daemon instance
func NewDaemon(cfg config.Config) (new *Daemon) {
	ctx, cancel := context.WithCancel(context.Background())
	new = &Daemon{
		cfg:    cfg,
		ctx:    ctx,
		cancel: cancel,
		openPort: func(device string, baud int, readTimeout time.Duration) (io.ReadWriteCloser, error) {
			return serial.Open(device, baud, readTimeout)
		},
		Metrics: metrics.New(),
	}
	return
}

// Starts every component in dependency order. On error everything already started is stopped.
// The key is zeroed.
func (daemon *Daemon) Start(globalCtx context.Context, key []byte) (err error) {
	// New context for the daemon
	daemon.ctx, daemon.cancel = context.WithCancel(context.Background())
	daemon.ctx = logctx.WithLogger(daemon.ctx, logctx.GetLogger(globalCtx))

	roleNS := global.NSGround
	if daemon.cfg.Role == protocol.OriginAir {
		roleNS = global.NSAir
	}
	daemon.ctx = logctx.AppendCtxTag(daemon.ctx, roleNS)
	namespace := []string{roleNS}

	logctx.LogEvent(daemon.ctx, global.VerbosityStandard, global.InfoLog, "Starting...\n")

	global.Hostname, err = os.Hostname()
	if err != nil {
		err = fmt.Errorf("failed to determine local hostname: %w", err)
		return
	}
	global.PID = os.Getpid()

	defer func() {
		if err != nil {
			daemon.Shutdown()
		}
	}()

	// Radio
	mac, err := daemon.cfg.ResolveMAC()
	if err != nil {
		err = fmt.Errorf("failed to determine radio address: %w", err)
		return
	}
	daemon.driver, err = udp.New(logctx.AppendCtxTag(daemon.ctx, global.NSRadio), daemon.cfg.UDPConfig(mac))
	if err != nil {
		err = fmt.Errorf("failed to start radio: %w", err)
		return
	}

	// Link
	daemon.Link, err = link.New(daemon.cfg.LinkConfig(key), daemon.driver)
	if err != nil {
		err = fmt.Errorf("failed to create link: %w", err)
		return
	}

	// Exporter
	daemon.beats, err = beats.NewOutput(namespace, daemon.cfg.BeatsEndpoint, daemon.cfg.Role.String(), daemon.cfg.QueueSize)
	if err != nil {
		err = fmt.Errorf("failed to start beats output: %w", err)
		return
	}
	if daemon.beats != nil {
		daemon.Link.OnLinkReport(daemon.beats.QueueReport)
		workerCtx := logctx.AppendCtxTag(daemon.ctx, global.NSBeats)
		daemon.wg.Add(1)
		go func() {
			defer daemon.wg.Done()
			daemon.beats.Run(workerCtx)
		}()
	}

	// Serial egress must be subscribed before the link starts delivering
	if daemon.cfg.SerialDevice != "" {
		var port io.ReadWriteCloser
		port, err = daemon.openPort(daemon.cfg.SerialDevice, daemon.cfg.SerialBaud, daemon.cfg.SerialReadTimeout)
		if err != nil {
			return
		}
		daemon.serial = serial.New(namespace, port, daemon.Link)
		daemon.Link.Subscribe(daemon.serial.Egress)
	} else {
		logctx.LogEvent(daemon.ctx, global.VerbosityStandard, global.WarnLog,
			"no serial device configured, inbound payloads are discarded\n")
	}

	err = daemon.Link.Enable(daemon.ctx)
	if err != nil {
		err = fmt.Errorf("failed to enable link: %w", err)
		return
	}

	// Metrics Collector
	daemon.gatherer = metrics.NewGatherer(daemon.Metrics, namespace, daemon.cfg.MetricInterval, daemon.cfg.MetricRetention)
	daemon.gatherer.Register(daemon.driver)
	daemon.gatherer.Register(daemon.Link)
	if daemon.serial != nil {
		daemon.gatherer.Register(daemon.serial)
	}
	if daemon.beats != nil {
		daemon.gatherer.Register(daemon.beats)
		daemon.gatherer.AddSink(daemon.beats.QueueMetrics)
	}
	workerCtx := logctx.AppendCtxTag(daemon.ctx, global.NSMetric)
	daemon.wg.Add(1)
	go func() {
		defer daemon.wg.Done()
		daemon.gatherer.Run(workerCtx)
	}()

	// Serial ingest last, once the radio side can take payloads
	if daemon.serial != nil {
		var ingestCtx context.Context
		ingestCtx, daemon.ingestCancel = context.WithCancel(logctx.AppendCtxTag(daemon.ctx, global.NSIngest))
		daemon.ingestWg.Add(1)
		go func() {
			defer daemon.ingestWg.Done()
			daemon.serial.Ingest(ingestCtx)
		}()
	}

	err = lifecycle.NotifyReady(daemon.ctx)
	if err != nil {
		logctx.LogEvent(daemon.ctx, global.VerbosityStandard, global.WarnLog, "Systemd notify ready failed: %v\n", err)
		err = nil
	}
	err = lifecycle.NotifyStatus(daemon.ctx, fmt.Sprintf("%s link up on radio %s", daemon.cfg.Role, mac))
	if err != nil {
		logctx.LogEvent(daemon.ctx, global.VerbosityStandard, global.WarnLog, "Systemd notify status failed: %v\n", err)
		err = nil
	}

	logctx.LogEvent(daemon.ctx, global.VerbosityStandard, global.InfoLog, "Startup complete.\n")
	return
}

// Blocks until a termination signal, then shuts down
func (daemon *Daemon) Run() {
	lifecycle.SignalHandler(daemon.ctx, daemon)
}

// Stops components in reverse start order. Safe to call more than once.
func (daemon *Daemon) Shutdown() {
	daemon.shutdownOnce.Do(daemon.shutdown)
}

func (daemon *Daemon) shutdown() {
	logctx.LogEvent(daemon.ctx, global.VerbosityStandard, global.InfoLog,
		"Daemon shutdown started...\n")

	// Stop taking serial input
	if daemon.ingestCancel != nil {
		daemon.ingestCancel()
		daemon.ingestWg.Wait()
	}

	// Let the radio and serial sides flush what is queued
	if daemon.Link != nil {
		if daemon.Link.Enabled() {
			success, last := atomics.WaitUntilZero(daemon.ctx, daemon.Link.Pending, global.QueueDrainTimeout)
			if !success {
				logctx.LogEvent(daemon.ctx, global.VerbosityStandard, global.WarnLog,
					"link queues did not empty in time: dropped %d items\n", last)
			}
		}
		daemon.Link.Disable()
	}

	if daemon.serial != nil {
		err := daemon.serial.Close()
		if err != nil {
			logctx.LogEvent(daemon.ctx, global.VerbosityStandard, global.WarnLog,
				"serial port did not close cleanly: %v\n", err)
		}
	}
	if daemon.driver != nil {
		err := daemon.driver.Close()
		if err != nil {
			logctx.LogEvent(daemon.ctx, global.VerbosityStandard, global.WarnLog,
				"radio did not close cleanly: %v\n", err)
		}
	}

	// Stop the gatherer and exporter after the pipeline, so the final metrics are shipped
	daemon.cancel()

	done := make(chan struct{})
	go func() {
		daemon.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(global.ShutdownTimeout):
		logctx.LogEvent(daemon.ctx, global.VerbosityStandard, global.WarnLog,
			"Timeout: workers did not stop within %v\n", global.ShutdownTimeout)
	}

	err := daemon.beats.Shutdown(daemon.ctx)
	if err != nil {
		logctx.LogEvent(daemon.ctx, global.VerbosityStandard, global.WarnLog,
			"beats output did not shutdown gracefully: %v\n", err)
	}

	logctx.LogEvent(daemon.ctx, global.VerbosityStandard, global.InfoLog,
		"Daemon shutdown completed\n")
}

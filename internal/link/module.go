// Encrypted ground/air link: codec, sequence accounting and the queue pipeline around a radio driver
package link

import (
	"context"
	"dblink/internal/crypto"
	"dblink/internal/global"
	"dblink/internal/link/reporter"
	"dblink/internal/logctx"
	"dblink/internal/queue"
	"dblink/internal/radio"
	"dblink/pkg/protocol"
	"errors"
	"fmt"
)

// Builds the module and its queues. Tasks start with Enable.
func New(cfg Config, driver radio.Driver) (new *Module, err error) {
	if driver == nil {
		err = fmt.Errorf("radio driver is required")
		return
	}
	if cfg.Role != protocol.OriginGround && cfg.Role != protocol.OriginAir {
		err = fmt.Errorf("%w: unknown role %d", protocol.ErrInvalidHeader, cfg.Role)
		return
	}
	if cfg.Suite == 0 {
		cfg.Suite = crypto.DefaultSuite
	}
	if cfg.QueueSize == 0 {
		cfg.QueueSize = global.DefaultQueueSize
	}
	if cfg.QueueWait <= 0 {
		cfg.QueueWait = global.DefaultQueueWait
	}
	if cfg.ReportInterval <= 0 {
		cfg.ReportInterval = global.DefaultReportInterval
	}
	if cfg.Destination == (protocol.MAC{}) {
		cfg.Destination = protocol.BroadcastMAC
	}

	codec, err := protocol.NewCodec(cfg.Suite, cfg.Key)
	cfg.Key = nil
	if err != nil {
		return
	}

	roleNS := global.NSGround
	if cfg.Role == protocol.OriginAir {
		roleNS = global.NSAir
	}
	namespace := []string{roleNS, global.NSLink}

	new = &Module{
		Namespace: namespace,
		cfg:       cfg,
		driver:    driver,
		codec:     codec,
	}

	new.radioOutbox, err = queue.New(append(namespace, global.NSSend), cfg.QueueSize, eventSize)
	if err != nil {
		err = fmt.Errorf("failed to create radio outbox: %w", err)
		return
	}
	new.serialOutbox, err = queue.New(append(namespace, global.NSEgress), cfg.QueueSize, eventSize)
	if err != nil {
		err = fmt.Errorf("failed to create serial outbox: %w", err)
		return
	}
	new.radioEvents, err = queue.New(append(namespace, global.NSRadio), cfg.QueueSize, radio.EventSize)
	if err != nil {
		err = fmt.Errorf("failed to create radio event queue: %w", err)
		return
	}

	new.sender = newSender(new)
	new.receiver = newReceiver(new)

	if cfg.Role == protocol.OriginGround {
		empty := protocol.LinkReport{NoiseFloor: driver.NoiseFloor(), Peers: []protocol.PeerInfo{}}
		new.localReport.Store(&empty)
		new.reporter = reporter.New(append(namespace, global.NSReporter), cfg.ReportInterval, new.snapshotReport, new.pushReport)
		new.reporter.AddSink(new.notifyReport)
	}
	return
}

// Role this module sends as
func (module *Module) Role() protocol.Origin {
	return module.cfg.Role
}

// Starts all tasks and registers driver callbacks. Calling it while enabled does nothing.
func (module *Module) Enable(ctx context.Context) (err error) {
	module.mu.Lock()
	defer module.mu.Unlock()

	if module.enabled.Load() {
		return
	}

	ctx = logctx.OverwriteCtxTag(ctx, module.Namespace)
	taskCtx, cancel := context.WithCancel(ctx)
	module.cancel = cancel

	module.driver.SetCallbacks(module.onSendComplete, module.onReceive)

	tasks := []task{
		{global.NSSend, module.sender.Run},
		{global.NSRecv, module.receiver.Run},
		{global.NSEgress, module.runEgress},
	}
	if module.reporter != nil {
		tasks = append(tasks, task{global.NSReporter, module.reporter.Run})
	}

	for _, task := range tasks {
		module.wg.Add(1)
		go func() {
			defer module.wg.Done()
			task.run(logctx.AppendCtxTag(taskCtx, task.tag))
		}()
	}

	module.enabled.Store(true)
	suite, _ := crypto.GetSuiteInfo(module.codec.Suite())
	logctx.LogEvent(ctx, global.VerbosityStandard, global.InfoLog,
		"link enabled as %s on radio %s using %s\n", module.cfg.Role, module.driver.MAC(), suite.Name)
	return
}

// Stops all tasks, unregisters driver callbacks and releases anything still queued
func (module *Module) Disable() {
	module.mu.Lock()
	defer module.mu.Unlock()

	// No Submit can be mid-push once the flag flips, so the drain below sees everything
	module.gate.Lock()
	wasEnabled := module.enabled.Swap(false)
	module.gate.Unlock()
	if !wasEnabled {
		return
	}

	module.driver.SetCallbacks(nil, nil)
	module.cancel()
	module.wg.Wait()

	release := func(event *Event) { event.Release() }
	module.radioOutbox.Drain(release)
	module.serialOutbox.Drain(release)
	module.radioEvents.Drain(nil)
}

// Whether tasks are running
func (module *Module) Enabled() bool {
	return module.enabled.Load()
}

// Queues payload for transmission.
// Returns nil, queue.ErrBackpressure, protocol.ErrPayloadTooLarge or ErrDisabled.
func (module *Module) Submit(ctx context.Context, payload []byte) (err error) {
	module.gate.RLock()
	defer module.gate.RUnlock()

	if !module.enabled.Load() {
		err = ErrDisabled
		return
	}
	if len(payload) == 0 {
		err = protocol.ErrEmptyPayload
		return
	}

	event, err := NewEvent(protocol.TypeData, payload)
	if err != nil {
		return
	}

	err = module.radioOutbox.Push(ctx, event, module.cfg.QueueWait)
	if err != nil {
		event.Release()
		if errors.Is(err, queue.ErrBackpressure) {
			module.Metrics.SubmitRejected.Add(1)
		}
		return
	}
	module.Metrics.Submitted.Add(1)
	return
}

// Registers the handler that receives every inbound data payload.
// The handler must not keep the event, it is released once the handler returns.
func (module *Module) Subscribe(handler func(*Event)) {
	if handler == nil {
		module.subscriber.Store(nil)
		return
	}
	module.subscriber.Store(&handler)
}

// Registers a handler for link reports: reports sent on the ground, reports received on the air
func (module *Module) OnLinkReport(handler func(protocol.LinkReport)) {
	if handler == nil {
		module.reportHandler.Store(nil)
		return
	}
	module.reportHandler.Store(&handler)
}

// Most recent link quality report: the local registry on the ground, the received one on the air
func (module *Module) LatestLinkReport() (report protocol.LinkReport, ok bool) {
	var latest *protocol.LinkReport
	if module.cfg.Role == protocol.OriginGround {
		latest = module.localReport.Load()
	} else {
		latest = module.remoteReport.Load()
	}
	if latest == nil {
		return
	}
	report = *latest
	ok = true
	return
}

// Number of items waiting in the outbound queues
func (module *Module) Pending() (count uint64) {
	count = uint64(module.radioOutbox.Len() + module.serialOutbox.Len() + module.radioEvents.Len())
	return
}

func (module *Module) notifyReport(report protocol.LinkReport) {
	handler := module.reportHandler.Load()
	if handler != nil {
		(*handler)(report)
	}
}

// Reporter source: latest snapshot published by the receive task
func (module *Module) snapshotReport() (report protocol.LinkReport, ok bool) {
	latest := module.localReport.Load()
	if latest == nil {
		return
	}
	report = *latest
	ok = true
	return
}

// Reporter sink into the radio outbox
func (module *Module) pushReport(ctx context.Context, data []byte) (err error) {
	event, err := NewEvent(protocol.TypeInternalTelemetry, data)
	if err != nil {
		return
	}
	err = module.radioOutbox.Push(ctx, event, module.cfg.QueueWait)
	if err != nil {
		event.Release()
	}
	return
}

package link

import (
	"context"
	"dblink/internal/crypto"
	"dblink/internal/global"
	"dblink/internal/logctx"
	"dblink/internal/peers"
	"dblink/internal/queue"
	"dblink/internal/radio"
	"dblink/internal/seqtrack"
	"dblink/pkg/protocol"
	"errors"
	"runtime/debug"
)

// Receive task: the only owner of the peer registry and sequence trackers
type receiver struct {
	module   *Module
	registry *peers.Registry                    // ground
	tracker  *seqtrack.Tracker[protocol.Origin] // air
}

func newReceiver(module *Module) (new *receiver) {
	new = &receiver{module: module}
	if module.cfg.Role == protocol.OriginGround {
		new.registry = peers.NewRegistry()
	} else {
		new.tracker = seqtrack.NewTracker[protocol.Origin]()
	}
	return
}

func (receiver *receiver) Run(ctx context.Context) {
	module := receiver.module
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		func() {
			// Record panics and continue processing
			defer func() {
				if fatalError := recover(); fatalError != nil {
					stack := debug.Stack()
					logctx.LogEvent(ctx, global.VerbosityStandard, global.ErrorLog,
						"panic in radio receive task: %v\n%s", fatalError, stack)
				}
			}()

			event, err := module.radioEvents.Pop(ctx, module.cfg.QueueWait)
			if err != nil {
				return
			}
			receiver.handle(ctx, event)
		}()
	}
}

func (receiver *receiver) handle(ctx context.Context, event radio.Event) {
	module := receiver.module
	switch event := event.(type) {
	case radio.SendCompleted:
		if event.Status != radio.StatusSuccess {
			module.Metrics.TxFailures.Add(1)
			logctx.LogEvent(ctx, global.VerbosityProgress, global.WarnLog,
				"transmission to %s failed\n", event.Peer)
			return
		}
		module.Metrics.TxSuccess.Add(1)
	case radio.DataReceived:
		receiver.handleFrame(ctx, event)
	default:
		logctx.LogEvent(ctx, global.VerbosityStandard, global.ErrorLog,
			"unknown radio event %T\n", event)
	}
}

// Decode, account, then forward. Nothing leaves this function for a packet that failed to decode.
func (receiver *receiver) handleFrame(ctx context.Context, event radio.DataReceived) {
	module := receiver.module

	packet, err := module.codec.Decode(event.Data)
	if err != nil {
		if errors.Is(err, protocol.ErrAuthentication) {
			module.Metrics.AuthFailures.Add(1)
		} else {
			module.Metrics.ValidationFailures.Add(1)
		}
		logctx.LogEvent(ctx, global.VerbosityProgress, global.WarnLog,
			"dropped frame from %s: %v\n", event.Peer, err)
		return
	}
	defer crypto.Memzero(packet.Payload)

	header := packet.Header
	if header.Origin == module.cfg.Role {
		module.Metrics.OwnOrigin.Add(1)
		return
	}
	module.Metrics.PacketsReceived.Add(1)

	verdict := receiver.account(ctx, event, header)
	if verdict == seqtrack.Stale {
		module.Metrics.StalePackets.Add(1)
		if module.cfg.DropStale {
			module.Metrics.StaleDropped.Add(1)
			logctx.LogEvent(ctx, global.VerbosityData, global.InfoLog,
				"dropped stale packet seq %d from %s\n", header.Seq, event.Peer)
			return
		}
	}

	switch header.Type {
	case protocol.TypeInternalTelemetry:
		receiver.handleReport(ctx, event.Peer, packet.Payload)
	case protocol.TypeData:
		receiver.forward(ctx, packet.Payload)
	}
}

// Sequence and loss accounting, run before the payload moves upstream
func (receiver *receiver) account(ctx context.Context, event radio.DataReceived, header protocol.Header) (verdict seqtrack.Verdict) {
	module := receiver.module

	var lost uint32
	if receiver.registry != nil {
		var err error
		lost, verdict, err = receiver.registry.Upsert(event.Peer, event.RSSI, header.Seq)
		if err != nil {
			module.Metrics.RegistryRejected.Add(1)
			if receiver.registry.Rejected() == 1 {
				logctx.LogEvent(ctx, global.VerbosityStandard, global.WarnLog,
					"peer registry full (%d peers), %s is not tracked\n", peers.Capacity, event.Peer)
			}
			// Untracked peers are still delivered
			verdict = seqtrack.InOrder
			return
		}
		report := receiver.registry.Report(module.driver.NoiseFloor())
		module.localReport.Store(&report)
	} else {
		lost, verdict = receiver.tracker.Observe(header.Origin, header.Seq)
	}

	if lost > 0 {
		module.Metrics.LostPackets.Add(uint64(lost))
		logctx.LogEvent(ctx, global.VerbosityData, global.InfoLog,
			"lost %d packets from %s before seq %d\n", lost, event.Peer, header.Seq)
	}
	return
}

// Internal telemetry is consumed here, never forwarded to serial
func (receiver *receiver) handleReport(ctx context.Context, peer protocol.MAC, payload []byte) {
	module := receiver.module
	if module.cfg.Role != protocol.OriginAir {
		return
	}

	report, err := protocol.ParseLinkReport(payload)
	if err != nil {
		module.Metrics.ReportErrors.Add(1)
		logctx.LogEvent(ctx, global.VerbosityProgress, global.WarnLog,
			"invalid link report from %s: %v\n", peer, err)
		return
	}

	module.Metrics.ReportsReceived.Add(1)
	module.remoteReport.Store(&report)
	module.notifyReport(report)
}

// Copies the plaintext into a pooled event for the serial side
func (receiver *receiver) forward(ctx context.Context, payload []byte) {
	module := receiver.module

	event, err := NewEvent(protocol.TypeData, payload)
	if err != nil {
		module.Metrics.ValidationFailures.Add(1)
		return
	}

	err = module.serialOutbox.Push(ctx, event, module.cfg.QueueWait)
	if err != nil {
		event.Release()
		if errors.Is(err, queue.ErrBackpressure) {
			module.Metrics.SerialBackpressure.Add(1)
			logctx.LogEvent(ctx, global.VerbosityProgress, global.WarnLog,
				"serial outbox full, dropped %d byte payload\n", len(payload))
		}
		return
	}
}

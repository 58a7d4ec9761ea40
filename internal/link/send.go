package link

import (
	"context"
	"dblink/internal/global"
	"dblink/internal/logctx"
	"dblink/internal/queue"
	"errors"
	"runtime/debug"
)

// Radio-send task: encodes queued events and submits them to the driver
type sender struct {
	module *Module
	seq    uint32 // next sequence number for this origin
}

func newSender(module *Module) (new *sender) {
	new = &sender{module: module}
	return
}

func (sender *sender) Run(ctx context.Context) {
	module := sender.module
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
						"panic in radio send task: %v\n%s", fatalError, stack)
				}
			}()

			event, err := module.radioOutbox.Pop(ctx, module.cfg.QueueWait)
			if err != nil {
				if !errors.Is(err, queue.ErrEmpty) && ctx.Err() == nil {
					logctx.LogEvent(ctx, global.VerbosityStandard, global.WarnLog,
						"radio outbox read failed: %v\n", err)
				}
				return
			}
			sender.transmit(ctx, event)
		}()
	}
}

// Encodes with the next sequence number and submits one frame
func (sender *sender) transmit(ctx context.Context, event *Event) {
	module := sender.module
	defer event.Release()

	frame, err := module.codec.Encode(module.cfg.Role, event.Type, sender.seq, event.Data)
	if err != nil {
		module.Metrics.EncodeErrors.Add(1)
		logctx.LogEvent(ctx, global.VerbosityStandard, global.ErrorLog,
			"failed to encode %s packet: %v\n", event.Type, err)
		return
	}
	seq := sender.seq
	sender.seq++

	err = module.driver.Send(module.cfg.Destination, frame)
	if err != nil {
		module.Metrics.DriverErrors.Add(1)
		logctx.LogEvent(ctx, global.VerbosityProgress, global.WarnLog,
			"radio rejected packet seq %d: %v\n", seq, err)
		return
	}

	module.Metrics.PacketsSent.Add(1)
	module.Metrics.BytesSent.Add(uint64(len(frame)))
	logctx.LogEvent(ctx, global.VerbosityFullData, global.InfoLog,
		"sent %s packet seq %d (%d bytes)\n", event.Type, seq, len(frame))
}

package link

import (
	"context"
	"dblink/internal/global"
	"dblink/internal/logctx"
	"runtime/debug"
)

// Serial-egress task: hands decoded payloads to the subscriber and releases them
func (module *Module) runEgress(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		event, err := module.serialOutbox.Pop(ctx, module.cfg.QueueWait)
		if err != nil {
			continue
		}
		module.deliver(ctx, event)
	}
}

func (module *Module) deliver(ctx context.Context, event *Event) {
	defer event.Release()
	defer func() {
		if fatalError := recover(); fatalError != nil {
			stack := debug.Stack()
			logctx.LogEvent(ctx, global.VerbosityStandard, global.ErrorLog,
				"panic in inbound subscriber: %v\n%s", fatalError, stack)
		}
	}()

	handler := module.subscriber.Load()
	if handler == nil {
		module.Metrics.Undelivered.Add(1)
		return
	}
	(*handler)(event)
	module.Metrics.Delivered.Add(1)
}

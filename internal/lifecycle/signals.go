package lifecycle

import (
	"context"
	"dblink/internal/global"
	"dblink/internal/logctx"
	"os"
	"os/signal"
	"syscall"
)

type DaemonLike interface {
	Shutdown()
}

// Blocks until a termination signal arrives or ctx ends, then shuts the daemon down.
// Returns the signal received, nil when ctx ended first.
func SignalHandler(ctx context.Context, daemon DaemonLike) (received os.Signal) {
	sigChan := make(chan os.Signal, 4)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGQUIT, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigChan)

	select {
	case received = <-sigChan:
		logctx.LogEvent(ctx, global.VerbosityStandard, global.InfoLog, "Received signal: %v\n", received)
	case <-ctx.Done():
	}

	err := NotifyStopping(ctx)
	if err != nil {
		logctx.LogEvent(ctx, global.VerbosityStandard, global.WarnLog, "Systemd notify stopping failed: %v\n", err)
	}

	daemon.Shutdown()
	return
}

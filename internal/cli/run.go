package cli

import (
	"context"
	"dblink/internal/config"
	"dblink/internal/daemon"
	"dblink/internal/global"
	"dblink/internal/logctx"
	"dblink/pkg/protocol"
	"flag"
	"fmt"
	"os"
)

// Runs the link daemon in the role named by commandname until a termination signal
func RunMode(ctx context.Context, role protocol.Origin, commandname string, args []string) {
	var configPath string
	commandFlags := flag.NewFlagSet(commandname, flag.ExitOnError)
	SetGlobalArguments(commandFlags)
	SetCommon(commandFlags, &configPath)

	commandFlags.Usage = func() {
		PrintHelpMenu(commandFlags, commandname, global.CmdOpts)
	}
	commandFlags.Parse(args)

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if cfg.Role != role {
		fmt.Fprintf(os.Stderr, "Error: config '%s' is for the %s role, not %s\n", configPath, cfg.Role, role)
		os.Exit(1)
	}
	if flagSet(commandFlags, "v", "verbosity") {
		cfg.LogLevel = global.Verbosity
	}

	key, err := cfg.LoadKey(promptPassphrase)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading link key: %v\n", err)
		os.Exit(1)
	}

	// Daemon logger writes to the configured outputs
	output, closeOutput, err := logctx.NewOutput(cfg.LogFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening log output: %v\n", err)
		os.Exit(1)
	}
	logDone := make(chan struct{})
	logger := logctx.NewLogger(commandname, cfg.LogLevel, logDone)
	logctx.StartWatcher(logger, output)
	daemonCtx := logctx.WithLogger(ctx, logger)

	flushLogs := func() {
		close(logDone)
		logger.Wake()
		logger.Wait()
		closeOutput()
	}

	linkDaemon := daemon.NewDaemon(cfg)
	err = linkDaemon.Start(daemonCtx, key)
	if err != nil {
		logctx.LogEvent(daemonCtx, global.VerbosityStandard, global.ErrorLog, "Error starting %s daemon: %v\n", role, err)
		flushLogs()
		os.Exit(1)
	}

	linkDaemon.Run()
	flushLogs()
}

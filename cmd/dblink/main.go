package main

import (
	"context"
	"dblink/internal/cli"
	"dblink/internal/global"
	"dblink/internal/logctx"
	"dblink/pkg/protocol"
	"flag"
	"fmt"
	"os"
	"runtime"
)

func main() {
	cliOpts := cli.DefineOptions()
	global.CmdOpts = cliOpts

	args := os.Args
	commandFlags := flag.NewFlagSet(args[0], flag.ExitOnError)
	cli.SetGlobalArguments(commandFlags)

	commandFlags.Usage = func() {
		cli.PrintHelpMenu(commandFlags, cli.RootCLICommand, cliOpts)
	}
	if len(args) < 2 {
		cli.PrintHelpMenu(commandFlags, cli.RootCLICommand, cliOpts)
		os.Exit(1)
	}
	commandFlags.Parse(args[1:])
	if commandFlags.NArg() < 1 {
		cli.PrintHelpMenu(commandFlags, cli.RootCLICommand, cliOpts)
		os.Exit(1)
	}

	// Retrieve command and args
	command := commandFlags.Arg(0)
	args = commandFlags.Args()[1:]

	// Setting global logging
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	logger := logctx.NewLogger("global", global.Verbosity, ctx.Done()) // New logger tied to global
	ctx = logctx.WithLogger(ctx, logger)                               // Add logger to global ctx
	logctx.StartWatcher(logger, os.Stdout)                             // Send received output to stdout

	// Process commands
	switch command {
	case "ground":
		cli.RunMode(ctx, protocol.OriginGround, command, args)
	case "air":
		cli.RunMode(ctx, protocol.OriginAir, command, args)
	case "keygen":
		cli.KeygenMode(command, args)
	case "version":
		if global.Verbosity > global.VerbosityStandard || (len(args) > 0 && (args[0] == "--verbosity" || args[0] == "-v")) {
			fmt.Printf("dblink %s\n", global.ProgVersion)
			fmt.Printf("Built using %s(%s) for %s on %s\n", runtime.Version(), runtime.Compiler, runtime.GOOS, runtime.GOARCH)
		} else {
			fmt.Println(global.ProgVersion)
		}
	default:
		cli.PrintHelpMenu(commandFlags, cli.RootCLICommand, cliOpts)
		os.Exit(1)
	}

	// Finish up any stdout writes for global logger
	cancel()
	logger.Wake()
	logger.Wait()
}

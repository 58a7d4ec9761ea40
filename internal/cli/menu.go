package cli

import (
	"dblink/internal/global"
	"flag"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
)

const (
	RootCLICommand  string = "root"
	helpMenuTrailer string = `
Both units must share the same link key and crypto suite.
`
)

// Help for the root or one of its subcommands, written to stdout
func PrintHelpMenu(fs *flag.FlagSet, command string, rootCmd *global.CommandSet) {
	writeHelpMenu(os.Stdout, fs, command, rootCmd)
}

func writeHelpMenu(out io.Writer, fs *flag.FlagSet, command string, rootCmd *global.CommandSet) {
	cmd := rootCmd
	if command != "" && command != RootCLICommand {
		var found bool
		cmd, found = rootCmd.ChildCommands[command]
		if !found {
			fmt.Fprintf(out, "Unknown command: %s\n", command)
			return
		}
	}

	usage := []string{global.ProgBaseName}
	if cmd == rootCmd {
		usage = append(usage, "[options]", "<command>")
	} else {
		usage = append(usage, cmd.CommandName)
		if cmd.UsageOption != "" {
			usage = append(usage, cmd.UsageOption)
		}
	}
	fmt.Fprintf(out, "Usage: %s\n\n", strings.Join(usage, " "))

	if cmd == rootCmd {
		fmt.Fprintln(out, cmd.Description)
		fmt.Fprintln(out, cmd.FullDescription)
		fmt.Fprintln(out)
		writeCommands(out, rootCmd)
	} else if cmd.FullDescription != "" {
		fmt.Fprintf(out, "  %s\n\n", cmd.FullDescription)
	}

	if len(cmd.ConfigSections) > 0 {
		sections := make([]string, len(cmd.ConfigSections))
		for i, section := range cmd.ConfigSections {
			sections[i] = "[" + section + "]"
		}
		fmt.Fprintf(out, "  Config sections (%s):\n    %s\n\n", global.DefaultConfigPath, strings.Join(sections, " "))
	}

	writeFlagOptions(out, fs)

	if cmd == rootCmd {
		fmt.Fprint(out, helpMenuTrailer)
	}
}

func writeCommands(out io.Writer, rootCmd *global.CommandSet) {
	names := make([]string, 0, len(rootCmd.ChildCommands))
	width := 0
	for name := range rootCmd.ChildCommands {
		names = append(names, name)
		width = max(width, len(name))
	}
	slices.Sort(names)

	fmt.Fprintln(out, "  Commands:")
	for _, name := range names {
		fmt.Fprintf(out, "    %-*s  %s\n", width, name, rootCmd.ChildCommands[name].Description)
	}
	fmt.Fprintln(out)
}

// Short and long spellings of one option share a usage text and print on one line
func writeFlagOptions(out io.Writer, fs *flag.FlagSet) {
	type option struct {
		names      []string
		usage      string
		defaultVal string
	}

	var options []*option
	byUsage := make(map[string]*option)
	fs.VisitAll(func(f *flag.Flag) {
		name := "--" + f.Name
		if len(f.Name) == 1 {
			name = "-" + f.Name
		}

		opt, seen := byUsage[f.Usage]
		if !seen {
			opt = &option{usage: f.Usage, defaultVal: f.DefValue}
			byUsage[f.Usage] = opt
			options = append(options, opt)
		}
		opt.names = append(opt.names, name)
	})
	if len(options) == 0 {
		return
	}

	width := 0
	for _, opt := range options {
		// Single dash spellings first
		slices.SortFunc(opt.names, func(a, b string) int { return len(a) - len(b) })
		width = max(width, len(strings.Join(opt.names, ", ")))
	}
	slices.SortFunc(options, func(a, b *option) int { return strings.Compare(a.names[0], b.names[0]) })

	fmt.Fprintln(out, "  Options:")
	for _, opt := range options {
		desc := opt.usage
		if opt.defaultVal != "" && opt.defaultVal != "false" && opt.defaultVal != "0" {
			desc += fmt.Sprintf(" [default: %s]", opt.defaultVal)
		}
		fmt.Fprintf(out, "    %-*s  %s\n", width, strings.Join(opt.names, ", "), desc)
	}
}

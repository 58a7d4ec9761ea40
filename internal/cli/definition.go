package cli

import "dblink/internal/global"

func DefineOptions() (cmdOpts *global.CommandSet) {
	// Root level
	root := &global.CommandSet{
		Description:     "DroneBridge Link (dblink)",
		FullDescription: "  Encrypted telemetry link between a ground station and an air unit over a broadcast datagram radio",
		CommandName:     RootCLICommand,
		ChildCommands:   make(map[string]*global.CommandSet),
	}

	root.ChildCommands["ground"] = &global.CommandSet{
		CommandName:     "ground",
		Description:     "Run Ground Station",
		FullDescription: "Bridges the serial port to the radio as the ground role, tracks every air unit heard and broadcasts link reports",
		UsageOption:     "[-c file]",
		ConfigSections:  []string{"crypto", "radio", "serial", "queues", "reporter", "link", "beats", "metrics", "logging"},
	}

	root.ChildCommands["air"] = &global.CommandSet{
		CommandName:     "air",
		Description:     "Run Air Unit",
		FullDescription: "Bridges the flight controller serial port to the radio as the air role",
		UsageOption:     "[-c file]",
		ConfigSections:  []string{"crypto", "radio", "serial", "queues", "link", "beats", "metrics", "logging"},
	}

	root.ChildCommands["keygen"] = &global.CommandSet{
		CommandName:     "keygen",
		Description:     "Generate Link Key",
		FullDescription: "Creates a new random link key for both units (hex encoded)",
		UsageOption:     "[-o file]",
	}

	// Version Info
	root.ChildCommands["version"] = &global.CommandSet{
		CommandName:     "version",
		Description:     "Show Version Information",
		FullDescription: "Display meta information about program",
	}

	cmdOpts = root
	return
}

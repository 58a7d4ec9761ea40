package config

import (
	"dblink/internal/link"
	"dblink/internal/radio/udp"
	"dblink/pkg/protocol"
)

// Link module settings. The key is handed over and zeroed by link.New.
func (cfg Config) LinkConfig(key []byte) (linkCfg link.Config) {
	linkCfg = link.Config{
		Role:           cfg.Role,
		Suite:          cfg.Suite,
		Key:            key,
		Destination:    cfg.Destination,
		QueueSize:      cfg.QueueSize,
		QueueWait:      cfg.QueueWait,
		ReportInterval: cfg.ReportInterval,
		DropStale:      cfg.DropStale,
	}
	return
}

// UDP radio emulation settings
func (cfg Config) UDPConfig(mac protocol.MAC) (udpCfg udp.Config) {
	udpCfg = udp.Config{
		MAC:           mac,
		Port:          cfg.RadioPort,
		PeerPort:      cfg.PeerPort,
		BroadcastAddr: cfg.BroadcastAddress,
		RSSI:          cfg.RSSI,
		NoiseFloor:    cfg.NoiseFloor,
		SocketFilter:  cfg.SocketFilter,
	}
	return
}

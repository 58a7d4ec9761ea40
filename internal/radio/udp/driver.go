// Emulates a broadcast datagram radio over UDP so ground and air units can run on a LAN
package udp

import (
	"context"
	"dblink/internal/ebpf"
	"dblink/internal/global"
	"dblink/internal/logctx"
	"dblink/internal/network"
	"dblink/internal/radio"
	"dblink/pkg/protocol"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
)

// src(6) | dst(6) in front of every frame
const addrHeaderLen int = 2 * protocol.MACLen

// Largest datagram the emulation exchanges
const MaxDatagram int = addrHeaderLen + protocol.MaxPacketSize

type Config struct {
	MAC           protocol.MAC
	Port          int // listen port
	PeerPort      int // destination port, defaults to Port
	BroadcastAddr string
	RSSI          int8 // reported for every received frame
	NoiseFloor    int8
	SocketFilter  bool // attach kernel runt filter when possible
}

type Driver struct {
	cfg         Config
	conn        *net.UDPConn
	destination *net.UDPAddr
	closeFilter func() error

	mu     sync.RWMutex
	onSend radio.SendCallback
	onRecv radio.RecvCallback

	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	closed  atomic.Bool
	Metrics MetricStorage
}

type MetricStorage struct {
	Received   atomic.Uint64
	Sent       atomic.Uint64
	Filtered   atomic.Uint64 // own or not addressed to us
	Runts      atomic.Uint64 // too short to carry a frame
	ReadErrors atomic.Uint64
}

// Opens the socket and starts the reader
func New(ctx context.Context, cfg Config) (new *Driver, err error) {
	if cfg.PeerPort == 0 {
		cfg.PeerPort = cfg.Port
	}
	destination, err := network.BroadcastAddr(cfg.BroadcastAddr, cfg.PeerPort)
	if err != nil {
		return
	}

	conn, err := network.ListenBroadcastUDP(ctx, cfg.Port)
	if err != nil {
		return
	}

	new = &Driver{
		cfg:         cfg,
		conn:        conn,
		destination: destination,
		closeFilter: func() error { return nil },
	}
	new.ctx, new.cancel = context.WithCancel(logctx.AppendCtxTag(ctx, global.NSDriver))

	if cfg.SocketFilter {
		closeFilter, filterErr := ebpf.AttachRuntFilter(conn, addrHeaderLen+protocol.MinPacketSize)
		if filterErr != nil {
			logctx.LogEvent(new.ctx, global.VerbosityStandard, global.WarnLog,
				"runt socket filter not attached, filtering in userspace: %v\n", filterErr)
		} else {
			new.closeFilter = closeFilter
			logctx.LogEvent(new.ctx, global.VerbosityProgress, global.InfoLog,
				"attached runt socket filter\n")
		}
	}

	new.wg.Add(1)
	go new.readLoop()

	logctx.LogEvent(new.ctx, global.VerbosityStandard, global.InfoLog,
		"emulated radio %s on udp port %d, broadcasting to %s\n", cfg.MAC, network.LocalPort(conn), destination)
	return
}

func (driver *Driver) MAC() protocol.MAC {
	return driver.cfg.MAC
}

func (driver *Driver) NoiseFloor() int8 {
	return driver.cfg.NoiseFloor
}

func (driver *Driver) SetCallbacks(onSend radio.SendCallback, onRecv radio.RecvCallback) {
	driver.mu.Lock()
	driver.onSend = onSend
	driver.onRecv = onRecv
	driver.mu.Unlock()
}

// Writes one datagram. Completion is reported after the socket write like an on-air send callback.
func (driver *Driver) Send(dst protocol.MAC, frame []byte) (err error) {
	if driver.closed.Load() {
		err = radio.ErrClosed
		return
	}
	if len(frame) > protocol.MaxPacketSize {
		err = fmt.Errorf("frame of %d bytes exceeds radio limit %d", len(frame), protocol.MaxPacketSize)
		return
	}

	datagram := make([]byte, addrHeaderLen+len(frame))
	copy(datagram[0:protocol.MACLen], driver.cfg.MAC[:])
	copy(datagram[protocol.MACLen:addrHeaderLen], dst[:])
	copy(datagram[addrHeaderLen:], frame)

	_, writeErr := driver.conn.WriteToUDP(datagram, driver.destination)

	status := radio.StatusSuccess
	if writeErr != nil {
		status = radio.StatusFailed
	} else {
		driver.Metrics.Sent.Add(1)
	}

	driver.mu.RLock()
	onSend := driver.onSend
	driver.mu.RUnlock()
	if onSend != nil {
		onSend(dst, status)
	}
	return
}

func (driver *Driver) readLoop() {
	defer driver.wg.Done()

	buf := make([]byte, MaxDatagram+1)
	for {
		n, _, err := driver.conn.ReadFromUDP(buf)
		if err != nil {
			if driver.closed.Load() || errors.Is(err, net.ErrClosed) {
				return
			}
			driver.Metrics.ReadErrors.Add(1)
			logctx.LogEvent(driver.ctx, global.VerbosityStandard, global.WarnLog,
				"udp read failed: %v\n", err)
			continue
		}

		src, frame, ok := driver.accept(buf[:n])
		if !ok {
			continue
		}
		driver.Metrics.Received.Add(1)

		driver.mu.RLock()
		onRecv := driver.onRecv
		driver.mu.RUnlock()
		if onRecv != nil {
			onRecv(src, driver.cfg.RSSI, frame)
		}
	}
}

// Checks addressing and length, returning the frame view into datagram
func (driver *Driver) accept(datagram []byte) (src protocol.MAC, frame []byte, ok bool) {
	if len(datagram) < addrHeaderLen+protocol.MinPacketSize || len(datagram) > MaxDatagram {
		driver.Metrics.Runts.Add(1)
		return
	}

	var dst protocol.MAC
	copy(src[:], datagram[0:protocol.MACLen])
	copy(dst[:], datagram[protocol.MACLen:addrHeaderLen])

	// Broadcast loops back to the sender, and unicast for other radios is not ours
	if src == driver.cfg.MAC || (dst != protocol.BroadcastMAC && dst != driver.cfg.MAC) {
		driver.Metrics.Filtered.Add(1)
		return
	}

	frame = datagram[addrHeaderLen:]
	ok = true
	return
}

// Stops the reader and releases the socket
func (driver *Driver) Close() (err error) {
	if !driver.closed.CompareAndSwap(false, true) {
		return
	}
	driver.SetCallbacks(nil, nil)
	driver.cancel()
	err = driver.conn.Close()
	driver.wg.Wait()

	filterErr := driver.closeFilter()
	if err == nil {
		err = filterErr
	}
	return
}

// Bound socket port, useful when configured with port 0
func (driver *Driver) LocalPort() int {
	return network.LocalPort(driver.conn)
}

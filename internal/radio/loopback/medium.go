// In-memory radio medium connecting several drivers in one process
package loopback

import (
	"dblink/internal/radio"
	"dblink/pkg/protocol"
	"fmt"
	"sync"
)

// Shared air between attached drivers
type Medium struct {
	mu      sync.Mutex
	drivers []*Driver
	dropper func(src, dst protocol.MAC, frame []byte) bool
}

// One radio attached to the medium
type Driver struct {
	medium     *Medium
	mac        protocol.MAC
	rssi       int8
	noiseFloor int8

	mu     sync.Mutex
	onSend radio.SendCallback
	onRecv radio.RecvCallback
	closed bool
	sent   int
	failed bool
}

// Medium Constructor
func NewMedium() (new *Medium) {
	new = &Medium{}
	return
}

// Adds a radio. Receivers see its frames with the given RSSI.
func (medium *Medium) Attach(mac protocol.MAC, rssi, noiseFloor int8) (driver *Driver) {
	driver = &Driver{
		medium:     medium,
		mac:        mac,
		rssi:       rssi,
		noiseFloor: noiseFloor,
	}
	medium.mu.Lock()
	medium.drivers = append(medium.drivers, driver)
	medium.mu.Unlock()
	return
}

// Installs a loss model. Returning true drops the frame for every receiver.
func (medium *Medium) SetDropper(dropper func(src, dst protocol.MAC, frame []byte) bool) {
	medium.mu.Lock()
	medium.dropper = dropper
	medium.mu.Unlock()
}

// Delivers a frame to every other open driver addressed by dst
func (medium *Medium) transmit(src *Driver, dst protocol.MAC, frame []byte) {
	medium.mu.Lock()
	dropper := medium.dropper
	receivers := make([]*Driver, 0, len(medium.drivers))
	for _, driver := range medium.drivers {
		if driver == src {
			continue
		}
		if dst != protocol.BroadcastMAC && dst != driver.mac {
			continue
		}
		receivers = append(receivers, driver)
	}
	medium.mu.Unlock()

	if dropper != nil && dropper(src.mac, dst, frame) {
		return
	}

	for _, driver := range receivers {
		driver.mu.Lock()
		onRecv := driver.onRecv
		closed := driver.closed
		driver.mu.Unlock()
		if closed || onRecv == nil {
			continue
		}

		// Receivers get their own copy, like a real radio buffer
		onRecv(src.mac, src.rssi, append([]byte(nil), frame...))
	}
}

func (driver *Driver) MAC() protocol.MAC {
	return driver.mac
}

func (driver *Driver) NoiseFloor() int8 {
	return driver.noiseFloor
}

func (driver *Driver) SetCallbacks(onSend radio.SendCallback, onRecv radio.RecvCallback) {
	driver.mu.Lock()
	driver.onSend = onSend
	driver.onRecv = onRecv
	driver.mu.Unlock()
}

// Makes every following send report a failed completion
func (driver *Driver) FailSends(fail bool) {
	driver.mu.Lock()
	driver.failed = fail
	driver.mu.Unlock()
}

// Number of frames submitted
func (driver *Driver) Sent() int {
	driver.mu.Lock()
	defer driver.mu.Unlock()
	return driver.sent
}

func (driver *Driver) Send(dst protocol.MAC, frame []byte) (err error) {
	driver.mu.Lock()
	if driver.closed {
		driver.mu.Unlock()
		err = radio.ErrClosed
		return
	}
	if len(frame) > protocol.MaxPacketSize {
		driver.mu.Unlock()
		err = fmt.Errorf("frame of %d bytes exceeds radio limit %d", len(frame), protocol.MaxPacketSize)
		return
	}
	driver.sent++
	failed := driver.failed
	onSend := driver.onSend
	driver.mu.Unlock()

	status := radio.StatusFailed
	if !failed {
		driver.medium.transmit(driver, dst, frame)
		status = radio.StatusSuccess
	}
	if onSend != nil {
		onSend(dst, status)
	}
	return
}

func (driver *Driver) Close() (err error) {
	driver.mu.Lock()
	driver.closed = true
	driver.onSend = nil
	driver.onRecv = nil
	driver.mu.Unlock()
	return
}

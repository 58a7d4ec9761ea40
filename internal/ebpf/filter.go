// Kernel side socket filter dropping datagrams too short to carry a link packet
package ebpf

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"syscall"

	"github.com/cilium/ebpf"
	"github.com/cilium/ebpf/asm"
	"github.com/cilium/ebpf/link"
	"golang.org/x/sys/unix"
)

// UDP header is still part of the skb when the socket filter runs
const udpHeaderLen uint32 = 8

// Skipped on unsupported hosts, callers treat this as a no-op
var ErrUnsupported = errors.New("socket filters unsupported on this host")

// Builds the filter program: keep the datagram if skb->len >= minLen, otherwise drop it
func FilterInstructions(minDatagram int) (insns asm.Instructions) {
	minLen := int32(udpHeaderLen) + int32(minDatagram)
	insns = asm.Instructions{
		// r0 = skb->len (first field of __sk_buff)
		asm.LoadMem(asm.R0, asm.R1, 0, asm.Word),
		asm.JGE.Imm(asm.R0, minLen, "keep"),
		asm.Mov.Imm(asm.R0, 0),
		asm.Return(),
		asm.Mov.Imm(asm.R0, -1).WithSymbol("keep"),
		asm.Return(),
	}
	return
}

// Loads the runt filter and attaches it to conn.
// Returned close func detaches nothing, the kernel drops the filter with the socket.
func AttachRuntFilter(conn syscall.Conn, minDatagram int) (closeProg func() error, err error) {
	closeProg = func() error { return nil }
	if runtime.GOOS != "linux" {
		err = ErrUnsupported
		return
	}
	if minDatagram <= 0 {
		err = fmt.Errorf("invalid minimum datagram size %d", minDatagram)
		return
	}

	// Older kernels account program memory against memlock
	if os.Geteuid() == 0 {
		_ = unix.Setrlimit(unix.RLIMIT_MEMLOCK, &unix.Rlimit{
			Cur: unix.RLIM_INFINITY,
			Max: unix.RLIM_INFINITY,
		})
	}

	prog, err := ebpf.NewProgram(&ebpf.ProgramSpec{
		Name:         "dblink_runt",
		Type:         ebpf.SocketFilter,
		License:      "MIT",
		Instructions: FilterInstructions(minDatagram),
	})
	if err != nil {
		err = fmt.Errorf("load socket filter: %w", err)
		return
	}

	err = link.AttachSocketFilter(conn, prog)
	if err != nil {
		prog.Close()
		err = fmt.Errorf("attach socket filter: %w", err)
		return
	}

	closeProg = prog.Close
	return
}

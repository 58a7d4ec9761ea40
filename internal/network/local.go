package network

import (
	"fmt"
	"net"
)

// Hardware address of the named interface, or of the first non-loopback interface when name is empty
func InterfaceMAC(name string) (mac net.HardwareAddr, err error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return
	}

	for _, iface := range ifaces {
		if name != "" && iface.Name != name {
			continue
		}
		if name == "" && iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		if len(iface.HardwareAddr) != 6 {
			continue
		}
		mac = iface.HardwareAddr
		return
	}

	if name != "" {
		err = fmt.Errorf("no interface %q with a 6 byte hardware address", name)
	} else {
		err = fmt.Errorf("no non-loopback interface with a 6 byte hardware address")
	}
	return
}

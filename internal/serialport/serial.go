// Package serialport is the transport capability used by the connection
// manager: open a named device at a baud rate, read raw bytes with a poll
// timeout, close it. The production implementation wraps go.bug.st/serial.
package serialport

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"go.bug.st/serial"
	"go.bug.st/serial/enumerator"
)

// BaudRate is the fixed line speed for every connection.
const BaudRate = 115200

// ErrPortClosed is returned by reads on a port that has been closed.
var ErrPortClosed = errors.New("serial port closed")

// Port is an open device handle. Read returns (0, nil) when the read timeout
// elapses without data.
type Port interface {
	Read(p []byte) (int, error)
	SetReadTimeout(d time.Duration) error
	Close() error
}

// Transport opens and enumerates devices.
type Transport interface {
	Open(name string, baud int) (Port, error)
	List() ([]string, error)
}

// PortInfo describes an enumerated device.
type PortInfo struct {
	Name         string `json:"name"`
	IsUSB        bool   `json:"is_usb"`
	VID          string `json:"vid,omitempty"`
	PID          string `json:"pid,omitempty"`
	SerialNumber string `json:"serial_number,omitempty"`
	Product      string `json:"product,omitempty"`
}

// Label is a one-line human description.
func (p PortInfo) Label() string {
	if !p.IsUSB {
		return p.Name
	}
	label := fmt.Sprintf("%s (USB %s:%s)", p.Name, p.VID, p.PID)
	if p.Product != "" {
		label += " " + p.Product
	}
	return label
}

// Serial is the go.bug.st/serial backed Transport.
type Serial struct{}

// Open opens name at baud, 8N1.
func (Serial) Open(name string, baud int) (Port, error) {
	port, err := serial.Open(name, &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, err
	}
	return port, nil
}

// List returns the names of available serial ports, sorted.
func (Serial) List() ([]string, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, err
	}
	sort.Strings(ports)
	return ports, nil
}

// Details enumerates ports with USB metadata where the platform exposes it.
func (Serial) Details() ([]PortInfo, error) {
	ports, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return nil, err
	}
	infos := make([]PortInfo, 0, len(ports))
	for _, p := range ports {
		infos = append(infos, PortInfo{
			Name:         p.Name,
			IsUSB:        p.IsUSB,
			VID:          p.VID,
			PID:          p.PID,
			SerialNumber: p.SerialNumber,
			Product:      p.Product,
		})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos, nil
}

// IsClosed reports whether err means the port handle was closed underneath
// a pending read.
func IsClosed(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrPortClosed) || errors.Is(err, os.ErrClosed) {
		return true
	}
	code, ok := portCode(err)
	return ok && code == serial.PortClosed
}

// IsUnplugged reports whether err indicates the device went away.
func IsUnplugged(err error) bool {
	if err == nil {
		return false
	}
	if code, ok := portCode(err); ok {
		return code == serial.PortNotFound || code == serial.InvalidSerialPort
	}

	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "no such device") ||
		strings.Contains(msg, "device not configured") ||
		strings.Contains(msg, "input/output error")
}

// Hint suggests a fix for common open failures.
func Hint(err error) string {
	code, ok := portCode(err)
	if !ok {
		return "Check the device path with: serialmon ports"
	}
	switch code {
	case serial.PortBusy:
		return "Another program is holding the port. Close it and try again."
	case serial.PermissionDenied:
		return "Add your user to the dialout (Linux) or uucp group, or run with sufficient permissions."
	case serial.PortNotFound:
		return "The device is not present. Check the cable and run: serialmon ports"
	default:
		return "Check the device path with: serialmon ports"
	}
}

// portCode extracts the library's error code. The library returns
// *PortError, but a PortError value can also appear when wrapped by callers.
func portCode(err error) (serial.PortErrorCode, bool) {
	var ptr *serial.PortError
	if errors.As(err, &ptr) && ptr != nil {
		return ptr.Code(), true
	}
	var val serial.PortError
	if errors.As(err, &val) {
		return val.Code(), true
	}
	return 0, false
}

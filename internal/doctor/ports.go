package doctor

import (
	"fmt"

	"github.com/rileyhilliard/serialmon/internal/serialport"
)

// PortsListCheck verifies that serial ports can be enumerated and that at
// least one is present.
type PortsListCheck struct {
	Transport serialport.Transport
}

func (c *PortsListCheck) Name() string     { return "ports_list" }
func (c *PortsListCheck) Category() string { return "SERIAL" }

func (c *PortsListCheck) Run() CheckResult {
	ports, err := c.Transport.List()
	if err != nil {
		return CheckResult{
			Name:       c.Name(),
			Status:     StatusFail,
			Message:    fmt.Sprintf("Cannot list serial ports: %v", err),
			Suggestion: serialport.Hint(err),
		}
	}
	if len(ports) == 0 {
		return CheckResult{
			Name:       c.Name(),
			Status:     StatusFail,
			Message:    "No serial ports found",
			Suggestion: "Plug in the device and check the cable supports data",
		}
	}
	return CheckResult{
		Name:    c.Name(),
		Status:  StatusPass,
		Message: fmt.Sprintf("%d serial port%s found", len(ports), Pluralize(len(ports))),
	}
}

func (c *PortsListCheck) Fix() error { return nil }

// PortAccessCheck opens and closes the configured port to prove it is
// present, free, and readable by this user.
type PortAccessCheck struct {
	Transport serialport.Transport
	Port      string
}

func (c *PortAccessCheck) Name() string     { return "port_access" }
func (c *PortAccessCheck) Category() string { return "SERIAL" }

func (c *PortAccessCheck) Run() CheckResult {
	if c.Port == "" {
		return CheckResult{
			Name:       c.Name(),
			Status:     StatusWarn,
			Message:    "No port configured, one is picked at connect time",
			Suggestion: "Run 'serialmon ports use' to remember a port",
		}
	}

	port, err := c.Transport.Open(c.Port, serialport.BaudRate)
	if err != nil {
		return CheckResult{
			Name:       c.Name(),
			Status:     StatusFail,
			Message:    fmt.Sprintf("Cannot open %s: %v", c.Port, err),
			Suggestion: serialport.Hint(err),
		}
	}
	if err := port.Close(); err != nil {
		return CheckResult{
			Name:    c.Name(),
			Status:  StatusWarn,
			Message: fmt.Sprintf("Opened %s but closing it failed: %v", c.Port, err),
		}
	}

	return CheckResult{
		Name:    c.Name(),
		Status:  StatusPass,
		Message: fmt.Sprintf("Opened %s at %d baud", c.Port, serialport.BaudRate),
	}
}

func (c *PortAccessCheck) Fix() error { return nil }

// NewSerialChecks creates the device checks for port. An empty port means
// none is configured.
func NewSerialChecks(tr serialport.Transport, port string) []Check {
	return []Check{
		&PortsListCheck{Transport: tr},
		&PortAccessCheck{Transport: tr, Port: port},
	}
}

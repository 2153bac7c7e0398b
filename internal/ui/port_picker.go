package ui

import (
	"context"
	stderrors "errors"

	"github.com/charmbracelet/huh"

	"github.com/rileyhilliard/serialmon/internal/errors"
	"github.com/rileyhilliard/serialmon/internal/serialport"
)

// DescribeFunc returns details for enumerated ports. It may be nil.
type DescribeFunc func() ([]serialport.PortInfo, error)

// PortOptions builds picker entries for ports, labelled with USB details
// where describe knows them. Order follows ports.
func PortOptions(ports []string, describe DescribeFunc) []huh.Option[string] {
	labels := make(map[string]string, len(ports))
	if describe != nil {
		if infos, err := describe(); err == nil {
			for _, info := range infos {
				labels[info.Name] = info.Label()
			}
		}
	}

	options := make([]huh.Option[string], 0, len(ports))
	for _, p := range ports {
		label, ok := labels[p]
		if !ok {
			label = p
		}
		options = append(options, huh.NewOption(label, p))
	}
	return options
}

// PickPort asks the user to choose one of ports. Cancelling returns an
// error wrapping errors.ErrAborted.
func PickPort(ctx context.Context, ports []string, describe DescribeFunc) (string, error) {
	switch len(ports) {
	case 0:
		return "", errors.New(errors.ErrTransport, "No serial ports found",
			"Plug in the device or pass it with --port.")
	case 1:
		return ports[0], nil
	}

	selected := ports[0]
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Select a serial port").
				Options(PortOptions(ports, describe)...).
				Value(&selected),
		),
	)

	if err := form.RunWithContext(ctx); err != nil {
		if stderrors.Is(err, huh.ErrUserAborted) {
			return "", errors.WrapWithCode(errors.ErrAborted, errors.ErrTransport,
				"No port selected", "Pass the device with --port to skip the picker.")
		}
		return "", errors.WrapWithCode(err, errors.ErrTransport,
			"Port picker failed", "Pass the device with --port to skip the picker.")
	}
	return selected, nil
}

// PortPicker adapts PickPort to the connection manager's selector hook.
func PortPicker(describe DescribeFunc) func(ctx context.Context, ports []string) (string, error) {
	return func(ctx context.Context, ports []string) (string, error) {
		return PickPort(ctx, ports, describe)
	}
}

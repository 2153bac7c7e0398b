package device

import "fmt"

// State is the connection lifecycle state.
type State int32

const (
	Disconnected State = iota
	Connecting
	Reading
	Disconnecting
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Reading:
		return "reading"
	case Disconnecting:
		return "disconnecting"
	default:
		return "unknown"
	}
}

// MarshalText renders the state name in JSON and YAML.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText parses a state name produced by MarshalText.
func (s *State) UnmarshalText(text []byte) error {
	for _, st := range []State{Disconnected, Connecting, Reading, Disconnecting} {
		if st.String() == string(text) {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("unknown connection state %q", text)
}

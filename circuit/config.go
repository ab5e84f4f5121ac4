package circuit

import (
	"errors"
)

// DefaultPort is the IANA registered TCP port for an unsecured Channel
// Access circuit.
const DefaultPort = 5064

// Protocol version range this library negotiates.
const (
	MinProtocolVersion     = 11
	DefaultProtocolVersion = 13
)

// Priority range a client may request for its circuit (higher values are
// served first by a well-behaved server).
const (
	PriorityMin = 0
	PriorityMax = 99
)

// Config configures a VirtualCircuit. The zero value is invalid; call
// Valid to apply defaults to unset fields and validate the rest.
type Config struct {
	// ProtocolVersion is the version this side offers in its
	// VersionRequest/VersionResponse. Default DefaultProtocolVersion.
	ProtocolVersion uint16

	// Priority is the client's requested delivery priority.
	// Range [0, 99], default 0.
	Priority uint16

	// HostName and ClientName are sent in HostNameRequest/ClientNameRequest
	// during the connect handshake. Both default to "unknown" when unset;
	// a surrounding client normally fills these from the OS.
	HostName   string
	ClientName string
}

// Valid applies defaults for each unset field and validates the rest,
// exactly as the caller's own network stack would reject an out-of-range
// value before ever reaching the wire.
func (c *Config) Valid() error {
	if c == nil {
		return errors.New("invalid pointer")
	}
	if c.ProtocolVersion == 0 {
		c.ProtocolVersion = DefaultProtocolVersion
	} else if c.ProtocolVersion < MinProtocolVersion {
		return errors.New("ProtocolVersion below the minimum supported version")
	}
	if c.Priority > PriorityMax {
		return errors.New("Priority not in [0, 99]")
	}
	if c.HostName == "" {
		c.HostName = "unknown"
	}
	if c.ClientName == "" {
		c.ClientName = "unknown"
	}
	return nil
}

// DefaultConfig returns a Config with every field set to its default.
func DefaultConfig() Config {
	return Config{
		ProtocolVersion: DefaultProtocolVersion,
		Priority:        PriorityMin,
		HostName:        "unknown",
		ClientName:      "unknown",
	}
}

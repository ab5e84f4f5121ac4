package circuit

import "fmt"

// CircuitState is one side's view of the two-entry circuit state map.
type CircuitState int

const (
	StateSendVersionRequest CircuitState = iota // client: about to send VersionRequest
	StateIdle                                   // server: waiting for the client's VersionRequest
	StateSendHostNameRequest
	StateConnected
	StateDisconnected
)

func (s CircuitState) String() string {
	switch s {
	case StateSendVersionRequest:
		return "SEND_VERSION_REQUEST"
	case StateIdle:
		return "IDLE"
	case StateSendHostNameRequest:
		return "SEND_HOST_NAME_REQUEST"
	case StateConnected:
		return "CONNECTED"
	case StateDisconnected:
		return "DISCONNECTED"
	default:
		return fmt.Sprintf("CircuitState<%d>", int(s))
	}
}

// ChannelState is one side's view of a Channel's per-role state machine.
type ChannelState int

const (
	ChanIdle ChannelState = iota // server: no CreateChanRequest seen yet
	ChanSendCreateChanRequest
	ChanAwaitCreateChanResponse
	ChanSendCreateChanResponse
	ChanConnected
	ChanMustClose
	ChanClosed
	ChanDisconnected
)

func (s ChannelState) String() string {
	switch s {
	case ChanIdle:
		return "IDLE"
	case ChanSendCreateChanRequest:
		return "SEND_CREATE_CHAN_REQUEST"
	case ChanAwaitCreateChanResponse:
		return "AWAIT_CREATE_CHAN_RESPONSE"
	case ChanSendCreateChanResponse:
		return "SEND_CREATE_CHAN_RESPONSE"
	case ChanConnected:
		return "CONNECTED"
	case ChanMustClose:
		return "MUST_CLOSE"
	case ChanClosed:
		return "CLOSED"
	case ChanDisconnected:
		return "DISCONNECTED"
	default:
		return fmt.Sprintf("ChannelState<%d>", int(s))
	}
}

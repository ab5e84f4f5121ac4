package circuit

import "github.com/rob-gra/go-caproto/ca"

// Channel is a small data object owned by its VirtualCircuit: it holds a
// PV's identity and per-role state, and its operations build commands
// without mutating anything. State only changes when those commands are
// handed to VirtualCircuit.Send/ProcessCommand, which lets a higher layer
// batch or reorder channel construction freely.
type Channel struct {
	CID          uint32
	Name         string
	SID          *uint32 // nil until CreateChanResponse assigns one
	AccessRights ca.AccessRights
	DataType     uint16
	DataCount    uint32

	// State is this side's position in its role's channel lifecycle: the
	// client path (SEND_CREATE_CHAN_REQUEST -> ... -> CLOSED) if
	// circuit.OurRole is CLIENT, the server path (IDLE -> ... -> CLOSED)
	// if SERVER. A VirtualCircuit instance only ever models one side, so
	// one field is enough; see DESIGN.md for why this collapses the
	// two-entry per-role map into a single value.
	State ChannelState

	subscriptionIDs map[uint32]struct{}

	// circuit is a non-owning back-reference: the VirtualCircuit owns its
	// Channels, never the reverse.
	circuit *VirtualCircuit
}

func newChannel(c *VirtualCircuit, cid uint32, name string) *Channel {
	return &Channel{
		CID:             cid,
		Name:            name,
		subscriptionIDs: make(map[uint32]struct{}),
		circuit:         c,
	}
}

// HasSubscription reports whether subscriptionID is currently live on this
// channel.
func (ch *Channel) HasSubscription(subscriptionID uint32) bool {
	_, ok := ch.subscriptionIDs[subscriptionID]
	return ok
}

// Create builds the CreateChanRequest that opens this channel on the
// owning circuit.
func (ch *Channel) Create() ca.Command {
	return ca.NewCreateChanRequest(ch.Name, ch.CID, ch.circuit.ProtocolVersion)
}

// Clear builds the ClearChannelRequest that begins an orderly close. SID
// must already be assigned.
func (ch *Channel) Clear() (ca.Command, error) {
	if ch.SID == nil {
		return ca.Command{}, ca.NewLocalProtocolError("channel has no SID yet", ca.ErrWrongState)
	}
	return ca.NewClearChannelRequest(*ch.SID, ch.CID), nil
}

// Disconnect builds the ServerDisconnResponse a server sends to force this
// channel closed (PV removed, IOC shutting down, and so on).
func (ch *Channel) Disconnect() ca.Command {
	return ca.NewServerDisconnResponse(ch.CID)
}

// Read builds a ReadNotifyRequest for dataType/dataCount, correlated by
// ioid (normally VirtualCircuit.NewIOID()).
func (ch *Channel) Read(ioid uint32, dataType uint16, dataCount uint32) (ca.Command, error) {
	if ch.SID == nil {
		return ca.Command{}, ca.NewLocalProtocolError("channel has no SID yet", ca.ErrWrongState)
	}
	return ca.NewReadNotifyRequest(*ch.SID, ioid, dataType, dataCount), nil
}

// Write builds a WriteNotifyRequest carrying payload (already encoded via
// ca.EncodeValue/EncodeMetadata), correlated by ioid.
func (ch *Channel) Write(ioid uint32, dataType uint16, dataCount uint32, payload []byte) (ca.Command, error) {
	if ch.SID == nil {
		return ca.Command{}, ca.NewLocalProtocolError("channel has no SID yet", ca.ErrWrongState)
	}
	return ca.NewWriteNotifyRequest(*ch.SID, ioid, dataType, dataCount, payload), nil
}

// Subscribe builds an EventAddRequest for dataType/dataCount/mask,
// correlated by subscriptionID (normally VirtualCircuit.NewSubscriptionID()).
func (ch *Channel) Subscribe(subscriptionID uint32, dataType uint16, dataCount uint32, mask ca.SubscriptionType) (ca.Command, error) {
	if ch.SID == nil {
		return ca.Command{}, ca.NewLocalProtocolError("channel has no SID yet", ca.ErrWrongState)
	}
	return ca.NewEventAddRequest(*ch.SID, subscriptionID, dataType, dataCount, mask), nil
}

// Unsubscribe builds an EventCancelRequest ending subscriptionID.
func (ch *Channel) Unsubscribe(subscriptionID uint32, dataType uint16, dataCount uint32) (ca.Command, error) {
	if ch.SID == nil {
		return ca.Command{}, ca.NewLocalProtocolError("channel has no SID yet", ca.ErrWrongState)
	}
	if !ch.HasSubscription(subscriptionID) {
		return ca.Command{}, ca.NewLocalProtocolError("unknown subscription id", ca.ErrUnknownSubscription)
	}
	return ca.NewEventCancelRequest(*ch.SID, subscriptionID, dataType, dataCount), nil
}

package circuit

import (
	"sync"

	"github.com/rob-gra/go-caproto/ca"
	"github.com/rob-gra/go-caproto/clog"
	"github.com/rob-gra/go-caproto/metrics"
)

// Address is a TCP endpoint, (host, port).
type Address struct {
	Host string
	Port uint16
}

type subscription struct {
	CID       uint32
	DataType  uint16
	DataCount uint32
	Mask      ca.SubscriptionType
}

// VirtualCircuit is the sans-I/O TCP peer: a bidirectional state machine
// over one Channel Access circuit, multiplexing any number of Channels by
// CID (client-chosen) and SID (server-assigned).
type VirtualCircuit struct {
	OurRole   ca.Role
	TheirRole ca.Role

	OurAddress   Address
	TheirAddress Address

	ProtocolVersion uint16
	Priority        uint16

	State CircuitState

	mu             sync.Mutex
	channels       map[uint32]*Channel // by CID
	channelsSID    map[uint32]*Channel // by SID
	eventSubs      map[uint32]subscription
	channelTypes   ca.ChannelTypes
	recvBuf        []byte
	sawHostName    bool
	sawClientName  bool
	channelID      ca.IDCounter
	subscriptionID ca.IDCounter
	ioID           ca.IDCounter

	Log     clog.Clog
	Metrics metrics.Metrics
}

// New constructs a VirtualCircuit for ourRole. New does not validate or
// default cfg; call cfg.Valid() first. m may be nil to disable metrics
// collection.
func New(ourRole ca.Role, ourAddress, theirAddress Address, cfg Config, m metrics.Metrics) *VirtualCircuit {
	initial := StateIdle
	if ourRole == ca.CLIENT {
		initial = StateSendVersionRequest
	}
	return &VirtualCircuit{
		OurRole:         ourRole,
		TheirRole:       ourRole.Other(),
		OurAddress:      ourAddress,
		TheirAddress:    theirAddress,
		ProtocolVersion: cfg.ProtocolVersion,
		Priority:        cfg.Priority,
		State:           initial,
		channels:        make(map[uint32]*Channel),
		channelsSID:     make(map[uint32]*Channel),
		eventSubs:       make(map[uint32]subscription),
		channelTypes:    make(ca.ChannelTypes),
		Log:             clog.NewLogger("[circuit] "),
		Metrics:         m,
	}
}

type liveChannelIDs struct{ c *VirtualCircuit }

func (l liveChannelIDs) Has(id uint32) bool { _, ok := l.c.channels[id]; return ok }

type liveSubscriptionIDs struct{ c *VirtualCircuit }

func (l liveSubscriptionIDs) Has(id uint32) bool { _, ok := l.c.eventSubs[id]; return ok }

// NewChannelID returns the next CID not already live on this circuit.
func (c *VirtualCircuit) NewChannelID() uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.channelID.Next(liveChannelIDs{c})
}

// NewSubscriptionID returns the next subscription id not already live.
func (c *VirtualCircuit) NewSubscriptionID() uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.subscriptionID.Next(liveSubscriptionIDs{c})
}

// NewIOID returns the next I/O request id. ioids are not tracked in a live
// table (they are retired the instant their matching response arrives), so
// this counter never skips.
func (c *VirtualCircuit) NewIOID() uint32 {
	return c.ioID.Next(nil)
}

// NewChannel allocates a fresh CID and registers a Channel for name,
// starting in SEND_CREATE_CHAN_REQUEST. Only meaningful for a client-role
// circuit; a server-role circuit discovers its Channels via ProcessCommand
// on an inbound CreateChanRequest.
func (c *VirtualCircuit) NewChannel(name string) *Channel {
	c.mu.Lock()
	defer c.mu.Unlock()
	cid := c.channelID.Next(liveChannelIDs{c})
	ch := newChannel(c, cid, name)
	ch.State = ChanSendCreateChanRequest
	c.channels[cid] = ch
	return ch
}

// Channel looks up a Channel by CID.
func (c *VirtualCircuit) Channel(cid uint32) (*Channel, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ch, ok := c.channels[cid]
	return ch, ok
}

// ChannelBySID looks up a Channel by server-assigned id.
func (c *VirtualCircuit) ChannelBySID(sid uint32) (*Channel, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ch, ok := c.channelsSID[sid]
	return ch, ok
}

// Send validates every command against this side's current state, then
// encodes and applies them in argument order. On the first invalid
// command, it returns a LocalProtocolError and neither encodes nor applies
// anything — a failing Send leaves the circuit and its channels unchanged.
func (c *VirtualCircuit) Send(commands ...ca.Command) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.State == StateDisconnected {
		return nil, ca.NewLocalProtocolError("circuit is disconnected", ca.ErrWrongState)
	}
	for _, cmd := range commands {
		if err := c.validateOutbound(cmd); err != nil {
			return nil, err
		}
	}
	var out []byte
	for _, cmd := range commands {
		c.applyOutbound(cmd)
		encoded, err := ca.EncodeHeader(cmd.Header, int(c.ProtocolVersion))
		if err != nil {
			return nil, err
		}
		encoded = append(encoded, cmd.Payload...)
		encoded = append(encoded, make([]byte, padToEight(len(cmd.Payload)))...)
		out = append(out, encoded...)
		if c.Metrics != nil {
			c.Metrics.RecordCommandSent(cmd.Code().String())
		}
	}
	return out, nil
}

func padToEight(n int) int {
	rem := n % 8
	if rem == 0 {
		return 0
	}
	return 8 - rem
}

// Recv feeds bytes received from the transport and returns every command
// that is now fully framed. Bytes belonging to an incomplete trailing frame
// are retained internally for the next call.
func (c *VirtualCircuit) Recv(data []byte) ([]ca.Command, error) {
	c.mu.Lock()
	buf := append(c.recvBuf, data...)
	types := c.channelTypes
	c.mu.Unlock()

	var commands []ca.Command
	for {
		rest, cmd, err := ca.ReadFromByteStream(buf, c.TheirRole, types)
		if err == ca.NeedData {
			break
		}
		if err != nil {
			c.mu.Lock()
			c.State = StateDisconnected
			c.mu.Unlock()
			if c.Metrics != nil {
				c.Metrics.RecordProtocolError("remote")
			}
			return commands, err
		}
		commands = append(commands, cmd)
		buf = rest
	}
	c.mu.Lock()
	c.recvBuf = buf
	c.mu.Unlock()
	return commands, nil
}

// ProcessCommand validates an inbound command against their role's state
// and applies the resulting bookkeeping. Feeding the same command twice in
// a state where it is legal produces the same resulting state, except for
// the tables (channels, subscriptions) that explicitly accumulate entries.
func (c *VirtualCircuit) ProcessCommand(cmd ca.Command) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.validateInbound(cmd); err != nil {
		c.State = StateDisconnected
		if c.Metrics != nil {
			c.Metrics.RecordProtocolError("remote")
		}
		return err
	}
	c.applyInbound(cmd)
	if c.Metrics != nil {
		c.Metrics.RecordCommandReceived(cmd.Code().String())
		c.Metrics.SetActiveChannels(len(c.channels))
		c.Metrics.SetActiveSubscriptions(len(c.eventSubs))
	}
	return nil
}

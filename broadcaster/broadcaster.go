// Package broadcaster implements the UDP side of Channel Access: beacon
// reception, repeater registration, and name-search request/response
// correlation. It is sans-I/O — Broadcaster never opens a socket; callers
// feed it datagram bytes and hand its output bytes to one.
package broadcaster

import (
	"sync"

	"github.com/rob-gra/go-caproto/ca"
	"github.com/rob-gra/go-caproto/clog"
	"github.com/rob-gra/go-caproto/metrics"
)

// Address is a UDP endpoint, (host, port).
type Address struct {
	Host string
	Port uint16
}

// Broadcaster is the sans-I/O UDP peer. One instance models either a
// client's or a server's view of the repeater/search traffic on a single
// logical broadcaster socket.
type Broadcaster struct {
	OurRole         ca.Role
	TheirRole       ca.Role
	ProtocolVersion uint16

	// StrictMode, when true, rejects a SearchRequest/SearchResponse not
	// preceded in the same datagram by a VersionRequest/VersionResponse.
	// Default false, matching the reference implementation's documented
	// tolerance of non-conforming peers such as softIoc.
	StrictMode bool

	mu sync.Mutex
	// serverAddresses and clientAddress are this broadcaster's own
	// addresses, set once at construction: a server listens on one address
	// per interface (serverAddresses), a client has exactly one
	// (clientAddress). OurAddresses/TheirAddresses pick between the two
	// based on role rather than on anything observed on the wire.
	serverAddresses    []Address
	clientAddress      Address
	unansweredSearches map[uint32]string
	searchOrder        []uint32
	registered         bool
	searchIDCounter    ca.IDCounter

	Log     clog.Clog
	Metrics metrics.Metrics
}

// New constructs a Broadcaster for ourRole at protocolVersion. addresses is
// this broadcaster's own listening address set: for a SERVER role it is
// taken whole (one entry per interface); for a CLIENT role only its first
// entry is kept. m may be nil to disable metrics collection.
func New(ourRole ca.Role, protocolVersion uint16, addresses []Address, m metrics.Metrics) *Broadcaster {
	b := &Broadcaster{
		OurRole:            ourRole,
		TheirRole:          ourRole.Other(),
		ProtocolVersion:    protocolVersion,
		unansweredSearches: make(map[uint32]string),
		Log:                clog.NewLogger("[broadcaster] "),
		Metrics:            m,
	}
	if ourRole == ca.SERVER {
		b.serverAddresses = append([]Address(nil), addresses...)
	} else if len(addresses) > 0 {
		b.clientAddress = addresses[0]
	}
	return b
}

type liveSearches struct{ b *Broadcaster }

func (l liveSearches) Has(id uint32) bool {
	_, ok := l.b.unansweredSearches[id]
	return ok
}

// NewSearchID returns the next unused search id, skipping any value
// currently present in the unanswered-search table. Safe for concurrent
// use from multiple goroutines.
func (b *Broadcaster) NewSearchID() uint32 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.searchIDCounter.Next(liveSearches{b})
}

// Registered reports whether a RepeaterConfirmResponse has been observed
// since the last Disconnect.
func (b *Broadcaster) Registered() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.registered
}

// OurAddresses returns this broadcaster's own address(es): the single
// client address if OurRole is CLIENT, or every configured server listen
// address if OurRole is SERVER.
func (b *Broadcaster) OurAddresses() []Address {
	if b.OurRole == ca.CLIENT {
		return []Address{b.clientAddress}
	}
	return append([]Address(nil), b.serverAddresses...)
}

// TheirAddresses returns the peer side's address(es), picked from the same
// two fields as OurAddresses but keyed by TheirRole instead of OurRole.
func (b *Broadcaster) TheirAddresses() []Address {
	if b.TheirRole == ca.CLIENT {
		return []Address{b.clientAddress}
	}
	return append([]Address(nil), b.serverAddresses...)
}

// Search builds the (VersionRequest, SearchRequest) pair used to ask the
// network whether any server hosts name. If cid is the zero value a fresh
// one is allocated. The CID is recorded in the unanswered-search table
// immediately, before the caller ever calls Send, so that a concurrent
// Search cannot be handed the same id.
func (b *Broadcaster) Search(name string, cid uint32) (ca.Command, ca.Command, uint32) {
	b.mu.Lock()
	if cid == 0 {
		cid = b.searchIDCounter.Next(liveSearches{b})
	}
	b.unansweredSearches[cid] = name
	b.searchOrder = append(b.searchOrder, cid)
	b.mu.Unlock()
	version := ca.NewVersionRequest(b.ProtocolVersion, 0)
	search := ca.NewSearchRequest(name, cid, b.ProtocolVersion, ca.DoReply)
	return version, search, cid
}

// Register builds a RepeaterRegisterRequest for clientAddress (defaulting to
// "0.0.0.0" is the caller's responsibility; pass 0 for the wildcard).
func (b *Broadcaster) Register(clientAddress uint32) ca.Command {
	return ca.NewRepeaterRegisterRequest(clientAddress)
}

// Disconnect clears the registered flag. It does not produce bytes; there
// is no wire message for "leaving" the repeater.
func (b *Broadcaster) Disconnect() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.registered = false
}

// Send validates each command against the UDP state rules, encodes it, and
// returns the concatenated bytes for one datagram. It has no side effects
// on failure: either every command encodes or none of the returned bytes
// are produced.
func (b *Broadcaster) Send(commands ...ca.Command) ([]byte, error) {
	var out []byte
	var sawVersion bool
	for _, cmd := range commands {
		if err := b.validateOutbound(cmd, &sawVersion); err != nil {
			return nil, err
		}
		encoded, err := ca.EncodeHeader(cmd.Header, int(b.ProtocolVersion))
		if err != nil {
			return nil, err
		}
		encoded = append(encoded, cmd.Payload...)
		encoded = append(encoded, make([]byte, padPayload(len(cmd.Payload)))...)
		out = append(out, encoded...)
	}
	if b.Metrics != nil {
		for _, cmd := range commands {
			b.Metrics.RecordCommandSent(cmd.Code().String())
		}
	}
	return out, nil
}

func (b *Broadcaster) validateOutbound(cmd ca.Command, sawVersion *bool) error {
	switch cmd.Code() {
	case ca.CmdVersion:
		*sawVersion = true
	case ca.CmdSearch:
		if b.StrictMode && !*sawVersion {
			return ca.NewLocalProtocolError("SearchRequest must follow a VersionRequest in strict mode", nil)
		}
	case ca.CmdRepeaterRegister:
		if b.OurRole != ca.CLIENT {
			return ca.NewLocalProtocolError("only a CLIENT registers with the repeater", ca.ErrWrongRoleForCommand)
		}
	}
	return nil
}

func padPayload(n int) int {
	rem := n % 8
	if rem == 0 {
		return 0
	}
	return 8 - rem
}

// Recv parses one datagram into its commands. It does not mutate state;
// call ProcessCommands with the result to apply state transitions.
func (b *Broadcaster) Recv(data []byte, address Address) ([]ca.Command, error) {
	commands, err := ca.ReadDatagram(data, b.TheirRole)
	if err != nil {
		if b.Metrics != nil {
			b.Metrics.RecordProtocolError("remote")
		}
		b.Log.Error("recv: malformed datagram from %v: %v", address, err)
		return nil, err
	}
	b.Log.Debug("recv: %d command(s) from %v", len(commands), address)
	return commands, nil
}

// ProcessCommands applies the state transitions implied by commands,
// previously produced by Recv: registration and unanswered-search
// correlation.
func (b *Broadcaster) ProcessCommands(commands []ca.Command) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	var sawVersion bool
	for _, cmd := range commands {
		if err := b.processOne(cmd, &sawVersion); err != nil {
			return err
		}
	}
	return nil
}

func (b *Broadcaster) processOne(cmd ca.Command, sawVersion *bool) error {
	switch cmd.Code() {
	case ca.CmdVersion:
		*sawVersion = true
	case ca.CmdSearch:
		if b.StrictMode && !*sawVersion {
			return ca.NewRemoteProtocolError("SearchRequest/Response without a preceding Version command", nil)
		}
		if b.TheirRole == ca.SERVER {
			// A server's reply: clear our outstanding search, if any.
			b.completeSearch(cmd.CID())
		} else {
			// A client's request, observed e.g. by another server on
			// the same broadcaster socket.
			b.unansweredSearches[cmd.CID()] = cmd.Name()
			b.searchOrder = append(b.searchOrder, cmd.CID())
		}
	case ca.CmdRepeaterConfirm:
		b.registered = true
	}
	return nil
}

// completeSearch removes cid from the unanswered-search table. A response
// for an unknown CID is silently dropped.
func (b *Broadcaster) completeSearch(cid uint32) {
	if _, ok := b.unansweredSearches[cid]; !ok {
		return
	}
	delete(b.unansweredSearches, cid)
	if b.Metrics != nil {
		b.Metrics.RecordSearchCompleted()
	}
}

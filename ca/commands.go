package ca

import "fmt"

// CommandCode identifies one CA message kind. The wire values match the
// upstream EPICS Channel Access protocol so this library's bytes are
// indistinguishable from the reference implementation's.
type CommandCode uint16

const (
	CmdVersion          CommandCode = 0
	CmdEventAdd         CommandCode = 1
	CmdEventCancel      CommandCode = 2
	CmdReadSync         CommandCode = 3 // deprecated, kept for wire compatibility
	CmdWrite            CommandCode = 4
	CmdSearch           CommandCode = 6
	CmdEventsOff        CommandCode = 8
	CmdEventsOn         CommandCode = 9
	CmdReadSync10       CommandCode = 10 // alias some peers use for ReadSyncRequest
	CmdError            CommandCode = 11
	CmdClearChannel     CommandCode = 12
	CmdBeacon           CommandCode = 13
	CmdNotFound         CommandCode = 14
	CmdReadNotify       CommandCode = 15
	CmdRepeaterConfirm  CommandCode = 17
	CmdCreateChan       CommandCode = 18
	CmdWriteNotify      CommandCode = 19
	CmdClientName       CommandCode = 20
	CmdHostName         CommandCode = 21
	CmdAccessRights     CommandCode = 22
	CmdEcho             CommandCode = 23
	CmdRepeaterRegister CommandCode = 24
	CmdCreateChanFail   CommandCode = 26
	CmdServerDisconn    CommandCode = 27
)

var commandNames = map[CommandCode]string{
	CmdVersion:          "Version",
	CmdEventAdd:         "EventAdd",
	CmdEventCancel:      "EventCancel",
	CmdReadSync:         "ReadSync",
	CmdWrite:            "Write",
	CmdSearch:           "Search",
	CmdEventsOff:        "EventsOff",
	CmdEventsOn:         "EventsOn",
	CmdError:            "Error",
	CmdClearChannel:     "ClearChannel",
	CmdBeacon:           "Beacon",
	CmdNotFound:         "NotFound",
	CmdReadNotify:       "ReadNotify",
	CmdRepeaterConfirm:  "RepeaterConfirm",
	CmdCreateChan:       "CreateChan",
	CmdWriteNotify:      "WriteNotify",
	CmdClientName:       "ClientName",
	CmdHostName:         "HostName",
	CmdAccessRights:     "AccessRights",
	CmdEcho:             "Echo",
	CmdRepeaterRegister: "RepeaterRegister",
	CmdCreateChanFail:   "CreateChanFail",
	CmdServerDisconn:    "ServerDisconn",
}

// String implements fmt.Stringer.
func (c CommandCode) String() string {
	if name, ok := commandNames[c]; ok {
		return name
	}
	return fmt.Sprintf("CommandCode<%d>", uint16(c))
}

// KnownCommand reports whether code is a command this library recognises.
func KnownCommand(code CommandCode) bool {
	_, ok := commandNames[code]
	return ok || code == CmdReadSync10
}

// Command is the tagged-variant sans-I/O representation of one fully framed
// CA message: the 16-byte header plus its (already depadded) payload bytes.
// Field meaning in Header varies by Code and by which role sent it; the
// NewXxx constructors below place fields correctly, and the accessor
// methods read them back. Payload-bearing DBR commands (ReadNotifyResponse,
// EventAddResponse, WriteRequest, WriteNotifyRequest) store their value as
// raw bytes; call DecodeValue/DecodeMetadata to materialise it.
type Command struct {
	Header
	Payload []byte
}

// Code returns the command's tag.
func (c Command) Code() CommandCode { return CommandCode(c.Header.Command) }

func newCommand(code CommandCode, dataType uint16, dataCount uint32, p1, p2 uint32, payload []byte) Command {
	return Command{
		Header: Header{
			Command:     uint16(code),
			DataType:    dataType,
			DataCount:   dataCount,
			Parameter1:  p1,
			Parameter2:  p2,
			PayloadSize: uint32(len(payload)),
		},
		Payload: payload,
	}
}

func decodeName(payload []byte) string {
	return trimNul(payload)
}

// --- Version ---

// NewVersionRequest is sent by a client to open a circuit or to prefix a
// UDP SearchRequest. Priority is the client's requested CA_PROTO priority.
func NewVersionRequest(protocolVersion, priority uint16) Command {
	return newCommand(CmdVersion, priority, uint32(protocolVersion), 0, 0, nil)
}

// NewVersionResponse is the server's reply, or the server's own UDP prefix.
func NewVersionResponse(protocolVersion uint16) Command {
	return newCommand(CmdVersion, 0, uint32(protocolVersion), 0, 0, nil)
}

// ProtocolVersion reads the negotiated minor version carried by a Version
// command (request or response).
func (c Command) ProtocolVersion() uint16 { return uint16(c.Header.DataCount) }

// Priority reads the client-requested priority from a VersionRequest.
func (c Command) Priority() uint16 { return c.Header.DataType }

// --- Search ---

// SearchReplyFlag selects whether a server should reply even when it does
// not host the requested PV.
type SearchReplyFlag uint16

const (
	DoReply SearchReplyFlag = 5
	NoReply SearchReplyFlag = 10
)

// NewSearchRequest asks any listening server whether it hosts name. cid
// doubles as this search's correlation id (spec: CID keyed unanswered
// search table).
func NewSearchRequest(name string, cid uint32, protocolVersion uint16, reply SearchReplyFlag) Command {
	return newCommand(CmdSearch, uint16(reply), uint32(protocolVersion), cid, cid, encodeShortName(name))
}

// roundNameUp pads name's NUL-terminated byte length up to the next
// multiple of 8, independent of the fixed 40-byte DBR string width used
// elsewhere: name-bearing commands size their payload to the name, not to
// a full DBR string slot.
func roundNameUp(name string) string {
	n := len(name) + 1 // include the NUL terminator
	pad := padToEight(n)
	return name + string(make([]byte, pad+1))
}

func encodeShortName(name string) []byte {
	return []byte(roundNameUp(name))
}

// Name reads a NUL-terminated name from a command whose payload is exactly
// that (SearchRequest, CreateChanRequest, HostNameRequest, ClientNameRequest).
func (c Command) Name() string { return decodeName(c.Payload) }

// NewSearchResponse answers a SearchRequest: sid is the PV's server id and
// serverPort is the TCP port of the server's circuit listener.
func NewSearchResponse(cid uint32, sid uint32, serverPort uint16, protocolVersion uint16) Command {
	payload := make([]byte, 8)
	putUint32(payload[0:4], sid)
	putUint16(payload[4:6], protocolVersion)
	return newCommand(CmdSearch, 0xFFFF, 0, uint32(serverPort), cid, payload)
}

// SID reads the server-assigned id: from Parameter2 for a CreateChanResponse
// (whose payload is nil), from the payload for a SearchResponse.
func (c Command) SID() uint32 {
	if c.Code() == CmdCreateChan {
		return c.Header.Parameter2
	}
	return getUint32(c.Payload[0:4])
}

// ServerPort reads the TCP circuit port from a SearchResponse.
func (c Command) ServerPort() uint16 { return uint16(c.Header.Parameter1) }

// CID reads the client-assigned channel id. Most commands carry it in
// Parameter2, but the CreateChan family, CreateChanFail, ServerDisconn, and
// AccessRights carry it in Parameter1 instead (Parameter2 is their SID or
// access-rights bitmask slot), so CID dispatches on Code.
func (c Command) CID() uint32 {
	switch c.Code() {
	case CmdCreateChan, CmdCreateChanFail, CmdServerDisconn, CmdAccessRights:
		return c.Header.Parameter1
	default:
		return c.Header.Parameter2
	}
}

// NewNotFoundResponse tells a searching client that this server does not
// host the requested PV.
func NewNotFoundResponse(cid uint32, protocolVersion uint16) Command {
	return newCommand(CmdNotFound, 0, uint32(protocolVersion), 0xFFFFFFFF, cid, nil)
}

// --- Echo ---

func NewEchoRequest() Command  { return newCommand(CmdEcho, 0, 0, 0, 0, nil) }
func NewEchoResponse() Command { return newCommand(CmdEcho, 0, 0, 0, 0, nil) }

// --- Repeater ---

// NewRepeaterRegisterRequest asks the local CA repeater daemon to forward
// beacons to this client. clientAddress is usually 0.0.0.0.
func NewRepeaterRegisterRequest(clientAddress uint32) Command {
	return newCommand(CmdRepeaterRegister, 0, 0, clientAddress, 0, nil)
}

// NewRepeaterConfirmResponse confirms registration; serverAddress is the
// repeater's own address, echoed back so a client behind NAT can verify it.
func NewRepeaterConfirmResponse(serverAddress uint32) Command {
	return newCommand(CmdRepeaterConfirm, 0, 0, serverAddress, 0, nil)
}

// RepeaterAddress reads the address payload shared by RepeaterRegisterRequest
// (Parameter1) and RepeaterConfirmResponse (Parameter1).
func (c Command) RepeaterAddress() uint32 { return c.Header.Parameter1 }

// --- Host / client identification ---

func NewHostNameRequest(hostName string) Command {
	return newCommand(CmdHostName, 0, 0, 0, 0, encodeShortName(hostName))
}

func NewClientNameRequest(userName string) Command {
	return newCommand(CmdClientName, 0, 0, 0, 0, encodeShortName(userName))
}

// --- Access rights ---

func NewAccessRightsResponse(cid uint32, rights AccessRights) Command {
	return newCommand(CmdAccessRights, 0, 0, cid, uint32(rights), nil)
}

// AccessRights reads the access-rights bitmask from an AccessRightsResponse.
func (c Command) AccessRights() AccessRights { return AccessRights(c.Header.Parameter2) }

// --- Channel creation ---

// NewCreateChanRequest asks the server to open name on this circuit. cid is
// caller-chosen and used to correlate the eventual CreateChanResponse.
func NewCreateChanRequest(name string, cid uint32, protocolVersion uint16) Command {
	return newCommand(CmdCreateChan, 0, uint32(protocolVersion), cid, 0, encodeShortName(name))
}

// NewCreateChanResponse grants sid to the channel identified by cid, and
// reports the channel's native DBR type and element count.
func NewCreateChanResponse(cid, sid uint32, dataType uint16, dataCount uint32) Command {
	return newCommand(CmdCreateChan, dataType, dataCount, cid, sid, nil)
}

// NewCreateChanFailResponse reports that cid could not be created (bad
// name, access denied, or the like).
func NewCreateChanFailResponse(cid uint32) Command {
	return newCommand(CmdCreateChanFail, 0, 0, cid, 0, nil)
}

// NativeDataType reads the channel's native DBR type from a
// CreateChanResponse.
func (c Command) NativeDataType() uint16 { return c.Header.DataType }

// NativeDataCount reads the channel's native element count from a
// CreateChanResponse.
func (c Command) NativeDataCount() uint32 { return c.Header.DataCount }

// --- Channel teardown ---

func NewClearChannelRequest(sid, cid uint32) Command {
	return newCommand(CmdClearChannel, 0, 0, sid, cid, nil)
}

func NewClearChannelResponse(sid, cid uint32) Command {
	return newCommand(CmdClearChannel, 0, 0, sid, cid, nil)
}

// NewServerDisconnResponse tells the client that cid is being torn down by
// the server (PV removed, IOC reboot in progress, and so on).
func NewServerDisconnResponse(cid uint32) Command {
	return newCommand(CmdServerDisconn, 0, 0, cid, 0, nil)
}

// --- Reads ---

// NewReadNotifyRequest asks for the current value of sid as (dataType,
// dataCount); ioid correlates the eventual ReadNotifyResponse.
func NewReadNotifyRequest(sid, ioid uint32, dataType uint16, dataCount uint32) Command {
	return newCommand(CmdReadNotify, dataType, dataCount, sid, ioid, nil)
}

// NewReadNotifyResponse answers a ReadNotifyRequest with status (an ECA
// code; StatusOK on success) and, on success, the encoded DBR value.
func NewReadNotifyResponse(ioid uint32, dataType uint16, dataCount uint32, status uint32, payload []byte) Command {
	return newCommand(CmdReadNotify, dataType, dataCount, status, ioid, payload)
}

// IOID reads the request/response correlation id shared by every notify
// command (Parameter2).
func (c Command) IOID() uint32 { return c.Header.Parameter2 }

// Status reads the ECA status code carried by every notify-style response
// (Parameter1).
func (c Command) Status() uint32 { return c.Header.Parameter1 }

// --- Writes ---

// NewWriteRequest is a fire-and-forget write (no completion notification).
func NewWriteRequest(sid uint32, dataType uint16, dataCount uint32, payload []byte) Command {
	return newCommand(CmdWrite, dataType, dataCount, sid, 0, payload)
}

// NewWriteNotifyRequest is a write whose completion is reported via a
// matching WriteNotifyResponse.
func NewWriteNotifyRequest(sid, ioid uint32, dataType uint16, dataCount uint32, payload []byte) Command {
	return newCommand(CmdWriteNotify, dataType, dataCount, sid, ioid, payload)
}

func NewWriteNotifyResponse(ioid uint32, dataType uint16, dataCount uint32, status uint32) Command {
	return newCommand(CmdWriteNotify, dataType, dataCount, status, ioid, nil)
}

// --- Subscriptions ---

// NewEventAddRequest subscribes to changes on sid; ioid correlates the
// first EventAddResponse (the acknowledgement of the subscription itself)
// and subsequent EventAddResponses push updates under the same ioid.
func NewEventAddRequest(sid, ioid uint32, dataType uint16, dataCount uint32, mask SubscriptionType) Command {
	payload := make([]byte, 16) // legacy low/high/to limits (unused) + mask + pad
	putUint16(payload[12:14], uint16(mask))
	return newCommand(CmdEventAdd, dataType, dataCount, sid, ioid, payload)
}

// NewEventAddResponse delivers one subscription update (or the initial
// acknowledgement) for ioid.
func NewEventAddResponse(ioid uint32, dataType uint16, dataCount uint32, status uint32, payload []byte) Command {
	return newCommand(CmdEventAdd, dataType, dataCount, status, ioid, payload)
}

// EventMask reads the subscription mask from an EventAddRequest's payload.
func (c Command) EventMask() SubscriptionType {
	if len(c.Payload) < 14 {
		return 0
	}
	return SubscriptionType(getUint16(c.Payload[12:14]))
}

// NewEventCancelRequest ends the subscription identified by subscriptionID
// (carried as Parameter2, exactly like ioid on other notify commands).
func NewEventCancelRequest(sid, subscriptionID uint32, dataType uint16, dataCount uint32) Command {
	return newCommand(CmdEventCancel, dataType, dataCount, sid, subscriptionID, nil)
}

func NewEventCancelResponse(subscriptionID uint32, dataType uint16, dataCount uint32) Command {
	return newCommand(CmdEventCancel, dataType, dataCount, 0, subscriptionID, nil)
}

// SubscriptionID is an alias for IOID used where the protocol calls the
// same header slot a subscription id rather than an I/O id.
func (c Command) SubscriptionID() uint32 { return c.Header.Parameter2 }

func NewEventsOffRequest() Command { return newCommand(CmdEventsOff, 0, 0, 0, 0, nil) }
func NewEventsOnRequest() Command  { return newCommand(CmdEventsOn, 0, 0, 0, 0, nil) }
func NewReadSyncRequest() Command  { return newCommand(CmdReadSync, 0, 0, 0, 0, nil) }

// --- Beacon / error ---

// NewBeacon is the periodic UDP announcement servers send so clients and
// repeaters can detect them coming up (and, via a rising beacon id, detect
// an IOC reboot).
func NewBeacon(protocolVersion uint16, beaconID uint32, serverPort uint16, serverAddress uint32) Command {
	return newCommand(CmdBeacon, protocolVersion, beaconID, uint32(serverPort), serverAddress, nil)
}

// BeaconID reads the monotonically increasing counter from a Beacon;
// resets to a small value when the server restarts.
func (c Command) BeaconID() uint32 { return c.Header.DataCount }

// NewErrorResponse reports that a previously sent command, whose raw
// 16-byte header is echoed in originalHeader, failed with status; message
// is a human-readable diagnostic.
func NewErrorResponse(cid uint32, status uint32, originalHeader []byte, message string) Command {
	body := make([]byte, HeaderSize)
	copy(body, originalHeader)
	body = append(body, []byte(message)...)
	body = append(body, 0) // NUL terminator
	return newCommand(CmdError, 0, 0, cid, status, body)
}

// ErrorMessage reads the diagnostic string from an ErrorResponse's payload.
func (c Command) ErrorMessage() string {
	if len(c.Payload) <= HeaderSize {
		return ""
	}
	return trimNul(c.Payload[HeaderSize:])
}

func putUint16(b []byte, v uint16) { b[0] = byte(v >> 8); b[1] = byte(v) }
func putUint32(b []byte, v uint32) {
	b[0] = byte(v >> 24)
	b[1] = byte(v >> 16)
	b[2] = byte(v >> 8)
	b[3] = byte(v)
}
func getUint16(b []byte) uint16 { return uint16(b[0])<<8 | uint16(b[1]) }
func getUint32(b []byte) uint32 {
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}

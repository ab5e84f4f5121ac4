package ca

// ChannelTypes maps a channel's server id (SID) to the (DataType, DataCount)
// it last agreed with the server, used to frame ReadNotifyResponse and
// EventAddResponse payloads whose own header carries this same information
// redundantly. Callers (VirtualCircuit) own and update this table; the
// codec only reads it.
type ChannelTypes map[uint32]NativeShape

// NativeShape is a channel's negotiated native DBR type and element count.
type NativeShape struct {
	DataType  uint16
	DataCount uint32
}

// frameSize returns the total wire size (header + padded payload) implied
// by an already-decoded header, and the unpadded payload length.
func frameSize(h Header, consumed int) (total, payloadLen int) {
	payloadLen = int(h.PayloadSize)
	return consumed + payloadLen + padToEight(payloadLen), payloadLen
}

// valueBearingDirection reports whether, for code as sent by sender, the
// payload is a DBR value ("metadata prefix + native array", see payload.go)
// whose length must be checkable against its declared element width.
// Request and response payloads sharing one code often have unrelated
// shapes (EventAddRequest's payload is a fixed limits struct, not a value),
// so this depends on direction as well as code.
func valueBearingDirection(code CommandCode, sender Role) bool {
	switch code {
	case CmdReadNotify, CmdEventAdd:
		return sender == SERVER // only the *Response carries a value
	case CmdWrite, CmdWriteNotify:
		return sender == CLIENT // only the *Request carries a value
	default:
		return false
	}
}

// checkElementAlignment enforces that a value-bearing command's payload
// length is metaSize(ct) plus a whole number of elementWidth(ct) bytes.
// Commands whose declared DataType is not a recognised DBR id are left to
// fail at DecodeValue/DecodeMetadata instead of here.
func checkElementAlignment(code CommandCode, sender Role, dataType uint16, payloadLen int) error {
	if !valueBearingDirection(code, sender) {
		return nil
	}
	ct := ChannelType(dataType)
	meta, err := MetaSize(ct)
	if err != nil {
		return nil
	}
	width, err := ElementWidth(ct)
	if err != nil || width == 0 {
		return nil
	}
	if payloadLen < meta || (payloadLen-meta)%width != 0 {
		return NewRemoteProtocolError("payload size is not a multiple of its declared element width", ErrBadElementSize)
	}
	return nil
}

// ReadDatagram splits one UDP datagram into the sequence of commands it
// carries by walking consecutive headers. theirRole also tells apart the
// two directions of a shared command code when checking element alignment.
func ReadDatagram(buf []byte, theirRole Role) ([]Command, error) {
	if !ValidRole(theirRole) {
		return nil, NewCaprotoValueError("their_role", ErrUnknownRole)
	}
	var commands []Command
	for len(buf) > 0 {
		h, consumed, err := DecodeHeader(buf)
		if err != nil {
			return nil, err
		}
		code := CommandCode(h.Command)
		if !KnownCommand(code) {
			return nil, NewRemoteProtocolError("unknown command code in datagram", ErrUnknownCommand)
		}
		total, payloadLen := frameSize(h, consumed)
		if len(buf) < total {
			return nil, NewRemoteProtocolError("short datagram payload", ErrShortBuffer)
		}
		if err := checkElementAlignment(code, theirRole, h.DataType, payloadLen); err != nil {
			return nil, err
		}
		payload := buf[consumed : consumed+payloadLen]
		commands = append(commands, Command{Header: h, Payload: append([]byte(nil), payload...)})
		buf = buf[total:]
	}
	return commands, nil
}

// ReadFromByteStream decodes at most one command from the front of buf, the
// streaming TCP variant. channelTypes supplies the native (DataType,
// DataCount) for ReadNotifyResponse/EventAddResponse payloads whose own
// header already states these fields explicitly on the wire, so it is
// consulted only as a sanity fallback when the header's own count is zero.
// It returns the unconsumed remainder of buf and either a decoded command
// or NeedData when fewer than a complete frame is present; the input is
// left untouched in that case.
func ReadFromByteStream(buf []byte, theirRole Role, channelTypes ChannelTypes) ([]byte, Command, error) {
	if !ValidRole(theirRole) {
		return buf, Command{}, NewCaprotoValueError("their_role", ErrUnknownRole)
	}
	if len(buf) < HeaderSize {
		return buf, Command{}, NeedData
	}
	h, consumed, err := DecodeHeader(buf)
	if err != nil {
		if err == NeedData {
			return buf, Command{}, NeedData
		}
		// A header that merely looks like an extended one but is
		// truncated is NEED_DATA, not a protocol violation.
		if len(buf) < HeaderSize+ExtendedHeaderSize {
			return buf, Command{}, NeedData
		}
		return buf, Command{}, err
	}
	code := CommandCode(h.Command)
	if !KnownCommand(code) {
		return buf, Command{}, NewRemoteProtocolError("unknown command code on circuit", ErrUnknownCommand)
	}
	total, payloadLen := frameSize(h, consumed)
	if len(buf) < total {
		return buf, Command{}, NeedData
	}
	if h.DataCount == 0 {
		if shape, ok := channelTypes[h.Parameter2]; ok {
			h.DataCount = shape.DataCount
		}
	}
	if err := checkElementAlignment(code, theirRole, h.DataType, payloadLen); err != nil {
		return buf, Command{}, err
	}
	payload := append([]byte(nil), buf[consumed:consumed+payloadLen]...)
	return buf[total:], Command{Header: h, Payload: payload}, nil
}

package ca

import "encoding/binary"

// HeaderSize is the fixed size, in bytes, of a CA command header.
const HeaderSize = 16

// ExtendedHeaderSize is the size, in bytes, of the extended size/count
// fields that follow a regular header when it signals overflow.
const ExtendedHeaderSize = 8

// extendedSentinelSize and extendedSentinelCount are the regular-header
// values that signal "the real size/count live in the extended header".
const (
	extendedSentinelSize  = 0xFFFF
	extendedSentinelCount = 0x0000
)

// minExtendedProtocolVersion is the protocol version at and after which an
// extended header may legally be used: extended framing is mandatory
// whenever the payload size or data count overflow the regular header's
// 16-bit fields AND the negotiated protocol version is 13 or newer.
const minExtendedProtocolVersion = 13

// Header is the fixed 16-byte big-endian command header shared by every CA
// command. ParameterN carries role- and command-specific meaning; see each
// command's doc comment in commands.go.
type Header struct {
	Command     uint16
	PayloadSize uint32 // may come from the regular or the extended header
	DataType    uint16
	DataCount   uint32 // may come from the regular or the extended header
	Parameter1  uint32
	Parameter2  uint32
	Extended    bool // true if this header was (or must be) framed with an extended size/count
}

// needsExtended reports whether (payloadSize, dataCount) must be carried in
// an extended header rather than the regular 16-byte one.
func needsExtended(payloadSize, dataCount int) bool {
	return payloadSize >= extendedSentinelSize || dataCount >= 0x10000
}

// EncodeHeader serialises h, appending an extended size/count block when the
// payload size or data count overflow the regular header's 16-bit fields.
// It fails with RemoteProtocolError when an extended header would be
// required but the negotiated protocol version does not support one.
func EncodeHeader(h Header, protocolVersion int) ([]byte, error) {
	extended := needsExtended(int(h.PayloadSize), int(h.DataCount))
	if extended && protocolVersion < minExtendedProtocolVersion {
		return nil, NewRemoteProtocolError("oversized command", ErrExtendedUnsupported)
	}
	buf := make([]byte, HeaderSize, HeaderSize+ExtendedHeaderSize)
	binary.BigEndian.PutUint16(buf[0:2], h.Command)
	if extended {
		binary.BigEndian.PutUint16(buf[2:4], extendedSentinelSize)
		binary.BigEndian.PutUint16(buf[6:8], extendedSentinelCount)
	} else {
		binary.BigEndian.PutUint16(buf[2:4], uint16(h.PayloadSize))
		binary.BigEndian.PutUint16(buf[6:8], uint16(h.DataCount))
	}
	binary.BigEndian.PutUint16(buf[4:6], h.DataType)
	binary.BigEndian.PutUint32(buf[8:12], h.Parameter1)
	binary.BigEndian.PutUint32(buf[12:16], h.Parameter2)
	if extended {
		ext := make([]byte, ExtendedHeaderSize)
		binary.BigEndian.PutUint32(ext[0:4], h.PayloadSize)
		binary.BigEndian.PutUint32(ext[4:8], h.DataCount)
		buf = append(buf, ext...)
	}
	return buf, nil
}

// DecodeHeader parses a header (and, if present, its extended size/count
// block) from the front of buf. It returns the header and the number of
// bytes consumed. It fails with RemoteProtocolError if buf is too short.
func DecodeHeader(buf []byte) (Header, int, error) {
	if len(buf) < HeaderSize {
		return Header{}, 0, NewRemoteProtocolError("short header", ErrShortBuffer)
	}
	h := Header{
		Command:    binary.BigEndian.Uint16(buf[0:2]),
		DataType:   binary.BigEndian.Uint16(buf[4:6]),
		Parameter1: binary.BigEndian.Uint32(buf[8:12]),
		Parameter2: binary.BigEndian.Uint32(buf[12:16]),
	}
	regularSize := binary.BigEndian.Uint16(buf[2:4])
	regularCount := binary.BigEndian.Uint16(buf[6:8])
	if regularSize == extendedSentinelSize && regularCount == extendedSentinelCount {
		if len(buf) < HeaderSize+ExtendedHeaderSize {
			return Header{}, 0, NewRemoteProtocolError("short extended header", ErrShortBuffer)
		}
		h.Extended = true
		h.PayloadSize = binary.BigEndian.Uint32(buf[16:20])
		h.DataCount = binary.BigEndian.Uint32(buf[20:24])
		return h, HeaderSize + ExtendedHeaderSize, nil
	}
	h.PayloadSize = uint32(regularSize)
	h.DataCount = uint32(regularCount)
	return h, HeaderSize, nil
}

// padToEight returns the number of pad bytes needed to bring n up to the
// next multiple of 8: every CA command's payload is padded to an 8-byte
// boundary.
func padToEight(n int) int {
	rem := n % 8
	if rem == 0 {
		return 0
	}
	return 8 - rem
}

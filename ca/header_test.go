package ca

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeaderRoundTripRegular(t *testing.T) {
	h := Header{
		Command:     uint16(CmdReadNotify),
		PayloadSize: 16,
		DataType:    uint16(DOUBLE),
		DataCount:   2,
		Parameter1:  99,
		Parameter2:  1234,
	}
	buf, err := EncodeHeader(h, DefaultProtocolVersionForTests)
	require.NoError(t, err)
	assert.Len(t, buf, HeaderSize)

	decoded, consumed, err := DecodeHeader(buf)
	require.NoError(t, err)
	assert.Equal(t, HeaderSize, consumed)
	assert.False(t, decoded.Extended)
	assert.Equal(t, h.Command, decoded.Command)
	assert.Equal(t, h.PayloadSize, decoded.PayloadSize)
	assert.Equal(t, h.DataType, decoded.DataType)
	assert.Equal(t, h.DataCount, decoded.DataCount)
	assert.Equal(t, h.Parameter1, decoded.Parameter1)
	assert.Equal(t, h.Parameter2, decoded.Parameter2)
}

func TestHeaderRoundTripExtended(t *testing.T) {
	h := Header{
		Command:     uint16(CmdWriteNotify),
		PayloadSize: 0x20000, // overflows the 16-bit regular field
		DataType:    uint16(DOUBLE),
		DataCount:   3,
		Parameter1:  7,
		Parameter2:  8,
	}
	buf, err := EncodeHeader(h, DefaultProtocolVersionForTests)
	require.NoError(t, err)
	assert.Len(t, buf, HeaderSize+ExtendedHeaderSize)

	decoded, consumed, err := DecodeHeader(buf)
	require.NoError(t, err)
	assert.Equal(t, HeaderSize+ExtendedHeaderSize, consumed)
	assert.True(t, decoded.Extended)
	assert.Equal(t, h.PayloadSize, decoded.PayloadSize)
	assert.Equal(t, h.DataCount, decoded.DataCount)
}

func TestEncodeHeaderRejectsExtendedOnOldProtocol(t *testing.T) {
	h := Header{PayloadSize: 0x20000, DataCount: 1}
	_, err := EncodeHeader(h, 12)
	require.Error(t, err)
	var rpe *RemoteProtocolError
	require.ErrorAs(t, err, &rpe)
}

func TestDecodeHeaderShortBuffer(t *testing.T) {
	_, _, err := DecodeHeader(make([]byte, 4))
	require.Error(t, err)
	var rpe *RemoteProtocolError
	require.ErrorAs(t, err, &rpe)
}

func TestDecodeHeaderShortExtendedBuffer(t *testing.T) {
	buf := make([]byte, HeaderSize)
	buf[2], buf[3] = 0xFF, 0xFF // sentinel size
	buf[6], buf[7] = 0x00, 0x00 // sentinel count
	_, _, err := DecodeHeader(buf)
	require.Error(t, err)
}

// DefaultProtocolVersionForTests keeps these tests independent of the
// circuit package's default, avoiding an import cycle.
const DefaultProtocolVersionForTests = 13

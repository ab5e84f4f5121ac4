package ca

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encode(t *testing.T, cmd Command) []byte {
	t.Helper()
	buf, err := EncodeHeader(cmd.Header, 13)
	require.NoError(t, err)
	buf = append(buf, cmd.Payload...)
	buf = append(buf, make([]byte, padToEight(len(cmd.Payload)))...)
	return buf
}

func TestReadDatagramSplitsMultipleCommands(t *testing.T) {
	version := encode(t, NewVersionRequest(13, 0))
	search := encode(t, NewSearchRequest("pv:one", 1, 13, DoReply))
	buf := append(append([]byte{}, version...), search...)

	commands, err := ReadDatagram(buf, SERVER)
	require.NoError(t, err)
	require.Len(t, commands, 2)
	assert.Equal(t, CmdVersion, commands[0].Code())
	assert.Equal(t, CmdSearch, commands[1].Code())
	assert.Equal(t, "pv:one", commands[1].Name())
}

func TestReadDatagramShortBufferErrors(t *testing.T) {
	buf := encode(t, NewSearchRequest("pv:one", 1, 13, DoReply))
	_, err := ReadDatagram(buf[:len(buf)-4], SERVER)
	require.Error(t, err)
}

func TestReadDatagramInvalidRole(t *testing.T) {
	_, err := ReadDatagram(nil, Role(99))
	require.Error(t, err)
	var cve *CaprotoValueError
	require.ErrorAs(t, err, &cve)
}

func TestReadFromByteStreamNeedsMoreData(t *testing.T) {
	full := encode(t, NewCreateChanRequest("pv:two", 1, 13))
	rest, cmd, err := ReadFromByteStream(full[:len(full)-1], SERVER, nil)
	assert.Equal(t, NeedData, err)
	assert.Equal(t, Command{}, cmd)
	assert.Equal(t, full[:len(full)-1], rest)
}

func TestReadFromByteStreamConsumesOneFrameAtATime(t *testing.T) {
	a := encode(t, NewVersionRequest(13, 1))
	b := encode(t, NewEchoRequest())
	buf := append(append([]byte{}, a...), b...)

	rest, cmd, err := ReadFromByteStream(buf, SERVER, nil)
	require.NoError(t, err)
	assert.Equal(t, CmdVersion, cmd.Code())
	assert.Equal(t, b, rest)

	rest, cmd, err = ReadFromByteStream(rest, SERVER, nil)
	require.NoError(t, err)
	assert.Equal(t, CmdEcho, cmd.Code())
	assert.Empty(t, rest)
}

func TestReadFromByteStreamFillsDataCountFromChannelTypes(t *testing.T) {
	resp := NewReadNotifyResponse(1, uint16(DOUBLE), 0, 0, make([]byte, 8))
	buf := encode(t, resp)
	types := ChannelTypes{1: {DataType: uint16(DOUBLE), DataCount: 1}}

	_, cmd, err := ReadFromByteStream(buf, CLIENT, types)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), cmd.Header.DataCount)
}

func TestReadDatagramRejectsMisalignedElementSize(t *testing.T) {
	// A ReadNotifyResponse (sent by a SERVER) declaring DOUBLE (width 8) but
	// carrying 5 bytes of value data is not a whole number of elements.
	resp := NewReadNotifyResponse(1, uint16(DOUBLE), 0, 0, make([]byte, 5))
	buf := encode(t, resp)

	_, err := ReadDatagram(buf, SERVER)
	require.Error(t, err)
	var rpe *RemoteProtocolError
	require.ErrorAs(t, err, &rpe)
	require.ErrorIs(t, err, ErrBadElementSize)
}

func TestReadFromByteStreamRejectsMisalignedElementSize(t *testing.T) {
	req := NewWriteNotifyRequest(1, 2, uint16(LONG), 0, make([]byte, 6)) // LONG is 4 bytes wide
	buf := encode(t, req)

	_, _, err := ReadFromByteStream(buf, CLIENT, nil)
	require.Error(t, err)
	require.ErrorIs(t, err, ErrBadElementSize)
}

func TestReadFromByteStreamUnknownCommandErrors(t *testing.T) {
	buf := encode(t, NewVersionRequest(13, 0))
	buf[1] = 250 // corrupt the low byte of Command into an unused code
	_, _, err := ReadFromByteStream(buf, SERVER, nil)
	require.Error(t, err)
	var rpe *RemoteProtocolError
	require.ErrorAs(t, err, &rpe)
}

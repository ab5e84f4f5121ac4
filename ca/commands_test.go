package ca

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionRequestRoundTrip(t *testing.T) {
	cmd := NewVersionRequest(13, 42)
	assert.Equal(t, CmdVersion, cmd.Code())
	assert.Equal(t, uint16(13), cmd.ProtocolVersion())
	assert.Equal(t, uint16(42), cmd.Priority())
}

func TestSearchRequestNamePaddedToMultipleOfEight(t *testing.T) {
	cmd := NewSearchRequest("short", 7, 13, DoReply)
	assert.Equal(t, CmdSearch, cmd.Code())
	assert.Equal(t, uint32(7), cmd.CID())
	assert.Equal(t, "short", cmd.Name())
	assert.Equal(t, 0, len(cmd.Payload)%8, "payload must land on an 8-byte boundary")
}

func TestSearchRequestLongerNameStillPads(t *testing.T) {
	cmd := NewSearchRequest("a-somewhat-longer-pv-name", 1, 13, DoReply)
	assert.Equal(t, "a-somewhat-longer-pv-name", cmd.Name())
	assert.Equal(t, 0, len(cmd.Payload)%8)
}

func TestSearchResponseFields(t *testing.T) {
	cmd := NewSearchResponse(5, 9001, 5432, 13)
	assert.Equal(t, uint32(5), cmd.CID())
	assert.Equal(t, uint32(9001), cmd.SID())
	assert.Equal(t, uint16(5432), cmd.ServerPort())
}

func TestCreateChanRequestResponseRoundTrip(t *testing.T) {
	req := NewCreateChanRequest("my:pv", 3, 13)
	assert.Equal(t, "my:pv", req.Name())
	assert.Equal(t, uint32(3), req.CID())

	resp := NewCreateChanResponse(3, 77, uint16(DOUBLE), 1)
	assert.Equal(t, uint32(3), resp.CID())
	assert.Equal(t, uint32(77), resp.SID())
	assert.Equal(t, uint16(DOUBLE), resp.NativeDataType())
	assert.Equal(t, uint32(1), resp.NativeDataCount())
}

func TestReadNotifyRequestAndResponseParameter1Differs(t *testing.T) {
	req := NewReadNotifyRequest(55, 1001, uint16(DOUBLE), 1)
	assert.Equal(t, uint32(55), req.Header.Parameter1, "request carries SID in Parameter1")
	assert.Equal(t, uint32(1001), req.IOID())

	resp := NewReadNotifyResponse(1001, uint16(DOUBLE), 1, 0, nil)
	assert.Equal(t, uint32(0), resp.Status(), "response carries status in Parameter1, not SID")
	assert.Equal(t, uint32(1001), resp.IOID())
}

func TestWriteNotifyRequestAndResponse(t *testing.T) {
	payload, err := EncodeValue(DOUBLE, Value{Float64s: []float64{1.25}}, 1)
	require.NoError(t, err)
	req := NewWriteNotifyRequest(55, 2002, uint16(DOUBLE), 1, payload)
	assert.Equal(t, uint32(55), req.Header.Parameter1)
	assert.Equal(t, uint32(2002), req.IOID())

	resp := NewWriteNotifyResponse(2002, uint16(DOUBLE), 1, 0)
	assert.Equal(t, uint32(2002), resp.IOID())
	assert.Equal(t, uint32(0), resp.Status())
}

func TestEventAddRequestCarriesMask(t *testing.T) {
	cmd := NewEventAddRequest(55, 3003, uint16(DOUBLE), 1, DBEValue|DBEAlarm)
	assert.Equal(t, DBEValue|DBEAlarm, cmd.EventMask())
	assert.Equal(t, uint32(3003), cmd.IOID())
}

func TestEventCancelRequestAndResponseShareSubscriptionID(t *testing.T) {
	req := NewEventCancelRequest(55, 3003, uint16(DOUBLE), 1)
	assert.Equal(t, uint32(3003), req.SubscriptionID())
	resp := NewEventCancelResponse(3003, uint16(DOUBLE), 1)
	assert.Equal(t, uint32(3003), resp.SubscriptionID())
}

func TestAccessRightsResponse(t *testing.T) {
	cmd := NewAccessRightsResponse(3, ReadWriteAccess)
	assert.Equal(t, uint32(3), cmd.CID())
	assert.Equal(t, ReadWriteAccess, cmd.AccessRights())
}

func TestErrorResponseCarriesMessage(t *testing.T) {
	original, err := EncodeHeader(Header{Command: uint16(CmdWrite)}, 13)
	require.NoError(t, err)
	cmd := NewErrorResponse(9, 1, original, "bad value")
	assert.Equal(t, "bad value", cmd.ErrorMessage())
}

func TestBeaconFields(t *testing.T) {
	cmd := NewBeacon(13, 42, 5064, 0x7F000001)
	assert.Equal(t, uint32(42), cmd.BeaconID())
}

func TestKnownCommand(t *testing.T) {
	assert.True(t, KnownCommand(CmdCreateChan))
	assert.True(t, KnownCommand(CmdReadSync10))
	assert.False(t, KnownCommand(CommandCode(250)))
}

func TestCommandCodeStringUnknown(t *testing.T) {
	assert.Contains(t, CommandCode(250).String(), "CommandCode<250>")
}

package broadcaster

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rob-gra/go-caproto/ca"
)

func TestRegisterThenConfirmSetsRegistered(t *testing.T) {
	b := New(ca.CLIENT, 13, nil, nil)
	assert.False(t, b.Registered())

	cmd := b.Register(0)
	out, err := b.Send(cmd)
	require.NoError(t, err)
	assert.Len(t, out, 16)
	assert.Equal(t, byte(ca.CmdRepeaterRegister), out[1])

	confirm, err := ca.EncodeHeader(ca.NewRepeaterConfirmResponse(0x7F000001).Header, 13)
	require.NoError(t, err)
	commands, err := b.Recv(confirm, Address{Host: "127.0.0.1", Port: 5065})
	require.NoError(t, err)
	require.NoError(t, b.ProcessCommands(commands))
	assert.True(t, b.Registered())
}

func TestSearchRoundTrip(t *testing.T) {
	client := New(ca.CLIENT, 13, nil, nil)
	version, search, cid := client.Search("abc", 0)
	assert.Equal(t, ca.CmdVersion, version.Code())
	assert.Equal(t, ca.CmdSearch, search.Code())
	assert.NotZero(t, cid)
	assert.Equal(t, cid, search.CID())

	out, err := client.Send(version, search)
	require.NoError(t, err)
	assert.Equal(t, 0, len(out)%8, "datagram bytes stay 8-byte aligned")

	server := New(ca.SERVER, 13, nil, nil)
	commands, err := server.Recv(out, Address{Host: "127.0.0.1", Port: 5064})
	require.NoError(t, err)
	require.Len(t, commands, 2)
	assert.Equal(t, cid, commands[1].CID())
}

func TestSearchRecordsUnansweredSearchBeforeSend(t *testing.T) {
	b := New(ca.CLIENT, 13, nil, nil)
	_, search, cid := b.Search("pv:one", 0)
	// The CID is already reserved the instant Search returns, independent
	// of whether Send is ever called.
	assert.Equal(t, "pv:one", b.unansweredSearches[cid])
	second := New(ca.CLIENT, 13, nil, nil)
	_, _, otherCID := second.Search("pv:two", cid)
	assert.Equal(t, cid, otherCID, "caller-supplied cid is honoured verbatim")
	assert.Equal(t, cid, search.CID())
}

func TestCompleteSearchRemovesUnanswered(t *testing.T) {
	client := New(ca.CLIENT, 13, nil, nil)
	_, search, cid := client.Search("abc", 0)
	_, err := client.Send(search)
	require.NoError(t, err)

	response := ca.NewSearchResponse(cid, 77, 5064, 13)
	buf, err := ca.EncodeHeader(response.Header, 13)
	require.NoError(t, err)
	buf = append(buf, response.Payload...) // 8 bytes, already aligned
	commands, err := client.Recv(buf, Address{Host: "127.0.0.1", Port: 5064})
	require.NoError(t, err)
	require.NoError(t, client.ProcessCommands(commands))
	assert.NotContains(t, client.unansweredSearches, cid)
}

func TestStrictModeRejectsSearchWithoutVersion(t *testing.T) {
	b := New(ca.CLIENT, 13, nil, nil)
	b.StrictMode = true
	search := ca.NewSearchRequest("abc", 1, 13, ca.DoReply)
	_, err := b.Send(search)
	require.Error(t, err)
	var lpe *ca.LocalProtocolError
	require.ErrorAs(t, err, &lpe)
}

func TestLenientModeAllowsSearchWithoutVersion(t *testing.T) {
	b := New(ca.CLIENT, 13, nil, nil)
	search := ca.NewSearchRequest("abc", 1, 13, ca.DoReply)
	_, err := b.Send(search)
	require.NoError(t, err)
}

func TestOnlyClientMayRegisterWithRepeater(t *testing.T) {
	b := New(ca.SERVER, 13, nil, nil)
	_, err := b.Send(ca.NewRepeaterRegisterRequest(0))
	require.Error(t, err)
	var lpe *ca.LocalProtocolError
	require.ErrorAs(t, err, &lpe)
}

func TestOurAddressesAndTheirAddressesByRole(t *testing.T) {
	clientAddr := Address{Host: "127.0.0.1", Port: 54321}
	client := New(ca.CLIENT, 13, []Address{clientAddr}, nil)
	assert.Equal(t, []Address{clientAddr}, client.OurAddresses())
	assert.Empty(t, client.TheirAddresses())

	serverAddrs := []Address{{Host: "127.0.0.1", Port: 5064}, {Host: "10.0.0.1", Port: 5064}}
	server := New(ca.SERVER, 13, serverAddrs, nil)
	assert.Equal(t, serverAddrs, server.OurAddresses())
	// A server never learns a client address, so its single-entry view of
	// "theirs" holds the zero Address.
	assert.Equal(t, []Address{{}}, server.TheirAddresses())
}

func TestDisconnectClearsRegistered(t *testing.T) {
	b := New(ca.CLIENT, 13, nil, nil)
	confirm, err := ca.EncodeHeader(ca.NewRepeaterConfirmResponse(0).Header, 13)
	require.NoError(t, err)
	commands, err := b.Recv(confirm, Address{})
	require.NoError(t, err)
	require.NoError(t, b.ProcessCommands(commands))
	require.True(t, b.Registered())

	b.Disconnect()
	assert.False(t, b.Registered())
}

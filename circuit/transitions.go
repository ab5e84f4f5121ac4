package circuit

import "github.com/rob-gra/go-caproto/ca"

// validateOutbound/applyOutbound and validateInbound/applyInbound assume
// the caller already holds c.mu; they must never lock it themselves.
//
// A VirtualCircuit instance models exactly one side of the connection, so
// Channel.State tracks that side's own position in its role's lifecycle
// regardless of whether a given transition was driven by something we
// sent or something we received.

func (c *VirtualCircuit) validateOutbound(cmd ca.Command) error {
	switch cmd.Code() {
	case ca.CmdVersion:
		return nil
	case ca.CmdHostName, ca.CmdClientName:
		if c.OurRole != ca.CLIENT {
			return ca.NewLocalProtocolError("only a CLIENT sends host/client name", ca.ErrWrongRoleForCommand)
		}
		if c.State != StateSendHostNameRequest && c.State != StateConnected {
			return ca.NewLocalProtocolError("host/client name sent out of order", ca.ErrWrongState)
		}
		return nil
	case ca.CmdCreateChan:
		if c.State != StateConnected {
			return ca.NewLocalProtocolError("circuit is not connected", ca.ErrWrongState)
		}
		ch, ok := c.channels[cmd.CID()]
		if !ok {
			return ca.NewLocalProtocolError("unknown channel", ca.ErrUnknownChannel)
		}
		if c.OurRole == ca.CLIENT {
			if ch.State != ChanSendCreateChanRequest {
				return ca.NewLocalProtocolError("channel is not awaiting CreateChanRequest", ca.ErrWrongState)
			}
			return nil
		}
		// SERVER sending its CreateChanResponse.
		if ch.State != ChanSendCreateChanResponse {
			return wrongChannelState()
		}
		return nil
	}
	if c.State != StateConnected {
		return ca.NewLocalProtocolError("circuit is not connected", ca.ErrWrongState)
	}
	return c.validateChannelCommand(cmd, c.OurRole)
}

// validateChannelCommand checks commands whose legality depends on a
// specific Channel's current State, for both outbound and inbound traffic:
// the precondition is always "this side's own State for the channel",
// since that is this VirtualCircuit instance's complete local view. sender
// is whichever role originated cmd (CLIENT for every *Request, SERVER for
// every *Response), used to tell the two directions of a shared command
// code apart (e.g. ReadNotifyRequest vs ReadNotifyResponse both carry
// CmdReadNotify).
func (c *VirtualCircuit) validateChannelCommand(cmd ca.Command, sender ca.Role) error {
	switch cmd.Code() {
	case ca.CmdCreateChan:
		// Only reached inbound: a CLIENT's own outbound CreateChanRequest and
		// a SERVER's own outbound CreateChanResponse are both fully validated
		// in validateOutbound and never fall through to here.
		ch, ok := c.channels[cmd.CID()]
		if !ok || ch.State != ChanAwaitCreateChanResponse {
			return wrongChannelState()
		}
	case ca.CmdCreateChanFail:
		ch, ok := c.channels[cmd.CID()]
		if !ok || ch.State != ChanAwaitCreateChanResponse {
			return wrongChannelState()
		}
	case ca.CmdClearChannel:
		ch, ok := c.channels[cmd.CID()]
		if !ok {
			return ca.NewLocalProtocolError("unknown channel", ca.ErrUnknownChannel)
		}
		switch ch.State {
		case ChanConnected, ChanMustClose:
		default:
			return wrongChannelState()
		}
	case ca.CmdServerDisconn:
		ch, ok := c.channels[cmd.CID()]
		if !ok || ch.State != ChanConnected {
			return wrongChannelState()
		}
	case ca.CmdReadNotify, ca.CmdWrite, ca.CmdWriteNotify, ca.CmdEventAdd:
		if sender != ca.CLIENT {
			return nil // *Response carries status/ioid in Parameter1, not SID
		}
		ch, ok := c.channelsSID[cmd.Header.Parameter1]
		if !ok || ch.State != ChanConnected {
			return ca.NewLocalProtocolError("channel not connected", ca.ErrWrongState)
		}
	case ca.CmdEventCancel:
		if sender != ca.CLIENT {
			return nil
		}
		if _, ok := c.eventSubs[cmd.SubscriptionID()]; !ok {
			return ca.NewLocalProtocolError("unknown subscription id", ca.ErrUnknownSubscription)
		}
	case ca.CmdAccessRights:
		if _, ok := c.channels[cmd.CID()]; !ok {
			return ca.NewLocalProtocolError("unknown channel", ca.ErrUnknownChannel)
		}
	}
	return nil
}

func wrongChannelState() error {
	return ca.NewLocalProtocolError("command is not legal in the current channel state", ca.ErrWrongState)
}

func (c *VirtualCircuit) applyOutbound(cmd ca.Command) {
	c.applyTransition(cmd, true)
}

func (c *VirtualCircuit) validateInbound(cmd ca.Command) error {
	if !ca.KnownCommand(cmd.Code()) {
		return ca.NewRemoteProtocolError("unexpected command code", ca.ErrUnknownCommand)
	}
	switch cmd.Code() {
	case ca.CmdVersion, ca.CmdHostName, ca.CmdClientName:
		return nil
	case ca.CmdCreateChan:
		if c.OurRole == ca.SERVER {
			return nil // first sight of a new channel; no precondition
		}
	}
	if c.State != StateConnected {
		return ca.NewRemoteProtocolError("circuit is not connected", ca.ErrWrongState)
	}
	return c.validateChannelCommand(cmd, c.TheirRole)
}

func (c *VirtualCircuit) applyInbound(cmd ca.Command) {
	c.applyTransition(cmd, false)
}

// applyTransition mutates circuit/channel state for cmd. outbound tells it
// whether cmd is something we are sending (true) or something we received
// (false); a few commands (CreateChanRequest/Response) are legal only in
// one direction for a given role and behave differently depending on it.
func (c *VirtualCircuit) applyTransition(cmd ca.Command, outbound bool) {
	switch cmd.Code() {
	case ca.CmdVersion:
		if (outbound && c.OurRole == ca.CLIENT) || (!outbound && c.OurRole == ca.SERVER) {
			c.ProtocolVersion = cmd.ProtocolVersion()
			if c.State == StateSendVersionRequest || c.State == StateIdle {
				c.State = StateSendHostNameRequest
			}
		}
	case ca.CmdHostName:
		c.sawHostName = true
		c.maybeConnect()
	case ca.CmdClientName:
		c.sawClientName = true
		c.maybeConnect()
	case ca.CmdCreateChan:
		switch {
		case outbound && c.OurRole == ca.CLIENT:
			// Client sending CreateChanRequest.
			if ch, ok := c.channels[cmd.CID()]; ok {
				ch.State = ChanAwaitCreateChanResponse
			}
		case outbound && c.OurRole == ca.SERVER:
			// Server sending CreateChanResponse: grant the SID it already
			// chose when building cmd.
			if ch, ok := c.channels[cmd.CID()]; ok {
				sid := cmd.SID()
				ch.SID = &sid
				ch.DataType = cmd.NativeDataType()
				ch.DataCount = cmd.NativeDataCount()
				ch.State = ChanConnected
				c.channelsSID[sid] = ch
				c.channelTypes[sid] = ca.NativeShape{DataType: ch.DataType, DataCount: ch.DataCount}
			}
		case !outbound && c.OurRole == ca.SERVER:
			// Server receiving CreateChanRequest: discover the channel.
			ch, ok := c.channels[cmd.CID()]
			if !ok {
				ch = newChannel(c, cmd.CID(), cmd.Name())
				c.channels[cmd.CID()] = ch
			}
			ch.State = ChanSendCreateChanResponse
		default:
			// Client receiving CreateChanResponse.
			if ch, ok := c.channels[cmd.CID()]; ok {
				sid := cmd.SID()
				ch.SID = &sid
				ch.DataType = cmd.NativeDataType()
				ch.DataCount = cmd.NativeDataCount()
				ch.State = ChanConnected
				c.channelsSID[sid] = ch
				c.channelTypes[sid] = ca.NativeShape{DataType: ch.DataType, DataCount: ch.DataCount}
			}
		}
	case ca.CmdCreateChanFail:
		if ch, ok := c.channels[cmd.CID()]; ok {
			ch.State = ChanClosed
		}
	case ca.CmdClearChannel:
		ch, ok := c.channels[cmd.CID()]
		if !ok {
			return
		}
		if ch.State == ChanConnected {
			ch.State = ChanMustClose
		} else {
			ch.State = ChanClosed
		}
	case ca.CmdServerDisconn:
		if ch, ok := c.channels[cmd.CID()]; ok {
			ch.State = ChanDisconnected
		}
	case ca.CmdAccessRights:
		if ch, ok := c.channels[cmd.CID()]; ok {
			ch.AccessRights = cmd.AccessRights()
		}
	case ca.CmdEventAdd:
		if outbound == (c.OurRole == ca.CLIENT) {
			ch, ok := c.channelsSID[cmd.Header.Parameter1]
			if !ok {
				return
			}
			subid := cmd.IOID()
			c.eventSubs[subid] = subscription{
				CID:       ch.CID,
				DataType:  cmd.Header.DataType,
				DataCount: cmd.Header.DataCount,
				Mask:      cmd.EventMask(),
			}
			ch.subscriptionIDs[subid] = struct{}{}
		}
	case ca.CmdEventCancel:
		if outbound == (c.OurRole == ca.CLIENT) {
			subid := cmd.SubscriptionID()
			if sub, ok := c.eventSubs[subid]; ok {
				if ch, ok := c.channels[sub.CID]; ok {
					delete(ch.subscriptionIDs, subid)
				}
				delete(c.eventSubs, subid)
			}
		}
	}
}

func (c *VirtualCircuit) maybeConnect() {
	if c.sawHostName && c.sawClientName {
		c.State = StateConnected
	}
}

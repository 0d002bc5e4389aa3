package ag

import (
	"strconv"
	"time"

	uuid "github.com/satori/go.uuid"
)

// This file implements the per-peer connection lifecycle of spec §4.G: the
// five states, their entry side effects, and the transport-acquisition flow
// that drives CONNECT_IN_PROGRESS and PLAY_IN_PROGRESS toward completion.
// Every entry point here runs on the core's event loop goroutine; anything
// a collaborator calls back with is re-posted through it first (collab.go).

const autoDisconnectDelay = 3 * time.Second

// requestOp is the single entry point for "drive this peer toward target".
// Core.Connect and Core.Play route through it with a blocking sink;
// Core.PlayAsync routes through it with cb instead, and gets back cb's
// registered id so CancelStream can later detach it without affecting
// whatever else is attached to the same PendingOp (spec §5 Cancellation).
// The returned id is the zero uuid.UUID when cb is nil.
func requestOp(c *Core, p *Peer, target State, sink ReplySink, cb func(err error), autoOpened bool) uuid.UUID {
	if reached(p.state, target) {
		// Spec §8 P3 footnote: already at or past target completes
		// synchronously; no PendingOp is created.
		if sink != nil {
			sink.Succeed()
		}
		if cb != nil {
			cb(nil)
		}
		return uuid.UUID{}
	}

	if p.pending != nil {
		if target == StatePlaying {
			p.pending.TargetState = StatePlaying // never downgrade
		}
		if sink != nil && p.pending.ReplySink == nil {
			p.pending.ReplySink = sink
		}
		if cb == nil {
			return uuid.UUID{}
		}
		id := newCallbackID()
		c.callbacks.register(p, id)
		p.pending.Callbacks = append(p.pending.Callbacks, Callback{ID: id, Fn: cb})
		return id
	}

	cancelDCTimer(c, p)
	p.pending = &PendingOp{TargetState: target, ReplySink: sink, AutoOpened: autoOpened}
	var id uuid.UUID
	if cb != nil {
		id = newCallbackID()
		c.callbacks.register(p, id)
		p.pending.Callbacks = append(p.pending.Callbacks, Callback{ID: id, Fn: cb})
	}

	switch p.state {
	case StateDisconnected:
		p.state = StateConnectInProgress
		beginTransportAcquire(c, p)
	case StateConnected:
		p.state = StatePlayInProgress
		beginSCOConnect(c, p)
	}
	return id
}

// reached reports whether state already satisfies target without any
// further work (CONNECTED satisfies a StateConnected target; PLAYING
// satisfies both).
func reached(state, target State) bool {
	if target == StateConnected {
		return state == StateConnected || state == StatePlaying
	}
	return state == StatePlaying
}

// finalizePending resolves and clears p.pending, delivering err (nil on
// success) to every queued callback and to the reply sink. It never
// changes p.state; callers set state themselves before calling this.
func finalizePending(c *Core, p *Peer, err error) {
	op := p.pending
	if op == nil {
		return
	}
	p.pending = nil

	for _, cb := range op.Callbacks {
		c.callbacks.forget(cb.ID)
		cb.Fn(err)
	}
	if op.ReplySink != nil {
		if err != nil {
			op.ReplySink.Fail(err)
		} else {
			op.ReplySink.Succeed()
		}
	}
	if err == nil && op.AutoOpened {
		p.AutoDC = true
	}
	maybeArmAutoDisconnect(c, p)
}

// beginTransportAcquire starts RFCOMM channel discovery for a peer entering
// CONNECT_IN_PROGRESS from DISCONNECTED (spec §4.G "Transport acquisition").
func beginTransportAcquire(c *Core, p *Peer) {
	if p.RFCOMMChannelNumber >= 0 {
		proceedToConnectRFCOMM(c, p)
		return
	}
	profile := wantedProfile(c)
	if channel, ok := c.sdpCache.get(p.DeviceAddress, profile); ok {
		p.RFCOMMChannelNumber = channel
		proceedToConnectRFCOMM(c, p)
		return
	}
	c.sdp.Search(p.DeviceAddress, profile, func(channel int, err error) {
		c.loop.Post(func() { onSDPResult(c, p, profile, channel, err) })
	})
}

func wantedProfile(c *Core) Profile {
	if c.hfpEnabled {
		return ProfileHFP
	}
	return ProfileHSP
}

func onSDPResult(c *Core, p *Peer, profile Profile, channel int, err error) {
	if p.state != StateConnectInProgress {
		return // request was cancelled by a disconnect in the meantime
	}
	if err != nil {
		p.state = StateDisconnected
		enterDisconnected(c, p, NewError(ErrNotSupported, "no matching service record"))
		return
	}
	p.RFCOMMChannelNumber = channel
	c.sdpCache.put(p.DeviceAddress, profile, channel)
	proceedToConnectRFCOMM(c, p)
}

func proceedToConnectRFCOMM(c *Core, p *Peer) {
	c.transport.ConnectRFCOMM(p.DeviceAddress, p.RFCOMMChannelNumber, func(ch RFCOMMChannel, err error) {
		c.loop.Post(func() { onRFCOMMConnected(c, p, ch, err) })
	})
}

func onRFCOMMConnected(c *Core, p *Peer, ch RFCOMMChannel, err error) {
	if p.state != StateConnectInProgress {
		if ch != nil {
			ch.Close()
		}
		return
	}
	if err != nil {
		c.sdpCache.invalidate(p.DeviceAddress, wantedProfile(c))
		p.state = StateDisconnected
		enterDisconnected(c, p, NewError(ErrConnectionAttemptFailed, err.Error()))
		return
	}

	p.RFCOMM = ch
	p.profile = wantedProfile(c)
	p.framer = NewFramer(MinBufferCapacity, ch.Write)
	ch.SetHandlers(
		func(data []byte) { c.loop.Post(func() { onRFCOMMData(c, p, data) }) },
		func(cerr error) { c.loop.Post(func() { onRFCOMMClosed(c, p, cerr) }) },
	)

	c.log.Debugf("rfcomm up for %s on channel %d, profile %s", p.DeviceAddress, p.RFCOMMChannelNumber, p.ProfileOf())
	if p.ProfileOf() == ProfileHSP {
		// HSP has no SLC handshake: RFCOMM up means CONNECTED.
		enterConnectedFromBelow(c, p)
	}
	// HFP: wait for the peer to drive the SLC handshake via AT commands.
}

func onRFCOMMData(c *Core, p *Peer, data []byte) {
	if p.framer == nil {
		return
	}
	cmds, overflow := p.framer.Feed(data)
	if overflow {
		p.state = StateDisconnected
		enterDisconnected(c, p, NewError(ErrFailed, "AT input buffer overflow"))
		return
	}
	for _, cmd := range cmds {
		c.Dispatch(p, cmd)
		if p.state == StateDisconnected {
			return
		}
	}
}

func onRFCOMMClosed(c *Core, p *Peer, err error) {
	if p.state == StateDisconnected {
		return
	}
	p.state = StateDisconnected
	enterDisconnected(c, p, NewError(ErrFailed, "control channel closed"))
}

// beginSCOConnect opens the audio channel for a peer entering
// PLAY_IN_PROGRESS, whether from CONNECTED (via requestOp) or from the SLC
// orchestrator chaining straight into a Play target (slc.go).
func beginSCOConnect(c *Core, p *Peer) {
	p.state = StatePlayInProgress
	c.transport.ConnectSCO(p.DeviceAddress, func(ch SCOChannel, err error) {
		c.loop.Post(func() { onSCOConnected(c, p, ch, err) })
	})
}

func onSCOConnected(c *Core, p *Peer, ch SCOChannel, err error) {
	if p.state != StatePlayInProgress {
		if ch != nil {
			ch.Close()
		}
		return
	}
	if err != nil {
		p.state = StateConnected
		finalizePending(c, p, NewError(ErrConnectionAttemptFailed, err.Error()))
		return
	}
	p.SCO = ch
	ch.SetHandlers(func(serr error) { c.loop.Post(func() { onSCOLost(c, p, serr) }) })
	enterPlaying(c, p)
}

func onSCOLost(c *Core, p *Peer, err error) {
	if p.state != StatePlaying {
		return
	}
	if p.RFCOMM != nil {
		enterConnectedFromPlaying(c, p)
		return
	}
	p.state = StateDisconnected
	enterDisconnected(c, p, NewError(ErrFailed, "audio channel lost"))
}

// enterConnectedFromBelow is the CONNECTED entry reached from
// CONNECT_IN_PROGRESS, either directly (HSP) or via the SLC orchestrator
// (HFP, slc.go completeSLC).
func enterConnectedFromBelow(c *Core, p *Peer) {
	p.state = StateConnected
	c.ag.addActivePeer(p)
	c.signals.Connected(p)
	c.signals.PropertyChanged(p, "Connected", true)
	c.telephony.PeerConnected(p)
	resolvePendingAfterConnected(c, p)
}

// enterConnectedFromPlaying is the CONNECTED entry reached by dropping out
// of PLAYING, either via Core.Stop or an audio-channel loss with the
// control channel still up (spec §4.G, §7 item 5).
func enterConnectedFromPlaying(c *Core, p *Peer) {
	p.state = StateConnected
	closeSCO(p)
	c.signals.Stopped(p)
	c.signals.PropertyChanged(p, "Playing", false)
	maybeArmAutoDisconnect(c, p)
}

func resolvePendingAfterConnected(c *Core, p *Peer) {
	if p.pending == nil {
		return
	}
	if p.pending.TargetState == StateConnected {
		finalizePending(c, p, nil)
		return
	}
	beginSCOConnect(c, p)
}

// enterPlaying is the PLAYING entry reached once the audio channel opens
// (spec §4.G, §4.I ring/SCO coordination).
func enterPlaying(c *Core, p *Peer) {
	p.state = StatePlaying
	c.signals.Playing(p)
	c.signals.PropertyChanged(p, "Playing", true)
	if p.SpeakerGain >= 0 {
		_ = p.framer.sendRaw("+VGS=" + strconv.Itoa(p.SpeakerGain))
	}
	if p.MicrophoneGain >= 0 {
		_ = p.framer.sendRaw("+VGM=" + strconv.Itoa(p.MicrophoneGain))
	}
	if p.PendingRing {
		p.PendingRing = false
		armRing(c)
	}
	if p.pending != nil {
		finalizePending(c, p, nil)
	}
}

// enterDisconnected tears a peer down from any non-DISCONNECTED state
// (spec §4.G, reachable from every other state on hup/err/close/timeout).
// Callers that already know the cause should set p.state = StateDisconnected
// themselves before calling in, so this function can tell whether the peer
// was ever an active member for Telephony/signal purposes.
func enterDisconnected(c *Core, p *Peer, cause error) {
	if cause != nil {
		c.log.Warningf("peer %s disconnected: %s", p.DeviceAddress, cause)
	}
	if recent := c.dialHist.recent(p.ID.String()); len(recent) > 0 {
		c.log.Debugf("peer %s redial trail at disconnect: %v", p.DeviceAddress, recent)
	}
	wasActive := p.state != StateDisconnected || len(c.ag.ActivePeers) > 0 && containsPeer(c.ag.ActivePeers, p)
	p.state = StateDisconnected

	closeSCO(p)
	closeRFCOMM(p)
	cancelDCTimer(c, p)

	if wasActive {
		c.ag.removeActivePeer(p)
		c.signals.Disconnected(p)
		c.signals.PropertyChanged(p, "Connected", false)
		c.telephony.PeerDisconnected(p)
	}

	if p.HasPending() {
		finalizePending(c, p, cause)
	}

	p.lock = 0
	p.AutoDC = false
}

func containsPeer(peers []*Peer, p *Peer) bool {
	for _, existing := range peers {
		if existing == p {
			return true
		}
	}
	return false
}

func closeSCO(p *Peer) {
	if p.SCO != nil {
		p.SCO.Close()
		p.SCO = nil
	}
}

func closeRFCOMM(p *Peer) {
	if p.RFCOMM != nil {
		p.RFCOMM.Close()
		p.RFCOMM = nil
	}
	p.framer = nil
}

// AcquireLock and ReleaseLock implement the advisory consumer-lock counting
// of spec §4.G Auto-disconnect: a session only arms its idle timer once no
// lock is held.
func AcquireLock(c *Core, p *Peer, l Lock) {
	p.lock |= l
	cancelDCTimer(c, p)
}

func ReleaseLock(c *Core, p *Peer, l Lock) {
	p.lock &^= l
	maybeArmAutoDisconnect(c, p)
}

func maybeArmAutoDisconnect(c *Core, p *Peer) {
	if !p.AutoDC || p.lock != 0 || p.state == StateDisconnected || p.pending != nil {
		return
	}
	armDCTimer(c, p)
}

func armDCTimer(c *Core, p *Peer) {
	if p.dcTimerArmed {
		return
	}
	p.dcTimerArmed = true
	p.dcTimer = c.loop.After(autoDisconnectDelay, func() {
		p.dcTimerArmed = false
		if p.lock != 0 || p.pending != nil {
			return
		}
		enterDisconnected(c, p, NewError(ErrFailed, "auto-disconnect: idle"))
	})
}

func cancelDCTimer(c *Core, p *Peer) {
	if !p.dcTimerArmed {
		return
	}
	c.loop.Cancel(p.dcTimer)
	p.dcTimerArmed = false
}

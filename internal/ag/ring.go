package ag

import "time"

// This file implements the ring scheduler of spec §4.I: a single global
// cadence shared by every ringing peer, armed at most once regardless of
// how many peers are waiting for it, plus the in-band-ringtone/SCO
// coordination that defers a peer's contribution to the cadence until its
// audio channel is actually open.

const ringInterval = 3 * time.Second

// armRing starts the repeating RING/+CLIP cadence if it is not already
// running. Safe to call redundantly: only the first caller while idle
// actually arms the timer.
func armRing(c *Core) {
	if c.ag.RingArmed {
		return
	}
	c.ag.RingArmed = true
	broadcastRingTick(c)
	c.ag.RingTimer = c.loop.Every(ringInterval, func() { broadcastRingTick(c) })
}

// disarmRing stops the cadence. Called once the call stops ringing, however
// that happens (answered, rejected, caller hung up).
func disarmRing(c *Core) {
	if !c.ag.RingArmed {
		return
	}
	c.ag.RingArmed = false
	c.loop.Cancel(c.ag.RingTimer)
}

// notifyIncomingCall is the Telephony IncomingCallInd handler (core.go):
// spec §4.I "in-band ringtone + SCO coordination". A peer that needs
// in-band ringtone gets its own PLAY_IN_PROGRESS kicked off and only joins
// the cadence once PLAYING (lifecycle.go enterPlaying checks PendingRing);
// every other peer joins immediately.
func notifyIncomingCall(c *Core, number string, hasNumber bool, numberType int) {
	c.ag.HasIncoming = true
	c.ag.IncomingNumber = number
	c.ag.NumberType = numberType

	needsCadenceNow := false
	for _, p := range c.ag.ActivePeers {
		if p.IsHFP() && AGFeature(c.ag.AGFeatures)&FeatureInBandRingtone != 0 && p.state != StatePlaying {
			p.PendingRing = true
			requestOp(c, p, StatePlaying, nil, nil, true)
			continue
		}
		needsCadenceNow = true
	}
	if needsCadenceNow {
		armRing(c)
	}
}

// notifyCallingStopped is the Telephony CallingStoppedInd handler: the
// call stopped ringing before or after being answered, so every pending
// ring contribution is cancelled (spec §4.I cancellation triggers).
func notifyCallingStopped(c *Core) {
	c.ag.HasIncoming = false
	c.ag.IncomingNumber = ""
	disarmRing(c)
	for _, p := range c.ag.ActivePeers {
		p.PendingRing = false
	}
}

func broadcastRingTick(c *Core) {
	for _, p := range c.ag.ActivePeers {
		if p.framer == nil || p.PendingRing {
			continue
		}
		_ = p.framer.sendRaw("RING")
		if p.IsHFP() && p.CLIActive && c.ag.HasIncoming {
			_ = p.framer.sendRaw(clipPayload(c.ag.IncomingNumber, c.ag.NumberType))
		}
	}
}

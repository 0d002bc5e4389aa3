package ag

// This file implements the deferred Telephony response contract of spec
// §6: every AT command a handler forwards to Telephony eventually gets
// its OK/ERROR/+CME ERROR reply from TelephonyResponse, not from the
// handler itself. Telephony response APIs execute in the order
// Telephony invokes them, so each peer only needs a small FIFO of
// pending replies rather than an explicit request id.

// atReply is one forwarded command waiting on a Telephony response.
type atReply struct {
	resolve func(c *Core, p *Peer, err CMEError)
}

// deferReply arms resolve to run the next time TelephonyResponse fires
// for p. Handlers call this instead of replying through the framer
// directly whenever they forward a request to Telephony.
func deferReply(p *Peer, resolve func(c *Core, p *Peer, err CMEError)) {
	p.atReplies = append(p.atReplies, atReply{resolve: resolve})
}

// simpleReply is the resolution for a forwarded command whose only
// effect on completion is the AT reply itself.
func simpleReply(c *Core, p *Peer, err CMEError) {
	_ = p.framer.SendResult(err, p.CMEEnabled)
}

// TelephonyResponse resolves the oldest pending forwarded command for
// peer with result err (spec §6 "responses (collab→core)"). A response
// with nothing pending for the peer is logged and dropped rather than
// treated as an error: a peer that disconnected mid-round-trip is a
// normal race, not a Telephony bug.
func (c *Core) TelephonyResponse(peer *Peer, err CMEError) {
	c.loop.Post(func() {
		p, ok := c.lookupPeer(peer.ID)
		if !ok || len(p.atReplies) == 0 {
			c.log.Warningf("telephony response for %s with nothing pending", peer.DeviceAddress)
			return
		}
		reply := p.atReplies[0]
		p.atReplies = p.atReplies[1:]
		reply.resolve(c, p, err)
	})
}

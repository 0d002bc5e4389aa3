package ag

// This file implements the SLC Orchestrator of spec §4.F. The SLC
// completes at exactly two call sites, both reached from the command
// handlers in handlers.go right after they send the OK that closes the
// relevant exchange.

// bothSupportThreeWay reports whether the AG and the connected peer both
// advertise three-way calling support.
func bothSupportThreeWay(c *Core, p *Peer) bool {
	return c.ag.supportsThreeWay() && HFFeature(p.HFFeatures)&HFFeatureCallWaitingOrThreeWay != 0
}

// checkSLCAfterCMER implements spec §4.F point 1: after the OK that
// closes the CMER handshake, complete the SLC iff three-way calling is
// not mutually supported (the CHLD=? path handles the mutual case).
func checkSLCAfterCMER(c *Core, p *Peer) {
	if !p.IsHFP() || p.state != StateConnectInProgress {
		return
	}
	if !bothSupportThreeWay(c, p) {
		completeSLC(c, p)
	}
}

// checkSLCAfterCHLD implements spec §4.F point 2: after the OK that
// closes the CHLD=? query, complete the SLC iff still CONNECT_IN_PROGRESS.
func checkSLCAfterCHLD(c *Core, p *Peer) {
	if p.state == StateConnectInProgress {
		completeSLC(c, p)
	}
}

// completeSLC transitions the peer to CONNECTED and resolves whatever
// pending connect/play operation drove the SLC (spec §4.F). Pending
// resolution, including chaining into SCO for a Play target, is shared
// with the HSP immediate-connect path in lifecycle.go.
func completeSLC(c *Core, p *Peer) {
	enterConnectedFromBelow(c, p)
}

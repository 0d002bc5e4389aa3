package ag

import (
	"fmt"
	"strconv"
)

// This file implements the notification broadcaster of spec §4.H: every
// unsolicited result code the core sends off its own initiative (as
// opposed to in direct reply to a forwarded AT command), fanned out to the
// subset of ActivePeers each one is defined for.

func clipPayload(number string, numberType int) string {
	return fmt.Sprintf(`+CLIP: "%s",%d`, number, numberType)
}

// broadcastIndicator sends +CIEV to every HFP peer that has enabled
// indicator events via AT+CMER (spec §4.E, §4.H). HSP peers never receive
// +CIEV: the indicator protocol is HFP-only.
func broadcastIndicator(c *Core, name string, value int) {
	idx := c.ag.IndicatorIndex(name)
	if idx == 0 {
		return
	}
	for _, p := range c.ag.ActivePeers {
		if !p.IsHFP() || p.framer == nil || c.ag.ERMode == 0 {
			continue
		}
		_ = p.framer.sendRaw(fmt.Sprintf("+CIEV: %d,%d", idx, value))
	}
}

// broadcastResponseAndHold sends +BTRH: <n> to every HFP peer, reporting
// the current response-and-hold state (spec §4.E AT+BTRH, §4.H). n < 0
// means response-and-hold is inactive, and nothing is sent.
func broadcastResponseAndHold(c *Core, n int) {
	if n < 0 {
		return
	}
	for _, p := range c.ag.ActivePeers {
		if !p.IsHFP() || p.framer == nil {
			continue
		}
		_ = p.framer.sendRaw("+BTRH: " + strconv.Itoa(n))
	}
}

// broadcastCallWaiting sends +CCWA to every HFP peer that has enabled call
// waiting notification via AT+CCWA=1 (spec §4.E, §4.H).
func broadcastCallWaiting(c *Core, number string, numberType int) {
	for _, p := range c.ag.ActivePeers {
		if !p.IsHFP() || !p.CWAEnabled || p.framer == nil {
			continue
		}
		_ = p.framer.sendRaw(fmt.Sprintf(`+CCWA: "%s",%d`, number, numberType))
	}
}

// broadcastListCurrentCalls sends one +CLCC line per call to every HFP peer
// (spec §4.E AT+CLCC is also forwarded on demand; this is the unsolicited
// path used when Telephony pushes a call-list refresh unprompted).
func broadcastListCurrentCalls(c *Core, calls []ListCall) {
	for _, p := range c.ag.ActivePeers {
		if !p.IsHFP() || p.framer == nil {
			continue
		}
		sendListCurrentCallsTo(p, calls)
	}
}

func sendListCurrentCallsTo(p *Peer, calls []ListCall) {
	for _, call := range calls {
		if call.HasNumber {
			_ = p.framer.sendRaw(fmt.Sprintf("+CLCC: %d,%d,%d,%d,%d,\"%s\",%d",
				call.Index, call.Direction, call.Status, call.Mode, call.MultiParty, call.Number, call.NumberType))
		} else {
			_ = p.framer.sendRaw(fmt.Sprintf("+CLCC: %d,%d,%d,%d,%d",
				call.Index, call.Direction, call.Status, call.Mode, call.MultiParty))
		}
	}
}

// broadcastSubscriberNumber sends +CNUM to every HFP peer (spec §4.E
// AT+CNUM is also forwarded on demand).
func broadcastSubscriberNumber(c *Core, number string, numberType int, service int) {
	for _, p := range c.ag.ActivePeers {
		if !p.IsHFP() || p.framer == nil {
			continue
		}
		_ = p.framer.sendRaw(fmt.Sprintf(`+CNUM: ,"%s",%d,,%d`, number, numberType, service))
	}
}

// broadcastOperatorSelection sends +COPS to every HFP peer (spec §4.E
// AT+COPS is also forwarded on demand).
func broadcastOperatorSelection(c *Core, mode int, operator string) {
	for _, p := range c.ag.ActivePeers {
		if !p.IsHFP() || p.framer == nil {
			continue
		}
		_ = p.framer.sendRaw(fmt.Sprintf(`+COPS: %d,0,"%s"`, mode, operator))
	}
}

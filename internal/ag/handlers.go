package ag

import (
	"fmt"
	"strconv"
	"strings"
)

// This file implements the AT command handlers dispatch.go's table routes
// to (spec §4.E). Each handler either fully replies through p.framer and
// returns nil, or returns errInvalid()/errInvalidCME(code) and lets
// Dispatch translate that into the peer's ERROR/+CME ERROR convention.
// A handler that forwards a request to Telephony never sends the OK
// itself: it calls deferReply (response.go), and the reply goes out
// once TelephonyResponse resolves it (spec §6).

func handleATA(c *Core, p *Peer, cmd string) error {
	disarmRing(c)
	c.telephony.AnswerCallReq(p)
	deferReply(p, func(c *Core, p *Peer, err CMEError) {
		if err == CMENone {
			c.ag.HasIncoming = false
			c.ag.IncomingNumber = ""
		}
		_ = p.framer.SendResult(err, p.CMEEnabled)
	})
	return nil
}

func handleATD(c *Core, p *Peer, cmd string) error {
	if len(cmd) <= 3 || !strings.HasSuffix(cmd, ";") {
		return errInvalid()
	}
	number := cmd[3 : len(cmd)-1]
	if number == "" {
		return errInvalid()
	}
	c.dialHist.record(p.ID.String(), number)
	c.telephony.DialNumberReq(p, number)
	deferReply(p, simpleReply)
	return nil
}

func parseGain(cmd, prefix string) (int, error) {
	if len(cmd) <= len(prefix)+1 || cmd[len(prefix)] != '=' {
		return 0, errInvalid()
	}
	n, err := strconv.Atoi(cmd[len(prefix)+1:])
	if err != nil || n < 0 || n > 15 {
		return 0, errInvalid()
	}
	return n, nil
}

func handleVGS(c *Core, p *Peer, cmd string) error {
	n, err := parseGain(cmd, "AT+VGS")
	if err != nil {
		return err
	}
	if p.SpeakerGain != n {
		p.SpeakerGain = n
		c.signals.SpeakerGainChanged(p, n)
		c.signals.PropertyChanged(p, "SpeakerGain", n)
	}
	_ = p.framer.SendOK()
	return nil
}

func handleVGM(c *Core, p *Peer, cmd string) error {
	n, err := parseGain(cmd, "AT+VGM")
	if err != nil {
		return err
	}
	if p.MicrophoneGain != n {
		p.MicrophoneGain = n
		c.signals.MicrophoneGainChanged(p, n)
		c.signals.PropertyChanged(p, "MicrophoneGain", n)
	}
	_ = p.framer.SendOK()
	return nil
}

func handleBRSF(c *Core, p *Peer, cmd string) error {
	const prefix = "AT+BRSF="
	if !strings.HasPrefix(cmd, prefix) {
		return errInvalid()
	}
	n, err := strconv.ParseUint(cmd[len(prefix):], 10, 32)
	if err != nil {
		return errInvalid()
	}
	p.HFFeatures = uint32(n)
	_ = p.framer.SendInfo(fmt.Sprintf("+BRSF: %d", c.ag.AGFeatures))
	_ = p.framer.SendOK()
	return nil
}

func handleCIND(c *Core, p *Peer, cmd string) error {
	switch cmd {
	case "AT+CIND?":
		values := make([]string, len(c.ag.Indicators))
		for i, ind := range c.ag.Indicators {
			values[i] = strconv.Itoa(ind.Value)
		}
		_ = p.framer.SendInfo("+CIND: " + strings.Join(values, ","))
		_ = p.framer.SendOK()
		return nil
	case "AT+CIND=?":
		ranges := make([]string, len(c.ag.Indicators))
		for i, ind := range c.ag.Indicators {
			ranges[i] = fmt.Sprintf("(\"%s\",(%d-%d))", ind.Name, ind.RangeMin, ind.RangeMax)
		}
		_ = p.framer.SendInfo("+CIND: " + strings.Join(ranges, ","))
		_ = p.framer.SendOK()
		return nil
	default:
		return errInvalid()
	}
}

func handleCMER(c *Core, p *Peer, cmd string) error {
	const prefix = "AT+CMER="
	if !strings.HasPrefix(cmd, prefix) {
		return errInvalid()
	}
	parts := strings.Split(cmd[len(prefix):], ",")
	if len(parts) < 4 {
		return errInvalid()
	}
	ind, err := strconv.Atoi(parts[3])
	if err != nil || (ind != 0 && ind != 1) {
		return errInvalid()
	}
	c.ag.ERMode = ind
	c.telephony.EventReportingReq(p, ind == 1)
	deferReply(p, func(c *Core, p *Peer, err CMEError) {
		_ = p.framer.SendResult(err, p.CMEEnabled)
		if err == CMENone {
			checkSLCAfterCMER(c, p)
		}
	})
	return nil
}

func handleCHLD(c *Core, p *Peer, cmd string) error {
	if cmd == "AT+CHLD=?" {
		list := "0,1,1x,2,2x"
		if bothSupportThreeWay(c, p) {
			list = threeWayChldDescriptor
		}
		_ = p.framer.SendInfo("+CHLD: (" + list + ")")
		_ = p.framer.SendOK()
		checkSLCAfterCHLD(c, p)
		return nil
	}
	const prefix = "AT+CHLD="
	if !strings.HasPrefix(cmd, prefix) || len(cmd) == len(prefix) {
		return errInvalidCME(CMEError(4)) // "operation not supported"
	}
	c.telephony.CallHoldReq(p, cmd[len(prefix):])
	deferReply(p, simpleReply)
	return nil
}

func handleCHUP(c *Core, p *Peer, cmd string) error {
	disarmRing(c)
	c.telephony.TerminateCallReq(p)
	deferReply(p, func(c *Core, p *Peer, err CMEError) {
		if err == CMENone {
			c.ag.HasIncoming = false
			c.ag.IncomingNumber = ""
			c.signals.CallTerminated(p)
		}
		_ = p.framer.SendResult(err, p.CMEEnabled)
	})
	return nil
}

func handleCKPD(c *Core, p *Peer, cmd string) error {
	const prefix = "AT+CKPD="
	keys := ""
	if strings.HasPrefix(cmd, prefix) {
		keys = cmd[len(prefix):]
	}
	c.signals.AnswerRequested(p)
	disarmRing(c)
	c.telephony.KeyPressReq(p, keys)
	deferReply(p, simpleReply)
	return nil
}

func handleCLIP(c *Core, p *Peer, cmd string) error {
	switch cmd {
	case "AT+CLIP=1":
		p.CLIActive = true
	case "AT+CLIP=0":
		p.CLIActive = false
	default:
		return errInvalid()
	}
	_ = p.framer.SendOK()
	return nil
}

// handleBTRH implements spec §4.E AT+BTRH: the query branch answers from
// local state (+BTRH: <rh> only while response-and-hold is active, then
// OK), the set branch forwards n to Telephony unchanged and defers its
// reply.
func handleBTRH(c *Core, p *Peer, cmd string) error {
	if cmd == "AT+BTRH?" {
		if c.ag.RH >= 0 {
			_ = p.framer.SendInfo("+BTRH: " + strconv.Itoa(c.ag.RH))
		}
		_ = p.framer.SendOK()
		return nil
	}
	const prefix = "AT+BTRH="
	if !strings.HasPrefix(cmd, prefix) {
		return errInvalid()
	}
	n, err := strconv.Atoi(cmd[len(prefix):])
	if err != nil {
		return errInvalid()
	}
	c.telephony.ResponseAndHoldReq(p, n)
	deferReply(p, simpleReply)
	return nil
}

func handleBLDN(c *Core, p *Peer, cmd string) error {
	c.telephony.LastDialedNumberReq(p)
	deferReply(p, simpleReply)
	return nil
}

func handleVTS(c *Core, p *Peer, cmd string) error {
	const prefix = "AT+VTS="
	if len(cmd) != len(prefix)+1 || !strings.HasPrefix(cmd, prefix) {
		return errInvalid()
	}
	c.telephony.TransmitDTMFReq(p, cmd[len(prefix)])
	deferReply(p, simpleReply)
	return nil
}

func handleCNUM(c *Core, p *Peer, cmd string) error {
	c.telephony.SubscriberNumberReq(p)
	deferReply(p, simpleReply)
	return nil
}

func handleCLCC(c *Core, p *Peer, cmd string) error {
	c.telephony.ListCurrentCallsReq(p)
	deferReply(p, simpleReply)
	return nil
}

func handleCMEE(c *Core, p *Peer, cmd string) error {
	switch cmd {
	case "AT+CMEE=1":
		p.CMEEnabled = true
	case "AT+CMEE=0":
		p.CMEEnabled = false
	default:
		return errInvalid()
	}
	_ = p.framer.SendOK()
	return nil
}

func handleCCWA(c *Core, p *Peer, cmd string) error {
	switch cmd {
	case "AT+CCWA=1":
		p.CWAEnabled = true
	case "AT+CCWA=0":
		p.CWAEnabled = false
	default:
		return errInvalid()
	}
	_ = p.framer.SendOK()
	return nil
}

func handleCOPS(c *Core, p *Peer, cmd string) error {
	if cmd == "AT+COPS?" {
		c.telephony.OperatorSelectionReq(p)
		deferReply(p, simpleReply)
		return nil
	}
	if strings.HasPrefix(cmd, "AT+COPS=") {
		// Format-selection exchange (AT+COPS=3,0): accepted without
		// forwarding, per HFP's mandated AG behavior.
		_ = p.framer.SendOK()
		return nil
	}
	return errInvalid()
}

func handleNREC(c *Core, p *Peer, cmd string) error {
	var on bool
	switch cmd {
	case "AT+NREC=0":
		on = false
	case "AT+NREC=1":
		on = true
	default:
		return errInvalid()
	}
	p.NRECReq = on
	c.telephony.NRAndECReq(p, on)
	deferReply(p, func(c *Core, p *Peer, err CMEError) {
		if err == CMENone {
			p.NREC = p.NRECReq
		}
		_ = p.framer.SendResult(err, p.CMEEnabled)
	})
	return nil
}

package ag

import "strings"

// cmdError is returned by a handler to mean "invalid argument" (spec
// §4.D): the dispatcher turns it into ERROR or +CME ERROR: <code>.
type cmdError struct {
	cmeCode CMEError
	hasCME  bool
}

func (e *cmdError) Error() string { return "invalid argument" }

// errInvalid is a plain invalid-argument result: always "ERROR",
// regardless of CME reporting.
func errInvalid() error { return &cmdError{} }

// errInvalidCME is an invalid-argument result carrying a specific CME
// code, reported as "+CME ERROR: <code>" when the peer has CME reporting
// enabled.
func errInvalidCME(code CMEError) error { return &cmdError{cmeCode: code, hasCME: true} }

type handlerFunc func(c *Core, p *Peer, cmd string) error

type dispatchEntry struct {
	prefix  string
	handler handlerFunc
}

// dispatchTable is the static, ordered prefix table of spec §4.D. Prefix
// match is strict literal; first match wins.
var dispatchTable = []dispatchEntry{
	{"ATA", handleATA},
	{"ATD", handleATD},
	{"AT+VGS", handleVGS},
	{"AT+VGM", handleVGM},
	{"AT+BRSF", handleBRSF},
	{"AT+CIND", handleCIND},
	{"AT+CMER", handleCMER},
	{"AT+CHLD", handleCHLD},
	{"AT+CHUP", handleCHUP},
	{"AT+CKPD", handleCKPD},
	{"AT+CLIP", handleCLIP},
	{"AT+BTRH", handleBTRH},
	{"AT+BLDN", handleBLDN},
	{"AT+VTS", handleVTS},
	{"AT+CNUM", handleCNUM},
	{"AT+CLCC", handleCLCC},
	{"AT+CMEE", handleCMEE},
	{"AT+CCWA", handleCCWA},
	{"AT+COPS", handleCOPS},
	{"AT+NREC", handleNREC},
}

// Dispatch matches cmd against the static table and invokes the first
// matching handler. No match, or a handler-reported invalid argument,
// both reply through the peer's framer per spec §4.D.
func (c *Core) Dispatch(p *Peer, cmd string) {
	for _, entry := range dispatchTable {
		if strings.HasPrefix(cmd, entry.prefix) {
			err := entry.handler(c, p, cmd)
			if err == nil {
				return
			}
			ce, ok := err.(*cmdError)
			if ok && ce.hasCME && p.CMEEnabled {
				_ = p.framer.SendCMEError(ce.cmeCode)
			} else {
				_ = p.framer.SendError()
			}
			return
		}
	}
	_ = p.framer.SendError()
}

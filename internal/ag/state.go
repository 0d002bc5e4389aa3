package ag

import "github.com/NKAVY/bluez/internal/eventloop"

// AGState is the process-wide, single-instance state described in spec §3.
// It is only ever touched from the core's event loop goroutine.
type AGState struct {
	TelephonyReady bool
	AGFeatures     uint32
	Indicators     []Indicator
	ERMode         int
	RH             int // -1 = inactive

	IncomingNumber string
	HasIncoming    bool
	NumberType     int

	RingTimer eventloop.Token
	RingArmed bool

	CHLD string

	ActivePeers []*Peer
}

// NewAGState returns an AGState in its pre-telephony-ready default shape:
// response-and-hold inactive, no ring armed, no peers.
func NewAGState() *AGState {
	return &AGState{RH: -1}
}

// IndicatorIndex returns the 1-based wire index of the indicator named
// name, or 0 if not found. Spec §3: "index is 1-based on the wire."
func (s *AGState) IndicatorIndex(name string) int {
	for i, ind := range s.Indicators {
		if ind.Name == name {
			return i + 1
		}
	}
	return 0
}

// supportsThreeWay reports whether the AG locally advertises three-way
// calling support (spec §4.F).
func (s *AGState) supportsThreeWay() bool {
	return AGFeature(s.AGFeatures)&FeatureThreeWayCalling != 0
}

func (s *AGState) addActivePeer(p *Peer) {
	for _, existing := range s.ActivePeers {
		if existing == p {
			return
		}
	}
	s.ActivePeers = append(s.ActivePeers, p)
}

func (s *AGState) removeActivePeer(p *Peer) {
	for i, existing := range s.ActivePeers {
		if existing == p {
			s.ActivePeers = append(s.ActivePeers[:i], s.ActivePeers[i+1:]...)
			return
		}
	}
}

package ag

// This file defines every interface the core requires of its external
// collaborators (spec §6). The core never constructs a concrete socket,
// SDP client, or telephony stack itself (those are out of scope per spec
// §1); it only calls through these interfaces and expects callbacks
// delivered back into it, which the core always re-enters through its
// own event loop (see eventloop.Loop.Post), preserving the single
// dispatch-thread invariant of spec §5 regardless of which goroutine the
// collaborator calls back from.

// RFCOMMChannel is an open reliable control channel to one peer.
type RFCOMMChannel interface {
	Write(p []byte) error
	Close() error
	// SetHandlers registers the callbacks the channel must invoke for
	// inbound data and for an asynchronous close (HUP, NVAL, read
	// error). Called once, immediately after the channel is handed to
	// the core.
	SetHandlers(onData func([]byte), onClosed func(err error))
}

// SCOChannel is an open isochronous audio channel to one peer. The core
// only observes its lifecycle; audio payload never crosses this
// interface (spec §1 Non-goals: audio decoding/encoding).
type SCOChannel interface {
	Close() error
	SetHandlers(onClosed func(err error))
}

// TransportProvider opens RFCOMM and SCO channels to a peer. Both calls
// are submit-and-callback: the callback always runs (possibly
// synchronously, possibly much later), exactly once.
type TransportProvider interface {
	ConnectRFCOMM(addr string, channel int, cb func(RFCOMMChannel, error))
	ConnectSCO(addr string, cb func(SCOChannel, error))
}

// SDPProvider resolves the RFCOMM channel number for a profile on a
// device via service discovery (spec §6 SDP).
type SDPProvider interface {
	// Search submits an SDP search for the HFP or HSP service class on
	// addr. cb receives the discovered RFCOMM channel number, or a
	// non-nil err if no matching record was found.
	Search(addr string, profile Profile, cb func(channel int, err error))
}

// Telephony is the call-control collaborator the core forwards requests
// to (spec §6 "requests (core→collab)"). Every method is fire-and-forget
// from the core's perspective; Telephony eventually calls the matching
// Core.TelephonyResponse for flows that need a reply, or nothing at all
// for ones that only complete via an indication (Ready, EventInd, ...).
type Telephony interface {
	EventReportingReq(peer *Peer, on bool)
	CallHoldReq(peer *Peer, arg string)
	KeyPressReq(peer *Peer, keys string)
	AnswerCallReq(peer *Peer)
	TerminateCallReq(peer *Peer)
	ResponseAndHoldReq(peer *Peer, n int)
	LastDialedNumberReq(peer *Peer)
	DialNumberReq(peer *Peer, number string)
	TransmitDTMFReq(peer *Peer, ch byte)
	SubscriberNumberReq(peer *Peer)
	ListCurrentCallsReq(peer *Peer)
	OperatorSelectionReq(peer *Peer)
	NRAndECReq(peer *Peer, on bool)

	// PeerConnected and PeerDisconnected notify Telephony of lifecycle
	// transitions that were not themselves driven by a Telephony request
	// (spec §4.G "notify Telephony collaborator" on CONNECTED/DISCONNECTED
	// entry), so Telephony can stop treating a hung-up peer as a valid
	// +CLCC/+CIEV fan-out target.
	PeerConnected(peer *Peer)
	PeerDisconnected(peer *Peer)
}

// ListCall is one row of a +CLCC list-current-calls indication.
type ListCall struct {
	Index      int
	Direction  int
	Status     int
	Mode       int
	MultiParty int
	Number     string
	HasNumber  bool
	NumberType int
}

// Signals is the control-plane event sink (spec §6 Signals). The wire
// encoding used to publish these to a remote control-plane client is out
// of scope (spec §1); this interface is the boundary the core commits to.
type Signals interface {
	Connected(peer *Peer)
	Disconnected(peer *Peer)
	Playing(peer *Peer)
	Stopped(peer *Peer)
	AnswerRequested(peer *Peer)
	CallTerminated(peer *Peer)
	SpeakerGainChanged(peer *Peer, gain int)
	MicrophoneGainChanged(peer *Peer, gain int)
	PropertyChanged(peer *Peer, name string, value interface{})
}

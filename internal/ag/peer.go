package ag

import (
	uuid "github.com/satori/go.uuid"

	"github.com/NKAVY/bluez/internal/eventloop"
)

// State is one of the five states of the per-peer connection lifecycle
// (spec §4.G).
type State int

const (
	StateDisconnected State = iota
	StateConnectInProgress
	StateConnected
	StatePlayInProgress
	StatePlaying
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "DISCONNECTED"
	case StateConnectInProgress:
		return "CONNECT_IN_PROGRESS"
	case StateConnected:
		return "CONNECTED"
	case StatePlayInProgress:
		return "PLAY_IN_PROGRESS"
	case StatePlaying:
		return "PLAYING"
	default:
		return "UNKNOWN"
	}
}

// Lock is one advisory consumer lock held against a session (spec §3).
// Auto-opened sessions arm a disconnect timer once the last Lock is
// released (spec §4.G Auto-disconnect).
type Lock uint32

const (
	LockCall Lock = 1 << iota
	LockAudio
)

// Callback is one queued continuation of a PendingOp, identified by an
// opaque id issued by (*Core) so CancelStream(id) can find and remove it
// without the caller needing to track which peer or op it belongs to
// (spec §5 Cancellation, §9 Design Notes).
type Callback struct {
	ID uuid.UUID
	Fn func(err error)
}

// PendingOp is the "Idle | InFlight{...}" sum type of spec §9 Design
// Notes; a nil *PendingOp on Peer models Idle.
type PendingOp struct {
	TargetState State // StateConnected or StatePlaying
	ReplySink   ReplySink
	Callbacks   []Callback
	AutoOpened  bool
}

// ReplySink is the optional control-plane request awaiting completion of
// a PendingOp (spec §3 PendingOp.reply_sink). Implementations deliver
// exactly one of Succeed or Fail.
type ReplySink interface {
	Succeed()
	Fail(err error)
}

// Peer is the per-remote-device session record of spec §3.
type Peer struct {
	ID uuid.UUID

	profile Profile
	state   State

	RFCOMM RFCOMMChannel // nil when not open
	SCO    SCOChannel    // nil when not open
	framer *Framer       // non-nil iff RFCOMM != nil

	RFCOMMChannelNumber int // -1 until SDP completes
	DeviceAddress       string

	HFFeatures uint32

	CLIActive   bool
	CMEEnabled  bool
	CWAEnabled  bool
	NREC        bool
	NRECReq     bool
	PendingRing bool
	AutoDC      bool

	SpeakerGain    int // -1 unknown, else 0..15
	MicrophoneGain int

	pending *PendingOp

	// atReplies queues the still-pending forwarded AT commands awaiting a
	// Telephony response, oldest first (spec §6: responses resolve in the
	// order Telephony invokes them, so no explicit request id is needed).
	atReplies []atReply

	lock Lock

	dcTimer      eventloop.Token
	dcTimerArmed bool
}

// NewPeer creates a session in its DISCONNECTED default shape (spec §3:
// "session is created when the control-plane registers a peer path").
func NewPeer(id uuid.UUID, addr string) *Peer {
	return &Peer{
		ID:                  id,
		DeviceAddress:       addr,
		state:               StateDisconnected,
		RFCOMMChannelNumber: -1,
		SpeakerGain:         -1,
		MicrophoneGain:      -1,
	}
}

// State returns the peer's current lifecycle state.
func (p *Peer) State() State { return p.state }

// ProfileOf returns the peer's negotiated profile.
func (p *Peer) ProfileOf() Profile { return p.profile }

// IsHFP reports whether the peer negotiated HFP (as opposed to HSP).
func (p *Peer) IsHFP() bool { return p.profile == ProfileHFP }

// HasPending reports whether a PendingOp is in flight (spec invariant P3).
func (p *Peer) HasPending() bool { return p.pending != nil }

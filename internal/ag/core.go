package ag

import (
	"github.com/op/go-logging"
	uuid "github.com/satori/go.uuid"

	"github.com/NKAVY/bluez/internal/clog"
	"github.com/NKAVY/bluez/internal/config"
	"github.com/NKAVY/bluez/internal/eventloop"
)

// Core owns the single-instance AGState, every registered Peer, and the
// collaborators the rest of the package calls through (spec §3, §6). Every
// method on Core that touches core state does so on c.loop, so callers
// from arbitrary goroutines (a control-plane RPC handler, a transport
// callback) never need their own locking.
type Core struct {
	log *logging.Logger

	loop *eventloop.Loop
	ag   *AGState

	peers map[uuid.UUID]*Peer

	telephony Telephony
	transport TransportProvider
	sdp       SDPProvider
	signals   Signals

	callbacks *callbackRegistry
	sdpCache  *sdpChannelCache
	dialHist  *dialHistory

	hfpEnabled bool
	maxPeers   int
	cfg        config.Config
}

// Collaborators groups every external dependency Core needs, mirroring the
// constructor-injection shape of spec §6.
type Collaborators struct {
	Telephony Telephony
	Transport TransportProvider
	SDP       SDPProvider
	Signals   Signals
}

// NewCore constructs a Core ready to register peers. hfpEnabled selects
// which profile fresh SDP searches and connect attempts target; maxPeers
// bounds concurrently CONNECTED-or-better sessions (spec §4.G "too many
// peers -> NotAllowed").
func NewCore(loop *eventloop.Loop, collab Collaborators, cfg config.Config, hfpEnabled bool, maxPeers int) *Core {
	return &Core{
		log:        clog.Get(),
		loop:       loop,
		ag:         NewAGState(),
		peers:      make(map[uuid.UUID]*Peer),
		telephony:  collab.Telephony,
		transport:  collab.Transport,
		sdp:        collab.SDP,
		signals:    collab.Signals,
		callbacks:  newCallbackRegistry(),
		sdpCache:   newSDPChannelCache(),
		dialHist:   newDialHistory(),
		hfpEnabled: hfpEnabled,
		maxPeers:   maxPeers,
		cfg:        cfg,
	}
}

// --- synchronous call plumbing -------------------------------------------

type callResult struct {
	val interface{}
	err error
}

// call runs fn on the loop goroutine and blocks the caller until it
// returns, giving every exported Core method request/reply semantics over
// an internally asynchronous, single-threaded core.
func (c *Core) call(fn func() (interface{}, error)) (interface{}, error) {
	ch := make(chan callResult, 1)
	c.loop.Post(func() {
		v, err := fn()
		ch <- callResult{val: v, err: err}
	})
	r := <-ch
	return r.val, r.err
}

type syncReply struct {
	done chan error
}

func newSyncReply() *syncReply { return &syncReply{done: make(chan error, 1)} }

func (s *syncReply) Succeed()        { s.done <- nil }
func (s *syncReply) Fail(err error)  { s.done <- err }
func (s *syncReply) wait() error     { return <-s.done }

func (c *Core) lookupPeer(id uuid.UUID) (*Peer, bool) {
	p, ok := c.peers[id]
	return p, ok
}

// --- peer registration -----------------------------------------------------

// RegisterPeer creates a DISCONNECTED session for addr and returns its
// opaque id (spec §3 "session is created when the control-plane registers
// a peer path").
func (c *Core) RegisterPeer(addr string) uuid.UUID {
	v, _ := c.call(func() (interface{}, error) {
		id := uuid.NewV4()
		c.peers[id] = NewPeer(id, addr)
		return id, nil
	})
	return v.(uuid.UUID)
}

// UnregisterPeer forcibly disconnects and forgets a session.
func (c *Core) UnregisterPeer(id uuid.UUID) {
	c.loop.Post(func() {
		p, ok := c.peers[id]
		if !ok {
			return
		}
		if p.state != StateDisconnected {
			enterDisconnected(c, p, NewError(ErrFailed, "peer unregistered"))
		}
		delete(c.peers, id)
	})
}

// --- control-plane surface (spec §6) ---------------------------------------

// Connect drives peer id from DISCONNECTED toward CONNECTED. Already
// CONNECTED or PLAYING succeeds immediately.
func (c *Core) Connect(id uuid.UUID) error {
	reply := newSyncReply()
	c.loop.Post(func() {
		p, ok := c.lookupPeer(id)
		if !ok {
			reply.Fail(NewError(ErrNotAvailable, "unknown peer"))
			return
		}
		if c.hfpEnabled && !c.ag.TelephonyReady {
			reply.Fail(NewError(ErrNotReady, "telephony not ready"))
			return
		}
		if p.state == StateDisconnected && len(c.ag.ActivePeers) >= c.maxPeers {
			reply.Fail(NewError(ErrNotAllowed, "too many connected peers"))
			return
		}
		p.AutoDC = false // explicit Connect persists past lock release
		requestOp(c, p, StateConnected, reply, nil, false)
	})
	return reply.wait()
}

// Disconnect tears peer id down unconditionally. A no-op if already
// DISCONNECTED.
func (c *Core) Disconnect(id uuid.UUID) error {
	reply := newSyncReply()
	c.loop.Post(func() {
		p, ok := c.lookupPeer(id)
		if !ok {
			reply.Fail(NewError(ErrNotAvailable, "unknown peer"))
			return
		}
		if p.state == StateDisconnected {
			reply.Succeed()
			return
		}
		enterDisconnected(c, p, nil)
		reply.Succeed()
	})
	return reply.wait()
}

// IsConnected reports whether peer id is CONNECTED or PLAYING.
func (c *Core) IsConnected(id uuid.UUID) bool {
	v, _ := c.call(func() (interface{}, error) {
		p, ok := c.lookupPeer(id)
		return ok && (p.state == StateConnected || p.state == StatePlaying), nil
	})
	return v.(bool)
}

// Play drives peer id toward PLAYING, auto-opening the connection first if
// it is currently DISCONNECTED (spec §4.G Auto-disconnect: such a session
// is marked AutoOpened and arms an idle timer once every lock is released).
func (c *Core) Play(id uuid.UUID) error {
	reply := newSyncReply()
	c.loop.Post(func() {
		p, ok := c.lookupPeer(id)
		if !ok {
			reply.Fail(NewError(ErrNotAvailable, "unknown peer"))
			return
		}
		if c.cfg.SCORouting == config.RoutingHCI {
			reply.Fail(NewError(ErrNotAllowed, "SCO routing is HCI-owned; Play is refused by configuration"))
			return
		}
		if !c.ag.TelephonyReady {
			reply.Fail(NewError(ErrNotReady, "telephony not ready"))
			return
		}
		autoOpen := p.state == StateDisconnected
		if autoOpen && len(c.ag.ActivePeers) >= c.maxPeers {
			reply.Fail(NewError(ErrNotAllowed, "too many connected peers"))
			return
		}
		requestOp(c, p, StatePlaying, reply, nil, autoOpen)
	})
	return reply.wait()
}

// PlayAsync is the non-blocking counterpart to Play: cb runs on the loop
// goroutine once the peer reaches PLAYING or the attempt fails, and the
// returned id can be passed to CancelStream to detach cb (without
// affecting the underlying PendingOp if something else is also waiting on
// it) before that happens (spec §5 Cancellation).
func (c *Core) PlayAsync(id uuid.UUID, cb func(error)) (uuid.UUID, error) {
	v, err := c.call(func() (interface{}, error) {
		p, ok := c.lookupPeer(id)
		if !ok {
			return uuid.UUID{}, NewError(ErrNotAvailable, "unknown peer")
		}
		if c.cfg.SCORouting == config.RoutingHCI {
			return uuid.UUID{}, NewError(ErrNotAllowed, "SCO routing is HCI-owned; Play is refused by configuration")
		}
		if !c.ag.TelephonyReady {
			return uuid.UUID{}, NewError(ErrNotReady, "telephony not ready")
		}
		autoOpen := p.state == StateDisconnected
		if autoOpen && len(c.ag.ActivePeers) >= c.maxPeers {
			return uuid.UUID{}, NewError(ErrNotAllowed, "too many connected peers")
		}
		return requestOp(c, p, StatePlaying, nil, cb, autoOpen), nil
	})
	if err != nil {
		return uuid.UUID{}, err
	}
	return v.(uuid.UUID), nil
}

// Stop drops peer id from PLAYING back to CONNECTED.
func (c *Core) Stop(id uuid.UUID) error {
	reply := newSyncReply()
	c.loop.Post(func() {
		p, ok := c.lookupPeer(id)
		if !ok {
			reply.Fail(NewError(ErrNotAvailable, "unknown peer"))
			return
		}
		if p.state != StatePlaying {
			reply.Fail(NewError(ErrNotConnected, "not playing"))
			return
		}
		enterConnectedFromPlaying(c, p)
		reply.Succeed()
	})
	return reply.wait()
}

// IsPlaying reports whether peer id is PLAYING.
func (c *Core) IsPlaying(id uuid.UUID) bool {
	v, _ := c.call(func() (interface{}, error) {
		p, ok := c.lookupPeer(id)
		return ok && p.state == StatePlaying, nil
	})
	return v.(bool)
}

// AcquireAudioLock and ReleaseAudioLock let an outside audio-routing
// consumer hold a peer's session open across a sequence of operations
// without it auto-disconnecting mid-sequence (spec §4.G Auto-disconnect).
func (c *Core) AcquireAudioLock(id uuid.UUID) {
	c.loop.Post(func() {
		if p, ok := c.lookupPeer(id); ok {
			AcquireLock(c, p, LockAudio)
		}
	})
}

func (c *Core) ReleaseAudioLock(id uuid.UUID) {
	c.loop.Post(func() {
		if p, ok := c.lookupPeer(id); ok {
			ReleaseLock(c, p, LockAudio)
		}
	})
}

// GetSpeakerGain and GetMicrophoneGain read the last gain value reported
// by the peer (-1 if never reported).
func (c *Core) GetSpeakerGain(id uuid.UUID) int {
	v, _ := c.call(func() (interface{}, error) {
		p, ok := c.lookupPeer(id)
		if !ok {
			return -1, nil
		}
		return p.SpeakerGain, nil
	})
	return v.(int)
}

func (c *Core) GetMicrophoneGain(id uuid.UUID) int {
	v, _ := c.call(func() (interface{}, error) {
		p, ok := c.lookupPeer(id)
		if !ok {
			return -1, nil
		}
		return p.MicrophoneGain, nil
	})
	return v.(int)
}

// IndicateCall starts the ring cadence for an incoming call (spec §4.I).
func (c *Core) IndicateCall(number string, hasNumber bool, numberType int) error {
	_, err := c.call(func() (interface{}, error) {
		if !c.ag.TelephonyReady {
			return nil, NewError(ErrNotReady, "telephony not ready")
		}
		notifyIncomingCall(c, number, hasNumber, numberType)
		return nil, nil
	})
	return err
}

// CancelCall stops the ring cadence (spec §4.I cancellation triggers).
func (c *Core) CancelCall() {
	c.loop.Post(func() { notifyCallingStopped(c) })
}

// CancelStream detaches a previously queued PendingOp callback by id
// without affecting the op's reply sink or its other callbacks (spec §5
// Cancellation).
func (c *Core) CancelStream(id uuid.UUID) error {
	_, err := c.call(func() (interface{}, error) {
		ref, ok := c.callbacks.lookup(id)
		if !ok {
			return nil, NewError(ErrNotAvailable, "unknown callback id")
		}
		c.callbacks.forget(id)
		if ref.peer.pending == nil {
			return nil, nil
		}
		kept := ref.peer.pending.Callbacks[:0]
		for _, cb := range ref.peer.pending.Callbacks {
			if cb.ID != id {
				kept = append(kept, cb)
			}
		}
		ref.peer.pending.Callbacks = kept
		return nil, nil
	})
	return err
}

// --- Telephony -> core indications (spec §6, fire-and-forget both ways) ----

// Ready delivers the AG feature mask, CIND indicator table, and supported
// AT+CHLD action list once Telephony has finished its own startup (spec §3
// TelephonyReady).
func (c *Core) Ready(features uint32, indicators []Indicator, chld string) {
	c.loop.Post(func() {
		c.ag.AGFeatures = features
		c.ag.Indicators = indicators
		c.ag.CHLD = chld
		c.ag.TelephonyReady = true
	})
}

// EventInd updates one CIND indicator's value and fans out +CIEV (spec
// §4.H).
func (c *Core) EventInd(name string, value int) {
	c.loop.Post(func() {
		for i := range c.ag.Indicators {
			if c.ag.Indicators[i].Name == name {
				c.ag.Indicators[i].Value = value
				break
			}
		}
		broadcastIndicator(c, name, value)
	})
}

// ResponseAndHoldInd reports a response-and-hold state change and fans out
// +BTRH (spec §4.E, §4.H).
func (c *Core) ResponseAndHoldInd(n int) {
	c.loop.Post(func() {
		c.ag.RH = n
		broadcastResponseAndHold(c, n)
	})
}

// IncomingCallInd is the Telephony-driven equivalent of IndicateCall, used
// when the call originates from the telephony stack rather than a
// control-plane caller.
func (c *Core) IncomingCallInd(number string, hasNumber bool, numberType int) {
	c.loop.Post(func() { notifyIncomingCall(c, number, hasNumber, numberType) })
}

// CallingStoppedInd is the Telephony-driven equivalent of CancelCall.
func (c *Core) CallingStoppedInd() {
	c.loop.Post(func() { notifyCallingStopped(c) })
}

// OperatorSelectionInd fans out +COPS (spec §4.E AT+COPS, §4.H).
func (c *Core) OperatorSelectionInd(mode int, operator string) {
	c.loop.Post(func() { broadcastOperatorSelection(c, mode, operator) })
}

// ListCurrentCallsInd fans out +CLCC (spec §4.E AT+CLCC, §4.H).
func (c *Core) ListCurrentCallsInd(calls []ListCall) {
	c.loop.Post(func() { broadcastListCurrentCalls(c, calls) })
}

// SubscriberNumberInd fans out +CNUM (spec §4.E AT+CNUM, §4.H).
func (c *Core) SubscriberNumberInd(number string, numberType int, service int) {
	c.loop.Post(func() { broadcastSubscriberNumber(c, number, numberType, service) })
}

// CallWaitingInd fans out +CCWA to peers that enabled it (spec §4.E
// AT+CCWA, §4.H).
func (c *Core) CallWaitingInd(number string, numberType int) {
	c.loop.Post(func() { broadcastCallWaiting(c, number, numberType) })
}

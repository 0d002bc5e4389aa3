// Package stub provides logging-only implementations of the collaborator
// interfaces internal/ag requires (internal/ag/collab.go). They let the
// daemon boot without a real BlueZ transport, SDP, or telephony stack
// wired in. SDP reports every search as not found and Transport refuses
// every connect, so a connect attempt always ends back in DISCONNECTED.
// The concrete equivalents of these are out of scope for this repo (spec
// §1) and belong to whatever binds the AG core to the host's Bluetooth
// stack and dialer.
package stub

import (
	"github.com/op/go-logging"

	"github.com/NKAVY/bluez/internal/ag"
)

// Telephony logs every request and immediately acknowledges it with
// success through Core; a real backend would forward these onto a modem
// or VoIP stack and only call TelephonyResponse once that round trip
// actually completes. Core is backfilled by the caller right after
// ag.NewCore returns, since the core itself isn't constructed yet at the
// point this struct is built.
type Telephony struct {
	Log  *logging.Logger
	Core *ag.Core
}

func (t *Telephony) EventReportingReq(peer *ag.Peer, on bool) {
	t.Log.Debugf("telephony: event reporting %s -> %v", peer.DeviceAddress, on)
	t.Core.TelephonyResponse(peer, ag.CMENone)
}
func (t *Telephony) CallHoldReq(peer *ag.Peer, arg string) {
	t.Log.Debugf("telephony: call hold %s -> %s", peer.DeviceAddress, arg)
	t.Core.TelephonyResponse(peer, ag.CMENone)
}
func (t *Telephony) KeyPressReq(peer *ag.Peer, keys string) {
	t.Log.Debugf("telephony: key press %s -> %s", peer.DeviceAddress, keys)
	t.Core.TelephonyResponse(peer, ag.CMENone)
}
func (t *Telephony) AnswerCallReq(peer *ag.Peer) {
	t.Log.Debugf("telephony: answer %s", peer.DeviceAddress)
	t.Core.TelephonyResponse(peer, ag.CMENone)
}
func (t *Telephony) TerminateCallReq(peer *ag.Peer) {
	t.Log.Debugf("telephony: terminate %s", peer.DeviceAddress)
	t.Core.TelephonyResponse(peer, ag.CMENone)
}
func (t *Telephony) ResponseAndHoldReq(peer *ag.Peer, n int) {
	t.Log.Debugf("telephony: response-and-hold %s -> %d", peer.DeviceAddress, n)
	t.Core.TelephonyResponse(peer, ag.CMENone)
}
func (t *Telephony) LastDialedNumberReq(peer *ag.Peer) {
	t.Log.Debugf("telephony: last dialed number %s", peer.DeviceAddress)
	t.Core.TelephonyResponse(peer, ag.CMENone)
}
func (t *Telephony) DialNumberReq(peer *ag.Peer, number string) {
	t.Log.Debugf("telephony: dial %s -> %s", peer.DeviceAddress, number)
	t.Core.TelephonyResponse(peer, ag.CMENone)
}
func (t *Telephony) TransmitDTMFReq(peer *ag.Peer, ch byte) {
	t.Log.Debugf("telephony: dtmf %s -> %c", peer.DeviceAddress, ch)
	t.Core.TelephonyResponse(peer, ag.CMENone)
}
func (t *Telephony) SubscriberNumberReq(peer *ag.Peer) {
	t.Log.Debugf("telephony: subscriber number %s", peer.DeviceAddress)
	t.Core.TelephonyResponse(peer, ag.CMENone)
}
func (t *Telephony) ListCurrentCallsReq(peer *ag.Peer) {
	t.Log.Debugf("telephony: list current calls %s", peer.DeviceAddress)
	t.Core.TelephonyResponse(peer, ag.CMENone)
}
func (t *Telephony) OperatorSelectionReq(peer *ag.Peer) {
	t.Log.Debugf("telephony: operator selection %s", peer.DeviceAddress)
	t.Core.TelephonyResponse(peer, ag.CMENone)
}
func (t *Telephony) NRAndECReq(peer *ag.Peer, on bool) {
	t.Log.Debugf("telephony: nr/ec %s -> %v", peer.DeviceAddress, on)
	t.Core.TelephonyResponse(peer, ag.CMENone)
}
func (t *Telephony) PeerConnected(peer *ag.Peer) {
	t.Log.Noticef("telephony: peer connected %s", peer.DeviceAddress)
}
func (t *Telephony) PeerDisconnected(peer *ag.Peer) {
	t.Log.Noticef("telephony: peer disconnected %s", peer.DeviceAddress)
}

// Transport refuses every connect attempt; a real backend would dial
// RFCOMM/SCO sockets against the kernel Bluetooth stack.
type Transport struct {
	Log *logging.Logger
}

func (t *Transport) ConnectRFCOMM(addr string, channel int, cb func(ag.RFCOMMChannel, error)) {
	t.Log.Warningf("transport: no RFCOMM backend wired, refusing connect to %s channel %d", addr, channel)
	cb(nil, errNoBackend{"rfcomm"})
}

func (t *Transport) ConnectSCO(addr string, cb func(ag.SCOChannel, error)) {
	t.Log.Warningf("transport: no SCO backend wired, refusing connect to %s", addr)
	cb(nil, errNoBackend{"sco"})
}

type errNoBackend struct{ channel string }

func (e errNoBackend) Error() string { return e.channel + ": no transport backend configured" }

// SDP reports every search as not found; a real backend would query the
// local SDP database.
type SDP struct {
	Log *logging.Logger
}

func (s *SDP) Search(addr string, profile ag.Profile, cb func(channel int, err error)) {
	s.Log.Warningf("sdp: no backend wired, no record for %s (%s)", addr, profile)
	cb(0, errNoBackend{"sdp"})
}

// Signals logs every control-plane event; a real backend would publish
// these over whatever wire protocol fronts the daemon.
type Signals struct {
	Log *logging.Logger
}

func (s *Signals) Connected(peer *ag.Peer) {
	s.Log.Noticef("signal: Connected(%s) -> %s", peer.DeviceAddress, peer.State())
}
func (s *Signals) Disconnected(peer *ag.Peer) {
	s.Log.Noticef("signal: Disconnected(%s) -> %s", peer.DeviceAddress, peer.State())
}
func (s *Signals) Playing(peer *ag.Peer) {
	s.Log.Noticef("signal: Playing(%s) -> %s", peer.DeviceAddress, peer.State())
}
func (s *Signals) Stopped(peer *ag.Peer) {
	s.Log.Noticef("signal: Stopped(%s) -> %s", peer.DeviceAddress, peer.State())
}
func (s *Signals) AnswerRequested(peer *ag.Peer) {
	s.Log.Noticef("signal: AnswerRequested(%s)", peer.DeviceAddress)
}
func (s *Signals) CallTerminated(peer *ag.Peer) {
	s.Log.Noticef("signal: CallTerminated(%s)", peer.DeviceAddress)
}
func (s *Signals) SpeakerGainChanged(peer *ag.Peer, gain int) {
	s.Log.Debugf("signal: SpeakerGainChanged(%s, %d)", peer.DeviceAddress, gain)
}
func (s *Signals) MicrophoneGainChanged(peer *ag.Peer, gain int) {
	s.Log.Debugf("signal: MicrophoneGainChanged(%s, %d)", peer.DeviceAddress, gain)
}
func (s *Signals) PropertyChanged(peer *ag.Peer, name string, value interface{}) {
	s.Log.Debugf("signal: PropertyChanged(%s, %s, %v)", peer.DeviceAddress, name, value)
}

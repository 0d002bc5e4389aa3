package ag

import (
	"testing"

	uuid "github.com/satori/go.uuid"

	"github.com/NKAVY/bluez/internal/config"
	"github.com/NKAVY/bluez/internal/eventloop"
)

func newTestCore(t *testing.T, transport *fakeTransport, sdp *fakeSDP, tel *fakeTelephony, sig *fakeSignals) *Core {
	t.Helper()
	loop := eventloop.New(16)
	go loop.Run()
	t.Cleanup(loop.Stop)

	cfg := config.Config{SCORouting: config.RoutingPCM}
	core := NewCore(loop, Collaborators{Telephony: tel, Transport: transport, SDP: sdp, Signals: sig}, cfg, true, 5)
	tel.core = core

	core.Ready(0, []Indicator{{Name: "service", RangeMin: 0, RangeMax: 1}}, threeWayChldDescriptor)
	// A synchronous no-op round trip guarantees Ready's effects are
	// committed before the test proceeds, since the loop runs tasks in
	// submission order.
	if _, err := core.call(func() (interface{}, error) { return nil, nil }); err != nil {
		t.Fatalf("sync barrier: %v", err)
	}
	return core
}

// TestHFPLifecycleConnectPlayStopDisconnect drives a peer through the full
// five-state cycle of spec §4.G via the real SLC orchestrator (slc.go),
// transport acquisition (lifecycle.go), and control-plane surface
// (core.go).
func TestHFPLifecycleConnectPlayStopDisconnect(t *testing.T) {
	transport := newFakeTransport()
	sdp := &fakeSDP{channel: 3}
	tel := &fakeTelephony{}
	sig := &fakeSignals{}
	core := newTestCore(t, transport, sdp, tel, sig)

	id := core.RegisterPeer("AA:BB:CC:DD:EE:FF")

	connectErr := make(chan error, 1)
	go func() { connectErr <- core.Connect(id) }()

	rfcomm := <-transport.rfcommReady
	if rfcomm.onData == nil {
		t.Fatal("expected onData handler to be set before signaling ready")
	}

	for _, cmd := range []string{
		"AT+BRSF=0\r",
		"AT+CIND=?\r",
		"AT+CIND?\r",
		"AT+CMER=3,0,0,1\r",
	} {
		rfcomm.onData([]byte(cmd))
	}

	if err := <-connectErr; err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if !core.IsConnected(id) {
		t.Fatal("expected peer to be CONNECTED after SLC completion")
	}
	if len(tel.connected) != 1 {
		t.Fatalf("expected PeerConnected to fire once, got %d", len(tel.connected))
	}
	if !sig.connectedCalled {
		t.Fatal("expected Signals.Connected to fire")
	}

	playErr := make(chan error, 1)
	go func() { playErr <- core.Play(id) }()

	sco := <-transport.scoReady
	_ = sco
	if err := <-playErr; err != nil {
		t.Fatalf("Play: %v", err)
	}
	if !core.IsPlaying(id) {
		t.Fatal("expected peer to be PLAYING")
	}
	if !sig.playingCalled {
		t.Fatal("expected Signals.Playing to fire")
	}

	if err := core.Stop(id); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if core.IsPlaying(id) {
		t.Fatal("expected peer to drop out of PLAYING after Stop")
	}
	if !core.IsConnected(id) {
		t.Fatal("expected peer to remain CONNECTED after Stop")
	}

	if err := core.Disconnect(id); err != nil {
		t.Fatalf("Disconnect: %v", err)
	}
	if core.IsConnected(id) {
		t.Fatal("expected peer to be DISCONNECTED")
	}
	if len(tel.disconnected) != 1 {
		t.Fatalf("expected PeerDisconnected to fire once, got %d", len(tel.disconnected))
	}
}

// TestConnectFailsWhenSDPFindsNoRecord covers spec §7: an SDP search that
// turns up no matching service record reports NotSupported and leaves the
// peer DISCONNECTED.
func TestConnectFailsWhenSDPFindsNoRecord(t *testing.T) {
	transport := newFakeTransport()
	sdp := &fakeSDP{err: errFakeNotFound{}}
	tel := &fakeTelephony{}
	sig := &fakeSignals{}
	core := newTestCore(t, transport, sdp, tel, sig)

	id := core.RegisterPeer("AA:BB:CC:DD:EE:FF")
	err := core.Connect(id)
	if TagOf(err) != ErrNotSupported {
		t.Fatalf("expected NotSupported, got %v", err)
	}
	if core.IsConnected(id) {
		t.Fatal("expected peer to remain DISCONNECTED")
	}
}

// TestConnectFailsWhenRFCOMMDialFails covers spec §7: a transport-level
// RFCOMM connect failure reports ConnectionAttemptFailed.
func TestConnectFailsWhenRFCOMMDialFails(t *testing.T) {
	transport := newFakeTransport()
	transport.rfcommErr = errFakeNotFound{}
	sdp := &fakeSDP{channel: 3}
	tel := &fakeTelephony{}
	sig := &fakeSignals{}
	core := newTestCore(t, transport, sdp, tel, sig)

	id := core.RegisterPeer("AA:BB:CC:DD:EE:FF")
	err := core.Connect(id)
	if TagOf(err) != ErrConnectionAttemptFailed {
		t.Fatalf("expected ConnectionAttemptFailed, got %v", err)
	}
}

// TestPlayRefusedWhenSCORoutingIsHCI covers spec §6: SCO routing owned by
// the kernel/controller refuses every Play request regardless of peer
// state.
func TestPlayRefusedWhenSCORoutingIsHCI(t *testing.T) {
	loop := eventloop.New(16)
	go loop.Run()
	t.Cleanup(loop.Stop)

	transport := newFakeTransport()
	sdp := &fakeSDP{channel: 3}
	tel := &fakeTelephony{}
	sig := &fakeSignals{}
	cfg := config.Config{SCORouting: config.RoutingHCI}
	core := NewCore(loop, Collaborators{Telephony: tel, Transport: transport, SDP: sdp, Signals: sig}, cfg, true, 5)
	tel.core = core
	core.Ready(0, nil, threeWayChldDescriptor)
	if _, err := core.call(func() (interface{}, error) { return nil, nil }); err != nil {
		t.Fatalf("sync barrier: %v", err)
	}

	id := core.RegisterPeer("AA:BB:CC:DD:EE:FF")
	if TagOf(core.Play(id)) != ErrNotAllowed {
		t.Fatal("expected Play to be refused under HCI routing")
	}
}

// TestCancelStreamDetachesCallbackWithoutAffectingPendingOp covers spec §5
// Cancellation: a callback queued onto an in-flight PendingOp via
// PlayAsync can be detached by id before it resolves, while the
// PendingOp itself (and whatever else is waiting on it, here Connect's
// reply sink) completes unaffected.
func TestCancelStreamDetachesCallbackWithoutAffectingPendingOp(t *testing.T) {
	transport := newFakeTransport()
	sdp := &fakeSDP{channel: 3}
	tel := &fakeTelephony{}
	sig := &fakeSignals{}
	core := newTestCore(t, transport, sdp, tel, sig)

	id := core.RegisterPeer("AA:BB:CC:DD:EE:FF")

	connectErr := make(chan error, 1)
	go func() { connectErr <- core.Connect(id) }()

	rfcomm := <-transport.rfcommReady

	called := false
	cbID, err := core.PlayAsync(id, func(error) { called = true })
	if err != nil {
		t.Fatalf("PlayAsync: %v", err)
	}
	if cbID == (uuid.UUID{}) {
		t.Fatal("expected a non-zero callback id while the op is still in flight")
	}

	if err := core.CancelStream(cbID); err != nil {
		t.Fatalf("CancelStream: %v", err)
	}

	for _, cmd := range []string{
		"AT+BRSF=0\r",
		"AT+CIND=?\r",
		"AT+CIND?\r",
		"AT+CMER=3,0,0,1\r",
	} {
		rfcomm.onData([]byte(cmd))
	}

	<-transport.scoReady

	if err := <-connectErr; err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if !core.IsPlaying(id) {
		t.Fatal("expected the upgraded target (StatePlaying) to still be reached")
	}
	if called {
		t.Fatal("expected the cancelled callback never to fire")
	}

	if err := core.CancelStream(cbID); TagOf(err) != ErrNotAvailable {
		t.Fatalf("expected re-cancelling an already-detached id to report NotAvailable, got %v", err)
	}
}

type errFakeNotFound struct{}

func (errFakeNotFound) Error() string { return "not found" }

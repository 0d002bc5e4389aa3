package ag

import (
	"strings"
	"testing"

	uuid "github.com/satori/go.uuid"

	"github.com/NKAVY/bluez/internal/eventloop"
)

// newDispatchTestPeer wires a Core with a running loop (needed because
// forwarded commands now resolve asynchronously through
// Core.TelephonyResponse, see response.go) around one bare HFP peer.
// Tests that dispatch a forwarded command must call settle(core, t)
// before asserting on anything the deferred reply touches.
func newDispatchTestPeer(t *testing.T) (*Core, *Peer, *[]byte) {
	t.Helper()
	loop := eventloop.New(8)
	go loop.Run()
	t.Cleanup(loop.Stop)

	tel := &fakeTelephony{}
	sig := &fakeSignals{}
	core := &Core{
		loop:      loop,
		ag:        NewAGState(),
		peers:     make(map[uuid.UUID]*Peer),
		telephony: tel,
		signals:   sig,
		callbacks: newCallbackRegistry(),
		sdpCache:  newSDPChannelCache(),
		dialHist:  newDialHistory(),
	}
	tel.core = core
	p := NewPeer(uuid.NewV4(), "AA:BB:CC:DD:EE:FF")
	p.profile = ProfileHFP

	var out []byte
	p.framer = NewFramer(MinBufferCapacity, func(b []byte) error {
		out = append(out, b...)
		return nil
	})
	core.peers[p.ID] = p
	return core, p, &out
}

// settle blocks until every task posted to core's loop up to this point
// has run, including a Telephony response deferred during the most
// recent Dispatch call.
func settle(core *Core, t *testing.T) {
	t.Helper()
	if _, err := core.call(func() (interface{}, error) { return nil, nil }); err != nil {
		t.Fatalf("settle: %v", err)
	}
}

func TestDispatchUnknownCommandRepliesError(t *testing.T) {
	core, p, out := newDispatchTestPeer(t)
	core.Dispatch(p, "AT+XXXXX=1")
	if !strings.Contains(string(*out), "ERROR") {
		t.Fatalf("got %q", *out)
	}
}

func TestDispatchInvalidArgumentWithCMEEnabled(t *testing.T) {
	core, p, out := newDispatchTestPeer(t)
	p.CMEEnabled = true
	core.Dispatch(p, "AT+CHLD=") // missing argument carries a CME code
	if !strings.Contains(string(*out), "+CME ERROR") {
		t.Fatalf("expected +CME ERROR, got %q", *out)
	}
}

func TestDispatchInvalidArgumentWithoutCMEFallsBackToPlainError(t *testing.T) {
	core, p, out := newDispatchTestPeer(t)
	p.CMEEnabled = false
	core.Dispatch(p, "AT+VGS=99") // out of 0..15 range, not a CME-coded failure
	if !strings.Contains(string(*out), "ERROR") || strings.Contains(string(*out), "+CME") {
		t.Fatalf("expected plain ERROR, got %q", *out)
	}
}

func TestDispatchVGSUpdatesGainAndSignals(t *testing.T) {
	core, p, out := newDispatchTestPeer(t)
	core.Dispatch(p, "AT+VGS=9")
	if p.SpeakerGain != 9 {
		t.Fatalf("expected gain 9, got %d", p.SpeakerGain)
	}
	if !strings.Contains(string(*out), "OK") {
		t.Fatalf("got %q", *out)
	}
	sig := core.signals.(*fakeSignals)
	if len(sig.propChanges) != 1 || sig.propChanges[0] != "SpeakerGain" {
		t.Fatalf("expected one SpeakerGain property change, got %v", sig.propChanges)
	}
}

func TestDispatchCMERRejectsIndOutsideZeroOne(t *testing.T) {
	core, p, out := newDispatchTestPeer(t)
	core.Dispatch(p, "AT+CMER=3,0,0,2")
	if !strings.Contains(string(*out), "ERROR") {
		t.Fatalf("expected ERROR for er_ind=2, got %q", *out)
	}
}

func TestDispatchCMERCompletesSLCWithoutThreeWay(t *testing.T) {
	core, p, _ := newDispatchTestPeer(t)
	p.state = StateConnectInProgress
	core.Dispatch(p, "AT+CMER=3,0,0,1")
	settle(core, t)
	if p.State() != StateConnected {
		t.Fatalf("expected CONNECTED after CMER with no three-way support, got %s", p.State())
	}
}

func TestDispatchCMERReportsCMEErrorWithoutCompletingSLC(t *testing.T) {
	core, p, out := newDispatchTestPeer(t)
	p.state = StateConnectInProgress
	p.CMEEnabled = true
	core.telephony.(*fakeTelephony).respondErr = CMEError(30)
	core.Dispatch(p, "AT+CMER=3,0,0,1")
	settle(core, t)
	if !strings.Contains(string(*out), "+CME ERROR: 30") {
		t.Fatalf("expected +CME ERROR: 30, got %q", *out)
	}
	if p.State() == StateConnected {
		t.Fatal("expected SLC not to complete after a CME error response")
	}
}

func TestDispatchCHLDQueryAdvertisesThreeWayWhenMutual(t *testing.T) {
	core, p, out := newDispatchTestPeer(t)
	core.ag.AGFeatures = uint32(FeatureThreeWayCalling)
	p.HFFeatures = uint32(HFFeatureCallWaitingOrThreeWay)
	core.Dispatch(p, "AT+CHLD=?")
	if !strings.Contains(string(*out), threeWayChldDescriptor) {
		t.Fatalf("got %q", *out)
	}
}

func TestDispatchBTRHQueryRepliesPlainOKWhenInactive(t *testing.T) {
	core, p, out := newDispatchTestPeer(t)
	core.Dispatch(p, "AT+BTRH?")
	if strings.TrimSpace(string(*out)) != "OK" {
		t.Fatalf("got %q", *out)
	}
}

func TestDispatchBTRHQueryReportsActiveState(t *testing.T) {
	core, p, out := newDispatchTestPeer(t)
	core.ag.RH = 1
	core.Dispatch(p, "AT+BTRH?")
	if !strings.Contains(string(*out), "+BTRH: 1") {
		t.Fatalf("expected +BTRH: 1 before OK, got %q", *out)
	}
}

func TestDispatchBTRHSetForwardsValueUnchanged(t *testing.T) {
	core, p, _ := newDispatchTestPeer(t)
	core.Dispatch(p, "AT+BTRH=1")
	tel := core.telephony.(*fakeTelephony)
	if len(tel.rhRequests) != 1 || tel.rhRequests[0] != 1 {
		t.Fatalf("expected ResponseAndHoldReq(1), got %v", tel.rhRequests)
	}
}

func TestDispatchNRECAcceptsZeroAndOne(t *testing.T) {
	core, p, out := newDispatchTestPeer(t)
	core.Dispatch(p, "AT+NREC=1")
	settle(core, t)
	if !strings.Contains(string(*out), "OK") {
		t.Fatalf("expected OK for AT+NREC=1, got %q", *out)
	}
	if !p.NREC {
		t.Fatal("expected NREC true after AT+NREC=1 succeeds")
	}

	*out = nil
	core.Dispatch(p, "AT+NREC=0")
	settle(core, t)
	if !strings.Contains(string(*out), "OK") {
		t.Fatalf("expected OK for AT+NREC=0, got %q", *out)
	}
	if p.NREC {
		t.Fatal("expected NREC false after AT+NREC=0 succeeds")
	}

	tel := core.telephony.(*fakeTelephony)
	if len(tel.nrec) != 2 || tel.nrec[0] != true || tel.nrec[1] != false {
		t.Fatalf("expected NRAndECReq(true) then NRAndECReq(false), got %v", tel.nrec)
	}
}

func TestDispatchNRECRejectsOtherValues(t *testing.T) {
	core, p, out := newDispatchTestPeer(t)
	core.Dispatch(p, "AT+NREC=2")
	if !strings.Contains(string(*out), "ERROR") {
		t.Fatalf("expected ERROR for AT+NREC=2, got %q", *out)
	}
}

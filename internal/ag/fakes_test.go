package ag

// Fakes for the four collaborator interfaces (collab.go), mirroring the
// request-recording mock style of kryptco-kr's test helpers
// (control_server_test.go) rather than a mocking framework.

type fakeRFCOMM struct {
	written  [][]byte
	onData   func([]byte)
	onClosed func(error)
	closed   bool
	ready    chan *fakeRFCOMM // receives f once SetHandlers has run
}

func (f *fakeRFCOMM) Write(p []byte) error {
	f.written = append(f.written, append([]byte(nil), p...))
	return nil
}
func (f *fakeRFCOMM) Close() error { f.closed = true; return nil }
func (f *fakeRFCOMM) SetHandlers(onData func([]byte), onClosed func(error)) {
	f.onData = onData
	f.onClosed = onClosed
	if f.ready != nil {
		f.ready <- f
	}
}

type fakeSCO struct {
	onClosed func(error)
	closed   bool
}

func (f *fakeSCO) Close() error { f.closed = true; return nil }
func (f *fakeSCO) SetHandlers(onClosed func(error)) { f.onClosed = onClosed }

type fakeTransport struct {
	rfcommErr   error
	scoErr      error
	rfcommReady chan *fakeRFCOMM
	scoReady    chan *fakeSCO
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		rfcommReady: make(chan *fakeRFCOMM, 4),
		scoReady:    make(chan *fakeSCO, 4),
	}
}

func (t *fakeTransport) ConnectRFCOMM(addr string, channel int, cb func(RFCOMMChannel, error)) {
	if t.rfcommErr != nil {
		cb(nil, t.rfcommErr)
		return
	}
	cb(&fakeRFCOMM{ready: t.rfcommReady}, nil)
}

func (t *fakeTransport) ConnectSCO(addr string, cb func(SCOChannel, error)) {
	if t.scoErr != nil {
		cb(nil, t.scoErr)
		return
	}
	ch := &fakeSCO{}
	cb(ch, nil)
	t.scoReady <- ch
}

type fakeSDP struct {
	channel int
	err     error
}

func (s *fakeSDP) Search(addr string, profile Profile, cb func(int, error)) {
	cb(s.channel, s.err)
}

// fakeTelephony auto-acknowledges every request-response method through
// core once it is set, mirroring how stub.Telephony calls back into the
// real Core. respondErr overrides the result of the next such method
// call, then resets itself to CMENone, letting a test drive a single
// negative response (spec §8 Scenario 6) without extra bookkeeping.
type fakeTelephony struct {
	core *Core

	respondErr CMEError

	connected    []*Peer
	disconnected []*Peer
	dialed       []string
	answered     int
	terminated   int
	chldArgs     []string
	rhRequests   []int
	nrec         []bool
}

func (f *fakeTelephony) respond(peer *Peer) {
	err := f.respondErr
	f.respondErr = CMENone
	f.core.TelephonyResponse(peer, err)
}

func (f *fakeTelephony) EventReportingReq(peer *Peer, on bool) { f.respond(peer) }
func (f *fakeTelephony) CallHoldReq(peer *Peer, arg string) {
	f.chldArgs = append(f.chldArgs, arg)
	f.respond(peer)
}
func (f *fakeTelephony) KeyPressReq(peer *Peer, keys string) { f.respond(peer) }
func (f *fakeTelephony) AnswerCallReq(peer *Peer)            { f.answered++; f.respond(peer) }
func (f *fakeTelephony) TerminateCallReq(peer *Peer)         { f.terminated++; f.respond(peer) }
func (f *fakeTelephony) ResponseAndHoldReq(peer *Peer, n int) {
	f.rhRequests = append(f.rhRequests, n)
	f.respond(peer)
}
func (f *fakeTelephony) LastDialedNumberReq(peer *Peer) { f.respond(peer) }
func (f *fakeTelephony) DialNumberReq(peer *Peer, number string) {
	f.dialed = append(f.dialed, number)
	f.respond(peer)
}
func (f *fakeTelephony) TransmitDTMFReq(peer *Peer, ch byte) { f.respond(peer) }
func (f *fakeTelephony) SubscriberNumberReq(peer *Peer)      { f.respond(peer) }
func (f *fakeTelephony) ListCurrentCallsReq(peer *Peer)      { f.respond(peer) }
func (f *fakeTelephony) OperatorSelectionReq(peer *Peer)     { f.respond(peer) }
func (f *fakeTelephony) NRAndECReq(peer *Peer, on bool) {
	f.nrec = append(f.nrec, on)
	f.respond(peer)
}
func (f *fakeTelephony) PeerConnected(peer *Peer)    { f.connected = append(f.connected, peer) }
func (f *fakeTelephony) PeerDisconnected(peer *Peer) { f.disconnected = append(f.disconnected, peer) }

type fakeSignals struct {
	connectedCalled    bool
	disconnectedCalled bool
	playingCalled      bool
	stoppedCalled      bool
	propChanges        []string
}

func (s *fakeSignals) Connected(peer *Peer)    { s.connectedCalled = true }
func (s *fakeSignals) Disconnected(peer *Peer) { s.disconnectedCalled = true }
func (s *fakeSignals) Playing(peer *Peer)      { s.playingCalled = true }
func (s *fakeSignals) Stopped(peer *Peer)      { s.stoppedCalled = true }
func (s *fakeSignals) AnswerRequested(peer *Peer) {}
func (s *fakeSignals) CallTerminated(peer *Peer)  {}
func (s *fakeSignals) SpeakerGainChanged(peer *Peer, gain int)     {}
func (s *fakeSignals) MicrophoneGainChanged(peer *Peer, gain int)  {}
func (s *fakeSignals) PropertyChanged(peer *Peer, name string, value interface{}) {
	s.propChanges = append(s.propChanges, name)
}

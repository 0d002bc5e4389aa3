package ag

import "fmt"

// MinBufferCapacity is the smallest input buffer capacity spec §3 allows.
const MinBufferCapacity = 1024

// inputBuffer is a {start, length} ring over a fixed array (spec §9
// Design Notes: "not a growable container"). Overflow is reported, never
// silently truncated, because spec §4.C treats it as a fatal session
// error by design.
type inputBuffer struct {
	buf           []byte
	start, length int
}

func newInputBuffer(capacity int) inputBuffer {
	if capacity < MinBufferCapacity {
		capacity = MinBufferCapacity
	}
	return inputBuffer{buf: make([]byte, capacity)}
}

// feed appends data to the buffer and extracts every complete command
// terminated by '\r'. Empty segments (two '\r' in a row, or a leading
// '\r') are silently dropped, per spec §4.C. If data would not fit in
// the remaining capacity, nothing is buffered and overflow is true.
func (b *inputBuffer) feed(data []byte) (cmds []string, overflow bool) {
	capacity := len(b.buf)
	if b.length+len(data) > capacity {
		return nil, true
	}
	for _, c := range data {
		pos := (b.start + b.length) % capacity
		b.buf[pos] = c
		b.length++
	}

	for {
		idx := -1
		for i := 0; i < b.length; i++ {
			if b.buf[(b.start+i)%capacity] == '\r' {
				idx = i
				break
			}
		}
		if idx < 0 {
			break
		}
		cmd := make([]byte, idx)
		for i := 0; i < idx; i++ {
			cmd[i] = b.buf[(b.start+i)%capacity]
		}
		b.start = (b.start + idx + 1) % capacity
		b.length -= idx + 1
		if len(cmd) > 0 {
			cmds = append(cmds, string(cmd))
		}
	}
	return cmds, false
}

// Framer turns an RFCOMM byte stream into whole AT commands and frames
// outgoing responses in \r\n...\r\n envelopes (spec §4.C).
type Framer struct {
	in    inputBuffer
	write func([]byte) error
}

// NewFramer creates a Framer with the given input buffer capacity
// (clamped to MinBufferCapacity) writing responses through write.
func NewFramer(capacity int, write func([]byte) error) *Framer {
	return &Framer{in: newInputBuffer(capacity), write: write}
}

// Feed extracts whole commands from newly arrived bytes. overflow==true
// means the peer is considered hostile and the caller must force the
// session to DISCONNECTED without sending a reply (spec §4.C).
func (f *Framer) Feed(data []byte) (cmds []string, overflow bool) {
	return f.in.feed(data)
}

func (f *Framer) sendRaw(payload string) error {
	return f.write([]byte("\r\n" + payload + "\r\n"))
}

// SendInfo emits an informational response (e.g. "+CIND: ..."), framed on
// its own; callers follow it with SendOK or SendError per spec §4.C.
func (f *Framer) SendInfo(payload string) error {
	return f.sendRaw(payload)
}

// SendOK emits the terminal "\r\nOK\r\n".
func (f *Framer) SendOK() error {
	return f.sendRaw("OK")
}

// SendError emits the terminal "\r\nERROR\r\n".
func (f *Framer) SendError() error {
	return f.sendRaw("ERROR")
}

// SendCMEError emits "\r\n+CME ERROR: <code>\r\n".
func (f *Framer) SendCMEError(code CMEError) error {
	return f.sendRaw(fmt.Sprintf("+CME ERROR: %d", code))
}

// SendResult emits SendCMEError when cmeEnabled and err != 0, else
// SendError on any error, else SendOK: the single rule spec §4.D/§7
// apply at every forwarded-command completion site.
func (f *Framer) SendResult(err CMEError, cmeEnabled bool) error {
	if err == CMENone {
		return f.SendOK()
	}
	if cmeEnabled {
		return f.SendCMEError(err)
	}
	return f.SendError()
}

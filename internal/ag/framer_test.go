package ag

import "testing"

func TestInputBufferFeedExtractsCompleteCommands(t *testing.T) {
	buf := newInputBuffer(MinBufferCapacity)

	cmds, overflow := buf.feed([]byte("AT+BRSF=0\r"))
	if overflow {
		t.Fatal("unexpected overflow")
	}
	if len(cmds) != 1 || cmds[0] != "AT+BRSF=0" {
		t.Fatalf("got %v", cmds)
	}

	cmds, overflow = buf.feed([]byte("AT+CIND?\rAT+CIND=?\r"))
	if overflow {
		t.Fatal("unexpected overflow")
	}
	if len(cmds) != 2 || cmds[0] != "AT+CIND?" || cmds[1] != "AT+CIND=?" {
		t.Fatalf("got %v", cmds)
	}
}

func TestInputBufferDropsEmptySegments(t *testing.T) {
	buf := newInputBuffer(MinBufferCapacity)
	cmds, overflow := buf.feed([]byte("\r\rATA\r\r"))
	if overflow {
		t.Fatal("unexpected overflow")
	}
	if len(cmds) != 1 || cmds[0] != "ATA" {
		t.Fatalf("got %v", cmds)
	}
}

func TestInputBufferPartialCommandWaitsForMore(t *testing.T) {
	buf := newInputBuffer(MinBufferCapacity)
	cmds, overflow := buf.feed([]byte("AT+BRS"))
	if overflow || len(cmds) != 0 {
		t.Fatalf("expected no commands yet, got %v overflow=%v", cmds, overflow)
	}
	cmds, overflow = buf.feed([]byte("F=0\r"))
	if overflow || len(cmds) != 1 || cmds[0] != "AT+BRSF=0" {
		t.Fatalf("got %v overflow=%v", cmds, overflow)
	}
}

func TestInputBufferOverflowReportsWithoutBuffering(t *testing.T) {
	buf := newInputBuffer(MinBufferCapacity)
	huge := make([]byte, MinBufferCapacity+1)
	cmds, overflow := buf.feed(huge)
	if !overflow {
		t.Fatal("expected overflow")
	}
	if cmds != nil {
		t.Fatalf("expected no commands on overflow, got %v", cmds)
	}
}

func TestFramerSendResult(t *testing.T) {
	var got []byte
	f := NewFramer(MinBufferCapacity, func(p []byte) error {
		got = append(got, p...)
		return nil
	})

	_ = f.SendResult(CMENone, true)
	if string(got) != "\r\nOK\r\n" {
		t.Fatalf("got %q", got)
	}

	got = nil
	_ = f.SendResult(CMEError(3), false)
	if string(got) != "\r\nERROR\r\n" {
		t.Fatalf("got %q", got)
	}

	got = nil
	_ = f.SendResult(CMEError(3), true)
	if string(got) != "\r\n+CME ERROR: 3\r\n" {
		t.Fatalf("got %q", got)
	}
}
